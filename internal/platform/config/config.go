package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName        string
	HTTPPort           string
	PostgresDSN        string
	RedisAddr          string
	KafkaBrokers       []string
	WorkerPollInterval time.Duration

	EnableExpirySweeper       bool
	EnableLeaderboardConsumer bool
	EnableBanExpirySweeper    bool
}

func Load() (Config, error) {
	// Local development convenience; real deployments set env directly.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "agora"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	pollInterval := 2 * time.Second
	if raw := strings.TrimSpace(os.Getenv("WORKER_POLL_INTERVAL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			pollInterval = parsed
		}
	}

	return Config{
		ServiceName:        service,
		HTTPPort:           port,
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		KafkaBrokers:       brokers,
		WorkerPollInterval: pollInterval,

		EnableExpirySweeper:       envBool("ENABLE_EXPIRY_SWEEPER", true),
		EnableLeaderboardConsumer: envBool("ENABLE_LEADERBOARD_CONSUMER", true),
		EnableBanExpirySweeper:    envBool("ENABLE_BAN_EXPIRY_SWEEPER", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
