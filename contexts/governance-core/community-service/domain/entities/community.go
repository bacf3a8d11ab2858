package entities

import (
	"strings"
	"time"
)

type Community struct {
	CommunityID           string
	Authority             string
	Name                  string
	Description           string
	Category              string
	QuorumPercentage      int
	RequiresApproval      bool
	WeightedVotingDefault bool
	TotalMembers          int64
	TotalVotes            int64
	FeeCollected          int64
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CustomCategory is a community-scoped category beyond the built-in set.
type CustomCategory struct {
	CategoryID  string
	CommunityID string
	Name        string
	Color       string
	Icon        string
	CreatedBy   string
	CreatedAt   time.Time
}

// CategorySubscription records a user following a category feed.
type CategorySubscription struct {
	SubscriptionID string
	UserID         string
	Category       string
	CreatedAt      time.Time
}

var builtinCategories = []string{
	"technology",
	"finance",
	"gaming",
	"art",
	"education",
	"sports",
	"music",
	"politics",
	"science",
	"general",
	"custom",
}

func IsBuiltinCategory(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, category := range builtinCategories {
		if category == name {
			return true
		}
	}
	return false
}

func BuiltinCategories() []string {
	return append([]string(nil), builtinCategories...)
}
