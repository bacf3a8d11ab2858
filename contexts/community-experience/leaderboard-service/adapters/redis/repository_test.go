package redisadapter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRepository(client, nil)
}

func TestRepositoryBoardsRankByScore(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.IncrementGlobal(ctx, "user-1", 10); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := repo.IncrementGlobal(ctx, "user-2", 25); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := repo.IncrementGlobal(ctx, "user-1", 5); err != nil {
		t.Fatalf("increment: %v", err)
	}

	entries, err := repo.TopGlobal(ctx, 10)
	if err != nil {
		t.Fatalf("top global: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != "user-2" || entries[1].Score != 15 {
		t.Fatalf("unexpected board: %+v", entries)
	}

	entry, found, err := repo.GlobalRank(ctx, "user-1")
	if err != nil || !found {
		t.Fatalf("rank: found=%v err=%v", found, err)
	}
	if entry.Rank != 2 || entry.Score != 15 {
		t.Fatalf("unexpected rank entry: %+v", entry)
	}

	if _, found, err := repo.GlobalRank(ctx, "ghost"); err != nil || found {
		t.Fatalf("expected missing rank, found=%v err=%v", found, err)
	}
}

func TestRepositoryCommunityBoardsAreIsolated(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.IncrementCommunity(ctx, "community-1", "user-1", 3); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := repo.IncrementCommunity(ctx, "community-2", "user-1", 7); err != nil {
		t.Fatalf("increment: %v", err)
	}

	first, err := repo.TopCommunity(ctx, "community-1", 10)
	if err != nil || len(first) != 1 || first[0].Score != 3 {
		t.Fatalf("unexpected community-1 board: %+v err %v", first, err)
	}
	second, err := repo.TopCommunity(ctx, "community-2", 10)
	if err != nil || len(second) != 1 || second[0].Score != 7 {
		t.Fatalf("unexpected community-2 board: %+v err %v", second, err)
	}
}

func TestRepositoryReserveEventDeduplicates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	processed, err := repo.ReserveEvent(ctx, "evt-1", "hash-1", expires)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if processed {
		t.Fatalf("first reservation must not be marked processed")
	}

	processed, err = repo.ReserveEvent(ctx, "evt-1", "hash-1", expires)
	if err != nil {
		t.Fatalf("reserve replay: %v", err)
	}
	if !processed {
		t.Fatalf("replay must be marked processed")
	}
}
