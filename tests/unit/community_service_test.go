package unit

import (
	"context"
	"errors"
	"testing"

	communityservice "agora/contexts/governance-core/community-service"
	"agora/contexts/governance-core/community-service/application"
	"agora/contexts/governance-core/community-service/domain/entities"
	domainerrors "agora/contexts/governance-core/community-service/domain/errors"
)

func TestCreateCommunityValidatesAndDeduplicates(t *testing.T) {
	module := communityservice.NewInMemoryModule(nil, nil)

	community, err := module.Service.CreateCommunity(context.Background(), "create-1", application.CreateCommunityInput{
		AuthorityID:      "founder",
		Name:             "Gophers",
		Category:         "Technology",
		QuorumPercentage: 30,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !community.IsActive || community.TotalMembers != 1 || community.Category != "technology" {
		t.Fatalf("unexpected community state: %+v", community)
	}

	_, err = module.Service.CreateCommunity(context.Background(), "create-2", application.CreateCommunityInput{
		AuthorityID:      "founder",
		Name:             "Gophers",
		Category:         "technology",
		QuorumPercentage: 30,
	})
	if !errors.Is(err, domainerrors.ErrCommunityAlreadyExists) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	_, err = module.Service.CreateCommunity(context.Background(), "create-3", application.CreateCommunityInput{
		AuthorityID:      "founder",
		Name:             "Bad Quorum",
		QuorumPercentage: 0,
	})
	if !errors.Is(err, domainerrors.ErrInvalidCommunityInput) {
		t.Fatalf("expected quorum validation, got %v", err)
	}

	_, err = module.Service.CreateCommunity(context.Background(), "create-4", application.CreateCommunityInput{
		AuthorityID:      "founder",
		Name:             "Bad Category",
		Category:         "not-a-real-category",
		QuorumPercentage: 30,
	})
	if !errors.Is(err, domainerrors.ErrInvalidCategory) {
		t.Fatalf("expected category validation, got %v", err)
	}
}

func TestUpdateCommunitySettingsRequiresAuthority(t *testing.T) {
	module := communityservice.NewInMemoryModule([]entities.Community{{
		CommunityID:      "community-1",
		Authority:        "founder",
		Name:             "Gophers",
		QuorumPercentage: 30,
		IsActive:         true,
	}}, nil)

	quorum := 55
	_, err := module.Service.UpdateCommunitySettings(context.Background(), "update-1", application.UpdateCommunityInput{
		CommunityID:      "community-1",
		CallerID:         "stranger",
		QuorumPercentage: &quorum,
	})
	if !errors.Is(err, domainerrors.ErrInsufficientPermissions) {
		t.Fatalf("expected permission rejection, got %v", err)
	}

	updated, err := module.Service.UpdateCommunitySettings(context.Background(), "update-2", application.UpdateCommunityInput{
		CommunityID:      "community-1",
		CallerID:         "founder",
		QuorumPercentage: &quorum,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.QuorumPercentage != 55 {
		t.Fatalf("expected quorum 55, got %d", updated.QuorumPercentage)
	}
}

func TestDeactivateCommunityIsAuthorityOnlyAndIdempotent(t *testing.T) {
	module := communityservice.NewInMemoryModule([]entities.Community{{
		CommunityID: "community-1",
		Authority:   "founder",
		Name:        "Gophers",
		IsActive:    true,
	}}, nil)

	if _, err := module.Service.DeactivateCommunity(context.Background(), "community-1", "stranger"); !errors.Is(err, domainerrors.ErrInsufficientPermissions) {
		t.Fatalf("expected permission rejection, got %v", err)
	}

	community, err := module.Service.DeactivateCommunity(context.Background(), "community-1", "founder")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if community.IsActive {
		t.Fatalf("expected inactive community")
	}

	again, err := module.Service.DeactivateCommunity(context.Background(), "community-1", "founder")
	if err != nil || again.IsActive {
		t.Fatalf("expected idempotent deactivate, got %+v err %v", again, err)
	}
}

func TestCustomCategoryLifecycle(t *testing.T) {
	module := communityservice.NewInMemoryModule([]entities.Community{{
		CommunityID: "community-1",
		Authority:   "founder",
		Name:        "Gophers",
		IsActive:    true,
	}}, nil)

	category, err := module.Service.CreateCustomCategory(context.Background(), "cat-1", application.CreateCustomCategoryInput{
		CommunityID: "community-1",
		CallerID:    "founder",
		Name:        "Releases",
		Color:       "#00ADD8",
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if category.CreatedBy != "founder" {
		t.Fatalf("expected creator founder, got %s", category.CreatedBy)
	}

	_, err = module.Service.CreateCustomCategory(context.Background(), "cat-2", application.CreateCustomCategoryInput{
		CommunityID: "community-1",
		CallerID:    "founder",
		Name:        "Releases",
	})
	if !errors.Is(err, domainerrors.ErrCategoryAlreadyExists) {
		t.Fatalf("expected duplicate category rejection, got %v", err)
	}

	_, err = module.Service.CreateCustomCategory(context.Background(), "cat-3", application.CreateCustomCategoryInput{
		CommunityID: "community-1",
		CallerID:    "random-member",
		Name:        "Off Topic",
	})
	if !errors.Is(err, domainerrors.ErrInsufficientPermissions) {
		t.Fatalf("expected permission rejection, got %v", err)
	}

	listed, err := module.Service.ListCustomCategories(context.Background(), "community-1")
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one category, got %d", len(listed))
	}
}

func TestCategorySubscriptionRoundTrip(t *testing.T) {
	module := communityservice.NewInMemoryModule(nil, nil)

	if _, err := module.Service.SubscribeToCategory(context.Background(), "user-1", "Technology"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := module.Service.SubscribeToCategory(context.Background(), "user-1", "technology"); !errors.Is(err, domainerrors.ErrAlreadySubscribed) {
		t.Fatalf("expected duplicate subscription rejection, got %v", err)
	}

	subs, err := module.Service.ListSubscriptions(context.Background(), "user-1")
	if err != nil || len(subs) != 1 {
		t.Fatalf("expected one subscription, got %d err %v", len(subs), err)
	}

	if err := module.Service.UnsubscribeFromCategory(context.Background(), "user-1", "technology"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := module.Service.UnsubscribeFromCategory(context.Background(), "user-1", "technology"); !errors.Is(err, domainerrors.ErrSubscriptionNotFound) {
		t.Fatalf("expected missing subscription rejection, got %v", err)
	}
}

func TestCommunityCountersTrackActivity(t *testing.T) {
	module := communityservice.NewInMemoryModule([]entities.Community{{
		CommunityID:  "community-1",
		Authority:    "founder",
		Name:         "Gophers",
		TotalMembers: 1,
		IsActive:     true,
	}}, nil)

	ctx := context.Background()
	if err := module.Service.MemberJoined(ctx, "community-1"); err != nil {
		t.Fatalf("member joined: %v", err)
	}
	if err := module.Service.VoteCreated(ctx, "community-1"); err != nil {
		t.Fatalf("vote created: %v", err)
	}
	if err := module.Service.FeeAccrued(ctx, "community-1", 10_000_000); err != nil {
		t.Fatalf("fee accrued: %v", err)
	}
	if err := module.Service.MemberLeft(ctx, "community-1"); err != nil {
		t.Fatalf("member left: %v", err)
	}

	community, err := module.Service.GetCommunity(ctx, "community-1")
	if err != nil {
		t.Fatalf("get community: %v", err)
	}
	if community.TotalMembers != 1 || community.TotalVotes != 1 || community.FeeCollected != 10_000_000 {
		t.Fatalf("unexpected counters: %+v", community)
	}
}
