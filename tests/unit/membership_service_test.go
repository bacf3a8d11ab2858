package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	membershipservice "agora/contexts/governance-core/membership-service"
	"agora/contexts/governance-core/membership-service/application"
	"agora/contexts/governance-core/membership-service/domain/entities"
	domainerrors "agora/contexts/governance-core/membership-service/domain/errors"
	"agora/contexts/governance-core/membership-service/ports"
)

func newMembershipModule(requiresApproval bool, seed []entities.Membership) membershipservice.Module {
	module := membershipservice.NewInMemoryModule(seed, nil)
	module.Store.SetCommunityInfo(ports.CommunityInfo{
		CommunityID:      "community-1",
		Authority:        "founder",
		RequiresApproval: requiresApproval,
		IsActive:         true,
	})
	return module
}

func TestJoinCommunityFlow(t *testing.T) {
	module := newMembershipModule(false, nil)

	membership, err := module.Service.JoinCommunity(context.Background(), "community-1", "user-1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if membership.Role != entities.RoleMember || !membership.IsActive {
		t.Fatalf("unexpected membership: %+v", membership)
	}

	if _, err := module.Service.JoinCommunity(context.Background(), "community-1", "user-1"); !errors.Is(err, domainerrors.ErrAlreadyMember) {
		t.Fatalf("expected duplicate join rejection, got %v", err)
	}

	gated := newMembershipModule(true, nil)
	if _, err := gated.Service.JoinCommunity(context.Background(), "community-1", "user-1"); !errors.Is(err, domainerrors.ErrCommunityRequiresApproval) {
		t.Fatalf("expected approval gate, got %v", err)
	}
}

func TestMembershipRequestReview(t *testing.T) {
	module := newMembershipModule(true, []entities.Membership{{
		MembershipID: "m-mod",
		CommunityID:  "community-1",
		UserID:       "mod",
		Role:         entities.RoleModerator,
		IsActive:     true,
	}})

	request, err := module.Service.RequestMembership(context.Background(), "community-1", "applicant", "let me in")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if request.Status != entities.RequestPending {
		t.Fatalf("expected pending request, got %s", request.Status)
	}
	if _, err := module.Service.RequestMembership(context.Background(), "community-1", "applicant", "again"); !errors.Is(err, domainerrors.ErrRequestAlreadyExists) {
		t.Fatalf("expected duplicate request rejection, got %v", err)
	}

	if _, err := module.Service.ApproveMembershipRequest(context.Background(), "review-1", request.RequestID, "applicant", ""); !errors.Is(err, domainerrors.ErrInsufficientPermissions) {
		t.Fatalf("expected non-moderator rejection, got %v", err)
	}

	reviewed, err := module.Service.ApproveMembershipRequest(context.Background(), "review-2", request.RequestID, "mod", "welcome")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if reviewed.Status != entities.RequestApproved {
		t.Fatalf("expected approved, got %s", reviewed.Status)
	}

	membership, err := module.Service.GetMembership(context.Background(), "community-1", "applicant")
	if err != nil || !membership.IsActive || membership.Role != entities.RoleMember {
		t.Fatalf("expected active member after approval, got %+v err %v", membership, err)
	}

	if _, err := module.Service.ApproveMembershipRequest(context.Background(), "review-3", request.RequestID, "mod", "welcome"); !errors.Is(err, domainerrors.ErrRequestNotPending) {
		t.Fatalf("expected settled request rejection, got %v", err)
	}
}

func TestApprovedRequestReactivatesReturningMember(t *testing.T) {
	joinedAt := time.Now().Add(-90 * 24 * time.Hour).UTC()
	module := newMembershipModule(true, []entities.Membership{
		{MembershipID: "m-mod", CommunityID: "community-1", UserID: "mod", Role: entities.RoleModerator, IsActive: true},
		{MembershipID: "m-return", CommunityID: "community-1", UserID: "returning", Role: entities.RoleMember, IsActive: false, JoinedAt: joinedAt},
	})

	request, err := module.Service.RequestMembership(context.Background(), "community-1", "returning", "coming back")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := module.Service.ApproveMembershipRequest(context.Background(), "review-return", request.RequestID, "mod", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	membership, err := module.Service.GetMembership(context.Background(), "community-1", "returning")
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if !membership.IsActive || membership.Role != entities.RoleMember {
		t.Fatalf("expected reactivated member, got %+v", membership)
	}
	if membership.MembershipID != "m-return" {
		t.Fatalf("expected original membership row, got %s", membership.MembershipID)
	}
	if !membership.JoinedAt.Equal(joinedAt) {
		t.Fatalf("expected original join date %v, got %v", joinedAt, membership.JoinedAt)
	}
}

func TestBanAppealRoundTrip(t *testing.T) {
	module := newMembershipModule(false, []entities.Membership{
		{MembershipID: "m-mod", CommunityID: "community-1", UserID: "mod", Role: entities.RoleModerator, IsActive: true},
		{MembershipID: "m-mod2", CommunityID: "community-1", UserID: "mod2", Role: entities.RoleModerator, IsActive: true},
		{MembershipID: "m-target", CommunityID: "community-1", UserID: "target", Role: entities.RoleMember, IsActive: true},
	})

	ban, err := module.Service.BanUser(context.Background(), "ban-1", application.BanUserInput{
		CommunityID:   "community-1",
		ModeratorID:   "mod",
		TargetUserID:  "target",
		BanType:       entities.BanTemporary,
		Reason:        "spamming",
		DurationHours: 24,
	})
	if err != nil {
		t.Fatalf("ban: %v", err)
	}
	if !ban.IsActive || ban.ExpiresAt == nil {
		t.Fatalf("unexpected ban record: %+v", ban)
	}

	membership, err := module.Service.GetMembership(context.Background(), "community-1", "target")
	if err != nil || membership.Role != entities.RoleBanned || membership.IsActive {
		t.Fatalf("expected banned membership, got %+v err %v", membership, err)
	}
	if _, err := module.Service.JoinCommunity(context.Background(), "community-1", "target"); !errors.Is(err, domainerrors.ErrUserBanned) {
		t.Fatalf("expected banned join rejection, got %v", err)
	}

	appeal, err := module.Service.AppealBan(context.Background(), ban.BanID, "target", "it was a mistake")
	if err != nil {
		t.Fatalf("appeal: %v", err)
	}
	if _, err := module.Service.AppealBan(context.Background(), ban.BanID, "target", "once more"); !errors.Is(err, domainerrors.ErrAppealAlreadyExists) {
		t.Fatalf("expected duplicate appeal rejection, got %v", err)
	}

	reviewed, err := module.Service.ReviewAppeal(context.Background(), "appeal-review-1", application.ReviewAppealInput{
		AppealID:   appeal.AppealID,
		ReviewerID: "mod2",
		Approve:    true,
		Notes:      "accepted",
	})
	if err != nil {
		t.Fatalf("review appeal: %v", err)
	}
	if reviewed.Status != entities.AppealApproved {
		t.Fatalf("expected approved appeal, got %s", reviewed.Status)
	}

	restored, err := module.Service.GetMembership(context.Background(), "community-1", "target")
	if err != nil || restored.Role != entities.RoleMember || !restored.IsActive {
		t.Fatalf("expected restored membership, got %+v err %v", restored, err)
	}
}

func TestBanGuards(t *testing.T) {
	module := newMembershipModule(false, []entities.Membership{
		{MembershipID: "m-mod", CommunityID: "community-1", UserID: "mod", Role: entities.RoleModerator, IsActive: true},
		{MembershipID: "m-mod2", CommunityID: "community-1", UserID: "mod2", Role: entities.RoleModerator, IsActive: true},
		{MembershipID: "m-target", CommunityID: "community-1", UserID: "target", Role: entities.RoleMember, IsActive: true},
	})

	_, err := module.Service.BanUser(context.Background(), "ban-mod", application.BanUserInput{
		CommunityID:  "community-1",
		ModeratorID:  "mod",
		TargetUserID: "mod2",
		BanType:      entities.BanPermanent,
		Reason:       "disagreement",
	})
	if !errors.Is(err, domainerrors.ErrCannotBanModerator) {
		t.Fatalf("expected moderator ban rejection, got %v", err)
	}

	_, err = module.Service.BanUser(context.Background(), "ban-bad-duration", application.BanUserInput{
		CommunityID:   "community-1",
		ModeratorID:   "mod",
		TargetUserID:  "target",
		BanType:       entities.BanTemporary,
		Reason:        "spamming",
		DurationHours: 0,
	})
	if !errors.Is(err, domainerrors.ErrInvalidBanDuration) {
		t.Fatalf("expected duration validation, got %v", err)
	}
}

func TestSweepExpiredBansLiftsOnlyLapsedTemporaryBans(t *testing.T) {
	module := newMembershipModule(false, []entities.Membership{
		{MembershipID: "m-lapsed", CommunityID: "community-1", UserID: "lapsed", Role: entities.RoleBanned, IsActive: false},
		{MembershipID: "m-perm", CommunityID: "community-1", UserID: "perm", Role: entities.RoleBanned, IsActive: false},
	})
	past := time.Now().Add(-time.Hour)
	module.Store.SetBan(entities.BanRecord{
		BanID:       "ban-lapsed",
		CommunityID: "community-1",
		UserID:      "lapsed",
		BanType:     entities.BanTemporary,
		Reason:      "spamming",
		ExpiresAt:   &past,
		IsActive:    true,
	})
	module.Store.SetBan(entities.BanRecord{
		BanID:       "ban-perm",
		CommunityID: "community-1",
		UserID:      "perm",
		BanType:     entities.BanPermanent,
		Reason:      "abuse",
		IsActive:    true,
	})

	lifted, err := module.Service.SweepExpiredBans(context.Background(), 100)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if lifted != 1 {
		t.Fatalf("expected one lifted ban, got %d", lifted)
	}

	restored, err := module.Service.GetMembership(context.Background(), "community-1", "lapsed")
	if err != nil || restored.Role != entities.RoleMember || !restored.IsActive {
		t.Fatalf("expected restored membership, got %+v err %v", restored, err)
	}
	stillBanned, err := module.Service.GetMembership(context.Background(), "community-1", "perm")
	if err != nil || stillBanned.Role != entities.RoleBanned {
		t.Fatalf("expected permanent ban untouched, got %+v err %v", stillBanned, err)
	}
}

func TestModeratorAssignmentIsAdminOnly(t *testing.T) {
	module := newMembershipModule(false, []entities.Membership{
		{MembershipID: "m-admin", CommunityID: "community-1", UserID: "founder", Role: entities.RoleAdmin, IsActive: true},
		{MembershipID: "m-member", CommunityID: "community-1", UserID: "member", Role: entities.RoleMember, IsActive: true},
	})

	if _, err := module.Service.AssignModerator(context.Background(), "community-1", "member", "member"); !errors.Is(err, domainerrors.ErrInsufficientPermissions) {
		t.Fatalf("expected non-admin rejection, got %v", err)
	}

	promoted, err := module.Service.AssignModerator(context.Background(), "community-1", "founder", "member")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if promoted.Role != entities.RoleModerator {
		t.Fatalf("expected moderator role, got %s", promoted.Role)
	}

	demoted, err := module.Service.RemoveModerator(context.Background(), "community-1", "founder", "member")
	if err != nil {
		t.Fatalf("remove moderator: %v", err)
	}
	if demoted.Role != entities.RoleMember {
		t.Fatalf("expected member role, got %s", demoted.Role)
	}

	if err := module.Service.LeaveCommunity(context.Background(), "community-1", "founder"); !errors.Is(err, domainerrors.ErrAdminCannotLeave) {
		t.Fatalf("expected admin leave rejection, got %v", err)
	}

	log, err := module.Service.ListModerationLog(context.Background(), "community-1", 10, 0)
	if err != nil {
		t.Fatalf("list log: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected two log entries, got %d", len(log))
	}
}
