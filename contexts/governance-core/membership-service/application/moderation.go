package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"agora/contexts/governance-core/membership-service/domain/entities"
	domainerrors "agora/contexts/governance-core/membership-service/domain/errors"
)

type BanUserInput struct {
	CommunityID   string
	ModeratorID   string
	TargetUserID  string
	BanType       entities.BanType
	Reason        string
	DurationHours int
}

type ReviewAppealInput struct {
	AppealID   string
	ReviewerID string
	Approve    bool
	Notes      string
}

func (s Service) BanUser(ctx context.Context, idempotencyKey string, input BanUserInput) (entities.BanRecord, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	input.CommunityID = strings.TrimSpace(input.CommunityID)
	input.ModeratorID = strings.TrimSpace(input.ModeratorID)
	input.TargetUserID = strings.TrimSpace(input.TargetUserID)
	input.Reason = strings.TrimSpace(input.Reason)

	if idempotencyKey == "" {
		return entities.BanRecord{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if input.CommunityID == "" || input.ModeratorID == "" || input.TargetUserID == "" ||
		input.Reason == "" || len(input.Reason) > maxReasonLength {
		return entities.BanRecord{}, domainerrors.ErrInvalidMembershipInput
	}
	switch input.BanType {
	case entities.BanTemporary:
		if input.DurationHours < 1 || input.DurationHours > maxBanHours {
			return entities.BanRecord{}, domainerrors.ErrInvalidBanDuration
		}
	case entities.BanPermanent:
		if input.DurationHours != 0 {
			return entities.BanRecord{}, domainerrors.ErrInvalidBanDuration
		}
	default:
		return entities.BanRecord{}, domainerrors.ErrInvalidMembershipInput
	}

	requestHash := hashStrings("ban", input.CommunityID, input.ModeratorID, input.TargetUserID,
		string(input.BanType), input.Reason, fmt.Sprintf("%d", input.DurationHours))
	var output entities.BanRecord
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			if err := s.requireModerator(ctx, input.CommunityID, input.ModeratorID); err != nil {
				return nil, err
			}
			membership, found, err := s.Memberships.GetMembership(ctx, input.CommunityID, input.TargetUserID)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, domainerrors.ErrNotCommunityMember
			}
			if membership.CanModerate() {
				return nil, domainerrors.ErrCannotBanModerator
			}
			if _, banned, err := s.Bans.GetActiveBan(ctx, input.CommunityID, input.TargetUserID); err != nil {
				return nil, err
			} else if banned {
				return nil, domainerrors.ErrUserBanned
			}

			banID, err := s.newID(ctx)
			if err != nil {
				return nil, err
			}
			now := s.now()
			ban := entities.BanRecord{
				BanID:       banID,
				CommunityID: input.CommunityID,
				UserID:      input.TargetUserID,
				BanType:     input.BanType,
				Reason:      input.Reason,
				BannedBy:    input.ModeratorID,
				IsActive:    true,
				CreatedAt:   now,
			}
			if input.BanType == entities.BanTemporary {
				expires := now.Add(time.Duration(input.DurationHours) * time.Hour)
				ban.ExpiresAt = &expires
			}
			if err := s.Bans.SaveBan(ctx, ban); err != nil {
				return nil, err
			}

			membership.Role = entities.RoleBanned
			membership.IsActive = false
			membership.UpdatedAt = now
			if err := s.Memberships.SaveMembership(ctx, membership); err != nil {
				return nil, err
			}
			if err := s.appendLog(ctx, input.CommunityID, input.ModeratorID, input.TargetUserID, "", entities.ActionBan, input.Reason); err != nil {
				return nil, err
			}
			resolveLogger(s.Logger).Info("user banned",
				"event", "membership_user_banned",
				"module", "governance-core/membership-service",
				"layer", "application",
				"community_id", input.CommunityID,
				"user_id", input.TargetUserID,
				"ban_type", string(input.BanType),
			)
			return json.Marshal(ban)
		},
	)
	return output, err
}

func (s Service) UnbanUser(ctx context.Context, communityID string, moderatorID string, targetUserID string) (entities.BanRecord, error) {
	communityID = strings.TrimSpace(communityID)
	moderatorID = strings.TrimSpace(moderatorID)
	targetUserID = strings.TrimSpace(targetUserID)
	if communityID == "" || moderatorID == "" || targetUserID == "" {
		return entities.BanRecord{}, domainerrors.ErrInvalidMembershipInput
	}
	if err := s.requireModerator(ctx, communityID, moderatorID); err != nil {
		return entities.BanRecord{}, err
	}
	ban, found, err := s.Bans.GetActiveBan(ctx, communityID, targetUserID)
	if err != nil {
		return entities.BanRecord{}, err
	}
	if !found {
		return entities.BanRecord{}, domainerrors.ErrBanNotActive
	}
	lifted, err := s.liftBan(ctx, ban, moderatorID)
	if err != nil {
		return entities.BanRecord{}, err
	}
	if err := s.appendLog(ctx, communityID, moderatorID, targetUserID, "", entities.ActionUnban, ""); err != nil {
		return entities.BanRecord{}, err
	}
	return lifted, nil
}

// CheckBanExpiry is the pull-based collaborator hook: any caller may lift a
// lapsed temporary ban after its wall-clock expiry.
func (s Service) CheckBanExpiry(ctx context.Context, communityID string, userID string) (entities.BanRecord, error) {
	communityID = strings.TrimSpace(communityID)
	userID = strings.TrimSpace(userID)
	if communityID == "" || userID == "" {
		return entities.BanRecord{}, domainerrors.ErrInvalidMembershipInput
	}
	ban, found, err := s.Bans.GetActiveBan(ctx, communityID, userID)
	if err != nil {
		return entities.BanRecord{}, err
	}
	if !found {
		return entities.BanRecord{}, domainerrors.ErrBanNotActive
	}
	if !ban.Expired(s.now()) {
		return ban, nil
	}
	return s.liftBan(ctx, ban, "")
}

// SweepExpiredBans lifts every lapsed temporary ban in one pass and returns
// the number of bans lifted.
func (s Service) SweepExpiredBans(ctx context.Context, limit int) (int, error) {
	expired, err := s.Bans.ListExpiredBans(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}
	lifted := 0
	for _, ban := range expired {
		if _, err := s.liftBan(ctx, ban, ""); err != nil {
			return lifted, err
		}
		lifted++
	}
	return lifted, nil
}

func (s Service) RemoveMember(ctx context.Context, idempotencyKey string, communityID string, moderatorID string, targetUserID string, reason string) error {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	communityID = strings.TrimSpace(communityID)
	moderatorID = strings.TrimSpace(moderatorID)
	targetUserID = strings.TrimSpace(targetUserID)
	reason = strings.TrimSpace(reason)

	if idempotencyKey == "" {
		return domainerrors.ErrIdempotencyKeyRequired
	}
	if communityID == "" || moderatorID == "" || targetUserID == "" ||
		reason == "" || len(reason) > maxReasonLength {
		return domainerrors.ErrInvalidMembershipInput
	}

	requestHash := hashStrings("remove-member", communityID, moderatorID, targetUserID, reason)
	return s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func([]byte) error { return nil },
		func() ([]byte, error) {
			if err := s.requireModerator(ctx, communityID, moderatorID); err != nil {
				return nil, err
			}
			membership, found, err := s.Memberships.GetMembership(ctx, communityID, targetUserID)
			if err != nil {
				return nil, err
			}
			if !found || !membership.IsActive {
				return nil, domainerrors.ErrNotCommunityMember
			}
			if membership.Role == entities.RoleAdmin {
				return nil, domainerrors.ErrCannotRemoveAdmin
			}
			if membership.Role == entities.RoleModerator {
				return nil, domainerrors.ErrCannotRemoveModerator
			}

			membership.IsActive = false
			membership.UpdatedAt = s.now()
			if err := s.Memberships.SaveMembership(ctx, membership); err != nil {
				return nil, err
			}
			if err := s.Communities.MemberLeft(ctx, communityID); err != nil {
				return nil, err
			}
			if err := s.appendLog(ctx, communityID, moderatorID, targetUserID, "", entities.ActionRemoveMember, reason); err != nil {
				return nil, err
			}
			return json.Marshal(struct{}{})
		},
	)
}

func (s Service) AssignModerator(ctx context.Context, communityID string, adminID string, targetUserID string) (entities.Membership, error) {
	communityID = strings.TrimSpace(communityID)
	adminID = strings.TrimSpace(adminID)
	targetUserID = strings.TrimSpace(targetUserID)
	if communityID == "" || adminID == "" || targetUserID == "" {
		return entities.Membership{}, domainerrors.ErrInvalidMembershipInput
	}
	if err := s.requireAdmin(ctx, communityID, adminID); err != nil {
		return entities.Membership{}, err
	}
	membership, found, err := s.Memberships.GetMembership(ctx, communityID, targetUserID)
	if err != nil {
		return entities.Membership{}, err
	}
	if !found {
		return entities.Membership{}, domainerrors.ErrNotCommunityMember
	}
	if membership.Role == entities.RoleBanned || !membership.IsActive {
		return entities.Membership{}, domainerrors.ErrUserBanned
	}
	membership.Role = entities.RoleModerator
	membership.UpdatedAt = s.now()
	if err := s.Memberships.SaveMembership(ctx, membership); err != nil {
		return entities.Membership{}, err
	}
	if err := s.appendLog(ctx, communityID, adminID, targetUserID, "", entities.ActionAssignModerator, ""); err != nil {
		return entities.Membership{}, err
	}
	return membership, nil
}

func (s Service) RemoveModerator(ctx context.Context, communityID string, adminID string, targetUserID string) (entities.Membership, error) {
	communityID = strings.TrimSpace(communityID)
	adminID = strings.TrimSpace(adminID)
	targetUserID = strings.TrimSpace(targetUserID)
	if communityID == "" || adminID == "" || targetUserID == "" {
		return entities.Membership{}, domainerrors.ErrInvalidMembershipInput
	}
	if err := s.requireAdmin(ctx, communityID, adminID); err != nil {
		return entities.Membership{}, err
	}
	membership, found, err := s.Memberships.GetMembership(ctx, communityID, targetUserID)
	if err != nil {
		return entities.Membership{}, err
	}
	if !found || membership.Role != entities.RoleModerator {
		return entities.Membership{}, domainerrors.ErrInvalidMembershipInput
	}
	membership.Role = entities.RoleMember
	membership.UpdatedAt = s.now()
	if err := s.Memberships.SaveMembership(ctx, membership); err != nil {
		return entities.Membership{}, err
	}
	if err := s.appendLog(ctx, communityID, adminID, targetUserID, "", entities.ActionRemoveModerator, ""); err != nil {
		return entities.Membership{}, err
	}
	return membership, nil
}

func (s Service) AppealBan(ctx context.Context, banID string, userID string, reason string) (entities.Appeal, error) {
	banID = strings.TrimSpace(banID)
	userID = strings.TrimSpace(userID)
	reason = strings.TrimSpace(reason)
	if banID == "" || userID == "" || reason == "" || len(reason) > maxAppealLength {
		return entities.Appeal{}, domainerrors.ErrInvalidMembershipInput
	}

	ban, err := s.Bans.GetBan(ctx, banID)
	if err != nil {
		return entities.Appeal{}, err
	}
	if !ban.IsActive {
		return entities.Appeal{}, domainerrors.ErrBanNotActive
	}
	if ban.UserID != userID {
		return entities.Appeal{}, domainerrors.ErrInsufficientPermissions
	}
	if _, exists, err := s.Appeals.GetAppealByBan(ctx, banID); err != nil {
		return entities.Appeal{}, err
	} else if exists {
		return entities.Appeal{}, domainerrors.ErrAppealAlreadyExists
	}

	appealID, err := s.newID(ctx)
	if err != nil {
		return entities.Appeal{}, err
	}
	appeal := entities.Appeal{
		AppealID:    appealID,
		BanID:       banID,
		CommunityID: ban.CommunityID,
		UserID:      userID,
		Reason:      reason,
		Status:      entities.AppealPending,
		CreatedAt:   s.now(),
	}
	if err := s.Appeals.SaveAppeal(ctx, appeal); err != nil {
		return entities.Appeal{}, err
	}
	return appeal, nil
}

func (s Service) ReviewAppeal(ctx context.Context, idempotencyKey string, input ReviewAppealInput) (entities.Appeal, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	input.AppealID = strings.TrimSpace(input.AppealID)
	input.ReviewerID = strings.TrimSpace(input.ReviewerID)
	input.Notes = strings.TrimSpace(input.Notes)

	if idempotencyKey == "" {
		return entities.Appeal{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if input.AppealID == "" || input.ReviewerID == "" || len(input.Notes) > maxNotesLength {
		return entities.Appeal{}, domainerrors.ErrInvalidMembershipInput
	}

	decision := "deny"
	if input.Approve {
		decision = "approve"
	}
	requestHash := hashStrings("review-appeal", input.AppealID, input.ReviewerID, decision, input.Notes)
	var output entities.Appeal
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			appeal, err := s.Appeals.GetAppeal(ctx, input.AppealID)
			if err != nil {
				return nil, err
			}
			if appeal.Status != entities.AppealPending {
				return nil, domainerrors.ErrAppealNotPending
			}
			if appeal.UserID == input.ReviewerID {
				return nil, domainerrors.ErrInsufficientPermissions
			}
			if err := s.requireModerator(ctx, appeal.CommunityID, input.ReviewerID); err != nil {
				return nil, err
			}

			now := s.now()
			appeal.ReviewedBy = input.ReviewerID
			appeal.ReviewNotes = input.Notes
			appeal.ReviewedAt = &now

			if input.Approve {
				ban, err := s.Bans.GetBan(ctx, appeal.BanID)
				if err != nil {
					return nil, err
				}
				if ban.IsActive {
					if _, err := s.liftBan(ctx, ban, input.ReviewerID); err != nil {
						return nil, err
					}
				}
				appeal.Status = entities.AppealApproved
				if err := s.appendLog(ctx, appeal.CommunityID, input.ReviewerID, appeal.UserID, "", entities.ActionAppealApproved, input.Notes); err != nil {
					return nil, err
				}
			} else {
				appeal.Status = entities.AppealDenied
				if err := s.appendLog(ctx, appeal.CommunityID, input.ReviewerID, appeal.UserID, "", entities.ActionAppealDenied, input.Notes); err != nil {
					return nil, err
				}
			}
			if err := s.Appeals.SaveAppeal(ctx, appeal); err != nil {
				return nil, err
			}
			return json.Marshal(appeal)
		},
	)
	return output, err
}

func (s Service) GetBan(ctx context.Context, banID string) (entities.BanRecord, error) {
	banID = strings.TrimSpace(banID)
	if banID == "" {
		return entities.BanRecord{}, domainerrors.ErrInvalidMembershipInput
	}
	return s.Bans.GetBan(ctx, banID)
}

func (s Service) ListActiveBans(ctx context.Context, communityID string, limit int) ([]entities.BanRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Bans.ListActiveBans(ctx, strings.TrimSpace(communityID), limit)
}

func (s Service) ListPendingAppeals(ctx context.Context, communityID string, limit int) ([]entities.Appeal, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Appeals.ListPendingAppeals(ctx, strings.TrimSpace(communityID), limit)
}

// RecordPollModeration writes a log entry for poll-scoped moderator actions
// taken in other modules (forced closes, upheld reports).
func (s Service) RecordPollModeration(ctx context.Context, communityID string, moderatorID string, pollID string, action entities.ModerationAction, reason string) error {
	communityID = strings.TrimSpace(communityID)
	moderatorID = strings.TrimSpace(moderatorID)
	pollID = strings.TrimSpace(pollID)
	if communityID == "" || moderatorID == "" || pollID == "" {
		return domainerrors.ErrInvalidMembershipInput
	}
	return s.appendLog(ctx, communityID, moderatorID, "", pollID, action, strings.TrimSpace(reason))
}

// liftBan deactivates the ban and restores the membership to an active
// Member in the same operation.
func (s Service) liftBan(ctx context.Context, ban entities.BanRecord, liftedBy string) (entities.BanRecord, error) {
	now := s.now()
	ban.IsActive = false
	ban.LiftedAt = &now
	if err := s.Bans.SaveBan(ctx, ban); err != nil {
		return entities.BanRecord{}, err
	}

	membership, found, err := s.Memberships.GetMembership(ctx, ban.CommunityID, ban.UserID)
	if err != nil {
		return entities.BanRecord{}, err
	}
	if found && membership.Role == entities.RoleBanned {
		membership.Role = entities.RoleMember
		membership.IsActive = true
		membership.UpdatedAt = now
		if err := s.Memberships.SaveMembership(ctx, membership); err != nil {
			return entities.BanRecord{}, err
		}
	}
	resolveLogger(s.Logger).Info("ban lifted",
		"event", "membership_ban_lifted",
		"module", "governance-core/membership-service",
		"layer", "application",
		"community_id", ban.CommunityID,
		"user_id", ban.UserID,
		"lifted_by", liftedBy,
	)
	return ban, nil
}

func (s Service) requireAdmin(ctx context.Context, communityID string, userID string) error {
	ok, err := s.IsAdmin(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrInsufficientPermissions
	}
	return nil
}
