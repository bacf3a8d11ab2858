package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/membership-service/domain/entities"
	domainerrors "agora/contexts/governance-core/membership-service/domain/errors"
	"agora/contexts/governance-core/membership-service/ports"

	"github.com/google/uuid"
)

const (
	maxReasonLength  = 200
	maxMessageLength = 300
	maxAppealLength  = 300
	maxNotesLength   = 200
	maxBanHours      = 8760
)

// Service owns the membership role lattice, bans, appeals, and the
// append-only moderation log.
type Service struct {
	Memberships    ports.MembershipRepository
	Requests       ports.RequestRepository
	Bans           ports.BanRepository
	Appeals        ports.AppealRepository
	Log            ports.ModerationLogRepository
	Communities    ports.CommunityDirectory
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (s Service) JoinCommunity(ctx context.Context, communityID string, userID string) (entities.Membership, error) {
	communityID = strings.TrimSpace(communityID)
	userID = strings.TrimSpace(userID)
	if communityID == "" || userID == "" {
		return entities.Membership{}, domainerrors.ErrInvalidMembershipInput
	}

	community, err := s.Communities.GetCommunityInfo(ctx, communityID)
	if err != nil {
		return entities.Membership{}, err
	}
	if !community.IsActive {
		return entities.Membership{}, domainerrors.ErrInvalidMembershipInput
	}
	if community.RequiresApproval {
		return entities.Membership{}, domainerrors.ErrCommunityRequiresApproval
	}
	if err := s.ensureNotBanned(ctx, communityID, userID); err != nil {
		return entities.Membership{}, err
	}

	existing, found, err := s.Memberships.GetMembership(ctx, communityID, userID)
	if err != nil {
		return entities.Membership{}, err
	}
	now := s.now()
	if found {
		if existing.IsActive {
			return entities.Membership{}, domainerrors.ErrAlreadyMember
		}
		existing.Role = entities.RoleMember
		existing.IsActive = true
		existing.UpdatedAt = now
		if err := s.Memberships.SaveMembership(ctx, existing); err != nil {
			return entities.Membership{}, err
		}
		if err := s.Communities.MemberJoined(ctx, communityID); err != nil {
			return entities.Membership{}, err
		}
		return existing, nil
	}

	membershipID, err := s.newID(ctx)
	if err != nil {
		return entities.Membership{}, err
	}
	membership := entities.Membership{
		MembershipID: membershipID,
		CommunityID:  communityID,
		UserID:       userID,
		Role:         entities.RoleMember,
		IsActive:     true,
		JoinedAt:     now,
		UpdatedAt:    now,
	}
	if err := s.Memberships.SaveMembership(ctx, membership); err != nil {
		return entities.Membership{}, err
	}
	if err := s.Communities.MemberJoined(ctx, communityID); err != nil {
		return entities.Membership{}, err
	}
	resolveLogger(s.Logger).Info("member joined",
		"event", "membership_joined",
		"module", "governance-core/membership-service",
		"layer", "application",
		"community_id", communityID,
		"user_id", userID,
	)
	return membership, nil
}

// EnrollAdmin seats the community authority as the founding Admin member.
// Called by the community module at creation; the roster counter already
// includes the authority.
func (s Service) EnrollAdmin(ctx context.Context, communityID string, userID string) error {
	communityID = strings.TrimSpace(communityID)
	userID = strings.TrimSpace(userID)
	if communityID == "" || userID == "" {
		return domainerrors.ErrInvalidMembershipInput
	}
	if _, found, err := s.Memberships.GetMembership(ctx, communityID, userID); err != nil {
		return err
	} else if found {
		return domainerrors.ErrAlreadyMember
	}
	membershipID, err := s.newID(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	return s.Memberships.SaveMembership(ctx, entities.Membership{
		MembershipID: membershipID,
		CommunityID:  communityID,
		UserID:       userID,
		Role:         entities.RoleAdmin,
		IsActive:     true,
		JoinedAt:     now,
		UpdatedAt:    now,
	})
}

func (s Service) RequestMembership(ctx context.Context, communityID string, requesterID string, message string) (entities.MembershipRequest, error) {
	communityID = strings.TrimSpace(communityID)
	requesterID = strings.TrimSpace(requesterID)
	message = strings.TrimSpace(message)
	if communityID == "" || requesterID == "" || len(message) > maxMessageLength {
		return entities.MembershipRequest{}, domainerrors.ErrInvalidMembershipInput
	}

	community, err := s.Communities.GetCommunityInfo(ctx, communityID)
	if err != nil {
		return entities.MembershipRequest{}, err
	}
	if !community.IsActive {
		return entities.MembershipRequest{}, domainerrors.ErrInvalidMembershipInput
	}
	if err := s.ensureNotBanned(ctx, communityID, requesterID); err != nil {
		return entities.MembershipRequest{}, err
	}
	if membership, found, err := s.Memberships.GetMembership(ctx, communityID, requesterID); err != nil {
		return entities.MembershipRequest{}, err
	} else if found && membership.IsActive {
		return entities.MembershipRequest{}, domainerrors.ErrAlreadyMember
	}
	if _, exists, err := s.Requests.GetPendingRequest(ctx, communityID, requesterID); err != nil {
		return entities.MembershipRequest{}, err
	} else if exists {
		return entities.MembershipRequest{}, domainerrors.ErrRequestAlreadyExists
	}

	requestID, err := s.newID(ctx)
	if err != nil {
		return entities.MembershipRequest{}, err
	}
	request := entities.MembershipRequest{
		RequestID:   requestID,
		CommunityID: communityID,
		RequesterID: requesterID,
		Message:     message,
		Status:      entities.RequestPending,
		CreatedAt:   s.now(),
	}
	if err := s.Requests.SaveRequest(ctx, request); err != nil {
		return entities.MembershipRequest{}, err
	}
	return request, nil
}

func (s Service) ApproveMembershipRequest(ctx context.Context, idempotencyKey string, requestID string, reviewerID string, notes string) (entities.MembershipRequest, error) {
	return s.reviewRequest(ctx, idempotencyKey, requestID, reviewerID, notes, true)
}

func (s Service) RejectMembershipRequest(ctx context.Context, idempotencyKey string, requestID string, reviewerID string, notes string) (entities.MembershipRequest, error) {
	return s.reviewRequest(ctx, idempotencyKey, requestID, reviewerID, notes, false)
}

func (s Service) reviewRequest(ctx context.Context, idempotencyKey string, requestID string, reviewerID string, notes string, approve bool) (entities.MembershipRequest, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	requestID = strings.TrimSpace(requestID)
	reviewerID = strings.TrimSpace(reviewerID)
	notes = strings.TrimSpace(notes)

	if idempotencyKey == "" {
		return entities.MembershipRequest{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if requestID == "" || reviewerID == "" || len(notes) > maxNotesLength {
		return entities.MembershipRequest{}, domainerrors.ErrInvalidMembershipInput
	}

	decision := "reject"
	if approve {
		decision = "approve"
	}
	requestHash := hashStrings("review-request", requestID, reviewerID, decision, notes)
	var output entities.MembershipRequest
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			request, err := s.Requests.GetRequest(ctx, requestID)
			if err != nil {
				return nil, err
			}
			if request.Status != entities.RequestPending {
				return nil, domainerrors.ErrRequestNotPending
			}
			if err := s.requireModerator(ctx, request.CommunityID, reviewerID); err != nil {
				return nil, err
			}

			now := s.now()
			request.ReviewedBy = reviewerID
			request.ReviewNotes = notes
			request.ReviewedAt = &now

			if approve {
				if err := s.ensureNotBanned(ctx, request.CommunityID, request.RequesterID); err != nil {
					return nil, err
				}
				existing, found, err := s.Memberships.GetMembership(ctx, request.CommunityID, request.RequesterID)
				if err != nil {
					return nil, err
				}
				switch {
				case found && existing.IsActive:
					// Joined through another path while the request was
					// pending. Nothing to activate or count.
				case found:
					// A returning member keeps their original row and
					// join date, the same as the open-join path.
					existing.Role = entities.RoleMember
					existing.IsActive = true
					existing.UpdatedAt = now
					if err := s.Memberships.SaveMembership(ctx, existing); err != nil {
						return nil, err
					}
					if err := s.Communities.MemberJoined(ctx, request.CommunityID); err != nil {
						return nil, err
					}
				default:
					membershipID, err := s.newID(ctx)
					if err != nil {
						return nil, err
					}
					if err := s.Memberships.SaveMembership(ctx, entities.Membership{
						MembershipID: membershipID,
						CommunityID:  request.CommunityID,
						UserID:       request.RequesterID,
						Role:         entities.RoleMember,
						IsActive:     true,
						JoinedAt:     now,
						UpdatedAt:    now,
					}); err != nil {
						return nil, err
					}
					if err := s.Communities.MemberJoined(ctx, request.CommunityID); err != nil {
						return nil, err
					}
				}
				request.Status = entities.RequestApproved
				if err := s.appendLog(ctx, request.CommunityID, reviewerID, request.RequesterID, "", entities.ActionApproveRequest, notes); err != nil {
					return nil, err
				}
			} else {
				request.Status = entities.RequestRejected
				if err := s.appendLog(ctx, request.CommunityID, reviewerID, request.RequesterID, "", entities.ActionRejectRequest, notes); err != nil {
					return nil, err
				}
			}
			if err := s.Requests.SaveRequest(ctx, request); err != nil {
				return nil, err
			}
			return json.Marshal(request)
		},
	)
	return output, err
}

func (s Service) LeaveCommunity(ctx context.Context, communityID string, userID string) error {
	communityID = strings.TrimSpace(communityID)
	userID = strings.TrimSpace(userID)
	if communityID == "" || userID == "" {
		return domainerrors.ErrInvalidMembershipInput
	}
	membership, found, err := s.Memberships.GetMembership(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !found || !membership.IsActive {
		return domainerrors.ErrNotCommunityMember
	}
	if membership.Role == entities.RoleAdmin {
		return domainerrors.ErrAdminCannotLeave
	}
	membership.IsActive = false
	membership.UpdatedAt = s.now()
	if err := s.Memberships.SaveMembership(ctx, membership); err != nil {
		return err
	}
	return s.Communities.MemberLeft(ctx, communityID)
}

// Guard queries consumed by the poll, report, and community modules.

func (s Service) ActiveMember(ctx context.Context, communityID string, userID string) (bool, error) {
	membership, found, err := s.Memberships.GetMembership(ctx, strings.TrimSpace(communityID), strings.TrimSpace(userID))
	if err != nil {
		return false, err
	}
	return found && membership.IsActive && membership.Role != entities.RoleBanned, nil
}

func (s Service) CanModerate(ctx context.Context, communityID string, userID string) (bool, error) {
	membership, found, err := s.Memberships.GetMembership(ctx, strings.TrimSpace(communityID), strings.TrimSpace(userID))
	if err != nil {
		return false, err
	}
	return found && membership.CanModerate(), nil
}

func (s Service) IsAdmin(ctx context.Context, communityID string, userID string) (bool, error) {
	membership, found, err := s.Memberships.GetMembership(ctx, strings.TrimSpace(communityID), strings.TrimSpace(userID))
	if err != nil {
		return false, err
	}
	return found && membership.IsAdmin(), nil
}

func (s Service) CountActiveMembers(ctx context.Context, communityID string) (int64, error) {
	return s.Memberships.CountActiveMembers(ctx, strings.TrimSpace(communityID))
}

func (s Service) GetMembership(ctx context.Context, communityID string, userID string) (entities.Membership, error) {
	membership, found, err := s.Memberships.GetMembership(ctx, strings.TrimSpace(communityID), strings.TrimSpace(userID))
	if err != nil {
		return entities.Membership{}, err
	}
	if !found {
		return entities.Membership{}, domainerrors.ErrMembershipNotFound
	}
	return membership, nil
}

func (s Service) ListMembers(ctx context.Context, communityID string, limit int, offset int) ([]entities.Membership, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		return nil, domainerrors.ErrInvalidMembershipInput
	}
	return s.Memberships.ListMembers(ctx, strings.TrimSpace(communityID), limit, offset)
}

func (s Service) ListPendingRequests(ctx context.Context, communityID string, limit int) ([]entities.MembershipRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Requests.ListPendingRequests(ctx, strings.TrimSpace(communityID), limit)
}

func (s Service) ListModerationLog(ctx context.Context, communityID string, limit int, offset int) ([]entities.ModerationLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		return nil, domainerrors.ErrInvalidMembershipInput
	}
	return s.Log.ListLogEntries(ctx, strings.TrimSpace(communityID), limit, offset)
}

// ensureNotBanned lifts lapsed temporary bans before deciding, so an expired
// ban never blocks a join or request.
func (s Service) ensureNotBanned(ctx context.Context, communityID string, userID string) error {
	ban, found, err := s.Bans.GetActiveBan(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if ban.Expired(s.now()) {
		if _, err := s.liftBan(ctx, ban, ""); err != nil {
			return err
		}
		return nil
	}
	return domainerrors.ErrUserBanned
}

func (s Service) requireModerator(ctx context.Context, communityID string, userID string) error {
	ok, err := s.CanModerate(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrInsufficientPermissions
	}
	return nil
}

func (s Service) appendLog(
	ctx context.Context,
	communityID string,
	moderatorID string,
	targetUserID string,
	targetPollID string,
	action entities.ModerationAction,
	reason string,
) error {
	entryID, err := s.newID(ctx)
	if err != nil {
		return err
	}
	return s.Log.AppendLogEntry(ctx, entities.ModerationLogEntry{
		EntryID:      entryID,
		CommunityID:  communityID,
		ModeratorID:  moderatorID,
		TargetUserID: targetUserID,
		TargetPollID: targetPollID,
		Action:       action,
		Reason:       reason,
		CreatedAt:    s.now(),
	})
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) newID(ctx context.Context) (string, error) {
	if s.IDGen != nil {
		return s.IDGen.NewID(ctx)
	}
	return uuid.NewString(), nil
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}
	payload, err := exec()
	if err != nil {
		return err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}
	return decode(payload)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
