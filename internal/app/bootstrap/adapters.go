package bootstrap

import (
	"context"
	"errors"

	feeports "agora/contexts/finance-core/fee-engine/ports"
	communityapp "agora/contexts/governance-core/community-service/application"
	communityports "agora/contexts/governance-core/community-service/ports"
	membershipapp "agora/contexts/governance-core/membership-service/application"
	membershipentities "agora/contexts/governance-core/membership-service/domain/entities"
	membershipports "agora/contexts/governance-core/membership-service/ports"
	pollcommands "agora/contexts/governance-core/poll-engine/application/commands"
	pollqueries "agora/contexts/governance-core/poll-engine/application/queries"
	polldomainerrors "agora/contexts/governance-core/poll-engine/domain/errors"
	pollports "agora/contexts/governance-core/poll-engine/ports"
	userapp "agora/contexts/identity-access/user-ledger/application"
	userentities "agora/contexts/identity-access/user-ledger/domain/entities"
	reportdomainerrors "agora/contexts/moderation-safety/report-service/domain/errors"
	reportports "agora/contexts/moderation-safety/report-service/ports"
)

// membershipBridge breaks the community/membership construction cycle. The
// community module needs role answers before the membership module exists,
// so the service pointer is filled in after both are built.
type membershipBridge struct {
	service *membershipapp.Service
}

func (b *membershipBridge) EnrollAdmin(ctx context.Context, communityID string, userID string) error {
	return b.service.EnrollAdmin(ctx, communityID, userID)
}

func (b *membershipBridge) CanModerate(ctx context.Context, communityID string, userID string) (bool, error) {
	return b.service.CanModerate(ctx, communityID, userID)
}

// communityDirectory exposes community settings and roster counters to the
// membership module.
type communityDirectory struct {
	communities communityapp.Service
}

func (d communityDirectory) GetCommunityInfo(ctx context.Context, communityID string) (membershipports.CommunityInfo, error) {
	community, err := d.communities.GetCommunity(ctx, communityID)
	if err != nil {
		return membershipports.CommunityInfo{}, err
	}
	return membershipports.CommunityInfo{
		CommunityID:      community.CommunityID,
		Authority:        community.Authority,
		RequiresApproval: community.RequiresApproval,
		IsActive:         community.IsActive,
	}, nil
}

func (d communityDirectory) MemberJoined(ctx context.Context, communityID string) error {
	return d.communities.MemberJoined(ctx, communityID)
}

func (d communityDirectory) MemberLeft(ctx context.Context, communityID string) error {
	return d.communities.MemberLeft(ctx, communityID)
}

// userDirectory projects ledger users into the profile the poll engine
// consumes and forwards reputation mutations back.
type userDirectory struct {
	users userapp.Service
}

func (d userDirectory) GetProfile(ctx context.Context, userID string) (pollports.UserProfile, error) {
	user, err := d.users.GetUser(ctx, userID)
	if err != nil {
		return pollports.UserProfile{}, err
	}
	tier := userentities.TierForReputation(user.ReputationPoints)
	return pollports.UserProfile{
		UserID:     user.UserID,
		Reputation: user.ReputationPoints,
		FeeTier:    string(tier),
		FeeAmount:  uint64(tier.Lamports()),
	}, nil
}

func (d userDirectory) GrantReputation(ctx context.Context, userID string, delta int64, reason string) error {
	_, err := d.users.GrantReputation(ctx, userapp.GrantReputationInput{
		UserID: userID,
		Delta:  delta,
		Reason: reason,
	})
	return err
}

func (d userDirectory) RecordVoteCast(ctx context.Context, userID string) error {
	return d.users.RecordVoteCast(ctx, userID)
}

func (d userDirectory) RecordVoteCreated(ctx context.Context, userID string) error {
	return d.users.RecordVoteCreated(ctx, userID)
}

// communityCounter bumps the community vote counter when a poll is created.
// The collected fee reaches the community through the fee engine, so the
// amount is dropped here to avoid double accrual.
type communityCounter struct {
	communities communityapp.Service
}

func (c communityCounter) VoteCreated(ctx context.Context, communityID string, _ uint64) error {
	return c.communities.VoteCreated(ctx, communityID)
}

// reputationReader resolves claimant reputation for reward gating.
type reputationReader struct {
	users userapp.Service
}

func (r reputationReader) Reputation(ctx context.Context, userID string) (int64, error) {
	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.ReputationPoints, nil
}

// communityFeeRecorder accrues collected fees on the community aggregate.
type communityFeeRecorder struct {
	communities communityapp.Service
}

func (c communityFeeRecorder) FeeAccrued(ctx context.Context, communityID string, amount uint64) error {
	return c.communities.FeeAccrued(ctx, communityID, int64(amount))
}

// moderationLog routes moderation entries from the poll and report modules
// into the membership module's append-only log.
type moderationLog struct {
	memberships membershipapp.Service
}

func (l moderationLog) RecordPollModeration(ctx context.Context, communityID string, moderatorID string, pollID string, action string, reason string) error {
	return l.memberships.RecordPollModeration(ctx, communityID, moderatorID, pollID, membershipentities.ModerationAction(action), reason)
}

// pollDirectory resolves polls for the report pipeline and applies
// escalation-driven closures.
type pollDirectory struct {
	queries pollqueries.PollQueries
	useCase pollcommands.PollUseCase
}

func (d pollDirectory) GetPollInfo(ctx context.Context, pollID string) (reportports.PollInfo, error) {
	poll, err := d.queries.GetPoll(ctx, pollID)
	if err != nil {
		if errors.Is(err, polldomainerrors.ErrPollNotFound) {
			return reportports.PollInfo{}, reportdomainerrors.ErrPollNotFound
		}
		return reportports.PollInfo{}, err
	}
	return reportports.PollInfo{
		PollID:      poll.PollID,
		CommunityID: poll.CommunityID,
		CreatorID:   poll.CreatorID,
		Status:      string(poll.Status),
	}, nil
}

func (d pollDirectory) CancelPoll(ctx context.Context, pollID string, moderatorID string, reason string) error {
	_, err := d.useCase.CancelPoll(ctx, pollID, moderatorID, reason)
	if errors.Is(err, polldomainerrors.ErrPollNotFound) {
		return reportdomainerrors.ErrPollNotFound
	}
	return err
}

var _ communityports.AdminEnroller = (*membershipBridge)(nil)
var _ communityports.ModerationGuard = (*membershipBridge)(nil)
var _ membershipports.CommunityDirectory = communityDirectory{}
var _ pollports.UserDirectory = userDirectory{}
var _ pollports.CommunityCounter = communityCounter{}
var _ pollports.ModerationLogger = moderationLog{}
var _ feeports.ReputationReader = reputationReader{}
var _ feeports.CommunityFeeRecorder = communityFeeRecorder{}
var _ reportports.PollDirectory = pollDirectory{}
var _ reportports.ModerationLogger = moderationLog{}
