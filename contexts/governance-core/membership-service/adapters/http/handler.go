package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/membership-service/application"
	"agora/contexts/governance-core/membership-service/domain/entities"
	domainerrors "agora/contexts/governance-core/membership-service/domain/errors"
	httptransport "agora/contexts/governance-core/membership-service/transport/http"
)

type Handler struct {
	Memberships application.Service
	Logger      *slog.Logger
}

func (h Handler) JoinCommunityHandler(ctx context.Context, communityID string, userID string) (httptransport.MembershipResponse, error) {
	membership, err := h.Memberships.JoinCommunity(ctx, communityID, userID)
	if err != nil {
		return httptransport.MembershipResponse{}, err
	}
	return toMembershipResponse(membership), nil
}

func (h Handler) LeaveCommunityHandler(ctx context.Context, communityID string, userID string) error {
	return h.Memberships.LeaveCommunity(ctx, communityID, userID)
}

func (h Handler) RequestMembershipHandler(
	ctx context.Context,
	communityID string,
	userID string,
	req httptransport.RequestMembershipRequest,
) (httptransport.MembershipRequestResponse, error) {
	request, err := h.Memberships.RequestMembership(ctx, communityID, userID, req.Message)
	if err != nil {
		return httptransport.MembershipRequestResponse{}, err
	}
	return toRequestResponse(request), nil
}

func (h Handler) ReviewRequestHandler(
	ctx context.Context,
	requestID string,
	reviewerID string,
	idempotencyKey string,
	decision string,
	req httptransport.ReviewRequestRequest,
) (httptransport.MembershipRequestResponse, error) {
	var (
		request entities.MembershipRequest
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "approve":
		request, err = h.Memberships.ApproveMembershipRequest(ctx, idempotencyKey, requestID, reviewerID, req.Notes)
	case "reject":
		request, err = h.Memberships.RejectMembershipRequest(ctx, idempotencyKey, requestID, reviewerID, req.Notes)
	default:
		return httptransport.MembershipRequestResponse{}, domainerrors.ErrInvalidMembershipInput
	}
	if err != nil {
		return httptransport.MembershipRequestResponse{}, err
	}
	return toRequestResponse(request), nil
}

func (h Handler) ListPendingRequestsHandler(ctx context.Context, communityID string, limit int) (httptransport.MembershipRequestListResponse, error) {
	requests, err := h.Memberships.ListPendingRequests(ctx, communityID, limit)
	if err != nil {
		return httptransport.MembershipRequestListResponse{}, err
	}
	items := make([]httptransport.MembershipRequestResponse, 0, len(requests))
	for _, request := range requests {
		items = append(items, toRequestResponse(request))
	}
	return httptransport.MembershipRequestListResponse{Items: items}, nil
}

func (h Handler) GetMembershipHandler(ctx context.Context, communityID string, userID string) (httptransport.MembershipResponse, error) {
	membership, err := h.Memberships.GetMembership(ctx, communityID, userID)
	if err != nil {
		return httptransport.MembershipResponse{}, err
	}
	return toMembershipResponse(membership), nil
}

func (h Handler) ListMembersHandler(ctx context.Context, communityID string, limit int, offset int) (httptransport.MembershipListResponse, error) {
	members, err := h.Memberships.ListMembers(ctx, communityID, limit, offset)
	if err != nil {
		return httptransport.MembershipListResponse{}, err
	}
	items := make([]httptransport.MembershipResponse, 0, len(members))
	for _, membership := range members {
		items = append(items, toMembershipResponse(membership))
	}
	return httptransport.MembershipListResponse{Items: items}, nil
}

func (h Handler) RemoveMemberHandler(
	ctx context.Context,
	communityID string,
	moderatorID string,
	idempotencyKey string,
	req httptransport.RemoveMemberRequest,
) error {
	return h.Memberships.RemoveMember(ctx, idempotencyKey, communityID, moderatorID, req.TargetUserID, req.Reason)
}

func (h Handler) AssignModeratorHandler(ctx context.Context, communityID string, adminID string, targetUserID string) (httptransport.MembershipResponse, error) {
	membership, err := h.Memberships.AssignModerator(ctx, communityID, adminID, targetUserID)
	if err != nil {
		return httptransport.MembershipResponse{}, err
	}
	return toMembershipResponse(membership), nil
}

func (h Handler) RemoveModeratorHandler(ctx context.Context, communityID string, adminID string, targetUserID string) (httptransport.MembershipResponse, error) {
	membership, err := h.Memberships.RemoveModerator(ctx, communityID, adminID, targetUserID)
	if err != nil {
		return httptransport.MembershipResponse{}, err
	}
	return toMembershipResponse(membership), nil
}

func (h Handler) BanUserHandler(
	ctx context.Context,
	communityID string,
	moderatorID string,
	idempotencyKey string,
	req httptransport.BanUserRequest,
) (httptransport.BanResponse, error) {
	ban, err := h.Memberships.BanUser(ctx, idempotencyKey, application.BanUserInput{
		CommunityID:   communityID,
		ModeratorID:   moderatorID,
		TargetUserID:  req.TargetUserID,
		BanType:       entities.BanType(strings.ToLower(strings.TrimSpace(req.BanType))),
		Reason:        req.Reason,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		return httptransport.BanResponse{}, err
	}
	return toBanResponse(ban), nil
}

func (h Handler) UnbanUserHandler(ctx context.Context, communityID string, moderatorID string, targetUserID string) (httptransport.BanResponse, error) {
	ban, err := h.Memberships.UnbanUser(ctx, communityID, moderatorID, targetUserID)
	if err != nil {
		return httptransport.BanResponse{}, err
	}
	return toBanResponse(ban), nil
}

func (h Handler) CheckBanExpiryHandler(ctx context.Context, communityID string, userID string) (httptransport.BanResponse, error) {
	ban, err := h.Memberships.CheckBanExpiry(ctx, communityID, userID)
	if err != nil {
		return httptransport.BanResponse{}, err
	}
	return toBanResponse(ban), nil
}

func (h Handler) ListActiveBansHandler(ctx context.Context, communityID string, limit int) (httptransport.BanListResponse, error) {
	bans, err := h.Memberships.ListActiveBans(ctx, communityID, limit)
	if err != nil {
		return httptransport.BanListResponse{}, err
	}
	items := make([]httptransport.BanResponse, 0, len(bans))
	for _, ban := range bans {
		items = append(items, toBanResponse(ban))
	}
	return httptransport.BanListResponse{Items: items}, nil
}

func (h Handler) AppealBanHandler(ctx context.Context, banID string, userID string, req httptransport.AppealBanRequest) (httptransport.AppealResponse, error) {
	appeal, err := h.Memberships.AppealBan(ctx, banID, userID, req.Reason)
	if err != nil {
		return httptransport.AppealResponse{}, err
	}
	return toAppealResponse(appeal), nil
}

func (h Handler) ReviewAppealHandler(
	ctx context.Context,
	appealID string,
	reviewerID string,
	idempotencyKey string,
	req httptransport.ReviewAppealRequest,
) (httptransport.AppealResponse, error) {
	decision := strings.ToLower(strings.TrimSpace(req.Decision))
	if decision != "approve" && decision != "deny" {
		return httptransport.AppealResponse{}, domainerrors.ErrInvalidMembershipInput
	}
	appeal, err := h.Memberships.ReviewAppeal(ctx, idempotencyKey, application.ReviewAppealInput{
		AppealID:   appealID,
		ReviewerID: reviewerID,
		Approve:    decision == "approve",
		Notes:      req.Notes,
	})
	if err != nil {
		return httptransport.AppealResponse{}, err
	}
	return toAppealResponse(appeal), nil
}

func (h Handler) ListPendingAppealsHandler(ctx context.Context, communityID string, limit int) (httptransport.AppealListResponse, error) {
	appeals, err := h.Memberships.ListPendingAppeals(ctx, communityID, limit)
	if err != nil {
		return httptransport.AppealListResponse{}, err
	}
	items := make([]httptransport.AppealResponse, 0, len(appeals))
	for _, appeal := range appeals {
		items = append(items, toAppealResponse(appeal))
	}
	return httptransport.AppealListResponse{Items: items}, nil
}

func (h Handler) ModerationLogHandler(ctx context.Context, communityID string, limit int, offset int) (httptransport.ModerationLogResponse, error) {
	entries, err := h.Memberships.ListModerationLog(ctx, communityID, limit, offset)
	if err != nil {
		return httptransport.ModerationLogResponse{}, err
	}
	items := make([]httptransport.ModerationLogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.ModerationLogEntryResponse{
			EntryID:      entry.EntryID,
			CommunityID:  entry.CommunityID,
			ModeratorID:  entry.ModeratorID,
			TargetUserID: entry.TargetUserID,
			TargetPollID: entry.TargetPollID,
			Action:       string(entry.Action),
			Reason:       entry.Reason,
			CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return httptransport.ModerationLogResponse{Items: items}, nil
}

func toMembershipResponse(membership entities.Membership) httptransport.MembershipResponse {
	return httptransport.MembershipResponse{
		MembershipID: membership.MembershipID,
		CommunityID:  membership.CommunityID,
		UserID:       membership.UserID,
		Role:         string(membership.Role),
		IsActive:     membership.IsActive,
	}
}

func toRequestResponse(request entities.MembershipRequest) httptransport.MembershipRequestResponse {
	return httptransport.MembershipRequestResponse{
		RequestID:   request.RequestID,
		CommunityID: request.CommunityID,
		RequesterID: request.RequesterID,
		Message:     request.Message,
		Status:      string(request.Status),
		ReviewedBy:  request.ReviewedBy,
		ReviewNotes: request.ReviewNotes,
	}
}

func toBanResponse(ban entities.BanRecord) httptransport.BanResponse {
	resp := httptransport.BanResponse{
		BanID:       ban.BanID,
		CommunityID: ban.CommunityID,
		UserID:      ban.UserID,
		BanType:     string(ban.BanType),
		Reason:      ban.Reason,
		BannedBy:    ban.BannedBy,
		IsActive:    ban.IsActive,
	}
	if ban.ExpiresAt != nil {
		resp.ExpiresAt = ban.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}

func toAppealResponse(appeal entities.Appeal) httptransport.AppealResponse {
	return httptransport.AppealResponse{
		AppealID:    appeal.AppealID,
		BanID:       appeal.BanID,
		CommunityID: appeal.CommunityID,
		UserID:      appeal.UserID,
		Reason:      appeal.Reason,
		Status:      string(appeal.Status),
		ReviewedBy:  appeal.ReviewedBy,
		ReviewNotes: appeal.ReviewNotes,
	}
}
