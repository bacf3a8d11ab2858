package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/governance-core/community-service/application"
	"agora/contexts/governance-core/community-service/domain/entities"
	httptransport "agora/contexts/governance-core/community-service/transport/http"
)

type Handler struct {
	Communities application.Service
	Logger      *slog.Logger
}

func (h Handler) CreateCommunityHandler(
	ctx context.Context,
	callerID string,
	idempotencyKey string,
	req httptransport.CreateCommunityRequest,
) (httptransport.CommunityResponse, error) {
	community, err := h.Communities.CreateCommunity(ctx, idempotencyKey, application.CreateCommunityInput{
		AuthorityID:           callerID,
		Name:                  req.Name,
		Description:           req.Description,
		Category:              req.Category,
		QuorumPercentage:      req.QuorumPercentage,
		RequiresApproval:      req.RequiresApproval,
		WeightedVotingDefault: req.WeightedVotingDefault,
	})
	if err != nil {
		return httptransport.CommunityResponse{}, err
	}
	return toCommunityResponse(community), nil
}

func (h Handler) UpdateCommunityHandler(
	ctx context.Context,
	communityID string,
	callerID string,
	idempotencyKey string,
	req httptransport.UpdateCommunityRequest,
) (httptransport.CommunityResponse, error) {
	community, err := h.Communities.UpdateCommunitySettings(ctx, idempotencyKey, application.UpdateCommunityInput{
		CommunityID:      communityID,
		CallerID:         callerID,
		Description:      req.Description,
		QuorumPercentage: req.QuorumPercentage,
		RequiresApproval: req.RequiresApproval,
	})
	if err != nil {
		return httptransport.CommunityResponse{}, err
	}
	return toCommunityResponse(community), nil
}

func (h Handler) DeactivateCommunityHandler(ctx context.Context, communityID string, callerID string) (httptransport.CommunityResponse, error) {
	community, err := h.Communities.DeactivateCommunity(ctx, communityID, callerID)
	if err != nil {
		return httptransport.CommunityResponse{}, err
	}
	return toCommunityResponse(community), nil
}

func (h Handler) GetCommunityHandler(ctx context.Context, communityID string) (httptransport.CommunityResponse, error) {
	community, err := h.Communities.GetCommunity(ctx, communityID)
	if err != nil {
		return httptransport.CommunityResponse{}, err
	}
	return toCommunityResponse(community), nil
}

func (h Handler) ListCommunitiesHandler(ctx context.Context, category string, limit int, offset int) (httptransport.CommunityListResponse, error) {
	communities, err := h.Communities.ListCommunities(ctx, category, limit, offset)
	if err != nil {
		return httptransport.CommunityListResponse{}, err
	}
	items := make([]httptransport.CommunityResponse, 0, len(communities))
	for _, community := range communities {
		items = append(items, toCommunityResponse(community))
	}
	return httptransport.CommunityListResponse{Items: items}, nil
}

func (h Handler) CreateCustomCategoryHandler(
	ctx context.Context,
	communityID string,
	callerID string,
	idempotencyKey string,
	req httptransport.CreateCustomCategoryRequest,
) (httptransport.CustomCategoryResponse, error) {
	category, err := h.Communities.CreateCustomCategory(ctx, idempotencyKey, application.CreateCustomCategoryInput{
		CommunityID: communityID,
		CallerID:    callerID,
		Name:        req.Name,
		Color:       req.Color,
		Icon:        req.Icon,
	})
	if err != nil {
		return httptransport.CustomCategoryResponse{}, err
	}
	return toCategoryResponse(category), nil
}

func (h Handler) ListCustomCategoriesHandler(ctx context.Context, communityID string) (httptransport.CustomCategoryListResponse, error) {
	categories, err := h.Communities.ListCustomCategories(ctx, communityID)
	if err != nil {
		return httptransport.CustomCategoryListResponse{}, err
	}
	items := make([]httptransport.CustomCategoryResponse, 0, len(categories))
	for _, category := range categories {
		items = append(items, toCategoryResponse(category))
	}
	return httptransport.CustomCategoryListResponse{Items: items}, nil
}

func (h Handler) SubscribeHandler(ctx context.Context, userID string, category string) (httptransport.SubscriptionResponse, error) {
	subscription, err := h.Communities.SubscribeToCategory(ctx, userID, category)
	if err != nil {
		return httptransport.SubscriptionResponse{}, err
	}
	return httptransport.SubscriptionResponse{
		SubscriptionID: subscription.SubscriptionID,
		UserID:         subscription.UserID,
		Category:       subscription.Category,
	}, nil
}

func (h Handler) UnsubscribeHandler(ctx context.Context, userID string, category string) error {
	return h.Communities.UnsubscribeFromCategory(ctx, userID, category)
}

func (h Handler) ListSubscriptionsHandler(ctx context.Context, userID string) (httptransport.SubscriptionListResponse, error) {
	subscriptions, err := h.Communities.ListSubscriptions(ctx, userID)
	if err != nil {
		return httptransport.SubscriptionListResponse{}, err
	}
	items := make([]httptransport.SubscriptionResponse, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		items = append(items, httptransport.SubscriptionResponse{
			SubscriptionID: subscription.SubscriptionID,
			UserID:         subscription.UserID,
			Category:       subscription.Category,
		})
	}
	return httptransport.SubscriptionListResponse{Items: items}, nil
}

func toCommunityResponse(community entities.Community) httptransport.CommunityResponse {
	return httptransport.CommunityResponse{
		CommunityID:           community.CommunityID,
		Authority:             community.Authority,
		Name:                  community.Name,
		Description:           community.Description,
		Category:              community.Category,
		QuorumPercentage:      community.QuorumPercentage,
		RequiresApproval:      community.RequiresApproval,
		WeightedVotingDefault: community.WeightedVotingDefault,
		TotalMembers:          community.TotalMembers,
		TotalVotes:            community.TotalVotes,
		FeeCollected:          community.FeeCollected,
		IsActive:              community.IsActive,
	}
}

func toCategoryResponse(category entities.CustomCategory) httptransport.CustomCategoryResponse {
	return httptransport.CustomCategoryResponse{
		CategoryID:  category.CategoryID,
		CommunityID: category.CommunityID,
		Name:        category.Name,
		Color:       category.Color,
		Icon:        category.Icon,
		CreatedBy:   category.CreatedBy,
	}
}
