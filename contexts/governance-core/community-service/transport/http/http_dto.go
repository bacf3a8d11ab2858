package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateCommunityRequest struct {
	Name                  string `json:"name"`
	Description           string `json:"description,omitempty"`
	Category              string `json:"category,omitempty"`
	QuorumPercentage      int    `json:"quorum_percentage"`
	RequiresApproval      bool   `json:"requires_approval"`
	WeightedVotingDefault bool   `json:"weighted_voting_default"`
}

type UpdateCommunityRequest struct {
	Description      *string `json:"description,omitempty"`
	QuorumPercentage *int    `json:"quorum_percentage,omitempty"`
	RequiresApproval *bool   `json:"requires_approval,omitempty"`
}

type CommunityResponse struct {
	CommunityID           string `json:"community_id"`
	Authority             string `json:"authority"`
	Name                  string `json:"name"`
	Description           string `json:"description,omitempty"`
	Category              string `json:"category"`
	QuorumPercentage      int    `json:"quorum_percentage"`
	RequiresApproval      bool   `json:"requires_approval"`
	WeightedVotingDefault bool   `json:"weighted_voting_default"`
	TotalMembers          int64  `json:"total_members"`
	TotalVotes            int64  `json:"total_votes"`
	FeeCollected          int64  `json:"fee_collected"`
	IsActive              bool   `json:"is_active"`
}

type CommunityListResponse struct {
	Items []CommunityResponse `json:"items"`
}

type CreateCustomCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type CustomCategoryResponse struct {
	CategoryID  string `json:"category_id"`
	CommunityID string `json:"community_id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	CreatedBy   string `json:"created_by"`
}

type CustomCategoryListResponse struct {
	Items []CustomCategoryResponse `json:"items"`
}

type SubscriptionResponse struct {
	SubscriptionID string `json:"subscription_id"`
	UserID         string `json:"user_id"`
	Category       string `json:"category"`
}

type SubscriptionListResponse struct {
	Items []SubscriptionResponse `json:"items"`
}
