package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MembershipResponse struct {
	MembershipID string `json:"membership_id"`
	CommunityID  string `json:"community_id"`
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	IsActive     bool   `json:"is_active"`
}

type MembershipListResponse struct {
	Items []MembershipResponse `json:"items"`
}

type RequestMembershipRequest struct {
	Message string `json:"message,omitempty"`
}

type MembershipRequestResponse struct {
	RequestID   string `json:"request_id"`
	CommunityID string `json:"community_id"`
	RequesterID string `json:"requester_id"`
	Message     string `json:"message,omitempty"`
	Status      string `json:"status"`
	ReviewedBy  string `json:"reviewed_by,omitempty"`
	ReviewNotes string `json:"review_notes,omitempty"`
}

type MembershipRequestListResponse struct {
	Items []MembershipRequestResponse `json:"items"`
}

type ReviewRequestRequest struct {
	Notes string `json:"notes,omitempty"`
}

type BanUserRequest struct {
	TargetUserID  string `json:"target_user_id"`
	BanType       string `json:"ban_type"`
	Reason        string `json:"reason"`
	DurationHours int    `json:"duration_hours,omitempty"`
}

type BanResponse struct {
	BanID       string `json:"ban_id"`
	CommunityID string `json:"community_id"`
	UserID      string `json:"user_id"`
	BanType     string `json:"ban_type"`
	Reason      string `json:"reason"`
	BannedBy    string `json:"banned_by"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type BanListResponse struct {
	Items []BanResponse `json:"items"`
}

type RemoveMemberRequest struct {
	TargetUserID string `json:"target_user_id"`
	Reason       string `json:"reason"`
}

type AppealBanRequest struct {
	Reason string `json:"reason"`
}

type AppealResponse struct {
	AppealID    string `json:"appeal_id"`
	BanID       string `json:"ban_id"`
	CommunityID string `json:"community_id"`
	UserID      string `json:"user_id"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	ReviewedBy  string `json:"reviewed_by,omitempty"`
	ReviewNotes string `json:"review_notes,omitempty"`
}

type AppealListResponse struct {
	Items []AppealResponse `json:"items"`
}

type ReviewAppealRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes,omitempty"`
}

type ModerationLogEntryResponse struct {
	EntryID      string `json:"entry_id"`
	CommunityID  string `json:"community_id"`
	ModeratorID  string `json:"moderator_id"`
	TargetUserID string `json:"target_user_id,omitempty"`
	TargetPollID string `json:"target_poll_id,omitempty"`
	Action       string `json:"action"`
	Reason       string `json:"reason,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type ModerationLogResponse struct {
	Items []ModerationLogEntryResponse `json:"items"`
}
