package entities

import "time"

type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleBanned    Role = "banned"
)

// Membership is the single role record per (community, user). The Banned role
// supersedes the lattice; a banned membership is never active.
type Membership struct {
	MembershipID string
	CommunityID  string
	UserID       string
	Role         Role
	IsActive     bool
	JoinedAt     time.Time
	UpdatedAt    time.Time
}

func (m Membership) CanModerate() bool {
	return m.IsActive && (m.Role == RoleModerator || m.Role == RoleAdmin)
}

func (m Membership) IsAdmin() bool {
	return m.IsActive && m.Role == RoleAdmin
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

type MembershipRequest struct {
	RequestID   string
	CommunityID string
	RequesterID string
	Message     string
	Status      RequestStatus
	ReviewedBy  string
	ReviewNotes string
	CreatedAt   time.Time
	ReviewedAt  *time.Time
}

type BanType string

const (
	BanTemporary BanType = "temporary"
	BanPermanent BanType = "permanent"
)

type BanRecord struct {
	BanID       string
	CommunityID string
	UserID      string
	BanType     BanType
	Reason      string
	BannedBy    string
	ExpiresAt   *time.Time
	IsActive    bool
	CreatedAt   time.Time
	LiftedAt    *time.Time
}

// Expired reports whether a temporary ban has lapsed. Permanent bans never
// expire on their own.
func (b BanRecord) Expired(now time.Time) bool {
	return b.BanType == BanTemporary && b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

type AppealStatus string

const (
	AppealPending  AppealStatus = "pending"
	AppealApproved AppealStatus = "approved"
	AppealDenied   AppealStatus = "denied"
)

type Appeal struct {
	AppealID    string
	BanID       string
	CommunityID string
	UserID      string
	Reason      string
	Status      AppealStatus
	ReviewedBy  string
	ReviewNotes string
	CreatedAt   time.Time
	ReviewedAt  *time.Time
}

type ModerationAction string

const (
	ActionBan              ModerationAction = "ban"
	ActionUnban            ModerationAction = "unban"
	ActionRemoveMember     ModerationAction = "remove_member"
	ActionAssignModerator  ModerationAction = "assign_moderator"
	ActionRemoveModerator  ModerationAction = "remove_moderator"
	ActionApproveRequest   ModerationAction = "approve_request"
	ActionRejectRequest    ModerationAction = "reject_request"
	ActionAppealApproved   ModerationAction = "appeal_approved"
	ActionAppealDenied     ModerationAction = "appeal_denied"
	ActionPollCancelled    ModerationAction = "poll_cancelled"
	ActionReportUpheld     ModerationAction = "report_upheld"
	ActionReportDismissed  ModerationAction = "report_dismissed"
)

// ModerationLogEntry is the append-only audit trail. Entries are never
// mutated after creation.
type ModerationLogEntry struct {
	EntryID      string
	CommunityID  string
	ModeratorID  string
	TargetUserID string
	TargetPollID string
	Action       ModerationAction
	Reason       string
	CreatedAt    time.Time
}
