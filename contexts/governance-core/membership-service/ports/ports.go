package ports

import (
	"context"
	"time"

	"agora/contexts/governance-core/membership-service/domain/entities"
)

type MembershipRepository interface {
	SaveMembership(ctx context.Context, membership entities.Membership) error
	GetMembership(ctx context.Context, communityID string, userID string) (entities.Membership, bool, error)
	ListMembers(ctx context.Context, communityID string, limit int, offset int) ([]entities.Membership, error)
	CountActiveMembers(ctx context.Context, communityID string) (int64, error)
}

type RequestRepository interface {
	SaveRequest(ctx context.Context, request entities.MembershipRequest) error
	GetRequest(ctx context.Context, requestID string) (entities.MembershipRequest, error)
	GetPendingRequest(ctx context.Context, communityID string, requesterID string) (entities.MembershipRequest, bool, error)
	ListPendingRequests(ctx context.Context, communityID string, limit int) ([]entities.MembershipRequest, error)
}

type BanRepository interface {
	SaveBan(ctx context.Context, ban entities.BanRecord) error
	GetBan(ctx context.Context, banID string) (entities.BanRecord, error)
	GetActiveBan(ctx context.Context, communityID string, userID string) (entities.BanRecord, bool, error)
	ListActiveBans(ctx context.Context, communityID string, limit int) ([]entities.BanRecord, error)
	ListExpiredBans(ctx context.Context, now time.Time, limit int) ([]entities.BanRecord, error)
}

type AppealRepository interface {
	SaveAppeal(ctx context.Context, appeal entities.Appeal) error
	GetAppeal(ctx context.Context, appealID string) (entities.Appeal, error)
	GetAppealByBan(ctx context.Context, banID string) (entities.Appeal, bool, error)
	ListPendingAppeals(ctx context.Context, communityID string, limit int) ([]entities.Appeal, error)
}

type ModerationLogRepository interface {
	AppendLogEntry(ctx context.Context, entry entities.ModerationLogEntry) error
	ListLogEntries(ctx context.Context, communityID string, limit int, offset int) ([]entities.ModerationLogEntry, error)
}

// CommunityInfo is the registry snapshot membership decisions read.
type CommunityInfo struct {
	CommunityID      string
	Authority        string
	RequiresApproval bool
	IsActive         bool
}

// CommunityDirectory is implemented by the community module: read settings
// and accrue roster counters inside the same operation.
type CommunityDirectory interface {
	GetCommunityInfo(ctx context.Context, communityID string) (CommunityInfo, error)
	MemberJoined(ctx context.Context, communityID string) error
	MemberLeft(ctx context.Context, communityID string) error
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
