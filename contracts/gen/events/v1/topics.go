package v1

// Topic and event type names shared by producers and consumers.
const (
	TopicReputationChanged = "user.reputation_changed"
	TopicPollCreated       = "poll.created"
	TopicPollVoteCast      = "poll.vote_cast"
	TopicPollResolved      = "poll.resolved"
	TopicRewardClaimed     = "reward.claimed"
	TopicReportThreshold   = "report.threshold_reached"

	EventTypeReputationChanged = "user.reputation_changed.v1"
	EventTypePollCreated       = "poll.created.v1"
	EventTypePollVoteCast      = "poll.vote_cast.v1"
	EventTypePollResolved      = "poll.resolved.v1"
	EventTypeRewardClaimed     = "reward.claimed.v1"
	EventTypeReportThreshold   = "report.threshold_reached.v1"
)
