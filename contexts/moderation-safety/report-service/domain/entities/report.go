package entities

import "time"

type ReportCategory string

const (
	CategorySpam           ReportCategory = "spam"
	CategoryOffensive      ReportCategory = "offensive"
	CategoryHarassment     ReportCategory = "harassment"
	CategoryMisinformation ReportCategory = "misinformation"
	CategoryInappropriate  ReportCategory = "inappropriate"
	CategoryCopyright      ReportCategory = "copyright"
	CategoryOffTopic       ReportCategory = "off_topic"
)

// ValidCategory reports whether the category is one of the accepted values.
func ValidCategory(category ReportCategory) bool {
	switch category {
	case CategorySpam, CategoryOffensive, CategoryHarassment, CategoryMisinformation,
		CategoryInappropriate, CategoryCopyright, CategoryOffTopic:
		return true
	}
	return false
}

// HighSeverity categories escalate faster than the rest.
func (c ReportCategory) HighSeverity() bool {
	switch c {
	case CategoryOffensive, CategoryHarassment, CategoryInappropriate:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
	ReportUpheld    ReportStatus = "upheld"
)

const (
	MaxReasonLength = 200
	MaxNotesLength  = 200

	// Escalation thresholds evaluated on every submission.
	EscalationTotalThreshold        = 5
	EscalationCategoryThreshold     = 3
	EscalationHighSeverityThreshold = 2
)

// Report is one user's complaint about one poll. One per (poll, reporter).
type Report struct {
	ReportID    string
	PollID      string
	CommunityID string
	ReporterID  string
	Category    ReportCategory
	Reason      string
	Status      ReportStatus
	ReviewedBy  string
	ReviewNotes string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReportCounter aggregates report pressure per poll and carries the
// escalation flag once any threshold trips.
type ReportCounter struct {
	PollID      string
	CommunityID string
	Total       int
	ByCategory  map[ReportCategory]int
	Escalated   bool
	UpdatedAt   time.Time
}

// ShouldEscalate evaluates the escalation predicate against the current
// counts.
func (c ReportCounter) ShouldEscalate() bool {
	if c.Total >= EscalationTotalThreshold {
		return true
	}
	var highSeverity int
	for category, count := range c.ByCategory {
		if count >= EscalationCategoryThreshold {
			return true
		}
		if category.HighSeverity() {
			highSeverity += count
		}
	}
	return highSeverity >= EscalationHighSeverityThreshold
}
