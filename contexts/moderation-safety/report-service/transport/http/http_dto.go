package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitReportRequest struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

type ReportResponse struct {
	ReportID    string `json:"report_id"`
	PollID      string `json:"poll_id"`
	CommunityID string `json:"community_id"`
	ReporterID  string `json:"reporter_id"`
	Category    string `json:"category"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	ReviewedBy  string `json:"reviewed_by,omitempty"`
	ReviewNotes string `json:"review_notes,omitempty"`
}

type ReportListResponse struct {
	Items []ReportResponse `json:"items"`
}

type ReviewReportRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes,omitempty"`
}

type ReportCounterResponse struct {
	PollID      string         `json:"poll_id"`
	CommunityID string         `json:"community_id,omitempty"`
	Total       int            `json:"total"`
	ByCategory  map[string]int `json:"by_category"`
	Escalated   bool           `json:"escalated"`
}
