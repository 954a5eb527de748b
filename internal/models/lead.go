package models

import "time"

type LeadSource string

const (
	SourceChat     LeadSource = "chat"
	SourceTelegram LeadSource = "telegram"
	SourcePhone    LeadSource = "phone"
	SourceEmail    LeadSource = "email"
	SourceOther    LeadSource = "other"
)

type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusContacted  LeadStatus = "contacted"
	LeadStatusClosed     LeadStatus = "closed"
	LeadStatusLost       LeadStatus = "lost"
)

// IsActive reports whether a lead with this status still counts toward an
// admin's workload.
func (s LeadStatus) IsActive() bool {
	return s == LeadStatusNew || s == LeadStatusInProgress || s == LeadStatusContacted
}

type LeadPriority string

const (
	PriorityLow    LeadPriority = "low"
	PriorityNormal LeadPriority = "normal"
	PriorityHigh   LeadPriority = "high"
	PriorityUrgent LeadPriority = "urgent"
)

// PipelineStage is the lead's position in the sales funnel.
type PipelineStage string

const (
	StageNewLead       PipelineStage = "new_lead"
	StageFirstContact  PipelineStage = "first_contact"
	StageQualification PipelineStage = "qualification"
	StageNeedsAnalysis PipelineStage = "needs_analysis"
	StagePresentation  PipelineStage = "presentation"
	StageNegotiation   PipelineStage = "negotiation"
	StageDealClosing   PipelineStage = "deal_closing"
	StageWon           PipelineStage = "won"
	StageLost          PipelineStage = "lost"
)

// Lead is a prospective customer tracked through the funnel.
type Lead struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	Email              string        `json:"email,omitempty"`
	Phone              string        `json:"phone,omitempty"`
	Source             LeadSource    `json:"source"`
	Status             LeadStatus    `json:"status"`
	Priority           LeadPriority  `json:"priority"`
	PipelineStage      PipelineStage `json:"pipeline_stage"`
	HasTelegramContact bool          `json:"has_telegram_contact"`
	TelegramUsername   string        `json:"telegram_username,omitempty"`
	ChatSessionID      string        `json:"chat_session_id,omitempty"`
	AssignedAdminID    *int64        `json:"assigned_admin_id,omitempty"`
	Description        string        `json:"description,omitempty"`
	Score              int           `json:"score"`
	ProjectID          string        `json:"project_id"`
	ConvertedToClient  bool          `json:"converted_to_client"`
	ConvertedAt        *time.Time    `json:"converted_at,omitempty"`
	NextFollowUpDate   *time.Time    `json:"next_follow_up_date,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// LeadFilter narrows lead listings. ProjectID empty means every project.
type LeadFilter struct {
	ProjectID       string
	Status          *LeadStatus
	Source          *LeadSource
	AssignedAdminID *int64
	Search          string
	Limit           int
	Offset          int
}

// LeadStats is the summary returned by the stats endpoint.
type LeadStats struct {
	Total    int                `json:"total"`
	ByStatus map[LeadStatus]int `json:"by_status"`
	BySource map[LeadSource]int `json:"by_source"`
}
