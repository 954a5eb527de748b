package models

import "time"

type ActivityType string

const (
	ActivityCreated          ActivityType = "created"
	ActivityUpdated          ActivityType = "updated"
	ActivityStatusChanged    ActivityType = "status_changed"
	ActivityPriorityChanged  ActivityType = "priority_changed"
	ActivityAssigned         ActivityType = "assigned"
	ActivityStageChanged     ActivityType = "stage_changed"
	ActivityCommentAdded     ActivityType = "comment_added"
	ActivityTaskCreated      ActivityType = "task_created"
	ActivityTaskCompleted    ActivityType = "task_completed"
	ActivityTagAdded         ActivityType = "tag_added"
	ActivityTagRemoved       ActivityType = "tag_removed"
	ActivityFileAttached     ActivityType = "file_attached"
	ActivityMeetingScheduled ActivityType = "meeting_scheduled"
	ActivityConverted        ActivityType = "converted"
)

// Activity is an append-only audit entry describing one change to a lead.
type Activity struct {
	ID           int64        `json:"id"`
	LeadID       int64        `json:"lead_id"`
	AdminID      *int64       `json:"admin_id,omitempty"`
	ActivityType ActivityType `json:"activity_type"`
	Field        string       `json:"field,omitempty"`
	OldValue     string       `json:"old_value,omitempty"`
	NewValue     string       `json:"new_value,omitempty"`
	Description  string       `json:"description,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
