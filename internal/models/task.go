// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a lead task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskType identifies a step of the sales playbook. Manual tasks created
// by an admin use TaskTypeCustom.
type TaskType string

const (
	TaskTypeFirstContact    TaskType = "first_contact"
	TaskTypeQualifyLead     TaskType = "qualify_lead"
	TaskTypeCarPreferences  TaskType = "car_preferences"
	TaskTypeSendOffers      TaskType = "send_offers"
	TaskTypeSendCalculation TaskType = "send_calculation"
	TaskTypeScheduleMeeting TaskType = "schedule_meeting"
	TaskTypeSendContract    TaskType = "send_contract"
	TaskTypeGetPrepayment   TaskType = "get_prepayment"
	TaskTypeConfirmDeal     TaskType = "confirm_deal"
	TaskTypeCustom          TaskType = "custom"
)

// LeadTask is a follow-up action attached to a lead and a responsible admin.
type LeadTask struct {
	ID          int64      `json:"id"`
	LeadID      int64      `json:"lead_id"`
	AdminID     int64      `json:"admin_id"`
	TaskType    TaskType   `json:"task_type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Data        TaskData   `json:"task_data,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	LeadID    *int64
	AdminID   *int64
	Completed *bool
}
