package models

import "time"

type LeadComment struct {
	ID        int64     `json:"id"`
	LeadID    int64     `json:"lead_id"`
	AdminID   int64     `json:"admin_id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const DefaultTagColor = "#4f8cff"

type LeadTag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

type MeetingType string

const (
	MeetingCall    MeetingType = "call"
	MeetingEmail   MeetingType = "email"
	MeetingMeeting MeetingType = "meeting"
	MeetingVisit   MeetingType = "visit"
	MeetingOther   MeetingType = "other"
)

type LeadMeeting struct {
	ID          int64       `json:"id"`
	LeadID      int64       `json:"lead_id"`
	AdminID     int64       `json:"admin_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	MeetingDate time.Time   `json:"meeting_date"`
	Location    string      `json:"location,omitempty"`
	MeetingType MeetingType `json:"meeting_type"`
	Completed   bool        `json:"completed"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// LeadAttachment is file metadata only; the bytes live in external storage.
type LeadAttachment struct {
	ID          int64     `json:"id"`
	LeadID      int64     `json:"lead_id"`
	AdminID     *int64    `json:"admin_id,omitempty"`
	FileName    string    `json:"file_name"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
