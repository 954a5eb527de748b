package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"autodealer/internal/authz"
	"autodealer/internal/models"
	"autodealer/internal/repositories"
)

type MeetingInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	MeetingDate time.Time          `json:"meeting_date"`
	Location    string             `json:"location"`
	MeetingType models.MeetingType `json:"meeting_type"`
	Completed   bool               `json:"completed"`
}

type AttachmentInput struct {
	FileName    string `json:"file_name"`
	FilePath    string `json:"file_path"`
	FileSize    int64  `json:"file_size"`
	MimeType    string `json:"mime_type"`
	Description string `json:"description"`
}

var validMeetingTypes = map[models.MeetingType]bool{
	models.MeetingCall:    true,
	models.MeetingEmail:   true,
	models.MeetingMeeting: true,
	models.MeetingVisit:   true,
	models.MeetingOther:   true,
}

// LeadExtrasService manages the records hanging off a lead: comments, tags,
// meetings and attachment metadata.
type LeadExtrasService struct {
	leads       *LeadService
	comments    repositories.CommentRepository
	tags        repositories.TagRepository
	meetings    repositories.MeetingRepository
	attachments repositories.AttachmentRepository
}

func NewLeadExtrasService(
	leads *LeadService,
	tags repositories.TagRepository,
	attachments repositories.AttachmentRepository,
) *LeadExtrasService {
	return &LeadExtrasService{
		leads:       leads,
		comments:    leads.comments,
		tags:        tags,
		meetings:    leads.meetings,
		attachments: attachments,
	}
}

// ---- comments ----

func (s *LeadExtrasService) AddComment(ctx context.Context, leadID int64, text string, actor authz.Actor) (*models.LeadComment, error) {
	lead, err := s.leads.loadLead(ctx, leadID, actor, true)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationError("comment is empty")
	}
	if actor.AdminID == 0 {
		return nil, validationError("comment needs an author")
	}

	c := &models.LeadComment{LeadID: lead.ID, AdminID: actor.AdminID, Comment: text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	s.leads.activity.Record(ctx, lead, models.Activity{
		AdminID:      actor.AdminRef(),
		ActivityType: models.ActivityCommentAdded,
		NewValue:     text,
	})
	s.leads.rescore(ctx, lead)
	return c, nil
}

func (s *LeadExtrasService) ListComments(ctx context.Context, leadID int64, actor authz.Actor) ([]models.LeadComment, error) {
	if _, err := s.leads.loadLead(ctx, leadID, actor, false); err != nil {
		return nil, err
	}
	return s.comments.ListByLead(ctx, leadID)
}

// DeleteComment is allowed to the author and to super admins.
func (s *LeadExtrasService) DeleteComment(ctx context.Context, commentID int64, actor authz.Actor) error {
	c, err := s.comments.GetByID(ctx, commentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}
	lead, err := s.leads.loadLead(ctx, c.LeadID, actor, true)
	if err != nil {
		return err
	}
	if !actor.IsSuper && c.AdminID != actor.AdminID {
		return ErrForbidden
	}
	if err := s.comments.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	s.leads.rescore(ctx, lead)
	return nil
}

// ---- tags ----

func (s *LeadExtrasService) ListTags(ctx context.Context) ([]models.LeadTag, error) {
	return s.tags.List(ctx)
}

func (s *LeadExtrasService) CreateTag(ctx context.Context, name, color string, actor authz.Actor) (*models.LeadTag, error) {
	if !actor.CanManageLeads() {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("tag name is required")
	}
	if color == "" {
		color = models.DefaultTagColor
	}
	if !isHexColor(color) {
		return nil, validationError("color must look like #rrggbb")
	}

	tag := &models.LeadTag{Name: name, Color: color}
	if err := s.tags.Create(ctx, tag); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: tag %q already exists", ErrConflict, name)
		}
		return nil, err
	}
	return tag, nil
}

func (s *LeadExtrasService) AddTag(ctx context.Context, leadID, tagID int64, actor authz.Actor) error {
	lead, err := s.leads.loadLead(ctx, leadID, actor, true)
	if err != nil {
		return err
	}
	tag, err := s.tags.GetByID(ctx, tagID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrTagNotFound
	}
	if err != nil {
		return err
	}
	if err := s.tags.Attach(ctx, lead.ID, tag.ID); err != nil {
		return err
	}
	s.leads.activity.Record(ctx, lead, models.Activity{
		AdminID:      actor.AdminRef(),
		ActivityType: models.ActivityTagAdded,
		NewValue:     tag.Name,
	})
	return nil
}

func (s *LeadExtrasService) RemoveTag(ctx context.Context, leadID, tagID int64, actor authz.Actor) error {
	lead, err := s.leads.loadLead(ctx, leadID, actor, true)
	if err != nil {
		return err
	}
	tag, err := s.tags.GetByID(ctx, tagID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrTagNotFound
	}
	if err != nil {
		return err
	}
	if err := s.tags.Detach(ctx, lead.ID, tag.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTagNotFound
		}
		return err
	}
	s.leads.activity.Record(ctx, lead, models.Activity{
		AdminID:      actor.AdminRef(),
		ActivityType: models.ActivityTagRemoved,
		OldValue:     tag.Name,
	})
	return nil
}

func (s *LeadExtrasService) ListLeadTags(ctx context.Context, leadID int64, actor authz.Actor) ([]models.LeadTag, error) {
	if _, err := s.leads.loadLead(ctx, leadID, actor, false); err != nil {
		return nil, err
	}
	return s.tags.ListByLead(ctx, leadID)
}

func isHexColor(c string) bool {
	if len(c) != 7 || c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// ---- meetings ----

func (s *LeadExtrasService) ScheduleMeeting(ctx context.Context, leadID int64, in MeetingInput, actor authz.Actor) (*models.LeadMeeting, error) {
	lead, err := s.leads.loadLead(ctx, leadID, actor, true)
	if err != nil {
		return nil, err
	}
	m := &models.LeadMeeting{LeadID: lead.ID}
	if err := fillMeeting(m, in); err != nil {
		return nil, err
	}
	switch {
	case actor.AdminID != 0:
		m.AdminID = actor.AdminID
	case lead.AssignedAdminID != nil:
		m.AdminID = *lead.AssignedAdminID
	default:
		return nil, validationError("meeting needs a responsible admin")
	}

	if err := s.meetings.Create(ctx, m); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"meeting_id": m.ID, "lead_id": lead.ID}).Info("[meeting][create] scheduled")

	s.leads.activity.Record(ctx, lead, models.Activity{
		AdminID:      actor.AdminRef(),
		ActivityType: models.ActivityMeetingScheduled,
		NewValue:     m.MeetingDate.UTC().Format(time.RFC3339),
		Description:  m.Title,
	})
	s.leads.rescore(ctx, lead)
	return m, nil
}

func (s *LeadExtrasService) ListMeetings(ctx context.Context, leadID int64, actor authz.Actor) ([]models.LeadMeeting, error) {
	if _, err := s.leads.loadLead(ctx, leadID, actor, false); err != nil {
		return nil, err
	}
	return s.meetings.ListByLead(ctx, leadID)
}

func (s *LeadExtrasService) UpdateMeeting(ctx context.Context, meetingID int64, in MeetingInput, actor authz.Actor) (*models.LeadMeeting, error) {
	m, err := s.meetings.GetByID(ctx, meetingID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.leads.loadLead(ctx, m.LeadID, actor, true); err != nil {
		return nil, err
	}
	if err := fillMeeting(m, in); err != nil {
		return nil, err
	}
	if err := s.meetings.Update(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *LeadExtrasService) DeleteMeeting(ctx context.Context, meetingID int64, actor authz.Actor) error {
	m, err := s.meetings.GetByID(ctx, meetingID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrMeetingNotFound
	}
	if err != nil {
		return err
	}
	lead, err := s.leads.loadLead(ctx, m.LeadID, actor, true)
	if err != nil {
		return err
	}
	if err := s.meetings.Delete(ctx, m.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMeetingNotFound
		}
		return err
	}
	s.leads.rescore(ctx, lead)
	return nil
}

func fillMeeting(m *models.LeadMeeting, in MeetingInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return validationError("meeting title is required")
	}
	if in.MeetingDate.IsZero() {
		return validationError("meeting_date is required")
	}
	kind := in.MeetingType
	if kind == "" {
		kind = models.MeetingCall
	}
	if !validMeetingTypes[kind] {
		return validationError("unknown meeting type %q", kind)
	}
	m.Title = title
	m.Description = in.Description
	m.MeetingDate = in.MeetingDate
	m.Location = in.Location
	m.MeetingType = kind
	m.Completed = in.Completed
	return nil
}

// ---- attachments ----

func (s *LeadExtrasService) AddAttachment(ctx context.Context, leadID int64, in AttachmentInput, actor authz.Actor) (*models.LeadAttachment, error) {
	lead, err := s.leads.loadLead(ctx, leadID, actor, true)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FileName) == "" || strings.TrimSpace(in.FilePath) == "" {
		return nil, validationError("file_name and file_path are required")
	}
	if in.FileSize < 0 {
		return nil, validationError("file_size must not be negative")
	}

	a := &models.LeadAttachment{
		LeadID:      lead.ID,
		AdminID:     actor.AdminRef(),
		FileName:    in.FileName,
		FilePath:    in.FilePath,
		FileSize:    in.FileSize,
		MimeType:    in.MimeType,
		Description: in.Description,
	}
	if err := s.attachments.Create(ctx, a); err != nil {
		return nil, err
	}
	s.leads.activity.Record(ctx, lead, models.Activity{
		AdminID:      actor.AdminRef(),
		ActivityType: models.ActivityFileAttached,
		NewValue:     a.FileName,
	})
	return a, nil
}

func (s *LeadExtrasService) ListAttachments(ctx context.Context, leadID int64, actor authz.Actor) ([]models.LeadAttachment, error) {
	if _, err := s.leads.loadLead(ctx, leadID, actor, false); err != nil {
		return nil, err
	}
	return s.attachments.ListByLead(ctx, leadID)
}

func (s *LeadExtrasService) DeleteAttachment(ctx context.Context, attachmentID int64, actor authz.Actor) error {
	a, err := s.attachments.GetByID(ctx, attachmentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrAttachmentNotFound
	}
	if err != nil {
		return err
	}
	if _, err := s.leads.loadLead(ctx, a.LeadID, actor, true); err != nil {
		return err
	}
	if err := s.attachments.Delete(ctx, a.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAttachmentNotFound
		}
		return err
	}
	return nil
}
