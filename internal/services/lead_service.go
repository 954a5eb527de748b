package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"autodealer/internal/authz"
	"autodealer/internal/models"
	"autodealer/internal/repositories"
)

type CreateLeadInput struct {
	Name               string              `json:"name"`
	Email              string              `json:"email"`
	Phone              string              `json:"phone"`
	Source             models.LeadSource   `json:"source"`
	Status             models.LeadStatus   `json:"status"`
	Priority           models.LeadPriority `json:"priority"`
	HasTelegramContact bool                `json:"has_telegram_contact"`
	TelegramUsername   string              `json:"telegram_username"`
	ChatSessionID      string              `json:"chat_session_id"`
	Description        string              `json:"description"`
	AssignedAdminID    *int64              `json:"assigned_admin_id"`
	ProjectID          string              `json:"project_id"`
}

// LeadPatch holds the fields an update may change; nil means untouched.
// AssignedAdminID pointing at 0 clears the assignment.
type LeadPatch struct {
	Name               *string               `json:"name"`
	Email              *string               `json:"email"`
	Phone              *string               `json:"phone"`
	Source             *models.LeadSource    `json:"source"`
	Status             *models.LeadStatus    `json:"status"`
	Priority           *models.LeadPriority  `json:"priority"`
	PipelineStage      *models.PipelineStage `json:"pipeline_stage"`
	AssignedAdminID    *int64                `json:"assigned_admin_id"`
	HasTelegramContact *bool                 `json:"has_telegram_contact"`
	TelegramUsername   *string               `json:"telegram_username"`
	Description        *string               `json:"description"`
	NextFollowUpDate   *time.Time            `json:"next_follow_up_date"`
}

var validStatuses = map[models.LeadStatus]bool{
	models.LeadStatusNew:        true,
	models.LeadStatusInProgress: true,
	models.LeadStatusContacted:  true,
	models.LeadStatusClosed:     true,
	models.LeadStatusLost:       true,
}

type LeadServiceDeps struct {
	Leads      repositories.LeadRepository
	Tasks      repositories.TaskRepository
	Admins     repositories.AdminRepository
	Comments   repositories.CommentRepository
	Meetings   repositories.MeetingRepository
	Activities repositories.ActivityRepository
	Publisher  ActivityPublisher
	Notifier   Notifier

	DefaultProject string
	FollowUpAfter  time.Duration
}

// LeadService coordinates scoring, assignment, task generation and stage
// advancement around lead writes. Every call takes the acting admin
// explicitly.
type LeadService struct {
	leads     repositories.LeadRepository
	tasks     repositories.TaskRepository
	admins    repositories.AdminRepository
	comments  repositories.CommentRepository
	meetings  repositories.MeetingRepository
	activity  *ActivityLog
	balancer  *AssignmentBalancer
	templates *TaskTemplateEngine
	notifier  Notifier

	defaultProject string
	followUpAfter  time.Duration
	now            func() time.Time
}

func NewLeadService(d LeadServiceDeps) *LeadService {
	activity := NewActivityLog(d.Activities, d.Publisher)
	notifier := d.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	followUp := d.FollowUpAfter
	if followUp <= 0 {
		followUp = 2 * time.Hour
	}
	project := d.DefaultProject
	if project == "" {
		project = models.ProjectOffice1
	}
	return &LeadService{
		leads:          d.Leads,
		tasks:          d.Tasks,
		admins:         d.Admins,
		comments:       d.Comments,
		meetings:       d.Meetings,
		activity:       activity,
		balancer:       NewAssignmentBalancer(d.Admins, d.Leads),
		templates:      NewTaskTemplateEngine(d.Tasks, activity),
		notifier:       notifier,
		defaultProject: project,
		followUpAfter:  followUp,
		now:            time.Now,
	}
}

// CreateLead stores a new lead, assigns it to the least loaded admin when
// no assignee is given, hands out the first playbook tasks and scores it.
func (s *LeadService) CreateLead(ctx context.Context, in CreateLeadInput, actor authz.Actor) (*models.Lead, error) {
	if !actor.CanManageLeads() {
		return nil, ErrForbidden
	}
	lead, err := s.newLead(in)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsSuper:
		if lead.ProjectID == "" {
			lead.ProjectID = s.defaultProject
		}
	case lead.ProjectID == "":
		lead.ProjectID = actor.ProjectID
	case lead.ProjectID != actor.ProjectID:
		return nil, ErrForbidden
	}

	if in.AssignedAdminID != nil && *in.AssignedAdminID != 0 {
		if _, err := s.checkAssignee(ctx, *in.AssignedAdminID, lead.ProjectID); err != nil {
			return nil, err
		}
		id := *in.AssignedAdminID
		lead.AssignedAdminID = &id
	} else {
		adminID, err := s.balancer.AssignAdmin(ctx, lead.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("assign admin: %w", err)
		}
		lead.AssignedAdminID = adminID
	}

	followUp := s.now().Add(s.followUpAfter)
	lead.NextFollowUpDate = &followUp
	lead.Score = ComputeScore(lead, ScoreFacts{})

	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"lead_id":    lead.ID,
		"project_id": lead.ProjectID,
		"assigned":   formatAdminRef(lead.AssignedAdminID),
	}).Info("[lead][create] created")

	s.activity.Record(ctx, lead, models.Activity{
		AdminID:      actor.AdminRef(),
		ActivityType: models.ActivityCreated,
		Description:  fmt.Sprintf("Лид создан: %s", lead.Name),
	})

	tasks := s.generateTasks(ctx, lead)
	s.rescore(ctx, lead)
	s.notifyAssignee(ctx, lead, lead.AssignedAdminID != nil, tasks)
	return lead, nil
}

// ChatLeadInput carries what the chat widget knows about the client.
type ChatLeadInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	AssignedAdminID *int64 `json:"assigned_admin_id"`
	ProjectID       string `json:"project_id"`
}

const unknownClientName = "Неизвестный клиент"

// CreateLeadFromChat returns the lead already opened for the chat session
// or creates one through CreateLead with source chat and normal priority.
// created reports which of the two happened.
func (s *LeadService) CreateLeadFromChat(ctx context.Context, chatSessionID string, in ChatLeadInput, actor authz.Actor) (lead *models.Lead, created bool, err error) {
	sessionID := strings.TrimSpace(chatSessionID)
	if sessionID == "" {
		return nil, false, validationError("chat session id is required")
	}
	if !actor.CanManageLeads() {
		return nil, false, ErrForbidden
	}

	existing, err := s.leads.FindByChatSession(ctx, sessionID)
	switch {
	case err == nil:
		if !actor.CanSeeProject(existing.ProjectID) {
			return nil, false, ErrForbidden
		}
		logrus.WithFields(logrus.Fields{"lead_id": existing.ID, "chat_session_id": sessionID}).
			Info("[lead][from-chat] already exists")
		return existing, false, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, false, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = unknownClientName
	}
	lead, err = s.CreateLead(ctx, CreateLeadInput{
		Name:            name,
		Email:           in.Email,
		Phone:           in.Phone,
		Source:          models.SourceChat,
		Status:          models.LeadStatusNew,
		Priority:        models.PriorityNormal,
		ChatSessionID:   sessionID,
		AssignedAdminID: in.AssignedAdminID,
		ProjectID:       in.ProjectID,
	}, actor)
	if err != nil {
		return nil, false, err
	}
	return lead, true, nil
}

func (s *LeadService) newLead(in CreateLeadInput) (*models.Lead, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	lead := &models.Lead{
		Name:               name,
		Email:              strings.TrimSpace(in.Email),
		Phone:              strings.TrimSpace(in.Phone),
		Source:             in.Source,
		Status:             in.Status,
		Priority:           in.Priority,
		PipelineStage:      models.StageNewLead,
		HasTelegramContact: in.HasTelegramContact,
		TelegramUsername:   in.TelegramUsername,
		ChatSessionID:      in.ChatSessionID,
		Description:        in.Description,
		ProjectID:          in.ProjectID,
	}
	if lead.Source == "" {
		lead.Source = models.SourceChat
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if lead.Priority == "" {
		lead.Priority = models.PriorityNormal
	}
	if err := validateLead(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// column widths of the leads table
const (
	maxPhoneLen     = 20
	maxTextFieldLen = 255
)

func validateLead(lead *models.Lead) error {
	if utf8.RuneCountInString(lead.Phone) > maxPhoneLen {
		return validationError("phone must be at most %d characters", maxPhoneLen)
	}
	for field, v := range map[string]string{
		"name":              lead.Name,
		"email":             lead.Email,
		"telegram_username": lead.TelegramUsername,
		"chat_session_id":   lead.ChatSessionID,
	} {
		if utf8.RuneCountInString(v) > maxTextFieldLen {
			return validationError("%s must be at most %d characters", field, maxTextFieldLen)
		}
	}
	if _, ok := sourceBaseScore[lead.Source]; !ok {
		return validationError("unknown source %q", lead.Source)
	}
	if !validStatuses[lead.Status] {
		return validationError("unknown status %q", lead.Status)
	}
	if _, ok := priorityBonus[lead.Priority]; !ok {
		return validationError("unknown priority %q", lead.Priority)
	}
	if !IsValidStage(lead.PipelineStage) {
		return validationError("unknown pipeline stage %q", lead.PipelineStage)
	}
	return nil
}

func (s *LeadService) checkAssignee(ctx context.Context, adminID int64, projectID string) (*models.Admin, error) {
	admin, err := s.admins.GetByID(ctx, adminID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, validationError("admin %d not found", adminID)
	}
	if err != nil {
		return nil, err
	}
	if !admin.IsSuper && admin.ProjectID != projectID {
		return nil, validationError("admin %d belongs to another project", adminID)
	}
	return admin, nil
}

// UpdateLead applies a patch, rescores the lead and logs one activity per
// changed field. A new assignee takes over the open tasks. Playbook tasks
// are handed out again when the assignee changed, the lead had no tasks or
// the stage moved forward.
func (s *LeadService) UpdateLead(ctx context.Context, id int64, patch LeadPatch, actor authz.Actor) (*models.Lead, error) {
	lead, err := s.loadLead(ctx, id, actor, true)
	if err != nil {
		return nil, err
	}
	facts, err := s.scoreFacts(ctx, lead.ID)
	if err != nil {
		return nil, err
	}

	before := *lead
	if err := applyPatch(lead, patch); err != nil {
		return nil, err
	}
	if err := validateLead(lead); err != nil {
		return nil, err
	}
	reassigned := !sameAdmin(before.AssignedAdminID, lead.AssignedAdminID)
	if reassigned && lead.AssignedAdminID != nil {
		if _, err := s.checkAssignee(ctx, *lead.AssignedAdminID, lead.ProjectID); err != nil {
			return nil, err
		}
	}

	lead.Score = ComputeScore(lead, facts)
	if err := s.leads.Update(ctx, lead); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}

	changes := diffLead(&before, lead)
	for _, a := range changes {
		a.AdminID = actor.AdminRef()
		s.activity.Record(ctx, lead, a)
	}
	logrus.WithFields(logrus.Fields{"lead_id": lead.ID, "changes": len(changes)}).Info("[lead][update] saved")

	if reassigned && lead.AssignedAdminID != nil {
		if _, err := s.templates.ReassignOpenTasks(ctx, lead, *lead.AssignedAdminID); err != nil {
			logrus.WithField("lead_id", lead.ID).WithError(err).Warn("[lead][update] reassign tasks failed")
		}
	}

	var tasks []models.LeadTask
	stageForward := StageOrdinal(lead.PipelineStage) > StageOrdinal(before.PipelineStage)
	if reassigned || facts.Tasks == 0 || stageForward {
		tasks = s.generateTasks(ctx, lead)
		if len(tasks) > 0 && facts.Tasks == 0 {
			s.rescore(ctx, lead)
		}
	}
	s.notifyAssignee(ctx, lead, reassigned && lead.AssignedAdminID != nil, tasks)
	return lead, nil
}

func applyPatch(lead *models.Lead, p LeadPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return validationError("name is required")
		}
		lead.Name = name
	}
	if p.Email != nil {
		lead.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		lead.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Source != nil {
		lead.Source = *p.Source
	}
	if p.Status != nil {
		lead.Status = *p.Status
	}
	if p.Priority != nil {
		lead.Priority = *p.Priority
	}
	if p.PipelineStage != nil {
		lead.PipelineStage = *p.PipelineStage
	}
	if p.AssignedAdminID != nil {
		if *p.AssignedAdminID == 0 {
			lead.AssignedAdminID = nil
		} else {
			id := *p.AssignedAdminID
			lead.AssignedAdminID = &id
		}
	}
	if p.HasTelegramContact != nil {
		lead.HasTelegramContact = *p.HasTelegramContact
	}
	if p.TelegramUsername != nil {
		lead.TelegramUsername = *p.TelegramUsername
	}
	if p.Description != nil {
		lead.Description = *p.Description
	}
	if p.NextFollowUpDate != nil {
		t := *p.NextFollowUpDate
		lead.NextFollowUpDate = &t
	}
	return nil
}

// diffLead returns one activity per field that differs between old and
// updated.
func diffLead(old, updated *models.Lead) []models.Activity {
	type field struct {
		name     string
		kind     models.ActivityType
		from, to string
	}
	fields := []field{
		{"name", models.ActivityUpdated, old.Name, updated.Name},
		{"email", models.ActivityUpdated, old.Email, updated.Email},
		{"phone", models.ActivityUpdated, old.Phone, updated.Phone},
		{"source", models.ActivityUpdated, string(old.Source), string(updated.Source)},
		{"status", models.ActivityStatusChanged, string(old.Status), string(updated.Status)},
		{"priority", models.ActivityPriorityChanged, string(old.Priority), string(updated.Priority)},
		{"pipeline_stage", models.ActivityUpdated, string(old.PipelineStage), string(updated.PipelineStage)},
		{"assigned_admin_id", models.ActivityAssigned, formatAdminRef(old.AssignedAdminID), formatAdminRef(updated.AssignedAdminID)},
		{"has_telegram_contact", models.ActivityUpdated, strconv.FormatBool(old.HasTelegramContact), strconv.FormatBool(updated.HasTelegramContact)},
		{"telegram_username", models.ActivityUpdated, old.TelegramUsername, updated.TelegramUsername},
		{"description", models.ActivityUpdated, old.Description, updated.Description},
		{"next_follow_up_date", models.ActivityUpdated, formatTime(old.NextFollowUpDate), formatTime(updated.NextFollowUpDate)},
	}

	var out []models.Activity
	for _, f := range fields {
		if f.from == f.to {
			continue
		}
		out = append(out, models.Activity{
			ActivityType: f.kind,
			Field:        f.name,
			OldValue:     f.from,
			NewValue:     f.to,
		})
	}
	return out
}

// CompleteTask closes a task and moves the lead forward when the task
// unlocks a later stage. Completing an already completed task only retries
// the stage move, which is a no-op once the lead is past that stage.
func (s *LeadService) CompleteTask(ctx context.Context, taskID int64, actor authz.Actor) (*models.LeadTask, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	lead, err := s.loadLead(ctx, task.LeadID, actor, true)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		// an earlier call may have stored the task and then failed on the stage write
		if err := s.advanceStage(ctx, lead, task.TaskType, actor); err != nil {
			return nil, err
		}
		return task, nil
	}

	now := s.now()
	task.Completed = true
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now
	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"task_id": task.ID, "lead_id": lead.ID, "type": task.TaskType}).
		Info("[task][complete] completed")

	s.activity.Record(ctx, lead, models.Activity{
		AdminID:      actor.AdminRef(),
		ActivityType: models.ActivityTaskCompleted,
		NewValue:     string(task.TaskType),
		Description:  fmt.Sprintf("Задача выполнена: %s", task.Title),
	})

	if err := s.advanceStage(ctx, lead, task.TaskType, actor); err != nil {
		return nil, err
	}
	s.rescore(ctx, lead)
	return task, nil
}

// advanceStage moves the lead to the stage unlocked by completed, stores it
// and hands out the playbook tasks of the new stage.
func (s *LeadService) advanceStage(ctx context.Context, lead *models.Lead, completed models.TaskType, actor authz.Actor) error {
	from := lead.PipelineStage
	if !AdvanceOnTaskCompletion(lead, completed) {
		return nil
	}
	if err := s.leads.Update(ctx, lead); err != nil {
		to := lead.PipelineStage
		lead.PipelineStage = from
		return fmt.Errorf("advance lead %d to %s: %w", lead.ID, to, err)
	}
	logrus.WithFields(logrus.Fields{"lead_id": lead.ID, "from": from, "to": lead.PipelineStage}).
		Info("[lead][stage] advanced")
	s.activity.Record(ctx, lead, models.Activity{
		AdminID:      actor.AdminRef(),
		ActivityType: models.ActivityStageChanged,
		Field:        "pipeline_stage",
		OldValue:     string(from),
		NewValue:     string(lead.PipelineStage),
	})
	tasks := s.generateTasks(ctx, lead)
	s.notifyAssignee(ctx, lead, false, tasks)
	return nil
}

// GetUnprocessedLeadCount counts new or in-progress leads that are hot
// (score >= 50) or still unassigned, within the actor's reach.
func (s *LeadService) GetUnprocessedLeadCount(ctx context.Context, actor authz.Actor) (int, error) {
	if !actor.CanViewLeads() {
		return 0, ErrForbidden
	}
	return s.leads.CountUnprocessed(ctx, actor.ScopeProject())
}

func (s *LeadService) GetLead(ctx context.Context, id int64, actor authz.Actor) (*models.Lead, error) {
	return s.loadLead(ctx, id, actor, false)
}

// ListLeads pins the project filter to the actor's office unless the actor
// is a super admin.
func (s *LeadService) ListLeads(ctx context.Context, filter models.LeadFilter, actor authz.Actor) ([]models.Lead, error) {
	if !actor.CanViewLeads() {
		return nil, ErrForbidden
	}
	if !actor.IsSuper {
		filter.ProjectID = actor.ProjectID
	}
	return s.leads.List(ctx, filter)
}

func (s *LeadService) DeleteLead(ctx context.Context, id int64, actor authz.Actor) error {
	lead, err := s.loadLead(ctx, id, actor, true)
	if err != nil {
		return err
	}
	if err := s.leads.Delete(ctx, lead.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrLeadNotFound
		}
		return err
	}
	logrus.WithField("lead_id", id).Info("[lead][delete] deleted")
	return nil
}

// ConvertToClient marks the lead as won and closed.
func (s *LeadService) ConvertToClient(ctx context.Context, id int64, actor authz.Actor) (*models.Lead, error) {
	lead, err := s.loadLead(ctx, id, actor, true)
	if err != nil {
		return nil, err
	}
	if lead.ConvertedToClient {
		return nil, fmt.Errorf("%w: lead %d already converted", ErrConflict, id)
	}

	now := s.now()
	fromStage := lead.PipelineStage
	lead.ConvertedToClient = true
	lead.ConvertedAt = &now
	lead.Status = models.LeadStatusClosed
	lead.PipelineStage = models.StageWon
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, lead, models.Activity{
		AdminID:      actor.AdminRef(),
		ActivityType: models.ActivityConverted,
		Field:        "converted_to_client",
		OldValue:     "false",
		NewValue:     "true",
		Description:  "Лид конвертирован в клиента",
	})
	if fromStage != lead.PipelineStage {
		s.activity.Record(ctx, lead, models.Activity{
			AdminID:      actor.AdminRef(),
			ActivityType: models.ActivityStageChanged,
			Field:        "pipeline_stage",
			OldValue:     string(fromStage),
			NewValue:     string(lead.PipelineStage),
		})
	}
	return lead, nil
}

func (s *LeadService) RecalculateScore(ctx context.Context, id int64, actor authz.Actor) (*models.Lead, error) {
	lead, err := s.loadLead(ctx, id, actor, true)
	if err != nil {
		return nil, err
	}
	facts, err := s.scoreFacts(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	score := ComputeScore(lead, facts)
	if err := s.leads.UpdateScore(ctx, lead.ID, score); err != nil {
		return nil, err
	}
	lead.Score = score
	return lead, nil
}

func (s *LeadService) GetStats(ctx context.Context, actor authz.Actor) (*models.LeadStats, error) {
	if !actor.CanViewLeads() {
		return nil, ErrForbidden
	}
	return s.leads.Stats(ctx, actor.ScopeProject())
}

func (s *LeadService) ListActivities(ctx context.Context, leadID int64, limit int, actor authz.Actor) ([]models.Activity, error) {
	if _, err := s.loadLead(ctx, leadID, actor, false); err != nil {
		return nil, err
	}
	return s.activity.List(ctx, leadID, limit)
}

// loadLead fetches the lead and checks the actor may read it, or change it
// when manage is set.
func (s *LeadService) loadLead(ctx context.Context, id int64, actor authz.Actor, manage bool) (*models.Lead, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	if !actor.CanSeeProject(lead.ProjectID) {
		return nil, ErrForbidden
	}
	if manage && !actor.CanManageLeads() || !manage && !actor.CanViewLeads() {
		return nil, ErrForbidden
	}
	return lead, nil
}

func (s *LeadService) scoreFacts(ctx context.Context, leadID int64) (ScoreFacts, error) {
	var f ScoreFacts
	var err error
	if f.Comments, err = s.comments.CountByLead(ctx, leadID); err != nil {
		return f, err
	}
	if f.Tasks, err = s.tasks.CountByLead(ctx, leadID); err != nil {
		return f, err
	}
	if f.Meetings, err = s.meetings.CountByLead(ctx, leadID); err != nil {
		return f, err
	}
	return f, nil
}

// rescore recomputes and stores the score. Failures are logged only; the
// score can always be derived again.
func (s *LeadService) rescore(ctx context.Context, lead *models.Lead) {
	facts, err := s.scoreFacts(ctx, lead.ID)
	if err != nil {
		logrus.WithField("lead_id", lead.ID).WithError(err).Warn("[lead][score] load facts failed")
		return
	}
	score := ComputeScore(lead, facts)
	if score == lead.Score {
		return
	}
	if err := s.leads.UpdateScore(ctx, lead.ID, score); err != nil {
		logrus.WithField("lead_id", lead.ID).WithError(err).Warn("[lead][score] save failed")
		return
	}
	lead.Score = score
}

func (s *LeadService) generateTasks(ctx context.Context, lead *models.Lead) []models.LeadTask {
	tasks, err := s.templates.GenerateTasksForLead(ctx, lead, lead.AssignedAdminID)
	if err != nil {
		logrus.WithField("lead_id", lead.ID).WithError(err).Warn("[lead][tasks] generation failed")
	}
	return tasks
}

func (s *LeadService) notifyAssignee(ctx context.Context, lead *models.Lead, assigned bool, tasks []models.LeadTask) {
	if lead.AssignedAdminID == nil || (!assigned && len(tasks) == 0) {
		return
	}
	admin, err := s.admins.GetByID(ctx, *lead.AssignedAdminID)
	if err != nil {
		logrus.WithField("lead_id", lead.ID).WithError(err).Warn("[notify] load assignee failed")
		return
	}
	if assigned {
		if err := s.notifier.LeadAssigned(ctx, admin, lead); err != nil {
			logrus.WithField("lead_id", lead.ID).WithError(err).Warn("[notify][assigned] failed")
		}
	}
	if len(tasks) > 0 {
		if err := s.notifier.TasksCreated(ctx, admin, lead, tasks); err != nil {
			logrus.WithField("lead_id", lead.ID).WithError(err).Warn("[notify][tasks] failed")
		}
	}
}

func sameAdmin(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func formatAdminRef(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
