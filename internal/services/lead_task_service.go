package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"autodealer/internal/authz"
	"autodealer/internal/models"
	"autodealer/internal/repositories"
)

type CreateTaskInput struct {
	TaskType    models.TaskType `json:"task_type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     *time.Time      `json:"due_date"`
	AdminID     *int64          `json:"admin_id"`
	Data        json.RawMessage `json:"task_data"`
}

// UpdateTaskInput changes a task in place. Data is merged over the stored
// payload. Setting Completed (or Status=completed) goes through the same
// path as LeadService.CompleteTask.
type UpdateTaskInput struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	DueDate     *time.Time         `json:"due_date"`
	Status      *models.TaskStatus `json:"status"`
	Completed   *bool              `json:"completed"`
	Data        json.RawMessage    `json:"task_data"`
}

// LeadTaskService is manual task management on top of the playbook.
type LeadTaskService interface {
	Create(ctx context.Context, leadID int64, in CreateTaskInput, actor authz.Actor) (*models.LeadTask, error)
	ListByLead(ctx context.Context, leadID int64, actor authz.Actor) ([]models.LeadTask, error)
	Update(ctx context.Context, taskID int64, in UpdateTaskInput, actor authz.Actor) (*models.LeadTask, error)
	Delete(ctx context.Context, taskID int64, actor authz.Actor) error
}

type leadTaskService struct {
	leads *LeadService
	repo  repositories.TaskRepository
}

func NewLeadTaskService(leads *LeadService) LeadTaskService {
	return &leadTaskService{leads: leads, repo: leads.tasks}
}

func (s *leadTaskService) Create(ctx context.Context, leadID int64, in CreateTaskInput, actor authz.Actor) (*models.LeadTask, error) {
	lead, err := s.leads.loadLead(ctx, leadID, actor, true)
	if err != nil {
		return nil, err
	}

	taskType := in.TaskType
	if taskType == "" {
		taskType = models.TaskTypeCustom
	}
	data, err := models.DecodeTaskData(taskType, in.Data)
	if err != nil {
		return nil, validationError("%v", err)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationError("title is required")
	}

	adminID := actor.AdminID
	switch {
	case in.AdminID != nil && *in.AdminID != 0:
		if _, err := s.leads.checkAssignee(ctx, *in.AdminID, lead.ProjectID); err != nil {
			return nil, err
		}
		adminID = *in.AdminID
	case lead.AssignedAdminID != nil:
		adminID = *lead.AssignedAdminID
	}
	if adminID == 0 {
		return nil, validationError("task needs a responsible admin")
	}

	if taskType != models.TaskTypeCustom {
		existing, err := s.repo.ExistingTypes(ctx, lead.ID)
		if err != nil {
			return nil, err
		}
		if existing[taskType] {
			return nil, fmt.Errorf("%w: lead %d already has a %s task", ErrConflict, lead.ID, taskType)
		}
	}

	task := &models.LeadTask{
		LeadID:      lead.ID,
		AdminID:     adminID,
		TaskType:    taskType,
		Title:       title,
		Description: in.Description,
		Status:      models.TaskStatusPending,
		DueDate:     in.DueDate,
		Data:        data,
	}
	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"task_id": task.ID, "lead_id": lead.ID}).Info("[task][create] created")

	s.leads.activity.Record(ctx, lead, models.Activity{
		AdminID:      actor.AdminRef(),
		ActivityType: models.ActivityTaskCreated,
		NewValue:     string(task.TaskType),
		Description:  fmt.Sprintf("Создана задача: %s", task.Title),
	})
	s.leads.rescore(ctx, lead)
	return task, nil
}

func (s *leadTaskService) ListByLead(ctx context.Context, leadID int64, actor authz.Actor) ([]models.LeadTask, error) {
	if _, err := s.leads.loadLead(ctx, leadID, actor, false); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx, models.TaskFilter{LeadID: &leadID})
}

func (s *leadTaskService) Update(ctx context.Context, taskID int64, in UpdateTaskInput, actor authz.Actor) (*models.LeadTask, error) {
	task, err := s.load(ctx, taskID, actor)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, validationError("title is required")
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.DueDate != nil {
		due := *in.DueDate
		task.DueDate = &due
	}
	if len(in.Data) > 0 {
		data, err := models.MergeTaskData(task.TaskType, task.Data, in.Data)
		if err != nil {
			return nil, validationError("%v", err)
		}
		task.Data = data
	}

	complete := in.Completed != nil && *in.Completed
	if in.Status != nil {
		switch *in.Status {
		case models.TaskStatusCompleted:
			complete = true
		case models.TaskStatusPending, models.TaskStatusInProgress:
			task.Status = *in.Status
			task.Completed = false
			task.CompletedAt = nil
		default:
			return nil, validationError("unknown task status %q", *in.Status)
		}
	} else if in.Completed != nil && !*in.Completed && task.Completed {
		task.Status = models.TaskStatusPending
		task.Completed = false
		task.CompletedAt = nil
	}

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if complete && !task.Completed {
		return s.leads.CompleteTask(ctx, task.ID, actor)
	}
	return task, nil
}

func (s *leadTaskService) Delete(ctx context.Context, taskID int64, actor authz.Actor) error {
	task, err := s.load(ctx, taskID, actor)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (s *leadTaskService) load(ctx context.Context, taskID int64, actor authz.Actor) (*models.LeadTask, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.leads.loadLead(ctx, task.LeadID, actor, true); err != nil {
		return nil, err
	}
	return task, nil
}
