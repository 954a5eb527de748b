package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"autodealer/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.LeadTask) error
	FindByID(ctx context.Context, id int64) (*models.LeadTask, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.LeadTask, error)
	Update(ctx context.Context, task *models.LeadTask) error
	Delete(ctx context.Context, id int64) error

	// ExistingTypes returns the set of task types already created for a lead,
	// completed or not.
	ExistingTypes(ctx context.Context, leadID int64) (map[models.TaskType]bool, error)
	CountByLead(ctx context.Context, leadID int64) (int, error)
	// ReassignOpen moves every not yet completed task of the lead to adminID
	// and returns the number of rows touched.
	ReassignOpen(ctx context.Context, leadID, adminID int64) (int64, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, lead_id, admin_id, task_type, title, description, status,
	completed, completed_at, due_date, task_data, created_at, updated_at`

func scanTask(row scanner) (*models.LeadTask, error) {
	t := &models.LeadTask{}
	var raw []byte
	if err := row.Scan(
		&t.ID, &t.LeadID, &t.AdminID, &t.TaskType, &t.Title, &t.Description, &t.Status,
		&t.Completed, &t.CompletedAt, &t.DueDate, &raw, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	data, err := models.DecodeTaskData(t.TaskType, raw)
	if err != nil {
		return nil, err
	}
	t.Data = data
	return t, nil
}

func (r *taskRepository) Store(ctx context.Context, task *models.LeadTask) error {
	raw, err := models.EncodeTaskData(task.Data)
	if err != nil {
		return errors.Wrap(err, "encode task data")
	}
	const query = `
		INSERT INTO lead_tasks (
			lead_id, admin_id, task_type, title, description, status,
			completed, completed_at, due_date, task_data
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		task.LeadID, task.AdminID, task.TaskType, task.Title, task.Description, task.Status,
		task.Completed, task.CompletedAt, task.DueDate, raw,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	return errors.Wrap(err, "insert lead task")
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.LeadTask, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM lead_tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get lead task")
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.LeadTask, error) {
	query := `SELECT ` + taskColumns + ` FROM lead_tasks`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.LeadID != nil {
		conditions = append(conditions, fmt.Sprintf("lead_id = $%d", argID))
		args = append(args, *filter.LeadID)
		argID++
	}
	if filter.AdminID != nil {
		conditions = append(conditions, fmt.Sprintf("admin_id = $%d", argID))
		args = append(args, *filter.AdminID)
		argID++
	}
	if filter.Completed != nil {
		conditions = append(conditions, fmt.Sprintf("completed = $%d", argID))
		args = append(args, *filter.Completed)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY due_date ASC NULLS LAST, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list lead tasks")
	}
	defer rows.Close()

	var tasks []models.LeadTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan lead task")
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.LeadTask) error {
	raw, err := models.EncodeTaskData(task.Data)
	if err != nil {
		return errors.Wrap(err, "encode task data")
	}
	const query = `
		UPDATE lead_tasks SET
			admin_id=$1, title=$2, description=$3, status=$4, completed=$5,
			completed_at=$6, due_date=$7, task_data=$8, updated_at=NOW()
		WHERE id=$9
		RETURNING updated_at`
	err = r.db.QueryRowContext(ctx, query,
		task.AdminID, task.Title, task.Description, task.Status, task.Completed,
		task.CompletedAt, task.DueDate, raw, task.ID,
	).Scan(&task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, "update lead task")
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "lead_tasks", id)
}

func (r *taskRepository) ExistingTypes(ctx context.Context, leadID int64) (map[models.TaskType]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT task_type FROM lead_tasks WHERE lead_id = $1`, leadID)
	if err != nil {
		return nil, errors.Wrap(err, "existing task types")
	}
	defer rows.Close()

	out := map[models.TaskType]bool{}
	for rows.Next() {
		var t models.TaskType
		if err := rows.Scan(&t); err != nil {
			return nil, errors.Wrap(err, "scan task type")
		}
		out[t] = true
	}
	return out, rows.Err()
}

func (r *taskRepository) CountByLead(ctx context.Context, leadID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead_tasks WHERE lead_id = $1`, leadID).Scan(&n)
	return n, errors.Wrap(err, "count lead tasks")
}

func (r *taskRepository) ReassignOpen(ctx context.Context, leadID, adminID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lead_tasks SET admin_id=$1, updated_at=NOW()
		WHERE lead_id=$2 AND completed = FALSE`, adminID, leadID)
	if err != nil {
		return 0, errors.Wrap(err, "reassign open tasks")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "reassign open tasks")
}
