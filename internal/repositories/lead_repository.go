package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"autodealer/internal/models"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
	UpdateScore(ctx context.Context, id int64, score int) error
	GetByID(ctx context.Context, id int64) (*models.Lead, error)
	// FindByChatSession returns the oldest lead opened from the chat
	// session, or ErrNotFound.
	FindByChatSession(ctx context.Context, chatSessionID string) (*models.Lead, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, error)

	// CountActiveByAdmin counts leads assigned to the admin that are not
	// closed or lost.
	CountActiveByAdmin(ctx context.Context, adminID int64) (int, error)
	// CountUnprocessed counts new/in_progress leads that are either hot
	// (score >= 50) or unassigned. Empty projectID means all projects.
	CountUnprocessed(ctx context.Context, projectID string) (int, error)
	Stats(ctx context.Context, projectID string) (*models.LeadStats, error)
}

type leadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) LeadRepository {
	return &leadRepository{db: db}
}

const leadColumns = `id, name, email, phone, source, status, priority, pipeline_stage,
	has_telegram_contact, telegram_username, chat_session_id, assigned_admin_id,
	description, score, project_id, converted_to_client, converted_at,
	next_follow_up_date, created_at, updated_at`

func scanLead(row scanner) (*models.Lead, error) {
	l := &models.Lead{}
	err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Source, &l.Status, &l.Priority, &l.PipelineStage,
		&l.HasTelegramContact, &l.TelegramUsername, &l.ChatSessionID, &l.AssignedAdminID,
		&l.Description, &l.Score, &l.ProjectID, &l.ConvertedToClient, &l.ConvertedAt,
		&l.NextFollowUpDate, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	const query = `
		INSERT INTO leads (
			name, email, phone, source, status, priority, pipeline_stage,
			has_telegram_contact, telegram_username, chat_session_id, assigned_admin_id,
			description, score, project_id, next_follow_up_date
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		lead.Name, lead.Email, lead.Phone, lead.Source, lead.Status, lead.Priority, lead.PipelineStage,
		lead.HasTelegramContact, lead.TelegramUsername, lead.ChatSessionID, lead.AssignedAdminID,
		lead.Description, lead.Score, lead.ProjectID, lead.NextFollowUpDate,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	return errors.Wrap(err, "insert lead")
}

func (r *leadRepository) Update(ctx context.Context, lead *models.Lead) error {
	const query = `
		UPDATE leads SET
			name=$1, email=$2, phone=$3, source=$4, status=$5, priority=$6, pipeline_stage=$7,
			has_telegram_contact=$8, telegram_username=$9, assigned_admin_id=$10, description=$11,
			score=$12, project_id=$13, converted_to_client=$14, converted_at=$15,
			next_follow_up_date=$16, updated_at=NOW()
		WHERE id=$17
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		lead.Name, lead.Email, lead.Phone, lead.Source, lead.Status, lead.Priority, lead.PipelineStage,
		lead.HasTelegramContact, lead.TelegramUsername, lead.AssignedAdminID, lead.Description,
		lead.Score, lead.ProjectID, lead.ConvertedToClient, lead.ConvertedAt,
		lead.NextFollowUpDate, lead.ID,
	).Scan(&lead.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, "update lead")
}

func (r *leadRepository) UpdateScore(ctx context.Context, id int64, score int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE leads SET score=$1 WHERE id=$2`, score, id)
	return errors.Wrap(err, "update lead score")
}

func (r *leadRepository) GetByID(ctx context.Context, id int64) (*models.Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=$1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get lead")
	}
	return lead, nil
}

func (r *leadRepository) FindByChatSession(ctx context.Context, chatSessionID string) (*models.Lead, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE chat_session_id=$1 ORDER BY id LIMIT 1`, chatSessionID)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find lead by chat session")
	}
	return lead, nil
}

func (r *leadRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "leads", id)
}

func (r *leadRepository) List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.ProjectID != "" {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argID))
		args = append(args, filter.ProjectID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Source != nil {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argID))
		args = append(args, *filter.Source)
		argID++
	}
	if filter.AssignedAdminID != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_admin_id = $%d", argID))
		args = append(args, *filter.AssignedAdminID)
		argID++
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", argID, argID, argID))
		args = append(args, "%"+s+"%")
		argID++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list leads")
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan lead")
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *leadRepository) CountActiveByAdmin(ctx context.Context, adminID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM leads
		WHERE assigned_admin_id = $1
		  AND status IN ('new', 'in_progress', 'contacted')`, adminID,
	).Scan(&count)
	return count, errors.Wrap(err, "count active leads")
}

func (r *leadRepository) CountUnprocessed(ctx context.Context, projectID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM leads
		WHERE status IN ('new', 'in_progress')
		  AND (score >= 50 OR assigned_admin_id IS NULL)`
	args := []interface{}{}
	if projectID != "" {
		query += ` AND project_id = $1`
		args = append(args, projectID)
	}
	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, errors.Wrap(err, "count unprocessed leads")
}

func (r *leadRepository) Stats(ctx context.Context, projectID string) (*models.LeadStats, error) {
	stats := &models.LeadStats{
		ByStatus: map[models.LeadStatus]int{},
		BySource: map[models.LeadSource]int{},
	}
	where, args := "", []interface{}{}
	if projectID != "" {
		where, args = " WHERE project_id = $1", append(args, projectID)
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&stats.Total); err != nil {
		return nil, errors.Wrap(err, "count leads")
	}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "leads by status")
	}
	for rows.Next() {
		var status models.LeadStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan status count")
		}
		stats.ByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errors.Wrap(err, "leads by status")
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM leads`+where+` GROUP BY source`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "leads by source")
	}
	defer rows.Close()
	for rows.Next() {
		var source models.LeadSource
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, errors.Wrap(err, "scan source count")
		}
		stats.BySource[source] = n
	}
	return stats, rows.Err()
}
