package repositories

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"autodealer/internal/models"
)

type MeetingRepository interface {
	Create(ctx context.Context, m *models.LeadMeeting) error
	GetByID(ctx context.Context, id int64) (*models.LeadMeeting, error)
	ListByLead(ctx context.Context, leadID int64) ([]models.LeadMeeting, error)
	CountByLead(ctx context.Context, leadID int64) (int, error)
	Update(ctx context.Context, m *models.LeadMeeting) error
	Delete(ctx context.Context, id int64) error
}

type meetingRepository struct {
	db *sql.DB
}

func NewMeetingRepository(db *sql.DB) MeetingRepository {
	return &meetingRepository{db: db}
}

const meetingColumns = `id, lead_id, admin_id, title, description, meeting_date, location,
	meeting_type, completed, created_at, updated_at`

func scanMeeting(row scanner) (*models.LeadMeeting, error) {
	m := &models.LeadMeeting{}
	err := row.Scan(&m.ID, &m.LeadID, &m.AdminID, &m.Title, &m.Description, &m.MeetingDate,
		&m.Location, &m.MeetingType, &m.Completed, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *meetingRepository) Create(ctx context.Context, m *models.LeadMeeting) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO lead_meetings (lead_id, admin_id, title, description, meeting_date, location, meeting_type, completed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at`,
		m.LeadID, m.AdminID, m.Title, m.Description, m.MeetingDate, m.Location, m.MeetingType, m.Completed,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return errors.Wrap(err, "insert meeting")
}

func (r *meetingRepository) GetByID(ctx context.Context, id int64) (*models.LeadMeeting, error) {
	m, err := scanMeeting(r.db.QueryRowContext(ctx,
		`SELECT `+meetingColumns+` FROM lead_meetings WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get meeting")
	}
	return m, nil
}

func (r *meetingRepository) ListByLead(ctx context.Context, leadID int64) ([]models.LeadMeeting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+meetingColumns+` FROM lead_meetings WHERE lead_id = $1 ORDER BY meeting_date ASC`, leadID)
	if err != nil {
		return nil, errors.Wrap(err, "list meetings")
	}
	defer rows.Close()

	var out []models.LeadMeeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan meeting")
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *meetingRepository) CountByLead(ctx context.Context, leadID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead_meetings WHERE lead_id = $1`, leadID).Scan(&n)
	return n, errors.Wrap(err, "count meetings")
}

func (r *meetingRepository) Update(ctx context.Context, m *models.LeadMeeting) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE lead_meetings SET
			title=$1, description=$2, meeting_date=$3, location=$4, meeting_type=$5,
			completed=$6, updated_at=NOW()
		WHERE id=$7
		RETURNING updated_at`,
		m.Title, m.Description, m.MeetingDate, m.Location, m.MeetingType, m.Completed, m.ID,
	).Scan(&m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, "update meeting")
}

func (r *meetingRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "lead_meetings", id)
}
