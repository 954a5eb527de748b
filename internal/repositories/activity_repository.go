package repositories

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"autodealer/internal/models"
)

// ActivityRepository is the append-only audit log of lead changes.
type ActivityRepository interface {
	Create(ctx context.Context, a *models.Activity) error
	ListByLead(ctx context.Context, leadID int64, limit int) ([]models.Activity, error)
}

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, a *models.Activity) error {
	const query = `
		INSERT INTO lead_activities (lead_id, admin_id, activity_type, field, old_value, new_value, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		a.LeadID, a.AdminID, a.ActivityType, a.Field, a.OldValue, a.NewValue, a.Description,
	).Scan(&a.ID, &a.CreatedAt)
	return errors.Wrap(err, "insert activity")
}

func (r *activityRepository) ListByLead(ctx context.Context, leadID int64, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, admin_id, activity_type, field, old_value, new_value, description, created_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, leadID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list activities")
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(
			&a.ID, &a.LeadID, &a.AdminID, &a.ActivityType, &a.Field,
			&a.OldValue, &a.NewValue, &a.Description, &a.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan activity")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
