package repositories

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"autodealer/internal/models"
)

type TagRepository interface {
	Create(ctx context.Context, tag *models.LeadTag) error
	GetByID(ctx context.Context, id int64) (*models.LeadTag, error)
	List(ctx context.Context) ([]models.LeadTag, error)
	Delete(ctx context.Context, id int64) error

	// Attach is a no-op when the tag is already on the lead.
	Attach(ctx context.Context, leadID, tagID int64) error
	Detach(ctx context.Context, leadID, tagID int64) error
	ListByLead(ctx context.Context, leadID int64) ([]models.LeadTag, error)
}

type tagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *models.LeadTag) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO lead_tags (name, color) VALUES ($1,$2)
		RETURNING id, created_at`, tag.Name, tag.Color,
	).Scan(&tag.ID, &tag.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "insert tag")
}

func (r *tagRepository) GetByID(ctx context.Context, id int64) (*models.LeadTag, error) {
	t := &models.LeadTag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, color, created_at FROM lead_tags WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get tag")
	}
	return t, nil
}

func (r *tagRepository) List(ctx context.Context) ([]models.LeadTag, error) {
	return r.query(ctx, `SELECT id, name, color, created_at FROM lead_tags ORDER BY name`)
}

func (r *tagRepository) ListByLead(ctx context.Context, leadID int64) ([]models.LeadTag, error) {
	return r.query(ctx, `
		SELECT t.id, t.name, t.color, t.created_at
		FROM lead_tags t
		JOIN lead_tag_relations rel ON rel.tag_id = t.id
		WHERE rel.lead_id = $1
		ORDER BY t.name`, leadID)
}

func (r *tagRepository) query(ctx context.Context, q string, args ...interface{}) ([]models.LeadTag, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list tags")
	}
	defer rows.Close()

	var out []models.LeadTag
	for rows.Next() {
		var t models.LeadTag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan tag")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tagRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "lead_tags", id)
}

func (r *tagRepository) Attach(ctx context.Context, leadID, tagID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lead_tag_relations (lead_id, tag_id) VALUES ($1,$2)
		ON CONFLICT (lead_id, tag_id) DO NOTHING`, leadID, tagID)
	return errors.Wrap(err, "attach tag")
}

func (r *tagRepository) Detach(ctx context.Context, leadID, tagID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM lead_tag_relations WHERE lead_id = $1 AND tag_id = $2`, leadID, tagID)
	if err != nil {
		return errors.Wrap(err, "detach tag")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
