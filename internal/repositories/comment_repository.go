package repositories

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"autodealer/internal/models"
)

type CommentRepository interface {
	Create(ctx context.Context, c *models.LeadComment) error
	GetByID(ctx context.Context, id int64) (*models.LeadComment, error)
	ListByLead(ctx context.Context, leadID int64) ([]models.LeadComment, error)
	CountByLead(ctx context.Context, leadID int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

type commentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, c *models.LeadComment) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO lead_comments (lead_id, admin_id, comment)
		VALUES ($1,$2,$3)
		RETURNING id, created_at, updated_at`,
		c.LeadID, c.AdminID, c.Comment,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return errors.Wrap(err, "insert comment")
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*models.LeadComment, error) {
	c := &models.LeadComment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, lead_id, admin_id, comment, created_at, updated_at
		FROM lead_comments WHERE id = $1`, id,
	).Scan(&c.ID, &c.LeadID, &c.AdminID, &c.Comment, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get comment")
	}
	return c, nil
}

func (r *commentRepository) ListByLead(ctx context.Context, leadID int64) ([]models.LeadComment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, admin_id, comment, created_at, updated_at
		FROM lead_comments WHERE lead_id = $1
		ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, errors.Wrap(err, "list comments")
	}
	defer rows.Close()

	var out []models.LeadComment
	for rows.Next() {
		var c models.LeadComment
		if err := rows.Scan(&c.ID, &c.LeadID, &c.AdminID, &c.Comment, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan comment")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *commentRepository) CountByLead(ctx context.Context, leadID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead_comments WHERE lead_id = $1`, leadID).Scan(&n)
	return n, errors.Wrap(err, "count comments")
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "lead_comments", id)
}
