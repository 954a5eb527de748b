package repositories

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"autodealer/internal/models"
)

type AttachmentRepository interface {
	Create(ctx context.Context, a *models.LeadAttachment) error
	GetByID(ctx context.Context, id int64) (*models.LeadAttachment, error)
	ListByLead(ctx context.Context, leadID int64) ([]models.LeadAttachment, error)
	Delete(ctx context.Context, id int64) error
}

type attachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, a *models.LeadAttachment) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO lead_attachments (lead_id, admin_id, file_name, file_path, file_size, mime_type, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		a.LeadID, a.AdminID, a.FileName, a.FilePath, a.FileSize, a.MimeType, a.Description,
	).Scan(&a.ID, &a.CreatedAt)
	return errors.Wrap(err, "insert attachment")
}

func (r *attachmentRepository) GetByID(ctx context.Context, id int64) (*models.LeadAttachment, error) {
	a := &models.LeadAttachment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, lead_id, admin_id, file_name, file_path, file_size, mime_type, description, created_at
		FROM lead_attachments WHERE id = $1`, id,
	).Scan(&a.ID, &a.LeadID, &a.AdminID, &a.FileName, &a.FilePath, &a.FileSize, &a.MimeType, &a.Description, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get attachment")
	}
	return a, nil
}

func (r *attachmentRepository) ListByLead(ctx context.Context, leadID int64) ([]models.LeadAttachment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, admin_id, file_name, file_path, file_size, mime_type, description, created_at
		FROM lead_attachments WHERE lead_id = $1
		ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, errors.Wrap(err, "list attachments")
	}
	defer rows.Close()

	var out []models.LeadAttachment
	for rows.Next() {
		var a models.LeadAttachment
		if err := rows.Scan(&a.ID, &a.LeadID, &a.AdminID, &a.FileName, &a.FilePath,
			&a.FileSize, &a.MimeType, &a.Description, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan attachment")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *attachmentRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "lead_attachments", id)
}
