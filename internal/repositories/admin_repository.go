package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"autodealer/internal/models"
)

type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id int64) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	// ListByProject returns live (not soft-deleted) admins of a project
	// ordered by id.
	ListByProject(ctx context.Context, projectID string) ([]models.Admin, error)

	GetByChatID(ctx context.Context, chatID int64) (*models.Admin, error)
	UpdateTelegramLink(ctx context.Context, adminID, chatID int64, enable bool) error
	GetTelegramSettings(ctx context.Context, adminID int64) (chatID int64, notify bool, err error)
}

type adminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) AdminRepository {
	return &adminRepository{db: db}
}

const adminColumns = `id, email, password_hash, is_super, project_id, permissions,
	COALESCE(telegram_chat_id, 0), notify_telegram, created_at, deleted_at`

func scanAdmin(row scanner) (*models.Admin, error) {
	a := &models.Admin{}
	var perms []byte
	if err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.IsSuper, &a.ProjectID, &perms,
		&a.TelegramChatID, &a.NotifyTelegram, &a.CreatedAt, &a.DeletedAt,
	); err != nil {
		return nil, err
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &a.Permissions); err != nil {
			return nil, errors.Wrap(err, "decode admin permissions")
		}
	}
	return a, nil
}

func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) error {
	perms, err := json.Marshal(admin.Permissions)
	if err != nil {
		return errors.Wrap(err, "encode admin permissions")
	}
	const query = `
		INSERT INTO admins (email, password_hash, is_super, project_id, permissions, notify_telegram)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query,
		admin.Email, admin.PasswordHash, admin.IsSuper, admin.ProjectID, perms, admin.NotifyTelegram,
	).Scan(&admin.ID, &admin.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "insert admin")
}

func (r *adminRepository) GetByID(ctx context.Context, id int64) (*models.Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = $1 AND deleted_at IS NULL`, id)
	a, err := scanAdmin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get admin")
	}
	return a, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`, email)
	a, err := scanAdmin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get admin by email")
	}
	return a, nil
}

func (r *adminRepository) ListByProject(ctx context.Context, projectID string) ([]models.Admin, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+adminColumns+` FROM admins
		WHERE project_id = $1 AND deleted_at IS NULL
		ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "list admins")
	}
	defer rows.Close()

	var out []models.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan admin")
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *adminRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE telegram_chat_id = $1 AND deleted_at IS NULL`, chatID)
	a, err := scanAdmin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get admin by chat")
	}
	return a, nil
}

func (r *adminRepository) UpdateTelegramLink(ctx context.Context, adminID, chatID int64, enable bool) error {
	var chat interface{}
	if chatID != 0 {
		chat = chatID
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE admins SET telegram_chat_id = $1, notify_telegram = $2 WHERE id = $3 AND deleted_at IS NULL`,
		chat, enable, adminID)
	if err != nil {
		return errors.Wrap(err, "update telegram link")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepository) GetTelegramSettings(ctx context.Context, adminID int64) (int64, bool, error) {
	var chatID int64
	var notify bool
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(telegram_chat_id, 0), notify_telegram FROM admins WHERE id = $1`, adminID,
	).Scan(&chatID, &notify)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "get telegram settings")
	}
	return chatID, notify, nil
}
