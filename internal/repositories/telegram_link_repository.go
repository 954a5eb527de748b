package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// TelegramLink is a one-time code an admin sends to the bot to bind a chat.
type TelegramLink struct {
	ID        int64
	AdminID   int64
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

type TelegramLinkRepository interface {
	Create(ctx context.Context, adminID int64, code string, ttl time.Duration) (*TelegramLink, error)
	// UseByCode consumes a live code. Unknown, used and expired codes give
	// ErrNotFound.
	UseByCode(ctx context.Context, code string) (*TelegramLink, error)
}

type telegramLinkRepository struct{ db *sql.DB }

func NewTelegramLinkRepository(db *sql.DB) TelegramLinkRepository {
	return &telegramLinkRepository{db: db}
}

func (r *telegramLinkRepository) Create(ctx context.Context, adminID int64, code string, ttl time.Duration) (*TelegramLink, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO telegram_links (admin_id, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, admin_id, code, expires_at, used, created_at`,
		adminID, code, time.Now().Add(ttl))

	var l TelegramLink
	if err := row.Scan(&l.ID, &l.AdminID, &l.Code, &l.ExpiresAt, &l.Used, &l.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "insert telegram link")
	}
	return &l, nil
}

func (r *telegramLinkRepository) UseByCode(ctx context.Context, code string) (*TelegramLink, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	var l TelegramLink
	err = tx.QueryRowContext(ctx, `
		SELECT id, admin_id, code, expires_at, used, created_at
		FROM telegram_links
		WHERE code = $1
		FOR UPDATE`, code,
	).Scan(&l.ID, &l.AdminID, &l.Code, &l.ExpiresAt, &l.Used, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select telegram link")
	}
	if l.Used || time.Now().After(l.ExpiresAt) {
		return nil, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `UPDATE telegram_links SET used = TRUE WHERE id = $1`, l.ID); err != nil {
		return nil, errors.Wrap(err, "mark telegram link used")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	l.Used = true
	return &l, nil
}
