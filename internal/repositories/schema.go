package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by lookups and deletes that match no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint rejects an insert.
var ErrDuplicate = errors.New("record already exists")

type scanner interface {
	Scan(dest ...any) error
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id               BIGSERIAL PRIMARY KEY,
		email            VARCHAR(255) NOT NULL UNIQUE,
		password_hash    TEXT NOT NULL,
		is_super         BOOLEAN NOT NULL DEFAULT FALSE,
		project_id       VARCHAR(50) NOT NULL DEFAULT 'office_1',
		permissions      JSONB NOT NULL DEFAULT '{}'::jsonb,
		telegram_chat_id BIGINT,
		notify_telegram  BOOLEAN NOT NULL DEFAULT TRUE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at       TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id                   BIGSERIAL PRIMARY KEY,
		name                 VARCHAR(255) NOT NULL,
		email                VARCHAR(255) NOT NULL DEFAULT '',
		phone                VARCHAR(20) NOT NULL DEFAULT '',
		source               VARCHAR(50) NOT NULL DEFAULT 'chat',
		status               VARCHAR(50) NOT NULL DEFAULT 'new',
		priority             VARCHAR(20) NOT NULL DEFAULT 'normal',
		pipeline_stage       VARCHAR(50) NOT NULL DEFAULT 'new_lead',
		has_telegram_contact BOOLEAN NOT NULL DEFAULT FALSE,
		telegram_username    VARCHAR(255) NOT NULL DEFAULT '',
		chat_session_id      VARCHAR(255) NOT NULL DEFAULT '',
		assigned_admin_id    BIGINT REFERENCES admins(id) ON DELETE SET NULL,
		description          TEXT NOT NULL DEFAULT '',
		score                INT NOT NULL DEFAULT 0,
		project_id           VARCHAR(50) NOT NULL DEFAULT 'office_1',
		converted_to_client  BOOLEAN NOT NULL DEFAULT FALSE,
		converted_at         TIMESTAMPTZ,
		next_follow_up_date  TIMESTAMPTZ,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_assigned_status ON leads (assigned_admin_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_project ON leads (project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_chat_session ON leads (chat_session_id) WHERE chat_session_id <> ''`,
	`CREATE TABLE IF NOT EXISTS lead_tasks (
		id           BIGSERIAL PRIMARY KEY,
		lead_id      BIGINT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
		admin_id     BIGINT NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
		task_type    VARCHAR(50) NOT NULL DEFAULT 'custom',
		title        VARCHAR(255) NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		status       VARCHAR(20) NOT NULL DEFAULT 'pending',
		completed    BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ,
		due_date     TIMESTAMPTZ,
		task_data    JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lead_tasks_lead ON lead_tasks (lead_id)`,
	`CREATE TABLE IF NOT EXISTS lead_activities (
		id            BIGSERIAL PRIMARY KEY,
		lead_id       BIGINT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
		admin_id      BIGINT REFERENCES admins(id) ON DELETE SET NULL,
		activity_type VARCHAR(50) NOT NULL,
		field         VARCHAR(100) NOT NULL DEFAULT '',
		old_value     TEXT NOT NULL DEFAULT '',
		new_value     TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS lead_comments (
		id         BIGSERIAL PRIMARY KEY,
		lead_id    BIGINT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
		admin_id   BIGINT NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
		comment    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS lead_tags (
		id         BIGSERIAL PRIMARY KEY,
		name       VARCHAR(100) NOT NULL UNIQUE,
		color      VARCHAR(7) NOT NULL DEFAULT '#4f8cff',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS lead_tag_relations (
		lead_id BIGINT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
		tag_id  BIGINT NOT NULL REFERENCES lead_tags(id) ON DELETE CASCADE,
		PRIMARY KEY (lead_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS lead_meetings (
		id           BIGSERIAL PRIMARY KEY,
		lead_id      BIGINT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
		admin_id     BIGINT NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
		title        VARCHAR(255) NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		meeting_date TIMESTAMPTZ NOT NULL,
		location     VARCHAR(255) NOT NULL DEFAULT '',
		meeting_type VARCHAR(50) NOT NULL DEFAULT 'call',
		completed    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS lead_attachments (
		id          BIGSERIAL PRIMARY KEY,
		lead_id     BIGINT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
		admin_id    BIGINT REFERENCES admins(id) ON DELETE SET NULL,
		file_name   VARCHAR(255) NOT NULL,
		file_path   VARCHAR(500) NOT NULL,
		file_size   BIGINT NOT NULL DEFAULT 0,
		mime_type   VARCHAR(100) NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS telegram_links (
		id         BIGSERIAL PRIMARY KEY,
		admin_id   BIGINT NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
		code       VARCHAR(64) NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		used       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the lead module tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "ensure schema")
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func deleteByID(ctx context.Context, db *sql.DB, table string, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return errors.Wrapf(err, "delete from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "delete from %s", table)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
