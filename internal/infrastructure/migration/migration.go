package migration

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Migration represents a database migration
type Migration struct {
	Name string
	SQL  string
}

// Migrations are idempotent and run in order on every start.
var Migrations = []Migration{
	{
		Name: "create_resume_templates",
		SQL: `CREATE TABLE IF NOT EXISTS resume_templates (
			owner_key  TEXT PRIMARY KEY,
			id         UUID NOT NULL,
			html       TEXT NOT NULL,
			css        TEXT NOT NULL DEFAULT '',
			variant    TEXT NOT NULL,
			degraded   BOOLEAN NOT NULL DEFAULT FALSE,
			source     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	},
	{
		Name: "create_resume_records",
		SQL: `CREATE TABLE IF NOT EXISTS resume_records (
			owner_key  TEXT PRIMARY KEY,
			record     JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	},
	{
		Name: "create_rendered_resumes",
		SQL: `CREATE TABLE IF NOT EXISTS rendered_resumes (
			id           UUID NOT NULL,
			owner_key    TEXT PRIMARY KEY,
			resume_id    TEXT NOT NULL UNIQUE,
			html_content TEXT NOT NULL,
			metadata     JSONB NOT NULL DEFAULT '{}'::jsonb,
			template_id  UUID,
			degraded     BOOLEAN NOT NULL DEFAULT FALSE,
			view_count   BIGINT NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	},
	{
		Name: "add_rendered_resumes_template_index",
		SQL:  `CREATE INDEX IF NOT EXISTS rendered_resumes_template_id_idx ON rendered_resumes (template_id);`,
	},
}

// RunMigrations executes all necessary database migrations on startup
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("Starting database migrations", "count", len(Migrations))

	for _, m := range Migrations {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			slog.Error("Migration failed", "name", m.Name, "error", err)
			return err
		}
		slog.Info("Migration completed", "name", m.Name)
	}

	slog.Info("All migrations completed successfully")
	return nil
}
