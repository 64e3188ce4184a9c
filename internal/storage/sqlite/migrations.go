package sqlite

import "fmt"

type migration struct {
	version int
	sql     string
}

// migrations are applied in order; each one records its own version.
var migrations = []migration{
	{
		version: 1,
		sql: `
		CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS mentors (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			subject       TEXT NOT NULL,
			initials      TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL DEFAULT 'Available',
			university    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS questions (
			id                    TEXT PRIMARY KEY,
			student_name          TEXT NOT NULL,
			student_email         TEXT NOT NULL DEFAULT '',
			student_phone         TEXT NOT NULL DEFAULT '',
			subject               TEXT NOT NULL,
			question              TEXT NOT NULL,
			status                TEXT NOT NULL DEFAULT 'New',
			assigned_mentor_id    TEXT NOT NULL DEFAULT '',
			answer_text           TEXT NOT NULL DEFAULT '',
			answered_by_mentor_id TEXT NOT NULL DEFAULT '',
			answered_at           DATETIME,
			notification_sent     BOOLEAN NOT NULL DEFAULT 0,
			notification_sent_at  DATETIME,
			notification_error    TEXT NOT NULL DEFAULT '',
			created_at            DATETIME NOT NULL,
			updated_at            DATETIME NOT NULL
		);

		INSERT INTO schema_version (version) VALUES (1);`,
	},
	{
		version: 2,
		sql: `
		CREATE INDEX IF NOT EXISTS idx_questions_status ON questions (status);
		CREATE INDEX IF NOT EXISTS idx_questions_assigned_mentor ON questions (assigned_mentor_id);
		CREATE INDEX IF NOT EXISTS idx_questions_answered_at ON questions (answered_at);

		INSERT INTO schema_version (version) VALUES (2);`,
	},
}

// migrate checks the current schema version and applies any outstanding
// migrations in order.
func (s *SQLite) migrate() error {
	current := 0

	var tables int
	err := s.Db.Get(&tables,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tables > 0 {
		if err := s.Db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.Db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}
