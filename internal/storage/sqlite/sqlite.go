// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface.
//
// SQLite stores everything in a single file on disk: no network, no
// separate server process, and no installation beyond the driver. Queries
// go through sqlx so rows scan straight into the db:"..." tagged structs
// in package types.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/mentorqa-api/internal/config"
	"github.com/aanand-mishra/mentorqa-api/internal/storage"
	"github.com/aanand-mishra/mentorqa-api/internal/types"
)

// SQLite is the durable implementation of storage.Storage.
// A single *sqlx.DB is a connection pool and safe for concurrent use.
type SQLite struct {
	Db  *sqlx.DB
	now func() time.Time
}

// New opens the database at cfg.Storage.Path.
func New(cfg *config.Config) (*SQLite, error) {
	return Open(cfg.Storage.Path)
}

// Open opens (or creates) the SQLite file at path and applies any pending
// schema migrations.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, ":memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.Open: create dir: %w", err)
		}
	}

	// _busy_timeout lets the notification worker's write wait for an
	// in-flight request write instead of failing with SQLITE_BUSY.
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: open db: %w", err)
	}

	s := &SQLite{Db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.Open: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// Ping verifies a connection can be made.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

const questionColumns = `id, student_name, student_email, student_phone, subject, question,
	status, assigned_mentor_id, answer_text, answered_by_mentor_id, answered_at,
	notification_sent, notification_sent_at, notification_error, created_at, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// Questions
// ─────────────────────────────────────────────────────────────────────────────

func (s *SQLite) CreateQuestion(ctx context.Context, q types.Question) (types.Question, error) {
	now := s.now()
	q.ID = uuid.NewString()
	q.CreatedAt, q.UpdatedAt = now, now

	_, err := s.Db.NamedExecContext(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES (:id, :student_name, :student_email, :student_phone, :subject, :question,
			:status, :assigned_mentor_id, :answer_text, :answered_by_mentor_id, :answered_at,
			:notification_sent, :notification_sent_at, :notification_error, :created_at, :updated_at)`,
		q,
	)
	if err != nil {
		return types.Question{}, fmt.Errorf("CreateQuestion: exec: %w", err)
	}
	return q, nil
}

func (s *SQLite) GetQuestionByID(ctx context.Context, id string) (types.Question, error) {
	var q types.Question
	err := s.Db.GetContext(ctx, &q,
		"SELECT "+questionColumns+" FROM questions WHERE id = ? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Question{}, fmt.Errorf("no question found with id %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Question{}, fmt.Errorf("GetQuestionByID: scan: %w", err)
	}
	return q, nil
}

func (s *SQLite) ListQuestions(ctx context.Context, f storage.QuestionFilter) ([]types.Question, error) {
	var (
		conditions []string
		args       []any
	)
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.AssignedMentorID != "" {
		conditions = append(conditions, "assigned_mentor_id = ?")
		args = append(args, f.AssignedMentorID)
	}
	if f.Subject != "" {
		conditions = append(conditions, "instr(lower(subject), lower(?)) > 0")
		args = append(args, f.Subject)
	}

	query := "SELECT " + questionColumns + " FROM questions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if f.ByAnsweredAt {
		query += " ORDER BY answered_at IS NULL, answered_at DESC, rowid DESC"
	} else {
		query += " ORDER BY created_at DESC, rowid DESC"
	}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	questions := make([]types.Question, 0)
	if err := s.Db.SelectContext(ctx, &questions, query, args...); err != nil {
		return nil, fmt.Errorf("ListQuestions: query: %w", err)
	}
	return questions, nil
}

func (s *SQLite) UpdateQuestionByID(ctx context.Context, id string, u storage.QuestionUpdate) (types.Question, error) {
	sets := []string{"updated_at = ?"}
	args := []any{s.now()}

	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	if u.AssignedMentorID != nil {
		sets = append(sets, "assigned_mentor_id = ?")
		args = append(args, *u.AssignedMentorID)
	}
	if u.AnswerText != nil {
		sets = append(sets, "answer_text = ?")
		args = append(args, *u.AnswerText)
	}
	if u.AnsweredByMentorID != nil {
		sets = append(sets, "answered_by_mentor_id = ?")
		args = append(args, *u.AnsweredByMentorID)
	}
	if u.AnsweredAt != nil {
		sets = append(sets, "answered_at = ?")
		args = append(args, u.AnsweredAt.UTC())
	}
	if n := u.Notification; n != nil {
		sets = append(sets, "notification_sent = ?", "notification_sent_at = ?", "notification_error = ?")
		var sentAt any
		if n.SentAt != nil {
			sentAt = n.SentAt.UTC()
		}
		args = append(args, n.Sent, sentAt, n.Error)
	}
	args = append(args, id)

	res, err := s.Db.ExecContext(ctx,
		"UPDATE questions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return types.Question{}, fmt.Errorf("UpdateQuestionByID: exec: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.Question{}, fmt.Errorf("no question found with id %s: %w", id, storage.ErrNotFound)
	}

	// Re-fetch the record so we return exactly what is stored in the DB.
	return s.GetQuestionByID(ctx, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Mentors
// ─────────────────────────────────────────────────────────────────────────────

const mentorColumns = `id, name, email, password_hash, subject, initials, status, university, created_at, updated_at`

func (s *SQLite) CreateMentor(ctx context.Context, m types.Mentor) (types.Mentor, error) {
	now := s.now()
	m.ID = uuid.NewString()
	m.CreatedAt, m.UpdatedAt = now, now

	_, err := s.Db.NamedExecContext(ctx, `
		INSERT INTO mentors (`+mentorColumns+`)
		VALUES (:id, :name, :email, :password_hash, :subject, :initials, :status, :university, :created_at, :updated_at)`,
		m,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return types.Mentor{}, fmt.Errorf("mentor email %s: %w", m.Email, storage.ErrDuplicate)
		}
		return types.Mentor{}, fmt.Errorf("CreateMentor: exec: %w", err)
	}
	return m, nil
}

func (s *SQLite) GetMentorByID(ctx context.Context, id string) (types.Mentor, error) {
	return s.getMentor(ctx, "id = ?", id)
}

func (s *SQLite) GetMentorByEmail(ctx context.Context, email string) (types.Mentor, error) {
	return s.getMentor(ctx, "email = ? COLLATE NOCASE", email)
}

func (s *SQLite) getMentor(ctx context.Context, where string, arg string) (types.Mentor, error) {
	var m types.Mentor
	err := s.Db.GetContext(ctx, &m, "SELECT "+mentorColumns+" FROM mentors WHERE "+where+" LIMIT 1", arg)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Mentor{}, fmt.Errorf("no mentor found for %q: %w", arg, storage.ErrNotFound)
	}
	if err != nil {
		return types.Mentor{}, fmt.Errorf("getMentor: scan: %w", err)
	}
	return m, nil
}

func (s *SQLite) ListMentors(ctx context.Context) ([]types.Mentor, error) {
	mentors := make([]types.Mentor, 0)
	if err := s.Db.SelectContext(ctx, &mentors,
		"SELECT "+mentorColumns+" FROM mentors ORDER BY name"); err != nil {
		return nil, fmt.Errorf("ListMentors: query: %w", err)
	}
	return mentors, nil
}

func (s *SQLite) UpdateMentorByID(ctx context.Context, id string, u storage.MentorUpdate) (types.Mentor, error) {
	sets := []string{"updated_at = ?"}
	args := []any{s.now()}

	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Subject != nil {
		sets = append(sets, "subject = ?")
		args = append(args, *u.Subject)
	}
	if u.Initials != nil {
		sets = append(sets, "initials = ?")
		args = append(args, *u.Initials)
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	if u.University != nil {
		sets = append(sets, "university = ?")
		args = append(args, *u.University)
	}
	args = append(args, id)

	res, err := s.Db.ExecContext(ctx,
		"UPDATE mentors SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return types.Mentor{}, fmt.Errorf("UpdateMentorByID: exec: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.Mentor{}, fmt.Errorf("no mentor found with id %s: %w", id, storage.ErrNotFound)
	}
	return s.GetMentorByID(ctx, id)
}

func (s *SQLite) DeleteMentorByID(ctx context.Context, id string) error {
	res, err := s.Db.ExecContext(ctx, "DELETE FROM mentors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteMentorByID: exec: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no mentor found with id %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLite) CountMentors(ctx context.Context) (int, error) {
	var n int
	if err := s.Db.GetContext(ctx, &n, "SELECT COUNT(*) FROM mentors"); err != nil {
		return 0, fmt.Errorf("CountMentors: %w", err)
	}
	return n, nil
}
