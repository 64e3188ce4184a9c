// Package answer implements answer submission: a mentor's answer is
// checked, the student's stored contact is re-validated, the question is
// persisted as Resolved, and the student is notified in the background.
//
// Only the two storage calls (load, then save) sit on the caller's path.
// The notification send and the write that records its outcome happen
// later, on the notify.Dispatcher, and can never fail a submission.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aanand-mishra/mentorqa-api/internal/contact"
	"github.com/aanand-mishra/mentorqa-api/internal/notify"
	"github.com/aanand-mishra/mentorqa-api/internal/storage"
	"github.com/aanand-mishra/mentorqa-api/internal/types"
)

// Names used in the email when the answering mentor cannot be found.
const (
	DefaultMentorName    = "A Mentor"
	DefaultMentorSubject = "General"
)

// Enqueuer accepts background notification jobs. *notify.Dispatcher
// satisfies it.
type Enqueuer interface {
	Enqueue(job notify.Job) error
}

// Options configures a Service.
type Options struct {
	// MinLength is the minimum trimmed answer length in characters.
	MinLength int
	// LockResolved rejects submissions for questions already Resolved.
	LockResolved bool
}

// Service runs the answer submission workflow.
type Service struct {
	store    storage.Storage
	notifier Enqueuer
	opts     Options
	log      *slog.Logger
	now      func() time.Time
}

// NewService wires a Service. notifier may be nil, in which case no email
// is ever sent.
func NewService(store storage.Storage, notifier Enqueuer, opts Options) *Service {
	if opts.MinLength <= 0 {
		opts.MinLength = 10
	}
	return &Service{
		store:    store,
		notifier: notifier,
		opts:     opts,
		log:      slog.Default().With(slog.String("component", "answer")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit accepts answerText for the question questionID on behalf of
// mentorID. An empty mentorID falls back to the question's assigned mentor.
//
// The returned view is the persisted, Resolved question without contact
// fields. Errors are *ValidationError, ErrNotFound, ErrAlreadyResolved or
// *PersistenceError.
func (s *Service) Submit(ctx context.Context, questionID, answerText, mentorID string) (types.PublicQuestion, error) {
	if _, err := uuid.Parse(questionID); err != nil {
		return types.PublicQuestion{}, invalid("Invalid question ID")
	}

	answer := strings.TrimSpace(answerText)
	if answer == "" {
		return types.PublicQuestion{}, invalid("Answer text is required.")
	}
	if utf8.RuneCountInString(answer) < s.opts.MinLength {
		return types.PublicQuestion{}, invalid("Answer must be at least %d characters long.", s.opts.MinLength)
	}

	q, err := s.store.GetQuestionByID(ctx, questionID)
	if errors.Is(err, storage.ErrNotFound) {
		return types.PublicQuestion{}, ErrNotFound
	}
	if err != nil {
		return types.PublicQuestion{}, &PersistenceError{Op: "load question", Err: err}
	}

	if s.opts.LockResolved && q.Status == types.StatusResolved {
		return types.PublicQuestion{}, ErrAlreadyResolved
	}

	sc := contact.ValidateStudentContact(q.StudentEmail, q.StudentPhone)
	if !sc.HasValidContact {
		if sc.Field == "" {
			return types.PublicQuestion{}, invalid("%s", sc.Reason)
		}
		return types.PublicQuestion{}, invalid("Cannot submit answer: %s", sc.Reason)
	}

	if mentorID == "" {
		mentorID = q.AssignedMentorID
	}

	now := s.now()
	resolved := types.StatusResolved
	update := storage.QuestionUpdate{
		Status:             &resolved,
		AnswerText:         &answer,
		AnsweredByMentorID: &mentorID,
		AnsweredAt:         &now,
		Notification:       &types.Notification{},
	}

	saved, err := s.store.UpdateQuestionByID(ctx, questionID, update)
	if errors.Is(err, storage.ErrNotFound) {
		return types.PublicQuestion{}, ErrNotFound
	}
	if err != nil {
		return types.PublicQuestion{}, &PersistenceError{Op: "save answer", Err: err}
	}

	s.log.Info("answer saved",
		slog.String("question_id", questionID),
		slog.String("mentor_id", mentorID))

	if sc.Email != "" {
		s.notify(saved, sc.Email, mentorID)
	}

	return saved.Public(), nil
}

// notify queues the answer email. A queue that refuses the job is recorded
// as a failed notification straight away.
func (s *Service) notify(q types.Question, email, mentorID string) {
	if s.notifier == nil {
		return
	}

	job := notify.Job{
		QuestionID: q.ID,
		Message: notify.Message{
			ToEmail:       email,
			StudentName:   q.StudentName,
			MentorName:    DefaultMentorName,
			MentorSubject: DefaultMentorSubject,
			Subject:       q.Subject,
			Question:      q.Question,
			Answer:        q.AnswerText,
		},
		Prepare: s.mentorDetails(mentorID),
	}

	if err := s.notifier.Enqueue(job); err != nil {
		s.log.Warn("answer email not queued",
			slog.String("question_id", q.ID),
			slog.String("error", err.Error()))
		go s.recordFailure(q.ID, fmt.Sprintf("Email not queued: %v", err))
	}
}

// mentorDetails fills in the mentor's name and subject on the worker, so the
// lookup stays off the request path. A missing mentor keeps the defaults.
func (s *Service) mentorDetails(mentorID string) func(context.Context, *notify.Message) {
	if mentorID == "" {
		return nil
	}
	return func(ctx context.Context, msg *notify.Message) {
		m, err := s.store.GetMentorByID(ctx, mentorID)
		switch {
		case err == nil:
			msg.MentorName, msg.MentorSubject = m.Name, m.Subject
		case !errors.Is(err, storage.ErrNotFound):
			s.log.Warn("could not load mentor for answer email",
				slog.String("mentor_id", mentorID),
				slog.String("error", err.Error()))
		}
	}
}

func (s *Service) recordFailure(questionID, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := (Recorder{Store: s.store}).RecordNotification(ctx, questionID, types.Notification{Error: reason}); err != nil {
		s.log.Error("failed to update notification status",
			slog.String("question_id", questionID),
			slog.String("error", err.Error()))
	}
}

// Recorder writes notification outcomes onto questions, leaving the
// answer fields as they are. It satisfies notify.Recorder.
type Recorder struct {
	Store storage.Storage
}

func (r Recorder) RecordNotification(ctx context.Context, questionID string, n types.Notification) error {
	if _, err := r.Store.UpdateQuestionByID(ctx, questionID, storage.QuestionUpdate{Notification: &n}); err != nil {
		return fmt.Errorf("record notification for %s: %w", questionID, err)
	}
	return nil
}
