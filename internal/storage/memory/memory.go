// Package memory provides an ephemeral, in-process implementation of
// storage.Storage. Data lives only as long as the process does.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/mentorqa-api/internal/storage"
	"github.com/aanand-mishra/mentorqa-api/internal/types"
)

// Memory is safe for concurrent use. Records are copied in and out so
// callers can never mutate stored state through a returned value.
type Memory struct {
	mu        sync.RWMutex
	questions map[string]types.Question
	mentors   map[string]types.Mentor
	// seq records insertion order to break timestamp ties when sorting.
	seq  map[string]uint64
	next uint64
	now  func() time.Time
}

// New returns an empty store.
func New() *Memory {
	return &Memory{
		questions: make(map[string]types.Question),
		mentors:   make(map[string]types.Mentor),
		seq:       make(map[string]uint64),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) CreateQuestion(_ context.Context, q types.Question) (types.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	q.ID = uuid.NewString()
	q.CreatedAt, q.UpdatedAt = now, now
	m.questions[q.ID] = q
	m.next++
	m.seq[q.ID] = m.next
	return copyQuestion(q), nil
}

func (m *Memory) GetQuestionByID(_ context.Context, id string) (types.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.questions[id]
	if !ok {
		return types.Question{}, fmt.Errorf("no question found with id %s: %w", id, storage.ErrNotFound)
	}
	return copyQuestion(q), nil
}

func (m *Memory) ListQuestions(_ context.Context, f storage.QuestionFilter) ([]types.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Question, 0, len(m.questions))
	subject := strings.ToLower(f.Subject)
	for _, q := range m.questions {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if f.AssignedMentorID != "" && q.AssignedMentorID != f.AssignedMentorID {
			continue
		}
		if subject != "" && !strings.Contains(strings.ToLower(q.Subject), subject) {
			continue
		}
		out = append(out, copyQuestion(q))
	}

	key := func(q types.Question) time.Time { return q.CreatedAt }
	if f.ByAnsweredAt {
		key = answeredAt
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := key(out[i]), key(out[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return m.seq[out[i].ID] > m.seq[out[j].ID]
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) UpdateQuestionByID(_ context.Context, id string, u storage.QuestionUpdate) (types.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.questions[id]
	if !ok {
		return types.Question{}, fmt.Errorf("no question found with id %s: %w", id, storage.ErrNotFound)
	}
	u.Apply(&q)
	q.UpdatedAt = m.now()
	m.questions[id] = q
	return copyQuestion(q), nil
}

func (m *Memory) CreateMentor(_ context.Context, mentor types.Mentor) (types.Mentor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.mentors {
		if strings.EqualFold(existing.Email, mentor.Email) {
			return types.Mentor{}, fmt.Errorf("mentor email %s: %w", mentor.Email, storage.ErrDuplicate)
		}
	}

	now := m.now()
	mentor.ID = uuid.NewString()
	mentor.CreatedAt, mentor.UpdatedAt = now, now
	m.mentors[mentor.ID] = mentor
	return mentor, nil
}

func (m *Memory) GetMentorByID(_ context.Context, id string) (types.Mentor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mentor, ok := m.mentors[id]
	if !ok {
		return types.Mentor{}, fmt.Errorf("no mentor found with id %s: %w", id, storage.ErrNotFound)
	}
	return mentor, nil
}

func (m *Memory) GetMentorByEmail(_ context.Context, email string) (types.Mentor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, mentor := range m.mentors {
		if strings.EqualFold(mentor.Email, email) {
			return mentor, nil
		}
	}
	return types.Mentor{}, fmt.Errorf("no mentor found with email %s: %w", email, storage.ErrNotFound)
}

func (m *Memory) ListMentors(_ context.Context) ([]types.Mentor, error) {
	m.mu.RLock()
	out := make([]types.Mentor, 0, len(m.mentors))
	for _, mentor := range m.mentors {
		out = append(out, mentor)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) UpdateMentorByID(_ context.Context, id string, u storage.MentorUpdate) (types.Mentor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mentor, ok := m.mentors[id]
	if !ok {
		return types.Mentor{}, fmt.Errorf("no mentor found with id %s: %w", id, storage.ErrNotFound)
	}
	u.Apply(&mentor)
	mentor.UpdatedAt = m.now()
	m.mentors[id] = mentor
	return mentor, nil
}

func (m *Memory) DeleteMentorByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.mentors[id]; !ok {
		return fmt.Errorf("no mentor found with id %s: %w", id, storage.ErrNotFound)
	}
	delete(m.mentors, id)
	return nil
}

func (m *Memory) CountMentors(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mentors), nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func copyQuestion(q types.Question) types.Question {
	if q.AnsweredAt != nil {
		at := *q.AnsweredAt
		q.AnsweredAt = &at
	}
	if q.Notification.SentAt != nil {
		at := *q.Notification.SentAt
		q.Notification.SentAt = &at
	}
	return q
}

func answeredAt(q types.Question) time.Time {
	if q.AnsweredAt == nil {
		return time.Time{}
	}
	return *q.AnsweredAt
}
