// Package storage defines the Storage interface, a contract that any
// database backend must satisfy to work with this application.
//
// Two backends ship with the service and are chosen once, at startup:
//
//   - sqlite: a durable store in a single file on disk
//   - memory: an ephemeral in-process store, handy for local work and tests
//
// Nothing above this package knows which one is in use.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aanand-mishra/mentorqa-api/internal/types"
)

// Sentinel errors shared by every backend. Check them with errors.Is.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// QuestionFilter narrows ListQuestions. Zero values mean "no filter".
type QuestionFilter struct {
	Status           types.Status
	AssignedMentorID string
	// Subject matches case-insensitively anywhere in the subject.
	Subject string
	// Limit caps the number of rows; 0 means unlimited.
	Limit int
	// ByAnsweredAt orders newest answer first instead of newest question.
	ByAnsweredAt bool
}

// QuestionUpdate is a partial update. Nil fields are left untouched.
type QuestionUpdate struct {
	Status             *types.Status
	AssignedMentorID   *string
	AnswerText         *string
	AnsweredByMentorID *string
	AnsweredAt         *time.Time
	Notification       *types.Notification
}

// Empty reports whether the update would change nothing.
func (u QuestionUpdate) Empty() bool {
	return u.Status == nil && u.AssignedMentorID == nil && u.AnswerText == nil &&
		u.AnsweredByMentorID == nil && u.AnsweredAt == nil && u.Notification == nil
}

// Apply copies the non-nil fields of u onto q.
func (u QuestionUpdate) Apply(q *types.Question) {
	if u.Status != nil {
		q.Status = *u.Status
	}
	if u.AssignedMentorID != nil {
		q.AssignedMentorID = *u.AssignedMentorID
	}
	if u.AnswerText != nil {
		q.AnswerText = *u.AnswerText
	}
	if u.AnsweredByMentorID != nil {
		q.AnsweredByMentorID = *u.AnsweredByMentorID
	}
	if u.AnsweredAt != nil {
		at := *u.AnsweredAt
		q.AnsweredAt = &at
	}
	if u.Notification != nil {
		q.Notification = *u.Notification
	}
}

// MentorUpdate is a partial update of a mentor. Nil fields are left untouched.
type MentorUpdate struct {
	Name       *string
	Subject    *string
	Initials   *string
	Status     *types.MentorStatus
	University *string
}

// Apply copies the non-nil fields of u onto m.
func (u MentorUpdate) Apply(m *types.Mentor) {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Subject != nil {
		m.Subject = *u.Subject
	}
	if u.Initials != nil {
		m.Initials = *u.Initials
	}
	if u.Status != nil {
		m.Status = *u.Status
	}
	if u.University != nil {
		m.University = *u.University
	}
}

// Storage is the database contract.
// Any concrete type that implements ALL of these methods automatically
// satisfies this interface.
type Storage interface {
	// CreateQuestion assigns an ID and timestamps and inserts q.
	CreateQuestion(ctx context.Context, q types.Question) (types.Question, error)

	// GetQuestionByID returns ErrNotFound when no row matches.
	GetQuestionByID(ctx context.Context, id string) (types.Question, error)

	// ListQuestions returns an empty (non-nil) slice when nothing matches.
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]types.Question, error)

	// UpdateQuestionByID applies u, bumps UpdatedAt and returns the stored
	// record. Returns ErrNotFound when no row matches.
	UpdateQuestionByID(ctx context.Context, id string, u QuestionUpdate) (types.Question, error)

	// CreateMentor returns ErrDuplicate when the email is already taken.
	CreateMentor(ctx context.Context, m types.Mentor) (types.Mentor, error)
	GetMentorByID(ctx context.Context, id string) (types.Mentor, error)
	GetMentorByEmail(ctx context.Context, email string) (types.Mentor, error)
	// ListMentors returns mentors sorted by name.
	ListMentors(ctx context.Context) ([]types.Mentor, error)
	UpdateMentorByID(ctx context.Context, id string, u MentorUpdate) (types.Mentor, error)
	DeleteMentorByID(ctx context.Context, id string) error
	CountMentors(ctx context.Context) (int, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
