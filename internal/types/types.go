// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, the answer workflow and the notifier can all import
// types without depending on each other.
package types

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Status is the lifecycle state of a Question.
//
// The string values are the ones the frontend already understands, so they
// are stored and serialised verbatim ("In Progress" keeps its space).
type Status string

const (
	StatusNew        Status = "New"
	StatusAssigned   Status = "Assigned"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusAssigned, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Notification tracks the single best-effort email sent to the student
// after an answer is accepted. It is reset to the zero value on every
// answer submission and written once more when the send settles.
type Notification struct {
	Sent   bool       `json:"sent"   db:"notification_sent"`
	SentAt *time.Time `json:"sentAt" db:"notification_sent_at"`
	Error  string     `json:"error"  db:"notification_error"`
}

// Question is the full, private record as owned by the storage layer.
//
// StudentEmail and StudentPhone are PRIVATE. They carry json:"-" so that
// even an accidental response.WriteJSON(w, 200, question) cannot leak them.
// Handlers serialise PublicQuestion instead.
type Question struct {
	ID                 string     `json:"id"                 db:"id"`
	StudentName        string     `json:"studentName"        db:"student_name"`
	StudentEmail       string     `json:"-"                  db:"student_email"`
	StudentPhone       string     `json:"-"                  db:"student_phone"`
	Subject            string     `json:"subject"            db:"subject"`
	Question           string     `json:"question"           db:"question"`
	Status             Status     `json:"status"             db:"status"`
	AssignedMentorID   string     `json:"assignedMentorId"   db:"assigned_mentor_id"`
	AnswerText         string     `json:"answerText"         db:"answer_text"`
	AnsweredByMentorID string     `json:"answeredByMentorId" db:"answered_by_mentor_id"`
	AnsweredAt         *time.Time `json:"answeredAt"         db:"answered_at"`
	CreatedAt          time.Time  `json:"createdAt"          db:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt"          db:"updated_at"`

	Notification
}

// HasContact reports whether at least one contact field is set.
// It says nothing about validity; see contact.ValidateStudentContact.
func (q Question) HasContact() bool {
	return q.StudentEmail != "" || q.StudentPhone != ""
}

// PublicNotification is the outward view of Notification. The raw
// delivery error may contain the student's address, so it is dropped.
type PublicNotification struct {
	Sent   bool       `json:"sent"`
	SentAt *time.Time `json:"sentAt"`
}

// PublicQuestion is the only shape in which a Question leaves the API.
// It has no contact fields at all.
type PublicQuestion struct {
	ID                 string             `json:"id"`
	StudentName        string             `json:"studentName"`
	Subject            string             `json:"subject"`
	Question           string             `json:"question"`
	Status             Status             `json:"status"`
	AssignedMentorID   string             `json:"assignedMentorId,omitempty"`
	AnswerText         string             `json:"answerText,omitempty"`
	AnsweredByMentorID string             `json:"answeredByMentorId,omitempty"`
	AnsweredAt         *time.Time         `json:"answeredAt,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	Notification       PublicNotification `json:"notification"`
}

// Public strips private fields from q.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:                 q.ID,
		StudentName:        q.StudentName,
		Subject:            q.Subject,
		Question:           q.Question,
		Status:             q.Status,
		AssignedMentorID:   q.AssignedMentorID,
		AnswerText:         q.AnswerText,
		AnsweredByMentorID: q.AnsweredByMentorID,
		AnsweredAt:         q.AnsweredAt,
		CreatedAt:          q.CreatedAt,
		UpdatedAt:          q.UpdatedAt,
		Notification: PublicNotification{
			Sent:   q.Notification.Sent,
			SentAt: q.Notification.SentAt,
		},
	}
}

// PublicQuestions maps Public over a slice, always returning a non-nil
// slice so the JSON encodes as [] rather than null.
func PublicQuestions(qs []Question) []PublicQuestion {
	out := make([]PublicQuestion, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Public())
	}
	return out
}

// KnowledgeEntry is one published answer in the public knowledge base.
// No student data of any kind appears here.
type KnowledgeEntry struct {
	ID            string     `json:"id"`
	Subject       string     `json:"subject"`
	Question      string     `json:"question"`
	Status        Status     `json:"status,omitempty"`
	AnswerText    string     `json:"answerText,omitempty"`
	AnsweredAt    *time.Time `json:"answeredAt,omitempty"`
	MentorName    *string    `json:"mentorName"`
	MentorSubject *string    `json:"mentorSubject"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// MentorStatus is a mentor's availability.
type MentorStatus string

const (
	MentorAvailable   MentorStatus = "Available"
	MentorUnavailable MentorStatus = "Unavailable"
	MentorOnLeave     MentorStatus = "On Leave"
)

// Valid reports whether s is one of the three known availabilities.
func (s MentorStatus) Valid() bool {
	switch s {
	case MentorAvailable, MentorUnavailable, MentorOnLeave:
		return true
	}
	return false
}

// Mentor answers questions. PasswordHash never leaves the process.
type Mentor struct {
	ID           string       `json:"id"         db:"id"`
	Name         string       `json:"name"       db:"name"`
	Email        string       `json:"email"      db:"email"`
	PasswordHash string       `json:"-"          db:"password_hash"`
	Subject      string       `json:"subject"    db:"subject"`
	Initials     string       `json:"initials"   db:"initials"`
	Status       MentorStatus `json:"status"     db:"status"`
	University   string       `json:"university" db:"university"`
	CreatedAt    time.Time    `json:"createdAt"  db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt"  db:"updated_at"`
}

// PublicMentor is the view of a mentor shown to students choosing whom to
// ask. It has no login details.
type PublicMentor struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Subject    string       `json:"subject"`
	Initials   string       `json:"initials"`
	Status     MentorStatus `json:"status"`
	University string       `json:"university"`
}

// Public strips login details from m.
func (m Mentor) Public() PublicMentor {
	return PublicMentor{
		ID:         m.ID,
		Name:       m.Name,
		Subject:    m.Subject,
		Initials:   m.Initials,
		Status:     m.Status,
		University: m.University,
	}
}

// Initials takes the first letter of each word of name, upper-cased:
// "Dr. Sarah Chen" gives "DSC".
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
