// Package storagetest is a conformance suite run against every
// storage.Storage backend.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/mentorqa-api/internal/storage"
	"github.com/aanand-mishra/mentorqa-api/internal/types"
)

// Run runs the suite. newStore must return an empty store; it is called
// once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"QuestionRoundTrip", testQuestionRoundTrip},
		{"QuestionNotFound", testQuestionNotFound},
		{"PartialUpdate", testPartialUpdate},
		{"NotificationUpdate", testNotificationUpdate},
		{"ListFilters", testListFilters},
		{"ListOrdering", testListOrdering},
		{"MentorCRUD", testMentorCRUD},
		{"MentorDuplicateEmail", testMentorDuplicateEmail},
		{"Ping", func(t *testing.T, s storage.Storage) {
			if err := s.Ping(context.Background()); err != nil {
				t.Fatalf("Ping: %v", err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			tt.fn(t, s)
		})
	}
}

func question(subject string) types.Question {
	return types.Question{
		StudentName:  "Asha",
		StudentEmail: "asha@example.com",
		StudentPhone: "8294617350",
		Subject:      subject,
		Question:     "Why is the sky blue?",
		Status:       types.StatusNew,
	}
}

func mustCreate(t *testing.T, s storage.Storage, q types.Question) types.Question {
	t.Helper()
	created, err := s.CreateQuestion(context.Background(), q)
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	return created
}

func testQuestionRoundTrip(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created := mustCreate(t, s, question("Physics"))

	if _, err := uuid.Parse(created.ID); err != nil {
		t.Fatalf("id %q is not a UUID", created.ID)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", created)
	}

	got, err := s.GetQuestionByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetQuestionByID: %v", err)
	}
	if got.StudentEmail != "asha@example.com" || got.StudentPhone != "8294617350" {
		t.Fatalf("contact not stored: %+v", got)
	}
	if got.Status != types.StatusNew || got.AnsweredAt != nil || got.Notification.Sent {
		t.Fatalf("unexpected state: %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func testQuestionNotFound(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	id := uuid.NewString()

	if _, err := s.GetQuestionByID(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetQuestionByID err = %v, want ErrNotFound", err)
	}
	status := types.StatusAssigned
	if _, err := s.UpdateQuestionByID(ctx, id, storage.QuestionUpdate{Status: &status}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("UpdateQuestionByID err = %v, want ErrNotFound", err)
	}
}

func testPartialUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created := mustCreate(t, s, question("Physics"))

	resolved := types.StatusResolved
	text := "Rayleigh scattering."
	mentorID := uuid.NewString()
	at := time.Now().UTC().Truncate(time.Millisecond)

	updated, err := s.UpdateQuestionByID(ctx, created.ID, storage.QuestionUpdate{
		Status:             &resolved,
		AnswerText:         &text,
		AnsweredByMentorID: &mentorID,
		AnsweredAt:         &at,
	})
	if err != nil {
		t.Fatalf("UpdateQuestionByID: %v", err)
	}
	if updated.Status != types.StatusResolved || updated.AnswerText != text || updated.AnsweredByMentorID != mentorID {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.AnsweredAt == nil || !updated.AnsweredAt.Equal(at) {
		t.Fatalf("answeredAt = %v, want %v", updated.AnsweredAt, at)
	}
	if updated.StudentName != "Asha" || updated.Subject != "Physics" || updated.StudentEmail != "asha@example.com" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func testNotificationUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created := mustCreate(t, s, question("Physics"))

	sentAt := time.Now().UTC().Truncate(time.Millisecond)
	if _, err := s.UpdateQuestionByID(ctx, created.ID, storage.QuestionUpdate{
		Notification: &types.Notification{Sent: true, SentAt: &sentAt},
	}); err != nil {
		t.Fatalf("record success: %v", err)
	}
	got, _ := s.GetQuestionByID(ctx, created.ID)
	if !got.Notification.Sent || got.Notification.SentAt == nil || !got.Notification.SentAt.Equal(sentAt) {
		t.Fatalf("notification = %+v", got.Notification)
	}

	if _, err := s.UpdateQuestionByID(ctx, created.ID, storage.QuestionUpdate{
		Notification: &types.Notification{Error: "smtp down"},
	}); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	got, _ = s.GetQuestionByID(ctx, created.ID)
	if got.Notification.Sent || got.Notification.SentAt != nil || got.Notification.Error != "smtp down" {
		t.Fatalf("notification = %+v", got.Notification)
	}
	if got.Status != types.StatusNew {
		t.Fatalf("notification update changed status to %q", got.Status)
	}
}

func testListFilters(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mentorID := uuid.NewString()

	assigned := question("Quantum Physics")
	assigned.AssignedMentorID = mentorID
	assigned.Status = types.StatusAssigned
	mustCreate(t, s, assigned)
	mustCreate(t, s, question("physics"))
	mustCreate(t, s, question("History"))

	tests := []struct {
		name   string
		filter storage.QuestionFilter
		want   int
	}{
		{"all", storage.QuestionFilter{}, 3},
		{"subject any case", storage.QuestionFilter{Subject: "PHYSICS"}, 2},
		{"status", storage.QuestionFilter{Status: types.StatusAssigned}, 1},
		{"mentor", storage.QuestionFilter{AssignedMentorID: mentorID}, 1},
		{"limit", storage.QuestionFilter{Limit: 2}, 2},
		{"nothing", storage.QuestionFilter{Subject: "Art"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListQuestions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListQuestions: %v", err)
			}
			if list == nil {
				t.Fatal("ListQuestions returned nil slice")
			}
			if len(list) != tt.want {
				t.Fatalf("len = %d, want %d", len(list), tt.want)
			}
		})
	}
}

func testListOrdering(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	first := mustCreate(t, s, question("A"))
	time.Sleep(2 * time.Millisecond)
	second := mustCreate(t, s, question("B"))
	time.Sleep(2 * time.Millisecond)
	third := mustCreate(t, s, question("C"))

	list, err := s.ListQuestions(ctx, storage.QuestionFilter{})
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(list) != 3 || list[0].ID != third.ID || list[2].ID != first.ID {
		t.Fatalf("not newest first: %v", subjects(list))
	}

	// The oldest question got the newest answer.
	resolved := types.StatusResolved
	early := time.Now().UTC().Add(-time.Hour)
	late := time.Now().UTC()
	for id, at := range map[string]time.Time{second.ID: early, first.ID: late} {
		if _, err := s.UpdateQuestionByID(ctx, id, storage.QuestionUpdate{Status: &resolved, AnsweredAt: &at}); err != nil {
			t.Fatalf("UpdateQuestionByID: %v", err)
		}
	}

	list, err = s.ListQuestions(ctx, storage.QuestionFilter{Status: types.StatusResolved, ByAnsweredAt: true})
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("not newest answer first: %v", subjects(list))
	}
}

func subjects(qs []types.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Subject
	}
	return out
}

func testMentorCRUD(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	for _, name := range []string{"Zed", "Amy"} {
		if _, err := s.CreateMentor(ctx, types.Mentor{
			Name:         name,
			Email:        name + "@example.com",
			PasswordHash: "hash",
			Subject:      "Maths",
			Status:       types.MentorAvailable,
		}); err != nil {
			t.Fatalf("CreateMentor(%s): %v", name, err)
		}
	}

	n, err := s.CountMentors(ctx)
	if err != nil || n != 2 {
		t.Fatalf("CountMentors = %d, %v", n, err)
	}

	list, err := s.ListMentors(ctx)
	if err != nil {
		t.Fatalf("ListMentors: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Amy" {
		t.Fatalf("not sorted by name: %+v", list)
	}

	amy, err := s.GetMentorByEmail(ctx, "AMY@example.com")
	if err != nil {
		t.Fatalf("GetMentorByEmail is case sensitive: %v", err)
	}
	if amy.PasswordHash != "hash" {
		t.Fatalf("password hash not stored")
	}

	onLeave := types.MentorOnLeave
	subject := "Statistics"
	updated, err := s.UpdateMentorByID(ctx, amy.ID, storage.MentorUpdate{Status: &onLeave, Subject: &subject})
	if err != nil {
		t.Fatalf("UpdateMentorByID: %v", err)
	}
	if updated.Status != types.MentorOnLeave || updated.Subject != "Statistics" || updated.Name != "Amy" {
		t.Fatalf("updated = %+v", updated)
	}

	if err := s.DeleteMentorByID(ctx, amy.ID); err != nil {
		t.Fatalf("DeleteMentorByID: %v", err)
	}
	if _, err := s.GetMentorByID(ctx, amy.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetMentorByID after delete err = %v", err)
	}
	if err := s.DeleteMentorByID(ctx, amy.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if _, err := s.UpdateMentorByID(ctx, amy.ID, storage.MentorUpdate{Subject: &subject}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update after delete err = %v", err)
	}
}

func testMentorDuplicateEmail(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	m := types.Mentor{Name: "A", Email: "dup@example.com", PasswordHash: "h", Subject: "X", Status: types.MentorAvailable}

	if _, err := s.CreateMentor(ctx, m); err != nil {
		t.Fatalf("first CreateMentor: %v", err)
	}
	m.Email = "DUP@example.com"
	if _, err := s.CreateMentor(ctx, m); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("duplicate CreateMentor err = %v, want ErrDuplicate", err)
	}
}
