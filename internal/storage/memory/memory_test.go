package memory

import (
	"context"
	"testing"
	"time"

	"github.com/aanand-mishra/mentorqa-api/internal/storage"
	"github.com/aanand-mishra/mentorqa-api/internal/storage/storagetest"
	"github.com/aanand-mishra/mentorqa-api/internal/types"
)

func TestMemory(t *testing.T) {
	storagetest.Run(t, func(*testing.T) storage.Storage { return New() })
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := New()
	ctx := context.Background()

	at := time.Now().UTC()
	q, _ := m.CreateQuestion(ctx, types.Question{StudentName: "Asha", Subject: "X", Question: "Y", Status: types.StatusNew})
	resolved := types.StatusResolved
	got, _ := m.UpdateQuestionByID(ctx, q.ID, storage.QuestionUpdate{Status: &resolved, AnsweredAt: &at})

	*got.AnsweredAt = at.Add(time.Hour)
	again, _ := m.GetQuestionByID(ctx, q.ID)
	if !again.AnsweredAt.Equal(at) {
		t.Fatalf("stored answeredAt changed through a returned pointer: %v", again.AnsweredAt)
	}
}

func TestMemory_SameTimestampKeepsInsertionOrder(t *testing.T) {
	m := New()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	ctx := context.Background()

	for _, s := range []string{"first", "second", "third"} {
		m.CreateQuestion(ctx, types.Question{Subject: s, Status: types.StatusNew})
	}

	list, _ := m.ListQuestions(ctx, storage.QuestionFilter{})
	if list[0].Subject != "third" || list[2].Subject != "first" {
		t.Fatalf("order = %s, %s, %s", list[0].Subject, list[1].Subject, list[2].Subject)
	}
}
