// Package seed loads the starter mentors into an empty store.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/mentorqa-api/internal/security"
	"github.com/aanand-mishra/mentorqa-api/internal/storage"
	"github.com/aanand-mishra/mentorqa-api/internal/types"
)

// DefaultPassword is the login password of every seeded mentor.
const DefaultPassword = "password123"

// DefaultMentors are inserted by Mentors.
var DefaultMentors = []types.Mentor{
	{Name: "Dr. Sarah Chen", Email: "sarah@stanford.edu", Subject: "Computer Science", University: "Stanford University"},
	{Name: "Prof. Michael Rodriguez", Email: "michael@mit.edu", Subject: "Mathematics", University: "MIT"},
	{Name: "Dr. Emily Thompson", Email: "emily@harvard.edu", Subject: "Physics", University: "Harvard University"},
	{Name: "Prof. David Kim", Email: "david@caltech.edu", Subject: "Chemistry", University: "Caltech"},
	{Name: "Dr. Lisa Anderson", Email: "lisa@yale.edu", Subject: "Biology", University: "Yale University"},
	{Name: "Prof. James Wilson", Email: "james@berkeley.edu", Subject: "Engineering", University: "UC Berkeley"},
}

// Mentors inserts DefaultMentors when the store has no mentors at all and
// reports how many it inserted. A store with any mentor is left alone.
func Mentors(ctx context.Context, store storage.Storage, hasher *security.Hasher) (int, error) {
	n, err := store.CountMentors(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: count mentors: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	hash, err := hasher.Hash(DefaultPassword)
	if err != nil {
		return 0, fmt.Errorf("seed: hash password: %w", err)
	}

	for i, m := range DefaultMentors {
		m.PasswordHash = hash
		m.Initials = types.Initials(m.Name)
		m.Status = types.MentorAvailable
		if _, err := store.CreateMentor(ctx, m); err != nil {
			return i, fmt.Errorf("seed: create mentor %s: %w", m.Email, err)
		}
	}

	slog.Info("seeded default mentors", slog.Int("count", len(DefaultMentors)))
	return len(DefaultMentors), nil
}
