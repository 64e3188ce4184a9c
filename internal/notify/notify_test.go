package notify

import (
	"strings"
	"testing"

	"github.com/aanand-mishra/mentorqa-api/internal/config"
)

func validMessage() Message {
	return Message{
		ToEmail:       "asha@example.com",
		StudentName:   "Asha",
		MentorName:    "Dr. Sarah Chen",
		MentorSubject: "Computer Science",
		Subject:       "Recursion",
		Question:      "What is recursion?",
		Answer:        "A function that calls itself.\nWith a base case.",
	}
}

func TestMessage_Validate(t *testing.T) {
	if err := validMessage().Validate(); err != nil {
		t.Fatalf("valid message: %v", err)
	}

	m := validMessage()
	m.ToEmail, m.Answer = "", "  "
	err := m.Validate()
	if err == nil {
		t.Fatal("want error for missing fields")
	}
	if !strings.Contains(err.Error(), "toEmail, answer") {
		t.Fatalf("err = %v", err)
	}

	m = validMessage()
	m.MentorSubject, m.Question = "", ""
	if err := m.Validate(); err != nil {
		t.Fatalf("optional fields reported missing: %v", err)
	}
}

func TestMessage_EmailSubject(t *testing.T) {
	got := validMessage().EmailSubject()
	want := `Answer from Dr. Sarah Chen to your "Recursion" question`
	if got != want {
		t.Fatalf("subject = %q, want %q", got, want)
	}
}

func TestNewSender(t *testing.T) {
	if _, ok := NewSender(config.Notification{Provider: "console"}).(*ConsoleSender); !ok {
		t.Fatal("console provider did not give a ConsoleSender")
	}
	if _, ok := NewSender(config.Notification{Provider: "smtp", SMTP: config.SMTP{Host: "mail", Port: 25}}).(*SMTPSender); !ok {
		t.Fatal("smtp provider did not give an SMTPSender")
	}

	s := NewSender(config.Notification{Provider: "pigeon"})
	res := s.Send(t.Context(), validMessage())
	if res.Success || res.Message != "Email provider pigeon not available" {
		t.Fatalf("unknown provider result = %+v", res)
	}
}
