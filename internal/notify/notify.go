// Package notify tells students that their question has been answered.
//
// A Sender delivers one Message and reports the outcome; it never returns
// an error, only a Result. The Dispatcher runs sends in the background so
// that no HTTP request ever waits on an email.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/mentorqa-api/internal/config"
)

// Message is everything needed to write the "your question was answered"
// email.
type Message struct {
	ToEmail       string
	StudentName   string
	MentorName    string
	MentorSubject string
	Subject       string
	Question      string
	Answer        string
}

// Validate reports whether the fields every email needs are present.
func (m Message) Validate() error {
	required := []struct{ name, value string }{
		{"toEmail", m.ToEmail},
		{"studentName", m.StudentName},
		{"mentorName", m.MentorName},
		{"subject", m.Subject},
		{"answer", m.Answer},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required email data: %s", strings.Join(missing, ", "))
	}
	return nil
}

// EmailSubject is the subject line of the answer email.
func (m Message) EmailSubject() string {
	return fmt.Sprintf("Answer from %s to your %q question", m.MentorName, m.Subject)
}

// Result is the settled outcome of one send attempt.
type Result struct {
	Success bool
	Message string
}

func failed(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Sender delivers a Message. Implementations must not panic and must
// always return a Result; a non-success Result is an ordinary outcome.
type Sender interface {
	Send(ctx context.Context, msg Message) Result
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) Result

func (f SenderFunc) Send(ctx context.Context, msg Message) Result { return f(ctx, msg) }

// NewSender builds the Sender named by cfg.Provider. An unknown provider
// yields a Sender that fails every send, so misconfiguration shows up on
// each question's notification record rather than crashing the service.
func NewSender(cfg config.Notification) Sender {
	switch cfg.Provider {
	case "console":
		return &ConsoleSender{From: cfg.From, Log: slog.Default()}
	case "smtp":
		return NewSMTPSender(cfg)
	default:
		slog.Warn("email provider not configured, answers will not be emailed",
			slog.String("provider", cfg.Provider))
		return UnavailableSender{Provider: cfg.Provider}
	}
}

// UnavailableSender fails every send.
type UnavailableSender struct {
	Provider string
}

func (u UnavailableSender) Send(context.Context, Message) Result {
	return failed("Email provider %s not available", u.Provider)
}
