package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/aanand-mishra/mentorqa-api/internal/config"
	"github.com/aanand-mishra/mentorqa-api/internal/contact"
)

// ConsoleSender logs the email instead of sending it. It is the
// development provider and always succeeds for a complete Message.
type ConsoleSender struct {
	From string
	Log  *slog.Logger
}

func (c *ConsoleSender) Send(_ context.Context, msg Message) Result {
	if err := msg.Validate(); err != nil {
		return Result{Success: false, Message: "Missing required email data"}
	}

	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("email (development mode, not sent)",
		slog.String("to", contact.Mask(msg.ToEmail)),
		slog.String("from", c.From),
		slog.String("subject", msg.EmailSubject()),
		slog.String("student", msg.StudentName),
	)
	return Result{Success: true, Message: "Email logged (development mode)"}
}

// SendMailFunc matches smtp.SendMail so tests can stub the network.
type SendMailFunc func(addr string, a sasl.Client, from string, to []string, r *bytes.Reader) error

// SMTPSender relays answer emails through an SMTP server. STARTTLS is used
// when the server offers it; PLAIN auth is used when a username is set.
type SMTPSender struct {
	Addr     string
	Username string
	Password string
	From     string
	ReplyTo  string

	sendMail SendMailFunc
	now      func() time.Time
}

// NewSMTPSender builds a sender from the smtp section of cfg.
func NewSMTPSender(cfg config.Notification) *SMTPSender {
	return &SMTPSender{
		Addr:     net.JoinHostPort(cfg.SMTP.Host, strconv.Itoa(cfg.SMTP.Port)),
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.From,
		ReplyTo:  cfg.ReplyTo,
		sendMail: func(addr string, a sasl.Client, from string, to []string, r *bytes.Reader) error {
			return smtp.SendMail(addr, a, from, to, r)
		},
		now: time.Now,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) Result {
	if err := msg.Validate(); err != nil {
		return Result{Success: false, Message: "Missing required email data"}
	}

	raw, err := Compose(Envelope{From: s.From, ReplyTo: s.ReplyTo, Date: s.now()}, msg)
	if err != nil {
		return failed("Email sending failed: %v", err)
	}

	var auth sasl.Client
	if s.Username != "" {
		auth = sasl.NewPlainClient("", s.Username, s.Password)
	}

	// smtp.SendMail takes no context; run it aside so a deadline can still
	// release the caller. The send itself is left to finish or fail.
	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(s.Addr, auth, s.From, []string{msg.ToEmail}, bytes.NewReader(raw))
	}()

	select {
	case err := <-done:
		if err != nil {
			return failed("Email sending failed: %v", err)
		}
		return Result{Success: true, Message: "Email sent via SMTP"}
	case <-ctx.Done():
		return failed("Email sending failed: %v", fmt.Errorf("smtp %s: %w", s.Addr, ctx.Err()))
	}
}
