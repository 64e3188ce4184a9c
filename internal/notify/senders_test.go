package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
)

func TestConsoleSender(t *testing.T) {
	var buf bytes.Buffer
	c := &ConsoleSender{From: "noreply@youthsolve.com", Log: slog.New(slog.NewTextHandler(&buf, nil))}

	res := c.Send(context.Background(), validMessage())
	if !res.Success || res.Message != "Email logged (development mode)" {
		t.Fatalf("result = %+v", res)
	}
	if strings.Contains(buf.String(), "asha@example.com") {
		t.Fatalf("log contains the full address: %s", buf.String())
	}

	incomplete := validMessage()
	incomplete.StudentName = ""
	if res := c.Send(context.Background(), incomplete); res.Success || res.Message != "Missing required email data" {
		t.Fatalf("incomplete result = %+v", res)
	}
}

type mailCall struct {
	addr string
	auth sasl.Client
	from string
	to   []string
	raw  []byte
}

type fakeRelay struct {
	mu    sync.Mutex
	calls []mailCall
	err   error
	block chan struct{}
}

func (f *fakeRelay) send(addr string, a sasl.Client, from string, to []string, r *bytes.Reader) error {
	if f.block != nil {
		<-f.block
	}
	raw, _ := io.ReadAll(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, mailCall{addr: addr, auth: a, from: from, to: to, raw: raw})
	return f.err
}

func newTestSMTP(relay *fakeRelay, username string) *SMTPSender {
	return &SMTPSender{
		Addr:     "mail.example.com:587",
		Username: username,
		Password: "secret",
		From:     "noreply@youthsolve.com",
		sendMail: relay.send,
		now:      time.Now,
	}
}

func TestSMTPSender_Success(t *testing.T) {
	relay := &fakeRelay{}
	s := newTestSMTP(relay, "mailer")

	res := s.Send(context.Background(), validMessage())
	if !res.Success || res.Message != "Email sent via SMTP" {
		t.Fatalf("result = %+v", res)
	}

	if len(relay.calls) != 1 {
		t.Fatalf("calls = %d", len(relay.calls))
	}
	call := relay.calls[0]
	if call.addr != "mail.example.com:587" || call.from != "noreply@youthsolve.com" {
		t.Fatalf("call = %+v", call)
	}
	if len(call.to) != 1 || call.to[0] != "asha@example.com" {
		t.Fatalf("to = %v", call.to)
	}
	if call.auth == nil {
		t.Fatal("no auth for a configured username")
	}
	if h, _, _ := parse(t, call.raw); h.Get("Subject") == "" {
		t.Fatal("relayed message has no subject")
	}
}

func TestSMTPSender_NoAuthWithoutUsername(t *testing.T) {
	relay := &fakeRelay{}
	newTestSMTP(relay, "").Send(context.Background(), validMessage())
	if relay.calls[0].auth != nil {
		t.Fatal("auth used without a username")
	}
}

func TestSMTPSender_Failure(t *testing.T) {
	relay := &fakeRelay{err: errors.New("550 mailbox unavailable")}
	res := newTestSMTP(relay, "").Send(context.Background(), validMessage())

	if res.Success || !strings.Contains(res.Message, "550 mailbox unavailable") {
		t.Fatalf("result = %+v", res)
	}
	if !strings.HasPrefix(res.Message, "Email sending failed: ") {
		t.Fatalf("result = %+v", res)
	}
}

func TestSMTPSender_ContextDeadline(t *testing.T) {
	relay := &fakeRelay{block: make(chan struct{})}
	defer close(relay.block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := newTestSMTP(relay, "").Send(ctx, validMessage())
	if res.Success || !strings.Contains(res.Message, context.DeadlineExceeded.Error()) {
		t.Fatalf("result = %+v", res)
	}
}

func TestSMTPSender_MissingData(t *testing.T) {
	relay := &fakeRelay{}
	msg := validMessage()
	msg.ToEmail = ""

	res := newTestSMTP(relay, "").Send(context.Background(), msg)
	if res.Success || res.Message != "Missing required email data" {
		t.Fatalf("result = %+v", res)
	}
	if len(relay.calls) != 0 {
		t.Fatal("relay called for an incomplete message")
	}
}
