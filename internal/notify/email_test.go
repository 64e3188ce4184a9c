package notify

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
)

func parse(t *testing.T, raw []byte) (h mail.Header, text, html string) {
	t.Helper()

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateReader: %v", err)
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		ih, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := ih.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		switch ct {
		case "text/plain":
			text = string(body)
		case "text/html":
			html = string(body)
		}
	}
	return mr.Header, text, html
}

func TestCompose(t *testing.T) {
	msg := validMessage()
	msg.Answer = "Use <b>base cases</b>.\nThen recurse."

	raw, err := Compose(Envelope{
		From:    "noreply@youthsolve.com",
		ReplyTo: "support@youthsolve.com",
		Date:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}, msg)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	h, text, html := parse(t, raw)

	subject, err := h.Subject()
	if err != nil || subject != msg.EmailSubject() {
		t.Fatalf("subject = %q, %v", subject, err)
	}
	to, err := h.AddressList("To")
	if err != nil || len(to) != 1 || to[0].Address != "asha@example.com" {
		t.Fatalf("to = %v, %v", to, err)
	}
	from, err := h.AddressList("From")
	if err != nil || len(from) != 1 || from[0].Address != "noreply@youthsolve.com" || from[0].Name != "YouthSolve" {
		t.Fatalf("from = %v, %v", from, err)
	}
	if id, err := h.MessageID(); err != nil || id == "" {
		t.Fatalf("message id = %q, %v", id, err)
	}

	if !strings.Contains(text, "Use <b>base cases</b>.") || !strings.Contains(text, "Hi Asha,") {
		t.Fatalf("text part = %q", text)
	}
	if strings.Contains(html, "<b>base cases</b>") {
		t.Fatalf("html part does not escape the answer: %q", html)
	}
	if !strings.Contains(html, "&lt;b&gt;base cases&lt;/b&gt;.<br>Then recurse.") {
		t.Fatalf("html part = %q", html)
	}
}

func TestCompose_NoReplyTo(t *testing.T) {
	raw, err := Compose(Envelope{From: "noreply@youthsolve.com", Date: time.Now()}, validMessage())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	h, _, _ := parse(t, raw)
	if h.Has("Reply-To") {
		t.Fatalf("unexpected Reply-To %q", h.Get("Reply-To"))
	}
}
