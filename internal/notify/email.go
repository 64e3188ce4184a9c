package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/emersion/go-message/mail"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlBody = htmltemplate.Must(htmltemplate.New("answer.html").Funcs(htmltemplate.FuncMap{
		"paragraphs": paragraphs,
	}).ParseFS(templateFS, "templates/answer.html"))
	textBody = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/answer.txt"))
)

// paragraphs splits text on newlines so the HTML template can emit <br>
// between escaped lines.
func paragraphs(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// Envelope carries the addressing that is not part of Message.
type Envelope struct {
	From    string
	ReplyTo string
	Date    time.Time
}

// Compose renders msg into a complete RFC 5322 message with a
// multipart/alternative body (plain text first, then HTML).
func Compose(env Envelope, msg Message) ([]byte, error) {
	var h mail.Header
	h.SetDate(env.Date)
	h.SetSubject(msg.EmailSubject())
	h.SetAddressList("From", []*mail.Address{{Name: "YouthSolve", Address: env.From}})
	h.SetAddressList("To", []*mail.Address{{Name: msg.StudentName, Address: msg.ToEmail}})
	if env.ReplyTo != "" {
		h.SetAddressList("Reply-To", []*mail.Address{{Address: env.ReplyTo}})
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("compose: message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("compose: create writer: %w", err)
	}

	alt, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("compose: create inline: %w", err)
	}

	if err := writePart(alt, "text/plain", func(w io.Writer) error {
		return textBody.Execute(w, msg)
	}); err != nil {
		return nil, err
	}
	if err := writePart(alt, "text/html", func(w io.Writer) error {
		return htmlBody.Execute(w, msg)
	}); err != nil {
		return nil, err
	}

	if err := alt.Close(); err != nil {
		return nil, fmt.Errorf("compose: close inline: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("compose: close writer: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(alt *mail.InlineWriter, contentType string, render func(io.Writer) error) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})

	w, err := alt.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("compose: create %s part: %w", contentType, err)
	}
	if err := render(w); err != nil {
		w.Close()
		return fmt.Errorf("compose: render %s: %w", contentType, err)
	}
	return w.Close()
}
