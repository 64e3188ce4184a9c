// Package contact classifies and validates the contact method a student
// leaves with a question: an email address or a 10-digit phone number.
//
// Everything here is pure and deterministic. Malformed input never causes
// a panic or an error return; it produces an invalid Result carrying a
// reason that can be shown to the user as-is.
package contact

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the classification of a contact value.
type Kind string

const (
	KindInvalid Kind = "invalid"
	KindEmail   Kind = "email"
	KindPhone   Kind = "phone"
)

// PhoneDigits is the exact number of digits a phone number must have.
const PhoneDigits = 10

// User-facing reasons. Each failure class has its own message; callers must
// not collapse them into one.
const (
	ReasonRequired     = "Contact information is required."
	ReasonNoContact    = "At least one valid contact method (email or phone) is required to send the answer to the student."
	ReasonInvalidEmail = "Invalid email format."
	reasonFakePrefix   = "Phone number appears to be fake or invalid (sequential, repeated, or test number)"
)

// emailPattern accepts the local@domain.tld shape and nothing stricter.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s]+$`)

// Result is the outcome of classifying a single contact value.
type Result struct {
	// Kind is KindEmail or KindPhone on success, KindInvalid otherwise.
	Kind Kind `json:"type"`
	// Candidate is the rule that was applied, even when it failed.
	Candidate Kind `json:"-"`
	// Value is the normalised contact; empty when invalid.
	Value string `json:"value,omitempty"`
	// Reason explains an invalid result.
	Reason string `json:"error,omitempty"`
	// Pattern is the fake-number pattern that rejected a phone, if any.
	Pattern Pattern `json:"-"`
}

// Valid reports whether the contact was accepted.
func (r Result) Valid() bool { return r.Kind != KindInvalid }

// Classify decides whether raw is an email or a phone number and validates
// it with the matching rule. Input containing "@" is only ever treated as
// an email; it never falls back to phone parsing.
func Classify(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{Kind: KindInvalid, Candidate: KindInvalid, Reason: ReasonRequired}
	}
	if strings.Contains(trimmed, "@") {
		return ValidateEmail(trimmed)
	}
	return ValidatePhone(trimmed)
}

// ValidateEmail applies the email rule to raw.
func ValidateEmail(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if !emailPattern.MatchString(trimmed) {
		return Result{Kind: KindInvalid, Candidate: KindEmail, Reason: ReasonInvalidEmail}
	}
	return Result{Kind: KindEmail, Candidate: KindEmail, Value: NormalizeEmail(trimmed)}
}

// ValidatePhone applies the phone rule to raw: formatting characters are
// ignored, exactly ten digits must remain, and the digits must not look fake.
func ValidatePhone(raw string) Result {
	digits := NormalizePhone(raw)
	if len(digits) != PhoneDigits {
		return Result{
			Kind:      KindInvalid,
			Candidate: KindPhone,
			Reason:    lengthReason(len(digits)),
			Pattern:   PatternLength,
		}
	}
	if p := FakePattern(digits); p != PatternNone {
		return Result{
			Kind:      KindInvalid,
			Candidate: KindPhone,
			Reason:    fakeReason(p),
			Pattern:   p,
		}
	}
	return Result{Kind: KindPhone, Candidate: KindPhone, Value: digits}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps only the ASCII digits of phone.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for i := 0; i < len(phone); i++ {
		if c := phone[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func lengthReason(n int) string {
	return fmt.Sprintf("Phone number must be exactly %d digits (you entered %d).", PhoneDigits, n)
}

func fakeReason(p Pattern) string {
	return fmt.Sprintf("%s: %s.", reasonFakePrefix, p.Description())
}

// StudentContact is the outcome of validating the separate email and phone
// fields stored on a question.
type StudentContact struct {
	HasValidContact bool
	Email           string
	Phone           string
	// Reason is set whenever HasValidContact is false.
	Reason string
	// Field names the offending field ("email" or "phone"), empty when the
	// problem is that no contact was supplied at all.
	Field Kind
}

// ValidateStudentContact validates each non-blank field with its own rule.
// At least one must pass, and any field that was supplied but fails rejects
// the whole contact with that field's reason. When both fields fail the
// phone reason is reported.
func ValidateStudentContact(email, phone string) StudentContact {
	var out StudentContact

	if strings.TrimSpace(email) != "" {
		r := ValidateEmail(email)
		if !r.Valid() {
			out.Reason, out.Field = r.Reason, KindEmail
		} else {
			out.Email = r.Value
		}
	}

	if strings.TrimSpace(phone) != "" {
		r := ValidatePhone(phone)
		if !r.Valid() {
			out.Reason, out.Field = r.Reason, KindPhone
		} else {
			out.Phone = r.Value
		}
	}

	if out.Reason != "" {
		out.Email, out.Phone = "", ""
		return out
	}
	if out.Email == "" && out.Phone == "" {
		out.Reason = ReasonNoContact
		return out
	}
	out.HasValidContact = true
	return out
}

// Mask hides most of a contact value for logging.
func Mask(value string) string {
	if at := strings.IndexByte(value, '@'); at > 0 {
		return value[:1] + "***" + value[at:]
	}
	if len(value) > 4 {
		return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
	}
	return "***"
}
