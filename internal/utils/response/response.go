// Package response writes the JSON bodies every handler returns.
//
// Success bodies can be any JSON value. Error bodies always share one
// envelope so the frontend can show them without guessing:
//
//	{ "status": "error", "error": "Answer must be at least 10 characters long." }
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the error envelope.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON sets the content type, writes status, then encodes data.
// Headers cannot change once WriteHeader has been called, so the order
// matters.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps err's text in the error envelope. Only use it for
// errors whose text is safe to show; storage errors go through Internal.
func GeneralError(err error) Response {
	return Response{Status: StatusError, Error: err.Error()}
}

// Message builds the error envelope from a plain user-facing message.
func Message(format string, args ...any) Response {
	return Response{Status: StatusError, Error: fmt.Sprintf(format, args...)}
}

// Internal logs err and writes a 500 with msg, which should say what
// failed without exposing why.
func Internal(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	WriteJSON(w, http.StatusInternalServerError, Message("%s", msg))
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError turns validator field errors into one readable sentence,
// joining one clause per failing field with ", ".
//
//	{ "status": "error", "error": "field studentName is required, field status must be one of: New Assigned" }
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var msgs []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s characters long", e.Field(), e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s characters long", e.Field(), e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of: %s", e.Field(), e.Param()))
		case "uuid4", "uuid":
			msgs = append(msgs, fmt.Sprintf("field %s must be a valid id", e.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{Status: StatusError, Error: strings.Join(msgs, ", ")}
}

// Invalid writes a 400 for err as returned by validator.Struct. Anything
// that is not a ValidationErrors is reported through GeneralError.
func Invalid(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		WriteJSON(w, http.StatusBadRequest, ValidationError(verrs))
		return
	}
	WriteJSON(w, http.StatusBadRequest, GeneralError(err))
}
