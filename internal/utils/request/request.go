// Package request decodes and validates JSON request bodies.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrEmptyBody is returned by Decode when the client sent no body at all.
var ErrEmptyBody = errors.New("request body is empty")

// maxBodyBytes caps how much of a request body is read.
const maxBodyBytes = 1 << 20

var validate = newValidator()

// Validator returns the shared validator. validator.Validate caches struct
// metadata, so one instance serves every handler.
func Validator() *validator.Validate { return validate }

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name so messages match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Decode reads r's JSON body into dst. An absent body gives ErrEmptyBody.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// DecodeValid is Decode followed by struct-tag validation. Validation
// failures come back as validator.ValidationErrors.
func DecodeValid(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := Decode(w, r, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}
