package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aanand-mishra/mentorqa-api/internal/utils/response"
)

// MentorTokenPrefix starts every token issued by mentor login. The rest of
// the token is the mentor's id.
const MentorTokenPrefix = "mentor-"

type ctxKey int

const mentorIDKey ctxKey = iota

// MentorToken is the bearer token handed to a mentor on login.
func MentorToken(mentorID string) string { return MentorTokenPrefix + mentorID }

// MentorID returns the mentor id of the caller, or "" for the admin token
// or an unauthenticated request.
func MentorID(ctx context.Context) string {
	id, _ := ctx.Value(mentorIDKey).(string)
	return id
}

// WithMentorID returns a copy of ctx carrying mentorID.
func WithMentorID(ctx context.Context, mentorID string) context.Context {
	return context.WithValue(ctx, mentorIDKey, mentorID)
}

// Auth checks static bearer tokens: the configured admin token, or a
// mentor token. It does not verify that a mentor token's id exists;
// handlers that need the mentor load it themselves.
type Auth struct {
	AdminToken string
}

// Require rejects requests without an accepted bearer token with 401.
func (a Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearer(r)
		switch {
		case ok && a.AdminToken != "" && token == a.AdminToken:
			next.ServeHTTP(w, r)
		case ok && strings.HasPrefix(token, MentorTokenPrefix) && len(token) > len(MentorTokenPrefix):
			id := strings.TrimPrefix(token, MentorTokenPrefix)
			next.ServeHTTP(w, r.WithContext(WithMentorID(r.Context(), id)))
		default:
			response.WriteJSON(w, http.StatusUnauthorized, response.Message("Unauthorized"))
		}
	})
}

// RequireFunc is Require for a handler func.
func (a Auth) RequireFunc(next http.HandlerFunc) http.Handler {
	return a.Require(next)
}

func bearer(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}
