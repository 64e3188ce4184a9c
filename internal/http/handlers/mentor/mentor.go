// Package mentor contains the HTTP handlers for mentors: signup and login,
// the mentor's own profile, the admin CRUD routes and the public list, plus
// the admin login stub.
//
// Tokens are static bearer strings (see middleware.Auth); there are no
// sessions to create or revoke.
package mentor

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/mentorqa-api/internal/http/middleware"
	"github.com/aanand-mishra/mentorqa-api/internal/security"
	"github.com/aanand-mishra/mentorqa-api/internal/storage"
	"github.com/aanand-mishra/mentorqa-api/internal/types"
	"github.com/aanand-mishra/mentorqa-api/internal/utils/request"
	"github.com/aanand-mishra/mentorqa-api/internal/utils/response"
)

// DefaultUniversity is stored when signup leaves university empty.
const DefaultUniversity = "Not specified"

type signupRequest struct {
	Name       string `json:"name"       validate:"required"`
	Email      string `json:"email"      validate:"required,email"`
	Password   string `json:"password"   validate:"required,min=6"`
	Subject    string `json:"subject"    validate:"required"`
	University string `json:"university"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Signup handles POST /api/mentor/signup.
//
//	{ "name": "Dr. Sarah Chen", "email": "sarah@stanford.edu", "password": "...", "subject": "Computer Science" }
//
// 201 on success; 409 when the email is already registered.
// ─────────────────────────────────────────────────────────────────────────────
func Signup(store storage.Storage, hasher *security.Hasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := request.DecodeValid(w, r, &req); err != nil {
			response.Invalid(w, err)
			return
		}

		hash, err := hasher.Hash(req.Password)
		if err != nil {
			response.Internal(w, "Signup failed", err)
			return
		}

		university := strings.TrimSpace(req.University)
		if university == "" {
			university = DefaultUniversity
		}
		name := strings.TrimSpace(req.Name)

		m, err := store.CreateMentor(r.Context(), types.Mentor{
			Name:         name,
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: hash,
			Subject:      strings.TrimSpace(req.Subject),
			Initials:     types.Initials(name),
			Status:       types.MentorAvailable,
			University:   university,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			response.WriteJSON(w, http.StatusConflict, response.Message("Email already registered"))
			return
		}
		if err != nil {
			response.Internal(w, "Signup failed", err)
			return
		}

		slog.Info("mentor registered", slog.String("id", m.ID), slog.String("name", m.Name))
		response.WriteJSON(w, http.StatusCreated, map[string]any{
			"message": "Signup successful",
			"user":    userSummary{ID: m.ID, Name: m.Name, Email: m.Email},
		})
	}
}

// Login handles POST /api/mentor/login and returns the mentor's bearer
// token. Unknown email and wrong password get the same 401.
func Login(store storage.Storage, hasher *security.Hasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := request.DecodeValid(w, r, &req); err != nil {
			response.Invalid(w, err)
			return
		}

		m, err := store.GetMentorByEmail(r.Context(), strings.TrimSpace(req.Email))
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			response.Internal(w, "Login failed", err)
			return
		}
		if err != nil || hasher.Compare(m.PasswordHash, req.Password) != nil {
			response.WriteJSON(w, http.StatusUnauthorized, response.Message("Invalid credentials"))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]any{
			"token": middleware.MentorToken(m.ID),
			"user":  m,
		})
	}
}

// AdminLogin handles POST /api/auth/login. It is a stub: any non-empty
// credentials receive the configured admin token.
func AdminLogin(adminToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := request.DecodeValid(w, r, &req); err != nil {
			response.Invalid(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]any{
			"token": adminToken,
			"user":  map[string]string{"email": req.Email},
		})
	}
}

// Profile handles GET /api/mentor/profile for the calling mentor.
func Profile(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := middleware.MentorID(r.Context())
		if id == "" {
			response.WriteJSON(w, http.StatusUnauthorized, response.Message("Not a mentor"))
			return
		}

		m, err := store.GetMentorByID(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Message("Mentor not found"))
			return
		}
		if err != nil {
			response.Internal(w, "Failed to load profile", err)
			return
		}
		response.WriteJSON(w, http.StatusOK, m)
	}
}

// GetList handles GET /api/mentors (auth): every mentor sorted by name.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListMentors(r.Context())
		if err != nil {
			response.Internal(w, "Failed to load mentors", err)
			return
		}
		response.WriteJSON(w, http.StatusOK, list)
	}
}

// PublicList handles GET /api/public/mentors for the student's mentor picker.
func PublicList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListMentors(r.Context())
		if err != nil {
			response.Internal(w, "Failed to load mentors", err)
			return
		}
		out := make([]types.PublicMentor, 0, len(list))
		for _, m := range list {
			out = append(out, m.Public())
		}
		response.WriteJSON(w, http.StatusOK, out)
	}
}

type createRequest struct {
	Name       string             `json:"name"       validate:"required"`
	Subject    string             `json:"subject"    validate:"required"`
	Email      string             `json:"email"      validate:"omitempty,email"`
	Password   string             `json:"password"   validate:"omitempty,min=6"`
	University string             `json:"university"`
	Status     types.MentorStatus `json:"status"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Create handles POST /api/mentors (auth).
//
// An admin may add a mentor without login details. Such a mentor gets a
// placeholder address and a random password nobody knows, so it cannot log
// in until the details are set.
// ─────────────────────────────────────────────────────────────────────────────
func Create(store storage.Storage, hasher *security.Hasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := request.DecodeValid(w, r, &req); err != nil {
			response.Invalid(w, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" {
			email = fmt.Sprintf("mentor-%d@skillverse.local", time.Now().UnixNano())
		}
		password := req.Password
		if password == "" {
			password = uuid.NewString()
		}
		status := req.Status
		if status == "" {
			status = types.MentorAvailable
		}
		if !status.Valid() {
			response.WriteJSON(w, http.StatusBadRequest, response.Message("Invalid status %q", string(status)))
			return
		}

		hash, err := hasher.Hash(password)
		if err != nil {
			response.Internal(w, "Failed to create mentor", err)
			return
		}

		name := strings.TrimSpace(req.Name)
		m, err := store.CreateMentor(r.Context(), types.Mentor{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Subject:      strings.TrimSpace(req.Subject),
			Initials:     types.Initials(name),
			Status:       status,
			University:   strings.TrimSpace(req.University),
		})
		if errors.Is(err, storage.ErrDuplicate) {
			response.WriteJSON(w, http.StatusConflict, response.Message("Email already registered"))
			return
		}
		if err != nil {
			response.Internal(w, "Failed to create mentor", err)
			return
		}
		response.WriteJSON(w, http.StatusCreated, m)
	}
}

type patchRequest struct {
	Name       *string             `json:"name"`
	Subject    *string             `json:"subject"`
	University *string             `json:"university"`
	Status     *types.MentorStatus `json:"status"`
}

// Patch handles PATCH /api/mentors/{id} (auth). A new name also renews the
// initials.
func Patch(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var req patchRequest
		if err := request.Decode(w, r, &req); err != nil {
			response.Invalid(w, err)
			return
		}

		var u storage.MentorUpdate
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				response.WriteJSON(w, http.StatusBadRequest, response.Message("field name must not be empty"))
				return
			}
			initials := types.Initials(name)
			u.Name, u.Initials = &name, &initials
		}
		if req.Subject != nil {
			subject := strings.TrimSpace(*req.Subject)
			if subject == "" {
				response.WriteJSON(w, http.StatusBadRequest, response.Message("field subject must not be empty"))
				return
			}
			u.Subject = &subject
		}
		if req.Status != nil {
			if !req.Status.Valid() {
				response.WriteJSON(w, http.StatusBadRequest, response.Message("Invalid status %q", string(*req.Status)))
				return
			}
			u.Status = req.Status
		}
		u.University = req.University

		m, err := store.UpdateMentorByID(r.Context(), id, u)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Message("Mentor not found"))
			return
		}
		if err != nil {
			response.Internal(w, "Failed to update mentor", err)
			return
		}
		response.WriteJSON(w, http.StatusOK, m)
	}
}

// Delete handles DELETE /api/mentors/{id} (auth). Questions assigned to the
// mentor keep the id; public views then show no mentor name.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		err := store.DeleteMentorByID(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Message("Mentor not found"))
			return
		}
		if err != nil {
			response.Internal(w, "Failed to delete mentor", err)
			return
		}

		slog.Info("mentor deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
