// Package question contains the HTTP handlers for the Question resource.
//
// Handlers are factories: each takes its dependencies once, at route
// registration, and returns the http.HandlerFunc the router calls on every
// request.
//
//	router.HandleFunc("POST /api/questions", question.New(store))
//
// No handler here ever serialises a types.Question directly. Everything
// leaves through types.PublicQuestion or types.KnowledgeEntry, which have no
// contact fields.
package question

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/aanand-mishra/mentorqa-api/internal/answer"
	"github.com/aanand-mishra/mentorqa-api/internal/contact"
	"github.com/aanand-mishra/mentorqa-api/internal/http/middleware"
	"github.com/aanand-mishra/mentorqa-api/internal/storage"
	"github.com/aanand-mishra/mentorqa-api/internal/types"
	"github.com/aanand-mishra/mentorqa-api/internal/utils/request"
	"github.com/aanand-mishra/mentorqa-api/internal/utils/response"
)

const (
	// ResolvedLimit is how many answers the public knowledge base shows.
	ResolvedLimit = 20
	// DefaultPublicLimit applies when /api/public/questions gets no limit.
	DefaultPublicLimit = 50
	maxPublicLimit     = 200
)

// Answerer runs the answer submission workflow. *answer.Service satisfies it.
type Answerer interface {
	Submit(ctx context.Context, questionID, answerText, mentorID string) (types.PublicQuestion, error)
}

// createRequest is the body of POST /api/questions.
//
// The contact can come either as one free-form Contact value, classified
// server side, or as the separate StudentEmail / StudentPhone fields.
type createRequest struct {
	StudentName      string `json:"studentName"      validate:"required"`
	Subject          string `json:"subject"          validate:"required"`
	Question         string `json:"question"         validate:"required"`
	AssignedMentorID string `json:"assignedMentorId" validate:"omitempty,uuid4"`
	Contact          string `json:"contact"`
	StudentEmail     string `json:"studentEmail"`
	StudentPhone     string `json:"studentPhone"`
}

// resolveContact returns the normalised email and phone to store, or the
// user-facing reason the contact was refused.
func (req createRequest) resolveContact() (email, phone, reason string) {
	if strings.TrimSpace(req.Contact) != "" {
		res := contact.Classify(req.Contact)
		switch res.Kind {
		case contact.KindEmail:
			return res.Value, "", ""
		case contact.KindPhone:
			return "", res.Value, ""
		default:
			return "", "", res.Reason
		}
	}

	sc := contact.ValidateStudentContact(req.StudentEmail, req.StudentPhone)
	if !sc.HasValidContact {
		return "", "", sc.Reason
	}
	return sc.Email, sc.Phone, ""
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/questions (public).
//
//	{ "studentName": "Asha", "subject": "Physics", "question": "...", "contact": "asha@example.com" }
//
// 201 with the public view; 400 for a missing field or a refused contact.
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := request.DecodeValid(w, r, &req); err != nil {
			response.Invalid(w, err)
			return
		}

		email, phone, reason := req.resolveContact()
		if reason != "" {
			response.WriteJSON(w, http.StatusBadRequest, response.Message("%s", reason))
			return
		}

		status := types.StatusNew
		if req.AssignedMentorID != "" {
			if _, err := store.GetMentorByID(r.Context(), req.AssignedMentorID); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					response.WriteJSON(w, http.StatusBadRequest, response.Message("Assigned mentor not found"))
					return
				}
				response.Internal(w, "Failed to create question", err)
				return
			}
			status = types.StatusAssigned
		}

		q, err := store.CreateQuestion(r.Context(), types.Question{
			StudentName:      strings.TrimSpace(req.StudentName),
			StudentEmail:     email,
			StudentPhone:     phone,
			Subject:          strings.TrimSpace(req.Subject),
			Question:         strings.TrimSpace(req.Question),
			Status:           status,
			AssignedMentorID: req.AssignedMentorID,
		})
		if err != nil {
			response.Internal(w, "Failed to create question", err)
			return
		}

		slog.Info("question created",
			slog.String("id", q.ID),
			slog.String("subject", q.Subject),
			slog.String("contact", contact.Mask(email+phone)))

		response.WriteJSON(w, http.StatusCreated, q.Public())
	}
}

// GetList handles GET /api/questions (auth): every question, newest first.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListQuestions(r.Context(), storage.QuestionFilter{})
		if err != nil {
			response.Internal(w, "Failed to load questions", err)
			return
		}
		response.WriteJSON(w, http.StatusOK, types.PublicQuestions(list))
	}
}

// GetByID handles GET /api/questions/{id} (auth).
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, err := uuid.Parse(id); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.Message("Invalid question ID"))
			return
		}

		q, err := store.GetQuestionByID(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Message("Question not found"))
			return
		}
		if err != nil {
			response.Internal(w, "Failed to load question", err)
			return
		}
		response.WriteJSON(w, http.StatusOK, q.Public())
	}
}

// updateRequest is the body of PATCH /api/questions/{id}. Absent fields are
// left alone.
type updateRequest struct {
	AnswerText         *string       `json:"answerText"`
	AnsweredByMentorID *string       `json:"answeredByMentorId"`
	Status             *types.Status `json:"status"`
	// AssignedMentorID set to "" unassigns the question.
	AssignedMentorID *string `json:"assignedMentorId"`
}

// badID reports whether p holds something other than "" or a UUID.
func badID(p *string) bool {
	if p == nil || *p == "" {
		return false
	}
	_, err := uuid.Parse(*p)
	return err != nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PATCH /api/questions/{id} (auth).
//
// A body with answerText runs the answer submission workflow; the answering
// mentor is answeredByMentorId, else the calling mentor, else whoever the
// question is assigned to. Any other body is a status / assignment patch,
// which can never mark a question Resolved on its own.
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage, answers Answerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var req updateRequest
		if err := request.Decode(w, r, &req); err != nil {
			response.Invalid(w, err)
			return
		}
		if badID(req.AnsweredByMentorID) || badID(req.AssignedMentorID) {
			response.WriteJSON(w, http.StatusBadRequest, response.Message("Invalid mentor ID"))
			return
		}

		if req.AnswerText != nil {
			mentorID := middleware.MentorID(r.Context())
			if req.AnsweredByMentorID != nil && *req.AnsweredByMentorID != "" {
				mentorID = *req.AnsweredByMentorID
			}
			submitAnswer(w, r, answers, id, *req.AnswerText, mentorID)
			return
		}

		if _, err := uuid.Parse(id); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.Message("Invalid question ID"))
			return
		}

		update := storage.QuestionUpdate{AssignedMentorID: req.AssignedMentorID}
		if req.Status != nil {
			if !req.Status.Valid() {
				response.WriteJSON(w, http.StatusBadRequest,
					response.Message("Invalid status %q", string(*req.Status)))
				return
			}
			if *req.Status == types.StatusResolved {
				response.WriteJSON(w, http.StatusBadRequest,
					response.Message("A question can only be resolved by submitting an answer"))
				return
			}
			update.Status = req.Status
		}
		if update.Empty() {
			response.WriteJSON(w, http.StatusBadRequest, response.Message("No fields to update"))
			return
		}

		q, err := store.UpdateQuestionByID(r.Context(), id, update)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Message("Question not found"))
			return
		}
		if err != nil {
			response.Internal(w, "Failed to update question", err)
			return
		}

		slog.Info("question updated", slog.String("id", id), slog.String("status", string(q.Status)))
		response.WriteJSON(w, http.StatusOK, q.Public())
	}
}

func submitAnswer(w http.ResponseWriter, r *http.Request, answers Answerer, id, text, mentorID string) {
	q, err := answers.Submit(r.Context(), id, text, mentorID)

	var (
		verr *answer.ValidationError
		perr *answer.PersistenceError
	)
	switch {
	case err == nil:
		response.WriteJSON(w, http.StatusOK, q)
	case errors.As(err, &verr):
		response.WriteJSON(w, http.StatusBadRequest, response.Message("%s", verr.Reason))
	case errors.Is(err, answer.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.Message("Question not found"))
	case errors.Is(err, answer.ErrAlreadyResolved):
		response.WriteJSON(w, http.StatusConflict, response.Message("Question has already been answered"))
	case errors.As(err, &perr):
		slog.Error("answer submission failed",
			slog.String("question_id", id),
			slog.String("op", perr.Op),
			slog.String("error", perr.Err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.Message("%s", perr.Error()))
	default:
		response.Internal(w, "Failed to save answer", err)
	}
}

// MentorQuestions handles GET /api/mentor/questions: the questions assigned
// to the calling mentor. The admin token is refused.
func MentorQuestions(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mentorID := middleware.MentorID(r.Context())
		if mentorID == "" {
			response.WriteJSON(w, http.StatusUnauthorized, response.Message("Not a mentor"))
			return
		}

		list, err := store.ListQuestions(r.Context(), storage.QuestionFilter{AssignedMentorID: mentorID})
		if err != nil {
			response.Internal(w, "Failed to load questions", err)
			return
		}
		response.WriteJSON(w, http.StatusOK, types.PublicQuestions(list))
	}
}

// PublicResolved handles GET /api/public/resolved: the latest answers with
// the answering mentor's name and subject.
func PublicResolved(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListQuestions(r.Context(), storage.QuestionFilter{
			Status:       types.StatusResolved,
			Limit:        ResolvedLimit,
			ByAnsweredAt: true,
		})
		if err != nil {
			response.Internal(w, "Failed to load resolved answers", err)
			return
		}

		mentors, err := mentorIndex(r.Context(), store)
		if err != nil {
			response.Internal(w, "Failed to load resolved answers", err)
			return
		}

		out := make([]types.KnowledgeEntry, 0, len(list))
		for _, q := range list {
			e := types.KnowledgeEntry{
				ID:         q.ID,
				Subject:    q.Subject,
				Question:   q.Question,
				AnswerText: q.AnswerText,
				AnsweredAt: q.AnsweredAt,
			}
			e.MentorName, e.MentorSubject = mentors.lookup(q.AnsweredByMentorID)
			out = append(out, e)
		}
		response.WriteJSON(w, http.StatusOK, out)
	}
}

// PublicQuestions handles GET /api/public/questions?subject=&limit=. The
// subject filter is a case-insensitive substring match; the mentor shown is
// the assigned one.
func PublicQuestions(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		limit := DefaultPublicLimit
		if raw := query.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err == nil && n > 0 {
				limit = min(n, maxPublicLimit)
			}
		}

		list, err := store.ListQuestions(r.Context(), storage.QuestionFilter{
			Subject: strings.TrimSpace(query.Get("subject")),
			Limit:   limit,
		})
		if err != nil {
			response.Internal(w, "Failed to load questions", err)
			return
		}

		mentors, err := mentorIndex(r.Context(), store)
		if err != nil {
			response.Internal(w, "Failed to load questions", err)
			return
		}

		out := make([]types.KnowledgeEntry, 0, len(list))
		for _, q := range list {
			createdAt := q.CreatedAt
			e := types.KnowledgeEntry{
				ID:         q.ID,
				Subject:    q.Subject,
				Question:   q.Question,
				Status:     q.Status,
				AnswerText: q.AnswerText,
				AnsweredAt: q.AnsweredAt,
				CreatedAt:  &createdAt,
			}
			e.MentorName, e.MentorSubject = mentors.lookup(q.AssignedMentorID)
			out = append(out, e)
		}
		response.WriteJSON(w, http.StatusOK, out)
	}
}

type mentorsByID map[string]types.Mentor

func mentorIndex(ctx context.Context, store storage.Storage) (mentorsByID, error) {
	list, err := store.ListMentors(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(mentorsByID, len(list))
	for _, m := range list {
		idx[m.ID] = m
	}
	return idx, nil
}

// lookup returns nil pointers for an unknown id so the JSON carries null.
func (idx mentorsByID) lookup(id string) (name, subject *string) {
	m, ok := idx[id]
	if !ok {
		return nil, nil
	}
	return &m.Name, &m.Subject
}
