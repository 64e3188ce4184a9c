package question

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/aanand-mishra/mentorqa-api/internal/answer"
	"github.com/aanand-mishra/mentorqa-api/internal/http/middleware"
	"github.com/aanand-mishra/mentorqa-api/internal/notify"
	"github.com/aanand-mishra/mentorqa-api/internal/storage"
	"github.com/aanand-mishra/mentorqa-api/internal/storage/memory"
	"github.com/aanand-mishra/mentorqa-api/internal/types"
)

type fakeQueue struct {
	mu   sync.Mutex
	jobs []notify.Job
}

func (f *fakeQueue) Enqueue(job notify.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

type env struct {
	store  *memory.Memory
	queue  *fakeQueue
	router *http.ServeMux
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := memory.New()
	queue := &fakeQueue{}
	svc := answer.NewService(store, queue, answer.Options{MinLength: 10})
	auth := middleware.Auth{AdminToken: "dev-token"}

	router := http.NewServeMux()
	router.HandleFunc("POST /api/questions", New(store))
	router.Handle("GET /api/questions", auth.RequireFunc(GetList(store)))
	router.Handle("GET /api/questions/{id}", auth.RequireFunc(GetByID(store)))
	router.Handle("PATCH /api/questions/{id}", auth.RequireFunc(Update(store, svc)))
	router.Handle("GET /api/mentor/questions", auth.RequireFunc(MentorQuestions(store)))
	router.HandleFunc("GET /api/public/resolved", PublicResolved(store))
	router.HandleFunc("GET /api/public/questions", PublicQuestions(store))

	return &env{store: store, queue: queue, router: router}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) seedMentor(t *testing.T, name, subject string) types.Mentor {
	t.Helper()
	m, err := e.store.CreateMentor(context.Background(), types.Mentor{
		Name:    name,
		Email:   strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Subject: subject,
		Status:  types.MentorAvailable,
	})
	if err != nil {
		t.Fatalf("CreateMentor: %v", err)
	}
	return m
}

func (e *env) seedQuestion(t *testing.T, q types.Question) types.Question {
	t.Helper()
	if q.StudentName == "" {
		q.StudentName = "Asha"
	}
	if q.Subject == "" {
		q.Subject = "Physics"
	}
	if q.Question == "" {
		q.Question = "Why is the sky blue?"
	}
	if q.Status == "" {
		q.Status = types.StatusNew
	}
	created, err := e.store.CreateQuestion(context.Background(), q)
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	return created
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func assertNoContact(t *testing.T, body []byte) {
	t.Helper()
	for _, key := range []string{`"studentEmail"`, `"studentPhone"`, `"contact"`} {
		if bytes.Contains(body, []byte(key)) {
			t.Fatalf("response leaks %s: %s", key, body)
		}
	}
}

func errorText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	s, _ := decodeMap(t, rec)["error"].(string)
	return s
}

func TestNew_StoresContactPrivately(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/questions", "", map[string]string{
		"studentName": "Asha",
		"subject":     "Physics",
		"question":    "Why is the sky blue?",
		"contact":     "  Asha@Example.com ",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	assertNoContact(t, rec.Body.Bytes())

	id, _ := decodeMap(t, rec)["id"].(string)
	stored, err := e.store.GetQuestionByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetQuestionByID: %v", err)
	}
	if stored.StudentEmail != "asha@example.com" {
		t.Fatalf("stored email = %q", stored.StudentEmail)
	}
	if stored.Status != types.StatusNew {
		t.Fatalf("status = %q, want New", stored.Status)
	}
}

func TestNew_DualFields(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/questions", "", map[string]string{
		"studentName":  "Ravi",
		"subject":      "Maths",
		"question":     "What is a prime?",
		"studentPhone": "(829) 461-7350",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	id, _ := decodeMap(t, rec)["id"].(string)
	stored, _ := e.store.GetQuestionByID(context.Background(), id)
	if stored.StudentPhone != "8294617350" {
		t.Fatalf("stored phone = %q", stored.StudentPhone)
	}
}

func TestNew_Rejections(t *testing.T) {
	e := newEnv(t)

	base := func(extra map[string]string) map[string]string {
		body := map[string]string{
			"studentName": "Asha",
			"subject":     "Physics",
			"question":    "Why is the sky blue?",
		}
		for k, v := range extra {
			body[k] = v
		}
		return body
	}

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"fake phone", base(map[string]string{"contact": "1234567890"}), "sequential, repeated, or test number"},
		{"short phone", base(map[string]string{"contact": "12345"}), "exactly 10 digits (you entered 5)"},
		{"bad email", base(map[string]string{"contact": "asha@nowhere"}), "Invalid email format."},
		{"no contact", base(nil), "At least one valid contact method"},
		{"bad dual email", base(map[string]string{"studentEmail": "nope@", "studentPhone": "8294617350"}), "Invalid email format."},
		{"missing name", map[string]string{"subject": "x", "question": "y", "contact": "a@b.co"}, "field studentName is required"},
		{"unknown mentor", base(map[string]string{"contact": "a@b.co", "assignedMentorId": uuid.NewString()}), "Assigned mentor not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/questions", "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if got := errorText(t, rec); !strings.Contains(got, tt.want) {
				t.Fatalf("error = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestNew_EmptyBody(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/questions", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := errorText(t, rec); got != "request body is empty" {
		t.Fatalf("error = %q", got)
	}
}

func TestNew_AssignedMentor(t *testing.T) {
	e := newEnv(t)
	m := e.seedMentor(t, "Dr Sarah Chen", "Computer Science")

	rec := e.do(t, http.MethodPost, "/api/questions", "", map[string]string{
		"studentName":      "Asha",
		"subject":          "CS",
		"question":         "What is recursion?",
		"contact":          "asha@example.com",
		"assignedMentorId": m.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeMap(t, rec)
	if body["status"] != string(types.StatusAssigned) {
		t.Fatalf("status = %v, want Assigned", body["status"])
	}
}

func TestGetList_RequiresAuth(t *testing.T) {
	e := newEnv(t)
	e.seedQuestion(t, types.Question{StudentEmail: "asha@example.com"})

	if rec := e.do(t, http.MethodGet, "/api/questions", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", rec.Code)
	}

	rec := e.do(t, http.MethodGet, "/api/questions", "dev-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertNoContact(t, rec.Body.Bytes())

	var list []types.PublicQuestion
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
}

func TestGetByID(t *testing.T) {
	e := newEnv(t)
	q := e.seedQuestion(t, types.Question{StudentPhone: "8294617350"})

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"found", q.ID, http.StatusOK},
		{"missing", uuid.NewString(), http.StatusNotFound},
		{"malformed", "42", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, "/api/questions/"+tt.id, "dev-token", nil)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			assertNoContact(t, rec.Body.Bytes())
		})
	}
}

func TestUpdate_AnswerMinimumLength(t *testing.T) {
	e := newEnv(t)
	q := e.seedQuestion(t, types.Question{StudentEmail: "asha@example.com"})

	rec := e.do(t, http.MethodPatch, "/api/questions/"+q.ID, "dev-token", map[string]string{"answerText": "  123456789  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("9 chars: status = %d", rec.Code)
	}
	if got := errorText(t, rec); got != "Answer must be at least 10 characters long." {
		t.Fatalf("error = %q", got)
	}

	rec = e.do(t, http.MethodPatch, "/api/questions/"+q.ID, "dev-token", map[string]string{"answerText": "1234567890"})
	if rec.Code != http.StatusOK {
		t.Fatalf("10 chars: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	assertNoContact(t, rec.Body.Bytes())

	body := decodeMap(t, rec)
	if body["status"] != string(types.StatusResolved) {
		t.Fatalf("status = %v", body["status"])
	}
	if body["answerText"] != "1234567890" {
		t.Fatalf("answerText = %v", body["answerText"])
	}
	if e.queue.count() != 1 {
		t.Fatalf("queued jobs = %d, want 1", e.queue.count())
	}
}

func TestUpdate_AnswerByCallingMentor(t *testing.T) {
	e := newEnv(t)
	m := e.seedMentor(t, "Prof James Wilson", "Engineering")
	q := e.seedQuestion(t, types.Question{StudentEmail: "asha@example.com"})

	rec := e.do(t, http.MethodPatch, "/api/questions/"+q.ID, middleware.MentorToken(m.ID),
		map[string]string{"answerText": "Bridges carry load in compression and tension."})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decodeMap(t, rec)["answeredByMentorId"]; got != m.ID {
		t.Fatalf("answeredByMentorId = %v, want %s", got, m.ID)
	}
}

func TestUpdate_AnswerErrors(t *testing.T) {
	e := newEnv(t)
	noContact := e.seedQuestion(t, types.Question{})
	fake := e.seedQuestion(t, types.Question{StudentPhone: "1234567890"})

	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantError  string
	}{
		{"missing", uuid.NewString(), http.StatusNotFound, "Question not found"},
		{"malformed id", "abc", http.StatusBadRequest, "Invalid question ID"},
		{"no contact", noContact.ID, http.StatusBadRequest, "At least one valid contact method (email or phone) is required to send the answer to the student."},
		{"fake phone", fake.ID, http.StatusBadRequest, "Cannot submit answer: Phone number appears to be fake"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPatch, "/api/questions/"+tt.id, "dev-token",
				map[string]string{"answerText": "A perfectly long answer."})
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := errorText(t, rec); !strings.HasPrefix(got, tt.wantError) {
				t.Fatalf("error = %q, want prefix %q", got, tt.wantError)
			}
		})
	}
}

func TestUpdate_StatusPatch(t *testing.T) {
	e := newEnv(t)
	q := e.seedQuestion(t, types.Question{StudentEmail: "asha@example.com"})

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"in progress", map[string]string{"status": "In Progress"}, http.StatusOK},
		{"unknown status", map[string]string{"status": "Done"}, http.StatusBadRequest},
		{"resolved without answer", map[string]string{"status": "Resolved"}, http.StatusBadRequest},
		{"bad mentor id", map[string]string{"assignedMentorId": "m1"}, http.StatusBadRequest},
		{"nothing", map[string]string{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPatch, "/api/questions/"+q.ID, "dev-token", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	stored, _ := e.store.GetQuestionByID(context.Background(), q.ID)
	if stored.Status != types.StatusInProgress {
		t.Fatalf("stored status = %q", stored.Status)
	}
	if e.queue.count() != 0 {
		t.Fatalf("a status patch queued %d emails", e.queue.count())
	}
}

func TestMentorQuestions(t *testing.T) {
	e := newEnv(t)
	mine := e.seedMentor(t, "Dr Emily Thompson", "Physics")
	other := e.seedMentor(t, "Prof David Kim", "Chemistry")
	e.seedQuestion(t, types.Question{AssignedMentorID: mine.ID, Status: types.StatusAssigned})
	e.seedQuestion(t, types.Question{AssignedMentorID: other.ID, Status: types.StatusAssigned})

	if rec := e.do(t, http.MethodGet, "/api/mentor/questions", "dev-token", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("admin token: status = %d, want 401", rec.Code)
	}

	rec := e.do(t, http.MethodGet, "/api/mentor/questions", middleware.MentorToken(mine.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []types.PublicQuestion
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].AssignedMentorID != mine.ID {
		t.Fatalf("list = %+v", list)
	}
}

func TestPublicResolved(t *testing.T) {
	e := newEnv(t)
	m := e.seedMentor(t, "Dr Lisa Anderson", "Biology")
	q := e.seedQuestion(t, types.Question{StudentEmail: "asha@example.com"})
	e.seedQuestion(t, types.Question{StudentEmail: "open@example.com"})

	resolved := types.StatusResolved
	text := "Cells divide by mitosis."
	if _, err := e.store.UpdateQuestionByID(context.Background(), q.ID, storage.QuestionUpdate{
		Status:             &resolved,
		AnswerText:         &text,
		AnsweredByMentorID: &m.ID,
	}); err != nil {
		t.Fatalf("UpdateQuestionByID: %v", err)
	}

	rec := e.do(t, http.MethodGet, "/api/public/resolved", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertNoContact(t, rec.Body.Bytes())
	if bytes.Contains(rec.Body.Bytes(), []byte("studentName")) {
		t.Fatalf("knowledge base leaks student name: %s", rec.Body.String())
	}

	var list []types.KnowledgeEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	if list[0].MentorName == nil || *list[0].MentorName != "Dr Lisa Anderson" {
		t.Fatalf("mentorName = %v", list[0].MentorName)
	}
}

func TestPublicQuestions_FilterAndLimit(t *testing.T) {
	e := newEnv(t)
	e.seedQuestion(t, types.Question{Subject: "Physics"})
	e.seedQuestion(t, types.Question{Subject: "Quantum PHYSICS"})
	e.seedQuestion(t, types.Question{Subject: "History"})

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?subject=physics", 2},
		{"?subject=physics&limit=1", 1},
		{"?limit=nonsense", 3},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, "/api/public/questions"+tt.query, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var list []types.KnowledgeEntry
			if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(list) != tt.want {
				t.Fatalf("len = %d, want %d", len(list), tt.want)
			}
			for _, entry := range list {
				if entry.MentorName != nil {
					t.Fatalf("unassigned question shows mentor %q", *entry.MentorName)
				}
			}
		})
	}
}
