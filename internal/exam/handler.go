package exam

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"quizbank/internal/app/apiresp"
	"quizbank/internal/question"
)

type Handler struct {
	svc examService
}

type examService interface {
	ListQuestions(ctx context.Context, bookMode, category string) ([]question.Question, error)
	Categories(ctx context.Context, bookMode string) ([]string, error)
	GenerateTest(ctx context.Context, in TestRequest) (*Selection, error)
	Evaluate(ctx context.Context, questionID string, r Response) (*ScoreResult, error)
	StartStudy(ctx context.Context, in StudyRequest) (*SessionView, error)
	GetSession(ctx context.Context, id string) (*SessionView, error)
	SubmitAnswer(ctx context.Context, id string, r Response) (*AnswerResult, error)
	Next(ctx context.Context, id string) (*SessionView, error)
	Prev(ctx context.Context, id string) (*SessionView, error)
	ReviewMissed(ctx context.Context, id string) (*SessionView, error)
	Restart(ctx context.Context, id string) (*SessionView, error)
	EndSession(ctx context.Context, id string) error
}

type evaluateRequest struct {
	QuestionID string   `json:"question_id"`
	Selected   []string `json:"selected"`
	Text       string   `json:"text"`
}

func NewHandler(svc examService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListQuestions(r.Context(), q.Get("book_mode"), q.Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Categories(r.Context(), r.URL.Query().Get("book_mode"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) GenerateTest(w http.ResponseWriter, r *http.Request) {
	var req TestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	mode := GenMode(strings.ToLower(strings.TrimSpace(string(req.Mode))))
	if mode != "" && mode != GenManual && mode != GenAuto {
		apiresp.WriteError(w, r, http.StatusBadRequest, "mode must be manual or auto")
		return
	}
	req.Mode = mode
	req.Distribution = Distribution(strings.ToLower(strings.TrimSpace(string(req.Distribution))))

	sel, err := h.svc.GenerateTest(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, sel)
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.QuestionID) == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "question_id is required")
		return
	}
	res, err := h.svc.Evaluate(r.Context(), req.QuestionID, Response{Selected: req.Selected, Text: req.Text})
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, res)
}

func (h *Handler) StartStudy(w http.ResponseWriter, r *http.Request) {
	var req StudyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := h.svc.StartStudy(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, view)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.sessionStep(w, r, h.svc.GetSession)
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.sessionStep(w, r, h.svc.Next)
}

func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) {
	h.sessionStep(w, r, h.svc.Prev)
}

func (h *Handler) ReviewMissed(w http.ResponseWriter, r *http.Request) {
	h.sessionStep(w, r, h.svc.ReviewMissed)
}

func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	h.sessionStep(w, r, h.svc.Restart)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var resp Response
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, res)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]bool{"ended": true})
}

func (h *Handler) sessionStep(w http.ResponseWriter, r *http.Request, step func(context.Context, string) (*SessionView, error)) {
	view, err := step(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, view)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrEmptyPool):
		apiresp.WriteCode(w, r, http.StatusUnprocessableEntity, "empty_pool", err.Error())
	case errors.Is(err, ErrEmptyManualSelection):
		apiresp.WriteCode(w, r, http.StatusUnprocessableEntity, "empty_manual_selection", err.Error())
	case errors.Is(err, ErrMissingCount):
		apiresp.WriteCode(w, r, http.StatusUnprocessableEntity, "missing_count", err.Error())
	case errors.Is(err, ErrNoResponse):
		apiresp.WriteCode(w, r, http.StatusUnprocessableEntity, "no_response", err.Error())
	case errors.Is(err, ErrNothingMissed):
		apiresp.WriteCode(w, r, http.StatusUnprocessableEntity, "nothing_missed", err.Error())
	case errors.Is(err, ErrStaleSession):
		apiresp.WriteCode(w, r, http.StatusConflict, "stale_session", err.Error())
	case errors.Is(err, ErrSessionNotFound):
		apiresp.WriteCode(w, r, http.StatusNotFound, "session_not_found", err.Error())
	default:
		question.WriteError(w, r, err)
	}
}
