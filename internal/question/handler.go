package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"quizbank/internal/app/apiresp"
)

const defaultUploadMaxBytes = 16 << 20

type bankService interface {
	Load(ctx context.Context, bank Source, key *Source) (*BankSummary, error)
	Summary(ctx context.Context) (*BankSummary, error)
	Export(ctx context.Context) ([]Record, error)
	ExportWorkbook(ctx context.Context) ([]byte, error)
}

type Handler struct {
	svc      bankService
	maxBytes int64
}

func NewHandler(svc bankService, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = defaultUploadMaxBytes
	}
	return &Handler{svc: svc, maxBytes: maxBytes}
}

// Upload accepts a multipart form with a required "questions" file and an
// optional "answers" file.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apiresp.WriteError(w, r, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	bankFile, bankHdr, err := r.FormFile("questions")
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "questions file is required")
		return
	}
	defer bankFile.Close()

	var key *Source
	keyFile, keyHdr, err := r.FormFile("answers")
	switch {
	case err == nil:
		defer keyFile.Close()
		key = &Source{Name: keyHdr.Filename, Reader: keyFile}
	case errors.Is(err, http.ErrMissingFile):
	default:
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid answers file")
		return
	}

	sum, err := h.svc.Load(r.Context(), sourceFromPart(bankHdr, bankFile), key)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, sum)
}

func sourceFromPart(hdr *multipart.FileHeader, f multipart.File) Source {
	return Source{Name: hdr.Filename, Reader: f}
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, sum)
}

// Export returns the bank as a JSON array that can be uploaded again, or as a
// workbook with ?format=xlsx.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("format")), string(FormatXLSX)) {
		data, err := h.svc.ExportWorkbook(r.Context())
		if err != nil {
			WriteError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "questions.xlsx"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	records, err := h.svc.Export(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "questions.json"))
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(records)
}

// WriteError maps bank errors onto status codes and condition codes.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMalformedJSON):
		apiresp.WriteCode(w, r, http.StatusUnprocessableEntity, "malformed_json", err.Error())
	case errors.Is(err, ErrMalformedWorkbook):
		apiresp.WriteCode(w, r, http.StatusUnprocessableEntity, "malformed_workbook", err.Error())
	case errors.Is(err, ErrEmptyBank):
		apiresp.WriteCode(w, r, http.StatusUnprocessableEntity, "empty_bank", err.Error())
	case errors.Is(err, ErrUnreadableFile):
		apiresp.WriteCode(w, r, http.StatusBadRequest, "unreadable_file", ErrUnreadableFile.Error())
	case errors.Is(err, ErrNoBank):
		apiresp.WriteCode(w, r, http.StatusConflict, "no_bank", err.Error())
	case errors.Is(err, ErrQuestionNotFound):
		apiresp.WriteCode(w, r, http.StatusNotFound, "question_not_found", err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
