package question

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockBankService struct {
	loadFn           func(ctx context.Context, bank Source, key *Source) (*BankSummary, error)
	summaryFn        func(ctx context.Context) (*BankSummary, error)
	exportFn         func(ctx context.Context) ([]Record, error)
	exportWorkbookFn func(ctx context.Context) ([]byte, error)
}

func (m *mockBankService) Load(ctx context.Context, bank Source, key *Source) (*BankSummary, error) {
	if m.loadFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.loadFn(ctx, bank, key)
}

func (m *mockBankService) Summary(ctx context.Context) (*BankSummary, error) {
	if m.summaryFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.summaryFn(ctx)
}

func (m *mockBankService) Export(ctx context.Context) ([]Record, error) {
	if m.exportFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.exportFn(ctx)
}

func (m *mockBankService) ExportWorkbook(ctx context.Context) ([]byte, error) {
	if m.exportWorkbookFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.exportWorkbookFn(ctx)
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rr.Body.String())
	}
	return env
}

func multipartBody(t *testing.T, files map[string][2]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, f := range files {
		part, err := mw.CreateFormFile(field, f[0])
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = io.WriteString(part, f[1])
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandlerUpload_Success(t *testing.T) {
	var gotBank, gotKey string
	h := NewHandler(&mockBankService{
		loadFn: func(ctx context.Context, bank Source, key *Source) (*BankSummary, error) {
			b, _ := io.ReadAll(bank.Reader)
			gotBank = bank.Name + ":" + string(b)
			if key != nil {
				k, _ := io.ReadAll(key.Reader)
				gotKey = key.Name + ":" + string(k)
			}
			return &BankSummary{Generation: 1, Total: 1}, nil
		},
	}, 0)

	body, ct := multipartBody(t, map[string][2]string{
		"questions": {"bank.csv", "id,question\n1,Q\n"},
		"answers":   {"key.csv", "qid,answer\n1,A\n"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bank", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.Upload(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	if gotBank != "bank.csv:id,question\n1,Q\n" || gotKey != "key.csv:qid,answer\n1,A\n" {
		t.Fatalf("unexpected sources %q %q", gotBank, gotKey)
	}
}

func TestHandlerUpload_MissingQuestions(t *testing.T) {
	h := NewHandler(&mockBankService{}, 0)
	body, ct := multipartBody(t, map[string][2]string{"answers": {"key.csv", "x"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bank", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.Upload(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandlerUpload_ErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "malformed json", err: ErrMalformedJSON, status: http.StatusUnprocessableEntity, code: "malformed_json"},
		{name: "malformed workbook", err: ErrMalformedWorkbook, status: http.StatusUnprocessableEntity, code: "malformed_workbook"},
		{name: "empty bank", err: ErrEmptyBank, status: http.StatusUnprocessableEntity, code: "empty_bank"},
		{name: "unreadable", err: errors.Join(ErrUnreadableFile, errors.New("eof")), status: http.StatusBadRequest, code: "unreadable_file"},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: "internal_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&mockBankService{
				loadFn: func(ctx context.Context, bank Source, key *Source) (*BankSummary, error) {
					if key != nil {
						t.Fatalf("expected no answer key")
					}
					return nil, tc.err
				},
			}, 0)
			body, ct := multipartBody(t, map[string][2]string{"questions": {"bank.json", "{}"}})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/bank", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()
			h.Upload(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			env := decodeEnvelope(t, rr)
			if env.OK || env.Error == nil || env.Error.Code != tc.code {
				t.Fatalf("unexpected envelope %s", rr.Body.String())
			}
		})
	}
}

func TestHandlerSummary_NoBank(t *testing.T) {
	h := NewHandler(&mockBankService{
		summaryFn: func(ctx context.Context) (*BankSummary, error) { return nil, ErrNoBank },
	}, 0)
	rr := httptest.NewRecorder()
	h.Summary(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bank", nil))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Error == nil || env.Error.Code != "no_bank" {
		t.Fatalf("unexpected envelope %s", rr.Body.String())
	}
}

func TestHandlerExport(t *testing.T) {
	h := NewHandler(&mockBankService{
		exportFn: func(ctx context.Context) ([]Record, error) {
			return []Record{{FieldID: "1", FieldQuestion: "Q"}}, nil
		},
		exportWorkbookFn: func(ctx context.Context) ([]byte, error) {
			return []byte("PK"), nil
		},
	}, 0)

	rr := httptest.NewRecorder()
	h.Export(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bank/export", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var records []map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(records) != 1 || records[0]["id"] != "1" {
		t.Fatalf("unexpected export %v", records)
	}

	rr = httptest.NewRecorder()
	h.Export(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bank/export?format=XLSX", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "PK" {
		t.Fatalf("unexpected workbook response %d %q", rr.Code, rr.Body.String())
	}
}
