package app

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizbank/internal/question"
)

const routerBankCSV = "id,question,choice a,choice b,correct answer,category\n" +
	"1,Two plus two?,4,5,a,math\n" +
	"2,Capital of France?,Paris,Rome,a,geo\n"

func newTestRouter(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	store := question.NewStore()
	svc := question.NewService(store, nil, nil)
	src := question.Source{Name: "bank.csv", Reader: strings.NewReader(routerBankCSV)}
	if _, err := svc.Load(context.Background(), src, nil); err != nil {
		t.Fatalf("preload bank: %v", err)
	}
	if cfg.UploadMaxBytes == 0 {
		cfg.UploadMaxBytes = 1 << 20
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	return NewRouter(cfg, nil, store, svc, nil)
}

func TestRouterSmokeRoutes(t *testing.T) {
	router := newTestRouter(t, Config{UploadRateLimitPerMin: 60})

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{name: "healthz", method: http.MethodGet, target: "/healthz", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusOK},
		{name: "bank_summary", method: http.MethodGet, target: "/api/v1/bank", wantStatus: http.StatusOK},
		{name: "bank_export", method: http.MethodGet, target: "/api/v1/bank/export", wantStatus: http.StatusOK},
		{name: "bank_questions", method: http.MethodGet, target: "/api/v1/bank/questions?category=math", wantStatus: http.StatusOK},
		{name: "bank_categories", method: http.MethodGet, target: "/api/v1/bank/categories", wantStatus: http.StatusOK},
		{name: "generate_test", method: http.MethodPost, target: "/api/v1/tests", body: `{"mode":"auto","count":1}`, wantStatus: http.StatusOK},
		{name: "evaluate", method: http.MethodPost, target: "/api/v1/evaluate", body: `{"question_id":"1","selected":["A"]}`, wantStatus: http.StatusOK},
		{name: "evaluate_unknown", method: http.MethodPost, target: "/api/v1/evaluate", body: `{"question_id":"99","selected":["A"]}`, wantStatus: http.StatusNotFound},
		{name: "start_session", method: http.MethodPost, target: "/api/v1/sessions", body: `{}`, wantStatus: http.StatusCreated},
		{name: "missing_session", method: http.MethodGet, target: "/api/v1/sessions/nope", wantStatus: http.StatusNotFound},
		{name: "unknown_route", method: http.MethodGet, target: "/nope", wantStatus: http.StatusNotFound},
		{name: "wrong_method", method: http.MethodDelete, target: "/api/v1/bank", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.wantStatus {
				t.Fatalf("%s %s: got status %d, want %d: %s", tc.method, tc.target, w.Code, tc.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, Config{UploadRateLimitPerMin: 60})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bank", nil)
	req.Header.Set("Origin", "http://quiz.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard allow-origin, got %q", got)
	}
}

func TestRouterUploadRateLimited(t *testing.T) {
	router := newTestRouter(t, Config{UploadRateLimitPerMin: 1})

	for i, want := range []int{http.StatusCreated, http.StatusTooManyRequests} {
		body, contentType := uploadBody(t, routerBankCSV)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bank", body)
		req.Header.Set("Content-Type", contentType)
		req.RemoteAddr = "10.1.1.1:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("upload %d: got status %d, want %d: %s", i, w.Code, want, w.Body.String())
		}
	}
}

func uploadBody(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("questions", "bank.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(csv)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}
