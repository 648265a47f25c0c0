package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizbank/internal/question"
)

func TestNormalizedPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/sessions/6f1c1a52-3b1e-4c8a-9d52-0b7a4f0d2e11/answers", want: "/api/v1/sessions/{id}/answers"},
		{in: "/api/v1/bank/questions", want: "/api/v1/bank/questions"},
		{in: "/items/42", want: "/items/{id}"},
		{in: "", want: "/"},
	}
	for _, tc := range tests {
		if got := normalizedPath(tc.in); got != tc.want {
			t.Fatalf("normalizedPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractSessionID(t *testing.T) {
	if id := extractSessionID("/api/v1/sessions/abc/next"); id != "abc" {
		t.Fatalf("expected abc, got %q", id)
	}
	if id := extractSessionID("/api/v1/sessions"); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}

func TestCollectorMetrics(t *testing.T) {
	store := question.NewStore()
	store.Replace(&question.Bank{Questions: make([]question.Question, 3)})
	c := NewCollector(nil, store, nil)

	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/bank", nil))

	rr := httptest.NewRecorder()
	c.MetricsHandler(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()

	for _, want := range []string{
		`quizbank_http_requests_total{method="GET",path="/api/v1/bank",status="418"} 1`,
		"quizbank_bank_generation 1",
		"quizbank_bank_questions 3",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}
