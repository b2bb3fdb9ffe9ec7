package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiter_LimitsPerClient(t *testing.T) {
	handler := NewRateLimiter(1, 2).Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := request("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := request("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("expected burst request to pass, got %d", code)
	}
	if code := request("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 past the burst, got %d", code)
	}

	// Other clients are unaffected.
	if code := request("10.0.0.2"); code != http.StatusOK {
		t.Errorf("expected fresh client to pass, got %d", code)
	}
}
