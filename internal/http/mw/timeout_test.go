package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeoutAllowsFastRequests(t *testing.T) {
	handler := Timeout(TimeoutConfig{Default: time.Second})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestTimeoutCutsSlowRequests(t *testing.T) {
	handler := Timeout(TimeoutConfig{Default: 20 * time.Millisecond})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}

func TestTimeoutExtendedPattern(t *testing.T) {
	cfg := TimeoutConfig{
		Default:          20 * time.Millisecond,
		Extended:         500 * time.Millisecond,
		ExtendedPatterns: []string{"/extract"},
	}
	handler := Timeout(cfg)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products/extract", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with extended timeout", rec.Code)
	}
}

func TestTimeoutSkipPattern(t *testing.T) {
	cfg := TimeoutConfig{
		Default:      20 * time.Millisecond,
		SkipPatterns: []string{"/webhooks/"},
	}
	handler := Timeout(cfg)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with timeout skipped", rec.Code)
	}
}
