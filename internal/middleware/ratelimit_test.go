package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/CaterTrack/internal/config"
)

func newTestLimiter(rate float64, burst int, now *time.Time) *RateLimiter {
	rl := NewRateLimiter(config.Rate{RequestsPerSecond: rate, Burst: burst, MaxIdleTime: time.Minute})
	rl.now = func() time.Time { return *now }
	return rl
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", http.NoBody)
	req.RemoteAddr = ip + ":4242"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := newTestLimiter(1, 3, &now)
	h := rl.Handler(okHandler)

	for i := range 3 {
		rec := hit(h, "10.0.0.1")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
		if got, want := rec.Header().Get("X-RateLimit-Remaining"), []string{"2", "1", "0"}[i]; got != want {
			t.Fatalf("request %d: remaining %s, want %s", i+1, got, want)
		}
	}

	rec := hit(h, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}

	if rec := hit(h, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("other client limited: %d", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := hit(h, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("bucket should refill after 1s, got %d", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := newTestLimiter(1, 3, &now)
	h := rl.Handler(okHandler)

	hit(h, "10.0.0.1")
	now = now.Add(30 * time.Second)
	hit(h, "10.0.0.2")
	now = now.Add(45 * time.Second)

	rl.cleanup()
	if rl.Len() != 1 {
		t.Fatalf("tracked = %d, want 1", rl.Len())
	}
}
