package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("alice") {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}
	if rl.Allow("alice") {
		t.Error("Fourth request should be rejected")
	}
	if !rl.Allow("bob") {
		t.Error("Separate key should be allowed")
	}
}

func TestRateLimiterWindowExpires(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)
	defer rl.Stop()

	if !rl.Allow("alice") {
		t.Fatal("First request should be allowed")
	}
	if rl.Allow("alice") {
		t.Fatal("Second request should be rejected inside the window")
	}
	time.Sleep(80 * time.Millisecond)
	if !rl.Allow("alice") {
		t.Error("Request should be allowed after the window passes")
	}
}

func TestRateLimiterEvict(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	rl.mu.Lock()
	rl.requests["stale"] = []time.Time{time.Now().Add(-2 * time.Hour)}
	rl.mu.Unlock()

	rl.evict()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.requests["stale"]; ok {
		t.Error("Expected stale key to be evicted")
	}
}

func TestRateLimiterRetryAfterRoundsUp(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   string
	}{
		{500 * time.Millisecond, "1"},
		{1500 * time.Millisecond, "2"},
		{time.Minute, "60"},
	}
	for _, tt := range tests {
		t.Run(tt.window.String(), func(t *testing.T) {
			rl := NewRateLimiter(1, tt.window)
			defer rl.Stop()
			h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			var rr *httptest.ResponseRecorder
			for i := 0; i < 2; i++ {
				rr = httptest.NewRecorder()
				h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/prompt", nil))
			}
			if rr.Code != http.StatusTooManyRequests {
				t.Fatalf("Expected 429, got %d", rr.Code)
			}
			if got := rr.Header().Get("Retry-After"); got != tt.want {
				t.Errorf("Expected Retry-After %q, got %q", tt.want, got)
			}
		})
	}
}
