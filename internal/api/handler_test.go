//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/storyscribe/internal/config"
	"github.com/ashureev/storyscribe/internal/identity"
	"github.com/ashureev/storyscribe/internal/llm"
	"github.com/ashureev/storyscribe/internal/moderation"
	"github.com/ashureev/storyscribe/internal/prompting"
	"github.com/ashureev/storyscribe/internal/store"
	"github.com/ashureev/storyscribe/internal/story"
	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T, limiter *RateLimiter, completer llm.Completer) http.Handler {
	t.Helper()
	return newModeratedRouter(t, limiter, completer, nil)
}

func newModeratedRouter(t *testing.T, limiter *RateLimiter, completer llm.Completer, mod moderation.Moderator) http.Handler {
	t.Helper()
	opts := []prompting.Option{prompting.WithRand(prompting.NewSeededRand(1))}
	if completer != nil {
		opts = append(opts, prompting.WithCompleter(completer, "gpt-4o-mini"))
	}
	svc := story.NewService(store.NewMemory(), prompting.NewGenerator(opts...), prompting.DefaultPolicy(), mod, nil)
	cfg := &config.Config{Timeout: config.TimeoutConfig{HealthCheck: time.Second}}

	r := chi.NewRouter()
	r.Use(identity.Middleware())
	NewHandler(svc, limiter, cfg).RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(identity.UserHeaderName, userID)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestStoriesRequireIdentity(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rr := doRequest(t, h, method, "/stories", "", `{"title":"t","content":"c"}`)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s /stories: expected 401, got %d", method, rr.Code)
		}
		got := decodeBody[map[string]string](t, rr)
		if got["error"] != identity.MissingIdentityMessage {
			t.Errorf("Unexpected error message %q", got["error"])
		}
	}

	rr := doRequest(t, h, http.MethodGet, "/stories", "bad id!", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for malformed identity, got %d", rr.Code)
	}
	if got := decodeBody[map[string]string](t, rr); got["error"] != identity.MalformedIdentityMessage {
		t.Errorf("Unexpected error message %q", got["error"])
	}
}

func TestCreateAndListStories(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rr := doRequest(t, h, http.MethodPost, "/stories", "alice", `{"title":"Grandma's kitchen","content":"It smelled of **cardamom**."}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decodeBody[map[string]interface{}](t, rr)
	if id, _ := created["id"].(string); !strings.HasPrefix(id, "story_") {
		t.Errorf("Unexpected story id %v", created["id"])
	}
	if created["userId"] != "alice" {
		t.Errorf("Expected userId alice, got %v", created["userId"])
	}
	if created["completionStatus"] != 1.0 {
		t.Errorf("Expected default completionStatus 1, got %v", created["completionStatus"])
	}

	rr = doRequest(t, h, http.MethodGet, "/stories", "alice", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if list := decodeBody[[]map[string]interface{}](t, rr); len(list) != 1 {
		t.Errorf("Expected 1 story for alice, got %d", len(list))
	}

	rr = doRequest(t, h, http.MethodGet, "/stories", "bob", "")
	if list := decodeBody[[]map[string]interface{}](t, rr); len(list) != 0 {
		t.Errorf("Expected no stories for bob, got %d", len(list))
	}
}

func TestCreateStoryRejected(t *testing.T) {
	mod := moderation.Func(func(_ context.Context, text string) (moderation.Result, error) {
		if strings.Contains(text, "forbidden") {
			return moderation.Result{IsSafe: false, Issues: []string{"blocked word"}}, nil
		}
		return moderation.Result{IsSafe: true, Issues: []string{}}, nil
	})
	h := newModeratedRouter(t, nil, nil, mod)

	rr := doRequest(t, h, http.MethodPost, "/stories", "alice", `{"title":"t","content":"a forbidden tale"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
	got := decodeBody[map[string]interface{}](t, rr)
	if got["error"] != "content rejected" {
		t.Errorf("Unexpected error %v", got["error"])
	}
	issues, _ := got["issues"].([]interface{})
	if len(issues) != 1 || issues[0] != "blocked word" {
		t.Errorf("Unexpected issues %v", got["issues"])
	}
}

func TestCreateStoryEmptyFields(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	for _, body := range []string{`{"content":"hello"}`, `{"title":"t","content":""}`, `{}`} {
		rr := doRequest(t, h, http.MethodPost, "/stories", "alice", body)
		if rr.Code != http.StatusOK {
			t.Errorf("Body %s: expected 200, got %d: %s", body, rr.Code, rr.Body.String())
		}
	}
}

func TestCreateStoryBadBody(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"title":`},
		{"empty body", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, h, http.MethodPost, "/stories", "alice", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestGetPromptWithoutModel(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rr := doRequest(t, h, http.MethodGet, "/prompt", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	got := decodeBody[map[string]interface{}](t, rr)
	if got["genre"] != "memoir" || got["mood"] != "deep_reflection" {
		t.Errorf("Unexpected defaults: %v", got)
	}
	if got["source"] != "static_fallback" {
		t.Errorf("Expected static_fallback, got %v", got["source"])
	}
	if _, ok := got["error"]; ok {
		t.Errorf("Expected no error field without a model, got %v", got["error"])
	}
}

func TestGetPromptModelFailureFallsBack(t *testing.T) {
	h := newTestRouter(t, nil, llm.Static{Err: errors.New("upstream unavailable")})

	rr := doRequest(t, h, http.MethodGet, "/prompt?genre=adventure&mood=Fun%20Nostalgia", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	got := decodeBody[map[string]interface{}](t, rr)
	if got["source"] != "static_fallback" {
		t.Errorf("Expected static_fallback, got %v", got["source"])
	}
	if got["error"] != "upstream unavailable" {
		t.Errorf("Expected error text, got %v", got["error"])
	}
	if got["genre"] != "adventure" || got["mood"] != "fun_nostalgia" {
		t.Errorf("Unexpected genre/mood: %v", got)
	}
}

func TestGetPromptFromModel(t *testing.T) {
	h := newTestRouter(t, nil, llm.Static{Text: "Describe the summer you learned to swim.", Model: "gpt-4o-mini"})

	rr := doRequest(t, h, http.MethodGet, "/prompt?genre=memoir", "", "")
	got := decodeBody[map[string]interface{}](t, rr)
	if got["source"] != "azure_openai" {
		t.Errorf("Expected azure_openai, got %v", got["source"])
	}
	if got["prompt"] != "Describe the summer you learned to swim." {
		t.Errorf("Unexpected prompt %v", got["prompt"])
	}
	if got["model"] != "gpt-4o-mini" {
		t.Errorf("Unexpected model %v", got["model"])
	}
}

func TestNextPromptForNewUser(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rr := doRequest(t, h, http.MethodGet, "/prompts/next", "alice", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	got := decodeBody[map[string]interface{}](t, rr)
	if got["prompt_type"] != "new_topic" {
		t.Errorf("Expected new_topic, got %v", got["prompt_type"])
	}
	if text, _ := got["prompt_text"].(string); text == "" {
		t.Error("Expected prompt text")
	}

	if rr := doRequest(t, h, http.MethodGet, "/prompts/next", "", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without identity, got %d", rr.Code)
	}
}

func TestNextPromptContinuation(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	doRequest(t, h, http.MethodPost, "/stories", "alice", `{"title":"Half done","content":"The train left at dawn","completionStatus":0.4}`)

	got := decodeBody[map[string]interface{}](t, doRequest(t, h, http.MethodGet, "/prompts/next", "alice", ""))
	if got["prompt_type"] != "continuation" {
		t.Errorf("Expected continuation, got %v", got["prompt_type"])
	}
	if text, _ := got["prompt_text"].(string); !strings.Contains(text, "Half done") {
		t.Errorf("Expected prompt to reference the story title, got %q", text)
	}
}

func TestProfileLifecycle(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	got := decodeBody[map[string]interface{}](t, doRequest(t, h, http.MethodGet, "/profile", "alice", ""))
	if got["genre_selected"] != false || got["title_selected"] != false {
		t.Errorf("Expected default flags, got %v", got)
	}

	rr := doRequest(t, h, http.MethodPut, "/profile", "alice", `{"genre_selected":true,"favorite_genres":["adventure"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodPut, "/profile", "alice", `{"genre_selected":false}`)
	got = decodeBody[map[string]interface{}](t, rr)
	if got["genre_selected"] != true {
		t.Errorf("genre_selected must not revert, got %v", got["genre_selected"])
	}
}

func TestCreateUserAndToken(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rr := doRequest(t, h, http.MethodPost, "/users", "", `{"userId":"carol","displayName":"Carol"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodPost, "/users", "", `{"userId":"carol","displayName":"Carol"}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected 409 on duplicate, got %d", rr.Code)
	}

	rr = doRequest(t, h, http.MethodPost, "/users", "", `{"userId":"bad id!","displayName":"x"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed id, got %d", rr.Code)
	}

	rr = doRequest(t, h, http.MethodPost, "/users", "", `{"userId":"dana"}`)
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected 201 without displayName, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodPost, "/token", "", `{"userId":"carol"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	tok := decodeBody[map[string]string](t, rr)
	if tok["access_token"] != "carol" || tok["token_type"] != "bearer" {
		t.Errorf("Unexpected token response %v", tok)
	}

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+tok["access_token"])
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	got := decodeBody[map[string]interface{}](t, rr)
	if got["display_name"] != "Carol" {
		t.Errorf("Expected bearer token to resolve carol's profile, got %v", got)
	}
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rr := doRequest(t, h, http.MethodGet, "/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	got := decodeBody[map[string]interface{}](t, rr)
	if got["status"] != "ok" || got["mode"] != "no-auth" {
		t.Errorf("Unexpected health payload %v", got)
	}
	checks, _ := got["checks"].(map[string]interface{})
	if checks["database"] != "ok" || checks["llm"] != "static" {
		t.Errorf("Unexpected checks %v", checks)
	}
}

func TestMoods(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	got := decodeBody[[]map[string]string](t, doRequest(t, h, http.MethodGet, "/moods", "", ""))
	if len(got) != 5 {
		t.Errorf("Expected 5 moods, got %d", len(got))
	}
}

func TestGenres(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	got := decodeBody[[]string](t, doRequest(t, h, http.MethodGet, "/genres", "", ""))
	if len(got) != 4 || got[2] != "memoir" {
		t.Errorf("Unexpected genres %v", got)
	}
}

func TestPromptRateLimit(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	h := newTestRouter(t, limiter, nil)

	for i := 0; i < 2; i++ {
		if rr := doRequest(t, h, http.MethodGet, "/prompts/next", "alice", ""); rr.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, rr.Code)
		}
	}
	rr := doRequest(t, h, http.MethodGet, "/prompts/next", "alice", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	if rr := doRequest(t, h, http.MethodGet, "/prompts/next", "bob", ""); rr.Code != http.StatusOK {
		t.Errorf("Other users must not be throttled, got %d", rr.Code)
	}
}
