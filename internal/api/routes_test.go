package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/cache"
	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/internal/queue"
	"github.com/ombresaco/shortsmaker/internal/store"
	"github.com/ombresaco/shortsmaker/internal/venue"
)

type fakeSegments struct {
	calls int
}

func (f *fakeSegments) Process(_ context.Context, req venue.Request, _ media.ProgressFunc) (venue.Result, error) {
	f.calls++
	return venue.Result{Path: "/cache/" + req.SourceID + ".mp4", Venue: "server-cached"}, nil
}

type fakeAuth struct{ ok bool }

func (f fakeAuth) Authenticated() bool { return f.ok }

func newTestRouter(t *testing.T) (*chiTestEnv, http.Handler) {
	t.Helper()

	cacheDir := t.TempDir()
	cacheStore, err := cache.New(zerolog.Nop(), cacheDir, cache.Options{})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	st, err := store.Open(zerolog.Nop(), filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	env := &chiTestEnv{
		segments: &fakeSegments{},
		queue:    queue.NewManager(zerolog.Nop(), nil, nil),
		cacheDir: cacheDir,
		cache:    cacheStore,
		store:    st,
	}

	router := NewRouter(ServerConfig{
		Logger:    zerolog.Nop(),
		Queue:     env.queue,
		Segments:  env.segments,
		Store:     st,
		Cache:     cacheStore,
		Auth:      fakeAuth{ok: true},
		StartTime: time.Now(),
		Version:   "test",
	})
	return env, router
}

type chiTestEnv struct {
	segments *fakeSegments
	queue    *queue.Manager
	cacheDir string
	cache    *cache.Store
	store    *store.Store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	_, h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("health %+v", resp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no request id header")
	}
}

func TestProcessValidation(t *testing.T) {
	env, h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/process", ProcessRequest{StartTime: 0, EndTime: 10})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing videoId: status %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/process", ProcessRequest{VideoID: "vid1", StartTime: 10, EndTime: 10})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty range: status %d", rec.Code)
	}

	if env.segments.calls != 0 {
		t.Errorf("invalid requests reached the processor: %d calls", env.segments.calls)
	}
}

func TestProcessSuccess(t *testing.T) {
	env, h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/process", ProcessRequest{VideoID: "vid1", StartTime: 0, EndTime: 30})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp ProcessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Venue != "server-cached" || resp.Path == "" {
		t.Errorf("response %+v", resp)
	}
	if env.segments.calls != 1 {
		t.Errorf("processor called %d times", env.segments.calls)
	}
}

func TestQueueMergeOverHTTPIsIdempotent(t *testing.T) {
	_, h := newTestRouter(t)

	body := MergeRequest{Items: []queue.Item{
		{VideoID: "vid1", SegmentIndex: 0, StartTime: 0, EndTime: 30, UploadTitle: "Part 1"},
	}}

	rec := doJSON(t, h, http.MethodPost, "/api/queue/", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var first MergeResponse
	json.Unmarshal(rec.Body.Bytes(), &first)
	if first.Added != 1 {
		t.Errorf("first merge added %d, want 1", first.Added)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/queue/", body)
	var second MergeResponse
	json.Unmarshal(rec.Body.Bytes(), &second)
	if second.Added != 0 {
		t.Errorf("repeat merge added %d, want 0", second.Added)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/queue/", nil)
	var listed QueueResponse
	json.Unmarshal(rec.Body.Bytes(), &listed)
	if len(listed.Items) != 1 {
		t.Errorf("%d items listed, want 1", len(listed.Items))
	}
}

func TestQueueItemPatchAndDelete(t *testing.T) {
	env, h := newTestRouter(t)
	item := env.queue.Add(queue.Item{VideoID: "vid1", StartTime: 0, EndTime: 30})

	rec := doJSON(t, h, http.MethodPatch, "/api/queue/"+item.ID, QueuePatchRequest{Status: strPtr("bogus")})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus status accepted: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPatch, "/api/queue/"+item.ID, QueuePatchRequest{Status: strPtr("error"), Error: strPtr("boom")})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status %d", rec.Code)
	}
	var patched queue.Item
	json.Unmarshal(rec.Body.Bytes(), &patched)
	if patched.Status != queue.StatusError || patched.Error != "boom" {
		t.Errorf("patched %+v", patched)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/queue/"+item.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/queue/"+item.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status %d, want 404", rec.Code)
	}
}

func TestTitleOverrideInvalidatesSegmentCache(t *testing.T) {
	env, h := newTestRouter(t)

	// Seed two cached segments for vid1 and one for another source.
	for _, name := range []string{"vid1_0.00-30.00_abc.mp4", "vid1_30.00-60.00_abc.mp4", "other_0.00-10.00_abc.mp4"} {
		if err := os.WriteFile(filepath.Join(env.cacheDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	rec := doJSON(t, h, http.MethodPost, "/api/videos/vid1/title", TitleRequest{Title: "New Title"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp TitleResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Changed || resp.Invalidated != 2 {
		t.Errorf("response %+v, want changed with 2 invalidated", resp)
	}

	// Same title again: no change, nothing invalidated.
	rec = doJSON(t, h, http.MethodPost, "/api/videos/vid1/title", TitleRequest{Title: "New Title"})
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Changed || resp.Invalidated != 0 {
		t.Errorf("repeat response %+v, want unchanged", resp)
	}

	if _, err := os.Stat(filepath.Join(env.cacheDir, "other_0.00-10.00_abc.mp4")); err != nil {
		t.Error("unrelated source's cache entry was removed")
	}
}

func TestAuthStatus(t *testing.T) {
	_, h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/api/auth/status", nil)
	var resp AuthStatusResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Authenticated {
		t.Error("expected authenticated=true from fake auth")
	}
}

func strPtr(s string) *string { return &s }
