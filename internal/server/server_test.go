package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jpalmerr/infopulse/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"assets/index.html": &fstest.MapFile{Data: []byte("<title>{{.Title}}</title><h1>{{.Title}}</h1>")},
	}
}

func seeded() *store.MemoryStore {
	st := store.NewMemoryStore("test", true)
	st.Apply(store.Update{
		Outcome: store.Outcome{Seq: 1, OK: true, StatusCode: 200},
		Info:    &store.ServerInfo{Uptime: 12345, Count: 7},
	})
	return st
}

// freePort asks the kernel for an unused port.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port
}

// --- Tests ---

func TestHandleState(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, nil, "", testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var snap store.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	if snap.Info.Uptime != 12345 || snap.Info.Count != 7 {
		t.Errorf("Info = %+v, want {12345 7}", snap.Info)
	}
	if snap.Instance != "test" {
		t.Errorf("Instance = %q, want %q", snap.Instance, "test")
	}
}

func TestHandleState_JSONFieldNames(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, nil, "", testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"instance", "clicks", "info", "last", "applied_seq", "failures", "updated_at"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("state JSON missing %q: %s", key, rec.Body.String())
		}
	}

	var info map[string]float64
	if err := json.Unmarshal(raw["info"], &info); err != nil {
		t.Fatalf("invalid info JSON: %v", err)
	}
	if info["uptime"] != 12345 || info["count"] != 7 {
		t.Errorf("info = %v, want uptime 12345 count 7", info)
	}
}

func TestHandleState_MethodNotAllowed(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, nil, "", testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/state", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleClick(t *testing.T) {
	st := store.NewMemoryStore("", true)
	srv := NewServer(st, nil, 0, nil, "", testLogger())

	var last store.Snapshot
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/click", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("click %d status = %d, want 200", i, rec.Code)
		}
		if err := json.NewDecoder(rec.Body).Decode(&last); err != nil {
			t.Fatalf("failed to decode click response: %v", err)
		}
	}

	if last.Clicks != 3 {
		t.Errorf("Clicks = %d, want 3", last.Clicks)
	}
	if got := st.Snapshot().Clicks; got != 3 {
		t.Errorf("store Clicks = %d, want 3", got)
	}
}

func TestHandleClick_UsesClickFunc(t *testing.T) {
	st := store.NewMemoryStore("", true)
	var calls atomic.Int32
	click := func() store.Snapshot {
		calls.Add(1)
		return st.Increment()
	}
	srv := NewServer(st, click, 0, nil, "", testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/click", nil))

	if calls.Load() != 1 {
		t.Errorf("click func called %d times, want 1", calls.Load())
	}
}

func TestHandleClick_GetNotAllowed(t *testing.T) {
	st := store.NewMemoryStore("", true)
	srv := NewServer(st, nil, 0, nil, "", testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/click", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if got := st.Snapshot().Clicks; got != 0 {
		t.Errorf("Clicks = %d after GET, want 0", got)
	}
}

func TestHandleView(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, nil, "", testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/view", nil))

	want := "count is 0\nAPI Info\nUptime: 12.345 seconds\nCount: 7\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestHandlePage_TitleEscaped(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, testAssets(), `<script>alert("x")</script>`, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Errorf("title not escaped: %s", body)
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("escaped title missing: %s", body)
	}
}

func TestHandlePage_DefaultTitle(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, testAssets(), "", testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Body.String(), "<title>InfoPulse</title>") {
		t.Errorf("default title missing: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), titlePlaceholder) {
		t.Error("placeholder not replaced")
	}
}

func TestHandlePage_UnknownPath(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, testAssets(), "", testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleSSE_InitialState(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, nil, "", testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	body := rec.Body.String()
	if !strings.HasPrefix(body, "data: {") {
		t.Errorf("expected SSE data frame, got: %s", body)
	}
	if !strings.Contains(body, `"count":7`) {
		t.Errorf("initial state missing, got: %s", body)
	}
}

func TestHandleSSE_StreamsUpdates(t *testing.T) {
	st := store.NewMemoryStore("", true)
	srv := NewServer(st, nil, 0, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)

	st.Increment()
	st.Increment()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	body := rec.Body.String()
	if got := strings.Count(body, "data: "); got != 3 {
		t.Errorf("frames = %d, want 3 (initial + 2 clicks), body: %s", got, body)
	}
	if !strings.Contains(body, `"clicks":2`) {
		t.Errorf("streamed click update missing, got: %s", body)
	}
}

func TestHandleSSE_Headers(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, nil, "", testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	expectedHeaders := map[string]string{
		"Content-Type":  "text/event-stream",
		"Cache-Control": "no-cache",
		"Connection":    "keep-alive",
	}
	for key, expected := range expectedHeaders {
		if got := rec.Header().Get(key); got != expected {
			t.Errorf("header %s = %q, want %q", key, got, expected)
		}
	}
}

func TestHandleSSE_ConcurrentClientsShutdown(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, nil, "", testLogger())

	serverCtx, serverCancel := context.WithCancel(context.Background())

	numClients := 10
	var wg sync.WaitGroup
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(serverCtx)
			srv.handleSSE(httptest.NewRecorder(), req)
		}()
	}

	time.Sleep(100 * time.Millisecond)
	serverCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all handlers exited after shutdown")
	}
}

type nonFlushWriter struct {
	header     http.Header
	statusCode int
	body       []byte
}

func (n *nonFlushWriter) Header() http.Header {
	return n.header
}

func (n *nonFlushWriter) Write(b []byte) (int, error) {
	n.body = append(n.body, b...)
	return len(b), nil
}

func (n *nonFlushWriter) WriteHeader(statusCode int) {
	n.statusCode = statusCode
}

func TestHandleSSE_SSENotSupported(t *testing.T) {
	srv := NewServer(seeded(), nil, 0, nil, "", testLogger())

	w := &nonFlushWriter{header: make(http.Header)}
	srv.handleSSE(w, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	if w.statusCode != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.statusCode)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	port := freePort(t)
	srv := NewServer(seeded(), nil, port, testAssets(), "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/view", port))
	if err != nil {
		t.Fatalf("GET /api/view error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(body), "Count: 7") {
		t.Errorf("body = %q, want rendered view", body)
	}

	cancel()

	// port should be released after shutdown
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/view", port))
		if err != nil {
			return
		}
		_ = resp.Body.Close()
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("server still serving after context cancellation")
}

func TestServer_StartPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := NewServer(seeded(), nil, port, nil, "", testLogger())
	if err := srv.Start(context.Background()); err == nil {
		t.Error("Start() expected error for port in use, got nil")
	}
}
