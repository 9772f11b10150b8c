package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/roster/internal/state"
	"github.com/jpalmerr/roster/internal/stream"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockBackend implements Backend for testing.
type mockBackend struct {
	views *stream.Subject[state.View]

	mu       sync.Mutex
	searches []string
	pages    [][2]int
	reloads  int
}

func newMockBackend(initial state.View) *mockBackend {
	b := &mockBackend{views: stream.NewSubject(state.View.Equal)}
	b.views.Next(initial)
	return b
}

func (m *mockBackend) publish(v state.View) {
	m.views.Next(v)
}

func (m *mockBackend) ViewModel() state.View {
	return m.views.Value()
}

func (m *mockBackend) Subscribe(fn func(state.View)) func() {
	return m.views.Subscribe(fn).Unsubscribe
}

func (m *mockBackend) SubmitSearchText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, text)
}

func (m *mockBackend) SelectPage(size, page int) error {
	if err := state.ValidatePageSize(state.DefaultPageSizes, size); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, [2]int{size, page})
	return nil
}

func (m *mockBackend) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads++
}

func defaultView() state.View {
	return state.Default().View()
}

func viewWithUsers(criteria string, names ...string) state.View {
	v := defaultView()
	v.Criteria = criteria
	for _, n := range names {
		v.Users = append(v.Users, state.User{Gender: "female", Name: state.Name{First: n, Last: "Test"}})
	}
	return v
}

// parseSSEEvents extracts view models from SSE formatted data.
func parseSSEEvents(body string) []state.View {
	var views []state.View
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			var v state.View
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &v); err == nil {
				views = append(views, v)
			}
		}
	}
	return views
}

// --- SSE tests ---

func TestHandleSSE_BasicFlow(t *testing.T) {
	mb := newMockBackend(viewWithUsers("abc", "Ana", "Bea"))
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	rec := httptest.NewRecorder()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	srv.handleSSE(rec, req)

	events := parseSSEEvents(rec.Body.String())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (current view model)", len(events))
	}
	if events[0].Criteria != "abc" || len(events[0].Users) != 2 {
		t.Errorf("event = %+v", events[0])
	}
}

func TestHandleSSE_StreamsUpdates(t *testing.T) {
	mb := newMockBackend(defaultView())
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	rec := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)

	mb.publish(viewWithUsers("streamed", "Cleo"))

	// give time for update to be written
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	events := parseSSEEvents(rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Criteria != "streamed" {
		t.Errorf("last event criteria = %q, want streamed", events[1].Criteria)
	}
}

func TestHandleSSE_ClientDisconnect(t *testing.T) {
	mb := newMockBackend(defaultView())
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	rec := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// simulate client disconnect
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not exit after client disconnect")
	}

	// the subscription must be released: later publishes must not block or panic
	mb.publish(viewWithUsers("after"))
}

func TestHandleSSE_NoGoroutineLeaks(t *testing.T) {
	// allow existing goroutines to settle
	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	before := runtime.NumGoroutine()

	mb := newMockBackend(defaultView())
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
			req = req.WithContext(ctx)
			rec := httptest.NewRecorder()

			srv.handleSSE(rec, req)
		}()
	}

	wg.Wait()

	// allow cleanup
	runtime.GC()
	time.Sleep(200 * time.Millisecond)

	after := runtime.NumGoroutine()
	if after > before+2 { // small tolerance for runtime variance
		t.Errorf("potential goroutine leak: before=%d, after=%d", before, after)
	}
}

func TestHandleSSE_ConcurrentClientsShutdown(t *testing.T) {
	mb := newMockBackend(defaultView())
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	serverCtx, serverCancel := context.WithCancel(context.Background())

	numClients := 10
	var wg sync.WaitGroup
	started := make(chan struct{})
	var startedCount atomic.Int32

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
			req = req.WithContext(serverCtx)
			rec := httptest.NewRecorder()

			// use Add's return value to ensure only one goroutine closes the channel
			if startedCount.Add(1) == int32(numClients) {
				close(started)
			}

			srv.handleSSE(rec, req)
		}()
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("clients did not start in time")
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

func TestHandleSSE_SSENotSupported(t *testing.T) {
	mb := newMockBackend(defaultView())
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)

	// use a writer that doesn't support flushing
	w := &nonFlushWriter{header: make(http.Header)}

	srv.handleSSE(w, req)

	if w.statusCode != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.statusCode)
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

func TestHandleSSE_Headers(t *testing.T) {
	mb := newMockBackend(defaultView())
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	expectedHeaders := map[string]string{
		"Content-Type":                "text/event-stream",
		"Cache-Control":               "no-cache",
		"Connection":                  "keep-alive",
		"Access-Control-Allow-Origin": "*",
	}

	for key, expected := range expectedHeaders {
		if got := rec.Header().Get(key); got != expected {
			t.Errorf("header %s = %q, want %q", key, got, expected)
		}
	}
}

func TestHandleSSE_JSONFormat(t *testing.T) {
	v := viewWithUsers("json", "Dana")
	v.Loading = true
	v.Error = "previous failure"
	mb := newMockBackend(v)
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	body := rec.Body.String()
	for _, field := range []string{`"pagination"`, `"selectedSize":5`, `"currentPage":0`, `"pageSizes":[5,10,20,50]`, `"criteria":"json"`, `"loading":true`, `"error":"previous failure"`, `"first":"Dana"`} {
		if !strings.Contains(body, field) {
			t.Errorf("SSE body missing %s: %s", field, body)
		}
	}
}

// TestHandleSSE_ServerShutdownIntegration tests that SSE handlers exit cleanly
// when the server is shut down, using a real HTTP connection.
func TestHandleSSE_ServerShutdownIntegration(t *testing.T) {
	mb := newMockBackend(viewWithUsers("integration"))
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	serverCtx, serverCancel := context.WithCancel(context.Background())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// derive request context from server context (simulates BaseContext)
		r = r.WithContext(serverCtx)
		srv.handleSSE(w, r)
	})
	ts := httptest.NewServer(handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// read the replayed event
	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("failed to read first event: %v", err)
	}
	if !strings.Contains(line, "integration") {
		t.Errorf("first event = %q", line)
	}

	serverCancel()

	// the stream must end once the handler returns
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, reader)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("SSE stream did not end after shutdown")
	}
}

// --- REST API tests ---

func TestHandleState(t *testing.T) {
	mb := newMockBackend(viewWithUsers("state", "Eve"))
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got state.View
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !got.Equal(mb.ViewModel()) {
		t.Errorf("view = %+v, want %+v", got, mb.ViewModel())
	}
}

func TestHandleSearch(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantText   []string
	}{
		{"valid", `{"text":"abc"}`, http.StatusAccepted, []string{"abc"}},
		{"empty text", `{"text":""}`, http.StatusAccepted, []string{""}},
		{"malformed", `{"text":`, http.StatusBadRequest, nil},
		{"unknown field", `{"query":"abc"}`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb := newMockBackend(defaultView())
			srv := NewServer(mb, 0, nil, "", nil, testLogger())

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(tt.body))
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if len(mb.searches) != len(tt.wantText) {
				t.Fatalf("searches = %v, want %v", mb.searches, tt.wantText)
			}
			for i := range tt.wantText {
				if mb.searches[i] != tt.wantText[i] {
					t.Errorf("searches[%d] = %q, want %q", i, mb.searches[i], tt.wantText[i])
				}
			}
		})
	}
}

func TestHandlePagination(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantPages  int
		wantError  string
	}{
		{"valid", `{"size":20,"page":2}`, http.StatusAccepted, 1, ""},
		{"page defaults to zero", `{"size":10}`, http.StatusAccepted, 1, ""},
		{"invalid size", `{"size":7,"page":0}`, http.StatusBadRequest, 0, "page size"},
		{"malformed", `not json`, http.StatusBadRequest, 0, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb := newMockBackend(defaultView())
			srv := NewServer(mb, 0, nil, "", nil, testLogger())

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/pagination", strings.NewReader(tt.body))
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if len(mb.pages) != tt.wantPages {
				t.Errorf("pages = %v, want %d selections", mb.pages, tt.wantPages)
			}
			if tt.wantError != "" {
				var resp errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("invalid error JSON: %v", err)
				}
				if !strings.Contains(resp.Error, tt.wantError) {
					t.Errorf("error = %q, want to contain %q", resp.Error, tt.wantError)
				}
			}
		})
	}
}

func TestHandleReload(t *testing.T) {
	mb := newMockBackend(defaultView())
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if mb.reloads != 1 {
		t.Errorf("reloads = %d, want 1", mb.reloads)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	mb := newMockBackend(defaultView())
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/state"},
		{http.MethodGet, "/api/search"},
		{http.MethodDelete, "/api/pagination"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s status = %d, want 405", tt.method, tt.path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "roster_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	mb := newMockBackend(defaultView())

	t.Run("enabled", func(t *testing.T) {
		srv := NewServer(mb, 0, nil, "", reg, testLogger())
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "roster_test_total 1") {
			t.Errorf("metrics body missing counter: %s", rec.Body.String())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		srv := NewServer(mb, 0, nil, "", nil, testLogger())
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

// --- Server Start tests ---

func TestStart_AvailablePort_ReturnsNil(t *testing.T) {
	mb := newMockBackend(defaultView())
	// port 0 = OS assigns available port
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Errorf("Start() on available port returned error: %v", err)
	}
}

func TestStart_ServesAPI(t *testing.T) {
	// reserve a free port
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	mb := newMockBackend(viewWithUsers("live", "Fay"))
	srv := NewServer(mb, port, nil, "", nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/state", port))
	if err != nil {
		t.Fatalf("GET /api/state failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var got state.View
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Criteria != "live" {
		t.Errorf("Criteria = %q, want live", got.Criteria)
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port

	mb := newMockBackend(defaultView())
	srv := NewServer(mb, port, nil, "", nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("expected bind error, got: %v", err)
	}
}

func TestStart_InvalidPort_ReturnsError(t *testing.T) {
	mb := newMockBackend(defaultView())
	srv := NewServer(mb, -1, nil, "", nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err == nil {
		t.Fatal("Start() with invalid port should return error")
	}
}

// --- Benchmark ---

func BenchmarkHandleSSE_SingleClient(b *testing.B) {
	mb := newMockBackend(viewWithUsers("bench", "A", "B", "C", "D", "E"))
	srv := NewServer(mb, 0, nil, "", nil, testLogger())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()

		srv.handleSSE(rec, req)
		cancel()
	}
}

// --- Dashboard tests ---

// mockFS implements fs.ReadFileFS for testing dashboard rendering.
type mockFS struct {
	content string
}

func (m *mockFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *mockFS) ReadFile(name string) ([]byte, error) {
	if name == "assets/index.html" {
		return []byte(m.content), nil
	}
	return nil, fs.ErrNotExist
}

func TestHandleDashboard_CustomTitle(t *testing.T) {
	mb := newMockBackend(defaultView())
	mockAssets := &mockFS{content: "<title>{{.Title}}</title><h1>{{.Title}}</h1>"}
	srv := NewServer(mb, 0, mockAssets, "People Directory", nil, testLogger())

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "<title>People Directory</title>") {
		t.Errorf("expected title tag with custom title, got: %s", body)
	}
	if !strings.Contains(body, "<h1>People Directory</h1>") {
		t.Errorf("expected h1 with custom title, got: %s", body)
	}
}

func TestHandleDashboard_DefaultTitle(t *testing.T) {
	mb := newMockBackend(defaultView())
	mockAssets := &mockFS{content: "<title>{{.Title}}</title><h1>{{.Title}}</h1>"}
	srv := NewServer(mb, 0, mockAssets, "", nil, testLogger())

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "<title>Roster</title>") {
		t.Errorf("expected default title Roster, got: %s", body)
	}
}

func TestHandleDashboard_AssetsMissing(t *testing.T) {
	mb := newMockBackend(defaultView())
	srv := NewServer(mb, 0, nil, "Custom Title", nil, testLogger())

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestHandleDashboard_NonRootPath(t *testing.T) {
	mb := newMockBackend(defaultView())
	mockAssets := &mockFS{content: "<title>{{.Title}}</title>"}
	srv := NewServer(mb, 0, mockAssets, "", nil, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d for non-root path, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHandleDashboard_TitleWithHTMLChars(t *testing.T) {
	mb := newMockBackend(defaultView())
	mockAssets := &mockFS{content: "<title>{{.Title}}</title>"}
	srv := NewServer(mb, 0, mockAssets, "<script>alert('xss')</script>", nil, testLogger())

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("title should be HTML-escaped to prevent XSS")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("expected escaped HTML, got: %s", body)
	}
}

func TestHandleDashboard_TitleWithAmpersand(t *testing.T) {
	mb := newMockBackend(defaultView())
	mockAssets := &mockFS{content: "<title>{{.Title}}</title>"}
	srv := NewServer(mb, 0, mockAssets, "Staff & Guests", nil, testLogger())

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Body.String(), "Staff &amp; Guests") {
		t.Errorf("expected ampersand to be escaped, got: %s", rec.Body.String())
	}
}
