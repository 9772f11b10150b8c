package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jpalmerr/roster/dashboard"
	"github.com/jpalmerr/roster/internal/fetch"
	"github.com/jpalmerr/roster/internal/server"
	"github.com/jpalmerr/roster/internal/state"
	"github.com/jpalmerr/roster/internal/store"
	"github.com/jpalmerr/roster/internal/stream"
)

// Roster is the reactive state container behind a searchable, paginated
// user directory.
//
// Roster owns a single state record and derives a view model from it. Search
// text is debounced before it changes the record; pagination changes apply
// immediately. Every change of criteria or pagination dispatches one remote
// fetch and cancels the previous one, so the users shown always belong to
// the latest query.
//
// It is created using [New] with functional options. The query methods
// ([Roster.Subscribe], [Roster.ViewModel], [Roster.SubmitSearchText], ...)
// may be used right away; fetches are only dispatched once [Roster.Start]
// runs. The typical lifecycle is:
//
//	r, err := roster.New(roster.WithPort(8080))
//	if err != nil {
//	    slog.Error("failed to create roster", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	r.Start(ctx) // blocks until context cancelled
type Roster struct {
	title        string
	port         int
	baseURL      string
	debounce     time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger
	registry     *prometheus.Registry
	callbacks    []func(ViewModel)
	source       Source
	ownsSource   bool

	store      *store.MemoryStore
	criteria   *stream.Projection[string]
	pagination *stream.Projection[state.Pagination]
	users      *stream.Projection[[]state.User]
	loading    *stream.Projection[bool]
	failure    *stream.Projection[string]
	revision   *stream.Projection[uint64]
	view       *stream.Combined[state.View]
	queries    *stream.Combined[fetch.Query]
	search     *stream.Debouncer[string]
	fetcher    *fetch.Orchestrator

	mu      sync.Mutex
	started bool
	closed  bool
}

// New creates a new [Roster] instance with the given options.
//
// Options have sensible defaults:
//   - Criteria: "ngDominican"
//   - Page sizes: 5, 10, 20, 50 with 5 selected
//   - Debounce: 300ms
//   - Fetch timeout: 10 seconds
//   - Source: HTTP GET against https://randomuser.me/api/
//   - No HTTP server
//
// Returns an error if any option is invalid or the selected page size is
// not one of the page sizes.
//
// Example:
//
//	r, err := roster.New(
//	    roster.WithPageSizes(10, 25, 50),
//	    roster.WithPageSize(25),
//	    roster.WithDebounce(200 * time.Millisecond),
//	)
func New(opts ...Option) (*Roster, error) {
	cfg := &rosterConfig{
		baseURL:      DefaultBaseURL,
		criteria:     DefaultCriteria,
		pageSize:     DefaultPageSize,
		pageSizes:    DefaultPageSizes(),
		debounce:     stream.DefaultQuietPeriod,
		fetchTimeout: fetch.DefaultTimeout,
		decoder:      DefaultDecoder,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	initial, err := state.DefaultWith(cfg.criteria, cfg.pageSize, cfg.pageSizes)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination: %w", err)
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	r := &Roster{
		title:        cfg.title,
		port:         cfg.port,
		baseURL:      cfg.baseURL,
		debounce:     cfg.debounce,
		fetchTimeout: cfg.fetchTimeout,
		logger:       logger,
		registry:     registry,
		callbacks:    cfg.changeCallbacks,
		source:       cfg.source,
	}
	if r.source == nil {
		r.source = NewHTTPSource(cfg.decoder, cfg.headers)
		r.ownsSource = true
	}

	r.wire(initial)
	return r, nil
}

// wire builds the store, its projections, the view model and query streams,
// the search debouncer and the fetch orchestrator.
func (r *Roster) wire(initial state.State) {
	r.store = store.NewMemoryStore(initial, r.logger)

	r.criteria = stream.Project[state.State](r.store, func(s state.State) string {
		return s.Criteria
	}, stream.Comparable[string]())
	r.pagination = stream.Project[state.State](r.store, func(s state.State) state.Pagination {
		return s.Pagination
	}, state.Pagination.Equal)
	r.users = stream.Project[state.State](r.store, func(s state.State) []state.User {
		return s.Users
	}, state.EqualUsers)
	r.loading = stream.Project[state.State](r.store, func(s state.State) bool {
		return s.Loading
	}, stream.Comparable[bool]())
	r.failure = stream.Project[state.State](r.store, func(s state.State) string {
		return s.Err
	}, stream.Comparable[string]())
	r.revision = stream.Project[state.State](r.store, func(s state.State) uint64 {
		return s.Revision
	}, stream.Comparable[uint64]())

	r.view = stream.Combine(r.store, r.composeView, state.View.Equal,
		r.pagination, r.criteria, r.users, r.loading, r.failure)
	r.queries = stream.Combine(r.store, r.composeQuery, fetch.Query.Equal,
		r.criteria, r.pagination, r.revision)

	r.search = stream.NewDebouncer(r.debounce, func(text string) {
		if r.store.SetCriteria(text) {
			r.logger.Debug("search committed", "criteria", text)
		}
	})
	r.search.Seed(initial.Criteria)

	r.fetcher = fetch.NewOrchestrator(r.queries, r.source, r.store, fetch.Settings{
		BaseURL: r.baseURL,
		Timeout: r.fetchTimeout,
		Logger:  r.logger,
		Metrics: fetch.NewMetrics(r.registry),
	})
}

func (r *Roster) composeView() state.View {
	return state.View{
		Pagination: r.pagination.Value(),
		Criteria:   r.criteria.Value(),
		Users:      r.users.Value(),
		Loading:    r.loading.Value(),
		Error:      r.failure.Value(),
	}
}

func (r *Roster) composeQuery() fetch.Query {
	return fetch.Query{
		Criteria:   r.criteria.Value(),
		Pagination: r.pagination.Value(),
		Revision:   r.revision.Value(),
	}
}

// Start fetches the current query, keeps fetching on every change and, if a
// port is configured, serves the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The current query is fetched immediately, with loading set
//   - Every criteria or pagination change cancels the fetch in flight and dispatches a new one
//   - Change callbacks receive every new view model
//   - The dashboard is available at http://localhost:<port> when [WithPort] is set
//
// On return the Roster is closed: pending search input is discarded and no
// further fetches are made. Start may be called only once.
//
// Returns nil on graceful shutdown. Returns an error if the Roster was
// already started or closed, or if the HTTP server fails to start.
func (r *Roster) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return errors.New("roster already started or closed")
	}
	r.started = true
	r.mu.Unlock()

	// check if context already cancelled
	if ctx.Err() != nil {
		r.Close()
		return nil
	}

	snap := r.store.Snapshot()
	r.logger.Info("roster starting",
		"base_url", r.baseURL,
		"criteria", snap.Criteria,
		"page_size", snap.Pagination.SelectedSize,
		"debounce", r.debounce.String(),
		"fetch_timeout", r.fetchTimeout.String(),
	)

	subs := make([]stream.Subscription, 0, len(r.callbacks))
	for _, cb := range r.callbacks {
		subs = append(subs, r.view.Subscribe(func(vm state.View) {
			invokeCallbackSafe(cb, cloneView(vm), r.logger)
		}))
	}

	// cleanup stops fetching and detaches callbacks
	cleanup := func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		r.Close()
	}

	r.store.Reload()
	r.fetcher.Start(ctx)

	if r.port > 0 {
		httpServer := server.NewServer(r, r.port, dashboard.Assets, r.title, r.registry, r.logger)
		if err := httpServer.Start(ctx); err != nil {
			cleanup()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		r.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", r.port))
	}

	<-ctx.Done()
	cleanup()
	r.logger.Info("roster stopped")
	return nil
}

// Close stops the debouncer and the fetch orchestrator and detaches all
// derived streams. The Roster keeps its last state but no longer changes:
// later selections return [ErrClosed] and search input and reloads are
// ignored.
//
// Close is idempotent. It is called by [Roster.Start] on return; call it
// directly only for a Roster that is never started.
func (r *Roster) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.search.Stop()
	r.fetcher.Stop()
	r.store.Close()

	r.view.Close()
	r.queries.Close()
	for _, p := range []interface{ Close() }{
		r.criteria, r.pagination, r.users, r.loading, r.failure, r.revision,
	} {
		p.Close()
	}

	if r.ownsSource {
		if closer, ok := r.source.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}

// Subscribe registers fn for every new view model and returns a function
// that cancels the subscription.
//
// fn receives the current view model first, then one value per state
// transition that changed it. A single transition never produces more than
// one value, and consecutive equal values are suppressed. fn may call the
// state-changing methods; the resulting view model is delivered after fn
// returns.
func (r *Roster) Subscribe(fn func(ViewModel)) (unsubscribe func()) {
	sub := r.view.Subscribe(func(vm state.View) {
		fn(cloneView(vm))
	})
	return sub.Unsubscribe
}

// ViewModel returns the latest view model.
func (r *Roster) ViewModel() ViewModel {
	return cloneView(r.view.Value())
}

// Snapshot returns the complete current state.
func (r *Roster) Snapshot() State {
	return r.store.Snapshot()
}

// SubmitSearchText feeds raw search input into the debouncer.
//
// The criteria changes once the input has been quiet for the debounce
// period, and only if the settled text differs from the current criteria.
func (r *Roster) SubmitSearchText(raw string) {
	r.search.Push(raw)
}

// SelectPageSize selects a page size and resets the current page to 0.
// The change applies immediately.
//
// Returns [ErrInvalidPageSize], with no state change, if size is not one of
// the configured page sizes, and [ErrClosed] once the Roster is closed.
func (r *Roster) SelectPageSize(size int) error {
	return r.SelectPage(size, 0)
}

// SelectPage selects a page size and a zero-based page. The change applies
// immediately.
//
// Returns [ErrInvalidPageSize] or [ErrInvalidPage], with no state change,
// if the selection is invalid, and [ErrClosed] once the Roster is closed.
// Selecting the current page and size again is a no-op.
func (r *Roster) SelectPage(size, page int) error {
	changed, err := r.store.SetPagination(size, page)
	if err != nil {
		return err
	}
	if changed {
		r.logger.Debug("pagination selected", "size", size, "page", page)
	}
	return nil
}

// Reload fetches the current query again. Useful after a failed fetch.
// It does nothing once the Roster is closed.
func (r *Roster) Reload() {
	r.store.Reload()
}

// Phase returns the fetch orchestrator's current phase.
func (r *Roster) Phase() Phase {
	return r.fetcher.Phase()
}

// Port returns the configured HTTP port, zero if no server is started.
func (r *Roster) Port() int {
	return r.port
}

// Title returns the configured dashboard title.
func (r *Roster) Title() string {
	return r.title
}

// BaseURL returns the configured remote endpoint.
func (r *Roster) BaseURL() string {
	return r.baseURL
}

// PageSizes returns a copy of the allowed page sizes.
func (r *Roster) PageSizes() []int {
	return slices.Clone(r.store.Snapshot().Pagination.PageSizes)
}

// Registry returns the Prometheus registry holding the fetch metrics.
func (r *Roster) Registry() *prometheus.Registry {
	return r.registry
}

// invokeCallbackSafe calls a change callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe(cb func(ViewModel), vm ViewModel, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("change callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(vm)
}
