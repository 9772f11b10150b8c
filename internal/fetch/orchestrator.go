package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/roster/internal/state"
	"github.com/jpalmerr/roster/internal/stream"
)

// DefaultTimeout bounds a single remote fetch.
const DefaultTimeout = 10 * time.Second

// Query is the combined input of one fetch.
type Query struct {
	Criteria   string
	Pagination state.Pagination

	// Revision is the store revision that started the fetch. It doubles as
	// the request token.
	Revision uint64
}

// Equal reports whether two queries are identical.
func (q Query) Equal(o Query) bool {
	return q.Criteria == o.Criteria &&
		q.Revision == o.Revision &&
		q.Pagination.Equal(o.Pagination)
}

// Phase is the orchestrator's coarse state.
type Phase int

const (
	// PhaseIdle means no request is in flight.
	PhaseIdle Phase = iota

	// PhaseFetching means the latest request is waiting on the source.
	PhaseFetching

	// PhaseApplying means the latest result is being written to the store.
	PhaseApplying
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseApplying:
		return "applying"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Applier receives fetch outcomes. Both methods apply only when token is
// still the latest revision and report whether they did.
type Applier interface {
	ApplyFetchResultFor(token uint64, users []state.User) bool
	ApplyFetchFailureFor(token uint64, err error) bool
}

// Settings configures an [Orchestrator].
type Settings struct {
	// BaseURL is the remote endpoint. Empty uses [DefaultBaseURL].
	BaseURL string

	// Timeout bounds each fetch. Zero uses [DefaultTimeout].
	Timeout time.Duration

	// Logger receives dispatch, stale-drop and failure events.
	Logger *slog.Logger

	// Metrics records fetch outcomes. May be nil.
	Metrics *Metrics
}

// Orchestrator issues one remote request per query and applies only the
// result of the most recent one.
//
// For every query the orchestrator cancels the context of the request in
// flight, if any, and starts a new request tagged with the query's revision.
// Results tagged with anything other than the latest revision are dropped,
// whatever order they arrive in. The store performs the same comparison
// atomically, so a result racing a transition that happens between dispatch
// and apply is also dropped.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Orchestrator struct {
	queries stream.Observable[Query]
	source  Source
	applier Applier
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics

	wg sync.WaitGroup

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	sub       stream.Subscription
	started   bool
	stopped   bool
	latest    uint64
	hasLatest bool
	inflight  context.CancelFunc
	phase     Phase
}

// NewOrchestrator creates an [Orchestrator] reading queries and writing
// outcomes to applier.
//
// The orchestrator must be started with [Orchestrator.Start] and stopped
// with [Orchestrator.Stop].
func NewOrchestrator(queries stream.Observable[Query], source Source, applier Applier, settings Settings) *Orchestrator {
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}
	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}
	if settings.Logger == nil {
		settings.Logger = slog.Default()
	}
	return &Orchestrator{
		queries: queries,
		source:  source,
		applier: applier,
		baseURL: settings.BaseURL,
		timeout: settings.Timeout,
		logger:  settings.Logger,
		metrics: settings.Metrics,
	}
}

// Start subscribes to the query stream.
//
// Start is non-blocking. Because the query stream replays its latest value,
// the current query is dispatched before Start returns. Requests are bound
// to ctx; cancelling it has the same effect on in-flight requests as
// [Orchestrator.Stop], except that the subscription stays open.
//
// If ctx is nil, context.Background() is used. Start is idempotent; if Stop
// was called before Start, Start is a no-op.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.started || o.stopped {
		o.mu.Unlock()
		return
	}
	o.started = true
	if ctx == nil {
		ctx = context.Background()
	}
	o.ctx, o.cancel = context.WithCancel(ctx)
	o.mu.Unlock()

	sub := o.queries.Subscribe(o.onQuery)

	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	o.sub = sub
	o.mu.Unlock()
}

// Stop unsubscribes, cancels any in-flight request and waits for its
// goroutine to finish. Results of cancelled requests are not applied.
//
// Stop is idempotent and safe to call before Start.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		o.wg.Wait()
		return
	}
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
	sub := o.sub
	o.sub = nil
	o.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	o.wg.Wait()

	o.mu.Lock()
	o.phase = PhaseIdle
	o.inflight = nil
	o.mu.Unlock()
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// onQuery dispatches q unless it is not newer than the latest dispatched
// query. It never blocks: the remote call runs on its own goroutine.
func (o *Orchestrator) onQuery(q Query) {
	o.mu.Lock()
	if o.stopped || o.ctx == nil {
		o.mu.Unlock()
		return
	}
	if o.hasLatest && q.Revision <= o.latest {
		o.mu.Unlock()
		return
	}

	if o.inflight != nil {
		o.inflight()
	}
	reqCtx, cancel := context.WithTimeout(o.ctx, o.timeout)
	parent := o.ctx
	o.latest = q.Revision
	o.hasLatest = true
	o.inflight = cancel
	o.phase = PhaseFetching
	o.wg.Add(1)
	o.mu.Unlock()

	o.metrics.started()
	o.logger.Debug("fetch dispatched",
		"token", q.Revision,
		"criteria", q.Criteria,
		"page", q.Pagination.CurrentPage,
		"size", q.Pagination.SelectedSize,
	)

	go o.run(parent, reqCtx, cancel, q)
}

// run performs one fetch and hands the outcome to the applier if it is
// still current.
func (o *Orchestrator) run(parent, ctx context.Context, cancel context.CancelFunc, q Query) {
	defer o.wg.Done()
	defer cancel()

	start := time.Now()
	users, err := o.fetch(ctx, q)
	elapsed := time.Since(start)

	o.mu.Lock()
	current := q.Revision == o.latest && parent.Err() == nil
	if current {
		o.phase = PhaseApplying
	}
	o.mu.Unlock()

	if !current {
		o.drop(q, elapsed)
		return
	}

	var applied bool
	if err != nil {
		applied = o.applier.ApplyFetchFailureFor(q.Revision, err)
		if applied {
			o.metrics.finished(outcomeFailure, elapsed)
			o.logger.Warn("fetch failed",
				"token", q.Revision,
				"criteria", q.Criteria,
				"error", err,
			)
		}
	} else {
		applied = o.applier.ApplyFetchResultFor(q.Revision, users)
		if applied {
			o.metrics.finished(outcomeSuccess, elapsed)
			o.logger.Debug("fetch applied",
				"token", q.Revision,
				"users", len(users),
				"latency", elapsed,
			)
		}
	}
	if !applied {
		o.drop(q, elapsed)
	}

	o.mu.Lock()
	if o.latest == q.Revision {
		o.phase = PhaseIdle
		o.inflight = nil
	}
	o.mu.Unlock()
}

func (o *Orchestrator) drop(q Query, elapsed time.Duration) {
	o.metrics.finished(outcomeStale, elapsed)
	o.logger.Debug("fetch result dropped",
		"token", q.Revision,
		"reason", ErrStaleResult,
	)
}

// fetch builds the request and calls the source, giving up when ctx is done
// even if the source does not return.
func (o *Orchestrator) fetch(ctx context.Context, q Query) ([]state.User, error) {
	req, err := BuildRequest(o.baseURL, q.Criteria, q.Pagination)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		users []state.User
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		users, err := o.safeFetch(ctx, req)
		done <- outcome{users: users, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			var remote *RemoteError
			if !errors.As(out.err, &remote) {
				out.err = &RemoteError{URL: req.URL, Err: out.err}
			}
		}
		return out.users, out.err
	case <-ctx.Done():
		return nil, &RemoteError{URL: req.URL, Err: ctx.Err()}
	}
}

// safeFetch calls the source with panic recovery.
// If the source panics, it logs the full stack trace with a correlation ID
// and returns an error containing the ID.
func (o *Orchestrator) safeFetch(ctx context.Context, req Request) (users []state.User, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()

			o.logger.Error("source panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)

			users = nil
			err = fmt.Errorf("source panic (correlation_id: %s)", correlationID)
		}
	}()
	return o.source.Fetch(ctx, req)
}
