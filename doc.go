// Package roster provides a single-source-of-truth reactive state container
// for a searchable, paginated user directory.
//
// A [Roster] holds one immutable state record and exposes a derived view
// model to a presentation layer. Free-text search input is debounced before
// it changes the record; pagination selections apply immediately. Each
// change dispatches a remote fetch and cancels the one in flight, so results
// of superseded queries never reach the view.
//
// # Quick Start
//
//	r, _ := roster.New()
//
//	unsubscribe := r.Subscribe(func(vm roster.ViewModel) {
//	    fmt.Println(vm.Criteria, vm.Pagination.CurrentPage, len(vm.Users), vm.Loading)
//	})
//	defer unsubscribe()
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	go r.Start(ctx) // blocks until context is cancelled
//
//	r.SubmitSearchText("abc")
//	_ = r.SelectPageSize(20)
//
// # Configuration
//
// Roster uses the functional options pattern for configuration:
//
//	r, err := roster.New(
//	    roster.WithBaseURL("https://randomuser.me/api/"),
//	    roster.WithPageSizes(5, 10, 20, 50),
//	    roster.WithPageSize(10),
//	    roster.WithDebounce(300 * time.Millisecond),
//	    roster.WithFetchTimeout(5 * time.Second),
//	    roster.WithPort(8080),
//	)
//
// # Decoders
//
// Decoders turn a response body into users. Several built-in decoders are
// provided:
//
//   - [ResultsDecoder]: Reads the randomuser.me "results" array
//   - [JSONPathDecoder]: Reads an array at a dot separated path
//   - [FirstDecoder]: Tries multiple decoders in order, returning the first success
//   - [DefaultDecoder]: Tries "results", then a top-level array
//
// A completely different backend can be plugged in with [WithSource].
//
// # Consistency
//
// Every state change is a whole-record replacement. The view model is
// recomputed once per replacement, after every derived value has been
// updated, so a [ViewModel] never combines fields from two different
// records: a pagination change and the loading flag it sets always arrive
// together.
//
// A failed fetch clears the loading flag and sets [ViewModel].Error while
// keeping the previous users. The next search or pagination change, or a
// call to [Roster.Reload], clears it.
//
// # Architecture
//
// Roster consists of several internal packages (under internal/):
//
//   - internal/state: Immutable state record and view model
//   - internal/store: Current record holder with ordered, replaying delivery
//   - internal/stream: Projections, fan-in combinator, debouncer
//   - internal/fetch: Request building, HTTP source and the fetch orchestrator
//   - internal/server: HTTP API, Server-Sent Events and metrics endpoint
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package roster
