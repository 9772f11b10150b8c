package store

import (
	"github.com/jpalmerr/roster/internal/state"
	"github.com/jpalmerr/roster/internal/stream"
)

// Store defines the state container contract.
//
// Store implementations must be safe for concurrent access. Every
// transition computes a new record from the current one and replaces it
// atomically; no read ever observes a partially applied transition.
type Store interface {
	// Snapshot returns the current record.
	Snapshot() state.State

	// Subscribe registers fn for every replacement. The current record is
	// delivered to fn immediately (replay-latest).
	Subscribe(fn func(state.State)) stream.Subscription

	// OnSettled registers fn to run after each delivery has reached every
	// observer. Fan-in streams use it as their transition boundary.
	OnSettled(fn func()) stream.Subscription

	// SetCriteria replaces the criteria and starts a new fetch. Returns
	// false without a transition if the criteria is unchanged.
	SetCriteria(criteria string) bool

	// SetPagination selects a page size and page and starts a new fetch.
	// Returns an error, with no state change, if size is not an allowed
	// page size or page is negative. Returns false without a transition if
	// the selection is unchanged.
	SetPagination(size, page int) (bool, error)

	// Reload starts a new fetch for the current query and returns its token.
	Reload() uint64

	// ApplyFetchResult stores users and clears loading.
	ApplyFetchResult(users []state.User)

	// ApplyFetchFailure records err and clears loading.
	ApplyFetchFailure(err error)

	// ApplyFetchResultFor applies users only if token is the revision of
	// the latest dispatched fetch. Returns whether it was applied.
	ApplyFetchResultFor(token uint64, users []state.User) bool

	// ApplyFetchFailureFor records err only if token is the revision of the
	// latest dispatched fetch. Returns whether it was applied.
	ApplyFetchFailureFor(token uint64, err error) bool

	// Close rejects every later transition; SetPagination then returns
	// ErrClosed and the others report no change.
	Close()
}
