package roster

import (
	"slices"

	"github.com/jpalmerr/roster/internal/fetch"
	"github.com/jpalmerr/roster/internal/state"
	"github.com/jpalmerr/roster/internal/store"
)

// User is a single directory entry as returned by the remote data source.
type User = state.User

// Name is the display name of a [User].
type Name = state.Name

// Pagination describes the selected page size, the current page and the
// fixed set of allowed page sizes.
type Pagination = state.Pagination

// ViewModel is the record handed to the presentation layer.
//
// Every ViewModel is assembled from a single state generation: its Loading
// flag always belongs to the same transition as its Pagination and
// Criteria.
type ViewModel = state.View

// State is the complete application snapshot, as returned by
// [Roster.Snapshot].
type State = state.State

// Phase is the fetch orchestrator's coarse state, as returned by
// [Roster.Phase].
type Phase = fetch.Phase

// Orchestrator phases.
const (
	PhaseIdle     = fetch.PhaseIdle
	PhaseFetching = fetch.PhaseFetching
	PhaseApplying = fetch.PhaseApplying
)

const (
	// DefaultCriteria is the search criterion used before the user types anything.
	DefaultCriteria = state.DefaultCriteria

	// DefaultPageSize is the initially selected page size.
	DefaultPageSize = state.DefaultPageSize

	// DefaultBaseURL is the randomuser.me API endpoint.
	DefaultBaseURL = fetch.DefaultBaseURL
)

var (
	// ErrInvalidPageSize is returned by [Roster.SelectPageSize] and
	// [Roster.SelectPage] when the size is not one of the configured page
	// sizes. The state is left unchanged.
	ErrInvalidPageSize = state.ErrInvalidPageSize

	// ErrInvalidPage is returned by [Roster.SelectPage] for a negative page.
	ErrInvalidPage = state.ErrInvalidPage

	// ErrClosed is returned by [Roster.SelectPageSize] and
	// [Roster.SelectPage] after the Roster has been closed.
	ErrClosed = store.ErrClosed

	// ErrStaleResult marks a fetch result superseded by a newer query. It
	// never reaches the caller; it appears only in debug logs.
	ErrStaleResult = fetch.ErrStaleResult
)

// RemoteError reports a failed remote fetch. Its message is what appears
// in [ViewModel].Error.
type RemoteError = fetch.RemoteError

// DefaultPageSizes returns the page sizes offered when none are configured.
func DefaultPageSizes() []int {
	return slices.Clone(state.DefaultPageSizes)
}

// cloneView returns a copy of v that shares no slices with it.
func cloneView(v ViewModel) ViewModel {
	v.Users = slices.Clone(v.Users)
	v.Pagination.PageSizes = slices.Clone(v.Pagination.PageSizes)
	return v
}
