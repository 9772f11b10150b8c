package state

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// DefaultCriteria is the search criterion used before the user types anything.
	DefaultCriteria = "ngDominican"

	// DefaultPageSize is the initially selected page size.
	DefaultPageSize = 5

	// FetchFailedMessage is the error text recorded for a failure without
	// a cause.
	FetchFailedMessage = "fetch failed"
)

// DefaultPageSizes lists the page sizes offered when none are configured.
var DefaultPageSizes = []int{5, 10, 20, 50}

var (
	// ErrInvalidPageSize is returned when a page size is not one of the
	// configured page sizes.
	ErrInvalidPageSize = errors.New("page size is not one of the configured sizes")

	// ErrInvalidPage is returned for a negative page index.
	ErrInvalidPage = errors.New("page must not be negative")
)

// Name is the display name of a [User].
type Name struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// User is a single entry returned by the remote data source.
//
// The core never inspects these fields; they are passed through in the
// order the server returned them.
type User struct {
	Gender string `json:"gender"`
	Name   Name   `json:"name"`
}

// Pagination describes which page of results is requested.
type Pagination struct {
	// SelectedSize is the number of results per page. Always one of PageSizes.
	SelectedSize int `json:"selectedSize"`

	// CurrentPage is the zero-based page offset.
	CurrentPage int `json:"currentPage"`

	// PageSizes is the fixed, ordered set of allowed sizes.
	PageSizes []int `json:"pageSizes"`
}

// Equal reports whether two paginations hold the same values.
func (p Pagination) Equal(o Pagination) bool {
	return p.SelectedSize == o.SelectedSize &&
		p.CurrentPage == o.CurrentPage &&
		slices.Equal(p.PageSizes, o.PageSizes)
}

func (p Pagination) clone() Pagination {
	p.PageSizes = slices.Clone(p.PageSizes)
	return p
}

// State is the complete application snapshot.
//
// A State is never modified after it has been published by the store. Use
// the With* methods to derive the next record.
type State struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
	Criteria   string     `json:"criteria"`
	Loading    bool       `json:"loading"`

	// Err holds the message of the last failed fetch, empty when the last
	// fetch succeeded or a new one is in flight.
	Err string `json:"error,omitempty"`

	// Revision identifies the most recently dispatched fetch. It increases
	// with every transition that sets Loading.
	Revision uint64 `json:"-"`
}

// Default returns the initial state record.
func Default() State {
	return State{
		Users:    []User{},
		Criteria: DefaultCriteria,
		Pagination: Pagination{
			SelectedSize: DefaultPageSize,
			CurrentPage:  0,
			PageSizes:    slices.Clone(DefaultPageSizes),
		},
	}
}

// DefaultWith returns an initial state record using the given criteria and
// page configuration.
//
// Returns an error if pageSizes is empty, contains a non-positive size, or
// does not contain pageSize.
func DefaultWith(criteria string, pageSize int, pageSizes []int) (State, error) {
	if len(pageSizes) == 0 {
		return State{}, errors.New("at least one page size is required")
	}
	for _, size := range pageSizes {
		if size <= 0 {
			return State{}, fmt.Errorf("page sizes must be positive, got %d", size)
		}
	}
	if err := ValidatePageSize(pageSizes, pageSize); err != nil {
		return State{}, err
	}

	s := Default()
	s.Criteria = criteria
	s.Pagination = Pagination{
		SelectedSize: pageSize,
		PageSizes:    slices.Clone(pageSizes),
	}
	return s, nil
}

// ValidatePageSize checks that size is one of sizes.
func ValidatePageSize(sizes []int, size int) error {
	if !slices.Contains(sizes, size) {
		return fmt.Errorf("%w: %d (allowed %v)", ErrInvalidPageSize, size, sizes)
	}
	return nil
}

// WithCriteria returns a copy with the given criteria and a new fetch pending.
func (s State) WithCriteria(criteria string) State {
	next := s.clone()
	next.Criteria = criteria
	return next.pending()
}

// WithPagination returns a copy selecting size and page with a new fetch
// pending. PageSizes is carried over unchanged.
func (s State) WithPagination(size, page int) State {
	next := s.clone()
	next.Pagination.SelectedSize = size
	next.Pagination.CurrentPage = page
	return next.pending()
}

// WithReload returns a copy with a new fetch pending for the current query.
func (s State) WithReload() State {
	return s.clone().pending()
}

// WithFetchResult returns a copy holding users with loading cleared.
func (s State) WithFetchResult(users []User) State {
	next := s.clone()
	next.Users = slices.Clone(users)
	if next.Users == nil {
		next.Users = []User{}
	}
	next.Loading = false
	next.Err = ""
	return next
}

// WithFetchFailure returns a copy with loading cleared and the failure
// recorded. Users from the previous successful fetch are kept. A nil err
// records the generic message [FetchFailedMessage] so the failure stays
// visible.
func (s State) WithFetchFailure(err error) State {
	next := s.clone()
	next.Loading = false
	next.Err = FetchFailedMessage
	if err != nil {
		next.Err = err.Error()
	}
	return next
}

// View returns the view model for this state.
func (s State) View() View {
	return View{
		Pagination: s.Pagination.clone(),
		Criteria:   s.Criteria,
		Users:      slices.Clone(s.Users),
		Loading:    s.Loading,
		Error:      s.Err,
	}
}

func (s State) pending() State {
	s.Loading = true
	s.Err = ""
	s.Revision++
	return s
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return s.clone()
}

// clone copies the slices so the returned value shares nothing mutable with s.
func (s State) clone() State {
	s.Users = slices.Clone(s.Users)
	s.Pagination = s.Pagination.clone()
	return s
}

// EqualUsers reports whether two user lists hold the same entries in order.
func EqualUsers(a, b []User) bool {
	return slices.Equal(a, b)
}
