package fetch

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/jpalmerr/roster/internal/state"
)

// DefaultBaseURL is the randomuser.me API endpoint.
const DefaultBaseURL = "https://randomuser.me/api/"

// Request is a fully resolved remote request.
type Request struct {
	// URL is the complete request URL including the query string.
	URL string `json:"url"`

	// Seed is the search criteria, sent as the seed parameter.
	Seed string `json:"seed"`

	// Results is the page size.
	Results int `json:"results"`

	// Page is the zero-based page offset.
	Page int `json:"page"`
}

// BuildRequest derives the request for criteria and pagination.
//
// BuildRequest is pure: equal inputs always produce byte-identical URLs.
// Query parameters are encoded in sorted key order (page, results, seed)
// and any query already present on baseURL is kept.
func BuildRequest(baseURL, criteria string, p state.Pagination) (Request, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return Request{}, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Request{}, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	q := u.Query()
	q.Set("page", strconv.Itoa(p.CurrentPage))
	q.Set("results", strconv.Itoa(p.SelectedSize))
	q.Set("seed", criteria)
	u.RawQuery = q.Encode()

	return Request{
		URL:     u.String(),
		Seed:    criteria,
		Results: p.SelectedSize,
		Page:    p.CurrentPage,
	}, nil
}
