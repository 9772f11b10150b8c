package roster

import (
	"github.com/jpalmerr/roster/internal/fetch"
)

// Source is the remote data source queried for each (criteria, pagination)
// combination.
//
// Implementations must honour ctx cancellation: a request is cancelled as
// soon as a newer query supersedes it. Results of superseded requests are
// discarded regardless.
type Source = fetch.Source

// SourceFunc adapts a function to [Source].
//
// Example:
//
//	src := roster.SourceFunc(func(ctx context.Context, req roster.Request) ([]roster.User, error) {
//	    return lookup(ctx, req.Seed, req.Page, req.Results)
//	})
type SourceFunc = fetch.SourceFunc

// Request is the request descriptor passed to a [Source]. It is a pure
// function of criteria and pagination; see [BuildRequest].
type Request = fetch.Request

// HTTPSource is the default [Source]: a GET against a randomuser.me
// compatible API.
type HTTPSource = fetch.HTTPSource

// NewHTTPSource creates an [HTTPSource] that decodes responses with decoder
// and sends headers with every request.
//
// A nil decoder uses [DefaultDecoder]. The headers map is copied.
func NewHTTPSource(decoder Decoder, headers map[string]string) *HTTPSource {
	if decoder == nil {
		decoder = DefaultDecoder
	}
	return fetch.NewHTTPSource(decoder, copyMap(headers))
}

// BuildRequest returns the request descriptor for criteria and pagination
// against baseURL. Equal inputs always produce byte-identical URLs.
//
// Example:
//
//	req, _ := roster.BuildRequest(roster.DefaultBaseURL, "seed1", roster.Pagination{SelectedSize: 10, CurrentPage: 2})
//	// req.URL == "https://randomuser.me/api/?page=2&results=10&seed=seed1"
func BuildRequest(baseURL, criteria string, p Pagination) (Request, error) {
	return fetch.BuildRequest(baseURL, criteria, p)
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
