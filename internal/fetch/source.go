package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jpalmerr/roster/internal/state"
)

// ErrStaleResult marks a fetch outcome that arrived after a newer query was
// dispatched. Stale outcomes are dropped and never reach the store.
var ErrStaleResult = errors.New("fetch result superseded by a newer query")

// RemoteError reports a failed remote fetch: a transport error, a non-2xx
// response, an undecodable body or an exceeded deadline.
type RemoteError struct {
	// URL is the request URL.
	URL string

	// StatusCode is the HTTP status code, zero if no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Source is the remote data source.
//
// Fetch must honour ctx: the [Orchestrator] cancels it when the request is
// superseded or its deadline passes. A Source that ignores ctx is still
// bounded by the orchestrator's timeout, but its goroutine lingers until it
// returns.
type Source interface {
	Fetch(ctx context.Context, req Request) ([]state.User, error)
}

// SourceFunc adapts a function to [Source].
type SourceFunc func(ctx context.Context, req Request) ([]state.User, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, req Request) ([]state.User, error) {
	return f(ctx, req)
}

// Decoder converts a response body into users.
type Decoder func(body []byte) ([]state.User, error)

// HTTPSource fetches users over HTTP from a randomuser.me compatible API.
type HTTPSource struct {
	client  *Client
	decoder Decoder
	headers map[string]string
}

// NewHTTPSource creates an [HTTPSource]. A nil decoder reads the top-level
// "results" array.
func NewHTTPSource(decoder Decoder, headers map[string]string) *HTTPSource {
	if decoder == nil {
		decoder = decodeResults
	}
	return &HTTPSource{
		client:  NewClient(),
		decoder: decoder,
		headers: headers,
	}
}

// Fetch performs req and decodes the response body.
//
// Every failure is returned as a [*RemoteError].
func (s *HTTPSource) Fetch(ctx context.Context, req Request) ([]state.User, error) {
	resp := s.client.Get(ctx, req.URL, s.headers)
	if resp.Error != nil {
		return nil, &RemoteError{URL: req.URL, StatusCode: resp.StatusCode, Err: resp.Error}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{URL: req.URL, StatusCode: resp.StatusCode, Err: errors.New(statusText(resp.Body))}
	}

	users, err := s.decoder(resp.Body)
	if err != nil {
		return nil, &RemoteError{URL: req.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return users, nil
}

// Close releases idle connections.
func (s *HTTPSource) Close() {
	s.client.Close()
}

// decodeResults reads {"results": [...]}. An {"error": "..."} body, which
// randomuser.me returns with a 200 on overload, is reported as an error.
func decodeResults(body []byte) ([]state.User, error) {
	var payload struct {
		Results []state.User `json:"results"`
		Error   string       `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Error != "" {
		return nil, errors.New(payload.Error)
	}
	if payload.Results == nil {
		return []state.User{}, nil
	}
	return payload.Results, nil
}

// statusText extracts a short message from an error response body.
func statusText(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		return "unexpected status"
	}
	return text
}
