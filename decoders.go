package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jpalmerr/roster/internal/fetch"
)

// Decoder converts a successful response body into users.
//
// Decoders are only called for 2xx responses. Returning an error marks the
// fetch as failed; the error text is surfaced in [ViewModel].Error.
type Decoder = fetch.Decoder

// JSONPathDecoder returns a [Decoder] that reads the user array at a dot
// separated path.
//
// For example, "data.people" reads {"data": {"people": [...]}}. An empty
// path reads a top-level array. A JSON null at the path decodes to no users.
//
// When a path segment is missing and the enclosing object carries an
// "error" string, as randomuser.me returns when overloaded, that message is
// reported instead.
//
// Example:
//
//	decoder := roster.JSONPathDecoder("data.people")
func JSONPathDecoder(path string) Decoder {
	var parts []string
	if path != "" {
		parts = strings.Split(path, ".")
	}

	return func(body []byte) ([]User, error) {
		raw := json.RawMessage(body)

		for _, part := range parts {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(raw, &obj); err != nil {
				return nil, fmt.Errorf("decode %q: %w", path, err)
			}
			next, ok := obj[part]
			if !ok {
				if msg := remoteMessage(obj); msg != "" {
					return nil, fmt.Errorf("remote error: %s", msg)
				}
				return nil, fmt.Errorf("decode %q: field %q not found", path, part)
			}
			raw = next
		}

		var users []User
		if err := json.Unmarshal(raw, &users); err != nil {
			return nil, fmt.Errorf("decode %q: %w", path, err)
		}
		if users == nil {
			users = []User{}
		}
		return users, nil
	}
}

// remoteMessage returns obj["error"] if it is a non-empty string.
func remoteMessage(obj map[string]json.RawMessage) string {
	raw, ok := obj["error"]
	if !ok {
		return ""
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ""
	}
	return msg
}

// FirstDecoder returns a [Decoder] that tries decoders in order and returns
// the first successful result.
//
// If every decoder fails, the errors are joined. With no decoders the
// returned Decoder always fails.
//
// Example:
//
//	// Try the randomuser.me envelope first, then a bare array
//	decoder := roster.FirstDecoder(roster.ResultsDecoder, roster.JSONPathDecoder(""))
func FirstDecoder(decoders ...Decoder) Decoder {
	return func(body []byte) ([]User, error) {
		if len(decoders) == 0 {
			return nil, errors.New("no decoders configured")
		}
		errs := make([]error, 0, len(decoders))
		for _, decode := range decoders {
			users, err := decode(body)
			if err == nil {
				return users, nil
			}
			errs = append(errs, err)
		}
		return nil, errors.Join(errs...)
	}
}

// ResultsDecoder reads the top-level "results" array of a randomuser.me
// response.
var ResultsDecoder = JSONPathDecoder("results")

// DefaultDecoder is the [Decoder] used when none is configured.
//
// DefaultDecoder uses [FirstDecoder] to try:
//  1. [ResultsDecoder] (the randomuser.me envelope)
//  2. A top-level array of users
var DefaultDecoder = FirstDecoder(
	ResultsDecoder,
	JSONPathDecoder(""),
)
