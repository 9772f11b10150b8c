package roster

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// rosterConfig holds mutable state during Roster construction.
type rosterConfig struct {
	title           string
	port            int
	baseURL         string
	criteria        string
	pageSize        int
	pageSizes       []int
	debounce        time.Duration
	fetchTimeout    time.Duration
	source          Source
	decoder         Decoder
	headers         map[string]string
	logger          *slog.Logger
	registry        *prometheus.Registry
	changeCallbacks []func(ViewModel)
}

// Option is a function that configures a [Roster] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*rosterConfig) error

// WithPort enables the HTTP dashboard on the given port when [Roster.Start]
// runs.
//
// Without WithPort no server is started and the Roster is driven purely
// through its Go API.
//
// Example:
//
//	r, err := roster.New(roster.WithPort(8080))
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *rosterConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "Roster".
func WithTitle(title string) Option {
	return func(cfg *rosterConfig) error {
		cfg.title = title
		return nil
	}
}

// WithBaseURL sets the endpoint queried by the default HTTP source.
//
// The page, results and seed query parameters are added to it for every
// request; any other query parameters are kept. Defaults to
// [DefaultBaseURL].
//
// Returns an error if the URL does not have an http or https scheme.
func WithBaseURL(rawURL string) Option {
	return func(cfg *rosterConfig) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("base URL must have a scheme (http:// or https://)")
		}
		cfg.baseURL = rawURL
		return nil
	}
}

// WithCriteria sets the initial search criterion. Defaults to
// [DefaultCriteria].
func WithCriteria(criteria string) Option {
	return func(cfg *rosterConfig) error {
		cfg.criteria = criteria
		return nil
	}
}

// WithPageSizes sets the fixed, ordered set of allowed page sizes.
//
// The selected page size (see [WithPageSize]) must be one of them. Defaults
// to [DefaultPageSizes].
//
// Returns an error if no sizes are given, or a size is not positive or
// repeated.
func WithPageSizes(sizes ...int) Option {
	return func(cfg *rosterConfig) error {
		if len(sizes) == 0 {
			return errors.New("at least one page size is required")
		}
		for i, size := range sizes {
			if size <= 0 {
				return fmt.Errorf("page sizes must be positive, got %d", size)
			}
			if slices.Contains(sizes[:i], size) {
				return fmt.Errorf("duplicate page size: %d", size)
			}
		}
		cfg.pageSizes = slices.Clone(sizes)
		return nil
	}
}

// WithPageSize sets the initially selected page size. Defaults to
// [DefaultPageSize].
//
// The size is checked against the configured page sizes by [New].
func WithPageSize(size int) Option {
	return func(cfg *rosterConfig) error {
		if size <= 0 {
			return errors.New("page size must be positive")
		}
		cfg.pageSize = size
		return nil
	}
}

// WithDebounce sets the quiet period applied to search input before it is
// committed. Defaults to 300ms.
//
// Returns an error if the duration is zero or negative.
func WithDebounce(d time.Duration) Option {
	return func(cfg *rosterConfig) error {
		if d <= 0 {
			return errors.New("debounce must be positive")
		}
		cfg.debounce = d
		return nil
	}
}

// WithFetchTimeout sets the upper bound of a single remote fetch. A fetch
// that has not completed within it is reported as failed. Defaults to 10
// seconds.
//
// Returns an error if the duration is zero or negative.
func WithFetchTimeout(d time.Duration) Option {
	return func(cfg *rosterConfig) error {
		if d <= 0 {
			return errors.New("fetch timeout must be positive")
		}
		cfg.fetchTimeout = d
		return nil
	}
}

// WithSource replaces the default HTTP source.
//
// When a custom source is set, [WithDecoder] and [WithHeaders] have no
// effect; the base URL is still used to build [Request.URL].
//
// Returns an error if the source is nil.
func WithSource(src Source) Option {
	return func(cfg *rosterConfig) error {
		if src == nil {
			return errors.New("source cannot be nil")
		}
		cfg.source = src
		return nil
	}
}

// WithDecoder sets the [Decoder] used by the default HTTP source. Defaults
// to [DefaultDecoder].
//
// Returns an error if the decoder is nil.
func WithDecoder(d Decoder) Option {
	return func(cfg *rosterConfig) error {
		if d == nil {
			return errors.New("decoder cannot be nil")
		}
		cfg.decoder = d
		return nil
	}
}

// WithHeaders adds HTTP headers sent by the default HTTP source.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	r, err := roster.New(
//	    roster.WithHeaders("Authorization", "Bearer token123"),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) Option {
	return func(cfg *rosterConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		if cfg.headers == nil {
			cfg.headers = make(map[string]string, len(keyValues)/2)
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Roster instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *rosterConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithRegistry sets the Prometheus registry that receives the fetch
// metrics and backs the /metrics endpoint.
//
// If not specified, each Roster creates its own registry with the Go
// runtime and process collectors registered.
//
// Returns an error if the registry is nil.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(cfg *rosterConfig) error {
		if reg == nil {
			return errors.New("registry cannot be nil")
		}
		cfg.registry = reg
		return nil
	}
}

// WithChangeCallback registers a function to be called with every new view
// model while [Roster.Start] runs.
//
// The callback first receives the current view model, then one value per
// state transition that changed it. Multiple callbacks may be registered;
// they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. They may call Roster methods
// that change state; the resulting view model arrives after the callback
// returns. Long-running operations should dispatch work to a separate
// goroutine.
//
// Panics within callbacks are recovered and logged; they do not stop
// delivery to other callbacks.
//
// Nil callbacks are silently ignored.
func WithChangeCallback(cb func(ViewModel)) Option {
	return func(cfg *rosterConfig) error {
		if cb == nil {
			return nil
		}
		cfg.changeCallbacks = append(cfg.changeCallbacks, cb)
		return nil
	}
}
