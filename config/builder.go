package config

import (
	"sort"

	"github.com/jpalmerr/roster"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The returned options can be passed to [roster.New] together with any
// options the caller adds, such as a logger.
func BuildOptions(cfg *Config) ([]roster.Option, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []roster.Option{
		roster.WithPort(cfg.Port),
		roster.WithBaseURL(cfg.BaseURL),
		roster.WithCriteria(cfg.Criteria),
		roster.WithPageSizes(cfg.PageSizes...),
		roster.WithPageSize(cfg.PageSize),
		roster.WithDebounce(cfg.Debounce.Duration()),
		roster.WithFetchTimeout(cfg.FetchTimeout.Duration()),
	}

	if cfg.Title != "" {
		opts = append(opts, roster.WithTitle(cfg.Title))
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, roster.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	if decoder := buildDecoder(cfg.Decoder); decoder != nil {
		opts = append(opts, roster.WithDecoder(decoder))
	}

	return opts, nil
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// buildDecoder converts DecoderConfig to a Decoder.
// Returns nil for default/empty decoders (SDK uses DefaultDecoder).
func buildDecoder(dc DecoderConfig) roster.Decoder {
	switch dc.Type {
	case "", "default":
		return nil
	case "results":
		return roster.ResultsDecoder
	case "json":
		return roster.JSONPathDecoder(dc.Path)
	default:
		// validation should catch this, but return nil as fallback
		return nil
	}
}

// BuildSource returns the HTTP source described by cfg. It is what
// [BuildOptions] configures, for callers that fetch without a Roster.
func BuildSource(cfg *Config) *roster.HTTPSource {
	return roster.NewHTTPSource(buildDecoder(cfg.Decoder), cfg.Headers)
}
