// Package config provides YAML configuration parsing for Roster.
//
// This package enables running Roster as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
// Every field is optional; an empty file yields the SDK defaults with the
// dashboard on port 8080.
//
// Example configuration:
//
//	title: People Directory
//	port: 8080
//	base_url: https://randomuser.me/api/
//	criteria: ngDominican
//	page_size: 10
//	page_sizes: [5, 10, 20, 50]
//	debounce: 300ms
//	fetch_timeout: 10s
//	decoder: json:results
//	headers:
//	  Authorization: Bearer ${API_TOKEN}
//
// Values set in the environment (ROSTER_PORT, ROSTER_BASE_URL, ...) override
// the file; see [ApplyEnv].
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/roster"
)

// DefaultPort is the dashboard port used when none is configured.
const DefaultPort = 8080

// minDebounce is the smallest accepted debounce. Shorter windows turn every
// keystroke into a remote fetch.
const minDebounce = 10 * time.Millisecond

// Config is the root configuration structure for Roster.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "Roster" if not set.
	Title string `yaml:"title" env:"ROSTER_TITLE"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port" env:"ROSTER_PORT"`

	// BaseURL is the randomuser.me compatible endpoint.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url" env:"ROSTER_BASE_URL"`

	// Criteria is the initial search criterion.
	Criteria string `yaml:"criteria" env:"ROSTER_CRITERIA"`

	// PageSize is the initially selected page size. Must be one of PageSizes.
	PageSize int `yaml:"page_size" env:"ROSTER_PAGE_SIZE"`

	// PageSizes is the ordered set of page sizes offered to the user.
	PageSizes []int `yaml:"page_sizes" env:"ROSTER_PAGE_SIZES" envSeparator:","`

	// Debounce is the quiet period applied to search input.
	// Accepts duration strings like "300ms".
	Debounce Duration `yaml:"debounce" env:"ROSTER_DEBOUNCE"`

	// FetchTimeout bounds a single remote fetch.
	FetchTimeout Duration `yaml:"fetch_timeout" env:"ROSTER_FETCH_TIMEOUT"`

	// Decoder determines how users are read from a response body.
	// Can be shorthand ("json:results", "default") or structured.
	Decoder DecoderConfig `yaml:"decoder"`

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`
}

// DecoderConfig specifies how users are read from a response body.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	decoder: default
//	decoder: results
//	decoder: json:data.people
//
// Structured object:
//
//	decoder:
//	  type: json
//	  path: data.people
type DecoderConfig struct {
	// Type is the decoder type: "default", "results" or "json".
	Type string

	// Path is the dot separated path of the user array (for type: json).
	// An empty path reads a top-level array.
	Path string
}

// Duration wraps time.Duration for YAML and environment unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for DecoderConfig.
func (dc *DecoderConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return dc.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type string `yaml:"type"`
			Path string `yaml:"path"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		dc.Type = raw.Type
		dc.Path = raw.Path
		return nil
	}

	return fmt.Errorf("decoder must be a string or object, got %v", node.Kind)
}

// parseShorthand parses decoder shorthand syntax.
//
// Supported formats:
//   - "default" → results envelope, then a top-level array
//   - "results" → results envelope only
//   - "json:path" → array at a dot separated path
func (dc *DecoderConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if idx := strings.Index(s, ":"); idx != -1 {
		dc.Type = s[:idx]
		if dc.Type != "json" {
			return fmt.Errorf("unknown decoder type %q", dc.Type)
		}
		dc.Path = s[idx+1:]
		return nil
	}

	switch s {
	case "default", "results", "json":
		dc.Type = s
	default:
		return fmt.Errorf("unknown decoder %q (expected 'default', 'results' or 'json:path')", s)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in Title, BaseURL, Criteria and Header
// values. Defaults are applied for every field left empty.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides cfg with the ROSTER_* environment variables that are
// set, then validates the result.
//
// Recognised variables: ROSTER_TITLE, ROSTER_PORT, ROSTER_BASE_URL,
// ROSTER_CRITERIA, ROSTER_PAGE_SIZE, ROSTER_PAGE_SIZES (comma separated),
// ROSTER_DEBOUNCE and ROSTER_FETCH_TIMEOUT.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.BaseURL == "" {
		c.BaseURL = roster.DefaultBaseURL
	}
	if c.Criteria == "" {
		c.Criteria = roster.DefaultCriteria
	}
	if len(c.PageSizes) == 0 {
		c.PageSizes = roster.DefaultPageSizes()
	}
	if c.PageSize == 0 {
		c.PageSize = c.PageSizes[0]
		if slices.Contains(c.PageSizes, roster.DefaultPageSize) {
			c.PageSize = roster.DefaultPageSize
		}
	}
	if c.Debounce == 0 {
		c.Debounce = Duration(300 * time.Millisecond)
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = Duration(10 * time.Second)
	}
}

// expand substitutes environment variables in string fields.
func (c *Config) expand() error {
	var err error
	if c.Title, err = expandEnvVars(c.Title); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	if c.BaseURL, err = expandEnvVars(c.BaseURL); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if c.Criteria, err = expandEnvVars(c.Criteria); err != nil {
		return fmt.Errorf("criteria: %w", err)
	}
	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}
	return nil
}

// Validate checks the configuration for values the SDK would reject.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return errors.New("base_url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	for i, size := range c.PageSizes {
		if size <= 0 {
			return fmt.Errorf("page_sizes[%d]: must be positive, got %d", i, size)
		}
		if slices.Contains(c.PageSizes[:i], size) {
			return fmt.Errorf("page_sizes[%d]: duplicate size %d", i, size)
		}
	}
	if !slices.Contains(c.PageSizes, c.PageSize) {
		return fmt.Errorf("page_size %d is not one of page_sizes %v", c.PageSize, c.PageSizes)
	}

	if c.Debounce.Duration() < minDebounce {
		return fmt.Errorf("debounce must be at least %s, got %s", minDebounce, c.Debounce.Duration())
	}
	if c.FetchTimeout.Duration() < time.Second {
		return fmt.Errorf("fetch_timeout must be at least 1s, got %s", c.FetchTimeout.Duration())
	}

	switch c.Decoder.Type {
	case "", "default", "results", "json":
	default:
		return fmt.Errorf("unknown decoder type %q", c.Decoder.Type)
	}
	return nil
}
