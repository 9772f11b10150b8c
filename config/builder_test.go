package config

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/jpalmerr/roster"
)

func TestBuildOptions_Defaults(t *testing.T) {
	opts, err := BuildOptions(Default())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	r, err := roster.New(opts...)
	if err != nil {
		t.Fatalf("roster.New() error = %v", err)
	}
	defer r.Close()

	if r.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", r.Port())
	}
	if r.Title() != "" {
		t.Errorf("Title() = %q, want empty", r.Title())
	}
	if r.BaseURL() != roster.DefaultBaseURL {
		t.Errorf("BaseURL() = %q", r.BaseURL())
	}
}

func TestBuildOptions_AllFields(t *testing.T) {
	yaml := `
title: Staff
port: 9393
base_url: https://people.example.com/api/
criteria: staff
page_size: 25
page_sizes: [10, 25]
debounce: 100ms
fetch_timeout: 2s
decoder: results
headers:
  X-Api-Key: abc
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	r, err := roster.New(opts...)
	if err != nil {
		t.Fatalf("roster.New() error = %v", err)
	}
	defer r.Close()

	if r.Title() != "Staff" || r.Port() != 9393 {
		t.Errorf("Title() = %q, Port() = %d", r.Title(), r.Port())
	}
	if r.BaseURL() != "https://people.example.com/api/" {
		t.Errorf("BaseURL() = %q", r.BaseURL())
	}
	if !slices.Equal(r.PageSizes(), []int{10, 25}) {
		t.Errorf("PageSizes() = %v", r.PageSizes())
	}

	vm := r.ViewModel()
	if vm.Criteria != "staff" || vm.Pagination.SelectedSize != 25 {
		t.Errorf("ViewModel() = %+v", vm)
	}
}

func TestBuildOptions_InvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.PageSize = 3

	if _, err := BuildOptions(cfg); err == nil {
		t.Error("BuildOptions() expected error for invalid config, got nil")
	}
}

func TestBuildOptions_DecoderAndHeadersReachSource(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"payload":{"items":[{"gender":"male","name":{"first":"Ike","last":"Ode"}}]}}`))
	}))
	defer ts.Close()

	cfg := Default()
	cfg.Port = freePort(t)
	cfg.BaseURL = ts.URL
	cfg.Decoder = DecoderConfig{Type: "json", Path: "payload.items"}
	cfg.Headers = map[string]string{"X-Api-Key": "abc"}

	vm := runUntilLoaded(t, cfg)
	if vm.Error != "" {
		t.Fatalf("Error = %q", vm.Error)
	}
	if len(vm.Users) != 1 || vm.Users[0].Name.First != "Ike" {
		t.Errorf("Users = %+v", vm.Users)
	}
}

func TestBuildDecoder(t *testing.T) {
	body := []byte(`{"results":[{"name":{"first":"A"}}],"data":[{"name":{"first":"B"}},{"name":{"first":"C"}}]}`)

	tests := []struct {
		name    string
		config  DecoderConfig
		wantNil bool
		want    int
	}{
		{"empty", DecoderConfig{}, true, 0},
		{"default", DecoderConfig{Type: "default"}, true, 0},
		{"results", DecoderConfig{Type: "results"}, false, 1},
		{"json path", DecoderConfig{Type: "json", Path: "data"}, false, 2},
		{"unknown", DecoderConfig{Type: "xml"}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder := buildDecoder(tt.config)
			if tt.wantNil {
				if decoder != nil {
					t.Error("buildDecoder() = non-nil, want nil")
				}
				return
			}
			users, err := decoder(body)
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if len(users) != tt.want {
				t.Errorf("got %d users, want %d", len(users), tt.want)
			}
		})
	}
}

func TestMapToKeyValuePairs_Sorted(t *testing.T) {
	got := mapToKeyValuePairs(map[string]string{"b": "2", "a": "1", "c": "3"})
	want := []string{"a", "1", "b", "2", "c", "3"}
	if !slices.Equal(got, want) {
		t.Errorf("mapToKeyValuePairs() = %v, want %v", got, want)
	}
}

// freePort returns a port that was free when checked.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

// runUntilLoaded starts a Roster built from cfg and returns the first view
// model with the initial fetch applied.
func runUntilLoaded(t *testing.T, cfg *Config) roster.ViewModel {
	t.Helper()

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	r, err := roster.New(append(opts, roster.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))...)
	if err != nil {
		t.Fatalf("roster.New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	loaded := make(chan roster.ViewModel, 1)
	r.Subscribe(func(vm roster.ViewModel) {
		if vm.Loading || (len(vm.Users) == 0 && vm.Error == "") {
			return
		}
		select {
		case loaded <- vm:
		default:
		}
	})

	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	var vm roster.ViewModel
	select {
	case vm = <-loaded:
	case <-ctx.Done():
		t.Fatal("configured roster never applied a fetch")
	}
	cancel()
	<-done
	return vm
}

func TestBuildOptions_RunsAgainstMockAPI(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"gender":"female","name":{"first":"Jo","last":"Ng"}}]}`))
	}))
	defer ts.Close()

	cfg := Default()
	cfg.Port = freePort(t)
	cfg.BaseURL = ts.URL

	vm := runUntilLoaded(t, cfg)
	if len(vm.Users) != 1 || vm.Users[0].Name.First != "Jo" {
		t.Errorf("Users = %+v", vm.Users)
	}
}
