// Standalone mock randomuser.me API for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/roster serve -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jpalmerr/roster/example/mockapi"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	minLatency := flag.Duration("min-latency", 50*time.Millisecond, "minimum response latency")
	maxLatency := flag.Duration("max-latency", 500*time.Millisecond, "maximum response latency")
	failureRate := flag.Float64("failure-rate", 0, "fraction of requests that fail (0-1)")
	flag.Parse()

	fmt.Printf("Mock randomuser API starting on %s\n", *addr)
	fmt.Println("Same seed and page always return the same users")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	srv := &http.Server{
		Addr: *addr,
		Handler: mockapi.Handler(mockapi.Options{
			MinLatency:  *minLatency,
			MaxLatency:  *maxLatency,
			FailureRate: *failureRate,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
