package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/roster"
	"github.com/jpalmerr/roster/example/mockapi"
)

func main() {
	// start the mock API with enough latency to watch superseded requests being cancelled
	mock := &http.Server{
		Addr: ":9999",
		Handler: mockapi.Handler(mockapi.Options{
			MinLatency:  100 * time.Millisecond,
			MaxLatency:  900 * time.Millisecond,
			FailureRate: 0.05,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := mock.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock API error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	r, err := roster.New(
		roster.WithBaseURL("http://localhost:9999/api/"),
		roster.WithPort(8080),
		roster.WithTitle("Roster Demo"),
		roster.WithPageSizes(5, 10, 20, 50),
		roster.WithChangeCallback(func(vm roster.ViewModel) {
			if vm.Loading {
				return
			}
			slog.Info("view updated",
				"criteria", vm.Criteria,
				"page", vm.Pagination.CurrentPage,
				"size", vm.Pagination.SelectedSize,
				"users", len(vm.Users),
				"error", vm.Error,
			)
		}),
	)
	if err != nil {
		slog.Error("failed to create roster", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Roster Demo                                         ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Mock API on :9999 (100-900ms latency, 5% errors)    ║")
	fmt.Println("  ║   Type quickly to see stale requests cancelled        ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := r.Start(ctx); err != nil {
		slog.Error("roster error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = mock.Shutdown(shutdownCtx)
}
