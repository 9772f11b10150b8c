// Package mockapi serves a deterministic stand-in for the randomuser.me API.
//
// The same seed, page and results always produce the same users, so the
// dashboard can be exercised offline. Latency and failures can be injected
// to watch request cancellation and error handling at work.
package mockapi

import (
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const maxResults = 5000

var (
	femaleNames = []string{"Ana", "Lucía", "Camila", "Valentina", "Sofía", "Isabel", "Daniela", "Gabriela", "Mariana", "Paula"}
	maleNames   = []string{"José", "Luis", "Carlos", "Miguel", "Juan", "Rafael", "Pedro", "Andrés", "Diego", "Manuel"}
	lastNames   = []string{"Rodríguez", "Pérez", "Martínez", "García", "Sánchez", "Ramírez", "Reyes", "Castillo", "Núñez", "Jiménez", "Rosario", "Almonte"}
	titles      = map[string][]string{"female": {"Ms", "Mrs", "Miss"}, "male": {"Mr"}}
)

// Options configures the mock API.
type Options struct {
	// MinLatency and MaxLatency bound the artificial delay per request.
	MinLatency time.Duration
	MaxLatency time.Duration

	// FailureRate is the probability, between 0 and 1, that a request fails
	// with the randomuser.me error body.
	FailureRate float64

	// Logger receives one line per request. Defaults to slog.Default().
	Logger *slog.Logger
}

// Name is the name block of a served user.
type Name struct {
	Title string `json:"title"`
	First string `json:"first"`
	Last  string `json:"last"`
}

// User is one served user, a subset of the randomuser.me schema.
type User struct {
	Gender string `json:"gender"`
	Name   Name   `json:"name"`
	Email  string `json:"email"`
}

type info struct {
	Seed    string `json:"seed"`
	Results int    `json:"results"`
	Page    int    `json:"page"`
	Version string `json:"version"`
}

type response struct {
	Results []User `json:"results"`
	Info    info   `json:"info"`
}

// Handler returns an http.Handler serving GET /api/.
func Handler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	serve := func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		seed := q.Get("seed")
		results := intParam(q.Get("results"), 1)
		page := intParam(q.Get("page"), 1)
		if results > maxResults {
			results = maxResults
		}

		if !sleep(req, opts.MinLatency, opts.MaxLatency) {
			logger.Debug("mock request cancelled", "seed", seed, "page", page)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if opts.FailureRate > 0 && rand.Float64() < opts.FailureRate {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Uh oh, something has gone wrong. Please tweet us @randomapi about the issue. Thank you."})
			logger.Info("mock request failed", "seed", seed, "page", page)
			return
		}

		resp := response{
			Results: Users(seed, page, results),
			Info:    info{Seed: seed, Results: results, Page: page, Version: "1.4"},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to write response", "error", err)
			return
		}
		logger.Info("mock request served", "seed", seed, "page", page, "results", results)
	}
	r.Get("/api", serve)
	r.Get("/api/", serve)
	return r
}

// Users returns the users served for seed, page and results.
func Users(seed string, page, results int) []User {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(page)))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	users := make([]User, results)
	for i := range users {
		gender := "female"
		first := femaleNames[rng.Intn(len(femaleNames))]
		if rng.Intn(2) == 0 {
			gender = "male"
			first = maleNames[rng.Intn(len(maleNames))]
		}
		last := lastNames[rng.Intn(len(lastNames))]
		t := titles[gender]
		users[i] = User{
			Gender: gender,
			Name:   Name{Title: t[rng.Intn(len(t))], First: first, Last: last},
			Email:  first + "." + last + "@example.com",
		}
	}
	return users
}

func intParam(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// sleep waits a random duration in [lo, hi] and reports false if the
// request was cancelled first.
func sleep(req *http.Request, lo, hi time.Duration) bool {
	if hi <= 0 {
		return true
	}
	d := lo
	if hi > lo {
		d += time.Duration(rand.Int63n(int64(hi - lo)))
	}
	select {
	case <-time.After(d):
		return true
	case <-req.Context().Done():
		return false
	}
}
