// Package recommendation fetches recommended books from an external API with
// a bounded, fixed-delay retry loop. Failures never surface as errors: the
// caller gets whatever books were obtained plus one warning per failed attempt.
package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"library/internal/platform/freebooks"
	"library/internal/platform/metrics"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
	DefaultGenre      = "horror"
)

// Source performs a single request for the books of a genre.
type Source interface {
	FetchEbooks(ctx context.Context, genre string) ([]json.RawMessage, error)
}

// Config controls the retry loop. MaxRetries is the total number of attempts.
type Config struct {
	Genre      string
	MaxRetries int
	RetryDelay time.Duration
}

// Result is the outcome of one Fetch. Books is never nil.
type Result struct {
	Books    []json.RawMessage `json:"books"`
	Warnings []string          `json:"warnings"`
}

// Fetcher obtains recommendations from a Source.
type Fetcher struct {
	source Source
	cfg    Config
	sleep  func(time.Duration)
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithSleep replaces the blocking pause between attempts.
func WithSleep(sleep func(time.Duration)) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

func NewFetcher(source Source, cfg Config, opts ...Option) *Fetcher {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.Genre == "" {
		cfg.Genre = DefaultGenre
	}
	f := &Fetcher{source: source, cfg: cfg, sleep: time.Sleep}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Genre is the fixed genre this fetcher asks for.
func (f *Fetcher) Genre() string {
	return f.cfg.Genre
}

// Fetch tries the source up to MaxRetries times, one attempt after another,
// and stops at the first success. Between failed attempts it sleeps RetryDelay;
// there is no sleep after the last attempt.
func (f *Fetcher) Fetch(ctx context.Context) Result {
	res := Result{Books: []json.RawMessage{}}

	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		books, err := f.source.FetchEbooks(ctx, f.cfg.Genre)
		if err == nil {
			metrics.RecommendationAttempts.WithLabelValues("success").Inc()
			if books != nil {
				res.Books = books
			}
			return res
		}

		warning := warningFor(err)
		res.Warnings = append(res.Warnings, warning)
		log.Ctx(ctx).Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", f.cfg.MaxRetries).
			Str("genre", f.cfg.Genre).
			Msg("recommendation fetch failed")

		if attempt < f.cfg.MaxRetries {
			f.sleep(f.cfg.RetryDelay)
		}
	}

	metrics.RecommendationExhausted.Inc()
	return res
}

func warningFor(err error) string {
	var statusErr *freebooks.StatusError
	if errors.As(err, &statusErr) {
		metrics.RecommendationAttempts.WithLabelValues("status_error").Inc()
		return fmt.Sprintf("Failed to fetch recommendations: %d", statusErr.StatusCode)
	}
	metrics.RecommendationAttempts.WithLabelValues("transport_error").Inc()
	return fmt.Sprintf("An error occurred while fetching recommendations: %v", err)
}
