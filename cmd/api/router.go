package main

import (
	"context"
	"net/http"
	"time"

	"library/internal/catalog"
	"library/internal/httpx"
	"library/internal/platform/metrics"
	"library/internal/recommendation"
)

type routerDeps struct {
	Catalog         *catalog.HTTPHandler
	Recommendations *recommendation.HTTPHandler
	// Ready reports whether the database answers.
	Ready func(ctx context.Context) error

	EnableHSTS         bool
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	// RateLimiter is optional.
	RateLimiter *httpx.RateLimitMiddleware
}

func newRouter(d routerDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	c := d.Catalog
	mux.HandleFunc("GET /{$}", c.Home)
	mux.HandleFunc("GET /authors", c.ListAuthors)
	mux.HandleFunc("GET /add_author", c.AuthorForm)
	mux.HandleFunc("POST /add_author", c.CreateAuthor)
	mux.HandleFunc("GET /update_author/{id}", c.EditAuthor)
	mux.HandleFunc("POST /update_author/{id}", c.UpdateAuthor)
	mux.HandleFunc("POST /author/{id}/delete", c.DeleteAuthor)
	mux.HandleFunc("GET /add_book", c.BookForm)
	mux.HandleFunc("POST /add_book", c.CreateBook)
	mux.HandleFunc("GET /update_book/{id}", c.EditBook)
	mux.HandleFunc("POST /update_book/{id}", c.UpdateBook)
	mux.HandleFunc("POST /book/{id}/delete", c.DeleteBook)

	mux.HandleFunc("GET /recommendations", d.Recommendations.List)

	middlewares := []func(http.Handler) http.Handler{
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(d.EnableHSTS),
		httpx.CORSMiddleware(d.CORSAllowedOrigins),
	}
	if d.RateLimiter != nil {
		middlewares = append(middlewares, d.RateLimiter.Middleware)
	}
	middlewares = append(middlewares, httpx.RequestSizeLimitMiddleware(d.MaxBodyBytes))

	return httpx.Chain(mux, middlewares...)
}
