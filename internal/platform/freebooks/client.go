package freebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// StatusError is returned when the API answers with anything but 200 OK.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// Host and APIKey are sent as x-rapidapi-host and x-rapidapi-key.
	Host   string
	APIKey string
	// Timeout bounds a single request. Zero means no timeout.
	Timeout time.Duration
	// RPS limits outgoing requests per second. Zero disables limiting.
	RPS int
}

// Client talks to the RapidAPI free ebooks endpoint. Every call is a single
// request; retrying is the caller's business.
type Client struct {
	httpClient *http.Client
	baseURL    string
	host       string
	apiKey     string
	limiter    *rate.Limiter
}

func NewClient(opts Options) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		host:       opts.Host,
		apiKey:     opts.APIKey,
	}
	if opts.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Second/time.Duration(opts.RPS)), 1)
	}
	return c
}

// FetchEbooks returns the raw book records the API lists for genre.
func (c *Client) FetchEbooks(ctx context.Context, genre string) ([]json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := fmt.Sprintf("%s/fetchEbooks/%s", c.baseURL, url.PathEscape(genre))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-rapidapi-host", c.host)
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection goes back to the pool for the next attempt.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var books []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if books == nil {
		books = []json.RawMessage{}
	}
	return books, nil
}
