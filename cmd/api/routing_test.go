package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"library/internal/catalog"
	"library/internal/platform/freebooks"
	"library/internal/recommendation"
)

func newTestRouter(t *testing.T, ready error) http.Handler {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	repo.EXPECT().ListBooks(gomock.Any(), gomock.Any()).Return([]catalog.Book{}, nil).AnyTimes()
	repo.EXPECT().ListAuthors(gomock.Any()).Return([]catalog.Author{}, nil).AnyTimes()
	repo.EXPECT().GetAuthor(gomock.Any(), int64(1)).Return(catalog.Author{ID: 1, Name: "Poe"}, nil).AnyTimes()
	repo.EXPECT().GetAuthor(gomock.Any(), gomock.Any()).Return(catalog.Author{}, catalog.ErrAuthorNotFound).AnyTimes()
	repo.EXPECT().GetBook(gomock.Any(), int64(1)).Return(catalog.Book{ID: 1, Title: "Dracula"}, nil).AnyTimes()
	repo.EXPECT().GetBook(gomock.Any(), gomock.Any()).Return(catalog.Book{}, catalog.ErrBookNotFound).AnyTimes()
	repo.EXPECT().DeleteAuthor(gomock.Any(), int64(1)).Return(0, nil).AnyTimes()
	repo.EXPECT().DeleteBook(gomock.Any(), int64(1)).Return(false, nil).AnyTimes()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(upstream.Close)

	fetcher := recommendation.NewFetcher(
		freebooks.NewClient(freebooks.Options{BaseURL: upstream.URL, Host: "h", APIKey: "k"}),
		recommendation.Config{},
	)

	return newRouter(routerDeps{
		Catalog:         catalog.NewHTTPHandler(catalog.NewService(repo)),
		Recommendations: recommendation.NewHTTPHandler(fetcher),
		Ready:           func(context.Context) error { return ready },
		MaxBodyBytes:    1 << 20,
	})
}

func TestRouting(t *testing.T) {
	router := newTestRouter(t, nil)
	invalidAuthor := url.Values{"name": {""}}.Encode()

	tests := []struct {
		method string
		target string
		body   string
		want   int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/?sort_by=author&search=poe", "", http.StatusOK},
		{http.MethodGet, "/authors", "", http.StatusOK},
		{http.MethodGet, "/add_author", "", http.StatusOK},
		{http.MethodPost, "/add_author", invalidAuthor, http.StatusBadRequest},
		{http.MethodGet, "/update_author/1", "", http.StatusOK},
		{http.MethodGet, "/update_author/2", "", http.StatusNotFound},
		{http.MethodGet, "/update_author/x", "", http.StatusBadRequest},
		{http.MethodPost, "/update_author/2", invalidAuthor, http.StatusNotFound},
		{http.MethodPost, "/author/1/delete", "", http.StatusOK},
		{http.MethodGet, "/add_book", "", http.StatusOK},
		{http.MethodPost, "/add_book", "", http.StatusBadRequest},
		{http.MethodGet, "/update_book/1", "", http.StatusOK},
		{http.MethodPost, "/update_book/2", "", http.StatusNotFound},
		{http.MethodPost, "/book/1/delete", "", http.StatusOK},
		{http.MethodGet, "/recommendations", "", http.StatusOK},
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/author/1/delete", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.body != "" || tt.method == http.MethodPost {
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, r)

			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestRouting_ReadyzReportsDatabaseDown(t *testing.T) {
	router := newTestRouter(t, errors.New("connection refused"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
