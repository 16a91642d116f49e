package recommendation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"library/internal/platform/freebooks"
)

type listResponse struct {
	Success bool              `json:"success"`
	Data    []json.RawMessage `json:"data"`
	Meta    struct {
		Genre    string   `json:"genre"`
		Warnings []string `json:"warnings"`
	} `json:"meta"`
}

func TestHTTPHandler_List(t *testing.T) {
	t.Run("books on success", func(t *testing.T) {
		src := new(mockSource)
		src.On("FetchEbooks", mock.Anything, "horror").Return([]json.RawMessage{raw(`{"title":"Dracula"}`)}, nil).Once()
		h := NewHTTPHandler(NewFetcher(src, Config{Genre: "horror"}, WithSleep(func(time.Duration) {})))

		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/recommendations", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body listResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.True(t, body.Success)
		require.Len(t, body.Data, 1)
		assert.JSONEq(t, `{"title":"Dracula"}`, string(body.Data[0]))
		assert.Equal(t, "horror", body.Meta.Genre)
		assert.Empty(t, body.Meta.Warnings)
	})

	t.Run("exhausted still answers 200", func(t *testing.T) {
		src := new(mockSource)
		src.On("FetchEbooks", mock.Anything, "horror").Return(nil, &freebooks.StatusError{StatusCode: 500})
		h := NewHTTPHandler(NewFetcher(src, Config{Genre: "horror", MaxRetries: 2}, WithSleep(func(time.Duration) {})))

		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/recommendations", nil).WithContext(context.Background()))

		require.Equal(t, http.StatusOK, w.Code)
		var body listResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Empty(t, body.Data)
		assert.Equal(t, []string{
			"Failed to fetch recommendations: 500",
			"Failed to fetch recommendations: 500",
		}, body.Meta.Warnings)
	})
}
