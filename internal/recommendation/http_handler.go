package recommendation

import (
	"context"
	"net/http"

	"library/internal/httpx"
)

type fetcher interface {
	Fetch(ctx context.Context) Result
	Genre() string
}

type HTTPHandler struct {
	fetcher fetcher
}

func NewHTTPHandler(f *Fetcher) *HTTPHandler {
	return &HTTPHandler{fetcher: f}
}

// List handles GET /recommendations
// @Summary Recommended books
// @Description Fetch recommended books from the external API. Always 200; failed attempts are reported in meta.warnings.
// @Tags recommendations
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /recommendations [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	res := h.fetcher.Fetch(r.Context())

	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	httpx.JSONSuccess(w, r, res.Books, map[string]any{
		"genre":    h.fetcher.Genre(),
		"warnings": warnings,
	})
}
