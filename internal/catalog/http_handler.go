package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"library/internal/httpx"
	"library/internal/platform/validate"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

var errBadBody = errors.New("malformed request body")

// Home handles GET /
// @Summary List books
// @Tags books
// @Produce json
// @Param sort_by query string false "title, author, published_oldest, published_newest or title_reverse" default(title)
// @Param search query string false "Substring of a title or author name"
// @Success 200 {object} httpx.SuccessResponse
// @Router / [get]
func (h *HTTPHandler) Home(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := BookQuery{
		SortBy: ParseSortKey(query.Get("sort_by")),
		Search: strings.TrimSpace(query.Get("search")),
	}

	books, err := h.svc.ListBooks(r.Context(), q)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	authors, err := h.svc.ListAuthors(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, books, map[string]any{
		"message": ListMessage(q.Search, len(books)),
		"sort_by": q.SortBy,
		"search":  q.Search,
		"authors": authors,
	})
}

// ListAuthors handles GET /authors
func (h *HTTPHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.svc.ListAuthors(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, authors, map[string]any{"total": len(authors)})
}

// AuthorForm handles GET /add_author
func (h *HTTPHandler) AuthorForm(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, map[string]any{
		"fields": []string{"name", "birth_date", "date_of_death"},
	}, nil)
}

// CreateAuthor handles POST /add_author
// @Summary Add an author
// @Tags authors
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /add_author [post]
func (h *HTTPHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	in, err := decodeAuthorInput(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	a, err := h.svc.CreateAuthor(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, strings.TrimSpace(in.Name))
		return
	}

	httpx.JSONSuccessCreated(w, r, a, map[string]any{
		"message": fmt.Sprintf("Author '%s' successfully added.", a.Name),
	})
}

// EditAuthor handles GET /update_author/{id}
func (h *HTTPHandler) EditAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, err := h.svc.GetAuthor(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	httpx.JSONSuccess(w, r, a, nil)
}

// UpdateAuthor handles POST /update_author/{id}
// @Summary Update an author
// @Tags authors
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /update_author/{id} [post]
func (h *HTTPHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := decodeAuthorInput(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	a, err := h.svc.UpdateAuthor(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err, strings.TrimSpace(in.Name))
		return
	}

	httpx.JSONSuccess(w, r, a, map[string]any{
		"message": fmt.Sprintf("Author '%s' successfully updated.", a.Name),
	})
}

// DeleteAuthor handles POST /author/{id}/delete
// @Summary Delete an author and all of their books
// @Tags authors
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /author/{id}/delete [post]
func (h *HTTPHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, n, err := h.svc.DeleteAuthor(r.Context(), id)
	if err != nil && (a.ID == 0 || errors.Is(err, ErrAuthorNotFound)) {
		h.writeError(w, r, err, "")
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("author_id", id).Msg("delete author failed")
		httpx.JSONError(w, r, http.StatusInternalServerError, "DELETE_FAILED",
			fmt.Sprintf("An error occurred while deleting the author '%s'.", a.Name), nil)
		return
	}

	httpx.JSONSuccess(w, r, map[string]any{
		"author":        a,
		"deleted_books": n,
	}, map[string]any{
		"message": fmt.Sprintf("Author '%s' and their books have been successfully deleted.", a.Name),
	})
}

// BookForm handles GET /add_book
func (h *HTTPHandler) BookForm(w http.ResponseWriter, r *http.Request) {
	authors, err := h.svc.ListAuthors(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]any{"authors": authors}, nil)
}

// CreateBook handles POST /add_book
// @Summary Add a book
// @Tags books
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /add_book [post]
func (h *HTTPHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	in, err := decodeBookInput(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	b, err := h.svc.CreateBook(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, validate.NormalizeISBN(in.ISBN))
		return
	}

	httpx.JSONSuccessCreated(w, r, b, map[string]any{
		"message": fmt.Sprintf("Book '%s' successfully added.", b.Title),
	})
}

// EditBook handles GET /update_book/{id}
func (h *HTTPHandler) EditBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	b, err := h.svc.GetBook(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	authors, err := h.svc.ListAuthors(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]any{"book": b, "authors": authors}, nil)
}

// UpdateBook handles POST /update_book/{id}
// @Summary Update a book
// @Tags books
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /update_book/{id} [post]
func (h *HTTPHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := decodeBookInput(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	b, err := h.svc.UpdateBook(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err, validate.NormalizeISBN(in.ISBN))
		return
	}

	httpx.JSONSuccess(w, r, b, map[string]any{
		"message": fmt.Sprintf("Book '%s' successfully updated.", b.Title),
	})
}

// DeleteBook handles POST /book/{id}/delete
// @Summary Delete a book; its author goes too when left without books
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /book/{id}/delete [post]
func (h *HTTPHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	b, authorRemoved, err := h.svc.DeleteBook(r.Context(), id)
	if err != nil && (b.ID == 0 || errors.Is(err, ErrBookNotFound)) {
		h.writeError(w, r, err, "")
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("book_id", id).Msg("delete book failed")
		httpx.JSONError(w, r, http.StatusInternalServerError, "DELETE_FAILED",
			fmt.Sprintf("An error occurred while deleting the book '%s'.", b.Title), nil)
		return
	}

	httpx.JSONSuccess(w, r, map[string]any{
		"book":           b,
		"author_removed": authorRemoved,
	}, map[string]any{
		"message": fmt.Sprintf("Book '%s' has been successfully deleted.", b.Title),
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid id", nil)
		return 0, false
	}
	return id, true
}

// writeError maps service errors to responses. subject names the record in
// conflict messages: an author name or an ISBN.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error, subject string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Please fill out all fields correctly.", details(verr.Fields))
	case errors.Is(err, errBadBody):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
	case errors.Is(err, ErrAuthorExists):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", fmt.Sprintf("Author '%s' already exists.", subject), nil)
	case errors.Is(err, ErrBookExists):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", fmt.Sprintf("Book with ISBN '%s' already exists.", subject), nil)
	case errors.Is(err, ErrAuthorNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Author not found", nil)
	case errors.Is(err, ErrBookNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	default:
		h.internalError(w, r, err)
	}
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Ctx(r.Context()).Error().Err(err).Msg("catalog request failed")
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

func details(fields []validate.FieldError) []httpx.ErrorDetail {
	out := make([]httpx.ErrorDetail, 0, len(fields))
	for _, f := range fields {
		out = append(out, httpx.ErrorDetail{Field: f.Field, Message: f.Message})
	}
	return out
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func decodeAuthorInput(r *http.Request) (AuthorInput, error) {
	var in AuthorInput
	if isJSON(r) {
		return in, decodeJSON(r, &in)
	}
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("%w: %v", errBadBody, err)
	}
	in.Name = r.PostForm.Get("name")
	in.BirthDate = r.PostForm.Get("birth_date")
	in.DateOfDeath = r.PostForm.Get("date_of_death")
	return in, nil
}

func decodeBookInput(r *http.Request) (BookInput, error) {
	var in BookInput
	if isJSON(r) {
		return in, decodeJSON(r, &in)
	}
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("%w: %v", errBadBody, err)
	}

	in.ISBN = r.PostForm.Get("isbn")
	in.Title = r.PostForm.Get("title")

	var fields []validate.FieldError
	if v := strings.TrimSpace(r.PostForm.Get("publication_year")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			fields = append(fields, validate.FieldError{Field: "publication_year", Message: "publication_year must be a whole number"})
		} else {
			in.PublicationYear = &year
		}
	}
	if v := strings.TrimSpace(r.PostForm.Get("author_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			fields = append(fields, validate.FieldError{Field: "author_id", Message: "author_id must be a whole number"})
		}
		in.AuthorID = id
	}
	if v := strings.TrimSpace(r.PostForm.Get("rating")); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil {
			fields = append(fields, validate.FieldError{Field: "rating", Message: "rating must be a whole number"})
		} else {
			in.Rating = &rating
		}
	}
	if len(fields) > 0 {
		return in, &ValidationError{Fields: fields}
	}
	return in, nil
}
