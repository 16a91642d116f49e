// Package catalog manages the library's authors and books.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"library/internal/platform/validate"
)

var (
	ErrAuthorNotFound = errors.New("author not found")
	ErrBookNotFound   = errors.New("book not found")
	ErrAuthorExists   = errors.New("author already exists")
	ErrBookExists     = errors.New("book already exists")
)

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []validate.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []validate.FieldError{{Field: field, Message: message}}}
}

type Author struct {
	ID          int64
	Name        string
	BirthDate   time.Time
	DateOfDeath *time.Time
}

func (a Author) MarshalJSON() ([]byte, error) {
	var death *string
	if a.DateOfDeath != nil {
		s := a.DateOfDeath.Format(validate.DateLayout)
		death = &s
	}
	return json.Marshal(struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		BirthDate   string  `json:"birth_date"`
		DateOfDeath *string `json:"date_of_death"`
	}{a.ID, a.Name, a.BirthDate.Format(validate.DateLayout), death})
}

type Book struct {
	ID              int64  `json:"id"`
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	PublicationYear int    `json:"publication_year"`
	Rating          *int   `json:"rating"`
	AuthorID        int64  `json:"author_id"`
	AuthorName      string `json:"author_name"`
}

// AuthorInput is the author form. Dates are YYYY-MM-DD strings; an empty
// DateOfDeath means the author is alive.
type AuthorInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	BirthDate   string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	DateOfDeath string `json:"date_of_death" validate:"omitempty,datetime=2006-01-02"`
}

type BookInput struct {
	ISBN            string `json:"isbn" validate:"required,isbn"`
	Title           string `json:"title" validate:"required,max=200"`
	PublicationYear *int   `json:"publication_year" validate:"required,gte=0,lte=9999"`
	AuthorID        int64  `json:"author_id" validate:"required,gt=0"`
	Rating          *int   `json:"rating" validate:"omitempty,gte=1,lte=10"`
}

type SortKey string

const (
	SortTitle           SortKey = "title"
	SortAuthor          SortKey = "author"
	SortPublishedOldest SortKey = "published_oldest"
	SortPublishedNewest SortKey = "published_newest"
	SortTitleReverse    SortKey = "title_reverse"
)

// ParseSortKey maps a query value to a SortKey. Unknown values sort by title.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortAuthor, SortPublishedOldest, SortPublishedNewest, SortTitleReverse:
		return k
	default:
		return SortTitle
	}
}

type BookQuery struct {
	SortBy SortKey
	Search string
}

// ListMessage is the heading shown above a book listing.
func ListMessage(search string, found int) string {
	switch {
	case search == "":
		return "All books:"
	case found == 0:
		return fmt.Sprintf("No books found matching '%s'.", search)
	default:
		return fmt.Sprintf("Books matching '%s':", search)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
