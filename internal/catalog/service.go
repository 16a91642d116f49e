package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"library/internal/platform/validate"
)

// Service provides author and book business logic.
type Service struct {
	repo Repository
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateAuthor(ctx context.Context, in AuthorInput) (Author, error) {
	a, err := authorFromInput(in)
	if err != nil {
		return Author{}, err
	}

	if _, err := s.repo.FindAuthorByName(ctx, a.Name); err == nil {
		return Author{}, ErrAuthorExists
	} else if !errors.Is(err, ErrAuthorNotFound) {
		return Author{}, fmt.Errorf("find author by name: %w", err)
	}

	if err := s.repo.CreateAuthor(ctx, &a); err != nil {
		return Author{}, err
	}
	return a, nil
}

func (s *Service) UpdateAuthor(ctx context.Context, id int64, in AuthorInput) (Author, error) {
	if _, err := s.repo.GetAuthor(ctx, id); err != nil {
		return Author{}, err
	}

	a, err := authorFromInput(in)
	if err != nil {
		return Author{}, err
	}
	a.ID = id

	if other, err := s.repo.FindAuthorByName(ctx, a.Name); err == nil && other.ID != id {
		return Author{}, ErrAuthorExists
	} else if err != nil && !errors.Is(err, ErrAuthorNotFound) {
		return Author{}, fmt.Errorf("find author by name: %w", err)
	}

	if err := s.repo.UpdateAuthor(ctx, &a); err != nil {
		return Author{}, err
	}
	return a, nil
}

// DeleteAuthor removes an author together with all of their books. On a
// storage failure the loaded author is still returned alongside the error.
func (s *Service) DeleteAuthor(ctx context.Context, id int64) (Author, int, error) {
	a, err := s.repo.GetAuthor(ctx, id)
	if err != nil {
		return Author{}, 0, err
	}

	n, err := s.repo.DeleteAuthor(ctx, id)
	if err != nil {
		return a, 0, fmt.Errorf("delete author %d: %w", id, err)
	}
	return a, n, nil
}

func (s *Service) GetAuthor(ctx context.Context, id int64) (Author, error) {
	return s.repo.GetAuthor(ctx, id)
}

func (s *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	return s.repo.ListAuthors(ctx)
}

func (s *Service) CreateBook(ctx context.Context, in BookInput) (Book, error) {
	b, err := s.bookFromInput(ctx, in)
	if err != nil {
		return Book{}, err
	}

	if _, err := s.repo.FindBookByISBN(ctx, b.ISBN); err == nil {
		return Book{}, ErrBookExists
	} else if !errors.Is(err, ErrBookNotFound) {
		return Book{}, fmt.Errorf("find book by isbn: %w", err)
	}

	if err := s.repo.CreateBook(ctx, &b); err != nil {
		return Book{}, missingAuthor(err)
	}
	return b, nil
}

// UpdateBook replaces the fields of a book. A missing rating keeps the
// stored one. Moving a book to another author never removes the previous one.
func (s *Service) UpdateBook(ctx context.Context, id int64, in BookInput) (Book, error) {
	existing, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return Book{}, err
	}

	b, err := s.bookFromInput(ctx, in)
	if err != nil {
		return Book{}, err
	}
	b.ID = id
	if b.Rating == nil {
		b.Rating = existing.Rating
	}

	if other, err := s.repo.FindBookByISBN(ctx, b.ISBN); err == nil && other.ID != id {
		return Book{}, ErrBookExists
	} else if err != nil && !errors.Is(err, ErrBookNotFound) {
		return Book{}, fmt.Errorf("find book by isbn: %w", err)
	}

	if err := s.repo.UpdateBook(ctx, &b); err != nil {
		return Book{}, missingAuthor(err)
	}
	return b, nil
}

// DeleteBook removes a book and, when it was the author's last one, the
// author as well.
func (s *Service) DeleteBook(ctx context.Context, id int64) (Book, bool, error) {
	b, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return Book{}, false, err
	}

	authorRemoved, err := s.repo.DeleteBook(ctx, id)
	if err != nil {
		return b, false, fmt.Errorf("delete book %d: %w", id, err)
	}
	return b, authorRemoved, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context, q BookQuery) ([]Book, error) {
	q.SortBy = ParseSortKey(string(q.SortBy))
	q.Search = strings.TrimSpace(q.Search)
	return s.repo.ListBooks(ctx, q)
}

func authorFromInput(in AuthorInput) (Author, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.BirthDate = strings.TrimSpace(in.BirthDate)
	in.DateOfDeath = strings.TrimSpace(in.DateOfDeath)

	if fields := validate.Struct(in); len(fields) > 0 {
		return Author{}, &ValidationError{Fields: fields}
	}

	birth, _ := time.Parse(validate.DateLayout, in.BirthDate)
	a := Author{Name: in.Name, BirthDate: birth}
	if in.DateOfDeath != "" {
		death, _ := time.Parse(validate.DateLayout, in.DateOfDeath)
		if death.Before(birth) {
			return Author{}, invalid("date_of_death", "Date of death cannot be before birth date.")
		}
		a.DateOfDeath = &death
	}
	return a, nil
}

func (s *Service) bookFromInput(ctx context.Context, in BookInput) (Book, error) {
	in.ISBN = validate.NormalizeISBN(in.ISBN)
	in.Title = strings.TrimSpace(in.Title)

	if fields := validate.Struct(in); len(fields) > 0 {
		return Book{}, &ValidationError{Fields: fields}
	}

	author, err := s.repo.GetAuthor(ctx, in.AuthorID)
	if err != nil {
		return Book{}, missingAuthor(err)
	}

	return Book{
		ISBN:            in.ISBN,
		Title:           in.Title,
		PublicationYear: *in.PublicationYear,
		Rating:          in.Rating,
		AuthorID:        author.ID,
		AuthorName:      author.Name,
	}, nil
}

func missingAuthor(err error) error {
	if errors.Is(err, ErrAuthorNotFound) {
		return invalid("author_id", "Selected author does not exist.")
	}
	return err
}
