package catalog

import (
	"context"
)

// Repository defines the contract for author and book storage.
type Repository interface {
	CreateAuthor(ctx context.Context, a *Author) error
	UpdateAuthor(ctx context.Context, a *Author) error
	GetAuthor(ctx context.Context, id int64) (Author, error)
	FindAuthorByName(ctx context.Context, name string) (Author, error)
	ListAuthors(ctx context.Context) ([]Author, error)
	// DeleteAuthor removes the author and every book they wrote, returning
	// the number of books removed.
	DeleteAuthor(ctx context.Context, id int64) (int, error)

	CreateBook(ctx context.Context, b *Book) error
	UpdateBook(ctx context.Context, b *Book) error
	GetBook(ctx context.Context, id int64) (Book, error)
	FindBookByISBN(ctx context.Context, isbn string) (Book, error)
	ListBooks(ctx context.Context, q BookQuery) ([]Book, error)
	// DeleteBook removes the book and, if that leaves its author without
	// books, the author too.
	DeleteBook(ctx context.Context, id int64) (authorRemoved bool, err error)
}
