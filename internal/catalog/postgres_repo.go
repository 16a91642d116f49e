package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library/internal/platform/postgres"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const authorColumns = `id, name, birth_date, date_of_death`

func scanAuthor(row pgx.Row) (Author, error) {
	var a Author
	err := row.Scan(&a.ID, &a.Name, &a.BirthDate, &a.DateOfDeath)
	if errors.Is(err, pgx.ErrNoRows) {
		return Author{}, ErrAuthorNotFound
	}
	return a, err
}

func authorWriteError(err error) error {
	if _, ok := postgres.Violation(err, postgres.CodeUniqueViolation); ok {
		return ErrAuthorExists
	}
	if _, ok := postgres.Violation(err, postgres.CodeCheckViolation); ok {
		return invalid("date_of_death", "Date of death cannot be before birth date.")
	}
	return err
}

func (r *PostgresRepo) CreateAuthor(ctx context.Context, a *Author) error {
	const sql = `
		INSERT INTO authors (name, birth_date, date_of_death)
		VALUES ($1, $2, $3)
		RETURNING id`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(ctx, sql, a.Name, a.BirthDate, a.DateOfDeath).Scan(&a.ID); err != nil {
		return fmt.Errorf("insert author: %w", authorWriteError(err))
	}
	return nil
}

func (r *PostgresRepo) UpdateAuthor(ctx context.Context, a *Author) error {
	const sql = `
		UPDATE authors
		SET name = $1, birth_date = $2, date_of_death = $3
		WHERE id = $4`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, sql, a.Name, a.BirthDate, a.DateOfDeath, a.ID)
	if err != nil {
		return fmt.Errorf("update author: %w", authorWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

func (r *PostgresRepo) GetAuthor(ctx context.Context, id int64) (Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanAuthor(r.db.QueryRow(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = $1`, id))
}

func (r *PostgresRepo) FindAuthorByName(ctx context.Context, name string) (Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanAuthor(r.db.QueryRow(ctx, `SELECT `+authorColumns+` FROM authors WHERE name = $1`, name))
}

func (r *PostgresRepo) ListAuthors(ctx context.Context) ([]Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, `SELECT `+authorColumns+` FROM authors ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) DeleteAuthor(ctx context.Context, id int64) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	books, err := tx.Exec(ctx, `DELETE FROM books WHERE author_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete author books: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrAuthorNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(books.RowsAffected()), nil
}

const bookSelect = `
	SELECT b.id, b.isbn, b.title, b.publication_year, b.rating, b.author_id, a.name
	FROM books b
	JOIN authors a ON a.id = b.author_id`

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.ISBN, &b.Title, &b.PublicationYear, &b.Rating, &b.AuthorID, &b.AuthorName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	return b, err
}

func bookWriteError(err error) error {
	if _, ok := postgres.Violation(err, postgres.CodeUniqueViolation); ok {
		return ErrBookExists
	}
	if _, ok := postgres.Violation(err, postgres.CodeForeignKeyViolation); ok {
		return ErrAuthorNotFound
	}
	return err
}

func (r *PostgresRepo) CreateBook(ctx context.Context, b *Book) error {
	const sql = `
		INSERT INTO books (isbn, title, publication_year, rating, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(ctx, sql, b.ISBN, b.Title, b.PublicationYear, b.Rating, b.AuthorID).Scan(&b.ID); err != nil {
		return fmt.Errorf("insert book: %w", bookWriteError(err))
	}
	return nil
}

func (r *PostgresRepo) UpdateBook(ctx context.Context, b *Book) error {
	const sql = `
		UPDATE books
		SET isbn = $1, title = $2, publication_year = $3, rating = $4, author_id = $5
		WHERE id = $6`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, sql, b.ISBN, b.Title, b.PublicationYear, b.Rating, b.AuthorID, b.ID)
	if err != nil {
		return fmt.Errorf("update book: %w", bookWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *PostgresRepo) GetBook(ctx context.Context, id int64) (Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(ctx, bookSelect+` WHERE b.id = $1`, id))
}

func (r *PostgresRepo) FindBookByISBN(ctx context.Context, isbn string) (Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(ctx, bookSelect+` WHERE b.isbn = $1`, isbn))
}

var bookOrder = map[SortKey]string{
	SortTitle:           "b.title ASC",
	SortAuthor:          "a.name ASC",
	SortPublishedOldest: "b.publication_year ASC",
	SortPublishedNewest: "b.publication_year DESC",
	SortTitleReverse:    "b.title DESC",
}

func (r *PostgresRepo) ListBooks(ctx context.Context, q BookQuery) ([]Book, error) {
	order, ok := bookOrder[q.SortBy]
	if !ok {
		order = bookOrder[SortTitle]
	}

	sql := bookSelect
	var args []any
	if q.Search != "" {
		sql += ` WHERE b.title ILIKE $1 ESCAPE '\' OR a.name ILIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}
	sql += fmt.Sprintf(" ORDER BY %s, b.id ASC", order)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) DeleteBook(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var authorID int64
	err = tx.QueryRow(ctx, `SELECT author_id FROM books WHERE id = $1 FOR UPDATE`, id).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrBookNotFound
	}
	if err != nil {
		return false, err
	}

	// Holding the author row keeps a concurrent insert from attaching a new
	// book between the delete and the emptiness check.
	if _, err := tx.Exec(ctx, `SELECT 1 FROM authors WHERE id = $1 FOR UPDATE`, authorID); err != nil {
		return false, fmt.Errorf("lock author: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	tag, err := tx.Exec(ctx, `
		DELETE FROM authors
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM books WHERE author_id = $1)`, authorID)
	if err != nil {
		return false, fmt.Errorf("delete orphaned author: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
