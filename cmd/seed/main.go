package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"library/internal/catalog"
	"library/internal/config"
	"library/internal/platform/logging"
	"library/internal/platform/postgres"
)

type seedAuthor struct {
	catalog.AuthorInput
	Books []seedBook
}

type seedBook struct {
	ISBN   string
	Title  string
	Year   int
	Rating int
}

var demoAuthors = []seedAuthor{
	{AuthorInput: catalog.AuthorInput{Name: "Bram Stoker", BirthDate: "1847-11-08", DateOfDeath: "1912-04-20"}, Books: []seedBook{
		{"978-0-486-41161-0", "Dracula", 1897, 9},
		{"978-1-84749-028-8", "The Jewel of Seven Stars", 1903, 6},
	}},
	{AuthorInput: catalog.AuthorInput{Name: "Mary Shelley", BirthDate: "1797-08-30", DateOfDeath: "1851-02-01"}, Books: []seedBook{
		{"978-0-14-143947-1", "Frankenstein", 1818, 10},
		{"978-0-19-955235-6", "The Last Man", 1826, 0},
	}},
	{AuthorInput: catalog.AuthorInput{Name: "Shirley Jackson", BirthDate: "1916-12-14", DateOfDeath: "1965-08-08"}, Books: []seedBook{
		{"978-0-14-303998-3", "The Haunting of Hill House", 1959, 9},
	}},
	{AuthorInput: catalog.AuthorInput{Name: "Stephen King", BirthDate: "1947-09-21"}, Books: []seedBook{
		{"978-0-385-12167-5", "The Shining", 1977, 8},
		{"978-0-670-81302-5", "It", 1986, 7},
	}},
}

func main() {
	timeout := flag.Duration("timeout", 30*time.Second, "Overall time limit")
	flag.Parse()

	config.LoadEnvFiles()
	logging.Init(logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: "console"})

	dsn := config.DatabaseDSNFromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.Open(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()

	svc := catalog.NewService(catalog.NewPostgresRepo(pool, 5*time.Second))
	authors, books, err := seed(ctx, svc, demoAuthors)
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Int("authors", authors).Int("books", books).Msg("seed complete")
}

// seed adds the given authors and books, skipping records that already
// exist, so running it twice is harmless.
func seed(ctx context.Context, svc *catalog.Service, data []seedAuthor) (authors, books int, err error) {
	existing, err := svc.ListAuthors(ctx)
	if err != nil {
		return 0, 0, err
	}
	byName := make(map[string]int64, len(existing))
	for _, a := range existing {
		byName[a.Name] = a.ID
	}

	for _, sa := range data {
		id, ok := byName[sa.Name]
		if !ok {
			a, err := svc.CreateAuthor(ctx, sa.AuthorInput)
			if err != nil {
				return authors, books, err
			}
			id = a.ID
			authors++
		}

		for _, sb := range sa.Books {
			year := sb.Year
			in := catalog.BookInput{ISBN: sb.ISBN, Title: sb.Title, PublicationYear: &year, AuthorID: id}
			if sb.Rating > 0 {
				rating := sb.Rating
				in.Rating = &rating
			}
			_, err := svc.CreateBook(ctx, in)
			if errors.Is(err, catalog.ErrBookExists) {
				continue
			}
			if err != nil {
				return authors, books, err
			}
			books++
		}
	}
	return authors, books, nil
}
