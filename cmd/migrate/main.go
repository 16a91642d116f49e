package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"library/internal/config"
	"library/internal/platform/logging"
	"library/internal/platform/postgres"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	config.LoadEnvFiles()
	logging.Init(logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT")})

	dir := migrationsDir()
	if *command == "create" {
		if *name == "" {
			log.Fatal().Msg("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			log.Fatal().Err(err).Msg("create migration")
		}
		log.Info().Str("name", *name).Str("dir", dir).Msg("migration created")
		return
	}

	dsn := config.DatabaseDSNFromEnv()
	pool, err := postgres.Open(context.Background(), dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := run(db, *command, dir); err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("migration failed")
	}
	log.Info().Str("command", *command).Str("db", postgres.RedactDSN(dsn)).Msg("migration finished")
}

func run(db *sql.DB, command, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		return goose.Up(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	default:
		return fmt.Errorf("unknown command %q: use up, down, status, create", command)
	}
}
