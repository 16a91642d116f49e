package main

import (
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"

	"library/db"
)

func repoMigrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// cmd/migrate -> repo root
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")
}

func TestCollectMigrations_ParsesMigrationsDir(t *testing.T) {
	migrations, err := goose.CollectMigrations(repoMigrationsDir(t), 0, goose.MaxVersion)
	if err != nil {
		t.Fatalf("expected migrations to parse, got error: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}
}

func TestEmbeddedMigrations_HaveGooseDirectives(t *testing.T) {
	entries, err := fs.ReadDir(db.Migrations, "migrations")
	if err != nil {
		t.Fatalf("ReadDir(migrations): %v", err)
	}

	var sawSchema bool
	for _, e := range entries {
		b, err := fs.ReadFile(db.Migrations, "migrations/"+e.Name())
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", e.Name(), err)
		}
		s := string(b)
		if !strings.Contains(s, "-- +goose Up") {
			t.Fatalf("%s missing '-- +goose Up'", e.Name())
		}
		if !strings.Contains(s, "-- +goose Down") {
			t.Fatalf("%s missing '-- +goose Down'", e.Name())
		}
		if strings.Contains(s, "CREATE TABLE authors") && strings.Contains(s, "ON DELETE CASCADE") {
			sawSchema = true
		}
	}
	if !sawSchema {
		t.Fatal("expected a migration creating authors with cascading books")
	}
}
