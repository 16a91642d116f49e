package main

import "testing"

func TestMigrationsDir_EnvOverride(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")

	if got := migrationsDir(); got != "/custom/migrations" {
		t.Fatalf("expected MIGRATIONS_DIR override, got %q", got)
	}
}

func TestMigrationsDir_Default(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")

	if got := migrationsDir(); got != "db/migrations" {
		t.Fatalf("expected default migrations dir, got %q", got)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if err := run(nil, "sideways", "db/migrations"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
