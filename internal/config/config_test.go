package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Name != "depot_db" {
		t.Fatalf("expected default database depot_db, got %q", cfg.Database.Name)
	}
	if cfg.Business.Timezone != "Africa/Accra" {
		t.Fatalf("expected default timezone, got %q", cfg.Business.Timezone)
	}
	if cfg.Storage.Enabled() {
		t.Fatalf("storage should be disabled without a bucket")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT secret is missing")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("server:\n  port: 9000\ndatabase:\n  host: db.internal\nstorage:\n  bucket: po-images\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_HOST", "override.internal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("expected port from file 9000, got %d", cfg.Server.Port)
	}
	if cfg.Database.Host != "override.internal" {
		t.Fatalf("expected DB_HOST override, got %q", cfg.Database.Host)
	}
	if !cfg.Storage.Enabled() || cfg.Storage.Bucket != "po-images" {
		t.Fatalf("expected storage bucket po-images, got %q", cfg.Storage.Bucket)
	}
	want := "postgres://postgres:@override.internal:5432/depot_db?sslmode=disable"
	if got := cfg.DatabaseURL(); got != want {
		t.Fatalf("DatabaseURL = %q, want %q", got, want)
	}
}
