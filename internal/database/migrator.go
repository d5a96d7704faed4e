package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Migrator applies the SQL files of an fs.FS in filename order and records
// each one in schema_migrations so it never runs twice.
type Migrator struct {
	pool  *pgxpool.Pool
	files fs.FS
	log   *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, files fs.FS, log *zap.Logger) *Migrator {
	return &Migrator{pool: pool, files: files, log: log}
}

// MigrationFiles lists the .sql files to apply, sorted. Reset scripts are skipped.
func MigrationFiles(files fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") || strings.Contains(name, "reset") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations executes every migration not yet recorded and returns how many ran.
func (m *Migrator) RunMigrations(ctx context.Context) (int, error) {
	m.log.Info("starting database migrations")

	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.AppliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	names, err := MigrationFiles(m.files)
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, name := range names {
		if applied[name] {
			m.log.Debug("migration already applied", zap.String("file", name))
			continue
		}

		content, err := fs.ReadFile(m.files, name)
		if err != nil {
			return ran, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		m.log.Info("running migration", zap.String("file", name))
		if _, err := m.pool.Exec(ctx, string(content)); err != nil {
			return ran, fmt.Errorf("failed to run migration %s: %w", name, err)
		}
		if err := m.recordMigration(ctx, name); err != nil {
			return ran, fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		ran++
	}

	if ran > 0 {
		m.log.Info("migrations applied", zap.Int("count", ran))
	} else {
		m.log.Info("database is up to date")
	}
	return ran, nil
}

// Pending returns migrations present in the files but not yet applied.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	names, err := MigrationFiles(m.files)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, name := range names {
		if !applied[name] {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := m.pool.Exec(ctx, query)
	return err
}

func (m *Migrator) AppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		applied[filename] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) recordMigration(ctx context.Context, filename string) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO schema_migrations (filename)
		VALUES ($1)
		ON CONFLICT (filename) DO NOTHING
	`, filename)
	return err
}
