package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/voyagen/wolfflix/internal/logging"
)

// DefaultMigrationsPath is where the SQL migrations live relative to the
// working directory.
const DefaultMigrationsPath = "file://migrations"

// EnsurePgvector creates the vector extension, or confirms an administrator
// already created it when the database role may not.
func EnsurePgvector(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	_, err = db.Exec("CREATE EXTENSION IF NOT EXISTS vector")
	if err == nil {
		return nil
	}
	if !strings.Contains(err.Error(), "permission denied") {
		return fmt.Errorf("create pgvector extension: %w", err)
	}

	var exists bool
	if qErr := db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&exists); qErr != nil {
		return fmt.Errorf("check pgvector: %w (original: %w)", qErr, err)
	}
	if !exists {
		return fmt.Errorf("pgvector is not installed and this role cannot create it; run CREATE EXTENSION vector as an admin: %w", err)
	}
	return nil
}

// RunMigrations applies pending migrations from migrationsPath
// (e.g. "file://migrations") and logs the resulting schema version.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate.Up: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrate.Version: %w", err)
	}
	logging.Info().Uint("version", version).Bool("dirty", dirty).Msg("database schema up to date")
	return nil
}
