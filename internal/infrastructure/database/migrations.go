package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// MigrationsFS is set by the migrations package to provide the embedded
// migration files. This avoids import cycles while keeping migrations
// embedded in the binary.
var MigrationsFS embed.FS

// MigrationsDir is the path within the embedded filesystem where migration
// files live. Set alongside MigrationsFS by the migrations package.
var MigrationsDir = "."

// Migration represents a single database migration.
type Migration struct {
	Version string // e.g., "20260301_120000"
	Name    string // e.g., "initial_schema"
	UpSQL   string // SQL to apply the migration
	DownSQL string // SQL to rollback the migration
}

// Migrate applies all pending migrations to the database.
//
// The migration process:
//  1. Creates schema_migrations table if it doesn't exist
//  2. Loads all migration files from embedded filesystem
//  3. Determines which migrations haven't been applied
//  4. Applies pending migrations in order (oldest first)
//  5. Records each applied migration
//
// Each migration runs in its own transaction. If a migration fails,
// it's rolled back and the process stops.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If any migration fails
func (db *DB) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	// Load all migrations from embedded filesystem
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	// Get applied migrations
	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("getting applied migrations: %w", err)
	}

	// Apply pending migrations
	for _, migration := range migrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		if err := db.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("applying migration %s: %w", migration.Version, err)
		}
	}

	return nil
}

// MigrateDown rolls back the most recent migration.
// Useful for development and testing.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If rollback fails
func (db *DB) MigrateDown(ctx context.Context) error {
	// Get most recent migration
	var version string
	err := db.QueryRowContext(ctx,
		"SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1",
	).Scan(&version)

	if err == sql.ErrNoRows {
		return fmt.Errorf("no migrations to rollback")
	}
	if err != nil {
		return fmt.Errorf("getting latest migration: %w", err)
	}

	// Load the migration
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	var target *Migration
	for i := range migrations {
		if migrations[i].Version == version {
			target = &migrations[i]
			break
		}
	}

	if target == nil {
		return fmt.Errorf("migration %s not found in embedded files", version)
	}

	// Execute rollback in transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is no-op

	// Run down migration
	if _, err := tx.ExecContext(ctx, target.DownSQL); err != nil {
		return fmt.Errorf("executing down migration: %w", err)
	}

	// Remove from migrations table
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM schema_migrations WHERE version = ?", version,
	); err != nil {
		return fmt.Errorf("removing migration record: %w", err)
	}

	return tx.Commit()
}

// GetMigrationStatus returns information about applied and pending migrations.
//
// Returns:
//   - applied: List of applied migration versions
//   - pending: List of pending migration versions
//   - error: If query fails
func (db *DB) GetMigrationStatus(ctx context.Context) (applied, pending []string, err error) {
	// Get applied migrations
	appliedMap, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return nil, nil, err
	}

	// Load all migrations
	migrations, err := loadMigrations()
	if err != nil {
		return nil, nil, err
	}

	// Categorize
	for _, migration := range migrations {
		if appliedMap[migration.Version] {
			applied = append(applied, migration.Version)
		} else {
			pending = append(pending, migration.Version)
		}
	}

	return applied, pending, nil
}

// createMigrationsTable creates the schema_migrations tracking table.
func (db *DB) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

// getAppliedMigrations returns a map of applied migration versions.
func (db *DB) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// applyMigration applies a single migration in a transaction.
func (db *DB) applyMigration(ctx context.Context, migration Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is no-op

	// Execute migration SQL
	if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}

	// Record migration
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		migration.Version, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	return tx.Commit()
}

// loadMigrations loads all migrations from the embedded filesystem.
// Migrations are sorted by version (oldest first).
func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(MigrationsFS, MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	migrationMap, err := categoriseMigrationFiles(entries)
	if err != nil {
		return nil, err
	}

	// Convert map to sorted slice
	migrations := make([]Migration, 0, len(migrationMap))
	for _, migration := range migrationMap {
		// Only include migrations with both up and down files
		if migration.UpSQL != "" && migration.DownSQL != "" {
			migrations = append(migrations, *migration)
		}
	}

	// Sort by version (oldest first)
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// categoriseMigrationFiles parses migration directory entries into a map keyed
// by version, pairing up and down SQL files.
func categoriseMigrationFiles(entries []fs.DirEntry) (map[string]*Migration, error) {
	migrationMap := make(map[string]*Migration)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()

		version, name, direction, ok := parseMigrationFilename(filename)
		if !ok {
			continue // Skip files that don't match the naming convention
		}

		// Read file content
		content, err := fs.ReadFile(MigrationsFS, path.Join(MigrationsDir, filename))
		if err != nil {
			return nil, fmt.Errorf("reading migration file %s: %w", filename, err)
		}

		// Get or create migration entry
		migration, exists := migrationMap[version]
		if !exists {
			migration = &Migration{Version: version, Name: name}
			migrationMap[version] = migration
		}

		// Assign SQL based on direction
		if direction == "up" {
			migration.UpSQL = string(content)
		} else {
			migration.DownSQL = string(content)
		}
	}

	return migrationMap, nil
}

// parseMigrationFilename splits a migration filename into its parts.
// Expected format: YYYYMMDD_HHMMSS_description.up.sql or .down.sql
func parseMigrationFilename(filename string) (version, name, direction string, ok bool) {
	var base string
	switch {
	case strings.HasSuffix(filename, ".up.sql"):
		direction = "up"
		base = strings.TrimSuffix(filename, ".up.sql")
	case strings.HasSuffix(filename, ".down.sql"):
		direction = "down"
		base = strings.TrimSuffix(filename, ".down.sql")
	default:
		return "", "", "", false
	}

	// Split version from description: YYYYMMDD_HHMMSS_description
	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 3 {
		return "", "", "", false
	}

	version = parts[0] + "_" + parts[1]
	name = parts[2]
	return version, name, direction, true
}
