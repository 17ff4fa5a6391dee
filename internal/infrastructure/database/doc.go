// Package database provides SQLite storage for Portal Core.
//
// It wraps database/sql with WAL-mode configuration, a single-writer
// connection pool, health checks, and an embedded-filesystem migration
// runner. Migration files live under migrations/ at the repository root
// and are wired in by the main package via MigrationsFS.
//
// Migration files follow the naming convention:
//
//	YYYYMMDD_HHMMSS_description.up.sql
//	YYYYMMDD_HHMMSS_description.down.sql
//
// Both up and down files must exist for a migration to be applied.
package database
