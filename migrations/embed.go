// migrations/embed.go
package migrations

import "embed"

// Postgres holds goose migrations for the production database.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds golang-migrate migrations for the embedded database.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
