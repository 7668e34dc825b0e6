// Package migrations holds the Postgres schema, applied with bun/migrate.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is populated by the numbered files in this package.
var Migrations = migrate.NewMigrations()
