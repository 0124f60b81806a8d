// Package migrations embeds the SQL files that define the database schema.
package migrations

import "embed"

// FS holds the embedded SQL migration files, consumed by the iofs migrate
// source driver.
//
//go:embed *.sql
var FS embed.FS
