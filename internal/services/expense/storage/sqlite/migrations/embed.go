package migrations

import "embed"

// FS contains embedded SQLite migrations for expense storage.
//
//go:embed *.sql
var FS embed.FS
