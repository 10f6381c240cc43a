// Package migrations holds the SQLite schema as numbered NNN_name.up.sql
// files, each paired with a .down.sql for manual rollback.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
