// Package migrations carries the SQL schema embedded into the binary.
package migrations

import "embed"

// FS holds the versioned up/down migration files
//
//go:embed sql/*.sql
var FS embed.FS

// Dir is the directory inside FS that holds the migrations
const Dir = "sql"
