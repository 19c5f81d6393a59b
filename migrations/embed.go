// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS holds the *.up.sql / *.down.sql migration pairs
//
//go:embed *.sql
var FS embed.FS
