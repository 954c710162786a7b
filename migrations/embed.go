// Package migrations embeds the Postgres schema migrations so binaries run without the source tree.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
