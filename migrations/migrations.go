// Package migrations embeds the database schema so the binary carries it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
