// Package migrations embeds the goose SQL migrations run by cmd/migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
