// Package migrations embeds the SQL migration files the server applies at
// startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
