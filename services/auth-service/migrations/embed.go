// Package migrations embeds the goose SQL migrations for auth-service.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
