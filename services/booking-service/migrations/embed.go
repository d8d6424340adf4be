// Package migrations embeds the goose SQL migrations for booking-service.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
