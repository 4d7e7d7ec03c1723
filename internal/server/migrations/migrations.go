// Package migrations embeds the goose SQL migrations for the server schema.
package migrations

import "embed"

// Migrations holds every *.sql file of this directory.
//
//go:embed *.sql
var Migrations embed.FS
