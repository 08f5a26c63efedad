// Package migrations embeds the schema files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
