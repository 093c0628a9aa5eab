// Package migrations embeds the goose SQL migrations so binaries can apply
// the schema without a checkout of the repository.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
