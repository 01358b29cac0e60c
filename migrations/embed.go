// Package migrations embeds the SQL schema so the server and cmd/migrate
// apply exactly the same files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
