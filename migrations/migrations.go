// Package migrations embeds the SQL schema migrations applied at startup
// when the catalog runs on PostgreSQL.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
