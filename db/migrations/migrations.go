// Package migrations embeds the SQL schema files so the server, the migrate
// CLI, and the test harness all apply the same migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
