package talo

import (
	"embed"
	"io/fs"
)

// migrationsFS holds the SQL tree for the webhook delivery ledger and the
// payment snapshot table, with the SQLite variants under sqlite/.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded migration tree rooted at the module.
func GetMigrationsFS() fs.FS {
	return migrationsFS
}
