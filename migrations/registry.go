// Package migrations exposes the embedded delivery ledger and payment
// snapshot schema, one migration tree per SQL dialect.
package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	talo "github.com/goliatone/go-talo"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const rootPath = "data/sql/migrations"

// Source is the migration tree of one dialect.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// Sources resolves the postgres tree at data/sql/migrations and the sqlite
// tree below it. A nil root reads the embedded schema. Every tree must carry
// at least one up migration.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = talo.GetMigrationsFS()
	}
	base, err := fs.Sub(root, rootPath)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", rootPath, err)
	}
	sqliteFS, err := fs.Sub(base, DialectSQLite)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite tree: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: rootPath, FS: base},
		{Dialect: DialectSQLite, Path: rootPath + "/" + DialectSQLite, FS: sqliteFS},
	}
	for _, source := range sources {
		matches, err := fs.Glob(source.FS, "*.up.sql")
		if err != nil {
			return nil, fmt.Errorf("migrations: glob %s: %w", source.Path, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("migrations: %s tree %q has no *.up.sql files", source.Dialect, source.Path)
		}
	}
	return sources, nil
}

// For returns the embedded migration tree of dialect.
func For(dialect string) (fs.FS, error) {
	dialect = strings.TrimSpace(strings.ToLower(dialect))
	sources, err := Sources(nil)
	if err != nil {
		return nil, err
	}
	for _, source := range sources {
		if source.Dialect == dialect {
			return source.FS, nil
		}
	}
	return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
}
