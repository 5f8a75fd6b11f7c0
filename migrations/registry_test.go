package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	talo "github.com/goliatone/go-talo"
	_ "github.com/mattn/go-sqlite3"
)

func TestSources_ReturnsPostgresAndSQLite(t *testing.T) {
	sources, err := Sources(nil)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}

	seen := map[string]bool{}
	for _, source := range sources {
		matches, globErr := fs.Glob(source.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", source.Dialect, globErr)
		}
		if len(matches) != 2 {
			t.Fatalf("expected ledger and snapshot migrations for %s, got %v", source.Dialect, matches)
		}
		seen[source.Dialect] = true
	}
	if !seen[DialectPostgres] || !seen[DialectSQLite] {
		t.Fatalf("expected postgres and sqlite sources, got %#v", seen)
	}
}

func TestSources_RejectsTreeWithoutUpMigrations(t *testing.T) {
	tree := fstest.MapFS{
		"data/sql/migrations/00001_x.down.sql":        {Data: []byte("SELECT 1;")},
		"data/sql/migrations/sqlite/00001_x.down.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := Sources(tree); err == nil {
		t.Fatalf("expected missing up migrations to fail")
	}
}

func TestFor_SelectsDialectTree(t *testing.T) {
	sqliteFS, err := For(" SQLite ")
	if err != nil {
		t.Fatalf("for sqlite: %v", err)
	}
	content, err := fs.ReadFile(sqliteFS, "00001_talo_webhook_deliveries.up.sql")
	if err != nil {
		t.Fatalf("read sqlite ledger migration: %v", err)
	}
	if strings.Contains(strings.ToUpper(string(content)), "TIMESTAMPTZ") {
		t.Fatalf("expected sqlite flavoured DDL, got %s", content)
	}

	postgresFS, err := For(DialectPostgres)
	if err != nil {
		t.Fatalf("for postgres: %v", err)
	}
	if _, err := fs.Stat(postgresFS, "00002_talo_payment_snapshots.up.sql"); err != nil {
		t.Fatalf("expected postgres snapshot migration: %v", err)
	}
	if _, err := fs.Stat(postgresFS, "sqlite"); err != nil {
		t.Fatalf("expected sqlite tree nested below postgres root: %v", err)
	}

	if _, err := For("oracle"); err == nil {
		t.Fatalf("expected unknown dialect to fail")
	}
}

func TestMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := talo.GetMigrationsFS()
	names := []string{"00001_talo_webhook_deliveries", "00002_talo_payment_snapshots"}
	for _, name := range names {
		for _, dir := range []string{"data/sql/migrations", "data/sql/migrations/sqlite"} {
			for _, suffix := range []string{".up.sql", ".down.sql"} {
				migrationPath := dir + "/" + name + suffix
				content, err := fs.ReadFile(root, migrationPath)
				if err != nil {
					t.Fatalf("read migration %s: %v", migrationPath, err)
				}
				if strings.TrimSpace(string(content)) == "" {
					t.Fatalf("expected migration %s to have SQL content", migrationPath)
				}
			}
		}
	}
}

func TestSQLiteDeliveryMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-talo-deliveries?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(talo.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()
	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_talo_webhook_deliveries.up.sql"); err != nil {
		t.Fatalf("apply up: %v", err)
	}

	insert := `INSERT INTO talo_webhook_deliveries (id, delivery_key, event_kind, status, attempts) VALUES (?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "d1", "key_1", "payment_updated", "processing", 1); err != nil {
		t.Fatalf("insert delivery: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "d2", "key_1", "payment_updated", "processing", 1); err == nil {
		t.Fatalf("expected unique delivery key violation")
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_talo_webhook_deliveries.down.sql"); err != nil {
		t.Fatalf("apply down: %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
		"talo_webhook_deliveries",
	).Scan(&count); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected deliveries table to be dropped after down migration")
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
