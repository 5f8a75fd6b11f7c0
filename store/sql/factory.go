// Package sqlstore persists webhook deliveries and payment snapshots with
// bun, on SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-talo/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the database. It satisfies the persistence client config.
type Config struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

func (c Config) GetDebug() bool            { return c.Debug }
func (c Config) GetDriver() string         { return c.Driver }
func (c Config) GetServer() string         { return c.DSN }
func (c Config) GetOtelIdentifier() string { return "go-talo" }

func (c Config) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

// Open connects, registers the embedded migrations for the driver's dialect
// and migrates.
func Open(ctx context.Context, cfg Config) (*persistence.Client, error) {
	cfg.Driver = strings.TrimSpace(strings.ToLower(cfg.Driver))
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, configError("sqlstore: dsn is required")
	}

	var (
		dialect       schema.Dialect
		targetDialect string
	)
	switch cfg.Driver {
	case DriverSQLite, "sqlite":
		cfg.Driver = DriverSQLite
		dialect = sqlitedialect.New()
		targetDialect = migrations.DialectSQLite
	case DriverPostgres, "postgresql":
		cfg.Driver = DriverPostgres
		dialect = pgdialect.New()
		targetDialect = migrations.DialectPostgres
	default:
		return nil, configError("sqlstore: unsupported driver " + cfg.Driver)
	}

	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	schemaFS, err := migrations.For(targetDialect)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	client.RegisterSQLMigrations(schemaFS)
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// RepositoryFactory builds the stores over one bun database.
type RepositoryFactory struct {
	db *bun.DB

	deliveryStore *WebhookDeliveryStore
	snapshotStore *PaymentSnapshotStore
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	return NewRepositoryFactory(client)
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	return NewRepositoryFactory(db)
}

// NewRepositoryFactory accepts a *bun.DB or anything exposing DB() *bun.DB.
func NewRepositoryFactory(persistenceClient any) (*RepositoryFactory, error) {
	db, err := resolveBunDB(persistenceClient)
	if err != nil {
		return nil, err
	}
	deliveryStore, err := NewWebhookDeliveryStore(db)
	if err != nil {
		return nil, err
	}
	snapshotStore, err := NewPaymentSnapshotStore(db)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{
		db:            db,
		deliveryStore: deliveryStore,
		snapshotStore: snapshotStore,
	}, nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) WebhookDeliveryStore() *WebhookDeliveryStore {
	if f == nil {
		return nil
	}
	return f.deliveryStore
}

func (f *RepositoryFactory) PaymentSnapshotStore() *PaymentSnapshotStore {
	if f == nil {
		return nil
	}
	return f.snapshotStore
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, configError("sqlstore: persistence client is required")
	case *bun.DB:
		if typed == nil {
			return nil, configError("sqlstore: persistence client is required")
		}
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, configError("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, configError("sqlstore: unsupported persistence client type")
	}
}
