// Package postgres implements storage.Backend on PostgreSQL. The connection
// is opened in Init unless one was injected, then all reads and writes go
// through the gorm backend.
package postgres

import (
	"context"
	"fmt"

	"github.com/motoyard/yardmap/internal/config"
	"github.com/motoyard/yardmap/internal/database"
	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/internal/logging"
	"github.com/motoyard/yardmap/internal/storage"
	gormstorage "github.com/motoyard/yardmap/internal/storage/gorm"
	"github.com/motoyard/yardmap/pkg/core"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	DB         *gorm.DB // optional; opened from Config when nil
	DBManager  *database.Manager
	Config     config.PostgresConfig
	LogManager *logging.SlogManager
	Georef     geo.Georeference
}

// Backend implements storage.Backend using GORM/PostgreSQL.
type Backend struct {
	deps  Dependencies
	inner *gormstorage.Backend
}

// New creates a new Postgres storage backend. No connection is made yet.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects when needed and migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		if b.deps.DBManager == nil {
			return fmt.Errorf("postgres backend: no connection and no database manager")
		}
		db, err := b.deps.DBManager.OpenPostgres(b.deps.Config)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
	}

	inner := gormstorage.New(gormstorage.Dependencies{
		DB:         b.deps.DB,
		LogManager: b.deps.LogManager,
		Georef:     b.deps.Georef,
	})
	if err := inner.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.inner = inner

	b.deps.LogManager.WriteLog("postgres:Init", fmt.Sprintf("Storage ready on %s", b.deps.DB.Name()), "INFO")
	return nil
}

// Close closes the connection.
func (b *Backend) Close() error {
	if b.inner == nil {
		return nil
	}
	err := b.inner.Close()
	b.inner = nil
	return err
}

// Get returns the document stored under key.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	if b.inner == nil {
		return "", false, storage.ErrNotInitialized
	}
	return b.inner.Get(ctx, key)
}

// Set upserts the document stored under key.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	if b.inner == nil {
		return storage.ErrNotInitialized
	}
	return b.inner.Set(ctx, key, value)
}

// IndexFootprints replaces the footprint rows of key.
func (b *Backend) IndexFootprints(ctx context.Context, key string, zones []core.Zone) error {
	if b.inner == nil {
		return storage.ErrNotInitialized
	}
	return b.inner.IndexFootprints(ctx, key, zones)
}
