package main

import (
	"fmt"

	"github.com/motoyard/yardmap/internal/config"
	"github.com/motoyard/yardmap/internal/database"
	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/internal/logging"
	"github.com/motoyard/yardmap/internal/storage"
	"github.com/motoyard/yardmap/internal/storage/file"
	"github.com/motoyard/yardmap/internal/storage/memory"
	pgstorage "github.com/motoyard/yardmap/internal/storage/postgres"
	sqlitestorage "github.com/motoyard/yardmap/internal/storage/sqlite"
)

// storageDeps are the shared collaborators of the SQL backends.
type storageDeps struct {
	DBManager  *database.Manager
	LogManager *logging.SlogManager
	Georef     geo.Georeference
}

// createStorageBackend builds the backend named by storageCfg.Type. The
// backend is not initialized.
func createStorageBackend(storageCfg config.StorageConfig, deps storageDeps) (storage.Backend, error) {
	logger := deps.LogManager.Logger()

	switch storageCfg.Type {
	case "postgres":
		logger.Info("Postgres storage backend selected", "host", storageCfg.Postgres.Host, "database", storageCfg.Postgres.Database)
		return pgstorage.New(pgstorage.Dependencies{
			DBManager:  deps.DBManager,
			Config:     storageCfg.Postgres,
			LogManager: deps.LogManager,
			Georef:     deps.Georef,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, deps.DBManager, deps.Georef, deps.LogManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend selected", "path", storageCfg.SQLite.Path, "dumpPath", storageCfg.SQLite.DumpPath)
		return backend, nil

	case "file":
		logger.Info("File storage backend selected", "dir", storageCfg.File.Dir)
		return file.New(storageCfg.File.Dir), nil

	case "memory", "":
		logger.Info("Memory storage backend selected")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
