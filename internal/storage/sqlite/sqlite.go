// Package sqlitestorage implements storage.Backend on SQLite by composing
// the gorm backend. With no file path the database lives in memory and is
// dumped to disk periodically via VACUUM INTO, and once more on Close.
package sqlitestorage

import (
	"fmt"
	"sync"
	"time"

	"github.com/motoyard/yardmap/internal/config"
	"github.com/motoyard/yardmap/internal/database"
	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/internal/logging"
	gormstorage "github.com/motoyard/yardmap/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db        *gorm.DB
	cfg       config.SQLiteConfig
	dbManager *database.Manager
	log       *logging.SlogManager
	stopChan  chan struct{}
	done      chan struct{}
	looping   bool
	closeOnce sync.Once
}

// New opens the SQLite database described by cfg.
func New(cfg config.SQLiteConfig, dbManager *database.Manager, georef geo.Georeference, logManager *logging.SlogManager) (*Backend, error) {
	db, err := dbManager.OpenSqlite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: logManager,
		Georef:     georef,
	})

	return &Backend{
		Backend:   gormBackend,
		db:        db,
		cfg:       cfg,
		dbManager: dbManager,
		log:       logManager,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// dumps reports whether the database is in memory with a dump target.
func (b *Backend) dumps() bool {
	return b.cfg.Path == "" && b.cfg.DumpPath != ""
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.dumps() && b.cfg.DumpInterval > 0 {
		b.looping = true
		go b.dumpLoop()
	}
	return nil
}

// Dump writes the in-memory database to DumpPath.
func (b *Backend) Dump() error {
	if !b.dumps() {
		return nil
	}
	return b.dbManager.DumpToDisk(b.db, b.cfg.DumpPath)
}

// Close stops the dump goroutine, writes a final dump and closes the
// embedded GORM backend.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stopChan)
		if b.looping {
			<-b.done
		}
		if dumpErr := b.Dump(); dumpErr != nil {
			b.log.WriteLog("sqlite:Close", fmt.Sprintf("Final dump failed: %v", dumpErr), "ERROR")
			err = dumpErr
		}
		if closeErr := b.Backend.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	})
	return err
}

func (b *Backend) dumpLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Dump(); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			} else {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
			}
		}
	}
}
