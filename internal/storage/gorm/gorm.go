// Package gormstorage implements storage.Backend on any gorm dialector.
// Documents live in yard_documents; zone footprints are indexed in
// zone_footprints so SQL tooling can query zone geometry directly.
package gormstorage

import (
	"context"
	"fmt"
	"time"

	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/internal/logging"
	"github.com/motoyard/yardmap/internal/storage"
	"github.com/motoyard/yardmap/pkg/core"
	"github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is a stored JSON document.
type Document struct {
	DocKey    string         `gorm:"primaryKey;size:128" json:"key"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// TableName overrides the default table name.
func (*Document) TableName() string {
	return "yard_documents"
}

// ZoneFootprint is the indexed geometry of one zone of a document.
type ZoneFootprint struct {
	ID            uint            `gorm:"primarykey;autoIncrement;" json:"id"`
	DocumentKey   string          `gorm:"index;size:128" json:"documentKey"`
	ZoneID        string          `gorm:"size:64" json:"zoneId"`
	Name          string          `gorm:"size:128" json:"name"`
	Color         string          `gorm:"size:16" json:"color"`
	ZoneOrder     int64           `json:"order"`
	Outline       geom.LineString `json:"outline"` // closed ring in plane percent
	Center        geom.Point      `json:"center"`  // EPSG:3857 when Georeferenced
	Georeferenced bool            `json:"georeferenced"`
}

// TableName overrides the default table name.
func (*ZoneFootprint) TableName() string {
	return "zone_footprints"
}

// Models lists every table the backend migrates.
var Models = []any{&Document{}, &ZoneFootprint{}}

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
	Georef     geo.Georeference
}

// Backend implements storage.Backend and storage.FootprintIndexer on gorm.
type Backend struct {
	deps  Dependencies
	ready bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return storage.ErrNotInitialized
	}
	if err := b.deps.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.ready = true
	b.deps.LogManager.WriteLog("gorm:Init", "Schema migrated", "DEBUG")
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	b.ready = false
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// Get returns the document stored under key.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	if !b.ready {
		return "", false, storage.ErrNotInitialized
	}

	var docs []Document
	res := b.deps.DB.WithContext(ctx).Where("doc_key = ?", key).Limit(1).Find(&docs)
	if res.Error != nil {
		return "", false, fmt.Errorf("failed to read document %q: %w", key, res.Error)
	}
	if len(docs) == 0 {
		return "", false, nil
	}
	return string(docs[0].Value), true, nil
}

// Set upserts the document stored under key.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	if !b.ready {
		return storage.ErrNotInitialized
	}

	doc := Document{DocKey: key, Value: datatypes.JSON(value), UpdatedAt: time.Now().UTC()}
	err := b.deps.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("failed to write document %q: %w", key, err)
	}
	return nil
}

// IndexFootprints replaces the footprint rows of key with zones.
func (b *Backend) IndexFootprints(ctx context.Context, key string, zones []core.Zone) error {
	if !b.ready {
		return storage.ErrNotInitialized
	}

	rows := make([]ZoneFootprint, 0, len(zones))
	for _, z := range zones {
		rows = append(rows, b.footprint(key, z))
	}

	return b.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_key = ?", key).Delete(&ZoneFootprint{}).Error; err != nil {
			return fmt.Errorf("failed to clear footprints: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert footprints: %w", err)
		}
		return nil
	})
}

// Footprints returns the indexed rows of key in zone order.
func (b *Backend) Footprints(ctx context.Context, key string) ([]ZoneFootprint, error) {
	if !b.ready {
		return nil, storage.ErrNotInitialized
	}
	var rows []ZoneFootprint
	err := b.deps.DB.WithContext(ctx).Where("document_key = ?", key).Order("zone_order").Find(&rows).Error
	return rows, err
}

func (b *Backend) footprint(key string, z core.Zone) ZoneFootprint {
	row := ZoneFootprint{
		DocumentKey: key,
		ZoneID:      z.ID,
		Name:        z.Name,
		Color:       z.Color,
		ZoneOrder:   z.Order,
		Outline:     geo.Footprint(z.Position),
	}
	if b.deps.Georef.Valid() {
		row.Center = b.deps.Georef.Point3857(z.Position.Center())
		row.Georeferenced = true
	} else {
		row.Center = geo.CenterPoint(z.Position)
	}
	return row
}
