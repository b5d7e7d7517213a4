package gormstorage

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/motoyard/yardmap/internal/database"
	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/internal/logging"
	"github.com/motoyard/yardmap/internal/storage"
	"github.com/motoyard/yardmap/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend          = (*Backend)(nil)
	_ storage.FootprintIndexer = (*Backend)(nil)
)

func newTestBackend(t *testing.T, georef geo.Georeference) *Backend {
	t.Helper()
	mgr := database.NewManager(zerolog.New(io.Discard))
	db, err := mgr.OpenSqlite(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)

	b := New(Dependencies{DB: db, LogManager: logging.NewSlogManager(), Georef: georef})
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })
	return b
}

func TestInit_NoDB(t *testing.T) {
	b := New(Dependencies{})
	assert.ErrorIs(t, b.Init(), storage.ErrNotInitialized)
	assert.NoError(t, b.Close())
}

func TestGetBeforeInit(t *testing.T) {
	b := New(Dependencies{})
	_, _, err := b.Get(context.Background(), "yard_zones")
	assert.ErrorIs(t, err, storage.ErrNotInitialized)
	assert.ErrorIs(t, b.Set(context.Background(), "yard_zones", "{}"), storage.ErrNotInitialized)
}

func TestGetSet_Upsert(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, geo.Georeference{})

	_, ok, err := b.Get(ctx, "yard_zones")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set(ctx, "yard_zones", `{"zones":[]}`))
	require.NoError(t, b.Set(ctx, "yard_zones", `{"zones":[],"config":{"gridVisible":true,"gridSize":5}}`))

	v, ok, err := b.Get(ctx, "yard_zones")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"zones":[],"config":{"gridVisible":true,"gridSize":5}}`, v)

	var count int64
	require.NoError(t, b.DB().Model(&Document{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIndexFootprints(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, geo.Georeference{})

	zones := []core.Zone{
		{ID: "b", Name: "Zone 2", Order: 2, Position: core.Rect{Top: 50, Left: 50, Width: 20, Height: 10}},
		{ID: "a", Name: "Zone 1", Order: 1, Position: core.Rect{Top: 10, Left: 10, Width: 30, Height: 30}},
	}
	require.NoError(t, b.IndexFootprints(ctx, "yard_zones", zones))

	rows, err := b.Footprints(ctx, "yard_zones")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ZoneID)
	assert.Equal(t, "b", rows[1].ZoneID)
	assert.False(t, rows[0].Georeferenced)

	r, err := geo.RectFromFootprint(rows[0].Outline)
	require.NoError(t, err)
	assert.InDelta(t, 10, r.Top, 1e-9)
	assert.InDelta(t, 30, r.Width, 1e-9)

	// reindexing replaces the rows
	require.NoError(t, b.IndexFootprints(ctx, "yard_zones", zones[:1]))
	rows, err = b.Footprints(ctx, "yard_zones")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].ZoneID)

	require.NoError(t, b.IndexFootprints(ctx, "yard_zones", nil))
	rows, err = b.Footprints(ctx, "yard_zones")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestIndexFootprints_Georeferenced(t *testing.T) {
	ctx := context.Background()
	georef := geo.Georeference{OriginLon: 13.4, OriginLat: 52.5, WidthMeters: 200, HeightMeters: 100}
	b := newTestBackend(t, georef)

	zone := core.Zone{ID: "a", Order: 1, Position: core.Rect{Top: 0, Left: 0, Width: 20, Height: 20}}
	require.NoError(t, b.IndexFootprints(ctx, "yard_zones", []core.Zone{zone}))

	rows, err := b.Footprints(ctx, "yard_zones")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Georeferenced)

	wantX, wantY := georef.To3857(zone.Position.Center())
	got, ok := rows[0].Center.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, wantX, got.XY.X, 1e-6)
	assert.InDelta(t, wantY, got.XY.Y, 1e-6)
}
