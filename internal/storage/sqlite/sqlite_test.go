package sqlitestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/motoyard/yardmap/internal/config"
	"github.com/motoyard/yardmap/internal/database"
	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/internal/logging"
	"github.com/motoyard/yardmap/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend          = (*Backend)(nil)
	_ storage.FootprintIndexer = (*Backend)(nil)
)

func newManager() *database.Manager {
	return database.NewManager(zerolog.New(io.Discard))
}

func TestFilePath_NoDump(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "yard.db")
	dump := filepath.Join(t.TempDir(), "dump.db")

	b, err := New(config.SQLiteConfig{Path: path, DumpPath: dump, DumpInterval: time.Millisecond},
		newManager(), geo.Georeference{}, logging.NewSlogManager())
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.Set(ctx, "yard_zones", `{"zones":[]}`))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err = os.Stat(dump)
	assert.True(t, os.IsNotExist(err), "file-backed databases are not dumped")

	reopened, err := New(config.SQLiteConfig{Path: path}, newManager(), geo.Georeference{}, logging.NewSlogManager())
	require.NoError(t, err)
	require.NoError(t, reopened.Init())
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "yard_zones")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"zones":[]}`, v)
}

func TestInMemory_DumpOnClose(t *testing.T) {
	ctx := context.Background()
	dump := filepath.Join(t.TempDir(), "yardmap.db")

	b, err := New(config.SQLiteConfig{DumpPath: dump, DumpInterval: time.Hour},
		newManager(), geo.Georeference{}, logging.NewSlogManager())
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.Set(ctx, "yard_zones", `{"zones":[{"id":"a"}]}`))
	require.NoError(t, b.Close())

	restored, err := New(config.SQLiteConfig{Path: dump}, newManager(), geo.Georeference{}, logging.NewSlogManager())
	require.NoError(t, err)
	require.NoError(t, restored.Init())
	defer restored.Close()

	v, ok, err := restored.Get(ctx, "yard_zones")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"zones":[{"id":"a"}]}`, v)
}

func TestCloseWithoutInit(t *testing.T) {
	b, err := New(config.SQLiteConfig{Path: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())},
		newManager(), geo.Georeference{}, logging.NewSlogManager())
	require.NoError(t, err)
	assert.NoError(t, b.Close())
}
