package database

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/motoyard/yardmap/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   uint
	Name string
}

func newTestManager() *Manager {
	return NewManager(zerolog.New(io.Discard))
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.PostgresConfig{
		Host: "db", Port: "5433", Username: "yard", Password: "pw", Database: "zones",
	})
	assert.Equal(t, "host=db port=5433 user=yard password=pw dbname=zones sslmode=disable", dsn)
}

func TestOpenSqlite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yard.db")
	m := newTestManager()

	db, err := m.OpenSqlite(path)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}))
	require.NoError(t, db.Create(&row{Name: "a"}).Error)

	var count int64
	require.NoError(t, db.Model(&row{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDumpToDisk(t *testing.T) {
	m := newTestManager()
	db, err := m.OpenSqlite(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}))
	require.NoError(t, db.Create(&row{Name: "dumped"}).Error)

	dump := filepath.Join(t.TempDir(), "nested", "dump.db")
	require.NoError(t, m.DumpToDisk(db, dump))
	// second dump replaces the first
	require.NoError(t, m.DumpToDisk(db, dump))

	_, err = os.Stat(dump)
	require.NoError(t, err)

	restored, err := m.OpenSqlite(dump)
	require.NoError(t, err)
	var got row
	require.NoError(t, restored.First(&got).Error)
	assert.Equal(t, "dumped", got.Name)
}

func TestDumpToDisk_NoPath(t *testing.T) {
	m := newTestManager()
	assert.ErrorIs(t, m.DumpToDisk(nil, ""), ErrNoDumpPath)
}
