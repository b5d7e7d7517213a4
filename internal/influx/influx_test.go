package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/motoyard/yardmap/internal/config"
	"github.com/motoyard/yardmap/internal/locator"
	"github.com/motoyard/yardmap/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Unix(1767254400, 0)

func markers() []core.Marker {
	return []core.Marker{
		{ID: "m1", Type: core.MarkerMotorcycle, ZoneID: "zone-2"},
		{ID: "m2", Type: core.MarkerMotorcycle, ZoneID: "zone-1"},
		{ID: "m3", Type: core.MarkerBeacon, ZoneID: "zone-2"},
		{ID: "m4", Type: core.MarkerBeacon},
	}
}

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestOccupancyPoints(t *testing.T) {
	points := OccupancyPoints(markers(), at)
	require.Len(t, points, 2)

	assert.Equal(t, MeasurementOccupancy, points[0].Name())
	assert.Equal(t, "zone-1", points[0].TagList()[0].Value)
	assert.Equal(t, int64(1), points[0].FieldList()[0].Value)
	assert.Equal(t, "zone-2", points[1].TagList()[0].Value)
	assert.Equal(t, int64(2), points[1].FieldList()[0].Value)
}

func TestTransitionPoints(t *testing.T) {
	points := TransitionPoints([]locator.Transition{{MarkerID: "m1", From: "", To: "zone-1"}}, at)
	require.Len(t, points, 1)

	tags := map[string]string{}
	for _, tag := range points[0].TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"marker": "m1", "from": "none", "to": "zone-1"}, tags)
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{})
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.Error(t, m.WritePoint(OccupancyPoints(markers(), at)[0]))
	assert.NoError(t, m.Close())
}

func TestConnect_UnreachableWritesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "occupancy.lp.gz")
	m := NewManager(zerolog.Nop(), config.InfluxConfig{
		Enabled:    true,
		URL:        "http://127.0.0.1:1",
		Org:        "yardmap",
		Bucket:     "zone_occupancy",
		BackupPath: path,
	})
	m.now = func() time.Time { return at }

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)

	m.ObserveMarkers(markers(), []locator.Transition{{MarkerID: "m2", From: "zone-2", To: "zone-1"}})
	m.Flush(context.Background())
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, "zone_occupancy,zone=zone-1 count=1i 1767254400000000000", lines[0])
	assert.Equal(t, "zone_occupancy,zone=zone-2 count=2i 1767254400000000000", lines[1])
	assert.Equal(t, "zone_transition,from=zone-2,marker=m2,to=zone-1 n=1i 1767254400000000000", lines[2])
}
