package geo

import (
	"testing"

	"github.com/motoyard/yardmap/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFootprint_ClosedRing(t *testing.T) {
	r := core.Rect{Top: 10, Left: 20, Width: 30, Height: 40}
	ls := Footprint(r)

	seq := ls.Coordinates()
	require.Equal(t, 5, seq.Length())
	assert.Equal(t, seq.GetXY(0), seq.GetXY(4))
	assert.Equal(t, 20.0, seq.GetXY(0).X)
	assert.Equal(t, 10.0, seq.GetXY(0).Y)
	assert.Equal(t, 50.0, seq.GetXY(2).X)
	assert.Equal(t, 50.0, seq.GetXY(2).Y)
}

func TestRectFromFootprint(t *testing.T) {
	r := core.Rect{Top: 10, Left: 20, Width: 30, Height: 40}
	got, err := RectFromFootprint(Footprint(r))
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestRectFromFootprint_Degenerate(t *testing.T) {
	_, err := RectFromFootprint(Footprint(core.Rect{Top: 10, Left: 10}))
	assert.ErrorIs(t, err, ErrInvalidFootprint)
}

func TestCenterPoint(t *testing.T) {
	pt := CenterPoint(core.Rect{Top: 10, Left: 10, Width: 20, Height: 40})
	coords, ok := pt.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 20.0, coords.X)
	assert.Equal(t, 30.0, coords.Y)
}
