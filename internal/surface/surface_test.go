package surface

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/motoyard/yardmap/internal/idgen"
	"github.com/motoyard/yardmap/internal/interaction"
	"github.com/motoyard/yardmap/internal/locator"
	"github.com/motoyard/yardmap/internal/viewport"
	"github.com/motoyard/yardmap/internal/zonestore"
	"github.com/motoyard/yardmap/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	surface *Surface
	store   *zonestore.Store
	clock   *manualClock
	markers *locator.StaticSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := zonestore.New(zonestore.Dependencies{IDs: &idgen.Sequence{Prefix: "zone"}})
	clock := newManualClock()
	markers := locator.NewStaticSource()
	s := New(Dependencies{
		Store:    store,
		Viewport: viewport.New(viewport.DefaultConfig()),
		Locator:  locator.New(markers, nil),
		Clock:    clock,
	}, DefaultDrawConfig())
	return &fixture{surface: s, store: store, clock: clock, markers: markers}
}

func TestNew_SelectMode(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, ModeSelect, f.surface.Mode())
	_, ok := f.surface.Pending()
	assert.False(t, ok)
}

func TestSetDrawMode(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.surface.SetDrawMode(ModeRectangle))
	assert.Equal(t, ModeRectangle, f.surface.Mode())
	assert.ErrorIs(t, f.surface.SetDrawMode("lasso"), ErrUnknownMode)
	assert.Equal(t, ModeRectangle, f.surface.Mode())
}

func TestTap_SelectMode(t *testing.T) {
	f := newFixture(t)
	r := core.Rect{Top: 10, Left: 10, Width: 20, Height: 20}
	a := f.store.CreateZone(core.ZoneSpec{Position: &r})
	r2 := core.Rect{Top: 20, Left: 20, Width: 20, Height: 20}
	f.store.CreateZone(core.ZoneSpec{Position: &r2})

	res := f.surface.Tap(core.Point{X: 25, Y: 25})
	assert.Equal(t, TapSelected, res.Action)
	assert.Equal(t, a.ID, res.Zone.ID)
	assert.Equal(t, a.ID, f.store.SelectedID())

	res = f.surface.Tap(core.Point{X: 90, Y: 90})
	assert.Equal(t, TapCleared, res.Action)
	assert.Equal(t, "", f.store.SelectedID())
}

func TestTap_RejectsNonFinitePoint(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.surface.SetDrawMode(ModeRectangle))

	assert.Equal(t, TapRejected, f.surface.Tap(core.Point{X: math.NaN(), Y: 10}).Action)
	_, ok := f.surface.Pending()
	assert.False(t, ok)

	f.surface.Tap(core.Point{X: 10, Y: 10})
	assert.Equal(t, TapRejected, f.surface.Tap(core.Point{X: 40, Y: math.Inf(1)}).Action)
	p, ok := f.surface.Pending()
	require.True(t, ok)
	assert.Equal(t, core.Point{X: 10, Y: 10}, p)
	assert.Empty(t, f.store.Zones())
}

func TestDrawRectangle_Creates(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.surface.SetDrawMode(ModeRectangle))

	assert.Equal(t, TapStarted, f.surface.Tap(core.Point{X: 30, Y: 40}).Action)
	p, ok := f.surface.Pending()
	require.True(t, ok)
	assert.Equal(t, core.Point{X: 30, Y: 40}, p)

	// taps in reverse order still give a positive rectangle
	res := f.surface.Tap(core.Point{X: 10, Y: 10})
	require.Equal(t, TapCreated, res.Action)
	assert.Equal(t, core.Rect{Top: 10, Left: 10, Width: 20, Height: 30}, res.Zone.Position)
	assert.Equal(t, "Zone 1", res.Zone.Name)
	assert.Equal(t, res.Zone.ID, f.store.SelectedID())
	assert.Equal(t, ModeSelect, f.surface.Mode())
	_, ok = f.surface.Pending()
	assert.False(t, ok)

	// the stale timeout of the finished draw does nothing
	f.clock.Advance(10 * time.Second)
	assert.Empty(t, f.surface.Notices())
}

func TestDrawRectangle_TooSmall(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.surface.SetDrawMode(ModeRectangle))

	f.surface.Tap(core.Point{X: 10, Y: 10})
	res := f.surface.Tap(core.Point{X: 12, Y: 11})

	assert.Equal(t, TapRejected, res.Action)
	assert.Empty(t, f.store.Zones())
	assert.Equal(t, ModeRectangle, f.surface.Mode())
	_, ok := f.surface.Pending()
	assert.False(t, ok)

	notices := f.surface.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeDrawTooSmall, notices[0].Code)
	assert.Empty(t, f.surface.Notices(), "notices are drained")
}

func TestDrawCircle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.surface.SetDrawMode(ModeCircle))

	f.surface.Tap(core.Point{X: 50, Y: 50})
	res := f.surface.Tap(core.Point{X: 56, Y: 58})
	require.Equal(t, TapCreated, res.Action)
	assert.Equal(t, core.Rect{Top: 40, Left: 40, Width: 20, Height: 20}, res.Zone.Position)
}

func TestDrawCircle_ClippedToPlane(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.surface.SetDrawMode(ModeCircle))

	f.surface.Tap(core.Point{X: 5, Y: 95})
	res := f.surface.Tap(core.Point{X: 5, Y: 80})
	require.Equal(t, TapCreated, res.Action)
	assert.Equal(t, core.Rect{Top: 80, Left: 0, Width: 20, Height: 20}, res.Zone.Position)
}

func TestDraw_Timeout(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.surface.SetDrawMode(ModeRectangle))

	f.surface.Tap(core.Point{X: 10, Y: 10})
	f.clock.Advance(4 * time.Second)
	_, ok := f.surface.Pending()
	assert.True(t, ok)

	f.clock.Advance(time.Second)
	_, ok = f.surface.Pending()
	assert.False(t, ok)
	assert.Equal(t, ModeSelect, f.surface.Mode())

	notices := f.surface.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeDrawTimeout, notices[0].Code)
	assert.Equal(t, f.clock.Now(), notices[0].At)

	// the next tap selects instead of finishing the draw
	assert.Equal(t, TapCleared, f.surface.Tap(core.Point{X: 30, Y: 40}).Action)
	assert.Empty(t, f.store.Zones())
}

func TestSetDrawMode_CancelsPending(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.surface.SetDrawMode(ModeRectangle))
	f.surface.Tap(core.Point{X: 10, Y: 10})

	require.NoError(t, f.surface.SetDrawMode(ModeCircle))
	_, ok := f.surface.Pending()
	assert.False(t, ok)

	f.clock.Advance(time.Minute)
	assert.Empty(t, f.surface.Notices())
	assert.Equal(t, ModeCircle, f.surface.Mode())
}

func TestScreenToPercent(t *testing.T) {
	f := newFixture(t)
	vp := f.surface.Viewport()
	vp.PanStart()
	vp.PanMove(100, 50)
	vp.PanEnd()
	vp.PinchStart()
	vp.PinchMove(2)
	vp.PinchEnd()

	p, err := f.surface.ScreenToPercent(core.Point{X: 300, Y: 250}, 400, 200)
	require.NoError(t, err)
	assert.InDelta(t, 25, p.X, 1e-9)
	assert.InDelta(t, 50, p.Y, 1e-9)

	_, err = f.surface.ScreenToPercent(core.Point{}, 0, 200)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = f.surface.ScreenToPercent(core.Point{}, 400, -1)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestFrame_MarkersAndZones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := core.Rect{Top: 10, Left: 10, Width: 20, Height: 20}
	z := f.store.CreateZone(core.ZoneSpec{Position: &r})
	f.markers.Set([]core.Marker{
		{ID: "m1", Type: core.MarkerBeacon, Position: core.Point{X: 15, Y: 15}},
		{ID: "m2", Type: core.MarkerMotorcycle, Position: core.Point{X: 5, Y: 5}},
	})

	frame := f.surface.Frame(ctx)
	require.Len(t, frame.Markers, 2)
	assert.Equal(t, z.ID, frame.Markers[0].ZoneID)
	assert.Equal(t, "", frame.Markers[1].ZoneID)
	assert.Equal(t, map[string]int{z.ID: 1}, frame.Occupancy)
	assert.Equal(t, ModeSelect, frame.Mode)
	assert.Nil(t, frame.Pending)
	assert.False(t, f.surface.MarkersStale())

	// moving the zone away re-derives containment on the next frame
	z.Position = core.Rect{Top: 60, Left: 60, Width: 20, Height: 20}
	f.store.UpdateZone(z)
	assert.True(t, f.surface.MarkersStale())
	frame = f.surface.Frame(ctx)
	assert.Equal(t, "", frame.Markers[0].ZoneID)
}

func TestFrame_GesturePreview(t *testing.T) {
	f := newFixture(t)
	r := core.Rect{Top: 30, Left: 30, Width: 20, Height: 20}
	z := f.store.CreateZone(core.ZoneSpec{Position: &r})
	f.store.SelectZone(z.ID)

	ic := f.surface.Interaction()
	require.NoError(t, ic.BeginDrag(z.ID, core.Point{}))
	ic.Move(z.ID, core.Point{X: 30, Y: 0})

	frame := f.surface.Frame(context.Background())
	require.Len(t, frame.Zones, 1)
	assert.True(t, frame.Zones[0].Selected)
	assert.True(t, frame.Zones[0].IsMoving)
	assert.False(t, frame.Zones[0].IsResizing)
	assert.InDelta(t, 40, frame.Zones[0].Position.Left, 1e-9)

	assert.Equal(t, interaction.OutcomeCommitted, ic.End(z.ID).Outcome)
	frame = f.surface.Frame(context.Background())
	assert.False(t, frame.Zones[0].IsMoving)
}

func TestFrame_PendingDraw(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.surface.SetDrawMode(ModeRectangle))
	f.surface.Tap(core.Point{X: 10, Y: 20})

	frame := f.surface.Frame(context.Background())
	require.NotNil(t, frame.Pending)
	assert.Equal(t, core.Point{X: 10, Y: 20}, *frame.Pending)
	assert.Equal(t, ModeRectangle, frame.Mode)
}

type failingSource struct{}

func (failingSource) Markers(context.Context) ([]core.Marker, error) {
	return nil, errors.New("offline")
}

func TestRefreshMarkers_FailureKeepsStale(t *testing.T) {
	store := zonestore.New(zonestore.Dependencies{})
	s := New(Dependencies{Store: store, Locator: locator.New(failingSource{}, nil), Clock: newManualClock()}, DrawConfig{})

	assert.Error(t, s.RefreshMarkers(context.Background()))
	assert.True(t, s.MarkersStale())
	frame := s.Frame(context.Background())
	assert.Empty(t, frame.Markers)
}

func TestOnMarkersResolved(t *testing.T) {
	f := newFixture(t)
	r := core.Rect{Top: 10, Left: 10, Width: 20, Height: 20}
	z := f.store.CreateZone(core.ZoneSpec{Position: &r})
	f.markers.Set([]core.Marker{{ID: "m1", Position: core.Point{X: 15, Y: 15}}})

	var got []locator.Transition
	f.surface.OnMarkersResolved(func(_ []core.Marker, transitions []locator.Transition) {
		got = append(got, transitions...)
	})
	require.NoError(t, f.surface.RefreshMarkers(context.Background()))
	assert.Equal(t, []locator.Transition{{MarkerID: "m1", From: "", To: z.ID}}, got)
}
