package autopilot_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/adapters/sandbox"
	"github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

func TestCapture_RecordsChain(t *testing.T) {
	// Arrange
	w, planet, ship := nearPlanet(t, r3.Vec{Z: 20000})
	cmd, err := autopilot.NewFlyToFrame(ship, planet.NonRotatingFrame(), r3.Vec{Z: -20000}, 0, nil)
	require.NoError(t, err)
	cmd.Advance(newTick(nil))

	// Act
	snap, err := autopilot.Capture(cmd, w)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Depth())
	assert.Equal(t, autopilot.KindFlyTo, snap.Kind)
	assert.Equal(t, cmd.ID(), snap.ID)
	assert.Equal(t, w.IndexForBody(ship), snap.VehicleIndex)
	assert.Equal(t, autopilot.NoIndex, snap.FlyTo.TargetIndex)
	assert.Equal(t, w.IndexForFrame(planet.NonRotatingFrame()), snap.FlyTo.TargetFrameIndex)

	require.NotNil(t, snap.Child.FlyAround)
	assert.Equal(t, w.IndexForBody(planet), snap.Child.FlyAround.ObstructorIndex)
	require.NotNil(t, snap.Child.Child.FlyTo)
	assert.True(t, snap.Child.Child.FlyTo.Tangent)
}

func TestCapture_Errors(t *testing.T) {
	// Arrange
	_, ship := emptySpace(t)
	other := sandbox.NewWorld(1e9, dt)
	cmd, err := autopilot.NewHoldPosition(ship, nil)
	require.NoError(t, err)

	// Act
	_, nilErr := autopilot.Capture(nil, other)
	_, foreignErr := autopilot.Capture(cmd, other)

	// Assert
	var snapErr *shared.SnapshotError
	assert.True(t, errors.As(nilErr, &snapErr))
	assert.True(t, errors.As(foreignErr, &snapErr))
}

func TestRestore_ContinuesIdentically(t *testing.T) {
	build := func() (*sandbox.World, *sandbox.Ship, autopilot.Command) {
		w, planet, ship := nearPlanet(t, r3.Vec{Z: 20000})
		cmd, err := autopilot.NewFlyToFrame(ship, planet.NonRotatingFrame(), r3.Vec{Z: -20000}, 0, nil)
		require.NoError(t, err)
		return w, ship, cmd
	}

	// Arrange
	wa, shipA, cmdA := build()
	wb, shipB, cmdB := build()
	tick := newTick(nil)
	for i := 0; i < 50; i++ {
		cmdA.Advance(tick)
		cmdB.Advance(tick)
		require.NoError(t, wa.Step(dt))
		require.NoError(t, wb.Step(dt))
	}
	require.Equal(t, shipA.Position(), shipB.Position())

	snap, err := autopilot.Capture(cmdA, wa)
	require.NoError(t, err)
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded autopilot.Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))

	// Act
	restored, err := autopilot.Restore(&decoded, wb, nil)
	require.NoError(t, err)
	cmdB.Discard()
	for i := 0; i < 200; i++ {
		cmdA.Advance(tick)
		restored.Advance(tick)
		require.NoError(t, wa.Step(dt))
		require.NoError(t, wb.Step(dt))
	}

	// Assert
	assert.Equal(t, cmdA.ID(), restored.ID())
	assert.Equal(t, autopilot.Depth(cmdA), autopilot.Depth(restored))
	assert.Equal(t, shipA.Position(), shipB.Position())
	assert.Equal(t, shipA.Velocity(), shipB.Velocity())
}

func TestRestore_EveryKind(t *testing.T) {
	// Arrange
	w, planet, ship := nearPlanet(t, r3.Vec{Z: 20000})
	transit, err := w.AddTransitShip(sandbox.StandardShip("Courier", r3.Vec{Z: -40000}), sandbox.DefaultTransitSpec(), planet.NonRotatingFrame())
	require.NoError(t, err)
	station := w.AddStation(sandbox.StationSpec{Label: "Halcyon", Position: r3.Vec{X: 60000}, Mass: 1e9, Radius: 100}, planet.NonRotatingFrame())

	flyAround, err := autopilot.NewFlyAround(ship, planet, 8000, 0, autopilot.FlyAroundEscort, nil)
	require.NoError(t, err)
	dock, err := autopilot.NewDock(ship, station, nil)
	require.NoError(t, err)
	kamikaze, err := autopilot.NewKamikaze(ship, transit, nil)
	require.NoError(t, err)
	hold, err := autopilot.NewHoldPosition(ship, nil)
	require.NoError(t, err)
	formation, err := autopilot.NewFormation(ship, transit, r3.Vec{X: 50}, nil)
	require.NoError(t, err)
	transitAround, err := autopilot.NewTransitAround(transit, planet, nil)
	require.NoError(t, err)
	transitAround.SetTargetPosition(r3.Vec{X: 3e6})

	commands := []autopilot.Command{flyAround, dock, kamikaze, hold, formation, transitAround}

	for _, cmd := range commands {
		t.Run(string(cmd.Kind()), func(t *testing.T) {
			// Act
			snap, err := autopilot.Capture(cmd, w)
			require.NoError(t, err)
			restored, err := autopilot.Restore(snap, w, nil)
			require.NoError(t, err)
			again, err := autopilot.Capture(restored, w)
			require.NoError(t, err)

			// Assert
			assert.Equal(t, cmd.Kind(), restored.Kind())
			assert.Equal(t, cmd.Vehicle(), restored.Vehicle())
			assert.Equal(t, snap, again)
		})
	}
}

func TestRestore_Errors(t *testing.T) {
	w, planet, ship := nearPlanet(t, r3.Vec{Z: 20000})
	vi := w.IndexForBody(ship)
	pi := w.IndexForBody(planet)

	tests := []struct {
		name string
		snap *autopilot.Snapshot
	}{
		{name: "empty", snap: nil},
		{name: "unknown kind", snap: &autopilot.Snapshot{Kind: "WARP", VehicleIndex: vi}},
		{name: "missing section", snap: &autopilot.Snapshot{Kind: autopilot.KindKamikaze, VehicleIndex: vi}},
		{name: "vehicle out of range", snap: &autopilot.Snapshot{Kind: autopilot.KindHoldPosition, VehicleIndex: 42}},
		{name: "vehicle is a planet", snap: &autopilot.Snapshot{Kind: autopilot.KindHoldPosition, VehicleIndex: pi}},
		{
			name: "station is a planet",
			snap: &autopilot.Snapshot{Kind: autopilot.KindDock, VehicleIndex: vi, Dock: &autopilot.DockSnapshot{StationIndex: pi}},
		},
		{
			name: "dock stage past hand-off",
			snap: &autopilot.Snapshot{Kind: autopilot.KindDock, VehicleIndex: vi, Dock: &autopilot.DockSnapshot{StationIndex: autopilot.NoIndex, Stage: 9}},
		},
		{
			name: "negative dock stage",
			snap: &autopilot.Snapshot{Kind: autopilot.KindDock, VehicleIndex: vi, Dock: &autopilot.DockSnapshot{StationIndex: autopilot.NoIndex, Stage: -1}},
		},
		{
			name: "unknown fly around mode",
			snap: &autopilot.Snapshot{Kind: autopilot.KindFlyAround, VehicleIndex: vi, FlyAround: &autopilot.FlyAroundSnapshot{ObstructorIndex: pi, Mode: 7}},
		},
		{
			name: "unknown transit phase",
			snap: &autopilot.Snapshot{Kind: autopilot.KindTransitAround, VehicleIndex: vi, TransitAround: &autopilot.TransitAroundSnapshot{ObstructorIndex: pi, Phase: "WARP"}},
		},
		{
			name: "bad child",
			snap: &autopilot.Snapshot{
				Kind:         autopilot.KindHoldPosition,
				VehicleIndex: vi,
				Child:        &autopilot.Snapshot{Kind: autopilot.KindKamikaze, VehicleIndex: vi, Kamikaze: &autopilot.TargetSnapshot{TargetIndex: 99}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			cmd, err := autopilot.Restore(tt.snap, w, nil)

			// Assert
			assert.Nil(t, cmd)
			var snapErr *shared.SnapshotError
			assert.True(t, errors.As(err, &snapErr), "got %v", err)
		})
	}
}

func TestRestore_DoesNotRepeatSideEffects(t *testing.T) {
	// Arrange
	w, planet, ship := nearPlanet(t, r3.Vec{Z: 20000})
	cmd, err := autopilot.NewFlyAround(ship, planet, 480000, 0, autopilot.FlyAroundOrbit, nil)
	require.NoError(t, err)
	snap, err := autopilot.Capture(cmd, w)
	require.NoError(t, err)
	ship.SwapAIMessage(navigation.AIMessageNone)

	// Act
	restored, err := autopilot.Restore(snap, w, nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, navigation.AIMessageNone, ship.AIMessage())
	assert.Equal(t, autopilot.StatusDone, restored.Advance(newTick(nil)))
}
