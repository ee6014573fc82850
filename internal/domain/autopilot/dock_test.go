package autopilot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/adapters/sandbox"
	"github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

func orbitalStation(t *testing.T, shipPos r3.Vec, refuse bool) (*sandbox.World, *sandbox.Station, *sandbox.Ship) {
	t.Helper()
	w := sandbox.NewWorld(1e12, dt)
	station := w.AddStation(sandbox.StationSpec{
		Label:           "Halcyon",
		Mass:            1e9,
		Radius:          100,
		RefuseClearance: refuse,
	}, nil)
	ship, err := w.AddShip(sandbox.StandardShip("Wayfarer", shipPos), nil)
	require.NoError(t, err)
	return w, station, ship
}

func TestNewDock_RequiresStation(t *testing.T) {
	// Arrange
	_, ship := emptySpace(t)

	// Act
	cmd, err := autopilot.NewDock(ship, nil, nil)

	// Assert
	assert.Nil(t, cmd)
	assert.Error(t, err)
}

func TestDock_GravityTooHigh(t *testing.T) {
	// Arrange
	w := sandbox.NewWorld(1e12, dt)
	planet := w.AddPlanet(sandbox.PlanetSpec{Label: "Anvil", Mass: 1e20, Radius: 3500}, nil)
	pad := w.AddStation(sandbox.StationSpec{
		Label:    "Pad",
		Position: r3.Vec{Y: 3500},
		Mass:     1e6,
		Radius:   50,
		Ground:   true,
	}, planet.NonRotatingFrame())
	ship, err := w.AddShip(sandbox.StandardShip("Wayfarer", r3.Vec{Y: 50000}), planet.NonRotatingFrame())
	require.NoError(t, err)

	// Act
	cmd, err := autopilot.NewDock(ship, pad, nil)
	require.NoError(t, err)
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Nil(t, cmd.Target())
	assert.Equal(t, navigation.AIMessageGravityTooHigh, ship.AIMessage())
	assert.Equal(t, autopilot.StatusDone, status)
}

func TestDock_PermissionRefused(t *testing.T) {
	// Arrange
	_, station, ship := orbitalStation(t, r3.Vec{Z: 2000}, true)
	cmd, err := autopilot.NewDock(ship, station, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusDone, status)
	assert.Equal(t, navigation.AIMessagePermissionRefused, ship.AIMessage())
	assert.Equal(t, autopilot.DockStageGetDataStart, cmd.Stage())
}

func TestDock_FarAwayFliesToStation(t *testing.T) {
	// Arrange
	_, station, ship := orbitalStation(t, r3.Vec{Z: 50000}, false)
	observer := &recordingObserver{}
	cmd, err := autopilot.NewDock(ship, station, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(observer))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	leg, ok := cmd.Child().(*autopilot.FlyTo)
	require.True(t, ok)
	assert.Equal(t, navigation.Body(station), leg.Target())
	assert.Equal(t, -1, station.DockingPortFor(ship), "clearance waits for the approach")
	assert.Equal(t, []spawn{{parent: autopilot.KindDock, child: autopilot.KindFlyTo}}, observer.spawns)
}

func TestDock_ClearanceLoadsApproachWaypoint(t *testing.T) {
	// Arrange
	_, station, ship := orbitalStation(t, r3.Vec{Z: 2000}, false)
	cmd, err := autopilot.NewDock(ship, station, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	assert.Equal(t, 0, station.DockingPortFor(ship))
	assert.Equal(t, autopilot.DockStageFlyToStart, cmd.Stage())
	leg, ok := cmd.Child().(*autopilot.FlyTo)
	require.True(t, ok)
	assert.Equal(t, station.Frame(), leg.TargetFrame())
	assert.InDelta(t, 0, r3.Norm(r3.Sub(r3.Vec{Z: 400}, leg.Offset())), 1e-9)
	assert.Zero(t, leg.TerminalSpeed())
}

func TestDock_DockedVehicleFinishes(t *testing.T) {
	// Arrange
	w := sandbox.NewWorld(1e12, dt)
	station := w.AddStation(sandbox.StationSpec{Label: "Halcyon", Mass: 1e9, Radius: 100}, nil)
	spec := sandbox.StandardShip("Wayfarer", r3.Vec{Z: 2000})
	spec.State = navigation.FlightStateDocked
	ship, err := w.AddShip(spec, nil)
	require.NoError(t, err)
	ship.SetThrusterLevels(r3.Vec{Z: -1})
	cmd, err := autopilot.NewDock(ship, station, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusDone, status)
	assert.Equal(t, r3.Vec{}, ship.ThrusterLevels())
}

func TestDock_CompletesAtOrbitalStation(t *testing.T) {
	// Arrange
	w, station, ship := orbitalStation(t, r3.Vec{Z: 3000}, false)
	cmd, err := autopilot.NewDock(ship, station, nil)
	require.NoError(t, err)

	// Act
	ticks, status := fly(t, w, cmd, newTick(nil), 6000)

	// Assert
	require.Equal(t, autopilot.StatusDone, status, "stage %s after %d ticks", cmd.Stage(), ticks)
	assert.Equal(t, navigation.FlightStateDocked, ship.FlightState())
	assert.Equal(t, station, ship.DockedAt())
	assert.Equal(t, navigation.AIMessageNone, ship.AIMessage())
}

func TestDockStage_String(t *testing.T) {
	assert.Equal(t, "GET_DATA_START", autopilot.DockStageGetDataStart.String())
	assert.Equal(t, "HANDED_OFF", autopilot.DockStageHandedOff.String())
	assert.Equal(t, "UNKNOWN", autopilot.DockStage(99).String())
}
