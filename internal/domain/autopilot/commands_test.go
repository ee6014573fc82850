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

func TestHoldPosition_CancelsVelocity(t *testing.T) {
	// Arrange
	_, ship := emptySpace(t)
	ship.SetVelocity(r3.Vec{X: 3})
	cmd, err := autopilot.NewHoldPosition(ship, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	assert.InDelta(t, -0.6, ship.ThrusterLevels().X, 1e-12)
	assert.Nil(t, cmd.Child())
}

func TestHoldPosition_RequiresVehicle(t *testing.T) {
	_, err := autopilot.NewHoldPosition(nil, nil)
	assert.Error(t, err)
}

func TestKamikaze_RamsTarget(t *testing.T) {
	// Arrange
	w, ship := emptySpace(t)
	target, err := w.AddShip(sandbox.StandardShip("Target", r3.Vec{Z: -10000}), nil)
	require.NoError(t, err)
	cmd, err := autopilot.NewKamikaze(ship, target, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	assert.InDelta(t, 0, navigation.AngleBetween(ship.Orient().Forward(), r3.Vec{Z: -1}), 1e-9)
	assert.Equal(t, r3.Vec{Z: -1}, ship.ThrusterLevels())
}

func TestKamikaze_FinishesWhenTargetDies(t *testing.T) {
	// Arrange
	w, ship := emptySpace(t)
	target, err := w.AddShip(sandbox.StandardShip("Target", r3.Vec{Z: -10000}), nil)
	require.NoError(t, err)
	cmd, err := autopilot.NewKamikaze(ship, target, nil)
	require.NoError(t, err)
	target.Kill()

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusDone, status)
}

func TestKamikaze_SuspendedWhileJumping(t *testing.T) {
	// Arrange
	w, ship := emptySpace(t)
	target, err := w.AddShip(sandbox.StandardShip("Target", r3.Vec{Z: -10000}), nil)
	require.NoError(t, err)
	require.NoError(t, ship.FlightStateMachine().BeginJump())
	cmd, err := autopilot.NewKamikaze(ship, target, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	assert.Equal(t, r3.Vec{}, ship.ThrusterLevels())
}

func TestHoldPosition_SuspendedWhileJumping(t *testing.T) {
	// Arrange
	_, ship := emptySpace(t)
	ship.SetVelocity(r3.Vec{X: 30})
	require.NoError(t, ship.FlightStateMachine().BeginJump())
	cmd, err := autopilot.NewHoldPosition(ship, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	assert.Equal(t, r3.Vec{}, ship.ThrusterLevels())
	assert.Equal(t, r3.Vec{X: 30}, ship.Velocity())
}

func TestNewFormation_RejectsSelf(t *testing.T) {
	// Arrange
	_, ship := emptySpace(t)

	// Act
	cmd, err := autopilot.NewFormation(ship, ship, r3.Vec{X: 100}, nil)

	// Assert
	assert.Nil(t, cmd)
	assert.Error(t, err)
}

func TestFormation_FarLeaderIsIntercepted(t *testing.T) {
	// Arrange
	w, ship := emptySpace(t)
	leader, err := w.AddShip(sandbox.StandardShip("Leader", r3.Vec{Z: -1e5}), nil)
	require.NoError(t, err)
	cmd, err := autopilot.NewFormation(ship, leader, r3.Vec{X: 100}, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	leg, ok := cmd.Child().(*autopilot.FlyTo)
	require.True(t, ok)
	assert.Equal(t, navigation.Body(leader), leg.Target())
}

func TestFormation_MatchesLeaderHeading(t *testing.T) {
	// Arrange
	w, ship := emptySpace(t)
	heading := navigation.LookAlong(r3.Vec{X: 1}, r3.Vec{Y: 1})
	spec := sandbox.StandardShip("Leader", r3.Vec{Z: -1000})
	spec.Orient = &heading
	leader, err := w.AddShip(spec, nil)
	require.NoError(t, err)
	cmd, err := autopilot.NewFormation(ship, leader, r3.Vec{X: 100}, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	assert.Nil(t, cmd.Child())
	assert.InDelta(t, 0, navigation.AngleBetween(ship.Orient().Forward(), r3.Vec{X: 1}), 1e-9)
	assert.NotEqual(t, r3.Vec{}, ship.ThrusterLevels())
}

func TestFormation_FinishesWhenLeaderDies(t *testing.T) {
	// Arrange
	w, ship := emptySpace(t)
	leader, err := w.AddShip(sandbox.StandardShip("Leader", r3.Vec{Z: -1000}), nil)
	require.NoError(t, err)
	cmd, err := autopilot.NewFormation(ship, leader, r3.Vec{X: 100}, nil)
	require.NoError(t, err)
	leader.Kill()

	// Act & Assert
	assert.Equal(t, autopilot.StatusDone, cmd.Advance(newTick(nil)))
}

func transitNearPlanet(t *testing.T, shipPos r3.Vec) (*sandbox.Planet, *sandbox.TransitShip) {
	t.Helper()
	w := sandbox.NewWorld(1e12, dt)
	planet := w.AddPlanet(sandbox.SmallPlanet("Cinder", r3.Vec{}), nil)
	ship, err := w.AddTransitShip(sandbox.StandardShip("Courier", shipPos), sandbox.DefaultTransitSpec(), planet.NonRotatingFrame())
	require.NoError(t, err)
	return planet, ship
}

func TestNewTransitAround_RequiresTransitDrive(t *testing.T) {
	// Arrange
	_, planet, ship := nearPlanet(t, r3.Vec{Z: 20000})

	// Act
	cmd, err := autopilot.NewTransitAround(ship, planet, nil)

	// Assert
	assert.Nil(t, cmd)
	assert.Error(t, err)
}

func TestTransitAround_FinishesNearTarget(t *testing.T) {
	// Arrange
	planet, ship := transitNearPlanet(t, r3.Vec{Z: 31000})
	cmd, err := autopilot.NewTransitAround(ship, planet, nil)
	require.NoError(t, err)
	cmd.SetTargetPosition(r3.Vec{Z: -31000})

	// Act & Assert
	assert.Equal(t, autopilot.StatusDone, cmd.Advance(newTick(nil)))
}

func TestTransitAround_CorrectsAltitudeFirst(t *testing.T) {
	// Arrange
	planet, ship := transitNearPlanet(t, r3.Vec{Z: 20000})
	cmd, err := autopilot.NewTransitAround(ship, planet, nil)
	require.NoError(t, err)
	cmd.SetTargetPosition(r3.Vec{X: 2e6})

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	assert.Equal(t, autopilot.TransitPhaseAltitude, cmd.Phase())
	assert.InDelta(t, 16500, cmd.Altitude(), 1e-9)
	assert.Equal(t, navigation.TransitDriveOff, ship.TransitDriveState())
	assert.InDelta(t, 0, navigation.AngleBetween(ship.Orient().Forward(), r3.Vec{Z: 1}), 1e-9)
}

func TestTransitAround_EngagesDriveInBand(t *testing.T) {
	// Arrange
	planet, ship := transitNearPlanet(t, r3.Vec{Z: 31000})
	cmd, err := autopilot.NewTransitAround(ship, planet, nil)
	require.NoError(t, err)
	cmd.SetTargetPosition(r3.Vec{X: 2e6})

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	assert.Equal(t, autopilot.TransitPhaseTransit, cmd.Phase())
	assert.Equal(t, navigation.TransitDriveStart, ship.TransitDriveState())
}

func TestTransitAround_DiscardDropsToExitSpeed(t *testing.T) {
	// Arrange
	planet, ship := transitNearPlanet(t, r3.Vec{Z: 31000})
	cmd, err := autopilot.NewTransitAround(ship, planet, nil)
	require.NoError(t, err)
	ship.EngageTransitDrive()
	ship.SetVelocity(r3.Vec{X: 2e5})

	// Act
	cmd.Discard()

	// Assert
	tuning := autopilot.DefaultTuning()
	assert.Equal(t, navigation.TransitDriveOff, ship.TransitDriveState())
	assert.InDelta(t, tuning.TransitExitSpeed, ship.Velocity().X, 1e-6)
}

func TestChainHelpers(t *testing.T) {
	assert.Zero(t, autopilot.Depth(nil))
	assert.Nil(t, autopilot.Leaf(nil))
	assert.Equal(t, "DONE", autopilot.StatusDone.String())
	assert.Equal(t, "CONTINUE", autopilot.StatusContinue.String())
}

func TestTuning(t *testing.T) {
	// Arrange
	tuning := autopilot.DefaultTuning()

	// Act
	minRange, minSpeed := tuning.MinTransitRange()

	// Assert
	assert.Equal(t, 15000.0, minRange)
	assert.Equal(t, 299000.0, minSpeed)
	assert.Equal(t, 45000.0, tuning.TransitReadySpeed())

	tuning.TransitRanges = nil
	minRange, minSpeed = tuning.MinTransitRange()
	assert.Zero(t, minRange)
	assert.Zero(t, minSpeed)

	tuning.TransitReadyMargin = 1e9
	assert.Zero(t, tuning.TransitReadySpeed())
}
