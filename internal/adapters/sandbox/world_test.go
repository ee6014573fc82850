package sandbox

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/geometry"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got r3.Vec, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
	assert.InDelta(t, want.Z, got.Z, delta, "z")
}

func TestFrame_PositionRelToNestedFrames(t *testing.T) {
	// Arrange
	root := NewRootFrame("root", 1e9)
	a := NewFrame("a", root, r3.Vec{X: 100}, r3.Vec{Y: 5}, 1e6)
	b := NewFrame("b", a, r3.Vec{Z: 50}, r3.Vec{}, 1e5)

	// Act
	bInRoot := b.PositionRelTo(root)
	rootInB := root.PositionRelTo(b)
	bVelInRoot := b.VelocityRelTo(root)

	// Assert
	assertVec(t, r3.Vec{X: 100, Z: 50}, bInRoot, eps)
	assertVec(t, r3.Vec{X: -100, Z: -50}, rootInB, eps)
	assertVec(t, r3.Vec{Y: 5}, bVelInRoot, eps)
	assert.Nil(t, root.Parent())
	assert.Equal(t, a, b.Parent())
}

func TestFrame_RotatingFrameCarriesStasisVelocity(t *testing.T) {
	// Arrange
	root := NewRootFrame("root", 1e9)
	base := NewFrame("planet", root, r3.Vec{}, r3.Vec{}, 1e6)
	rot := NewRotatingFrame("planet (rotating)", base, 0.01)

	// Act
	vel := geometry.VelInFrame(base, rot, r3.Vec{X: 1000})
	stasis := rot.StasisVelocity(r3.Vec{X: 1000})

	// Assert
	assert.True(t, rot.IsRotating())
	assert.Equal(t, navigation.Frame(base), rot.NonRotating())
	assertVec(t, r3.Vec{Z: 10}, stasis, eps)
	assertVec(t, r3.Vec{Z: -10}, vel, eps)
}

func TestFrame_RotatingFrameTurnsWithTime(t *testing.T) {
	// Arrange
	root := NewRootFrame("root", 1e9)
	base := NewFrame("planet", root, r3.Vec{}, r3.Vec{}, 1e6)
	rot := NewRotatingFrame("planet (rotating)", base, math.Pi/2)

	// Act
	rot.advance(1)
	orient := rot.OrientRelTo(base)

	// Assert
	assertVec(t, r3.Vec{Z: -1}, orient.Apply(r3.Vec{X: 1}), 1e-9)
}

func TestShip_MatchVelocityWithinOneTick(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{}), nil)
	require.NoError(t, err)

	// Act
	covered := ship.MatchVelocity(r3.Vec{Z: -10})
	require.NoError(t, w.Step(0.1))

	// Assert
	assert.True(t, covered)
	assertVec(t, r3.Vec{Z: -10}, ship.Velocity(), 1e-9)
	assertVec(t, r3.Vec{Z: -100}, ship.LastAcceleration(), 1e-9)
}

func TestShip_MatchVelocityClampsThrusters(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{}), nil)
	require.NoError(t, err)

	// Act
	covered := ship.MatchVelocity(r3.Vec{Z: -100})

	// Assert
	assert.False(t, covered)
	assertVec(t, r3.Vec{Z: -1}, ship.ThrusterLevels(), eps)
}

func TestShip_ChangeVelocityDirPreservesDirection(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{}), nil)
	require.NoError(t, err)

	// Act
	ship.ChangeVelocityDir(r3.Vec{X: 50, Z: -50})
	accel := ship.thrustAccel()

	// Assert
	assertVec(t, r3.Vec{X: 1, Z: -0.25}, ship.ThrusterLevels(), eps)
	assert.InDelta(t, 0, navigation.AngleBetween(accel, r3.Vec{X: 1, Z: -1}), 1e-9)
}

func TestShip_FaceDirection(t *testing.T) {
	tests := []struct {
		name          string
		turnRate      float64
		wantRemaining float64
	}{
		{name: "instant turn", turnRate: 0, wantRemaining: 0},
		{name: "rate limited turn", turnRate: 1, wantRemaining: math.Pi/2 - 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			w := NewWorld(1e9, 0.1)
			spec := StandardShip("Wayfarer", r3.Vec{})
			spec.TurnRate = tt.turnRate
			ship, err := w.AddShip(spec, nil)
			require.NoError(t, err)

			// Act
			remaining := ship.FaceDirection(r3.Vec{X: 1}, 0)

			// Assert
			assert.InDelta(t, tt.wantRemaining, remaining, 1e-9)
			angle := navigation.AngleBetween(ship.Orient().Forward(), r3.Vec{X: 1})
			assert.InDelta(t, tt.wantRemaining, angle, 1e-6)
		})
	}
}

func TestStation_CapturesClearedShipAtFinalWaypoint(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	station := w.AddStation(StationSpec{Label: "Halcyon", Mass: 1e9, Radius: 100}, nil)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{}), nil)
	require.NoError(t, err)
	require.True(t, station.RequestDockingClearance(ship))
	ship.SetPosition(station.portPosition(0))

	// Act
	require.NoError(t, w.Step(0.1))

	// Assert
	assert.Equal(t, navigation.FlightStateDocked, ship.FlightState())
	assert.Equal(t, station, ship.DockedAt())
	assert.Equal(t, 0, station.DockingPortFor(ship))
}

func TestStation_LaunchReleasesPort(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	station := w.AddStation(StationSpec{Label: "Halcyon", Mass: 1e9, Radius: 100}, nil)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{}), nil)
	require.NoError(t, err)
	require.True(t, station.RequestDockingClearance(ship))
	ship.SetPosition(station.portPosition(0))
	require.NoError(t, w.Step(0.1))
	require.Equal(t, navigation.FlightStateDocked, ship.FlightState())

	// Act
	ship.Launch()

	// Assert
	assert.Equal(t, navigation.FlightStateFlying, ship.FlightState())
	assert.Nil(t, ship.DockedAt())
	assert.Equal(t, -1, station.DockingPortFor(ship))
	assertVec(t, r3.Vec{Z: 400}, ship.Position(), 1e-6)
}

func TestStation_ClearanceRules(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	busy := w.AddStation(StationSpec{Label: "Busy", Mass: 1e9, Radius: 100, Ports: 1}, nil)
	closed := w.AddStation(StationSpec{Label: "Closed", Mass: 1e9, Radius: 100, RefuseClearance: true}, nil)
	first, err := w.AddShip(StandardShip("First", r3.Vec{Z: 5000}), nil)
	require.NoError(t, err)
	second, err := w.AddShip(StandardShip("Second", r3.Vec{Z: -5000}), nil)
	require.NoError(t, err)

	// Act & Assert
	assert.True(t, busy.RequestDockingClearance(first))
	assert.True(t, busy.RequestDockingClearance(first), "repeat request keeps the port")
	assert.False(t, busy.RequestDockingClearance(second), "no free port")
	assert.False(t, closed.RequestDockingClearance(first))
	assert.Equal(t, -1, closed.DockingPortFor(first))
}

func TestStation_ApproachWaypointStages(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	station := w.AddStation(StationSpec{Label: "Halcyon", Mass: 1e9, Radius: 100, Ports: 2}, nil)

	// Act
	approach, okApproach := station.ApproachWaypoint(0, 1)
	final, okFinal := station.ApproachWaypoint(0, 2)
	_, okBadStage := station.ApproachWaypoint(0, 3)
	_, okBadPort := station.ApproachWaypoint(2, 1)

	// Assert
	require.True(t, okApproach)
	require.True(t, okFinal)
	assert.False(t, okBadStage)
	assert.False(t, okBadPort)
	assertVec(t, r3.Vec{Z: 400}, approach.Position, 1e-9)
	assertVec(t, r3.Vec{Z: 120}, final.Position, 1e-9)
	assertVec(t, r3.Vec{Z: -1}, final.ZAxis, 1e-9)
	assert.Equal(t, navigation.DockMethodOrbital, station.DockMethod())
	assert.Equal(t, 500.0, station.ParkingDistance())
}

func TestShip_SurfaceContact(t *testing.T) {
	tests := []struct {
		name      string
		wheels    float64
		wantState navigation.FlightState
		wantDead  bool
	}{
		{name: "gear down lands", wheels: 1, wantState: navigation.FlightStateLanded},
		{name: "gear up crashes", wheels: 0, wantState: navigation.FlightStateFlying, wantDead: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			w := NewWorld(1e12, 0.1)
			planet := w.AddPlanet(PlanetSpec{Label: "Pebble", Mass: 1e16, Radius: 3500}, nil)
			ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{Y: 3511}), planet.NonRotatingFrame())
			require.NoError(t, err)
			ship.SetVelocity(r3.Vec{Y: -2})
			ship.wheels = tt.wheels
			ship.wheelsDown = tt.wheels > 0

			// Act
			for i := 0; i < 20 && !ship.IsDead() && ship.FlightState() == navigation.FlightStateFlying; i++ {
				require.NoError(t, w.Step(0.1))
			}

			// Assert
			assert.Equal(t, tt.wantState, ship.FlightState())
			assert.Equal(t, tt.wantDead, ship.IsDead())
		})
	}
}

func TestShip_LaunchFromSurface(t *testing.T) {
	// Arrange
	w := NewWorld(1e12, 0.1)
	planet := w.AddPlanet(SmallPlanet("Cinder", r3.Vec{}), nil)
	spec := StandardShip("Wayfarer", r3.Vec{Y: 3510})
	spec.State = navigation.FlightStateLanded
	ship, err := w.AddShip(spec, planet.NonRotatingFrame())
	require.NoError(t, err)

	// Act
	ship.Launch()

	// Assert
	assert.Equal(t, navigation.FlightStateFlying, ship.FlightState())
	assertVec(t, r3.Vec{Y: launchSpeed}, ship.Velocity(), eps)
}

func TestShip_WheelsOnlyMoveWhileFlying(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	spec := StandardShip("Wayfarer", r3.Vec{})
	spec.State = navigation.FlightStateDocked
	docked, err := w.AddShip(spec, nil)
	require.NoError(t, err)
	flying, err := w.AddShip(StandardShip("Flyer", r3.Vec{X: 1000}), nil)
	require.NoError(t, err)

	// Act
	dockedOK := docked.SetWheelState(true)
	flyingOK := flying.SetWheelState(true)
	require.NoError(t, w.Step(1))

	// Assert
	assert.False(t, dockedOK)
	assert.True(t, flyingOK)
	assert.InDelta(t, wheelRate, flying.WheelState(), eps)
	assert.Zero(t, docked.WheelState())
}

func TestWorld_StepRejectsNonPositiveTimestep(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)

	// Act
	err := w.Step(0)

	// Assert
	assert.Error(t, err)
	assert.Zero(t, w.Elapsed())
}

func TestWorld_ReframesShipEnteringPlanetFrame(t *testing.T) {
	// Arrange
	w := NewWorld(1e12, 0.1)
	planet := w.AddPlanet(PlanetSpec{
		Label:       "Cinder",
		Position:    r3.Vec{X: 1e6},
		Mass:        1e10,
		Radius:      1000,
		FrameRadius: 1e5,
	}, nil)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{X: 1e6 - 1e5 - 5}), nil)
	require.NoError(t, err)
	ship.SetVelocity(r3.Vec{X: 100})

	// Act
	require.NoError(t, w.Step(0.1))

	// Assert
	assert.Equal(t, navigation.Frame(planet.NonRotatingFrame()), ship.Frame())
	assert.InDelta(t, -1e5+5, ship.Position().X, 1e-3)
	assert.InDelta(t, 100, ship.Velocity().X, 1e-3)
}

func TestWorld_BodyIndex(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	planet := w.AddPlanet(SmallPlanet("Cinder", r3.Vec{}), nil)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{Z: 20000}), planet.NonRotatingFrame())
	require.NoError(t, err)

	// Act
	pi, si := w.IndexForBody(planet), w.IndexForBody(ship)
	fi := w.IndexForFrame(planet.NonRotatingFrame())

	// Assert
	assert.Equal(t, 0, pi)
	assert.Equal(t, 1, si)
	assert.Equal(t, navigation.Body(ship), w.BodyByIndex(si))
	assert.Equal(t, navigation.Frame(planet.NonRotatingFrame()), w.FrameByIndex(fi))
	assert.Nil(t, w.BodyByIndex(7))
	assert.Nil(t, w.FrameByIndex(-1))
	assert.Len(t, w.Bodies(), 2)
}

func TestTransitShip_DriveCycle(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	ship, err := w.AddTransitShip(StandardShip("Courier", r3.Vec{}), DefaultTransitSpec(), nil)
	require.NoError(t, err)

	// Act
	ship.EngageTransitDrive()
	require.NoError(t, w.Step(1))
	engaged := ship.TransitDriveState()
	heat := ship.HullTemperature()

	ship.SetTransitDriveState(navigation.TransitDriveStop)
	require.NoError(t, w.Step(1))

	// Assert
	assert.Equal(t, navigation.TransitDriveStart, engaged)
	assert.InDelta(t, 0.002, heat, eps)
	assert.Equal(t, navigation.TransitDriveOff, ship.TransitDriveState())
	assert.Zero(t, ship.HullTemperature())
}

func TestTransitShip_ScalesThrust(t *testing.T) {
	// Arrange
	w := NewWorld(1e9, 0.1)
	ship, err := w.AddTransitShip(StandardShip("Courier", r3.Vec{}), DefaultTransitSpec(), nil)
	require.NoError(t, err)
	ship.EngageTransitDrive()

	// Act
	ship.SetThrusterLevels(r3.Vec{Z: -1})
	require.NoError(t, w.Step(0.1))

	// Assert
	assert.InDelta(t, -200*5000.0, ship.LastAcceleration().Z, 1e-6)
}

func TestScenarios_AllBuild(t *testing.T) {
	for _, name := range ScenarioNames() {
		t.Run(name, func(t *testing.T) {
			// Act
			sc, err := BuildScenario(name, 0.1)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, name, sc.Name)
			assert.NotEmpty(t, sc.Description)
			require.NotEmpty(t, sc.Engagements)
			for _, e := range sc.Engagements {
				_, ok := sc.World.BodyByIndex(e.VehicleIndex).(navigation.Vehicle)
				assert.True(t, ok, "engagement %d is not a vehicle", e.VehicleIndex)
			}
			assert.NotNil(t, sc.World.BodyByIndex(sc.Focus))
		})
	}
}

func TestScenarios_UnknownName(t *testing.T) {
	// Act
	_, err := BuildScenario("nowhere", 0.1)

	// Assert
	assert.ErrorContains(t, err, "unknown scenario")
}
