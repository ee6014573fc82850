package autopilot_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/geometry"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

func TestNewFlyAround_Validation(t *testing.T) {
	_, planet, ship := nearPlanet(t, r3.Vec{Z: 20000})

	tests := []struct {
		name string
		alt  float64
		mode autopilot.FlyAroundMode
	}{
		{name: "zero altitude", alt: 0, mode: autopilot.FlyAroundOrbit},
		{name: "negative altitude", alt: -10, mode: autopilot.FlyAroundOrbit},
		{name: "unknown mode", alt: 8000, mode: autopilot.FlyAroundMode(9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			cmd, err := autopilot.NewFlyAround(ship, planet, tt.alt, 0, tt.mode, nil)

			// Assert
			assert.Nil(t, cmd)
			var invalid *shared.InvalidCommandError
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestNewFlyAround_DefaultSpeed(t *testing.T) {
	// Arrange
	_, planet, ship := nearPlanet(t, r3.Vec{Z: 20000})
	gm := geometry.G * planet.Mass()

	// Act
	orbit, err := autopilot.NewFlyAround(ship, planet, 10000, 0, autopilot.FlyAroundOrbit, nil)
	require.NoError(t, err)
	toTarget, err := autopilot.NewFlyAround(ship, planet, 10000, 0, autopilot.FlyAroundToTarget, nil)
	require.NoError(t, err)
	fixed, err := autopilot.NewFlyAround(ship, planet, 10000, 250, autopilot.FlyAroundEscort, nil)
	require.NoError(t, err)

	// Assert
	assert.InDelta(t, math.Sqrt(gm/10000), orbit.Speed(), 1e-9)
	assert.InDelta(t, math.Sqrt(10000*0.8*ship.AccelMin()+gm/10000), toTarget.Speed(), 1e-9)
	assert.Equal(t, 250.0, fixed.Speed())
}

func TestNewFlyAroundRelative_ScalesEnvelope(t *testing.T) {
	// Arrange
	_, planet, ship := nearPlanet(t, r3.Vec{Z: 20000})

	// Act
	cmd, err := autopilot.NewFlyAroundRelative(ship, planet, 2, autopilot.FlyAroundOrbit, nil)

	// Assert
	require.NoError(t, err)
	assert.InDelta(t, 2*geometry.MaxEffectRadius(planet, ship), cmd.Altitude(), 1e-9)
}

func TestFlyAround_OrbitBeyondFrameIsImpossible(t *testing.T) {
	// Arrange
	_, planet, ship := nearPlanet(t, r3.Vec{Z: 20000})

	// Act
	cmd, err := autopilot.NewFlyAround(ship, planet, 480000, 0, autopilot.FlyAroundOrbit, nil)
	require.NoError(t, err)
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, navigation.AIMessageOrbitImpossible, ship.AIMessage())
	assert.Equal(t, autopilot.StatusDone, status)
}

func TestFlyAround_FarAwayDelegatesToTangentLeg(t *testing.T) {
	// Arrange
	_, planet, ship := nearPlanet(t, r3.Vec{Z: 40000})
	ship.SetVelocity(r3.Vec{X: 100})
	cmd, err := autopilot.NewFlyAround(ship, planet, 10000, 0, autopilot.FlyAroundOrbit, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	leg, ok := cmd.Child().(*autopilot.FlyTo)
	require.True(t, ok)
	assert.True(t, leg.IsTangent())
	assert.Equal(t, planet.NonRotatingFrame(), leg.TargetFrame())
	assert.InDelta(t, 10000, r3.Norm(leg.Offset()), 1e-6)
	assert.Equal(t, cmd.Speed(), leg.TerminalSpeed())
}

func TestFlyAround_HoldsAltitudeOnTheSphere(t *testing.T) {
	// Arrange
	_, planet, ship := nearPlanet(t, r3.Vec{Z: 10000})
	speed := math.Sqrt(geometry.G * planet.Mass() / 10000)
	ship.SetVelocity(r3.Vec{X: speed})
	cmd, err := autopilot.NewFlyAround(ship, planet, 10000, 0, autopilot.FlyAroundEscort, nil)
	require.NoError(t, err)

	// Act
	status := cmd.Advance(newTick(nil))

	// Assert
	assert.Equal(t, autopilot.StatusContinue, status)
	assert.Nil(t, cmd.Child())
	fwd := ship.Orient().Forward()
	assert.InDelta(t, 0, r3.Dot(fwd, r3.Vec{Z: 1}), 1e-6, "nose stays tangential")
	assert.InDelta(t, 0, navigation.AngleBetween(ship.Orient().Up(), r3.Vec{Z: 1}), 1e-6)
}

func TestFlyAround_OrbitSettles(t *testing.T) {
	// Arrange
	w, planet, ship := nearPlanet(t, r3.Vec{Z: 10000})
	speed := math.Sqrt(geometry.G * planet.Mass() / 10000)
	ship.SetVelocity(r3.Vec{X: speed})
	cmd, err := autopilot.NewFlyAround(ship, planet, 10000, 0, autopilot.FlyAroundOrbit, nil)
	require.NoError(t, err)

	// Act
	_, status := fly(t, w, cmd, newTick(nil), 500)

	// Assert
	assert.Equal(t, autopilot.StatusDone, status)
	assert.Equal(t, r3.Vec{}, ship.ThrusterLevels())
	assert.InDelta(t, 10000, r3.Norm(ship.Position()), 100)
}

func TestFlyAroundMode_String(t *testing.T) {
	assert.Equal(t, "TO_TARGET", autopilot.FlyAroundToTarget.String())
	assert.Equal(t, "ESCORT", autopilot.FlyAroundEscort.String())
	assert.Equal(t, "ORBIT", autopilot.FlyAroundOrbit.String())
	assert.Equal(t, "UNKNOWN", autopilot.FlyAroundMode(-1).String())
}
