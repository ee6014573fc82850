package sandbox

import (
	"math"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

// TransitSpec describes a ship's transit drive
type TransitSpec struct {
	// AccelMul multiplies thrust while the drive is spooling or running
	AccelMul float64

	// HeatRate and CoolRate move the normalised hull temperature per second
	HeatRate float64
	CoolRate float64
}

// DefaultTransitSpec returns a drive that reaches transit speeds within a
// few minutes of game time
func DefaultTransitSpec() TransitSpec {
	return TransitSpec{AccelMul: 5000, HeatRate: 0.002, CoolRate: 0.01}
}

// TransitShip is a ship fitted with a transit drive
type TransitShip struct {
	*Ship
	drive TransitSpec
	state navigation.TransitDriveState
	heat  float64
}

func (t *TransitShip) TransitDriveState() navigation.TransitDriveState { return t.state }
func (t *TransitShip) HullTemperature() float64                        { return t.heat }

func (t *TransitShip) SetTransitDriveState(state navigation.TransitDriveState) {
	t.state = state
}

func (t *TransitShip) EngageTransitDrive() {
	if t.state == navigation.TransitDriveOff || t.state == navigation.TransitDriveReady {
		t.state = navigation.TransitDriveStart
	}
}

// step runs the drive and then the hull
func (t *TransitShip) step(dt float64) {
	switch t.state {
	case navigation.TransitDriveStart, navigation.TransitDriveOn:
		t.thrustScale = t.drive.AccelMul
		t.heat = math.Min(1, t.heat+t.drive.HeatRate*dt)
	case navigation.TransitDriveStop, navigation.TransitDriveFinished:
		t.state = navigation.TransitDriveOff
		fallthrough
	default:
		t.thrustScale = 1
		t.heat = math.Max(0, t.heat-t.drive.CoolRate*dt)
	}
	t.Ship.step(dt)
}
