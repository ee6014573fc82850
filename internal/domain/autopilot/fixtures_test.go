package autopilot_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/adapters/sandbox"
	"github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

const dt = 0.1

type spawn struct {
	parent autopilot.Kind
	child  autopilot.Kind
}

// recordingObserver collects every delegation it hears about
type recordingObserver struct {
	spawns []spawn
}

func (o *recordingObserver) ChildSpawned(_ navigation.Vehicle, parent, child autopilot.Kind) {
	o.spawns = append(o.spawns, spawn{parent: parent, child: child})
}

func newTick(observer autopilot.Observer) *autopilot.Tick {
	return &autopilot.Tick{Timestep: dt, Tuning: autopilot.DefaultTuning(), Observer: observer}
}

func emptySpace(t *testing.T) (*sandbox.World, *sandbox.Ship) {
	t.Helper()
	w := sandbox.NewWorld(1e12, dt)
	ship, err := w.AddShip(sandbox.StandardShip("Wayfarer", r3.Vec{}), nil)
	require.NoError(t, err)
	return w, ship
}

func nearPlanet(t *testing.T, shipPos r3.Vec) (*sandbox.World, *sandbox.Planet, *sandbox.Ship) {
	t.Helper()
	w := sandbox.NewWorld(1e12, dt)
	planet := w.AddPlanet(sandbox.SmallPlanet("Cinder", r3.Vec{}), nil)
	ship, err := w.AddShip(sandbox.StandardShip("Wayfarer", shipPos), planet.NonRotatingFrame())
	require.NoError(t, err)
	return w, planet, ship
}

// fly advances cmd and the world together until the command finishes or
// the tick budget runs out; it returns the ticks used
func fly(t *testing.T, w *sandbox.World, cmd autopilot.Command, tick *autopilot.Tick, budget int) (int, autopilot.Status) {
	t.Helper()
	status := autopilot.StatusContinue
	for i := 1; i <= budget; i++ {
		status = cmd.Advance(tick)
		require.NoError(t, w.Step(tick.Timestep))
		if status == autopilot.StatusDone {
			return i, status
		}
	}
	return budget, status
}
