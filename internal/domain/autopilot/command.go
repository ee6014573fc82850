package autopilot

import (
	"github.com/google/uuid"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

// Kind tags the command variants
type Kind string

const (
	KindFlyTo         Kind = "FLY_TO"
	KindFlyAround     Kind = "FLY_AROUND"
	KindDock          Kind = "DOCK"
	KindKamikaze      Kind = "KAMIKAZE"
	KindHoldPosition  Kind = "HOLD_POSITION"
	KindFormation     Kind = "FORMATION"
	KindTransitAround Kind = "TRANSIT_AROUND"
)

// Status is the result of advancing a command by one tick
type Status int

const (
	StatusContinue Status = iota
	StatusDone
)

func (s Status) String() string {
	if s == StatusDone {
		return "DONE"
	}
	return "CONTINUE"
}

// Observer is notified when a command delegates to a new child
type Observer interface {
	ChildSpawned(vehicle navigation.Vehicle, parent, child Kind)
}

// Tick carries the per-step inputs every command reads
type Tick struct {
	Timestep float64
	Tuning   *Tuning
	Observer Observer
}

func (t *Tick) notifyChild(vehicle navigation.Vehicle, parent, child Kind) {
	if t.Observer != nil {
		t.Observer.ChildSpawned(vehicle, parent, child)
	}
}

// Command is an autopilot behaviour driving a single vehicle.
//
// Invariants:
// - A command owns at most one child; a finished child is dropped before the
//   parent continues its own logic in the same tick
// - Advance never mutates any vehicle other than the owning one
// - Discard releases the child transitively and runs the kind's release hook
//
// The set of variants is closed: FlyTo, FlyAround, Dock, Kamikaze,
// HoldPosition, Formation and TransitAround.
type Command interface {
	Kind() Kind
	ID() string
	Vehicle() navigation.Vehicle
	Child() Command

	// Advance decides this tick's actuation or defers to a child
	Advance(t *Tick) Status

	// Discard tears the command down, child first
	Discard()

	core() *base
}

// base carries the state shared by every variant
type base struct {
	id      string
	kind    Kind
	vehicle navigation.Vehicle
	tuning  *Tuning
	child   Command
}

func newBase(kind Kind, vehicle navigation.Vehicle, tuning *Tuning) base {
	if tuning == nil {
		tuning = DefaultTuning()
	}
	return base{
		id:      uuid.NewString(),
		kind:    kind,
		vehicle: vehicle,
		tuning:  tuning,
	}
}

func (b *base) Kind() Kind                 { return b.kind }
func (b *base) ID() string                 { return b.id }
func (b *base) Vehicle() navigation.Vehicle { return b.vehicle }
func (b *base) Child() Command             { return b.child }
func (b *base) core() *base                { return b }

// Discard drops the child. Variants with a release hook wrap this.
func (b *base) Discard() {
	b.dropChild()
}

func (b *base) dropChild() {
	if b.child != nil {
		child := b.child
		b.child = nil
		child.Discard()
	}
}

// setChild replaces the current child. The observer hears about it only
// when the delegation changes kind, since some parents rebuild their child
// from fresh geometry every tick.
func (b *base) setChild(t *Tick, child Command) {
	prev := b.child
	b.child = nil
	if prev != nil {
		prev.Discard()
	}
	if prev == nil || prev.Kind() != child.Kind() {
		t.notifyChild(b.vehicle, b.kind, child.Kind())
	}
	b.child = child
}

// processChild advances the child; true means there is no active child left
func (b *base) processChild(t *Tick) bool {
	if b.child == nil {
		return true
	}
	if b.child.Advance(t) == StatusContinue {
		return false
	}
	b.dropChild()
	return true
}

// ensureFlying raises the gear while flying, otherwise requests launch.
// It returns false when the command must wait for the launch.
func (b *base) ensureFlying() bool {
	if b.vehicle.FlightState() == navigation.FlightStateFlying {
		b.vehicle.SetWheelState(false)
		return true
	}
	b.vehicle.Launch()
	return false
}

func (b *base) suspended() bool {
	return navigation.ShouldSuspend(b.vehicle.FlightState())
}

// Depth returns the length of the delegation chain starting at c
func Depth(c Command) int {
	depth := 0
	for c != nil {
		depth++
		c = c.Child()
	}
	return depth
}

// Leaf returns the innermost active command of the chain
func Leaf(c Command) Command {
	for c != nil && c.Child() != nil {
		c = c.Child()
	}
	return c
}
