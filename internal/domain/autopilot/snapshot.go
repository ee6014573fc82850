package autopilot

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// NoIndex marks an absent body or frame reference in a snapshot
const NoIndex = -1

// Snapshot is the persisted form of a command chain. Bodies and frames are
// stored as indices and re-resolved on restore. Exactly one of the
// kind-specific sections is set, matching Kind.
type Snapshot struct {
	Kind         Kind      `json:"kind"`
	ID           string    `json:"id"`
	VehicleIndex int       `json:"vehicle_index"`
	Child        *Snapshot `json:"child,omitempty"`

	FlyTo         *FlyToSnapshot         `json:"fly_to,omitempty"`
	FlyAround     *FlyAroundSnapshot     `json:"fly_around,omitempty"`
	Dock          *DockSnapshot          `json:"dock,omitempty"`
	Kamikaze      *TargetSnapshot        `json:"kamikaze,omitempty"`
	Formation     *FormationSnapshot     `json:"formation,omitempty"`
	TransitAround *TransitAroundSnapshot `json:"transit_around,omitempty"`
}

type FlyToSnapshot struct {
	TargetIndex      int     `json:"target_index"`
	TargetFrameIndex int     `json:"target_frame_index"`
	Offset           r3.Vec  `json:"offset"`
	Standoff         float64 `json:"standoff"`
	TerminalSpeed    float64 `json:"terminal_speed"`
	Tangent          bool    `json:"tangent"`
	State            int     `json:"state"`
	RelDir           r3.Vec  `json:"rel_dir"`
	FrameIndex       int     `json:"frame_index"`
}

type FlyAroundSnapshot struct {
	ObstructorIndex int           `json:"obstructor_index"`
	Altitude        float64       `json:"altitude"`
	Speed           float64       `json:"speed"`
	Mode            FlyAroundMode `json:"mode"`
	TargetPosition  r3.Vec        `json:"target_position"`
	Settled         int           `json:"settled"`
	Impossible      bool          `json:"impossible"`
}

type DockSnapshot struct {
	StationIndex int       `json:"station_index"`
	Stage        DockStage `json:"stage"`
	DockPos      r3.Vec    `json:"dock_pos"`
	DockDir      r3.Vec    `json:"dock_dir"`
	DockUpDir    r3.Vec    `json:"dock_up_dir"`
}

type TargetSnapshot struct {
	TargetIndex int `json:"target_index"`
}

type FormationSnapshot struct {
	LeaderIndex int    `json:"leader_index"`
	Offset      r3.Vec `json:"offset"`
}

type TransitAroundSnapshot struct {
	ObstructorIndex int          `json:"obstructor_index"`
	TargetPosition  r3.Vec       `json:"target_position"`
	Altitude        float64      `json:"altitude"`
	Phase           TransitPhase `json:"phase"`
}

// Depth counts the nested snapshots, this one included
func (s *Snapshot) Depth() int {
	depth := 0
	for ; s != nil; s = s.Child {
		depth++
	}
	return depth
}

// Capture records cmd and its child chain
func Capture(cmd Command, index navigation.BodyIndex) (*Snapshot, error) {
	if cmd == nil {
		return nil, shared.NewSnapshotError("NONE", "no command to capture")
	}
	vi := index.IndexForBody(cmd.Vehicle())
	if vi < 0 {
		return nil, shared.NewSnapshotError(string(cmd.Kind()), "vehicle is not indexed")
	}

	snap := &Snapshot{Kind: cmd.Kind(), ID: cmd.ID(), VehicleIndex: vi}
	switch c := cmd.(type) {
	case *FlyTo:
		snap.FlyTo = &FlyToSnapshot{
			TargetIndex:      bodyRef(index, c.target),
			TargetFrameIndex: frameRef(index, c.targetFrame),
			Offset:           c.offset,
			Standoff:         c.standoff,
			TerminalSpeed:    c.endvel,
			Tangent:          c.tangent,
			State:            c.state,
			RelDir:           c.reldir,
			FrameIndex:       frameRef(index, c.frame),
		}
	case *FlyAround:
		snap.FlyAround = &FlyAroundSnapshot{
			ObstructorIndex: bodyRef(index, c.obstructor),
			Altitude:        c.alt,
			Speed:           c.vel,
			Mode:            c.mode,
			TargetPosition:  c.targpos,
			Settled:         c.settled,
			Impossible:      c.impossible,
		}
	case *Dock:
		station := NoIndex
		if c.target != nil {
			station = bodyRef(index, c.target)
		}
		snap.Dock = &DockSnapshot{
			StationIndex: station,
			Stage:        c.stage,
			DockPos:      c.dockpos,
			DockDir:      c.dockdir,
			DockUpDir:    c.dockupdir,
		}
	case *Kamikaze:
		snap.Kamikaze = &TargetSnapshot{TargetIndex: bodyRef(index, c.target)}
	case *HoldPosition:
	case *Formation:
		snap.Formation = &FormationSnapshot{LeaderIndex: bodyRef(index, c.target), Offset: c.offset}
	case *TransitAround:
		snap.TransitAround = &TransitAroundSnapshot{
			ObstructorIndex: bodyRef(index, c.obstructor),
			TargetPosition:  c.targpos,
			Altitude:        c.alt,
			Phase:           c.phase,
		}
	default:
		return nil, shared.NewSnapshotError(string(cmd.Kind()), "unsupported command type")
	}

	if child := cmd.Child(); child != nil {
		childSnap, err := Capture(child, index)
		if err != nil {
			return nil, fmt.Errorf("failed to capture child of %s: %w", cmd.Kind(), err)
		}
		snap.Child = childSnap
	}
	return snap, nil
}

// Restore rebuilds a command chain, resolving every reference through index.
// Restored commands carry the captured IDs and scratch state and do not
// repeat construction-time side effects such as latching AI messages.
func Restore(snap *Snapshot, index navigation.BodyIndex, tuning *Tuning) (Command, error) {
	if snap == nil {
		return nil, shared.NewSnapshotError("NONE", "empty snapshot")
	}
	r := resolver{index: index, kind: snap.Kind}

	v := r.vehicle(snap.VehicleIndex)
	if r.err != nil {
		return nil, r.err
	}
	b := newBase(snap.Kind, v, tuning)
	if snap.ID != "" {
		b.id = snap.ID
	}

	var cmd Command
	switch snap.Kind {
	case KindFlyTo:
		s := snap.FlyTo
		if s == nil {
			return nil, r.missing()
		}
		cmd = &FlyTo{
			base:        b,
			target:      r.optionalBody(s.TargetIndex),
			targetFrame: r.optionalFrame(s.TargetFrameIndex),
			offset:      s.Offset,
			standoff:    s.Standoff,
			endvel:      s.TerminalSpeed,
			tangent:     s.Tangent,
			state:       s.State,
			reldir:      s.RelDir,
			frame:       r.optionalFrame(s.FrameIndex),
		}
	case KindFlyAround:
		s := snap.FlyAround
		if s == nil {
			return nil, r.missing()
		}
		if s.Mode < FlyAroundToTarget || s.Mode > FlyAroundOrbit {
			r.fail("fly around mode %d is out of range", s.Mode)
		}
		cmd = &FlyAround{
			base:       b,
			obstructor: r.body(s.ObstructorIndex),
			alt:        s.Altitude,
			vel:        s.Speed,
			mode:       s.Mode,
			targpos:    s.TargetPosition,
			settled:    s.Settled,
			impossible: s.Impossible,
		}
	case KindDock:
		s := snap.Dock
		if s == nil {
			return nil, r.missing()
		}
		if s.Stage < DockStageGetDataStart || s.Stage > DockStageHandedOff {
			r.fail("dock stage %d is out of range", s.Stage)
		}
		d := &Dock{base: b, stage: s.Stage, dockpos: s.DockPos, dockdir: s.DockDir, dockupdir: s.DockUpDir}
		if s.StationIndex != NoIndex {
			d.target = r.station(s.StationIndex)
		}
		cmd = d
	case KindKamikaze:
		s := snap.Kamikaze
		if s == nil {
			return nil, r.missing()
		}
		cmd = &Kamikaze{base: b, target: r.body(s.TargetIndex)}
	case KindHoldPosition:
		cmd = &HoldPosition{base: b}
	case KindFormation:
		s := snap.Formation
		if s == nil {
			return nil, r.missing()
		}
		cmd = &Formation{base: b, target: r.vehicle(s.LeaderIndex), offset: s.Offset}
	case KindTransitAround:
		s := snap.TransitAround
		if s == nil {
			return nil, r.missing()
		}
		switch s.Phase {
		case TransitPhaseReady, TransitPhaseAltitude, TransitPhaseTransit:
		default:
			r.fail("transit phase %q is unknown", s.Phase)
		}
		cmd = &TransitAround{
			base:       b,
			obstructor: r.body(s.ObstructorIndex),
			targpos:    s.TargetPosition,
			alt:        s.Altitude,
			phase:      s.Phase,
		}
	default:
		return nil, shared.NewSnapshotError(string(snap.Kind), "unknown command kind")
	}
	if r.err != nil {
		return nil, r.err
	}

	if snap.Child != nil {
		child, err := Restore(snap.Child, index, tuning)
		if err != nil {
			return nil, fmt.Errorf("failed to restore child of %s: %w", snap.Kind, err)
		}
		cmd.core().child = child
	}
	return cmd, nil
}

func bodyRef(index navigation.BodyIndex, b navigation.Body) int {
	if b == nil {
		return NoIndex
	}
	return index.IndexForBody(b)
}

func frameRef(index navigation.BodyIndex, f navigation.Frame) int {
	if f == nil {
		return NoIndex
	}
	return index.IndexForFrame(f)
}

// resolver looks references up and keeps the first failure
type resolver struct {
	index navigation.BodyIndex
	kind  Kind
	err   error
}

func (r *resolver) fail(msg string, args ...any) {
	if r.err == nil {
		r.err = shared.NewSnapshotError(string(r.kind), fmt.Sprintf(msg, args...))
	}
}

func (r *resolver) missing() error {
	return shared.NewSnapshotError(string(r.kind), "missing kind-specific state")
}

func (r *resolver) body(i int) navigation.Body {
	b := r.index.BodyByIndex(i)
	if b == nil {
		r.fail("body index %d does not resolve", i)
	}
	return b
}

func (r *resolver) optionalBody(i int) navigation.Body {
	if i == NoIndex {
		return nil
	}
	return r.body(i)
}

func (r *resolver) optionalFrame(i int) navigation.Frame {
	if i == NoIndex {
		return nil
	}
	f := r.index.FrameByIndex(i)
	if f == nil {
		r.fail("frame index %d does not resolve", i)
	}
	return f
}

func (r *resolver) vehicle(i int) navigation.Vehicle {
	b := r.body(i)
	if b == nil {
		return nil
	}
	v, ok := b.(navigation.Vehicle)
	if !ok {
		r.fail("body index %d is not a vehicle", i)
		return nil
	}
	return v
}

func (r *resolver) station(i int) navigation.Station {
	b := r.body(i)
	if b == nil {
		return nil
	}
	s, ok := b.(navigation.Station)
	if !ok {
		r.fail("body index %d is not a station", i)
		return nil
	}
	return s
}
