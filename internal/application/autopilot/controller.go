package autopilot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andrescamacho/autopilot-go/internal/adapters/metrics"
	"github.com/andrescamacho/autopilot-go/internal/application/common"
	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// Outcome labels recorded when a command leaves its slot
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeStopped   = "stopped"
)

// Slot is the autopilot state of one vehicle
type Slot struct {
	VehicleIndex int
	Vehicle      navigation.Vehicle
	Command      domainAutopilot.Command
	Lifecycle    *shared.LifecycleStateMachine
	Ticks        int

	// kind and id of the engaged command, kept after it finishes
	kind domainAutopilot.Kind
	id   string

	// message taken from the vehicle when the command left the slot
	aiMessage navigation.AIMessage
}

// SlotStatus is a read-only view of a slot
type SlotStatus struct {
	VehicleIndex int
	CommandID    string
	Kind         domainAutopilot.Kind
	ActiveKind   domainAutopilot.Kind
	Depth        int
	Status       shared.LifecycleStatus
	AIMessage    navigation.AIMessage
	Ticks        int
	StartedAt    *time.Time
	GameTime     time.Duration
}

// Controller owns at most one top-level command per vehicle and advances
// them once per tick. Ticks are synchronous and the controller is not safe
// for concurrent use.
type Controller struct {
	index  navigation.BodyIndex
	tuning *domainAutopilot.Tuning
	clock  *shared.SimulationClock
	slots  map[int]*Slot
}

// NewController creates a controller resolving vehicles through index.
// A nil clock starts game time at the Unix epoch.
func NewController(index navigation.BodyIndex, tuning *domainAutopilot.Tuning, clock *shared.SimulationClock) *Controller {
	if tuning == nil {
		tuning = domainAutopilot.DefaultTuning()
	}
	if clock == nil {
		clock = shared.NewSimulationClock(time.Time{})
	}
	return &Controller{
		index:  index,
		tuning: tuning,
		clock:  clock,
		slots:  make(map[int]*Slot),
	}
}

func (c *Controller) Tuning() *domainAutopilot.Tuning  { return c.tuning }
func (c *Controller) Clock() *shared.SimulationClock   { return c.clock }
func (c *Controller) BodyIndex() navigation.BodyIndex { return c.index }

// Vehicle resolves a vehicle index
func (c *Controller) Vehicle(vehicleIndex int) (navigation.Vehicle, error) {
	v, ok := c.index.BodyByIndex(vehicleIndex).(navigation.Vehicle)
	if !ok || v == nil {
		return nil, shared.NewUnknownVehicleError(vehicleIndex)
	}
	return v, nil
}

// Engage installs cmd as the vehicle's top-level command, discarding any
// command already active there
func (c *Controller) Engage(ctx context.Context, vehicleIndex int, cmd domainAutopilot.Command) (*Slot, error) {
	slot, err := c.install(ctx, vehicleIndex, cmd)
	if err != nil {
		return nil, err
	}
	if err := slot.Lifecycle.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	common.LoggerFromContext(ctx).Log("INFO", "Autopilot engaged", map[string]interface{}{
		"action":        "engage",
		"vehicle_index": vehicleIndex,
		"kind":          string(cmd.Kind()),
		"command_id":    cmd.ID(),
	})
	metrics.RecordCommandEngaged(string(cmd.Kind()))
	return slot, nil
}

// Adopt installs a restored command with its persisted lifecycle
func (c *Controller) Adopt(ctx context.Context, saved *domainAutopilot.SavedCommand, cmd domainAutopilot.Command) (*Slot, error) {
	slot, err := c.install(ctx, saved.VehicleIndex, cmd)
	if err != nil {
		return nil, err
	}
	slot.Lifecycle.RecoverFromPersistence(shared.LifecycleStatusRunning, saved.CreatedAt, saved.UpdatedAt, saved.StartedAt)

	common.LoggerFromContext(ctx).Log("INFO", "Autopilot restored", map[string]interface{}{
		"action":        "restore",
		"vehicle_index": saved.VehicleIndex,
		"kind":          string(cmd.Kind()),
		"command_id":    cmd.ID(),
		"depth":         domainAutopilot.Depth(cmd),
	})
	return slot, nil
}

func (c *Controller) install(ctx context.Context, vehicleIndex int, cmd domainAutopilot.Command) (*Slot, error) {
	v, err := c.Vehicle(vehicleIndex)
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, shared.NewInvalidCommandError("NONE", "command is required")
	}
	if cmd.Vehicle() != v {
		return nil, shared.NewInvalidCommandError(string(cmd.Kind()), fmt.Sprintf("command does not drive vehicle %d", vehicleIndex))
	}

	if prev, ok := c.slots[vehicleIndex]; ok && prev.Command != nil {
		// a message latched while constructing cmd stays with cmd
		pending := v.SwapAIMessage(navigation.AIMessageNone)
		c.stop(ctx, prev, "replaced")
		v.SwapAIMessage(pending)
	}

	slot := &Slot{
		VehicleIndex: vehicleIndex,
		Vehicle:      v,
		Command:      cmd,
		Lifecycle:    shared.NewLifecycleStateMachine(c.clock),
		kind:         cmd.Kind(),
		id:           cmd.ID(),
	}
	c.slots[vehicleIndex] = slot
	return slot, nil
}

// Cancel discards the vehicle's active command
func (c *Controller) Cancel(ctx context.Context, vehicleIndex int) error {
	slot, ok := c.slots[vehicleIndex]
	if !ok || slot.Command == nil {
		return shared.NewNoActiveCommandError(vehicleIndex)
	}
	c.stop(ctx, slot, "cancelled")
	return nil
}

func (c *Controller) stop(ctx context.Context, slot *Slot, reason string) {
	slot.Command.Discard()
	slot.Command = nil
	slot.aiMessage = slot.Vehicle.SwapAIMessage(navigation.AIMessageNone)
	if err := slot.Lifecycle.Stop(); err != nil {
		common.LoggerFromContext(ctx).Log("WARNING", "Lifecycle transition rejected", map[string]interface{}{
			"vehicle_index": slot.VehicleIndex,
			"error":         err.Error(),
		})
	}

	common.LoggerFromContext(ctx).Log("INFO", "Autopilot stopped", map[string]interface{}{
		"action":        "stop",
		"vehicle_index": slot.VehicleIndex,
		"kind":          string(slot.kind),
		"reason":        reason,
		"ticks":         slot.Ticks,
	})
	metrics.RecordCommandFinished(string(slot.kind), OutcomeStopped, slot.Ticks, slot.Lifecycle.RuntimeDuration().Seconds())
}

// Tick advances every active command once by dt seconds of game time, in
// vehicle index order. Commands reporting Done are discarded and their
// slot is marked COMPLETED, or FAILED when the vehicle holds an AI message.
func (c *Controller) Tick(ctx context.Context, dt float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dt <= 0 {
		return shared.NewValidationError("timestep", "must be positive")
	}

	start := time.Now()
	tick := &domainAutopilot.Tick{
		Timestep: dt,
		Tuning:   c.tuning,
		Observer: &tickObserver{ctx: ctx},
	}

	active := 0
	for _, idx := range c.ActiveVehicles() {
		slot := c.slots[idx]
		slot.Ticks++
		status := slot.Command.Advance(tick)
		slot.Lifecycle.UpdateTimestamp()
		if status == domainAutopilot.StatusDone {
			c.finish(ctx, slot)
			continue
		}
		active++
	}

	c.clock.AdvanceSeconds(dt)
	metrics.RecordTick(active, time.Since(start).Seconds())
	return nil
}

func (c *Controller) finish(ctx context.Context, slot *Slot) {
	logger := common.LoggerFromContext(ctx)
	slot.Command.Discard()
	slot.Command = nil

	// the latch belongs to this command; later commands start clean
	msg := slot.Vehicle.SwapAIMessage(navigation.AIMessageNone)
	slot.aiMessage = msg
	outcome := OutcomeCompleted
	var err error
	if msg != navigation.AIMessageNone {
		outcome = OutcomeFailed
		err = slot.Lifecycle.Fail(shared.NewCommandError(string(slot.kind), msg.Describe()))
		metrics.RecordAIMessage(string(msg))
	} else {
		err = slot.Lifecycle.Complete()
	}
	if err != nil {
		logger.Log("WARNING", "Lifecycle transition rejected", map[string]interface{}{
			"vehicle_index": slot.VehicleIndex,
			"error":         err.Error(),
		})
	}

	logger.Log("INFO", "Autopilot finished", map[string]interface{}{
		"action":        "finish",
		"vehicle_index": slot.VehicleIndex,
		"kind":          string(slot.kind),
		"outcome":       outcome,
		"ai_message":    string(msg),
		"ticks":         slot.Ticks,
	})
	metrics.RecordCommandFinished(string(slot.kind), outcome, slot.Ticks, slot.Lifecycle.RuntimeDuration().Seconds())
}

// ActiveVehicles lists the vehicle indices with an active command, ascending
func (c *Controller) ActiveVehicles() []int {
	indices := make([]int, 0, len(c.slots))
	for idx, slot := range c.slots {
		if slot.Command != nil {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)
	return indices
}

// Slot returns the vehicle's slot, finished or not
func (c *Controller) Slot(vehicleIndex int) (*Slot, bool) {
	slot, ok := c.slots[vehicleIndex]
	return slot, ok
}

// Status reports the vehicle's slot. The AI message is read, not taken:
// the vehicle's live latch while a command runs, the message the command
// left behind once it has finished.
func (c *Controller) Status(vehicleIndex int) (*SlotStatus, error) {
	v, err := c.Vehicle(vehicleIndex)
	if err != nil {
		return nil, err
	}
	slot, ok := c.slots[vehicleIndex]
	if !ok {
		return nil, shared.NewNoActiveCommandError(vehicleIndex)
	}

	status := &SlotStatus{
		VehicleIndex: vehicleIndex,
		CommandID:    slot.id,
		Kind:         slot.kind,
		Status:       slot.Lifecycle.Status(),
		AIMessage:    slot.aiMessage,
		Ticks:        slot.Ticks,
		StartedAt:    slot.Lifecycle.StartedAt(),
		GameTime:     slot.Lifecycle.RuntimeDuration(),
	}
	if slot.Command != nil {
		status.AIMessage = v.AIMessage()
		status.ActiveKind = domainAutopilot.Leaf(slot.Command).Kind()
		status.Depth = domainAutopilot.Depth(slot.Command)
	}
	return status, nil
}

// TakeAIMessage clears and returns the vehicle's pending message, falling
// back to the one its last command finished with
func (c *Controller) TakeAIMessage(vehicleIndex int) (navigation.AIMessage, error) {
	v, err := c.Vehicle(vehicleIndex)
	if err != nil {
		return navigation.AIMessageNone, err
	}
	msg := v.SwapAIMessage(navigation.AIMessageNone)
	if slot, ok := c.slots[vehicleIndex]; ok && msg == navigation.AIMessageNone {
		msg, slot.aiMessage = slot.aiMessage, navigation.AIMessageNone
	}
	return msg, nil
}

// tickObserver reports delegations to the log and metrics
type tickObserver struct {
	ctx context.Context
}

func (o *tickObserver) ChildSpawned(vehicle navigation.Vehicle, parent, child domainAutopilot.Kind) {
	common.LoggerFromContext(o.ctx).Log("DEBUG", "Child command spawned", map[string]interface{}{
		"vehicle": vehicle.Label(),
		"parent":  string(parent),
		"child":   string(child),
	})
	metrics.RecordChildSpawned(string(parent), string(child))
}
