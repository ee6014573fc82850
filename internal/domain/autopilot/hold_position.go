package autopilot

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// HoldPosition cancels all velocity relative to the current frame. It runs
// until replaced.
type HoldPosition struct {
	base
}

func NewHoldPosition(v navigation.Vehicle, tuning *Tuning) (*HoldPosition, error) {
	if v == nil {
		return nil, shared.NewInvalidCommandError(string(KindHoldPosition), "vehicle is required")
	}
	return &HoldPosition{base: newBase(KindHoldPosition, v, tuning)}, nil
}

func (h *HoldPosition) Advance(t *Tick) Status {
	if h.suspended() {
		return StatusContinue
	}
	h.vehicle.MatchVelocity(r3.Vec{})
	return StatusContinue
}
