package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autopilot-go/internal/adapters/persistence"
	"github.com/andrescamacho/autopilot-go/internal/adapters/sandbox"
	appAutopilot "github.com/andrescamacho/autopilot-go/internal/application/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/application/autopilot/commands"
	"github.com/andrescamacho/autopilot-go/internal/application/autopilot/queries"
	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
	"github.com/andrescamacho/autopilot-go/test/helpers"
)

const dt = 0.1

type harness struct {
	scenario   *sandbox.Scenario
	controller *appAutopilot.Controller
	med        mediator.Mediator
}

func newHarness(t *testing.T, scenario string, repo domainAutopilot.Repository) *harness {
	t.Helper()
	sc, err := sandbox.BuildScenario(scenario, dt)
	require.NoError(t, err)
	controller := appAutopilot.NewController(sc.World, nil, shared.NewSimulationClock(time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)))

	med := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*commands.EngageAutopilotCommand](med, commands.NewEngageAutopilotHandler(controller)))
	require.NoError(t, mediator.RegisterHandler[*commands.AdvanceAutopilotCommand](med, commands.NewAdvanceAutopilotHandler(controller)))
	require.NoError(t, mediator.RegisterHandler[*commands.CancelAutopilotCommand](med, commands.NewCancelAutopilotHandler(controller)))
	require.NoError(t, mediator.RegisterHandler[*queries.GetAutopilotStatusQuery](med, queries.NewGetAutopilotStatusHandler(controller)))
	if repo != nil {
		require.NoError(t, mediator.RegisterHandler[*commands.SaveAutopilotCommand](med, commands.NewSaveAutopilotHandler(controller, repo)))
		require.NoError(t, mediator.RegisterHandler[*commands.RestoreAutopilotCommand](med, commands.NewRestoreAutopilotHandler(controller, repo)))
		require.NoError(t, mediator.RegisterHandler[*queries.ListSavedCommandsQuery](med, queries.NewListSavedCommandsHandler(repo)))
	}
	return &harness{scenario: sc, controller: controller, med: med}
}

func (h *harness) engageAll(t *testing.T) []*commands.EngageAutopilotResponse {
	t.Helper()
	var out []*commands.EngageAutopilotResponse
	for _, e := range h.scenario.Engagements {
		resp, err := h.med.Send(context.Background(), &commands.EngageAutopilotCommand{VehicleIndex: e.VehicleIndex, Spec: e.Spec})
		require.NoError(t, err)
		out = append(out, resp.(*commands.EngageAutopilotResponse))
	}
	return out
}

func (h *harness) advance(t *testing.T, ticks int) *commands.AdvanceAutopilotResponse {
	t.Helper()
	resp, err := h.med.Send(context.Background(), &commands.AdvanceAutopilotCommand{
		Timestep:     dt,
		Ticks:        ticks,
		Stepper:      h.scenario.World.Step,
		StopWhenIdle: true,
	})
	require.NoError(t, err)
	return resp.(*commands.AdvanceAutopilotResponse)
}

func TestEngageAutopilot_ReturnsCommand(t *testing.T) {
	// Arrange
	h := newHarness(t, "deep-space", nil)

	// Act
	responses := h.engageAll(t)

	// Assert
	require.Len(t, responses, 1)
	assert.Equal(t, domainAutopilot.KindFlyTo, responses[0].Kind)
	assert.NotEmpty(t, responses[0].CommandID)
	assert.Equal(t, navigation.AIMessageNone, responses[0].AIMessage)
	assert.Equal(t, []int{h.scenario.Focus}, h.controller.ActiveVehicles())
}

func TestEngageAutopilot_ReportsConstructionMessage(t *testing.T) {
	// Arrange
	h := newHarness(t, "gravity", nil)

	// Act
	responses := h.engageAll(t)
	run := h.advance(t, 10)

	// Assert
	assert.Equal(t, navigation.AIMessageGravityTooHigh, responses[0].AIMessage)
	assert.Equal(t, 1, run.TicksRun)
	assert.Empty(t, run.ActiveVehicles)
}

func TestEngageAutopilot_BuildFailure(t *testing.T) {
	// Arrange
	h := newHarness(t, "deep-space", nil)

	// Act
	_, err := h.med.Send(context.Background(), &commands.EngageAutopilotCommand{
		VehicleIndex: h.scenario.Focus,
		Spec:         appAutopilot.CommandSpec{Kind: domainAutopilot.KindKamikaze, TargetIndex: 77},
	})

	// Assert
	var invalid *shared.InvalidCommandError
	assert.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Empty(t, h.controller.ActiveVehicles())
}

func TestAdvanceAutopilot(t *testing.T) {
	t.Run("rejects non-positive tick counts", func(t *testing.T) {
		h := newHarness(t, "deep-space", nil)
		_, err := h.med.Send(context.Background(), &commands.AdvanceAutopilotCommand{Timestep: dt})
		assert.Error(t, err)
	})

	t.Run("stops early when idle", func(t *testing.T) {
		h := newHarness(t, "deep-space", nil)
		run := h.advance(t, 100)
		assert.Zero(t, run.TicksRun)
	})

	t.Run("runs every tick while commands are active", func(t *testing.T) {
		h := newHarness(t, "deep-space", nil)
		h.engageAll(t)
		run := h.advance(t, 40)
		assert.Equal(t, 40, run.TicksRun)
		assert.Equal(t, []int{h.scenario.Focus}, run.ActiveVehicles)
	})

	t.Run("stepper failures abort the run", func(t *testing.T) {
		h := newHarness(t, "deep-space", nil)
		h.engageAll(t)
		boom := errors.New("boom")
		_, err := h.med.Send(context.Background(), &commands.AdvanceAutopilotCommand{
			Timestep: dt,
			Ticks:    5,
			Stepper:  func(float64) error { return boom },
		})
		assert.ErrorIs(t, err, boom)
	})
}

func TestCancelAutopilot(t *testing.T) {
	// Arrange
	h := newHarness(t, "escort", nil)
	h.engageAll(t)
	h.advance(t, 5)

	// Act
	resp, err := h.med.Send(context.Background(), &commands.CancelAutopilotCommand{VehicleIndex: h.scenario.Focus})
	_, again := h.med.Send(context.Background(), &commands.CancelAutopilotCommand{VehicleIndex: h.scenario.Focus})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, h.scenario.Focus, resp.(*commands.CancelAutopilotResponse).VehicleIndex)
	var none *shared.NoActiveCommandError
	assert.True(t, errors.As(again, &none))
	assert.Len(t, h.controller.ActiveVehicles(), 1, "the leader keeps flying")

	status, err := h.med.Send(context.Background(), &queries.GetAutopilotStatusQuery{VehicleIndex: h.scenario.Focus})
	require.NoError(t, err)
	assert.Equal(t, shared.LifecycleStatusStopped, status.(*queries.GetAutopilotStatusResponse).Status.Status)
}

func TestSaveAndRestoreAutopilot(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormAutopilotRepository(db)
	ctx := context.Background()

	original := newHarness(t, "planet", repo)
	engaged := original.engageAll(t)
	original.advance(t, 30)

	// Act
	saveResp, err := original.med.Send(ctx, &commands.SaveAutopilotCommand{VehicleIndex: original.scenario.Focus})
	require.NoError(t, err)

	fresh := newHarness(t, "planet", repo)
	restoreResp, err := fresh.med.Send(ctx, &commands.RestoreAutopilotCommand{VehicleIndex: fresh.scenario.Focus})
	require.NoError(t, err)

	// Assert
	saved := saveResp.(*commands.SaveAutopilotResponse).Saved
	assert.Equal(t, engaged[0].CommandID, saved.CommandID)
	assert.Equal(t, shared.LifecycleStatusRunning, saved.Status)
	assert.GreaterOrEqual(t, saved.Snapshot.Depth(), 1)

	restored := restoreResp.(*commands.RestoreAutopilotResponse)
	assert.Equal(t, saved.CommandID, restored.CommandID)
	assert.Equal(t, domainAutopilot.KindFlyTo, restored.Kind)
	assert.Equal(t, saved.Snapshot.Depth(), restored.Depth)

	slot, ok := fresh.controller.Slot(fresh.scenario.Focus)
	require.True(t, ok)
	assert.Equal(t, shared.LifecycleStatusRunning, slot.Lifecycle.Status())
	require.NotNil(t, slot.Lifecycle.StartedAt())
	assert.True(t, saved.StartedAt.Equal(*slot.Lifecycle.StartedAt()))

	list, err := fresh.med.Send(ctx, &queries.ListSavedCommandsQuery{})
	require.NoError(t, err)
	assert.Len(t, list.(*queries.ListSavedCommandsResponse).Saved, 1)
}

func TestSaveAutopilot_NothingActive(t *testing.T) {
	// Arrange
	repo := persistence.NewGormAutopilotRepository(helpers.NewTestDB(t))
	h := newHarness(t, "deep-space", repo)

	// Act
	_, saveErr := h.med.Send(context.Background(), &commands.SaveAutopilotCommand{VehicleIndex: h.scenario.Focus})
	_, restoreErr := h.med.Send(context.Background(), &commands.RestoreAutopilotCommand{VehicleIndex: h.scenario.Focus})

	// Assert
	var none *shared.NoActiveCommandError
	assert.True(t, errors.As(saveErr, &none), "got %v", saveErr)
	assert.True(t, errors.As(restoreErr, &none), "got %v", restoreErr)
}

func TestHandlers_RejectWrongRequestType(t *testing.T) {
	controller := appAutopilot.NewController(sandbox.NewWorld(1e9, dt), nil, nil)
	handlers := []mediator.RequestHandler{
		commands.NewEngageAutopilotHandler(controller),
		commands.NewAdvanceAutopilotHandler(controller),
		commands.NewCancelAutopilotHandler(controller),
		commands.NewSaveAutopilotHandler(controller, nil),
		commands.NewRestoreAutopilotHandler(controller, nil),
	}

	for _, handler := range handlers {
		_, err := handler.Handle(context.Background(), &queries.ListSavedCommandsQuery{})
		assert.ErrorContains(t, err, "invalid request type")
	}
}
