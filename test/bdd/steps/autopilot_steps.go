package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/rs/zerolog"

	"github.com/andrescamacho/autopilot-go/internal/adapters/persistence"
	"github.com/andrescamacho/autopilot-go/internal/adapters/sandbox"
	appAutopilot "github.com/andrescamacho/autopilot-go/internal/application/autopilot"
	autopilotCmd "github.com/andrescamacho/autopilot-go/internal/application/autopilot/commands"
	autopilotQuery "github.com/andrescamacho/autopilot-go/internal/application/autopilot/queries"
	"github.com/andrescamacho/autopilot-go/internal/application/common"
	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
	"github.com/andrescamacho/autopilot-go/internal/infrastructure/logging"
	"github.com/andrescamacho/autopilot-go/test/helpers"
)

const stepTimestep = 0.1

var gameEpoch = time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)

// autopilotSession is one controller flying one sandbox scenario
type autopilotSession struct {
	scenario   *sandbox.Scenario
	controller *appAutopilot.Controller
	med        mediator.Mediator
	ctx        context.Context
}

type autopilotContext struct {
	repo      *persistence.GormAutopilotRepository
	flightLog *persistence.GormFlightLogRepository

	session  *autopilotSession
	engaged  []*autopilotCmd.EngageAutopilotResponse
	saved    *domainAutopilot.SavedCommand
	restored *autopilotCmd.RestoreAutopilotResponse
	ticksRun int
	lastErr  error
}

func (ac *autopilotContext) reset() error {
	if err := helpers.TruncateAllTables(); err != nil {
		return err
	}
	ac.repo = persistence.NewGormAutopilotRepository(helpers.SharedTestDB)
	ac.flightLog = nil
	ac.session = nil
	ac.engaged = nil
	ac.saved = nil
	ac.restored = nil
	ac.ticksRun = 0
	ac.lastErr = nil
	return nil
}

func (ac *autopilotContext) newSession(name string) (*autopilotSession, error) {
	sc, err := sandbox.BuildScenario(name, stepTimestep)
	if err != nil {
		return nil, err
	}
	clock := shared.NewSimulationClock(gameEpoch)
	controller := appAutopilot.NewController(sc.World, nil, clock)

	// The flight log shares the session's game clock so dedup windows are game time
	ac.flightLog = persistence.NewGormFlightLogRepository(helpers.SharedTestDB, clock)
	logger := logging.NewCommandLogger(zerolog.Nop(), ac.flightLog)

	med := mediator.NewMediator()
	registrations := []error{
		mediator.RegisterHandler[*autopilotCmd.EngageAutopilotCommand](med, autopilotCmd.NewEngageAutopilotHandler(controller)),
		mediator.RegisterHandler[*autopilotCmd.AdvanceAutopilotCommand](med, autopilotCmd.NewAdvanceAutopilotHandler(controller)),
		mediator.RegisterHandler[*autopilotCmd.CancelAutopilotCommand](med, autopilotCmd.NewCancelAutopilotHandler(controller)),
		mediator.RegisterHandler[*autopilotCmd.SaveAutopilotCommand](med, autopilotCmd.NewSaveAutopilotHandler(controller, ac.repo)),
		mediator.RegisterHandler[*autopilotCmd.RestoreAutopilotCommand](med, autopilotCmd.NewRestoreAutopilotHandler(controller, ac.repo)),
		mediator.RegisterHandler[*autopilotQuery.GetAutopilotStatusQuery](med, autopilotQuery.NewGetAutopilotStatusHandler(controller)),
	}
	if err := errors.Join(registrations...); err != nil {
		return nil, err
	}

	return &autopilotSession{
		scenario:   sc,
		controller: controller,
		med:        med,
		ctx:        common.WithLogger(context.Background(), logger),
	}, nil
}

func (ac *autopilotContext) focus() int {
	return ac.session.scenario.Focus
}

func (ac *autopilotContext) status() (*appAutopilot.SlotStatus, error) {
	resp, err := ac.session.med.Send(ac.session.ctx, &autopilotQuery.GetAutopilotStatusQuery{VehicleIndex: ac.focus()})
	if err != nil {
		return nil, err
	}
	return resp.(*autopilotQuery.GetAutopilotStatusResponse).Status, nil
}

// Given steps

func (ac *autopilotContext) theScenario(name string) error {
	session, err := ac.newSession(name)
	if err != nil {
		return err
	}
	ac.session = session
	return nil
}

func (ac *autopilotContext) theScenariosCommandsAreEngaged() error {
	for _, e := range ac.session.scenario.Engagements {
		resp, err := ac.session.med.Send(ac.session.ctx, &autopilotCmd.EngageAutopilotCommand{
			VehicleIndex: e.VehicleIndex,
			Spec:         e.Spec,
		})
		if err != nil {
			return fmt.Errorf("failed to engage vehicle %d: %w", e.VehicleIndex, err)
		}
		ac.engaged = append(ac.engaged, resp.(*autopilotCmd.EngageAutopilotResponse))
	}
	return nil
}

// When steps

func (ac *autopilotContext) iEngageOnTheFocusVehicleTargetingBody(kind string, target int) error {
	_, ac.lastErr = ac.session.med.Send(ac.session.ctx, &autopilotCmd.EngageAutopilotCommand{
		VehicleIndex: ac.focus(),
		Spec:         appAutopilot.CommandSpec{Kind: domainAutopilot.Kind(kind), TargetIndex: target},
	})
	return nil
}

func (ac *autopilotContext) run(ticks int, stopWhenIdle bool) error {
	resp, err := ac.session.med.Send(ac.session.ctx, &autopilotCmd.AdvanceAutopilotCommand{
		Timestep:     stepTimestep,
		Ticks:        ticks,
		Stepper:      ac.session.scenario.World.Step,
		StopWhenIdle: stopWhenIdle,
	})
	if err != nil {
		return err
	}
	ac.ticksRun += resp.(*autopilotCmd.AdvanceAutopilotResponse).TicksRun
	return nil
}

func (ac *autopilotContext) theAutopilotRunsForAtMostTicks(ticks int) error {
	return ac.run(ticks, true)
}

func (ac *autopilotContext) theAutopilotRunsForTicks(ticks int) error {
	return ac.run(ticks, false)
}

func (ac *autopilotContext) iCancelTheFocusVehiclesCommand() error {
	_, ac.lastErr = ac.session.med.Send(ac.session.ctx, &autopilotCmd.CancelAutopilotCommand{VehicleIndex: ac.focus()})
	return nil
}

func (ac *autopilotContext) iSaveTheFocusVehiclesCommand() error {
	resp, err := ac.session.med.Send(ac.session.ctx, &autopilotCmd.SaveAutopilotCommand{VehicleIndex: ac.focus()})
	if err != nil {
		ac.lastErr = err
		return nil
	}
	ac.saved = resp.(*autopilotCmd.SaveAutopilotResponse).Saved
	return nil
}

func (ac *autopilotContext) iRestoreTheSavedCommandIntoAFreshScenario(name string) error {
	session, err := ac.newSession(name)
	if err != nil {
		return err
	}
	ac.session = session
	resp, err := session.med.Send(session.ctx, &autopilotCmd.RestoreAutopilotCommand{VehicleIndex: ac.focus()})
	if err != nil {
		ac.lastErr = err
		return nil
	}
	ac.restored = resp.(*autopilotCmd.RestoreAutopilotResponse)
	return nil
}

// Then steps

func (ac *autopilotContext) theFocusVehiclesSlotShouldBe(expected string) error {
	st, err := ac.status()
	if err != nil {
		return err
	}
	if string(st.Status) != expected {
		return fmt.Errorf("expected slot %s, got %s after %d ticks", expected, st.Status, ac.ticksRun)
	}
	return nil
}

func (ac *autopilotContext) theFocusVehicleShouldBe(expected string) error {
	v, err := ac.session.controller.Vehicle(ac.focus())
	if err != nil {
		return err
	}
	if string(v.FlightState()) != expected {
		return fmt.Errorf("expected flight state %s, got %s", expected, v.FlightState())
	}
	return nil
}

func (ac *autopilotContext) theFocusVehiclesAIMessageShouldBe(expected string) error {
	st, err := ac.status()
	if err != nil {
		return err
	}
	if string(st.AIMessage) != expected {
		return fmt.Errorf("expected AI message %s, got %s", expected, st.AIMessage)
	}
	return nil
}

func (ac *autopilotContext) theEngageResponseShouldReport(expected string) error {
	if len(ac.engaged) == 0 {
		return fmt.Errorf("nothing was engaged")
	}
	if got := ac.engaged[len(ac.engaged)-1].AIMessage; string(got) != expected {
		return fmt.Errorf("expected engage to report %s, got %s", expected, got)
	}
	return nil
}

func (ac *autopilotContext) autopilotCommandsShouldBeActive(expected int) error {
	if active := ac.session.controller.ActiveVehicles(); len(active) != expected {
		return fmt.Errorf("expected %d active commands, got %v", expected, active)
	}
	return nil
}

func (ac *autopilotContext) noAutopilotCommandShouldBeActive() error {
	return ac.autopilotCommandsShouldBeActive(0)
}

func (ac *autopilotContext) theFocusVehicleShouldHaveDelegatedToAChild() error {
	st, err := ac.status()
	if err != nil {
		return err
	}
	if st.Depth < 2 {
		return fmt.Errorf("expected a child command, chain depth is %d", st.Depth)
	}
	return nil
}

func (ac *autopilotContext) theRunShouldHaveTakenFewerThanTicks(limit int) error {
	if ac.ticksRun >= limit {
		return fmt.Errorf("run took %d ticks", ac.ticksRun)
	}
	return nil
}

func (ac *autopilotContext) theRequestShouldFailWith(kind string) error {
	if ac.lastErr == nil {
		return fmt.Errorf("expected the request to fail")
	}
	var (
		noActive *shared.NoActiveCommandError
		invalid  *shared.InvalidCommandError
		unknown  *shared.UnknownVehicleError
	)
	matched := false
	switch kind {
	case "no active command":
		matched = errors.As(ac.lastErr, &noActive)
	case "invalid command":
		matched = errors.As(ac.lastErr, &invalid)
	case "unknown vehicle":
		matched = errors.As(ac.lastErr, &unknown)
	}
	if !matched {
		return fmt.Errorf("expected a %s error, got %v", kind, ac.lastErr)
	}
	return nil
}

func (ac *autopilotContext) theRestoredCommandShouldMatchTheSavedOne() error {
	if ac.saved == nil || ac.restored == nil {
		return fmt.Errorf("save or restore did not happen: %v", ac.lastErr)
	}
	if ac.restored.CommandID != ac.saved.CommandID {
		return fmt.Errorf("restored %s, saved %s", ac.restored.CommandID, ac.saved.CommandID)
	}
	if ac.restored.Kind != ac.saved.Kind {
		return fmt.Errorf("restored kind %s, saved %s", ac.restored.Kind, ac.saved.Kind)
	}
	if ac.restored.Depth != ac.saved.Snapshot.Depth() {
		return fmt.Errorf("restored depth %d, saved %d", ac.restored.Depth, ac.saved.Snapshot.Depth())
	}
	return nil
}

func (ac *autopilotContext) theFlightLogOfTheFocusVehicleShouldContain(message string) error {
	logs, err := ac.flightLog.GetLogs(context.Background(), ac.focus(), 100, nil, nil)
	if err != nil {
		return err
	}
	for _, entry := range logs {
		if entry.Message == message {
			return nil
		}
	}
	return fmt.Errorf("flight log has no %q among %d entries", message, len(logs))
}

// InitializeAutopilotScenario registers the controller and persistence steps
func InitializeAutopilotScenario(ctx *godog.ScenarioContext) {
	ac := &autopilotContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, ac.reset()
	})

	// Given steps
	ctx.Step(`^the "([^"]*)" scenario$`, ac.theScenario)
	ctx.Step(`^the scenario's commands are engaged$`, ac.theScenariosCommandsAreEngaged)

	// When steps
	ctx.Step(`^I engage "([^"]*)" on the focus vehicle targeting body (\d+)$`, ac.iEngageOnTheFocusVehicleTargetingBody)
	ctx.Step(`^the autopilot runs for at most (\d+) ticks$`, ac.theAutopilotRunsForAtMostTicks)
	ctx.Step(`^the autopilot runs for (\d+) ticks$`, ac.theAutopilotRunsForTicks)
	ctx.Step(`^I cancel the focus vehicle's command$`, ac.iCancelTheFocusVehiclesCommand)
	ctx.Step(`^I save the focus vehicle's command$`, ac.iSaveTheFocusVehiclesCommand)
	ctx.Step(`^I restore the saved command into a fresh "([^"]*)" scenario$`, ac.iRestoreTheSavedCommandIntoAFreshScenario)

	// Then steps
	ctx.Step(`^the focus vehicle's slot should be "([^"]*)"$`, ac.theFocusVehiclesSlotShouldBe)
	ctx.Step(`^the focus vehicle should be "([^"]*)"$`, ac.theFocusVehicleShouldBe)
	ctx.Step(`^the focus vehicle's AI message should be "([^"]*)"$`, ac.theFocusVehiclesAIMessageShouldBe)
	ctx.Step(`^the engage response should report "([^"]*)"$`, ac.theEngageResponseShouldReport)
	ctx.Step(`^(\d+) autopilot commands? should be active$`, ac.autopilotCommandsShouldBeActive)
	ctx.Step(`^no autopilot command should be active$`, ac.noAutopilotCommandShouldBeActive)
	ctx.Step(`^the focus vehicle should have delegated to a child command$`, ac.theFocusVehicleShouldHaveDelegatedToAChild)
	ctx.Step(`^the run should have taken fewer than (\d+) ticks$`, ac.theRunShouldHaveTakenFewerThanTicks)
	ctx.Step(`^the request should fail with "(no active command|invalid command|unknown vehicle)"$`, ac.theRequestShouldFailWith)
	ctx.Step(`^the restored command should match the saved one$`, ac.theRestoredCommandShouldMatchTheSavedOne)
	ctx.Step(`^the flight log of the focus vehicle should contain "([^"]*)"$`, ac.theFlightLogOfTheFocusVehicleShouldContain)
}
