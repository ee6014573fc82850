package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

type flightStateContext struct {
	machine         *navigation.FlightStateMachine
	constructionErr error
	transitionErr   error
}

func (fc *flightStateContext) reset() {
	fc.machine = nil
	fc.constructionErr = nil
	fc.transitionErr = nil
}

// Given steps

func (fc *flightStateContext) aVehicleInFlightState(state string) error {
	m, err := navigation.NewFlightStateMachine(navigation.FlightState(state))
	if err != nil {
		return err
	}
	fc.machine = m
	return nil
}

// When steps

func (fc *flightStateContext) iCreateAFlightStateMachineInState(state string) error {
	fc.machine, fc.constructionErr = navigation.NewFlightStateMachine(navigation.FlightState(state))
	return nil
}

func (fc *flightStateContext) theVehicle(event string) error {
	if fc.machine == nil {
		return fmt.Errorf("no flight state machine available")
	}

	transitions := map[string]func() error{
		"begins a jump":     fc.machine.BeginJump,
		"aborts the jump":   fc.machine.AbortJump,
		"enters hyperspace": fc.machine.EnterHyperspace,
		"arrives":           fc.machine.Arrive,
		"begins docking":    fc.machine.BeginDocking,
		"completes docking": fc.machine.CompleteDocking,
		"undocks":           fc.machine.Undock,
		"touches down":      fc.machine.TouchDown,
		"blasts off":        fc.machine.Blastoff,
	}
	transition, ok := transitions[event]
	if !ok {
		return fmt.Errorf("unknown flight event: %s", event)
	}
	fc.transitionErr = transition()
	return nil
}

// Then steps

func (fc *flightStateContext) theFlightStateShouldBe(expected string) error {
	if fc.machine == nil {
		return fmt.Errorf("no flight state machine available")
	}
	if actual := string(fc.machine.State()); actual != expected {
		return fmt.Errorf("expected flight state %s, got %s", expected, actual)
	}
	return nil
}

func (fc *flightStateContext) theFlightTransitionShouldBeRejectedAs(from, to string) error {
	var invalid *shared.InvalidFlightStateError
	if !errors.As(fc.transitionErr, &invalid) {
		return fmt.Errorf("expected an invalid flight state error, got %v", fc.transitionErr)
	}
	if invalid.From != from || invalid.To != to {
		return fmt.Errorf("expected rejected transition %s -> %s, got %s -> %s", from, to, invalid.From, invalid.To)
	}
	return nil
}

func (fc *flightStateContext) theFlightTransitionShouldSucceed() error {
	if fc.transitionErr != nil {
		return fmt.Errorf("expected transition to succeed, got %v", fc.transitionErr)
	}
	return nil
}

func (fc *flightStateContext) theFlightStateMachineShouldBeRejected() error {
	var validation *shared.ValidationError
	if !errors.As(fc.constructionErr, &validation) {
		return fmt.Errorf("expected a validation error, got %v", fc.constructionErr)
	}
	return nil
}

func (fc *flightStateContext) commandsShould(behaviour string) error {
	state := fc.machine.State()
	var actual string
	switch {
	case fc.machine.IsFlying():
		actual = "actuate"
	case navigation.ShouldSuspend(state):
		actual = "be suspended"
	case navigation.NeedsLaunch(state):
		actual = "launch first"
	default:
		actual = "wait"
	}
	if actual != behaviour {
		return fmt.Errorf("expected commands to %s in %s, but they %s", behaviour, state, actual)
	}
	return nil
}

// InitializeFlightStateScenario registers the flight state machine steps
func InitializeFlightStateScenario(ctx *godog.ScenarioContext) {
	fc := &flightStateContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		fc.reset()
		return ctx, nil
	})

	ctx.Step(`^a vehicle in flight state "([^"]*)"$`, fc.aVehicleInFlightState)
	ctx.Step(`^I create a flight state machine in state "([^"]*)"$`, fc.iCreateAFlightStateMachineInState)
	ctx.Step(`^the vehicle (begins a jump|aborts the jump|enters hyperspace|arrives|begins docking|completes docking|undocks|touches down|blasts off)$`, fc.theVehicle)
	ctx.Step(`^the flight state should be "([^"]*)"$`, fc.theFlightStateShouldBe)
	ctx.Step(`^the flight transition should be rejected as "([^"]*)" to "([^"]*)"$`, fc.theFlightTransitionShouldBeRejectedAs)
	ctx.Step(`^the flight transition should succeed$`, fc.theFlightTransitionShouldSucceed)
	ctx.Step(`^the flight state machine should be rejected$`, fc.theFlightStateMachineShouldBeRejected)
	ctx.Step(`^autopilot commands should (actuate|be suspended|launch first|wait)$`, fc.commandsShould)
}
