package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/autopilot-go/internal/adapters/persistence"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
	"github.com/andrescamacho/autopilot-go/test/helpers"
)

type flightLogContext struct {
	clock *shared.SimulationClock
	repo  *persistence.GormFlightLogRepository
}

func (fl *flightLogContext) reset() error {
	if err := helpers.TruncateAllTables(); err != nil {
		return err
	}
	fl.clock = nil
	fl.repo = nil
	return nil
}

func (fl *flightLogContext) aFlightLogWithASecondDedupWindow(seconds int) error {
	fl.clock = shared.NewSimulationClock(gameEpoch)
	fl.repo = persistence.NewGormFlightLogRepository(helpers.SharedTestDB, fl.clock)
	fl.repo.SetDedupWindow(time.Duration(seconds) * time.Second)
	return nil
}

func (fl *flightLogContext) vehicleLogsTimesSecondsApart(vehicle int, message string, times, gap int) error {
	for i := 0; i < times; i++ {
		if i > 0 {
			fl.clock.AdvanceSeconds(float64(gap))
		}
		if err := fl.repo.Log(context.Background(), vehicle, "", message, "INFO", nil); err != nil {
			return err
		}
	}
	return nil
}

func (fl *flightLogContext) vehicleShouldHaveFlightLogEntries(vehicle, expected int) error {
	logs, err := fl.repo.GetLogs(context.Background(), vehicle, 100, nil, nil)
	if err != nil {
		return err
	}
	if len(logs) != expected {
		return fmt.Errorf("expected %d flight log entries for vehicle %d, got %d", expected, vehicle, len(logs))
	}
	return nil
}

// InitializeFlightLogScenario registers the flight log persistence steps
func InitializeFlightLogScenario(ctx *godog.ScenarioContext) {
	fl := &flightLogContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, fl.reset()
	})

	ctx.Step(`^a flight log with a (\d+) second dedup window$`, fl.aFlightLogWithASecondDedupWindow)
	ctx.Step(`^vehicle (\d+) logs "([^"]*)" (\d+) times, (\d+) seconds? apart$`, fl.vehicleLogsTimesSecondsApart)
	ctx.Step(`^vehicle (\d+) should have (\d+) flight log entr(?:y|ies)$`, fl.vehicleShouldHaveFlightLogEntries)
}
