package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/andrescamacho/autopilot-go/internal/adapters/metrics"
	"github.com/andrescamacho/autopilot-go/internal/adapters/persistence"
	"github.com/andrescamacho/autopilot-go/internal/adapters/sandbox"
	appAutopilot "github.com/andrescamacho/autopilot-go/internal/application/autopilot"
	autopilotCmd "github.com/andrescamacho/autopilot-go/internal/application/autopilot/commands"
	autopilotQuery "github.com/andrescamacho/autopilot-go/internal/application/autopilot/queries"
	"github.com/andrescamacho/autopilot-go/internal/application/common"
	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
	"github.com/andrescamacho/autopilot-go/internal/infrastructure/config"
	"github.com/andrescamacho/autopilot-go/internal/infrastructure/database"
	"github.com/andrescamacho/autopilot-go/internal/infrastructure/logging"
)

// simulationEpoch is the game time a fresh controller starts at
var simulationEpoch = time.Date(2300, time.January, 1, 0, 0, 0, 0, time.UTC)

// application holds everything a simulation run needs, wired together
type application struct {
	cfg        *config.Config
	logger     zerolog.Logger
	logCloser  io.Closer
	db         *gorm.DB
	repo       *persistence.GormAutopilotRepository
	flightLog  *persistence.GormFlightLogRepository
	controller *appAutopilot.Controller
	med        mediator.Mediator
}

// newApplication connects the database and registers every autopilot handler
// against a controller driving world
func newApplication(cfg *config.Config, world *sandbox.World) (*application, error) {
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	clock := shared.NewSimulationClock(simulationEpoch)
	app := &application{
		cfg:        cfg,
		logger:     logger,
		logCloser:  closer,
		db:         db,
		repo:       persistence.NewGormAutopilotRepository(db),
		flightLog:  persistence.NewGormFlightLogRepository(db, clock),
		controller: appAutopilot.NewController(world, cfg.Autopilot.Tuning(), clock),
		med:        mediator.NewMediator(),
	}

	if err := app.setupMetrics(); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.registerHandlers(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// setupMetrics creates the Prometheus registry and collectors when enabled
func (a *application) setupMetrics() error {
	if !a.cfg.Metrics.Enabled {
		return nil
	}
	metrics.InitRegistry()

	requestCollector := metrics.NewRequestMetricsCollector()
	if err := requestCollector.Register(); err != nil {
		return fmt.Errorf("failed to register request metrics: %w", err)
	}
	a.med.RegisterMiddleware(metrics.PrometheusMiddleware(requestCollector))

	autopilotCollector := metrics.NewAutopilotMetricsCollector()
	if err := autopilotCollector.Register(); err != nil {
		return fmt.Errorf("failed to register autopilot metrics: %w", err)
	}
	metrics.SetGlobalAutopilotCollector(autopilotCollector)
	return nil
}

func (a *application) registerHandlers() error {
	engageHandler := autopilotCmd.NewEngageAutopilotHandler(a.controller)
	if err := mediator.RegisterHandler[*autopilotCmd.EngageAutopilotCommand](a.med, engageHandler); err != nil {
		return fmt.Errorf("failed to register EngageAutopilot handler: %w", err)
	}

	advanceHandler := autopilotCmd.NewAdvanceAutopilotHandler(a.controller)
	if err := mediator.RegisterHandler[*autopilotCmd.AdvanceAutopilotCommand](a.med, advanceHandler); err != nil {
		return fmt.Errorf("failed to register AdvanceAutopilot handler: %w", err)
	}

	cancelHandler := autopilotCmd.NewCancelAutopilotHandler(a.controller)
	if err := mediator.RegisterHandler[*autopilotCmd.CancelAutopilotCommand](a.med, cancelHandler); err != nil {
		return fmt.Errorf("failed to register CancelAutopilot handler: %w", err)
	}

	saveHandler := autopilotCmd.NewSaveAutopilotHandler(a.controller, a.repo)
	if err := mediator.RegisterHandler[*autopilotCmd.SaveAutopilotCommand](a.med, saveHandler); err != nil {
		return fmt.Errorf("failed to register SaveAutopilot handler: %w", err)
	}

	restoreHandler := autopilotCmd.NewRestoreAutopilotHandler(a.controller, a.repo)
	if err := mediator.RegisterHandler[*autopilotCmd.RestoreAutopilotCommand](a.med, restoreHandler); err != nil {
		return fmt.Errorf("failed to register RestoreAutopilot handler: %w", err)
	}

	statusHandler := autopilotQuery.NewGetAutopilotStatusHandler(a.controller)
	if err := mediator.RegisterHandler[*autopilotQuery.GetAutopilotStatusQuery](a.med, statusHandler); err != nil {
		return fmt.Errorf("failed to register GetAutopilotStatus handler: %w", err)
	}

	listHandler := autopilotQuery.NewListSavedCommandsHandler(a.repo)
	if err := mediator.RegisterHandler[*autopilotQuery.ListSavedCommandsQuery](a.med, listHandler); err != nil {
		return fmt.Errorf("failed to register ListSavedCommands handler: %w", err)
	}
	return nil
}

// withLogger returns a context carrying the command logger
func (a *application) withLogger(parent context.Context) context.Context {
	var flightLog persistence.FlightLogRepository
	if a.cfg.Logging.FlightLog {
		flightLog = a.flightLog
	}
	return common.WithLogger(parent, logging.NewCommandLogger(a.logger, flightLog))
}

// Close releases the database connection and the log output
func (a *application) Close() {
	if err := database.Close(a.db); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close database")
	}
	if err := a.logCloser.Close(); err != nil {
		fmt.Printf("Warning: failed to close log output: %v\n", err)
	}
}
