package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/adapters/sandbox"
	autopilotCmd "github.com/andrescamacho/autopilot-go/internal/application/autopilot/commands"
	autopilotQuery "github.com/andrescamacho/autopilot-go/internal/application/autopilot/queries"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
	"github.com/andrescamacho/autopilot-go/internal/infrastructure/config"
	"github.com/andrescamacho/autopilot-go/internal/infrastructure/pidfile"
)

// progressEvery is how many ticks run between progress lines
const progressEvery = 500

type simulateOptions struct {
	ticks    int
	timestep float64
	realtime bool
	speedUp  float64
	save     bool
	restore  bool
	metrics  bool
}

// NewSimulateCommand creates the simulate command
func NewSimulateCommand() *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate <scenario>",
		Short: "Fly a scenario in the sandbox world",
		Long: `Build one of the sandbox scenarios, engage its autopilot commands and
tick the controller until every command finishes or the tick budget runs out.

With --save the active command chains are stored when the run stops, and
--restore resumes them on a fresh copy of the scenario instead of engaging
new commands.

Examples:
  autopilot simulate deep-space
  autopilot simulate station --ticks 5000 --save
  autopilot simulate station --restore
  autopilot simulate orbit --realtime --speed-up 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts.applyDefaults(cmd, cfg)
			return runSimulation(cmd.Context(), cfg, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.ticks, "ticks", 0, "Maximum number of ticks (default from config)")
	cmd.Flags().Float64Var(&opts.timestep, "timestep", 0, "Seconds of game time per tick (default from config)")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Pace ticks to wall-clock time")
	cmd.Flags().Float64Var(&opts.speedUp, "speed-up", 0, "Realtime pace multiplier (default from config)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Save active commands when the run stops")
	cmd.Flags().BoolVar(&opts.restore, "restore", false, "Resume saved commands instead of engaging new ones")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Serve Prometheus metrics during the run")

	return cmd
}

// applyDefaults fills unset flags from configuration
func (o *simulateOptions) applyDefaults(cmd *cobra.Command, cfg *config.Config) {
	if o.ticks <= 0 {
		o.ticks = cfg.Simulation.MaxTicks
	}
	if o.timestep <= 0 {
		o.timestep = cfg.Simulation.Timestep
	}
	if o.speedUp <= 0 {
		o.speedUp = cfg.Simulation.SpeedUp
	}
	if !cmd.Flags().Changed("realtime") {
		o.realtime = cfg.Simulation.Realtime
	}
	if !cmd.Flags().Changed("save") {
		o.save = cfg.Simulation.SaveOnExit
	}
	if o.metrics {
		cfg.Metrics.Enabled = true
	}
}

func runSimulation(parent context.Context, cfg *config.Config, name string, opts *simulateOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	sc, err := sandbox.BuildScenario(name, opts.timestep)
	if err != nil {
		return err
	}

	if (opts.save || opts.restore) && cfg.Simulation.LockFile != "" {
		lock := pidfile.New(cfg.Simulation.LockFile)
		if err := lock.Acquire(); err != nil {
			return fmt.Errorf("another run is using the save store: %w", err)
		}
		defer lock.Release()
	}

	app, err := newApplication(cfg, sc.World)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()
	ctx = app.withLogger(ctx)

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics, app.logger)
	}

	fmt.Printf("Scenario %s: %s\n", sc.Name, sc.Description)
	fmt.Printf("Timestep %.3fs, up to %d ticks\n\n", opts.timestep, opts.ticks)

	for _, e := range sc.Engagements {
		if err := engage(ctx, app, e, opts.restore); err != nil {
			return err
		}
	}

	ticksRun, runErr := advance(ctx, app, sc, opts)
	if errors.Is(runErr, context.Canceled) {
		fmt.Println("\nInterrupted")
		runErr = nil
	}

	fmt.Printf("\nRan %d ticks (%.1fs game time)\n", ticksRun, sc.World.Elapsed())
	for _, e := range sc.Engagements {
		printStatus(ctx, app, sc.World, e.VehicleIndex)
	}

	if opts.save {
		// The interrupt may have cancelled ctx; saving still has to happen
		saveActive(app.withLogger(context.Background()), app)
	}
	return runErr
}

func engage(ctx context.Context, app *application, e sandbox.Engagement, restore bool) error {
	if restore {
		resp, err := app.med.Send(ctx, &autopilotCmd.RestoreAutopilotCommand{VehicleIndex: e.VehicleIndex})
		if err == nil {
			r := resp.(*autopilotCmd.RestoreAutopilotResponse)
			fmt.Printf("Vehicle %d: restored %s (%s), chain depth %d\n", e.VehicleIndex, r.Kind, r.CommandID, r.Depth)
			return nil
		}
		var noActive *shared.NoActiveCommandError
		if !errors.As(err, &noActive) {
			return err
		}
		fmt.Printf("Vehicle %d: nothing saved, engaging fresh\n", e.VehicleIndex)
	}

	resp, err := app.med.Send(ctx, &autopilotCmd.EngageAutopilotCommand{VehicleIndex: e.VehicleIndex, Spec: e.Spec})
	if err != nil {
		return err
	}
	r := resp.(*autopilotCmd.EngageAutopilotResponse)
	fmt.Printf("Vehicle %d: engaged %s (%s)\n", e.VehicleIndex, r.Kind, r.CommandID)
	if r.AIMessage != "" && r.AIMessage != navigation.AIMessageNone {
		fmt.Printf("Vehicle %d: autopilot reports %s\n", e.VehicleIndex, r.AIMessage.Describe())
	}
	return nil
}

// advance runs the tick loop in chunks, printing the focus vehicle between them
func advance(ctx context.Context, app *application, sc *sandbox.Scenario, opts *simulateOptions) (int, error) {
	var limiter *rate.Limiter
	chunk := progressEvery
	if opts.realtime {
		limiter = rate.NewLimiter(rate.Limit(opts.speedUp/opts.timestep), 1)
		chunk = 1
	}

	total := 0
	for total < opts.ticks {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return total, err
			}
		}
		n := chunk
		if remaining := opts.ticks - total; remaining < n {
			n = remaining
		}

		resp, err := app.med.Send(ctx, &autopilotCmd.AdvanceAutopilotCommand{
			Timestep:     opts.timestep,
			Ticks:        n,
			Stepper:      sc.World.Step,
			StopWhenIdle: true,
		})
		if err != nil {
			return total, err
		}
		r := resp.(*autopilotCmd.AdvanceAutopilotResponse)
		total += r.TicksRun

		if len(r.ActiveVehicles) == 0 {
			return total, nil
		}
		if total%progressEvery == 0 {
			printProgress(sc, total)
		}
	}
	return total, nil
}

func printProgress(sc *sandbox.Scenario, tick int) {
	body := sc.World.BodyByIndex(sc.Focus)
	if body == nil {
		return
	}
	pos, vel := body.Position(), body.Velocity()
	fmt.Printf("  t=%-8.1f tick %-6d %-10s pos (%.0f, %.0f, %.0f) speed %.1f m/s in %s\n",
		sc.World.Elapsed(), tick, body.Label(),
		pos.X, pos.Y, pos.Z, r3.Norm(vel), body.Frame().Label())
}

func printStatus(ctx context.Context, app *application, world *sandbox.World, vehicleIndex int) {
	resp, err := app.med.Send(ctx, &autopilotQuery.GetAutopilotStatusQuery{VehicleIndex: vehicleIndex})
	if err != nil {
		fmt.Printf("Vehicle %d: %v\n", vehicleIndex, err)
		return
	}
	st := resp.(*autopilotQuery.GetAutopilotStatusResponse).Status
	label := world.BodyByIndex(vehicleIndex).Label()

	fmt.Printf("Vehicle %d (%s): %s %s after %d ticks, %s game time\n",
		vehicleIndex, label, st.Kind, st.Status, st.Ticks, st.GameTime.Round(time.Millisecond))
	if st.ActiveKind != "" {
		fmt.Printf("  active: %s, chain depth %d\n", st.ActiveKind, st.Depth)
	}
	if st.AIMessage != "" && st.AIMessage != navigation.AIMessageNone {
		fmt.Printf("  message: %s\n", st.AIMessage.Describe())
	}
}

func saveActive(ctx context.Context, app *application) {
	for _, vi := range app.controller.ActiveVehicles() {
		resp, err := app.med.Send(ctx, &autopilotCmd.SaveAutopilotCommand{VehicleIndex: vi})
		if err != nil {
			fmt.Printf("Vehicle %d: failed to save: %v\n", vi, err)
			continue
		}
		saved := resp.(*autopilotCmd.SaveAutopilotResponse).Saved
		fmt.Printf("Vehicle %d: saved %s chain (depth %d)\n", vi, saved.Kind, saved.Snapshot.Depth())
	}
}
