package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"

	"github.com/sortlab/sortline/datarecording"
	"github.com/sortlab/sortline/monitoring"
	"github.com/sortlab/sortline/plant"
	"github.com/sortlab/sortline/sim"
)

var runFlags = struct {
	port    int
	seconds float64
	record  bool
	dbPath  string
	browser bool
	verbose bool
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the line",
	Long: `Run starts the line in COLLECT mode. Without --seconds the run ` +
		`is interactive: ticks are paced against the wall clock and the ` +
		`line takes keyboard commands. With --seconds the run is batch: ` +
		`the given span of simulated time is stepped as fast as possible ` +
		`and the final state is printed.`,
	Run: func(_ *cobra.Command, _ []string) {
		runLine()
	},
}

func init() {
	runCmd.Flags().IntVar(&runFlags.port, "port", 0,
		"monitoring port, random if 0")
	runCmd.Flags().Float64Var(&runFlags.seconds, "seconds", 0,
		"simulated seconds to run in batch mode, 0 for interactive")
	runCmd.Flags().BoolVar(&runFlags.record, "record", false,
		"record events and snapshots to a database")
	runCmd.Flags().StringVar(&runFlags.dbPath, "db", "",
		"database path for --record, unique name if empty")
	runCmd.Flags().BoolVar(&runFlags.browser, "browser", false,
		"open the monitoring page in a browser")
	runCmd.Flags().BoolVar(&runFlags.verbose, "verbose", false,
		"enable debug logging")

	rootCmd.AddCommand(runCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if runFlags.verbose {
		level = slog.LevelDebug
	}

	return slog.New(console.NewHandler(os.Stderr,
		&console.HandlerOptions{Level: level}))
}

func runLine() {
	logger := newLogger()
	slog.SetDefault(logger)

	cfg := plant.DefaultConfig().LoadEnv()

	p := plant.MakeBuilder().
		WithConfig(cfg).
		WithLogger(logger).
		Build()
	runner := sim.NewTickRunner(p.Context(), p, cfg.TickRate)

	if runFlags.record {
		rec := datarecording.New(runFlags.dbPath)
		p.AcceptHook(rec)
		runner.AcceptHook(&snapshotHook{
			plant:    p,
			recorder: rec,
			every:    int(float64(cfg.TickRate)),
		})
	}

	monitor := monitoring.NewMonitor()
	monitor.RegisterPlant(p)
	monitor.RegisterRunner(runner)
	if runFlags.port != 0 {
		monitor.WithPortNumber(runFlags.port)
	}
	if runFlags.browser {
		monitor.WithBrowser()
	}
	monitor.StartServer()

	if runFlags.seconds > 0 {
		runBatch(p, runner, monitor, cfg)
		return
	}

	runInteractive(p, runner, logger)
}

func runBatch(
	p *plant.Plant,
	runner *sim.TickRunner,
	monitor *monitoring.Monitor,
	cfg plant.Config,
) {
	n := int(runFlags.seconds * float64(cfg.TickRate))
	bar := monitor.CreateProgressBar("Batch run", uint64(n))

	chunk := int(float64(cfg.TickRate))
	if chunk < 1 {
		chunk = 1
	}

	for done := 0; done < n; {
		step := chunk
		if step > n-done {
			step = n - done
		}

		bar.MoveToInProgress(uint64(step))
		runner.StepN(step)
		bar.MoveToFinished(uint64(step))

		done += step
	}

	monitor.CompleteProgressBar(bar)

	out, err := json.MarshalIndent(p.Snapshot(), "", "  ")
	if err != nil {
		panic(err)
	}

	fmt.Println(string(out))
}

func runInteractive(
	p *plant.Plant,
	runner *sim.TickRunner,
	logger *slog.Logger,
) {
	go runner.Run()

	logger.Info("line running",
		"commands", "c=collect d=drain h=hang g=pick-and-hang "+
			"1..9=arm station p=pause/resume s=snapshot q=quit")

	paused := false
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		cmd := scanner.Text()

		switch cmd {
		case "c":
			p.SetMode(plant.Collect)
			logger.Info("mode set", "mode", plant.Collect)
		case "d":
			p.SetMode(plant.Drain)
			logger.Info("mode set", "mode", plant.Drain)
		case "h":
			p.SetMode(plant.Hang)
			logger.Info("mode set", "mode", plant.Hang)
		case "g":
			p.PickAndHang()
			logger.Info("picked and hung the loop population")
		case "p":
			if paused {
				runner.Continue()
			} else {
				runner.Pause()
			}
			paused = !paused
			logger.Info("pause toggled", "paused", paused)
		case "s":
			out, err := json.MarshalIndent(p.Snapshot(), "", "  ")
			if err != nil {
				panic(err)
			}
			fmt.Println(string(out))
		case "q":
			runner.Stop()
			return
		default:
			if station, err := strconv.Atoi(cmd); err == nil {
				p.ArmStation(station)
				logger.Info("station armed", "station", station)
			}
		}
	}

	runner.Stop()
}

// snapshotHook records one snapshot per simulated second.
type snapshotHook struct {
	plant    *plant.Plant
	recorder *datarecording.Recorder
	every    int

	ticks int
}

func (h *snapshotHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterTick {
		return
	}

	h.ticks++
	if h.every > 0 && h.ticks%h.every == 0 {
		h.recorder.RecordSnapshot(h.plant.Snapshot())
	}
}
