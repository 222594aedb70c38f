package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/internal/dispatcher"
	"github.com/cannonfire/planner/internal/fitness"
	"github.com/cannonfire/planner/internal/genetic"
	"github.com/cannonfire/planner/pkg/core"
)

// cmdRun searches for a firing plan with the configured settings.
func cmdRun() error {
	cfg := genetic.FromSettings(config.GetEngineConfig())

	run := &core.Run{
		ID:             core.NewRunID(SessionStartTime, cfg.Seed),
		Seed:           cfg.Seed,
		StartTime:      SessionStartTime,
		PopulationSize: cfg.PopulationSize,
		MutationRate:   cfg.MutationRate,
		Crossover:      cfg.Crossover,
		Elitism:        cfg.Elitism,
		MaxGenerations: cfg.MaxGenerations,
		Tolerance:      cfg.Tolerance,
		Gravity:        cfg.Gravity,
		Wall:           cfg.Wall,
		Bounds:         cfg.Bounds,
	}

	observer := dispatcher.NewObserver(eventDispatcher)
	engine, err := genetic.NewEngine(cfg,
		genetic.WithObserver(observer),
		genetic.WithLogger(Logger),
		genetic.WithRunID(run.ID),
	)
	if err != nil {
		Logger.Error("Invalid engine configuration", "error", err)
		return err
	}

	observer.OnStart(run)
	res, err := engine.Run()
	if err != nil {
		return fmt.Errorf("run %s failed: %w", run.ID, err)
	}

	printResult(run, res)
	if path := workerManager.ExportedFilePath(); path != "" {
		fmt.Println("stored:    ", absPath(path))
	}
	for _, p := range workerManager.Plots() {
		fmt.Println("plot:      ", absPath(p))
	}
	return nil
}

// cmdSimulate flies a single plan at the configured wall.
func cmdSimulate(velocityArg, angleArg, configDir string) error {
	velocity, err := strconv.ParseFloat(velocityArg, 64)
	if err != nil {
		return fmt.Errorf("invalid velocity %q: %w", velocityArg, err)
	}
	angleDeg, err := strconv.ParseFloat(angleArg, 64)
	if err != nil {
		return fmt.Errorf("invalid angle %q: %w", angleArg, err)
	}

	if err := setupLogging(configDir); err != nil {
		return err
	}
	defer shutdownLogging()

	ec := config.GetEngineConfig()
	wall := core.Wall{Distance: ec.WallDistance, Height: ec.WallHeight}
	sim := ballistics.New(ec.Gravity)
	eval := fitness.New(sim, wall, ec.OvershootScale)

	score, err := eval.Evaluate(core.NewIndividual(velocity, core.DegreesToRadians(angleDeg)))
	if err != nil {
		return err
	}
	f := score.Flight
	Logger.Info("Simulated plan",
		"velocity", velocity,
		"angleDeg", angleDeg,
		"outcome", f.Outcome.String(),
		"distance", f.Distance,
		"fitness", score.Value,
	)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "wall\t%.2f m away, %.2f m high\n", wall.Distance, wall.Height)
	fmt.Fprintf(w, "plan\t%.3f m/s at %.3f°\n", velocity, angleDeg)
	fmt.Fprintf(w, "outcome\t%s\n", f.Outcome)
	fmt.Fprintf(w, "height at wall\t%.3f m\n", f.HeightAtWall)
	fmt.Fprintf(w, "distance\t%.3f m\n", f.Distance)
	fmt.Fprintf(w, "range\t%.3f m\n", f.Range)
	fmt.Fprintf(w, "apex\t%.3f m\n", sim.Apex(velocity, core.DegreesToRadians(angleDeg)))
	fmt.Fprintf(w, "fitness\t%.4f\n", score.Value)
	return w.Flush()
}

// cmdHistory prints a stored run, one line per generation.
func cmdHistory(runID, configDir string) error {
	if err := setupLogging(configDir); err != nil {
		return err
	}
	defer shutdownLogging()

	h, err := loadHistory(runID)
	if err != nil {
		return err
	}

	fmt.Printf("%s  seed %d  wall %.2f m / %.2f m  population %d  crossover %s\n",
		h.Run.ID, h.Run.Seed, h.Run.Wall.Distance, h.Run.Wall.Height, h.Run.PopulationSize, h.Run.Crossover)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "gen\tvelocity\tangle\tdistance\toutcome\tbest\tmean\t")
	for _, s := range h.Generations {
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%.3f\t%s\t%.4f\t%.4f\t\n",
			s.Generation, s.Best.Velocity(), s.Best.AngleDegrees(), s.BestDistance, s.Outcome, s.BestFitness, s.MeanFitness)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if h.Result == nil {
		fmt.Println("run did not finish")
		return nil
	}
	printResult(&h.Run, *h.Result)
	return nil
}

func printResult(run *core.Run, res core.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", res.RunID)
	fmt.Fprintf(w, "stopped\t%s after %d generations\n", res.Reason, res.Generations)
	fmt.Fprintf(w, "best plan\t%.3f m/s at %.3f° (generation %d)\n", res.Best.Velocity(), res.Best.AngleDegrees(), res.FoundAt)
	fmt.Fprintf(w, "outcome\t%s, lands at %.3f m\n", res.Outcome, res.Distance)
	if res.Outcome == core.OutcomeCleared {
		fmt.Fprintf(w, "overshoot\t%.3f m\n", res.Distance-run.Wall.Distance)
	}
	fmt.Fprintf(w, "fitness\t%.4f\n", res.Fitness)
	w.Flush()
}
