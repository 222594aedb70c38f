package genetic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/internal/fitness"
	"github.com/cannonfire/planner/pkg/core"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// State is the position of the engine in its generational cycle.
type State int

const (
	StateInitialized State = iota
	StateEvaluating
	StateBreeding
	StateReplacing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateEvaluating:
		return "evaluating"
	case StateBreeding:
		return "breeding"
	case StateReplacing:
		return "replacing"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrTerminated is returned when stepping an engine whose run has finished
var ErrTerminated = errors.New("engine run already terminated")

// Observer receives engine output. Calls are made synchronously from the
// goroutine running the engine.
type Observer interface {
	OnGeneration(s core.Snapshot)
	OnFinish(r core.Result)
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers an observer for per-generation and final events.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock replaces time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRunID sets the run identifier stamped on every event.
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.runID = id
	}
}

// Engine drives the generational loop: evaluate, select, reproduce, mutate,
// replace, until the best plan converges or the generation bound is hit.
type Engine struct {
	cfg       Config
	rng       *rand.Rand
	eval      fitness.Evaluator
	selector  Selector
	crossover Crossover
	mutator   Mutator

	observers []Observer
	logger    *slog.Logger
	now       func() time.Time
	runID     string

	state      State
	generation int
	pending    []core.Individual // current generation, not yet evaluated
	population *Population       // last evaluated generation

	best    core.Snapshot // best seen across the run
	foundAt int
	history []float64 // best-so-far fitness per generation
	reason  core.TerminationReason

	generations metric.Int64Counter
	bestFitness metric.Float64Histogram
}

// NewEngine validates cfg and builds an engine seeded from cfg.Seed.
// Validation failures are returned as joined *ConfigurationError values.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	crossover, err := CrossoverByName(cfg.Crossover)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		eval:      fitness.New(ballistics.New(cfg.Gravity), cfg.Wall, cfg.OvershootScale),
		selector:  Roulette{},
		crossover: crossover,
		mutator: Mutator{
			Rate:         cfg.MutationRate,
			VelocityStep: cfg.VelocityStep,
			AngleStep:    cfg.AngleStep,
			Bounds:       cfg.Bounds,
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	m := meter()
	e.generations, err = m.Int64Counter(
		"engine.generations",
		metric.WithDescription("Generations evaluated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating generations counter: %w", err)
	}
	e.bestFitness, err = m.Float64Histogram(
		"engine.best_fitness",
		metric.WithDescription("Best fitness of each evaluated generation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating best fitness histogram: %w", err)
	}

	e.reset()
	return e, nil
}

// reset puts the engine in its Initialized state with a fresh random population.
func (e *Engine) reset() {
	e.state = StateInitialized
	e.generation = 0
	e.population = nil
	e.best = core.Snapshot{}
	e.foundAt = 0
	e.history = e.history[:0]
	e.reason = ""
	e.pending = RandomIndividuals(e.cfg.PopulationSize, e.cfg.Bounds, e.rng)
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Generation returns the generation counter.
func (e *Engine) Generation() int { return e.generation }

// Population returns the last evaluated population, nil before the first evaluation.
func (e *Engine) Population() *Population { return e.population }

// Run steps the engine until it terminates and returns the best plan found.
func (e *Engine) Run() (core.Result, error) {
	e.logger.Info("Starting search",
		"runId", e.runID,
		"populationSize", e.cfg.PopulationSize,
		"crossover", e.cfg.Crossover,
		"elitism", e.cfg.Elitism,
		"maxGenerations", e.cfg.MaxGenerations,
		"seed", e.cfg.Seed,
	)

	for {
		_, done, err := e.Step()
		if err != nil {
			return core.Result{}, err
		}
		if done {
			return e.result(), nil
		}
	}
}

// Step evaluates the current generation and, unless that ends the run,
// breeds and installs its replacement. done is true once the engine has
// terminated.
func (e *Engine) Step() (snap core.Snapshot, done bool, err error) {
	if e.state == StateTerminated {
		return core.Snapshot{}, true, ErrTerminated
	}

	snap, err = e.evaluate()
	if err != nil {
		return core.Snapshot{}, false, err
	}

	if reason, stop := e.shouldTerminate(); stop {
		e.state = StateTerminated
		e.finish(reason)
		return snap, true, nil
	}

	e.replace(e.breed())
	return snap, false, nil
}

func (e *Engine) evaluate() (core.Snapshot, error) {
	e.state = StateEvaluating

	pop, err := Evaluate(e.generation, e.pending, e.eval)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("generation %d: %w", e.generation, err)
	}
	e.population = pop

	snap := pop.Snapshot(e.runID, e.now())
	if e.generation == 0 || snap.BestFitness > e.best.BestFitness {
		e.best = snap
		e.foundAt = snap.Generation
	}
	e.history = append(e.history, e.best.BestFitness)

	attrs := metric.WithAttributes(attribute.String("outcome", snap.Outcome.String()))
	e.generations.Add(context.Background(), 1, attrs)
	e.bestFitness.Record(context.Background(), snap.BestFitness, attrs)

	e.logger.Debug("Generation evaluated",
		"generation", snap.Generation,
		"bestFitness", snap.BestFitness,
		"bestDistance", snap.BestDistance,
		"outcome", snap.Outcome.String(),
		"velocity", snap.Best.Velocity(),
		"angleDeg", snap.Best.AngleDegrees(),
		"meanFitness", snap.MeanFitness,
	)

	for _, o := range e.observers {
		o.OnGeneration(snap)
	}
	return snap, nil
}

// shouldTerminate checks convergence first, then the generation bound.
// MaxGenerations counts evaluated generations, so generation numbers run
// from 0 to MaxGenerations-1.
func (e *Engine) shouldTerminate() (core.TerminationReason, bool) {
	if e.converged() {
		return core.ReasonConverged, true
	}
	if e.generation+1 >= e.cfg.MaxGenerations {
		return core.ReasonMaxGenerations, true
	}
	return "", false
}

// converged is true when the best plan clears the wall within tolerance and
// has not improved by MinImprovement over the last StallWindow generations.
func (e *Engine) converged() bool {
	if e.best.Outcome != core.OutcomeCleared {
		return false
	}
	if e.best.Overshoot(e.cfg.Wall) > e.cfg.Tolerance {
		return false
	}
	n := len(e.history)
	if n <= e.cfg.StallWindow {
		return false
	}
	return e.history[n-1]-e.history[n-1-e.cfg.StallWindow] < e.cfg.MinImprovement
}

// breed produces the next generation's individuals from the evaluated population.
func (e *Engine) breed() []core.Individual {
	e.state = StateBreeding

	n := e.cfg.PopulationSize
	next := make([]core.Individual, 0, n)
	if e.cfg.Elitism {
		next = append(next, e.population.Best().Individual)
	}
	for len(next) < n {
		a := e.selector.Select(e.population, e.rng)
		b := e.selector.Select(e.population, e.rng)
		child := e.crossover(a, b, e.rng)
		next = append(next, e.mutator.Mutate(child, e.rng))
	}
	return next
}

func (e *Engine) replace(next []core.Individual) {
	e.state = StateReplacing
	e.pending = next
	e.generation++
}

func (e *Engine) result() core.Result {
	return core.Result{
		RunID:       e.runID,
		Best:        e.best.Best,
		Fitness:     e.best.BestFitness,
		Distance:    e.best.BestDistance,
		Outcome:     e.best.Outcome,
		FoundAt:     e.foundAt,
		Generations: e.generation + 1,
		Reason:      e.reason,
		EndTime:     e.now(),
	}
}

func (e *Engine) finish(reason core.TerminationReason) {
	e.reason = reason
	r := e.result()

	e.logger.Info("Search finished",
		"runId", r.RunID,
		"reason", string(r.Reason),
		"generations", r.Generations,
		"foundAt", r.FoundAt,
		"velocity", r.Best.Velocity(),
		"angleDeg", r.Best.AngleDegrees(),
		"distance", r.Distance,
		"outcome", r.Outcome.String(),
		"fitness", r.Fitness,
	)

	for _, o := range e.observers {
		o.OnFinish(r)
	}
}
