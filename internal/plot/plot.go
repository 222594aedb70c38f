// Package plot renders run histories to PNG: the trajectories of improving
// best plans against the wall, and the fitness curve over generations.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/pkg/core"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrEmptyHistory is returned when a run has no generations to draw.
var ErrEmptyHistory = errors.New("run has no generations")

var (
	wallColor = color.RGBA{90, 90, 90, 255}
	bestColor = color.RGBA{0, 80, 255, 255}
	meanColor = color.RGBA{220, 120, 0, 255}
)

// Renderer draws run histories into cfg.OutputDir.
type Renderer struct {
	cfg config.PlotConfig
	sim ballistics.Simulator
}

// New creates a renderer using gravity for trajectory sampling.
func New(cfg config.PlotConfig, gravity float64) *Renderer {
	if cfg.Width <= 0 {
		cfg.Width = 16
	}
	if cfg.Height <= 0 {
		cfg.Height = 10
	}
	return &Renderer{cfg: cfg, sim: ballistics.New(gravity)}
}

// Improvements returns the snapshots where the best fitness went up, keeping
// at most n of the latest ones. The first generation always counts as an
// improvement.
func Improvements(gens []core.Snapshot, n int) []core.Snapshot {
	var out []core.Snapshot
	for i, s := range gens {
		if i == 0 || s.BestFitness > out[len(out)-1].BestFitness {
			out = append(out, s)
		}
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// Trajectory samples a plan's flight as plot points.
func (r *Renderer) Trajectory(ind core.Individual, wall core.Wall) (plotter.XYs, error) {
	ls, err := r.sim.Path(ind.Velocity(), ind.Angle(), wall, ballistics.DefaultPathSamples)
	if err != nil {
		return nil, err
	}
	seq := ls.Coordinates()
	xys := make(plotter.XYs, seq.Length())
	for i := range xys {
		pt := seq.GetXY(i)
		xys[i].X, xys[i].Y = pt.X, pt.Y
	}
	return xys, nil
}

// RenderTrajectories writes <runId>.png with the improving best plans, the
// wall and the landing point of the final best.
func (r *Renderer) RenderTrajectories(h *core.RunHistory) (string, error) {
	if len(h.Generations) == 0 {
		return "", ErrEmptyHistory
	}
	wall := h.Run.Wall

	p := gonumplot.New()
	p.Title.Text = fmt.Sprintf("Best trajectories, %s", h.Run.ID)
	p.X.Label.Text = "distance (m)"
	p.Y.Label.Text = "height (m)"
	p.Add(plotter.NewGrid())

	for i, s := range Improvements(h.Generations, r.cfg.MaxPaths) {
		xys, err := r.Trajectory(s.Best, wall)
		if err != nil {
			return "", fmt.Errorf("generation %d: %w", s.Generation, err)
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return "", err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("gen %d (%.1f m/s, %.1f°)", s.Generation, s.Best.Velocity(), s.Best.AngleDegrees()), line)
	}

	best := h.Generations[len(h.Generations)-1].Best
	if h.Result != nil {
		best = h.Result.Best
	}
	xys, err := r.Trajectory(best, wall)
	if err != nil {
		return "", err
	}
	bestLine, err := plotter.NewLine(xys)
	if err != nil {
		return "", err
	}
	bestLine.Color = bestColor
	bestLine.Width = vg.Points(2)
	p.Add(bestLine)
	p.Legend.Add("best", bestLine)

	landing, err := plotter.NewScatter(plotter.XYs{xys[len(xys)-1]})
	if err != nil {
		return "", err
	}
	landing.GlyphStyle.Shape = draw.CrossGlyph{}
	landing.GlyphStyle.Color = bestColor
	landing.GlyphStyle.Radius = vg.Points(4)
	p.Add(landing)

	wallLine, err := plotter.NewLine(plotter.XYs{{X: wall.Distance, Y: 0}, {X: wall.Distance, Y: wall.Height}})
	if err != nil {
		return "", err
	}
	wallLine.Color = wallColor
	wallLine.Width = vg.Points(4)
	p.Add(wallLine)
	p.Legend.Add("wall", wallLine)

	p.Y.Min = 0
	p.Legend.Top = true

	return r.save(p, h.Run.ID+".png")
}

// RenderFitness writes <runId>_fitness.png with best and mean fitness per
// generation.
func (r *Renderer) RenderFitness(h *core.RunHistory) (string, error) {
	if len(h.Generations) == 0 {
		return "", ErrEmptyHistory
	}

	p := gonumplot.New()
	p.Title.Text = fmt.Sprintf("Fitness, %s", h.Run.ID)
	p.X.Label.Text = "generation"
	p.Y.Label.Text = "fitness"
	p.Add(plotter.NewGrid())

	bestPts := make(plotter.XYs, len(h.Generations))
	meanPts := make(plotter.XYs, len(h.Generations))
	for i, s := range h.Generations {
		bestPts[i].X, bestPts[i].Y = float64(s.Generation), s.BestFitness
		meanPts[i].X, meanPts[i].Y = float64(s.Generation), s.MeanFitness
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return "", err
	}
	bestLine.Color = bestColor
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return "", err
	}
	meanLine.Color = meanColor

	p.Add(bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true
	p.Legend.Left = true

	return r.save(p, h.Run.ID+"_fitness.png")
}

// Render writes both plots and returns their paths.
func (r *Renderer) Render(h *core.RunHistory) ([]string, error) {
	traj, err := r.RenderTrajectories(h)
	if err != nil {
		return nil, err
	}
	fit, err := r.RenderFitness(h)
	if err != nil {
		return nil, err
	}
	return []string{traj, fit}, nil
}

func (r *Renderer) save(p *gonumplot.Plot, name string) (string, error) {
	if err := os.MkdirAll(r.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create plot directory: %w", err)
	}
	path := filepath.Join(r.cfg.OutputDir, name)
	w := vg.Length(r.cfg.Width) * vg.Centimeter
	h := vg.Length(r.cfg.Height) * vg.Centimeter
	if err := p.Save(w, h, path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}
