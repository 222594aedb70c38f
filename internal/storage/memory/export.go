package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/internal/model"
	"github.com/cannonfire/planner/internal/model/convert"
	"github.com/cannonfire/planner/pkg/core"
)

// RunExport is the root JSON structure of an exported run
type RunExport struct {
	Run         model.Run          `json:"run"`
	Generations []model.Generation `json:"generations"`
}

func buildExport(h *core.RunHistory) RunExport {
	run := convert.CoreToRun(h.Run)
	if h.Result != nil {
		convert.ApplyResult(&run, *h.Result)
	}

	export := RunExport{
		Run:         run,
		Generations: make([]model.Generation, len(h.Generations)),
	}
	sim := ballistics.New(h.Run.Gravity)
	for i, s := range h.Generations {
		export.Generations[i] = convert.CoreToGeneration(s, 0, h.Run.Wall, sim)
	}
	return export
}

// exportJSON writes the run to <outputDir>/<runId>.json, gzipped when configured
func (b *Backend) exportJSON(h *core.RunHistory) error {
	filename := h.Run.ID + ".json"
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	export := buildExport(h)
	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func writeJSON(path string, data RunExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data RunExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		return err
	}
	return gzWriter.Close()
}

// ReadExport decodes an exported run file, gzipped or plain.
func ReadExport(path string) (RunExport, error) {
	var export RunExport

	f, err := os.Open(path)
	if err != nil {
		return export, err
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return export, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return export, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return export, nil
}

// History converts an export back into a run history.
func (e RunExport) History() *core.RunHistory {
	h := &core.RunHistory{
		Run:         convert.RunToCore(e.Run),
		Generations: make([]core.Snapshot, len(e.Generations)),
	}
	for i, g := range e.Generations {
		h.Generations[i] = convert.GenerationToCore(g, e.Run.Name)
	}
	if res, ok := convert.RunToResult(e.Run); ok {
		h.Result = &res
	}
	return h
}
