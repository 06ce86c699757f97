package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
)

// RunSource reads stored runs.
type RunSource interface {
	GetRun(ctx context.Context, id string) (model.Run, error)
	LatestRun(ctx context.Context) (model.Run, error)
	ListChunkTotals(ctx context.Context, runID string) ([]model.ChunkTotal, error)
}

// Report contains precomputed data for rendering one run.
type Report struct {
	Run    model.Run
	Chunks []model.ChunkTotal
	// Focus is the layout used for the finger share table.
	Focus       layout.ID
	CurveWindow int
}

// BuildReport loads a run and its chunk totals. An empty run id selects the
// latest run.
func BuildReport(ctx context.Context, src RunSource, cfg model.ReportConfig) (Report, error) {
	var (
		run model.Run
		err error
	)
	if cfg.RunID == "" {
		run, err = src.LatestRun(ctx)
	} else {
		run, err = src.GetRun(ctx, cfg.RunID)
	}
	if err != nil {
		return Report{}, err
	}
	chunks, err := src.ListChunkTotals(ctx, run.ID)
	if err != nil {
		return Report{}, err
	}

	focus := layout.ID(cfg.Layout)
	if focus == "" {
		if ranks := RankLayouts(run.Totals); len(ranks) > 0 {
			focus = layout.ID(ranks[0].Layout)
		}
	}
	return Report{Run: run, Chunks: chunks, Focus: focus, CurveWindow: cfg.CurveWindow}, nil
}

// RenderOptions sizes the plot section of a report.
type RenderOptions struct {
	Width  int
	Height int
	Color  bool
}

// RenderReport prints every section of a report.
func RenderReport(w io.Writer, r Report, opts RenderOptions) error {
	run := r.Run
	if _, err := fmt.Fprintf(w, "Run %s\nSource: %s\nStrategy: %s, %d chunks of %d chars\nTook: %s\n\n",
		run.ID, run.Source, run.Strategy, run.Chunks, run.ChunkSize, run.EndedAt.Sub(run.StartedAt)); err != nil {
		return err
	}
	if err := RenderFingerLoads(w, run.Totals); err != nil {
		return err
	}
	if err := RenderPresses(w, run.Totals); err != nil {
		return err
	}
	if err := RenderComparison(w, run.Totals, layout.Qwer); err != nil {
		return err
	}
	if err := RenderHandBalance(w, run.Totals); err != nil {
		return err
	}
	if r.Focus != "" {
		if err := RenderFingerShare(w, run.Totals, r.Focus); err != nil {
			return err
		}
	}
	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	return RenderChunkCurvesWithSize(w, r.Chunks, r.CurveWindow, opts.Width, height, opts.Color)
}
