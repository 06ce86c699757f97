package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyload/internal/export"
	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/stats"
	"github.com/verte-zerg/keyload/internal/statsui"
)

const defaultRunsLimit = 20

var (
	runsLimit int

	reportLayout      string
	reportCurveWindow int
	reportColor       bool

	exportFormat string

	importOut  string
	importSave bool
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsCmd,
	}
	cmd.Flags().IntVarP(&runsLimit, "limit", "n", defaultRunsLimit, "number of runs to list (0 for all)")
	return cmd
}

func runRunsCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	runs, err := st.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return stats.RenderRuns(cmd.OutOrStdout(), runs)
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [run]",
		Short: "Print the tables and chunk curves of a run (default: latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReportCmd,
	}
	addReportFlags(cmd)
	cmd.Flags().BoolVar(&reportColor, "color", false, "force colored plot output")
	return cmd
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&reportLayout, "layout", "l", "", "layout for the finger share table (default: best)")
	cmd.Flags().IntVar(&reportCurveWindow, "curve-window", defaultCurveWindow, "moving average window for chunk curves")
}

func reportConfig(cmd *cobra.Command, args []string) (model.ReportConfig, error) {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return model.ReportConfig{}, err
	}
	applyIntConfig(cmd, "curve-window", &reportCurveWindow, fileCfg.Report.CurveWindow)
	if reportCurveWindow <= 0 {
		return model.ReportConfig{}, fmt.Errorf("--curve-window must be > 0")
	}
	cfg := model.ReportConfig{CurveWindow: reportCurveWindow}
	if len(args) > 0 {
		cfg.RunID = args[0]
	}
	if reportLayout != "" {
		id, err := layout.Parse(reportLayout)
		if err != nil {
			return model.ReportConfig{}, fmt.Errorf("--layout: %w", err)
		}
		cfg.Layout = string(id)
	}
	return cfg, nil
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := reportConfig(cmd, args)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	return stats.RenderReport(cmd.OutOrStdout(), report, stats.RenderOptions{Color: reportColor})
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [run]",
		Short: "Browse stored runs in a TUI",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runViewCmd,
	}
	addReportFlags(cmd)
	return cmd
}

func runViewCmd(cmd *cobra.Command, args []string) error {
	cfg, err := reportConfig(cmd, args)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run viewer: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run> <path|->",
		Short: "Write the snapshot of a run as JSON, YAML, or Prometheus text",
		Long: `Write the snapshot of a run. The file extension picks the format
(.json, .yaml, .yml, optionally followed by .zst). Use "-" to write to stdout
with --format, or --format prom for Prometheus text exposition.`,
		Args: cobra.ExactArgs(2),
		RunE: runExportCmd,
	}
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "", "json, yaml, or prom")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	run, err := st.GetRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load run %q: %w", args[0], err)
	}
	return writeSnapshot(cmd, args[1], exportFormat, run.Totals)
}

func writeSnapshot(cmd *cobra.Command, path, format string, snap model.Snapshot) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "prom" {
		if path == "-" {
			return export.WritePrometheus(cmd.OutOrStdout(), snap)
		}
		return writePromFile(path, snap)
	}
	if path == "-" {
		if format == "" {
			format = string(export.JSON)
		}
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		return export.Encode(cmd.OutOrStdout(), snap, f)
	}
	if format != "" {
		want, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		got, _, err := export.FormatFromPath(path)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("--format %s does not match %s", format, filepath.Base(path))
		}
	}
	if err := export.WriteFile(path, snap); err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Info("snapshot written", "path", path)
	return nil
}

func writePromFile(path string, snap model.Snapshot) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return export.WritePrometheus(f, snap)
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <snapshot>...",
		Short: "Validate and merge partial snapshot files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVarP(&importOut, "out", "o", "", "write the merged snapshot to a file")
	cmd.Flags().BoolVar(&importSave, "save", false, "record the merge as a run in the history database")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	started := time.Now().UTC()

	parts := make([]model.Snapshot, 0, len(args))
	var chunks []model.ChunkTotal
	for i, path := range args {
		snap, err := export.ReadFile(path)
		if err != nil {
			return err
		}
		logger.Debug("snapshot loaded", "path", path, "layouts", len(snap))
		parts = append(parts, snap)
		for _, name := range stats.Layouts(snap) {
			t := snap[name]
			chunks = append(chunks, model.ChunkTotal{ChunkID: i, Layout: name, Load: t.Load(), Presses: t.Presses()})
		}
	}
	merged := model.Merge(parts...)
	logger.Info("merged snapshots", "files", len(args), "layouts", len(merged))

	if importOut != "" {
		if err := writeSnapshot(cmd, importOut, "", merged); err != nil {
			return err
		}
	}
	if importSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		sources := make([]string, 0, len(args))
		for _, path := range args {
			sources = append(sources, absPath(path))
		}
		run := model.Run{
			ID:        uuid.NewString(),
			Source:    strings.Join(sources, ","),
			Strategy:  "import",
			Chunks:    len(args),
			StartedAt: started,
			EndedAt:   time.Now().UTC(),
			Totals:    merged,
		}
		if err := st.InsertRun(ctx, run, chunks); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		logger.Info("run saved", "id", run.ID)
	}
	return printSummary(cmd.OutOrStdout(), merged)
}
