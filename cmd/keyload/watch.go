package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyload/internal/watch"
)

var (
	watchSave     bool
	watchDebounce = watch.DefaultDebounce
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <corpus>",
		Short: "Re-score a corpus every time the file is saved",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchCmd,
	}
	addAnalyzeFlags(cmd)
	cmd.Flags().BoolVar(&watchSave, "save", false, "record every re-score in the history database")
	cmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before re-scoring")
	return cmd
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, qcfg, err := loadAnalyzeConfig(cmd, args[0])
	if err != nil {
		return err
	}
	cfg.Ephemeral = !watchSave

	rescore := func(ctx context.Context) error {
		run, res, err := scoreCorpus(ctx, cfg, qcfg, 0, logger)
		if err != nil {
			return err
		}
		if watchSave {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)
			if err := st.InsertRun(ctx, run, res.Chunks); err != nil {
				return fmt.Errorf("failed to save run: %w", err)
			}
		}
		return printSummary(cmd.OutOrStdout(), run.Totals)
	}

	if err := rescore(ctx); err != nil {
		return err
	}
	return watch.File(ctx, cfg.Source, watchDebounce, logger, rescore)
}
