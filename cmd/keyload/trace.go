package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyload/internal/engine"
	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/stats"
)

var (
	traceFile    string
	traceLimit   int
	traceLayouts string
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace [text]",
		Short: "Show how each layout scores the first characters of a text",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTraceCmd,
	}
	cmd.Flags().StringVar(&traceFile, "file", "", "read the text from a file")
	cmd.Flags().IntVar(&traceLimit, "limit", engine.DefaultTraceLimit, "number of characters to trace")
	cmd.Flags().StringVarP(&traceLayouts, "layouts", "l", "all", "comma-separated layout ids")
	return cmd
}

func runTraceCmd(cmd *cobra.Command, args []string) error {
	var text string
	switch {
	case len(args) == 1 && traceFile != "":
		return fmt.Errorf("pass either a text or --file, not both")
	case len(args) == 1:
		text = args[0]
	case traceFile != "":
		data, err := os.ReadFile(traceFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", traceFile, err)
		}
		text = string(data)
	default:
		return fmt.Errorf("nothing to trace: pass a text or --file")
	}
	if traceLimit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}
	ids, err := layout.ParseList(traceLayouts)
	if err != nil {
		return fmt.Errorf("--layouts: %w", err)
	}

	steps, err := engine.Trace(strings.TrimSpace(text), traceLimit, ids...)
	if err != nil {
		return err
	}
	return stats.RenderTrace(cmd.OutOrStdout(), steps)
}
