package main

import (
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyload/internal/stats"
)

func newLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List supported layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return stats.RenderLayouts(cmd.OutOrStdout())
		},
	}
}
