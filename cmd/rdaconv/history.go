package main

import (
	"github.com/spf13/cobra"
)

// createHistoryCommand creates the history command.
func createHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversion runs",
		Long:  "Show recent conversion runs from the journal with their failed records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := createAppFromCommand(cmd)
			if err != nil {
				return err
			}
			return a.History(cmd.Context(), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show (0 for all)")

	return cmd
}
