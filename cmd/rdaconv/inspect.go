package main

import (
	"github.com/spf13/cobra"
)

// createInspectCommand creates the inspect command.
func createInspectCommand() *cobra.Command {
	var convert bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print records in mnemonic form",
		Long:  "Print every record in a MARC21 file in mnemonic form, optionally after RDA conversion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := createAppFromCommand(cmd)
			if err != nil {
				return err
			}
			return a.Inspect(cmd.Context(), args[0], convert)
		},
	}

	cmd.Flags().BoolVar(&convert, "convert", false, "Show records after conversion")

	return cmd
}
