package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/rdaconv/internal/app"
)

// createConvertCommand creates the convert command.
func createConvertCommand() *cobra.Command {
	var req app.ConvertRequest

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a file of MARC21 records to RDA",
		Long: "Convert every record in the input file to RDA and write the results in input order. " +
			"Records that fail are logged to the error log and skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Input == "" || req.Output == "" {
				return errors.New("both --input and --output are required")
			}

			a, err := createAppFromCommand(cmd)
			if err != nil {
				return err
			}

			_, err = a.Convert(cmd.Context(), req)
			return err
		},
	}

	cmd.Flags().StringVarP(&req.Input, "input", "i", "", "Input MARC21 file")
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "Output file")
	cmd.Flags().StringVarP(&req.Format, "format", "f", "", "Output format: marc or marcxml (default from config)")
	cmd.Flags().IntVarP(&req.Workers, "workers", "w", 0, "Number of conversion workers (default from config)")
	cmd.Flags().BoolVarP(&req.Yes, "yes", "y", false, "Overwrite the output file without asking")

	return cmd
}
