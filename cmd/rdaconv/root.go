package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/rdaconv/internal/app"
	"github.com/wizzomafizzo/rdaconv/internal/constants"
)

// createNewRootCommand creates the main root command that shows help by default.
func createNewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           constants.AppName,
		Short:         "Convert MARC21 AACR2 records to RDA",
		Long:          "Batch-convert MARC21 bibliographic records from AACR2 to RDA following the PCC recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Show help when run without subcommands
			return cmd.Help()
		},
	}

	// Add persistent config flag
	rootCmd.PersistentFlags().StringP("config", "c", constants.ConfigFilename, "Path to config file")

	// Add subcommands
	rootCmd.AddCommand(
		createConvertCommand(),
		createInspectCommand(),
		createValidateCommand(),
		createHistoryCommand(),
		createInitCommand(),
	)

	return rootCmd
}

// createAppFromCommand extracts config path and creates an app writing to
// the command's output
func createAppFromCommand(cmd *cobra.Command) (*app.App, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	return app.New(app.Options{
		Out:        cmd.OutOrStdout(),
		ConfigPath: configPath,
	}), nil
}
