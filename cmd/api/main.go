package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "segnala",
		Short: "LazioSegnala request tracking service",
		Long:  `Segnala serves the issue-report portal API, manages database migrations and issues development tokens.`,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newTokenCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
