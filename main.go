package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hospital-journey-server/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hospital-journey",
		Short: "Hospital journey and queue progression service",
		Long: `Tracks a patient's visit as an ordered list of department checkpoints,
keeps department queues and wait estimates current as checkpoints move, and
serves the journey to polling clients.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.DepartmentsCmd())

	// Developer tools
	rootCmd.AddCommand(cli.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
