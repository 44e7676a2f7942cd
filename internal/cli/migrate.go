package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the journey tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if _, err := openDatabase(cfg, true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema migrated (%s)\n", color.GreenString("✓"), cfg.Database.Driver)
			return nil
		},
	}
}
