package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hospital-journey-server/internal/models"
	"hospital-journey-server/internal/utils"
)

// TokenCmd returns the token command
func TokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for local development",
		Long: `Sign an access token with JWT_SECRET. Deployed services receive tokens
from the identity service; this exists to drive the API locally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.Role(role)
			if r != models.RolePatient && !r.IsStaff() {
				return fmt.Errorf("unknown role %q", role)
			}
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			token, err := utils.GenerateAccessToken(userID, r, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id placed in the token")
	cmd.Flags().StringVar(&role, "role", string(models.RolePatient), "One of patient, staff, doctor, admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}
