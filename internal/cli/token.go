package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/classpulse-api/internal/models"
	"github.com/noah-isme/classpulse-api/internal/service"
)

func newTokenCommand() *cobra.Command {
	var (
		user string
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			userRole := models.UserRole(strings.ToUpper(role))
			if userRole != models.RoleAdmin && userRole != models.RoleTeacher {
				return fmt.Errorf("role must be ADMIN or TEACHER")
			}
			tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, TTL: ttl})
			token, expiresAt, err := tokens.Issue(user, userRole)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "dev", "Subject of the token")
	cmd.Flags().StringVar(&role, "role", string(models.RoleTeacher), "ADMIN or TEACHER")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")
	return cmd
}
