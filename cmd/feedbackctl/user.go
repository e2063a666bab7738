package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
	"github.com/yukikurage/faculty-feedback-api/internal/token"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userSetActiveCmd("deactivate", false))
	cmd.AddCommand(userSetActiveCmd("activate", true))
	return cmd
}

func authService(e *env) *services.AuthService {
	tokens := token.NewManager(e.cfg.Auth.JWTSecret, e.cfg.Auth.TokenTTL)
	return services.NewAuthService(repository.NewUserRepository(e.db), tokens, e.logger)
}

func userCreateCmd() *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with any role",
		Long: `Create an account. Staff accounts (faculty_admin, related_unit,
faculty_leadership) can only be created this way.

Example:
  feedbackctl user create --name "IT Office" --email it@example.edu --password s3cret! --role related_unit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := authService(e).CreateUser(cmd.Context(), services.CreateUserInput{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     models.UserRole(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s, %s)\n", user.ID, user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleEndUser), "end_user, faculty_admin, related_unit or faculty_leadership")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func userSetActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [email]",
		Short: fmt.Sprintf("Mark an account as active=%t", active),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := authService(e).SetActive(cmd.Context(), args[0], active)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s is_active=%t\n", user.Email, user.IsActive)
			return nil
		},
	}
}
