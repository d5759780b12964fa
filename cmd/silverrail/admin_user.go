package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"silverrail/internal/api"
	internalauth "silverrail/internal/auth"
	"silverrail/internal/config"
	"silverrail/internal/models"
)

func newAdminUserCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newAdminUserAddCmd(cfg, jsonOutput))
	cmd.AddCommand(newAdminUserListCmd(cfg, jsonOutput))
	cmd.AddCommand(newAdminUserSetDisabledCmd(cfg, jsonOutput, "disable", "Disable one user", true))
	cmd.AddCommand(newAdminUserSetDisabledCmd(cfg, jsonOutput, "enable", "Enable one user", false))
	cmd.AddCommand(newAdminUserDeleteCmd(cfg, jsonOutput))
	return cmd
}

func newAdminUserAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		passwordStdin bool
		admin         bool
		email         string
	)

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create one user account",
		Args:  requireExactlyArgs(1, "username is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !passwordStdin {
				return fmt.Errorf("--password-stdin is required")
			}

			username, err := internalauth.NormalizeUsername(args[0])
			if err != nil {
				return err
			}

			passwordBytes, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			password := strings.TrimSpace(string(passwordBytes))
			if err := internalauth.ValidatePassword(password); err != nil {
				return err
			}

			role := models.RoleUser
			if admin {
				role = models.RoleAdmin
			}

			return withClient(cfg, func(client *api.Client) error {
				created, err := client.AdminUserAdd(cmd.Context(), api.AdminCreateUserRequest{
					Username: username,
					Email:    strings.TrimSpace(email),
					Password: password,
					Role:     role,
				})
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(created)
				}
				return writePlain("created %s user %s (%s)\n", created.Role, created.Username, created.ID)
			})
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read password from stdin")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	cmd.Flags().StringVar(&email, "email", "", "optional email address")
	return cmd
}

func newAdminUserListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				users, err := client.AdminUserList(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"count": len(users), "users": users})
				}
				if len(users) == 0 {
					return writePlain("no users\n")
				}
				rows := make([][]string, 0, len(users))
				for _, user := range users {
					status := "enabled"
					if user.Disabled {
						status = "disabled"
					}
					rows = append(rows, []string{user.Username, user.Role, status, orDash(user.Email), user.ID})
				}
				return writeTable([]string{"USERNAME", "ROLE", "STATUS", "EMAIL", "ID"}, rows)
			})
		},
	}
}

func newAdminUserSetDisabledCmd(cfg *config.Config, jsonOutput *bool, name, short string, disabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <username>",
		Short: short,
		Args:  requireExactlyArgs(1, "username is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := internalauth.NormalizeUsername(args[0])
			if err != nil {
				return err
			}

			return withClient(cfg, func(client *api.Client) error {
				updated, err := client.AdminUserSetDisabled(cmd.Context(), username, disabled)
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(updated)
				}

				action := "enabled"
				if disabled {
					action = "disabled"
				}
				return writePlain("%s user %s\n", action, updated.Username)
			})
		},
	}
}

func newAdminUserDeleteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <username>",
		Aliases: []string{"rm"},
		Short:   "Delete one user account and its sessions",
		Args:    requireExactlyArgs(1, "username is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := internalauth.NormalizeUsername(args[0])
			if err != nil {
				return err
			}

			return withClient(cfg, func(client *api.Client) error {
				if err := client.AdminUserDelete(cmd.Context(), username); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"username": username, "deleted": true})
				}
				return writePlain("deleted user %s\n", username)
			})
		},
	}
	return cmd
}
