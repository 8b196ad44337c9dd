package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/johestephan/dokemon-api/internal/config"
	"github.com/johestephan/dokemon-api/internal/service"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage user accounts",
		Long:    "Create, list and administer the accounts allowed to use the API, directly against the user database.",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserResetPasswordCmd())
	cmd.AddCommand(newUserActionCmd("promote", "Grant admin rights", (*service.Directory).Promote, "promoted to admin"))
	cmd.AddCommand(newUserActionCmd("demote", "Revoke admin rights", (*service.Directory).Demote, "demoted from admin"))
	cmd.AddCommand(newUserActionCmd("activate", "Re-enable an account", activate, "activated"))
	cmd.AddCommand(newUserActionCmd("deactivate", "Disable an account", deactivate, "deactivated"))
	cmd.AddCommand(newUserActionCmd("delete", "Delete an account", (*service.Directory).Delete, "deleted"))

	return cmd
}

// withDirectory opens the configured store and runs fn against it.
func withDirectory(fn func(ctx context.Context, users *service.Directory) error) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open user store: %w", err)
	}
	defer store.Close()

	users := service.NewDirectory(store, newLogger(io.Discard, cfg.Log))
	return fn(context.Background(), users)
}

// readPassword prompts twice on the terminal without echo.
func readPassword() (string, error) {
	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

// cliError unwraps service errors into the text API clients would see.
func cliError(err error) error {
	if msg := service.Message(err); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return err
}

// ---------- user create ----------

func newUserCreateCmd() *cobra.Command {
	var (
		password string
		email    string
		admin    bool
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a new user",
		Example: `  dokemon user create alice --password secret123
  dokemon user create bob --admin   # prompts for password`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(args[0], password, email, admin)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().BoolVar(&admin, "admin", false, "Create the user as an admin")

	return cmd
}

func runUserCreate(username, password, email string, admin bool) error {
	if password == "" {
		var err error
		if password, err = readPassword(); err != nil {
			return err
		}
	}
	var emailPtr *string
	if email != "" {
		emailPtr = &email
	}

	return withDirectory(func(ctx context.Context, users *service.Directory) error {
		info, err := users.CreateUser(ctx, username, password, emailPtr, admin)
		if err != nil {
			return cliError(err)
		}
		role := "user"
		if info.IsAdmin {
			role = "admin"
		}
		fmt.Printf("Created %s %q\n", role, info.Username)
		return nil
	})
}

// ---------- user list ----------

func newUserListCmd() *cobra.Command {
	var (
		jsonOutput bool
		adminsOnly bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd.OutOrStdout(), jsonOutput, adminsOnly)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&adminsOnly, "admins", false, "Only list admins")

	return cmd
}

func runUserList(w io.Writer, jsonOutput, adminsOnly bool) error {
	return withDirectory(func(ctx context.Context, users *service.Directory) error {
		list, err := users.ListUsers(ctx, adminsOnly)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}

		if len(list) == 0 {
			fmt.Fprintln(w, "No users found. Use 'dokemon user create' to create one.")
			return nil
		}

		fmt.Fprintf(w, "%-24s %-30s %-6s %-6s %s\n", "USERNAME", "EMAIL", "ADMIN", "ACTIVE", "LAST LOGIN")
		for _, u := range list {
			email, lastLogin := "-", "never"
			if u.Email != nil {
				email = *u.Email
			}
			if u.LastLogin != nil {
				lastLogin = u.LastLogin.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%-24s %-30s %-6s %-6s %s\n", u.Username, email, yesNo(u.IsAdmin), yesNo(u.Active), lastLogin)
		}
		return nil
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ---------- user reset-password ----------

func newUserResetPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <username>",
		Short: "Set a new password for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(); err != nil {
					return err
				}
			}
			return withDirectory(func(ctx context.Context, users *service.Directory) error {
				if err := users.ResetPassword(ctx, args[0], password); err != nil {
					return cliError(err)
				}
				fmt.Printf("Password reset for %q\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")

	return cmd
}

// ---------- promote / demote / activate / deactivate / delete ----------

type userAction func(d *service.Directory, ctx context.Context, username string) error

func activate(d *service.Directory, ctx context.Context, username string) error {
	return d.SetActive(ctx, username, true)
}

func deactivate(d *service.Directory, ctx context.Context, username string) error {
	return d.SetActive(ctx, username, false)
}

func newUserActionCmd(use, short string, action userAction, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDirectory(func(ctx context.Context, users *service.Directory) error {
				if err := action(users, ctx, args[0]); err != nil {
					if errors.Is(err, config.ErrLastAdmin) {
						return fmt.Errorf("cannot %s the last admin user", use)
					}
					return cliError(err)
				}
				fmt.Printf("User %q %s\n", args[0], done)
				return nil
			})
		},
	}
}
