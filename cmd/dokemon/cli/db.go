package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/johestephan/dokemon-api/internal/service"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "Manage the user database",
		Long:    "Create the user database schema and check its contents.",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBVerifyCmd())

	return cmd
}

// ---------- db init ----------

func newDBInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the schema and the default admin account",
		Long: `Create the users, settings and revoked_sessions tables if they do not exist, then create
the "admin" account with auth.default_admin_password when no admin exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit()
		},
	}
}

func runDBInit() error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open user store: %w", err)
	}
	defer store.Close()

	fmt.Printf("Database schema ready (%s)\n", store.Dialect())

	users := service.NewDirectory(store, newLogger(io.Discard, cfg.Log))
	created, err := users.BootstrapDefaultAdmin(context.Background(), cfg.Auth.DefaultAdminPassword)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Created default admin user %q\n", service.DefaultAdminUsername)
		fmt.Println("  Change its password after the first login.")
	} else {
		fmt.Println("Admin user already exists")
	}
	return nil
}

// ---------- db verify ----------

func newDBVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check connectivity and print table row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBVerify()
		},
	}
}

func runDBVerify() error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open user store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	counts, err := store.TableCounts(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Database OK (%s)\n", store.Dialect())
	fmt.Printf("%-16s %s\n", "TABLE", "ROWS")
	for _, name := range names {
		fmt.Printf("%-16s %d\n", name, counts[name])
	}
	return nil
}
