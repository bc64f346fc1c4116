package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/store"
	"github.com/spf13/cobra"
)

func newRootCmd(log *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "todoctl",
		Short:         "Administration commands for the todohub store",
		Long:          `todoctl runs against the database configured by the same environment as the API server (DB_DRIVER, DATABASE_URL, SQLITE_PATH).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create any missing tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer st.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", st.Driver)
			return nil
		},
	}

	var email, fullName string
	createUserCmd := &cobra.Command{
		Use:   "create-user <username> <password>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := accounts.NewService(st.Users, log)
			err = svc.Register(cmd.Context(), user.RegisterRequest{
				Username: args[0],
				Email:    email,
				Password: args[1],
				FullName: fullName,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "user %s created\n", args[0])
			return nil
		},
	}
	createUserCmd.Flags().StringVar(&email, "email", "", "email address (required)")
	createUserCmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	_ = createUserCmd.MarkFlagRequired("email")

	setPasswordCmd := &cobra.Command{
		Use:   "set-password <email> <new-password>",
		Short: "Replace a user's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := accounts.NewService(st.Users, log)
			if err := svc.SetPasswordByEmail(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
			return nil
		},
	}

	root.AddCommand(migrateCmd, createUserCmd, setPasswordCmd)
	return root
}

// openStore connects with the server's settings; opening also applies the schema.
func openStore(ctx context.Context, log *slog.Logger) (*store.Store, error) {
	cfg := config.Load()

	switch cfg.DBDriver {
	case config.DriverPostgres, config.DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.DBConnectAttempts <= 0 {
		cfg.DBConnectAttempts = 1
	}

	return store.Open(ctx, cfg, nil, log)
}

func run(args []string, stdout, stderr io.Writer) int {
	log := observability.NewLogger(os.Getenv("APP_ENV"))

	root := newRootCmd(log)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
