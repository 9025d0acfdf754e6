package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ryzeagent/adsmcp/internal/userstore"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage stored user accounts",
		Long: `Inspect and manage the accounts persisted in the local user database.
Each row holds the OAuth tokens and default customer id for one Google
identity.`,
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersDeleteCmd())
	return cmd
}

// openUserStore opens the SQLite user database, runs migrations and returns
// the store plus a close function.
func openUserStore(dbPath string, logger *slog.Logger) (*userstore.Store, func() error, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := userstore.NewDB(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open user database: %w", err)
	}
	if err := userstore.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return userstore.NewStore(db, logger), db.Close, nil
}

func newUsersListCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored users",
		RunE: func(cmd *cobra.Command, args []string) error {
			envFallback(cmd, "db-path", &dbPath, "ADSMCP_DB_PATH")

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			store, closeStore, err := openUserStore(dbPath, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			users, err := store.List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			if len(users) == 0 {
				fmt.Println("No stored users.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER ID\tEMAIL\tDEFAULT ACCOUNT\tUPDATED")
			for _, u := range users {
				defaultAccount := u.DefaultCustomerID
				if defaultAccount == "" {
					defaultAccount = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					u.ID, u.Email, defaultAccount, u.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dbPath, "db-path", defaultDBPath(), "Path to the SQLite user token database. Can also use ADSMCP_DB_PATH env var.")
	return cmd
}

func newUsersDeleteCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a stored user and their tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envFallback(cmd, "db-path", &dbPath, "ADSMCP_DB_PATH")
			userID := args[0]

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			store, closeStore, err := openUserStore(dbPath, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			deleted, err := store.Delete(context.Background(), userID)
			if err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
			if !deleted {
				fmt.Printf("User %s not found.\n", userID)
				return nil
			}
			fmt.Printf("Deleted user %s.\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db-path", defaultDBPath(), "Path to the SQLite user token database. Can also use ADSMCP_DB_PATH env var.")
	return cmd
}
