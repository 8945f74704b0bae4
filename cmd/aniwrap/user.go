package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/amaumene/aniwrap/internal/models"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users whose snapshots are refreshed",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <provider> <username>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := models.ParseProvider(args[0])
			if err != nil {
				return err
			}
			return withDatabase(cmd, func(db *models.Database) error {
				user, err := db.CreateUser(provider, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s user %s (%s)\n", user.Provider, user.Username, user.ID)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(db *models.Database) error {
				users, err := db.GetAllUsers()
				if err != nil {
					return err
				}
				return printUsers(cmd.OutOrStdout(), users)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a user and their snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(db *models.Database) error {
				if err := db.DeleteUser(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed user %s\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

// withDatabase opens the configured store for the duration of fn
func withDatabase(cmd *cobra.Command, fn func(db *models.Database) error) error {
	cfg, _, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	return fn(db)
}

func printUsers(out io.Writer, users []*models.User) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tUSERNAME\tLAST REFRESH")
	for _, user := range users {
		refreshed := "never"
		if user.LastRefreshedAt != nil {
			refreshed = user.LastRefreshedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", user.ID, user.Provider, user.Username, refreshed)
	}
	return w.Flush()
}
