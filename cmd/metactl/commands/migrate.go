package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"metapress/internal/database"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Manage the database schema.

Subcommands:
  up       - Apply pending migrations
  down     - Roll back the most recent migration
  version  - Print the current schema version`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := e.conn()
				if err != nil {
					return err
				}
				if err := database.Migrate(db); err != nil {
					return err
				}
				return printVersion(cmd, e)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := e.conn()
				if err != nil {
					return err
				}
				if err := database.Rollback(db); err != nil {
					return err
				}
				return printVersion(cmd, e)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return printVersion(cmd, e)
			},
		},
	)
	return cmd
}

func printVersion(cmd *cobra.Command, e *env) error {
	db, err := e.conn()
	if err != nil {
		return err
	}
	v, err := database.Version(db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", v)
	return nil
}
