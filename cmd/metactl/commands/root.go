// Package commands implements the metactl subcommands: schema migrations,
// API user management and tag maintenance.
package commands

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"metapress/internal/config"
	"metapress/internal/database"
	"metapress/internal/logger"
)

// env holds what every subcommand needs. The database is opened lazily so
// that --help works without one.
type env struct {
	cfg *config.Config
	db  *sql.DB

	// open is replaced in tests, which also set keepOpen because they own
	// the handle.
	open     func(cfg *config.Config) (*sql.DB, error)
	keepOpen bool
}

func (e *env) conn() (*sql.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	db, err := e.open(e.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	e.db = db
	return db, nil
}

func (e *env) close() {
	if e.db != nil && !e.keepOpen {
		e.db.Close()
		e.db = nil
	}
}

// NewRootCmd builds the metactl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&env{open: database.Connect})
}

func newRootCmd(e *env) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "metactl",
		Short: "metapress administration tool",
		Long: `metactl manages a metapress installation.

Connection settings come from the same environment variables as the
server (POSTGRES_HOST, POSTGRES_USER, ...).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			slog.SetDefault(logger.New(cmd.ErrOrStderr(), cfg.Env, level))
			e.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.close()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(newMigrateCmd(e), newUserCmd(e), newTagsCmd(e))
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
