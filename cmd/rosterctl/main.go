// Command rosterctl runs employee imports, exports and maintenance tasks
// against the roster database from a terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/config"
	"github.com/BradenHooton/roster/internal/database"
	"github.com/spf13/cobra"
)

// globalOptions are shared by every subcommand
type globalOptions struct {
	logLevel    string
	catalogPath string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "rosterctl",
		Short:         "Import, filter and export employee records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", os.Getenv("FIELD_CATALOG_PATH"), "Field catalog YAML (default: embedded catalog)")

	cmd.AddCommand(
		newImportCmd(opts),
		newTemplateCmd(opts),
		newFilterCmd(opts),
		newExportCmd(opts),
		newMigrateCmd(opts),
		newTokenCmd(),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// logger writes to stderr so command output stays machine readable
func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(o.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *globalOptions) catalog() (*catalog.Catalog, error) {
	return catalog.Load(o.catalogPath)
}

// openDB connects using the DB_* environment. Migrations are never applied
// implicitly; use the migrate command.
func (o *globalOptions) openDB(ctx context.Context, logger *slog.Logger) (*database.DB, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}
	cfg.AutoMigrate = false
	cfg.MinConns = 0
	return database.NewConnection(ctx, cfg, logger)
}
