// Command labctl runs the label and fulfillment maintenance tools from a shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp/labtrack/internal/bootstrap"
	"github.com/erp/labtrack/internal/infrastructure/config"
	"github.com/erp/labtrack/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the state shared by every subcommand
type app struct {
	sqlitePath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "labctl",
		Short:         "Label and fulfillment maintenance tools",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = logger.Sync(a.log)
			}
		},
	}
	root.PersistentFlags().StringVar(&a.sqlitePath, "sqlite", "", "use a local sqlite database at this path instead of the configured database")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newSweepCmd(a), newDuplicatesCmd(a), newTokenCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if a.sqlitePath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.SQLitePath = a.sqlitePath
	}
	// the server owns tracing; a shell tool never exports spans
	cfg.Telemetry.Enabled = false
	a.cfg = cfg

	// stdout carries the JSON results
	log, err := logger.New(&logger.Config{
		Level:      a.logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
		Service:    "labctl",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log
	return nil
}

// withContainer builds the services, runs fn and releases them
func (a *app) withContainer(ctx context.Context, fn func(c *bootstrap.Container) error) error {
	c, err := bootstrap.New(ctx, a.cfg, a.log)
	defer func() {
		if cerr := c.Close(context.WithoutCancel(ctx)); cerr != nil {
			a.log.Warn("Error releasing resources", zap.Error(cerr))
		}
	}()
	if err != nil {
		return err
	}
	return fn(c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
