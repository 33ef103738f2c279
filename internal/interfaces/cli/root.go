package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/riskibarqy/matchday-sync/internal/app"
	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

var cliTracer = otel.Tracer("matchday-sync/internal/interfaces/cli")

type rootOptions struct {
	envFile  string
	logLevel string
}

type command struct {
	opts   rootOptions
	out    io.Writer
	newApp func(ctx context.Context, cfg config.Config, logger *logging.Logger) (*app.App, error)
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	root := NewRootCommand(out)
	root.SetArgs(args)
	root.SetErr(errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 1
	}
	return 0
}

func NewRootCommand(out io.Writer) *cobra.Command {
	c := &command{out: out, newApp: app.New}
	return c.root()
}

func (c *command) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "matchday",
		Short:         "Sync sports fixtures into Airtable",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)
	root.PersistentFlags().StringVar(&c.opts.envFile, "env-file", "", "dotenv file to load before reading the environment (default ./.env when present)")
	root.PersistentFlags().StringVar(&c.opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	root.AddCommand(c.syncCommand(), c.sourcesCommand(), c.runsCommand())
	return root
}

// loadConfig reads the dotenv file and environment, then applies flag overrides.
func (c *command) loadConfig() (config.Config, *logging.Logger, error) {
	if err := config.LoadDotEnv(c.opts.envFile); err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if level := strings.TrimSpace(c.opts.logLevel); level != "" {
		cfg.LogLevel, err = logging.ParseLevel(level)
		if err != nil {
			return config.Config{}, nil, err
		}
	}

	logger := logging.New(cfg.LogFormat, cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logging.SetDefault(logger)
	return cfg, logger, nil
}
