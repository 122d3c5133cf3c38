// Package cli provides the command-line interface for openapi-tryit.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/executor"
	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/fetcher"
	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/storage"
	"github.com/GabrielNunesIT/openapi-tryit/internal/config"
	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
	"github.com/GabrielNunesIT/openapi-tryit/internal/specs"
	"github.com/GabrielNunesIT/openapi-tryit/internal/telemetry"
)

// Logger is the subset of the application logger the CLI needs.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// CLI holds the command-line interface configuration.
type CLI struct {
	log     Logger
	rootCmd *cobra.Command

	configPath string
	trace      bool

	cfg     *config.Config
	tp      *telemetry.Provider
	store   domain.SpecStore
	fetcher *fetcher.Fetcher
	specs   *specs.Service
}

// New creates a new CLI instance.
func New(log Logger) *CLI {
	cli := &CLI{
		log: log,
	}

	cli.rootCmd = &cobra.Command{
		Use:   "openapi-tryit",
		Short: "Build and send requests from OpenAPI specifications",
		Long: "A CLI tool that synthesizes ready-to-send HTTP requests from OpenAPI 3.x " +
			"specifications, sends them, and exports request collections.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cli.teardown(cmd.Context())
		},
	}

	cli.rootCmd.PersistentFlags().StringVar(&cli.configPath, "config", "", "Path to the configuration file (default config.yaml when present)")
	cli.rootCmd.PersistentFlags().BoolVar(&cli.trace, "trace", false, "Print trace spans to stderr")

	cli.rootCmd.AddCommand(
		cli.listCommand(),
		cli.requestCommand(),
		cli.exportCommand(),
		cli.fetchCommand(),
		cli.serveCommand(),
	)

	return cli
}

// Execute runs the CLI.
func (c *CLI) Execute() error {
	return c.ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI with ctx.
func (c *CLI) ExecuteContext(ctx context.Context) error {
	return c.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides the command-line arguments, for tests.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output, for tests.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	if c.trace || cfg.Telemetry.Stdout {
		tp, err := telemetry.Setup(cmd.Context(), os.Stderr)
		if err != nil {
			return err
		}
		c.tp = tp
	}

	store, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		return err
	}
	c.store = store

	fetchOpts, err := cfg.FetcherOptions(c.log)
	if err != nil {
		return err
	}
	c.fetcher = fetcher.New(fetchOpts)
	c.specs = specs.NewService(store, c.fetcher, c.log)

	return nil
}

func (c *CLI) teardown(ctx context.Context) error {
	if closer, ok := c.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			c.log.Errorf("failed to close store: %v", err)
		}
	}
	return c.tp.Shutdown(ctx)
}

func (c *CLI) executor() *executor.Executor {
	return executor.New(c.cfg.ExecutorOptions(c.log))
}

// open loads the document named by an -i flag value.
func (c *CLI) open(ctx context.Context, source string) (*domain.OpenAPIDocument, error) {
	c.log.Infof("Loading OpenAPI specification from: %s", source)

	doc, err := c.specs.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI specification: %w", err)
	}

	c.log.Infof("Loaded API: %s (v%s)", doc.Info.Title, doc.Info.Version)
	return doc, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
