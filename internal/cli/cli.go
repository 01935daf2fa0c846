package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/scoutteam/internal/catalog"
	"github.com/pfrederiksen/scoutteam/internal/config"
	"github.com/pfrederiksen/scoutteam/internal/extractor"
	"github.com/pfrederiksen/scoutteam/internal/logger"
	"github.com/pfrederiksen/scoutteam/internal/metrics"
	"github.com/pfrederiksen/scoutteam/internal/pipeline"
	"github.com/pfrederiksen/scoutteam/internal/scraper"
)

const (
	ExitSuccess          = 0
	ExitError            = 1
	ExitExtractionFailed = 2
)

// app holds the settings and components shared by every command
type app struct {
	cfg     config.Config
	loadErr error
	format  string
	verbose bool

	log      *logger.Logger
	metrics  *metrics.Metrics
	catalog  *catalog.Catalog
	pipeline *pipeline.Pipeline
	exitCode int

	// completer overrides the Anthropic client; tests set it
	completer extractor.Completer
}

// NewRootCmd creates the root command. Settings come from .env and the environment and
// can be overridden by flags.
func NewRootCmd() *cobra.Command {
	return newRootCmd(loadApp())
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scoutteam",
		Short: "Extract structured athlete data from university roster pages",
		Long: `scoutteam resolves a university and/or sport to known roster pages, scrapes the
player list from each page and asks a language model to turn the markup into structured
athlete records.

Without a subcommand it starts the HTTP API.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
		RunE:              a.runServe,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "Log level: debug, info, warn or error (env: "+config.EnvLogLevel+")")
	pf.StringVar(&a.cfg.LogFile, "log-file", a.cfg.LogFile, "Rotating log file, empty for stderr only (env: "+config.EnvLogFile+")")
	pf.StringVar(&a.cfg.CatalogPath, "catalog", a.cfg.CatalogPath, "Roster catalog YAML file, built-in catalog if empty (env: "+config.EnvCatalog+")")
	pf.StringVar(&a.cfg.Model, "model", a.cfg.Model, "Model used for extraction (env: "+config.EnvModel+")")
	pf.IntVar(&a.cfg.MaxTokens, "max-tokens", a.cfg.MaxTokens, "Maximum reply length of the model")
	pf.DurationVar(&a.cfg.ModelTimeout, "model-timeout", a.cfg.ModelTimeout, "Timeout for the model call")
	pf.DurationVar(&a.cfg.FetchTimeout, "fetch-timeout", a.cfg.FetchTimeout, "Timeout for each roster page request")
	pf.IntVar(&a.cfg.Concurrency, "concurrency", a.cfg.Concurrency, "Roster pages fetched at once")
	pf.StringVar(&a.cfg.UserAgent, "user-agent", a.cfg.UserAgent, "User-Agent sent to roster sites (env: "+config.EnvUserAgent+")")
	pf.StringVar(&a.format, "format", string(FormatText), "Output format: text or json")
	pf.BoolVar(&a.verbose, "verbose", false, "Show per-page and per-athlete detail")

	cmd.Flags().StringVar(&a.cfg.Addr, "addr", a.cfg.Addr, "HTTP listen address (env: "+config.EnvAddr+")")

	cmd.AddCommand(
		newServeCmd(a),
		newMCPCmd(a),
		newResolveCmd(a),
		newScrapeCmd(a),
		newExtractCmd(a),
		newCatalogCmd(a),
	)
	return cmd
}

// setup validates the configuration and builds the pipeline before any command runs
func loadApp() *app {
	cfg, err := config.Load()
	return &app{cfg: cfg, loadErr: err}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.loadErr != nil {
		return a.loadErr
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	format := OutputFormat(strings.ToLower(a.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", a.format)
	}
	a.format = string(format)

	a.log = logger.NewConsoleAndFile(a.cfg.Level(), logger.DefaultFileOptions(a.cfg.LogFile))
	logger.SetDefault(a.log)

	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}
	a.catalog = cat
	a.metrics = metrics.New()

	sc := scraper.New(
		scraper.WithTimeout(a.cfg.FetchTimeout),
		scraper.WithUserAgent(a.cfg.UserAgent),
		scraper.WithConcurrency(a.cfg.Concurrency),
		scraper.WithLogger(a.log),
		scraper.WithMetrics(a.metrics),
	)

	completer := a.completer
	if completer == nil {
		completer = extractor.NewAnthropic(a.cfg.APIKey, option.WithRequestTimeout(a.cfg.ModelTimeout))
	}
	ex := extractor.New(completer,
		extractor.WithModel(a.cfg.Model),
		extractor.WithMaxTokens(a.cfg.MaxTokens),
		extractor.WithLogger(a.log),
		extractor.WithMetrics(a.metrics),
	)

	a.pipeline = pipeline.New(cat, sc, ex,
		pipeline.WithLogger(a.log),
		pipeline.WithMetrics(a.metrics),
	)

	a.log.Debug("Configuration loaded", logger.Fields{
		"command":     cmd.Name(),
		"model":       a.cfg.Model,
		"catalog":     a.cfg.CatalogPath,
		"rosters":     cat.Len(),
		"concurrency": a.cfg.Concurrency,
		"api_key_set": a.cfg.APIKey != "",
	})
	return nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	if a.cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(a.cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat, nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) {
	if a.log != nil {
		_ = a.log.Close()
	}
}

// Run executes the CLI with args and returns the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return run(ctx, loadApp(), args, stdout, stderr)
}

func run(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return ExitSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return a.exitCode
}

// Execute runs the CLI against the process arguments and exits
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
