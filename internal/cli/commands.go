package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/scoutteam/internal/api"
	"github.com/pfrederiksen/scoutteam/internal/config"
	"github.com/pfrederiksen/scoutteam/internal/logger"
	"github.com/pfrederiksen/scoutteam/internal/mcp"
	"github.com/pfrederiksen/scoutteam/internal/pipeline"
	"github.com/pfrederiksen/scoutteam/internal/resolver"
	"github.com/pfrederiksen/scoutteam/internal/roster"
)

// queryFlags adds --university and --sport to cmd
func queryFlags(cmd *cobra.Command, q *resolver.Query) {
	cmd.Flags().StringSliceVarP(&q.Universities, "university", "u", nil, "University name or fragment (repeatable)")
	cmd.Flags().StringSliceVarP(&q.Sports, "sport", "s", nil, "Sport name (repeatable)")
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on --addr.

POST /api/athletes with {"university": [...], "sport": [...]} runs the whole pipeline.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
	cmd.Flags().StringVar(&a.cfg.Addr, "addr", a.cfg.Addr, "HTTP listen address (env: "+config.EnvAddr+")")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	if err := a.cfg.RequireAPIKey(); err != nil {
		return err
	}
	srv := api.New(a.pipeline, api.WithLogger(a.log), api.WithMetrics(a.metrics))
	return srv.ListenAndServe(cmd.Context(), a.cfg.Addr)
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the roster tools over stdio (Model Context Protocol)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireAPIKey(); err != nil {
				a.log.Warn("extract_athletes will fail until the API key is set", logger.Fields{"error": err.Error()})
			}
			return mcp.New(a.pipeline, a.log).ServeStdio(cmd.Context())
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	var q resolver.Query
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "List the roster pages matching a university and/or sport",
		Example: `  scoutteam resolve --university eastern
  scoutteam resolve --sport basketball --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := a.pipeline.Resolve(q)
			if err != nil {
				return err
			}
			return WriteURLs(cmd.OutOrStdout(), q.Normalize(), urls, OutputFormat(a.format))
		},
	}
	queryFlags(cmd, &q)
	return cmd
}

func newScrapeCmd(a *app) *cobra.Command {
	var q resolver.Query
	cmd := &cobra.Command{
		Use:   "scrape [url...]",
		Short: "Fetch the player list markup of roster pages",
		Long: `Fetch roster pages and print the markup of every player entry.

Pages are given as arguments or resolved from --university/--sport. Only pages in the
catalog are fetched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if len(urls) == 0 {
				resolved, err := a.pipeline.Resolve(q)
				if err != nil {
					return err
				}
				if len(resolved) == 0 {
					return pipeline.ErrNoRosters
				}
				urls = resolved
			}

			frags, err := a.pipeline.Scrape(cmd.Context(), urls)
			if err != nil {
				return err
			}
			if len(roster.Successful(frags)) == 0 {
				a.exitCode = ExitExtractionFailed
			}
			return WriteFragments(cmd.OutOrStdout(), frags, OutputFormat(a.format))
		},
	}
	queryFlags(cmd, &q)
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	var (
		q       resolver.Query
		sortArg string
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract structured athletes for a university and/or sport",
		Example: `  scoutteam extract --university "ottawa" --sport basketball
  scoutteam extract --sport baseball --sort number --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order := SortOrder(strings.ToLower(sortArg))
			if !order.Valid() {
				return fmt.Errorf("invalid sort order: %s (must be 'name', 'number', 'position' or empty)", sortArg)
			}
			if err := a.cfg.RequireAPIKey(); err != nil && a.completer == nil {
				return err
			}

			res, err := a.pipeline.Run(cmd.Context(), q)
			if errors.Is(err, resolver.ErrAmbiguous) {
				return fmt.Errorf("%w (use --university and/or --sport)", err)
			}
			if err != nil {
				return err
			}

			if !res.Extraction.OK {
				a.exitCode = ExitExtractionFailed
			}
			sortAthletes(res.Extraction.Athletes, order)

			out := &OutputResult{
				CheckedAt:    time.Now().UTC(),
				RunID:        res.RunID,
				University:   res.Query.Universities,
				Sport:        res.Query.Sports,
				URLs:         res.URLs,
				Success:      res.Extraction.OK,
				Athletes:     res.Extraction.Athletes,
				AthleteCount: len(res.Extraction.Athletes),
				Error:        res.Extraction.Reason,
			}
			if a.verbose {
				out.Fragments = res.Fragments
				out.RawReply = res.Extraction.RawReply
			}
			return WriteOutput(cmd.OutOrStdout(), out, OutputFormat(a.format), a.verbose)
		},
	}
	queryFlags(cmd, &q)
	cmd.Flags().StringVar(&sortArg, "sort", "", "Sort athletes by: name, number or position (default: page order)")
	return cmd
}

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List every known roster page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return WriteCatalog(cmd.OutOrStdout(), a.catalog.Entries(), OutputFormat(a.format))
		},
	}
}
