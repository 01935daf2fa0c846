package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/pfrederiksen/scoutteam/internal/logger"
	"github.com/pfrederiksen/scoutteam/internal/pipeline"
	"github.com/pfrederiksen/scoutteam/internal/resolver"
)

// ─── get_Athlete ──────────────────────────────────────────────────────────────

func (s *Server) toolGetAthlete() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_Athlete",
		mcplib.WithDescription(`Fetch the player list markup of one or more university roster pages.

Returns the HTML of every player entry found on each page. Pages are separated by a
line containing only "---"; a page that could not be fetched or has no player list
is replaced by an error message in its slot.`),
		mcplib.WithArray("list",
			mcplib.Description("Roster page URLs, as returned by resolve_rosters."),
			mcplib.Required(),
			mcplib.WithStringItems(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetAthlete}
}

func (s *Server) handleGetAthlete(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	urls := req.GetStringSlice("list", nil)
	s.log.Info("mcp: get_Athlete", logger.Fields{"urls": len(urls)})

	// the guidance text for an empty or ambiguous list is a normal answer
	blob, err := s.runner.Fetch(ctx, urls)
	if err != nil && !errors.Is(err, resolver.ErrAmbiguous) {
		return resultErr(fmt.Errorf("get_Athlete: %w", err)), nil
	}
	return resultText(blob), nil
}

// ─── resolve_rosters ──────────────────────────────────────────────────────────

func (s *Server) toolResolveRosters() mcpsrv.ServerTool {
	tool := mcplib.NewTool("resolve_rosters",
		mcplib.WithDescription(`Find the roster page URLs for a university and/or sport.

University names match by case-insensitive substring ("eastern" finds "eastern kentucky").
At least one filter is required. Returns one URL per line.`),
		mcplib.WithArray("university",
			mcplib.Description("University names or fragments of them."),
			mcplib.WithStringItems(),
		),
		mcplib.WithArray("sport",
			mcplib.Description(`Sport names, e.g. "basketball" or "baseball".`),
			mcplib.WithStringItems(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleResolveRosters}
}

func (s *Server) handleResolveRosters(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	q := queryArgs(req)
	urls, err := s.runner.Resolve(q)
	if err != nil {
		return resultText(err.Error()), nil
	}
	if len(urls) == 0 {
		return resultText(pipeline.ErrNoRosters.Error()), nil
	}
	return resultText(strings.Join(urls, "\n")), nil
}

// ─── extract_athletes ─────────────────────────────────────────────────────────

func (s *Server) toolExtractAthletes() mcpsrv.ServerTool {
	tool := mcplib.NewTool("extract_athletes",
		mcplib.WithDescription(`Get structured athlete records for a university and/or sport.

Resolves the filters to roster pages, scrapes them and extracts every player with name,
number, position, year, hometown, high school, previous school and image URL. Returns
the JSON result including which pages were processed.`),
		mcplib.WithArray("university",
			mcplib.Description("University names or fragments of them."),
			mcplib.WithStringItems(),
		),
		mcplib.WithArray("sport",
			mcplib.Description(`Sport names, e.g. "basketball" or "baseball".`),
			mcplib.WithStringItems(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleExtractAthletes}
}

func (s *Server) handleExtractAthletes(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	q := queryArgs(req)
	s.log.Info("mcp: extract_athletes", logger.Fields{"university": q.Universities, "sport": q.Sports})

	res, err := s.runner.Run(ctx, q)
	if err != nil {
		return resultErr(fmt.Errorf("extract_athletes: %w", err)), nil
	}
	return resultJSON(res, !res.Extraction.OK), nil
}
