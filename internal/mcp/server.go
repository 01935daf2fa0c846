// Package mcp exposes the roster pipeline as Model Context Protocol tools over stdio.
//
// Tools:
//
//	get_Athlete        scrape a list of roster URLs and return the raw fragments
//	resolve_rosters    map university/sport filters to catalog URLs
//	extract_athletes   run the whole pipeline and return structured athletes
//
// The catalog itself is published as the roster://catalog resource. Handler failures are
// reported as IsError tool results, never as protocol errors.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/pfrederiksen/scoutteam/internal/catalog"
	"github.com/pfrederiksen/scoutteam/internal/logger"
	"github.com/pfrederiksen/scoutteam/internal/pipeline"
	"github.com/pfrederiksen/scoutteam/internal/resolver"
)

const (
	serverName    = "ScoutTeam"
	serverVersion = "1.0.0"

	catalogURI = "roster://catalog"
)

// Runner is the part of the pipeline the tools call into
type Runner interface {
	Resolve(q resolver.Query) ([]string, error)
	Fetch(ctx context.Context, urls []string) (string, error)
	Run(ctx context.Context, q resolver.Query) (*pipeline.Result, error)
	Catalog() *catalog.Catalog
}

// Server wraps an MCP server bound to one pipeline
type Server struct {
	mcp    *mcpsrv.MCPServer
	runner Runner
	log    *logger.Logger
}

// New creates a Server with every tool and resource registered
func New(r Runner, l *logger.Logger) *Server {
	if l == nil {
		l = logger.Default()
	}
	s := &Server{
		runner: r,
		log:    l,
	}

	s.mcp = mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithToolCapabilities(true),
		mcpsrv.WithResourceCapabilities(true, false),
		mcpsrv.WithRecovery(),
		mcpsrv.WithInstructions(instructions(r.Catalog())),
	)
	for _, t := range s.tools() {
		s.mcp.AddTool(t.Tool, t.Handler)
	}
	s.mcp.AddResource(
		mcplib.NewResource(
			catalogURI,
			"Roster catalog",
			mcplib.WithResourceDescription("Every known university roster page, by university and sport."),
			mcplib.WithMIMEType("application/json"),
		),
		s.readCatalog,
	)
	return s
}

func instructions(cat *catalog.Catalog) string {
	return fmt.Sprintf(`You are connected to a university athletics roster server.

It knows %d roster pages for: %v.

Use resolve_rosters to find roster URLs for a university and/or sport, get_Athlete to fetch
the raw player markup for those URLs, or extract_athletes to get structured athlete records
in one call. Only URLs listed in the roster://catalog resource can be fetched.
`, cat.Len(), cat.Universities())
}

// ServeStdio runs the server over stdin/stdout until ctx is cancelled or stdin closes
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve runs the server over an arbitrary stream pair
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.log.Info("MCP server listening on stdio", logger.Fields{"tools": len(s.tools())})
	if err := srv.Listen(ctx, in, out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		s.toolGetAthlete(),
		s.toolResolveRosters(),
		s.toolExtractAthletes(),
	}
}

func (s *Server) readCatalog(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(s.runner.Catalog().Entries(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      catalogURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// resultText wraps text in a successful CallToolResult.
func resultText(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}

// resultErr wraps an error in a CallToolResult with IsError=true.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// resultJSON serialises v as indented JSON text.
func resultJSON(v any, isError bool) *mcplib.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return resultErr(fmt.Errorf("encoding result: %w", err))
	}
	r := resultText(string(data))
	r.IsError = isError
	return r
}

// queryArgs reads the optional university and sport lists
func queryArgs(req mcplib.CallToolRequest) resolver.Query {
	return resolver.Query{
		Universities: req.GetStringSlice("university", nil),
		Sports:       req.GetStringSlice("sport", nil),
	}
}
