// Package cli implements the command-line interface for scoutteam.
//
// The cli package provides the Cobra-based CLI: serve (the HTTP API, also the default),
// mcp (stdio tool server), and the one-shot resolve, scrape, extract and catalog commands
// with text or JSON output. It loads configuration, builds the logger, catalog, scraper,
// extractor and pipeline once, and hands the pipeline to whichever transport runs.
package cli
