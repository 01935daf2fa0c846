// Package pipeline wires the catalog, scraper and extractor into the single entry point
// every transport calls: resolve the query, scrape the matching roster pages, and extract
// athletes from the markup that came back.
//
// Each call is independent. Runs share no state besides the read-only catalog, and each
// one gets its own run ID for log correlation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/scoutteam/internal/catalog"
	"github.com/pfrederiksen/scoutteam/internal/extractor"
	"github.com/pfrederiksen/scoutteam/internal/logger"
	"github.com/pfrederiksen/scoutteam/internal/metrics"
	"github.com/pfrederiksen/scoutteam/internal/resolver"
	"github.com/pfrederiksen/scoutteam/internal/roster"
)

// Guidance is returned to tool callers that asked for nothing specific
const Guidance = "Unable to fetch roster: Please specify a university or sport"

// ErrNoRosters is returned when a query is well formed but matches no catalog entry
var ErrNoRosters = errors.New("no roster pages match the query")

// Scraper fetches roster pages, one fragment per URL in input order
type Scraper interface {
	Scrape(ctx context.Context, urls []string) []roster.Fragment
}

// Extractor turns combined roster markup into athletes
type Extractor interface {
	Extract(ctx context.Context, combinedMarkup string) extractor.Result
}

// Result is everything one run produced
type Result struct {
	RunID      string            `json:"run_id"`
	Query      resolver.Query    `json:"query"`
	URLs       []string          `json:"urls_processed"`
	Fragments  []roster.Fragment `json:"fragments"`
	Extraction extractor.Result  `json:"extraction"`
}

// Pipeline runs queries against one catalog
type Pipeline struct {
	catalog   *catalog.Catalog
	scraper   Scraper
	extractor Extractor
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics records rejected URLs and skipped extractions on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a Pipeline
func New(cat *catalog.Catalog, sc Scraper, ex Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		catalog:   cat,
		scraper:   sc,
		extractor: ex,
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog returns the catalog the pipeline resolves against
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

// Resolve maps q to catalog URLs
func (p *Pipeline) Resolve(q resolver.Query) ([]string, error) {
	return resolver.Resolve(p.catalog, q)
}

// Fetch scrapes the given URLs and renders every fragment into one blob.
//
// An empty list, or a list that starts with the ambiguity sentinel, returns Guidance together
// with resolver.ErrAmbiguous. URLs outside the catalog are never requested; each one gets
// an error fragment in its slot instead.
func (p *Pipeline) Fetch(ctx context.Context, urls []string) (string, error) {
	urls = cleanURLs(urls)
	if len(urls) == 0 || urls[0] == resolver.ErrAmbiguous.Error() {
		return Guidance, resolver.ErrAmbiguous
	}

	frags, err := p.Scrape(ctx, urls)
	if err != nil {
		return "", err
	}
	return roster.Render(frags), nil
}

// Scrape returns one fragment per URL, in input order. URLs outside the catalog are
// rejected without a request. The error is non-nil only when ctx ended.
func (p *Pipeline) Scrape(ctx context.Context, urls []string) ([]roster.Fragment, error) {
	runID := uuid.NewString()
	p.log.Info("Fetching rosters", logger.Fields{"run_id": runID, "urls": len(urls)})

	frags := p.scrapeKnown(ctx, runID, urls)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetching rosters: %w", err)
	}
	return frags, nil
}

// scrapeKnown scrapes the catalog URLs in one batch and fills the remaining slots with
// rejection fragments, keeping input order
func (p *Pipeline) scrapeKnown(ctx context.Context, runID string, urls []string) []roster.Fragment {
	frags := make([]roster.Fragment, len(urls))
	known := make([]string, 0, len(urls))
	slots := make([]int, 0, len(urls))

	for i, u := range urls {
		if !p.catalog.Has(u) {
			p.log.Warn("Rejected URL outside the catalog", logger.Fields{"run_id": runID, "url": u})
			p.metrics.ObserveFragment(metrics.FragmentRejected, 0)
			frags[i] = roster.FailedFragment(u, "URL is not a known roster page: %s", u)
			continue
		}
		known = append(known, u)
		slots = append(slots, i)
	}

	if len(known) > 0 {
		for j, f := range p.scraper.Scrape(ctx, known) {
			frags[slots[j]] = f
		}
	}
	return frags
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// Run resolves q, scrapes every matching roster page and extracts the athletes.
//
// resolver.ErrAmbiguous and ErrNoRosters are returned before any network call. Scrape and
// extraction failures are reported inside the Result, not as errors.
func (p *Pipeline) Run(ctx context.Context, q resolver.Query) (*Result, error) {
	q = q.Normalize()
	runID := uuid.NewString()
	fields := logger.Fields{
		"run_id":     runID,
		"university": q.Universities,
		"sport":      q.Sports,
	}

	urls, err := p.Resolve(q)
	if err != nil {
		p.log.Info("Query rejected", logger.Fields{"run_id": runID, "reason": err.Error()})
		return nil, err
	}
	if len(urls) == 0 {
		p.log.Info("Query matched no rosters", fields)
		return nil, ErrNoRosters
	}

	start := time.Now()
	p.log.Info("Processing roster request", logger.Fields{"run_id": runID, "urls": urls})

	frags := p.scrapeKnown(ctx, runID, urls)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scraping rosters: %w", err)
	}

	res := &Result{
		RunID:     runID,
		Query:     q,
		URLs:      urls,
		Fragments: frags,
	}

	scraped := roster.Successful(frags)
	if len(scraped) == 0 {
		p.log.Warn("No roster pages could be scraped", logger.Fields{"run_id": runID, "urls": len(urls)})
		p.metrics.ObserveExtraction(metrics.ExtractionFailure, 0)
		res.Extraction = extractor.Failure("No roster pages could be scraped", "")
		return res, nil
	}

	res.Extraction = p.extractor.Extract(ctx, roster.JoinMarkup(scraped))

	p.log.Info("Roster request complete", logger.Fields{
		"run_id":   runID,
		"scraped":  len(scraped),
		"failed":   len(frags) - len(scraped),
		"success":  res.Extraction.OK,
		"athletes": len(res.Extraction.Athletes),
		"took_ms":  time.Since(start).Milliseconds(),
	})
	return res, nil
}
