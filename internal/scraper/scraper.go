package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/scoutteam/internal/logger"
	"github.com/pfrederiksen/scoutteam/internal/metrics"
	"github.com/pfrederiksen/scoutteam/internal/roster"
)

const (
	UserAgent = "scoutteam/1.0 (github.com/pfrederiksen/scoutteam)"
	Timeout   = 30 * time.Second

	// PlayersSelector matches the roster-players container on Sidearm roster pages
	PlayersSelector = "ul.sidearm-roster-players"
	// PlayerSelector matches one player entry inside the container
	PlayerSelector = "li.sidearm-roster-player"
)

// Scraper fetches roster pages and isolates their player-list markup
type Scraper struct {
	client      *http.Client
	userAgent   string
	concurrency int
	log         *logger.Logger
	metrics     *metrics.Metrics
}

// Option configures a Scraper
type Option func(*Scraper)

// WithHTTPClient replaces the default HTTP client. The scraper works on a copy,
// so later options never modify c.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) {
		if c != nil {
			cp := *c
			s.client = &cp
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithConcurrency sets how many pages are fetched at once. 1 fetches serially.
func WithConcurrency(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records fragment outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scraper) {
		s.metrics = m
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		userAgent:   UserAgent,
		concurrency: 1,
		log:         logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape fetches every URL and returns exactly one fragment per URL, in input order.
// A failure on one URL never stops the others.
func (s *Scraper) Scrape(ctx context.Context, urls []string) []roster.Fragment {
	frags := make([]roster.Fragment, len(urls))

	if s.concurrency <= 1 || len(urls) <= 1 {
		for i, u := range urls {
			frags[i] = s.FetchRoster(ctx, u)
		}
		return frags
	}

	var eg errgroup.Group
	eg.SetLimit(s.concurrency)
	for i, u := range urls {
		eg.Go(func() error {
			frags[i] = s.FetchRoster(ctx, u)
			return nil
		})
	}
	_ = eg.Wait() // workers never fail; errors live in the fragments

	return frags
}

// FetchRoster fetches one roster page and extracts its player entries.
// Every failure is reported inside the returned fragment.
func (s *Scraper) FetchRoster(ctx context.Context, url string) roster.Fragment {
	start := time.Now()

	body, err := s.fetch(ctx, url)
	if err != nil {
		s.log.Warn("Roster fetch failed", logger.Fields{"url": url, "error": err.Error()})
		s.metrics.ObserveFragment(metrics.FragmentFetchError, time.Since(start))
		return roster.FailedFragment(url, "Error fetching %s: %v", url, err)
	}
	defer body.Close()

	markup, players, err := parsePlayers(body)
	if err != nil {
		s.log.Warn("Roster structure not found", logger.Fields{"url": url, "error": err.Error()})
		s.metrics.ObserveFragment(metrics.FragmentStructureError, time.Since(start))
		return roster.FailedFragment(url, "%s at %s", err.Error(), url)
	}

	s.log.Debug("Roster scraped", logger.Fields{
		"url":     url,
		"players": players,
		"took_ms": time.Since(start).Milliseconds(),
	})
	s.metrics.ObserveFragment(metrics.FragmentOK, time.Since(start))
	return roster.NewFragment(url, markup, players)
}

// fetch performs the GET and checks the status code
func (s *Scraper) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// structureError describes a page that parsed but lacks the roster markup
type structureError string

func (e structureError) Error() string { return string(e) }

const (
	errNoContainer structureError = "No players found"
	errNoPlayers   structureError = "No player list found"
)

// parsePlayers locates the player container and serializes each entry's outer HTML,
// one entry per line
func parsePlayers(r io.Reader) (string, int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", 0, fmt.Errorf("parsing HTML: %w", err)
	}

	container := doc.Find(PlayersSelector).First()
	if container.Length() == 0 {
		return "", 0, errNoContainer
	}

	players := container.Find(PlayerSelector)
	if players.Length() == 0 {
		return "", 0, errNoPlayers
	}

	entries := make([]string, 0, players.Length())
	var renderErr error
	players.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		html, err := goquery.OuterHtml(sel)
		if err != nil {
			renderErr = fmt.Errorf("rendering player %d: %w", i, err)
			return false
		}
		entries = append(entries, html)
		return true
	})
	if renderErr != nil {
		return "", 0, renderErr
	}

	return strings.Join(entries, "\n"), len(entries), nil
}

// Render joins fragments into the blob handed to tool callers
func Render(frags []roster.Fragment) string {
	return roster.Render(frags)
}
