package scraper

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/scoutteam/internal/logger"
)

const rosterPage = `
<html>
	<body>
		<nav><ul class="menu"><li class="sidearm-roster-player">Not a player</li></ul></nav>
		<ul class="sidearm-roster-players">
			<li class="sidearm-roster-player"><span class="sidearm-roster-player-jersey-number">3</span><h3><a href="/roster/jordan-smith">Jordan Smith</a></h3></li>
			<li class="sidearm-roster-player"><span class="sidearm-roster-player-jersey-number">11</span><h3><a href="/roster/alex-lee">Alex Lee</a></h3></li>
			<li class="sidearm-roster-coach">Coach Carter</li>
		</ul>
	</body>
</html>
`

// quietScraper returns a scraper that logs into a buffer instead of stderr
func quietScraper(opts ...Option) *Scraper {
	opts = append([]Option{WithLogger(logger.New(logger.LevelError, &bytes.Buffer{}))}, opts...)
	return New(opts...)
}

func TestFetchRoster(t *testing.T) {
	tests := []struct {
		name        string
		htmlContent string
		statusCode  int
		wantOK      bool
		wantPlayers int
		wantErrText string
	}{
		{
			name:        "successful fetch with players",
			htmlContent: rosterPage,
			statusCode:  http.StatusOK,
			wantOK:      true,
			wantPlayers: 2,
		},
		{
			name:        "HTTP error",
			htmlContent: "gone",
			statusCode:  http.StatusNotFound,
			wantErrText: "unexpected status code: 404",
		},
		{
			name:        "server error",
			statusCode:  http.StatusInternalServerError,
			wantErrText: "unexpected status code: 500",
		},
		{
			name:        "no container",
			htmlContent: `<html><body><p>Roster coming soon</p></body></html>`,
			statusCode:  http.StatusOK,
			wantErrText: "No players found at",
		},
		{
			name:        "container without players",
			htmlContent: `<ul class="sidearm-roster-players"><li class="sidearm-roster-coach">Coach</li></ul>`,
			statusCode:  http.StatusOK,
			wantErrText: "No player list found at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// Verify User-Agent is set
				if userAgent := r.Header.Get("User-Agent"); !strings.Contains(userAgent, "scoutteam") {
					t.Errorf("User-Agent = %q, should contain 'scoutteam'", userAgent)
				}

				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.htmlContent))
			}))
			defer server.Close()

			frag := quietScraper().FetchRoster(context.Background(), server.URL)

			if frag.SourceURL != server.URL {
				t.Errorf("SourceURL = %q, want %q", frag.SourceURL, server.URL)
			}
			if frag.OK() != tt.wantOK {
				t.Fatalf("OK() = %v, want %v (err: %q)", frag.OK(), tt.wantOK, frag.Err)
			}
			if tt.wantOK {
				if frag.Players != tt.wantPlayers {
					t.Errorf("Players = %d, want %d", frag.Players, tt.wantPlayers)
				}
				return
			}
			if !strings.Contains(frag.Err, tt.wantErrText) {
				t.Errorf("Err = %q, should contain %q", frag.Err, tt.wantErrText)
			}
			if !strings.Contains(frag.Err, server.URL) {
				t.Errorf("Err = %q, should name the url", frag.Err)
			}
		})
	}
}

func TestFetchRoster_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	frag := quietScraper().FetchRoster(context.Background(), url)

	if frag.OK() {
		t.Fatal("expected an error fragment for a closed server")
	}
	if !strings.HasPrefix(frag.Err, "Error fetching "+url+": ") {
		t.Errorf("Err = %q", frag.Err)
	}
}

func TestFetchRoster_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	frag := quietScraper(WithTimeout(20*time.Millisecond)).FetchRoster(context.Background(), server.URL)
	if frag.OK() {
		t.Fatal("expected timeout to produce an error fragment")
	}
}

func TestParsePlayers(t *testing.T) {
	markup, players, err := parsePlayers(strings.NewReader(rosterPage))
	if err != nil {
		t.Fatalf("parsePlayers() error: %v", err)
	}

	if players != 2 {
		t.Errorf("players = %d, want 2", players)
	}

	lines := strings.Split(markup, "\n")
	if len(lines) != 2 {
		t.Fatalf("markup has %d lines, want 2:\n%s", len(lines), markup)
	}
	if !strings.HasPrefix(lines[0], `<li class="sidearm-roster-player">`) || !strings.Contains(lines[0], "Jordan Smith") {
		t.Errorf("first entry = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Alex Lee") {
		t.Errorf("second entry = %q", lines[1])
	}
	if strings.Contains(markup, "Not a player") || strings.Contains(markup, "Coach Carter") {
		t.Errorf("markup includes entries outside the player list: %s", markup)
	}
}

func TestParsePlayers_StructureErrors(t *testing.T) {
	tests := []struct {
		name string
		html string
		want error
	}{
		{"empty document", "", errNoContainer},
		{"wrong list class", `<ul class="roster"><li class="sidearm-roster-player">x</li></ul>`, errNoContainer},
		{"empty container", `<ul class="sidearm-roster-players"></ul>`, errNoPlayers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parsePlayers(strings.NewReader(tt.html))
			if err != tt.want {
				t.Errorf("parsePlayers() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	s := New()

	if s == nil {
		t.Fatal("New() returned nil")
	}

	if s.client == nil {
		t.Error("scraper client is nil")
	}

	if s.client.Timeout != Timeout {
		t.Errorf("client timeout = %v, want %v", s.client.Timeout, Timeout)
	}

	if s.concurrency != 1 {
		t.Errorf("concurrency = %d, want 1", s.concurrency)
	}

	if s.userAgent != UserAgent {
		t.Errorf("userAgent = %q, want %q", s.userAgent, UserAgent)
	}
}

func TestNew_Options(t *testing.T) {
	client := &http.Client{}
	s := New(
		WithHTTPClient(client),
		WithUserAgent("custom/2.0"),
		WithConcurrency(4),
		WithConcurrency(0), // ignored
	)

	if s.client == client {
		t.Error("WithHTTPClient should keep its own copy of the client")
	}
	if s.userAgent != "custom/2.0" {
		t.Errorf("userAgent = %q", s.userAgent)
	}
	if s.concurrency != 4 {
		t.Errorf("concurrency = %d, want 4", s.concurrency)
	}
}

func TestNew_TimeoutLeavesCallerClientAlone(t *testing.T) {
	transport := &http.Transport{}
	client := &http.Client{Transport: transport, Timeout: time.Minute}

	s := New(WithHTTPClient(client), WithTimeout(5*time.Second))

	if client.Timeout != time.Minute {
		t.Errorf("caller's client Timeout = %v, want it untouched", client.Timeout)
	}
	if s.client.Timeout != 5*time.Second {
		t.Errorf("scraper Timeout = %v, want 5s", s.client.Timeout)
	}
	if s.client.Transport != transport {
		t.Error("copied client should keep the caller's transport")
	}
}
