package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/scoutteam/internal/catalog"
	"github.com/pfrederiksen/scoutteam/internal/resolver"
	"github.com/pfrederiksen/scoutteam/internal/roster"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains the extract command output
type OutputResult struct {
	CheckedAt    time.Time         `json:"checked_at"`
	RunID        string            `json:"run_id"`
	University   []string          `json:"university,omitempty"`
	Sport        []string          `json:"sport,omitempty"`
	URLs         []string          `json:"urls_processed"`
	Success      bool              `json:"success"`
	Athletes     []roster.Athlete  `json:"data"`
	AthleteCount int               `json:"athlete_count"`
	Error        string            `json:"error,omitempty"`
	Fragments    []roster.Fragment `json:"fragments,omitempty"`
	RawReply     string            `json:"raw_response,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if verbose {
		for _, f := range result.Fragments {
			if f.OK() {
				fmt.Fprintf(w, "OK     %s (%d players)\n", f.SourceURL, f.Players)
			} else {
				fmt.Fprintf(w, "FAILED %s\n       %s\n", f.SourceURL, f.Err)
			}
		}
		if len(result.Fragments) > 0 {
			fmt.Fprintln(w)
		}
	}

	if !result.Success {
		fmt.Fprintf(w, "Extraction failed: %s\n", result.Error)
		if verbose && result.RawReply != "" {
			fmt.Fprintf(w, "\nModel reply:\n%s\n", result.RawReply)
		}
		return nil
	}

	if result.AthleteCount == 0 {
		fmt.Fprintln(w, "No athletes found.")
		return nil
	}

	for _, a := range result.Athletes {
		fmt.Fprintln(w, athleteLine(a))
		if verbose {
			writeDetail(w, "Hometown", a.Hometown)
			writeDetail(w, "High school", a.HighSchool)
			writeDetail(w, "Previous school", a.PreviousSchool)
			writeDetail(w, "Image", a.ImageURL)
		}
	}
	fmt.Fprintf(w, "\nTotal: %d athletes from %d roster pages\n", result.AthleteCount, len(result.URLs))
	return nil
}

// athleteLine renders "#3 Jordan Smith (Guard, Jr.)"
func athleteLine(a roster.Athlete) string {
	var b strings.Builder
	if a.Number != "" {
		fmt.Fprintf(&b, "#%s ", a.Number)
	}
	b.WriteString(a.Name)

	var extra []string
	if a.Position != "" {
		extra = append(extra, a.Position)
	}
	if a.Year != "" {
		extra = append(extra, a.Year)
	}
	if len(extra) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(extra, ", "))
	}
	return b.String()
}

func writeDetail(w io.Writer, label, value string) {
	if value != "" {
		fmt.Fprintf(w, "     %s: %s\n", label, value)
	}
}

// WriteURLs prints resolved roster URLs
func WriteURLs(w io.Writer, q resolver.Query, urls []string, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, struct {
			Query resolver.Query `json:"query"`
			URLs  []string       `json:"urls"`
		}{q, urls})
	}
	if len(urls) == 0 {
		fmt.Fprintln(w, "No roster pages match.")
		return nil
	}
	for _, u := range urls {
		fmt.Fprintln(w, u)
	}
	return nil
}

// WriteFragments prints scraped fragments: the joined blob as text, or the fragment list as JSON
func WriteFragments(w io.Writer, frags []roster.Fragment, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, frags)
	}
	_, err := fmt.Fprintln(w, roster.Render(frags))
	return err
}

// WriteCatalog prints the catalog entries
func WriteCatalog(w io.Writer, entries []catalog.Entry, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, entries)
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-28s %-12s %s\n", e.University, e.Sport, e.URL)
	}
	fmt.Fprintf(w, "\nTotal: %d roster pages\n", len(entries))
	return nil
}
