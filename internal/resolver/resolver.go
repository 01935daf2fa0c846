// Package resolver turns university and sport filters into roster URLs from the catalog.
//
// Matching is case-insensitive throughout:
//   - Universities: the requested token must be a substring of the catalog university name.
//   - Sports, alone: the catalog sport must equal a requested sport.
//   - Sports, combined with universities: the catalog sport must be a substring of a
//     requested sport token ("mens-basketball" matches "basketball").
//
// Results follow catalog order, never request order, and only ever contain catalog URLs.
package resolver

import (
	"errors"
	"strings"

	"github.com/pfrederiksen/scoutteam/internal/catalog"
)

// ErrAmbiguous is returned when a query names neither a university nor a sport.
// Its message is the sentinel text callers show to users.
var ErrAmbiguous = errors.New("Specify University or Sport")

// Query holds the optional university and sport filters
type Query struct {
	Universities []string `json:"university,omitempty"`
	Sports       []string `json:"sport,omitempty"`
}

// Normalize drops blank tokens and trims the rest. A list that held only blank
// tokens becomes nil and counts as absent.
func (q Query) Normalize() Query {
	return Query{
		Universities: clean(q.Universities),
		Sports:       clean(q.Sports),
	}
}

// IsEmpty reports whether the query carries no usable filter
func (q Query) IsEmpty() bool {
	n := q.Normalize()
	return len(n.Universities) == 0 && len(n.Sports) == 0
}

func clean(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether a catalog entry satisfies the query
func (q Query) Matches(e catalog.Entry) bool {
	q = q.Normalize()

	switch {
	case len(q.Universities) == 0 && len(q.Sports) == 0:
		return false
	case len(q.Universities) == 0:
		return sportEquals(e.Sport, q.Sports)
	case len(q.Sports) == 0:
		return universityContains(e.University, q.Universities)
	default:
		return universityContains(e.University, q.Universities) &&
			sportWithin(e.Sport, q.Sports)
	}
}

// universityContains: a requested token appears inside the catalog university name
func universityContains(university string, tokens []string) bool {
	uniLower := strings.ToLower(university)
	for _, t := range tokens {
		if strings.Contains(uniLower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// sportEquals: the catalog sport equals a requested sport
func sportEquals(sport string, tokens []string) bool {
	for _, t := range tokens {
		if strings.EqualFold(sport, t) {
			return true
		}
	}
	return false
}

// sportWithin: the catalog sport appears inside a requested sport token
func sportWithin(sport string, tokens []string) bool {
	sportLower := strings.ToLower(sport)
	for _, t := range tokens {
		if strings.Contains(strings.ToLower(t), sportLower) {
			return true
		}
	}
	return false
}

// Resolve returns the URLs of every catalog entry matching q, in catalog order.
// It returns ErrAmbiguous when q has no usable filter. A query that matches nothing
// yields an empty, non-nil slice.
func Resolve(cat *catalog.Catalog, q Query) ([]string, error) {
	if q.IsEmpty() {
		return nil, ErrAmbiguous
	}

	urls := make([]string, 0)
	for _, e := range cat.Entries() {
		if q.Matches(e) {
			urls = append(urls, e.URL)
		}
	}
	return urls, nil
}
