package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Entry is a single known roster page
type Entry struct {
	University string `json:"university"`
	Sport      string `json:"sport"`
	URL        string `json:"url"`
}

// Catalog is an immutable, ordered set of roster entries
type Catalog struct {
	entries []Entry
	byURL   map[string]int
}

// document is the on-disk YAML layout
type document struct {
	Universities []struct {
		Name    string `yaml:"name"`
		Rosters []struct {
			Sport string `yaml:"sport"`
			URL   string `yaml:"url"`
		} `yaml:"rosters"`
	} `yaml:"universities"`
}

// Default returns the built-in catalog. It panics only if the embedded document is broken.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return c, nil
}

// Load parses a catalog document and validates every entry
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	entries := make([]Entry, 0)
	for _, u := range doc.Universities {
		for _, ro := range u.Rosters {
			entries = append(entries, Entry{
				University: strings.TrimSpace(u.Name),
				Sport:      strings.TrimSpace(ro.Sport),
				URL:        strings.TrimSpace(ro.URL),
			})
		}
	}

	return New(entries)
}

// New builds a catalog from entries, keeping their order
func New(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errors.New("catalog has no roster entries")
	}

	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byURL:   make(map[string]int, len(entries)),
	}
	pairs := make(map[string]bool, len(entries))

	for i, e := range entries {
		if e.University == "" {
			return nil, fmt.Errorf("entry %d: university name is required", i)
		}
		if e.Sport == "" {
			return nil, fmt.Errorf("entry %d (%s): sport is required", i, e.University)
		}
		if err := validateURL(e.URL); err != nil {
			return nil, fmt.Errorf("entry %d (%s/%s): %w", i, e.University, e.Sport, err)
		}
		if _, dup := c.byURL[e.URL]; dup {
			return nil, fmt.Errorf("entry %d: duplicate roster url %s", i, e.URL)
		}
		pair := strings.ToLower(e.University) + "|" + strings.ToLower(e.Sport)
		if pairs[pair] {
			return nil, fmt.Errorf("entry %d: duplicate roster for %s/%s", i, e.University, e.Sport)
		}
		pairs[pair] = true

		c.byURL[e.URL] = len(c.entries)
		c.entries = append(c.entries, e)
	}

	return c, nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) url: %s", raw)
	}
	return nil
}

// Entries returns a copy of all entries in catalog order
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Universities returns the distinct university names in catalog order
func (c *Catalog) Universities() []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, e := range c.entries {
		if !seen[e.University] {
			seen[e.University] = true
			names = append(names, e.University)
		}
	}
	return names
}

// Has reports whether rawURL is a known roster page
func (c *Catalog) Has(rawURL string) bool {
	_, ok := c.byURL[rawURL]
	return ok
}

// Lookup returns the entry for rawURL
func (c *Catalog) Lookup(rawURL string) (Entry, bool) {
	i, ok := c.byURL[rawURL]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}
