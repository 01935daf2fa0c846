package roster

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Separator joins rendered fragments into a single blob
const Separator = "\n---\n"

// Fragment is the scrape outcome for a single roster URL
type Fragment struct {
	SourceURL string `json:"source_url"`
	Markup    string `json:"markup,omitempty"`
	Players   int    `json:"players,omitempty"`
	Err       string `json:"error,omitempty"`
}

// NewFragment creates a successful fragment from player-entry markup
func NewFragment(sourceURL, markup string, players int) Fragment {
	return Fragment{
		SourceURL: sourceURL,
		Markup:    markup,
		Players:   players,
	}
}

// FailedFragment creates an error fragment for sourceURL
func FailedFragment(sourceURL, format string, args ...any) Fragment {
	return Fragment{
		SourceURL: sourceURL,
		Err:       fmt.Sprintf(format, args...),
	}
}

// OK reports whether the fragment carries markup rather than an error
func (f Fragment) OK() bool {
	return f.Err == ""
}

// Text returns the markup for a successful fragment or the error message otherwise
func (f Fragment) Text() string {
	if f.OK() {
		return f.Markup
	}
	return f.Err
}

// Render joins every fragment, successes and errors alike, in order.
func Render(frags []Fragment) string {
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		parts = append(parts, f.Text())
	}
	return strings.Join(parts, Separator)
}

// Successful filters out error fragments, preserving order
func Successful(frags []Fragment) []Fragment {
	ok := make([]Fragment, 0, len(frags))
	for _, f := range frags {
		if f.OK() {
			ok = append(ok, f)
		}
	}
	return ok
}

// JoinMarkup concatenates the markup of successful fragments for the extractor
func JoinMarkup(frags []Fragment) string {
	return Render(Successful(frags))
}

// Athlete is one structured roster record. Only Name is required.
type Athlete struct {
	Name           string `json:"name"`
	Number         Jersey `json:"number,omitempty"`
	Position       string `json:"position,omitempty"`
	Year           string `json:"year,omitempty"`
	Hometown       string `json:"hometown,omitempty"`
	HighSchool     string `json:"high_school,omitempty"`
	PreviousSchool string `json:"previous_school,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
}

// UnmarshalJSON decodes every field leniently: numbers and booleans become text,
// nulls, arrays and objects become empty. A record that is not an object is an error.
func (a *Athlete) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name           text   `json:"name"`
		Number         Jersey `json:"number"`
		Position       text   `json:"position"`
		Year           text   `json:"year"`
		Hometown       text   `json:"hometown"`
		HighSchool     text   `json:"high_school"`
		PreviousSchool text   `json:"previous_school"`
		ImageURL       text   `json:"image_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Athlete{
		Name:           string(raw.Name),
		Number:         raw.Number,
		Position:       string(raw.Position),
		Year:           string(raw.Year),
		Hometown:       string(raw.Hometown),
		HighSchool:     string(raw.HighSchool),
		PreviousSchool: string(raw.PreviousSchool),
		ImageURL:       string(raw.ImageURL),
	}
	return nil
}

// Jersey is a jersey number. Models emit it as either a JSON string or a JSON number,
// so both are accepted; it always marshals as a string.
type Jersey string

// UnmarshalJSON accepts "23", 23, true and null. Arrays and objects decode as empty.
func (j *Jersey) UnmarshalJSON(data []byte) error {
	*j = Jersey(scalarText(data))
	return nil
}

// String returns the jersey number as text
func (j Jersey) String() string {
	return string(j)
}

// text is a free-form athlete field with the same leniency as Jersey
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	*t = text(scalarText(data))
	return nil
}

// scalarText renders a JSON scalar as trimmed text. Null and composite values yield "".
func scalarText(data []byte) string {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return ""
	}

	switch s[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return ""
		}
		return strings.TrimSpace(str)
	case 't', 'f':
		return s
	case 'n', '[', '{':
		return ""
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ""
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	return n.String()
}
