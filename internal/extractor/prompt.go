package extractor

import "strings"

// SystemPrompt frames the model as a strict HTML-to-JSON converter
const SystemPrompt = "You are an expert at parsing HTML and extracting structured data. Return only valid JSON."

const promptHeader = `You are helping parse athlete roster HTML data from university sports websites.

Below is HTML content from one or more roster pages. Pages are separated by a line containing only "---".

Extract every athlete into a JSON array. Each element is an object with these fields:
- name: Athlete's full name (required)
- number: Jersey number
- position: Playing position
- year: Academic year or class
- hometown: Hometown (if available)
- high_school: High school (if available)
- previous_school: Previous school or transfer info (if available)
- image_url: URL to player's image (if available in the HTML)

Omit a field or use null when the HTML does not contain it.
Return ONLY the JSON array, without any explanations or additional text.

Here's the HTML to parse:

`

// BuildPrompt embeds markup verbatim after the fixed extraction instructions
func BuildPrompt(markup string) string {
	var b strings.Builder
	b.Grow(len(promptHeader) + len(markup))
	b.WriteString(promptHeader)
	b.WriteString(markup)
	return b.String()
}
