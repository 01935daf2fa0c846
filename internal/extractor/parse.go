package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pfrederiksen/scoutteam/internal/roster"
)

const fence = "```"

// jsonBlock returns the content of the first closed code fence labelled json.
// The label is case-insensitive and must be the only text on the opening fence line.
func jsonBlock(reply string) (string, bool) {
	const label = "json"
	offset := 0

	for {
		i := strings.Index(reply[offset:], fence)
		if i < 0 {
			return "", false
		}
		start := offset + i + len(fence)
		offset = start

		if len(reply)-start < len(label) || !strings.EqualFold(reply[start:start+len(label)], label) {
			continue
		}
		start += len(label)

		nl := strings.IndexByte(reply[start:], '\n')
		if nl < 0 {
			return "", false
		}
		if strings.TrimSpace(reply[start:start+nl]) != "" {
			// ```jsonl, ```json5 and the like are not JSON blocks
			continue
		}

		body := reply[start+nl+1:]
		end := strings.Index(body, fence)
		if end < 0 {
			return "", false
		}
		return strings.TrimSpace(body[:end]), true
	}
}

// ParseReply decodes the model reply into athletes.
//
// It tries, in order: the content of a fenced block labelled json, then the whole reply.
// The decoded value must be a JSON array of athlete objects. Entries with a blank name
// are dropped and counted in dropped.
func ParseReply(reply string) (athletes []roster.Athlete, dropped int, err error) {
	payload, fenced := jsonBlock(reply)
	if !fenced {
		payload = strings.TrimSpace(reply)
	}
	if payload == "" {
		return nil, 0, errors.New("reply is empty")
	}

	var decoded []roster.Athlete
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		if fenced {
			return nil, 0, fmt.Errorf("decoding json block: %w", err)
		}
		return nil, 0, fmt.Errorf("decoding reply: %w", err)
	}

	athletes = make([]roster.Athlete, 0, len(decoded))
	for _, a := range decoded {
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			dropped++
			continue
		}
		athletes = append(athletes, a)
	}
	return athletes, dropped, nil
}
