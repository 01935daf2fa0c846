package extractor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pfrederiksen/scoutteam/internal/logger"
	"github.com/pfrederiksen/scoutteam/internal/metrics"
)

// fakeCompleter records requests and replays a canned reply
type fakeCompleter struct {
	reply    string
	err      error
	panicMsg string
	calls    []Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req Request) (string, error) {
	f.calls = append(f.calls, req)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.reply, f.err
}

func quiet() Option {
	return WithLogger(logger.New(logger.LevelError, &bytes.Buffer{}))
}

const markup = `<li class="sidearm-roster-player">Jordan Smith #3 G</li>`

func TestExtract(t *testing.T) {
	tests := []struct {
		name         string
		completer    *fakeCompleter
		markup       string
		wantOK       bool
		wantAthletes int
		wantReason   string
		wantRaw      bool
		wantCalls    int
	}{
		{
			name:         "bare json reply",
			completer:    &fakeCompleter{reply: `[{"name":"Jordan Smith","number":3,"position":"G"}]`},
			markup:       markup,
			wantOK:       true,
			wantAthletes: 1,
			wantRaw:      true,
			wantCalls:    1,
		},
		{
			name:         "fenced reply with prose",
			completer:    &fakeCompleter{reply: "Here you go:\n```json\n[{\"name\":\"Jordan Smith\"}]\n```\nThanks!"},
			markup:       markup,
			wantOK:       true,
			wantAthletes: 1,
			wantRaw:      true,
			wantCalls:    1,
		},
		{
			name:       "unparseable reply keeps raw text",
			completer:  &fakeCompleter{reply: "Sorry, I can't help with that."},
			markup:     markup,
			wantReason: "Failed to parse model response as JSON",
			wantRaw:    true,
			wantCalls:  1,
		},
		{
			name:       "api error",
			completer:  &fakeCompleter{err: errors.New("401 invalid x-api-key")},
			markup:     markup,
			wantReason: "Error calling model API: 401 invalid x-api-key",
			wantCalls:  1,
		},
		{
			name:       "panicking client is contained",
			completer:  &fakeCompleter{panicMsg: "nil pointer"},
			markup:     markup,
			wantReason: "Error calling model API: nil pointer",
			wantCalls:  1,
		},
		{
			name:       "empty markup skips the model",
			completer:  &fakeCompleter{reply: "[]"},
			markup:     " \n ",
			wantReason: "No roster markup",
			wantCalls:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := New(tt.completer, quiet())
			res := ex.Extract(context.Background(), tt.markup)

			if res.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v (reason: %q)", res.OK, tt.wantOK, res.Reason)
			}
			if len(tt.completer.calls) != tt.wantCalls {
				t.Errorf("model called %d times, want %d", len(tt.completer.calls), tt.wantCalls)
			}
			if res.Athletes == nil {
				t.Error("Athletes should never be nil")
			}
			if tt.wantOK && len(res.Athletes) != tt.wantAthletes {
				t.Errorf("got %d athletes, want %d", len(res.Athletes), tt.wantAthletes)
			}
			if !strings.HasPrefix(res.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want prefix %q", res.Reason, tt.wantReason)
			}
			if tt.wantRaw && res.RawReply != tt.completer.reply {
				t.Errorf("RawReply = %q, want the reply verbatim", res.RawReply)
			}
			if !tt.wantRaw && res.RawReply != "" {
				t.Errorf("RawReply = %q, want empty", res.RawReply)
			}
		})
	}
}

func TestExtract_Request(t *testing.T) {
	fc := &fakeCompleter{reply: "[]"}
	ex := New(fc, quiet(), WithModel("claude-test"), WithMaxTokens(1234))

	ex.Extract(context.Background(), markup)

	if len(fc.calls) != 1 {
		t.Fatalf("model called %d times, want 1", len(fc.calls))
	}
	req := fc.calls[0]
	if req.Model != "claude-test" {
		t.Errorf("Model = %q", req.Model)
	}
	if req.MaxTokens != 1234 {
		t.Errorf("MaxTokens = %d", req.MaxTokens)
	}
	if req.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", req.Temperature)
	}
	if req.System != SystemPrompt {
		t.Errorf("System = %q", req.System)
	}
	if !strings.HasSuffix(req.Prompt, markup) {
		t.Error("prompt does not embed the markup verbatim")
	}
}

func TestNew_Defaults(t *testing.T) {
	ex := New(nil, WithModel(""), WithMaxTokens(0))

	if ex.Model() != DefaultModel {
		t.Errorf("Model() = %q, want %q", ex.Model(), DefaultModel)
	}
	if ex.maxTokens != DefaultMaxTokens {
		t.Errorf("maxTokens = %d, want %d", ex.maxTokens, DefaultMaxTokens)
	}
}

func TestExtract_NilCompleter(t *testing.T) {
	res := New(nil, quiet()).Extract(context.Background(), markup)
	if res.OK || !strings.Contains(res.Reason, "no model client") {
		t.Errorf("Extract() with nil completer = %+v", res)
	}
}

func TestExtract_Metrics(t *testing.T) {
	m := metrics.New()
	ok := New(&fakeCompleter{reply: "[]"}, quiet(), WithMetrics(m))
	bad := New(&fakeCompleter{reply: "nope"}, quiet(), WithMetrics(m))

	ok.Extract(context.Background(), markup)
	bad.Extract(context.Background(), markup)
	bad.Extract(context.Background(), markup)

	expected := `
# HELP scoutteam_extractions_total Structured extraction calls, by outcome.
# TYPE scoutteam_extractions_total counter
scoutteam_extractions_total{outcome="failure"} 2
scoutteam_extractions_total{outcome="success"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "scoutteam_extractions_total"); err != nil {
		t.Error(err)
	}
}
