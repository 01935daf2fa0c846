// Package extractor turns scraped roster markup into structured athlete records using a
// language model.
//
// One Extract call makes exactly one model request with temperature pinned to zero and a
// bounded output budget. There are no retries and no fallback models. Every problem,
// from a failed API call to an unparseable reply, is reported as a Failure result; the
// package never returns an error or panics past Extract.
package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/scoutteam/internal/logger"
	"github.com/pfrederiksen/scoutteam/internal/metrics"
	"github.com/pfrederiksen/scoutteam/internal/roster"
)

const (
	DefaultModel     = "claude-3-haiku-20240307"
	DefaultMaxTokens = 4000
)

// Request is a single model invocation
type Request struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer sends one request to a language model and returns the reply text
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Result is the outcome of one extraction: either Success with athletes, or Failure
// with a reason. RawReply keeps the model text whenever there was one.
type Result struct {
	OK       bool             `json:"success"`
	Athletes []roster.Athlete `json:"data"`
	Reason   string           `json:"error,omitempty"`
	RawReply string           `json:"raw_response,omitempty"`
}

// Success builds a successful result
func Success(athletes []roster.Athlete, rawReply string) Result {
	if athletes == nil {
		athletes = []roster.Athlete{}
	}
	return Result{OK: true, Athletes: athletes, RawReply: rawReply}
}

// Failure builds a failed result; rawReply may be empty
func Failure(reason, rawReply string) Result {
	return Result{Reason: reason, RawReply: rawReply, Athletes: []roster.Athlete{}}
}

// Extractor runs the extraction prompt against a Completer
type Extractor struct {
	completer Completer
	model     string
	maxTokens int
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// Option configures an Extractor
type Option func(*Extractor)

// WithModel selects the model name
func WithModel(model string) Option {
	return func(e *Extractor) {
		if model != "" {
			e.model = model
		}
	}
}

// WithMaxTokens bounds the reply length
func WithMaxTokens(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics records extraction outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

// New creates an Extractor backed by c
func New(c Completer, opts ...Option) *Extractor {
	e := &Extractor{
		completer: c,
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the configured model name
func (e *Extractor) Model() string {
	return e.model
}

// Extract asks the model for the athletes contained in combinedMarkup
func (e *Extractor) Extract(ctx context.Context, combinedMarkup string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Extraction panicked", logger.Fields{"panic": fmt.Sprint(r)}, nil)
			res = Failure(fmt.Sprintf("Error calling model API: %v", r), res.RawReply)
		}
	}()

	if strings.TrimSpace(combinedMarkup) == "" {
		e.metrics.ObserveExtraction(metrics.ExtractionFailure, 0)
		return Failure("No roster markup to extract athletes from", "")
	}
	if e.completer == nil {
		e.metrics.ObserveExtraction(metrics.ExtractionFailure, 0)
		return Failure("Error calling model API: no model client configured", "")
	}

	req := Request{
		Model:       e.model,
		System:      SystemPrompt,
		Prompt:      BuildPrompt(combinedMarkup),
		MaxTokens:   e.maxTokens,
		Temperature: 0,
	}

	start := time.Now()
	reply, err := e.completer.Complete(ctx, req)
	took := time.Since(start)
	if err != nil {
		e.log.Error("Error processing with model", logger.Fields{"model": e.model}, err)
		e.metrics.ObserveExtraction(metrics.ExtractionFailure, took)
		return Failure(fmt.Sprintf("Error calling model API: %v", err), "")
	}

	athletes, dropped, err := ParseReply(reply)
	if err != nil {
		e.log.Warn("Model reply is not valid JSON", logger.Fields{
			"model":       e.model,
			"reply_bytes": len(reply),
			"error":       err.Error(),
		})
		e.metrics.ObserveExtraction(metrics.ExtractionFailure, took)
		return Failure(fmt.Sprintf("Failed to parse model response as JSON: %v", err), reply)
	}

	if dropped > 0 {
		e.log.Warn("Dropped athlete records without a name", logger.Fields{"dropped": dropped})
	}
	e.log.Info("Extracted athletes", logger.Fields{
		"model":    e.model,
		"athletes": len(athletes),
		"took_ms":  took.Milliseconds(),
	})
	e.metrics.ObserveExtraction(metrics.ExtractionSuccess, took)
	return Success(athletes, reply)
}
