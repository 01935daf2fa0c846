package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrNoAPIKey is returned by the Anthropic completer when no credential was configured
var ErrNoAPIKey = errors.New("ANTHROPIC_API_KEY is not set")

// Anthropic is a Completer backed by the Anthropic messages API
type Anthropic struct {
	client anthropic.Client
	apiKey string
}

// NewAnthropic creates a Completer for apiKey. SDK retries are disabled; a failed call
// is final. Extra request options (base URL, timeout) are applied after the defaults.
func NewAnthropic(apiKey string, opts ...option.RequestOption) *Anthropic {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	return &Anthropic{
		client: anthropic.NewClient(append(base, opts...)...),
		apiKey: apiKey,
	}
}

// Complete sends req as a single user message and returns the concatenated text blocks
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	if a.apiKey == "" {
		return "", ErrNoAPIKey
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("creating message: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("model returned no text content (stop reason: %s)", msg.StopReason)
	}
	return b.String(), nil
}
