package provider

import (
	"context"
	"errors"
	"time"

	openai_provider "github.com/minutelab/minuted/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Provider is the interface that all LLM implementations must satisfy.
// ClassifyTurn labels a user turn with a flow category; FlowTitle
// produces a short title within the requested character band.
type Provider interface {
	ClassifyTurn(ctx context.Context, userText string) (string, error)
	FlowTitle(ctx context.Context, userText string, lengthHint string) (string, error)
}

// Options configures provider construction.
type Options struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, opts Options) (Provider, error) {
	switch client {
	case OpenAI:
		if opts.APIKey == "" {
			return nil, errors.New("openai api key not set")
		}
		model := opts.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		maxTokens := opts.MaxTokens
		if maxTokens <= 0 {
			maxTokens = 256
		}
		return openai_provider.NewOpenAIClient(opts.APIKey, model, opts.Temperature, maxTokens, timeout), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
