// Package llm provides the text generation capability through CloudWeGo Eino.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Provider identifies the LLM provider to use.
type Provider string

const (
	// ProviderOpenAI covers OpenAI and any OpenAI-compatible endpoint such as
	// OpenRouter.
	ProviderOpenAI Provider = "openai"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Config holds configuration for creating a chat model.
type Config struct {
	Provider    Provider
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// Generator turns a context (ordered messages) into response text.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message) (string, error)
}

// NewChatModel creates an Eino chat model from the configuration.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("LLM API key is required")
		}
		temp := cfg.Temperature
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: &temp,
			Timeout:     cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: openai)", cfg.Provider)
	}
}

// ChatGenerator adapts an Eino chat model to Generator.
type ChatGenerator struct {
	model   model.BaseChatModel
	timeout time.Duration
}

// NewChatGenerator wraps m. A zero timeout leaves the deadline to the caller's
// context.
func NewChatGenerator(m model.BaseChatModel, timeout time.Duration) *ChatGenerator {
	return &ChatGenerator{model: m, timeout: timeout}
}

func (g *ChatGenerator) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Content), nil
}
