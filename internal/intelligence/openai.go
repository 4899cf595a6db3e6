package intelligence

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xaenox/nova-forum/internal/models"
)

type OpenAIConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	MaxTokens         int
	Temperature       float64
	MaxTags           int
	RequestsPerMinute int
}

type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	maxTags     int
	limiter     *rate.Limiter
	logger      *zap.Logger
}

func NewOpenAIProvider(cfg OpenAIConfig, logger *zap.Logger) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxTags:     cfg.MaxTags,
		limiter:     newLimiter(cfg.RequestsPerMinute),
		logger:      logger,
	}
}

var _ Provider = (*OpenAIProvider)(nil)

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.complete(ctx, PersonaPrompt, prompt, nil)
}

func (p *OpenAIProvider) SummarizeAndTag(ctx context.Context, content string) (models.Enrichment, error) {
	format := &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}

	response, err := p.complete(ctx, summaryInstruction, summaryPrompt(content, p.maxTags), format)
	if err != nil {
		return models.Enrichment{}, err
	}

	enrichment, err := parseEnrichment(response, p.maxTags)
	if err != nil {
		p.logger.Warn("Failed to parse GPT response",
			zap.Error(err),
			zap.String("response", response))
		return models.Enrichment{}, err
	}
	return enrichment, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, system, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	if err := throttle(ctx, p.limiter); err != nil {
		return "", err
	}

	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			MaxTokens:      p.maxTokens,
			Temperature:    float32(p.temperature),
			ResponseFormat: format,
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
