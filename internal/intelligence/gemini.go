package intelligence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/xaenox/nova-forum/internal/models"
)

type GeminiConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	MaxTokens         int
	Temperature       float64
	MaxTags           int
	RequestsPerMinute int
}

type GeminiProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
	maxTags     int
	limiter     *rate.Limiter
	logger      *zap.Logger
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxTags:     cfg.MaxTags,
		limiter:     newLimiter(cfg.RequestsPerMinute),
		logger:      logger,
	}, nil
}

var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(PersonaPrompt, genai.RoleUser),
		MaxOutputTokens:   int32(p.maxTokens),
		Temperature:       genai.Ptr(float32(p.temperature)),
	}
	return p.generate(ctx, prompt, config)
}

func (p *GeminiProvider) SummarizeAndTag(ctx context.Context, content string) (models.Enrichment, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(summaryInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary": {Type: genai.TypeString},
				"tags":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"summary", "tags"},
		},
	}

	response, err := p.generate(ctx, summaryPrompt(content, p.maxTags), config)
	if err != nil {
		return models.Enrichment{}, err
	}

	enrichment, err := parseEnrichment(response, p.maxTags)
	if err != nil {
		p.logger.Warn("Failed to parse Gemini response",
			zap.Error(err),
			zap.String("response", response))
		return models.Enrichment{}, err
	}
	return enrichment, nil
}

func (p *GeminiProvider) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if err := throttle(ctx, p.limiter); err != nil {
		return "", err
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
