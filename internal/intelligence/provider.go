package intelligence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/xaenox/nova-forum/internal/models"
)

var ErrEmptyResponse = errors.New("provider returned an empty response")

// Provider generates conversational text and post metadata.
// Calls are single-shot: callers decide what to do on failure.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	SummarizeAndTag(ctx context.Context, content string) (models.Enrichment, error)
}

const (
	PersonaPrompt      = `Act as "Nova", a friendly space community moderator. Respond briefly.`
	summaryInstruction = `Extract 3-4 space-themed tags and a one-sentence summary.`
)

// ReplyPrompt asks for a direct answer to a comment left in a thread
func ReplyPrompt(text string) string {
	return fmt.Sprintf(`A user just replied to a thread with: "%s". Please respond directly to this comment as a friendly AI assistant.`, text)
}

func summaryPrompt(content string, maxTags int) string {
	return fmt.Sprintf(`Analyze this forum post: "%s"

Return the response as a JSON object with this structure:
{
    "summary": "one_sentence_summary",
    "tags": ["#Tag1", "#Tag2", ...]
}
Use at most %d tags.`, content, maxTags)
}

type summaryResponse struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// parseEnrichment decodes a model's JSON answer into normalized metadata
func parseEnrichment(raw string, maxTags int) (models.Enrichment, error) {
	var resp summaryResponse
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &resp); err != nil {
		return models.Enrichment{}, fmt.Errorf("failed to parse summary response: %w", err)
	}
	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		return models.Enrichment{}, ErrEmptyResponse
	}
	return models.Enrichment{
		Summary: summary,
		Tags:    normalizeTags(resp.Tags, maxTags),
	}, nil
}

// normalizeTags trims, prefixes with '#', drops duplicates and caps the count
func normalizeTags(tags []string, maxTags int) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(tag), "")
		tag = strings.TrimLeft(tag, "#")
		if tag == "" {
			continue
		}
		tag = "#" + tag
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
		if maxTags > 0 && len(out) == maxTags {
			break
		}
	}
	return out
}

// cleanJSON strips markdown fences models like to wrap JSON in
func cleanJSON(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), max(1, requestsPerMinute/10))
}

func throttle(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("rate limited: %w", err)
	}
	return nil
}
