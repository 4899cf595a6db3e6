package intelligence

import (
	"context"
	"strings"

	"github.com/xaenox/nova-forum/internal/models"
)

type topic struct {
	tag      string
	keywords []string
	reply    string
}

// Ordered so that tag output is deterministic
var topics = []topic{
	{"#Saturn", []string{"saturn", "rings"}, "Saturn is truly the jewel of our solar system. Those rings never get old!"},
	{"#Mars", []string{"mars", "red planet"}, "Mars keeps surprising us. What caught your eye about the red planet?"},
	{"#Moon", []string{"moon", "lunar"}, "The Moon rewards every look, especially along the terminator. Great observation!"},
	{"#Comet", []string{"comet"}, "Comets are icy wanderers from the outer solar system. Did you catch a tail?"},
	{"#Nebula", []string{"nebula", "pillars"}, "Nebulae are stellar nurseries. The dust lanes alone tell a whole story."},
	{"#Galaxy", []string{"galaxy", "andromeda", "milky way"}, "Galaxies put our place in the cosmos into perspective. Beautiful find!"},
	{"#JWST", []string{"webb", "jwst"}, "Webb's infrared eyes keep rewriting the textbooks. Which image is your favorite?"},
	{"#BlackHole", []string{"black hole", "event horizon"}, "Black holes are where physics gets wonderfully strange."},
	{"#Exoplanet", []string{"exoplanet", "transit"}, "Every new exoplanet makes the galaxy feel a little less lonely."},
	{"#Telescope", []string{"telescope", "dobsonian", "refractor", "binoculars"}, "Nothing beats first light with a good scope. Clear skies!"},
	{"#Astrophotography", []string{"photo", "image", "exposure", "capture"}, "Astrophotography takes patience. Thanks for sharing the result!"},
}

const (
	defaultReply   = "Fascinating perspective!"
	defaultSummary = "Observation logged."
	defaultTag     = "#Cosmos"
	summaryRunes   = 140
)

// KeywordProvider answers without any network call: hashtags in the text
// plus a table of space topics. Used offline and in tests.
type KeywordProvider struct {
	maxTags int
}

func NewKeywordProvider(maxTags int) *KeywordProvider {
	return &KeywordProvider{maxTags: maxTags}
}

var _ Provider = (*KeywordProvider)(nil)

func (p *KeywordProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lower := strings.ToLower(prompt)
	for _, t := range topics {
		if t.matches(lower) {
			return t.reply, nil
		}
	}
	return defaultReply, nil
}

func (p *KeywordProvider) SummarizeAndTag(ctx context.Context, content string) (models.Enrichment, error) {
	if err := ctx.Err(); err != nil {
		return models.Enrichment{}, err
	}
	tags := p.classify(content)
	if len(tags) == 0 {
		tags = []string{defaultTag}
	}
	return models.Enrichment{
		Summary: summarize(content),
		Tags:    tags,
	}, nil
}

// classify extracts hashtags first, then topic tags, in order of appearance in the table
func (p *KeywordProvider) classify(content string) []string {
	var tags []string
	for _, word := range strings.Fields(content) {
		if strings.HasPrefix(word, "#") {
			tags = append(tags, strings.TrimRight(word, ".,!?;:"))
		}
	}

	lower := strings.ToLower(content)
	for _, t := range topics {
		if t.matches(lower) {
			tags = append(tags, t.tag)
		}
	}
	return normalizeTags(tags, p.maxTags)
}

func (t topic) matches(lower string) bool {
	for _, k := range t.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// summarize keeps the first sentence, shortened to a display-friendly length
func summarize(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return defaultSummary
	}
	if i := strings.IndexAny(content, ".!?"); i >= 0 {
		content = content[:i+1]
	}
	runes := []rune(content)
	if len(runes) > summaryRunes {
		content = strings.TrimSpace(string(runes[:summaryRunes])) + "..."
	}
	return content
}
