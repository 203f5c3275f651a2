package vision

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// ExcerptGenerator asks the text model to synthesize a page-length excerpt
// consistent with a book's description. Output is never verbatim text and
// must be labeled as generated by callers.
type ExcerptGenerator struct {
	model  ContentModel
	logger *zap.Logger
}

func NewExcerptGenerator(model ContentModel, logger *zap.Logger) *ExcerptGenerator {
	return &ExcerptGenerator{model: model, logger: logger}
}

func (g *ExcerptGenerator) Excerpt(ctx context.Context, title, author, description string, fiction bool, page int) (string, error) {
	kind := "non-fiction book"
	if fiction {
		kind = "novel"
	}
	prompt := fmt.Sprintf(
		`Write a plausible page %d of the %s %q by %s, in the author's style, `+
			`consistent with this description:

%s

Return roughly 300 words of page text only, with paragraph breaks and no commentary.`,
		page, kind, title, author, description)

	resp, err := g.model.GenerateContent(ctx, []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}, llms.WithMaxTokens(1024))
	if err != nil {
		return "", fmt.Errorf("excerpt generation failed: %w", err)
	}

	text, err := firstChoice(resp)
	if err != nil {
		return "", err
	}

	g.logger.Debug("generated excerpt",
		zap.String("title", title),
		zap.Int("chars", len(text)))
	return text, nil
}
