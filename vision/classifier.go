package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const classifyPrompt = `You are looking at one page of a book preview. ` +
	`Answer whether this page is the FIRST page of actual reading content ` +
	`(narrative text or the body of chapter one), as opposed to front matter ` +
	`such as the cover, title page, copyright page, dedication, table of ` +
	`contents, preface, or a blank page. Answer with a single word: YES or NO.`

const affirmativeToken = "YES"

// PageClassifier judges whether a captured page image shows the first page
// of actual reading content. It is a pure predicate over the image; callers
// must tolerate occasional wrong answers.
type PageClassifier struct {
	model  ContentModel
	logger *zap.Logger
}

func NewPageClassifier(model ContentModel, logger *zap.Logger) *PageClassifier {
	return &PageClassifier{model: model, logger: logger}
}

func (c *PageClassifier) IsContentPage(ctx context.Context, image []byte) (bool, error) {
	resp, err := c.model.GenerateContent(ctx, []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart("image/jpeg", image),
				llms.TextPart(classifyPrompt),
			},
		},
	}, llms.WithMaxTokens(10))
	if err != nil {
		return false, fmt.Errorf("classification call failed: %w", err)
	}

	answer, err := firstChoice(resp)
	if err != nil {
		return false, err
	}

	isContent := strings.Contains(strings.ToUpper(answer), affirmativeToken)
	c.logger.Debug("classified page",
		zap.String("answer", strings.TrimSpace(answer)),
		zap.Bool("is_content", isContent))
	return isContent, nil
}
