package vision

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ContentModel is the slice of the langchaingo model interface this package
// uses. llms.Model satisfies it; tests substitute fakes.
type ContentModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// NewOpenAIModel builds the vision-capable model client used for all three
// call shapes (classify, transcribe, generate).
func NewOpenAIModel(apiKey, model string) (ContentModel, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	return llm, nil
}

func firstChoice(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
