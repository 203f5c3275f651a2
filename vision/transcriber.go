package vision

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const transcribePrompt = `Transcribe the text on this book page exactly as ` +
	`printed. Preserve paragraph breaks. Do not add commentary, headers, or ` +
	`descriptions of the page; return only the verbatim text.`

// PageTranscriber turns captured page images into verbatim text.
type PageTranscriber struct {
	model  ContentModel
	logger *zap.Logger
}

func NewPageTranscriber(model ContentModel, logger *zap.Logger) *PageTranscriber {
	return &PageTranscriber{model: model, logger: logger}
}

func (t *PageTranscriber) Transcribe(ctx context.Context, image []byte) (string, error) {
	resp, err := t.model.GenerateContent(ctx, []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart("image/jpeg", image),
				llms.TextPart(transcribePrompt),
			},
		},
	}, llms.WithMaxTokens(2048))
	if err != nil {
		return "", fmt.Errorf("transcription call failed: %w", err)
	}

	text, err := firstChoice(resp)
	if err != nil {
		return "", err
	}

	t.logger.Debug("transcribed page", zap.Int("chars", len(text)))
	return text, nil
}
