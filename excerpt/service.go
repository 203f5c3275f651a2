package excerpt

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookpeek/books"
	"bookpeek/fallback"
	"bookpeek/locator"
)

// ExtractionResult is the one terminal artifact per request. SourceLabel
// truthfully names the path that produced Text.
type ExtractionResult struct {
	Text        string             `json:"text"`
	SourceLabel string             `json:"source_label"`
	Title       string             `json:"title"`
	Author      string             `json:"author"`
	ISBN        string             `json:"isbn,omitempty"`
	IsFiction   bool               `json:"is_fiction"`
	PreviewURL  string             `json:"preview_url,omitempty"`
	Book        books.BookIdentity `json:"-"`
}

// IdentityResolver produces a canonical identity from a guess; it degrades
// instead of erroring.
type IdentityResolver interface {
	Resolve(ctx context.Context, guess books.Guess) books.BookIdentity
}

// PageLocator runs the bounded viewer loop.
type PageLocator interface {
	Locate(ctx context.Context, requestID string, identity books.BookIdentity) locator.Result
}

// Transcriber turns one captured page image into verbatim text.
type Transcriber interface {
	Transcribe(ctx context.Context, image []byte) (string, error)
}

// TextCascade supplies text when automation is unavailable or came up
// empty.
type TextCascade interface {
	Retrieve(ctx context.Context, identity books.BookIdentity) (text, label string)
}

// Service wires resolution, the locator loop, transcription, and the
// fallback cascade into the single LocateAndExtract operation.
type Service struct {
	resolver    IdentityResolver
	locator     PageLocator
	transcriber Transcriber
	cascade     TextCascade
	textOnly    bool
	logger      *zap.Logger
}

// NewService builds the orchestrator. textOnly disables the browser-driven
// path entirely; the cascade then serves every request.
func NewService(resolver IdentityResolver, loc PageLocator, transcriber Transcriber, cascade TextCascade, textOnly bool, logger *zap.Logger) *Service {
	return &Service{
		resolver:    resolver,
		locator:     loc,
		transcriber: transcriber,
		cascade:     cascade,
		textOnly:    textOnly,
		logger:      logger,
	}
}

// LocateAndExtract resolves the guess, drives the preview viewer toward the
// first content page, transcribes the capture, and falls back through the
// cascade when automation is unavailable or yields nothing. It always
// returns a well-formed result; expected degraded outcomes are values, not
// errors.
func (s *Service) LocateAndExtract(ctx context.Context, guess books.Guess) ExtractionResult {
	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", requestID))

	identity := s.resolver.Resolve(ctx, guess)
	logger.Info("identity resolved",
		zap.String("title", identity.Title),
		zap.String("volume_id", identity.ProviderID),
		zap.Bool("is_fiction", identity.IsFiction),
		zap.Bool("preview_available", identity.PreviewAvailable))

	if s.canAutomate(identity) {
		res := s.locator.Locate(ctx, requestID, identity)
		logger.Info("locator finished",
			zap.Stringer("status", res.Status),
			zap.Int("attempts", res.Attempts))

		if res.Status == locator.StatusFound {
			text := s.transcribePages(ctx, logger, []locator.Screenshot{*res.Page})
			if text != "" {
				return s.result(identity, text, fallback.SourceAutomatedCapture)
			}
			logger.Warn("transcription yielded nothing, falling back")
		}
	}

	text, label := s.cascade.Retrieve(ctx, identity)
	logger.Info("cascade produced text",
		zap.String("source", label),
		zap.Int("chars", len(text)))
	return s.result(identity, text, label)
}

func (s *Service) canAutomate(identity books.BookIdentity) bool {
	return !s.textOnly &&
		s.locator != nil &&
		identity.ProviderID != "" &&
		identity.PreviewAvailable
}

// transcribePages extracts each captured page, concatenating with an
// ordinal separator. A page whose transcription fails is logged and
// skipped; partial success is still success.
func (s *Service) transcribePages(ctx context.Context, logger *zap.Logger, pages []locator.Screenshot) string {
	var parts []string
	for _, page := range pages {
		text, err := s.transcriber.Transcribe(ctx, page.Image)
		if err != nil {
			logger.Warn("page transcription failed, skipping",
				zap.Int("ordinal", page.Ordinal),
				zap.Error(err))
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if len(pages) > 1 {
			parts = append(parts, fmt.Sprintf("[page %d]\n%s", page.Ordinal, text))
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (s *Service) result(identity books.BookIdentity, text, label string) ExtractionResult {
	return ExtractionResult{
		Text:        text,
		SourceLabel: label,
		Title:       identity.Title,
		Author:      identity.Author,
		ISBN:        identity.ISBN,
		IsFiction:   identity.IsFiction,
		PreviewURL:  identity.PreviewURL,
		Book:        identity,
	}
}
