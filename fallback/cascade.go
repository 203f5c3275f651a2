package fallback

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"bookpeek/archive"
	"bookpeek/books"
)

// PageTextSource is the provider's direct page-content API, when exposed.
type PageTextSource interface {
	PageText(ctx context.Context, volumeID string, page int) (string, error)
}

// ArchiveSource resolves and fetches full plain-text transcripts.
type ArchiveSource interface {
	ResolveIdentifier(ctx context.Context, isbn string) (string, error)
	FetchFullText(ctx context.Context, identifier string) (string, error)
}

// ExcerptSource synthesizes a page-length excerpt from a description.
type ExcerptSource interface {
	Excerpt(ctx context.Context, title, author, description string, fiction bool, page int) (string, error)
}

// Cascade tries alternative text sources in priority order and returns the
// first non-empty result. A strict waterfall: once a method yields text, no
// later method runs. Individual method errors degrade to the next method;
// only total exhaustion produces the templated unavailable message.
type Cascade struct {
	pages   PageTextSource
	archive ArchiveSource
	excerpt ExcerptSource
	logger  *zap.Logger
}

func NewCascade(pages PageTextSource, arc ArchiveSource, excerpt ExcerptSource, logger *zap.Logger) *Cascade {
	return &Cascade{
		pages:   pages,
		archive: arc,
		excerpt: excerpt,
		logger:  logger,
	}
}

// Retrieve returns text and the provenance label of the method that
// produced it. It never fails: the final rung is the unavailable message.
func (c *Cascade) Retrieve(ctx context.Context, identity books.BookIdentity) (string, string) {
	if text := c.tryProviderPage(ctx, identity); text != "" {
		return text, SourceProviderPageText
	}
	if text := c.tryArchive(ctx, identity); text != "" {
		return text, SourceArchiveFullText
	}
	if text := c.tryGenerated(ctx, identity); text != "" {
		return text, SourceAIGeneratedExcerpt
	}
	if text := c.trySnippet(identity); text != "" {
		return text, SourceBibliographicSnippet
	}
	return UnavailableMessage(identity), SourceUnavailable
}

func (c *Cascade) tryProviderPage(ctx context.Context, identity books.BookIdentity) string {
	if c.pages == nil || identity.ProviderID == "" || !identity.PreviewAvailable {
		return ""
	}

	text, err := c.pages.PageText(ctx, identity.ProviderID, identity.TargetPage())
	if err != nil {
		c.logger.Debug("provider page text unavailable",
			zap.String("volume_id", identity.ProviderID),
			zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

func (c *Cascade) tryArchive(ctx context.Context, identity books.BookIdentity) string {
	if c.archive == nil || identity.ISBN == "" || !identity.FullViewAvailable {
		return ""
	}

	id, err := c.archive.ResolveIdentifier(ctx, identity.ISBN)
	if err != nil {
		c.logger.Debug("no archive identifier",
			zap.String("isbn", identity.ISBN),
			zap.Error(err))
		return ""
	}

	fullText, err := c.archive.FetchFullText(ctx, id)
	if err != nil {
		c.logger.Debug("archive transcript fetch failed",
			zap.String("identifier", id),
			zap.Error(err))
		return ""
	}

	return archive.SelectWindow(fullText, identity.IsFiction)
}

func (c *Cascade) tryGenerated(ctx context.Context, identity books.BookIdentity) string {
	if c.excerpt == nil || identity.Description == "" {
		return ""
	}

	text, err := c.excerpt.Excerpt(ctx, identity.Title, identity.Author,
		identity.Description, identity.IsFiction, identity.TargetPage())
	if err != nil {
		c.logger.Debug("excerpt generation failed",
			zap.String("title", identity.Title),
			zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

func (c *Cascade) trySnippet(identity books.BookIdentity) string {
	if identity.Snippet == "" {
		return ""
	}
	return StripMarkup(identity.Snippet)
}

// StripMarkup removes HTML tags and decodes entities from a provider
// snippet, which arrives with <b> highlighting and &#39; style entities.
func StripMarkup(snippet string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return strings.TrimSpace(snippet)
	}
	return strings.TrimSpace(doc.Text())
}

// UnavailableMessage is the terminal cascade rung: a templated message
// naming the book and pointing the reader at places that do expose preview
// text.
func UnavailableMessage(identity books.BookIdentity) string {
	var b strings.Builder

	title := identity.Title
	if title == "" {
		title = "this book"
	}
	if identity.Author != "" {
		fmt.Fprintf(&b, "Page text for %q by %s could not be retrieved.", title, identity.Author)
	} else {
		fmt.Fprintf(&b, "Page text for %q could not be retrieved.", title)
	}

	if identity.Description != "" {
		fmt.Fprintf(&b, "\n\nAbout the book: %s", identity.Description)
	}

	if identity.PreviewURL != "" {
		fmt.Fprintf(&b, "\n\nA publisher preview may be available at %s.", identity.PreviewURL)
	}

	b.WriteString("\n\nYou could also try a library copy or a retailer's \"look inside\" feature.")
	return b.String()
}
