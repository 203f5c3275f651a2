package fallback

// Provenance labels. Exactly one is recorded on every ExtractionResult and
// must truthfully name the path that produced the text.
const (
	SourceAutomatedCapture     = "automated-capture"
	SourceProviderPageText     = "provider-page-text"
	SourceArchiveFullText      = "archive-full-text"
	SourceAIGeneratedExcerpt   = "ai-generated-excerpt"
	SourceBibliographicSnippet = "bibliographic-snippet"
	SourceUnavailable          = "unavailable"
)
