package books

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Resolver turns a noisy identity guess into a canonical BookIdentity. It
// never returns an error: a total lookup miss degrades to a best-effort
// identity built from the guessed fields.
type Resolver struct {
	lookup Lookup
	policy ClassificationPolicy
	logger *zap.Logger
}

func NewResolver(lookup Lookup, policy ClassificationPolicy, logger *zap.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		policy: policy,
		logger: logger,
	}
}

func (r *Resolver) Resolve(ctx context.Context, guess Guess) BookIdentity {
	if guess.ISBN != "" {
		vol, err := r.lookup.LookupISBN(ctx, guess.ISBN)
		if err == nil {
			r.logger.Info("resolved book by ISBN",
				zap.String("isbn", guess.ISBN),
				zap.String("volume_id", vol.ID))
			return r.fromVolume(vol, guess)
		}
		r.logger.Warn("ISBN lookup missed, falling back to search",
			zap.String("isbn", guess.ISBN),
			zap.Error(err))
	}

	query := buildQuery(guess)
	if query != "" {
		vol, err := r.lookup.Search(ctx, query)
		if err == nil {
			r.logger.Info("resolved book by search",
				zap.String("query", query),
				zap.String("volume_id", vol.ID))
			return r.fromVolume(vol, guess)
		}
		r.logger.Warn("search lookup missed",
			zap.String("query", query),
			zap.Error(err))
	}

	// Best-effort identity: no provider record, default to fiction.
	return BookIdentity{
		Title:     guess.Title,
		Author:    guess.Author,
		ISBN:      guess.ISBN,
		IsFiction: true,
	}
}

func (r *Resolver) fromVolume(vol *Volume, guess Guess) BookIdentity {
	title := vol.Title
	if title == "" {
		title = guess.Title
	}
	author := strings.Join(vol.Authors, ", ")
	if author == "" {
		author = guess.Author
	}
	isbn := vol.ISBN
	if isbn == "" {
		isbn = guess.ISBN
	}

	return BookIdentity{
		Title:             title,
		Author:            author,
		ISBN:              isbn,
		ProviderID:        vol.ID,
		IsFiction:         r.policy.IsFiction(vol.Categories, title, vol.Description),
		Description:       vol.Description,
		Snippet:           vol.Snippet,
		PreviewURL:        vol.PreviewURL,
		PreviewAvailable:  vol.Embeddable && vol.Viewability != "NO_PAGES",
		FullViewAvailable: vol.FullViewAvailable,
	}
}

func buildQuery(guess Guess) string {
	title := strings.TrimSpace(guess.Title)
	if title == "" {
		return ""
	}
	query := "intitle:" + title

	author := strings.TrimSpace(guess.Author)
	if author != "" && !strings.EqualFold(author, "unknown") {
		query += " inauthor:" + author
	}
	return query
}
