package books

// Guess holds the partially-known book details extracted upstream from a
// cover image. Any field may be empty or the literal "unknown".
type Guess struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// BookIdentity is the canonical identity of a resolved book. It is built
// once by the Resolver and never mutated afterwards.
type BookIdentity struct {
	Title             string
	Author            string
	ISBN              string
	ProviderID        string
	IsFiction         bool
	Description       string
	Snippet           string
	PreviewURL        string
	PreviewAvailable  bool
	FullViewAvailable bool
}

// TargetPage is the preview page the pipeline aims for: fiction skips the
// first content page in favor of the second.
func (b BookIdentity) TargetPage() int {
	if b.IsFiction {
		return 2
	}
	return 1
}
