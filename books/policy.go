package books

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/kljensen/snowball"
	"gopkg.in/yaml.v3"
)

// ClassificationPolicy decides whether a book is fiction. Implementations
// must be deterministic for a fixed input.
type ClassificationPolicy interface {
	IsFiction(categories []string, title, description string) bool
}

// Vocabulary holds the keyword lists driving the default policy. The zero
// value is unusable; use DefaultVocabulary or LoadVocabulary.
type Vocabulary struct {
	NonFictionCategories []string `yaml:"nonfiction_categories"`
	FictionIndicators    []string `yaml:"fiction_indicators"`
	NonFictionIndicators []string `yaml:"nonfiction_indicators"`
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		NonFictionCategories: []string{
			"biography", "autobiography", "memoir", "history", "science",
			"business", "economics", "self-help", "reference", "cooking",
			"health", "travel", "true crime", "politics", "philosophy",
			"psychology", "religion", "education", "technology", "computers",
			"essays", "nature", "medical", "law", "mathematics",
		},
		FictionIndicators: []string{
			"novel", "story", "tale", "character", "saga", "thriller",
			"romance", "mystery", "adventure", "hero", "heroine", "fantasy",
			"love", "murder", "journey", "secret",
		},
		NonFictionIndicators: []string{
			"guide", "learn", "practical", "research", "analysis",
			"explains", "examines", "true", "essay", "study", "expert",
			"strategy", "technique", "lesson", "insight", "evidence",
		},
	}
}

// LoadVocabulary reads keyword overrides from a YAML file. Lists omitted in
// the file keep their defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	vocab := DefaultVocabulary()

	data, err := os.ReadFile(path)
	if err != nil {
		return vocab, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var override Vocabulary
	if err := yaml.Unmarshal(data, &override); err != nil {
		return vocab, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	if len(override.NonFictionCategories) > 0 {
		vocab.NonFictionCategories = override.NonFictionCategories
	}
	if len(override.FictionIndicators) > 0 {
		vocab.FictionIndicators = override.FictionIndicators
	}
	if len(override.NonFictionIndicators) > 0 {
		vocab.NonFictionIndicators = override.NonFictionIndicators
	}
	return vocab, nil
}

var howToTitle = regexp.MustCompile(`(?i)^(how to|the art of|a guide to|guide to)\b|(\bhandbook|\bmanual|for dummies)$`)

// KeywordPolicy classifies fiction/non-fiction from provider category tags,
// falling back to a weighted vocabulary score over description and title
// when no tags are present. Ties default to fiction.
type KeywordPolicy struct {
	vocab Vocabulary
}

func NewKeywordPolicy(vocab Vocabulary) *KeywordPolicy {
	return &KeywordPolicy{vocab: vocab}
}

func (p *KeywordPolicy) IsFiction(categories []string, title, description string) bool {
	if len(categories) > 0 {
		for _, cat := range categories {
			lower := strings.ToLower(cat)
			for _, kw := range p.vocab.NonFictionCategories {
				if strings.Contains(lower, kw) {
					return false
				}
			}
		}
		return true
	}

	fictionScore := countIndicators(description, p.vocab.FictionIndicators)
	nonFictionScore := countIndicators(description, p.vocab.NonFictionIndicators)

	if howToTitle.MatchString(strings.TrimSpace(title)) {
		nonFictionScore += 3
	}
	if len(strings.Fields(title)) <= 3 && title != "" {
		fictionScore += 1
	}

	return fictionScore >= nonFictionScore
}

// countIndicators counts stemmed keyword occurrences in text. Stemming both
// sides lets "stories" match "story" and "explained" match "explains".
func countIndicators(text string, keywords []string) int {
	if text == "" {
		return 0
	}

	stemmed := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, `.,;:!?"'()[]`)
		if word == "" {
			continue
		}
		stem, err := snowball.Stem(word, "english", true)
		if err != nil {
			stem = word
		}
		stemmed[stem]++
	}

	score := 0
	for _, kw := range keywords {
		stem, err := snowball.Stem(kw, "english", true)
		if err != nil {
			stem = kw
		}
		score += stemmed[stem]
	}
	return score
}
