package books

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeLookup struct {
	isbnCalls   []string
	searchCalls []string
	isbnVolume  *Volume
	isbnErr     error
	searchVol   *Volume
	searchErr   error
}

func (f *fakeLookup) LookupISBN(_ context.Context, isbn string) (*Volume, error) {
	f.isbnCalls = append(f.isbnCalls, isbn)
	return f.isbnVolume, f.isbnErr
}

func (f *fakeLookup) Search(_ context.Context, query string) (*Volume, error) {
	f.searchCalls = append(f.searchCalls, query)
	return f.searchVol, f.searchErr
}

func newTestResolver(lookup Lookup) *Resolver {
	return NewResolver(lookup, NewKeywordPolicy(DefaultVocabulary()), zap.NewNop())
}

func TestResolver_ISBNBeforeSearch(t *testing.T) {
	lookup := &fakeLookup{
		isbnVolume: &Volume{
			ID:          "vol1",
			Title:       "Dune",
			Authors:     []string{"Frank Herbert"},
			Categories:  []string{"Fiction", "Science Fiction"},
			ISBN:        "9780441013593",
			Embeddable:  true,
			Viewability: "PARTIAL",
		},
	}
	resolver := newTestResolver(lookup)

	identity := resolver.Resolve(context.Background(), Guess{
		Title:  "Dune",
		Author: "Frank Herbert",
		ISBN:   "9780441013593",
	})

	if len(lookup.isbnCalls) != 1 {
		t.Fatalf("expected 1 ISBN lookup, got %d", len(lookup.isbnCalls))
	}
	if len(lookup.searchCalls) != 0 {
		t.Fatalf("expected no search after ISBN hit, got %d", len(lookup.searchCalls))
	}
	if identity.ProviderID != "vol1" {
		t.Errorf("ProviderID = %q, want vol1", identity.ProviderID)
	}
	if !identity.IsFiction {
		t.Error("Dune with Fiction tags should classify as fiction")
	}
	if !identity.PreviewAvailable {
		t.Error("embeddable partial-view volume should have PreviewAvailable")
	}
}

func TestResolver_ISBNMissFallsToSearch(t *testing.T) {
	lookup := &fakeLookup{
		isbnErr: errors.New("no volumes matched"),
		searchVol: &Volume{
			ID:         "vol2",
			Title:      "The Power Broker",
			Authors:    []string{"Robert Caro"},
			Categories: []string{"Biography & Autobiography"},
		},
	}
	resolver := newTestResolver(lookup)

	identity := resolver.Resolve(context.Background(), Guess{
		Title:  "The Power Broker",
		Author: "Robert Caro",
		ISBN:   "9780394720241",
	})

	if len(lookup.isbnCalls) != 1 || len(lookup.searchCalls) != 1 {
		t.Fatalf("expected ISBN lookup then search, got %d/%d",
			len(lookup.isbnCalls), len(lookup.searchCalls))
	}
	if identity.IsFiction {
		t.Error("Biography tag should classify as non-fiction")
	}
	if identity.ISBN != "9780394720241" {
		t.Errorf("guessed ISBN should survive when volume has none, got %q", identity.ISBN)
	}
}

func TestResolver_QueryBuilding(t *testing.T) {
	testCases := []struct {
		name      string
		guess     Guess
		wantQuery string
	}{
		{
			name:      "TitleAndAuthor",
			guess:     Guess{Title: "Dune", Author: "Frank Herbert"},
			wantQuery: "intitle:Dune inauthor:Frank Herbert",
		},
		{
			name:      "UnknownAuthorExcluded",
			guess:     Guess{Title: "Dune", Author: "Unknown"},
			wantQuery: "intitle:Dune",
		},
		{
			name:      "EmptyAuthorExcluded",
			guess:     Guess{Title: "Dune"},
			wantQuery: "intitle:Dune",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lookup := &fakeLookup{searchErr: errors.New("miss")}
			resolver := newTestResolver(lookup)

			resolver.Resolve(context.Background(), tc.guess)

			if len(lookup.searchCalls) != 1 {
				t.Fatalf("expected 1 search, got %d", len(lookup.searchCalls))
			}
			if lookup.searchCalls[0] != tc.wantQuery {
				t.Errorf("query = %q, want %q", lookup.searchCalls[0], tc.wantQuery)
			}
		})
	}
}

func TestResolver_TotalMissDegradesToDefaults(t *testing.T) {
	lookup := &fakeLookup{
		isbnErr:   errors.New("miss"),
		searchErr: errors.New("miss"),
	}
	resolver := newTestResolver(lookup)

	identity := resolver.Resolve(context.Background(), Guess{
		Title:  "Obscure Title",
		Author: "Nobody",
		ISBN:   "0000000000",
	})

	if identity.Title != "Obscure Title" || identity.Author != "Nobody" {
		t.Errorf("best-effort identity should keep guessed fields, got %+v", identity)
	}
	if identity.ProviderID != "" {
		t.Errorf("ProviderID should be unset on total miss, got %q", identity.ProviderID)
	}
	if !identity.IsFiction {
		t.Error("total miss should default to fiction")
	}
	if identity.PreviewAvailable {
		t.Error("total miss should not report preview availability")
	}
}

func TestResolver_NoTitleNoISBNSkipsLookups(t *testing.T) {
	lookup := &fakeLookup{}
	resolver := newTestResolver(lookup)

	resolver.Resolve(context.Background(), Guess{Author: "Somebody"})

	if len(lookup.isbnCalls) != 0 || len(lookup.searchCalls) != 0 {
		t.Errorf("no lookups expected without title or ISBN, got %d/%d",
			len(lookup.isbnCalls), len(lookup.searchCalls))
	}
}

func TestBookIdentity_TargetPage(t *testing.T) {
	if (BookIdentity{IsFiction: true}).TargetPage() != 2 {
		t.Error("fiction target page should be 2")
	}
	if (BookIdentity{IsFiction: false}).TargetPage() != 1 {
		t.Error("non-fiction target page should be 1")
	}
}
