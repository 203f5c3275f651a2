package excerpt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"bookpeek/books"
	"bookpeek/fallback"
	"bookpeek/locator"
)

type fakeResolver struct {
	identity books.BookIdentity
}

func (f *fakeResolver) Resolve(_ context.Context, _ books.Guess) books.BookIdentity {
	return f.identity
}

type fakeLocator struct {
	result locator.Result
	calls  int
}

func (f *fakeLocator) Locate(_ context.Context, _ string, _ books.BookIdentity) locator.Result {
	f.calls++
	return f.result
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeCascade struct {
	text  string
	label string
	calls int
}

func (f *fakeCascade) Retrieve(_ context.Context, identity books.BookIdentity) (string, string) {
	f.calls++
	if f.label == fallback.SourceUnavailable {
		return fallback.UnavailableMessage(identity), f.label
	}
	return f.text, f.label
}

func previewable() books.BookIdentity {
	return books.BookIdentity{
		Title:            "Dune",
		Author:           "Frank Herbert",
		ProviderID:       "vol1",
		IsFiction:        true,
		PreviewAvailable: true,
	}
}

func foundResult() locator.Result {
	return locator.Result{
		Status: locator.StatusFound,
		Page:   &locator.Screenshot{Ordinal: 4, Image: []byte("img")},
	}
}

func TestLocateAndExtract_AutomatedCapture(t *testing.T) {
	loc := &fakeLocator{result: foundResult()}
	transcriber := &fakeTranscriber{text: "Arrakis. Dune. Desert planet."}
	cascade := &fakeCascade{text: "fallback", label: fallback.SourceBibliographicSnippet}
	svc := NewService(&fakeResolver{identity: previewable()}, loc, transcriber, cascade, false, zap.NewNop())

	result := svc.LocateAndExtract(context.Background(), books.Guess{Title: "Dune"})

	if result.SourceLabel != fallback.SourceAutomatedCapture {
		t.Fatalf("label = %q, want automated capture", result.SourceLabel)
	}
	if result.Text != "Arrakis. Dune. Desert planet." {
		t.Errorf("text = %q", result.Text)
	}
	if cascade.calls != 0 {
		t.Error("cascade must not run after a successful capture")
	}
}

func TestLocateAndExtract_NoPreviewSkipsViewer(t *testing.T) {
	identity := books.BookIdentity{Title: "Obscure Title", Author: "Nobody", IsFiction: true}
	loc := &fakeLocator{result: foundResult()}
	cascade := &fakeCascade{label: fallback.SourceUnavailable}
	svc := NewService(&fakeResolver{identity: identity}, loc, &fakeTranscriber{}, cascade, false, zap.NewNop())

	result := svc.LocateAndExtract(context.Background(), books.Guess{Title: "Obscure Title"})

	if loc.calls != 0 {
		t.Error("locator must not run without a provider id and preview availability")
	}
	if result.SourceLabel != fallback.SourceUnavailable {
		t.Fatalf("label = %q, want unavailable", result.SourceLabel)
	}
	if !strings.Contains(result.Text, "Obscure Title") || !strings.Contains(result.Text, "Nobody") {
		t.Errorf("unavailable message must name the book, got %q", result.Text)
	}
}

func TestLocateAndExtract_ExhaustedFallsBack(t *testing.T) {
	loc := &fakeLocator{result: locator.Result{Status: locator.StatusExhausted, Attempts: 15}}
	cascade := &fakeCascade{text: "snippet text", label: fallback.SourceBibliographicSnippet}
	svc := NewService(&fakeResolver{identity: previewable()}, loc, &fakeTranscriber{}, cascade, false, zap.NewNop())

	result := svc.LocateAndExtract(context.Background(), books.Guess{Title: "Dune"})

	if result.SourceLabel != fallback.SourceBibliographicSnippet {
		t.Fatalf("label = %q, want snippet", result.SourceLabel)
	}
	if cascade.calls != 1 {
		t.Errorf("cascade calls = %d, want 1", cascade.calls)
	}
}

func TestLocateAndExtract_NavigationFailureFallsBack(t *testing.T) {
	loc := &fakeLocator{result: locator.Result{Status: locator.StatusNavigationFailed, Err: errors.New("timeout")}}
	cascade := &fakeCascade{text: "archive text", label: fallback.SourceArchiveFullText}
	svc := NewService(&fakeResolver{identity: previewable()}, loc, &fakeTranscriber{}, cascade, false, zap.NewNop())

	result := svc.LocateAndExtract(context.Background(), books.Guess{Title: "Dune"})

	if result.SourceLabel != fallback.SourceArchiveFullText {
		t.Fatalf("label = %q, want archive", result.SourceLabel)
	}
}

func TestLocateAndExtract_TranscriptionFailureFallsBack(t *testing.T) {
	loc := &fakeLocator{result: foundResult()}
	transcriber := &fakeTranscriber{err: errors.New("model down")}
	cascade := &fakeCascade{text: "generated", label: fallback.SourceAIGeneratedExcerpt}
	svc := NewService(&fakeResolver{identity: previewable()}, loc, transcriber, cascade, false, zap.NewNop())

	result := svc.LocateAndExtract(context.Background(), books.Guess{Title: "Dune"})

	if result.SourceLabel != fallback.SourceAIGeneratedExcerpt {
		t.Fatalf("label = %q, want generated excerpt after transcription failure", result.SourceLabel)
	}
}

func TestLocateAndExtract_TextOnlyModeSkipsViewer(t *testing.T) {
	loc := &fakeLocator{result: foundResult()}
	cascade := &fakeCascade{text: "page text", label: fallback.SourceProviderPageText}
	svc := NewService(&fakeResolver{identity: previewable()}, loc, &fakeTranscriber{text: "x"}, cascade, true, zap.NewNop())

	result := svc.LocateAndExtract(context.Background(), books.Guess{Title: "Dune"})

	if loc.calls != 0 {
		t.Error("text-only mode must never touch the viewer")
	}
	if result.SourceLabel != fallback.SourceProviderPageText {
		t.Fatalf("label = %q, want provider page text", result.SourceLabel)
	}
}

func TestLocateAndExtract_ResultCarriesIdentity(t *testing.T) {
	identity := previewable()
	identity.ISBN = "9780441013593"
	identity.PreviewURL = "https://example.com/preview"
	loc := &fakeLocator{result: foundResult()}
	svc := NewService(&fakeResolver{identity: identity}, loc, &fakeTranscriber{text: "text"}, &fakeCascade{}, false, zap.NewNop())

	result := svc.LocateAndExtract(context.Background(), books.Guess{Title: "Dune"})

	if result.Title != "Dune" || result.Author != "Frank Herbert" {
		t.Errorf("result must carry the resolved identity, got %+v", result)
	}
	if result.ISBN != "9780441013593" {
		t.Errorf("ISBN = %q", result.ISBN)
	}
	if result.PreviewURL != "https://example.com/preview" {
		t.Errorf("PreviewURL = %q", result.PreviewURL)
	}
	if !result.IsFiction {
		t.Error("IsFiction should carry through")
	}
}

func TestTranscribePages_PartialFailure(t *testing.T) {
	// A failing page is skipped; the remaining page still yields text with
	// its ordinal separator.
	calls := 0
	transcriber := transcriberFunc(func(_ context.Context, img []byte) (string, error) {
		calls++
		if string(img) == "bad" {
			return "", errors.New("unreadable")
		}
		return "good text", nil
	})
	svc := NewService(nil, nil, transcriber, nil, false, zap.NewNop())

	text := svc.transcribePages(context.Background(), zap.NewNop(), []locator.Screenshot{
		{Ordinal: 3, Image: []byte("bad")},
		{Ordinal: 4, Image: []byte("ok")},
	})

	if calls != 2 {
		t.Errorf("transcriber calls = %d, want 2", calls)
	}
	if !strings.Contains(text, "[page 4]") || !strings.Contains(text, "good text") {
		t.Errorf("partial result = %q", text)
	}
	if strings.Contains(text, "[page 3]") {
		t.Errorf("failed page must be omitted, got %q", text)
	}
}

type transcriberFunc func(ctx context.Context, image []byte) (string, error)

func (f transcriberFunc) Transcribe(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}
