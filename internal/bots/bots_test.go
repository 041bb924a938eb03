package bots

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/wikibots/internal/cache"
	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/runner"
	"github.com/nao1215/wikibots/internal/wikibase"
	"github.com/nao1215/wikibots/internal/wikitext"
)

// fakeWiki implements Wiki.
type fakeWiki struct {
	username     string
	contributors map[string][]string
	creators     map[string]string
	lastSearch   string
	lastCategory string
}

func (w *fakeWiki) Username() string { return w.username }

func (w *fakeWiki) Search(_ context.Context, query string, _ int) iter.Seq2[*model.Page, error] {
	w.lastSearch = query
	return func(func(*model.Page, error) bool) {}
}

func (w *fakeWiki) CategoryMembers(_ context.Context, category string, _ int) iter.Seq2[*model.Page, error] {
	w.lastCategory = category
	return func(yield func(*model.Page, error) bool) {
		yield(&model.Page{PageID: 1, Title: "File:A.jpg", Namespace: model.NamespaceFile}, nil)
	}
}

func (w *fakeWiki) Contributors(_ context.Context, title string) ([]string, error) {
	return w.contributors[title], nil
}

func (w *fakeWiki) OldestRevisionUser(_ context.Context, title string) (string, error) {
	if u, ok := w.creators[title]; ok {
		return u, nil
	}
	return "", errors.New("no such page")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDeps returns dependencies backed by an in-memory Redis server.
func newTestDeps(t *testing.T, wiki Wiki) (Deps, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := cache.NewRedisStore(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return Deps{Wiki: wiki, Cache: store, Prefix: "test", Logger: discardLogger()}, mr
}

func newTask(text string, categories ...string) *model.Task {
	return model.NewTask("run", "test", &model.Page{
		PageID:     99,
		Title:      "File:Test.jpg",
		Namespace:  model.NamespaceFile,
		Text:       text,
		Categories: categories,
		Loaded:     true,
	})
}

func requireSkip(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, runner.ErrSkip) {
		t.Fatalf("expected a skip, got %v", err)
	}
}

func stringQualifier(t *testing.T, s *wikibase.Statement, property string) string {
	t.Helper()
	qs := s.Qualifiers[property]
	if len(qs) != 1 {
		t.Fatalf("expected one %s qualifier, got %d", property, len(qs))
	}
	v, _ := qs[0].DataValue.AsString()
	return v
}

func statement(t *testing.T, task *model.Task, property string) *wikibase.Statement {
	t.Helper()
	for _, s := range task.NewClaims {
		if s.Property() == property {
			return s
		}
	}
	t.Fatalf("no %s statement queued; have %v", property, task.Properties())
	return nil
}

// TestDefaultPrefix tests historical and derived cache prefixes.
func TestDefaultPrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		NameFlickr:      "xQ6cz5J84Viw/K6FIcOH1kxJjfiS8jO56AoSmhBgO/A=",
		NameINaturalist: "ZHXgxFHT4ZBJjR+fLxCH9quuLYl7ky4N6fNV/oC4fbs=",
		NamePAS:         "pas",
		NameYouTube:     cache.Namespace(NameYouTube),
		NameUSACE:       cache.Namespace(NameUSACE),
	}
	for name, want := range tests {
		if got := DefaultPrefix(name); got != want {
			t.Errorf("DefaultPrefix(%q) = %q, want %q", name, got, want)
		}
	}

	if diff := cmp.Diff([]string{"flickr", "inaturalist", "youtube", "pas", "usace"}, Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

// TestSettingsOverrides tests per-bot overrides of summaries and generators.
func TestSettingsOverrides(t *testing.T) {
	t.Parallel()

	wiki := &fakeWiki{}
	deps := Deps{Wiki: wiki, Logger: discardLogger()}

	pasBot := NewPAS(deps, nil, Settings{Summary: "custom", Search: "file: custom"})
	if pasBot.Summary() != "custom" {
		t.Errorf("summary = %q", pasBot.Summary())
	}
	for range pasBot.Pages(context.Background()) {
	}
	if wiki.lastSearch != "file: custom" {
		t.Errorf("search = %q", wiki.lastSearch)
	}

	usaceBot := NewUSACE(deps, Settings{})
	if usaceBot.Summary() != USACESummary {
		t.Errorf("summary = %q", usaceBot.Summary())
	}
	for range usaceBot.Pages(context.Background()) {
	}
	if wiki.lastSearch != USACESearch {
		t.Errorf("search = %q", wiki.lastSearch)
	}

	flickrBot := NewFlickr(deps, nil, Settings{Category: "Other"})
	for range flickrBot.Pages(context.Background()) {
	}
	if wiki.lastCategory != "Other" {
		t.Errorf("category = %q", wiki.lastCategory)
	}
}

// TestTemplateValue tests that template values are read as plain text.
func TestTemplateValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "plain value", text: "{{YouTubeReview|id=dQw4w9WgXcQ}}", want: "dQw4w9WgXcQ"},
		{name: "commented value", text: "{{YouTubeReview|id=<!-- x -->dQw4w9WgXcQ}}", want: "dQw4w9WgXcQ"},
		{name: "html wrapped value", text: "{{YouTubeReview|id=<span>dQw4w9WgXcQ</span>}}", want: "dQw4w9WgXcQ"},
		{name: "wikilink label", text: "{{YouTubeReview|id=[[Special:Search|dQw4w9WgXcQ]]}}", want: "dQw4w9WgXcQ"},
		{name: "value with only markup", text: "{{YouTubeReview|id=<!-- none -->}}", wantErr: true},
		{name: "missing template", text: "{{Information}}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := templateValue(wikitext.Parse(tt.text), []string{"YouTubeReview"}, "id")
			if tt.wantErr {
				requireSkip(t, err)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
