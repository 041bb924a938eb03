package bots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/wikibots/internal/runner"
	"github.com/nao1215/wikibots/internal/wikibase"
	"github.com/nao1215/wikibots/internal/youtube"
)

// fakeVideos implements VideoSource.
type fakeVideos struct {
	video     *youtube.Video
	err       error
	handle    string
	handleErr error
}

func (f *fakeVideos) Video(context.Context, string) (*youtube.Video, error) {
	return f.video, f.err
}

func (f *fakeVideos) ChannelHandle(context.Context, string) (string, error) {
	return f.handle, f.handleErr
}

// fakeDetector implements youtube.LanguageDetector.
type fakeDetector struct {
	lang string
}

func (f fakeDetector) Detect(string) (string, bool) {
	return f.lang, f.lang != ""
}

const youtubeText = `{{Information|source={{From YouTube|dQw4w9WgXcQ}}}}
{{YouTubeReview|id=dQw4w9WgXcQ|reviewer=Someone|date=2024-01-01}}`

func testVideo() *youtube.Video {
	return &youtube.Video{
		ID:           "dQw4w9WgXcQ",
		Title:        "Never Gonna Give You Up",
		PublishedAt:  time.Date(2009, 10, 25, 6, 57, 33, 0, time.UTC),
		ChannelID:    "UCuAXFkgsw1L7xaCfnd5JJOw",
		ChannelTitle: "Rick Astley",
	}
}

func licenseStatement() *wikibase.Statement {
	s := wikibase.NewStatement(wikibase.NewSnak(wikibase.PropertyCopyrightLicense, wikibase.ItemValue("Q14947546")))
	s.ID = "M99$license"
	return s
}

// TestYouTubeTreat tests the statements queued for a reviewed video.
func TestYouTubeTreat(t *testing.T) {
	t.Parallel()

	bot := NewYouTube(Deps{Logger: discardLogger()},
		&fakeVideos{video: testVideo(), handle: "RickAstleyYT"}, fakeDetector{lang: "en"}, Settings{})

	task := newTask(youtubeText)
	task.Existing[wikibase.PropertyCopyrightLicense] = []*wikibase.Statement{licenseStatement()}

	if err := bot.Treat(context.Background(), task); err != nil {
		t.Fatalf("Treat: %v", err)
	}

	want := []string{
		wikibase.PropertyYouTubeVideoID,
		wikibase.PropertyPublishedIn,
		wikibase.PropertyCreator,
		wikibase.PropertySourceOfFile,
		wikibase.PropertyCopyrightLicense,
	}
	if diff := cmp.Diff(want, task.Properties()); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}

	creator := statement(t, task, wikibase.PropertyCreator)
	if diff := cmp.Diff([]string{wikibase.PropertyAuthorNameString, wikibase.PropertyYouTubeHandle, wikibase.PropertyYouTubeChannelID}, creator.QualifiersOrder); diff != "" {
		t.Errorf("creator qualifiers mismatch (-want +got):\n%s", diff)
	}

	license := statement(t, task, wikibase.PropertyCopyrightLicense)
	if license.ID != "M99$license" {
		t.Errorf("amended license lost its id: %q", license.ID)
	}
	if !license.HasQualifier(wikibase.PropertyTitle) || !license.HasQualifier(wikibase.PropertyAuthorNameString) {
		t.Errorf("license qualifiers = %v", license.QualifiersOrder)
	}
	if task.Existing.Get(wikibase.PropertyCopyrightLicense)[0].HasQualifier(wikibase.PropertyTitle) {
		t.Error("existing statement was modified in place")
	}
}

// TestYouTubeLicenseAmendment tests when the license statement is amended.
func TestYouTubeLicenseAmendment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		licenses  int
		lang      string
		qualified bool
		wantAmend bool
		wantTitle bool
	}{
		{name: "no license", licenses: 0},
		{name: "two licenses", licenses: 2, lang: "en"},
		{name: "language unknown", licenses: 1, wantAmend: true},
		{name: "language detected", licenses: 1, lang: "ja", wantAmend: true, wantTitle: true},
		{name: "already qualified", licenses: 1, lang: "en", qualified: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bot := NewYouTube(Deps{Logger: discardLogger()},
				&fakeVideos{video: testVideo()}, fakeDetector{lang: tt.lang}, Settings{})

			task := newTask(youtubeText)
			for range tt.licenses {
				s := licenseStatement()
				if tt.qualified {
					s.AddQualifier(wikibase.NewSnak(wikibase.PropertyTitle, wikibase.MonolingualValue("x", "en")))
					s.AddQualifier(wikibase.NewSnak(wikibase.PropertyAuthorNameString, wikibase.StringValue("x")))
				}
				task.Existing[wikibase.PropertyCopyrightLicense] = append(task.Existing[wikibase.PropertyCopyrightLicense], s)
			}

			if err := bot.Treat(context.Background(), task); err != nil {
				t.Fatalf("Treat: %v", err)
			}

			var amended *wikibase.Statement
			for _, s := range task.NewClaims {
				if s.Property() == wikibase.PropertyCopyrightLicense {
					amended = s
				}
			}
			if (amended != nil) != tt.wantAmend {
				t.Fatalf("amended = %v, want %v", amended != nil, tt.wantAmend)
			}
			if amended != nil && amended.HasQualifier(wikibase.PropertyTitle) != tt.wantTitle {
				t.Errorf("title qualifier = %v, want %v", amended.HasQualifier(wikibase.PropertyTitle), tt.wantTitle)
			}
		})
	}
}

// TestYouTubeTreatErrors tests skip and transient classification.
func TestYouTubeTreatErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		text          string
		videos        *fakeVideos
		wantSkip      bool
		wantTransient bool
	}{
		{name: "no review template", text: "{{Information}}", videos: &fakeVideos{}, wantSkip: true},
		{name: "video gone", text: youtubeText, videos: &fakeVideos{err: youtube.ErrVideoNotFound}, wantSkip: true},
		{name: "quota exceeded", text: youtubeText, videos: &fakeVideos{err: errors.New("quotaExceeded")}, wantTransient: true},
		{name: "channel lookup failed", text: youtubeText, videos: &fakeVideos{video: testVideo(), handleErr: errors.New("boom")}, wantTransient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bot := NewYouTube(Deps{Logger: discardLogger()}, tt.videos, fakeDetector{}, Settings{})
			err := bot.Treat(context.Background(), newTask(tt.text))

			if got := errors.Is(err, runner.ErrSkip); got != tt.wantSkip {
				t.Errorf("skip = %v, want %v (%v)", got, tt.wantSkip, err)
			}
			if got := errors.Is(err, runner.ErrTransient); got != tt.wantTransient {
				t.Errorf("transient = %v, want %v (%v)", got, tt.wantTransient, err)
			}
		})
	}
}
