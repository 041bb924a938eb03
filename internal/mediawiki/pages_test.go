package mediawiki

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestSearchFollowsContinuation tests paging through search results.
func TestSearchFollowsContinuation(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.on("query:search", func(w http.ResponseWriter, params map[string]string) {
		if params["srsearch"] != "file: incategory:X" || params["srnamespace"] != "6" {
			t.Errorf("unexpected search params %v", params)
		}
		if params["sroffset"] == "" {
			writeJSON(w, map[string]any{
				"continue": map[string]any{"sroffset": 2, "continue": "-||"},
				"query": map[string]any{"search": []map[string]any{
					{"ns": 6, "title": "File:A.jpg", "pageid": 1},
					{"ns": 6, "title": "File:B.jpg", "pageid": 2},
				}},
			})
			return
		}
		if params["sroffset"] != "2" || params["continue"] != "-||" {
			t.Errorf("continuation not forwarded: %v", params)
		}
		writeJSON(w, map[string]any{
			"query": map[string]any{"search": []map[string]any{{"ns": 6, "title": "File:C.jpg", "pageid": 3}}},
		})
	})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv, passwordCreds)

	var titles []string
	for page, err := range c.Search(context.Background(), "file: incategory:X", 6) {
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		titles = append(titles, page.Title)
	}
	if diff := cmp.Diff([]string{"File:A.jpg", "File:B.jpg", "File:C.jpg"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

// TestCategoryMembersStopsEarly tests that breaking out of the loop stops
// further requests.
func TestCategoryMembersStopsEarly(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.on("query:categorymembers", func(w http.ResponseWriter, params map[string]string) {
		if params["cmtitle"] != "Category:Flickr images missing SDC creator" {
			t.Errorf("unexpected cmtitle %q", params["cmtitle"])
		}
		if params["cmcontinue"] != "" {
			t.Error("second page must not be requested")
		}
		writeJSON(w, map[string]any{
			"continue": map[string]any{"cmcontinue": "file|next", "continue": "-||"},
			"query": map[string]any{"categorymembers": []map[string]any{
				{"ns": 6, "title": "File:A.jpg", "pageid": 1},
				{"ns": 6, "title": "File:B.jpg", "pageid": 2},
			}},
		})
	})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv, passwordCreds)
	for page, err := range c.CategoryMembers(context.Background(), "Flickr images missing SDC creator", 6) {
		if err != nil {
			t.Fatalf("CategoryMembers: %v", err)
		}
		if page.MID() != "M1" {
			t.Errorf("unexpected first page %q", page.MID())
		}
		break
	}
}

// TestLoadPage tests page loading.
func TestLoadPage(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.on("query:revisions|categories|imageinfo|info", func(w http.ResponseWriter, params map[string]string) {
		if params["titles"] == "File:Missing.jpg" {
			_, _ = io.WriteString(w, `{"query":{"pages":[{"ns":6,"title":"File:Missing.jpg","missing":true}]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"query":{"pages":[{"pageid":42,"ns":6,"title":"File:Fox.jpg",
			"fullurl":"https://commons.wikimedia.org/wiki/File:Fox.jpg",
			"revisions":[{"slots":{"main":{"contentmodel":"wikitext","content":"{{Information}}"}}}],
			"categories":[{"ns":14,"title":"Category:Foxes"},{"ns":14,"title":"Category:Flickr images reviewed by FlickreviewR 2"}],
			"imageinfo":[{"sha1":"da39a3ee5e6b4b0d3255bfef95601890afd80709"}]}]}}`)
	})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv, passwordCreds)

	page, err := c.LoadPage(context.Background(), "File:Fox.jpg")
	if err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if page.PageID != 42 || page.Text != "{{Information}}" || page.SHA1 != "da39a3ee5e6b4b0d3255bfef95601890afd80709" {
		t.Errorf("unexpected page %+v", page)
	}
	if !page.InCategory("Flickr images reviewed by FlickreviewR 2") {
		t.Errorf("categories not stripped of prefix: %v", page.Categories)
	}
	if page.URL != "https://commons.wikimedia.org/wiki/File:Fox.jpg" || !page.Loaded {
		t.Errorf("unexpected url/loaded: %q %v", page.URL, page.Loaded)
	}

	_, err = c.LoadPage(context.Background(), "File:Missing.jpg")
	if !errors.Is(err, ErrPageNotFound) {
		t.Errorf("expected ErrPageNotFound, got %v", err)
	}
}

// TestLoadPageFollowsCategoryContinuation tests pages with many categories.
func TestLoadPageFollowsCategoryContinuation(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.on("query:revisions|categories|imageinfo|info", func(w http.ResponseWriter, params map[string]string) {
		if params["clcontinue"] == "" {
			_, _ = io.WriteString(w, `{"continue":{"clcontinue":"42|Foxes","continue":"||revisions|imageinfo|info"},
				"query":{"pages":[{"pageid":42,"ns":6,"title":"File:Fox.jpg",
				"fullurl":"https://commons.wikimedia.org/wiki/File:Fox.jpg",
				"revisions":[{"slots":{"main":{"content":"{{Information}}"}}}],
				"categories":[{"ns":14,"title":"Category:Animals"}],
				"imageinfo":[{"sha1":"da39a3ee5e6b4b0d3255bfef95601890afd80709"}]}]}}`)
			return
		}
		if params["clcontinue"] != "42|Foxes" || params["continue"] != "||revisions|imageinfo|info" {
			t.Errorf("continuation not forwarded: %v", params)
		}
		_, _ = io.WriteString(w, `{"query":{"pages":[{"pageid":42,"ns":6,"title":"File:Fox.jpg",
			"categories":[{"ns":14,"title":"Category:Flickr images reviewed by FlickreviewR 2"}]}]}}`)
	})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv, passwordCreds)

	page, err := c.LoadPage(context.Background(), "File:Fox.jpg")
	if err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	want := []string{"Animals", "Flickr images reviewed by FlickreviewR 2"}
	if diff := cmp.Diff(want, page.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if page.Text != "{{Information}}" || page.SHA1 != "da39a3ee5e6b4b0d3255bfef95601890afd80709" {
		t.Errorf("first response fields lost: %+v", page)
	}
}

// TestContributorsAndOldestRevision tests history queries.
func TestContributorsAndOldestRevision(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.on("query:contributors", func(w http.ResponseWriter, params map[string]string) {
		if params["pccontinue"] == "" {
			_, _ = io.WriteString(w, `{"continue":{"pccontinue":"42|7","continue":"||"},"query":{"pages":[{"pageid":42,"ns":6,"title":"File:Fox.jpg","contributors":[{"userid":1,"name":"Alice"}]}]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"query":{"pages":[{"pageid":42,"ns":6,"title":"File:Fox.jpg","contributors":[{"userid":7,"name":"CuratorBot"}]}]}}`)
	})
	api.on("query:revisions", func(w http.ResponseWriter, params map[string]string) {
		if params["rvdir"] != "newer" || params["rvlimit"] != "1" {
			t.Errorf("unexpected revision params %v", params)
		}
		_, _ = io.WriteString(w, `{"query":{"pages":[{"pageid":42,"ns":6,"title":"File:Fox.jpg","revisions":[{"user":"CuratorBot"}]}]}}`)
	})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv, passwordCreds)

	names, err := c.Contributors(context.Background(), "File:Fox.jpg")
	if err != nil {
		t.Fatalf("Contributors: %v", err)
	}
	if diff := cmp.Diff([]string{"Alice", "CuratorBot"}, names); diff != "" {
		t.Errorf("contributors mismatch (-want +got):\n%s", diff)
	}

	user, err := c.OldestRevisionUser(context.Background(), "File:Fox.jpg")
	if err != nil {
		t.Fatalf("OldestRevisionUser: %v", err)
	}
	if user != "CuratorBot" {
		t.Errorf("unexpected user %q", user)
	}
}
