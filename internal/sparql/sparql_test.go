package sparql

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestItemsByExternalID tests the generated query and result parsing.
func TestItemsByExternalID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != `SELECT ?item WHERE { ?item wdt:P3151 "42069" . }` {
			t.Errorf("unexpected query %q", got)
		}
		if r.Header.Get("User-Agent") != "TestBot / Wikimedia Commons" {
			t.Errorf("unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = io.WriteString(w, `{"head":{"vars":["item"]},"results":{"bindings":[
			{"item":{"type":"uri","value":"http://www.wikidata.org/entity/Q25351"}},
			{"item":{"type":"literal","value":"ignored"}}
		]}}`)
	}))
	t.Cleanup(srv.Close)

	c := New("TestBot / Wikimedia Commons",
		WithEndpoint(srv.URL),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	items, err := c.ItemsByExternalID(context.Background(), "P3151", "42069")
	if err != nil {
		t.Fatalf("ItemsByExternalID: %v", err)
	}
	if diff := cmp.Diff([]string{"Q25351"}, items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

// TestQueryHTTPError tests non-2xx responses.
func TestQueryHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	if _, err := New("ua", WithEndpoint(srv.URL)).Query(context.Background(), "SELECT * {}"); err == nil {
		t.Error("expected error")
	}
}

// TestQuote tests literal escaping.
func TestQuote(t *testing.T) {
	t.Parallel()

	if got := quote(`a"b\c`); got != `"a\"b\\c"` {
		t.Errorf("got %s", got)
	}
}
