package wikitext

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const flickrPage = `== {{int:filedesc}} ==
{{Information
|description={{en|1=A red fox}}
|date=2019-05-04 10:11:12
|source=https://www.flickr.com/photos/example/1234567890/
|author=[https://www.flickr.com/people/example Jane Doe]
}}

== {{int:license-header}} ==
{{cc-by-2.0}}
{{FlickreviewR |status=passed |author=Jane Doe |sourceurl=https://www.flickr.com/photos/example/1234567890 |reviewdate=2023-01-02 |reviewlicense=cc-by-2.0 |reviewer=FlickreviewR 2}}
<!-- {{FlickreviewR|sourceurl=https://example.org/commented}} -->
[[Category:Foxes]]`

// TestTemplates tests template extraction order and parameter parsing.
func TestTemplates(t *testing.T) {
	t.Parallel()

	doc := Parse(flickrPage)

	var names []string
	for _, tmpl := range doc.Templates() {
		names = append(names, tmpl.Name)
	}

	want := []string{"Information", "en", "cc-by-2.0", "FlickreviewR"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("template names mismatch (-want +got):\n%s", diff)
	}

	review := doc.TemplatesNamed("FlickreviewR")
	if len(review) != 1 {
		t.Fatalf("expected one FlickreviewR template, got %d", len(review))
	}

	url, ok := review[0].Get("sourceurl")
	if !ok || url != "https://www.flickr.com/photos/example/1234567890" {
		t.Errorf("sourceurl = %q, %v", url, ok)
	}
	if got := review[0].Values("sourceurl"); len(got) != 1 {
		t.Errorf("expected one sourceurl value, got %v", got)
	}
}

// TestTemplatesNamed tests name normalisation.
func TestTemplatesNamed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		query []string
		want  int
	}{
		{name: "first letter is case-insensitive", text: "{{iNaturalistreview|status=pass}}", query: []string{"INaturalistreview"}, want: 1},
		{name: "underscores match spaces", text: "{{Complex_date|ca|1900}}", query: []string{"complex date"}, want: 1},
		{name: "template namespace prefix is ignored", text: "{{Template:Photograph|date=1950}}", query: []string{"Photograph"}, want: 1},
		{name: "later letters are case-sensitive", text: "{{YoutubeReview|id=x}}", query: []string{"YouTubeReview"}, want: 0},
		{name: "several names", text: "{{Photograph}}{{Book}}{{Other}}", query: []string{"Photograph", "Book"}, want: 2},
		{name: "parser functions are not templates", text: "{{#if:x|y}}{{subst:foo}}", query: []string{"#if", "Foo"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Parse(tt.text).TemplatesNamed(tt.query...)
			if len(got) != tt.want {
				t.Errorf("got %d templates, want %d", len(got), tt.want)
			}
		})
	}
}

// TestTemplateParams tests positional, named and nested parameters.
func TestTemplateParams(t *testing.T) {
	t.Parallel()

	doc := Parse(`{{Photograph
 |date = {{complex date|ca|1944}}
 |source=[[Special:Link|a=b]] https://usace.contentdm.oclc.org/digital/collection/p16021coll3/id/42
 |dup=first
 |dup=second
 |positional
 |   another   }}`)

	tmpl := doc.TemplatesNamed("Photograph")
	if len(tmpl) != 1 {
		t.Fatalf("expected one Photograph template, got %d", len(tmpl))
	}

	want := []Param{
		{Name: "date", Value: "{{complex date|ca|1944}}"},
		{Name: "source", Value: "[[Special:Link|a=b]] https://usace.contentdm.oclc.org/digital/collection/p16021coll3/id/42"},
		{Name: "dup", Value: "first"},
		{Name: "dup", Value: "second"},
		{Name: "1", Value: "positional"},
		{Name: "2", Value: "another"},
	}
	if diff := cmp.Diff(want, tmpl[0].Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}

	if v, _ := tmpl[0].Get("dup"); v != "second" {
		t.Errorf("Get(dup) = %q, want last value", v)
	}
	if tmpl[0].Has("missing") {
		t.Error("Has(missing) should be false")
	}
}

// TestParseIgnoresInertMarkup tests comments, nowiki and template arguments.
func TestParseIgnoresInertMarkup(t *testing.T) {
	t.Parallel()

	doc := Parse("<!-- {{Hidden}} --><nowiki>{{Escaped}}</nowiki><nowiki/>{{{arg|{{Default}}}}}{{Visible|a=<!-- x -->b}}")

	var names []string
	for _, tmpl := range doc.Templates() {
		names = append(names, tmpl.Name)
	}
	if diff := cmp.Diff([]string{"Visible"}, names); diff != "" {
		t.Errorf("template names mismatch (-want +got):\n%s", diff)
	}

	if v, _ := doc.Templates()[0].Get("a"); v != "b" {
		t.Errorf("comment inside value not removed: %q", v)
	}
}

// TestParseUnbalanced tests that unbalanced braces do not panic.
func TestParseUnbalanced(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "{{", "}}", "{{a|b", "a}}b{{c}}", "<!-- unterminated", "<nowiki>{{x}}"}
	for _, in := range inputs {
		_ = Parse(in).Templates()
	}

	if got := Parse("a}}b{{c}}").TemplatesNamed("C"); len(got) != 1 {
		t.Errorf("expected one template after stray braces, got %d", len(got))
	}
}

// TestNormalizeName tests template name normalisation.
func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  flickreviewR ":         "FlickreviewR",
		"complex_date":            "Complex date",
		"Template:Information":    "Information",
		"iNaturalist":             "INaturalist",
		"":                        "",
		"élan":                    "Élan",
		"Multiple   inner spaces": "Multiple inner spaces",
	}

	for in, want := range tests {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
