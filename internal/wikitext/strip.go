package wikitext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var wikilinkPattern = regexp.MustCompile(`\[\[(?:[^|\]]*\|)?([^\]]*)\]\]`)

// StripCode reduces a wikitext fragment to plain text. HTML tags and
// comments are dropped, <nowiki> wrappers are removed with their content
// kept, character references are decoded and [[target|label]] links are
// replaced by their label. Whitespace runs collapse to a single space.
func StripCode(s string) string {
	var b strings.Builder

	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(z.Text())
		}
	}

	text := wikilinkPattern.ReplaceAllString(b.String(), "$1")
	return strings.Join(strings.Fields(text), " ")
}
