package wikitext

import (
	"regexp"
	"strings"
)

// urlPattern matches http(s) URLs as MediaWiki recognises them in free text
// and inside external link brackets.
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s\[\]<>"{}|]+`)

// ExternalLinks returns the distinct http(s) URLs found anywhere in the
// document, including template parameters, in order of first appearance.
// Bracketed links ([url label]) contribute their URL only. Trailing
// punctuation that MediaWiki excludes from free links is dropped.
func (d *Document) ExternalLinks() []string {
	seen := make(map[string]struct{})
	var links []string
	for _, loc := range urlPattern.FindAllStringIndex(d.masked, -1) {
		link := trimLink(d.masked[loc[0]:loc[1]])
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

func trimLink(link string) string {
	// Bold and italic markup glued to a free link.
	if i := strings.Index(link, "''"); i >= 0 {
		link = link[:i]
	}
trim:
	for link != "" {
		last := link[len(link)-1]
		switch last {
		case '.', ',', ';', ':', '!', '?', '\'':
			link = link[:len(link)-1]
			continue
		case ')':
			if !strings.Contains(link, "(") {
				link = link[:len(link)-1]
				continue
			}
		}
		break trim
	}
	return link
}
