package model

import (
	"slices"
	"strconv"
	"strings"
)

// NamespaceFile is the MediaWiki namespace of file description pages.
const NamespaceFile = 6

// Page is a file description page on Wikimedia Commons.
// Generators fill PageID, Title and Namespace. The remaining fields are
// filled when the page is loaded.
type Page struct {
	// PageID is the MediaWiki page id. The structured data entity of a
	// file page is "M" followed by this id.
	PageID int64 `json:"page_id"`

	// Title is the full page title including the namespace prefix,
	// e.g. "File:Red fox.jpg".
	Title string `json:"title"`

	// Namespace is the MediaWiki namespace number.
	Namespace int `json:"namespace"`

	// URL is the canonical URL of the page.
	URL string `json:"url,omitempty"`

	// Text is the wikitext of the latest revision.
	Text string `json:"-"`

	// Categories lists the categories of the page without the
	// "Category:" prefix.
	Categories []string `json:"categories,omitempty"`

	// SHA1 is the hex SHA-1 of the current file version.
	SHA1 string `json:"sha1,omitempty"`

	// Loaded reports whether the page content has been fetched.
	Loaded bool `json:"-"`
}

// MID returns the media info entity id of the page, e.g. "M12345".
func (p *Page) MID() string {
	return "M" + strconv.FormatInt(p.PageID, 10)
}

// InCategory reports whether the page is a member of category.
// The "Category:" prefix is optional and underscores match spaces.
func (p *Page) InCategory(category string) bool {
	want := normalizeCategory(category)
	return slices.ContainsFunc(p.Categories, func(c string) bool {
		return normalizeCategory(c) == want
	})
}

func normalizeCategory(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	return strings.TrimPrefix(name, "Category:")
}
