// Package wikitext extracts templates, template parameters and external
// links from MediaWiki page source.
//
// The parser is deliberately shallow: it understands template
// transclusions ({{...}}), wikilinks ([[...]]), HTML comments and
// <nowiki> sections well enough to read the licence and review templates
// found on Commons file pages. It does not expand templates or evaluate
// parser functions.
package wikitext
