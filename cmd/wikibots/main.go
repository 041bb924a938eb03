// Package main provides the entry point for the wikibots CLI.
//
// wikibots adds structured data to Wikimedia Commons files that were
// imported from Flickr, iNaturalist, YouTube, the Portable Antiquities
// Scheme and the USACE digital library.
//
// Usage:
//
//	wikibots flickr
//	wikibots pas --dry --limit 10
//
// The binary may also be installed under a bot's name (for example as a
// symlink called pas), in which case that bot runs directly.
//
// See --help for all available options.
package main

// main is the entry point for wikibots.
func main() {
	Execute()
}
