// Package flickr reads photo metadata from the Flickr REST API and
// recognises Flickr URLs.
package flickr
