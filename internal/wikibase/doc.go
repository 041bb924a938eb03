// Package wikibase models the subset of the Wikibase JSON data model used for
// Structured Data on Commons: snaks, data values, statements and the claim
// collection returned by wbgetentities.
//
// Values are kept as raw JSON so that statements fetched from Commons can be
// amended and resubmitted without losing precision or unknown fields.
package wikibase
