// Package history stores the outcome of every processed page in a local
// SQLite database so that past runs can be inspected with
// "wikibots history".
//
// The schema is managed with goose migrations embedded in the binary.
// Queries are built with squirrel.
package history
