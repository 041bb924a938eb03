// Package model defines the data structures shared by the bots, the runner,
// the history store and the report writers.
//
// This package contains the following main types:
//   - Page: A Commons file page as loaded from the MediaWiki API
//   - Task: The processing state of one page during a bot run
//   - Outcome: How the processing of a page ended
//   - RunSummary: The aggregated result of a bot run
//
// The models are serializable to JSON for report output and history storage.
package model
