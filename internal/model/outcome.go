package model

import "strings"

// Outcome describes how the processing of a page ended.
type Outcome string

const (
	// OutcomeEdited means new statements were saved to the file.
	OutcomeEdited Outcome = "edited"

	// OutcomeUnchanged means the page was processed but there was nothing
	// to add.
	OutcomeUnchanged Outcome = "unchanged"

	// OutcomeSkipped means the page did not qualify for processing.
	// Skipped pages are usually remembered in the cache.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeCached means the page was skipped because the cache already
	// knows it.
	OutcomeCached Outcome = "cached"

	// OutcomeFailed means processing or saving failed.
	OutcomeFailed Outcome = "failed"

	// OutcomeDryRun means new statements were computed but not saved.
	OutcomeDryRun Outcome = "dry-run"
)

// Outcomes returns every outcome in display order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeEdited,
		OutcomeDryRun,
		OutcomeUnchanged,
		OutcomeSkipped,
		OutcomeCached,
		OutcomeFailed,
	}
}

// String returns the outcome name.
func (o Outcome) String() string {
	return string(o)
}

// IsValid reports whether o is a known outcome.
func (o Outcome) IsValid() bool {
	for _, known := range Outcomes() {
		if o == known {
			return true
		}
	}
	return false
}

// ParseOutcome parses an outcome name case-insensitively.
// It returns false for unknown names.
func ParseOutcome(s string) (Outcome, bool) {
	o := Outcome(strings.ToLower(strings.TrimSpace(s)))
	if o == "dryrun" || o == "dry_run" {
		o = OutcomeDryRun
	}
	return o, o.IsValid()
}
