package model

import (
	"time"

	"github.com/nao1215/wikibots/internal/wikibase"
)

// Task is the processing state of a single page.
// It is created by the runner and passed through each step; handlers
// append statements to NewClaims.
type Task struct {
	// RunID identifies the bot run the task belongs to.
	RunID string `json:"run_id"`

	// Bot is the name of the bot processing the page.
	Bot string `json:"bot"`

	// Page is the file page being processed.
	Page *Page `json:"page"`

	// CacheKey is the skip cache key of the page.
	CacheKey string `json:"-"`

	// Existing holds the statements already present on the file.
	Existing wikibase.ClaimCollection `json:"-"`

	// NewClaims holds the statements to submit, in the order they were
	// added.
	NewClaims []*wikibase.Statement `json:"new_claims,omitempty"`

	// Outcome is set when the task finishes.
	Outcome Outcome `json:"outcome"`

	// Reason explains a skip or failure.
	Reason string `json:"reason,omitempty"`

	// Err is the error that ended the task, if any.
	Err error `json:"-"`

	// Started is when processing began.
	Started time.Time `json:"started"`

	// Duration is the total processing time.
	Duration time.Duration `json:"duration"`
}

// NewTask returns a task for page.
func NewTask(runID, bot string, page *Page) *Task {
	return &Task{
		RunID:    runID,
		Bot:      bot,
		Page:     page,
		Existing: wikibase.ClaimCollection{},
		Started:  time.Now(),
	}
}

// MID returns the media info entity id of the page.
func (t *Task) MID() string {
	return t.Page.MID()
}

// AddClaim queues a statement for submission.
func (t *Task) AddClaim(s *wikibase.Statement) {
	t.NewClaims = append(t.NewClaims, s)
}

// Has reports whether the file already has a statement for property, or
// one is queued. Statements that carry an id are amendments of existing
// statements and do not count as queued.
func (t *Task) Has(property string) bool {
	if t.Existing.Has(property) {
		return true
	}
	for _, s := range t.NewClaims {
		if s.ID == "" && s.Property() == property {
			return true
		}
	}
	return false
}

// Finish records the outcome of the task.
func (t *Task) Finish(outcome Outcome, reason string, err error) {
	t.Outcome = outcome
	t.Reason = reason
	t.Err = err
	if t.Reason == "" && err != nil {
		t.Reason = err.Error()
	}
	t.Duration = time.Since(t.Started)
}

// Properties returns the properties of the queued statements in order.
func (t *Task) Properties() []string {
	props := make([]string, 0, len(t.NewClaims))
	for _, s := range t.NewClaims {
		props = append(props, s.Property())
	}
	return props
}
