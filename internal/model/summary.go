package model

import (
	"sync"
	"time"
)

// TaskSummary is the reportable part of a finished task.
type TaskSummary struct {
	// MID is the media info entity id.
	MID string `json:"mid"`

	// Title is the file page title.
	Title string `json:"title"`

	// URL is the page URL.
	URL string `json:"url,omitempty"`

	// Outcome is how processing ended.
	Outcome Outcome `json:"outcome"`

	// Reason explains skips and failures.
	Reason string `json:"reason,omitempty"`

	// Properties lists the properties of the statements that were added
	// (or would have been, in a dry run).
	Properties []string `json:"properties,omitempty"`

	// Duration is the processing time.
	Duration time.Duration `json:"duration"`
}

// NewTaskSummary summarizes a finished task.
func NewTaskSummary(t *Task) TaskSummary {
	return TaskSummary{
		MID:        t.MID(),
		Title:      t.Page.Title,
		URL:        t.Page.URL,
		Outcome:    t.Outcome,
		Reason:     t.Reason,
		Properties: t.Properties(),
		Duration:   t.Duration,
	}
}

// RunSummary aggregates the results of a bot run.
// Add is safe for concurrent use.
type RunSummary struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`

	// Bot is the bot name.
	Bot string `json:"bot"`

	// DryRun reports whether edits were suppressed.
	DryRun bool `json:"dry_run"`

	// Started is when the run began.
	Started time.Time `json:"started"`

	// Finished is when the run ended.
	Finished time.Time `json:"finished"`

	// Tasks lists every processed page in completion order.
	Tasks []TaskSummary `json:"tasks"`

	// Counts holds the number of tasks per outcome.
	Counts map[Outcome]int `json:"counts"`

	// Interrupted reports whether the run was cancelled before the
	// generator was exhausted.
	Interrupted bool `json:"interrupted"`

	mu sync.Mutex
}

// NewRunSummary returns an empty summary for a run.
func NewRunSummary(runID, bot string, dryRun bool) *RunSummary {
	return &RunSummary{
		RunID:   runID,
		Bot:     bot,
		DryRun:  dryRun,
		Started: time.Now(),
		Tasks:   make([]TaskSummary, 0),
		Counts:  make(map[Outcome]int),
	}
}

// Add records a finished task.
func (s *RunSummary) Add(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tasks = append(s.Tasks, NewTaskSummary(t))
	s.Counts[t.Outcome]++
}

// Finish stamps the end of the run.
func (s *RunSummary) Finish(interrupted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Finished = time.Now()
	s.Interrupted = interrupted
}

// Total returns the number of processed pages.
func (s *RunSummary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Tasks)
}

// Count returns the number of tasks with outcome o.
func (s *RunSummary) Count(o Outcome) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Counts[o]
}

// Elapsed returns the run duration, or the time since start for a run
// that has not finished.
func (s *RunSummary) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

// TasksWith returns the tasks with outcome o in completion order.
func (s *RunSummary) TasksWith(o Outcome) []TaskSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TaskSummary
	for _, t := range s.Tasks {
		if t.Outcome == o {
			out = append(out, t)
		}
	}
	return out
}
