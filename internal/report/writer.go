package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/wikibots/internal/history"
	"github.com/nao1215/wikibots/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the summary of a bot run.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.RunSummary) (int, error)

	// WriteHistory outputs recorded tasks.
	WriteHistory(entries []history.Entry) (int, error)

	// WriteRuns outputs recorded runs.
	WriteRuns(runs []history.Run) (int, error)

	// WriteCounts outputs the number of recorded tasks per outcome.
	WriteCounts(counts OutcomeCounts) (int, error)
}

// OutcomeCounts is the number of recorded tasks per outcome of one bot,
// or of all bots when Bot is empty.
type OutcomeCounts struct {
	Bot    string                `json:"bot,omitempty"`
	Counts map[model.Outcome]int `json:"counts"`
	Total  int                   `json:"total"`
}

// NewOutcomeCounts fills in every known outcome and the total.
func NewOutcomeCounts(bot string, counts map[model.Outcome]int) OutcomeCounts {
	c := OutcomeCounts{Bot: bot, Counts: make(map[model.Outcome]int, len(model.Outcomes()))}
	for _, o := range model.Outcomes() {
		c.Counts[o] = counts[o]
	}
	for _, n := range counts {
		c.Total += n
	}
	return c
}

func (c OutcomeCounts) title() string {
	if c.Bot == "" {
		return "Recorded outcomes"
	}
	return "Recorded outcomes: " + c.Bot
}

// Format selects a Writer implementation.
type Format string

const (
	// FormatText is human-readable plain text.
	FormatText Format = "text"
	// FormatJSON is indented JSON.
	FormatJSON Format = "json"
	// FormatMarkdown is GitHub Flavored Markdown.
	FormatMarkdown Format = "markdown"
)

// FormatFor returns the format selected by the --json and --markdown flags.
func FormatFor(json, markdown bool) Format {
	switch {
	case json:
		return FormatJSON
	case markdown:
		return FormatMarkdown
	default:
		return FormatText
	}
}

// New returns the writer for format.
func New(format Format, output io.Writer) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output)
	}
}

// Open returns the destination of a report: stdout when path is empty,
// otherwise the file at path, created with its parent directories. The
// returned close function must be called when done.
func Open(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// status describes how a run ended.
func status(interrupted bool) string {
	if interrupted {
		return "interrupted"
	}
	return "complete"
}

// mode describes whether a run edited the wiki.
func mode(dryRun bool) string {
	if dryRun {
		return "dry run"
	}
	return "live"
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// orDash returns s, or "-" when s is empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
