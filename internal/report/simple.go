package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/wikibots/internal/history"
	"github.com/nao1215/wikibots/internal/model"
)

// SimpleWriter outputs human-readable text reports.
type SimpleWriter struct {
	baseWriter

	// verbose lists skipped and cached files as well.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables listing of every processed file.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)

	w.writeTasks(&sb, "Edited files", summary.TasksWith(model.OutcomeEdited), false)
	w.writeTasks(&sb, "Would edit (dry run)", summary.TasksWith(model.OutcomeDryRun), false)
	w.writeTasks(&sb, "Failed files", summary.TasksWith(model.OutcomeFailed), true)
	if w.verbose {
		w.writeTasks(&sb, "Skipped files", summary.TasksWith(model.OutcomeSkipped), true)
		w.writeTasks(&sb, "Unchanged files", summary.TasksWith(model.OutcomeUnchanged), true)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *model.RunSummary) {
	title := "Run summary: " + s.Bot
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", len(title)) + "\n")
	fmt.Fprintf(sb, "Run ID:   %s\n", s.RunID)
	fmt.Fprintf(sb, "Mode:     %s\n", mode(s.DryRun))
	fmt.Fprintf(sb, "Started:  %s\n", s.Started.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Elapsed:  %s\n", s.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:   %s\n", status(s.Interrupted))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, s *model.RunSummary) {
	sb.WriteString("Outcomes\n--------\n")
	writeOutcomeLines(sb, s.Count, s.Total())
	sb.WriteString("\n")
}

func writeOutcomeLines(sb *strings.Builder, count func(model.Outcome) int, total int) {
	for _, o := range model.Outcomes() {
		fmt.Fprintf(sb, "  %-10s %d\n", o, count(o))
	}
	fmt.Fprintf(sb, "  %-10s %d\n", "total", total)
}

func (w *SimpleWriter) writeTasks(sb *strings.Builder, title string, tasks []model.TaskSummary, withReason bool) {
	if len(tasks) == 0 {
		return
	}

	sb.WriteString(title + "\n" + strings.Repeat("-", len(title)) + "\n")
	for _, t := range tasks {
		detail := strings.Join(t.Properties, ",")
		if withReason {
			detail = t.Reason
		}
		fmt.Fprintf(sb, "  %-12s %s  %s\n", t.MID, t.Title, orDash(detail))
	}
	sb.WriteString("\n")
}

// WriteHistory outputs recorded tasks one per line, newest first.
func (w *SimpleWriter) WriteHistory(entries []history.Entry) (int, error) {
	if len(entries) == 0 {
		return io.WriteString(w.output, "No recorded tasks.\n")
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s  %-12s %-10s %-12s %s  %s\n",
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			e.Bot, e.Outcome, e.MID, e.Title, orDash(truncateString(e.Reason, 80)))
	}
	return io.WriteString(w.output, sb.String())
}

// WriteRuns outputs recorded runs one per line, newest first.
func (w *SimpleWriter) WriteRuns(runs []history.Run) (int, error) {
	if len(runs) == 0 {
		return io.WriteString(w.output, "No recorded runs.\n")
	}

	var sb strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&sb, "%s  %-12s %-8s %-12s total=%d edited=%d failed=%d  %s\n",
			r.Started.Local().Format("2006-01-02 15:04:05"),
			r.Bot, mode(r.DryRun), status(r.Interrupted),
			r.Total, r.Edited, r.Failed, r.RunID)
	}
	return io.WriteString(w.output, sb.String())
}

// WriteCounts outputs the outcome counts as an aligned block.
func (w *SimpleWriter) WriteCounts(counts OutcomeCounts) (int, error) {
	var sb strings.Builder

	title := counts.title()
	sb.WriteString(title + "\n" + strings.Repeat("-", len(title)) + "\n")
	writeOutcomeLines(&sb, func(o model.Outcome) int { return counts.Counts[o] }, counts.Total)

	return io.WriteString(w.output, sb.String())
}
