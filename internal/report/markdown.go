package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/wikibots/internal/history"
	"github.com/nao1215/wikibots/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, suitable for on-wiki
// run reports and issue comments.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeOutcomes(md, summary)
	w.writeTasks(md, "Edited files", summary.TasksWith(model.OutcomeEdited), false)
	w.writeTasks(md, "Would edit", summary.TasksWith(model.OutcomeDryRun), false)
	w.writeTasks(md, "Failed files", summary.TasksWith(model.OutcomeFailed), true)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *model.RunSummary) {
	md.H1("Run summary: " + s.Bot)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + s.RunID + "`"},
			{"Mode", mode(s.DryRun)},
			{"Started", s.Started.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", s.Elapsed().Round(time.Millisecond).String()},
			{"Status", status(s.Interrupted)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, s *model.RunSummary) {
	md.H2("Outcomes")
	md.PlainText("")

	w.writeOutcomeTable(md, s.Count, s.Total())
	w.writeAlert(md, s)
}

// writeOutcomeTable writes the outcome table and, when anything was
// counted, a pie chart of the distribution.
func (w *MarkdownWriter) writeOutcomeTable(md *markdown.Markdown, count func(model.Outcome) int, total int) {
	rows := make([][]string, 0, len(model.Outcomes())+1)
	for _, o := range model.Outcomes() {
		rows = append(rows, []string{o.String(), strconv.Itoa(count(o))})
	}
	rows = append(rows, []string{"**total**", "**" + strconv.Itoa(total) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")

	if total > 0 {
		w.writePieChart(md, count)
	}
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, count func(model.Outcome) int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcomes"),
		piechart.WithShowData(true),
	)

	for _, o := range model.Outcomes() {
		if n := count(o); n > 0 {
			chart.LabelAndIntValue(o.String(), uint64(n)) //nolint:gosec // Counts are never negative
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *model.RunSummary) {
	failed := s.Count(model.OutcomeFailed)
	switch {
	case failed > 0:
		md.Cautionf("%d page(s) failed. Failed pages are retried on the next run.", failed)
	case s.Interrupted:
		md.Warningf("The run was interrupted after %d page(s).", s.Total())
	case s.DryRun:
		md.Note("Dry run: no edits were saved and the skip cache was not written.")
	case s.Total() == 0:
		md.Note("No pages matched.")
	default:
		md.Tip("All pages were processed without errors.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeTasks(md *markdown.Markdown, title string, tasks []model.TaskSummary, withReason bool) {
	if len(tasks) == 0 {
		return
	}

	md.H2(title)
	md.PlainText("")

	header := []string{"File", "MID", "Statements"}
	if withReason {
		header[2] = "Reason"
	}

	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		detail := strings.Join(t.Properties, ", ")
		if withReason {
			detail = truncateString(t.Reason, 80)
		}
		rows[i] = []string{fileLink(t), "`" + t.MID + "`", orDash(detail)}
	}

	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")
}

// WriteHistory outputs recorded tasks as a Markdown table.
func (w *MarkdownWriter) WriteHistory(entries []history.Entry) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("History")
	md.PlainText("")

	if len(entries) == 0 {
		md.PlainText("No recorded tasks.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			e.Bot,
			e.Outcome.String(),
			"`" + e.MID + "`",
			escapeCell(e.Title),
			orDash(escapeCell(truncateString(e.Reason, 60))),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Recorded", "Bot", "Outcome", "MID", "File", "Reason"},
		Rows:   rows,
	})
	return len(md.String()), md.Build()
}

// WriteRuns outputs recorded runs as a Markdown table.
func (w *MarkdownWriter) WriteRuns(runs []history.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Runs")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No recorded runs.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.Started.Local().Format("2006-01-02 15:04:05"),
			r.Bot,
			mode(r.DryRun),
			status(r.Interrupted),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Edited),
			strconv.Itoa(r.Failed),
			"`" + r.RunID + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Started", "Bot", "Mode", "Status", "Pages", "Edited", "Failed", "Run ID"},
		Rows:   rows,
	})
	return len(md.String()), md.Build()
}

// WriteCounts outputs the outcome counts as a table with a pie chart.
func (w *MarkdownWriter) WriteCounts(counts OutcomeCounts) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1(counts.title())
	md.PlainText("")

	w.writeOutcomeTable(md, func(o model.Outcome) int { return counts.Counts[o] }, counts.Total)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by wikibots*")
}

// fileLink links a task to its file page when the URL is known.
func fileLink(t model.TaskSummary) string {
	title := escapeCell(t.Title)
	if t.URL == "" {
		return title
	}
	return "[" + title + "](" + t.URL + ")"
}

// escapeCell keeps pipes in file names from breaking table rows.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
