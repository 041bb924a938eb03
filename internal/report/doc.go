// Package report renders bot run summaries and history listings.
//
// Writers exist for three formats:
//   - SimpleWriter: plain text for terminals and job logs
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown with a mermaid pie chart of
//     outcomes, for pasting into on-wiki run reports
package report
