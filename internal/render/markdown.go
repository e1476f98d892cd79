// Package render exports a composed document to Markdown and renders the
// final PDF through headless Chromium. Markdown is the interchange surface:
// the block tree flattens to GFM, and the print pipeline turns thematic
// breaks back into page breaks.
package render

import (
	"strings"

	"github.com/joelkehle/report-composer/internal/docmodel"
)

// Markdown flattens a document to GitHub-flavored Markdown. Page breaks
// become thematic breaks, heading-weight paragraphs become h2s, tables
// become pipe tables.
func Markdown(doc *docmodel.Document) string {
	var sb strings.Builder
	for _, b := range doc.Blocks {
		switch {
		case b.IsTable():
			writeTable(&sb, b.Table)
		case b.HasPageBreak():
			sb.WriteString("\n---\n\n")
			if text := paragraphMarkdown(b.Paragraph); text != "" {
				sb.WriteString(text + "\n\n")
			}
		case b.IsParagraph():
			if isHeadingWeight(b.Paragraph) {
				sb.WriteString("## " + b.Text() + "\n\n")
				continue
			}
			if text := paragraphMarkdown(b.Paragraph); text != "" {
				sb.WriteString(text + "\n\n")
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// isHeadingWeight treats a single bold run at 12pt or larger as a section
// heading; that is the only heading signal the block model carries.
func isHeadingWeight(p *docmodel.Paragraph) bool {
	runs := 0
	for _, in := range p.Inlines {
		if in.Run == nil || in.Run.Text == "" {
			continue
		}
		runs++
		if !in.Run.Bold || in.Run.SizePt < 12 {
			return false
		}
	}
	return runs > 0
}

func paragraphMarkdown(p *docmodel.Paragraph) string {
	var sb strings.Builder
	for _, in := range p.Inlines {
		if in.Hyperlink != nil {
			for _, r := range in.Hyperlink.Runs {
				sb.WriteString(runMarkdown(r))
			}
			continue
		}
		if in.Run != nil {
			sb.WriteString(runMarkdown(*in.Run))
		}
	}
	return strings.TrimSpace(sb.String())
}

func runMarkdown(r docmodel.Run) string {
	text := r.Text
	if text == "" {
		return ""
	}
	switch {
	case r.Bold && r.Italic:
		return "***" + text + "***"
	case r.Bold:
		return "**" + text + "**"
	case r.Italic:
		return "*" + text + "*"
	}
	return text
}

func writeTable(sb *strings.Builder, t *docmodel.Table) {
	if len(t.Rows) == 0 {
		return
	}
	cols := len(t.Rows[0].Cells)
	writeRow := func(row int) {
		sb.WriteString("|")
		for c := 0; c < cols; c++ {
			sb.WriteString(" " + escapeCell(t.CellText(row, c)) + " |")
		}
		sb.WriteString("\n")
	}
	writeRow(0)
	sb.WriteString("|")
	for c := 0; c < cols; c++ {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for row := 1; row < len(t.Rows); row++ {
		writeRow(row)
	}
	sb.WriteString("\n")
}

func escapeCell(text string) string {
	text = strings.ReplaceAll(text, "|", `\|`)
	return strings.ReplaceAll(text, "\n", " ")
}
