package compose

import (
	"fmt"

	"github.com/joelkehle/report-composer/internal/docmodel"
	"github.com/joelkehle/report-composer/internal/section"
)

// ExtractOptions controls the boundary and filtering rules for one
// extraction.
type ExtractOptions struct {
	// IncludeHeading keeps the start heading block in the result. Callers
	// that splice after a destination's own heading leave it false.
	IncludeHeading bool
	// SkipEmptyParagraphs drops paragraphs with neither text nor a page
	// break, normalizing accumulated blank lines in hand-edited copies.
	SkipEmptyParagraphs bool
}

// Extract locates the span starting at the first block matching
// startPattern and ending just before the first later block matching any of
// endPatterns (or end of document), and returns a deep-cloned, sanitized
// copy of it. The source document is never mutated. A missing start heading
// yields an empty result, which callers treat as "nothing to preserve".
func Extract(doc *docmodel.Document, startPattern string, endPatterns []string, opts ExtractOptions, log LogFn) []docmodel.Block {
	start := section.FindHeading(doc.Blocks, startPattern, 0)
	if start == section.NotFound {
		logf(log, "extract: %v", newError(CodeHeadingNotFound, startPattern, "nothing to preserve"))
		return nil
	}
	end := doc.Len()
	if len(endPatterns) > 0 {
		if idx := section.FindAny(doc.Blocks, endPatterns, start+1); idx != section.NotFound {
			end = idx
		}
	}

	from := start
	if !opts.IncludeHeading {
		from = start + 1
	}

	out := make([]docmodel.Block, 0, end-from)
	for i := from; i < end; i++ {
		b := doc.Blocks[i]
		if opts.SkipEmptyParagraphs && b.IsParagraph() && b.Text() == "" && !b.HasPageBreak() {
			continue
		}
		clone := docmodel.CloneBlock(b)
		if err := sanitizeBlock(&clone); err != nil {
			// Keep the author's content over structural purity: insert the
			// unsanitized clone rather than dropping the block.
			logf(log, "extract: %v", newError(CodeSanitizationFailure, startPattern, "block %d: %v", i, err))
		}
		out = append(out, clone)
	}
	if len(out) == 0 {
		logf(log, "extract: %v", newError(CodeEmptyExtraction, startPattern, "span [%d,%d) had no content", start, end))
		return out
	}
	logf(log, "extract: %q -> %d blocks (span [%d,%d))", startPattern, len(out), start, end)
	return out
}

// sanitizeBlock prepares a cloned block for relocation into another
// document: relationship identifiers pointing into the source document's
// relationship table are stripped, except on embedded drawings, which need
// theirs to stay renderable; hyperlink wrappers are flattened into their
// runs so the visible text survives even though the link target does not.
func sanitizeBlock(b *docmodel.Block) error {
	switch {
	case b.Kind == docmodel.KindParagraph:
		if b.Paragraph == nil {
			return fmt.Errorf("paragraph block without paragraph payload")
		}
		sanitizeParagraph(b.Paragraph)
		return nil
	case b.Kind == docmodel.KindTable:
		if b.Table == nil {
			return fmt.Errorf("table block without table payload")
		}
		var firstErr error
		for ri := range b.Table.Rows {
			for ci := range b.Table.Rows[ri].Cells {
				cell := &b.Table.Rows[ri].Cells[ci]
				for bi := range cell.Blocks {
					if err := sanitizeBlock(&cell.Blocks[bi]); err != nil && firstErr == nil {
						firstErr = fmt.Errorf("cell (%d,%d): %w", ri, ci, err)
					}
				}
			}
		}
		return firstErr
	default:
		return fmt.Errorf("unknown block kind %q", b.Kind)
	}
}

func sanitizeParagraph(p *docmodel.Paragraph) {
	flat := make([]docmodel.Inline, 0, len(p.Inlines))
	for _, in := range p.Inlines {
		if in.Hyperlink != nil {
			for i := range in.Hyperlink.Runs {
				r := in.Hyperlink.Runs[i]
				sanitizeRun(&r)
				flat = append(flat, docmodel.Inline{Run: &r})
			}
			continue
		}
		if in.Run != nil {
			sanitizeRun(in.Run)
		}
		flat = append(flat, in)
	}
	p.Inlines = flat
}

func sanitizeRun(r *docmodel.Run) {
	if r.Drawing != nil {
		// Embedded image: the relationship id is what renders it.
		return
	}
	r.RelID = ""
}
