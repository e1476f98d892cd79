// Package repair normalizes structural drift in composed documents:
// sections that migrated out of canonical order during hand editing, stray
// or missing headings, and seam formatting around section boundaries. Every
// fix is idempotent; running the pass twice changes nothing the second time.
package repair

import (
	"fmt"
	"log"
	"strings"

	"github.com/joelkehle/report-composer/internal/docmodel"
	"github.com/joelkehle/report-composer/internal/section"
)

func logf(sink func(string), format string, args ...any) {
	if sink == nil {
		log.Printf("repair "+format, args...)
		return
	}
	sink(fmt.Sprintf(format, args...))
}

// Run applies the full repair pass and returns human-readable warnings for
// conditions it could not fix.
func Run(doc *docmodel.Document, ps section.PatternSet, sink func(string)) []string {
	var warnings []string
	removeStrayRelatedHeading(doc, ps, sink)
	ensureRelatedHeading(doc, ps, sink)
	if w := relocateMappingsAfterCriteria(doc, ps, sink); w != "" {
		warnings = append(warnings, w)
	}
	ensureBreakBeforePatentAtIssue(doc, ps, sink)
	normalizePatentAtIssueHeading(doc, ps, sink)
	return warnings
}

// removeStrayRelatedHeading drops the Other Related References heading when
// the section carries no content: a heading over nothing reads as an
// editing mistake in the finished report.
func removeStrayRelatedHeading(doc *docmodel.Document, ps section.PatternSet, sink func(string)) {
	start := ps.FindKind(doc.Blocks, section.OtherRelatedReferences, 0)
	if start == section.NotFound {
		return
	}
	end := doc.Len()
	if idx := ps.NextMajorHeading(doc.Blocks, start+1); idx != section.NotFound {
		end = idx
	}
	for i := start + 1; i < end; i++ {
		b := doc.Blocks[i]
		if b.IsTable() || strings.TrimSpace(b.Text()) != "" {
			return
		}
	}
	doc.Remove(start, end)
	logf(sink, "removed stray related-references heading (empty section)")
}

// ensureRelatedHeading inserts a heading above an orphaned related-references
// table, recognized by its header row.
func ensureRelatedHeading(doc *docmodel.Document, ps section.PatternSet, sink func(string)) {
	if ps.FindKind(doc.Blocks, section.OtherRelatedReferences, 0) != section.NotFound {
		return
	}
	for i, b := range doc.Blocks {
		if !b.IsTable() || len(b.Table.Rows) == 0 {
			continue
		}
		if !strings.Contains(strings.ToLower(b.Table.CellText(0, 1)), "references found") {
			continue
		}
		heading := docmodel.NewStyledParagraph("OTHER RELATED REFERENCES FOUND", func(r *docmodel.Run) {
			r.Bold = true
			r.SizePt = 12
			r.Color = "404040"
		})
		doc.Insert(i, heading)
		logf(sink, "inserted missing related-references heading above orphan table at %d", i)
		return
	}
}

// relocateMappingsAfterCriteria moves a Mappings section that drifted below
// the About sentinel back to its canonical slot after Criteria. The moved
// heading loses any page-break-before flag so the relocation does not
// introduce a blank page, and no seam break is added; the splice policy
// already separates adjacent claim tables.
func relocateMappingsAfterCriteria(doc *docmodel.Document, ps section.PatternSet, sink func(string)) string {
	idx := ps.Index(doc.Blocks)
	mapIdx, hasMappings := idx[section.Mappings]
	aboutIdx, hasAbout := idx[section.About]
	if !hasMappings || !hasAbout || aboutIdx > mapIdx {
		return ""
	}
	critIdx, hasCriteria := idx[section.Criteria]
	if !hasCriteria {
		return "mappings section follows the closing section but no criteria heading exists to anchor it"
	}

	end := doc.Len()
	if i := ps.NextMajorHeading(doc.Blocks, mapIdx+1); i != section.NotFound {
		end = i
	}
	// A standalone break paragraph ahead of the drifted heading belongs to
	// the old slot; dropping it avoids a blank page after the closing
	// section.
	if mapIdx > 0 {
		prev := doc.Blocks[mapIdx-1]
		if prev.IsParagraph() && prev.Text() == "" && prev.HasPageBreak() {
			doc.Remove(mapIdx-1, mapIdx)
			mapIdx--
			end--
		}
	}
	span := doc.Remove(mapIdx, end)
	if len(span) > 0 && span[0].IsParagraph() {
		span[0].Paragraph.PageBreakBefore = false
	}

	// Criteria's end boundary, recomputed after the removal shifted indices.
	critIdx = ps.FindKind(doc.Blocks, section.Criteria, 0)
	insertAt := doc.Len()
	if i := ps.NextMajorHeading(doc.Blocks, critIdx+1); i != section.NotFound {
		insertAt = i
	}
	doc.Insert(insertAt, span...)
	logf(sink, "relocated mappings section (%d blocks) after criteria", len(span))

	if !section.InCanonicalOrder(ps.Index(doc.Blocks)) {
		return "sections remain out of canonical order after relocating mappings"
	}
	return ""
}

// ensureBreakBeforePatentAtIssue forces a page break ahead of the
// Patent-at-Issue heading when it directly follows a table, so the facts
// table never starts mid-page under the related-references table.
func ensureBreakBeforePatentAtIssue(doc *docmodel.Document, ps section.PatternSet, sink func(string)) {
	idx := ps.FindKind(doc.Blocks, section.PatentAtIssue, 0)
	if idx <= 0 {
		return
	}
	if !doc.Blocks[idx-1].IsTable() {
		return
	}
	if doc.Blocks[idx].HasPageBreak() {
		return
	}
	doc.Blocks[idx].Paragraph.PageBreakBefore = true
	logf(sink, "forced page break before patent-at-issue heading")
}

// normalizePatentAtIssueHeading pins the heading's formatting: uppercase,
// bold, fixed size and color, zero paragraph spacing. Hand edits routinely
// disturb it because the heading sits next to the most-edited table.
func normalizePatentAtIssueHeading(doc *docmodel.Document, ps section.PatternSet, sink func(string)) {
	idx := ps.FindKind(doc.Blocks, section.PatentAtIssue, 0)
	if idx == section.NotFound {
		return
	}
	p := doc.Blocks[idx].Paragraph
	p.SpaceBeforePt = 0
	p.SpaceAfterPt = 0
	changed := false
	for _, in := range p.Inlines {
		if in.Run == nil || in.Run.Text == "" {
			continue
		}
		upper := strings.ToUpper(in.Run.Text)
		if in.Run.Text != upper || !in.Run.Bold || in.Run.SizePt != 12 || in.Run.Color != "404040" {
			changed = true
		}
		in.Run.Text = upper
		in.Run.Bold = true
		in.Run.SizePt = 12
		in.Run.Color = "404040"
	}
	if changed {
		logf(sink, "normalized patent-at-issue heading formatting")
	}
}
