package compose

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joelkehle/report-composer/internal/claims"
	"github.com/joelkehle/report-composer/internal/docmodel"
	"github.com/joelkehle/report-composer/internal/refdata"
	"github.com/joelkehle/report-composer/internal/section"
)

// Disclaimer closes every report; the About/Disclaimer section never moves.
const Disclaimer = "This report is based on an automated publication search and is provided " +
	"for informational purposes only. It is not a legal opinion on validity, " +
	"infringement, or freedom to operate. Consult qualified patent counsel " +
	"before acting on its contents."

const bodyFont = "Inter"

func styleBody(r *docmodel.Run)  { r.Font = bodyFont; r.SizePt = 10 }
func styleBold(r *docmodel.Run)  { r.Font = bodyFont; r.SizePt = 10; r.Bold = true }
func styleCell(r *docmodel.Run)  { r.Font = bodyFont; r.SizePt = 9 }
func styleCellBold(r *docmodel.Run) {
	r.Font = bodyFont
	r.SizePt = 9
	r.Bold = true
}

func styleHeading(r *docmodel.Run) {
	r.Font = bodyFont
	r.SizePt = 12
	r.Bold = true
	r.Color = "404040"
}

// chartColors alternate across claim-element rows, carried across claims so
// the cycle stays consistent through the whole mappings section.
var chartColors = []string{"0070C0", "C00000"}

func headingText(k section.Kind) string {
	switch k {
	case section.Objectives:
		return "OBJECTIVE"
	case section.OtherRelatedReferences:
		return "OTHER RELATED REFERENCES FOUND"
	case section.PatentAtIssue:
		return "PATENT-AT-ISSUE"
	case section.Criteria:
		return "CRITERIA FOR THE PUBLICATION SEARCH"
	case section.Mappings:
		return "Mappings Based on Selected References"
	case section.AppendixSearchStrategies:
		return "APPENDIX B: SEARCH STRATEGIES"
	case section.About:
		return "DISCLAIMER"
	}
	return ""
}

// regenerate replaces a section's content with freshly built blocks. When
// the heading is missing from the document the section is appended, heading
// included, behind a page break, so generation also works against an empty
// template.
func regenerate(doc *docmodel.Document, ps section.PatternSet, k section.Kind, content []docmodel.Block, log LogFn) {
	start := ps.FindKind(doc.Blocks, k, 0)
	if start == section.NotFound {
		if doc.Len() > 0 {
			doc.Append(docmodel.NewPageBreak())
		}
		doc.Append(docmodel.NewStyledParagraph(headingText(k), styleHeading))
		start = doc.Len() - 1
		logf(log, "generate: %s heading missing, appended", k)
	}
	end := doc.Len()
	if idx := ps.NextMajorHeading(doc.Blocks, start+1); idx != section.NotFound {
		end = idx
	}
	doc.Remove(start+1, end)
	At(doc, start).InsertSequence(content)
	logf(log, "generate: %s regenerated with %d blocks", k, len(content))
}

// generateTitle rebuilds everything before the Objectives heading: the
// title page has no heading of its own, so the Objectives heading is its
// end boundary.
func generateTitle(doc *docmodel.Document, ps section.PatternSet, req Request, log LogFn) {
	blocks := titleBlocks(req)
	end := ps.FindKind(doc.Blocks, section.Objectives, 0)
	if end == section.NotFound {
		doc.Insert(0, blocks...)
		logf(log, "generate: title page inserted at document start (no objectives heading)")
		return
	}
	doc.Remove(0, end)
	doc.Insert(0, blocks...)
	logf(log, "generate: title page rebuilt (%d blocks)", len(blocks))
}

func titleBlocks(req Request) []docmodel.Block {
	display := refdata.FormatPatentDisplay(req.PatentNumber, true)
	out := []docmodel.Block{
		docmodel.NewStyledParagraph("INVALIDITY SEARCH REPORT", func(r *docmodel.Run) {
			r.Font = bodyFont
			r.SizePt = 20
			r.Bold = true
		}),
		docmodel.NewSpacer(),
		docmodel.NewStyledParagraph(display, styleBold),
		docmodel.NewStyledParagraph(req.PatentTitle, styleBody),
	}
	if req.Assignee != "" {
		out = append(out, docmodel.NewStyledParagraph("Assignee: "+req.Assignee, styleBody))
	}
	if req.ClientName != "" {
		out = append(out, docmodel.NewStyledParagraph("Prepared for "+strings.ToUpper(req.ClientName), styleBody))
	}
	if req.ReportDate != "" {
		out = append(out, docmodel.NewStyledParagraph(strings.ToUpper(req.ReportDate), styleBody))
	}
	out = append(out, docmodel.NewSpacer())
	return out
}

func generateObjectives(doc *docmodel.Document, ps section.PatternSet, req Request, log LogFn) {
	regenerate(doc, ps, section.Objectives, objectivesBlocks(req), log)
}

func objectivesBlocks(req Request) []docmodel.Block {
	short := refdata.ShortPatentName(req.PatentNumber)
	intro := docmodel.NewRunsParagraph(
		docmodel.NewRun(fmt.Sprintf("This report presents the mappings of the various elements of %s %s of %s ",
			claims.ClaimWord(req.Claims), claims.FormatRanges(req.Claims),
			refdata.FormatPatentDisplay(req.PatentNumber, true)), styleBody),
		docmodel.NewRun("("+short+")", styleBold),
		docmodel.NewRun(" with the most relevant disclosures found from the following references in the publication search:", styleBody),
	)

	out := []docmodel.Block{intro, docmodel.NewSpacer()}
	refs := append([]refdata.Reference{}, req.References...)
	refdata.SortByRank(refs)
	for _, ref := range refs {
		line := fmt.Sprintf("%s. %s", strings.ToUpper(strings.TrimSpace(ref.Rank)), ref.Label())
		if !ref.NPL && ref.Title != "" {
			line += " — " + ref.Title
		}
		if ref.OriginalAssignee != "" {
			line += " (" + ref.OriginalAssignee + ")"
		}
		out = append(out, docmodel.NewStyledParagraph(line, styleBody))
	}
	return out
}

func generateOtherRelatedReferences(doc *docmodel.Document, ps section.PatternSet, req Request, log LogFn) {
	regenerate(doc, ps, section.OtherRelatedReferences, relatedReferenceBlocks(req), log)
}

func relatedReferenceBlocks(req Request) []docmodel.Block {
	if len(req.RelatedRefs) == 0 {
		// Leave the section empty; the repair pass drops the stray heading.
		return nil
	}
	refs := append([]refdata.Reference{}, req.RelatedRefs...)
	refdata.SortByRank(refs)

	tb := docmodel.NewTable(len(refs)+1, 5)
	headers := []string{"#", "References Found", "Original Assignee", "Current Assignee", "Publication Date"}
	for c, h := range headers {
		tb.Table.SetCellText(0, c, h, styleCellBold)
	}
	for i, ref := range refs {
		row := i + 1
		tb.Table.SetCellText(row, 0, fmt.Sprintf("%d", i+1), styleCell)
		tb.Table.SetCellText(row, 1, ref.Label(), styleCell)
		tb.Table.SetCellText(row, 2, ref.OriginalAssignee, styleCell)
		tb.Table.SetCellText(row, 3, ref.CurrentAssignee, styleCell)
		tb.Table.SetCellText(row, 4, ref.PublicationDate, styleCell)
	}
	return []docmodel.Block{tb}
}

func generatePatentAtIssue(doc *docmodel.Document, ps section.PatternSet, req Request, log LogFn) {
	regenerate(doc, ps, section.PatentAtIssue, patentAtIssueBlocks(req), log)
}

func patentAtIssueBlocks(req Request) []docmodel.Block {
	rows := [][2]string{
		{"Publication Number", refdata.FormatPatentDisplay(req.PatentNumber, false)},
		{"Title", req.PatentTitle},
		{"Assignee", req.Assignee},
		{"Priority Date", req.PriorityDate},
		{"Filing Date", req.FilingDate},
		{"Claims Searched", claims.FormatRanges(req.Claims)},
	}
	tb := docmodel.NewTable(len(rows), 2)
	for i, row := range rows {
		tb.Table.SetCellText(i, 0, row[0], styleCellBold)
		tb.Table.SetCellText(i, 1, row[1], styleCell)
	}
	return []docmodel.Block{tb}
}

func generateCriteria(doc *docmodel.Document, ps section.PatternSet, req Request, log LogFn) {
	regenerate(doc, ps, section.Criteria, criteriaBlocks(req), log)
}

func criteriaBlocks(req Request) []docmodel.Block {
	word := claims.ClaimWord(req.Claims)
	if word != "" {
		word = strings.ToUpper(word[:1]) + word[1:]
	}
	intro := fmt.Sprintf("%s %s of the %s",
		word,
		claims.FormatRanges(req.Claims),
		refdata.ShortPatentName(req.PatentNumber))
	out := []docmodel.Block{
		docmodel.NewStyledParagraph(intro, styleBold),
		docmodel.NewSpacer(),
	}
	for _, claim := range req.Claims {
		for _, frag := range MergeClaimFragments(req.ClaimFragments[claim]) {
			out = append(out, docmodel.NewStyledParagraph(frag, styleBody))
		}
	}
	return out
}

var loneClaimRefRe = regexp.MustCompile(`(?i)^(of\s+)?claim\s+\d+[,.]?$`)

// MergeClaimFragments joins lone "of claim N" fragments with their
// surrounding text so dependent-claim preambles read as one sentence.
func MergeClaimFragments(fragments []string) []string {
	var merged []string
	for i := 0; i < len(fragments); {
		frag := strings.TrimSpace(strings.ReplaceAll(fragments[i], "\n", " "))
		if i+1 < len(fragments) {
			next := strings.TrimSpace(fragments[i+1])
			if loneClaimRefRe.MatchString(next) {
				combined := frag + " " + next
				if i+2 < len(fragments) {
					following := strings.TrimSpace(fragments[i+2])
					if following != "" && strings.ContainsRune(",.;:", rune(following[0])) {
						combined += following
					} else {
						combined += " " + following
					}
					i += 3
				} else {
					i += 2
				}
				merged = append(merged, combined)
				continue
			}
		}
		merged = append(merged, frag)
		i++
	}
	return merged
}

// MappingsIntro is the fixed sentence inserted right after the Mappings
// heading, referencing the short patent name and the formatted claim range.
func MappingsIntro(req Request) string {
	shortLower := strings.ToLower(refdata.ShortPatentName(req.PatentNumber))
	return fmt.Sprintf(
		"These are the mappings of the elements of %s %s of the %s against similar disclosures "+
			"from the selected references. Matching with the claim elements may vary from somewhat "+
			"relevant to strongly-matched.",
		claims.ClaimWord(req.Claims), claims.FormatRanges(req.Claims), shortLower)
}

func generateMappings(doc *docmodel.Document, ps section.PatternSet, req Request, log LogFn) {
	regenerate(doc, ps, section.Mappings, mappingsBlocks(req), log)
}

func mappingsBlocks(req Request) []docmodel.Block {
	out := []docmodel.Block{
		docmodel.NewStyledParagraph(MappingsIntro(req), styleBody),
		docmodel.NewSpacer(),
	}
	refs := append([]refdata.Reference{}, req.References...)
	refdata.SortByRank(refs)
	colorIndex := 0
	for _, claim := range req.Claims {
		out = append(out, claimChartTable(claim, req, refs, &colorIndex))
	}
	return out
}

// claimChartTable builds one claim's chart: a banner row, a header row, and
// one row per claim element with the reference list on the right.
func claimChartTable(claim int, req Request, refs []refdata.Reference, colorIndex *int) docmodel.Block {
	fragments := MergeClaimFragments(req.ClaimFragments[claim])
	tb := docmodel.NewTable(len(fragments)+2, 2)
	tb.Table.SetCellText(0, 0, fmt.Sprintf("Claim %d", claim), styleCellBold)
	tb.Table.SetCellText(0, 1, refdata.FormatPatentDisplay(req.PatentNumber, true), styleCellBold)
	tb.Table.SetCellText(1, 0, "Claim Element", styleCellBold)
	tb.Table.SetCellText(1, 1, "Reference Disclosure/s", styleCellBold)

	for i, frag := range fragments {
		row := i + 2
		color := chartColors[*colorIndex%len(chartColors)]
		*colorIndex++
		tb.Table.SetCellText(row, 0, frag, func(r *docmodel.Run) {
			styleCellBold(r)
			r.Color = color
		})
		cell := &tb.Table.Rows[row].Cells[1]
		cell.Blocks = nil
		for _, ref := range refs {
			label := fmt.Sprintf("%s. %s", strings.ToUpper(strings.TrimSpace(ref.Rank)), ref.Label())
			cell.Blocks = append(cell.Blocks, docmodel.NewStyledParagraph(label, styleCellBold))
			cell.Blocks = append(cell.Blocks, docmodel.NewSpacer())
		}
	}
	return tb
}

func generateAppendix(doc *docmodel.Document, ps section.PatternSet, req Request, log LogFn) {
	regenerate(doc, ps, section.AppendixSearchStrategies, appendixBlocks(req), log)
}

func appendixBlocks(req Request) []docmodel.Block {
	out := []docmodel.Block{
		docmodel.NewStyledParagraph(
			"Each search strategy below resulted in the hit counts indicated at the time of the search.",
			styleBody),
		docmodel.NewSpacer(),
	}
	if len(req.Strategies) == 0 {
		return out
	}
	tb := docmodel.NewTable(len(req.Strategies)+1, 3)
	tb.Table.SetCellText(0, 0, "Database", styleCellBold)
	tb.Table.SetCellText(0, 1, "Search Query", styleCellBold)
	tb.Table.SetCellText(0, 2, "Hits", styleCellBold)
	for i, s := range req.Strategies {
		tb.Table.SetCellText(i+1, 0, s.Database, styleCell)
		tb.Table.SetCellText(i+1, 1, s.Query, styleCell)
		tb.Table.SetCellText(i+1, 2, fmt.Sprintf("%d", s.Hits), styleCell)
	}
	return append(out, tb)
}

func generateAbout(doc *docmodel.Document, ps section.PatternSet, log LogFn) {
	regenerate(doc, ps, section.About, []docmodel.Block{
		docmodel.NewStyledParagraph(Disclaimer, styleBody),
	}, log)
}
