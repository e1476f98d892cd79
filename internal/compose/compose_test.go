package compose

import (
	"context"
	"strings"
	"testing"

	"github.com/joelkehle/report-composer/internal/docmodel"
	"github.com/joelkehle/report-composer/internal/refdata"
	"github.com/joelkehle/report-composer/internal/section"
)

func discard(string) {}

func heading(text string) docmodel.Block {
	return docmodel.NewStyledParagraph(text, func(r *docmodel.Run) { r.Bold = true; r.SizePt = 12 })
}

func testRequest(mode Mode) Request {
	return Request{
		Mode:         mode,
		ReportDate:   "August 2026",
		ClientName:   "Acme Licensing",
		PatentNumber: "US10123456B2",
		PatentTitle:  "Adaptive signal router",
		Assignee:     "Signals Inc.",
		PriorityDate: "2015-03-01",
		FilingDate:   "2016-02-28",
		Claims:       []int{1, 2},
		References: []refdata.Reference{
			{Rank: "A", PublicationNumber: "US7000001", RawPublicationNumber: "US7,000,001 B1", Title: "Router", OriginalAssignee: "Netco"},
			{Rank: "B", PublicationNumber: "US7000002", RawPublicationNumber: "US7,000,002 A", Title: "Switch", OriginalAssignee: "Wireco"},
		},
		ClaimFragments: map[int][]string{
			1: {"A signal router comprising:", "a first port;", "a second port."},
			2: {"The router", "of claim 1,", "wherein the first port is optical."},
		},
		Strategies: []SearchStrategy{{Database: "Derwent", Query: "router AND optical", Hits: 42}},
	}
}

func TestExtractFlattensHyperlinks(t *testing.T) {
	link := docmodel.Block{Kind: docmodel.KindParagraph, Paragraph: &docmodel.Paragraph{
		Inlines: []docmodel.Inline{{Hyperlink: &docmodel.Hyperlink{
			RelID:  "rId9",
			Target: "https://example.com",
			Runs:   []docmodel.Run{{ID: "r1", Text: "see "}, {ID: "r2", Text: "the reference"}},
		}}},
	}}
	doc := docmodel.New(heading("CRITERIA FOR THE PUBLICATION SEARCH"), link, heading("Mappings Based on Selected References"))

	got := Extract(doc, "criteria for", []string{"mappings based"}, ExtractOptions{}, discard)
	if len(got) != 1 {
		t.Fatalf("extracted %d blocks, want 1", len(got))
	}
	if got[0].Text() != "see the reference" {
		t.Fatalf("flattened text = %q", got[0].Text())
	}
	for _, in := range got[0].Paragraph.Inlines {
		if in.Hyperlink != nil {
			t.Fatal("hyperlink wrapper survived sanitization")
		}
		if in.Run.RelID != "" {
			t.Fatalf("run kept relationship id %q", in.Run.RelID)
		}
	}
}

func TestExtractDoesNotMutateSource(t *testing.T) {
	doc := docmodel.New(
		heading("Mappings Based on Selected References"),
		docmodel.NewParagraph("chart intro"),
		heading("APPENDIX B: SEARCH STRATEGIES"),
	)
	before := doc.Len()
	Extract(doc, "mappings based", []string{"appendix b"}, ExtractOptions{}, discard)
	Extract(doc, "mappings based", []string{"appendix b"}, ExtractOptions{}, discard)
	if doc.Len() != before {
		t.Fatalf("source length changed: %d -> %d", before, doc.Len())
	}
	if doc.Blocks[1].Text() != "chart intro" {
		t.Fatalf("source content changed: %q", doc.Blocks[1].Text())
	}
}

func TestExtractSpliceRoundTrip(t *testing.T) {
	tb := docmodel.NewTable(2, 2)
	tb.Table.SetCellText(0, 0, "Claim Element", nil)
	tb.Table.SetCellText(1, 0, "a first port", nil)
	src := docmodel.New(
		heading("Mappings Based on Selected References"),
		docmodel.NewParagraph("chart intro"),
		tb,
		heading("APPENDIX B: SEARCH STRATEGIES"),
	)

	first := Extract(src, "mappings based", []string{"appendix b"}, ExtractOptions{}, discard)

	dst := docmodel.New(heading("Mappings Based on Selected References"))
	At(dst, 0).InsertSequence(first)

	second := Extract(dst, "mappings based", nil, ExtractOptions{}, discard)
	if len(second) != len(first) {
		t.Fatalf("round trip changed block count: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Kind != second[i].Kind {
			t.Fatalf("block %d kind %s -> %s", i, first[i].Kind, second[i].Kind)
		}
		if first[i].Text() != second[i].Text() {
			t.Fatalf("block %d text %q -> %q", i, first[i].Text(), second[i].Text())
		}
		if first[i].IsTable() {
			if len(first[i].Table.Rows) != len(second[i].Table.Rows) {
				t.Fatalf("block %d row count changed", i)
			}
			if first[i].Table.CellText(1, 0) != second[i].Table.CellText(1, 0) {
				t.Fatalf("block %d cell text changed", i)
			}
		}
	}
}

func TestExtractKeepsDrawingRelID(t *testing.T) {
	pic := docmodel.Block{Kind: docmodel.KindParagraph, Paragraph: &docmodel.Paragraph{
		Inlines: []docmodel.Inline{{Run: &docmodel.Run{ID: "r1", RelID: "rId7", Drawing: &docmodel.Drawing{RelID: "rId7"}}}},
	}}
	doc := docmodel.New(heading("OBJECTIVE"), pic)
	got := Extract(doc, "objective", nil, ExtractOptions{}, discard)
	if len(got) != 1 {
		t.Fatalf("extracted %d blocks, want 1", len(got))
	}
	if got[0].Paragraph.Inlines[0].Run.RelID != "rId7" {
		t.Fatal("drawing run lost its relationship id")
	}
}

func TestInsertSequenceBreaksBetweenTables(t *testing.T) {
	doc := docmodel.New(docmodel.NewParagraph("anchor"))
	blocks := []docmodel.Block{
		docmodel.NewTable(1, 2),
		docmodel.NewTable(1, 2),
		docmodel.NewParagraph("after"),
	}
	At(doc, 0).InsertSequence(blocks)

	// anchor, table, page break, table, after
	if doc.Len() != 5 {
		t.Fatalf("got %d blocks, want 5", doc.Len())
	}
	if !doc.Blocks[2].HasPageBreak() {
		t.Fatal("no page break between adjacent tables")
	}
	if !doc.Blocks[1].IsTable() || !doc.Blocks[3].IsTable() {
		t.Fatal("tables not in expected positions")
	}
}

func TestReplaceSectionMissingDestinationHeading(t *testing.T) {
	src := docmodel.New(
		heading("OBJECTIVE"),
		docmodel.NewParagraph("generated objective text"),
		heading("PATENT-AT-ISSUE"),
	)
	dst := docmodel.New(
		docmodel.NewParagraph("title page"),
		heading("PATENT-AT-ISSUE"),
		docmodel.NewParagraph("facts"),
	)
	before := dst.Len()
	if !ReplaceSection(src, dst, section.DefaultPatterns(), "objective", "patent-at-issue", discard) {
		t.Fatal("replace reported failure")
	}
	// Heading plus content inserted before the end-heading match.
	if dst.Len() != before+2 {
		t.Fatalf("got %d blocks, want %d", dst.Len(), before+2)
	}
	if got := section.FindHeading(dst.Blocks, "objective", 0); got != 1 {
		t.Fatalf("objective heading at %d, want 1", got)
	}
}

func TestReplaceSectionBoundsAtNextMajorHeading(t *testing.T) {
	src := docmodel.New(
		heading("OBJECTIVE"),
		docmodel.NewParagraph("fresh"),
		heading("OTHER RELATED REFERENCES FOUND"),
	)
	// Destination lost its related-references heading; the next major
	// heading must bound the removal so patent facts survive.
	dst := docmodel.New(
		heading("OBJECTIVE"),
		docmodel.NewParagraph("stale one"),
		docmodel.NewParagraph("stale two"),
		heading("PATENT-AT-ISSUE"),
		docmodel.NewParagraph("facts"),
	)
	if !ReplaceSection(src, dst, section.DefaultPatterns(), "objective", "other related references found", discard) {
		t.Fatal("replace reported failure")
	}
	if idx := section.FindHeading(dst.Blocks, "patent-at-issue", 0); idx == section.NotFound {
		t.Fatal("patent-at-issue heading was wiped")
	}
	if dst.Blocks[dst.Len()-1].Text() != "facts" {
		t.Fatal("content after the fallback boundary was lost")
	}
	if section.FindHeading(dst.Blocks, "stale", 0) != section.NotFound {
		t.Fatal("stale content survived the replacement")
	}
}

func TestRunNewModeCanonicalOrder(t *testing.T) {
	c := New(discard)
	out, report, err := c.Run(context.Background(), testRequest(ModeNew), docmodel.New(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	idx := c.Patterns.Index(out.Blocks)
	if !section.InCanonicalOrder(idx) {
		t.Fatalf("sections out of canonical order: %v", idx)
	}
	for _, k := range []section.Kind{section.Objectives, section.PatentAtIssue, section.Criteria, section.Mappings, section.AppendixSearchStrategies, section.About} {
		if _, ok := idx[k]; !ok {
			t.Fatalf("section %s missing from generated document", k)
		}
	}
	if len(report.SectionsRegenerated) != len(section.CanonicalOrder) {
		t.Fatalf("regenerated %d sections, want %d", len(report.SectionsRegenerated), len(section.CanonicalOrder))
	}
}

func TestRunNewModeClaimChartsSeparated(t *testing.T) {
	c := New(discard)
	out, _, err := c.Run(context.Background(), testRequest(ModeNew), docmodel.New(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	start := c.Patterns.FindKind(out.Blocks, section.Mappings, 0)
	end := c.Patterns.NextMajorHeading(out.Blocks, start+1)
	var lastTable = -1
	for i := start + 1; i < end; i++ {
		if !out.Blocks[i].IsTable() {
			continue
		}
		if lastTable >= 0 {
			sawBreak := false
			for j := lastTable + 1; j < i; j++ {
				if out.Blocks[j].HasPageBreak() {
					sawBreak = true
				}
			}
			if !sawBreak {
				t.Fatalf("no page break between claim charts at %d and %d", lastTable, i)
			}
		}
		lastTable = i
	}
	if lastTable < 0 {
		t.Fatal("no claim charts generated")
	}
}

func TestRunMergePreservesEditedMappings(t *testing.T) {
	c := New(discard)
	req := testRequest(ModeMerge)

	// Build the edited report from a fresh generation, then hand-edit a
	// claim chart cell the way an analyst would.
	gen, _, err := c.Run(context.Background(), testRequest(ModeNew), docmodel.New(), nil)
	if err != nil {
		t.Fatalf("seed run: %v", err)
	}
	edited := gen.Clone()
	start := c.Patterns.FindKind(edited.Blocks, section.Mappings, 0)
	for i := start; i < edited.Len(); i++ {
		if edited.Blocks[i].IsTable() {
			edited.Blocks[i].Table.SetCellText(1, 1, "analyst note: strongly matched", nil)
			break
		}
	}

	out, report, err := c.Run(context.Background(), req, docmodel.New(), edited)
	if err != nil {
		t.Fatalf("merge run: %v", err)
	}
	found := false
	for _, b := range out.Blocks {
		if b.IsTable() && strings.Contains(b.Table.CellText(1, 1), "analyst note") {
			found = true
		}
	}
	if !found {
		t.Fatal("hand-edited chart cell did not survive the merge")
	}
	preserved := strings.Join(report.SectionsPreserved, ",")
	if !strings.Contains(preserved, "mappings") || !strings.Contains(preserved, "criteria") {
		t.Fatalf("preserved sections = %q, want criteria and mappings", preserved)
	}
	if !section.InCanonicalOrder(c.Patterns.Index(out.Blocks)) {
		t.Fatal("merged document out of canonical order")
	}
}

func TestRunMergeSingleMappingsIntro(t *testing.T) {
	c := New(discard)
	gen, _, err := c.Run(context.Background(), testRequest(ModeNew), docmodel.New(), nil)
	if err != nil {
		t.Fatalf("seed run: %v", err)
	}
	out, _, err := c.Run(context.Background(), testRequest(ModeMerge), docmodel.New(), gen)
	if err != nil {
		t.Fatalf("merge run: %v", err)
	}
	intros := 0
	introIdx := -1
	for i, b := range out.Blocks {
		if strings.HasPrefix(strings.ToLower(b.Text()), "these are the mappings") {
			intros++
			introIdx = i
		}
	}
	if intros != 1 {
		t.Fatalf("got %d mappings intro sentences, want 1", intros)
	}

	// The intro sits between empty spacers, never directly against the
	// heading or the first chart.
	isSpacer := func(b docmodel.Block) bool {
		return b.IsParagraph() && b.Text() == "" && !b.HasPageBreak()
	}
	if introIdx <= 0 || !isSpacer(out.Blocks[introIdx-1]) {
		t.Fatalf("block before intro = %q, want empty spacer", out.Blocks[introIdx-1].Text())
	}
	if introIdx+1 >= out.Len() || !isSpacer(out.Blocks[introIdx+1]) {
		t.Fatalf("block after intro = %q, want empty spacer", out.Blocks[introIdx+1].Text())
	}
}

func TestRunMergePreservesFallbackMatchedHeading(t *testing.T) {
	c := New(discard)
	gen, _, err := c.Run(context.Background(), testRequest(ModeNew), docmodel.New(), nil)
	if err != nil {
		t.Fatalf("seed run: %v", err)
	}

	// Reword the mappings heading so only the fallback pattern matches,
	// and mark a chart cell to track the section's content.
	edited := gen.Clone()
	idx := c.Patterns.FindKind(edited.Blocks, section.Mappings, 0)
	edited.Blocks[idx] = heading("MAPPINGS BASED ON UPDATED CHARTS")
	for i := idx; i < edited.Len(); i++ {
		if edited.Blocks[i].IsTable() {
			edited.Blocks[i].Table.SetCellText(2, 1, "analyst note: reworded heading", nil)
			break
		}
	}

	out, report, err := c.Run(context.Background(), testRequest(ModeMerge), docmodel.New(), edited)
	if err != nil {
		t.Fatalf("merge run: %v", err)
	}

	kept := false
	headings := 0
	for _, b := range out.Blocks {
		if strings.Contains(strings.ToLower(b.Text()), "mappings based") {
			headings++
		}
		if b.IsTable() && strings.Contains(b.Table.CellText(2, 1), "analyst note") {
			kept = true
		}
	}
	if !kept {
		t.Fatal("edited chart content lost behind fallback-matched heading")
	}
	if headings != 1 {
		t.Fatalf("got %d mappings headings, want 1", headings)
	}
	if !strings.Contains(strings.Join(report.SectionsPreserved, ","), "mappings") {
		t.Fatalf("preserved = %v, want mappings", report.SectionsPreserved)
	}
}

func TestRunMergeRegeneratesMissingSection(t *testing.T) {
	c := New(discard)
	gen, _, err := c.Run(context.Background(), testRequest(ModeNew), docmodel.New(), nil)
	if err != nil {
		t.Fatalf("seed run: %v", err)
	}
	// Delete the appendix from the edited copy entirely.
	edited := gen.Clone()
	start := c.Patterns.FindKind(edited.Blocks, section.AppendixSearchStrategies, 0)
	end := c.Patterns.FindKind(edited.Blocks, section.About, 0)
	edited.Remove(start, end)

	out, _, err := c.Run(context.Background(), testRequest(ModeMerge), docmodel.New(), edited)
	if err != nil {
		t.Fatalf("merge run: %v", err)
	}
	if c.Patterns.FindKind(out.Blocks, section.AppendixSearchStrategies, 0) == section.NotFound {
		t.Fatal("appendix not regenerated into merged document")
	}
	idx := c.Patterns.Index(out.Blocks)
	if !section.InCanonicalOrder(idx) {
		t.Fatalf("sections out of order after regeneration: %v", idx)
	}
}

func TestMergeClaimFragments(t *testing.T) {
	got := MergeClaimFragments([]string{"The router", "of claim 1,", "wherein the port is optical."})
	if len(got) != 1 {
		t.Fatalf("got %d fragments, want 1: %v", len(got), got)
	}
	want := "The router of claim 1, wherein the port is optical."
	if got[0] != want {
		t.Fatalf("merged = %q, want %q", got[0], want)
	}

	plain := MergeClaimFragments([]string{"A signal router comprising:", "a first port;"})
	if len(plain) != 2 {
		t.Fatalf("independent fragments merged unexpectedly: %v", plain)
	}
}

func TestRunRejectsMergeWithoutEdited(t *testing.T) {
	c := New(discard)
	_, _, err := c.Run(context.Background(), testRequest(ModeMerge), docmodel.New(), nil)
	if !HasCode(err, CodeInvariantViolation) {
		t.Fatalf("err = %v, want invariant violation", err)
	}
}
