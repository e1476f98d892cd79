package compose

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joelkehle/report-composer/internal/docmodel"
	"github.com/joelkehle/report-composer/internal/repair"
	"github.com/joelkehle/report-composer/internal/section"
)

// Composer drives one composition run. It is stateless between runs;
// everything positional is recomputed from the document on each step, so a
// Composer can be reused across requests.
type Composer struct {
	Patterns section.PatternSet
	Log      LogFn
	tracer   trace.Tracer
}

func New(log LogFn) *Composer {
	return &Composer{
		Patterns: section.DefaultPatterns(),
		Log:      log,
		tracer:   otel.Tracer("report-composer/compose"),
	}
}

// Run executes the request against the blank template and, in merge mode,
// the hand-edited report. Inputs are never mutated; the returned document is
// a fresh tree. Section-level failures degrade to warnings in the RunReport;
// only unusable inputs produce an error.
func (c *Composer) Run(ctx context.Context, req Request, template, edited *docmodel.Document) (*docmodel.Document, RunReport, error) {
	ctx, span := c.tracer.Start(ctx, "compose.run", trace.WithAttributes(
		attribute.String("mode", string(req.Mode)),
		attribute.String("patent", req.PatentNumber),
		attribute.Int("claims", len(req.Claims)),
	))
	defer span.End()

	report := RunReport{Mode: req.Mode}
	if template == nil {
		return nil, report, newError(CodeInvariantViolation, "", "nil template document")
	}
	if req.Mode == ModeMerge && edited == nil {
		return nil, report, newError(CodeInvariantViolation, "", "merge mode requires an edited document")
	}

	gen := c.generateAll(ctx, req, template, &report)

	var out *docmodel.Document
	switch req.Mode {
	case ModeMerge:
		out = c.merge(ctx, req, gen, edited, &report)
	default:
		out = gen
	}

	_, repairSpan := c.tracer.Start(ctx, "compose.repair")
	warnings := repair.Run(out, c.Patterns, c.Log)
	repairSpan.End()
	report.Warnings = append(report.Warnings, warnings...)

	if !section.InCanonicalOrder(c.Patterns.Index(out.Blocks)) {
		w := "sections remain out of canonical order after repair"
		report.Warnings = append(report.Warnings, w)
		logf(c.Log, "run: %s", w)
	}
	return out, report, nil
}

// generateAll produces the fully generated document from the template: every
// section rebuilt from the request, canonical order by construction.
func (c *Composer) generateAll(ctx context.Context, req Request, template *docmodel.Document, report *RunReport) *docmodel.Document {
	_, span := c.tracer.Start(ctx, "compose.generate")
	defer span.End()

	doc := template.Clone()
	generateTitle(doc, c.Patterns, req, c.Log)
	generateObjectives(doc, c.Patterns, req, c.Log)
	generateOtherRelatedReferences(doc, c.Patterns, req, c.Log)
	generatePatentAtIssue(doc, c.Patterns, req, c.Log)
	generateCriteria(doc, c.Patterns, req, c.Log)
	generateMappings(doc, c.Patterns, req, c.Log)
	generateAppendix(doc, c.Patterns, req, c.Log)
	generateAbout(doc, c.Patterns, c.Log)

	if req.Mode != ModeMerge {
		for _, k := range section.CanonicalOrder {
			report.SectionsRegenerated = append(report.SectionsRegenerated, k.String())
		}
	}
	return doc
}

// merge overlays the generated document onto a clone of the hand-edited
// report: Criteria and Mappings are preserved from the edit when present,
// everything else is replaced from the generated source.
func (c *Composer) merge(ctx context.Context, req Request, gen, edited *docmodel.Document, report *RunReport) *docmodel.Document {
	_, span := c.tracer.Start(ctx, "compose.merge")
	defer span.End()

	target := edited.Clone()
	ps := c.Patterns

	c.mergeTitle(gen, target, report)

	type step struct {
		kind section.Kind
		end  section.Kind
	}
	for _, s := range []step{
		{section.Objectives, section.OtherRelatedReferences},
		{section.OtherRelatedReferences, section.PatentAtIssue},
		{section.PatentAtIssue, section.Criteria},
	} {
		c.mergeRegenerated(gen, target, s.kind, ps.Primary(s.end), report)
	}

	c.mergePreserved(target, gen, section.Criteria, ps[section.Mappings], nil, report)
	c.mergePreserved(target, gen, section.Mappings,
		append(append([]string{}, ps[section.AppendixSearchStrategies]...), ps[section.About]...),
		[]docmodel.Block{
			docmodel.NewSpacer(),
			docmodel.NewStyledParagraph(MappingsIntro(req), styleBody),
			docmodel.NewSpacer(),
		}, report)

	c.mergeRegenerated(gen, target, section.AppendixSearchStrategies, ps.Primary(section.About), report)
	c.mergeRegenerated(gen, target, section.About, "", report)

	return target
}

// mergeTitle replaces everything before the Objectives heading with the
// generated title span; the title page has no heading of its own.
func (c *Composer) mergeTitle(gen, target *docmodel.Document, report *RunReport) {
	genEnd := c.Patterns.FindKind(gen.Blocks, section.Objectives, 0)
	if genEnd == section.NotFound {
		genEnd = gen.Len()
	}
	span := docmodel.CloneBlocks(gen.Blocks[:genEnd])

	tgtEnd := c.Patterns.FindKind(target.Blocks, section.Objectives, 0)
	if tgtEnd == section.NotFound {
		tgtEnd = 0
	}
	target.Remove(0, tgtEnd)
	target.Insert(0, span...)
	report.SectionsRegenerated = append(report.SectionsRegenerated, section.Title.String())
	logf(c.Log, "merge: title page replaced (%d blocks)", len(span))
}

func (c *Composer) mergeRegenerated(gen, target *docmodel.Document, k section.Kind, endPattern string, report *RunReport) {
	if ReplaceSection(gen, target, c.Patterns, c.Patterns.Primary(k), endPattern, c.Log) {
		report.SectionsRegenerated = append(report.SectionsRegenerated, k.String())
		return
	}
	report.SectionsSkipped = append(report.SectionsSkipped, k.String())
}

// mergePreserved keeps the hand-edited content of a section in place when it
// exists, normalizing it through the extract/sanitize/splice cycle so
// cross-document relationship ids never leak; the section falls back to the
// generated copy when the edit has no content for it. The extraction fully
// completes before any removal touches the document, which is what makes
// same-document preservation safe.
func (c *Composer) mergePreserved(target, gen *docmodel.Document, k section.Kind, endPatterns []string, prologue []docmodel.Block, report *RunReport) {
	ps := c.Patterns

	// Extract with the pattern that actually matched: a heading found only
	// by a fallback pattern must not yield an empty extraction, or the
	// regeneration path would duplicate the section.
	start, matched := ps.FindKindMatch(target.Blocks, k, 0)
	var content []docmodel.Block
	if start != section.NotFound {
		content = Extract(target, matched, endPatterns,
			ExtractOptions{SkipEmptyParagraphs: true}, c.Log)
	}

	if start == section.NotFound || !hasSubstance(content) {
		logf(c.Log, "merge: %s has no edited content, regenerating", k)
		end := ""
		if len(endPatterns) > 0 {
			end = endPatterns[0]
		}
		c.mergeRegenerated(gen, target, k, end, report)
		return
	}

	end := target.Len()
	if idx := section.FindAny(target.Blocks, endPatterns, start+1); idx != section.NotFound {
		end = idx
	}
	target.Remove(start+1, end)

	if len(prologue) > 0 {
		content = dropStaleIntro(content)
	}
	cur := At(target, start)
	cur = cur.InsertSequence(prologue)
	cur.InsertSequence(content)
	report.SectionsPreserved = append(report.SectionsPreserved, k.String())
	logf(c.Log, "merge: %s preserved (%d blocks kept)", k, len(content))
}

// hasSubstance reports whether an extracted span carries anything beyond
// blank paragraphs and page breaks.
func hasSubstance(blocks []docmodel.Block) bool {
	for _, b := range blocks {
		if b.IsTable() {
			return true
		}
		if b.Text() != "" {
			return true
		}
	}
	return false
}

// dropStaleIntro removes a previously generated intro sentence from the head
// of a preserved span so the fresh prologue does not duplicate it.
func dropStaleIntro(blocks []docmodel.Block) []docmodel.Block {
	for len(blocks) > 0 && blocks[0].IsParagraph() {
		text := strings.ToLower(blocks[0].Text())
		if (text == "" && !blocks[0].HasPageBreak()) || strings.HasPrefix(text, "these are the mappings") {
			blocks = blocks[1:]
			continue
		}
		break
	}
	return blocks
}
