// Package section identifies logical report sections inside a block
// sequence. Heading text is the only structural signal the host document
// format exposes, so every lookup here is a case-insensitive substring match
// over paragraph text, isolated behind the Scanner interface so the matching
// strategy can be swapped without touching the orchestrator.
package section

import (
	"strings"

	"github.com/joelkehle/report-composer/internal/docmodel"
)

// Kind tags a recognized report section. The declaration order is the
// canonical document order; About is the terminal sentinel that always
// closes the document.
type Kind int

const (
	Title Kind = iota
	Objectives
	OtherRelatedReferences
	PatentAtIssue
	Criteria
	Mappings
	AppendixSearchStrategies
	About
)

var kindNames = map[Kind]string{
	Title:                    "title",
	Objectives:               "objectives",
	OtherRelatedReferences:   "other_related_references",
	PatentAtIssue:            "patent_at_issue",
	Criteria:                 "criteria",
	Mappings:                 "mappings",
	AppendixSearchStrategies: "appendix_search_strategies",
	About:                    "about",
}

func (k Kind) String() string { return kindNames[k] }

// CanonicalOrder is the fixed sequence of kinds a valid output document must
// follow (invariant I1).
var CanonicalOrder = []Kind{
	Title, Objectives, OtherRelatedReferences, PatentAtIssue,
	Criteria, Mappings, AppendixSearchStrategies, About,
}

// PatternSet maps each kind to its recognized heading substrings, primary
// pattern first. Fallback patterns absorb the heading drift hand-edited
// documents accumulate.
type PatternSet map[Kind][]string

// DefaultPatterns mirrors the heading strings the report templates use.
func DefaultPatterns() PatternSet {
	return PatternSet{
		Title:                    {"invalidity search report", "publication search report"},
		Objectives:               {"objective"},
		OtherRelatedReferences:   {"other related references found", "other related references"},
		PatentAtIssue:            {"patent-at-issue"},
		Criteria:                 {"criteria for the publication search", "criteria for"},
		Mappings:                 {"mappings based on selected references", "mappings based"},
		AppendixSearchStrategies: {"appendix b: search strategies", "appendix b", "search strategies"},
		About:                    {"disclaimer", "about us"},
	}
}

// Primary returns the first (preferred) pattern for a kind.
func (ps PatternSet) Primary(k Kind) string {
	pats := ps[k]
	if len(pats) == 0 {
		return ""
	}
	return pats[0]
}

// MajorHeadings lists the sentinel substrings any major section heading
// matches. Used as the permissive end-boundary fallback when an expected
// terminator heading is missing from a hand-edited document.
func (ps PatternSet) MajorHeadings() []string {
	out := []string{}
	for _, k := range []Kind{Objectives, OtherRelatedReferences, PatentAtIssue, Criteria, Mappings, AppendixSearchStrategies, About} {
		out = append(out, ps[k]...)
	}
	return out
}

// NotFound is the scanner's miss value.
const NotFound = -1

// Scanner locates headings in a block sequence.
type Scanner interface {
	FindHeading(blocks []docmodel.Block, pattern string, from int) int
}

// TextScanner is the default Scanner: case-insensitive substring containment
// against each paragraph block's flattened text. Table blocks are never
// heading candidates.
type TextScanner struct{}

func (TextScanner) FindHeading(blocks []docmodel.Block, pattern string, from int) int {
	return FindHeading(blocks, pattern, from)
}

// FindHeading returns the index of the first paragraph block at or after
// from whose flattened text contains pattern, case-insensitively, or
// NotFound. O(N) over the scanned span.
func FindHeading(blocks []docmodel.Block, pattern string, from int) int {
	if pattern == "" {
		return NotFound
	}
	needle := strings.ToLower(strings.TrimSpace(pattern))
	if from < 0 {
		from = 0
	}
	for i := from; i < len(blocks); i++ {
		if !blocks[i].IsParagraph() {
			continue
		}
		if strings.Contains(strings.ToLower(blocks[i].Text()), needle) {
			return i
		}
	}
	return NotFound
}

// FindAny returns the first index at or after from matching any of the
// given patterns.
func FindAny(blocks []docmodel.Block, patterns []string, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(blocks); i++ {
		if !blocks[i].IsParagraph() {
			continue
		}
		text := strings.ToLower(blocks[i].Text())
		for _, p := range patterns {
			if p == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(strings.TrimSpace(p))) {
				return i
			}
		}
	}
	return NotFound
}

// FindKind locates a kind's heading by trying its patterns in preference
// order across the whole scan, primary pattern first.
func (ps PatternSet) FindKind(blocks []docmodel.Block, k Kind, from int) int {
	idx, _ := ps.FindKindMatch(blocks, k, from)
	return idx
}

// FindKindMatch is FindKind plus the pattern that matched, for callers that
// need to re-locate the same heading later.
func (ps PatternSet) FindKindMatch(blocks []docmodel.Block, k Kind, from int) (int, string) {
	for _, p := range ps[k] {
		if idx := FindHeading(blocks, p, from); idx != NotFound {
			return idx, p
		}
	}
	return NotFound, ""
}

// NextMajorHeading returns the index of the next block after from matching
// any major-section sentinel, or NotFound. This is the deliberate
// fail-open boundary rule: a missing end heading never wipes the rest of
// the document.
func (ps PatternSet) NextMajorHeading(blocks []docmodel.Block, from int) int {
	return FindAny(blocks, ps.MajorHeadings(), from)
}

// Index maps every kind to its first heading index in the body, NotFound
// omitted. Always recomputed on demand: any mutation invalidates it.
func (ps PatternSet) Index(blocks []docmodel.Block) map[Kind]int {
	out := map[Kind]int{}
	for _, k := range CanonicalOrder {
		if idx := ps.FindKind(blocks, k, 0); idx != NotFound {
			out[k] = idx
		}
	}
	return out
}

// InCanonicalOrder reports whether the kinds present in idx occur in
// canonical order.
func InCanonicalOrder(idx map[Kind]int) bool {
	last := -1
	for _, k := range CanonicalOrder {
		pos, ok := idx[k]
		if !ok {
			continue
		}
		if pos < last {
			return false
		}
		last = pos
	}
	return true
}
