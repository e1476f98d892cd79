// Package docmodel models a word-processing document body as an ordered
// sequence of content blocks. Blocks carry no intrinsic identity in the host
// format; they are addressed by position or by text matching, so every
// structural operation here works on indices into a Document's block slice.
package docmodel

import (
	"strings"

	"github.com/google/uuid"
)

type BlockKind string

const (
	KindParagraph BlockKind = "paragraph"
	KindTable     BlockKind = "table"
)

// Block is a tagged variant: exactly one of Paragraph or Table is set,
// matching Kind.
type Block struct {
	ID        string     `json:"id"`
	Kind      BlockKind  `json:"kind"`
	Paragraph *Paragraph `json:"paragraph,omitempty"`
	Table     *Table     `json:"table,omitempty"`
}

// Paragraph holds ordered inline content. Spacing values are points; zero
// means no extra spacing, which is also what the repair pass normalizes to.
type Paragraph struct {
	StyleID         string   `json:"style_id,omitempty"`
	PageBreakBefore bool     `json:"page_break_before,omitempty"`
	SpaceBeforePt   float64  `json:"space_before_pt,omitempty"`
	SpaceAfterPt    float64  `json:"space_after_pt,omitempty"`
	LineSpacing     float64  `json:"line_spacing,omitempty"`
	Inlines         []Inline `json:"inlines,omitempty"`
}

// Inline is a tagged variant over paragraph content: a plain run or a
// hyperlink wrapper holding runs. Sanitization flattens the wrappers.
type Inline struct {
	Run       *Run       `json:"run,omitempty"`
	Hyperlink *Hyperlink `json:"hyperlink,omitempty"`
}

type Run struct {
	ID        string   `json:"id"`
	Text      string   `json:"text,omitempty"`
	Bold      bool     `json:"bold,omitempty"`
	Italic    bool     `json:"italic,omitempty"`
	SizePt    float64  `json:"size_pt,omitempty"`
	Font      string   `json:"font,omitempty"`
	Color     string   `json:"color,omitempty"` // hex RRGGBB
	PageBreak bool     `json:"page_break,omitempty"`
	RelID     string   `json:"rel_id,omitempty"` // relationship into the owning document's part table
	Drawing   *Drawing `json:"drawing,omitempty"`
}

// Drawing is an embedded image anchored inline in a run. Its relationship id
// must survive sanitization or the image stops rendering.
type Drawing struct {
	RelID    string `json:"rel_id"`
	WidthEMU int64  `json:"width_emu,omitempty"`
	HeightEMU int64 `json:"height_emu,omitempty"`
	Alt      string `json:"alt,omitempty"`
}

// Hyperlink wraps runs; RelID points into the source document's relationship
// table and is meaningless once the runs move to another document.
type Hyperlink struct {
	RelID  string `json:"rel_id,omitempty"`
	Target string `json:"target,omitempty"`
	Runs   []Run  `json:"runs"`
}

type Table struct {
	StyleID string     `json:"style_id,omitempty"`
	Rows    []TableRow `json:"rows"`
}

type TableRow struct {
	Cells []TableCell `json:"cells"`
}

// TableCell nests a block sequence of its own.
type TableCell struct {
	Blocks []Block `json:"blocks"`
}

func newID() string { return uuid.NewString() }

func (b Block) IsParagraph() bool { return b.Kind == KindParagraph && b.Paragraph != nil }
func (b Block) IsTable() bool     { return b.Kind == KindTable && b.Table != nil }

// Text returns the flattened visible text of a paragraph block, hyperlink
// contents included. Table blocks flatten to the empty string; they are never
// heading candidates.
func (b Block) Text() string {
	if !b.IsParagraph() {
		return ""
	}
	var sb strings.Builder
	for _, in := range b.Paragraph.Inlines {
		if in.Run != nil {
			sb.WriteString(in.Run.Text)
		}
		if in.Hyperlink != nil {
			for _, r := range in.Hyperlink.Runs {
				sb.WriteString(r.Text)
			}
		}
	}
	return sb.String()
}

// HasPageBreak reports whether the block renders a page break, either via the
// paragraph's page-break-before flag or an explicit break run.
func (b Block) HasPageBreak() bool {
	if !b.IsParagraph() {
		return false
	}
	if b.Paragraph.PageBreakBefore {
		return true
	}
	for _, in := range b.Paragraph.Inlines {
		if in.Run != nil && in.Run.PageBreak {
			return true
		}
	}
	return false
}

// NewParagraph builds a paragraph block with a single plain run. Empty text
// yields a paragraph with no inlines.
func NewParagraph(text string) Block {
	p := &Paragraph{}
	if text != "" {
		p.Inlines = []Inline{{Run: &Run{ID: newID(), Text: text}}}
	}
	return Block{ID: newID(), Kind: KindParagraph, Paragraph: p}
}

// NewStyledParagraph builds a single-run paragraph with run formatting
// applied, for generated headings and intro sentences.
func NewStyledParagraph(text string, style func(*Run)) Block {
	r := &Run{ID: newID(), Text: text}
	if style != nil {
		style(r)
	}
	return Block{ID: newID(), Kind: KindParagraph, Paragraph: &Paragraph{
		Inlines: []Inline{{Run: r}},
	}}
}

// NewRun builds a styled run for callers assembling multi-run paragraphs.
func NewRun(text string, style func(*Run)) *Run {
	r := &Run{ID: newID(), Text: text}
	if style != nil {
		style(r)
	}
	return r
}

// NewRunsParagraph builds a paragraph from pre-styled runs, for sentences
// that mix formatting mid-stream.
func NewRunsParagraph(runs ...*Run) Block {
	p := &Paragraph{Inlines: make([]Inline, 0, len(runs))}
	for _, r := range runs {
		p.Inlines = append(p.Inlines, Inline{Run: r})
	}
	return Block{ID: newID(), Kind: KindParagraph, Paragraph: p}
}

// NewPageBreak builds a paragraph whose only content is an explicit page
// break run, the shape the splicer inserts at claim boundaries.
func NewPageBreak() Block {
	return Block{ID: newID(), Kind: KindParagraph, Paragraph: &Paragraph{
		Inlines: []Inline{{Run: &Run{ID: newID(), PageBreak: true}}},
	}}
}

// NewSpacer builds an empty paragraph with zero spacing, used to normalize
// the gap around spliced content regardless of what was preserved.
func NewSpacer() Block {
	return Block{ID: newID(), Kind: KindParagraph, Paragraph: &Paragraph{}}
}

// NewTable builds an empty table block with the given dimensions.
func NewTable(rows, cols int) Block {
	t := &Table{Rows: make([]TableRow, rows)}
	for i := range t.Rows {
		t.Rows[i].Cells = make([]TableCell, cols)
		for j := range t.Rows[i].Cells {
			t.Rows[i].Cells[j].Blocks = []Block{}
		}
	}
	return Block{ID: newID(), Kind: KindTable, Table: t}
}

// SetCellText replaces a cell's content with a single paragraph.
func (t *Table) SetCellText(row, col int, text string, style func(*Run)) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row].Cells) {
		return
	}
	t.Rows[row].Cells[col].Blocks = []Block{NewStyledParagraph(text, style)}
}

// CellText flattens the text of every block in a cell, space-joined.
func (t *Table) CellText(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row].Cells) {
		return ""
	}
	parts := make([]string, 0, len(t.Rows[row].Cells[col].Blocks))
	for _, b := range t.Rows[row].Cells[col].Blocks {
		if s := b.Text(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
