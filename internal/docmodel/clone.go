package docmodel

// Deep clone assigns a fresh id to every element it copies, so a clone can
// never alias mutable state in the source document even when the source body
// itself carried shared sub-structure.

// CloneBlock returns a deep copy of b with fresh ids throughout, including
// table rows, cells, and nested blocks.
func CloneBlock(b Block) Block {
	out := Block{ID: newID(), Kind: b.Kind}
	if b.Paragraph != nil {
		out.Paragraph = cloneParagraph(b.Paragraph)
	}
	if b.Table != nil {
		out.Table = cloneTable(b.Table)
	}
	return out
}

// CloneBlocks clones a block sequence in order.
func CloneBlocks(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, CloneBlock(b))
	}
	return out
}

func cloneParagraph(p *Paragraph) *Paragraph {
	out := &Paragraph{
		StyleID:         p.StyleID,
		PageBreakBefore: p.PageBreakBefore,
		SpaceBeforePt:   p.SpaceBeforePt,
		SpaceAfterPt:    p.SpaceAfterPt,
		LineSpacing:     p.LineSpacing,
	}
	for _, in := range p.Inlines {
		out.Inlines = append(out.Inlines, cloneInline(in))
	}
	return out
}

func cloneInline(in Inline) Inline {
	var out Inline
	if in.Run != nil {
		r := cloneRun(*in.Run)
		out.Run = &r
	}
	if in.Hyperlink != nil {
		h := &Hyperlink{RelID: in.Hyperlink.RelID, Target: in.Hyperlink.Target}
		for _, r := range in.Hyperlink.Runs {
			h.Runs = append(h.Runs, cloneRun(r))
		}
		out.Hyperlink = h
	}
	return out
}

func cloneRun(r Run) Run {
	out := r
	out.ID = newID()
	if r.Drawing != nil {
		d := *r.Drawing
		out.Drawing = &d
	}
	return out
}

func cloneTable(t *Table) *Table {
	out := &Table{StyleID: t.StyleID}
	for _, row := range t.Rows {
		newRow := TableRow{}
		for _, cell := range row.Cells {
			newRow.Cells = append(newRow.Cells, TableCell{Blocks: CloneBlocks(cell.Blocks)})
		}
		out.Rows = append(out.Rows, newRow)
	}
	return out
}
