package compose

import (
	"github.com/joelkehle/report-composer/internal/docmodel"
)

// Cursor is the explicit "insert after here" handle threaded through every
// splice call. It is a value, never process-wide state; any removal or
// insertion elsewhere in the document invalidates it like any other index.
type Cursor struct {
	Doc   *docmodel.Document
	Index int // index of the anchor / last-inserted block
}

// At anchors a cursor on an existing block index.
func At(doc *docmodel.Document, index int) Cursor {
	return Cursor{Doc: doc, Index: index}
}

// InsertAfter places one block immediately after the cursor and returns the
// advanced cursor.
func (c Cursor) InsertAfter(b docmodel.Block) Cursor {
	c.Doc.Insert(c.Index+1, b)
	c.Index++
	return c
}

// InsertSequence splices a run of blocks after the cursor in order. A table
// block whose predecessor in the incoming sequence is also a table marks a
// claim boundary and gets a page-break paragraph inserted ahead of it.
// Existing destination blocks are never removed here; replacement is a
// separate, freshly-rescanned remove step.
func (c Cursor) InsertSequence(blocks []docmodel.Block) Cursor {
	for i, b := range blocks {
		if i > 0 && b.IsTable() && blocks[i-1].IsTable() {
			c = c.InsertAfter(docmodel.NewPageBreak())
		}
		c = c.InsertAfter(b)
	}
	return c
}
