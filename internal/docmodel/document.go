package docmodel

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document is an ordered, mutable block sequence owned by exactly one
// processing stage at a time. Indices into Blocks are invalidated by any
// insertion or removal; callers rescan rather than reuse them.
type Document struct {
	Blocks []Block `json:"blocks"`
}

func New(blocks ...Block) *Document {
	return &Document{Blocks: blocks}
}

func (d *Document) Len() int { return len(d.Blocks) }

// Append adds blocks at the end of the body.
func (d *Document) Append(blocks ...Block) {
	d.Blocks = append(d.Blocks, blocks...)
}

// Insert places blocks so the first one lands at index i. i == Len appends.
func (d *Document) Insert(i int, blocks ...Block) {
	if i < 0 {
		i = 0
	}
	if i > len(d.Blocks) {
		i = len(d.Blocks)
	}
	d.Blocks = append(d.Blocks[:i], append(append([]Block{}, blocks...), d.Blocks[i:]...)...)
}

// Remove deletes [start, end) and returns the removed blocks. Out-of-range
// bounds are clamped; an empty or inverted span removes nothing.
func (d *Document) Remove(start, end int) []Block {
	if start < 0 {
		start = 0
	}
	if end > len(d.Blocks) {
		end = len(d.Blocks)
	}
	if start >= end {
		return nil
	}
	removed := append([]Block{}, d.Blocks[start:end]...)
	d.Blocks = append(d.Blocks[:start], d.Blocks[end:]...)
	return removed
}

// Clone deep-copies the whole body with fresh ids.
func (d *Document) Clone() *Document {
	return &Document{Blocks: CloneBlocks(d.Blocks)}
}

// Encode writes the document as indented JSON, the interchange format the
// CLI tools read and write.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Decode reads a document from JSON.
func Decode(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &d, nil
}

// LoadFile reads a document JSON file from disk.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// SaveFile writes the document JSON to disk.
func (d *Document) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create document file: %w", err)
	}
	defer f.Close()
	return d.Encode(f)
}
