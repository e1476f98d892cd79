package compose

import (
	"github.com/joelkehle/report-composer/internal/docmodel"
	"github.com/joelkehle/report-composer/internal/section"
)

// ReplaceSection copies the section delimited by startPattern/endPattern
// from src into dst, resolving boundaries on each side independently
// because the two documents drift apart: the edited copy may be missing a
// section entirely or carry reworded terminators.
//
// Destination rules:
//   - start heading present: everything between it (exclusive) and the end
//     boundary (exclusive) is removed, then src's content span (heading
//     excluded) is spliced right after dst's own heading;
//   - start heading missing: the whole src span, heading included, is
//     inserted immediately before dst's end-heading match, or appended when
//     that is missing too.
//
// The end boundary on the destination side falls back to the next
// major-section sentinel so a reworded terminator never wipes the rest of
// the document. Returns false when the section could not be merged; the
// caller logs and moves on, it never aborts the run.
func ReplaceSection(src, dst *docmodel.Document, ps section.PatternSet, startPattern, endPattern string, log LogFn) bool {
	srcStart := section.FindHeading(src.Blocks, startPattern, 0)
	if srcStart == section.NotFound {
		logf(log, "replace-section: %q not found in source, skipping", startPattern)
		return false
	}

	srcEnd := src.Len()
	if endPattern != "" {
		if idx := section.FindHeading(src.Blocks, endPattern, srcStart+1); idx != section.NotFound {
			srcEnd = idx
		} else if idx := ps.NextMajorHeading(src.Blocks, srcStart+1); idx != section.NotFound {
			srcEnd = idx
			logf(log, "replace-section: end %q not found in source, bounded at %q", endPattern, src.Blocks[idx].Text())
		} else {
			logf(log, "replace-section: end %q not found after %q in source, using end of document", endPattern, startPattern)
		}
	}

	dstStart := section.FindHeading(dst.Blocks, startPattern, 0)
	if dstStart == section.NotFound {
		logf(log, "replace-section: %q missing in destination", startPattern)
		fullSpan := docmodel.CloneBlocks(src.Blocks[srcStart:srcEnd])
		insertAt := section.NotFound
		if endPattern != "" {
			insertAt = section.FindHeading(dst.Blocks, endPattern, 0)
		}
		if insertAt != section.NotFound {
			dst.Insert(insertAt, fullSpan...)
			logf(log, "replace-section: inserted %q (%d blocks, heading included) before %q", startPattern, len(fullSpan), endPattern)
		} else {
			dst.Append(fullSpan...)
			logf(log, "replace-section: appended %q (%d blocks, heading included)", startPattern, len(fullSpan))
		}
		return true
	}

	dstEnd := dst.Len()
	if endPattern != "" {
		if idx := section.FindHeading(dst.Blocks, endPattern, dstStart+1); idx != section.NotFound {
			dstEnd = idx
		} else if idx := ps.NextMajorHeading(dst.Blocks, dstStart+1); idx != section.NotFound {
			dstEnd = idx
			logf(log, "replace-section: end %q not found in destination, bounded at %q", endPattern, dst.Blocks[idx].Text())
		} else {
			logf(log, "replace-section: no boundary after %q in destination, using end of document", startPattern)
		}
	}

	removed := dst.Remove(dstStart+1, dstEnd)
	content := docmodel.CloneBlocks(src.Blocks[srcStart+1 : srcEnd])
	At(dst, dstStart).InsertSequence(content)
	logf(log, "replace-section: %q replaced %d blocks with %d", startPattern, len(removed), len(content))
	return true
}
