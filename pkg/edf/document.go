package edf

import "sort"

// QuoteKind identifies how a value was quoted in the source.
type QuoteKind uint8

// QuoteKind values.
const (
	QuoteNone QuoteKind = iota
	QuoteSingle
	QuoteDouble
)

// String returns the config-facing name of the quote kind.
func (q QuoteKind) String() string {
	switch q {
	case QuoteSingle:
		return "single"
	case QuoteDouble:
		return "double"
	default:
		return "none"
	}
}

// Entry is one parsed key/value record with byte-accurate position metadata.
//
// Byte spans are half-open [start, end) offsets into the parsed content.
// For quoted values the value span covers the quote characters; Value holds
// the decoded text between them.
type Entry struct {
	Key   string
	Value string

	KeyStart   int
	KeyEnd     int
	ValueStart int
	ValueEnd   int

	// StartLine is the 1-based line the key starts on. EndLine is the
	// 1-based line the value ends on; it exceeds StartLine only for
	// multi-line quoted values.
	StartLine int
	EndLine   int

	Quote     QuoteKind
	Exported  bool
	IsComment bool
}

// Document is the result of parsing EDF content.
type Document struct {
	Entries []Entry

	// LineOffsets holds the byte offset where each line begins.
	// LineOffsets[0] == 0 (line 1); offsets are strictly increasing.
	LineOffsets []int

	src []byte
}

// Source returns the raw content the document was parsed from.
func (d *Document) Source() []byte {
	return d.src
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.LineOffsets)
}

// LineStart returns the byte offset where the 1-based line begins.
// Out-of-range lines return 0.
func (d *Document) LineStart(line int) int {
	if line < 1 || line > len(d.LineOffsets) {
		return 0
	}

	return d.LineOffsets[line-1]
}

// LineEnd returns the byte offset just past the content of the 1-based
// line, excluding the trailing newline (and a preceding '\r' if present).
func (d *Document) LineEnd(line int) int {
	if line < 1 || line > len(d.LineOffsets) {
		return 0
	}

	end := len(d.src)
	if line < len(d.LineOffsets) {
		end = d.LineOffsets[line] - 1 // drop '\n'
	}

	if end > d.LineOffsets[line-1] && d.src[end-1] == '\r' {
		end--
	}

	return end
}

// LineAt returns the 1-based line containing the byte offset.
func (d *Document) LineAt(offset int) int {
	// First line whose start is past the offset; the offset lives on the
	// line before it.
	idx := sort.SearchInts(d.LineOffsets, offset+1)

	return idx
}
