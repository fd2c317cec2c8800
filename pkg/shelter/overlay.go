package shelter

import (
	"sort"
	"strings"

	"github.com/shelterhq/shelter/pkg/edf"
)

// OverlaySpan is a display region whose rendered content is replaced by
// masked text without altering the underlying stored text. Columns are
// 0-based byte offsets within the line; the span is [StartCol, EndCol).
type OverlaySpan struct {
	Line        int
	StartCol    int
	EndCol      int
	DisplayText string
}

// MapOverlays converts one masked line descriptor into display overlay
// spans, one per physical line the value covers.
//
// Quote characters are never overwritten: for quoted values the span
// starts one past the opening quote and ends one before the closing quote.
// If any covered line is in revealed, nothing is emitted and the value
// stays visible. Zero-length values emit nothing.
func MapOverlays(m MaskedLine, doc *edf.Document, revealed map[int]bool) []OverlaySpan {
	for line := m.StartLine; line <= m.EndLine; line++ {
		if revealed[line] {
			return nil
		}
	}

	if m.ValueEnd <= m.ValueStart {
		return nil
	}

	quoted := m.Quote != edf.QuoteNone

	if m.StartLine == m.EndLine {
		return mapSingleLine(m, doc, quoted)
	}

	return mapMultiLine(m, doc, quoted)
}

func mapSingleLine(m MaskedLine, doc *edf.Document, quoted bool) []OverlaySpan {
	lineStart := doc.LineStart(m.StartLine)
	lineLen := doc.LineEnd(m.StartLine) - lineStart

	start := m.ValueStart - lineStart
	end := m.ValueEnd - lineStart

	if quoted {
		start++
		end--
	}

	start, end = clampSpan(start, end, lineLen)
	if start == end {
		return nil
	}

	return []OverlaySpan{{
		Line:        m.StartLine,
		StartCol:    start,
		EndCol:      end,
		DisplayText: m.Mask,
	}}
}

func mapMultiLine(m MaskedLine, doc *edf.Document, quoted bool) []OverlaySpan {
	spans := make([]OverlaySpan, 0, m.EndLine-m.StartLine+1)
	mask := newMaskSlicer(m.Mask)

	for line := m.StartLine; line <= m.EndLine; line++ {
		lineStart := doc.LineStart(line)
		lineLen := doc.LineEnd(line) - lineStart

		start := 0
		end := lineLen

		switch line {
		case m.StartLine:
			start = m.ValueStart - lineStart
			if quoted {
				start++
			}
		case m.EndLine:
			// Never cover trailing content past the value's true end.
			end = m.ValueEnd - lineStart
			if quoted {
				end--
			}
		}

		start, end = clampSpan(start, end, lineLen)
		if start == end {
			continue
		}

		spans = append(spans, OverlaySpan{
			Line:        line,
			StartCol:    start,
			EndCol:      end,
			DisplayText: mask.take(end - start),
		})
	}

	return spans
}

func clampSpan(start, end, lineLen int) (int, int) {
	if start < 0 {
		start = 0
	}

	if start > lineLen {
		start = lineLen
	}

	if end > lineLen {
		end = lineLen
	}

	if end < start {
		end = start
	}

	return start, end
}

// maskSlicer hands out successive slices of a strategy's masked output so
// multi-line overlays re-use one mask across physical lines. When the mask
// runs short of the covered range it is extended by repeating its final
// character, so every overlay's length equals the range it covers.
type maskSlicer struct {
	runes []rune
	pos   int
	pad   rune
}

func newMaskSlicer(mask string) *maskSlicer {
	runes := []rune(mask)

	pad := '*'
	if len(runes) > 0 {
		pad = runes[len(runes)-1]
	}

	return &maskSlicer{runes: runes, pad: pad}
}

func (s *maskSlicer) take(n int) string {
	var b strings.Builder

	b.Grow(n)

	for range n {
		if s.pos < len(s.runes) {
			b.WriteRune(s.runes[s.pos])
			s.pos++

			continue
		}

		b.WriteRune(s.pad)
	}

	return b.String()
}

// RenderMasked returns the document's text as it displays with the overlay
// spans applied. Bytes outside the spans are untouched, so line count and
// layout are preserved exactly.
func RenderMasked(doc *edf.Document, spans []OverlaySpan) string {
	byLine := make(map[int][]OverlaySpan, len(spans))
	for _, span := range spans {
		byLine[span.Line] = append(byLine[span.Line], span)
	}

	src := doc.Source()

	var b strings.Builder

	b.Grow(len(src))

	for line := 1; line <= doc.LineCount(); line++ {
		lineStart := doc.LineStart(line)
		lineEnd := doc.LineEnd(line)
		text := string(src[lineStart:lineEnd])

		lineSpans := byLine[line]
		sort.Slice(lineSpans, func(i, j int) bool {
			return lineSpans[i].StartCol > lineSpans[j].StartCol
		})

		// Right-to-left so earlier spans keep valid byte columns.
		for _, span := range lineSpans {
			start, end := clampSpan(span.StartCol, span.EndCol, len(text))
			text = text[:start] + span.DisplayText + text[end:]
		}

		b.WriteString(text)

		// Restore the exact line terminator from the source.
		nextStart := len(src)
		if line < doc.LineCount() {
			nextStart = doc.LineStart(line + 1)
		}

		b.Write(src[lineEnd:nextStart])
	}

	return b.String()
}
