package edf

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

// Sentinel errors returned by the parser.
//
// Callers should use [errors.Is] to check error types.
var (
	// ErrInvalidUTF8 indicates the content is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("edf: invalid UTF-8")

	// ErrUnterminatedQuote indicates a quoted value ran to end of input
	// without a closing quote.
	ErrUnterminatedQuote = errors.New("edf: unterminated quote")
)

// Options configures parsing behavior.
type Options struct {
	// IncludeComments surfaces commented-out pairs (e.g. "# KEY=value")
	// as entries with IsComment set. Plain comments are never entries.
	IncludeComments bool
}

// Parse parses EDF content with default options (comments included).
func Parse(content []byte) (*Document, error) {
	return ParseWithOptions(content, Options{IncludeComments: true})
}

// ParseWithOptions parses EDF content.
//
// The returned document references content; callers must not mutate it
// while the document is in use.
func ParseWithOptions(content []byte, opts Options) (*Document, error) {
	if !utf8.Valid(content) {
		return nil, ErrInvalidUTF8
	}

	doc := &Document{
		LineOffsets: lineOffsets(content),
		src:         content,
	}

	p := &parser{src: content, opts: opts, doc: doc}

	err := p.run()
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// lineOffsets returns the byte offset where each line begins.
func lineOffsets(src []byte) []int {
	offsets := make([]int, 0, len(src)/32+1)
	offsets = append(offsets, 0)

	for i, b := range src {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}

	return offsets
}

type parser struct {
	src  []byte
	pos  int
	opts Options
	doc  *Document
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		p.skipSpaces()

		if p.pos >= len(p.src) {
			break
		}

		switch p.src[p.pos] {
		case '\n', '\r':
			p.skipToNextLine()
		case '#':
			err := p.parseCommentLine()
			if err != nil {
				return err
			}
		default:
			err := p.parseEntry(false)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// parseCommentLine handles a line starting with '#'. A commented-out pair
// ("# KEY=value") becomes an entry with IsComment set when enabled;
// anything else is skipped.
func (p *parser) parseCommentLine() error {
	if !p.opts.IncludeComments {
		p.skipToNextLine()

		return nil
	}

	saved := p.pos

	for p.pos < len(p.src) && p.src[p.pos] == '#' {
		p.pos++
	}

	p.skipSpaces()

	before := len(p.doc.Entries)

	err := p.parseEntry(true)
	if err != nil {
		return err
	}

	if len(p.doc.Entries) == before {
		// Not a commented-out pair; it's prose. Skip the line.
		p.pos = saved
		p.skipToNextLine()
	}

	return nil
}

// parseEntry parses one key=value entry starting at p.pos. Malformed lines
// are skipped without error. isComment restricts the value to a single
// line (comments are line-scoped).
func (p *parser) parseEntry(isComment bool) error {
	exported := p.consumeExportPrefix()

	keyStart := p.pos
	keyEnd := p.scanKey()

	if keyEnd == keyStart {
		p.skipToNextLine()

		return nil
	}

	p.pos = keyEnd
	p.skipSpaces()

	if p.pos >= len(p.src) || p.src[p.pos] != '=' {
		p.skipToNextLine()

		return nil
	}

	p.pos++
	p.skipSpaces()

	valueStart, valueEnd, value, quote, err := p.scanValue(isComment)
	if err != nil {
		return err
	}

	if quote == QuoteNone && valueEnd < valueStart {
		// Unterminated single-line quote inside a comment reads as prose.
		p.skipToNextLine()

		return nil
	}

	startLine := p.doc.LineAt(keyStart)

	endLine := startLine
	if valueEnd > valueStart {
		endLine = p.doc.LineAt(valueEnd - 1)
	}

	p.doc.Entries = append(p.doc.Entries, Entry{
		Key:        string(p.src[keyStart:keyEnd]),
		Value:      value,
		KeyStart:   keyStart,
		KeyEnd:     keyEnd,
		ValueStart: valueStart,
		ValueEnd:   valueEnd,
		StartLine:  startLine,
		EndLine:    endLine,
		Quote:      quote,
		Exported:   exported,
		IsComment:  isComment,
	})

	p.skipToNextLine()

	return nil
}

// consumeExportPrefix consumes "export" when it prefixes a key, not when
// it IS the key ("export=1" is a pair with key "export").
func (p *parser) consumeExportPrefix() bool {
	rest := p.src[p.pos:]
	if !bytes.HasPrefix(rest, []byte("export")) {
		return false
	}

	after := p.pos + len("export")
	if after >= len(p.src) || (p.src[after] != ' ' && p.src[after] != '\t') {
		return false
	}

	probe := after
	for probe < len(p.src) && (p.src[probe] == ' ' || p.src[probe] == '\t') {
		probe++
	}

	if probe >= len(p.src) || !isKeyStart(p.src[probe]) {
		return false
	}

	p.pos = probe

	return true
}

func (p *parser) scanKey() int {
	if p.pos >= len(p.src) || !isKeyStart(p.src[p.pos]) {
		return p.pos
	}

	end := p.pos + 1
	for end < len(p.src) && isKeyByte(p.src[end]) {
		end++
	}

	return end
}

// scanValue scans the value at p.pos. Returns the byte span (covering the
// quotes when quoted), the decoded value, and the quote kind. A failed
// single-line quote scan in comment mode returns valueEnd < valueStart as
// a "not a value" signal.
func (p *parser) scanValue(stopAtEOL bool) (int, int, string, QuoteKind, error) {
	if p.pos >= len(p.src) || p.src[p.pos] == '\n' || p.src[p.pos] == '\r' || p.src[p.pos] == '#' {
		// Empty value: zero-width span right after the '=' and any spaces.
		return p.pos, p.pos, "", QuoteNone, nil
	}

	switch p.src[p.pos] {
	case '\'':
		return p.scanQuoted('\'', QuoteSingle, stopAtEOL)
	case '"':
		return p.scanQuoted('"', QuoteDouble, stopAtEOL)
	default:
		start, end := p.scanUnquoted()

		return start, end, string(p.src[start:end]), QuoteNone, nil
	}
}

func (p *parser) scanQuoted(q byte, kind QuoteKind, stopAtEOL bool) (int, int, string, QuoteKind, error) {
	start := p.pos
	i := start + 1

	for i < len(p.src) {
		c := p.src[i]

		if c == '\\' && kind == QuoteDouble && i+1 < len(p.src) {
			i += 2

			continue
		}

		if c == q {
			end := i + 1
			inner := p.src[start+1 : i]

			value := string(inner)
			if kind == QuoteDouble {
				value = decodeEscapes(value)
			}

			p.pos = end

			return start, end, value, kind, nil
		}

		if c == '\n' && stopAtEOL {
			return start, start - 1, "", QuoteNone, nil
		}

		i++
	}

	if stopAtEOL {
		return start, start - 1, "", QuoteNone, nil
	}

	return 0, 0, "", QuoteNone, ErrUnterminatedQuote
}

// scanUnquoted scans to end of line, stopping before an inline comment
// ('#' preceded by whitespace) and trimming trailing whitespace.
func (p *parser) scanUnquoted() (int, int) {
	start := p.pos
	i := start

	for i < len(p.src) && p.src[i] != '\n' {
		if p.src[i] == '#' && i > start && (p.src[i-1] == ' ' || p.src[i-1] == '\t') {
			break
		}

		i++
	}

	end := i
	for end > start && isSpaceByte(p.src[end-1]) {
		end--
	}

	p.pos = i

	return start, end
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) skipToNextLine() {
	for p.pos < len(p.src) && p.src[p.pos] != '\n' {
		p.pos++
	}

	if p.pos < len(p.src) {
		p.pos++
	}
}

func isKeyStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isKeyByte(c byte) bool {
	return isKeyStart(c) || c == '.' || (c >= '0' && c <= '9')
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

// decodeEscapes resolves double-quote escape sequences. Unknown escapes
// are kept literally.
func decodeEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder

	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)

			continue
		}

		i++

		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case '$':
			b.WriteByte('$')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}

	return b.String()
}
