// Package edf parses EDF documents: dotenv-style key=value files with
// optional quoting, escape sequences, multi-line values, inline comments,
// and an `export` prefix.
//
// The parser is position-exact. Every entry carries byte spans into the
// original content, and the returned [Document] includes a line-offset
// table for O(1) byte-to-line arithmetic. For quoted values the value span
// covers the quote characters; [Entry.Value] holds the decoded text between
// them.
//
// # Basic Usage
//
//	doc, err := edf.Parse(content)
//	if err != nil {
//	    // ErrUnterminatedQuote / ErrInvalidUTF8
//	}
//	for _, e := range doc.Entries {
//	    _ = content[e.ValueStart:e.ValueEnd] // literal source text
//	}
//
// Malformed lines (no '=', bad key) are skipped rather than reported:
// documents are parsed live while a user edits them, so partial input is
// the normal case. Only unrecoverable conditions (invalid UTF-8, an
// unterminated quote running to EOF) return an error.
package edf
