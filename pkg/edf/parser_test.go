package edf_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shelterhq/shelter/pkg/edf"
)

func mustParse(t *testing.T, content string) *edf.Document {
	t.Helper()

	doc, err := edf.Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", content, err)
	}

	return doc
}

func Test_Parse_Returns_Exact_Spans_When_Value_Unquoted(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "FOO=bar\n")

	want := []edf.Entry{{
		Key:        "FOO",
		Value:      "bar",
		KeyStart:   0,
		KeyEnd:     3,
		ValueStart: 4,
		ValueEnd:   7,
		StartLine:  1,
		EndLine:    1,
		Quote:      edf.QuoteNone,
	}}

	if diff := cmp.Diff(want, doc.Entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func Test_Parse_Value_Span_Covers_Quotes_When_Double_Quoted(t *testing.T) {
	t.Parallel()

	content := "KEY=\"secretvalue\"\n"
	doc := mustParse(t, content)

	if len(doc.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(doc.Entries))
	}

	e := doc.Entries[0]
	if e.Value != "secretvalue" {
		t.Fatalf("value = %q, want %q", e.Value, "secretvalue")
	}

	if e.Quote != edf.QuoteDouble {
		t.Fatalf("quote = %v, want double", e.Quote)
	}

	if got := content[e.ValueStart:e.ValueEnd]; got != `"secretvalue"` {
		t.Fatalf("span slice = %q, want %q", got, `"secretvalue"`)
	}
}

func Test_Parse_Keeps_Escapes_Literal_When_Single_Quoted(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `A='r\ns'`+"\n")

	if got := doc.Entries[0].Value; got != `r\ns` {
		t.Fatalf("value = %q, want %q", got, `r\ns`)
	}

	if doc.Entries[0].Quote != edf.QuoteSingle {
		t.Fatalf("quote = %v, want single", doc.Entries[0].Quote)
	}
}

func Test_Parse_Decodes_Escapes_When_Double_Quoted(t *testing.T) {
	t.Parallel()

	content := `A="x\ny\t\"z\""` + "\n"
	doc := mustParse(t, content)

	want := "x\ny\t\"z\""
	if got := doc.Entries[0].Value; got != want {
		t.Fatalf("value = %q, want %q", got, want)
	}

	// The span still covers the raw (encoded) source text.
	if got := content[doc.Entries[0].ValueStart:doc.Entries[0].ValueEnd]; got != `"x\ny\t\"z\""` {
		t.Fatalf("span slice = %q", got)
	}
}

func Test_Parse_Tracks_Line_Range_When_Value_Spans_Lines(t *testing.T) {
	t.Parallel()

	content := "CERT=\"first\nsecond\"\nB=2\n"
	doc := mustParse(t, content)

	if len(doc.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(doc.Entries))
	}

	cert := doc.Entries[0]
	if cert.StartLine != 1 || cert.EndLine != 2 {
		t.Fatalf("lines = %d..%d, want 1..2", cert.StartLine, cert.EndLine)
	}

	if cert.Value != "first\nsecond" {
		t.Fatalf("value = %q", cert.Value)
	}

	b := doc.Entries[1]
	if b.Key != "B" || b.StartLine != 3 {
		t.Fatalf("second entry = %q on line %d, want B on line 3", b.Key, b.StartLine)
	}
}

func Test_Parse_Sets_Exported_When_Export_Prefix_Present(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "export FOO=bar\n")

	e := doc.Entries[0]
	if !e.Exported {
		t.Fatal("exported = false, want true")
	}

	if e.Key != "FOO" || e.KeyStart != 7 {
		t.Fatalf("key = %q at %d, want FOO at 7", e.Key, e.KeyStart)
	}
}

func Test_Parse_Treats_Export_As_Key_When_Directly_Assigned(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "export=1\n")

	e := doc.Entries[0]
	if e.Key != "export" || e.Exported {
		t.Fatalf("key = %q exported = %v, want export/false", e.Key, e.Exported)
	}
}

func Test_Parse_Surfaces_Commented_Pairs_When_Comments_Included(t *testing.T) {
	t.Parallel()

	content := "# DB_PASS=hunter2\n# just prose\nREAL=1\n"
	doc := mustParse(t, content)

	if len(doc.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(doc.Entries))
	}

	c := doc.Entries[0]
	if !c.IsComment || c.Key != "DB_PASS" || c.Value != "hunter2" {
		t.Fatalf("comment entry = %+v", c)
	}

	if got := content[c.ValueStart:c.ValueEnd]; got != "hunter2" {
		t.Fatalf("span slice = %q, want hunter2", got)
	}

	if doc.Entries[1].IsComment {
		t.Fatal("REAL should not be a comment entry")
	}
}

func Test_Parse_Omits_Commented_Pairs_When_Comments_Excluded(t *testing.T) {
	t.Parallel()

	doc, err := edf.ParseWithOptions([]byte("# DB_PASS=hunter2\nREAL=1\n"), edf.Options{IncludeComments: false})
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Entries) != 1 || doc.Entries[0].Key != "REAL" {
		t.Fatalf("entries = %+v, want only REAL", doc.Entries)
	}
}

func Test_Parse_Stops_Value_When_Inline_Comment_Follows(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "FOO=bar # comment\n")

	e := doc.Entries[0]
	if e.Value != "bar" || e.ValueEnd != 7 {
		t.Fatalf("value = %q end = %d, want bar/7", e.Value, e.ValueEnd)
	}
}

func Test_Parse_Keeps_Hash_When_Not_Preceded_By_Space(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "FOO=bar#baz\n")

	if got := doc.Entries[0].Value; got != "bar#baz" {
		t.Fatalf("value = %q, want bar#baz", got)
	}
}

func Test_Parse_Produces_Zero_Width_Span_When_Value_Empty(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"FOO=\n", "FOO= # note\n"} {
		doc := mustParse(t, content)

		e := doc.Entries[0]
		if e.Value != "" || e.ValueStart != e.ValueEnd {
			t.Fatalf("%q: value = %q span = [%d,%d), want empty zero-width",
				content, e.Value, e.ValueStart, e.ValueEnd)
		}
	}
}

func Test_Parse_Excludes_CR_When_Line_Endings_Are_CRLF(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "A=1\r\nB=2\r\n")

	if got := doc.Entries[0].Value; got != "1" {
		t.Fatalf("value = %q, want 1", got)
	}

	wantOffsets := []int{0, 5, 10}
	if diff := cmp.Diff(wantOffsets, doc.LineOffsets); diff != "" {
		t.Fatalf("line offsets mismatch (-want +got):\n%s", diff)
	}
}

func Test_Parse_Skips_Malformed_Lines_When_Editing_Partial_Input(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "not a pair\n=nokey\nGOOD=1\n")

	if len(doc.Entries) != 1 || doc.Entries[0].Key != "GOOD" {
		t.Fatalf("entries = %+v, want only GOOD", doc.Entries)
	}
}

func Test_Parse_Fails_When_Quote_Unterminated(t *testing.T) {
	t.Parallel()

	_, err := edf.Parse([]byte(`A="abc`))
	if !errors.Is(err, edf.ErrUnterminatedQuote) {
		t.Fatalf("err = %v, want ErrUnterminatedQuote", err)
	}
}

func Test_Parse_Fails_When_Content_Not_UTF8(t *testing.T) {
	t.Parallel()

	_, err := edf.Parse([]byte{'A', '=', 0xff, 0xfe})
	if !errors.Is(err, edf.ErrInvalidUTF8) {
		t.Fatalf("err = %v, want ErrInvalidUTF8", err)
	}
}

func Test_Parse_Treats_Commented_Multiline_Quote_As_Prose(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "# A=\"open\nB=1\n")

	if len(doc.Entries) != 1 || doc.Entries[0].Key != "B" {
		t.Fatalf("entries = %+v, want only B", doc.Entries)
	}
}

func Test_Value_Spans_Reproduce_Source_When_Sliced(t *testing.T) {
	t.Parallel()

	content := "A=plain\nexport B=\"quo ted\"\nC='lit'\n# D=commented\nE=tail # x\n"
	doc := mustParse(t, content)

	want := []string{"plain", `"quo ted"`, "'lit'", "commented", "tail"}
	if len(doc.Entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(doc.Entries), len(want))
	}

	for i, e := range doc.Entries {
		if got := content[e.ValueStart:e.ValueEnd]; got != want[i] {
			t.Errorf("entry %d (%s): span slice = %q, want %q", i, e.Key, got, want[i])
		}
	}
}

func Test_LineOffsets_Strictly_Increase_When_Parsed(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "A=1\n\nB=2\nC=3")

	for i := 1; i < len(doc.LineOffsets); i++ {
		if doc.LineOffsets[i] <= doc.LineOffsets[i-1] {
			t.Fatalf("offsets not strictly increasing: %v", doc.LineOffsets)
		}
	}
}

func Test_Document_Line_Helpers_When_Queried(t *testing.T) {
	t.Parallel()

	content := "A=1\nBB=22\n"
	doc := mustParse(t, content)

	if got := doc.LineStart(2); got != 4 {
		t.Fatalf("LineStart(2) = %d, want 4", got)
	}

	if got := doc.LineEnd(2); got != 9 {
		t.Fatalf("LineEnd(2) = %d, want 9", got)
	}

	if got := doc.LineAt(5); got != 2 {
		t.Fatalf("LineAt(5) = %d, want 2", got)
	}

	if got := doc.LineAt(0); got != 1 {
		t.Fatalf("LineAt(0) = %d, want 1", got)
	}
}
