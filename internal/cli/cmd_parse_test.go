package cli

import (
	"encoding/json"
	"testing"
)

func Test_Parse_Emits_Spans_Without_Values_When_Default(t *testing.T) {
	t.Parallel()

	r := NewCLI(t)
	r.WriteFile(".env", "API_KEY=\"abcdef\"\n")

	stdout := r.MustRun("parse", ".env")

	var out struct {
		Lines   int `json:"lines"`
		Entries []struct {
			Key        string `json:"key"`
			Value      string `json:"value"`
			ValueStart int    `json:"value_start"`
			ValueEnd   int    `json:"value_end"`
			Quote      string `json:"quote"`
		} `json:"entries"`
	}

	err := json.Unmarshal([]byte(stdout), &out)
	if err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}

	if out.Lines != 1 || len(out.Entries) != 1 {
		t.Fatalf("output = %+v, want 1 line / 1 entry", out)
	}

	e := out.Entries[0]
	if e.Key != "API_KEY" || e.Quote != "double" {
		t.Fatalf("entry = %+v", e)
	}

	if e.ValueStart != 8 || e.ValueEnd != 16 {
		t.Fatalf("span = [%d,%d), want [8,16)", e.ValueStart, e.ValueEnd)
	}

	// The secret must not appear without --raw.
	AssertNotContains(t, stdout, "abcdef")

	if e.Value != "" {
		t.Fatalf("value = %q, want omitted", e.Value)
	}
}

func Test_Parse_Includes_Values_When_Raw_Flag_Given(t *testing.T) {
	t.Parallel()

	r := NewCLI(t)
	r.WriteFile(".env", "API_KEY=abcdef\n")

	stdout := r.MustRun("parse", "--raw", ".env")
	AssertContains(t, stdout, `"value": "abcdef"`)
}

func Test_Parse_Reads_Stdin_When_No_File_Given(t *testing.T) {
	t.Parallel()

	r := NewCLI(t)

	stdout, stderr, code := r.RunWithInput("# OLD=x\nexport NEW=y\n", "parse")
	if code != 0 {
		t.Fatalf("exit = %d, stderr: %s", code, stderr)
	}

	AssertContains(t, stdout, `"comment": true`)
	AssertContains(t, stdout, `"exported": true`)
}
