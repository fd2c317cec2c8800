package shelter_test

import (
	"testing"

	"github.com/shelterhq/shelter/pkg/shelter"
)

func Test_DetermineStrategy_Prefers_Key_Rules_When_Both_Match(t *testing.T) {
	t.Parallel()

	r := shelter.CompileResolver(
		map[string]string{"*_SECRET": shelter.ModeFull},
		map[string]string{".env.local": shelter.ModeNone},
		shelter.ModePartial,
	)

	if got := r.DetermineStrategy("DB_SECRET", ".env.local"); got != shelter.ModeFull {
		t.Fatalf("strategy = %q, want full (key rule wins)", got)
	}

	if got := r.DetermineStrategy("DB_HOST", ".env.local"); got != shelter.ModeNone {
		t.Fatalf("strategy = %q, want none (source rule)", got)
	}

	if got := r.DetermineStrategy("DB_HOST", ".env"); got != shelter.ModePartial {
		t.Fatalf("strategy = %q, want partial (default)", got)
	}
}

func Test_ResolveForKey_Picks_Most_Specific_When_Rules_Overlap(t *testing.T) {
	t.Parallel()

	r := shelter.CompileResolver(
		map[string]string{
			"*":          shelter.ModePartial,
			"DB_*":       shelter.ModeNone,
			"DB_PASSWORD": shelter.ModeFull,
		},
		nil,
		shelter.ModeFull,
	)

	cases := []struct {
		key  string
		want string
	}{
		{"DB_PASSWORD", shelter.ModeFull}, // exact beats DB_* beats *
		{"DB_HOST", shelter.ModeNone},
		{"API_TOKEN", shelter.ModePartial},
	}

	for _, tc := range cases {
		got, ok := r.ResolveForKey(tc.key)
		if !ok || got != tc.want {
			t.Errorf("ResolveForKey(%q) = %q/%v, want %q", tc.key, got, ok, tc.want)
		}
	}
}

func Test_ResolveForKey_Breaks_Ties_Lexically_When_Specificity_Equal(t *testing.T) {
	t.Parallel()

	// Both patterns have one wildcard and equal length; "AB*" < "A*B".
	r := shelter.CompileResolver(
		map[string]string{
			"A*B": shelter.ModeNone,
			"AB*": shelter.ModeFull,
		},
		nil,
		shelter.ModePartial,
	)

	got, ok := r.ResolveForKey("AB")
	if !ok || got != shelter.ModeNone {
		t.Fatalf("ResolveForKey(AB) = %q/%v, want none (A*B is lexically smaller)", got, ok)
	}
}

func Test_ResolveForKey_Reports_No_Match_When_Nothing_Applies(t *testing.T) {
	t.Parallel()

	r := shelter.CompileResolver(
		map[string]string{"SECRET_*": shelter.ModeFull},
		nil,
		shelter.ModePartial,
	)

	if _, ok := r.ResolveForKey("PUBLIC_URL"); ok {
		t.Fatal("unexpected match")
	}
}

func Test_CompileResolver_Escapes_Regex_Metacharacters_When_In_Pattern(t *testing.T) {
	t.Parallel()

	r := shelter.CompileResolver(nil,
		map[string]string{".env.prod": shelter.ModeFull},
		shelter.ModePartial,
	)

	if _, ok := r.ResolveForSource("xenvxprod"); ok {
		t.Fatal("'.' matched as a wildcard; it must be literal")
	}

	if got, ok := r.ResolveForSource(".env.prod"); !ok || got != shelter.ModeFull {
		t.Fatalf("ResolveForSource(.env.prod) = %q/%v, want full", got, ok)
	}
}

func Test_CompileResolver_Anchors_Patterns_When_Matching(t *testing.T) {
	t.Parallel()

	r := shelter.CompileResolver(
		map[string]string{"SECRET": shelter.ModeFull},
		nil,
		shelter.ModePartial,
	)

	if _, ok := r.ResolveForKey("MY_SECRET_KEY"); ok {
		t.Fatal("pattern without wildcards matched a substring")
	}
}

func Test_DetermineStrategy_Ignores_Source_Rules_When_Source_Empty(t *testing.T) {
	t.Parallel()

	r := shelter.CompileResolver(nil,
		map[string]string{"*": shelter.ModeNone},
		shelter.ModeFull,
	)

	if got := r.DetermineStrategy("KEY", ""); got != shelter.ModeFull {
		t.Fatalf("strategy = %q, want full (no source given)", got)
	}
}
