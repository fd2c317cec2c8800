package shelter

import (
	"strings"
	"unicode/utf8"

	"github.com/shelterhq/shelter/pkg/edf"
)

// Built-in strategy names.
const (
	ModeFull    = "full"
	ModePartial = "partial"
	ModeNone    = "none"
)

// DefaultMaskChar is the mask character used when none is configured.
const DefaultMaskChar = "*"

// Context carries per-entry information into a strategy's transform.
type Context struct {
	Key       string
	Source    string
	Line      int
	Quote     edf.QuoteKind
	IsComment bool
}

// Definition describes a strategy: its transform, option schema, and
// optional hooks. Built-in and user-defined strategies share this shape.
type Definition struct {
	Description string
	Schema      Schema

	// Apply transforms a raw value into its masked display text.
	// Required.
	Apply func(value string, ctx Context, opts Options) string

	// Validate runs after schema validation for strategy-specific
	// constraints. Optional.
	Validate func(opts Options) error

	// OnConfigure runs after options are merged. Optional.
	OnConfigure func(opts Options)
}

// Strategy is a configured, independent instance of a definition.
// Instances are created through a [Registry]; the registry owns the
// definitions, callers own the instances they create or clone.
type Strategy struct {
	name string
	def  *Definition
	opts Options
}

// Name returns the strategy's registered name.
func (s *Strategy) Name() string {
	return s.name
}

// Options returns a copy of the instance's current option values.
func (s *Strategy) Options() Options {
	return s.opts.clone()
}

// Apply transforms value into masked text using the instance's options.
func (s *Strategy) Apply(value string, ctx Context) string {
	return s.def.Apply(value, ctx, s.opts)
}

// Clone produces an independent copy sharing the same transform logic but
// with its own option set, validated against the definition's schema.
func (s *Strategy) Clone(opts Options) (*Strategy, error) {
	merged := s.opts.clone()

	if len(opts) > 0 {
		err := s.def.Schema.Validate(opts)
		if err != nil {
			return nil, err
		}

		if s.def.Validate != nil {
			err = s.def.Validate(opts)
			if err != nil {
				return nil, err
			}
		}

		for name, value := range s.def.Schema.Merge(opts) {
			if _, set := opts[name]; set {
				merged[name] = value
			}
		}
	}

	return &Strategy{name: s.name, def: s.def, opts: merged}, nil
}

// intPtr is a convenience for schema bounds.
func intPtr(n int) *int {
	return &n
}

// builtinDefinitions returns fresh definitions for full, partial, and none.
func builtinDefinitions() map[string]*Definition {
	return map[string]*Definition{
		ModeFull: {
			Description: "replace every character with the mask character",
			Schema: Schema{
				"mask_char":    {Kind: OptionString, Default: DefaultMaskChar},
				"fixed_length": {Kind: OptionNumber, Default: 0, Min: intPtr(0)},
			},
			Apply:    applyFull,
			Validate: validateMaskChar,
		},
		ModePartial: {
			Description: "keep leading/trailing characters, mask the middle",
			Schema: Schema{
				"mask_char":     {Kind: OptionString, Default: DefaultMaskChar},
				"show_start":    {Kind: OptionNumber, Default: 3, Min: intPtr(0)},
				"show_end":      {Kind: OptionNumber, Default: 3, Min: intPtr(0)},
				"min_mask":      {Kind: OptionNumber, Default: 3, Min: intPtr(0)},
				"fallback_mode": {Kind: OptionEnum, Default: ModeFull, Enum: []string{ModeFull, ModeNone}},
			},
			Apply:    applyPartial,
			Validate: validateMaskChar,
		},
		ModeNone: {
			Description: "leave the value visible, optionally transformed",
			Schema: Schema{
				"transform": {Kind: OptionCallback},
			},
			Apply: applyNone,
		},
	}
}

// validateMaskChar enforces that mask_char, when set, is one character.
func validateMaskChar(opts Options) error {
	value, ok := opts["mask_char"]
	if !ok {
		return nil
	}

	str, _ := value.(string)
	if utf8.RuneCountInString(str) != 1 {
		return ErrMaskCharInvalid
	}

	return nil
}

func applyFull(value string, _ Context, opts Options) string {
	maskChar := optString(opts, "mask_char", DefaultMaskChar)

	length := utf8.RuneCountInString(value)
	if fixed := optInt(opts, "fixed_length", 0); fixed > 0 {
		length = fixed
	}

	return strings.Repeat(maskChar, length)
}

func applyPartial(value string, ctx Context, opts Options) string {
	showStart := optInt(opts, "show_start", 3)
	showEnd := optInt(opts, "show_end", 3)
	minMask := optInt(opts, "min_mask", 3)
	maskChar := optString(opts, "mask_char", DefaultMaskChar)

	runes := []rune(value)
	if len(runes) < showStart+showEnd+minMask {
		if optString(opts, "fallback_mode", ModeFull) == ModeNone {
			return applyNone(value, ctx, opts)
		}

		return applyFull(value, ctx, opts)
	}

	var b strings.Builder

	b.WriteString(string(runes[:showStart]))
	b.WriteString(strings.Repeat(maskChar, len(runes)-showStart-showEnd))
	b.WriteString(string(runes[len(runes)-showEnd:]))

	return b.String()
}

func applyNone(value string, ctx Context, opts Options) string {
	switch fn := opts["transform"].(type) {
	case TransformFunc:
		return fn(value, ctx)
	case func(string, Context) string:
		return fn(value, ctx)
	default:
		return value
	}
}

func optString(opts Options, name, fallback string) string {
	if value, ok := opts[name].(string); ok && value != "" {
		return value
	}

	return fallback
}

func optInt(opts Options, name string, fallback int) int {
	if value, ok := asInt(opts[name]); ok {
		return value
	}

	return fallback
}
