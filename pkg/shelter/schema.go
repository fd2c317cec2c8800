package shelter

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// OptionKind distinguishes the value shapes an option schema accepts.
type OptionKind uint8

// OptionKind values enumerate the supported option shapes.
const (
	OptionNumber OptionKind = iota
	OptionString
	OptionBool
	OptionEnum
	// OptionCallback accepts a transform function. It cannot be set from
	// configuration files; it exists for programmatically defined and
	// cloned strategies (the `none` transform hook).
	OptionCallback
)

// TransformFunc is the shape of an [OptionCallback] value.
type TransformFunc func(value string, ctx Context) string

// OptionSpec describes one option: its kind, default, and constraints.
// Schemas are plain data interpreted by a single generic validator.
type OptionSpec struct {
	Kind    OptionKind
	Default any
	Min     *int     // numeric lower bound, inclusive
	Max     *int     // numeric upper bound, inclusive
	Enum    []string // allowed values for OptionEnum
}

// Schema maps option names to their specs.
type Schema map[string]OptionSpec

// Options holds option values for a strategy instance.
type Options map[string]any

// clone returns a shallow copy.
func (o Options) clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}

	return out
}

// Validate checks opts against the schema: every option must exist in the
// schema, match its kind, satisfy numeric bounds, and (for enums) be a
// member of the enumeration. Errors name the option and the constraint.
func (s Schema) Validate(opts Options) error {
	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		spec, ok := s[name]
		if !ok {
			return fmt.Errorf("%w: %q (known options: %s)", ErrUnknownOption, name, strings.Join(s.optionNames(), ", "))
		}

		err := spec.check(name, opts[name])
		if err != nil {
			return err
		}
	}

	return nil
}

// Merge returns schema defaults overlaid with the user options.
// Callers must Validate first; Merge does not re-check.
func (s Schema) Merge(opts Options) Options {
	out := make(Options, len(s))

	for name, spec := range s {
		if spec.Default != nil {
			out[name] = spec.Default
		}
	}

	for name, value := range opts {
		if spec, ok := s[name]; ok && spec.Kind == OptionNumber {
			if n, ok := asInt(value); ok {
				out[name] = n

				continue
			}
		}

		out[name] = value
	}

	return out
}

func (s Schema) optionNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (spec OptionSpec) check(name string, value any) error {
	switch spec.Kind {
	case OptionNumber:
		n, ok := asInt(value)
		if !ok {
			return fmt.Errorf("%w: %q must be an integer, got %T", ErrInvalidOption, name, value)
		}

		if spec.Min != nil && n < *spec.Min {
			return fmt.Errorf("%w: %q must be >= %d, got %d", ErrInvalidOption, name, *spec.Min, n)
		}

		if spec.Max != nil && n > *spec.Max {
			return fmt.Errorf("%w: %q must be <= %d, got %d", ErrInvalidOption, name, *spec.Max, n)
		}
	case OptionString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidOption, name, value)
		}
	case OptionBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %q must be a boolean, got %T", ErrInvalidOption, name, value)
		}
	case OptionEnum:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidOption, name, value)
		}

		for _, allowed := range spec.Enum {
			if str == allowed {
				return nil
			}
		}

		return fmt.Errorf("%w: %q must be one of [%s], got %q",
			ErrInvalidOption, name, strings.Join(spec.Enum, ", "), str)
	case OptionCallback:
		if _, ok := value.(TransformFunc); !ok {
			if _, ok := value.(func(string, Context) string); !ok {
				return fmt.Errorf("%w: %q must be a transform function, got %T", ErrInvalidOption, name, value)
			}
		}
	default:
		return fmt.Errorf("%w: %q has unsupported schema kind %d", ErrInvalidOption, name, spec.Kind)
	}

	return nil
}

// asInt normalizes the integer encodings seen from Go callers and JSON
// configuration (float64) into int. Non-integral floats are rejected.
func asInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}

		return int(n), true
	default:
		return 0, false
	}
}
