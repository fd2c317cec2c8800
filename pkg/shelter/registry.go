package shelter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Registry holds strategy definitions and their configured state.
//
// A registry is not module-level global state: it is owned by the [Engine]
// that created it (or constructed standalone via [NewRegistry]) and passed
// by reference. It is designed for a single-threaded, event-loop style
// caller and does no locking.
type Registry struct {
	logger *slog.Logger

	defs     map[string]*Definition
	builtin  map[string]bool
	settings map[string]Options   // configured option values per name
	cached   map[string]*Strategy // lazily built singletons for Get/Apply
}

// NewRegistry creates a registry populated with the built-in strategies.
// A nil logger discards soft-fallback warnings.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &Registry{logger: logger}
	r.Reset()

	return r
}

// Reset clears all user definitions and configured state, restoring the
// registry to only the built-in strategies with default options.
func (r *Registry) Reset() {
	r.defs = builtinDefinitions()

	r.builtin = make(map[string]bool, len(r.defs))
	for name := range r.defs {
		r.builtin[name] = true
	}

	r.settings = make(map[string]Options)
	r.cached = make(map[string]*Strategy)
}

// Names returns the registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]

	return ok
}

// Define registers a strategy under name. The definition must carry an
// Apply function. Overriding a built-in is allowed but logged; it is a
// corrective action, never a silent one.
func (r *Registry) Define(name string, def Definition) error {
	if def.Apply == nil {
		return fmt.Errorf("%w: %q", ErrMissingApply, name)
	}

	if r.builtin[name] {
		r.logger.Warn("overriding built-in strategy", "strategy", name)
	}

	owned := def
	r.defs[name] = &owned

	delete(r.settings, name)
	delete(r.cached, name)

	return nil
}

// Undefine removes a user-defined strategy. Built-ins cannot be removed;
// Undefine returns false and leaves them untouched.
func (r *Registry) Undefine(name string) bool {
	if r.builtin[name] {
		return false
	}

	if _, ok := r.defs[name]; !ok {
		return false
	}

	delete(r.defs, name)
	delete(r.settings, name)
	delete(r.cached, name)

	return true
}

// Create builds a fresh, independent instance of the named strategy.
// opts are validated against the schema; nil opts use the configured (or
// default) option values.
func (r *Registry) Create(name string, opts Options) (*Strategy, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)",
			ErrStrategyNotFound, name, strings.Join(r.Names(), ", "))
	}

	merged, err := r.mergeFor(name, def, opts)
	if err != nil {
		return nil, err
	}

	return &Strategy{name: name, def: def, opts: merged}, nil
}

// Get returns the cached singleton instance for name, creating it lazily
// with the configured (or default) options.
func (r *Registry) Get(name string) (*Strategy, error) {
	if inst, ok := r.cached[name]; ok {
		return inst, nil
	}

	inst, err := r.Create(name, nil)
	if err != nil {
		return nil, err
	}

	r.cached[name] = inst

	return inst, nil
}

// Configure validates opts against the named strategy's schema and
// strategy-specific validator, then stores the merged result as the
// strategy's current options. The configure-hook, if any, runs on success.
func (r *Registry) Configure(name string, opts Options) error {
	def, ok := r.defs[name]
	if !ok {
		return fmt.Errorf("%w: %q (registered: %s)",
			ErrStrategyNotFound, name, strings.Join(r.Names(), ", "))
	}

	err := def.Schema.Validate(opts)
	if err != nil {
		return fmt.Errorf("strategy %q: %w", name, err)
	}

	if def.Validate != nil {
		err = def.Validate(opts)
		if err != nil {
			return fmt.Errorf("strategy %q: %w", name, err)
		}
	}

	merged := def.Schema.Merge(opts)
	r.settings[name] = merged

	delete(r.cached, name)

	if def.OnConfigure != nil {
		def.OnConfigure(merged.clone())
	}

	return nil
}

// Apply masks value with the named strategy. An unknown name is a
// soft-fallback condition: it is logged and `full` is substituted, so the
// call always returns some masked text.
func (r *Registry) Apply(name, value string, ctx Context) string {
	inst, err := r.Get(name)
	if err != nil {
		r.logger.Warn("unknown strategy, falling back to full masking",
			"strategy", name, "key", ctx.Key)

		inst, err = r.Get(ModeFull)
		if err != nil {
			// Built-ins always exist; reaching this is a registry bug.
			return strings.Repeat(DefaultMaskChar, len([]rune(value)))
		}
	}

	return inst.Apply(value, ctx)
}

// mergeFor builds the effective options for an instance: configured (or
// schema default) values overlaid with per-call opts.
func (r *Registry) mergeFor(name string, def *Definition, opts Options) (Options, error) {
	base, ok := r.settings[name]
	if !ok {
		base = def.Schema.Merge(nil)
	}

	if len(opts) == 0 {
		return base.clone(), nil
	}

	err := def.Schema.Validate(opts)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: %w", name, err)
	}

	if def.Validate != nil {
		err = def.Validate(opts)
		if err != nil {
			return nil, fmt.Errorf("strategy %q: %w", name, err)
		}
	}

	merged := base.clone()
	for key, value := range def.Schema.Merge(opts) {
		if _, set := opts[key]; set {
			merged[key] = value
		}
	}

	return merged, nil
}
