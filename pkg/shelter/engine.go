package shelter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/shelterhq/shelter/pkg/edf"
)

// ParseFunc is the parser contract the engine consumes: raw content in,
// position-exact document out. It must be a pure function.
type ParseFunc func(content []byte) (*edf.Document, error)

// Engine orchestrates the masking pipeline: fetch-or-parse through the
// content cache, per-entry strategy resolution, strategy application, and
// production of masked line descriptors.
//
// An Engine replaces module-level singletons: construct one at startup and
// pass it by reference. Fresh-engine construction is the test-isolation
// mechanism; no global reset exists.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	registry *Registry
	resolver *Resolver
	cache    *ContentCache
	parse    ParseFunc
}

// EngineOption mutates an Engine during construction.
type EngineOption func(*Engine)

// WithLogger sets the logger used for soft-fallback warnings.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithParser replaces the default EDF parser.
func WithParser(parse ParseFunc) EngineOption {
	return func(e *Engine) {
		if parse != nil {
			e.parse = parse
		}
	}
}

// NewEngine builds an engine from cfg, filling unset fields from
// [DefaultConfig]. Configuration errors (invalid mask character, invalid
// strategy options, options for an unregistered strategy) fail fast.
func NewEngine(cfg Config, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		logger: slog.New(slog.DiscardHandler),
		parse: func(content []byte) (*edf.Document, error) {
			return edf.Parse(content)
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	err := e.applyConfig(cfg)
	if err != nil {
		return nil, err
	}

	e.cache = NewContentCache(e.cfg.CacheCapacity)

	return e, nil
}

// Reconfigure replaces the engine's configuration wholesale: pattern
// rules are recompiled and the strategy registry (including user-defined
// strategies) is rebuilt from scratch. The swap is all-or-nothing: a
// rejected config returns an error and leaves the engine exactly as it
// was. The parse cache is kept; parse results do not depend on
// configuration.
func (e *Engine) Reconfigure(cfg Config) error {
	return e.applyConfig(cfg)
}

// applyConfig stages the merged config into a fresh registry and swaps
// engine state only after every strategy configured cleanly, so a
// validation failure never half-applies.
func (e *Engine) applyConfig(cfg Config) error {
	merged := mergeConfig(DefaultConfig(), cfg)

	err := validateConfig(merged)
	if err != nil {
		return err
	}

	staged := NewRegistry(e.logger)

	// Built-ins pick up the global mask character; per-strategy options
	// override it. Deterministic order keeps the first error stable.
	names := make([]string, 0, len(merged.Strategies)+2)
	names = append(names, ModeFull, ModePartial)

	for name := range merged.Strategies {
		if name != ModeFull && name != ModePartial {
			names = append(names, name)
		}
	}

	sort.Strings(names[2:])

	for _, name := range names {
		opts := Options{}
		if name == ModeFull || name == ModePartial {
			opts["mask_char"] = merged.MaskChar
		}

		for key, value := range merged.Strategies[name] {
			opts[key] = value
		}

		if len(opts) == 0 {
			continue
		}

		err = staged.Configure(name, opts)
		if err != nil {
			return err
		}
	}

	e.registry = staged
	e.cfg = merged
	e.resolver = CompileResolver(merged.KeyPatterns, merged.SourcePatterns, merged.DefaultStrategy)

	return nil
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Registry returns the engine's strategy registry, for defining custom
// strategies or configuring built-ins programmatically. Reconfigure
// replaces the registry wholesale; re-fetch it afterwards.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Resolver returns the engine's compiled pattern resolver.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Parse returns the parsed document for content, served from the content
// cache when the fingerprint matches a previous parse. Parse errors
// surface to the caller and are never cached.
func (e *Engine) Parse(content []byte) (*edf.Document, error) {
	fp := Fingerprint(content)
	if doc, ok := e.cache.Get(fp); ok {
		return doc, nil
	}

	doc, err := e.parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	e.cache.Put(fp, doc)

	return doc, nil
}

// MaskedLine describes one masked entry: the masked text, the original
// value byte span, and the metadata the overlay mapper needs.
type MaskedLine struct {
	Key        string
	StartLine  int
	EndLine    int
	Mask       string
	ValueStart int
	ValueEnd   int
	Quote      edf.QuoteKind
	IsComment  bool
}

// MaskResult is the output of [Engine.GenerateMasks].
type MaskResult struct {
	Lines       []MaskedLine
	LineOffsets []int
	Doc         *edf.Document
}

// GenerateMasks parses content (cache-checked) and produces one masked
// line descriptor per maskable entry. sourcePath may be empty; when set,
// its basename participates in strategy resolution.
//
// Entries are processed in parse order; each entry's transform is
// stateless, so repeated keys within one document resolve identically and
// the resolution is memoized per batch.
func (e *Engine) GenerateMasks(content []byte, sourcePath string) (*MaskResult, error) {
	doc, err := e.Parse(content)
	if err != nil {
		return nil, err
	}

	source := ""
	if sourcePath != "" {
		source = filepath.Base(sourcePath)
	}

	resolved := make(map[string]string)
	result := &MaskResult{
		Lines:       make([]MaskedLine, 0, len(doc.Entries)),
		LineOffsets: doc.LineOffsets,
		Doc:         doc,
	}

	for _, entry := range doc.Entries {
		if entry.IsComment && e.cfg.CommentsSkipped() {
			continue
		}

		name, ok := resolved[entry.Key]
		if !ok {
			name = e.resolver.DetermineStrategy(entry.Key, source)
			resolved[entry.Key] = name
		}

		mask := e.registry.Apply(name, entry.Value, Context{
			Key:       entry.Key,
			Source:    source,
			Line:      entry.StartLine,
			Quote:     entry.Quote,
			IsComment: entry.IsComment,
		})

		result.Lines = append(result.Lines, MaskedLine{
			Key:        entry.Key,
			StartLine:  entry.StartLine,
			EndLine:    entry.EndLine,
			Mask:       mask,
			ValueStart: entry.ValueStart,
			ValueEnd:   entry.ValueEnd,
			Quote:      entry.Quote,
			IsComment:  entry.IsComment,
		})
	}

	return result, nil
}

// Overlays runs the full pipeline: parse, mask, and map every descriptor
// to display overlay spans, honoring the revealed-lines exception set.
func (e *Engine) Overlays(content []byte, sourcePath string, revealed map[int]bool) ([]OverlaySpan, error) {
	result, err := e.GenerateMasks(content, sourcePath)
	if err != nil {
		return nil, err
	}

	var spans []OverlaySpan
	for _, line := range result.Lines {
		spans = append(spans, MapOverlays(line, result.Doc, revealed)...)
	}

	return spans, nil
}

// MaskValueOptions selects the strategy and per-call options for
// [Engine.MaskValue].
type MaskValueOptions struct {
	// Mode names the strategy; empty means the configured default.
	Mode string

	// Options are validated against the strategy's schema.
	Options Options
}

// MaskValue is the stateless convenience entry point: it masks value with
// the selected (or default) strategy under a minimal context. An unknown
// mode falls back to full masking with a warning; invalid options are a
// configuration error and fail.
func (e *Engine) MaskValue(value string, opts MaskValueOptions) (string, error) {
	mode := opts.Mode
	if mode == "" {
		mode = e.cfg.DefaultStrategy
	}

	if len(opts.Options) == 0 {
		return e.registry.Apply(mode, value, Context{}), nil
	}

	if !e.registry.Has(mode) {
		e.logger.Warn("unknown strategy, falling back to full masking", "strategy", mode)

		mode = ModeFull
	}

	inst, err := e.registry.Create(mode, opts.Options)
	if err != nil {
		return "", err
	}

	return inst.Apply(value, Context{}), nil
}
