// Package shelter masks sensitive values in EDF documents (dotenv-style
// key=value files) while preserving exact visual layout.
//
// The pipeline: raw text is parsed (through a bounded LRU cache keyed by a
// cheap content fingerprint) into position-exact entries; each entry's key
// and source resolve to a masking strategy through glob-pattern rules; the
// strategy transforms the value into masked text; and the overlay mapper
// converts the entry's byte spans into quote-aware display spans, possibly
// across multiple physical lines.
//
// # Basic Usage
//
//	engine, err := shelter.NewEngine(shelter.Config{
//	    DefaultStrategy: "partial",
//	    KeyPatterns:     map[string]string{"*_SECRET": "full"},
//	})
//	if err != nil {
//	    // configuration error: invalid option, unknown strategy, ...
//	}
//
//	spans, err := engine.Overlays(content, ".env", nil)
//
// There is no package-level state: an [Engine] owns its registry, pattern
// resolver, and parse cache. Tests isolate by constructing a fresh engine.
//
// # Error Handling
//
// Configuration and lookup errors ([ErrInvalidOption],
// [ErrStrategyNotFound], ...) fail fast at configure/create time.
// Soft-fallback conditions — an unknown strategy name at apply time, a
// value too short for partial masking — never fail: a well-defined
// fallback is substituted and a warning is logged on the engine's logger.
package shelter
