package shelter

import (
	"regexp"
	"sort"
	"strings"
)

// Rule is one compiled glob-pattern rule mapping matches to a strategy.
type Rule struct {
	Pattern  string
	Strategy string

	// Specificity ranks competing matches: pattern length minus 10 per
	// wildcard. Higher wins.
	Specificity int

	re *regexp.Regexp
}

// Resolver maps keys and source basenames to strategy names through
// compiled glob rules. It is immutable after compilation and safe to
// share; reconfiguration replaces it wholesale.
type Resolver struct {
	keyRules        []Rule
	sourceRules     []Rule
	defaultStrategy string
}

// CompileResolver compiles two independent rule sets from glob→strategy
// maps. Globs support '*' (any run of characters); all other characters
// match literally. Rules are ordered by specificity descending, then by
// pattern string ascending, which makes equal-specificity ties
// deterministic (lexically smaller pattern wins).
func CompileResolver(keyPatterns, sourcePatterns map[string]string, defaultStrategy string) *Resolver {
	return &Resolver{
		keyRules:        compileRules(keyPatterns),
		sourceRules:     compileRules(sourcePatterns),
		defaultStrategy: defaultStrategy,
	}
}

// DefaultStrategy returns the configured fallback strategy name.
func (r *Resolver) DefaultStrategy() string {
	return r.defaultStrategy
}

// ResolveForKey returns the strategy for the highest-specificity key rule
// matching key, or false when no rule matches.
func (r *Resolver) ResolveForKey(key string) (string, bool) {
	return resolve(r.keyRules, key)
}

// ResolveForSource returns the strategy for the highest-specificity source
// rule matching the source basename, or false when no rule matches.
func (r *Resolver) ResolveForSource(basename string) (string, bool) {
	return resolve(r.sourceRules, basename)
}

// DetermineStrategy resolves the strategy for a key in an optional source:
// key rules win over source rules, which win over the default. source may
// be empty.
func (r *Resolver) DetermineStrategy(key, source string) string {
	if name, ok := r.ResolveForKey(key); ok {
		return name
	}

	if source != "" {
		if name, ok := r.ResolveForSource(source); ok {
			return name
		}
	}

	return r.defaultStrategy
}

func resolve(rules []Rule, input string) (string, bool) {
	// Rules are pre-sorted best-first; the first match wins.
	for i := range rules {
		if rules[i].re.MatchString(input) {
			return rules[i].Strategy, true
		}
	}

	return "", false
}

func compileRules(patterns map[string]string) []Rule {
	rules := make([]Rule, 0, len(patterns))

	for pattern, strategy := range patterns {
		rules = append(rules, Rule{
			Pattern:     pattern,
			Strategy:    strategy,
			Specificity: len(pattern) - 10*strings.Count(pattern, "*"),
			re:          compileGlob(pattern),
		})
	}

	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Specificity != rules[j].Specificity {
			return rules[i].Specificity > rules[j].Specificity
		}

		return rules[i].Pattern < rules[j].Pattern
	})

	return rules
}

// compileGlob builds an anchored full-match pattern: '*' becomes '.*',
// everything else is escaped.
func compileGlob(glob string) *regexp.Regexp {
	parts := strings.Split(glob, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}

	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
