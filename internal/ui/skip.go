package ui

import (
	"github.com/gobwas/glob"
)

// CompileSkipPattern compiles one skip pattern. Skip ids are matched without a
// separator, so "@scope/*" also covers "@scope/ui/button".
func CompileSkipPattern(p string) (glob.Glob, error) {
	return glob.Compile(p)
}

// SkipFilter matches ids against a list of skip patterns. Every pattern
// matches its own text literally; patterns that are not valid globs match
// only that way.
type SkipFilter struct {
	literals map[string]bool
	globs    []glob.Glob
	invalid  []string
}

// NewSkipFilter compiles patterns once. Empty entries are ignored.
func NewSkipFilter(patterns []string) *SkipFilter {
	f := &SkipFilter{literals: make(map[string]bool, len(patterns))}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		f.literals[p] = true
		g, err := CompileSkipPattern(p)
		if err != nil {
			f.invalid = append(f.invalid, p)
			continue
		}
		f.globs = append(f.globs, g)
	}
	return f
}

// LiteralOnly returns the patterns that failed to compile as globs.
func (f *SkipFilter) LiteralOnly() []string {
	return f.invalid
}

// Match reports whether id is filtered. The empty id never matches.
func (f *SkipFilter) Match(id string) bool {
	if f == nil || id == "" {
		return false
	}
	if f.literals[id] {
		return true
	}
	for _, g := range f.globs {
		if g.Match(id) {
			return true
		}
	}
	return false
}
