package model

import "strings"

// Rule is a template that matches target names by a literal string or a
// single-'%' wildcard of the form "prefix%suffix", and synthesizes a
// FileTask when a name matches.
type Rule struct {
	Pattern string
	Deps    []string
	Action  func(name string) error

	prefix     string
	suffix     string
	isWildcard bool
}

// NewRule parses pattern (at most one '%') and returns a ready-to-match
// Rule.
func NewRule(pattern string, deps []string, action func(name string) error) (*Rule, error) {
	r := &Rule{Pattern: pattern, Deps: deps, Action: action}

	idx := strings.IndexByte(pattern, '%')
	if idx < 0 {
		return r, nil
	}
	if strings.IndexByte(pattern[idx+1:], '%') >= 0 {
		return nil, errTooManyWildcards(pattern)
	}

	r.isWildcard = true
	r.prefix = pattern[:idx]
	r.suffix = pattern[idx+1:]
	return r, nil
}

// Matches reports whether name matches the rule's pattern.
func (r *Rule) Matches(name string) bool {
	if !r.isWildcard {
		return r.Pattern == name
	}
	if len(name) < len(r.prefix)+len(r.suffix) {
		return false
	}
	return strings.HasPrefix(name, r.prefix) && strings.HasSuffix(name, r.suffix)
}

// Stem returns the substring captured by '%' for a matching name.
func (r *Rule) Stem(name string) (string, bool) {
	if !r.Matches(name) {
		return "", false
	}
	if !r.isWildcard {
		return "", true
	}
	return name[len(r.prefix) : len(name)-len(r.suffix)], true
}

// CreateTask synthesizes a FileTask for name if the rule matches it,
// substituting the captured stem into every dependency that references
// '%'.
func (r *Rule) CreateTask(name string) (*FileTask, bool) {
	stem, ok := r.Stem(name)
	if !ok {
		return nil, false
	}

	inputs := make([]string, len(r.Deps))
	for i, d := range r.Deps {
		if r.isWildcard {
			inputs[i] = strings.ReplaceAll(d, "%", stem)
		} else {
			inputs[i] = d
		}
	}

	action := r.Action
	return &FileTask{
		Output: name,
		Inputs: inputs,
		Action: action,
	}, true
}

func errTooManyWildcards(pattern string) error {
	return &patternError{pattern: pattern}
}

type patternError struct{ pattern string }

func (e *patternError) Error() string {
	return "rule pattern contains more than one '%': " + e.pattern
}
