package model

import (
	"fmt"
	"regexp"
)

// Pattern is a compiled matching pattern with search semantics: it succeeds
// when found anywhere in the text, not only on a full match. All patterns
// are case-insensitive, matching how the rule documents are authored.
type Pattern struct {
	expr string
	re   *regexp.Regexp
}

// CompilePattern compiles a pattern expression from a rule document.
func CompilePattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return &Pattern{expr: expr, re: re}, nil
}

// Search reports whether the pattern occurs anywhere in s.
func (p *Pattern) Search(s string) bool {
	return p.re.MatchString(s)
}

// Find returns the first match of the pattern in s along with its capture
// groups. match[0] is the full match, match[1..] the groups; a group that
// did not participate is the empty string.
func (p *Pattern) Find(s string) (match []string, ok bool) {
	m := p.re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	return m, true
}

// Groups returns the number of capture groups declared in the pattern.
func (p *Pattern) Groups() int {
	return p.re.NumSubexp()
}

func (p *Pattern) String() string {
	return p.expr
}
