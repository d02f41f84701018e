// Package pathrules evaluates WebDAV-style permissions: each rule grants a
// group a set of operations on the paths matched by a regular expression.
//
// Patterns may reference requester attributes as {name}. Attributes are
// substituted textually, quoted for the regexp syntax, before the pattern is
// compiled. A placeholder with no matching attribute is left as is; the
// regexp engine reads the braces as literal characters, so such a rule only
// matches paths that contain the token itself, such as "/home/{username}/".
package pathrules

import (
	"fmt"
	"regexp"
	"slices"
)

// AnyGroup in a rule applies it to every subject.
const AnyGroup = "*"

// Rule grants Operations on the paths matching Pattern to members of Group.
type Rule struct {
	Group      string
	Pattern    string
	Operations []string
}

// Subject is the requester a path is checked for.
type Subject struct {
	Groups     []string
	Attributes map[string]string
}

// Match is the outcome of a successful check.
type Match struct {
	Rule Rule
	// Captures holds the named groups of the matching pattern.
	Captures map[string]string
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Substitute replaces {name} tokens of pattern with the quoted value of
// attrs[name]. Unknown names are kept verbatim.
func Substitute(pattern string, attrs map[string]string) string {
	return placeholder.ReplaceAllStringFunc(pattern, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if v, ok := attrs[name]; ok {
			return regexp.QuoteMeta(v)
		}
		return tok
	})
}

// Evaluator checks paths against an ordered rule list. Safe for concurrent use.
type Evaluator struct {
	rules []compiledRule
}

type compiledRule struct {
	Rule
	// re is nil when the pattern has placeholders; those are compiled per
	// check since the result depends on the subject.
	re *regexp.Regexp
}

// New validates rules. Every pattern must compile with its placeholders left
// in place.
func New(rules []Rule) (*Evaluator, error) {
	e := &Evaluator{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if r.Group == "" {
			return nil, fmt.Errorf("rule %d: group is required", i)
		}
		re, err := compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if placeholder.MatchString(r.Pattern) {
			re = nil
		}
		r.Operations = slices.Clone(r.Operations)
		e.rules = append(e.rules, compiledRule{Rule: r, re: re})
	}
	return e, nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", pattern, err)
	}
	return re, nil
}

func (r compiledRule) compileFor(attrs map[string]string) (*regexp.Regexp, error) {
	if r.re != nil {
		return r.re, nil
	}
	return compile(Substitute(r.Pattern, attrs))
}

func (s Subject) inGroup(group string) bool {
	return group == AnyGroup || slices.Contains(s.Groups, group)
}

// Check returns the first rule that lets s perform op on path.
func (e *Evaluator) Check(s Subject, path, op string) (Match, bool, error) {
	for _, r := range e.rules {
		if !s.inGroup(r.Group) || !slices.Contains(r.Operations, op) {
			continue
		}
		re, err := r.compileFor(s.Attributes)
		if err != nil {
			return Match{}, false, err
		}
		m := re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		captures := make(map[string]string)
		for i, name := range re.SubexpNames() {
			if name != "" {
				captures[name] = m[i]
			}
		}
		return Match{Rule: r.Rule, Captures: captures}, true, nil
	}
	return Match{}, false, nil
}

// Allowed reports whether s may perform op on path.
func (e *Evaluator) Allowed(s Subject, path, op string) bool {
	_, ok, err := e.Check(s, path, op)
	return err == nil && ok
}
