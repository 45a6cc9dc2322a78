package filter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

// Rule is a single include/exclude step of a Chain.
//
// Apply selects the polarity: true includes matching values, false excludes them.
// Regex is matched case-insensitively; an empty Regex matches every value.
type Rule struct {
	Apply bool   `json:"apply" yaml:"apply"`
	Regex string `json:"regex" yaml:"regex"`
}

// DefaultRules returns the single permissive rule used when no rule is configured.
func DefaultRules() []Rule {
	return []Rule{{Apply: true, Regex: ""}}
}

// UnmarshalJSON decodes a rule, defaulting Apply to true.
func (r *Rule) UnmarshalJSON(b []byte) error {
	type rawRule Rule
	raw := rawRule{Apply: true}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Rule(raw)
	return nil
}

// UnmarshalYAML decodes a rule, defaulting Apply to true.
func (r *Rule) UnmarshalYAML(value *yaml.Node) error {
	type rawRule Rule
	raw := rawRule{Apply: true}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*r = Rule(raw)
	return nil
}

// Compile returns the case-insensitive pattern of the rule.
// A nil pattern is returned for an empty Regex.
func (r Rule) Compile() (*regexp.Regexp, error) {
	if r.Regex == "" {
		return nil, nil
	}
	return compile(r.Regex)
}

// compiled patterns are shared by all chains, keyed by the raw pattern
var patterns = struct {
	sync.RWMutex
	m map[string]*regexp.Regexp
}{m: make(map[string]*regexp.Regexp)}

func compile(pattern string) (*regexp.Regexp, error) {
	patterns.RLock()
	re, ok := patterns.m[pattern]
	patterns.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}

	patterns.Lock()
	patterns.m[pattern] = re
	patterns.Unlock()
	return re, nil
}

type compiledRule struct {
	include bool
	re      *regexp.Regexp
}

// Chain is an ordered, compiled list of rules.
type Chain struct {
	rules []compiledRule
}

// NewChain compiles rules in order. An empty list is replaced by DefaultRules.
func NewChain(rules []Rule) (*Chain, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	c := &Chain{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		re, err := r.Compile()
		if err != nil {
			return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", i, r.Regex, err)
		}
		c.rules = append(c.rules, compiledRule{include: r.Apply, re: re})
	}
	return c, nil
}

// Accept evaluates the rules in order and stops at the first rejection.
// An include rule rejects values it does not match, an exclude rule rejects
// values it matches. Since an empty pattern matches everything, an exclude
// rule without a pattern rejects every value.
func (c *Chain) Accept(value string) bool {
	for _, r := range c.rules {
		match := r.re == nil || r.re.MatchString(value)
		if r.include && !match {
			return false
		}
		if !r.include && match {
			return false
		}
	}
	return true
}

// Apply returns the records accepted by the chain, in input order.
// key selects the value of a record the rules are evaluated against.
func Apply[T any](c *Chain, records []T, key func(T) string) []T {
	accepted := make([]T, 0, len(records))
	for _, record := range records {
		if c.Accept(key(record)) {
			accepted = append(accepted, record)
		}
	}
	return accepted
}
