// Package rules provides regex-based context rules that override
// categorization for transactions whose raw description carries
// structured meaning the merchant name alone cannot express.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Rule maps a description pattern to a category. Rules are evaluated in
// priority order (highest first); the first match wins.
type Rule struct {
	Name     string
	Regex    string
	Category string
	Priority int
}

type compiledRule struct {
	compiledRegex *regexp.Regexp
	Rule
}

// Matcher evaluates context rules against raw transaction descriptions.
type Matcher struct {
	rules []compiledRule
	mu    sync.RWMutex
}

// NewMatcher compiles the given rules. Patterns are case-insensitive by
// default unless the rule supplies its own flags.
func NewMatcher(rules []Rule) (*Matcher, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		pattern := r.Regex
		if len(pattern) < 4 || pattern[:4] != "(?i)" {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", r.Name, err)
		}
		compiled = append(compiled, compiledRule{compiledRegex: re, Rule: r})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return &Matcher{rules: compiled}, nil
}

// Match holds the outcome of a rule evaluation.
type Match struct {
	RuleName string
	Category string
}

// Apply returns the first rule matching the raw description, or nil when
// no rule applies.
func (m *Matcher) Apply(description string) *Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.rules {
		if r.compiledRegex.MatchString(description) {
			category := r.Category
			if r.Name == investmentRuleName {
				if c, ok := investmentCategory(r.compiledRegex, description); ok {
					category = c
				}
			}
			return &Match{RuleName: r.Name, Category: category}
		}
	}
	return nil
}

// Len reports the number of compiled rules.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rules)
}

const investmentRuleName = "Investment Trade"

var buyVerbs = map[string]bool{"buy": true, "koop": true}

// investmentCategory refines the investment rule into a buy or sell
// category based on the captured trade verb.
func investmentCategory(re *regexp.Regexp, description string) (string, bool) {
	groups := re.FindStringSubmatch(description)
	if len(groups) < 2 {
		return "", false
	}
	if buyVerbs[strings.ToLower(groups[1])] {
		return "Investments:Buy", true
	}
	return "Investments:Sell", true
}
