package ratelimit

import (
	"strings"
	"time"
)

// Rule limits one method on a path. A path ending in "/" matches by prefix.
type Rule struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int

	unlimited bool
}

// Unlimited reports whether the rule exempts its requests.
func (r *Rule) Unlimited() bool { return r.unlimited }

func (r *Rule) key() string { return r.Method + " " + r.Path }

var (
	healthRule    = Rule{Path: "/health", Method: "GET", unlimited: true}
	preflightRule = Rule{Method: "OPTIONS", unlimited: true}
)

// MatchRule finds the rule for a request. Exact paths win over prefixes.
// Health checks and CORS preflights are never limited.
func MatchRule(path, method string, rules []Rule) *Rule {
	if method == preflightRule.Method {
		return &preflightRule
	}
	if path == healthRule.Path && method == healthRule.Method {
		return &healthRule
	}

	var prefix *Rule
	for i := range rules {
		r := &rules[i]
		if r.Method != method {
			continue
		}
		if r.Path == path {
			return r
		}
		if prefix == nil && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			prefix = r
		}
	}
	return prefix
}
