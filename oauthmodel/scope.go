package oauthmodel

import "strings"

// SplitScope splits a scope string on whitespace and commas, dropping empty tokens.
// "basic, extended" and "basic extended" both yield [basic extended].
func SplitScope(scope string) []string {
	return strings.FieldsFunc(scope, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// NormalizeScope rewrites a scope string as its tokens joined by single spaces,
// removing duplicates but keeping the first-seen order.
func NormalizeScope(scope string) string {
	seen := make(map[string]struct{})
	tokens := make([]string, 0)
	for _, s := range SplitScope(scope) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		tokens = append(tokens, s)
	}
	return strings.Join(tokens, " ")
}

// ScopeContains reports whether every token of requested appears in available.
func ScopeContains(requested, available string) bool {
	allowed := make(map[string]struct{})
	for _, s := range SplitScope(available) {
		allowed[s] = struct{}{}
	}
	for _, s := range SplitScope(requested) {
		if _, ok := allowed[s]; !ok {
			return false
		}
	}
	return true
}
