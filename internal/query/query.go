// Package query implements the search expression language used to filter
// post text: double-quoted phrases combined with AND, OR and parentheses.
// Phrases match as case-insensitive substrings.
package query

import (
	"strings"

	"tweetsieve/internal/logging"
)

// Query is a compiled search expression. The zero value matches everything.
type Query struct {
	src  string
	root Node
}

// Compile parses q once so it can be matched against many texts.
func Compile(q string) (*Query, error) {
	root, err := Parse(q)
	if err != nil {
		return nil, err
	}
	return &Query{src: q, root: root}, nil
}

// Match reports whether text satisfies the expression. A query without
// tokens is vacuously true.
func (q *Query) Match(text string) bool {
	if q == nil || q.root == nil {
		return true
	}
	return q.root.eval(strings.ToLower(text))
}

// Empty reports whether the query has no recognized tokens.
func (q *Query) Empty() bool { return q == nil || q.root == nil }

// Source returns the query as written.
func (q *Query) Source() string {
	if q == nil {
		return ""
	}
	return q.src
}

// String renders the tree with explicit grouping.
func (q *Query) String() string {
	if q.Empty() {
		return "<match all>"
	}
	return q.root.String()
}

// Evaluate compiles and matches in one step. A malformed query never matches;
// the syntax error is logged, not returned.
func Evaluate(q, text string) bool {
	cq, err := Compile(q)
	if err != nil {
		logging.Warn("query_invalid", map[string]any{"query": q, "error": err})
		return false
	}
	return cq.Match(text)
}
