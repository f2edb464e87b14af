package query

import (
	"strconv"
	"strings"
)

// Node is a parsed query expression.
type Node interface {
	// eval receives the already lower-cased candidate text.
	eval(lowerText string) bool
	String() string
}

// Phrase matches when its term is a case-insensitive substring of the text.
type Phrase struct {
	Term string
}

func (p Phrase) eval(lowerText string) bool {
	return strings.Contains(lowerText, strings.ToLower(p.Term))
}

func (p Phrase) String() string { return strconv.Quote(p.Term) }

type And struct {
	Left, Right Node
}

func (a And) eval(lowerText string) bool {
	return a.Left.eval(lowerText) && a.Right.eval(lowerText)
}

func (a And) String() string { return "(" + a.Left.String() + " AND " + a.Right.String() + ")" }

type Or struct {
	Left, Right Node
}

func (o Or) eval(lowerText string) bool {
	return o.Left.eval(lowerText) || o.Right.eval(lowerText)
}

func (o Or) String() string { return "(" + o.Left.String() + " OR " + o.Right.String() + ")" }
