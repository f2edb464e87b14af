package query

import "regexp"

// TokenKind classifies a lexed token.
type TokenKind int

const (
	TokPhrase TokenKind = iota
	TokAnd
	TokOr
	TokLParen
	TokRParen
)

func (k TokenKind) String() string {
	switch k {
	case TokPhrase:
		return "phrase"
	case TokAnd:
		return "AND"
	case TokOr:
		return "OR"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	}
	return "?"
}

// Token is one recognized piece of a query. Pos is the byte offset in the input.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// Alternation order matters: a quoted phrase swallows any AND/OR/parens inside it.
var tokenPattern = regexp.MustCompile(`"(.*?)"|\bAND\b|\bOR\b|\(|\)`)

// Tokenize extracts phrases, operators and parentheses in input order.
// Unrecognized text between tokens is dropped.
func Tokenize(q string) []Token {
	matches := tokenPattern.FindAllStringSubmatchIndex(q, -1)
	toks := make([]Token, 0, len(matches))
	for _, m := range matches {
		start, end := m[0], m[1]
		if m[2] >= 0 {
			toks = append(toks, Token{Kind: TokPhrase, Text: q[m[2]:m[3]], Pos: start})
			continue
		}
		var kind TokenKind
		switch q[start:end] {
		case "AND":
			kind = TokAnd
		case "OR":
			kind = TokOr
		case "(":
			kind = TokLParen
		default:
			kind = TokRParen
		}
		toks = append(toks, Token{Kind: kind, Text: q[start:end], Pos: start})
	}
	return toks
}
