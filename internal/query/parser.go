package query

import "fmt"

// SyntaxError describes a malformed query. Pos is a byte offset into the query.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query syntax error at offset %d: %s", e.Pos, e.Msg)
}

// Parse builds the expression tree for q. A query without any recognized
// tokens yields a nil Node and no error.
//
// AND and OR bind with equal strength and associate left to right in the
// order written; only parentheses change grouping.
func Parse(q string) (Node, error) {
	p := &parser{toks: Tokenize(q), end: len(q)}
	if len(p.toks) == 0 {
		return nil, nil
	}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t, ok := p.peek(); ok {
		return nil, p.unexpected(t)
	}
	return n, nil
}

type parser struct {
	toks []Token
	pos  int
	end  int
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.toks) {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (Token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) expr() (Node, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || (t.Kind != TokAnd && t.Kind != TokOr) {
			return left, nil
		}
		p.pos++
		right, err := p.primary()
		if err != nil {
			return nil, err
		}
		if t.Kind == TokAnd {
			left = And{Left: left, Right: right}
		} else {
			left = Or{Left: left, Right: right}
		}
	}
}

func (p *parser) primary() (Node, error) {
	t, ok := p.next()
	if !ok {
		return nil, &SyntaxError{Pos: p.end, Msg: "unexpected end of query"}
	}
	switch t.Kind {
	case TokPhrase:
		return Phrase{Term: t.Text}, nil
	case TokLParen:
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.next()
		if !ok {
			return nil, &SyntaxError{Pos: p.end, Msg: fmt.Sprintf("missing ) for ( at offset %d", t.Pos)}
		}
		if closing.Kind != TokRParen {
			return nil, p.unexpected(closing)
		}
		return n, nil
	}
	return nil, p.unexpected(t)
}

func (p *parser) unexpected(t Token) error {
	if t.Kind == TokPhrase {
		return &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected phrase %q, expected AND or OR", t.Text)}
	}
	return &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected %s", t.Kind)}
}
