package expr

import (
	"fmt"
	"strings"

	"github.com/arloliu/loadkit/errs"
)

// parser is a recursive-descent parser with Python operator precedence:
// ** binds tighter than unary minus on its left and is right-associative.
type parser struct {
	toks   []token
	pos    int
	params map[string]int
	names  []string
}

func parse(src string) (node, []string, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, nil, err
	}

	p := &parser{toks: toks, params: make(map[string]int)}
	root, err := p.expr()
	if err != nil {
		return nil, nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, nil, fmt.Errorf("%w: unexpected %s at offset %d", errs.ErrModelDefinition, tok, tok.pos)
	}

	return root, p.names, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}

	return tok
}

func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokPlus && op != tokMinus {
			return left, nil
		}
		p.advance()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokStar && op != tokSlash {
			return left, nil
		}
		p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	switch p.peek().kind {
	case tokMinus:
		p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}

		return &unaryNode{neg: true, operand: operand}, nil
	case tokPlus:
		p.advance()
		return p.unary()
	default:
		return p.power()
	}
}

func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	p.advance()
	exponent, err := p.unary()
	if err != nil {
		return nil, err
	}

	return &binaryNode{op: tokPow, left: base, right: exponent}, nil
}

func (p *parser) primary() (node, error) {
	tok := p.advance()
	switch tok.kind {
	case tokNumber:
		return numberNode(tok.num), nil
	case tokPlaceholder:
		idx, ok := p.params[tok.text]
		if !ok {
			idx = len(p.names)
			p.params[tok.text] = idx
			p.names = append(p.names, tok.text)
		}

		return paramNode(idx), nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.advance(); closing.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected \")\" at offset %d, found %s", errs.ErrModelDefinition, closing.pos, closing)
		}

		return inner, nil
	case tokIdent:
		return p.identifier(tok)
	}

	return nil, fmt.Errorf("%w: unexpected %s at offset %d", errs.ErrModelDefinition, tok, tok.pos)
}

func (p *parser) identifier(tok token) (node, error) {
	name := strings.TrimPrefix(strings.TrimPrefix(tok.text, "np."), "numpy.")
	name = strings.TrimPrefix(name, "math.")

	if p.peek().kind == tokLParen {
		fn, ok := functions[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown function %q at offset %d", errs.ErrModelDefinition, tok.text, tok.pos)
		}
		p.advance()
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.advance(); closing.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected \")\" after argument of %s, found %s", errs.ErrModelDefinition, name, closing)
		}

		return &callNode{name: name, fn: fn, arg: arg}, nil
	}

	if name == "x" {
		return xNode{}, nil
	}
	if v, ok := constants[name]; ok {
		return numberNode(v), nil
	}

	return nil, fmt.Errorf("%w: unknown identifier %q at offset %d", errs.ErrModelDefinition, tok.text, tok.pos)
}
