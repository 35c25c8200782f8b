package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/arloliu/loadkit/errs"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlaceholder
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of formula"
	}

	return strconv.Quote(t.text)
}

type lexer struct {
	src string
	pos int
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src}
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) next() (token, error) {
	for lx.pos < len(lx.src) && isSpace(lx.src[lx.pos]) {
		lx.pos++
	}
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, pos: lx.pos}, nil
	}

	start := lx.pos
	c := lx.src[start]
	switch {
	case c == '{':
		end := strings.IndexByte(lx.src[start+1:], '}')
		if end < 0 {
			return token{}, fmt.Errorf("%w: unterminated placeholder at offset %d", errs.ErrModelDefinition, start)
		}
		name := lx.src[start+1 : start+1+end]
		if name == "" {
			return token{}, fmt.Errorf("%w: empty placeholder at offset %d", errs.ErrModelDefinition, start)
		}
		lx.pos = start + end + 2

		return token{kind: tokPlaceholder, text: name, pos: start}, nil
	case isDigit(c) || (c == '.' && start+1 < len(lx.src) && isDigit(lx.src[start+1])):
		return lx.number()
	case isIdentStart(c):
		for lx.pos < len(lx.src) && (isIdentPart(lx.src[lx.pos]) || lx.src[lx.pos] == '.') {
			lx.pos++
		}

		return token{kind: tokIdent, text: lx.src[start:lx.pos], pos: start}, nil
	}

	lx.pos++
	switch c {
	case '+':
		return token{kind: tokPlus, text: "+", pos: start}, nil
	case '-':
		return token{kind: tokMinus, text: "-", pos: start}, nil
	case '*':
		if lx.pos < len(lx.src) && lx.src[lx.pos] == '*' {
			lx.pos++
			return token{kind: tokPow, text: "**", pos: start}, nil
		}

		return token{kind: tokStar, text: "*", pos: start}, nil
	case '^':
		return token{kind: tokPow, text: "^", pos: start}, nil
	case '/':
		return token{kind: tokSlash, text: "/", pos: start}, nil
	case '(':
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ')':
		return token{kind: tokRParen, text: ")", pos: start}, nil
	}

	return token{}, fmt.Errorf("%w: unexpected character %q at offset %d", errs.ErrModelDefinition, c, start)
}

func (lx *lexer) number() (token, error) {
	start := lx.pos
	for lx.pos < len(lx.src) && (isDigit(lx.src[lx.pos]) || lx.src[lx.pos] == '.') {
		lx.pos++
	}
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == 'e' || lx.src[lx.pos] == 'E') {
		mark := lx.pos
		lx.pos++
		if lx.pos < len(lx.src) && (lx.src[lx.pos] == '+' || lx.src[lx.pos] == '-') {
			lx.pos++
		}
		if lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
				lx.pos++
			}
		} else {
			// "2e" followed by something else: the e belongs to the next token.
			lx.pos = mark
		}
	}

	text := lx.src[start:lx.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, fmt.Errorf("%w: malformed number %q at offset %d", errs.ErrModelDefinition, text, start)
	}

	return token{kind: tokNumber, text: text, num: v, pos: start}, nil
}

func isSpace(c byte) bool      { return unicode.IsSpace(rune(c)) }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c|0x20 >= 'a' && c|0x20 <= 'z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

// Placeholders returns the distinct {name} placeholders of src in order of first appearance.
func Placeholders(src string) []string {
	var names []string
	seen := make(map[string]struct{})
	for i := 0; i < len(src); i++ {
		if src[i] != '{' {
			continue
		}
		end := strings.IndexByte(src[i+1:], '}')
		if end < 0 {
			break
		}
		name := src[i+1 : i+1+end]
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		i += end + 1
	}

	return names
}
