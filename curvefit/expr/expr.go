// Package expr implements the restricted formula language of "eval:" curve-fit models.
//
// A formula is an arithmetic expression over the independent variable x and named
// fit parameters written as {name}:
//
//	{a}*exp(-{k}*x) + {b}
//
// Supported syntax: numbers with optional exponent, x, {placeholders}, + - * / ** (and ^
// as an alias of **), unary signs, parentheses, the constants pi, e, inf and nan, and a
// fixed allowlist of one-argument math functions (sqrt, exp, log, log10, sin, cos, tan,
// arcsin, arccos, arctan, sinh, cosh, tanh, abs and a few more). Function and constant
// names may carry an np. or math. prefix.
//
// Placeholders are numbered in order of first appearance. A compiled Program is
// immutable and safe for concurrent use.
package expr

import (
	"fmt"
	"sync"

	"github.com/arloliu/loadkit/errs"
	"github.com/arloliu/loadkit/internal/hash"
)

// Program is a compiled formula.
type Program struct {
	src    string
	root   node
	params []string
}

var cache sync.Map // uint64 -> *Program

// Compile parses src into a Program.
//
// Compiled programs are cached by the xxHash64 of src, so compiling the same formula
// repeatedly is cheap. Syntax errors, unknown identifiers and unknown functions return
// an error wrapping errs.ErrModelDefinition.
func Compile(src string) (*Program, error) {
	key := hash.ID(src)
	if cached, ok := cache.Load(key); ok {
		if prog := cached.(*Program); prog.src == src {
			return prog, nil
		}
	}

	root, params, err := parse(src)
	if err != nil {
		return nil, err
	}

	prog := &Program{src: src, root: root, params: params}
	cache.Store(key, prog)

	return prog, nil
}

// MustCompile is like Compile but panics on error. It is intended for formulas
// known at init time.
func MustCompile(src string) *Program {
	prog, err := Compile(src)
	if err != nil {
		panic(err)
	}

	return prog
}

// Source returns the formula text the program was compiled from.
func (p *Program) Source() string { return p.src }

// Params returns the placeholder names in order of first appearance.
// The returned slice must not be modified.
func (p *Program) Params() []string { return p.params }

// DependsOnX reports whether the formula references x.
func (p *Program) DependsOnX() bool { return p.root.usesX() }

// Eval evaluates the program for every sample of x, with params[i] bound to the i-th
// placeholder, and writes the result into dst (grown if needed).
//
// A formula that does not reference x cannot produce one value per sample and fails
// with errs.ErrModelDefinition.
func (p *Program) Eval(dst, x, params []float64) ([]float64, error) {
	if len(params) != len(p.params) {
		return nil, fmt.Errorf("%w: formula %q takes %d parameters, got %d",
			errs.ErrModelDefinition, p.src, len(p.params), len(params))
	}

	v := p.root.eval(&env{x: x, params: params})
	if v.vec == nil {
		return nil, fmt.Errorf("%w: formula %q does not depend on x", errs.ErrModelDefinition, p.src)
	}

	if cap(dst) < len(v.vec) {
		dst = make([]float64, len(v.vec))
	}
	dst = dst[:len(v.vec)]
	copy(dst, v.vec)

	return dst, nil
}

// EvalScalar evaluates the program at a single x.
func (p *Program) EvalScalar(x float64, params []float64) (float64, error) {
	var buf [1]float64
	out, err := p.Eval(buf[:], []float64{x}, params)
	if err != nil {
		return 0, err
	}

	return out[0], nil
}
