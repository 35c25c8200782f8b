package expr

import "math"

// value is either a scalar (vec == nil) or a vector with one entry per x sample.
type value struct {
	vec []float64
	s   float64
}

func scalar(v float64) value { return value{s: v} }

type env struct {
	x      []float64
	params []float64
}

type node interface {
	eval(e *env) value
	usesX() bool
}

type numberNode float64

func (n numberNode) eval(*env) value { return scalar(float64(n)) }
func (n numberNode) usesX() bool     { return false }

type xNode struct{}

func (xNode) eval(e *env) value {
	if e.x == nil {
		// nil x is an empty sample vector, not a scalar.
		return value{vec: []float64{}}
	}

	return value{vec: e.x}
}


func (xNode) usesX() bool       { return true }

type paramNode int

func (n paramNode) eval(e *env) value { return scalar(e.params[n]) }
func (n paramNode) usesX() bool       { return false }

type unaryNode struct {
	neg     bool
	operand node
}

func (n *unaryNode) eval(e *env) value {
	v := n.operand.eval(e)
	if !n.neg {
		return v
	}

	return apply1(v, func(a float64) float64 { return -a })
}

func (n *unaryNode) usesX() bool { return n.operand.usesX() }

type binaryNode struct {
	op          tokenKind
	left, right node
}

func (n *binaryNode) eval(e *env) value {
	l, r := n.left.eval(e), n.right.eval(e)
	switch n.op {
	case tokPlus:
		return apply2(l, r, func(a, b float64) float64 { return a + b })
	case tokMinus:
		return apply2(l, r, func(a, b float64) float64 { return a - b })
	case tokStar:
		return apply2(l, r, func(a, b float64) float64 { return a * b })
	case tokSlash:
		return apply2(l, r, func(a, b float64) float64 { return a / b })
	default:
		return apply2(l, r, math.Pow)
	}
}

func (n *binaryNode) usesX() bool { return n.left.usesX() || n.right.usesX() }

type callNode struct {
	name string
	fn   func(float64) float64
	arg  node
}

func (n *callNode) eval(e *env) value { return apply1(n.arg.eval(e), n.fn) }
func (n *callNode) usesX() bool       { return n.arg.usesX() }

func apply1(v value, fn func(float64) float64) value {
	if v.vec == nil {
		return scalar(fn(v.s))
	}
	out := make([]float64, len(v.vec))
	for i, a := range v.vec {
		out[i] = fn(a)
	}

	return value{vec: out}
}

func apply2(l, r value, fn func(a, b float64) float64) value {
	switch {
	case l.vec == nil && r.vec == nil:
		return scalar(fn(l.s, r.s))
	case r.vec == nil:
		out := make([]float64, len(l.vec))
		for i, a := range l.vec {
			out[i] = fn(a, r.s)
		}

		return value{vec: out}
	case l.vec == nil:
		out := make([]float64, len(r.vec))
		for i, b := range r.vec {
			out[i] = fn(l.s, b)
		}

		return value{vec: out}
	default:
		out := make([]float64, len(l.vec))
		for i := range l.vec {
			out[i] = fn(l.vec[i], r.vec[i])
		}

		return value{vec: out}
	}
}

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"inf": math.Inf(1),
	"nan": math.NaN(),
}

var functions = map[string]func(float64) float64{
	"sqrt":    math.Sqrt,
	"exp":     math.Exp,
	"log":     math.Log,
	"log10":   math.Log10,
	"sin":     math.Sin,
	"cos":     math.Cos,
	"tan":     math.Tan,
	"arcsin":  math.Asin,
	"arccos":  math.Acos,
	"arctan":  math.Atan,
	"sinh":    math.Sinh,
	"cosh":    math.Cosh,
	"tanh":    math.Tanh,
	"abs":     math.Abs,
	"fabs":    math.Abs,
	"floor":   math.Floor,
	"ceil":    math.Ceil,
	"sign":    sign,
	"expm1":   math.Expm1,
	"log1p":   math.Log1p,
	"cbrt":    math.Cbrt,
	"deg2rad": func(v float64) float64 { return v * math.Pi / 180 },
	"rad2deg": func(v float64) float64 { return v * 180 / math.Pi },
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return v
	}
}
