// Package canon implements the multinomial canonicaliser: it decides
// structural equality of ir.Expr trees up to the ring laws of byte
// arithmetic (commutativity, associativity, distributivity, identities for
// 0 and 1) and folds a tree back into a canonical ir.Expr that contains no
// Add/Mul a further reduction pass could simplify.
//
// A multinomial is a mapping from term to byte coefficient, where a term is
// an ordered mapping from symbol (any Expr that isn't itself Lit, Add, or
// Mul — i.e. a Reg or an unreducible Into) to a positive exponent: a normal
// form reached by structural recursion over the expression tree, the same
// shape of pass as a decode/assemble walk even though there is no directly
// analogous algebraic-normalisation step to borrow code from.
package canon

import (
	"sort"
	"strconv"

	"github.com/Urethramancer/bfopt/interp/divu8"
	"github.com/Urethramancer/bfopt/ir"
)

// factor is one symbol raised to a positive exponent within a term.
type factor struct {
	sym *ir.Expr
	exp int
}

// term is a product of factors, kept sorted by symbol so two terms compare
// equal iff their factor lists are identical.
type term struct {
	factors []factor
}

func (t term) key() string {
	// Build a short, collision-free key from the already-totally-ordered
	// symbol list. Since factors are sorted by ir.Expr.Compare and each
	// symbol prints to a unique Expr.String(), concatenating is safe within
	// one canonicalisation call.
	s := ""
	for _, f := range t.factors {
		s += f.sym.String()
		s += "^"
		s += strconv.Itoa(f.exp)
		s += ":"
	}
	return s
}

func sortFactors(fs []factor) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].sym.Compare(fs[j].sym) < 0 })
}

func mulFactors(a, b []factor) []factor {
	counts := map[*ir.Expr]int{}
	order := []*ir.Expr{}
	for _, f := range a {
		if _, ok := counts[f.sym]; !ok {
			order = append(order, f.sym)
		}
		counts[f.sym] += f.exp
	}
	for _, f := range b {
		if _, ok := counts[f.sym]; !ok {
			order = append(order, f.sym)
		}
		counts[f.sym] += f.exp
	}
	out := make([]factor, 0, len(order))
	for _, sym := range order {
		out = append(out, factor{sym: sym, exp: counts[sym]})
	}
	sortFactors(out)
	return out
}

// Multinomial is an unordered sum of terms, each with a byte coefficient.
// The zero value is the empty multinomial (the constant 0).
type Multinomial struct {
	terms map[string]term
	coefs map[string]byte
}

func empty() Multinomial {
	return Multinomial{terms: map[string]term{}, coefs: map[string]byte{}}
}

// Value returns the multinomial for a literal byte: the empty multinomial
// when v is 0, otherwise the empty-term (constant) with coefficient v.
func Value(v byte) Multinomial {
	m := empty()
	if v == 0 {
		return m
	}
	k := term{}.key()
	m.terms[k] = term{}
	m.coefs[k] = v
	return m
}

// Symbol returns the multinomial for a single variable's first power: one
// term of exponent 1 with coefficient 1.
func Symbol(sym *ir.Expr) Multinomial {
	m := empty()
	t := term{factors: []factor{{sym: sym, exp: 1}}}
	k := t.key()
	m.terms[k] = t
	m.coefs[k] = 1
	return m
}

// Add computes the pointwise byte-wraparound sum of coefficients, keyed by
// term, dropping any term whose coefficient becomes 0.
func Add(x, y Multinomial) Multinomial {
	out := empty()
	for k, t := range x.terms {
		out.terms[k] = t
		out.coefs[k] = x.coefs[k]
	}
	for k, t := range y.terms {
		c := out.coefs[k] + y.coefs[k]
		if _, ok := out.terms[k]; !ok {
			out.terms[k] = t
		}
		out.coefs[k] = c
	}
	for k, c := range out.coefs {
		if c == 0 {
			delete(out.coefs, k)
			delete(out.terms, k)
		}
	}
	return out
}

// Mul distributes: every pair of terms merges by summing exponents and
// byte-multiplying coefficients, then accumulates into the result.
func Mul(x, y Multinomial) Multinomial {
	out := empty()
	for kx, tx := range x.terms {
		cx := x.coefs[kx]
		for ky, ty := range y.terms {
			cy := y.coefs[ky]
			nt := term{factors: mulFactors(tx.factors, ty.factors)}
			nk := nt.key()
			nc := cx * cy
			if existing, ok := out.coefs[nk]; ok {
				nc += existing
			} else {
				out.terms[nk] = nt
			}
			if nc == 0 {
				delete(out.coefs, nk)
				delete(out.terms, nk)
			} else {
				out.coefs[nk] = nc
			}
		}
	}
	return out
}

// AsExpr folds the multinomial back into a canonical ir.Expr: a sum of
// products, each term Mul(Lit coeff, sym, sym, ...) with a literal-1
// coefficient elided, the whole thing an Add-chain. The empty multinomial
// becomes Lit(0). Terms are folded in a deterministic order (by term key)
// so the same multinomial always yields the same Expr pointer.
func (m Multinomial) AsExpr() *ir.Expr {
	keys := make([]string, 0, len(m.terms))
	for k := range m.terms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sum *ir.Expr
	for _, k := range keys {
		t := m.terms[k]
		c := m.coefs[k]
		te := termExpr(t, c)
		if sum == nil {
			sum = te
		} else {
			sum = ir.AddExpr(sum, te)
		}
	}
	if sum == nil {
		return ir.LitExpr(0)
	}
	return sum
}

func termExpr(t term, coeff byte) *ir.Expr {
	var prod *ir.Expr
	for _, f := range t.factors {
		for i := 0; i < f.exp; i++ {
			if prod == nil {
				prod = f.sym
			} else {
				prod = ir.MulExpr(prod, f.sym)
			}
		}
	}
	if prod == nil {
		// Constant term: just the coefficient.
		return ir.LitExpr(coeff)
	}
	if coeff == 1 {
		return prod
	}
	return ir.MulExpr(ir.LitExpr(coeff), prod)
}

// Reduce canonicalises an Expr by structural recursion through the
// multinomial ring, then folds the result back to an Expr.
//
// Into is special-cased as described in the design: reduce both operands
// first; if the dividend (B) reduces to literal 0 the whole expression is 0;
// if the divisor (A) reduces to literal 1 the result is the dividend's
// multinomial; if both operands are literals, div_u8 folds them to a
// constant on success and the Into survives as an opaque symbol on
// failure; otherwise the Into survives as an opaque symbol (its own
// operands, already reduced).
func Reduce(e *ir.Expr) Multinomial {
	switch e.Kind() {
	case ir.KindLit:
		return Value(e.Lit())
	case ir.KindReg:
		return Symbol(e)
	case ir.KindAdd:
		return Add(Reduce(e.A()), Reduce(e.B()))
	case ir.KindMul:
		return Mul(Reduce(e.A()), Reduce(e.B()))
	case ir.KindInto:
		ra := Reduce(e.A())
		rb := Reduce(e.B())
		aExpr := ra.AsExpr()
		bExpr := rb.AsExpr()
		if bExpr.Kind() == ir.KindLit && bExpr.Lit() == 0 {
			return Value(0)
		}
		if aExpr.Kind() == ir.KindLit && aExpr.Lit() == 1 {
			return rb
		}
		if aExpr.Kind() == ir.KindLit && bExpr.Kind() == ir.KindLit {
			// Into(a, b) = q with q*a = b (mod 256); Div(x, y) = q with
			// q*y = x (mod 256), so this is Div(b, a).
			if q, ok := divu8.Div(bExpr.Lit(), aExpr.Lit()); ok {
				return Symbol(ir.LitExpr(q))
			}
			return Symbol(ir.IntoExpr(aExpr, bExpr))
		}
		return Symbol(ir.IntoExpr(aExpr, bExpr))
	default:
		return empty()
	}
}

// ReduceExpr is the common case: reduce then fold back to an Expr.
func ReduceExpr(e *ir.Expr) *ir.Expr {
	return Reduce(e).AsExpr()
}
