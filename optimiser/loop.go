package optimiser

import (
	"github.com/Urethramancer/bfopt/ir"
	"github.com/Urethramancer/bfopt/ir/canon"
)

// tryLoopOptimise rewrites a loop whose (already-optimised) body is a
// single non-shifting AtomicEffect into a closed form that runs the whole
// loop in one step, when the body's per-iteration effect on every register
// it touches is provably linear in the number of iterations.
//
// Eligibility:
//  1. body must be exactly one AtomicEffect with Shift == 0.
//  2. that effect must assign register 0 (the cell the loop tests).
//  3. step := Reg(0) + 255*assigns[0], canonicalised, must not mention any
//     register the loop writes other than 0 itself (0 is allowed on both
//     sides: its own self-reference is resolved by the cycles formula
//     below, not by this disjointness check).
//  4. for every other register r the body writes, delta_r :=
//     assigns[r] + 255*Reg(r), canonicalised, must not mention any
//     register the loop writes at all. In the common linear case (assigns[r]
//     = Reg(r) + k) the Reg(r) term cancels during canonicalisation (its
//     coefficient reduces to 256 mod 256 = 0) and delta_r reduces to a
//     constant or an expression in other, untouched registers; a
//     non-linear update (e.g. doubling a cell) leaves Reg(r) present and
//     fails this check, correctly refusing to close.
//
// On success the loop becomes a single AtomicEffect: register 0 goes to
// Lit(0) (the loop body always runs until it's zero), and every other
// written register r goes to Reg(r) + cycles*delta_r, where
// cycles = Into(step, Reg(0)) is the number of iterations the loop would
// have run.
func tryLoopOptimise(body []*ir.Block) (*ir.Block, bool) {
	if len(body) != 1 {
		return nil, false
	}
	eff := body[0]
	if eff.Kind != ir.BlockAtomicEffect || eff.Shift != 0 {
		return nil, false
	}
	e0, ok := eff.Assigns[0]
	if !ok {
		return nil, false
	}

	stepRaw := ir.AddExpr(ir.RegExpr(0), ir.MulExpr(ir.LitExpr(255), e0))
	stepRegs := registersOf(canon.ReduceExpr(stepRaw))
	for r := range eff.Assigns {
		if r != 0 && stepRegs[r] {
			return nil, false
		}
	}

	deltas := make(map[int64]*ir.Expr, len(eff.Assigns))
	for r, ar := range eff.Assigns {
		if r == 0 {
			continue
		}
		deltaRaw := ir.AddExpr(ar, ir.MulExpr(ir.LitExpr(255), ir.RegExpr(r)))
		delta := canon.ReduceExpr(deltaRaw)
		deltaRegs := registersOf(delta)
		for other := range eff.Assigns {
			if deltaRegs[other] {
				return nil, false
			}
		}
		deltas[r] = delta
	}

	cycles := ir.IntoExpr(stepRaw, ir.RegExpr(0))
	newAssigns := map[int64]*ir.Expr{0: ir.LitExpr(0)}
	for r, delta := range deltas {
		newAssigns[r] = ir.AddExpr(ir.RegExpr(r), ir.MulExpr(cycles, delta))
	}
	return ir.AtomicEffect(newAssigns, 0), true
}

// registersOf collects every Reg(r) occurring anywhere in e.
func registersOf(e *ir.Expr) map[int64]bool {
	set := map[int64]bool{}
	var walk func(*ir.Expr)
	walk = func(n *ir.Expr) {
		switch n.Kind() {
		case ir.KindReg:
			set[n.Reg()] = true
		case ir.KindAdd, ir.KindMul, ir.KindInto:
			walk(n.A())
			walk(n.B())
		}
	}
	walk(e)
	return set
}
