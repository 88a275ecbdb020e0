package optimiser

import "github.com/Urethramancer/bfopt/ir"

// shiftExpr adds delta to every Reg(r) occurring in e, recursively. Used
// when fusing two adjacent AtomicEffects: the second effect's reads are
// relative to the head position *after* the first effect's shift, so they
// must be re-expressed relative to the first effect's entry point before
// the two can be combined into one.
func shiftExpr(delta int64, e *ir.Expr) *ir.Expr {
	switch e.Kind() {
	case ir.KindReg:
		return ir.RegExpr(e.Reg() + delta)
	case ir.KindAdd:
		return ir.AddExpr(shiftExpr(delta, e.A()), shiftExpr(delta, e.B()))
	case ir.KindMul:
		return ir.MulExpr(shiftExpr(delta, e.A()), shiftExpr(delta, e.B()))
	case ir.KindInto:
		return ir.IntoExpr(shiftExpr(delta, e.A()), shiftExpr(delta, e.B()))
	default:
		return e
	}
}

// substitute replaces every occurrence of Reg(r) inside target with repl[r],
// for all keys of repl at once: the replacement expressions themselves are
// not rewritten again.
func substitute(repl map[int64]*ir.Expr, target *ir.Expr) *ir.Expr {
	switch target.Kind() {
	case ir.KindReg:
		if e, ok := repl[target.Reg()]; ok {
			return e
		}
		return target
	case ir.KindAdd:
		return ir.AddExpr(substitute(repl, target.A()), substitute(repl, target.B()))
	case ir.KindMul:
		return ir.MulExpr(substitute(repl, target.A()), substitute(repl, target.B()))
	case ir.KindInto:
		return ir.IntoExpr(substitute(repl, target.A()), substitute(repl, target.B()))
	default:
		return target
	}
}

// tryMerge fuses two adjacent AtomicEffect blocks into one, if both are
// AtomicEffects. It shifts y's keys and register references into x's
// frame, substitutes x's assignments into the shifted y, then unions the
// two maps (y wins on key collision, since it runs after x), summing the
// two shifts. Non-AtomicEffect blocks (Ask, Put, Loop) never fuse.
func tryMerge(x, y *ir.Block) (*ir.Block, bool) {
	if x.Kind != ir.BlockAtomicEffect || y.Kind != ir.BlockAtomicEffect {
		return nil, false
	}
	delta := x.Shift
	shiftedY := make(map[int64]*ir.Expr, len(y.Assigns))
	for k, e := range y.Assigns {
		shiftedY[k+delta] = shiftExpr(delta, e)
	}
	for ky, ey := range shiftedY {
		shiftedY[ky] = substitute(x.Assigns, ey)
	}
	merged := ir.CloneAssigns(x.Assigns)
	for k, e := range shiftedY {
		merged[k] = e
	}
	return ir.AtomicEffect(merged, x.Shift+y.Shift), true
}

// mergeAll walks a block sequence and greedily fuses adjacent AtomicEffects:
// whenever the last emitted block can fuse with the next one, the fused
// result replaces it and is itself tried against the block after that,
// until a fusion fails or the sequence ends.
func mergeAll(blocks []*ir.Block) []*ir.Block {
	out := make([]*ir.Block, 0, len(blocks))
	for _, b := range blocks {
		cur := b
		for len(out) > 0 {
			merged, ok := tryMerge(out[len(out)-1], cur)
			if !ok {
				break
			}
			out = out[:len(out)-1]
			cur = merged
		}
		out = append(out, cur)
	}
	return out
}
