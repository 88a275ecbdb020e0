// Package optimiser turns a parser AST into an optimised ir.Block sequence.
// It mirrors assembler.Assemble's shape: a straightforward pass that
// produces a baseline form (Convert), then one round of rewrite passes
// (Optimise) that tighten it without changing behaviour.
package optimiser

import (
	"github.com/Urethramancer/bfopt/ir"
	"github.com/Urethramancer/bfopt/parser"
)

// Convert lowers a parsed AST into a raw (unoptimised) ir.Block sequence.
// Straight-line runs of '<' '>' '+' '-' accumulate into a single offset and
// a per-register diff map; the accumulator is flushed into an AtomicEffect
// whenever it would otherwise be observed by an Ask, a Put, or a Loop, and
// once more at the end of the sequence. A diff entry is kept even when it
// nets to zero: the accumulator never removes a key once touched, matching
// how a running total naturally behaves. Such an entry is emitted as
// Reg(r) + Lit(0), which canonicalisation later reduces to Reg(r); the
// identity assignment itself stays in the block.
func Convert(nodes []parser.Node) []*ir.Block {
	var out []*ir.Block
	diff := map[int64]byte{}
	var offset int64

	for _, n := range nodes {
		switch n.Kind {
		case parser.Lft:
			offset--
		case parser.Rgh:
			offset++
		case parser.Inc:
			diff[offset] = diff[offset] + 1
		case parser.Dec:
			diff[offset] = diff[offset] - 1
		case parser.Ask:
			out = flush(out, diff, offset)
			diff, offset = map[int64]byte{}, 0
			out = append(out, ir.Ask())
		case parser.Put:
			out = flush(out, diff, offset)
			diff, offset = map[int64]byte{}, 0
			out = append(out, ir.Put())
		case parser.LoopNode:
			out = flush(out, diff, offset)
			diff, offset = map[int64]byte{}, 0
			out = append(out, ir.Loop(Convert(n.Body)))
		}
	}
	out = flush(out, diff, offset)
	return out
}

// flush appends an AtomicEffect for the accumulated diff/offset, unless it
// has no observable effect at all (offset zero and every diff entry zero).
func flush(out []*ir.Block, diff map[int64]byte, offset int64) []*ir.Block {
	nonTrivial := offset != 0
	if !nonTrivial {
		for _, v := range diff {
			if v != 0 {
				nonTrivial = true
				break
			}
		}
	}
	if !nonTrivial {
		return out
	}
	assigns := make(map[int64]*ir.Expr, len(diff))
	for r, v := range diff {
		assigns[r] = ir.AddExpr(ir.RegExpr(r), ir.LitExpr(v))
	}
	return append(out, ir.AtomicEffect(assigns, offset))
}
