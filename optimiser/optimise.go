package optimiser

import (
	"github.com/Urethramancer/bfopt/ir"
	"github.com/Urethramancer/bfopt/ir/canon"
	"github.com/Urethramancer/bfopt/parser"
)

// Optimise runs the three rewrite passes over an already-lowered block
// sequence: recurse into every loop body and try to close it, fuse
// adjacent AtomicEffects, then canonicalise every surviving AtomicEffect's
// expressions. Loop bodies are optimised (and, where eligible, closed)
// before the sequence containing them is merged, so a closed loop behaves
// exactly like any other AtomicEffect to the merge pass.
func Optimise(blocks []*ir.Block) []*ir.Block {
	rewritten := make([]*ir.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Kind == ir.BlockLoop {
			body := Optimise(b.Body)
			if closed, ok := tryLoopOptimise(body); ok {
				rewritten = append(rewritten, closed)
				continue
			}
			rewritten = append(rewritten, ir.Loop(body))
			continue
		}
		rewritten = append(rewritten, b)
	}

	merged := mergeAll(rewritten)
	for _, b := range merged {
		if b.Kind == ir.BlockAtomicEffect {
			reduceAssigns(b)
		}
	}
	return merged
}

func reduceAssigns(b *ir.Block) {
	for r, e := range b.Assigns {
		b.Assigns[r] = canon.ReduceExpr(e)
	}
}

// OptimisingConvert is the usual entry point: lower parsed nodes, then
// optimise.
func OptimisingConvert(nodes []parser.Node) []*ir.Block {
	return Optimise(Convert(nodes))
}
