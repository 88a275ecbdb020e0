// Package interp evaluates an optimised ir.Block sequence over a mutable
// tape. It mirrors cpu/execute.go's fetch-decode-execute shape: one
// function steps a single block, a driver loop walks the sequence, and
// failure is surfaced as an ordinary return value rather than a panic.
package interp

import (
	"github.com/Urethramancer/bfopt/interp/divu8"
	"github.com/Urethramancer/bfopt/ir"
)

// Context is the mutable execution state threaded through a run: the head
// position, the backing tape, and the I/O hooks. There is no global state;
// every call takes a Context explicitly, the way cpu.CPU is passed by
// pointer through every instruction handler.
type Context struct {
	// Head is the current tape index.
	Head int64
	// Tape backs Get/Set/Clear. Persists across runs until Clear is called.
	Tape *ir.Tape
	// AskFn supplies one input byte. Required only if the program executes
	// an Ask block.
	AskFn func() byte
	// PutFn consumes one output byte. Required only if the program executes
	// a Put block.
	PutFn func(byte)
}

// Get reads the tape at an absolute offset (not relative to Head).
func (c *Context) Get(addr int64) byte { return c.Tape.Get(addr) }

// Set writes the tape at an absolute offset.
func (c *Context) Set(addr int64, v byte) { c.Tape.Set(addr, v) }

// Clear drops all tape state.
func (c *Context) Clear() { c.Tape.Clear() }

// Run executes a block sequence in order. It returns true on normal
// completion and false the moment any block's evaluation aborts (an Into
// with no solution against the live tape). On abort, the remaining blocks
// in the sequence are not executed — the same way a failing cpu.Execute
// stops the run68 execution loop.
func Run(ctx *Context, blocks []*ir.Block) bool {
	for _, b := range blocks {
		if !RunBlock(ctx, b) {
			return false
		}
	}
	return true
}

// RunBlock executes a single block.
func RunBlock(ctx *Context, b *ir.Block) bool {
	switch b.Kind {
	case ir.BlockAsk:
		ctx.Set(ctx.Head, ctx.AskFn())
		return true
	case ir.BlockPut:
		ctx.PutFn(ctx.Get(ctx.Head))
		return true
	case ir.BlockAtomicEffect:
		return runAtomicEffect(ctx, b)
	case ir.BlockLoop:
		for ctx.Get(ctx.Head) != 0 {
			for _, sub := range b.Body {
				if !RunBlock(ctx, sub) {
					return false
				}
			}
		}
		return true
	default:
		return true
	}
}

// runAtomicEffect evaluates every assignment against the entry snapshot,
// staging results in a write buffer so later assignments can't observe
// earlier ones, then commits the buffer and advances the head. A shared
// memo, keyed by the already-interned *ir.Expr pointers, makes repeated
// subexpressions within this one block evaluation free after the first
// evaluation — it must not outlive this call, since its validity depends on
// the tape snapshot not changing mid-evaluation.
func runAtomicEffect(ctx *Context, b *ir.Block) bool {
	memo := map[*ir.Expr]byte{}
	buffer := make(map[int64]byte, len(b.Assigns))
	for r, e := range b.Assigns {
		v, ok := evaluate(ctx, memo, e)
		if !ok {
			return false
		}
		buffer[r] = v
	}
	for r, v := range buffer {
		ctx.Set(ctx.Head+r, v)
	}
	ctx.Head += b.Shift
	return true
}

func evaluate(ctx *Context, memo map[*ir.Expr]byte, e *ir.Expr) (byte, bool) {
	if v, ok := memo[e]; ok {
		return v, true
	}
	var v byte
	switch e.Kind() {
	case ir.KindLit:
		v = e.Lit()
	case ir.KindReg:
		v = ctx.Get(ctx.Head + e.Reg())
	case ir.KindAdd:
		a, ok := evaluate(ctx, memo, e.A())
		if !ok {
			return 0, false
		}
		b, ok := evaluate(ctx, memo, e.B())
		if !ok {
			return 0, false
		}
		v = a + b
	case ir.KindMul:
		a, ok := evaluate(ctx, memo, e.A())
		if !ok {
			return 0, false
		}
		b, ok := evaluate(ctx, memo, e.B())
		if !ok {
			return 0, false
		}
		v = a * b
	case ir.KindInto:
		a, ok := evaluate(ctx, memo, e.A())
		if !ok {
			return 0, false
		}
		b, ok := evaluate(ctx, memo, e.B())
		if !ok {
			return 0, false
		}
		// Into(a, b) = q with q*a = b (mod 256); divu8.Div(x, y) = q with
		// q*y = x (mod 256), so this is Div(b, a).
		q, ok := divu8.Div(b, a)
		if !ok {
			return 0, false
		}
		v = q
	default:
		return 0, false
	}
	memo[e] = v
	return v, true
}
