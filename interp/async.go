package interp

import (
	"context"

	"github.com/Urethramancer/bfopt/ir"
)

// AskFunc supplies one input byte, suspending on ctx if no input is
// available yet. Put and every arithmetic step stay synchronous, since
// neither ever blocks; Ask is the only operation threaded through a
// context.Context, because it is the only one that can legitimately wait on
// something outside the interpreter (stdin, a channel, a network read).
type AskFunc func(context.Context) (byte, error)

// RunContext executes a block sequence like Run, but resolves Ask through
// an AskFunc that may block on ctx (e.g. waiting on stdin or a channel) and
// can be cancelled. It returns (false, nil) on an ordinary interpreter
// abort (an Into with no solution) and (_, err) if ctx is cancelled or
// AskFunc fails outright.
func RunContext(ctx context.Context, ectx *Context, ask AskFunc, blocks []*ir.Block) (bool, error) {
	for _, b := range blocks {
		ok, err := runBlockContext(ctx, ectx, ask, b)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func runBlockContext(ctx context.Context, ectx *Context, ask AskFunc, b *ir.Block) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	switch b.Kind {
	case ir.BlockAsk:
		v, err := ask(ctx)
		if err != nil {
			return false, err
		}
		ectx.Set(ectx.Head, v)
		return true, nil
	case ir.BlockLoop:
		for ectx.Get(ectx.Head) != 0 {
			for _, sub := range b.Body {
				ok, err := runBlockContext(ctx, ectx, ask, sub)
				if err != nil || !ok {
					return ok, err
				}
			}
		}
		return true, nil
	default:
		// Put and AtomicEffect never suspend; reuse the synchronous path.
		return RunBlock(ectx, b), nil
	}
}
