package interp_test

import (
	"testing"

	"github.com/Urethramancer/bfopt/interp"
	"github.com/Urethramancer/bfopt/ir"
)

func newCtx() *interp.Context {
	return &interp.Context{Tape: ir.NewTape()}
}

func TestRunAskAndPut(t *testing.T) {
	ctx := newCtx()
	ctx.AskFn = func() byte { return 42 }
	var got byte
	ctx.PutFn = func(b byte) { got = b }

	ok := interp.Run(ctx, []*ir.Block{ir.Ask(), ir.Put()})
	if !ok {
		t.Fatalf("Run returned false")
	}
	if got != 42 {
		t.Fatalf("put saw %d, want 42", got)
	}
}

func TestAtomicEffectSeesEntrySnapshot(t *testing.T) {
	// Assignments read the block's entry state, not each other's writes:
	// swapping cell 0 and cell 1 in one AtomicEffect must actually swap them,
	// not collapse both to the same value.
	ctx := newCtx()
	ctx.Set(0, 10)
	ctx.Set(1, 20)
	b := ir.AtomicEffect(map[int64]*ir.Expr{
		0: ir.RegExpr(1),
		1: ir.RegExpr(0),
	}, 0)
	if !interp.RunBlock(ctx, b) {
		t.Fatalf("RunBlock returned false")
	}
	if ctx.Get(0) != 20 || ctx.Get(1) != 10 {
		t.Fatalf("got (%d, %d), want swapped (20, 10)", ctx.Get(0), ctx.Get(1))
	}
}

func TestAtomicEffectAppliesShiftAfterAssigns(t *testing.T) {
	ctx := newCtx()
	b := ir.AtomicEffect(map[int64]*ir.Expr{0: ir.LitExpr(9)}, 3)
	if !interp.RunBlock(ctx, b) {
		t.Fatalf("RunBlock returned false")
	}
	if ctx.Head != 3 {
		t.Fatalf("head = %d, want 3", ctx.Head)
	}
	if ctx.Get(0) != 9 {
		t.Fatalf("cell 0 = %d, want 9", ctx.Get(0))
	}
}

func TestUnsolvableIntoAborts(t *testing.T) {
	ctx := newCtx()
	ctx.Set(0, 1)
	// Reg(0) = Into(Lit(2), Lit(1)): q*2 = 1 (mod 256) has no solution.
	b := ir.AtomicEffect(map[int64]*ir.Expr{
		0: ir.IntoExpr(ir.LitExpr(2), ir.LitExpr(1)),
	}, 0)
	if interp.RunBlock(ctx, b) {
		t.Fatalf("RunBlock should abort on an unsolvable Into")
	}
}

func TestAbortedAtomicEffectWritesNothing(t *testing.T) {
	ctx := newCtx()
	ctx.Set(0, 5)
	ctx.Set(1, 7)
	b := ir.AtomicEffect(map[int64]*ir.Expr{
		0: ir.LitExpr(99),
		1: ir.IntoExpr(ir.LitExpr(2), ir.LitExpr(1)),
	}, 0)
	if interp.RunBlock(ctx, b) {
		t.Fatalf("RunBlock should abort")
	}
	if ctx.Get(0) != 5 || ctx.Get(1) != 7 {
		t.Fatalf("a partially-evaluated AtomicEffect must not commit any writes, got (%d, %d)", ctx.Get(0), ctx.Get(1))
	}
}

func TestLoopRunsUntilZero(t *testing.T) {
	ctx := newCtx()
	ctx.Set(0, 3)
	loop := ir.Loop([]*ir.Block{
		ir.AtomicEffect(map[int64]*ir.Expr{
			0: ir.AddExpr(ir.RegExpr(0), ir.LitExpr(255)),
			1: ir.AddExpr(ir.RegExpr(1), ir.LitExpr(1)),
		}, 0),
	})
	if !interp.Run(ctx, []*ir.Block{loop}) {
		t.Fatalf("Run returned false")
	}
	if ctx.Get(0) != 0 || ctx.Get(1) != 3 {
		t.Fatalf("got (%d, %d), want (0, 3)", ctx.Get(0), ctx.Get(1))
	}
}

func TestAbortPropagatesOutOfNestedLoop(t *testing.T) {
	ctx := newCtx()
	ctx.Set(0, 2)
	inner := ir.AtomicEffect(map[int64]*ir.Expr{
		0: ir.AddExpr(ir.RegExpr(0), ir.LitExpr(255)),
		1: ir.IntoExpr(ir.LitExpr(2), ir.LitExpr(1)),
	}, 0)
	outer := ir.Loop([]*ir.Block{inner})
	if interp.Run(ctx, []*ir.Block{outer}) {
		t.Fatalf("Run should abort because of the unsolvable Into inside the loop")
	}
}

func TestEvaluateMemoizesSharedSubexpression(t *testing.T) {
	ctx := newCtx()
	ctx.Set(0, 1)
	shared := ir.AddExpr(ir.RegExpr(0), ir.LitExpr(1))
	b := ir.AtomicEffect(map[int64]*ir.Expr{
		1: shared,
		2: ir.AddExpr(shared, ir.LitExpr(1)),
	}, 0)
	if !interp.RunBlock(ctx, b) {
		t.Fatalf("RunBlock returned false")
	}
	if ctx.Get(1) != 2 || ctx.Get(2) != 3 {
		t.Fatalf("got (%d, %d), want (2, 3)", ctx.Get(1), ctx.Get(2))
	}
}
