package repl_test

import (
	"testing"

	"github.com/Urethramancer/bfopt/interp"
	"github.com/Urethramancer/bfopt/ir"
	"github.com/Urethramancer/bfopt/repl"
)

func newTestInteractor(inputs []string) (*repl.Interactor, *[]string, *[]string) {
	var out, errOut []string
	i := 0
	it := &repl.Interactor{
		ReadLine: func(string) (string, bool) {
			if i >= len(inputs) {
				return "", false
			}
			s := inputs[i]
			i++
			return s, true
		},
		WriteLine:    func(s string) { out = append(out, s) },
		WriteErrLine: func(s string) { errOut = append(errOut, s) },
		WriteHelp:    func() { out = append(out, "help") },
	}
	return it, &out, &errOut
}

func TestREPRunsProgramAndReadsCell(t *testing.T) {
	it, out, errOut := newTestInteractor([]string{"+++", ":r 0", ":q"})
	ctx := &interp.Context{Tape: ir.NewTape()}

	if !repl.REP(it, ctx) {
		t.Fatalf("first REP returned false")
	}
	if !repl.REP(it, ctx) {
		t.Fatalf("second REP returned false")
	}
	if len(*errOut) != 0 {
		t.Fatalf("unexpected errors: %v", *errOut)
	}
	if len(*out) != 1 || (*out)[0] != "#0: 3" {
		t.Fatalf("got %v, want [\"#0: 3\"]", *out)
	}

	if repl.REP(it, ctx) {
		t.Fatalf(":q should stop the loop")
	}
}

func TestREPReportsParseError(t *testing.T) {
	it, _, errOut := newTestInteractor([]string{"[+"})
	ctx := &interp.Context{Tape: ir.NewTape()}
	repl.REP(it, ctx)
	if len(*errOut) != 1 {
		t.Fatalf("got %v, want exactly one parse error", *errOut)
	}
}

func TestREPClearCommand(t *testing.T) {
	it, out, _ := newTestInteractor([]string{"++", ":c", ":r 0"})
	ctx := &interp.Context{Tape: ir.NewTape()}
	repl.REP(it, ctx)
	repl.REP(it, ctx)
	repl.REP(it, ctx)
	if len(*out) != 1 || (*out)[0] != "#0: 0" {
		t.Fatalf("got %v, want cell 0 cleared to 0", *out)
	}
}

func TestREPEndOfInput(t *testing.T) {
	it, _, _ := newTestInteractor(nil)
	ctx := &interp.Context{Tape: ir.NewTape()}
	if repl.REP(it, ctx) {
		t.Fatalf("REP on exhausted input should return false")
	}
}
