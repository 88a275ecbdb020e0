// Package repl implements the interactive read-eval-print loop: one line of
// input is either a ':'-prefixed meta-command against the live tape, or a
// Brainfuck program to parse, optimise, display, and run. The I/O hooks are
// a plain struct of function fields rather than an interface or a generic
// type.
package repl

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/Urethramancer/bfopt/interp"
	"github.com/Urethramancer/bfopt/ir"
	"github.com/Urethramancer/bfopt/optimiser"
	"github.com/Urethramancer/bfopt/parser"
)

// Interactor bundles every I/O hook the REPL needs. WriteOptimised is called
// with the optimised block sequence before it runs, so a caller can choose
// to print it (or not).
type Interactor struct {
	ReadLine       func(prompt string) (string, bool)
	WriteLine      func(string)
	WriteErrLine   func(string)
	WriteHelp      func()
	WriteOptimised func([]*ir.Block)
}

const helpText = `meta-commands:
  :q       quit
  :r N     read cell N
  :c       clear the tape
  :f       print the head position
  :m N     move the head to N
  :h       show this help
anything else is run as a Brainfuck program`

// DefaultHelp is the help text printed by a plain bufio-backed REPL.
func DefaultHelp(w func(string)) func() {
	return func() { w(helpText) }
}

// REP runs one read-eval-print step against ctx. It returns false when the
// loop should stop (end of input, or a ":q" command).
func REP(it *Interactor, ctx *interp.Context) bool {
	line, ok := it.ReadLine("$ ")
	if !ok {
		return false
	}
	if strings.HasPrefix(line, ":") {
		return runCommand(it, ctx, strings.TrimSpace(line[1:]))
	}

	nodes, err := parser.Parse(line)
	if err != nil {
		it.WriteErrLine(fmt.Sprintf("%v\n...whilst parsing input", err))
		return true
	}
	optimised := optimiser.OptimisingConvert(nodes)
	if it.WriteOptimised != nil {
		it.WriteOptimised(optimised)
	}
	if !interp.Run(ctx, optimised) {
		it.WriteErrLine("aborted non-halting loop")
	}
	return true
}

func runCommand(it *Interactor, ctx *interp.Context, cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		it.WriteErrLine("empty command")
		return true
	}
	switch fields[0] {
	case "q":
		return false
	case "r":
		n, err := parseCell(fields)
		if err != nil {
			it.WriteErrLine(err.Error())
			return true
		}
		it.WriteLine(fmt.Sprintf("#%d: %d", n, ctx.Get(n)))
	case "c":
		ctx.Clear()
	case "h":
		it.WriteHelp()
	case "f":
		it.WriteLine(fmt.Sprintf("head: #%d", ctx.Head))
	case "m":
		n, err := parseCell(fields)
		if err != nil {
			it.WriteErrLine(err.Error())
			return true
		}
		ctx.Head = n
	default:
		it.WriteErrLine(fmt.Sprintf("unknown command %q", fields[0]))
	}
	return true
}

func parseCell(fields []string) (int64, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("%q needs exactly one numeric argument", fields[0])
	}
	n, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", fields[1], err)
	}
	return n, nil
}

// NewBufioInteractor builds an Interactor over a bufio.Scanner (typically
// wrapping os.Stdin) and a pair of line-writer functions, the same shape as
// jyane-jnes's debug console loop: read a line, dispatch, repeat.
func NewBufioInteractor(scan *bufio.Scanner, writeln, writeErrln func(string)) *Interactor {
	it := &Interactor{
		WriteLine:    writeln,
		WriteErrLine: writeErrln,
	}
	it.ReadLine = func(prompt string) (string, bool) {
		writeln(prompt)
		if !scan.Scan() {
			return "", false
		}
		return scan.Text(), true
	}
	it.WriteHelp = DefaultHelp(writeln)
	return it
}
