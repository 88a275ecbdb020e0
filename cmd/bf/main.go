// Command bf parses, optimises, and runs Brainfuck programs. With a file
// argument it runs the file once and exits; with no arguments it starts an
// interactive REPL over stdin/stdout.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Urethramancer/bfopt/interp"
	"github.com/Urethramancer/bfopt/ir"
	"github.com/Urethramancer/bfopt/optimiser"
	"github.com/Urethramancer/bfopt/parser"
	"github.com/Urethramancer/bfopt/repl"
)

var showIR = flag.Bool("ir", false, "Print the optimised block sequence before running it.")

func main() {
	log.SetFlags(0)
	flag.Parse()

	switch flag.NArg() {
	case 0:
		runREPL()
	case 1:
		runFile(flag.Arg(0))
	default:
		log.Println("Usage: bf [options] [filename]")
		flag.PrintDefaults()
		os.Exit(1)
	}
}

func runFile(filename string) {
	src, err := os.ReadFile(filename)
	if err != nil {
		log.Fatalf("Couldn't read source file: %v", err)
	}

	log.Printf("Parsing %s...", filename)
	nodes, err := parser.Parse(string(src))
	if err != nil {
		log.Fatalf("Parse failed: %v", err)
	}

	optimised := optimiser.OptimisingConvert(nodes)
	if *showIR {
		log.Println(ir.Pretty(optimised))
	}

	in := bufio.NewReader(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	ctx := &interp.Context{
		Tape: ir.NewTape(),
		AskFn: func() byte {
			b, err := in.ReadByte()
			if err != nil {
				return 0
			}
			return b
		},
		PutFn: func(b byte) { out.WriteByte(b) },
	}

	if !interp.Run(ctx, optimised) {
		out.Flush()
		log.Fatalf("execution aborted: non-halting loop (an Into had no solution)")
	}
}

func runREPL() {
	scan := bufio.NewScanner(os.Stdin)
	writeln := func(s string) { fmt.Println(s) }
	writeErrln := func(s string) { fmt.Fprintln(os.Stderr, s) }

	it := repl.NewBufioInteractor(scan, writeln, writeErrln)
	if *showIR {
		it.WriteOptimised = func(blocks []*ir.Block) { writeln(ir.Pretty(blocks)) }
	}

	ctx := &interp.Context{
		Tape: ir.NewTape(),
		AskFn: func() byte {
			if !scan.Scan() {
				return 0
			}
			line := scan.Text()
			if len(line) == 0 {
				return 0
			}
			return line[0]
		},
		PutFn: func(b byte) { fmt.Printf("%c", b) },
	}

	for repl.REP(it, ctx) {
	}
}
