// Command cb is the minimal host for the Cb interpreter core: it reads
// a source file, runs it through the preprocessor and core, and reports
// errors the way the teacher's cmd/sentra does — a flat flag dispatch,
// stderr for diagnostics, a non-zero exit on failure.
package main

import (
	"fmt"
	"os"
	"time"

	"cb/internal/ast"
	"cb/internal/cberr"
	"cb/internal/config"
	"cb/internal/diag"
	"cb/internal/interp"
	"cb/internal/preprocessor"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := config.Parse(args)
	if err != nil {
		showUsage(err)
		return 2
	}

	logger := diag.Stderr(opts.Debug)

	src, err := os.ReadFile(opts.Source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cb: cannot read %s: %s\n", opts.Source, err)
		return 1
	}

	pp := preprocessor.New(opts.Source, version, time.Now())
	expanded, err := pp.Process(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "cb: preprocessing error: %s\n", err)
		return 1
	}

	if opts.CompileMode {
		fmt.Fprintln(os.Stderr, "cb: -c/--compile (HIR to C++ code generation) is not implemented by this core")
		return 1
	}

	// The surface lexer/parser that turns `expanded` into an *ast.Node
	// program is an external collaborator (spec.md §1); this host only
	// owns preprocessing and evaluation of an already-built AST.
	program, err := parseProgram(expanded, opts.Source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cb: parse error: %s\n", err)
		return 1
	}

	ctx := interp.New(opts.Source)
	logger.Debugf("running %s", opts.Source)

	if err := runProgram(ctx, program); err != nil {
		if ce, ok := cberr.AsCbError(err); ok {
			fmt.Fprintf(os.Stderr, "cb: %s\n", ce.Error())
		} else {
			fmt.Fprintf(os.Stderr, "cb: %s\n", err)
		}
		for _, w := range ctx.Warn.Warnings() {
			fmt.Fprintf(os.Stderr, "cb: warning: %s (at %s)\n", w.Message, w.Location)
		}
		return 1
	}
	for _, w := range ctx.Warn.Warnings() {
		fmt.Fprintf(os.Stderr, "cb: warning: %s (at %s)\n", w.Message, w.Location)
	}
	return 0
}

// runProgram executes the top-level statements in a single pass, in
// source order (each declaration is registered when it is reached; none
// is hoisted ahead of the others), then calls main if one was defined.
func runProgram(ctx *interp.Context, program *ast.Node) error {
	for _, stmt := range program.Arguments {
		if _, err := ctx.ExecuteStatement(stmt); err != nil {
			return err
		}
	}
	if _, ok := ctx.Functions["main"]; ok {
		call := &ast.Node{Kind: ast.FuncCall, Name: "main"}
		if _, err := ctx.EvaluateTypedExpression(call); err != nil {
			return err
		}
	}
	return nil
}

// parseProgram is the seam where the external lexer/parser (spec.md §1,
// out of scope for this core) plugs in a real `*ast.Node` builder. This
// host stub exists so the binary links and reports a clear error rather
// than leaving main() without a caller for the interpreter core.
func parseProgram(source, file string) (*ast.Node, error) {
	return nil, fmt.Errorf("no lexer/parser wired into this build for %s; construct an *ast.Node program and call interp.Context.ExecuteStatement directly", file)
}

func showUsage(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "cb: %s\n", err)
	}
	fmt.Fprintln(os.Stderr, "usage: cb [--debug] [-c|--compile] [-o <out>] <file.cb>")
}
