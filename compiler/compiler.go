package compiler

import (
	"fmt"
	"io"
	"os"
)

// Compile runs the full pipeline — lex, parse, analyze, emit — over src
// and narrates stage transitions to out, an injectable io.Writer so
// callers can capture or silence the narration.
func Compile(src string, out io.Writer) (*Module, error) {
	if out == nil {
		out = os.Stderr
	}

	fmt.Fprintln(out, "compiler: parsing")
	stmts, err := NewParser(src).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	fmt.Fprintln(out, "compiler: analyzing")
	analyzer := NewAnalyzer()
	if err := analyzer.Analyze(stmts); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	fmt.Fprintln(out, "compiler: emitting")
	module, err := Emit(stmts, analyzer.universe)
	if err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}

	fmt.Fprintln(out, "compiler: done")
	return module, nil
}
