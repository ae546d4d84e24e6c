// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"github.com/fatih/color"
	"kanso/internal/acir"
	"kanso/internal/evaluator"
	"kanso/internal/parser"
	"kanso/internal/semantic"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: kanso <file.ka>")
		os.Exit(1)
	}

	path := os.Args[1]

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("❌ failed to read file: %s", err)
		os.Exit(1)
	}

	contract, parseErrs, scanErrs := parser.ParseSource(path, string(source))
	if len(scanErrs) > 0 || len(parseErrs) > 0 {
		for _, e := range scanErrs {
			color.Red("❌ %s:%d:%d: %s", path, e.Position.Line, e.Position.Column, e.Message)
		}
		for _, e := range parseErrs {
			color.Red("❌ %s:%d:%d: %s", path, e.Position.Line, e.Position.Column, e.Message)
		}
		os.Exit(1)
	}

	analyzer := semantic.NewAnalyzer()
	if semErrs := analyzer.Analyze(contract); len(semErrs) > 0 {
		for _, e := range semErrs {
			color.Red("❌ %s:%d:%d: %s", path, e.Position.Line, e.Position.Column, e.Message)
		}
		os.Exit(1)
	}

	artifact, err := evaluator.Compile(contract, semantic.NewContextRegistry(), evaluator.SsaEvaluatorOptions{
		ExpressionWidth: acir.UnboundedWidth(),
	})
	if err != nil {
		color.Red("❌ %s", err)
		os.Exit(1)
	}

	color.Green("✅ Compiled %s: %d ACIR circuit(s), %d brillig function(s)",
		path, len(artifact.Program.Functions), len(artifact.BrilligNames))
}
