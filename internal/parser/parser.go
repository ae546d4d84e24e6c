package parser

import (
	"fmt"
	"github.com/alecthomas/participle/v2"
	"kanso/grammar"
	"os"
)

var parser = buildParser()

func buildParser() *participle.Parser[grammar.AST] {
	p, err := participle.Build[grammar.AST](
		participle.Lexer(grammar.KansoLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(3),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build parser: %w", err))
	}

	return p
}

// ParseGrammarFile and ParseGrammarSource drive the participle-based
// grammar.AST parser, an earlier parsing attempt superseded by the
// hand-written recursive-descent parser in package.go (ParseSource,
// which the rest of the compiler calls). Kept rather than deleted since
// grammar.KansoLexer's token definitions are still referenced from
// tests exercising the lexer in isolation; renamed off ParseFile/
// ParseSource to stop colliding with package.go's same-named functions.
func ParseGrammarFile(path string) (*grammar.AST, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseGrammarSource(path, string(source))
}

func ParseGrammarSource(sourceName string, source string) (*grammar.AST, error) {
	ast, err := parser.ParseString(sourceName, source)
	return ast, err
}
