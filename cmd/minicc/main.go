package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"minicc.dev/compiler/pkg/ast"
	"minicc.dev/compiler/pkg/diag"
	"minicc.dev/compiler/pkg/emit"
	"minicc.dev/compiler/pkg/ir"
	"minicc.dev/compiler/pkg/lexer"
	"minicc.dev/compiler/pkg/parser"
	"minicc.dev/compiler/pkg/sema"
	"minicc.dev/compiler/pkg/token"
)

const (
	exitOK               = 0
	exitMissingInput     = 1
	exitInputNotFound    = 2
	exitConflictingStage = 3
	exitReadError        = 4
	exitParserError      = 77
	exitSemanticError    = 88
	exitEmitterError     = 99
)

var Description = strings.ReplaceAll(`
The miniC compiler front end turns a single translation unit of the
restricted C dialect into LLVM-compatible textual IR, stopping early at
any of its intermediate stages on request.
`, "\n", " ")

var MiniCC = cli.New(Description).
	WithArg(cli.NewArg("input", "The miniC source file to compile")).
	WithOption(cli.NewOption("lex", "Stop after lexing and dump the token stream").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("yacc", "Stop after parsing and dump the AST").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("analyze", "Stop after analysis and dump the sentence list").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("ir", "Run the full pipeline to IR (default)").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("json", "Dump intermediate stages as JSON instead of text").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("o", "Output file path; stdout if omitted").WithType(cli.TypeString)).
	WithAction(Handler)

type stage int

const (
	stageLex stage = iota
	stageYacc
	stageAnalyze
	stageIR
)

func selectedStage(options map[string]string) (stage, error) {
	selected, seen := stageIR, 0
	if _, ok := options["lex"]; ok {
		selected, seen = stageLex, seen+1
	}
	if _, ok := options["yacc"]; ok {
		selected, seen = stageYacc, seen+1
	}
	if _, ok := options["analyze"]; ok {
		selected, seen = stageAnalyze, seen+1
	}
	if _, ok := options["ir"]; ok {
		selected, seen = stageIR, seen+1
	}
	if seen > 1 {
		return selected, fmt.Errorf("at most one of --lex, --yacc, --analyze, --ir may be given")
	}
	return selected, nil
}

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 || args[0] == "" {
		fmt.Println("ERROR: missing input file, use --help")
		return exitMissingInput
	}
	inputPath := args[0]

	selected, err := selectedStage(options)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return exitConflictingStage
	}
	asJSON := false
	if _, ok := options["json"]; ok {
		asJSON = true
	}

	content, err := os.ReadFile(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("ERROR: input not found: %s\n", inputPath)
			return exitInputNotFound
		}
		fmt.Printf("ERROR: unable to read input: %s\n", err)
		return exitReadError
	}

	out := os.Stdout
	if path, ok := options["o"]; ok && path != "" {
		f, err := os.Create(path)
		if err != nil {
			fmt.Printf("ERROR: unable to open output file: %s\n", err)
			return exitReadError
		}
		defer f.Close()
		out = f
	}

	p, err := parser.NewParser(bytes.NewReader(content))
	if err != nil {
		fmt.Printf("ERROR: unable to start lexing: %s\n", err)
		return exitParserError
	}

	if selected == stageLex {
		return dumpLexOnly(content, out, asJSON)
	}

	root, err := p.Parse()
	if err != nil {
		if se, ok := err.(*parser.SyntaxError); ok {
			fmt.Println(se.Error())
		} else {
			fmt.Printf("ERROR: %s\n", err)
		}
		return exitParserError
	}

	if selected == stageYacc {
		return dumpValue(root, out, asJSON, func() string { return dumpAST(root, 0) })
	}

	analyzer := sema.NewAnalyzer()
	program, err := analyzer.Analyze(root)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return exitSemanticError
	}

	printer := diag.NewPrinter()
	printer.PrintAll(os.Stdout, analyzer.Diags)
	if analyzer.Diags.HasErrors() {
		return exitSemanticError
	}

	if selected == stageAnalyze {
		return dumpValue(program, out, asJSON, func() string { return dumpProgram(program) })
	}

	emitter := emit.NewEmitter(program)
	lines, err := emitter.Emit()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return exitEmitterError
	}
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	return exitOK
}

func dumpLexOnly(content []byte, out *os.File, asJSON bool) int {
	lx, err := lexer.NewLexer(bytes.NewReader(content))
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return exitReadError
	}
	var tokens []token.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			return exitParserError
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	if asJSON {
		enc, _ := json.MarshalIndent(tokens, "", "  ")
		fmt.Fprintln(out, string(enc))
		return exitOK
	}
	for _, t := range tokens {
		fmt.Fprintln(out, t.String())
	}
	return exitOK
}

func dumpValue(v any, out *os.File, asJSON bool, text func() string) int {
	if asJSON {
		enc, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			return exitEmitterError
		}
		fmt.Fprintln(out, string(enc))
		return exitOK
	}
	fmt.Fprintln(out, text())
	return exitOK
}

func dumpAST(n *ast.Node, depth int) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&b, "%s %q (line %d)\n", n.Kind, n.Value, n.Line)
	for name, k := range n.Kids {
		b.WriteString(strings.Repeat("  ", depth+1))
		fmt.Fprintf(&b, "[%s]\n", name)
		b.WriteString(dumpAST(k, depth+2))
	}
	for _, k := range n.List {
		b.WriteString(dumpAST(k, depth+1))
	}
	return b.String()
}

func dumpProgram(prog ir.Program) string {
	var b strings.Builder
	for _, s := range prog {
		fmt.Fprintf(&b, "%+v\n", s)
	}
	return b.String()
}

func main() { os.Exit(MiniCC.Run(os.Args, os.Stdout)) }
