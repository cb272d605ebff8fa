// Package diag implements the compiler's diagnostic strata: a single
// fixed "[LEVEL] [STAGE] [LINE]: message" format shared by lex/parse,
// semantic and emitter errors, with non-fatal accumulation for the
// semantic stage.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Level is the diagnostic severity.
type Level int

const (
	Error Level = iota
	Warn
	Info
)

func (l Level) label() string {
	switch l {
	case Error:
		return "ERROR"
	case Warn:
		return "WARN "
	default:
		return "INFO "
	}
}

// Stage identifies which pipeline component raised the diagnostic.
type Stage string

const (
	StageLex     Stage = "LEXER"
	StageParser  Stage = "PARSER"
	StageAnalyze Stage = "ANALYZER"
	StageEmit    Stage = "EMITTER"
)

// Diagnostic is one reported message.
type Diagnostic struct {
	Level   Level
	Stage   Stage
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] [%s] [%d]: %s", d.Level.label(), d.Stage, d.Line, d.Message)
}

// Bag accumulates diagnostics without unwinding control flow. The
// Analyzer is the one stage that must keep running after a fault, so
// it reports through a Bag rather than returning an error per call.
type Bag struct {
	items []Diagnostic
}

func (b *Bag) Add(level Level, stage Stage, line int, format string, args ...any) {
	b.items = append(b.items, Diagnostic{Level: level, Stage: stage, Line: line, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) Errorf(stage Stage, line int, format string, args ...any) {
	b.Add(Error, stage, line, format, args...)
}

func (b *Bag) Warnf(stage Stage, line int, format string, args ...any) {
	b.Add(Warn, stage, line, format, args...)
}

// HasErrors reports whether any Error-level diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Level == Error {
			return true
		}
	}
	return false
}

// Items returns the accumulated diagnostics in report order.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Printer renders diagnostics to an io.Writer, colorized per level
// (grounded on akashmaji946-go-mix/repl's per-severity fatih/color
// usage). Color is disabled automatically when stdout is not a
// terminal, following the library's own NoColor detection; the writer
// w itself is not inspected.
type Printer struct {
	errColor  *color.Color
	warnColor *color.Color
	infoColor *color.Color
}

func NewPrinter() *Printer {
	return &Printer{
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow),
		infoColor: color.New(color.FgCyan),
	}
}

func (p *Printer) colorFor(level Level) *color.Color {
	switch level {
	case Error:
		return p.errColor
	case Warn:
		return p.warnColor
	default:
		return p.infoColor
	}
}

// Print writes one diagnostic followed by a newline.
func (p *Printer) Print(w io.Writer, d Diagnostic) {
	p.colorFor(d.Level).Fprintln(w, d.String())
}

// PrintAll writes every diagnostic in the bag, in report order.
func (p *Printer) PrintAll(w io.Writer, b *Bag) {
	for _, d := range b.Items() {
		p.Print(w, d)
	}
}
