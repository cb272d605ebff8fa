package sema

import (
	"fmt"
	"strings"

	"minicc.dev/compiler/pkg/ast"
	"minicc.dev/compiler/pkg/diag"
	"minicc.dev/compiler/pkg/ir"
	"minicc.dev/compiler/pkg/utils"
)

// loopLabels records the (cond_entry, leave) pair break/continue jump to.
type loopLabels struct{ condEntry, leave string }

// Analyzer is the lowering core: AST → ir.Program, plus the scope
// stack, function table and diagnostics it builds along the way. It
// mirrors the teacher's jack.Lowerer (one Handle<Kind> dispatch method
// per construct, a struct-local counter for name generation) scaled up
// to miniC's richer statement/expression/overload model.
type Analyzer struct {
	Diags  *diag.Bag
	scopes *ScopeTable
	funcs  utils.OrderedMap[string, []*Symbol]

	regCounter   int
	labelCounter int
	pendingLabel string

	loops utils.Stack[loopLabels]
	prog  ir.Program

	currentFunc *Symbol
}

// NewAnalyzer returns an Analyzer with the standard library's function
// signatures pre-installed, per spec.md §4.3's "Module entry" step.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{Diags: &diag.Bag{}, scopes: NewScopeTable()}
	a.installStdlib()
	return a
}

func (a *Analyzer) installStdlib() {
	a.declareLibFunc("getint", nil, true)
	a.declareLibFunc("getch", nil, true)
	a.declareLibFunc("getarray", []Symbol{{Name: "a", Kind: KindIntArray, Size: 32, Dimension: []*int{nil}}}, true)
	a.declareLibFunc("putint", []Symbol{{Name: "v", Kind: KindIntVar, Size: 32}}, false)
	a.declareLibFunc("putch", []Symbol{{Name: "v", Kind: KindIntVar, Size: 32}}, false)
	a.declareLibFunc("putarray", []Symbol{
		{Name: "n", Kind: KindIntVar, Size: 32},
		{Name: "a", Kind: KindIntArray, Size: 32, Dimension: []*int{nil}},
	}, false)
}

func (a *Analyzer) declareLibFunc(name string, params []Symbol, returnsInt bool) {
	kind := KindVoidFunc
	if returnsInt {
		kind = KindIntFunc
	}
	sym := &Symbol{Name: name, Kind: kind, FuncParams: params, DefFrom: Declare, ReturnsInt: returnsInt}
	a.funcs.Set(name, []*Symbol{sym})
}

// --- naming ---

func (a *Analyzer) newTemp() string {
	a.regCounter++
	return fmt.Sprintf("%%t%d", a.regCounter)
}

func (a *Analyzer) newLabel() string {
	a.labelCounter++
	return fmt.Sprintf("L%d", a.labelCounter)
}

// freshVarReg computes the register name for a newly declared local
// variable named "name": the local sigil, disambiguated with a numeric
// suffix from the register counter if an outer scope already binds it.
func (a *Analyzer) freshVarReg(name string) string {
	reg := "%" + name
	if _, shadowed := a.scopes.Resolve(name); shadowed {
		a.regCounter++
		reg = fmt.Sprintf("%s.%d", reg, a.regCounter)
	}
	return reg
}

// --- pending-label discipline ---

func (a *Analyzer) setPending(label string) { a.pendingLabel = label }

func (a *Analyzer) lastIsTerminator() bool {
	if len(a.prog) == 0 {
		return false
	}
	return a.prog[len(a.prog)-1].Op.IsTerminator()
}

// emit appends s to the program, consuming the pending label if one is
// set. If the pending label would land on a sentence whose predecessor
// is not a terminator, a synthetic Jmp is inserted first — this is the
// single helper every lowering routine funnels through, per spec.md
// §4.3/§9 ("a single helper that every emit routine calls").
func (a *Analyzer) emit(s ir.Sentence) {
	if a.pendingLabel != "" {
		if !a.lastIsTerminator() && len(a.prog) > 0 {
			a.prog = append(a.prog, ir.Sentence{Op: ir.Jmp, Value: a.pendingLabel, Line: s.Line})
		}
		s.Label = a.pendingLabel
		a.pendingLabel = ""
	}
	a.prog = append(a.prog, s)
}

// Analyze runs the full lowering pass over a Root-kinded AST, returning
// the sentence list. Semantic errors accumulate in a.Diags rather than
// aborting; the caller checks a.Diags.HasErrors() before proceeding to
// emission, per spec.md §7.
func (a *Analyzer) Analyze(root *ast.Node) (ir.Program, error) {
	if root == nil || root.Kind != ast.Root {
		return nil, fmt.Errorf("sema: expected a Root node")
	}

	for _, seg := range root.List {
		switch seg.Kind {
		case ast.IntFunc, ast.VoidFunc:
			a.lowerFunction(seg)
		case ast.Block: // a var/array declaration list produced by the parser
			for _, decl := range seg.List {
				a.lowerGlobalDecl(decl)
			}
		default:
			a.Diags.Errorf(diag.StageAnalyze, seg.Line, "unexpected top-level construct %s", seg.Kind)
		}
	}

	return a.prog, nil
}

func dimsFromNodes(nodes []*ast.Node) []*int {
	dims := make([]*int, len(nodes))
	for i, n := range nodes {
		if n == nil {
			dims[i] = nil
			continue
		}
		v := 0
		fmt.Sscanf(n.Value, "%d", &v)
		dims[i] = &v
	}
	return dims
}

func (a *Analyzer) lowerGlobalDecl(node *ast.Node) {
	name := node.Value
	if _, exists := a.scopes.ResolveGlobal(name); exists {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "Redefinition of %s, it was defined in line %d", name, mustLine(a.scopes, name))
		return
	}

	dims := dimsFromNodes(node.List)
	kind := KindIntVar
	if node.Kind == ast.IntArray {
		kind = KindIntArray
	}
	reg := "@" + name
	sym := &Symbol{Name: name, Kind: kind, Reg: reg, Size: 32, Dimension: dims, Line: node.Line, DefFrom: Define}
	a.scopes.DefineGlobal(sym)

	if kind == KindIntArray {
		a.emit(ir.Sentence{Op: ir.DefineGlobalArray, Reg: reg, Size: 32, DeclaredExtents: dims, Line: node.Line})
	} else {
		a.emit(ir.Sentence{Op: ir.DefineGlobalVar, Reg: reg, Size: 32, Line: node.Line})
	}
}

func mustLine(t *ScopeTable, name string) int {
	if sym, ok := t.ResolveGlobal(name); ok {
		return sym.Line
	}
	return 0
}

func (a *Analyzer) lowerLocalDecl(node *ast.Node) {
	name := node.Value
	if prior, exists := a.scopes.ResolveLocal(name); exists {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "Redefinition of %s, it was defined in line %d", name, prior.Line)
		return
	}

	dims := dimsFromNodes(node.List)
	reg := a.freshVarReg(name)
	kind := KindIntVar
	if node.Kind == ast.IntArray {
		kind = KindIntArray
	}
	sym := &Symbol{Name: name, Kind: kind, Reg: reg, Size: 32, Dimension: dims, Line: node.Line, DefFrom: Define}
	a.scopes.Define(sym)

	if kind == KindIntArray {
		a.emit(ir.Sentence{Op: ir.DefineLocalArray, Reg: reg, Size: 32, DeclaredExtents: dims, Line: node.Line})
	} else {
		a.emit(ir.Sentence{Op: ir.DefineLocalVar, Reg: reg, Size: 32, Line: node.Line})
	}
}

// --- functions ---

func paramsFromNodes(nodes []*ast.Node) []Symbol {
	params := make([]Symbol, len(nodes))
	for i, p := range nodes {
		dims := make([]*int, len(p.List))
		for j, d := range p.List {
			if d == nil {
				dims[j] = nil
				continue
			}
			v := 0
			fmt.Sscanf(d.Value, "%d", &v)
			dims[j] = &v
		}
		kind := KindIntVar
		if len(dims) > 0 {
			kind = KindIntArray
		}
		params[i] = Symbol{Name: p.Value, Kind: kind, Size: 32, Dimension: dims, Line: p.Line}
	}
	return params
}

// insertFunction applies the overload/redefinition rule of spec.md
// §4.3: an exact-key collision against a prior "declare" reuses that
// symbol; against a prior "define" is a Redefinition error; otherwise
// the new symbol's linkage name is mangled with one "i" per existing
// distinct overload, deterministically.
func (a *Analyzer) insertFunction(name string, params []Symbol, returnsInt bool, line int) *Symbol {
	kind := KindVoidFunc
	if returnsInt {
		kind = KindIntFunc
	}
	candidate := Symbol{Name: name, FuncParams: params}
	existing, _ := a.funcs.Get(name)

	for _, e := range existing {
		key := e.Key()
		key.Name = name // compare against the source name, not the mangled one
		if key == candidate.Key() {
			if e.DefFrom == Define {
				a.Diags.Errorf(diag.StageAnalyze, line, "Redefinition of %s, it was defined in line %d", name, e.Line)
				return nil
			}
			e.DefFrom = Define
			e.Line = line
			return e
		}
	}

	mangled := name + strings.Repeat("i", len(existing))
	sym := &Symbol{
		Name: mangled, Kind: kind, FuncParams: params, Line: line,
		DefFrom: Define, ReturnsInt: returnsInt,
	}
	existing = append(existing, sym)
	a.funcs.Set(name, existing)
	return sym
}

func (a *Analyzer) lowerFunction(node *ast.Node) {
	name := node.Value
	returnsInt := node.Kind == ast.IntFunc
	params := paramsFromNodes(node.List)

	sym := a.insertFunction(name, params, returnsInt, node.Line)
	if sym == nil {
		return // diagnostic already recorded
	}

	sym.FuncEntryLabel = a.newLabel()
	sym.FuncLeaveLabel = a.newLabel()
	prevFunc := a.currentFunc
	a.currentFunc = sym

	a.scopes.Push(name)

	irParams := make([]ir.Param, len(params))
	for i := range params {
		irParams[i] = ir.Param{Reg: fmt.Sprintf("%%%d", i), Size: 32, DeclaredExtents: params[i].Dimension}
	}
	funcType := "void"
	if returnsInt {
		funcType = "int"
	}
	a.emit(ir.Sentence{Op: ir.DefineFunc, Value: sym.Name, Line: node.Line, FuncType: funcType, Params: irParams})

	for i, p := range params {
		localReg := a.freshVarReg(p.Name)
		kind := KindIntVar
		if len(p.Dimension) > 0 {
			kind = KindIntArray
		}
		local := &Symbol{Name: p.Name, Kind: kind, Reg: localReg, Size: 32, Dimension: p.Dimension, Line: p.Line, DefFrom: Define}
		a.scopes.Define(local)

		if kind == KindIntArray {
			a.emit(ir.Sentence{Op: ir.DefineLocalArray, Reg: localReg, Size: 32, DeclaredExtents: p.Dimension, Line: p.Line})
		} else {
			a.emit(ir.Sentence{Op: ir.DefineLocalVar, Reg: localReg, Size: 32, Line: p.Line})
		}

		incoming := ir.Operand{Kind: ir.KindIdent, Reg: irParams[i].Reg, Size: 32, DeclaredExtents: p.Dimension}
		slot := ir.Operand{Kind: ir.KindIdent, Reg: localReg, Size: 32, DeclaredExtents: p.Dimension}
		a.emit(ir.Sentence{Op: ir.Assign, RVar: &incoming, AVar: &slot, Line: p.Line})
	}

	if returnsInt {
		sym.Reg = "%retg"
		a.emit(ir.Sentence{Op: ir.DefineLocalVar, Reg: sym.Reg, Size: 32, Line: node.Line})
	}

	if body := node.Kid("body"); body != nil {
		a.lowerBlock(body, false)
	}

	a.emit(ir.Sentence{Op: ir.Jmp, Value: sym.FuncLeaveLabel, Line: node.Line})
	a.setPending(sym.FuncLeaveLabel)

	if returnsInt {
		tmp := a.newTemp()
		retSlot := ir.Operand{Kind: ir.KindIdent, Reg: sym.Reg, Size: 32}
		a.emit(ir.Sentence{Op: ir.Load, RVar: &retSlot, AVar: &ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}, Line: node.Line})
		a.emit(ir.Sentence{Op: ir.Return, Value: tmp, FuncType: "int", Line: node.Line})
	} else {
		a.emit(ir.Sentence{Op: ir.Return, FuncType: "void", Line: node.Line})
	}
	a.emit(ir.Sentence{Op: ir.FuncEnd, Line: node.Line})

	a.scopes.Pop()
	a.currentFunc = prevFunc
}
