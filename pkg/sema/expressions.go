package sema

import (
	"fmt"

	"minicc.dev/compiler/pkg/ast"
	"minicc.dev/compiler/pkg/diag"
	"minicc.dev/compiler/pkg/ir"
)

var arithOps = map[ast.Kind]ir.Op{
	ast.Plus: ir.Add, ast.Minus: ir.Minus, ast.Times: ir.Times,
	ast.Divide: ir.Divide, ast.Mod: ir.Mod,
}

var relOps = map[ast.Kind]ir.Op{
	ast.Eq: ir.Eq, ast.Neq: ir.Neq, ast.Lt: ir.Lt,
	ast.Leq: ir.Leq, ast.Gt: ir.Gt, ast.Geq: ir.Geq,
}

// lowerExpr lowers node and returns the operand descriptor for its
// value, plus false if a diagnostic was recorded and the expression
// could not be evaluated (callers should stop using the result).
func (a *Analyzer) lowerExpr(node *ast.Node) (ir.Operand, bool) {
	switch node.Kind {
	case ast.Num:
		return ir.Operand{Kind: ir.KindNum, Value: node.Value, Size: 32}, true
	case ast.Ident:
		return a.lowerIdentUse(node)
	case ast.Array:
		return a.lowerSubscriptUse(node)
	case ast.Func:
		return a.lowerCall(node)
	case ast.Assign:
		return a.lowerAssign(node)
	case ast.Plus, ast.Minus, ast.Times, ast.Divide, ast.Mod:
		return a.lowerArith(node)
	case ast.Eq, ast.Neq, ast.Lt, ast.Leq, ast.Gt, ast.Geq:
		return a.lowerRelational(node)
	case ast.LogicAnd:
		return a.lowerLogicAnd(node)
	case ast.LogicOr:
		return a.lowerLogicOr(node)
	case ast.Not:
		return a.lowerNot(node)
	case ast.Negative:
		return a.lowerNegative(node)
	case ast.UnaryLeft:
		return a.lowerPreIncDec(node)
	case ast.UnaryRight:
		return a.lowerPostIncDec(node)
	default:
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "unsupported expression kind %s", node.Kind)
		return ir.Operand{}, false
	}
}

// lowerLValue lowers node into an assignable storage descriptor,
// without reading through it.
func (a *Analyzer) lowerLValue(node *ast.Node) (ir.Operand, bool) {
	switch node.Kind {
	case ast.Ident:
		sym, ok := a.scopes.Resolve(node.Value)
		if !ok {
			a.Diags.Errorf(diag.StageAnalyze, node.Line, "Undefined variable %s", node.Value)
			return ir.Operand{}, false
		}
		if sym.Kind == KindIntArray {
			a.Diags.Errorf(diag.StageAnalyze, node.Line, "lvalue required: %s is an array", node.Value)
			return ir.Operand{}, false
		}
		return ir.Operand{Kind: ir.KindIdent, Reg: sym.Reg, Size: 32}, true
	case ast.Array:
		return a.lowerSubscriptDescriptor(node)
	default:
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "lvalue required")
		return ir.Operand{}, false
	}
}

func (a *Analyzer) lowerIdentUse(node *ast.Node) (ir.Operand, bool) {
	sym, ok := a.scopes.Resolve(node.Value)
	if !ok {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "Undefined variable %s", node.Value)
		return ir.Operand{}, false
	}
	if sym.Kind == KindIntArray {
		// an array used as a bare rvalue decays to a pointer, no load
		return ir.Operand{Kind: ir.KindIdent, Reg: sym.Reg, Size: 32, DeclaredExtents: sym.Dimension}, true
	}
	tmp := a.newTemp()
	slot := ir.Operand{Kind: ir.KindIdent, Reg: sym.Reg, Size: 32}
	a.emit(ir.Sentence{Op: ir.Load, RVar: &slot, AVar: &ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}, Line: node.Line})
	return ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}, true
}

func literalInt(n *ast.Node) (int, bool) {
	if n.Kind != ast.Num {
		return 0, false
	}
	var v int
	if _, err := fmt.Sscanf(n.Value, "%d", &v); err != nil {
		return 0, false
	}
	return v, true
}

func (a *Analyzer) lowerSubscriptDescriptor(node *ast.Node) (ir.Operand, bool) {
	sym, ok := a.scopes.Resolve(node.Value)
	if !ok {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "Undefined variable %s", node.Value)
		return ir.Operand{}, false
	}
	if sym.Kind != KindIntArray {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "Subscripting a non-array: %s", node.Value)
		return ir.Operand{}, false
	}
	if len(node.List) != len(sym.Dimension) {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "Dimension-count mismatch for %s: expected %d, got %d", node.Value, len(sym.Dimension), len(node.List))
		return ir.Operand{}, false
	}

	indices := make([]ir.Operand, 0, len(node.List))
	for i, idxNode := range node.List {
		idx, ok := a.lowerExprTo32(idxNode)
		if !ok {
			return ir.Operand{}, false
		}
		if v, isConst := literalInt(idxNode); isConst && sym.Dimension[i] != nil {
			if v < 0 || v >= *sym.Dimension[i] {
				a.Diags.Errorf(diag.StageAnalyze, node.Line, "Constant index out of declared bound for %s", node.Value)
			}
		}
		indices = append(indices, idx)
	}

	return ir.Operand{Kind: ir.KindIdent, Reg: sym.Reg, Size: 32, Indices: indices, DeclaredExtents: sym.Dimension}, true
}

func (a *Analyzer) lowerSubscriptUse(node *ast.Node) (ir.Operand, bool) {
	descriptor, ok := a.lowerSubscriptDescriptor(node)
	if !ok {
		return ir.Operand{}, false
	}
	tmp := a.newTemp()
	a.emit(ir.Sentence{Op: ir.Load, RVar: &descriptor, AVar: &ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}, Line: node.Line})
	return ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}, true
}

// lowerCall resolves the callee by the overload key of its evaluated
// argument descriptors (name, arity, per-argument size+dimensionality),
// per spec.md §4.3's overload-resolution rule.
func (a *Analyzer) lowerCall(node *ast.Node) (ir.Operand, bool) {
	args := make([]ir.Operand, 0, len(node.List))
	for _, argNode := range node.List {
		arg, ok := a.lowerExpr(argNode)
		if !ok {
			return ir.Operand{}, false
		}
		args = append(args, arg)
	}

	overloads, found := a.funcs.Get(node.Value)
	if !found {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "Undefined function %s", node.Value)
		return ir.Operand{}, false
	}

	shape := make([]Symbol, len(args))
	for i, arg := range args {
		if arg.IsArray() {
			shape[i] = Symbol{Kind: KindIntArray, Dimension: arg.DeclaredExtents}
		} else {
			shape[i] = Symbol{Kind: KindIntVar}
		}
	}
	candidate := Symbol{Name: node.Value, FuncParams: shape}

	var match *Symbol
	matches := 0
	for _, e := range overloads {
		key := e.Key()
		key.Name = node.Value // compare against the source name, not the mangled one
		if key == candidate.Key() {
			match = e
			matches++
		}
	}
	if matches != 1 {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "no matching overload for %s/%d", node.Value, len(args))
		return ir.Operand{}, false
	}

	call := ir.Sentence{Op: ir.Call, Value: match.Name, Args: args, Line: node.Line}
	if match.ReturnsInt {
		tmp := a.newTemp()
		call.FuncType = "int"
		call.AVar = &ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}
		a.emit(call)
		return ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}, true
	}
	call.FuncType = "void"
	a.emit(call)
	return ir.Operand{Kind: ir.KindVoid}, true
}

func (a *Analyzer) lowerAssign(node *ast.Node) (ir.Operand, bool) {
	lhs, ok := a.lowerLValue(node.Kid("lhs"))
	if !ok {
		return ir.Operand{}, false
	}
	rhs, ok := a.lowerExprTo32(node.Kid("rhs"))
	if !ok {
		return ir.Operand{}, false
	}
	a.emit(ir.Sentence{Op: ir.Assign, RVar: &rhs, AVar: &lhs, Line: node.Line})
	return lhs, true
}

func (a *Analyzer) lowerArith(node *ast.Node) (ir.Operand, bool) {
	l, ok := a.lowerExprTo32(node.Kid("lhs"))
	if !ok {
		return ir.Operand{}, false
	}
	r, ok := a.lowerExprTo32(node.Kid("rhs"))
	if !ok {
		return ir.Operand{}, false
	}
	tmp := a.newTemp()
	dst := ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}
	a.emit(ir.Sentence{Op: arithOps[node.Kind], LVar: &l, RVar: &r, AVar: &dst, Line: node.Line})
	return dst, true
}

func (a *Analyzer) lowerRelational(node *ast.Node) (ir.Operand, bool) {
	l, ok := a.lowerExprTo32(node.Kid("lhs"))
	if !ok {
		return ir.Operand{}, false
	}
	r, ok := a.lowerExprTo32(node.Kid("rhs"))
	if !ok {
		return ir.Operand{}, false
	}
	tmp := a.newTemp()
	dst := ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 1}
	a.emit(ir.Sentence{Op: relOps[node.Kind], LVar: &l, RVar: &r, AVar: &dst, Line: node.Line})
	return dst, true
}

// lowerLogicAnd implements the short-circuit control-flow lowering of
// spec.md §4.3: a 1-bit slot, a conditional branch whose false edge
// jumps straight to the join label (no separate false block needed),
// and a final load of the slot at the join.
func (a *Analyzer) lowerLogicAnd(node *ast.Node) (ir.Operand, bool) {
	slot := a.newTemp()
	a.emit(ir.Sentence{Op: ir.DefineLocalVar, Reg: slot, Size: 1, Line: node.Line})
	slotOperand := ir.Operand{Kind: ir.KindIdent, Reg: slot, Size: 1}

	trueCont, join := a.newLabel(), a.newLabel()

	lhs, ok := a.lowerExprTo1Bit(node.Kid("lhs"))
	if !ok {
		return ir.Operand{}, false
	}
	a.emit(ir.Sentence{Op: ir.Assign, RVar: &lhs, AVar: &slotOperand, Line: node.Line})
	a.emit(ir.Sentence{Op: ir.IfJmp, RVar: &slotOperand, TrueLabel: trueCont, FalseLabel: join, Line: node.Line})

	a.setPending(trueCont)
	rhs, ok := a.lowerExprTo1Bit(node.Kid("rhs"))
	if !ok {
		return ir.Operand{}, false
	}
	a.emit(ir.Sentence{Op: ir.Assign, RVar: &rhs, AVar: &slotOperand, Line: node.Line})

	a.setPending(join)
	tmp := a.newTemp()
	a.emit(ir.Sentence{Op: ir.Load, RVar: &slotOperand, AVar: &ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 1}, Line: node.Line})
	return ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 1}, true
}

// lowerLogicOr is the symmetric short-circuit lowering: the true edge
// jumps straight to join, the false edge continues to evaluate rhs.
func (a *Analyzer) lowerLogicOr(node *ast.Node) (ir.Operand, bool) {
	slot := a.newTemp()
	a.emit(ir.Sentence{Op: ir.DefineLocalVar, Reg: slot, Size: 1, Line: node.Line})
	slotOperand := ir.Operand{Kind: ir.KindIdent, Reg: slot, Size: 1}

	falseCont, join := a.newLabel(), a.newLabel()

	lhs, ok := a.lowerExprTo1Bit(node.Kid("lhs"))
	if !ok {
		return ir.Operand{}, false
	}
	a.emit(ir.Sentence{Op: ir.Assign, RVar: &lhs, AVar: &slotOperand, Line: node.Line})
	a.emit(ir.Sentence{Op: ir.IfJmp, RVar: &slotOperand, TrueLabel: join, FalseLabel: falseCont, Line: node.Line})

	a.setPending(falseCont)
	rhs, ok := a.lowerExprTo1Bit(node.Kid("rhs"))
	if !ok {
		return ir.Operand{}, false
	}
	a.emit(ir.Sentence{Op: ir.Assign, RVar: &rhs, AVar: &slotOperand, Line: node.Line})

	a.setPending(join)
	tmp := a.newTemp()
	a.emit(ir.Sentence{Op: ir.Load, RVar: &slotOperand, AVar: &ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 1}, Line: node.Line})
	return ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 1}, true
}

func (a *Analyzer) lowerNot(node *ast.Node) (ir.Operand, bool) {
	arg, ok := a.lowerExprTo32(node.Kid("target"))
	if !ok {
		return ir.Operand{}, false
	}
	zero := ir.Operand{Kind: ir.KindNum, Value: "0", Size: 32}
	cmp := a.newTemp()
	a.emit(ir.Sentence{Op: ir.Neq, LVar: &arg, RVar: &zero, AVar: &ir.Operand{Kind: ir.KindTmp, Reg: cmp, Size: 1}, Line: node.Line})

	one := ir.Operand{Kind: ir.KindNum, Value: "1", Size: 1}
	cmpOperand := ir.Operand{Kind: ir.KindTmp, Reg: cmp, Size: 1}
	out := a.newTemp()
	a.emit(ir.Sentence{Op: ir.Xor, LVar: &cmpOperand, RVar: &one, AVar: &ir.Operand{Kind: ir.KindTmp, Reg: out, Size: 1}, Line: node.Line})
	return ir.Operand{Kind: ir.KindTmp, Reg: out, Size: 1}, true
}

func (a *Analyzer) lowerNegative(node *ast.Node) (ir.Operand, bool) {
	arg, ok := a.lowerExprTo32(node.Kid("target"))
	if !ok {
		return ir.Operand{}, false
	}
	zero := ir.Operand{Kind: ir.KindNum, Value: "0", Size: 32}
	tmp := a.newTemp()
	a.emit(ir.Sentence{Op: ir.Minus, LVar: &zero, RVar: &arg, AVar: &ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}, Line: node.Line})
	return ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}, true
}

func (a *Analyzer) lowerPreIncDec(node *ast.Node) (ir.Operand, bool) {
	slot, ok := a.lowerLValue(node.Kid("target"))
	if !ok {
		return ir.Operand{}, false
	}
	tOld := a.newTemp()
	a.emit(ir.Sentence{Op: ir.Load, RVar: &slot, AVar: &ir.Operand{Kind: ir.KindTmp, Reg: tOld, Size: 32}, Line: node.Line})
	oldOperand := ir.Operand{Kind: ir.KindTmp, Reg: tOld, Size: 32}

	one := ir.Operand{Kind: ir.KindNum, Value: "1", Size: 32}
	op := ir.Add
	if node.Value == "--" {
		op = ir.Minus
	}
	tNew := a.newTemp()
	newOperand := ir.Operand{Kind: ir.KindTmp, Reg: tNew, Size: 32}
	a.emit(ir.Sentence{Op: op, LVar: &oldOperand, RVar: &one, AVar: &newOperand, Line: node.Line})
	a.emit(ir.Sentence{Op: ir.Assign, RVar: &newOperand, AVar: &slot, Line: node.Line})
	return newOperand, true
}

func (a *Analyzer) lowerPostIncDec(node *ast.Node) (ir.Operand, bool) {
	slot, ok := a.lowerLValue(node.Kid("target"))
	if !ok {
		return ir.Operand{}, false
	}
	tOld := a.newTemp()
	oldOperand := ir.Operand{Kind: ir.KindTmp, Reg: tOld, Size: 32}
	a.emit(ir.Sentence{Op: ir.Load, RVar: &slot, AVar: &oldOperand, Line: node.Line})

	one := ir.Operand{Kind: ir.KindNum, Value: "1", Size: 32}
	op := ir.Add
	if node.Value == "--" {
		op = ir.Minus
	}
	tNew := a.newTemp()
	newOperand := ir.Operand{Kind: ir.KindTmp, Reg: tNew, Size: 32}
	a.emit(ir.Sentence{Op: op, LVar: &oldOperand, RVar: &one, AVar: &newOperand, Line: node.Line})
	a.emit(ir.Sentence{Op: ir.Assign, RVar: &newOperand, AVar: &slot, Line: node.Line})
	return oldOperand, true
}

// lowerExprTo32 lowers node and width-coerces a 1-bit result to 32-bit
// via Zext, per the universal width-coercion invariant.
func (a *Analyzer) lowerExprTo32(node *ast.Node) (ir.Operand, bool) {
	operand, ok := a.lowerExpr(node)
	if !ok {
		return ir.Operand{}, false
	}
	if operand.Size == 32 {
		return operand, true
	}
	tmp := a.newTemp()
	dst := ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 32}
	a.emit(ir.Sentence{Op: ir.Zext, RVar: &operand, AVar: &dst, Line: node.Line})
	return dst, true
}

// lowerExprTo1Bit lowers node and width-coerces a 32-bit result to
// 1-bit via "NEQ 0", per the universal width-coercion invariant.
func (a *Analyzer) lowerExprTo1Bit(node *ast.Node) (ir.Operand, bool) {
	operand, ok := a.lowerExpr(node)
	if !ok {
		return ir.Operand{}, false
	}
	if operand.Size == 1 {
		return operand, true
	}
	zero := ir.Operand{Kind: ir.KindNum, Value: "0", Size: 32}
	tmp := a.newTemp()
	dst := ir.Operand{Kind: ir.KindTmp, Reg: tmp, Size: 1}
	a.emit(ir.Sentence{Op: ir.Neq, LVar: &operand, RVar: &zero, AVar: &dst, Line: node.Line})
	return dst, true
}
