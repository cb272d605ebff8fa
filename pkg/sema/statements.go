package sema

import (
	"minicc.dev/compiler/pkg/ast"
	"minicc.dev/compiler/pkg/diag"
	"minicc.dev/compiler/pkg/ir"
)

func (a *Analyzer) lowerBlock(node *ast.Node, pushScope bool) {
	if pushScope {
		a.scopes.Push("block")
		defer a.scopes.Pop()
	}
	for _, stmt := range node.List {
		a.lowerStatement(stmt)
	}
}

func (a *Analyzer) lowerStatement(node *ast.Node) {
	switch node.Kind {
	case ast.Block:
		a.lowerBlock(node, true)
	case ast.IntVar, ast.IntArray:
		a.lowerLocalDecl(node)
	case ast.If:
		a.lowerIf(node)
	case ast.While:
		a.lowerWhile(node)
	case ast.Break:
		a.lowerBreak(node)
	case ast.Continue:
		a.lowerContinue(node)
	case ast.Return:
		a.lowerReturn(node)
	case ast.Switch:
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "switch/case is not implemented")
	default:
		// expression statement: side effects only, result discarded
		a.lowerExpr(node)
	}
}

func (a *Analyzer) lowerIf(node *ast.Node) {
	condEntry, thenLeave, falseEntry, join := a.newLabel(), a.newLabel(), a.newLabel(), a.newLabel()

	if !a.lastIsTerminator() || a.pendingLabel != "" {
		a.emit(ir.Sentence{Op: ir.Jmp, Value: condEntry, Line: node.Line})
	}
	a.setPending(condEntry)

	cond, ok := a.lowerExprTo1Bit(node.Kid("condition"))
	if !ok {
		return
	}
	a.emit(ir.Sentence{Op: ir.IfJmp, RVar: &cond, TrueLabel: thenLeave, FalseLabel: falseEntry, Line: node.Line})

	a.setPending(thenLeave)
	a.lowerStatement(node.Kid("statement"))
	a.emit(ir.Sentence{Op: ir.Jmp, Value: join, Line: node.Line})

	a.setPending(falseEntry)
	if elseStat := node.Kid("elsestat"); elseStat != nil {
		a.lowerStatement(elseStat)
	}
	a.emit(ir.Sentence{Op: ir.Jmp, Value: join, Line: node.Line})

	a.setPending(join)
}

func (a *Analyzer) lowerWhile(node *ast.Node) {
	condEntry, trueLabel, leave := a.newLabel(), a.newLabel(), a.newLabel()

	if !a.lastIsTerminator() || a.pendingLabel != "" {
		a.emit(ir.Sentence{Op: ir.Jmp, Value: condEntry, Line: node.Line})
	}
	a.setPending(condEntry)

	cond, ok := a.lowerExprTo1Bit(node.Kid("condition"))
	if !ok {
		return
	}
	a.emit(ir.Sentence{Op: ir.IfJmp, RVar: &cond, TrueLabel: trueLabel, FalseLabel: leave, Line: node.Line})

	a.loops.Push(loopLabels{condEntry: condEntry, leave: leave})
	a.setPending(trueLabel)
	a.lowerStatement(node.Kid("statement"))
	a.emit(ir.Sentence{Op: ir.Jmp, Value: condEntry, Line: node.Line})
	a.loops.Pop()

	a.setPending(leave)
}

func (a *Analyzer) lowerBreak(node *ast.Node) {
	top, err := a.loops.Top()
	if err != nil {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "break outside loop")
		return
	}
	a.emit(ir.Sentence{Op: ir.Jmp, Value: top.leave, Line: node.Line})
}

func (a *Analyzer) lowerContinue(node *ast.Node) {
	top, err := a.loops.Top()
	if err != nil {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "continue outside loop")
		return
	}
	a.emit(ir.Sentence{Op: ir.Jmp, Value: top.condEntry, Line: node.Line})
}

func (a *Analyzer) lowerReturn(node *ast.Node) {
	if a.currentFunc == nil {
		a.Diags.Errorf(diag.StageAnalyze, node.Line, "return outside a function")
		return
	}

	value := node.Kid("value")
	if !a.currentFunc.ReturnsInt {
		if value != nil {
			a.Diags.Errorf(diag.StageAnalyze, node.Line, "return value in void function")
			return
		}
		a.emit(ir.Sentence{Op: ir.Jmp, Value: a.currentFunc.FuncLeaveLabel, Line: node.Line})
		return
	}

	if value == nil {
		a.emit(ir.Sentence{Op: ir.Jmp, Value: a.currentFunc.FuncLeaveLabel, Line: node.Line})
		return
	}

	operand, ok := a.lowerExprTo32(value)
	if !ok {
		return
	}
	retSlot := ir.Operand{Kind: ir.KindIdent, Reg: a.currentFunc.Reg, Size: 32}
	a.emit(ir.Sentence{Op: ir.Assign, RVar: &operand, AVar: &retSlot, Line: node.Line})
	a.emit(ir.Sentence{Op: ir.Jmp, Value: a.currentFunc.FuncLeaveLabel, Line: node.Line})
}
