package sema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minicc.dev/compiler/pkg/ast"
	"minicc.dev/compiler/pkg/ir"
	"minicc.dev/compiler/pkg/parser"
	"minicc.dev/compiler/pkg/sema"
)

func analyze(t *testing.T, src string) (ir.Program, *sema.Analyzer) {
	t.Helper()
	p, err := parser.NewParser(strings.NewReader(src))
	require.NoError(t, err)
	root, err := p.Parse()
	require.NoError(t, err)

	a := sema.NewAnalyzer()
	prog, err := a.Analyze(root)
	require.NoError(t, err)
	return prog, a
}

func opsOf(prog ir.Program) []ir.Op {
	ops := make([]ir.Op, len(prog))
	for i, s := range prog {
		ops[i] = s.Op
	}
	return ops
}

func TestAnalyze_GlobalVarAndArray(t *testing.T) {
	prog, a := analyze(t, `int a; int b[4];`)
	require.False(t, a.Diags.HasErrors())
	require.Len(t, prog, 2)
	assert.Equal(t, ir.DefineGlobalVar, prog[0].Op)
	assert.Equal(t, "@a", prog[0].Reg)
	assert.Equal(t, ir.DefineGlobalArray, prog[1].Op)
	assert.Equal(t, "@b", prog[1].Reg)
	require.Len(t, prog[1].DeclaredExtents, 1)
	assert.Equal(t, 4, *prog[1].DeclaredExtents[0])
}

func TestAnalyze_GlobalRedefinitionIsAnError(t *testing.T) {
	_, a := analyze(t, `int a; int a;`)
	assert.True(t, a.Diags.HasErrors())
}

func TestAnalyze_FunctionPrologueCopiesParamsIn(t *testing.T) {
	prog, a := analyze(t, `int add(int x, int y) { return x + y; }`)
	require.False(t, a.Diags.HasErrors())

	require.True(t, len(prog) > 0)
	assert.Equal(t, ir.DefineFunc, prog[0].Op)
	assert.Equal(t, "add", prog[0].Value)
	assert.Equal(t, "int", prog[0].FuncType)
	require.Len(t, prog[0].Params, 2)

	// Each parameter gets a local slot immediately defined then assigned
	// from the incoming register.
	assert.Equal(t, ir.DefineLocalVar, prog[1].Op)
	assert.Equal(t, ir.Assign, prog[2].Op)
	assert.Equal(t, ir.DefineLocalVar, prog[3].Op)
	assert.Equal(t, ir.Assign, prog[4].Op)

	last := prog[len(prog)-1]
	assert.Equal(t, ir.FuncEnd, last.Op)
}

func TestAnalyze_VoidFunctionReturnsVoid(t *testing.T) {
	prog, a := analyze(t, `void noop() { return; }`)
	require.False(t, a.Diags.HasErrors())

	var sawVoidReturn bool
	for _, s := range prog {
		if s.Op == ir.Return && s.FuncType == "void" {
			sawVoidReturn = true
		}
	}
	assert.True(t, sawVoidReturn)
}

func TestAnalyze_ReturnValueInVoidFunctionIsAnError(t *testing.T) {
	_, a := analyze(t, `void f() { return 1; }`)
	assert.True(t, a.Diags.HasErrors())
}

func TestAnalyze_UndefinedVariableIsAnError(t *testing.T) {
	_, a := analyze(t, `void f() { x = 1; }`)
	assert.True(t, a.Diags.HasErrors())
}

func TestAnalyze_OverloadResolutionBySignature(t *testing.T) {
	_, a := analyze(t, `
		int f(int a) { return a; }
		int f(int a, int b) { return a + b; }
		void g() { f(1); f(1, 2); }
	`)
	assert.False(t, a.Diags.HasErrors())
}

func TestAnalyze_AmbiguousOverloadRedefinitionIsAnError(t *testing.T) {
	_, a := analyze(t, `
		int f(int a) { return a; }
		int f(int a) { return a; }
	`)
	assert.True(t, a.Diags.HasErrors())
}

func TestAnalyze_BreakOutsideLoopIsAnError(t *testing.T) {
	_, a := analyze(t, `void f() { break; }`)
	assert.True(t, a.Diags.HasErrors())
}

func TestAnalyze_WhileLowersConditionAndBackEdge(t *testing.T) {
	prog, a := analyze(t, `void f() { int i; while (i) { i = i - 1; } }`)
	require.False(t, a.Diags.HasErrors())

	var sawIfJmp, sawBackJmp bool
	for _, s := range prog {
		if s.Op == ir.IfJmp {
			sawIfJmp = true
		}
		if s.Op == ir.Jmp {
			sawBackJmp = true
		}
	}
	assert.True(t, sawIfJmp)
	assert.True(t, sawBackJmp)
}

func TestAnalyze_ArraySubscriptOutOfBoundsConstantIndex(t *testing.T) {
	_, a := analyze(t, `void f() { int a[3]; int x; x = a[5]; }`)
	assert.True(t, a.Diags.HasErrors())
}

func TestAnalyze_ArrayParameterUnknownOuterSize(t *testing.T) {
	prog, a := analyze(t, `void fill(int a[]) { a[0] = 1; }`)
	require.False(t, a.Diags.HasErrors())

	var found bool
	for _, s := range prog {
		if s.Op == ir.DefineLocalArray {
			require.Len(t, s.DeclaredExtents, 1)
			assert.Nil(t, s.DeclaredExtents[0])
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyze_LogicAndShortCircuits(t *testing.T) {
	prog, _ := analyze(t, `int f() { int a; int b; return a && b; }`)

	var sawSlot, sawIfJmp bool
	for _, s := range prog {
		if s.Op == ir.DefineLocalVar && s.Size == 1 {
			sawSlot = true
		}
		if s.Op == ir.IfJmp {
			sawIfJmp = true
		}
	}
	assert.True(t, sawSlot, "expected a 1-bit local slot for the && result")
	assert.True(t, sawIfJmp, "expected a conditional branch for short-circuit evaluation")
}

func TestAnalyze_NotLowersToNeqThenXor(t *testing.T) {
	prog, a := analyze(t, `int f() { int a; return !a; }`)
	require.False(t, a.Diags.HasErrors())

	var sawNeq, sawXor bool
	for _, s := range prog {
		if s.Op == ir.Neq {
			sawNeq = true
		}
		if s.Op == ir.Xor {
			sawXor = true
		}
	}
	assert.True(t, sawNeq)
	assert.True(t, sawXor)
}

func TestAnalyze_PreIncrementLoadsAddsAndStores(t *testing.T) {
	prog, a := analyze(t, `void f() { int a; ++a; }`)
	require.False(t, a.Diags.HasErrors())

	var sawLoad, sawAdd, sawAssign bool
	for _, s := range prog {
		switch s.Op {
		case ir.Load:
			sawLoad = true
		case ir.Add:
			sawAdd = true
		case ir.Assign:
			sawAssign = true
		}
	}
	assert.True(t, sawLoad)
	assert.True(t, sawAdd)
	assert.True(t, sawAssign)
}

func TestAnalyze_SwitchIsNotImplemented(t *testing.T) {
	_, a := analyze(t, `void f() { switch (1) { case 1: break; } }`)
	assert.True(t, a.Diags.HasErrors())
}

func TestAnalyze_RejectsNonRootNode(t *testing.T) {
	a := sema.NewAnalyzer()
	_, err := a.Analyze(ast.New(ast.Num, "1", 1))
	assert.Error(t, err)
}

func TestAnalyze_StdlibCallsResolve(t *testing.T) {
	_, a := analyze(t, `
		int main() {
			int a[10];
			putint(getint());
			getarray(a);
			return 0;
		}
	`)
	assert.False(t, a.Diags.HasErrors())
}
