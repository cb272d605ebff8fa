package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOp_IsTerminator(t *testing.T) {
	terminators := []Op{Jmp, IfJmp, Return, FuncEnd}
	for _, op := range terminators {
		assert.True(t, op.IsTerminator(), "%s should be a terminator", op)
	}

	nonTerminators := []Op{Assign, Add, Call, Load, Phi, DefineLocalVar}
	for _, op := range nonTerminators {
		assert.False(t, op.IsTerminator(), "%s should not be a terminator", op)
	}
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "Add", Add.String())
	assert.Equal(t, "Phi", Phi.String())
	assert.Contains(t, Op(999).String(), "Op(999)")
}

func TestOperand_IsArray(t *testing.T) {
	scalar := Operand{Kind: KindIdent, Reg: "%a", Size: 32}
	assert.False(t, scalar.IsArray())

	size := 4
	array := Operand{Kind: KindIdent, Reg: "%b", Size: 32, DeclaredExtents: []*int{&size}}
	assert.True(t, array.IsArray())

	param := Operand{Kind: KindIdent, Reg: "%c", Size: 32, DeclaredExtents: []*int{nil}}
	assert.True(t, param.IsArray())
}
