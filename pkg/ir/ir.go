// Package ir defines the language-neutral three-address sentence model
// shared by the Analyzer, the base-block builder and the Emitter.
//
// Every operation is one Sentence record: an Op tag plus optional
// operand roles, labels and storage fields; fields an Op does not use
// are left empty.
package ir

import "fmt"

// Op is the closed enumeration of sentence operations.
type Op int

const (
	DefineGlobalVar Op = iota
	DefineLocalVar
	DefineGlobalArray
	DefineLocalArray
	DefineFunc
	DeclareFunc
	FuncEnd
	Jmp
	IfJmp
	Assign
	Add
	Minus
	Times
	Divide
	Mod
	Eq
	Neq
	Lt
	Leq
	Gt
	Geq
	Not
	Zext
	Xor
	Call
	Return
	GetPtr
	Load
	Phi
)

var opNames = [...]string{
	"DefineGlobalVar", "DefineLocalVar", "DefineGlobalArray", "DefineLocalArray",
	"DefineFunc", "DeclareFunc", "FuncEnd", "Jmp", "IfJmp", "Assign", "Add",
	"Minus", "Times", "Divide", "Mod", "Eq", "Neq", "Lt", "Leq", "Gt", "Geq",
	"Not", "Zext", "Xor", "Call", "Return", "GetPtr", "Load", "Phi",
}

func (o Op) String() string {
	if int(o) >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// IsTerminator reports whether a sentence with this Op ends a basic block.
func (o Op) IsTerminator() bool {
	switch o {
	case Jmp, IfJmp, Return, FuncEnd:
		return true
	default:
		return false
	}
}

// OperandKind tags the variant carried by an Operand.
type OperandKind int

const (
	KindVoid OperandKind = iota
	KindNum
	KindIdent
	KindTmp
)

// Operand is the tagged descriptor of a sentence's value. Size is 1 or
// 32 bits. DeclaredExtents carries the declared dimension list for an
// array-typed operand (a leading nil entry means "unknown outer size",
// i.e. the array arrived as a pointer parameter). Indices, when
// non-empty, are the evaluated per-dimension index operands for an
// array-element access; the emitter turns them into a GEP chain.
type Operand struct {
	Kind  OperandKind
	Value string // literal text, for KindNum
	Reg   string // register/variable name, for KindIdent/KindTmp
	Size  int    // 1 or 32

	Indices         []Operand // evaluated index operands, array access only
	DeclaredExtents []*int    // declared dimension sizes; nil entry = unknown
}

// Void is the canonical void operand.
var Void = Operand{Kind: KindVoid}

// IsArray reports whether this operand denotes (a reference into) an array.
func (o Operand) IsArray() bool {
	return len(o.DeclaredExtents) > 0
}

// Sentence is one three-address IR record.
type Sentence struct {
	Op     Op
	Line   int
	Value  string // operator mnemonic or callee name, op-specific
	Label  string // optional: block-entry label for this sentence
	Reg    string // optional: destination register for Define* ops

	LVar, RVar, AVar *Operand // operand roles; nil when not applicable
	Args             []Operand
	TrueLabel        string
	FalseLabel       string
	FuncType         string // "int" or "void", for Call/DefineFunc
	Params           []Param
	PhiFlags         []PhiFlag

	// Size/DeclaredExtents describe the storage of Define{Global,Local}{Var,Array}
	// sentences: Size is 1 or 32, DeclaredExtents is non-empty for array ops.
	Size            int
	DeclaredExtents []*int
}

// Param is one formal parameter of a DefineFunc sentence.
type Param struct {
	Reg             string
	Size            int
	DeclaredExtents []*int
}

// PhiFlag is one (value, predecessor-label) pair of a Phi sentence.
type PhiFlag struct {
	Value string
	Label string
}

// Program is the ordered sentence list produced by the Analyzer.
type Program []Sentence
