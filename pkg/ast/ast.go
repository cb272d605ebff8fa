// Package ast defines the miniC abstract syntax tree.
//
// Nodes are a single tagged record rather than one Go struct per
// production. The original source's yacc.py builds every node as
// Node(node_type, lineno, value, info) with a per-kind shaped info
// dict; this package keeps that generic shape instead of inventing a
// closed family of per-kind Go structs, since the per-kind "children"
// shape is itself part of the data model, not an implementation detail.
package ast

import "fmt"

// Kind is the closed enumeration of node kinds.
type Kind int

const (
	Root Kind = iota
	Num
	Int
	Void
	IntVar
	IntArray
	IntFunc
	VoidFunc
	Func // call
	Array
	Ident
	Block
	If
	Else
	While
	Break
	Continue
	Return
	Assign
	Plus
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
	LogicAnd
	LogicOr
	Not
	Negative
	SelfPlus
	SelfMinus
	UnaryLeft
	UnaryRight
	Switch
	Case
)

var kindNames = [...]string{
	"Root", "Num", "Int", "Void", "IntVar", "IntArray", "IntFunc", "VoidFunc",
	"Func", "Array", "Ident", "Block", "If", "Else", "While", "Break",
	"Continue", "Return", "Assign", "Plus", "Minus", "Times", "Divide", "Mod",
	"Eq", "Neq", "Lt", "Leq", "Gt", "Geq", "LogicAnd", "LogicOr", "Not",
	"Negative", "SelfPlus", "SelfMinus", "UnaryLeft", "UnaryRight", "Switch", "Case",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is the single tagged-record AST node. Kids holds named children
// (e.g. If holds "condition", "statement", "elsestat"); List holds
// ordered, unnamed children (e.g. a Block's statements, or one entry
// per dimension of an Array). Nodes are immutable once built.
type Node struct {
	Kind  Kind
	Value string // literal text, identifier name, or operator mnemonic
	Line  int
	Kids  map[string]*Node
	List  []*Node
}

// New creates a leaf-shaped node; callers attach Kids/List afterwards.
func New(kind Kind, value string, line int) *Node {
	return &Node{Kind: kind, Value: value, Line: line}
}

// Kid returns the named child, or nil if absent. Safe on a nil Node.
func (n *Node) Kid(name string) *Node {
	if n == nil || n.Kids == nil {
		return nil
	}
	return n.Kids[name]
}

// SetKid attaches a named child, allocating Kids lazily.
func (n *Node) SetKid(name string, child *Node) *Node {
	if n.Kids == nil {
		n.Kids = map[string]*Node{}
	}
	n.Kids[name] = child
	return n
}

// AppendList appends to the node's unnamed children list.
func (n *Node) AppendList(child *Node) *Node {
	n.List = append(n.List, child)
	return n
}
