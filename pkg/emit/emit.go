// Package emit renders an ir.Program as textual LLVM IR. It mirrors the
// teacher's pkg/vm.CodeGenerator shape (a struct wrapping the program, a
// Generate dispatcher, one Generate<category> method per sentence group)
// and is grounded line-for-line, where the two languages' textual IR
// agree, on original_source/utils/ir.py's IRGenerator/LLVM classes.
package emit

import (
	"fmt"
	"regexp"
	"strings"

	"minicc.dev/compiler/pkg/ir"
)

// Emitter renders a Program to LLVM IR text. Array-chain intermediate
// registers use a "%g<n>" counter private to this package — distinct
// from the Analyzer's "%t<n>" temps — so the two numbering schemes never
// collide and the emitted names stay stable across runs (no
// randomly-seeded suffixes, unlike the original's md5(random()) scheme).
type Emitter struct {
	prog   ir.Program
	out    []string
	tab    int
	gcount int

	usedLabels map[string]bool

	// PruneUnusedLabels drops label lines no Jmp/IfJmp target ever
	// names. Off by default per this repo's conservative-diff policy;
	// set true for a slightly terser module.
	PruneUnusedLabels bool
}

func NewEmitter(prog ir.Program) *Emitter {
	return &Emitter{prog: prog, usedLabels: map[string]bool{}}
}

func (e *Emitter) newArrayTemp() string {
	e.gcount++
	return fmt.Sprintf("%%g%d", e.gcount)
}

func (e *Emitter) line(s string) {
	e.out = append(e.out, strings.Repeat("\t", e.tab)+s)
}

func (e *Emitter) lineRaw(s string) { e.out = append(e.out, s) }

// operandText renders the value side of an Operand: a literal for
// KindNum, a register name otherwise.
func operandText(op *ir.Operand) string {
	if op == nil {
		return ""
	}
	if op.Kind == ir.KindNum {
		return op.Value
	}
	return op.Reg
}

// Emit renders the full module: embedded prelude, one line per
// sentence (with label lines interleaved), embedded epilogue.
func (e *Emitter) Emit() ([]string, error) {
	e.out = nil
	e.lineRaw(Prelude)

	for _, s := range e.prog {
		if s.Label != "" {
			e.lineRaw(s.Label + ":")
		}
		if err := e.emitSentence(s); err != nil {
			return nil, err
		}
	}

	e.lineRaw(Epilogue)

	if e.PruneUnusedLabels {
		e.pruneLabels()
	}
	return e.out, nil
}

var labelLinePattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*):$`)

func (e *Emitter) pruneLabels() {
	kept := e.out[:0:0]
	for _, l := range e.out {
		if m := labelLinePattern.FindStringSubmatch(l); m != nil && !e.usedLabels[m[1]] {
			continue
		}
		kept = append(kept, l)
	}
	e.out = kept
}

func (e *Emitter) emitSentence(s ir.Sentence) error {
	switch s.Op {
	case ir.DefineGlobalVar, ir.DefineGlobalArray:
		e.emitGlobalDef(s)
	case ir.DefineLocalVar, ir.DefineLocalArray:
		e.emitLocalDef(s)
	case ir.Assign, ir.Add, ir.Minus, ir.Times, ir.Divide, ir.Mod, ir.Xor:
		e.emitBinaryOrAssign(s)
	case ir.Eq, ir.Neq, ir.Lt, ir.Leq, ir.Gt, ir.Geq:
		e.emitComparison(s)
	case ir.Jmp, ir.IfJmp:
		e.emitJump(s)
	case ir.DefineFunc, ir.FuncEnd:
		e.emitFuncBoundary(s)
	case ir.Call:
		e.emitCall(s)
	case ir.Return:
		e.emitReturn(s)
	case ir.Zext:
		e.emitZext(s)
	case ir.Load:
		e.emitLoad(s)
	case ir.Phi:
		e.emitPhi(s)
	default:
		return fmt.Errorf("emit: unsupported sentence op %s", s.Op)
	}
	return nil
}

func (e *Emitter) emitGlobalDef(s ir.Sentence) {
	isArray := s.Op == ir.DefineGlobalArray
	ty := llvmType(s.Size, s.DeclaredExtents)
	e.line(setRes(s.Reg, instGlobalVar(ty, isArray)))
}

func (e *Emitter) emitLocalDef(s ir.Sentence) {
	isArray := s.Op == ir.DefineLocalArray
	ty := llvmType(s.Size, s.DeclaredExtents)
	align := 4
	if isArray {
		align = 16
	}
	e.line(setRes(s.Reg, instAlloca(ty, align)))
}

// addressOf resolves an lvalue/storage Operand to a concrete pointer
// register, lowering any array-element access into a GEP chain first.
func (e *Emitter) addressOf(op *ir.Operand) string {
	if op == nil {
		return ""
	}
	if len(op.Indices) > 0 {
		ptr, _ := e.lowerArrayPointer(*op)
		return ptr
	}
	return op.Reg
}

func (e *Emitter) emitBinaryOrAssign(s ir.Sentence) {
	rReg, rTy := e.rvalueText(s.RVar)
	dst := e.addressOf(s.AVar)

	if s.Op == ir.Assign {
		e.line(instStore(rTy, rReg, dst))
		return
	}

	lReg, lTy := e.rvalueText(s.LVar)
	var inst string
	switch s.Op {
	case ir.Add:
		inst = instAdd(lTy, lReg, rReg)
	case ir.Minus:
		inst = instSub(lTy, lReg, rReg)
	case ir.Times:
		inst = instMul(lTy, lReg, rReg)
	case ir.Divide:
		inst = instSDiv(lTy, lReg, rReg)
	case ir.Mod:
		inst = instSRem(lTy, lReg, rReg)
	case ir.Xor:
		inst = instXor(lTy, lReg, rReg)
	}
	e.line(setRes(dst, inst))
}

// rvalueText renders the value+type of an operand that appears on a
// sentence's right-hand side. Array-element reads reach sentences only
// through an explicit Load (see emitLoad); this fallback exists so a
// stray array-descriptor operand elsewhere still lowers correctly
// instead of emitting a bare pointer where a scalar is expected.
func (e *Emitter) rvalueText(op *ir.Operand) (string, string) {
	if op == nil {
		return "", ""
	}
	if len(op.Indices) > 0 {
		ptr, size := e.lowerArrayPointer(*op)
		ty := llvmType(size, nil)
		tmp := e.newArrayTemp()
		e.line(setRes(tmp, instLoad(ty, ptr)))
		return tmp, ty
	}
	if op.IsArray() {
		return e.decayArray(*op)
	}
	return operandText(op), llvmType(op.Size, op.DeclaredExtents)
}

func (e *Emitter) emitComparison(s ir.Sentence) {
	lReg, lTy := e.rvalueText(s.LVar)
	rReg, _ := e.rvalueText(s.RVar)
	dst := e.addressOf(s.AVar)

	cond := map[ir.Op]string{
		ir.Eq: "eq", ir.Neq: "ne", ir.Lt: "slt", ir.Leq: "sle", ir.Gt: "sgt", ir.Geq: "sge",
	}[s.Op]
	e.line(setRes(dst, instICmp(cond, lTy, lReg, rReg)))
}

func (e *Emitter) emitJump(s ir.Sentence) {
	if s.Op == ir.Jmp {
		e.usedLabels[s.Value] = true
		e.line(instBrUncond(s.Value))
		return
	}
	cond, _ := e.rvalueText(s.RVar)
	e.usedLabels[s.TrueLabel] = true
	e.usedLabels[s.FalseLabel] = true
	e.line(instBrCond(cond, s.TrueLabel, s.FalseLabel))
}

func (e *Emitter) emitFuncBoundary(s ir.Sentence) {
	if s.Op == ir.FuncEnd {
		e.tab--
		e.lineRaw("}")
		e.lineRaw("")
		return
	}
	retTy := "void"
	if s.FuncType == "int" {
		retTy = "i32"
	}
	args := make([]argument, len(s.Params))
	for i, p := range s.Params {
		args[i] = argument{typ: llvmType(p.Size, p.DeclaredExtents), value: p.Reg}
	}
	e.lineRaw(instFuncHeader(s.Value, retTy, args))
	e.tab++
}

func (e *Emitter) emitCall(s ir.Sentence) {
	retTy := "void"
	if s.FuncType == "int" {
		retTy = "i32"
	}
	args := make([]argument, len(s.Args))
	for i := range s.Args {
		reg, ty := e.rvalueText(&s.Args[i])
		args[i] = argument{typ: ty, value: reg}
	}
	inst := instCall(retTy, s.Value, args)
	if s.AVar != nil {
		e.line(setRes(s.AVar.Reg, inst))
		return
	}
	e.line(inst)
}

func (e *Emitter) emitReturn(s ir.Sentence) {
	if s.FuncType != "int" || s.Value == "" {
		e.line(instRetVoid())
		return
	}
	e.line(instRet("i32", s.Value))
}

func (e *Emitter) emitZext(s ir.Sentence) {
	srcReg, srcTy := e.rvalueText(s.RVar)
	dstTy := llvmType(s.AVar.Size, nil)
	e.line(setRes(s.AVar.Reg, instZext(srcTy, srcReg, dstTy)))
}

func (e *Emitter) emitLoad(s ir.Sentence) {
	// Load from a descriptor with Indices is an array-element read: the
	// GEP chain computes the element pointer, then a single load binds
	// it to this sentence's own destination register. A plain Ident is
	// a scalar load straight from a storage slot.
	if len(s.RVar.Indices) > 0 {
		ptr, size := e.lowerArrayPointer(*s.RVar)
		e.line(setRes(s.AVar.Reg, instLoad(llvmType(size, nil), ptr)))
		return
	}
	ty := llvmType(s.RVar.Size, s.RVar.DeclaredExtents)
	e.line(setRes(s.AVar.Reg, instLoad(ty, s.RVar.Reg)))
}

func (e *Emitter) emitPhi(s ir.Sentence) {
	ty := llvmType(s.AVar.Size, nil)
	flags := make([]phiFlagText, len(s.PhiFlags))
	for i, f := range s.PhiFlags {
		flags[i] = phiFlagText{value: f.Value, label: f.Label}
	}
	e.line(setRes(s.AVar.Reg, instPhi(ty, flags)))
}
