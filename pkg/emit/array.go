package emit

import "minicc.dev/compiler/pkg/ir"

// lowerArrayPointer renders op's Indices into a chain of getelementptr
// instructions and returns the register holding the final element
// pointer, plus its element size. It never loads through that final
// pointer — callers decide whether the access is a read (load it) or a
// write (store through it).
//
// Grounded on original_source/utils/ir.py's __proc_array: a leading nil
// entry in DeclaredExtents means the array arrived as a pointer
// parameter, so the storage slot itself holds a pointer value that must
// be loaded before the first GEP step (using a "NoF" no-leading-index
// form, since that level is a plain pointer rather than an aggregate);
// every further dimension is a standard GEP step with an implicit
// leading "i32 0". Deterministic "%g<n>" counters replace the
// original's md5(random()) suffixes so the same program always emits
// byte-identical IR.
func (e *Emitter) lowerArrayPointer(op ir.Operand) (string, int) {
	dims := op.DeclaredExtents
	idxs := op.Indices
	size := op.Size
	ptr := op.Reg

	if len(dims) > 0 && dims[0] == nil {
		slotTy := llvmType(size, dims)
		loaded := e.newArrayTemp()
		e.line(setRes(loaded, instLoad(slotTy, ptr)))
		ptr = loaded

		remaining := dims[1:]
		elemTy := llvmType(size, remaining)
		idxVal := operandText(&idxs[0])

		next := e.newArrayTemp()
		e.line(setRes(next, instGEP(elemTy, elemTy+"*", ptr, "i32", idxVal, true)))
		ptr = next

		dims = remaining
		idxs = idxs[1:]
	}

	for len(idxs) > 0 {
		idxVal := operandText(&idxs[0])
		aggTy := llvmType(size, dims)

		next := e.newArrayTemp()
		e.line(setRes(next, instGEP(aggTy, aggTy+"*", ptr, "i32", idxVal, false)))
		ptr = next

		idxs = idxs[1:]
		if len(dims) > 1 {
			dims = dims[1:]
		}
	}

	return ptr, size
}

// decayArray renders the pointer value of a bare array identifier used
// as a whole (a function-call argument, typically): a known-size local
// or global array decays via a double-zero GEP to its first element's
// address; a parameter array (unknown outer size — the slot itself
// holds a pointer value) decays via a single load of that slot, which
// already carries the correctly decayed pointer type.
func (e *Emitter) decayArray(op ir.Operand) (string, string) {
	dims := op.DeclaredExtents
	if dims[0] == nil {
		ty := llvmType(op.Size, dims)
		tmp := e.newArrayTemp()
		e.line(setRes(tmp, instLoad(ty, op.Reg)))
		return tmp, ty
	}

	aggTy := llvmType(op.Size, dims)
	elemTy := llvmType(op.Size, dims[1:])
	tmp := e.newArrayTemp()
	e.line(setRes(tmp, instGEP(aggTy, aggTy+"*", op.Reg, "i32", "0", false)))
	return tmp, elemTy + "*"
}
