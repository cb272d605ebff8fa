package emit

import (
	"fmt"
	"strings"
)

// argument pairs a textual LLVM type with the value text, for call/func
// argument lists.
type argument struct {
	typ   string
	value string
}

// llvmType renders the textual type for a size (1 or 32) and an optional
// declared-dimension list, walking inside-out: a non-zero inner extent
// wraps an array type, a nil/zero one wraps a pointer — mirrors the
// original emitter's set_type.
func llvmType(size int, dims []*int) string {
	ty := fmt.Sprintf("i%d", size)
	for i := len(dims) - 1; i >= 0; i-- {
		if d := dims[i]; d != nil && *d != 0 {
			ty = fmt.Sprintf("[%d x %s]", *d, ty)
		} else {
			ty = ty + "*"
		}
	}
	return ty
}

func setRes(dst, inst string) string { return fmt.Sprintf("%s = %s", dst, inst) }

func instAdd(ty, l, r string) string { return fmt.Sprintf("add nsw %s %s, %s", ty, l, r) }
func instSub(ty, l, r string) string { return fmt.Sprintf("sub nsw %s %s, %s", ty, l, r) }
func instMul(ty, l, r string) string { return fmt.Sprintf("mul nsw %s %s, %s", ty, l, r) }
func instSDiv(ty, l, r string) string { return fmt.Sprintf("sdiv %s %s, %s", ty, l, r) }
func instSRem(ty, l, r string) string { return fmt.Sprintf("srem %s %s, %s", ty, l, r) }
func instXor(ty, l, r string) string { return fmt.Sprintf("xor %s %s, %s", ty, l, r) }

func instICmp(cond, ty, l, r string) string {
	return fmt.Sprintf("icmp %s %s %s, %s", cond, ty, l, r)
}

func instAlloca(ty string, align int) string {
	return fmt.Sprintf("alloca %s, align %d", ty, align)
}

func instLoad(ty, ptr string) string { return fmt.Sprintf("load %s, %s* %s", ty, ty, ptr) }

func instStore(ty, value, ptr string) string {
	return fmt.Sprintf("store %s %s, %s* %s", ty, value, ty, ptr)
}

func instZext(srcTy, val, dstTy string) string {
	return fmt.Sprintf("zext %s %s to %s", srcTy, val, dstTy)
}

func instBrCond(cond, trueLabel, falseLabel string) string {
	return fmt.Sprintf("br i1 %s, label %%%s, label %%%s", cond, trueLabel, falseLabel)
}

func instBrUncond(dest string) string { return fmt.Sprintf("br label %%%s", dest) }

func instRetVoid() string { return "ret void" }

func instRet(ty, val string) string { return fmt.Sprintf("ret %s %s", ty, val) }

func instGlobalVar(ty string, isArray bool) string {
	if isArray {
		return fmt.Sprintf("common dso_local global %s 0", ty)
	}
	return fmt.Sprintf("common dso_local global %s zeroinitializer", ty)
}

func instFuncHeader(name, retTy string, args []argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s %s", a.typ, a.value)
	}
	return fmt.Sprintf("define %s @%s (%s) #0 {", retTy, name, strings.Join(parts, ", "))
}

func instCall(retTy, callee string, args []argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s %s", a.typ, a.value)
	}
	return fmt.Sprintf("call %s @%s (%s)", retTy, callee, strings.Join(parts, ", "))
}

// instGEP renders a getelementptr instruction. noLeadingZero omits the
// implicit "i32 0" first index, used when stepping through an already
// dereferenced pointer level rather than indexing into an aggregate.
func instGEP(aggTy, ptrTy, ptr, idxTy, idx string, noLeadingZero bool) string {
	if noLeadingZero {
		return fmt.Sprintf("getelementptr inbounds %s, %s %s, %s %s", aggTy, ptrTy, ptr, idxTy, idx)
	}
	return fmt.Sprintf("getelementptr inbounds %s, %s %s, i32 0, %s %s", aggTy, ptrTy, ptr, idxTy, idx)
}

func instPhi(ty string, flags []phiFlagText) string {
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = fmt.Sprintf("[%s, %%%s]", f.value, f.label)
	}
	return fmt.Sprintf("phi %s %s", ty, strings.Join(parts, ", "))
}

type phiFlagText struct{ value, label string }
