package pyro

import (
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

const (
	builtinPrintNum = "print_num"
	builtinPrintStr = "print_str"
)

const (
	numberBufferSize = 512
	maxDecimals      = 340
)

func defineBuiltins(b *LLVMIRBuilder) {
	printf := b.mod.NewFunc("printf", types.I32, ir.NewParam("format", types.I8Ptr))
	printf.Sig.Variadic = true

	snprintf := b.mod.NewFunc("snprintf", types.I32,
		ir.NewParam("buf", types.I8Ptr),
		ir.NewParam("size", types.I64),
		ir.NewParam("format", types.I8Ptr),
	)
	snprintf.Sig.Variadic = true

	strtod := b.mod.NewFunc("strtod", types.Double,
		ir.NewParam("str", types.I8Ptr),
		ir.NewParam("end", types.NewPointer(types.I8Ptr)),
	)

	defineBuiltinFunc(b, builtinPrintNum, builtinPrintNumber(b, printf, snprintf, strtod))
	defineBuiltinFunc(b, builtinPrintStr, builtinPrint(b, printf, "%s\n", types.I8Ptr))
}

type funcDefinition = func(mod *ir.Module) *ir.Func

func defineBuiltinFunc(b *LLVMIRBuilder, name string, definition funcDefinition) {
	f := definition(b.mod)
	f.SetName(name)
	f.Linkage = enum.LinkageInternal
	b.builtins[name] = f
}

// builtinPrint defines a one-argument function printing its parameter with
// the given printf format.
func builtinPrint(b *LLVMIRBuilder, printf *ir.Func, format string, param types.Type) funcDefinition {
	return func(mod *ir.Module) *ir.Func {
		f := mod.NewFunc("", types.Void, ir.NewParam("v", param))
		block := f.NewBlock("")

		fmtAddr := b.globalString(format)
		block.NewCall(printf, fmtAddr, f.Params[0])

		block.NewRet(nil)

		return f
	}
}

// builtinPrintNumber defines print_num. It prints in plain decimal notation
// with the fewest decimals that read back as the same double, and prints
// +Inf, -Inf and NaN by name.
func builtinPrintNumber(b *LLVMIRBuilder, printf, snprintf, strtod *ir.Func) funcDefinition {
	return func(mod *ir.Module) *ir.Func {
		v := ir.NewParam("v", types.Double)
		f := mod.NewFunc("", types.Void, v)

		lineFormat := b.globalString("%s\n")
		fixedFormat := b.globalString("%.*f")

		printName := func(name string) *ir.Block {
			block := f.NewBlock("")
			block.NewCall(printf, lineFormat, b.globalString(name))
			block.NewRet(nil)
			return block
		}

		entry := f.NewBlock("")
		notNaN := f.NewBlock("")
		notPosInf := f.NewBlock("")
		loop := f.NewBlock("")
		retry := f.NewBlock("")
		done := f.NewBlock("")

		bufType := types.NewArray(numberBufferSize, types.I8)
		zero := constant.NewInt(types.I64, 0)
		buf := entry.NewGetElementPtr(bufType, entry.NewAlloca(bufType), zero, zero)
		decimals := entry.NewAlloca(types.I32)
		entry.NewStore(constant.NewInt(types.I32, 0), decimals)
		entry.NewCondBr(entry.NewFCmp(enum.FPredUNO, v, v), printName("NaN"), notNaN)

		isPosInf := notNaN.NewFCmp(enum.FPredOEQ, v, constant.NewFloat(types.Double, math.Inf(1)))
		notNaN.NewCondBr(isPosInf, printName("+Inf"), notPosInf)

		isNegInf := notPosInf.NewFCmp(enum.FPredOEQ, v, constant.NewFloat(types.Double, math.Inf(-1)))
		notPosInf.NewCondBr(isNegInf, printName("-Inf"), loop)

		// snprintf with more and more decimals until strtod gives v back
		d := loop.NewLoad(types.I32, decimals)
		loop.NewCall(snprintf, buf, constant.NewInt(types.I64, numberBufferSize), fixedFormat, d, v)
		back := loop.NewCall(strtod, buf, constant.NewNull(types.NewPointer(types.I8Ptr)))
		same := loop.NewFCmp(enum.FPredOEQ, back, v)
		capped := loop.NewICmp(enum.IPredSGE, d, constant.NewInt(types.I32, maxDecimals))
		loop.NewCondBr(loop.NewOr(same, capped), done, retry)

		retry.NewStore(retry.NewAdd(d, constant.NewInt(types.I32, 1)), decimals)
		retry.NewBr(loop)

		done.NewCall(printf, lineFormat, buf)
		done.NewRet(nil)

		return f
	}
}
