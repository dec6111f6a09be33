package pyro

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueLookup(t *testing.T) {
	vals := NewValueLookup()

	val1 := constant.NewFloat(types.Double, 1)
	val2 := constant.NewFloat(types.Double, 2)

	vals.Set("id1", val1)
	vals.Set("id2", val2)

	got, ok := vals.Get("id1")
	assert.True(t, ok)
	assert.Equal(t, val1, got)

	got, ok = vals.Get("id2")
	assert.True(t, ok)
	assert.Equal(t, val2, got)

	_, ok = vals.Get("id3")
	assert.False(t, ok)
}

func TestValueLookupInherit(t *testing.T) {
	vals1 := NewValueLookup()

	val1 := constant.NewFloat(types.Double, 1)
	val2 := constant.NewFloat(types.Double, 2)

	vals1.Set("id1", val1)
	vals1.Set("id2", val2)

	vals2 := NewValueLookup()

	val3 := constant.NewFloat(types.Double, 3)
	val4 := constant.NewFloat(types.Double, 4)

	vals2.Set("id1", val3)
	vals2.Set("id4", val4)

	vals1.Inherit(vals2)

	for id, expect := range map[string]*constant.Float{"id1": val3, "id2": val2, "id4": val4} {
		got, ok := vals1.Get(id)
		assert.True(t, ok, id)
		assert.Equal(t, expect, got, id)
	}
}

func generateIR(t *testing.T, src string) string {
	t.Helper()

	mod, err := GenerateIR(mustParse(t, src))
	require.NoError(t, err)

	return mod.String()
}

func TestGenerateIR(t *testing.T) {
	cases := []struct {
		data   string
		expect []string
	}{
		{
			"",
			[]string{"define i32 @main()", "ret i32 0", "declare i32 @printf("},
		},
		{
			"letpr x = 5\nprint(x)",
			[]string{"call void @print_num(double 5.0)"},
		},
		{
			"letpr s = \"hi\"\nprint(s)",
			[]string{`c"hi\00"`, "call void @print_str(i8* getelementptr"},
		},
		{
			"print()",
			[]string{`c"<print: missing arg>\00"`, "call void @print_str("},
		},
		{
			"print(foo(1))",
			[]string{`c"<unsupported call>\00"`, "call void @print_str("},
		},
		{
			"print(2 + 3 * 4)",
			[]string{"fmul double 3.0, 4.0", "fadd double 2.0, %", "call void @print_num(double %"},
		},
		{
			"print(10 / 4 - 1)",
			[]string{"fdiv double 10.0, 4.0", "fsub double %"},
		},
		{
			"letpr x = 1\nif x { print(1) } else { print(2) }",
			[]string{"fcmp one double 1.0, 0.0", "br i1 %", "call void @print_num(double 1.0)", "call void @print_num(double 2.0)"},
		},
	}

	for _, c := range cases {
		out := generateIR(t, c.data)
		for _, want := range c.expect {
			assert.Contains(t, out, want, c.data)
		}
	}
}

func TestGenerateIRBuiltins(t *testing.T) {
	out := generateIR(t, "")

	assert.Contains(t, out, "define internal void @print_num(double %v)")
	assert.Contains(t, out, "define internal void @print_str(i8* %v)")
	assert.Contains(t, out, `c"%s\0A\00"`)
}

func TestGenerateIRPrintNumber(t *testing.T) {
	out := generateIR(t, "")

	for _, want := range []string{
		"declare i32 @snprintf(",
		"declare double @strtod(",
		`c"%.*f\00"`,
		`c"NaN\00"`,
		`c"+Inf\00"`,
		`c"-Inf\00"`,
		"alloca [512 x i8]",
		"fcmp uno double %v, %v",
		"icmp sge i32 %",
	} {
		assert.Contains(t, out, want)
	}
}

func TestGenerateIROrder(t *testing.T) {
	out := generateIR(t, "print(2 + 3 * 4)")

	mul := strings.Index(out, "fmul")
	add := strings.Index(out, "fadd")
	require.True(t, mul >= 0 && add >= 0, out)
	assert.Less(t, mul, add)
}

func TestGenerateIRIfWithoutElse(t *testing.T) {
	mod, err := GenerateIR(mustParse(t, "if 1 { print(1) }\nprint(2)"))
	require.NoError(t, err)

	blocks := -1
	for _, f := range mod.Funcs {
		if f.Name() == "main" {
			blocks = len(f.Blocks)
		}
	}

	// entry, then and merge
	assert.Equal(t, 3, blocks)
}

func TestGenerateIRErrors(t *testing.T) {
	cases := []struct {
		data   string
		expect string
	}{
		{"print(x)", "undefined identifier: x"},
		{"print(\"a\" + 1)", "operator + needs number operands"},
		{"if \"s\" { print(1) }", "if condition must be a number"},
		{"if 1 { letpr y = 2 }\nprint(y)", "undefined identifier: y"},
	}

	for _, c := range cases {
		mod, err := GenerateIR(mustParse(t, c.data))
		assert.Nil(t, mod, c.data)

		var genErr *GenerateError
		if assert.ErrorAs(t, err, &genErr, c.data) {
			assert.Equal(t, c.expect, genErr.Msg, c.data)
		}
	}
}
