package test

import (
	"math/rand"
	"strings"
)

// Each entry is a complete statement so any sequence of them is a valid
// program.
const validStatements = "letpr x = 1;letpr y = 2.5;letpr name = \"pyro\";print(x);print(\"this is a string\");print(\"this is a longer string with escapes: \\t tab \\n newline \\\" quote \\\\ backslash. Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.\");print(x + y * 2);print((x + y) / 3 - 1);letpr z = x * (y - 4) / 2;# this is a comment;print();if x { print(y) } else { print(x) };"

func GetRandomSource(size int) string {
	return GetRandomSourceWithSep(size, "\n")
}

func GetRandomSourceWithSep(size int, sep string) string {
	valid := strings.Split(strings.TrimSuffix(validStatements, ";"), ";")

	var stmts []string
	for len(stmts) < size {
		stmts = append(stmts, valid[rand.Intn(len(valid))])
	}

	return strings.Join(stmts, sep)
}
