package circuit

import (
	"fmt"
	"strconv"
	"strings"
)

// QASM renders c as an OpenQASM 2.0 program over register q.
func (c *Circuit) QASM() string {
	var sb strings.Builder

	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", c.NumQubits)

	for _, g := range c.Gates {
		sb.WriteString(g.Name)

		if len(g.Params) > 0 {
			params := make([]string, len(g.Params))
			for i, p := range g.Params {
				params[i] = strconv.FormatFloat(p, 'g', -1, 64)
			}

			sb.WriteString("(" + strings.Join(params, ",") + ")")
		}

		operands := make([]string, len(g.Qubits))
		for i, q := range g.Qubits {
			operands[i] = fmt.Sprintf("q[%d]", q)
		}

		sb.WriteString(" " + strings.Join(operands, ",") + ";\n")
	}

	return sb.String()
}
