package measurement

import (
	"fmt"
	"math/cmplx"

	"github.com/oqtopus-team/oqtopus-qir/qerr"
)

// complexRow returns row d.Row of the register d.Readout, complex registers
// first, float registers widened. A register the circuit declares must hold
// rows of the declared length.
func (ev *evaluation) complexRow(d Definition) ([]complex128, error) {
	regs := ev.outputs[d.Circuit]
	if regs == nil {
		return nil, &qerr.MissingRegisterError{Circuit: d.Circuit, Name: d.Readout}
	}
	if rows, ok := regs.Complexes[d.Readout]; ok {
		if d.Row >= len(rows) {
			return nil, rowOutOfRange(d, len(rows))
		}
		if err := ev.checkRowLength(d, len(rows[d.Row])); err != nil {
			return nil, err
		}
		return rows[d.Row], nil
	}
	if rows, ok := regs.Floats[d.Readout]; ok {
		if d.Row >= len(rows) {
			return nil, rowOutOfRange(d, len(rows))
		}
		if err := ev.checkRowLength(d, len(rows[d.Row])); err != nil {
			return nil, err
		}
		out := make([]complex128, len(rows[d.Row]))
		for i, f := range rows[d.Row] {
			out[i] = complex(f, 0)
		}
		return out, nil
	}
	return nil, &qerr.MissingRegisterError{Circuit: d.Circuit, Name: d.Readout}
}

func (ev *evaluation) checkRowLength(d Definition, n int) error {
	reg, ok := ev.in.register(d.Circuit, d.Readout)
	if !ok || n == reg.Length {
		return nil
	}
	return &qerr.MalformedRegisterError{
		Circuit: d.Circuit,
		Name:    d.Readout,
		Row:     d.Row,
		Reason:  fmt.Sprintf("%d values, declared length %d", n, reg.Length),
	}
}

func rowOutOfRange(d Definition, rows int) error {
	return &qerr.MalformedRegisterError{
		Circuit: d.Circuit,
		Name:    d.Readout,
		Row:     d.Row,
		Reason:  fmt.Sprintf("register has %d rows", rows),
	}
}

func (ev *evaluation) cheated(d Definition) (complex128, error) {
	row, err := ev.complexRow(d)
	if err != nil {
		return 0, err
	}
	if d.Index >= len(row) {
		return 0, &qerr.MalformedRegisterError{
			Circuit: d.Circuit,
			Name:    d.Readout,
			Row:     d.Row,
			Reason:  fmt.Sprintf("index %d is out of range [0,%d)", d.Index, len(row)),
		}
	}
	return row[d.Index], nil
}

// cheatedOperator computes <psi|O|psi> when the row is a state vector of
// the operator dimension, or Tr(O rho) when it is a row-major flattened
// density matrix.
func (ev *evaluation) cheatedOperator(d Definition) (complex128, error) {
	row, err := ev.complexRow(d)
	if err != nil {
		return 0, err
	}
	dim := d.Dimension
	var sum complex128
	switch len(row) {
	case dim:
		for _, e := range d.Operator {
			sum += cmplx.Conj(row[e.Row]) * complex(e.Re, e.Im) * row[e.Col]
		}
	case dim * dim:
		for _, e := range d.Operator {
			sum += complex(e.Re, e.Im) * row[e.Col*dim+e.Row]
		}
	default:
		return 0, &qerr.MalformedRegisterError{
			Circuit: d.Circuit,
			Name:    d.Readout,
			Row:     d.Row,
			Reason:  fmt.Sprintf("%d values fit neither dimension %d nor %d", len(row), dim, dim*dim),
		}
	}
	return sum, nil
}
