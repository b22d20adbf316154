package ir

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-qir/qerr"
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Circuit is an ordered list of operations with the table of the classical
// registers they declare. Add is the only method that mutates a Circuit;
// every transform returns a new one.
type Circuit struct {
	ops       []Operation
	registers map[string]Register
}

func NewCircuit() *Circuit {
	return &Circuit{registers: make(map[string]Register)}
}

// NewCircuitFromOperations adds ops in order to a new Circuit.
func NewCircuitFromOperations(ops ...Operation) (*Circuit, error) {
	c := NewCircuit()
	for i, op := range ops {
		if err := c.Add(op); err != nil {
			return nil, errors.Wrapf(err, "operation %d (%s)", i, op.Hqslang())
		}
	}
	return c, nil
}

// Add appends op. Register declarations and the measurements writing into
// bit registers are checked against the register table here, so a conflict
// never reaches a backend. Negative qubit indices are rejected as well.
func (c *Circuit) Add(op Operation) error {
	if op == nil {
		return errors.New("operation is nil")
	}
	if c.registers == nil {
		c.registers = make(map[string]Register)
	}
	for _, q := range op.InvolvedQubits().Qubits() {
		if q < 0 {
			return errors.Errorf("%s: negative qubit index %d", op.Hqslang(), q)
		}
	}
	switch o := op.(type) {
	case Declaration:
		reg := o.Register()
		if reg.Length < 0 {
			return &qerr.RegisterConflictError{Name: reg.Name, Reason: fmt.Sprintf("negative length %d", reg.Length)}
		}
		if prev, ok := c.registers[reg.Name]; ok {
			return &qerr.RegisterConflictError{
				Name:   reg.Name,
				Reason: fmt.Sprintf("already declared as %s[%d]", prev.Type, prev.Length),
			}
		}
		c.registers[reg.Name] = reg
	case MeasureQubit:
		if err := c.checkBitSlot(o.Readout, o.ReadoutIndex); err != nil {
			return err
		}
	case PragmaRepeatedMeasurement:
		if _, err := c.checkType(o.Readout, BitRegister); err != nil {
			return err
		}
		for _, q := range sortedIntKeys(o.QubitMapping) {
			if q < 0 {
				return errors.Errorf("%s: negative qubit index %d", op.Hqslang(), q)
			}
			if err := c.checkBitSlot(o.Readout, o.QubitMapping[q]); err != nil {
				return err
			}
		}
	}
	c.ops = append(c.ops, op)
	return nil
}

func (c *Circuit) checkBitSlot(name string, slot int) error {
	reg, ok := c.registers[name]
	if !ok {
		return &qerr.MissingRegisterError{Circuit: -1, Name: name}
	}
	if reg.Type != BitRegister {
		return &qerr.RegisterConflictError{Name: name, Reason: fmt.Sprintf("expected a bit register, declared as %s", reg.Type)}
	}
	if slot < 0 || slot >= reg.Length {
		return &qerr.RegisterConflictError{Name: name, Reason: fmt.Sprintf("slot %d is out of range [0,%d)", slot, reg.Length)}
	}
	return nil
}

func (c *Circuit) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ops)
}

func (c *Circuit) Get(i int) (Operation, bool) {
	if c == nil || i < 0 || i >= len(c.ops) {
		return nil, false
	}
	return c.ops[i], true
}

// Operations returns a copy of the operation list.
func (c *Circuit) Operations() []Operation {
	if c == nil {
		return nil
	}
	return append([]Operation(nil), c.ops...)
}

// Registers returns a copy of the register table.
func (c *Circuit) Registers() map[string]Register {
	out := make(map[string]Register)
	if c == nil {
		return out
	}
	for k, v := range c.registers {
		out[k] = v
	}
	return out
}

func (c *Circuit) Register(name string) (Register, bool) {
	if c == nil {
		return Register{}, false
	}
	r, ok := c.registers[name]
	return r, ok
}

// Definitions returns the register declarations in circuit order.
func (c *Circuit) Definitions() []Declaration {
	var out []Declaration
	for _, op := range c.Operations() {
		if d, ok := op.(Declaration); ok {
			out = append(out, d)
		}
	}
	return out
}

// InputSymbols returns the values set by InputSymbolic operations.
func (c *Circuit) InputSymbols() map[string]float64 {
	out := make(map[string]float64)
	for _, op := range c.Operations() {
		if in, ok := op.(InputSymbolic); ok {
			out[in.Name] = in.Input
		}
	}
	return out
}

// FilterByTag returns the operations carrying tag.
func (c *Circuit) FilterByTag(tag string) []Operation {
	var out []Operation
	for _, op := range c.Operations() {
		if HasTag(op, tag) {
			out = append(out, op)
		}
	}
	return out
}

// OperationsOnQubit returns the operations touching q, including the ones
// involving all qubits.
func (c *Circuit) OperationsOnQubit(q int) []Operation {
	var out []Operation
	for _, op := range c.Operations() {
		if op.InvolvedQubits().Contains(q) {
			out = append(out, op)
		}
	}
	return out
}

func (c *Circuit) InvolvedQubits() InvolvedQubits {
	iq := NoQubits()
	for _, op := range c.Operations() {
		iq = iq.Union(op.InvolvedQubits())
		if iq.IsAll() {
			return iq
		}
	}
	return iq
}

// NumberOfQubits is one more than the highest qubit index addressed
// explicitly. Operations involving all qubits do not count.
func (c *Circuit) NumberOfQubits() int {
	n := 0
	for _, op := range c.Operations() {
		for _, q := range op.InvolvedQubits().Qubits() {
			if q+1 > n {
				n = q + 1
			}
		}
	}
	return n
}

func (c *Circuit) IsParametrized() bool {
	for _, op := range c.Operations() {
		if op.IsParametrized() {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no mutable state with c.
func (c *Circuit) Clone() *Circuit {
	out := NewCircuit()
	if c == nil {
		return out
	}
	out.ops = append([]Operation(nil), c.ops...)
	for k, v := range c.registers {
		out.registers[k] = v
	}
	return out
}

// Concat returns c followed by o. A register declared by both with the same
// type and length is kept once. Any other redeclaration fails.
func (c *Circuit) Concat(o *Circuit) (*Circuit, error) {
	out := c.Clone()
	for _, op := range o.Operations() {
		if d, ok := op.(Declaration); ok {
			reg := d.Register()
			if prev, ok := out.registers[reg.Name]; ok {
				if prev.Type == reg.Type && prev.Length == reg.Length {
					continue
				}
				reason := fmt.Sprintf("declared as %s[%d] and %s[%d]", prev.Type, prev.Length, reg.Type, reg.Length)
				return nil, &qerr.RegisterConflictError{Name: reg.Name, Reason: reason}
			}
		}
		if err := out.Add(op); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Circuit) mapOperations(f func(Operation) (Operation, error)) (*Circuit, error) {
	out := NewCircuit()
	for k, v := range c.Registers() {
		out.registers[k] = v
	}
	for i, op := range c.Operations() {
		n, err := f(op)
		if err != nil {
			zap.L().Debug(fmt.Sprintf("failed to transform operation %d(%s)/reason:%s", i, op.Hqslang(), err))
			return nil, err
		}
		out.ops = append(out.ops, n)
	}
	return out, nil
}

// SubstituteParameters substitutes the variables bound in calc in every
// operation. A single failure aborts the whole transform.
func (c *Circuit) SubstituteParameters(calc *symbolic.Calculator) (*Circuit, error) {
	return c.mapOperations(func(op Operation) (Operation, error) {
		return op.SubstituteParameters(calc)
	})
}

// Bind fully resolves every parameter. InputSymbolic values of the circuit
// are used for variables calc does not bind. A variable left unbound is a
// SymbolicResolutionError.
func (c *Circuit) Bind(calc *symbolic.Calculator) (*Circuit, error) {
	vars := c.InputSymbols()
	for k, v := range calc.Variables() {
		vars[k] = v
	}
	strict := symbolic.NewCalculatorFromMap(vars).Strict()
	return c.SubstituteParameters(strict)
}

// RemapQubits relabels every qubit with mapping.
func (c *Circuit) RemapQubits(mapping map[int]int) (*Circuit, error) {
	return c.mapOperations(func(op Operation) (Operation, error) {
		return op.RemapQubits(mapping)
	})
}

// Overrotate applies every PragmaOverrotation to the next gate with the same
// name and qubits, adding Amplitude * N(0, Variance) to its angle, and drops
// the pragmas. c is left untouched.
func (c *Circuit) Overrotate(rng *rand.Rand) (*Circuit, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	ops := c.Operations()
	drop := make(map[int]bool)
	for i, op := range ops {
		p, ok := op.(PragmaOverrotation)
		if !ok {
			continue
		}
		drop[i] = true
		want := QubitSet(p.Qubits...)
		for j := i + 1; j < len(ops); j++ {
			if ops[j].Hqslang() != p.GateHqslang || !ops[j].InvolvedQubits().Equal(want) {
				continue
			}
			r, ok := ops[j].(Rotation)
			if !ok {
				return nil, errors.Errorf("cannot overrotate %s: not a rotation", p.GateHqslang)
			}
			delta := p.Amplitude * rng.NormFloat64() * p.Variance
			ops[j] = r.WithAngle(r.Angle().Add(symbolic.Float(delta)))
			break
		}
	}
	out := NewCircuit()
	for k, v := range c.Registers() {
		out.registers[k] = v
	}
	for i, op := range ops {
		if !drop[i] {
			out.ops = append(out.ops, op)
		}
	}
	return out, nil
}

// Validate checks every register reference of the circuit and its nested
// circuits and reports all violations at once.
func (c *Circuit) Validate() error {
	var errs error
	for i, op := range c.Operations() {
		for _, q := range op.InvolvedQubits().Qubits() {
			if q < 0 {
				errs = multierr.Append(errs, errors.Errorf("operation %d(%s): negative qubit index %d", i, op.Hqslang(), q))
			}
		}
		if err := c.validateOperation(op); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "operation %d(%s)", i, op.Hqslang()))
		}
	}
	return errs
}

func (c *Circuit) validateOperation(op Operation) error {
	switch o := op.(type) {
	case MeasureQubit:
		return c.checkBitSlot(o.Readout, o.ReadoutIndex)
	case PragmaRepeatedMeasurement:
		if o.NumberMeasurements <= 0 {
			return errors.Errorf("number_measurements must be positive, got %d", o.NumberMeasurements)
		}
		if _, err := c.checkType(o.Readout, BitRegister); err != nil {
			return err
		}
		var errs error
		for _, q := range sortedIntKeys(o.QubitMapping) {
			errs = multierr.Append(errs, c.checkBitSlot(o.Readout, o.QubitMapping[q]))
		}
		return errs
	case PragmaSetNumberOfMeasurements:
		if o.NumberMeasurements <= 0 {
			return errors.Errorf("number_measurements must be positive, got %d", o.NumberMeasurements)
		}
		_, err := c.checkType(o.Readout, BitRegister)
		return err
	case PragmaGetStateVector:
		return multierr.Append(c.checkTypeErr(o.Readout, ComplexRegister), validateNested(o.Circuit))
	case PragmaGetDensityMatrix:
		return multierr.Append(c.checkTypeErr(o.Readout, ComplexRegister), validateNested(o.Circuit))
	case PragmaGetOccupationProbability:
		return multierr.Append(c.checkTypeErr(o.Readout, FloatRegister), validateNested(o.Circuit))
	case PragmaGetPauliProduct:
		var errs error
		for _, q := range sortedIntKeys(o.QubitPaulis) {
			if p := o.QubitPaulis[q]; p < PauliIdentity || p > PauliZIndex {
				errs = multierr.Append(errs, errors.Errorf("qubit %d: invalid Pauli index %d", q, p))
			}
		}
		return multierr.Combine(errs, c.checkTypeErr(o.Readout, FloatRegister), validateNested(o.Circuit))
	case PragmaConditional:
		return multierr.Append(c.checkBitSlot(o.ConditionRegister, o.ConditionIndex), validateNested(o.Circuit))
	case PragmaSetDensityMatrix:
		rows, cols, err := o.DensityMatrix.Dims()
		if err != nil {
			return err
		}
		if rows != cols {
			return errors.Errorf("density matrix is %dx%d, expected square", rows, cols)
		}
	}
	return nil
}

func (c *Circuit) checkType(name string, t RegisterType) (Register, error) {
	reg, ok := c.registers[name]
	if !ok {
		return reg, &qerr.MissingRegisterError{Circuit: -1, Name: name}
	}
	if reg.Type != t {
		return reg, &qerr.RegisterConflictError{Name: name, Reason: fmt.Sprintf("expected a %s register, declared as %s", t, reg.Type)}
	}
	return reg, nil
}

func (c *Circuit) checkTypeErr(name string, t RegisterType) error {
	_, err := c.checkType(name, t)
	return err
}

func validateNested(c *Circuit) error {
	if c == nil {
		return nil
	}
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "nested circuit")
	}
	return nil
}

// OutputRegisters returns the names of the registers declared as output,
// sorted.
func (c *Circuit) OutputRegisters() []string {
	var out []string
	for name, reg := range c.Registers() {
		if reg.IsOutput {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// MeasuredQubits maps each slot of the readout register to the qubit
// measured into it. A later measurement of the same slot wins.
func (c *Circuit) MeasuredQubits(readout string) map[int]int {
	out := make(map[int]int)
	reg, ok := c.Register(readout)
	if !ok {
		return out
	}
	for _, op := range c.Operations() {
		switch o := op.(type) {
		case MeasureQubit:
			if o.Readout == readout {
				out[o.ReadoutIndex] = o.Qubit
			}
		case PragmaRepeatedMeasurement:
			if o.Readout != readout {
				continue
			}
			if o.QubitMapping == nil {
				for q := 0; q < reg.Length; q++ {
					out[q] = q
				}
				continue
			}
			for q, slot := range o.QubitMapping {
				out[slot] = q
			}
		}
	}
	return out
}

// NumberOfMeasurements returns the shot count requested for readout by
// PragmaSetNumberOfMeasurements or PragmaRepeatedMeasurement, the last one
// winning. ok is false when the circuit requests none.
func (c *Circuit) NumberOfMeasurements(readout string) (n int, ok bool) {
	for _, op := range c.Operations() {
		switch o := op.(type) {
		case PragmaSetNumberOfMeasurements:
			if o.Readout == readout {
				n, ok = o.NumberMeasurements, true
			}
		case PragmaRepeatedMeasurement:
			if o.Readout == readout {
				n, ok = o.NumberMeasurements, true
			}
		}
	}
	return n, ok
}
