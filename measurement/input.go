// Package measurement turns the raw registers of executed circuits into
// named expectation values.
package measurement

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	jsoniter "github.com/json-iterator/go"
	"github.com/oqtopus-team/oqtopus-qir/ir"
	"github.com/oqtopus-team/oqtopus-qir/mitig"
	"github.com/oqtopus-team/oqtopus-qir/qerr"
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
	"go.uber.org/multierr"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

type DefinitionKind string

const (
	// KindPauliProduct is a linear combination of Pauli products.
	KindPauliProduct DefinitionKind = "pauli_product"
	// KindCheated reads one value of a float or complex register.
	KindCheated DefinitionKind = "cheated"
	// KindCheatedOperator applies a sparse operator to a state vector or
	// flattened density matrix held in a complex register.
	KindCheatedOperator DefinitionKind = "cheated_operator"
)

// PauliProduct is the product of the Z-basis eigenvalues of Slots of the
// bit register Readout of circuit Circuit. A flipped slot contributes its
// negated bit.
type PauliProduct struct {
	Circuit int    `json:"circuit"`
	Readout string `json:"readout"`
	Slots   []int  `json:"slots"`
	Flipped []bool `json:"flipped,omitempty"`
}

func (p PauliProduct) flipped(i int) bool {
	return i < len(p.Flipped) && p.Flipped[i]
}

// Term is Coefficient times the expectation value of Products[Product].
type Term struct {
	Product     int            `json:"product"`
	Coefficient symbolic.Value `json:"coefficient"`
}

// OperatorEntry is one nonzero element of a sparse operator.
type OperatorEntry struct {
	Row int     `json:"row"`
	Col int     `json:"col"`
	Re  float64 `json:"re"`
	Im  float64 `json:"im,omitempty"`
}

type Definition struct {
	Name string         `json:"name"`
	Kind DefinitionKind `json:"kind"`

	// pauli_product
	Terms []Term `json:"terms,omitempty"`

	// cheated and cheated_operator
	Circuit   int             `json:"circuit,omitempty"`
	Readout   string          `json:"readout,omitempty"`
	Row       int             `json:"row,omitempty"`
	Index     int             `json:"index,omitempty"`
	Operator  []OperatorEntry `json:"operator,omitempty"`
	Dimension int             `json:"dimension,omitempty"`
}

// Input declares the circuits to run and the expectation values to derive
// from their registers. ConstantCircuit, when set, is prepended to every
// circuit before execution. Calibrations are keyed by bit register name.
type Input struct {
	Circuits        []*ir.Circuit                 `json:"circuits"`
	ConstantCircuit *ir.Circuit                   `json:"constant_circuit,omitempty"`
	Products        []PauliProduct                `json:"pauli_products,omitempty"`
	Definitions     []Definition                  `json:"definitions"`
	Calibrations    map[string]*mitig.Calibration `json:"calibrations,omitempty"`
}

// ParseInput decodes a measurement input. Circuits are decoded by
// ir.DecodeCircuit so an unknown operation stays an UnknownOperationError.
func ParseInput(b []byte) (*Input, error) {
	rest, fields, err := ir.ExtractFields(b, "circuits", "constant_circuit")
	if err != nil {
		return nil, errors.Wrap(err, "decode measurement input")
	}
	in := &Input{}
	if err := jsonIter.Unmarshal(rest, in); err != nil {
		return nil, errors.Wrap(err, "decode measurement input")
	}
	if raw, ok := fields["constant_circuit"]; ok {
		c, err := ir.DecodeCircuit(raw)
		if err != nil {
			return nil, errors.Wrap(err, "constant circuit")
		}
		in.ConstantCircuit = c
	}
	if raw, ok := fields["circuits"]; ok {
		err := jx.DecodeBytes(raw).Arr(func(d *jx.Decoder) error {
			item, err := d.Raw()
			if err != nil {
				return err
			}
			if item.Type() == jx.Null {
				in.Circuits = append(in.Circuits, nil)
				return nil
			}
			c, err := ir.DecodeCircuit(item)
			if err != nil {
				return errors.Wrapf(err, "circuit %d", len(in.Circuits))
			}
			in.Circuits = append(in.Circuits, c)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (in *Input) Marshal() ([]byte, error) {
	return jsonIter.Marshal(in)
}

// ExecutableCircuits returns the circuits as they are sent to a backend:
// each one with the constant circuit prepended.
func (in *Input) ExecutableCircuits() ([]*ir.Circuit, error) {
	out := make([]*ir.Circuit, len(in.Circuits))
	for i, c := range in.Circuits {
		if c == nil {
			return nil, errors.Errorf("circuit %d is nil", i)
		}
		if in.ConstantCircuit == nil {
			out[i] = c.Clone()
			continue
		}
		joined, err := in.ConstantCircuit.Concat(c)
		if err != nil {
			return nil, errors.Wrapf(err, "circuit %d", i)
		}
		out[i] = joined
	}
	return out, nil
}

// register looks a register up in circuit i, falling back to the constant
// circuit.
func (in *Input) register(i int, name string) (ir.Register, bool) {
	if r, ok := in.Circuits[i].Register(name); ok {
		return r, true
	}
	return in.ConstantCircuit.Register(name)
}

func (in *Input) circuitInRange(i int) bool {
	return i >= 0 && i < len(in.Circuits) && in.Circuits[i] != nil
}

// Validate reports every inconsistency between the circuits, products,
// definitions and calibrations.
func (in *Input) Validate() error {
	var errs error
	if len(in.Circuits) == 0 {
		errs = multierr.Append(errs, errors.New("no circuits"))
	}
	circuits, err := in.ExecutableCircuits()
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	for i, c := range circuits {
		if err := c.Validate(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "circuit %d", i))
		}
	}
	for i, p := range in.Products {
		errs = multierr.Append(errs, in.validateProduct(i, p))
	}
	seen := make(map[string]bool)
	for _, d := range in.Definitions {
		if d.Name == "" {
			errs = multierr.Append(errs, errors.New("definition without a name"))
			continue
		}
		if seen[d.Name] {
			errs = multierr.Append(errs, errors.Errorf("definition %s is declared twice", d.Name))
			continue
		}
		seen[d.Name] = true
		errs = multierr.Append(errs, in.validateDefinition(d))
	}
	for name, cal := range in.Calibrations {
		errs = multierr.Append(errs, in.validateCalibration(name, cal))
	}
	return errs
}

func (in *Input) validateProduct(i int, p PauliProduct) error {
	if !in.circuitInRange(p.Circuit) {
		return errors.Errorf("pauli product %d: circuit %d is out of range", i, p.Circuit)
	}
	reg, ok := in.register(p.Circuit, p.Readout)
	if !ok {
		return &qerr.MissingRegisterError{Circuit: p.Circuit, Name: p.Readout}
	}
	if reg.Type != ir.BitRegister {
		return &qerr.RegisterConflictError{Name: p.Readout, Reason: fmt.Sprintf("pauli product %d needs a bit register, declared as %s", i, reg.Type)}
	}
	if len(p.Flipped) != 0 && len(p.Flipped) != len(p.Slots) {
		return errors.Errorf("pauli product %d: %d flips for %d slots", i, len(p.Flipped), len(p.Slots))
	}
	used := make(map[int]bool, len(p.Slots))
	for _, s := range p.Slots {
		if s < 0 || s >= reg.Length {
			return &qerr.RegisterConflictError{Name: p.Readout, Reason: fmt.Sprintf("pauli product %d: slot %d is out of range [0,%d)", i, s, reg.Length)}
		}
		if used[s] {
			return errors.Errorf("pauli product %d: slot %d is used twice", i, s)
		}
		used[s] = true
	}
	return nil
}

func (in *Input) validateDefinition(d Definition) error {
	switch d.Kind {
	case KindPauliProduct:
		if len(d.Terms) == 0 {
			return errors.Errorf("definition %s has no terms", d.Name)
		}
		for _, t := range d.Terms {
			if t.Product < 0 || t.Product >= len(in.Products) {
				return errors.Errorf("definition %s: pauli product %d is out of range", d.Name, t.Product)
			}
		}
		return nil
	case KindCheated, KindCheatedOperator:
		if !in.circuitInRange(d.Circuit) {
			return errors.Errorf("definition %s: circuit %d is out of range", d.Name, d.Circuit)
		}
		if d.Row < 0 || d.Index < 0 {
			return errors.Errorf("definition %s: negative row or index", d.Name)
		}
		if d.Kind == KindCheated {
			return nil
		}
		if d.Dimension <= 0 {
			return errors.Errorf("definition %s: operator dimension must be positive", d.Name)
		}
		for _, e := range d.Operator {
			if e.Row < 0 || e.Row >= d.Dimension || e.Col < 0 || e.Col >= d.Dimension {
				return errors.Errorf("definition %s: operator entry (%d,%d) is out of range", d.Name, e.Row, e.Col)
			}
		}
		return nil
	default:
		return errors.Errorf("definition %s: unknown kind %q", d.Name, d.Kind)
	}
}

func (in *Input) validateCalibration(name string, cal *mitig.Calibration) error {
	if cal == nil {
		return errors.Errorf("calibration of %s is empty", name)
	}
	for _, p := range in.Products {
		if p.Readout != name || !in.circuitInRange(p.Circuit) {
			continue
		}
		reg, ok := in.register(p.Circuit, name)
		if !ok {
			continue
		}
		if cal.NumberOfBits() != reg.Length {
			return &qerr.MalformedRegisterError{
				Circuit: p.Circuit,
				Name:    name,
				Row:     -1,
				Reason:  fmt.Sprintf("calibration covers %d bits, register has %d", cal.NumberOfBits(), reg.Length),
			}
		}
	}
	return nil
}

// Readouts returns the bit registers read by pauli products, per circuit.
func (in *Input) Readouts() map[int][]string {
	out := make(map[int][]string)
	for _, p := range in.Products {
		dup := false
		for _, r := range out[p.Circuit] {
			if r == p.Readout {
				dup = true
				break
			}
		}
		if !dup {
			out[p.Circuit] = append(out[p.Circuit], p.Readout)
		}
	}
	return out
}
