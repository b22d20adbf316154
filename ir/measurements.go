package ir

import (
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
)

// MeasureQubit writes the projective measurement of Qubit to slot
// ReadoutIndex of the bit register Readout.
type MeasureQubit struct {
	Qubit        int    `json:"qubit"`
	Readout      string `json:"readout"`
	ReadoutIndex int    `json:"readout_index"`
}

func (m MeasureQubit) Hqslang() string                { return "MeasureQubit" }
func (m MeasureQubit) Tags() []string                 { return tags(m.Hqslang(), TagMeasurement) }
func (m MeasureQubit) InvolvedQubits() InvolvedQubits { return QubitSet(m.Qubit) }
func (m MeasureQubit) IsParametrized() bool           { return false }

func (m MeasureQubit) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return m, nil }

func (m MeasureQubit) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(m.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	m.Qubit = q
	return m, nil
}

// PragmaRepeatedMeasurement measures all qubits NumberMeasurements times
// into Readout. QubitMapping optionally maps qubits to register slots.
type PragmaRepeatedMeasurement struct {
	Readout            string      `json:"readout"`
	NumberMeasurements int         `json:"number_measurements"`
	QubitMapping       map[int]int `json:"qubit_mapping,omitempty"`
}

func (m PragmaRepeatedMeasurement) Hqslang() string { return "PragmaRepeatedMeasurement" }
func (m PragmaRepeatedMeasurement) Tags() []string {
	return tags(m.Hqslang(), TagMeasurement, TagPragma)
}
func (m PragmaRepeatedMeasurement) InvolvedQubits() InvolvedQubits { return AllQubits() }
func (m PragmaRepeatedMeasurement) IsParametrized() bool           { return false }

func (m PragmaRepeatedMeasurement) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return m, nil
}

func (m PragmaRepeatedMeasurement) RemapQubits(mapping map[int]int) (Operation, error) {
	qm, err := remapQubitKeys(m.QubitMapping, mapping)
	if err != nil {
		return nil, err
	}
	m.QubitMapping = qm
	return m, nil
}

// SlotOf returns the register slot qubit q is written to.
func (m PragmaRepeatedMeasurement) SlotOf(q int) int {
	if m.QubitMapping == nil {
		return q
	}
	if s, ok := m.QubitMapping[q]; ok {
		return s
	}
	return -1
}

func getTags(name string) []string {
	return tags(name, TagMeasurement, TagPragma, TagPragmaGetMeasurement, TagPragmaWithNestedCircuit)
}

func substituteNested(c *Circuit, calc *symbolic.Calculator) (*Circuit, error) {
	if c == nil {
		return nil, nil
	}
	return c.SubstituteParameters(calc)
}

func remapNested(c *Circuit, mapping map[int]int) (*Circuit, error) {
	if c == nil {
		return nil, nil
	}
	return c.RemapQubits(mapping)
}

func nestedParametrized(c *Circuit) bool {
	return c != nil && c.IsParametrized()
}

// PragmaGetStateVector stores the state vector into the complex register
// Readout, after applying Circuit to a copy of the state if set.
type PragmaGetStateVector struct {
	Readout string   `json:"readout"`
	Circuit *Circuit `json:"circuit"`
}

func (m PragmaGetStateVector) Hqslang() string                { return "PragmaGetStateVector" }
func (m PragmaGetStateVector) Tags() []string                 { return getTags(m.Hqslang()) }
func (m PragmaGetStateVector) InvolvedQubits() InvolvedQubits { return AllQubits() }
func (m PragmaGetStateVector) IsParametrized() bool           { return nestedParametrized(m.Circuit) }

func (m PragmaGetStateVector) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	c, err := substituteNested(m.Circuit, calc)
	if err != nil {
		return nil, err
	}
	m.Circuit = c
	return m, nil
}

func (m PragmaGetStateVector) RemapQubits(mapping map[int]int) (Operation, error) {
	c, err := remapNested(m.Circuit, mapping)
	if err != nil {
		return nil, err
	}
	m.Circuit = c
	return m, nil
}

// PragmaGetDensityMatrix stores the flattened density matrix into the
// complex register Readout.
type PragmaGetDensityMatrix struct {
	Readout string   `json:"readout"`
	Circuit *Circuit `json:"circuit"`
}

func (m PragmaGetDensityMatrix) Hqslang() string                { return "PragmaGetDensityMatrix" }
func (m PragmaGetDensityMatrix) Tags() []string                 { return getTags(m.Hqslang()) }
func (m PragmaGetDensityMatrix) InvolvedQubits() InvolvedQubits { return AllQubits() }
func (m PragmaGetDensityMatrix) IsParametrized() bool           { return nestedParametrized(m.Circuit) }

func (m PragmaGetDensityMatrix) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	c, err := substituteNested(m.Circuit, calc)
	if err != nil {
		return nil, err
	}
	m.Circuit = c
	return m, nil
}

func (m PragmaGetDensityMatrix) RemapQubits(mapping map[int]int) (Operation, error) {
	c, err := remapNested(m.Circuit, mapping)
	if err != nil {
		return nil, err
	}
	m.Circuit = c
	return m, nil
}

// PragmaGetOccupationProbability stores the occupation probabilities into
// the float register Readout.
type PragmaGetOccupationProbability struct {
	Readout string   `json:"readout"`
	Circuit *Circuit `json:"circuit"`
}

func (m PragmaGetOccupationProbability) Hqslang() string {
	return "PragmaGetOccupationProbability"
}
func (m PragmaGetOccupationProbability) Tags() []string                 { return getTags(m.Hqslang()) }
func (m PragmaGetOccupationProbability) InvolvedQubits() InvolvedQubits { return AllQubits() }
func (m PragmaGetOccupationProbability) IsParametrized() bool {
	return nestedParametrized(m.Circuit)
}

func (m PragmaGetOccupationProbability) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	c, err := substituteNested(m.Circuit, calc)
	if err != nil {
		return nil, err
	}
	m.Circuit = c
	return m, nil
}

func (m PragmaGetOccupationProbability) RemapQubits(mapping map[int]int) (Operation, error) {
	c, err := remapNested(m.Circuit, mapping)
	if err != nil {
		return nil, err
	}
	m.Circuit = c
	return m, nil
}

// Pauli operator indices used by PragmaGetPauliProduct.
const (
	PauliIdentity = 0
	PauliXIndex   = 1
	PauliYIndex   = 2
	PauliZIndex   = 3
)

// PragmaGetPauliProduct stores the expectation of the Pauli product
// QubitPaulis (qubit -> Pauli index) into the float register Readout.
type PragmaGetPauliProduct struct {
	QubitPaulis map[int]int `json:"qubit_paulis"`
	Readout     string      `json:"readout"`
	Circuit     *Circuit    `json:"circuit"`
}

func (m PragmaGetPauliProduct) Hqslang() string { return "PragmaGetPauliProduct" }
func (m PragmaGetPauliProduct) Tags() []string  { return getTags(m.Hqslang()) }
// InvolvedQubits covers the measured qubits and those touched by the
// circuit run before the measurement.
func (m PragmaGetPauliProduct) InvolvedQubits() InvolvedQubits {
	return QubitSet(sortedIntKeys(m.QubitPaulis)...).Union(m.Circuit.InvolvedQubits())
}
func (m PragmaGetPauliProduct) IsParametrized() bool { return nestedParametrized(m.Circuit) }

func (m PragmaGetPauliProduct) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	c, err := substituteNested(m.Circuit, calc)
	if err != nil {
		return nil, err
	}
	m.Circuit = c
	return m, nil
}

func (m PragmaGetPauliProduct) RemapQubits(mapping map[int]int) (Operation, error) {
	qp, err := remapQubitKeys(m.QubitPaulis, mapping)
	if err != nil {
		return nil, err
	}
	c, err := remapNested(m.Circuit, mapping)
	if err != nil {
		return nil, err
	}
	m.QubitPaulis = qp
	m.Circuit = c
	return m, nil
}
