package ir

import (
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
)

var (
	singleGateTags   = []string{TagGate, TagSingleQubitGate}
	singleRotateTags = []string{TagGate, TagRotation, TagSingleQubitGate}
	twoGateTags      = []string{TagGate, TagTwoQubitGate}
	multiGateTags    = []string{TagGate, TagMultiQubitGate}
)

// RotateX rotates Qubit around the x axis by Theta.
type RotateX struct {
	Qubit int            `json:"qubit"`
	Theta symbolic.Value `json:"theta"`
}

func (g RotateX) Hqslang() string                { return "RotateX" }
func (g RotateX) Tags() []string                 { return tags(g.Hqslang(), singleRotateTags...) }
func (g RotateX) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubit) }
func (g RotateX) IsParametrized() bool           { return anyExpression(g.Theta) }
func (g RotateX) Angle() symbolic.Value          { return g.Theta }
func (g RotateX) WithAngle(t symbolic.Value) Operation {
	g.Theta = t
	return g
}

func (g RotateX) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	t, err := substituteValue(g.Theta, calc)
	if err != nil {
		return nil, err
	}
	g.Theta = t
	return g, nil
}

func (g RotateX) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(g.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubit = q
	return g, nil
}

// RotateY rotates Qubit around the y axis by Theta.
type RotateY struct {
	Qubit int            `json:"qubit"`
	Theta symbolic.Value `json:"theta"`
}

func (g RotateY) Hqslang() string                { return "RotateY" }
func (g RotateY) Tags() []string                 { return tags(g.Hqslang(), singleRotateTags...) }
func (g RotateY) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubit) }
func (g RotateY) IsParametrized() bool           { return anyExpression(g.Theta) }
func (g RotateY) Angle() symbolic.Value          { return g.Theta }
func (g RotateY) WithAngle(t symbolic.Value) Operation {
	g.Theta = t
	return g
}

func (g RotateY) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	t, err := substituteValue(g.Theta, calc)
	if err != nil {
		return nil, err
	}
	g.Theta = t
	return g, nil
}

func (g RotateY) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(g.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubit = q
	return g, nil
}

// RotateZ rotates Qubit around the z axis by Theta.
type RotateZ struct {
	Qubit int            `json:"qubit"`
	Theta symbolic.Value `json:"theta"`
}

func (g RotateZ) Hqslang() string                { return "RotateZ" }
func (g RotateZ) Tags() []string                 { return tags(g.Hqslang(), singleRotateTags...) }
func (g RotateZ) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubit) }
func (g RotateZ) IsParametrized() bool           { return anyExpression(g.Theta) }
func (g RotateZ) Angle() symbolic.Value          { return g.Theta }
func (g RotateZ) WithAngle(t symbolic.Value) Operation {
	g.Theta = t
	return g
}

func (g RotateZ) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	t, err := substituteValue(g.Theta, calc)
	if err != nil {
		return nil, err
	}
	g.Theta = t
	return g, nil
}

func (g RotateZ) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(g.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubit = q
	return g, nil
}

// PhaseShiftState1 applies the phase Theta to the |1> state of Qubit.
type PhaseShiftState1 struct {
	Qubit int            `json:"qubit"`
	Theta symbolic.Value `json:"theta"`
}

func (g PhaseShiftState1) Hqslang() string                { return "PhaseShiftState1" }
func (g PhaseShiftState1) Tags() []string                 { return tags(g.Hqslang(), singleRotateTags...) }
func (g PhaseShiftState1) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubit) }
func (g PhaseShiftState1) IsParametrized() bool           { return anyExpression(g.Theta) }
func (g PhaseShiftState1) Angle() symbolic.Value          { return g.Theta }
func (g PhaseShiftState1) WithAngle(t symbolic.Value) Operation {
	g.Theta = t
	return g
}

func (g PhaseShiftState1) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	t, err := substituteValue(g.Theta, calc)
	if err != nil {
		return nil, err
	}
	g.Theta = t
	return g, nil
}

func (g PhaseShiftState1) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(g.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubit = q
	return g, nil
}

type Hadamard struct {
	Qubit int `json:"qubit"`
}

func (g Hadamard) Hqslang() string                { return "Hadamard" }
func (g Hadamard) Tags() []string                 { return tags(g.Hqslang(), singleGateTags...) }
func (g Hadamard) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubit) }
func (g Hadamard) IsParametrized() bool           { return false }

func (g Hadamard) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return g, nil }

func (g Hadamard) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(g.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubit = q
	return g, nil
}

type PauliX struct {
	Qubit int `json:"qubit"`
}

func (g PauliX) Hqslang() string                { return "PauliX" }
func (g PauliX) Tags() []string                 { return tags(g.Hqslang(), singleGateTags...) }
func (g PauliX) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubit) }
func (g PauliX) IsParametrized() bool           { return false }

func (g PauliX) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return g, nil }

func (g PauliX) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(g.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubit = q
	return g, nil
}

type PauliY struct {
	Qubit int `json:"qubit"`
}

func (g PauliY) Hqslang() string                { return "PauliY" }
func (g PauliY) Tags() []string                 { return tags(g.Hqslang(), singleGateTags...) }
func (g PauliY) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubit) }
func (g PauliY) IsParametrized() bool           { return false }

func (g PauliY) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return g, nil }

func (g PauliY) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(g.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubit = q
	return g, nil
}

type PauliZ struct {
	Qubit int `json:"qubit"`
}

func (g PauliZ) Hqslang() string                { return "PauliZ" }
func (g PauliZ) Tags() []string                 { return tags(g.Hqslang(), singleGateTags...) }
func (g PauliZ) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubit) }
func (g PauliZ) IsParametrized() bool           { return false }

func (g PauliZ) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return g, nil }

func (g PauliZ) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(g.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubit = q
	return g, nil
}

type SGate struct {
	Qubit int `json:"qubit"`
}

func (g SGate) Hqslang() string                { return "SGate" }
func (g SGate) Tags() []string                 { return tags(g.Hqslang(), singleGateTags...) }
func (g SGate) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubit) }
func (g SGate) IsParametrized() bool           { return false }

func (g SGate) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return g, nil }

func (g SGate) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(g.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubit = q
	return g, nil
}

type TGate struct {
	Qubit int `json:"qubit"`
}

func (g TGate) Hqslang() string                { return "TGate" }
func (g TGate) Tags() []string                 { return tags(g.Hqslang(), singleGateTags...) }
func (g TGate) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubit) }
func (g TGate) IsParametrized() bool           { return false }

func (g TGate) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return g, nil }

func (g TGate) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(g.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubit = q
	return g, nil
}

func remapPair(control, target int, mapping map[int]int) (int, int, error) {
	c, err := remapQubit(control, mapping)
	if err != nil {
		return 0, 0, err
	}
	t, err := remapQubit(target, mapping)
	if err != nil {
		return 0, 0, err
	}
	return c, t, nil
}

type CNOT struct {
	Control int `json:"control"`
	Target  int `json:"target"`
}

func (g CNOT) Hqslang() string                { return "CNOT" }
func (g CNOT) Tags() []string                 { return tags(g.Hqslang(), twoGateTags...) }
func (g CNOT) InvolvedQubits() InvolvedQubits { return QubitSet(g.Control, g.Target) }
func (g CNOT) IsParametrized() bool           { return false }

func (g CNOT) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return g, nil }

func (g CNOT) RemapQubits(mapping map[int]int) (Operation, error) {
	c, t, err := remapPair(g.Control, g.Target, mapping)
	if err != nil {
		return nil, err
	}
	g.Control, g.Target = c, t
	return g, nil
}

type ControlledPauliZ struct {
	Control int `json:"control"`
	Target  int `json:"target"`
}

func (g ControlledPauliZ) Hqslang() string                { return "ControlledPauliZ" }
func (g ControlledPauliZ) Tags() []string                 { return tags(g.Hqslang(), twoGateTags...) }
func (g ControlledPauliZ) InvolvedQubits() InvolvedQubits { return QubitSet(g.Control, g.Target) }
func (g ControlledPauliZ) IsParametrized() bool           { return false }

func (g ControlledPauliZ) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return g, nil
}

func (g ControlledPauliZ) RemapQubits(mapping map[int]int) (Operation, error) {
	c, t, err := remapPair(g.Control, g.Target, mapping)
	if err != nil {
		return nil, err
	}
	g.Control, g.Target = c, t
	return g, nil
}

type SWAP struct {
	Control int `json:"control"`
	Target  int `json:"target"`
}

func (g SWAP) Hqslang() string                { return "SWAP" }
func (g SWAP) Tags() []string                 { return tags(g.Hqslang(), twoGateTags...) }
func (g SWAP) InvolvedQubits() InvolvedQubits { return QubitSet(g.Control, g.Target) }
func (g SWAP) IsParametrized() bool           { return false }

func (g SWAP) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return g, nil }

func (g SWAP) RemapQubits(mapping map[int]int) (Operation, error) {
	c, t, err := remapPair(g.Control, g.Target, mapping)
	if err != nil {
		return nil, err
	}
	g.Control, g.Target = c, t
	return g, nil
}

// ControlledPhaseShift applies PhaseShiftState1(Theta) to Target when
// Control is |1>.
type ControlledPhaseShift struct {
	Control int            `json:"control"`
	Target  int            `json:"target"`
	Theta   symbolic.Value `json:"theta"`
}

func (g ControlledPhaseShift) Hqslang() string { return "ControlledPhaseShift" }
func (g ControlledPhaseShift) Tags() []string {
	return tags(g.Hqslang(), TagGate, TagRotation, TagTwoQubitGate)
}
func (g ControlledPhaseShift) InvolvedQubits() InvolvedQubits { return QubitSet(g.Control, g.Target) }
func (g ControlledPhaseShift) IsParametrized() bool           { return anyExpression(g.Theta) }
func (g ControlledPhaseShift) Angle() symbolic.Value          { return g.Theta }
func (g ControlledPhaseShift) WithAngle(t symbolic.Value) Operation {
	g.Theta = t
	return g
}

func (g ControlledPhaseShift) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	t, err := substituteValue(g.Theta, calc)
	if err != nil {
		return nil, err
	}
	g.Theta = t
	return g, nil
}

func (g ControlledPhaseShift) RemapQubits(mapping map[int]int) (Operation, error) {
	c, t, err := remapPair(g.Control, g.Target, mapping)
	if err != nil {
		return nil, err
	}
	g.Control, g.Target = c, t
	return g, nil
}

// MultiQubitMS is the Mølmer-Sørensen gate on Qubits.
type MultiQubitMS struct {
	Qubits []int          `json:"qubits"`
	Theta  symbolic.Value `json:"theta"`
}

func (g MultiQubitMS) Hqslang() string { return "MultiQubitMS" }
func (g MultiQubitMS) Tags() []string {
	return tags(g.Hqslang(), TagGate, TagRotation, TagMultiQubitGate)
}
func (g MultiQubitMS) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubits...) }
func (g MultiQubitMS) IsParametrized() bool           { return anyExpression(g.Theta) }
func (g MultiQubitMS) Angle() symbolic.Value          { return g.Theta }
func (g MultiQubitMS) WithAngle(t symbolic.Value) Operation {
	g.Qubits = append([]int(nil), g.Qubits...)
	g.Theta = t
	return g
}

func (g MultiQubitMS) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	t, err := substituteValue(g.Theta, calc)
	if err != nil {
		return nil, err
	}
	g.Qubits = append([]int(nil), g.Qubits...)
	g.Theta = t
	return g, nil
}

func (g MultiQubitMS) RemapQubits(mapping map[int]int) (Operation, error) {
	qs, err := remapQubits(g.Qubits, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubits = qs
	return g, nil
}

// MultiQubitZZ applies exp(-i Theta/2 Z...Z) on Qubits.
type MultiQubitZZ struct {
	Qubits []int          `json:"qubits"`
	Theta  symbolic.Value `json:"theta"`
}

func (g MultiQubitZZ) Hqslang() string { return "MultiQubitZZ" }
func (g MultiQubitZZ) Tags() []string {
	return tags(g.Hqslang(), multiGateTags...)
}
func (g MultiQubitZZ) InvolvedQubits() InvolvedQubits { return QubitSet(g.Qubits...) }
func (g MultiQubitZZ) IsParametrized() bool           { return anyExpression(g.Theta) }
func (g MultiQubitZZ) Angle() symbolic.Value          { return g.Theta }
func (g MultiQubitZZ) WithAngle(t symbolic.Value) Operation {
	g.Qubits = append([]int(nil), g.Qubits...)
	g.Theta = t
	return g
}

func (g MultiQubitZZ) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	t, err := substituteValue(g.Theta, calc)
	if err != nil {
		return nil, err
	}
	g.Qubits = append([]int(nil), g.Qubits...)
	g.Theta = t
	return g, nil
}

func (g MultiQubitZZ) RemapQubits(mapping map[int]int) (Operation, error) {
	qs, err := remapQubits(g.Qubits, mapping)
	if err != nil {
		return nil, err
	}
	g.Qubits = qs
	return g, nil
}
