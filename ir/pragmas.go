package ir

import (
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
)

var (
	pragmaTags       = []string{TagPragma}
	pragmaSingleTags = []string{TagSingleQubitOperation, TagPragma}
	pragmaMultiTags  = []string{TagMultiQubitOperation, TagPragma}
)

// PragmaSetNumberOfMeasurements sets the number of shots a backend runs
// for the register Readout.
type PragmaSetNumberOfMeasurements struct {
	NumberMeasurements int    `json:"number_measurements"`
	Readout            string `json:"readout"`
}

func (p PragmaSetNumberOfMeasurements) Hqslang() string { return "PragmaSetNumberOfMeasurements" }
func (p PragmaSetNumberOfMeasurements) Tags() []string  { return tags(p.Hqslang(), pragmaTags...) }
func (p PragmaSetNumberOfMeasurements) InvolvedQubits() InvolvedQubits {
	return NoQubits()
}
func (p PragmaSetNumberOfMeasurements) IsParametrized() bool { return false }

func (p PragmaSetNumberOfMeasurements) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return p, nil
}
func (p PragmaSetNumberOfMeasurements) RemapQubits(map[int]int) (Operation, error) { return p, nil }

// PragmaSetStateVector replaces the state of the register.
type PragmaSetStateVector struct {
	StateVector ComplexArray `json:"statevector"`
}

func (p PragmaSetStateVector) Hqslang() string                { return "PragmaSetStateVector" }
func (p PragmaSetStateVector) Tags() []string                 { return tags(p.Hqslang(), pragmaTags...) }
func (p PragmaSetStateVector) InvolvedQubits() InvolvedQubits { return AllQubits() }
func (p PragmaSetStateVector) IsParametrized() bool           { return false }

func (p PragmaSetStateVector) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return p, nil
}
func (p PragmaSetStateVector) RemapQubits(map[int]int) (Operation, error) { return p, nil }

// PragmaSetDensityMatrix replaces the density matrix of the register.
type PragmaSetDensityMatrix struct {
	DensityMatrix ComplexMatrix `json:"density_matrix"`
}

func (p PragmaSetDensityMatrix) Hqslang() string                { return "PragmaSetDensityMatrix" }
func (p PragmaSetDensityMatrix) Tags() []string                 { return tags(p.Hqslang(), pragmaTags...) }
func (p PragmaSetDensityMatrix) InvolvedQubits() InvolvedQubits { return AllQubits() }
func (p PragmaSetDensityMatrix) IsParametrized() bool           { return false }

func (p PragmaSetDensityMatrix) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return p, nil
}
func (p PragmaSetDensityMatrix) RemapQubits(map[int]int) (Operation, error) { return p, nil }

// PragmaRepeatGate repeats the next gate RepetitionCoefficient times.
type PragmaRepeatGate struct {
	RepetitionCoefficient int `json:"repetition_coefficient"`
}

func (p PragmaRepeatGate) Hqslang() string                { return "PragmaRepeatGate" }
func (p PragmaRepeatGate) Tags() []string                 { return tags(p.Hqslang(), pragmaTags...) }
func (p PragmaRepeatGate) InvolvedQubits() InvolvedQubits { return AllQubits() }
func (p PragmaRepeatGate) IsParametrized() bool           { return false }

func (p PragmaRepeatGate) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return p, nil
}
func (p PragmaRepeatGate) RemapQubits(map[int]int) (Operation, error) { return p, nil }

// PragmaOverrotation adds a random overrotation to the next gate named
// GateHqslang acting on Qubits. See Circuit.Overrotate.
type PragmaOverrotation struct {
	GateHqslang string  `json:"gate_hqslang"`
	Qubits      []int   `json:"qubits"`
	Amplitude   float64 `json:"amplitude"`
	Variance    float64 `json:"variance"`
}

func (p PragmaOverrotation) Hqslang() string                { return "PragmaOverrotation" }
func (p PragmaOverrotation) Tags() []string                 { return tags(p.Hqslang(), pragmaMultiTags...) }
func (p PragmaOverrotation) InvolvedQubits() InvolvedQubits { return QubitSet(p.Qubits...) }
func (p PragmaOverrotation) IsParametrized() bool           { return false }

func (p PragmaOverrotation) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return p, nil
}

func (p PragmaOverrotation) RemapQubits(mapping map[int]int) (Operation, error) {
	qs, err := remapQubits(p.Qubits, mapping)
	if err != nil {
		return nil, err
	}
	p.Qubits = qs
	return p, nil
}

// PragmaBoostNoise multiplies gate times by NoiseCoefficient.
type PragmaBoostNoise struct {
	NoiseCoefficient symbolic.Value `json:"noise_coefficient"`
}

func (p PragmaBoostNoise) Hqslang() string                { return "PragmaBoostNoise" }
func (p PragmaBoostNoise) Tags() []string                 { return tags(p.Hqslang(), pragmaTags...) }
func (p PragmaBoostNoise) InvolvedQubits() InvolvedQubits { return NoQubits() }
func (p PragmaBoostNoise) IsParametrized() bool           { return anyExpression(p.NoiseCoefficient) }

func (p PragmaBoostNoise) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	v, err := substituteValue(p.NoiseCoefficient, calc)
	if err != nil {
		return nil, err
	}
	p.NoiseCoefficient = v
	return p, nil
}
func (p PragmaBoostNoise) RemapQubits(map[int]int) (Operation, error) { return p, nil }

// PragmaStopParallelBlock ends a block of gates executed in parallel.
type PragmaStopParallelBlock struct {
	Qubits        []int          `json:"qubits"`
	ExecutionTime symbolic.Value `json:"execution_time"`
}

func (p PragmaStopParallelBlock) Hqslang() string { return "PragmaStopParallelBlock" }
func (p PragmaStopParallelBlock) Tags() []string  { return tags(p.Hqslang(), pragmaMultiTags...) }
func (p PragmaStopParallelBlock) InvolvedQubits() InvolvedQubits {
	return QubitSet(p.Qubits...)
}
func (p PragmaStopParallelBlock) IsParametrized() bool { return anyExpression(p.ExecutionTime) }

func (p PragmaStopParallelBlock) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	v, err := substituteValue(p.ExecutionTime, calc)
	if err != nil {
		return nil, err
	}
	p.Qubits = append([]int(nil), p.Qubits...)
	p.ExecutionTime = v
	return p, nil
}

func (p PragmaStopParallelBlock) RemapQubits(mapping map[int]int) (Operation, error) {
	qs, err := remapQubits(p.Qubits, mapping)
	if err != nil {
		return nil, err
	}
	p.Qubits = qs
	return p, nil
}

// PragmaGlobalPhase records a global phase picked up by the register.
type PragmaGlobalPhase struct {
	Phase symbolic.Value `json:"phase"`
}

func (p PragmaGlobalPhase) Hqslang() string                { return "PragmaGlobalPhase" }
func (p PragmaGlobalPhase) Tags() []string                 { return tags(p.Hqslang(), pragmaTags...) }
func (p PragmaGlobalPhase) InvolvedQubits() InvolvedQubits { return NoQubits() }
func (p PragmaGlobalPhase) IsParametrized() bool           { return anyExpression(p.Phase) }

func (p PragmaGlobalPhase) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	v, err := substituteValue(p.Phase, calc)
	if err != nil {
		return nil, err
	}
	p.Phase = v
	return p, nil
}
func (p PragmaGlobalPhase) RemapQubits(map[int]int) (Operation, error) { return p, nil }

// PragmaSleep idles Qubits for SleepTime seconds.
type PragmaSleep struct {
	Qubits    []int          `json:"qubits"`
	SleepTime symbolic.Value `json:"sleep_time"`
}

func (p PragmaSleep) Hqslang() string                { return "PragmaSleep" }
func (p PragmaSleep) Tags() []string                 { return tags(p.Hqslang(), pragmaMultiTags...) }
func (p PragmaSleep) InvolvedQubits() InvolvedQubits { return QubitSet(p.Qubits...) }
func (p PragmaSleep) IsParametrized() bool           { return anyExpression(p.SleepTime) }

func (p PragmaSleep) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	v, err := substituteValue(p.SleepTime, calc)
	if err != nil {
		return nil, err
	}
	p.Qubits = append([]int(nil), p.Qubits...)
	p.SleepTime = v
	return p, nil
}

func (p PragmaSleep) RemapQubits(mapping map[int]int) (Operation, error) {
	qs, err := remapQubits(p.Qubits, mapping)
	if err != nil {
		return nil, err
	}
	p.Qubits = qs
	return p, nil
}

// PragmaActiveReset resets Qubit to |0>.
type PragmaActiveReset struct {
	Qubit int `json:"qubit"`
}

func (p PragmaActiveReset) Hqslang() string                { return "PragmaActiveReset" }
func (p PragmaActiveReset) Tags() []string                 { return tags(p.Hqslang(), pragmaSingleTags...) }
func (p PragmaActiveReset) InvolvedQubits() InvolvedQubits { return QubitSet(p.Qubit) }
func (p PragmaActiveReset) IsParametrized() bool           { return false }

func (p PragmaActiveReset) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return p, nil
}

func (p PragmaActiveReset) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(p.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	p.Qubit = q
	return p, nil
}

// PragmaStartDecompositionBlock opens a decomposition block. The reordering
// dictionary is relabeled on both sides by RemapQubits.
type PragmaStartDecompositionBlock struct {
	Qubits               []int       `json:"qubits"`
	ReorderingDictionary map[int]int `json:"reordering_dictionary"`
}

func (p PragmaStartDecompositionBlock) Hqslang() string { return "PragmaStartDecompositionBlock" }
func (p PragmaStartDecompositionBlock) Tags() []string {
	return tags(p.Hqslang(), pragmaMultiTags...)
}
func (p PragmaStartDecompositionBlock) InvolvedQubits() InvolvedQubits {
	return QubitSet(p.Qubits...)
}
func (p PragmaStartDecompositionBlock) IsParametrized() bool { return false }

func (p PragmaStartDecompositionBlock) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return p, nil
}

func (p PragmaStartDecompositionBlock) RemapQubits(mapping map[int]int) (Operation, error) {
	qs, err := remapQubits(p.Qubits, mapping)
	if err != nil {
		return nil, err
	}
	var reordering map[int]int
	if p.ReorderingDictionary != nil {
		reordering = make(map[int]int, len(p.ReorderingDictionary))
		for _, from := range sortedIntKeys(p.ReorderingDictionary) {
			to := p.ReorderingDictionary[from]
			newFrom, err := remapQubit(from, mapping)
			if err != nil {
				return nil, err
			}
			newTo, err := remapQubit(to, mapping)
			if err != nil {
				return nil, err
			}
			reordering[newFrom] = newTo
		}
	}
	p.Qubits = qs
	p.ReorderingDictionary = reordering
	return p, nil
}

// PragmaStopDecompositionBlock closes a decomposition block.
type PragmaStopDecompositionBlock struct {
	Qubits []int `json:"qubits"`
}

func (p PragmaStopDecompositionBlock) Hqslang() string { return "PragmaStopDecompositionBlock" }
func (p PragmaStopDecompositionBlock) Tags() []string {
	return tags(p.Hqslang(), pragmaMultiTags...)
}
func (p PragmaStopDecompositionBlock) InvolvedQubits() InvolvedQubits {
	return QubitSet(p.Qubits...)
}
func (p PragmaStopDecompositionBlock) IsParametrized() bool { return false }

func (p PragmaStopDecompositionBlock) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return p, nil
}

func (p PragmaStopDecompositionBlock) RemapQubits(mapping map[int]int) (Operation, error) {
	qs, err := remapQubits(p.Qubits, mapping)
	if err != nil {
		return nil, err
	}
	p.Qubits = qs
	return p, nil
}

// PragmaConditional runs Circuit when slot ConditionIndex of the bit
// register ConditionRegister is set.
type PragmaConditional struct {
	ConditionRegister string   `json:"condition_register"`
	ConditionIndex    int      `json:"condition_index"`
	Circuit           *Circuit `json:"circuit"`
}

func (p PragmaConditional) Hqslang() string { return "PragmaConditional" }
func (p PragmaConditional) Tags() []string {
	return tags(p.Hqslang(), TagSingleQubitOperation, TagPragma, TagPragmaWithNestedCircuit)
}

func (p PragmaConditional) InvolvedQubits() InvolvedQubits {
	if p.Circuit == nil {
		return NoQubits()
	}
	return p.Circuit.InvolvedQubits()
}
func (p PragmaConditional) IsParametrized() bool { return nestedParametrized(p.Circuit) }

func (p PragmaConditional) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	c, err := substituteNested(p.Circuit, calc)
	if err != nil {
		return nil, err
	}
	p.Circuit = c
	return p, nil
}

func (p PragmaConditional) RemapQubits(mapping map[int]int) (Operation, error) {
	c, err := remapNested(p.Circuit, mapping)
	if err != nil {
		return nil, err
	}
	p.Circuit = c
	return p, nil
}
