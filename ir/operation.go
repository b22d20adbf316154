// Package ir is the intermediate representation of quantum programs: the
// closed set of operations and the Circuit container that orders them and
// keeps the classical register table.
//
// Every transform returns a new value. Operations are never mutated in place,
// so a Circuit can be read from several goroutines at once.
package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oqtopus-team/oqtopus-qir/symbolic"
	"gonum.org/v1/gonum/mat"
)

// Operation is one circuit instruction.
type Operation interface {
	// Hqslang is the unique name of the operation variant.
	Hqslang() string
	Tags() []string
	InvolvedQubits() InvolvedQubits
	IsParametrized() bool
	// SubstituteParameters replaces the variables bound in calc. Unbound
	// variables are left in place.
	SubstituteParameters(calc *symbolic.Calculator) (Operation, error)
	// RemapQubits relabels every qubit index with mapping. A qubit missing
	// from mapping is a QubitMappingError.
	RemapQubits(mapping map[int]int) (Operation, error)
}

// Rotation is a gate with a single rotation angle.
type Rotation interface {
	Operation
	Angle() symbolic.Value
	WithAngle(theta symbolic.Value) Operation
}

// NoiseOperation is a pragma describing a single-qubit noise channel.
type NoiseOperation interface {
	Operation
	// Superoperator is the 4x4 real superoperator of the channel. It fails
	// while a parameter is still symbolic.
	Superoperator() (*mat.Dense, error)
	Probability() symbolic.Value
	PowerCF(power symbolic.Value) Operation
}

const (
	TagOperation               = "Operation"
	TagGate                    = "GateOperation"
	TagSingleQubitGate         = "SingleQubitGateOperation"
	TagTwoQubitGate            = "TwoQubitGateOperation"
	TagMultiQubitGate          = "MultiQubitGateOperation"
	TagRotation                = "Rotation"
	TagDefinition              = "Definition"
	TagMeasurement             = "Measurement"
	TagPragma                  = "PragmaOperation"
	TagPragmaNoise             = "PragmaNoiseOperation"
	TagSingleQubitOperation    = "SingleQubitOperation"
	TagMultiQubitOperation     = "MultiQubitOperation"
	TagPragmaGetMeasurement    = "PragmaGetMeasurement"
	TagPragmaWithNestedCircuit = "PragmaWithNestedCircuit"
)

// HasTag reports whether op carries tag.
func HasTag(op Operation, tag string) bool {
	for _, t := range op.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

func tags(name string, extra ...string) []string {
	out := make([]string, 0, len(extra)+2)
	out = append(out, TagOperation)
	out = append(out, extra...)
	return append(out, name)
}

func substituteValue(v symbolic.Value, calc *symbolic.Calculator) (symbolic.Value, error) {
	return calc.Substitute(v)
}

func anyExpression(values ...symbolic.Value) bool {
	for _, v := range values {
		if !v.IsFloat() {
			return true
		}
	}
	return false
}

func intsString(qs []int) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = fmt.Sprint(q)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func sortedIntKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
