package ir

import (
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
)

type RegisterType string

const (
	BitRegister     RegisterType = "bit"
	FloatRegister   RegisterType = "float"
	ComplexRegister RegisterType = "complex"
)

// Register is one entry of a circuit's register table.
type Register struct {
	Name     string       `json:"name"`
	Type     RegisterType `json:"type"`
	Length   int          `json:"length"`
	IsOutput bool         `json:"is_output"`
}

// Declaration is implemented by the operations that declare a classical
// register.
type Declaration interface {
	Operation
	Register() Register
}

var definitionTags = []string{TagDefinition}

// DefinitionBit declares a bit register.
type DefinitionBit struct {
	Name     string `json:"name"`
	Length   int    `json:"length"`
	IsOutput bool   `json:"is_output"`
}

func (d DefinitionBit) Hqslang() string                { return "DefinitionBit" }
func (d DefinitionBit) Tags() []string                 { return tags(d.Hqslang(), definitionTags...) }
func (d DefinitionBit) InvolvedQubits() InvolvedQubits { return NoQubits() }
func (d DefinitionBit) IsParametrized() bool           { return false }
func (d DefinitionBit) Register() Register {
	return Register{Name: d.Name, Type: BitRegister, Length: d.Length, IsOutput: d.IsOutput}
}

func (d DefinitionBit) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return d, nil }
func (d DefinitionBit) RemapQubits(map[int]int) (Operation, error)                  { return d, nil }

// DefinitionFloat declares a float register.
type DefinitionFloat struct {
	Name     string `json:"name"`
	Length   int    `json:"length"`
	IsOutput bool   `json:"is_output"`
}

func (d DefinitionFloat) Hqslang() string                { return "DefinitionFloat" }
func (d DefinitionFloat) Tags() []string                 { return tags(d.Hqslang(), definitionTags...) }
func (d DefinitionFloat) InvolvedQubits() InvolvedQubits { return NoQubits() }
func (d DefinitionFloat) IsParametrized() bool           { return false }
func (d DefinitionFloat) Register() Register {
	return Register{Name: d.Name, Type: FloatRegister, Length: d.Length, IsOutput: d.IsOutput}
}

func (d DefinitionFloat) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return d, nil }
func (d DefinitionFloat) RemapQubits(map[int]int) (Operation, error)                  { return d, nil }

// DefinitionComplex declares a complex register.
type DefinitionComplex struct {
	Name     string `json:"name"`
	Length   int    `json:"length"`
	IsOutput bool   `json:"is_output"`
}

func (d DefinitionComplex) Hqslang() string                { return "DefinitionComplex" }
func (d DefinitionComplex) Tags() []string                 { return tags(d.Hqslang(), definitionTags...) }
func (d DefinitionComplex) InvolvedQubits() InvolvedQubits { return NoQubits() }
func (d DefinitionComplex) IsParametrized() bool           { return false }
func (d DefinitionComplex) Register() Register {
	return Register{Name: d.Name, Type: ComplexRegister, Length: d.Length, IsOutput: d.IsOutput}
}

func (d DefinitionComplex) SubstituteParameters(*symbolic.Calculator) (Operation, error) {
	return d, nil
}
func (d DefinitionComplex) RemapQubits(map[int]int) (Operation, error) { return d, nil }

// InputSymbolic gives the symbolic variable Name the value Input for the
// whole circuit.
type InputSymbolic struct {
	Name  string  `json:"name"`
	Input float64 `json:"input"`
}

func (d InputSymbolic) Hqslang() string                { return "InputSymbolic" }
func (d InputSymbolic) Tags() []string                 { return tags(d.Hqslang(), definitionTags...) }
func (d InputSymbolic) InvolvedQubits() InvolvedQubits { return NoQubits() }
func (d InputSymbolic) IsParametrized() bool           { return false }

func (d InputSymbolic) SubstituteParameters(*symbolic.Calculator) (Operation, error) { return d, nil }
func (d InputSymbolic) RemapQubits(map[int]int) (Operation, error)                  { return d, nil }
