//go:build unit
// +build unit

package measurement

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"github.com/oqtopus-team/oqtopus-qir/ir"
	"github.com/oqtopus-team/oqtopus-qir/mitig"
	"github.com/oqtopus-team/oqtopus-qir/qerr"
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitCircuit(t *testing.T, name string, length int, ops ...ir.Operation) *ir.Circuit {
	all := append([]ir.Operation{ir.DefinitionBit{Name: name, Length: length, IsOutput: true}}, ops...)
	c, err := ir.NewCircuitFromOperations(all...)
	require.Nil(t, err)
	return c
}

func column(bits ...bool) [][]bool {
	rows := make([][]bool, len(bits))
	for i, b := range bits {
		rows[i] = []bool{b}
	}
	return rows
}

func singleProductInput(t *testing.T) *Input {
	return &Input{
		Circuits: []*ir.Circuit{bitCircuit(t, "ro", 1)},
		Products: []PauliProduct{{Circuit: 0, Readout: "ro", Slots: []int{0}}},
		Definitions: []Definition{{
			Name:  "z0",
			Kind:  KindPauliProduct,
			Terms: []Term{{Product: 0, Coefficient: symbolic.Float(1)}},
		}},
	}
}

func TestRawParityAverage(t *testing.T) {
	in := singleProductInput(t)
	regs := core.NewRegisters()
	regs.Bits["ro"] = column(true, false, false, true, true)

	got, err := NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
	require.Nil(t, err)
	assert.Equal(t, Results{"z0": complex(-0.2, 0)}, got)
}

func TestParityOverSeveralSlots(t *testing.T) {
	in := &Input{
		Circuits: []*ir.Circuit{bitCircuit(t, "ro", 3)},
		Products: []PauliProduct{
			{Circuit: 0, Readout: "ro", Slots: []int{0, 2}},
			{Circuit: 0, Readout: "ro", Slots: []int{0, 2}, Flipped: []bool{false, true}},
		},
		Definitions: []Definition{
			{Name: "zz", Kind: KindPauliProduct, Terms: []Term{{Product: 0, Coefficient: symbolic.Float(1)}}},
			{Name: "zz_flipped", Kind: KindPauliProduct, Terms: []Term{{Product: 1, Coefficient: symbolic.Float(1)}}},
			{Name: "sum", Kind: KindPauliProduct, Terms: []Term{
				{Product: 0, Coefficient: symbolic.Float(0.5)},
				{Product: 1, Coefficient: symbolic.Float(-2)},
			}},
		},
	}
	regs := core.NewRegisters()
	regs.Bits["ro"] = [][]bool{
		{true, true, true},   // parity even
		{true, false, false}, // odd
		{false, true, false}, // even
		{false, false, true}, // odd
	}
	got, err := NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
	require.Nil(t, err)
	assert.Equal(t, complex(0, 0), got["zz"])
	assert.Equal(t, complex(0, 0), got["zz_flipped"])

	regs.Bits["ro"] = [][]bool{{true, false, true}, {false, false, false}}
	got, err = NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
	require.Nil(t, err)
	assert.Equal(t, complex(1, 0), got["zz"])
	assert.Equal(t, complex(-1, 0), got["zz_flipped"])
	assert.Equal(t, complex(2.5, 0), got["sum"])
}

func TestIdentityCalibrationMatchesRaw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bits := make([]bool, 200)
	for i := range bits {
		bits[i] = rng.Intn(3) == 0
	}
	regs := core.NewRegisters()
	regs.Bits["ro"] = column(bits...)

	raw, err := NewEvaluator().Evaluate(context.Background(), singleProductInput(t), []*core.Registers{regs}, nil)
	require.Nil(t, err)

	in := singleProductInput(t)
	in.Calibrations = map[string]*mitig.Calibration{"ro": mitig.Identity(1)}
	calibrated, err := NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
	require.Nil(t, err)
	assert.InDelta(t, real(raw["z0"]), real(calibrated["z0"]), 1e-12)
}

func TestCalibrationCorrectsReadout(t *testing.T) {
	cal, err := mitig.NewCalibrationFromMeasErrors([]core.MeasError{{ProbMeas1Prep0: 0.1, ProbMeas0Prep1: 0.2}})
	require.Nil(t, err)
	in := singleProductInput(t)
	in.Calibrations = map[string]*mitig.Calibration{"ro": cal}

	// a qubit in |1> read with a 20% chance of flipping to 0
	regs := core.NewRegisters()
	regs.Bits["ro"] = column(false, false, true, true, true, true, true, true, true, true)
	got, err := NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
	require.Nil(t, err)
	assert.InDelta(t, -1.0, real(got["z0"]), 1e-9)
	assert.InDelta(t, 0.0, imag(got["z0"]), 1e-12)
}

func TestCheatedDefinition(t *testing.T) {
	in := &Input{
		Circuits: []*ir.Circuit{bitCircuit(t, "ro", 1)},
		Definitions: []Definition{
			{Name: "amp", Kind: KindCheated, Circuit: 0, Readout: "amp"},
			{Name: "energy", Kind: KindCheated, Circuit: 0, Readout: "energies", Row: 1, Index: 2},
		},
	}
	regs := core.NewRegisters()
	regs.Bits["ro"] = column(true, true)
	regs.Complexes["amp"] = []ir.ComplexArray{{complex(0.5, 0)}}
	regs.Floats["energies"] = [][]float64{{9, 9, 9}, {1, 2, -1.25}}

	got, err := NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
	require.Nil(t, err)
	assert.Equal(t, complex(0.5, 0), got["amp"])
	assert.Equal(t, complex(-1.25, 0), got["energy"])
}

func TestCheatedRowAgainstDeclaredLength(t *testing.T) {
	c, err := ir.NewCircuitFromOperations(
		ir.DefinitionBit{Name: "ro", Length: 1, IsOutput: true},
		ir.DefinitionComplex{Name: "amp", Length: 2, IsOutput: true},
		ir.DefinitionFloat{Name: "energies", Length: 3, IsOutput: true},
	)
	require.Nil(t, err)
	tests := []struct {
		name      string
		complexes []ir.ComplexArray
		floats    [][]float64
		wantErr   bool
	}{
		{name: "declared lengths", complexes: []ir.ComplexArray{{0.5, 0.25}}, floats: [][]float64{{1, 2, 3}}},
		{name: "short complex row", complexes: []ir.ComplexArray{{0.5}}, floats: [][]float64{{1, 2, 3}}, wantErr: true},
		{name: "long float row", complexes: []ir.ComplexArray{{0.5, 0.25}}, floats: [][]float64{{1, 2, 3, 4}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &Input{
				Circuits: []*ir.Circuit{c},
				Definitions: []Definition{
					{Name: "amp0", Kind: KindCheated, Readout: "amp"},
					{Name: "e0", Kind: KindCheated, Readout: "energies"},
				},
			}
			regs := core.NewRegisters()
			regs.Complexes["amp"] = tt.complexes
			regs.Floats["energies"] = tt.floats

			got, err := NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
			if !tt.wantErr {
				require.Nil(t, err)
				assert.Equal(t, complex(0.5, 0), got["amp0"])
				assert.Equal(t, complex(1, 0), got["e0"])
				return
			}
			assert.Nil(t, got)
			var me *qerr.MalformedRegisterError
			require.True(t, errors.As(err, &me), "got %v", err)
			assert.Contains(t, me.Reason, "declared length")
		})
	}
}

func TestCheatedOperator(t *testing.T) {
	h := 1 / math.Sqrt2
	pauliX := []OperatorEntry{{Row: 0, Col: 1, Re: 1}, {Row: 1, Col: 0, Re: 1}}
	pauliZ := []OperatorEntry{{Row: 0, Col: 0, Re: 1}, {Row: 1, Col: 1, Re: -1}}
	in := &Input{
		Circuits: []*ir.Circuit{bitCircuit(t, "ro", 1)},
		Definitions: []Definition{
			{Name: "x_state", Kind: KindCheatedOperator, Readout: "psi", Operator: pauliX, Dimension: 2},
			{Name: "z_state", Kind: KindCheatedOperator, Readout: "psi", Operator: pauliZ, Dimension: 2},
			{Name: "x_density", Kind: KindCheatedOperator, Readout: "rho", Operator: pauliX, Dimension: 2},
			{Name: "z_density", Kind: KindCheatedOperator, Readout: "rho", Operator: pauliZ, Dimension: 2},
		},
	}
	regs := core.NewRegisters()
	regs.Complexes["psi"] = []ir.ComplexArray{{complex(h, 0), complex(h, 0)}}
	regs.Complexes["rho"] = []ir.ComplexArray{{1, 0, 0, 0}}

	got, err := NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
	require.Nil(t, err)
	assert.InDelta(t, 1.0, real(got["x_state"]), 1e-12)
	assert.InDelta(t, 0.0, real(got["z_state"]), 1e-12)
	assert.InDelta(t, 0.0, real(got["x_density"]), 1e-12)
	assert.InDelta(t, 1.0, real(got["z_density"]), 1e-12)

	regs.Complexes["psi"] = []ir.ComplexArray{{1, 0, 0}}
	_, err = NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
	assert.True(t, errors.Is(err, qerr.ErrMalformedRegister))
}

func TestSymbolicCoefficients(t *testing.T) {
	in := singleProductInput(t)
	in.Definitions = []Definition{
		{Name: "scaled", Kind: KindPauliProduct, Terms: []Term{{Product: 0, Coefficient: symbolic.Expression("2 * theta")}}},
		{Name: "from_register", Kind: KindPauliProduct, Terms: []Term{{Product: 0, Coefficient: symbolic.Expression("angle_1 * 4")}}},
	}
	regs := core.NewRegisters()
	regs.Bits["ro"] = column(false, false)
	regs.Floats["angle"] = [][]float64{{0, 0.25}}

	got, err := NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, map[string]float64{"theta": 0.5})
	require.Nil(t, err)
	assert.InDelta(t, 1.0, real(got["scaled"]), 1e-12)
	assert.InDelta(t, 1.0, real(got["from_register"]), 1e-12)

	got, err = NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
	assert.Nil(t, got)
	var se *qerr.SymbolicResolutionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"theta"}, se.Unresolved)
}

func TestEvaluationFailuresAreAtomic(t *testing.T) {
	good := core.NewRegisters()
	good.Bits["ro"] = column(true)

	missing := core.NewRegisters()
	missing.Bits["other"] = column(true)

	malformed := core.NewRegisters()
	malformed.Bits["ro"] = [][]bool{{true}, {true, false}}

	empty := core.NewRegisters()
	empty.Bits["ro"] = [][]bool{}

	tests := []struct {
		name    string
		outputs []*core.Registers
		want    error
	}{
		{name: "missing register", outputs: []*core.Registers{missing}, want: qerr.ErrMissingRegister},
		{name: "nil outputs", outputs: []*core.Registers{nil}, want: qerr.ErrMissingRegister},
		{name: "row length", outputs: []*core.Registers{malformed}, want: qerr.ErrMalformedRegister},
		{name: "no shots", outputs: []*core.Registers{empty}, want: qerr.ErrMalformedRegister},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := singleProductInput(t)
			in.Definitions = append(in.Definitions, Definition{
				Name: "a_cheated", Kind: KindCheated, Readout: "ro_amp",
			})
			if tt.outputs[0] != nil {
				tt.outputs[0].Complexes["ro_amp"] = []ir.ComplexArray{{1}}
			}
			got, err := NewEvaluator().Evaluate(context.Background(), in, tt.outputs, nil)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := NewEvaluator().Evaluate(context.Background(), singleProductInput(t), []*core.Registers{good, good}, nil)
	assert.EqualError(t, err, "expected registers of 1 circuits, got 2")
}

func TestHadamardStatistics(t *testing.T) {
	const shots = 1000
	rng := rand.New(rand.NewSource(42))
	bits := make([]bool, shots)
	for i := range bits {
		bits[i] = rng.Intn(2) == 1
	}
	in := &Input{
		Circuits: []*ir.Circuit{bitCircuit(t, "M1", 1, ir.Hadamard{Qubit: 0}, ir.MeasureQubit{Qubit: 0, Readout: "M1", ReadoutIndex: 0})},
		Products: []PauliProduct{{Circuit: 0, Readout: "M1", Slots: []int{0}}},
		Definitions: []Definition{{
			Name:  "z",
			Kind:  KindPauliProduct,
			Terms: []Term{{Product: 0, Coefficient: symbolic.Float(1)}},
		}},
	}
	regs := core.NewRegisters()
	regs.Bits["M1"] = column(bits...)
	got, err := NewEvaluator().Evaluate(context.Background(), in, []*core.Registers{regs}, nil)
	require.Nil(t, err)
	assert.InDelta(t, 0.0, real(got["z"]), 5/math.Sqrt(shots))
}
