//go:build unit
// +build unit

package measurement

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-qir/common"
	"github.com/oqtopus-team/oqtopus-qir/ir"
	"github.com/oqtopus-team/oqtopus-qir/qerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssetInput(t *testing.T) {
	s, err := common.GetAsset("plus_one_input.json")
	require.Nil(t, err)

	in, err := ParseInput([]byte(s))
	require.Nil(t, err)
	require.Len(t, in.Circuits, 1)
	assert.Nil(t, in.ConstantCircuit)
	assert.Len(t, in.Products, 2)
	assert.Len(t, in.Definitions, 2)
	assert.Equal(t, 6, in.Circuits[0].Len())
	assert.Nil(t, in.Validate())
}

func TestParseInputUnknownOperation(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{
			name: "in a circuit",
			blob: heredoc.Doc(`
				{"circuits": [{"version": "1.0", "operations": [
					{"type": "DefinitionBit", "operation": {"name": "ro", "length": 1, "is_output": true}},
					{"type": "SomeFutureGate", "operation": {"qubit": 0}}
				]}]}`),
		},
		{
			name: "in the constant circuit",
			blob: heredoc.Doc(`
				{"constant_circuit": {"version": "1.0", "operations": [
					{"type": "SomeFutureGate", "operation": {"qubit": 0}}
				]}, "circuits": []}`),
		},
		{
			name: "in a nested circuit",
			blob: heredoc.Doc(`
				{"circuits": [{"version": "1.0", "operations": [
					{"type": "DefinitionBit", "operation": {"name": "c", "length": 1}},
					{"type": "PragmaConditional", "operation": {"condition_register": "c", "condition_index": 0,
						"circuit": {"version": "1.0", "operations": [{"type": "SomeFutureGate", "operation": {}}]}}}
				]}]}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInput([]byte(tt.blob))
			require.NotNil(t, err)
			assert.True(t, errors.Is(err, qerr.ErrUnknownOperation), "got %v", err)
			var ue *qerr.UnknownOperationError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, "SomeFutureGate", ue.Type)
		})
	}
}

func TestValidateChecksCircuits(t *testing.T) {
	in := singleProductInput(t)
	assert.Nil(t, in.Validate())

	in.Circuits[0] = bitCircuit(t, "ro", 1,
		ir.PragmaRepeatedMeasurement{Readout: "ro", NumberMeasurements: 0},
	)
	err := in.Validate()
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "circuit 0")
	assert.Contains(t, err.Error(), "number_measurements must be positive")

	in.Circuits[0] = bitCircuit(t, "ro", 1)
	in.ConstantCircuit = bitCircuit(t, "flag", 1,
		ir.PragmaSetNumberOfMeasurements{Readout: "flag", NumberMeasurements: -1},
	)
	assert.NotNil(t, in.Validate())
}
