//go:build unit
// +build unit

package qerr

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorClasses(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		msg      string
	}{
		{
			name:     "register conflict",
			err:      &RegisterConflictError{Name: "ro", Reason: "declared twice"},
			sentinel: ErrRegisterConflict,
			msg:      `register conflict on "ro": declared twice`,
		},
		{
			name:     "qubit mapping",
			err:      &QubitMappingError{Qubit: 3},
			sentinel: ErrQubitMapping,
			msg:      "qubit 3 has no entry in the qubit mapping",
		},
		{
			name:     "symbolic resolution",
			err:      &SymbolicResolutionError{Expression: "a + b", Unresolved: []string{"b", "a"}},
			sentinel: ErrSymbolicResolution,
			msg:      `failed to resolve "a + b": unresolved variables [a, b]`,
		},
		{
			name:     "undeclared register",
			err:      &MissingRegisterError{Circuit: -1, Name: "ro"},
			sentinel: ErrMissingRegister,
			msg:      `register "ro" is not declared`,
		},
		{
			name:     "missing output",
			err:      &MissingRegisterError{Circuit: 2, Name: "ro"},
			sentinel: ErrMissingRegister,
			msg:      `register "ro" is missing from the outputs of circuit 2`,
		},
		{
			name:     "malformed row",
			err:      &MalformedRegisterError{Circuit: 0, Name: "ro", Row: 4, Reason: "3 bits, declared length 2"},
			sentinel: ErrMalformedRegister,
			msg:      `register "ro" of circuit 0 is malformed at row 4: 3 bits, declared length 2`,
		},
		{
			name:     "malformed register",
			err:      &MalformedRegisterError{Circuit: 1, Name: "ro", Row: -1, Reason: "no shots"},
			sentinel: ErrMalformedRegister,
			msg:      `register "ro" of circuit 1 is malformed: no shots`,
		},
		{
			name:     "unknown operation",
			err:      &UnknownOperationError{Type: "Teleport"},
			sentinel: ErrUnknownOperation,
			msg:      `unknown operation type "Teleport"`,
		},
		{
			name:     "schema version",
			err:      &SchemaVersionError{Got: "2.0", Supported: "1.0"},
			sentinel: ErrSchemaVersion,
			msg:      "schema version 2.0 is newer than supported version 1.0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.msg)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.True(t, errors.Is(errors.Wrap(tt.err, "outer"), tt.sentinel))
		})
	}
}

func TestBackendExecutionErrorKeepsCause(t *testing.T) {
	cause := errors.New("device is offline")
	err := error(&BackendExecutionError{Circuit: 1, Err: cause})
	assert.EqualError(t, err, "failed to execute circuit 1: device is offline")
	assert.True(t, errors.Is(err, ErrBackendExecution))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrMissingRegister))
}
