// Package qerr defines the error classes shared by the circuit IR, the
// symbolic layer and the measurement evaluator.
package qerr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-faster/errors"
)

// Sentinels for matching a whole class with errors.Is.
var (
	ErrRegisterConflict   = errors.New("register conflict")
	ErrQubitMapping       = errors.New("qubit mapping")
	ErrSymbolicResolution = errors.New("symbolic resolution")
	ErrMissingRegister    = errors.New("missing register")
	ErrMalformedRegister  = errors.New("malformed register")
	ErrUnknownOperation   = errors.New("unknown operation")
	ErrBackendExecution   = errors.New("backend execution")
	ErrSchemaVersion      = errors.New("schema version")
)

// RegisterConflictError is returned at construction time when a register is
// redeclared, or when an operation references a register inconsistently.
type RegisterConflictError struct {
	Name   string
	Reason string
}

func (e *RegisterConflictError) Error() string {
	return fmt.Sprintf("register conflict on %q: %s", e.Name, e.Reason)
}

func (e *RegisterConflictError) Is(target error) bool { return target == ErrRegisterConflict }

// QubitMappingError reports a qubit that has no entry in a remapping.
type QubitMappingError struct {
	Qubit int
}

func (e *QubitMappingError) Error() string {
	return fmt.Sprintf("qubit %d has no entry in the qubit mapping", e.Qubit)
}

func (e *QubitMappingError) Is(target error) bool { return target == ErrQubitMapping }

// SymbolicResolutionError reports an expression that could not be parsed or
// that still holds free variables when a number was required.
type SymbolicResolutionError struct {
	Expression string
	Unresolved []string
	Err        error
}

func (e *SymbolicResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to resolve %q", e.Expression)
	if len(e.Unresolved) > 0 {
		vars := append([]string(nil), e.Unresolved...)
		sort.Strings(vars)
		fmt.Fprintf(&b, ": unresolved variables [%s]", strings.Join(vars, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %s", e.Err)
	}
	return b.String()
}

func (e *SymbolicResolutionError) Unwrap() error { return e.Err }

func (e *SymbolicResolutionError) Is(target error) bool { return target == ErrSymbolicResolution }

// MissingRegisterError reports a register that an evaluation needs but the
// raw outputs of a circuit do not contain.
type MissingRegisterError struct {
	Circuit int
	Name    string
}

func (e *MissingRegisterError) Error() string {
	if e.Circuit < 0 {
		return fmt.Sprintf("register %q is not declared", e.Name)
	}
	return fmt.Sprintf("register %q is missing from the outputs of circuit %d", e.Name, e.Circuit)
}

func (e *MissingRegisterError) Is(target error) bool { return target == ErrMissingRegister }

// MalformedRegisterError reports raw register data inconsistent with its
// declaration.
type MalformedRegisterError struct {
	Circuit int
	Name    string
	Row     int
	Reason  string
}

func (e *MalformedRegisterError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("register %q of circuit %d is malformed: %s", e.Name, e.Circuit, e.Reason)
	}
	return fmt.Sprintf("register %q of circuit %d is malformed at row %d: %s",
		e.Name, e.Circuit, e.Row, e.Reason)
}

func (e *MalformedRegisterError) Is(target error) bool { return target == ErrMalformedRegister }

// UnknownOperationError is returned when a serialized operation names a
// variant that is not registered.
type UnknownOperationError struct {
	Type string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation type %q", e.Type)
}

func (e *UnknownOperationError) Is(target error) bool { return target == ErrUnknownOperation }

// BackendExecutionError wraps a backend failure for one circuit. The original
// error is kept untouched and reachable through Unwrap.
type BackendExecutionError struct {
	Circuit int
	Err     error
}

func (e *BackendExecutionError) Error() string {
	return fmt.Sprintf("failed to execute circuit %d: %s", e.Circuit, e.Err)
}

func (e *BackendExecutionError) Unwrap() error { return e.Err }

func (e *BackendExecutionError) Is(target error) bool { return target == ErrBackendExecution }

// SchemaVersionError is returned when a serialized circuit was written by a
// newer, incompatible schema.
type SchemaVersionError struct {
	Got       string
	Supported string
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("schema version %s is newer than supported version %s", e.Got, e.Supported)
}

func (e *SchemaVersionError) Is(target error) bool { return target == ErrSchemaVersion }
