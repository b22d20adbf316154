package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	jsoniter "github.com/json-iterator/go"
	"github.com/oqtopus-team/oqtopus-qir/qerr"
	"go.uber.org/zap"
)

// SchemaVersion is written into every serialized circuit. A reader accepts
// any blob whose major version is not newer than its own.
const SchemaVersion = "1.0"

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodeFunc decodes the body of an operation envelope.
type DecodeFunc func(body []byte) (Operation, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]DecodeFunc{}
)

func decoderFor[T Operation]() DecodeFunc {
	return func(body []byte) (Operation, error) {
		var op T
		if err := jsonIter.Unmarshal(body, &op); err != nil {
			return nil, err
		}
		return op, nil
	}
}

// nestedDecoder decodes an operation carrying a nested circuit under the
// "circuit" key. The circuit is decoded by DecodeCircuit so that its typed
// errors reach the caller unflattened.
func nestedDecoder[T Operation](set func(*T, *Circuit)) DecodeFunc {
	return func(body []byte) (Operation, error) {
		rest, fields, err := ExtractFields(body, "circuit")
		if err != nil {
			return nil, err
		}
		var op T
		if err := jsonIter.Unmarshal(rest, &op); err != nil {
			return nil, err
		}
		if raw, ok := fields["circuit"]; ok {
			c, err := DecodeCircuit(raw)
			if err != nil {
				return nil, err
			}
			set(&op, c)
		}
		return op, nil
	}
}

// ExtractFields splits the JSON object data into the raw values of names
// and an object holding every other field. A null value counts as absent.
func ExtractFields(data []byte, names ...string) ([]byte, map[string][]byte, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	fields := make(map[string][]byte)
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	d := jx.DecodeBytes(data)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		if _, ok := wanted[string(key)]; !ok {
			e.FieldStart(string(key))
			e.Raw(raw)
			return nil
		}
		if raw.Type() != jx.Null {
			fields[string(key)] = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "decode object")
	}
	e.ObjEnd()
	return append([]byte(nil), e.Bytes()...), fields, nil
}

// DecodeCircuit decodes a serialized circuit. Unlike going through a JSON
// library's Unmarshaler hook, the error keeps its class.
func DecodeCircuit(data []byte) (*Circuit, error) {
	c := NewCircuit()
	if err := c.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return c, nil
}

func init() {
	builtins := map[string]DecodeFunc{
		"RotateX":                        decoderFor[RotateX](),
		"RotateY":                        decoderFor[RotateY](),
		"RotateZ":                        decoderFor[RotateZ](),
		"PhaseShiftState1":               decoderFor[PhaseShiftState1](),
		"Hadamard":                       decoderFor[Hadamard](),
		"PauliX":                         decoderFor[PauliX](),
		"PauliY":                         decoderFor[PauliY](),
		"PauliZ":                         decoderFor[PauliZ](),
		"SGate":                          decoderFor[SGate](),
		"TGate":                          decoderFor[TGate](),
		"CNOT":                           decoderFor[CNOT](),
		"ControlledPauliZ":               decoderFor[ControlledPauliZ](),
		"SWAP":                           decoderFor[SWAP](),
		"ControlledPhaseShift":           decoderFor[ControlledPhaseShift](),
		"MultiQubitMS":                   decoderFor[MultiQubitMS](),
		"MultiQubitZZ":                   decoderFor[MultiQubitZZ](),
		"DefinitionBit":                  decoderFor[DefinitionBit](),
		"DefinitionFloat":                decoderFor[DefinitionFloat](),
		"DefinitionComplex":              decoderFor[DefinitionComplex](),
		"InputSymbolic":                  decoderFor[InputSymbolic](),
		"MeasureQubit":                   decoderFor[MeasureQubit](),
		"PragmaRepeatedMeasurement":      decoderFor[PragmaRepeatedMeasurement](),
		"PragmaGetStateVector":           nestedDecoder(func(op *PragmaGetStateVector, c *Circuit) { op.Circuit = c }),
		"PragmaGetDensityMatrix":         nestedDecoder(func(op *PragmaGetDensityMatrix, c *Circuit) { op.Circuit = c }),
		"PragmaGetOccupationProbability": nestedDecoder(func(op *PragmaGetOccupationProbability, c *Circuit) { op.Circuit = c }),
		"PragmaGetPauliProduct":          nestedDecoder(func(op *PragmaGetPauliProduct, c *Circuit) { op.Circuit = c }),
		"PragmaSetNumberOfMeasurements":  decoderFor[PragmaSetNumberOfMeasurements](),
		"PragmaSetStateVector":           decoderFor[PragmaSetStateVector](),
		"PragmaSetDensityMatrix":         decoderFor[PragmaSetDensityMatrix](),
		"PragmaRepeatGate":               decoderFor[PragmaRepeatGate](),
		"PragmaOverrotation":             decoderFor[PragmaOverrotation](),
		"PragmaBoostNoise":               decoderFor[PragmaBoostNoise](),
		"PragmaStopParallelBlock":        decoderFor[PragmaStopParallelBlock](),
		"PragmaGlobalPhase":              decoderFor[PragmaGlobalPhase](),
		"PragmaSleep":                    decoderFor[PragmaSleep](),
		"PragmaActiveReset":              decoderFor[PragmaActiveReset](),
		"PragmaStartDecompositionBlock":  decoderFor[PragmaStartDecompositionBlock](),
		"PragmaStopDecompositionBlock":   decoderFor[PragmaStopDecompositionBlock](),
		"PragmaDamping":                  decoderFor[PragmaDamping](),
		"PragmaDepolarising":             decoderFor[PragmaDepolarising](),
		"PragmaDephasing":                decoderFor[PragmaDephasing](),
		"PragmaRandomNoise":              decoderFor[PragmaRandomNoise](),
		"PragmaGeneralNoise":             decoderFor[PragmaGeneralNoise](),
		"PragmaConditional":              nestedDecoder(func(op *PragmaConditional, c *Circuit) { op.Circuit = c }),
	}
	for name, f := range builtins {
		if err := RegisterOperation(name, f); err != nil {
			panic(err)
		}
	}
}

// RegisterOperation adds an operation variant to the set DecodeOperation
// understands. Registering a name twice is an error.
func RegisterOperation(name string, decode DecodeFunc) error {
	if name == "" || decode == nil {
		return errors.New("operation name and decoder are required")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return errors.Errorf("operation %s is already registered", name)
	}
	registry[name] = decode
	return nil
}

// RegisteredOperations lists the known variant names, sorted.
func RegisteredOperations() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func lookupDecoder(name string) (DecodeFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// EncodeOperation writes op as {"type": <hqslang>, "operation": {...}}.
func EncodeOperation(op Operation) ([]byte, error) {
	if _, ok := lookupDecoder(op.Hqslang()); !ok {
		return nil, &qerr.UnknownOperationError{Type: op.Hqslang()}
	}
	body, err := jsonIter.Marshal(op)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", op.Hqslang())
	}
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	e.FieldStart("type")
	e.Str(op.Hqslang())
	e.FieldStart("operation")
	e.Raw(body)
	e.ObjEnd()
	return append([]byte(nil), e.Bytes()...), nil
}

// DecodeOperation reads an operation envelope. A variant that is not
// registered is an UnknownOperationError.
func DecodeOperation(data []byte) (Operation, error) {
	var (
		typ  string
		body []byte
	)
	d := jx.DecodeBytes(data)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "type":
			s, err := d.Str()
			typ = s
			return err
		case "operation":
			raw, err := d.Raw()
			body = append([]byte(nil), raw...)
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode operation envelope")
	}
	if typ == "" {
		return nil, errors.New("operation envelope has no type")
	}
	decode, ok := lookupDecoder(typ)
	if !ok {
		zap.L().Debug(fmt.Sprintf("unknown operation type(%s)", typ))
		return nil, &qerr.UnknownOperationError{Type: typ}
	}
	if body == nil {
		body = []byte("{}")
	}
	op, err := decode(body)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", typ)
	}
	return op, nil
}

func (c Circuit) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	e.FieldStart("version")
	e.Str(SchemaVersion)
	e.FieldStart("operations")
	e.ArrStart()
	for _, op := range c.ops {
		b, err := EncodeOperation(op)
		if err != nil {
			return nil, err
		}
		e.Raw(b)
	}
	e.ArrEnd()
	e.ObjEnd()
	return append([]byte(nil), e.Bytes()...), nil
}

// UnmarshalJSON rebuilds the circuit through Add, so a blob with conflicting
// register declarations is rejected.
func (c *Circuit) UnmarshalJSON(data []byte) error {
	var (
		version string
		ops     []Operation
	)
	d := jx.DecodeBytes(data)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "version":
			s, err := d.Str()
			version = s
			return err
		case "operations":
			return d.Arr(func(d *jx.Decoder) error {
				raw, err := d.Raw()
				if err != nil {
					return err
				}
				op, err := DecodeOperation(raw)
				if err != nil {
					return err
				}
				ops = append(ops, op)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return errors.Wrap(err, "decode circuit")
	}
	if err := checkVersion(version); err != nil {
		return err
	}
	built, err := NewCircuitFromOperations(ops...)
	if err != nil {
		return err
	}
	*c = *built
	return nil
}

func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	got, err := majorVersion(v)
	if err != nil {
		return errors.Wrapf(err, "schema version %q", v)
	}
	supported, _ := majorVersion(SchemaVersion)
	if got > supported {
		return &qerr.SchemaVersionError{Got: v, Supported: SchemaVersion}
	}
	return nil
}

func majorVersion(v string) (int, error) {
	major, _, _ := strings.Cut(strings.TrimPrefix(v, "v"), ".")
	return strconv.Atoi(major)
}
