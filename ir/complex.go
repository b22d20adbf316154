package ir

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/mohae/deepcopy"
)

// ComplexArray is a vector of complex numbers serialized as [[re,im],...].
type ComplexArray []complex128

// ComplexMatrix is a row-major complex matrix serialized as nested
// ComplexArrays.
type ComplexMatrix []ComplexArray

func (a ComplexArray) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encodeComplexArray(e, a)
	return append([]byte(nil), e.Bytes()...), nil
}

func (a *ComplexArray) UnmarshalJSON(b []byte) error {
	d := jx.DecodeBytes(b)
	out, err := decodeComplexArray(d)
	if err != nil {
		return err
	}
	*a = out
	return nil
}

// Clone returns a deep copy.
func (a ComplexArray) Clone() ComplexArray {
	if a == nil {
		return nil
	}
	return deepcopy.Copy(a).(ComplexArray)
}

func (m ComplexMatrix) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ArrStart()
	for _, row := range m {
		encodeComplexArray(e, row)
	}
	e.ArrEnd()
	return append([]byte(nil), e.Bytes()...), nil
}

func (m *ComplexMatrix) UnmarshalJSON(b []byte) error {
	d := jx.DecodeBytes(b)
	var out ComplexMatrix
	err := d.Arr(func(d *jx.Decoder) error {
		row, err := decodeComplexArray(d)
		if err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "decode complex matrix")
	}
	*m = out
	return nil
}

// Dims returns rows and columns. Rows of unequal length are reported as an
// error.
func (m ComplexMatrix) Dims() (int, int, error) {
	if len(m) == 0 {
		return 0, 0, nil
	}
	cols := len(m[0])
	for i, row := range m {
		if len(row) != cols {
			return 0, 0, errors.Errorf("row %d has %d columns, expected %d", i, len(row), cols)
		}
	}
	return len(m), cols, nil
}

func (m ComplexMatrix) Clone() ComplexMatrix {
	if m == nil {
		return nil
	}
	return deepcopy.Copy(m).(ComplexMatrix)
}

func encodeComplexArray(e *jx.Encoder, a ComplexArray) {
	e.ArrStart()
	for _, c := range a {
		e.ArrStart()
		e.Float64(real(c))
		e.Float64(imag(c))
		e.ArrEnd()
	}
	e.ArrEnd()
}

func decodeComplexArray(d *jx.Decoder) (ComplexArray, error) {
	out := ComplexArray{}
	err := d.Arr(func(d *jx.Decoder) error {
		var parts []float64
		if err := d.Arr(func(d *jx.Decoder) error {
			f, err := d.Float64()
			if err != nil {
				return err
			}
			parts = append(parts, f)
			return nil
		}); err != nil {
			return err
		}
		if len(parts) != 2 {
			return errors.Errorf("complex number must be [re, im], got %d elements", len(parts))
		}
		out = append(out, complex(parts[0], parts[1]))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode complex array")
	}
	return out, nil
}
