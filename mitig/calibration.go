package mitig

import (
	"fmt"
	"math"
	"math/bits"
	"sync"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Calibration is a readout confusion matrix for one bit register.
// Entry (i, j) is the probability of measuring outcome i when the true
// outcome is j. Outcome indices are little-endian: slot k of the register
// is bit k of the index.
type Calibration struct {
	m *mat.Dense

	once sync.Once
	inv  *mat.Dense
	err  error
}

// NewCalibration builds a calibration from a square matrix whose size is a
// power of two.
func NewCalibration(rows [][]float64) (*Calibration, error) {
	n := len(rows)
	if n < 2 || n&(n-1) != 0 {
		return nil, errors.Errorf("calibration size %d is not a power of two", n)
	}
	data := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, errors.Errorf("calibration row %d has %d columns, expected %d", i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Errorf("calibration entry (%d,%d) is not finite", i, j)
			}
		}
		data = append(data, row...)
	}
	return &Calibration{m: mat.NewDense(n, n, data)}, nil
}

// Identity is the calibration of a perfect readout of numberOfBits slots.
func Identity(numberOfBits int) *Calibration {
	n := 1 << numberOfBits
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return &Calibration{m: m}
}

// NewCalibrationFromMeasErrors combines per-slot readout errors into the
// register-wide matrix. errs[k] describes slot k.
func NewCalibrationFromMeasErrors(errs []core.MeasError) (*Calibration, error) {
	if len(errs) == 0 {
		return nil, errors.New("no measurement errors")
	}
	var m *mat.Dense
	for k, e := range errs {
		if e.ProbMeas1Prep0 < 0 || e.ProbMeas1Prep0 > 1 || e.ProbMeas0Prep1 < 0 || e.ProbMeas0Prep1 > 1 {
			return nil, errors.Errorf("slot %d: measurement error probabilities must be in [0,1]", k)
		}
		single := mat.NewDense(2, 2, []float64{
			1 - e.ProbMeas1Prep0, e.ProbMeas0Prep1,
			e.ProbMeas1Prep0, 1 - e.ProbMeas0Prep1,
		})
		if m == nil {
			m = single
			continue
		}
		// higher slots are the more significant factor
		var next mat.Dense
		next.Kronecker(single, m)
		m = &next
	}
	return &Calibration{m: m}, nil
}

// NewCalibrationFromDevice builds the calibration of a register of length
// slots whose slot k is read from qubit slotQubits[k]. Slots without a
// measured qubit, or qubits the device does not describe, are treated as
// error free.
func NewCalibrationFromDevice(spec *core.DeviceInfoSpec, slotQubits map[int]int, length int) (*Calibration, error) {
	measErrors := spec.MeasErrors()
	errs := make([]core.MeasError, length)
	for slot := 0; slot < length; slot++ {
		q, ok := slotQubits[slot]
		if !ok {
			continue
		}
		e, ok := measErrors[q]
		if !ok {
			zap.L().Debug(fmt.Sprintf("no measurement error for qubit(%d) in device(%s)", q, spec.DeviceID))
			continue
		}
		errs[slot] = e
	}
	return NewCalibrationFromMeasErrors(errs)
}

func (c *Calibration) Size() int {
	n, _ := c.m.Dims()
	return n
}

// NumberOfBits is the register length the calibration applies to.
func (c *Calibration) NumberOfBits() int {
	return bits.TrailingZeros(uint(c.Size()))
}

func (c *Calibration) At(i, j int) float64 {
	return c.m.At(i, j)
}

// Rows returns a copy of the matrix.
func (c *Calibration) Rows() [][]float64 {
	n := c.Size()
	out := make([][]float64, n)
	for i := range out {
		out[i] = mat.Row(nil, i, c.m)
	}
	return out
}

// Inverse returns the inverse of the matrix, or its Moore-Penrose
// pseudo-inverse when the matrix is singular or ill-conditioned. The
// result is computed once.
func (c *Calibration) Inverse() (*mat.Dense, error) {
	c.once.Do(func() {
		var inv mat.Dense
		err := inv.Inverse(c.m)
		if err == nil {
			c.inv = &inv
			return
		}
		zap.L().Debug(fmt.Sprintf("calibration is not invertible, using pseudo inverse/reason:%s", err))
		c.inv, c.err = pseudoInverse(c.m)
	})
	return c.inv, c.err
}

// Correct applies the inverse to a measured outcome probability vector.
func (c *Calibration) Correct(p []float64) ([]float64, error) {
	if len(p) != c.Size() {
		return nil, errors.Errorf("probability vector has %d entries, calibration has size %d", len(p), c.Size())
	}
	inv, err := c.Inverse()
	if err != nil {
		return nil, err
	}
	var out mat.VecDense
	out.MulVec(inv, mat.NewVecDense(len(p), append([]float64(nil), p...)))
	return out.RawVector().Data, nil
}

func (c *Calibration) MarshalJSON() ([]byte, error) {
	return jsonIter.Marshal(c.Rows())
}

func (c *Calibration) UnmarshalJSON(b []byte) error {
	var rows [][]float64
	if err := jsonIter.Unmarshal(b, &rows); err != nil {
		return errors.Wrap(err, "decode calibration")
	}
	built, err := NewCalibration(rows)
	if err != nil {
		return err
	}
	c.m = built.m
	return nil
}

func pseudoInverse(m *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return nil, errors.New("failed to factorize calibration matrix")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)
	r, cols := m.Dims()
	tol := float64(max(r, cols)) * values[0] * 2.220446049250313e-16

	sInv := mat.NewDense(cols, r, nil)
	for i, s := range values {
		if s > tol {
			sInv.Set(i, i, 1/s)
		}
	}
	var tmp, pinv mat.Dense
	tmp.Mul(&v, sInv)
	pinv.Mul(&tmp, u.T())
	return &pinv, nil
}
