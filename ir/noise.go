package ir

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
	"gonum.org/v1/gonum/mat"
)

var noiseTags = []string{TagSingleQubitOperation, TagPragma, TagPragmaNoise}

func noiseParams(gateTime, rate symbolic.Value) (float64, float64, error) {
	gt, err := gateTime.Float()
	if err != nil {
		return 0, 0, errors.Wrap(err, "gate_time")
	}
	r, err := rate.Float()
	if err != nil {
		return 0, 0, errors.Wrap(err, "rate")
	}
	return gt, r, nil
}

func dephasingSuperoperator(gateTime, rate float64) *mat.Dense {
	prob := 0.5 * (1 - math.Exp(-2*gateTime*rate))
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1 - 2*prob, 0, 0,
		0, 0, 1 - 2*prob, 0,
		0, 0, 0, 1,
	})
}

// (1 - exp(-factor*gate_time*rate)) * scale
func decayProbability(gateTime, rate symbolic.Value, factor, scale float64) symbolic.Value {
	return gateTime.Mul(rate).Mul(symbolic.Float(-factor)).Exp().
		Mul(symbolic.Float(-1)).Add(symbolic.Float(1)).Mul(symbolic.Float(scale))
}

func substitutePair(a, b symbolic.Value, calc *symbolic.Calculator) (symbolic.Value, symbolic.Value, error) {
	na, err := substituteValue(a, calc)
	if err != nil {
		return a, b, err
	}
	nb, err := substituteValue(b, calc)
	if err != nil {
		return a, b, err
	}
	return na, nb, nil
}

// PragmaDamping is amplitude damping at zero temperature.
type PragmaDamping struct {
	Qubit    int            `json:"qubit"`
	GateTime symbolic.Value `json:"gate_time"`
	Rate     symbolic.Value `json:"rate"`
}

func (p PragmaDamping) Hqslang() string                { return "PragmaDamping" }
func (p PragmaDamping) Tags() []string                 { return tags(p.Hqslang(), noiseTags...) }
func (p PragmaDamping) InvolvedQubits() InvolvedQubits { return QubitSet(p.Qubit) }
func (p PragmaDamping) IsParametrized() bool           { return anyExpression(p.GateTime, p.Rate) }

func (p PragmaDamping) Superoperator() (*mat.Dense, error) {
	gt, r, err := noiseParams(p.GateTime, p.Rate)
	if err != nil {
		return nil, err
	}
	prob := 1 - math.Exp(-gt*r)
	sq := math.Sqrt(1 - prob)
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, prob,
		0, sq, 0, 0,
		0, 0, sq, 0,
		0, 0, 0, 1 - prob,
	}), nil
}

func (p PragmaDamping) Probability() symbolic.Value {
	return decayProbability(p.GateTime, p.Rate, 2, 0.5)
}

func (p PragmaDamping) PowerCF(power symbolic.Value) Operation {
	p.GateTime = power.Mul(p.GateTime)
	return p
}

func (p PragmaDamping) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	gt, r, err := substitutePair(p.GateTime, p.Rate, calc)
	if err != nil {
		return nil, err
	}
	p.GateTime, p.Rate = gt, r
	return p, nil
}

func (p PragmaDamping) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(p.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	p.Qubit = q
	return p, nil
}

// PragmaDepolarising is depolarisation at infinite temperature.
type PragmaDepolarising struct {
	Qubit    int            `json:"qubit"`
	GateTime symbolic.Value `json:"gate_time"`
	Rate     symbolic.Value `json:"rate"`
}

func (p PragmaDepolarising) Hqslang() string                { return "PragmaDepolarising" }
func (p PragmaDepolarising) Tags() []string                 { return tags(p.Hqslang(), noiseTags...) }
func (p PragmaDepolarising) InvolvedQubits() InvolvedQubits { return QubitSet(p.Qubit) }
func (p PragmaDepolarising) IsParametrized() bool           { return anyExpression(p.GateTime, p.Rate) }

func (p PragmaDepolarising) Superoperator() (*mat.Dense, error) {
	gt, r, err := noiseParams(p.GateTime, p.Rate)
	if err != nil {
		return nil, err
	}
	prob := 0.75 * (1 - math.Exp(-gt*r))
	p1 := 1 - (2.0/3.0)*prob
	p2 := 1 - (4.0/3.0)*prob
	p3 := (2.0 / 3.0) * prob
	return mat.NewDense(4, 4, []float64{
		p1, 0, 0, p3,
		0, p2, 0, 0,
		0, 0, p2, 0,
		p3, 0, 0, p1,
	}), nil
}

func (p PragmaDepolarising) Probability() symbolic.Value {
	return decayProbability(p.GateTime, p.Rate, 1, 0.75)
}

func (p PragmaDepolarising) PowerCF(power symbolic.Value) Operation {
	p.GateTime = power.Mul(p.GateTime)
	return p
}

func (p PragmaDepolarising) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	gt, r, err := substitutePair(p.GateTime, p.Rate, calc)
	if err != nil {
		return nil, err
	}
	p.GateTime, p.Rate = gt, r
	return p, nil
}

func (p PragmaDepolarising) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(p.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	p.Qubit = q
	return p, nil
}

// PragmaDephasing is pure dephasing.
type PragmaDephasing struct {
	Qubit    int            `json:"qubit"`
	GateTime symbolic.Value `json:"gate_time"`
	Rate     symbolic.Value `json:"rate"`
}

func (p PragmaDephasing) Hqslang() string                { return "PragmaDephasing" }
func (p PragmaDephasing) Tags() []string                 { return tags(p.Hqslang(), noiseTags...) }
func (p PragmaDephasing) InvolvedQubits() InvolvedQubits { return QubitSet(p.Qubit) }
func (p PragmaDephasing) IsParametrized() bool           { return anyExpression(p.GateTime, p.Rate) }

func (p PragmaDephasing) Superoperator() (*mat.Dense, error) {
	gt, r, err := noiseParams(p.GateTime, p.Rate)
	if err != nil {
		return nil, err
	}
	return dephasingSuperoperator(gt, r), nil
}

func (p PragmaDephasing) Probability() symbolic.Value {
	return decayProbability(p.GateTime, p.Rate, 2, 0.5)
}

func (p PragmaDephasing) PowerCF(power symbolic.Value) Operation {
	p.GateTime = power.Mul(p.GateTime)
	return p
}

func (p PragmaDephasing) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	gt, r, err := substitutePair(p.GateTime, p.Rate, calc)
	if err != nil {
		return nil, err
	}
	p.GateTime, p.Rate = gt, r
	return p, nil
}

func (p PragmaDephasing) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(p.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	p.Qubit = q
	return p, nil
}

// PragmaRandomNoise is a stochastically unravelled mix of depolarising and
// dephasing. Its superoperator is the trajectory average, which is the
// dephasing channel.
type PragmaRandomNoise struct {
	Qubit            int            `json:"qubit"`
	GateTime         symbolic.Value `json:"gate_time"`
	DepolarisingRate symbolic.Value `json:"depolarising_rate"`
	DephasingRate    symbolic.Value `json:"dephasing_rate"`
}

func (p PragmaRandomNoise) Hqslang() string                { return "PragmaRandomNoise" }
func (p PragmaRandomNoise) Tags() []string                 { return tags(p.Hqslang(), noiseTags...) }
func (p PragmaRandomNoise) InvolvedQubits() InvolvedQubits { return QubitSet(p.Qubit) }
func (p PragmaRandomNoise) IsParametrized() bool {
	return anyExpression(p.GateTime, p.DepolarisingRate, p.DephasingRate)
}

func (p PragmaRandomNoise) Superoperator() (*mat.Dense, error) {
	gt, r, err := noiseParams(p.GateTime, p.DephasingRate)
	if err != nil {
		return nil, err
	}
	return dephasingSuperoperator(gt, r), nil
}

func (p PragmaRandomNoise) Probability() symbolic.Value {
	quarter := p.DepolarisingRate.Div(symbolic.Float(4))
	return quarter.Add(quarter).Add(quarter.Add(p.DephasingRate)).Mul(p.GateTime)
}

func (p PragmaRandomNoise) PowerCF(power symbolic.Value) Operation {
	p.GateTime = power.Mul(p.GateTime)
	return p
}

func (p PragmaRandomNoise) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	gt, dep, err := substitutePair(p.GateTime, p.DepolarisingRate, calc)
	if err != nil {
		return nil, err
	}
	deph, err := substituteValue(p.DephasingRate, calc)
	if err != nil {
		return nil, err
	}
	p.GateTime, p.DepolarisingRate, p.DephasingRate = gt, dep, deph
	return p, nil
}

func (p PragmaRandomNoise) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(p.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	p.Qubit = q
	return p, nil
}

// PragmaGeneralNoise applies the Lindblad noise described by the 3x3
// Operators matrix in the (σx, σy, σz) basis.
type PragmaGeneralNoise struct {
	Qubit     int            `json:"qubit"`
	GateTime  symbolic.Value `json:"gate_time"`
	Rate      symbolic.Value `json:"rate"`
	Operators ComplexMatrix  `json:"operators"`
}

func (p PragmaGeneralNoise) Hqslang() string                { return "PragmaGeneralNoise" }
func (p PragmaGeneralNoise) Tags() []string                 { return tags(p.Hqslang(), pragmaSingleTags...) }
func (p PragmaGeneralNoise) InvolvedQubits() InvolvedQubits { return QubitSet(p.Qubit) }
func (p PragmaGeneralNoise) IsParametrized() bool           { return anyExpression(p.GateTime, p.Rate) }

func (p PragmaGeneralNoise) SubstituteParameters(calc *symbolic.Calculator) (Operation, error) {
	gt, r, err := substitutePair(p.GateTime, p.Rate, calc)
	if err != nil {
		return nil, err
	}
	p.GateTime, p.Rate = gt, r
	return p, nil
}

func (p PragmaGeneralNoise) RemapQubits(mapping map[int]int) (Operation, error) {
	q, err := remapQubit(p.Qubit, mapping)
	if err != nil {
		return nil, err
	}
	p.Qubit = q
	return p, nil
}
