package measurement

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"github.com/oqtopus-team/oqtopus-qir/mitig"
	"github.com/oqtopus-team/oqtopus-qir/qerr"
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/oqtopus-team/oqtopus-qir/measurement"

// Results maps a definition name to its value. Pauli product definitions
// have a zero imaginary part.
type Results map[string]complex128

// Evaluator is stateless between calls; one Evaluator may serve
// concurrent evaluations.
type Evaluator struct {
	tracer      trace.Tracer
	evaluations metric.Int64Counter
	failures    metric.Int64Counter
}

func NewEvaluator() *Evaluator {
	meter := otel.Meter(instrumentationName)
	e := &Evaluator{tracer: otel.Tracer(instrumentationName)}
	var err error
	e.evaluations, err = meter.Int64Counter("qir.measurement.evaluations",
		metric.WithDescription("completed measurement evaluations"))
	if err != nil {
		zap.L().Warn(fmt.Sprintf("failed to create evaluation counter/reason:%s", err))
		e.evaluations = noop.Int64Counter{}
	}
	e.failures, err = meter.Int64Counter("qir.measurement.failures",
		metric.WithDescription("aborted measurement evaluations"))
	if err != nil {
		zap.L().Warn(fmt.Sprintf("failed to create failure counter/reason:%s", err))
		e.failures = noop.Int64Counter{}
	}
	return e
}

// Evaluate computes every definition of in from outputs, where outputs[i]
// holds the registers of in.Circuits[i]. vars binds the free variables of
// the coefficients; the first row of every float register is bound as
// well, entry k of register r under the name "r_k", unless vars names it.
// Any failure aborts the whole evaluation and no result is returned.
func (e *Evaluator) Evaluate(ctx context.Context, in *Input, outputs []*core.Registers, vars map[string]float64) (Results, error) {
	ctx, span := e.tracer.Start(ctx, "measurement.Evaluate", trace.WithAttributes(
		attribute.Int("qir.circuits", len(in.Circuits)),
		attribute.Int("qir.definitions", len(in.Definitions)),
	))
	defer span.End()

	res, err := evaluate(in, outputs, vars)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.failures.Add(ctx, 1)
		zap.L().Debug(fmt.Sprintf("failed to evaluate measurement/reason:%s", err))
		return nil, err
	}
	e.evaluations.Add(ctx, 1)
	return res, nil
}

type distributionKey struct {
	circuit int
	readout string
}

type evaluation struct {
	in            *Input
	outputs       []*core.Registers
	calc          *symbolic.Calculator
	products      map[int]float64
	distributions map[distributionKey][]float64
}

func evaluate(in *Input, outputs []*core.Registers, vars map[string]float64) (Results, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if len(outputs) != len(in.Circuits) {
		return nil, errors.Errorf("expected registers of %d circuits, got %d", len(in.Circuits), len(outputs))
	}
	ev := &evaluation{
		in:            in,
		outputs:       outputs,
		calc:          registerCalculator(outputs, vars).Strict(),
		products:      make(map[int]float64),
		distributions: make(map[distributionKey][]float64),
	}

	defs := append([]Definition(nil), in.Definitions...)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	res := make(Results, len(defs))
	for _, d := range defs {
		v, err := ev.definition(d)
		if err != nil {
			return nil, errors.Wrapf(err, "definition %s", d.Name)
		}
		res[d.Name] = v
	}
	return res, nil
}

func registerCalculator(outputs []*core.Registers, vars map[string]float64) *symbolic.Calculator {
	calc := symbolic.NewCalculator()
	for _, regs := range outputs {
		if regs == nil {
			continue
		}
		names := make([]string, 0, len(regs.Floats))
		for name := range regs.Floats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows := regs.Floats[name]
			if len(rows) == 0 {
				continue
			}
			for k, v := range rows[0] {
				key := fmt.Sprintf("%s_%d", name, k)
				if _, ok := calc.Get(key); !ok {
					calc.Set(key, v)
				}
			}
		}
	}
	for k, v := range vars {
		calc.Set(k, v)
	}
	return calc
}

func (ev *evaluation) definition(d Definition) (complex128, error) {
	switch d.Kind {
	case KindPauliProduct:
		var sum float64
		for _, t := range d.Terms {
			coef, err := ev.calc.Substitute(t.Coefficient)
			if err != nil {
				return 0, err
			}
			c, err := coef.Float()
			if err != nil {
				return 0, err
			}
			exp, err := ev.product(t.Product)
			if err != nil {
				return 0, err
			}
			sum += c * exp
		}
		return complex(sum, 0), nil
	case KindCheated:
		return ev.cheated(d)
	case KindCheatedOperator:
		return ev.cheatedOperator(d)
	default:
		return 0, errors.Errorf("unknown kind %q", d.Kind)
	}
}

// bitRows returns the shots of a bit register after checking every row
// against the declared length.
func (ev *evaluation) bitRows(circuit int, readout string) ([][]bool, int, error) {
	regs := ev.outputs[circuit]
	if regs == nil {
		return nil, 0, &qerr.MissingRegisterError{Circuit: circuit, Name: readout}
	}
	rows, ok := regs.Bits[readout]
	if !ok {
		return nil, 0, &qerr.MissingRegisterError{Circuit: circuit, Name: readout}
	}
	reg, _ := ev.in.register(circuit, readout)
	if len(rows) == 0 {
		return nil, 0, &qerr.MalformedRegisterError{Circuit: circuit, Name: readout, Row: -1, Reason: "no shots"}
	}
	for i, row := range rows {
		if len(row) != reg.Length {
			return nil, 0, &qerr.MalformedRegisterError{
				Circuit: circuit,
				Name:    readout,
				Row:     i,
				Reason:  fmt.Sprintf("%d bits, declared length %d", len(row), reg.Length),
			}
		}
	}
	return rows, reg.Length, nil
}

func (ev *evaluation) product(i int) (float64, error) {
	if v, ok := ev.products[i]; ok {
		return v, nil
	}
	p := ev.in.Products[i]
	var (
		v   float64
		err error
	)
	if cal := ev.in.Calibrations[p.Readout]; cal != nil {
		v, err = ev.calibratedProduct(p, cal)
	} else {
		v, err = ev.rawProduct(p)
	}
	if err != nil {
		return 0, err
	}
	ev.products[i] = v
	return v, nil
}

// rawProduct averages the parity sign over the shots.
func (ev *evaluation) rawProduct(p PauliProduct) (float64, error) {
	rows, _, err := ev.bitRows(p.Circuit, p.Readout)
	if err != nil {
		return 0, err
	}
	sum := 0
	for _, row := range rows {
		odd := false
		for i, s := range p.Slots {
			if row[s] != p.flipped(i) {
				odd = !odd
			}
		}
		if odd {
			sum--
		} else {
			sum++
		}
	}
	return float64(sum) / float64(len(rows)), nil
}

// calibratedProduct weights the parity sign of every outcome with the
// corrected outcome distribution.
func (ev *evaluation) calibratedProduct(p PauliProduct, cal *mitig.Calibration) (float64, error) {
	dist, err := ev.distribution(p.Circuit, p.Readout, cal)
	if err != nil {
		return 0, err
	}
	var v float64
	for idx, q := range dist {
		odd := false
		for i, s := range p.Slots {
			bit := (idx>>s)&1 == 1
			if bit != p.flipped(i) {
				odd = !odd
			}
		}
		if odd {
			v -= q
		} else {
			v += q
		}
	}
	return v, nil
}

func (ev *evaluation) distribution(circuit int, readout string, cal *mitig.Calibration) ([]float64, error) {
	key := distributionKey{circuit: circuit, readout: readout}
	if d, ok := ev.distributions[key]; ok {
		return d, nil
	}
	rows, length, err := ev.bitRows(circuit, readout)
	if err != nil {
		return nil, err
	}
	probs := make([]float64, 1<<length)
	weight := 1 / float64(len(rows))
	for _, row := range rows {
		idx := 0
		for k, b := range row {
			if b {
				idx |= 1 << k
			}
		}
		probs[idx] += weight
	}
	corrected, err := cal.Correct(probs)
	if err != nil {
		return nil, &qerr.MalformedRegisterError{Circuit: circuit, Name: readout, Row: -1, Reason: err.Error()}
	}
	ev.distributions[key] = corrected
	return corrected, nil
}
