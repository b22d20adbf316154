//go:build unit
// +build unit

package symbolic

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-qir/qerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpressionCollapsesNumbers(t *testing.T) {
	v := Expression(" 3.25 ")
	assert.True(t, v.IsFloat())
	f, err := v.Float()
	assert.Nil(t, err)
	assert.Equal(t, 3.25, f)

	v = Expression("theta")
	assert.False(t, v.IsFloat())
	_, err = v.Float()
	assert.True(t, errors.Is(err, qerr.ErrSymbolicResolution))
}

func TestFreeVariables(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{name: "number", expr: "1.5", want: nil},
		{name: "single", expr: "theta", want: []string{"theta"}},
		{name: "functions and pi are not variables", expr: "sin(a) * pi + cos(b) / sqrt(a)", want: []string{"a", "b"}},
		{name: "sorted", expr: "z + y + x", want: []string{"x", "y", "z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expression(tt.expr).FreeVariables()
			assert.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitute(t *testing.T) {
	v := Expression("a * b + 1")

	partial, err := v.Substitute(map[string]float64{"a": 2})
	require.Nil(t, err)
	assert.False(t, partial.IsFloat())
	free, err := partial.FreeVariables()
	require.Nil(t, err)
	assert.Equal(t, []string{"b"}, free)

	full, err := partial.Substitute(map[string]float64{"b": -3})
	require.Nil(t, err)
	assert.True(t, full.IsFloat())
	f, _ := full.Float()
	assert.InDelta(t, -5.0, f, 1e-12)

	again, err := full.Substitute(map[string]float64{"a": 100, "b": 100})
	assert.Nil(t, err)
	assert.Equal(t, full, again)
}

func TestSubstituteAgreesWithEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		first map[string]float64
		rest  map[string]float64
		want  float64
	}{
		{name: "negative base", expr: "x ** 2", first: map[string]float64{"x": -2}, want: 4},
		{name: "negated negative", expr: "-x", first: map[string]float64{"x": -3}, want: 3},
		{name: "negative exponent", expr: "2 ** x", first: map[string]float64{"x": -1}, want: 0.5},
		{name: "partial negative base", expr: "x ** 2 + y", first: map[string]float64{"x": -2}, rest: map[string]float64{"y": 1}, want: 5},
		{name: "partial right operand", expr: "y - (x - z)", first: map[string]float64{"x": 1}, rest: map[string]float64{"y": 0, "z": 0.5}, want: -0.5},
		{name: "partial function argument", expr: "cos(x * y)", first: map[string]float64{"x": -1}, rest: map[string]float64{"y": 0}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := map[string]float64{}
			for k, v := range tt.first {
				all[k] = v
			}
			for k, v := range tt.rest {
				all[k] = v
			}
			direct, err := Expression(tt.expr).Evaluate(all)
			require.Nil(t, err)
			assert.InDelta(t, tt.want, direct, 1e-12)

			v, err := Expression(tt.expr).Substitute(tt.first)
			require.Nil(t, err)
			if tt.rest != nil {
				assert.False(t, v.IsFloat())
				got, err := v.Evaluate(tt.rest)
				require.Nil(t, err)
				assert.InDelta(t, tt.want, got, 1e-12, v.String())
				v, err = v.Substitute(tt.rest)
				require.Nil(t, err)
			}
			require.True(t, v.IsFloat(), v.String())
			got, _ := v.Float()
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		vars    map[string]float64
		want    float64
		wantErr []string
	}{
		{name: "arithmetic", expr: "x / 2 + 1", vars: map[string]float64{"x": 3}, want: 2.5},
		{name: "pi", expr: "2 * pi", want: 2 * math.Pi},
		{name: "function", expr: "cos(theta)", vars: map[string]float64{"theta": 0}, want: 1},
		{name: "power", expr: "x ** 2", vars: map[string]float64{"x": 3}, want: 9},
		{name: "unbound", expr: "x + y", vars: map[string]float64{"x": 1}, wantErr: []string{"y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expression(tt.expr).Evaluate(tt.vars)
			if tt.wantErr != nil {
				var se *qerr.SymbolicResolutionError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.wantErr, se.Unresolved)
				return
			}
			assert.Nil(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestArithmetic(t *testing.T) {
	assert.Equal(t, Float(3), Float(1).Add(Float(2)))
	assert.Equal(t, Float(-1), Float(1).Sub(Float(2)))
	assert.Equal(t, Float(6), Float(2).Mul(Float(3)))
	assert.Equal(t, Float(0.5), Float(1).Div(Float(2)))
	assert.Equal(t, Float(-2), Float(2).Neg())

	v := Expression("x").Mul(Float(2)).Add(Float(1)).Neg()
	assert.False(t, v.IsFloat())
	got, err := v.Evaluate(map[string]float64{"x": 3})
	assert.Nil(t, err)
	assert.InDelta(t, -7.0, got, 1e-12)

	e := Expression("x").Exp()
	got, err = e.Evaluate(map[string]float64{"x": 0})
	assert.Nil(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestValueJSON(t *testing.T) {
	b, err := json.Marshal([]Value{Float(1.5), Expression("2 * theta")})
	require.Nil(t, err)
	assert.Equal(t, `[1.5,"2 * theta"]`, string(b))

	var vs []Value
	require.Nil(t, json.Unmarshal([]byte(`[0.25, "phi", "NaN", "4"]`), &vs))
	assert.Equal(t, Float(0.25), vs[0])
	assert.Equal(t, Expression("phi"), vs[1])
	f, _ := vs[2].Float()
	assert.True(t, math.IsNaN(f))
	assert.Equal(t, Float(4), vs[3])

	assert.NotNil(t, json.Unmarshal([]byte(`{}`), &vs[0]))
}

func TestCalculator(t *testing.T) {
	c := NewCalculator()
	c.Set("x", 2)
	got, err := c.Parse("x * 4")
	assert.Nil(t, err)
	assert.Equal(t, 8.0, got)

	v, err := c.Substitute(Expression("x + y"))
	assert.Nil(t, err)
	assert.False(t, v.IsFloat())

	_, err = c.Strict().Substitute(Expression("x + y"))
	assert.True(t, errors.Is(err, qerr.ErrSymbolicResolution))

	var nilCalc *Calculator
	v, err = nilCalc.Substitute(Float(1))
	assert.Nil(t, err)
	assert.Equal(t, Float(1), v)
	assert.Empty(t, nilCalc.Variables())
}
