// Package symbolic implements parameters that are either a concrete real
// number or an algebraic expression over named variables.
//
// Parsing and numeric evaluation are delegated to github.com/expr-lang/expr.
// A Value is a small comparable struct, so two values can be compared with ==.
package symbolic

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-qir/qerr"
)

// Value is either a number or an expression.
type Value struct {
	number float64
	text   string
	isExpr bool
}

// Float returns a numeric Value.
func Float(f float64) Value {
	return Value{number: f}
}

// Expression returns a Value for an expression. Text that parses as a plain
// number collapses to a numeric Value.
func Expression(text string) Value {
	s := strings.TrimSpace(text)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f)
	}
	return Value{text: s, isExpr: true}
}

// IsFloat reports whether v holds a number.
func (v Value) IsFloat() bool {
	return !v.isExpr
}

// Float returns the number held by v, or a SymbolicResolutionError if v is
// still an expression.
func (v Value) Float() (float64, error) {
	if v.isExpr {
		return 0, &qerr.SymbolicResolutionError{
			Expression: v.text,
			Unresolved: freeVariablesOrNil(v.text),
		}
	}
	return v.number, nil
}

// FreeVariables lists the variables occurring in v, sorted.
func (v Value) FreeVariables() ([]string, error) {
	if !v.isExpr {
		return nil, nil
	}
	return freeVariables(v.text)
}

func (v Value) String() string {
	if v.isExpr {
		return v.text
	}
	return strconv.FormatFloat(v.number, 'g', -1, 64)
}

// Substitute replaces every variable bound in vars. Variables missing from
// vars stay in the expression. Once no free variable is left the result is
// evaluated to a number.
func (v Value) Substitute(vars map[string]float64) (Value, error) {
	if !v.isExpr {
		return v, nil
	}
	text, free, err := substitute(v.text, vars)
	if err != nil {
		return v, &qerr.SymbolicResolutionError{Expression: v.text, Err: err}
	}
	if len(free) > 0 {
		return Value{text: text, isExpr: true}, nil
	}
	f, err := evaluate(v.text, vars)
	if err != nil {
		return v, &qerr.SymbolicResolutionError{Expression: v.text, Err: err}
	}
	return Float(f), nil
}

// Evaluate resolves v to a number with vars, failing when a variable is
// unbound.
func (v Value) Evaluate(vars map[string]float64) (float64, error) {
	if !v.isExpr {
		return v.number, nil
	}
	free, err := freeVariables(v.text)
	if err != nil {
		return 0, &qerr.SymbolicResolutionError{Expression: v.text, Err: err}
	}
	var missing []string
	for _, name := range free {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return 0, &qerr.SymbolicResolutionError{Expression: v.text, Unresolved: missing}
	}
	f, err := evaluate(v.text, vars)
	if err != nil {
		return 0, &qerr.SymbolicResolutionError{Expression: v.text, Err: err}
	}
	return f, nil
}

func (v Value) Add(o Value) Value {
	if v.IsFloat() && o.IsFloat() {
		return Float(v.number + o.number)
	}
	return binary(v, "+", o)
}

func (v Value) Sub(o Value) Value {
	if v.IsFloat() && o.IsFloat() {
		return Float(v.number - o.number)
	}
	return binary(v, "-", o)
}

func (v Value) Mul(o Value) Value {
	if v.IsFloat() && o.IsFloat() {
		return Float(v.number * o.number)
	}
	return binary(v, "*", o)
}

func (v Value) Div(o Value) Value {
	if v.IsFloat() && o.IsFloat() {
		return Float(v.number / o.number)
	}
	return binary(v, "/", o)
}

func (v Value) Neg() Value {
	if v.IsFloat() {
		return Float(-v.number)
	}
	return Value{text: fmt.Sprintf("-(%s)", v.text), isExpr: true}
}

// Exp returns e**v.
func (v Value) Exp() Value {
	if v.IsFloat() {
		return Float(math.Exp(v.number))
	}
	return Value{text: fmt.Sprintf("exp(%s)", v.text), isExpr: true}
}

func binary(a Value, op string, b Value) Value {
	return Value{text: fmt.Sprintf("(%s) %s (%s)", a, op, b), isExpr: true}
}

// MarshalJSON encodes a number as a JSON number and an expression as a
// JSON string.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isExpr {
		return json.Marshal(v.text)
	}
	if math.IsNaN(v.number) || math.IsInf(v.number, 0) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.number)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*v = Float(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "symbolic value must be a number or a string")
	}
	switch s {
	case "NaN":
		*v = Float(math.NaN())
	case "+Inf":
		*v = Float(math.Inf(1))
	case "-Inf":
		*v = Float(math.Inf(-1))
	default:
		*v = Expression(s)
	}
	return nil
}

func freeVariablesOrNil(text string) []string {
	free, err := freeVariables(text)
	if err != nil {
		return nil
	}
	return free
}
