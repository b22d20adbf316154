package symbolic

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/go-faster/errors"
)

var unaryFunctions = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"sqrt":  math.Sqrt,
	"exp":   math.Exp,
	"log":   math.Log,
	"sign":  sign,
	"theta": theta,
}

// names expr resolves on its own
var builtinNames = map[string]struct{}{
	"abs":   {},
	"max":   {},
	"min":   {},
	"floor": {},
	"ceil":  {},
	"round": {},
	"atan2": {},
}

const piName = "pi"

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Heaviside step
func theta(x float64) float64 {
	if x < 0 {
		return 0
	}
	return 1
}

func isReserved(name string) bool {
	if name == piName {
		return true
	}
	if _, ok := unaryFunctions[name]; ok {
		return true
	}
	_, ok := builtinNames[name]
	return ok
}

type identifierCollector struct {
	names map[string]struct{}
}

func (c *identifierCollector) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok && !isReserved(id.Value) {
		c.names[id.Value] = struct{}{}
	}
}

type identifierPatcher struct {
	vars map[string]float64
	free map[string]struct{}
}

func (p *identifierPatcher) Visit(node *ast.Node) {
	id, ok := (*node).(*ast.IdentifierNode)
	if !ok || isReserved(id.Value) {
		return
	}
	val, bound := p.vars[id.Value]
	if !bound {
		p.free[id.Value] = struct{}{}
		return
	}
	ast.Patch(node, &ast.FloatNode{Value: val})
}

// render prints a patched tree. expr's own printer drops the parentheses of
// negative literals and of right operands with equal precedence, so every
// compound operand is wrapped here.
func render(node ast.Node) string {
	switch n := node.(type) {
	case *ast.FloatNode:
		s := strconv.FormatFloat(n.Value, 'g', -1, 64)
		if n.Value < 0 || math.Signbit(n.Value) {
			return "(" + s + ")"
		}
		return s
	case *ast.UnaryNode:
		op := n.Operator
		if op == "not" {
			op += " "
		}
		return "(" + op + render(n.Node) + ")"
	case *ast.BinaryNode:
		return "(" + render(n.Left) + " " + n.Operator + " " + render(n.Right) + ")"
	case *ast.ConditionalNode:
		return "(" + render(n.Cond) + " ? " + render(n.Exp1) + " : " + render(n.Exp2) + ")"
	case *ast.CallNode:
		return n.Callee.String() + "(" + renderArguments(n.Arguments) + ")"
	case *ast.BuiltinNode:
		return n.Name + "(" + renderArguments(n.Arguments) + ")"
	}
	return node.String()
}

func renderArguments(args []ast.Node) string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = render(a)
	}
	return strings.Join(out, ", ")
}

func freeVariables(text string) ([]string, error) {
	tree, err := parser.Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "parse expression")
	}
	c := &identifierCollector{names: make(map[string]struct{})}
	ast.Walk(&tree.Node, c)
	return sortedKeys(c.names), nil
}

func substitute(text string, vars map[string]float64) (string, []string, error) {
	tree, err := parser.Parse(text)
	if err != nil {
		return "", nil, errors.Wrap(err, "parse expression")
	}
	p := &identifierPatcher{vars: vars, free: make(map[string]struct{})}
	ast.Walk(&tree.Node, p)
	return render(tree.Node), sortedKeys(p.free), nil
}

func evaluate(text string, vars map[string]float64) (float64, error) {
	env := make(map[string]interface{}, len(vars)+1)
	for k, v := range vars {
		env[k] = v
	}
	env[piName] = math.Pi
	opts := []expr.Option{expr.Env(env), expr.AsFloat64()}
	for name, fn := range unaryFunctions {
		f := fn
		opts = append(opts, expr.Function(name, func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, errors.Errorf("expected 1 argument, got %d", len(params))
			}
			x, err := toFloat(params[0])
			if err != nil {
				return nil, err
			}
			return f(x), nil
		}))
	}
	program, err := expr.Compile(text, opts...)
	if err != nil {
		return 0, errors.Wrap(err, "compile expression")
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, errors.Wrap(err, "run expression")
	}
	return toFloat(out)
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errors.Errorf("expression evaluated to non-numeric %T", v)
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
