package symbolic

// Calculator holds the variable bindings used to substitute and evaluate
// Values. A nil *Calculator behaves as one without bindings.
type Calculator struct {
	vars   map[string]float64
	strict bool
}

func NewCalculator() *Calculator {
	return &Calculator{vars: make(map[string]float64)}
}

// NewCalculatorFromMap copies vars into a new Calculator.
func NewCalculatorFromMap(vars map[string]float64) *Calculator {
	c := NewCalculator()
	for k, v := range vars {
		c.vars[k] = v
	}
	return c
}

func (c *Calculator) Set(name string, value float64) {
	c.vars[name] = value
}

func (c *Calculator) Get(name string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.vars[name]
	return v, ok
}

// Variables returns a copy of the bindings.
func (c *Calculator) Variables() map[string]float64 {
	out := make(map[string]float64)
	if c == nil {
		return out
	}
	for k, v := range c.vars {
		out[k] = v
	}
	return out
}

// Strict returns a copy of c whose Substitute fails on unbound variables
// instead of leaving them in place.
func (c *Calculator) Strict() *Calculator {
	s := NewCalculatorFromMap(c.Variables())
	s.strict = true
	return s
}

// Substitute partially resolves v, or fully for a strict Calculator.
func (c *Calculator) Substitute(v Value) (Value, error) {
	if c == nil {
		return v.Substitute(nil)
	}
	if c.strict {
		f, err := v.Evaluate(c.vars)
		if err != nil {
			return v, err
		}
		return Float(f), nil
	}
	return v.Substitute(c.vars)
}

// Evaluate fully resolves v.
func (c *Calculator) Evaluate(v Value) (float64, error) {
	if c == nil {
		return v.Evaluate(nil)
	}
	return v.Evaluate(c.vars)
}

// Parse evaluates an expression text with the current bindings.
func (c *Calculator) Parse(text string) (float64, error) {
	return c.Evaluate(Expression(text))
}
