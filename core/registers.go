package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mohae/deepcopy"
	"github.com/oqtopus-team/oqtopus-qir/ir"
	"go.uber.org/zap"
)

// BitRegisters maps a register name to one row of bits per shot.
type BitRegisters map[string][][]bool

// FloatRegisters maps a register name to its rows of floats.
type FloatRegisters map[string][][]float64

// ComplexRegisters maps a register name to its rows of complex values.
type ComplexRegisters map[string][]ir.ComplexArray

// Registers is the raw output of one circuit execution.
type Registers struct {
	Bits      BitRegisters     `json:"bit_registers"`
	Floats    FloatRegisters   `json:"float_registers"`
	Complexes ComplexRegisters `json:"complex_registers"`
}

func NewRegisters() *Registers {
	return &Registers{
		Bits:      make(BitRegisters),
		Floats:    make(FloatRegisters),
		Complexes: make(ComplexRegisters),
	}
}

func (r *Registers) Clone() *Registers {
	if r == nil {
		return nil
	}
	return deepcopy.Copy(r).(*Registers)
}

// Names lists every register name across the three kinds, sorted.
func (r *Registers) Names() []string {
	var names []string
	for k := range r.Bits {
		names = append(names, k)
	}
	for k := range r.Floats {
		names = append(names, k)
	}
	for k := range r.Complexes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Append adds the rows of o after the rows of r, register by register.
func (r *Registers) Append(o *Registers) {
	if o == nil {
		return
	}
	if r.Bits == nil {
		r.Bits = make(BitRegisters)
	}
	if r.Floats == nil {
		r.Floats = make(FloatRegisters)
	}
	if r.Complexes == nil {
		r.Complexes = make(ComplexRegisters)
	}
	for k, rows := range o.Bits {
		r.Bits[k] = append(r.Bits[k], rows...)
	}
	for k, rows := range o.Floats {
		r.Floats[k] = append(r.Floats[k], rows...)
	}
	for k, rows := range o.Complexes {
		r.Complexes[k] = append(r.Complexes[k], rows...)
	}
}

func (r *Registers) String() string {
	st, err := jsonIter.Marshal(r)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to marshal core.Registers/reason:%s", err))
		return ""
	}
	return string(st)
}

// Counts histograms the shots of a bit register. Slot 0 is the rightmost
// character of each key.
func (b BitRegisters) Counts(name string) Counts {
	counts := make(Counts)
	for _, row := range b[name] {
		counts[BitString(row)]++
	}
	return counts
}

// BitString renders a shot row with slot 0 as the last character.
func BitString(row []bool) string {
	var sb strings.Builder
	sb.Grow(len(row))
	for i := len(row) - 1; i >= 0; i-- {
		if row[i] {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
