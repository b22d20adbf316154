package qpu

import (
	"fmt"
	"math/rand"
)

// qubitState is one of the four single-qubit states the DummyQPU tracks.
// Global phases are dropped.
type qubitState int

const (
	stateZero qubitState = iota
	stateOne
	statePlus
	stateMinus
)

func (s qubitState) String() string {
	switch s {
	case stateZero:
		return "|0>"
	case stateOne:
		return "|1>"
	case statePlus:
		return "|+>"
	default:
		return "|->"
	}
}

type state []qubitState

func newState(n int) state {
	return make(state, n)
}

func (s state) x(q int) {
	switch s[q] {
	case stateZero:
		s[q] = stateOne
	case stateOne:
		s[q] = stateZero
	}
}

func (s state) z(q int) {
	switch s[q] {
	case statePlus:
		s[q] = stateMinus
	case stateMinus:
		s[q] = statePlus
	}
}

func (s state) h(q int) {
	switch s[q] {
	case stateZero:
		s[q] = statePlus
	case stateOne:
		s[q] = stateMinus
	case statePlus:
		s[q] = stateZero
	case stateMinus:
		s[q] = stateOne
	}
}

// cnot needs a control in a definite state, anything else would entangle.
func (s state) cnot(control, target int) error {
	switch s[control] {
	case stateZero:
		return nil
	case stateOne:
		s.x(target)
		return nil
	}
	return fmt.Errorf("control qubit %d of CNOT is in %s", control, s[control])
}

// measure collapses q and returns the outcome.
func (s state) measure(q int, rng *rand.Rand) bool {
	switch s[q] {
	case statePlus, stateMinus:
		if rng.Intn(2) == 1 {
			s[q] = stateOne
		} else {
			s[q] = stateZero
		}
	}
	return s[q] == stateOne
}
