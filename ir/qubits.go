package ir

import (
	"sort"

	"github.com/oqtopus-team/oqtopus-qir/qerr"
)

type qubitsKind int

const (
	qubitsNone qubitsKind = iota
	qubitsAll
	qubitsSet
)

// InvolvedQubits is the set of qubits an operation touches. Global pragmas
// report All, classical operations report None.
type InvolvedQubits struct {
	kind   qubitsKind
	qubits []int
}

func NoQubits() InvolvedQubits {
	return InvolvedQubits{kind: qubitsNone}
}

func AllQubits() InvolvedQubits {
	return InvolvedQubits{kind: qubitsAll}
}

// QubitSet returns a set of the given qubits. An empty set is None.
func QubitSet(qubits ...int) InvolvedQubits {
	if len(qubits) == 0 {
		return NoQubits()
	}
	seen := make(map[int]struct{}, len(qubits))
	out := make([]int, 0, len(qubits))
	for _, q := range qubits {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	sort.Ints(out)
	return InvolvedQubits{kind: qubitsSet, qubits: out}
}

func (i InvolvedQubits) IsAll() bool  { return i.kind == qubitsAll }
func (i InvolvedQubits) IsNone() bool { return i.kind == qubitsNone }

// Qubits returns the sorted qubit indices of a set. All and None return nil.
func (i InvolvedQubits) Qubits() []int {
	if i.kind != qubitsSet {
		return nil
	}
	return append([]int(nil), i.qubits...)
}

// Contains reports whether q is touched. All contains every qubit.
func (i InvolvedQubits) Contains(q int) bool {
	switch i.kind {
	case qubitsAll:
		return true
	case qubitsSet:
		idx := sort.SearchInts(i.qubits, q)
		return idx < len(i.qubits) && i.qubits[idx] == q
	}
	return false
}

func (i InvolvedQubits) Union(o InvolvedQubits) InvolvedQubits {
	if i.IsAll() || o.IsAll() {
		return AllQubits()
	}
	return QubitSet(append(i.Qubits(), o.Qubits()...)...)
}

func (i InvolvedQubits) Equal(o InvolvedQubits) bool {
	if i.kind != o.kind || len(i.qubits) != len(o.qubits) {
		return false
	}
	for k := range i.qubits {
		if i.qubits[k] != o.qubits[k] {
			return false
		}
	}
	return true
}

func (i InvolvedQubits) String() string {
	switch i.kind {
	case qubitsAll:
		return "All"
	case qubitsNone:
		return "None"
	}
	return "Set" + intsString(i.qubits)
}

func remapQubit(q int, mapping map[int]int) (int, error) {
	n, ok := mapping[q]
	if !ok {
		return 0, &qerr.QubitMappingError{Qubit: q}
	}
	return n, nil
}

func remapQubits(qubits []int, mapping map[int]int) ([]int, error) {
	if qubits == nil {
		return nil, nil
	}
	out := make([]int, len(qubits))
	for i, q := range qubits {
		n, err := remapQubit(q, mapping)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// remapQubitKeys relabels the keys of a qubit-indexed map.
func remapQubitKeys(m map[int]int, mapping map[int]int) (map[int]int, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[int]int, len(m))
	for k, v := range m {
		n, err := remapQubit(k, mapping)
		if err != nil {
			return nil, err
		}
		out[n] = v
	}
	return out, nil
}
