package collection

import "fmt"

// Enumeration keeps two dense sequences over the live token set, one
// per owner and one global, each paired with a reverse position map so
// every record and lookup is O(1). Removal swaps the last element into
// the vacated slot, so a sequence of length n always occupies indexes
// [0, n). Ownership checks and payments live elsewhere; a call that
// breaks the density invariant is a bug in the caller and panics.
type Enumeration struct {
	owned    map[string][]uint64
	ownedIdx map[uint64]int
	all      []uint64
	allIdx   map[uint64]int
}

func NewEnumeration() *Enumeration {
	return &Enumeration{
		owned:    make(map[string][]uint64),
		ownedIdx: make(map[uint64]int),
		allIdx:   make(map[uint64]int),
	}
}

func (e *Enumeration) RecordIssuance(owner string, id uint64) {
	if owner == "" {
		panic(id)
	}
	if _, found := e.allIdx[id]; found {
		panic(fmt.Errorf("token %d already enumerated", id))
	}
	e.ownedIdx[id] = len(e.owned[owner])
	e.owned[owner] = append(e.owned[owner], id)
	e.allIdx[id] = len(e.all)
	e.all = append(e.all, id)
}

func (e *Enumeration) RecordRemoval(owner string, id uint64) {
	e.dropOwned(owner, id)

	pos, found := e.allIdx[id]
	if !found {
		panic(fmt.Errorf("token %d not enumerated", id))
	}
	last := len(e.all) - 1
	if pos != last {
		moved := e.all[last]
		e.all[pos] = moved
		e.allIdx[moved] = pos
	}
	e.all = e.all[:last]
	delete(e.allIdx, id)
}

// RecordTransfer moves id between the two owner sequences and leaves
// the global sequence untouched.
func (e *Enumeration) RecordTransfer(from, to string, id uint64) {
	if to == "" {
		panic(id)
	}
	e.dropOwned(from, id)
	e.ownedIdx[id] = len(e.owned[to])
	e.owned[to] = append(e.owned[to], id)
}

func (e *Enumeration) dropOwned(owner string, id uint64) {
	pos, found := e.ownedIdx[id]
	seq := e.owned[owner]
	if !found || pos >= len(seq) || seq[pos] != id {
		panic(fmt.Errorf("token %d not enumerated for %s", id, owner))
	}
	last := len(seq) - 1
	if pos != last {
		moved := seq[last]
		seq[pos] = moved
		e.ownedIdx[moved] = pos
	}
	e.owned[owner] = seq[:last]
	if last == 0 {
		delete(e.owned, owner)
	}
	delete(e.ownedIdx, id)
}

func (e *Enumeration) TokenByIndex(index int) (uint64, error) {
	if index < 0 || index >= len(e.all) {
		return 0, indexError(fmt.Errorf("%w: %d of %d", ErrIndexRange, index, len(e.all)))
	}
	return e.all[index], nil
}

func (e *Enumeration) TokenOfOwnerByIndex(owner string, index int) (uint64, error) {
	seq := e.owned[owner]
	if index < 0 || index >= len(seq) {
		return 0, indexError(fmt.Errorf("%w: %d of %d", ErrIndexRange, index, len(seq)))
	}
	return seq[index], nil
}

func (e *Enumeration) TotalSupply() int {
	return len(e.all)
}

func (e *Enumeration) BalanceOf(owner string) int {
	return len(e.owned[owner])
}

func (e *Enumeration) TokensOf(owner string) []uint64 {
	seq := e.owned[owner]
	if len(seq) == 0 {
		return nil
	}
	dup := make([]uint64, len(seq))
	copy(dup, seq)
	return dup
}

func (e *Enumeration) Contains(id uint64) bool {
	_, found := e.allIdx[id]
	return found
}
