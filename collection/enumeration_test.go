package collection

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerationRecordIssuance(t *testing.T) {
	e := NewEnumeration()
	e.RecordIssuance("alice", 1)
	e.RecordIssuance("alice", 2)
	e.RecordIssuance("bob", 3)

	assert.Equal(t, 3, e.TotalSupply())
	assert.Equal(t, 2, e.BalanceOf("alice"))
	assert.Equal(t, 1, e.BalanceOf("bob"))
	assert.Equal(t, []uint64{1, 2}, e.TokensOf("alice"))
	assert.True(t, e.Contains(3))
	assert.False(t, e.Contains(9))

	assert.Panics(t, func() { e.RecordIssuance("carol", 1) }, "duplicate id")
	assert.Panics(t, func() { e.RecordIssuance("", 4) }, "empty owner")
}

func TestEnumerationSwapAndPop(t *testing.T) {
	e := NewEnumeration()
	for id := uint64(1); id <= 3; id++ {
		e.RecordIssuance("alice", id)
	}

	// removing the head swaps the tail into its slot
	e.RecordRemoval("alice", 1)
	assert.Equal(t, 2, e.TotalSupply())
	assert.Equal(t, []uint64{3, 2}, e.TokensOf("alice"))

	id, err := e.TokenByIndex(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)

	assert.Panics(t, func() { e.RecordRemoval("alice", 1) }, "already removed")
	assert.Panics(t, func() { e.RecordRemoval("bob", 2) }, "wrong owner")
}

func TestEnumerationRecordTransfer(t *testing.T) {
	e := NewEnumeration()
	e.RecordIssuance("alice", 1)
	e.RecordIssuance("alice", 2)

	e.RecordTransfer("alice", "bob", 1)
	assert.Equal(t, []uint64{2}, e.TokensOf("alice"))
	assert.Equal(t, []uint64{1}, e.TokensOf("bob"))
	assert.Equal(t, 2, e.TotalSupply(), "global sequence untouched")

	assert.Panics(t, func() { e.RecordTransfer("alice", "bob", 1) }, "not alice's anymore")
	assert.Panics(t, func() { e.RecordTransfer("bob", "", 1) }, "empty receiver")
}

func TestEnumerationIndexErrors(t *testing.T) {
	e := NewEnumeration()
	e.RecordIssuance("alice", 1)

	_, err := e.TokenByIndex(1)
	assert.True(t, errors.Is(err, ErrIndexRange))
	assertKind(t, err, KindIndex)
	_, err = e.TokenByIndex(-1)
	assert.Error(t, err)

	_, err = e.TokenOfOwnerByIndex("alice", 1)
	assert.True(t, errors.Is(err, ErrIndexRange))
	_, err = e.TokenOfOwnerByIndex("nobody", 0)
	assert.Error(t, err)

	id, err := e.TokenOfOwnerByIndex("alice", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestEnumerationTokensOfIsACopy(t *testing.T) {
	e := NewEnumeration()
	e.RecordIssuance("alice", 1)
	e.RecordIssuance("alice", 2)

	tokens := e.TokensOf("alice")
	tokens[0] = 99
	assert.Equal(t, []uint64{1, 2}, e.TokensOf("alice"))
	assert.Nil(t, e.TokensOf("nobody"))
}

// TestEnumerationDensityUnderChurn drives random mint, transfer and
// burn interleavings and checks the dense layout after each batch.
func TestEnumerationDensityUnderChurn(t *testing.T) {
	e := NewEnumeration()
	r := rand.New(rand.NewSource(42))
	accounts := []string{"a", "b", "c", "d"}

	var next uint64
	var live []uint64
	owners := make(map[uint64]string)

	pick := func() uint64 { return live[r.Intn(len(live))] }
	drop := func(id uint64) {
		for i, v := range live {
			if v == id {
				live[i] = live[len(live)-1]
				live = live[:len(live)-1]
				return
			}
		}
		t.Fatalf("id %d not tracked", id)
	}

	for i := 0; i < 2000; i++ {
		op := r.Intn(10)
		switch {
		case op < 5 || len(live) == 0:
			next++
			owner := accounts[r.Intn(len(accounts))]
			e.RecordIssuance(owner, next)
			owners[next] = owner
			live = append(live, next)
		case op < 8:
			id := pick()
			to := accounts[r.Intn(len(accounts))]
			e.RecordTransfer(owners[id], to, id)
			owners[id] = to
		default:
			id := pick()
			e.RecordRemoval(owners[id], id)
			delete(owners, id)
			drop(id)
		}
		if i%25 == 0 {
			checkDense(t, e, owners)
		}
	}
	checkDense(t, e, owners)
}

// checkDense verifies both sequences cover exactly the live set with
// no gaps and agree with the reverse maps.
func checkDense(t *testing.T, e *Enumeration, owners map[uint64]string) {
	t.Helper()

	require.Equal(t, len(owners), e.TotalSupply())
	globally := make(map[uint64]bool, len(owners))
	for i := 0; i < e.TotalSupply(); i++ {
		id, err := e.TokenByIndex(i)
		require.NoError(t, err)
		require.False(t, globally[id], "id %d enumerated twice", id)
		globally[id] = true
		require.Contains(t, owners, id)
	}

	balances := make(map[string]int)
	for _, owner := range owners {
		balances[owner]++
	}
	for owner, balance := range balances {
		require.Equal(t, balance, e.BalanceOf(owner))
		for i := 0; i < balance; i++ {
			id, err := e.TokenOfOwnerByIndex(owner, i)
			require.NoError(t, err)
			require.Equal(t, owners[id], owner)
		}
		_, err := e.TokenOfOwnerByIndex(owner, balance)
		require.Error(t, err)
	}
}
