package store

import (
	"github.com/curionetwork/curio/gateway"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixOutputPayload = "OUTPUT:PAYLOAD:"
	prefixOutputState   = "OUTPUT:STATE:"
)

func (bs *BadgerStore) WriteOutput(out *gateway.Output) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return bs.writeOutput(txn, out)
	})
}

func (bs *BadgerStore) ReadOutput(id string) (*gateway.Output, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readOutput(txn, id)
}

func (bs *BadgerStore) ListOutputs(state, limit int) ([]*gateway.Output, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(outputStatePrefix(state))
	it := txn.NewIterator(opts)
	defer it.Close()

	var outputs []*gateway.Output
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := string(key[len(opts.Prefix)+8:])
		out, err := bs.readOutput(txn, id)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
		if len(outputs) == limit {
			break
		}
	}
	return outputs, nil
}

func (bs *BadgerStore) writeOutput(txn *badger.Txn, out *gateway.Output) error {
	old, err := bs.resetOldOutput(txn, out)
	if err != nil || old != nil {
		return err
	}

	key := []byte(prefixOutputPayload + out.ID)
	val := msgpackMarshalPanic(out)
	err = txn.Set(key, val)
	if err != nil {
		return err
	}

	key = buildOutputTimedKey(out)
	return txn.Set(key, []byte{1})
}

// resetOldOutput returns the stored output when the write would not
// advance its state, making replays no-ops. An advancing write gets its
// stale timed index key deleted first; a regressing write is a bug.
func (bs *BadgerStore) resetOldOutput(txn *badger.Txn, out *gateway.Output) (*gateway.Output, error) {
	old, err := bs.readOutput(txn, out.ID)
	if err != nil || old == nil {
		return old, err
	}
	if old.State == out.State {
		return old, nil
	}
	if old.State > out.State {
		panic(old.State)
	}

	key := buildOutputTimedKey(old)
	return nil, txn.Delete(key)
}

func (bs *BadgerStore) readOutput(txn *badger.Txn, id string) (*gateway.Output, error) {
	key := []byte(prefixOutputPayload + id)
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var out gateway.Output
	err = msgpackUnmarshal(val, &out)
	return &out, err
}

func buildOutputTimedKey(out *gateway.Output) []byte {
	prefix := outputStatePrefix(out.State)
	key := append([]byte(prefix), tsToBytes(out.UpdatedAt)...)
	return append(key, []byte(out.ID)...)
}

func outputStatePrefix(state int) string {
	prefix := prefixOutputState
	switch state {
	case gateway.OutputStatePending:
		return prefix + "pendingg"
	case gateway.OutputStateMinted:
		return prefix + "minteddd"
	case gateway.OutputStateRefunded:
		return prefix + "refunded"
	case gateway.OutputStateFailed:
		return prefix + "faileddd"
	}
	panic(state)
}
