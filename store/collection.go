package store

import (
	"encoding/binary"

	"github.com/curionetwork/curio/collection"
	"github.com/dgraph-io/badger/v3"
)

const (
	keyCollectionConfig = "COLLECTION:CONFIG"
	keyCollectionIssued = "COLLECTION:ISSUED"
	prefixTokenPayload  = "COLLECTION:TOKEN:"
	prefixMintReceipt   = "COLLECTION:MINT:TRACE:"
)

func (bs *BadgerStore) ReadConfig() (*collection.Config, error) {
	val, err := bs.ReadProperty([]byte(keyCollectionConfig))
	if err != nil || val == nil {
		return nil, err
	}
	var conf collection.Config
	err = msgpackUnmarshal(val, &conf)
	return &conf, err
}

func (bs *BadgerStore) WriteConfig(conf *collection.Config) error {
	return bs.WriteProperty([]byte(keyCollectionConfig), msgpackMarshalPanic(conf))
}

func (bs *BadgerStore) ReadIssuedCount() (uint64, error) {
	val, err := bs.ReadProperty([]byte(keyCollectionIssued))
	if err != nil || len(val) != 8 {
		return 0, err
	}
	return binary.BigEndian.Uint64(val), nil
}

func (bs *BadgerStore) ReadMintReceipt(trace string) (*collection.MintReceipt, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get([]byte(prefixMintReceipt + trace))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var receipt collection.MintReceipt
	err = msgpackUnmarshal(val, &receipt)
	return &receipt, err
}

// WriteMint commits the new tokens, the advanced issued counter and the
// trace receipt in one transaction, so a crash cannot split them.
func (bs *BadgerStore) WriteMint(tokens []*collection.Token, issued uint64, receipt *collection.MintReceipt) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		for _, t := range tokens {
			key := append([]byte(prefixTokenPayload), idToBytes(t.ID)...)
			if err := txn.Set(key, msgpackMarshalPanic(t)); err != nil {
				return err
			}
		}
		if err := txn.Set([]byte(keyCollectionIssued), idToBytes(issued)); err != nil {
			return err
		}
		if receipt == nil {
			return nil
		}
		key := []byte(prefixMintReceipt + receipt.Trace)
		return txn.Set(key, msgpackMarshalPanic(receipt))
	})
}

func (bs *BadgerStore) WriteTransfer(id uint64, owner string) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		token, err := bs.readToken(txn, id)
		if err != nil {
			return err
		}
		if token == nil {
			panic(id)
		}
		token.Owner = owner
		key := append([]byte(prefixTokenPayload), idToBytes(id)...)
		return txn.Set(key, msgpackMarshalPanic(token))
	})
}

func (bs *BadgerStore) WriteBurn(id uint64) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		key := append([]byte(prefixTokenPayload), idToBytes(id)...)
		return txn.Delete(key)
	})
}

func (bs *BadgerStore) ListTokens() ([]*collection.Token, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixTokenPayload)
	it := txn.NewIterator(opts)
	defer it.Close()

	var tokens []*collection.Token
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var token collection.Token
		if err := msgpackUnmarshal(val, &token); err != nil {
			return nil, err
		}
		tokens = append(tokens, &token)
	}
	return tokens, nil
}

func (bs *BadgerStore) readToken(txn *badger.Txn, id uint64) (*collection.Token, error) {
	key := append([]byte(prefixTokenPayload), idToBytes(id)...)
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
	var token collection.Token
	err = msgpackUnmarshal(val, &token)
	return &token, err
}
