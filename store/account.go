package store

import (
	"github.com/dgraph-io/badger/v3"
	"github.com/shopspring/decimal"
)

const prefixAccountBalance = "ACCOUNT:BALANCE:"

type Account struct {
	ID      string          `msgpack:"id" json:"id"`
	Balance decimal.Decimal `msgpack:"balance" json:"balance"`
}

// WriteAccounts persists every account touched by one settlement in a
// single transaction.
func (bs *BadgerStore) WriteAccounts(accounts map[string]decimal.Decimal) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		for id, balance := range accounts {
			acc := &Account{ID: id, Balance: balance}
			key := []byte(prefixAccountBalance + id)
			if err := txn.Set(key, msgpackMarshalPanic(acc)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (bs *BadgerStore) ListAccounts() (map[string]decimal.Decimal, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixAccountBalance)
	it := txn.NewIterator(opts)
	defer it.Close()

	accounts := make(map[string]decimal.Decimal)
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var acc Account
		if err := msgpackUnmarshal(val, &acc); err != nil {
			return nil, err
		}
		accounts[acc.ID] = acc.Balance
	}
	return accounts, nil
}
