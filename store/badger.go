package store

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog"
)

// BadgerStore keeps every collection, gateway and ledger record in one
// badger database, so a mint and its receipt commit in a single
// transaction.
type BadgerStore struct {
	db  *badger.DB
	log zerolog.Logger
}

func OpenBadger(ctx context.Context, path string, log zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	bs := &BadgerStore{db: db, log: log}
	go bs.compactionLoop(ctx)
	return bs, nil
}

func (bs *BadgerStore) compactionLoop(ctx context.Context) {
	for {
		lsm, vlog := bs.db.Size()
		bs.log.Debug().Int64("lsm", lsm).Int64("vlog", vlog).Msg("badger size")
		if lsm > 1024*1024*8 || vlog > 1024*1024*32 {
			err := bs.db.RunValueLogGC(0.5)
			bs.log.Info().Err(err).Msg("badger value log gc")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Minute):
		}
	}
}

func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}

func (bs *BadgerStore) Badger() *badger.DB {
	return bs.db
}

func (bs *BadgerStore) WriteProperty(key, val []byte) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (bs *BadgerStore) ReadProperty(key []byte) ([]byte, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
