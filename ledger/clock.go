package ledger

import (
	"encoding/binary"
	"sync"
	"time"
)

const clockPropertyKey = "LEDGER:CLOCK:MONOTONIC"

// PropertyStore persists small keyed values.
type PropertyStore interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)
}

// Clock is a wall clock that never goes backwards, not even across
// restarts: every reading is persisted, and a reading is only handed
// out once the wall clock has passed the last persisted one.
type Clock struct {
	sync.Mutex
	store PropertyStore
	now   time.Time
}

func NewClock(store PropertyStore) (*Clock, error) {
	bs, err := store.ReadProperty([]byte(clockPropertyKey))
	if err != nil {
		return nil, err
	}
	clock := &Clock{store: store, now: time.Now()}
	if len(bs) == 8 {
		ts := time.Unix(0, int64(binary.BigEndian.Uint64(bs)))
		if ts.After(clock.now) {
			clock.now = ts
		}
	}
	return clock, nil
}

func (c *Clock) Now() time.Time {
	c.Lock()
	defer c.Unlock()

	for {
		now := time.Now()
		if now.After(c.now) {
			c.now = now
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	val := binary.BigEndian.AppendUint64(nil, uint64(c.now.UnixNano()))
	for {
		err := c.store.WriteProperty([]byte(clockPropertyKey), val)
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	return c.now
}
