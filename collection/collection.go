package collection

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type callMarkerKey struct{}

func markCall(ctx context.Context) context.Context {
	return context.WithValue(ctx, callMarkerKey{}, true)
}

func reentered(ctx context.Context) bool {
	marked, _ := ctx.Value(callMarkerKey{}).(bool)
	return marked
}

// Collection combines the policy record, the issued counter and the
// enumeration index behind one guarded surface. Guarded entry points
// serialize on call; queries only take the state lock, so they stay
// answerable while a settlement is in flight.
type Collection struct {
	call sync.Mutex
	mu   sync.RWMutex

	conf   *Config
	enum   *Enumeration
	issued uint64

	registry Registry
	bank     Bank
	store    Store
	emitter  Emitter
	now      func() time.Time
	log      zerolog.Logger
}

// Build loads the collection from the store, seeding it with conf on
// first boot. The registry is filled from the persisted token set, so
// it must be empty when passed in.
func Build(store Store, registry Registry, bank Bank, conf *Config) (*Collection, error) {
	stored, err := store.ReadConfig()
	if err != nil {
		return nil, err
	}
	if stored == nil {
		if conf == nil {
			return nil, fmt.Errorf("no stored collection and no genesis configuration")
		}
		stored = conf.copy()
		stored.normalize()
		if err := stored.validate(); err != nil {
			return nil, err
		}
		if err := store.WriteConfig(stored); err != nil {
			return nil, err
		}
	}

	issued, err := store.ReadIssuedCount()
	if err != nil {
		return nil, err
	}
	tokens, err := store.ListTokens()
	if err != nil {
		return nil, err
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID < tokens[j].ID })

	c := &Collection{
		conf:     stored,
		enum:     NewEnumeration(),
		issued:   issued,
		registry: registry,
		bank:     bank,
		store:    store,
		emitter:  NopEmitter{},
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, t := range tokens {
		if t.ID > issued {
			return nil, fmt.Errorf("token %d beyond issued counter %d", t.ID, issued)
		}
		if err := registry.Assign(t.Owner, t.ID); err != nil {
			return nil, err
		}
		c.enum.RecordIssuance(t.Owner, t.ID)
	}
	return c, nil
}

func (c *Collection) SetEmitter(emitter Emitter) {
	c.emitter = emitter
}

func (c *Collection) SetNowFunc(now func() time.Time) {
	c.now = now
}

func (c *Collection) SetLogger(log zerolog.Logger) {
	c.log = log
}

func (c *Collection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conf.Name
}

func (c *Collection) Symbol() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conf.Symbol
}

func (c *Collection) BasePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conf.BasePath
}

func (c *Collection) Owner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conf.Owner
}

func (c *Collection) Vault() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conf.Vault
}

func (c *Collection) UnitPrice() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conf.UnitPrice
}

// Issued counts every token ever minted. Burns do not decrement it,
// so ids are never reused.
func (c *Collection) Issued() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.issued
}

func (c *Collection) TotalSupply() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enum.TotalSupply()
}

func (c *Collection) BalanceOf(owner string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enum.BalanceOf(owner)
}

func (c *Collection) TokenByIndex(index int) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enum.TokenByIndex(index)
}

func (c *Collection) TokenOfOwnerByIndex(owner string, index int) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enum.TokenOfOwnerByIndex(owner, index)
}

func (c *Collection) TokensOf(owner string) []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enum.TokensOf(owner)
}

func (c *Collection) OwnerOf(id uint64) (string, bool) {
	return c.registry.OwnerOf(id)
}

// Snapshot returns a copy of the policy record plus the two counters,
// for the read API.
func (c *Collection) Snapshot() (*Config, uint64, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conf.copy(), c.issued, c.enum.TotalSupply()
}

// Transfer moves a token through the ownership primitive and keeps the
// enumeration in step. The primitive owns the authorization decision.
func (c *Collection) Transfer(ctx context.Context, from, to string, id uint64) error {
	if to == "" {
		return validationError(ErrEmptyAccount)
	}
	if reentered(ctx) {
		return reentrancyError(ErrReentered)
	}
	c.call.Lock()
	defer c.call.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.registry.Transfer(from, to, id); err != nil {
		return validationError(err)
	}
	c.enum.RecordTransfer(from, to, id)
	if err := c.store.WriteTransfer(id, to); err != nil {
		panic(err)
	}
	return nil
}
