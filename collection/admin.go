package collection

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

func (c *Collection) authorize(caller string) error {
	if caller != c.conf.Owner {
		return authorizationError(ErrNotOwner)
	}
	return nil
}

func (c *Collection) persistConfig() {
	if err := c.store.WriteConfig(c.conf.copy()); err != nil {
		panic(err)
	}
}

// Withdraw pays the full vault balance out to the owner.
func (c *Collection) Withdraw(ctx context.Context, caller string) (decimal.Decimal, error) {
	if reentered(ctx) {
		return decimal.Zero, reentrancyError(ErrReentered)
	}
	c.call.Lock()
	defer c.call.Unlock()

	c.mu.RLock()
	owner, vault := c.conf.Owner, c.conf.Vault
	c.mu.RUnlock()
	if caller != owner {
		return decimal.Zero, authorizationError(ErrNotOwner)
	}
	balance := c.bank.Balance(vault)
	if !balance.IsPositive() {
		return decimal.Zero, validationError(ErrEmptyVault)
	}
	if err := c.bank.Transfer(markCall(ctx), vault, owner, balance); err != nil {
		return decimal.Zero, transferError(err)
	}
	c.emitter.Emit(newWithdrawEvent(owner, balance, c.now()))
	c.log.Info().Str("owner", owner).Str("amount", balance.String()).Msg("vault withdrawn")
	return balance, nil
}

func (c *Collection) Pause(caller string) error {
	c.mu.Lock()
	if err := c.authorize(caller); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.conf.Paused {
		c.mu.Unlock()
		return nil
	}
	c.conf.Paused = true
	c.persistConfig()
	c.mu.Unlock()
	c.emitter.Emit(newEvent(EventPaused, caller, c.now()))
	return nil
}

func (c *Collection) Unpause(caller string) error {
	c.mu.Lock()
	if err := c.authorize(caller); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.conf.Paused {
		c.mu.Unlock()
		return nil
	}
	c.conf.Paused = false
	c.persistConfig()
	c.mu.Unlock()
	c.emitter.Emit(newEvent(EventUnpaused, caller, c.now()))
	return nil
}

// SealMinting disables issuance for good. There is no way back, not
// even for the owner.
func (c *Collection) SealMinting(caller string) error {
	c.mu.Lock()
	if err := c.authorize(caller); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.conf.Sealed {
		c.mu.Unlock()
		return nil
	}
	c.conf.Sealed = true
	c.persistConfig()
	c.mu.Unlock()
	c.emitter.Emit(newEvent(EventSealed, caller, c.now()))
	return nil
}

func (c *Collection) SetMintLimit(caller string, limit uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.authorize(caller); err != nil {
		return err
	}
	c.conf.MintLimit = limit
	c.persistConfig()
	return nil
}

func (c *Collection) SetUnitPrice(caller string, price decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.authorize(caller); err != nil {
		return err
	}
	if price.IsNegative() {
		return validationError(ErrNegativePrice)
	}
	if ceiling := c.conf.PriceCeiling; !ceiling.IsZero() && price.Cmp(ceiling) > 0 {
		return validationError(fmt.Errorf("%w: %s over %s", ErrPriceCeiling, price, ceiling))
	}
	c.conf.UnitPrice = price
	c.persistConfig()
	return nil
}

func (c *Collection) SetBasePath(caller, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.authorize(caller); err != nil {
		return err
	}
	c.conf.BasePath = path
	c.persistConfig()
	return nil
}

func (c *Collection) TransferOwnership(caller, owner string) error {
	c.mu.Lock()
	if err := c.authorize(caller); err != nil {
		c.mu.Unlock()
		return err
	}
	if owner == "" {
		c.mu.Unlock()
		return validationError(ErrEmptyAccount)
	}
	previous := c.conf.Owner
	c.conf.Owner = owner
	c.persistConfig()
	c.mu.Unlock()
	ev := newEvent(EventOwnership, owner, c.now())
	ev.Memo = previous
	c.emitter.Emit(ev)
	return nil
}
