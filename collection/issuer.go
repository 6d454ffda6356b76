package collection

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Mint issues amount new tokens to caller against a payment already
// settled into the vault, refunding any excess over the exact cost.
// The guards run in a fixed order and the first failure aborts with
// no state change; a failed refund rolls the whole issuance back.
//
// trace, when set, deduplicates replays of the same platform payment:
// a trace that already minted returns the recorded ids and changes
// nothing. Nested calls arriving through a bank hook are rejected
// instead of deadlocking on the call lock; top-level concurrent calls
// serialize.
func (c *Collection) Mint(ctx context.Context, caller string, amount uint64, payment decimal.Decimal, trace string) ([]uint64, error) {
	if caller == "" {
		return nil, validationError(ErrEmptyAccount)
	}
	if reentered(ctx) {
		// keep the fixed guard order even for nested calls, so a
		// zero amount still reads as a validation failure
		if err := c.mintPolicy(amount); err != nil {
			return nil, err
		}
		return nil, reentrancyError(ErrReentered)
	}
	c.call.Lock()
	defer c.call.Unlock()

	if trace != "" {
		old, err := c.store.ReadMintReceipt(trace)
		if err != nil {
			return nil, err
		}
		if old != nil {
			return old.Tokens, nil
		}
	}

	c.mu.Lock()
	if err := c.mintPolicyLocked(amount); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if gate := c.conf.MintNotBefore; !gate.IsZero() && c.now().Before(gate) {
		c.mu.Unlock()
		return nil, validationError(ErrNotStarted)
	}
	if c.conf.RequireDirectCaller && c.bank.IsProgram(caller) {
		c.mu.Unlock()
		return nil, validationError(ErrProgramCaller)
	}
	cost := c.conf.UnitPrice.Mul(decimalFromCount(amount))
	if payment.Cmp(cost) < 0 {
		c.mu.Unlock()
		return nil, validationError(fmt.Errorf("%w: %s of %s", ErrPayment, payment, cost))
	}
	if amount > c.conf.MaxSupply-c.issued {
		c.mu.Unlock()
		return nil, validationError(fmt.Errorf("%w: %d issued of %d", ErrSupply, c.issued, c.conf.MaxSupply))
	}

	mintedAt := c.now()
	ids := make([]uint64, amount)
	for i := range ids {
		ids[i] = c.issued + uint64(i) + 1
	}
	for _, id := range ids {
		if err := c.registry.Assign(caller, id); err != nil {
			panic(err)
		}
		c.enum.RecordIssuance(caller, id)
	}
	c.issued += amount
	issued := c.issued
	vault := c.conf.Vault
	c.mu.Unlock()

	if refund := payment.Sub(cost); refund.IsPositive() {
		if err := c.bank.Transfer(markCall(ctx), vault, caller, refund); err != nil {
			c.rollbackMint(caller, ids)
			return nil, transferError(err)
		}
	}

	tokens := make([]*Token, len(ids))
	for i, id := range ids {
		tokens[i] = &Token{ID: id, Owner: caller, MintedAt: mintedAt}
	}
	var receipt *MintReceipt
	if trace != "" {
		receipt = &MintReceipt{Trace: trace, Minter: caller, Tokens: ids, CreatedAt: mintedAt}
	}
	if err := c.store.WriteMint(tokens, issued, receipt); err != nil {
		panic(err)
	}
	c.emitter.Emit(newMintEvent(caller, ids, cost, mintedAt))
	c.log.Info().Str("minter", caller).Uints64("tokens", ids).Str("cost", cost.String()).Msg("minted")
	return ids, nil
}

func (c *Collection) mintPolicy(amount uint64) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mintPolicyLocked(amount)
}

// mintPolicyLocked evaluates the always-on guards in their fixed
// order: sealed, zero amount, mint limit, paused.
func (c *Collection) mintPolicyLocked(amount uint64) error {
	if c.conf.Sealed {
		return validationError(ErrSealed)
	}
	if amount == 0 {
		return validationError(ErrZeroAmount)
	}
	if amount > c.conf.MintLimit {
		return validationError(fmt.Errorf("%w: %d of %d", ErrMintLimit, amount, c.conf.MintLimit))
	}
	if c.conf.Paused {
		return validationError(ErrPaused)
	}
	return nil
}

func (c *Collection) rollbackMint(owner string, ids []uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(ids) - 1; i >= 0; i-- {
		c.enum.RecordRemoval(owner, ids[i])
		if err := c.registry.Unassign(owner, ids[i]); err != nil {
			panic(err)
		}
	}
	c.issued -= uint64(len(ids))
}

// Burn removes a token the caller owns from the registry and both
// enumerations. The issued counter stays put, so the id is gone for
// good and frees no supply capacity.
func (c *Collection) Burn(ctx context.Context, caller string, id uint64) error {
	if reentered(ctx) {
		return reentrancyError(ErrReentered)
	}
	c.call.Lock()
	defer c.call.Unlock()

	c.mu.Lock()
	owner, found := c.registry.OwnerOf(id)
	if !found || owner != caller {
		c.mu.Unlock()
		return authorizationError(ErrNotTokenOwner)
	}
	if err := c.registry.Unassign(caller, id); err != nil {
		panic(err)
	}
	c.enum.RecordRemoval(caller, id)
	if err := c.store.WriteBurn(id); err != nil {
		panic(err)
	}
	burnedAt := c.now()
	c.mu.Unlock()

	c.emitter.Emit(newBurnEvent(caller, id, burnedAt))
	c.log.Info().Str("owner", caller).Uint64("token", id).Msg("burned")
	return nil
}

func decimalFromCount(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}
