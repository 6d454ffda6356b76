package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Hook runs when its account receives a transfer, before the transfer
// is considered settled. It gets the sender's context, so a guarded
// operation called from inside it is detected as re-entrant. A non-nil
// error bounces the funds back to the sender.
type Hook func(ctx context.Context, from string, amount decimal.Decimal) error

// BalanceStore persists account balances across restarts.
type BalanceStore interface {
	WriteAccounts(accounts map[string]decimal.Decimal) error
	ListAccounts() (map[string]decimal.Decimal, error)
}

// Bank is the fund-transfer primitive: account balances with atomic
// moves. An account with a bound hook is a program; the bank runs the
// hook on every transfer the account receives.
type Bank struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	hooks    map[string]Hook
	store    BalanceStore
}

// NewBank loads the persisted balances when a store is given; a nil
// store keeps the bank purely in memory.
func NewBank(store BalanceStore) (*Bank, error) {
	bank := &Bank{
		balances: make(map[string]decimal.Decimal),
		hooks:    make(map[string]Hook),
		store:    store,
	}
	if store == nil {
		return bank, nil
	}
	accounts, err := store.ListAccounts()
	if err != nil {
		return nil, err
	}
	for account, balance := range accounts {
		bank.balances[account] = balance
	}
	return bank, nil
}

// BindProgram attaches a receive hook to account, making it a program.
func (b *Bank) BindProgram(account string, hook Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[account] = hook
}

func (b *Bank) IsProgram(account string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hooks[account] != nil
}

func (b *Bank) Balance(account string) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

// Deposit credits fresh funds to an account, the platform faucet.
func (b *Bank) Deposit(account string, amount decimal.Decimal) error {
	if account == "" {
		return fmt.Errorf("deposit to empty account")
	}
	if !amount.IsPositive() {
		return fmt.Errorf("invalid deposit amount %s", amount)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.balances[account]
	b.balances[account] = old.Add(amount)
	if err := b.persist(account); err != nil {
		b.balances[account] = old
		return err
	}
	return nil
}

// Transfer moves amount from one account to the other. The balances
// move under the bank lock; the recipient hook runs outside it, and a
// hook failure moves the funds straight back before the error returns.
func (b *Bank) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if from == "" || to == "" {
		return fmt.Errorf("invalid transfer accounts %q %q", from, to)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("invalid transfer amount %s", amount)
	}
	if err := b.move(from, to, amount); err != nil {
		return err
	}
	b.mu.Lock()
	hook := b.hooks[to]
	b.mu.Unlock()
	if hook == nil {
		return nil
	}
	if err := hook(ctx, from, amount); err != nil {
		if rerr := b.move(to, from, amount); rerr != nil {
			panic(rerr)
		}
		return fmt.Errorf("receiver %s rejected transfer: %w", to, err)
	}
	return nil
}

func (b *Bank) move(from, to string, amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	balance := b.balances[from]
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient funds %s of %s", balance, amount)
	}
	b.balances[from] = balance.Sub(amount)
	b.balances[to] = b.balances[to].Add(amount)
	if err := b.persist(from, to); err != nil {
		b.balances[from] = balance
		b.balances[to] = b.balances[to].Sub(amount)
		return err
	}
	return nil
}

func (b *Bank) persist(accounts ...string) error {
	if b.store == nil {
		return nil
	}
	dirty := make(map[string]decimal.Decimal, len(accounts))
	for _, account := range accounts {
		dirty[account] = b.balances[account]
	}
	return b.store.WriteAccounts(dirty)
}
