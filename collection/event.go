package collection

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventMint      = "mint"
	EventBurn      = "burn"
	EventWithdraw  = "withdraw"
	EventPaused    = "paused"
	EventUnpaused  = "unpaused"
	EventSealed    = "sealed"
	EventOwnership = "ownership-transferred"
)

// Event is the audit record emitted after a successful state change.
// Count and Tokens are set for mint and burn, Funds for anything that
// moved money, Memo for free-form detail like the previous owner.
type Event struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Account   string          `json:"account"`
	Count     uint64          `json:"count,omitempty"`
	Tokens    []uint64        `json:"tokens,omitempty"`
	Funds     decimal.Decimal `json:"funds"`
	Memo      string          `json:"memo,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type Emitter interface {
	Emit(ev *Event)
}

// NopEmitter drops every event. It is the default until a real emitter
// is attached.
type NopEmitter struct{}

func (NopEmitter) Emit(ev *Event) {}

func newEvent(name, account string, at time.Time) *Event {
	return &Event{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Name:      name,
		Account:   account,
		Funds:     decimal.Zero,
		CreatedAt: at,
	}
}

func newMintEvent(minter string, tokens []uint64, cost decimal.Decimal, at time.Time) *Event {
	ev := newEvent(EventMint, minter, at)
	ev.Count = uint64(len(tokens))
	ev.Tokens = tokens
	ev.Funds = cost
	return ev
}

func newBurnEvent(owner string, id uint64, at time.Time) *Event {
	ev := newEvent(EventBurn, owner, at)
	ev.Count = 1
	ev.Tokens = []uint64{id}
	return ev
}

func newWithdrawEvent(owner string, amount decimal.Decimal, at time.Time) *Event {
	ev := newEvent(EventWithdraw, owner, at)
	ev.Funds = amount
	return ev
}
