package gateway

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OutputStatePending  = 10
	OutputStateMinted   = 11
	OutputStateRefunded = 12
	OutputStateFailed   = 13
)

// Output is one settled incoming payment. Its funds sit in the vault
// from intake on; the state records what the workers decided to do
// with them.
type Output struct {
	ID        string          `msgpack:"id" json:"id"`
	Sender    string          `msgpack:"sender" json:"sender"`
	Amount    decimal.Decimal `msgpack:"amount" json:"amount"`
	Memo      string          `msgpack:"memo" json:"memo"`
	State     int             `msgpack:"state" json:"state"`
	CreatedAt time.Time       `msgpack:"created_at" json:"created_at"`
	UpdatedAt time.Time       `msgpack:"updated_at" json:"updated_at"`
}

func (out *Output) StateName() string {
	switch out.State {
	case OutputStatePending:
		return "pending"
	case OutputStateMinted:
		return "minted"
	case OutputStateRefunded:
		return "refunded"
	case OutputStateFailed:
		return "failed"
	}
	panic(out.State)
}
