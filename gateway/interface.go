package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)

	WriteOutput(out *Output) error
	ReadOutput(id string) (*Output, error)
	ListOutputs(state, limit int) ([]*Output, error)
}

// Bank moves funds between platform accounts.
type Bank interface {
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error
}

// Worker inspects a pending output and reports whether it claimed it.
// A claiming worker leaves the final state on the output; the gateway
// persists it.
type Worker interface {
	ProcessOutput(ctx context.Context, out *Output) bool
}
