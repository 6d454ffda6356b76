package collection

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Token struct {
	ID       uint64    `msgpack:"id" json:"id"`
	Owner    string    `msgpack:"owner" json:"owner"`
	MintedAt time.Time `msgpack:"minted_at" json:"minted_at"`
}

// MintReceipt records a settled mint keyed by the payment trace, so a
// replay of the same payment returns the original tokens instead of
// minting twice.
type MintReceipt struct {
	Trace     string    `msgpack:"trace" json:"trace"`
	Minter    string    `msgpack:"minter" json:"minter"`
	Tokens    []uint64  `msgpack:"tokens" json:"tokens"`
	CreatedAt time.Time `msgpack:"created_at" json:"created_at"`
}

// Registry is the external ownership primitive. It decides who may
// move a token; the collection only observes the outcome.
type Registry interface {
	Assign(owner string, id uint64) error
	Unassign(owner string, id uint64) error
	Transfer(from, to string, id uint64) error
	OwnerOf(id uint64) (string, bool)
}

// Bank settles funds between accounts. Transfer runs the receiving
// account's hook, if any, with the caller's context.
type Bank interface {
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error
	Balance(account string) decimal.Decimal
	IsProgram(account string) bool
}

type Store interface {
	ReadConfig() (*Config, error)
	WriteConfig(conf *Config) error
	ReadIssuedCount() (uint64, error)
	ReadMintReceipt(trace string) (*MintReceipt, error)
	WriteMint(tokens []*Token, issued uint64, receipt *MintReceipt) error
	WriteTransfer(id uint64, owner string) error
	WriteBurn(id uint64) error
	ListTokens() ([]*Token, error)
}
