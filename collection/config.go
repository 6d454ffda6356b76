package collection

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMintLimit caps a single mint call when the genesis config
// leaves the limit unset.
const DefaultMintLimit = 10

// Config is the single mutable policy record of a collection. Admin
// operations change it in place and persist it; everything else reads it.
type Config struct {
	Name                string          `msgpack:"name" json:"name"`
	Symbol              string          `msgpack:"symbol" json:"symbol"`
	Owner               string          `msgpack:"owner" json:"owner"`
	Vault               string          `msgpack:"vault" json:"vault"`
	UnitPrice           decimal.Decimal `msgpack:"unit_price" json:"unit_price"`
	PriceCeiling        decimal.Decimal `msgpack:"price_ceiling" json:"price_ceiling"`
	MaxSupply           uint64          `msgpack:"max_supply" json:"max_supply"`
	MintLimit           uint64          `msgpack:"mint_limit" json:"mint_limit"`
	BasePath            string          `msgpack:"base_path" json:"base_path"`
	MintNotBefore       time.Time       `msgpack:"mint_not_before" json:"mint_not_before"`
	RequireDirectCaller bool            `msgpack:"require_direct_caller" json:"require_direct_caller"`
	Paused              bool            `msgpack:"paused" json:"paused"`
	Sealed              bool            `msgpack:"sealed" json:"sealed"`
}

func (c *Config) validate() error {
	if c.Name == "" || c.Symbol == "" {
		return fmt.Errorf("invalid collection identity %s %s", c.Name, c.Symbol)
	}
	if c.Owner == "" || c.Vault == "" {
		return fmt.Errorf("invalid collection accounts %s %s", c.Owner, c.Vault)
	}
	if c.Owner == c.Vault {
		return fmt.Errorf("owner and vault must differ %s", c.Owner)
	}
	if c.UnitPrice.IsNegative() {
		return fmt.Errorf("invalid unit price %s", c.UnitPrice)
	}
	if c.PriceCeiling.IsNegative() {
		return fmt.Errorf("invalid price ceiling %s", c.PriceCeiling)
	}
	if !c.PriceCeiling.IsZero() && c.UnitPrice.Cmp(c.PriceCeiling) > 0 {
		return fmt.Errorf("unit price %s over ceiling %s", c.UnitPrice, c.PriceCeiling)
	}
	if c.MaxSupply == 0 {
		return fmt.Errorf("invalid max supply %d", c.MaxSupply)
	}
	return nil
}

func (c *Config) normalize() {
	if c.MintLimit == 0 {
		c.MintLimit = DefaultMintLimit
	}
}

func (c *Config) copy() *Config {
	dup := *c
	return &dup
}
