package gateway

import (
	"os"

	"github.com/pelletier/go-toml"
)

type CollectionConfig struct {
	Name                string `toml:"name"`
	Symbol              string `toml:"symbol"`
	Owner               string `toml:"owner"`
	Vault               string `toml:"vault"`
	UnitPrice           string `toml:"unit-price"`
	PriceCeiling        string `toml:"price-ceiling"`
	MaxSupply           uint64 `toml:"max-supply"`
	MintLimit           uint64 `toml:"mint-limit"`
	BasePath            string `toml:"base-path"`
	MintNotBefore       string `toml:"mint-not-before"`
	RequireDirectCaller bool   `toml:"require-direct-caller"`
}

type LoopConfig struct {
	Batch        int    `toml:"batch"`
	PollInterval string `toml:"poll-interval"`
}

type APIConfig struct {
	Listen string `toml:"listen"`
}

type Configuration struct {
	Collection CollectionConfig `toml:"collection"`
	Loop       LoopConfig       `toml:"loop"`
	API        APIConfig        `toml:"api"`
}

func Setup(path string) (*Configuration, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Configuration
	err = toml.Unmarshal(f, &conf)
	return &conf, err
}
