package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/curionetwork/curio/api"
	"github.com/curionetwork/curio/collection"
	"github.com/curionetwork/curio/event"
	"github.com/curionetwork/curio/gateway"
	"github.com/curionetwork/curio/ledger"
	"github.com/curionetwork/curio/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	ctx := context.Background()

	bp := flag.String("d", "~/.curio/data", "database directory path")
	cp := flag.String("c", "~/.curio/config.toml", "configuration file path")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if strings.HasPrefix(*cp, "~/") {
		usr, _ := user.Current()
		*cp = filepath.Join(usr.HomeDir, (*cp)[2:])
	}
	conf, err := gateway.Setup(*cp)
	if err != nil {
		panic(err)
	}

	if strings.HasPrefix(*bp, "~/") {
		usr, _ := user.Current()
		*bp = filepath.Join(usr.HomeDir, (*bp)[2:])
	}
	db, err := store.OpenBadger(ctx, *bp, log.With().Str("component", "store").Logger())
	if err != nil {
		panic(err)
	}
	defer db.Close()

	clock, err := ledger.NewClock(db)
	if err != nil {
		panic(err)
	}
	bank, err := ledger.NewBank(db)
	if err != nil {
		panic(err)
	}
	registry := ledger.NewRegistry()

	genesis, err := buildGenesis(&conf.Collection)
	if err != nil {
		panic(err)
	}
	coll, err := collection.Build(db, registry, bank, genesis)
	if err != nil {
		panic(err)
	}
	emitter := event.NewEmitter(log.With().Str("component", "event").Logger())
	coll.SetNowFunc(clock.Now)
	coll.SetLogger(log.With().Str("component", "collection").Logger())
	coll.SetEmitter(emitter)

	gw, err := gateway.BuildGateway(db, bank, conf, log.With().Str("component", "gateway").Logger())
	if err != nil {
		panic(err)
	}
	gw.AddWorker(collection.NewMintWorker(coll, bank, log.With().Str("component", "mint").Logger()))
	gw.AddWorker(collection.NewRefundWorker(bank, coll.Vault(), log.With().Str("component", "refund").Logger()))

	srv := api.NewServer(coll, gw, bank, emitter, log.With().Str("component", "api").Logger())
	listen := conf.API.Listen
	if listen == "" {
		listen = ":7001"
	}
	go func() {
		if err := srv.Run(listen); err != nil {
			panic(err)
		}
	}()

	gw.Run(ctx)
}

func buildGenesis(conf *gateway.CollectionConfig) (*collection.Config, error) {
	price := decimal.Zero
	if conf.UnitPrice != "" {
		p, err := decimal.NewFromString(conf.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid unit price %q", conf.UnitPrice)
		}
		price = p
	}
	ceiling := decimal.Zero
	if conf.PriceCeiling != "" {
		p, err := decimal.NewFromString(conf.PriceCeiling)
		if err != nil {
			return nil, fmt.Errorf("invalid price ceiling %q", conf.PriceCeiling)
		}
		ceiling = p
	}
	genesis := &collection.Config{
		Name:                conf.Name,
		Symbol:              conf.Symbol,
		Owner:               conf.Owner,
		Vault:               conf.Vault,
		UnitPrice:           price,
		PriceCeiling:        ceiling,
		MaxSupply:           conf.MaxSupply,
		MintLimit:           conf.MintLimit,
		BasePath:            conf.BasePath,
		RequireDirectCaller: conf.RequireDirectCaller,
	}
	if conf.MintNotBefore != "" {
		gate, err := time.Parse(time.RFC3339, conf.MintNotBefore)
		if err != nil {
			return nil, fmt.Errorf("invalid mint-not-before %q", conf.MintNotBefore)
		}
		genesis.MintNotBefore = gate
	}
	return genesis, nil
}
