package collection

import (
	"context"
	"strconv"
	"strings"

	"github.com/curionetwork/curio/gateway"
	"github.com/rs/zerolog"
)

const mintMemoPrefix = "MINT:"

// MintWorker claims payment outputs carrying a MINT:<n> memo. A
// rejected mint returns the full payment to the sender.
type MintWorker struct {
	coll *Collection
	bank Bank
	log  zerolog.Logger
}

func NewMintWorker(coll *Collection, bank Bank, log zerolog.Logger) *MintWorker {
	return &MintWorker{coll: coll, bank: bank, log: log}
}

func (mw *MintWorker) ProcessOutput(ctx context.Context, out *gateway.Output) bool {
	amount, found := parseMintMemo(out.Memo)
	if !found {
		return false
	}
	tokens, err := mw.coll.Mint(ctx, out.Sender, amount, out.Amount, out.ID)
	if err == nil {
		out.State = gateway.OutputStateMinted
		mw.log.Info().Str("output", out.ID).Uints64("tokens", tokens).Msg("mint settled")
		return true
	}
	mw.log.Info().Str("output", out.ID).Err(err).Msg("mint rejected")
	if rerr := mw.bank.Transfer(ctx, mw.coll.Vault(), out.Sender, out.Amount); rerr != nil {
		out.State = gateway.OutputStateFailed
		mw.log.Error().Str("output", out.ID).Err(rerr).Msg("refund failed")
		return true
	}
	out.State = gateway.OutputStateRefunded
	return true
}

// RefundWorker returns any output nothing else recognized. It must be
// registered last.
type RefundWorker struct {
	bank  Bank
	vault string
	log   zerolog.Logger
}

func NewRefundWorker(bank Bank, vault string, log zerolog.Logger) *RefundWorker {
	return &RefundWorker{bank: bank, vault: vault, log: log}
}

func (rw *RefundWorker) ProcessOutput(ctx context.Context, out *gateway.Output) bool {
	if err := rw.bank.Transfer(ctx, rw.vault, out.Sender, out.Amount); err != nil {
		out.State = gateway.OutputStateFailed
		rw.log.Error().Str("output", out.ID).Err(err).Msg("refund failed")
		return true
	}
	out.State = gateway.OutputStateRefunded
	rw.log.Info().Str("output", out.ID).Str("memo", out.Memo).Msg("unknown memo refunded")
	return true
}

func parseMintMemo(memo string) (uint64, bool) {
	memo = strings.TrimSpace(memo)
	if !strings.HasPrefix(memo, mintMemoPrefix) {
		return 0, false
	}
	amount, err := strconv.ParseUint(memo[len(mintMemoPrefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}
