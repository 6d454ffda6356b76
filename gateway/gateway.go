package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultBatch        = 16
	defaultPollInterval = 500 * time.Millisecond
)

// Gateway drives settled payments through the registered workers. At
// intake the sender is debited into the vault and the output queued;
// the loop then offers every pending output to the workers in order
// until one claims it and decides its final state.
type Gateway struct {
	store   Store
	bank    Bank
	vault   string
	workers []Worker

	intake   sync.Mutex
	batch    int
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func BuildGateway(store Store, bank Bank, conf *Configuration, log zerolog.Logger) (*Gateway, error) {
	if conf.Collection.Vault == "" {
		return nil, fmt.Errorf("invalid vault account %q", conf.Collection.Vault)
	}
	gw := &Gateway{
		store:    store,
		bank:     bank,
		vault:    conf.Collection.Vault,
		batch:    conf.Loop.Batch,
		interval: defaultPollInterval,
		now:      time.Now,
		log:      log,
	}
	if gw.batch <= 0 {
		gw.batch = defaultBatch
	}
	if conf.Loop.PollInterval != "" {
		interval, err := time.ParseDuration(conf.Loop.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid poll interval %s", conf.Loop.PollInterval)
		}
		gw.interval = interval
	}
	return gw, nil
}

// AddWorker appends a worker. Order matters: the first claim wins, so
// the catch-all refund worker must come last.
func (gw *Gateway) AddWorker(wkr Worker) {
	gw.workers = append(gw.workers, wkr)
}

// ReadOutput returns the stored output, nil when unknown.
func (gw *Gateway) ReadOutput(id string) (*Output, error) {
	return gw.store.ReadOutput(id)
}

// Submit takes one settled payment: the sender is debited into the
// vault and the output queued for the workers. Resubmitting an id it
// has seen before changes nothing, so intakes can be replayed safely
// even from concurrent callers.
func (gw *Gateway) Submit(ctx context.Context, out *Output) error {
	if _, err := uuid.FromString(out.ID); err != nil {
		return fmt.Errorf("invalid output id %q", out.ID)
	}
	if out.Sender == "" {
		return fmt.Errorf("invalid output sender %q", out.Sender)
	}
	if !out.Amount.IsPositive() {
		return fmt.Errorf("invalid output amount %s", out.Amount)
	}

	// the replay check and the debit must not interleave, or two
	// submissions of one id would both debit the sender
	gw.intake.Lock()
	defer gw.intake.Unlock()

	old, err := gw.store.ReadOutput(out.ID)
	if err != nil || old != nil {
		return err
	}
	if err := gw.bank.Transfer(ctx, out.Sender, gw.vault, out.Amount); err != nil {
		return fmt.Errorf("vault intake: %w", err)
	}
	out.State = OutputStatePending
	out.CreatedAt = gw.now()
	out.UpdatedAt = out.CreatedAt
	if err := gw.store.WriteOutput(out); err != nil {
		if rerr := gw.bank.Transfer(ctx, gw.vault, out.Sender, out.Amount); rerr != nil {
			panic(rerr)
		}
		return err
	}
	gw.log.Info().Str("output", out.ID).Str("sender", out.Sender).Str("amount", out.Amount.String()).Msg("output queued")
	return nil
}

func (gw *Gateway) Run(ctx context.Context) {
	gw.log.Info().Int("workers", len(gw.workers)).Msg("gateway started")
	for {
		if err := gw.Poll(ctx); err != nil {
			gw.log.Error().Err(err).Msg("gateway poll")
		}
		if ctx.Err() != nil {
			break
		}
		time.Sleep(gw.interval)
	}
}

// Poll runs one dispatch round over the pending outputs.
func (gw *Gateway) Poll(ctx context.Context) error {
	outputs, err := gw.store.ListOutputs(OutputStatePending, gw.batch)
	if err != nil {
		return err
	}
	for _, out := range outputs {
		gw.dispatchOutput(ctx, out)
	}
	return nil
}

func (gw *Gateway) dispatchOutput(ctx context.Context, out *Output) {
	for _, wkr := range gw.workers {
		if wkr.ProcessOutput(ctx, out) {
			break
		}
	}
	if out.State == OutputStatePending {
		// nothing claimed it, park it instead of spinning on it
		out.State = OutputStateFailed
		gw.log.Warn().Str("output", out.ID).Str("memo", out.Memo).Msg("no worker claimed output")
	}
	out.UpdatedAt = gw.now()
	if err := gw.store.WriteOutput(out); err != nil {
		panic(err)
	}
}
