package event

import (
	evbus "github.com/asaskevich/EventBus"
	"github.com/curionetwork/curio/collection"
	"github.com/rs/zerolog"
)

// Topic carries every collection event.
const Topic = "collection:events"

// Emitter publishes collection events on an in-process bus and mirrors
// them to the log. Handlers run synchronously on the emitting
// goroutine before the engine releases its call lock: queries see the
// committed state, but calls back into guarded operations (Mint, Burn,
// Transfer, Withdraw) block forever.
type Emitter struct {
	bus evbus.Bus
	log zerolog.Logger
}

func NewEmitter(log zerolog.Logger) *Emitter {
	return &Emitter{bus: evbus.New(), log: log}
}

func (e *Emitter) Emit(ev *collection.Event) {
	e.log.Info().
		Str("event", ev.Name).
		Str("account", ev.Account).
		Uints64("tokens", ev.Tokens).
		Str("funds", ev.Funds.String()).
		Msg("collection event")
	e.bus.Publish(Topic, ev)
}

func (e *Emitter) Subscribe(fn func(ev *collection.Event)) error {
	return e.bus.Subscribe(Topic, fn)
}

func (e *Emitter) Unsubscribe(fn func(ev *collection.Event)) error {
	return e.bus.Unsubscribe(Topic, fn)
}
