package collection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/curionetwork/curio/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for engine tests.
type memStore struct {
	mu       sync.Mutex
	conf     *Config
	issued   uint64
	tokens   map[uint64]*Token
	receipts map[string]*MintReceipt
}

func newMemStore() *memStore {
	return &memStore{
		tokens:   make(map[uint64]*Token),
		receipts: make(map[string]*MintReceipt),
	}
}

func (ms *memStore) ReadConfig() (*Config, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.conf == nil {
		return nil, nil
	}
	dup := *ms.conf
	return &dup, nil
}

func (ms *memStore) WriteConfig(conf *Config) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	dup := *conf
	ms.conf = &dup
	return nil
}

func (ms *memStore) ReadIssuedCount() (uint64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.issued, nil
}

func (ms *memStore) ReadMintReceipt(trace string) (*MintReceipt, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.receipts[trace], nil
}

func (ms *memStore) WriteMint(tokens []*Token, issued uint64, receipt *MintReceipt) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, token := range tokens {
		dup := *token
		ms.tokens[token.ID] = &dup
	}
	ms.issued = issued
	if receipt != nil {
		ms.receipts[receipt.Trace] = receipt
	}
	return nil
}

func (ms *memStore) WriteTransfer(id uint64, owner string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	token, found := ms.tokens[id]
	if !found {
		panic(id)
	}
	token.Owner = owner
	return nil
}

func (ms *memStore) WriteBurn(id uint64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.tokens, id)
	return nil
}

func (ms *memStore) ListTokens() ([]*Token, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	tokens := make([]*Token, 0, len(ms.tokens))
	for _, token := range ms.tokens {
		dup := *token
		tokens = append(tokens, &dup)
	}
	return tokens, nil
}

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*Event
}

func (re *recordingEmitter) Emit(ev *Event) {
	re.mu.Lock()
	defer re.mu.Unlock()
	re.events = append(re.events, ev)
}

func (re *recordingEmitter) names() []string {
	re.mu.Lock()
	defer re.mu.Unlock()
	names := make([]string, len(re.events))
	for i, ev := range re.events {
		names[i] = ev.Name
	}
	return names
}

func (re *recordingEmitter) last() *Event {
	re.mu.Lock()
	defer re.mu.Unlock()
	if len(re.events) == 0 {
		return nil
	}
	return re.events[len(re.events)-1]
}

type testEngine struct {
	coll     *Collection
	bank     *ledger.Bank
	registry *ledger.Registry
	store    *memStore
	emitter  *recordingEmitter
}

func testConfig() *Config {
	return &Config{
		Name:      "Curio Genesis",
		Symbol:    "CURIO",
		Owner:     "owner",
		Vault:     "vault",
		UnitPrice: decimal.NewFromInt(10),
		MaxSupply: 25,
		MintLimit: 10,
	}
}

func buildTestEngine(t *testing.T, conf *Config) *testEngine {
	t.Helper()
	st := newMemStore()
	bank, err := ledger.NewBank(nil)
	require.NoError(t, err)
	registry := ledger.NewRegistry()
	coll, err := Build(st, registry, bank, conf)
	require.NoError(t, err)
	emitter := &recordingEmitter{}
	coll.SetEmitter(emitter)
	return &testEngine{coll: coll, bank: bank, registry: registry, store: st, emitter: emitter}
}

// settle plays the platform's part: funds appear on the caller and are
// moved into the vault, like a payment output arriving.
func (te *testEngine) settle(t *testing.T, caller string, amount decimal.Decimal) {
	t.Helper()
	require.NoError(t, te.bank.Deposit(caller, amount))
	require.NoError(t, te.bank.Transfer(context.Background(), caller, "vault", amount))
}

func assertKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	var cerr *Error
	require.Error(t, err)
	require.True(t, errors.As(err, &cerr), "error %v carries no kind", err)
	assert.Equal(t, kind, cerr.Kind)
}

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func TestBuildRequiresGenesis(t *testing.T) {
	bank, err := ledger.NewBank(nil)
	require.NoError(t, err)

	_, err = Build(newMemStore(), ledger.NewRegistry(), bank, nil)
	assert.Error(t, err)
}

func TestBuildValidatesGenesis(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(conf *Config)
	}{
		{"empty name", func(conf *Config) { conf.Name = "" }},
		{"empty symbol", func(conf *Config) { conf.Symbol = "" }},
		{"empty owner", func(conf *Config) { conf.Owner = "" }},
		{"empty vault", func(conf *Config) { conf.Vault = "" }},
		{"owner is vault", func(conf *Config) { conf.Vault = conf.Owner }},
		{"negative price", func(conf *Config) { conf.UnitPrice = dec(-1) }},
		{"negative ceiling", func(conf *Config) { conf.PriceCeiling = dec(-1) }},
		{"price over ceiling", func(conf *Config) { conf.PriceCeiling = dec(5) }},
		{"zero supply", func(conf *Config) { conf.MaxSupply = 0 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			conf := testConfig()
			tc.mutate(conf)
			bank, err := ledger.NewBank(nil)
			require.NoError(t, err)
			_, err = Build(newMemStore(), ledger.NewRegistry(), bank, conf)
			assert.Error(t, err)
		})
	}
}

func TestBuildDefaultsMintLimit(t *testing.T) {
	conf := testConfig()
	conf.MintLimit = 0
	te := buildTestEngine(t, conf)

	stored, _, _ := te.coll.Snapshot()
	assert.Equal(t, uint64(DefaultMintLimit), stored.MintLimit)
}

func TestBuildPersistsGenesisOnce(t *testing.T) {
	te := buildTestEngine(t, testConfig())
	require.NoError(t, te.coll.SetUnitPrice("owner", dec(12)))

	// a second boot ignores the genesis argument and keeps the stored record
	other := testConfig()
	other.Name = "Other"
	bank, err := ledger.NewBank(nil)
	require.NoError(t, err)
	restored, err := Build(te.store, ledger.NewRegistry(), bank, other)
	require.NoError(t, err)
	assert.Equal(t, "Curio Genesis", restored.Name())
	assert.True(t, restored.UnitPrice().Equal(dec(12)))
}

func TestRestartRestoresState(t *testing.T) {
	te := buildTestEngine(t, testConfig())
	ctx := context.Background()

	_, err := te.coll.Mint(ctx, "alice", 3, dec(30), "")
	require.NoError(t, err)
	_, err = te.coll.Mint(ctx, "bob", 2, dec(20), "")
	require.NoError(t, err)
	require.NoError(t, te.coll.Transfer(ctx, "alice", "bob", 2))
	require.NoError(t, te.coll.Burn(ctx, "bob", 4))

	registry := ledger.NewRegistry()
	bank, err := ledger.NewBank(nil)
	require.NoError(t, err)
	restored, err := Build(te.store, registry, bank, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), restored.Issued())
	assert.Equal(t, 4, restored.TotalSupply())
	assert.ElementsMatch(t, []uint64{1, 3}, restored.TokensOf("alice"))
	assert.ElementsMatch(t, []uint64{2, 5}, restored.TokensOf("bob"))
	owner, found := restored.OwnerOf(2)
	require.True(t, found)
	assert.Equal(t, "bob", owner)
	_, found = restored.OwnerOf(4)
	assert.False(t, found, "burned token stays gone")

	// the restored enumeration is dense again
	seen := make(map[uint64]bool)
	for i := 0; i < restored.TotalSupply(); i++ {
		id, err := restored.TokenByIndex(i)
		require.NoError(t, err)
		seen[id] = true
	}
	assert.Len(t, seen, 4)
}

func TestBuildRejectsTokenBeyondIssued(t *testing.T) {
	st := newMemStore()
	require.NoError(t, st.WriteConfig(testConfig()))
	require.NoError(t, st.WriteMint([]*Token{{ID: 7, Owner: "alice"}}, 3, nil))

	bank, err := ledger.NewBank(nil)
	require.NoError(t, err)
	_, err = Build(st, ledger.NewRegistry(), bank, nil)
	assert.Error(t, err)
}

func TestTransfer(t *testing.T) {
	te := buildTestEngine(t, testConfig())
	ctx := context.Background()

	_, err := te.coll.Mint(ctx, "alice", 2, dec(20), "")
	require.NoError(t, err)

	require.NoError(t, te.coll.Transfer(ctx, "alice", "bob", 1))
	owner, _ := te.coll.OwnerOf(1)
	assert.Equal(t, "bob", owner)
	assert.Equal(t, []uint64{2}, te.coll.TokensOf("alice"))
	assert.Equal(t, []uint64{1}, te.coll.TokensOf("bob"))
	assert.Equal(t, 2, te.coll.TotalSupply())

	// the registry decides authorization
	err = te.coll.Transfer(ctx, "alice", "carol", 1)
	assertKind(t, err, KindValidation)
	err = te.coll.Transfer(ctx, "bob", "", 1)
	assertKind(t, err, KindValidation)

	// persisted owner follows
	token := te.store.tokens[1]
	assert.Equal(t, "bob", token.Owner)
}

func TestTransferRejectsReentrant(t *testing.T) {
	te := buildTestEngine(t, testConfig())
	ctx := context.Background()

	_, err := te.coll.Mint(ctx, "alice", 1, dec(10), "")
	require.NoError(t, err)

	err = te.coll.Transfer(markCall(ctx), "alice", "bob", 1)
	assertKind(t, err, KindReentrancy)
}

func TestSnapshot(t *testing.T) {
	te := buildTestEngine(t, testConfig())
	_, err := te.coll.Mint(context.Background(), "alice", 2, dec(20), "")
	require.NoError(t, err)

	conf, issued, supply := te.coll.Snapshot()
	assert.Equal(t, "Curio Genesis", conf.Name)
	assert.Equal(t, uint64(2), issued)
	assert.Equal(t, 2, supply)

	// mutating the snapshot leaves the engine alone
	conf.Name = "Hacked"
	assert.Equal(t, "Curio Genesis", te.coll.Name())
}

func TestQueries(t *testing.T) {
	te := buildTestEngine(t, testConfig())
	assert.Equal(t, "Curio Genesis", te.coll.Name())
	assert.Equal(t, "CURIO", te.coll.Symbol())
	assert.Equal(t, "owner", te.coll.Owner())
	assert.Equal(t, "vault", te.coll.Vault())
	assert.Equal(t, "", te.coll.BasePath())
	assert.True(t, te.coll.UnitPrice().Equal(dec(10)))
	assert.Equal(t, uint64(0), te.coll.Issued())
	assert.Equal(t, 0, te.coll.TotalSupply())
	assert.Equal(t, 0, te.coll.BalanceOf("alice"))

	_, err := te.coll.TokenByIndex(0)
	assertKind(t, err, KindIndex)
}
