package launchpad

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/memory"
)

var (
	testProgramID = solana.MustPublicKeyFromBase58("FYnpDiZVejAbvnme7WZrxUE2T5K4Fv4MwDsZQ2JLzMYm")
	testStart     = time.Unix(1_700_000_000, 0)
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) ofType(t events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	lp        *Launchpad
	store     *memory.Store
	ledger    *settlement.Ledger
	clock     *ManualClock
	events    *recordingPublisher
	authority solana.PublicKey
	withheld  solana.PublicKey
}

func newFixture(t *testing.T, configure ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.NewStore(),
		clock:     NewManualClock(testStart),
		events:    &recordingPublisher{},
		authority: solana.NewWallet().PublicKey(),
		withheld:  solana.NewWallet().PublicKey(),
	}
	f.ledger = settlement.NewLedger(settlement.NewMemoryBalances(), f.withheld, zap.NewNop())

	opts := Options{
		ProgramID: testProgramID,
		Clock:     f.clock,
		Publisher: f.events,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	lp, err := New(f.store, f.ledger, zap.NewNop(), opts)
	require.NoError(t, err)
	f.lp = lp
	return f
}

func (f *fixture) initialize(t *testing.T) *curve.GlobalConfig {
	t.Helper()
	g, err := f.lp.Initialize(context.Background(), f.authority)
	require.NoError(t, err)
	return g
}

func (f *fixture) createCurve(t *testing.T, creator solana.PublicKey) *curve.BondingCurve {
	t.Helper()
	c, err := f.lp.CreateCurve(context.Background(), CreateRequest{
		Creator: creator,
		Mint:    solana.NewWallet().PublicKey(),
		Name:    "Test Token",
		Symbol:  "TEST",
		URI:     "https://example.com/test.json",
		Team:    curve.TeamBlue,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) fundedUser(t *testing.T, lamports uint64) solana.PublicKey {
	t.Helper()
	user := solana.NewWallet().PublicKey()
	require.NoError(t, f.lp.Airdrop(context.Background(), user, lamports))
	return user
}

func (f *fixture) balance(t *testing.T, owner, asset solana.PublicKey) uint64 {
	t.Helper()
	bal, err := f.lp.Balance(context.Background(), owner, asset)
	require.NoError(t, err)
	return bal
}

func (f *fixture) custody(t *testing.T, mint solana.PublicKey) solana.PublicKey {
	t.Helper()
	addr, err := f.lp.CustodyAddress(mint)
	require.NoError(t, err)
	return addr
}

func TestNew_Validation(t *testing.T) {
	store := memory.NewStore()
	ledger := settlement.NewLedger(settlement.NewMemoryBalances(), solana.PublicKey{}, zap.NewNop())

	_, err := New(nil, ledger, zap.NewNop(), Options{ProgramID: testProgramID})
	assert.Error(t, err)
	_, err = New(store, ledger, zap.NewNop(), Options{})
	assert.Error(t, err)

	bad := curve.DefaultParams()
	bad.InitialVirtualSolReserves = 0
	_, err = New(store, ledger, zap.NewNop(), Options{ProgramID: testProgramID, DefaultParams: bad})
	assert.ErrorIs(t, err, curve.ErrInvalidParams)
}

func TestInitialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.lp.Global(ctx)
	assert.ErrorIs(t, err, curve.ErrNotInitialized)

	_, err = f.lp.Initialize(ctx, solana.PublicKey{})
	assert.ErrorIs(t, err, curve.ErrInvalidAuthority)

	g := f.initialize(t)
	assert.True(t, g.Initialized)
	assert.Equal(t, f.authority, g.Authority)
	assert.Equal(t, f.authority, g.FeeRecipient)
	assert.Equal(t, f.authority, g.WithdrawAuthority)
	assert.Equal(t, curve.DefaultFeeBasisPoints, g.FeeBasisPoints)

	_, err = f.lp.Initialize(ctx, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, curve.ErrAlreadyInitialized)
}

func TestSetParams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.lp.SetParams(ctx, f.authority, curve.DefaultParams())
	assert.ErrorIs(t, err, curve.ErrNotInitialized)

	f.initialize(t)
	before := f.createCurve(t, solana.NewWallet().PublicKey())

	p := curve.DefaultParams()
	p.InitialVirtualSolReserves = 40_000_000_000
	p.FeeBasisPoints = 100
	p.FeeRecipient = solana.NewWallet().PublicKey()

	_, err = f.lp.SetParams(ctx, solana.NewWallet().PublicKey(), p)
	assert.ErrorIs(t, err, curve.ErrInvalidAuthority)

	invalid := p
	invalid.FeeBasisPoints = 10_001
	_, err = f.lp.SetParams(ctx, f.authority, invalid)
	assert.ErrorIs(t, err, curve.ErrInvalidParams)

	g, err := f.lp.SetParams(ctx, f.authority, p)
	require.NoError(t, err)
	assert.Equal(t, p.FeeRecipient, g.FeeRecipient)
	assert.Equal(t, f.authority, g.WithdrawAuthority)
	assert.Equal(t, uint64(100), g.FeeBasisPoints)

	after := f.createCurve(t, solana.NewWallet().PublicKey())
	assert.Equal(t, uint64(40_000_000_000), after.VirtualSolReserves)

	stored, err := f.lp.Curve(ctx, before.Mint)
	require.NoError(t, err)
	assert.Equal(t, curve.DefaultInitialVirtualSolReserves, stored.VirtualSolReserves)

	set := f.events.ofType(events.ParamsSet)
	require.Len(t, set, 1)
	assert.Equal(t, uint64(100), set[0].(events.ParamsSetEvent).FeeBasisPoints)
}

func TestCreateCurve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creator := solana.NewWallet().PublicKey()

	_, err := f.lp.CreateCurve(ctx, CreateRequest{Creator: creator, Mint: solana.NewWallet().PublicKey()})
	assert.ErrorIs(t, err, curve.ErrNotInitialized)

	f.initialize(t)
	c := f.createCurve(t, creator)

	assert.Equal(t, curve.StatusActive, c.Status())
	assert.Equal(t, creator, c.Creator)
	assert.Equal(t, curve.DefaultInitialRealTokenReserves, c.RealTokenReserves)
	assert.Zero(t, c.RealSolReserves)
	assert.Equal(t, f.clock.Now().Unix(), c.CreatedAt)
	assert.Equal(t, curve.DefaultInitialTokenSupply, f.balance(t, f.custody(t, c.Mint), c.Mint))

	_, err = f.lp.CreateCurve(ctx, CreateRequest{Creator: creator, Mint: c.Mint})
	assert.ErrorIs(t, err, curve.ErrCurveExists)
	assert.Equal(t, curve.DefaultInitialTokenSupply, f.balance(t, f.custody(t, c.Mint), c.Mint))

	created := f.events.ofType(events.CurveCreated)
	require.Len(t, created, 1)
	e := created[0].(events.CurveCreatedEvent)
	assert.Equal(t, c.Mint, e.Mint)
	assert.Equal(t, "blue", e.Team)
	assert.Equal(t, f.custody(t, c.Mint), e.Custody)

	curves, err := f.lp.Curves(ctx)
	require.NoError(t, err)
	assert.Len(t, curves, 1)
}

func TestCreateCurve_InvalidRequest(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	creator := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"no creator", CreateRequest{Mint: mint}},
		{"no mint", CreateRequest{Creator: creator}},
		{"long name", CreateRequest{Creator: creator, Mint: mint, Name: "a very long token name that does not fit"}},
		{"long symbol", CreateRequest{Creator: creator, Mint: mint, Symbol: "TOOLONGSYMBOL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.lp.CreateCurve(context.Background(), tt.req)
			assert.ErrorIs(t, err, curve.ErrInvalidParams)
		})
	}
}

func TestCustodyAddressIsDeterministic(t *testing.T) {
	f := newFixture(t)
	mint := solana.NewWallet().PublicKey()

	a, err := f.lp.CustodyAddress(mint)
	require.NoError(t, err)
	b, err := f.lp.CustodyAddress(mint)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := f.lp.CustodyAddress(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestAirdrop(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.lp.Airdrop(context.Background(), solana.PublicKey{}, 1), settlement.ErrInvalidTransfer)
	assert.ErrorIs(t, f.lp.Airdrop(context.Background(), solana.NewWallet().PublicKey(), 0), settlement.ErrInvalidTransfer)

	user := f.fundedUser(t, 1_000)
	assert.Equal(t, uint64(1_000), f.balance(t, user, settlement.NativeSOL))
}

func TestRestoreAppliesTransferFee(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.TokenTransferFeeBps = 10 })
	f.initialize(t)
	c := f.createCurve(t, solana.NewWallet().PublicKey())

	// A fresh ledger over the same balances has no fee configured until Restore.
	require.NoError(t, f.ledger.SetTransferFee(c.Mint, 0))
	assert.Zero(t, f.ledger.TransferFee(c.Mint, 10_000))

	require.NoError(t, f.lp.Restore(context.Background()))
	assert.Equal(t, uint64(10), f.ledger.TransferFee(c.Mint, 10_000))
}
