package app

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/curve-launchpad/internal/config"
	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
	"github.com/rovshanmuradov/curve-launchpad/internal/logger"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Log.Level = "debug"
	cfg.Log.Pretty = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithQuietConsole()}, opts...)
	a, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNew_MemoryBackend(t *testing.T) {
	buf := logger.NewLogBuffer(100)
	a := newTestApp(t, testConfig(t), WithLogSinks(buf))
	ctx := context.Background()

	received := make(chan events.Event, 16)
	a.Bus.Subscribe(events.ChanHandler(received), events.CurveCreated)

	authority := solana.NewWallet().PublicKey()
	_, err := a.Launchpad.Initialize(ctx, authority)
	require.NoError(t, err)
	c, err := a.Launchpad.CreateCurve(ctx, launchpad.CreateRequest{
		Creator: solana.NewWallet().PublicKey(),
		Mint:    solana.NewWallet().PublicKey(),
		Symbol:  "APP",
	})
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, c.Mint, e.(events.CurveCreatedEvent).Mint)
	case <-time.After(2 * time.Second):
		t.Fatal("curve created event not delivered")
	}

	assert.Equal(t, float64(1), metricValue(t, a, "launchpad_curves_created_total"))
	assert.NotEmpty(t, buf.GetRecentLogs(0))
	assert.Nil(t, a.Journal)
}

func TestNew_WithheldAccountCollectsTransferFees(t *testing.T) {
	cfg := testConfig(t)
	cfg.TokenTransferFeeBps = 100
	a := newTestApp(t, cfg)
	ctx := context.Background()

	g, err := a.Launchpad.Initialize(ctx, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	c, err := a.Launchpad.CreateCurve(ctx, launchpad.CreateRequest{
		Creator: solana.NewWallet().PublicKey(),
		Mint:    solana.NewWallet().PublicKey(),
	})
	require.NoError(t, err)

	user := solana.NewWallet().PublicKey()
	require.NoError(t, a.Launchpad.Airdrop(ctx, user, 1_000_000_000_000))
	_, err = a.Launchpad.Buy(ctx, launchpad.BuyRequest{
		Mint: c.Mint, User: user, FeeRecipient: g.FeeRecipient,
		TokenAmount: 1_000_000, MaxSolCost: 1_000_000_000,
	})
	require.NoError(t, err)

	programID, err := a.Config.ProgramKey()
	require.NoError(t, err)
	withheld, _, err := solana.FindProgramAddress([][]byte{[]byte(WithheldSeed)}, programID)
	require.NoError(t, err)

	got, err := a.Launchpad.Balance(ctx, withheld, c.Mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), got)
	held, err := a.Launchpad.Balance(ctx, user, c.Mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(990_000), held)
}

func TestNew_PebbleStatePersists(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = config.BackendPebble
	cfg.Store.Path = t.TempDir()
	ctx := context.Background()

	first, err := New(ctx, cfg, WithQuietConsole())
	require.NoError(t, err)

	g, err := first.Launchpad.Initialize(ctx, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	c, err := first.Launchpad.CreateCurve(ctx, launchpad.CreateRequest{
		Creator: solana.NewWallet().PublicKey(),
		Mint:    solana.NewWallet().PublicKey(),
	})
	require.NoError(t, err)
	user := solana.NewWallet().PublicKey()
	require.NoError(t, first.Launchpad.Airdrop(ctx, user, 1_000_000_000))
	_, err = first.Launchpad.Buy(ctx, launchpad.BuyRequest{
		Mint: c.Mint, User: user, FeeRecipient: g.FeeRecipient,
		TokenAmount: 1_000_000_000, MaxSolCost: 1_000_000_000,
	})
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second := newTestApp(t, cfg)
	stored, err := second.Launchpad.Curve(ctx, c.Mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(27_960), stored.RealSolReserves)

	held, err := second.Launchpad.Balance(ctx, user, c.Mint)
	require.NoError(t, err)
	// The default token transfer fee of 10 bps was withheld on the way out of custody.
	assert.Equal(t, uint64(999_000_000), held)
	sol, err := second.Launchpad.Balance(ctx, user, settlement.NativeSOL)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000-28_099), sol)

	assert.Equal(t, float64(1), metricValue(t, second, "launchpad_active_curves"))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.ProgramID = "not-a-key"
	_, err := New(context.Background(), cfg, WithQuietConsole())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Store.Backend = config.BackendPebble
	cfg.Store.Path = ""
	_, err = New(context.Background(), cfg, WithQuietConsole())
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	clock := launchpad.NewManualClock(time.Unix(1_700_000_000, 0))
	a := newTestApp(t, testConfig(t), WithClock(clock))
	ctx := context.Background()

	cfg := DefaultSimulationConfig()
	cfg.Orders = 200
	report, err := Simulate(ctx, a, cfg)
	require.NoError(t, err)

	assert.Len(t, report.Curves, cfg.Curves)
	assert.Len(t, report.Traders, cfg.Traders)
	assert.Equal(t, cfg.Orders, report.Buys+report.Sells+sumRejected(report))
	assert.Positive(t, report.Buys)
	assert.Positive(t, report.Sells)
	assert.Zero(t, report.Rejected["InvariantViolation"])
	assert.Zero(t, report.Rejected["ArithmeticOverflow"])
	assert.Equal(t, time.Unix(1_700_000_000, 0).Add(time.Duration(cfg.Orders)*cfg.Step), clock.Now())

	g, err := a.Launchpad.Global(ctx)
	require.NoError(t, err)

	// Lamports are conserved between traders, custody and the fee recipient.
	owners := append([]solana.PublicKey{g.FeeRecipient}, report.Traders...)
	for _, mint := range report.Curves {
		custody, err := a.Launchpad.CustodyAddress(mint)
		require.NoError(t, err)
		owners = append(owners, custody)

		c, err := a.Launchpad.Curve(ctx, mint)
		require.NoError(t, err)
		require.NoError(t, c.CheckInvariants())
	}
	total, err := TotalSOL(ctx, a.Launchpad, owners...)
	require.NoError(t, err)
	assert.Equal(t, uint64(cfg.Traders)*cfg.FundLamports, total)

	fees, err := TotalSOL(ctx, a.Launchpad, g.FeeRecipient)
	require.NoError(t, err)
	assert.Equal(t, report.Fees, fees)
}

func TestSimulate_InvalidConfig(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	cfg := DefaultSimulationConfig()
	cfg.Curves = 0
	_, err := Simulate(context.Background(), a, cfg)
	assert.Error(t, err)

	cfg = DefaultSimulationConfig()
	cfg.BuyRatio = 1.5
	_, err = Simulate(context.Background(), a, cfg)
	assert.Error(t, err)
}

func TestSimulate_RespectsExistingAuthority(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()
	authority := solana.NewWallet().PublicKey()
	_, err := a.Launchpad.Initialize(ctx, authority)
	require.NoError(t, err)

	cfg := DefaultSimulationConfig()
	cfg.Orders = 10
	_, err = Simulate(ctx, a, cfg)
	require.NoError(t, err)

	g, err := a.Launchpad.Global(ctx)
	require.NoError(t, err)
	assert.Equal(t, authority, g.Authority)
	assert.Equal(t, curve.DefaultFeeBasisPoints, g.FeeBasisPoints)
}

func sumRejected(r *SimulationReport) int {
	n := 0
	for _, code := range r.RejectionCodes() {
		n += r.Rejected[code]
	}
	return n
}

func metricValue(t *testing.T, a *App, name string) float64 {
	t.Helper()
	families, err := a.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		m := mf.GetMetric()[0]
		if m.GetCounter() != nil {
			return m.GetCounter().GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}
