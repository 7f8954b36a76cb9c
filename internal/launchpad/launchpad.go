// =============================
// File: internal/launchpad/launchpad.go
// =============================

// Package launchpad runs bonding-curve token sales: it validates requests,
// prices them with the curve engine, settles value through an Executor and
// commits the result to a Store.
package launchpad

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/metrics"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage"
)

// CustodySeed is the PDA seed of a curve's custody account.
const CustodySeed = "bonding-curve"

// Publisher receives launchpad events. *events.Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// transferFeeConfigurer is implemented by executors that support per-asset
// transfer fees, such as *settlement.Ledger.
type transferFeeConfigurer interface {
	SetTransferFee(asset solana.PublicKey, bps uint64) error
	TransferFee(asset solana.PublicKey, amount uint64) uint64
}

// Options configure a Launchpad. Zero values fall back to defaults.
type Options struct {
	ProgramID solana.PublicKey
	// DefaultParams are written by Initialize.
	DefaultParams curve.Params
	RateLimiter   *curve.RateLimiter
	// FirstTradeTimestamp seeds a user's throttle record on their first trade
	// of a curve. With the default of zero the first window is long past, so a
	// creator's first trade is capped at the full hourly share.
	FirstTradeTimestamp int64
	// TokenTransferFeeBps is configured on every new mint when the executor
	// supports transfer fees.
	TokenTransferFeeBps uint64
	Clock               Clock
	Publisher           Publisher
	Metrics             *metrics.Collector
}

// Launchpad is safe for concurrent use. Trades on the same curve are
// serialized; trades on different curves run in parallel.
type Launchpad struct {
	store    storage.Store
	executor settlement.Executor
	logger   *zap.Logger
	opts     Options

	globalMu sync.Mutex
	locks    sync.Map // solana.PublicKey -> *sync.Mutex
}

// New wires a launchpad over a store and an executor.
func New(store storage.Store, executor settlement.Executor, logger *zap.Logger, opts Options) (*Launchpad, error) {
	if store == nil || executor == nil {
		return nil, errors.New("launchpad: store and executor are required")
	}
	if opts.ProgramID.IsZero() {
		return nil, errors.New("launchpad: program id is required")
	}
	if opts.DefaultParams == (curve.Params{}) {
		opts.DefaultParams = curve.DefaultParams()
	}
	if err := opts.DefaultParams.Validate(); err != nil {
		return nil, fmt.Errorf("launchpad: default params: %w", err)
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = curve.NewRateLimiter()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &Launchpad{
		store:    store,
		executor: executor,
		logger:   logger.Named("launchpad"),
		opts:     opts,
	}, nil
}

func (l *Launchpad) lock(mint solana.PublicKey) func() {
	v, _ := l.locks.LoadOrStore(mint, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CustodyAddress returns the account that holds a curve's SOL and tokens.
func (l *Launchpad) CustodyAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(CustodySeed), mint.Bytes()}, l.opts.ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive custody address: %w", err)
	}
	return addr, nil
}

func (l *Launchpad) publish(ctx context.Context, event events.Event) {
	if l.opts.Publisher == nil {
		return
	}
	if err := l.opts.Publisher.Publish(ctx, event); err != nil {
		l.logger.Warn("Failed to publish event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}

// loadGlobal maps a missing or uninitialized config to ErrNotInitialized.
func (l *Launchpad) loadGlobal(ctx context.Context) (*curve.GlobalConfig, error) {
	g, err := l.store.Global(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, curve.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	if !g.Initialized {
		return nil, curve.ErrNotInitialized
	}
	return g, nil
}

func (l *Launchpad) loadCurve(ctx context.Context, mint solana.PublicKey) (*curve.BondingCurve, error) {
	c, err := l.store.Curve(ctx, mint)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", curve.ErrCurveNotFound, mint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load curve %s: %w", mint, err)
	}
	return c, nil
}

// Initialize creates the global config owned by authority with the default
// params.
func (l *Launchpad) Initialize(ctx context.Context, authority solana.PublicKey) (*curve.GlobalConfig, error) {
	if authority.IsZero() {
		return nil, curve.ErrInvalidAuthority
	}

	l.globalMu.Lock()
	defer l.globalMu.Unlock()

	existing, err := l.store.Global(ctx)
	switch {
	case err == nil && existing.Initialized:
		return nil, curve.ErrAlreadyInitialized
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}

	g := curve.NewGlobalConfig(authority, l.opts.DefaultParams)
	if err := l.store.SaveGlobal(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save global config: %w", err)
	}

	l.logger.Info("Launchpad initialized",
		zap.String("authority", authority.String()),
		zap.String("fee_recipient", g.FeeRecipient.String()),
		zap.Uint64("fee_basis_points", g.FeeBasisPoints))
	return g, nil
}

// SetParams replaces the launch params. Existing curves are not affected.
func (l *Launchpad) SetParams(ctx context.Context, signer solana.PublicKey, p curve.Params) (*curve.GlobalConfig, error) {
	l.globalMu.Lock()
	defer l.globalMu.Unlock()

	g, err := l.loadGlobal(ctx)
	if err != nil {
		return nil, err
	}
	if !signer.Equals(g.Authority) {
		return nil, curve.ErrInvalidAuthority
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	g.Apply(p)
	if err := l.store.SaveGlobal(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save global config: %w", err)
	}

	l.logger.Info("Params updated",
		zap.Uint64("initial_virtual_sol_reserves", g.InitialVirtualSolReserves),
		zap.Uint64("initial_virtual_token_reserves", g.InitialVirtualTokenReserves),
		zap.Uint64("initial_real_token_reserves", g.InitialRealTokenReserves),
		zap.Uint64("initial_token_supply", g.InitialTokenSupply),
		zap.Uint64("fee_basis_points", g.FeeBasisPoints))

	l.publish(ctx, events.ParamsSetEvent{
		BaseEvent:                   events.NewBase(events.ParamsSet, l.opts.Clock.Now()),
		FeeRecipient:                g.FeeRecipient,
		WithdrawAuthority:           g.WithdrawAuthority,
		InitialVirtualTokenReserves: g.InitialVirtualTokenReserves,
		InitialVirtualSolReserves:   g.InitialVirtualSolReserves,
		InitialRealTokenReserves:    g.InitialRealTokenReserves,
		InitialTokenSupply:          g.InitialTokenSupply,
		FeeBasisPoints:              g.FeeBasisPoints,
	})
	return g, nil
}

// Global returns the global config.
func (l *Launchpad) Global(ctx context.Context) (*curve.GlobalConfig, error) {
	return l.loadGlobal(ctx)
}

// Curve returns the curve of mint.
func (l *Launchpad) Curve(ctx context.Context, mint solana.PublicKey) (*curve.BondingCurve, error) {
	return l.loadCurve(ctx, mint)
}

// Curves returns every curve in creation order.
func (l *Launchpad) Curves(ctx context.Context) ([]*curve.BondingCurve, error) {
	return l.store.Curves(ctx)
}

// Balance returns owner's balance of asset. Use settlement.NativeSOL for lamports.
func (l *Launchpad) Balance(ctx context.Context, owner, asset solana.PublicKey) (uint64, error) {
	return l.executor.Balance(ctx, owner, asset)
}

// Airdrop credits lamports to owner. It stands in for wallet funding on a
// local ledger.
func (l *Launchpad) Airdrop(ctx context.Context, owner solana.PublicKey, lamports uint64) error {
	if owner.IsZero() || lamports == 0 {
		return fmt.Errorf("%w: airdrop of %d lamports to %s", settlement.ErrInvalidTransfer, lamports, owner)
	}
	if err := l.executor.Mint(ctx, owner, settlement.NativeSOL, lamports); err != nil {
		return fmt.Errorf("failed to airdrop: %w", err)
	}
	l.logger.Debug("Airdrop", zap.String("user", owner.String()), zap.Uint64("sol_amount", lamports))
	return nil
}

// Restore re-applies per-mint transfer fees and metric gauges after the
// process restarts on a persistent store.
func (l *Launchpad) Restore(ctx context.Context) error {
	curves, err := l.store.Curves(ctx)
	if err != nil {
		return fmt.Errorf("failed to list curves: %w", err)
	}
	active := 0
	for _, c := range curves {
		if err := l.configureTransferFee(c.Mint); err != nil {
			return err
		}
		if !c.Complete {
			active++
		}
	}
	l.opts.Metrics.SetActiveCurves(active)
	l.logger.Debug("State restored", zap.Int("count", len(curves)), zap.Int("active", active))
	return nil
}

func (l *Launchpad) configureTransferFee(mint solana.PublicKey) error {
	cfg, ok := l.executor.(transferFeeConfigurer)
	if !ok || l.opts.TokenTransferFeeBps == 0 {
		return nil
	}
	if err := cfg.SetTransferFee(mint, l.opts.TokenTransferFeeBps); err != nil {
		return fmt.Errorf("failed to set transfer fee for %s: %w", mint, err)
	}
	return nil
}
