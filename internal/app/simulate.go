// internal/app/simulate.go
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
)

// SimulationConfig describes a synthetic trading session.
type SimulationConfig struct {
	Curves  int
	Traders int
	Orders  int
	Workers int
	// MaxBuyTokens bounds the raw token amount of a single buy.
	MaxBuyTokens uint64
	// FundLamports is airdropped to every trader before the first order.
	FundLamports uint64
	// BuyRatio is the probability that an order is a buy.
	BuyRatio float64
	Seed     uint64
	// Step advances a ManualClock after each order.
	Step time.Duration
	// Pace delays the producer between orders. Zero runs flat out.
	Pace time.Duration
}

// DefaultSimulationConfig returns a small session that keeps every curve active.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Curves:       3,
		Traders:      10,
		Orders:       500,
		Workers:      4,
		MaxBuyTokens: 5_000_000_000_000,
		FundLamports: 100_000_000_000,
		BuyRatio:     0.7,
		Seed:         1,
		Step:         time.Second,
	}
}

func (c SimulationConfig) validate() error {
	switch {
	case c.Curves <= 0 || c.Traders <= 0 || c.Orders < 0:
		return errors.New("simulation needs at least one curve and one trader")
	case c.MaxBuyTokens == 0:
		return errors.New("max buy tokens must be positive")
	case c.BuyRatio < 0 || c.BuyRatio > 1:
		return fmt.Errorf("buy ratio %v out of range", c.BuyRatio)
	}
	return nil
}

// SimulationReport aggregates the outcome of a session.
type SimulationReport struct {
	Curves    []solana.PublicKey
	Traders   []solana.PublicKey
	Buys      int
	Sells     int
	Completed int
	// Rejected counts failed orders by error code.
	Rejected map[string]int
	Volume   uint64
	Fees     uint64
	Elapsed  time.Duration
}

// RejectionCodes returns the rejection codes in name order.
func (r *SimulationReport) RejectionCodes() []string {
	codes := make([]string, 0, len(r.Rejected))
	for code := range r.Rejected {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

type order struct {
	trader solana.PublicKey
	mint   solana.PublicKey
	isBuy  bool
	amount uint64
}

// WorkerPool executes simulated orders against the launchpad.
type WorkerPool struct {
	lp           *launchpad.Launchpad
	feeRecipient solana.PublicKey
	logger       *zap.Logger

	mu     sync.Mutex
	report *SimulationReport
}

func (wp *WorkerPool) worker(ctx context.Context, id int, orders <-chan order) error {
	logger := wp.logger.With(zap.Int("worker_id", id))
	logger.Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case o, ok := <-orders:
			if !ok {
				logger.Debug("Order channel closed")
				return nil
			}
			wp.handleOrder(ctx, o)
		}
	}
}

func (wp *WorkerPool) handleOrder(ctx context.Context, o order) {
	var (
		receipt *launchpad.TradeReceipt
		err     error
	)
	if o.isBuy {
		receipt, err = wp.lp.Buy(ctx, launchpad.BuyRequest{
			Mint:         o.mint,
			User:         o.trader,
			FeeRecipient: wp.feeRecipient,
			TokenAmount:  o.amount,
			MaxSolCost:   math.MaxUint64,
		})
	} else {
		var held uint64
		held, err = wp.lp.Balance(ctx, o.trader, o.mint)
		if err == nil {
			// o.amount is a share of the holdings in basis points.
			amount := held / curve.BasisPointsDenominator * o.amount
			receipt, err = wp.lp.Sell(ctx, launchpad.SellRequest{
				Mint:         o.mint,
				User:         o.trader,
				FeeRecipient: wp.feeRecipient,
				TokenAmount:  amount,
			})
		}
	}

	wp.mu.Lock()
	defer wp.mu.Unlock()
	if err != nil {
		wp.report.Rejected[curve.ErrorCode(err)]++
		return
	}
	if o.isBuy {
		wp.report.Buys++
	} else {
		wp.report.Sells++
	}
	wp.report.Volume += receipt.SolAmount
	wp.report.Fees += receipt.Fee
	if receipt.Completed {
		wp.report.Completed++
	}
}

// Simulate creates curves, funds traders and runs random orders through a
// worker pool. The launchpad is initialized with a fresh authority if needed.
func Simulate(ctx context.Context, a *App, cfg SimulationConfig) (*SimulationReport, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	lp := a.Launchpad
	log := a.Logger.Named("simulation")

	g, err := lp.Global(ctx)
	if errors.Is(err, curve.ErrNotInitialized) {
		authority := a.Authority()
		if authority.IsZero() {
			authority = solana.NewWallet().PublicKey()
		}
		g, err = lp.Initialize(ctx, authority)
	}
	if err != nil {
		return nil, err
	}

	report := &SimulationReport{Rejected: make(map[string]int)}
	for i := 0; i < cfg.Curves; i++ {
		c, err := lp.CreateCurve(ctx, launchpad.CreateRequest{
			Creator: solana.NewWallet().PublicKey(),
			Mint:    solana.NewWallet().PublicKey(),
			Name:    fmt.Sprintf("Simulated %d", i+1),
			Symbol:  fmt.Sprintf("SIM%d", i+1),
			Team:    curve.Team(i % 2),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create curve %d: %w", i+1, err)
		}
		report.Curves = append(report.Curves, c.Mint)
	}
	for i := 0; i < cfg.Traders; i++ {
		trader := solana.NewWallet().PublicKey()
		if err := lp.Airdrop(ctx, trader, cfg.FundLamports); err != nil {
			return nil, fmt.Errorf("failed to fund trader %d: %w", i+1, err)
		}
		report.Traders = append(report.Traders, trader)
	}

	log.Info("Simulation started",
		zap.Int("count", cfg.Orders),
		zap.Int("curves", cfg.Curves),
		zap.Int("traders", cfg.Traders))

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	pool := &WorkerPool{lp: lp, feeRecipient: g.FeeRecipient, logger: log, report: report}
	manual, _ := a.Clock.(*launchpad.ManualClock)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	eg, egCtx := errgroup.WithContext(ctx)
	orders := make(chan order, workers)

	eg.Go(func() error {
		defer close(orders)
		for i := 0; i < cfg.Orders; i++ {
			o := order{
				trader: report.Traders[rng.IntN(len(report.Traders))],
				mint:   report.Curves[rng.IntN(len(report.Curves))],
				isBuy:  rng.Float64() < cfg.BuyRatio,
			}
			if o.isBuy {
				o.amount = 1 + rng.Uint64N(cfg.MaxBuyTokens)
			} else {
				o.amount = 1 + rng.Uint64N(curve.BasisPointsDenominator)
			}
			select {
			case orders <- o:
			case <-egCtx.Done():
				return egCtx.Err()
			}
			if manual != nil {
				manual.Advance(cfg.Step)
			}
			if cfg.Pace > 0 {
				select {
				case <-time.After(cfg.Pace):
				case <-egCtx.Done():
					return egCtx.Err()
				}
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ {
		id := i + 1
		eg.Go(func() error {
			return pool.worker(egCtx, id, orders)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, mint := range report.Curves {
		c, err := lp.Curve(ctx, mint)
		if err != nil {
			return nil, err
		}
		if err := c.CheckInvariants(); err != nil {
			return nil, fmt.Errorf("curve %s after simulation: %w", mint, err)
		}
	}

	report.Elapsed = time.Since(start)
	log.Info("Simulation finished",
		zap.Int("buys", report.Buys),
		zap.Int("sells", report.Sells),
		zap.Int("completed", report.Completed),
		zap.Uint64("sol_amount", report.Volume),
		zap.Uint64("fee", report.Fees),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

// TotalSOL sums the lamports held by the given accounts.
func TotalSOL(ctx context.Context, lp *launchpad.Launchpad, owners ...solana.PublicKey) (uint64, error) {
	var total uint64
	for _, owner := range owners {
		bal, err := lp.Balance(ctx, owner, settlement.NativeSOL)
		if err != nil {
			return 0, err
		}
		total += bal
	}
	return total, nil
}
