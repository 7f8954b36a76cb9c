package launchpad

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/metrics"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage"
)

// BuyRequest buys TokenAmount tokens paying at most MaxSolCost lamports,
// fee included.
type BuyRequest struct {
	Mint         solana.PublicKey
	User         solana.PublicKey
	FeeRecipient solana.PublicKey
	TokenAmount  uint64
	MaxSolCost   uint64
}

// SellRequest sells TokenAmount tokens for at least MinSolOutput lamports
// after the fee.
type SellRequest struct {
	Mint         solana.PublicKey
	User         solana.PublicKey
	FeeRecipient solana.PublicKey
	TokenAmount  uint64
	MinSolOutput uint64
}

// TradeReceipt describes an executed trade.
type TradeReceipt struct {
	// SolAmount is the curve price before the fee.
	SolAmount   uint64
	TokenAmount uint64
	Fee         uint64
	// Completed is set on the buy that sold out the curve.
	Completed bool
	Curve     *curve.BondingCurve
}

// Quote is the price of a trade if it executed now.
type Quote struct {
	IsBuy       bool
	TokenAmount uint64
	SolAmount   uint64
	Fee         uint64
	// Total is the buyer's cost or the seller's net proceeds.
	Total uint64
}

// netProceeds is what a seller receives after the fee.
func netProceeds(solAmount, fee uint64) (uint64, error) {
	if fee > solAmount {
		return 0, fmt.Errorf("%w: fee %d exceeds proceeds %d", curve.ErrArithmeticOverflow, fee, solAmount)
	}
	return solAmount - fee, nil
}

// transferData loads the user's throttle record, or seeds a new one.
func (l *Launchpad) transferData(ctx context.Context, user solana.PublicKey, c *curve.BondingCurve) (*curve.UserTransferData, error) {
	rec, err := l.store.TransferData(ctx, user, c.Mint)
	if errors.Is(err, storage.ErrNotFound) {
		return curve.NewUserTransferData(l.opts.FirstTradeTimestamp), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transfer data: %w", err)
	}
	return rec, nil
}

func (l *Launchpad) custodyBalance(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, uint64, error) {
	custody, err := l.CustodyAddress(mint)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	bal, err := l.executor.Balance(ctx, custody, mint)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to load custody balance: %w", err)
	}
	return custody, bal, nil
}

// Buy sells tokens out of a curve.
func (l *Launchpad) Buy(ctx context.Context, req BuyRequest) (*TradeReceipt, error) {
	start := time.Now()
	receipt, err := l.buy(ctx, req)
	l.recordOutcome(true, req.Mint, req.User, receipt, err, start)
	return receipt, err
}

func (l *Launchpad) buy(ctx context.Context, req BuyRequest) (*TradeReceipt, error) {
	unlock := l.lock(req.Mint)
	defer unlock()

	now := l.opts.Clock.Now()
	ts := now.Unix()

	g, err := l.loadGlobal(ctx)
	if err != nil {
		return nil, err
	}
	c, err := l.loadCurve(ctx, req.Mint)
	if err != nil {
		return nil, err
	}
	if c.Complete {
		return nil, curve.ErrCurveComplete
	}
	if !req.FeeRecipient.Equals(g.FeeRecipient) {
		return nil, curve.ErrInvalidFeeRecipient
	}
	if req.TokenAmount > c.RealTokenReserves {
		return nil, fmt.Errorf("%w: requested %d, curve has %d", curve.ErrInsufficientTokens, req.TokenAmount, c.RealTokenReserves)
	}
	if req.TokenAmount == 0 {
		return nil, curve.ErrMinBuy
	}

	record, err := l.transferData(ctx, req.User, c)
	if err != nil {
		return nil, err
	}
	if err := l.opts.RateLimiter.CheckAndUpdate(record, req.User, c, req.TokenAmount, ts); err != nil {
		return nil, err
	}

	custody, custodyTokens, err := l.custodyBalance(ctx, c.Mint)
	if err != nil {
		return nil, err
	}
	amm := c.AMM(custodyTokens)
	res, err := amm.ApplyBuy(req.TokenAmount)
	if err != nil {
		return nil, err
	}

	fee, err := curve.CalculateFee(res.SolAmount, g.FeeBasisPoints)
	if err != nil {
		return nil, err
	}
	total, carry := bits.Add64(res.SolAmount, fee, 0)
	if carry != 0 {
		return nil, curve.ErrArithmeticOverflow
	}
	if total > req.MaxSolCost {
		return nil, &curve.SlippageError{IsBuy: true, Bound: req.MaxSolCost, Actual: total}
	}

	balance, err := l.executor.Balance(ctx, req.User, settlement.NativeSOL)
	if err != nil {
		return nil, fmt.Errorf("failed to load user balance: %w", err)
	}
	if balance < total {
		return nil, fmt.Errorf("%w: have %d lamports, need %d", curve.ErrInsufficientBalance, balance, total)
	}

	next := c.Clone()
	completed := next.Commit(amm, true)
	if err := next.CheckInvariants(); err != nil {
		return nil, err
	}

	transfers := compact([]settlement.Transfer{
		{From: req.User, To: custody, Asset: settlement.NativeSOL, Amount: res.SolAmount},
		{From: req.User, To: g.FeeRecipient, Asset: settlement.NativeSOL, Amount: fee},
		{From: custody, To: req.User, Asset: c.Mint, Amount: res.TokenAmount},
	})
	if err := l.executor.Execute(ctx, transfers); err != nil {
		if errors.Is(err, settlement.ErrInsufficientFunds) {
			return nil, fmt.Errorf("%w: %v", curve.ErrInsufficientBalance, err)
		}
		return nil, fmt.Errorf("failed to settle buy: %w", err)
	}
	if err := l.store.CommitTrade(ctx, next, req.User, record); err != nil {
		return nil, l.compensate(ctx, transfers, fmt.Errorf("failed to commit buy: %w", err))
	}

	l.publish(ctx, events.TradeEvent{
		BaseEvent:     events.NewBase(events.CurveTrade, now),
		Mint:          next.Mint,
		User:          req.User,
		IsBuy:         true,
		SolAmount:     res.SolAmount,
		TokenAmount:   res.TokenAmount,
		Fee:           fee,
		UnixTimestamp: ts,
		Reserves:      reservesOf(next),
	})
	if completed {
		l.opts.Metrics.CurveCompleted()
		l.logger.Info("Curve completed", zap.String("mint", next.Mint.String()), zap.String("user", req.User.String()))
		l.publish(ctx, events.CurveCompletedEvent{
			BaseEvent:     events.NewBase(events.CurveCompleted, now),
			Mint:          next.Mint,
			User:          req.User,
			UnixTimestamp: ts,
		})
	}

	return &TradeReceipt{
		SolAmount:   res.SolAmount,
		TokenAmount: res.TokenAmount,
		Fee:         fee,
		Completed:   completed,
		Curve:       next,
	}, nil
}

// Sell buys tokens back into a curve.
func (l *Launchpad) Sell(ctx context.Context, req SellRequest) (*TradeReceipt, error) {
	start := time.Now()
	receipt, err := l.sell(ctx, req)
	l.recordOutcome(false, req.Mint, req.User, receipt, err, start)
	return receipt, err
}

func (l *Launchpad) sell(ctx context.Context, req SellRequest) (*TradeReceipt, error) {
	unlock := l.lock(req.Mint)
	defer unlock()

	now := l.opts.Clock.Now()
	ts := now.Unix()

	g, err := l.loadGlobal(ctx)
	if err != nil {
		return nil, err
	}
	c, err := l.loadCurve(ctx, req.Mint)
	if err != nil {
		return nil, err
	}
	if c.Complete {
		return nil, curve.ErrCurveComplete
	}
	if !req.FeeRecipient.Equals(g.FeeRecipient) {
		return nil, curve.ErrInvalidFeeRecipient
	}
	if req.TokenAmount == 0 {
		return nil, curve.ErrMinSell
	}

	holdings, err := l.executor.Balance(ctx, req.User, c.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to load user tokens: %w", err)
	}
	if holdings < req.TokenAmount {
		return nil, fmt.Errorf("%w: have %d, selling %d", curve.ErrInsufficientTokens, holdings, req.TokenAmount)
	}

	record, err := l.transferData(ctx, req.User, c)
	if err != nil {
		return nil, err
	}
	if err := l.opts.RateLimiter.CheckAndUpdate(record, req.User, c, req.TokenAmount, ts); err != nil {
		return nil, err
	}

	custody, custodyTokens, err := l.custodyBalance(ctx, c.Mint)
	if err != nil {
		return nil, err
	}
	amm := c.AMM(custodyTokens)
	res, err := amm.ApplySell(req.TokenAmount)
	if err != nil {
		return nil, err
	}

	fee, err := curve.CalculateFee(res.SolAmount, g.FeeBasisPoints)
	if err != nil {
		return nil, err
	}
	net, err := netProceeds(res.SolAmount, fee)
	if err != nil {
		return nil, err
	}
	if net < req.MinSolOutput {
		return nil, &curve.SlippageError{IsBuy: false, Bound: req.MinSolOutput, Actual: net}
	}

	next := c.Clone()
	next.Commit(amm, false)
	if err := next.CheckInvariants(); err != nil {
		return nil, err
	}

	transfers := compact([]settlement.Transfer{
		{From: req.User, To: custody, Asset: c.Mint, Amount: res.TokenAmount},
		{From: custody, To: req.User, Asset: settlement.NativeSOL, Amount: net},
		{From: custody, To: g.FeeRecipient, Asset: settlement.NativeSOL, Amount: fee},
	})
	if err := l.executor.Execute(ctx, transfers); err != nil {
		return nil, fmt.Errorf("failed to settle sell: %w", err)
	}
	if err := l.store.CommitTrade(ctx, next, req.User, record); err != nil {
		return nil, l.compensate(ctx, transfers, fmt.Errorf("failed to commit sell: %w", err))
	}

	l.publish(ctx, events.TradeEvent{
		BaseEvent:     events.NewBase(events.CurveTrade, now),
		Mint:          next.Mint,
		User:          req.User,
		IsBuy:         false,
		SolAmount:     res.SolAmount,
		TokenAmount:   res.TokenAmount,
		Fee:           fee,
		UnixTimestamp: ts,
		Reserves:      reservesOf(next),
	})

	return &TradeReceipt{
		SolAmount:   res.SolAmount,
		TokenAmount: res.TokenAmount,
		Fee:         fee,
		Curve:       next,
	}, nil
}

func (l *Launchpad) recordOutcome(isBuy bool, mint, user solana.PublicKey, r *TradeReceipt, err error, start time.Time) {
	side := "sell"
	if isBuy {
		side = "buy"
	}
	if err == nil {
		l.opts.Metrics.RecordTrade(isBuy, r.SolAmount, r.Fee, time.Since(start))
		l.logger.Info("Trade executed",
			zap.String("mint", mint.String()),
			zap.String("user", user.String()),
			zap.String("side", side),
			zap.Uint64("sol_amount", r.SolAmount),
			zap.Uint64("token_amount", r.TokenAmount),
			zap.Uint64("fee", r.Fee))
		return
	}

	status := metrics.StatusFailed
	switch {
	case errors.Is(err, curve.ErrRateLimited):
		status = metrics.StatusRateLimited
	case errors.Is(err, curve.ErrMaxCostExceeded), errors.Is(err, curve.ErrMinProceedsNotMet):
		status = metrics.StatusSlippage
	}
	l.opts.Metrics.RecordRejected(isBuy, status)
	l.logger.Debug("Trade rejected",
		zap.String("mint", mint.String()),
		zap.String("user", user.String()),
		zap.String("side", side),
		zap.String("code", curve.ErrorCode(err)),
		zap.Error(err))
}

// QuoteBuy prices a buy of amount tokens without executing it.
func (l *Launchpad) QuoteBuy(ctx context.Context, mint solana.PublicKey, amount uint64) (Quote, error) {
	g, c, err := l.quoteState(ctx, mint)
	if err != nil {
		return Quote{}, err
	}
	if amount > c.RealTokenReserves {
		return Quote{}, fmt.Errorf("%w: requested %d, curve has %d", curve.ErrInsufficientTokens, amount, c.RealTokenReserves)
	}
	if amount == 0 {
		return Quote{}, curve.ErrMinBuy
	}
	_, custodyTokens, err := l.custodyBalance(ctx, mint)
	if err != nil {
		return Quote{}, err
	}
	res, err := c.AMM(custodyTokens).BuyQuote(amount)
	if err != nil {
		return Quote{}, err
	}
	fee, err := curve.CalculateFee(res.SolAmount, g.FeeBasisPoints)
	if err != nil {
		return Quote{}, err
	}
	total, carry := bits.Add64(res.SolAmount, fee, 0)
	if carry != 0 {
		return Quote{}, curve.ErrArithmeticOverflow
	}
	return Quote{IsBuy: true, TokenAmount: res.TokenAmount, SolAmount: res.SolAmount, Fee: fee, Total: total}, nil
}

// QuoteSell prices a sale of amount tokens without executing it.
func (l *Launchpad) QuoteSell(ctx context.Context, mint solana.PublicKey, amount uint64) (Quote, error) {
	g, c, err := l.quoteState(ctx, mint)
	if err != nil {
		return Quote{}, err
	}
	if amount == 0 {
		return Quote{}, curve.ErrMinSell
	}
	_, custodyTokens, err := l.custodyBalance(ctx, mint)
	if err != nil {
		return Quote{}, err
	}
	res, err := c.AMM(custodyTokens).SellQuote(amount)
	if err != nil {
		return Quote{}, err
	}
	fee, err := curve.CalculateFee(res.SolAmount, g.FeeBasisPoints)
	if err != nil {
		return Quote{}, err
	}
	net, err := netProceeds(res.SolAmount, fee)
	if err != nil {
		return Quote{}, err
	}
	return Quote{TokenAmount: res.TokenAmount, SolAmount: res.SolAmount, Fee: fee, Total: net}, nil
}

func (l *Launchpad) quoteState(ctx context.Context, mint solana.PublicKey) (*curve.GlobalConfig, *curve.BondingCurve, error) {
	g, err := l.loadGlobal(ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := l.loadCurve(ctx, mint)
	if err != nil {
		return nil, nil, err
	}
	if c.Complete {
		return nil, nil, curve.ErrCurveComplete
	}
	return g, c, nil
}
