package launchpad

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
)

// WithdrawReceipt reports what a withdraw swept out of custody.
type WithdrawReceipt struct {
	SolAmount   uint64
	TokenAmount uint64
}

// Withdraw sweeps the custody SOL and tokens of a complete curve to the withdraw
// authority. The curve record is left as it was when it completed.
func (l *Launchpad) Withdraw(ctx context.Context, mint, signer solana.PublicKey) (*WithdrawReceipt, error) {
	unlock := l.lock(mint)
	defer unlock()

	now := l.opts.Clock.Now()

	g, err := l.loadGlobal(ctx)
	if err != nil {
		return nil, err
	}
	c, err := l.loadCurve(ctx, mint)
	if err != nil {
		return nil, err
	}
	if !signer.Equals(g.WithdrawAuthority) {
		return nil, curve.ErrInvalidWithdrawAuthority
	}
	if !c.Complete {
		return nil, curve.ErrCurveNotComplete
	}

	custody, tokens, err := l.custodyBalance(ctx, mint)
	if err != nil {
		return nil, err
	}
	lamports, err := l.executor.Balance(ctx, custody, settlement.NativeSOL)
	if err != nil {
		return nil, fmt.Errorf("failed to load custody SOL: %w", err)
	}

	transfers := compact([]settlement.Transfer{
		{From: custody, To: signer, Asset: settlement.NativeSOL, Amount: lamports},
		{From: custody, To: signer, Asset: mint, Amount: tokens},
	})
	if err := l.executor.Execute(ctx, transfers); err != nil {
		return nil, fmt.Errorf("failed to settle withdraw: %w", err)
	}

	l.logger.Info("Curve withdrawn",
		zap.String("mint", mint.String()),
		zap.String("authority", signer.String()),
		zap.Uint64("sol_amount", lamports),
		zap.Uint64("token_amount", tokens))

	l.publish(ctx, events.WithdrawEvent{
		BaseEvent:   events.NewBase(events.CurveWithdrawn, now),
		Mint:        mint,
		Authority:   signer,
		SolAmount:   lamports,
		TokenAmount: tokens,
	})
	return &WithdrawReceipt{SolAmount: lamports, TokenAmount: tokens}, nil
}
