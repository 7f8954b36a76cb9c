package launchpad

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage"
)

// Metadata limits, as enforced by the Metaplex token metadata program.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

// CreateRequest launches a new curve for Mint.
type CreateRequest struct {
	Creator solana.PublicKey
	Mint    solana.PublicKey
	Name    string
	Symbol  string
	URI     string
	Team    curve.Team
}

func (r CreateRequest) validate() error {
	switch {
	case r.Creator.IsZero():
		return fmt.Errorf("%w: creator is required", curve.ErrInvalidParams)
	case r.Mint.IsZero():
		return fmt.Errorf("%w: mint is required", curve.ErrInvalidParams)
	case utf8.RuneCountInString(r.Name) > MaxNameLength:
		return fmt.Errorf("%w: name longer than %d characters", curve.ErrInvalidParams, MaxNameLength)
	case utf8.RuneCountInString(r.Symbol) > MaxSymbolLength:
		return fmt.Errorf("%w: symbol longer than %d characters", curve.ErrInvalidParams, MaxSymbolLength)
	case len(r.URI) > MaxURILength:
		return fmt.Errorf("%w: uri longer than %d bytes", curve.ErrInvalidParams, MaxURILength)
	}
	return nil
}

// CreateCurve seeds an active curve from the current params and mints the
// whole token supply into the curve's custody account.
func (l *Launchpad) CreateCurve(ctx context.Context, req CreateRequest) (*curve.BondingCurve, error) {
	now := l.opts.Clock.Now()

	g, err := l.loadGlobal(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	unlock := l.lock(req.Mint)
	defer unlock()

	if _, err := l.store.Curve(ctx, req.Mint); err == nil {
		return nil, fmt.Errorf("%w: %s", curve.ErrCurveExists, req.Mint)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load curve %s: %w", req.Mint, err)
	}

	c, err := curve.NewBondingCurve(g, req.Mint, req.Creator, req.Team)
	if err != nil {
		return nil, err
	}
	c.Name = req.Name
	c.Symbol = req.Symbol
	c.URI = req.URI
	c.CreatedAt = now.Unix()

	custody, err := l.CustodyAddress(req.Mint)
	if err != nil {
		return nil, err
	}
	if err := l.configureTransferFee(req.Mint); err != nil {
		return nil, err
	}
	if err := l.executor.Mint(ctx, custody, req.Mint, c.TokenTotalSupply); err != nil {
		return nil, fmt.Errorf("failed to mint supply: %w", err)
	}

	if err := l.store.CreateCurve(ctx, c); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", curve.ErrCurveExists, req.Mint)
		}
		l.logger.Error("Curve supply minted but curve not stored",
			zap.String("mint", req.Mint.String()),
			zap.String("custody", custody.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store curve: %w", err)
	}

	l.opts.Metrics.CurveCreated()
	l.logger.Info("Curve created",
		zap.String("mint", c.Mint.String()),
		zap.String("creator", c.Creator.String()),
		zap.String("symbol", c.Symbol),
		zap.Stringer("team", c.Team),
		zap.Uint64("token_total_supply", c.TokenTotalSupply))

	l.publish(ctx, events.CurveCreatedEvent{
		BaseEvent:        events.NewBase(events.CurveCreated, now),
		Mint:             c.Mint,
		Creator:          c.Creator,
		Custody:          custody,
		Name:             c.Name,
		Symbol:           c.Symbol,
		URI:              c.URI,
		Team:             c.Team.String(),
		Reserves:         reservesOf(c),
		TokenTotalSupply: c.TokenTotalSupply,
	})
	return c.Clone(), nil
}

func reservesOf(c *curve.BondingCurve) events.Reserves {
	return events.Reserves{
		VirtualSolReserves:   c.VirtualSolReserves,
		VirtualTokenReserves: c.VirtualTokenReserves,
		RealSolReserves:      c.RealSolReserves,
		RealTokenReserves:    c.RealTokenReserves,
	}
}
