package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
)

// Journal is an append-only record of trades and curve lifecycle events. It is
// fed from the event bus and is never read by the trading path.
type Journal struct {
	pool   *Pool
	logger *zap.Logger
}

// NewJournal wraps an open pool.
func NewJournal(pool *Pool, logger *zap.Logger) *Journal {
	return &Journal{pool: pool, logger: logger.Named("journal")}
}

// Compile-time interface check.
var _ events.Handler = (*Journal)(nil)

// Handle implements events.Handler.
func (j *Journal) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.TradeEvent:
		return j.InsertTrade(ctx, models.TradeFromEvent(e))
	case events.CurveCreatedEvent:
		return j.insertLifecycle(ctx, &models.CurveEvent{
			Mint:       e.Mint.String(),
			Kind:       models.KindCreated,
			Actor:      e.Creator.String(),
			OccurredAt: e.Timestamp(),
		})
	case events.CurveCompletedEvent:
		return j.insertLifecycle(ctx, &models.CurveEvent{
			Mint:       e.Mint.String(),
			Kind:       models.KindCompleted,
			Actor:      e.User.String(),
			OccurredAt: e.Timestamp(),
		})
	case events.WithdrawEvent:
		return j.insertLifecycle(ctx, &models.CurveEvent{
			Mint:        e.Mint.String(),
			Kind:        models.KindWithdrawn,
			Actor:       e.Authority.String(),
			SolAmount:   e.SolAmount,
			TokenAmount: e.TokenAmount,
			OccurredAt:  e.Timestamp(),
		})
	}
	return nil
}

// insertLifecycle treats a replayed lifecycle event as already recorded.
func (j *Journal) insertLifecycle(ctx context.Context, e *models.CurveEvent) error {
	err := j.InsertCurveEvent(ctx, e)
	if errors.Is(err, storage.ErrDuplicateKey) {
		j.logger.Debug("Lifecycle event already journaled",
			zap.String("mint", e.Mint), zap.String("kind", e.Kind))
		return nil
	}
	return err
}

func checkSigned(values ...uint64) error {
	for _, v := range values {
		if v > math.MaxInt64 {
			return fmt.Errorf("%w: amount %d does not fit BIGINT", storage.ErrInvalidInput, v)
		}
	}
	return nil
}

// InsertTrade appends a trade and fills in its ID.
func (j *Journal) InsertTrade(ctx context.Context, t *models.Trade) error {
	if err := checkSigned(t.SolAmount, t.TokenAmount, t.Fee, t.VirtualSolReserves,
		t.VirtualTokenReserves, t.RealSolReserves, t.RealTokenReserves); err != nil {
		return err
	}

	query := `
		INSERT INTO trades (
			mint, user_address, side,
			sol_amount, token_amount, fee,
			virtual_sol_reserves, virtual_token_reserves, real_sol_reserves, real_token_reserves,
			unix_timestamp, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	err := j.pool.QueryRow(ctx, query,
		t.Mint, t.UserAddress, t.Side,
		int64(t.SolAmount), int64(t.TokenAmount), int64(t.Fee),
		int64(t.VirtualSolReserves), int64(t.VirtualTokenReserves), int64(t.RealSolReserves), int64(t.RealTokenReserves),
		t.UnixTimestamp, t.OccurredAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertCurveEvent appends a lifecycle event. Returns ErrDuplicateKey if the
// mint already has an event of that kind.
func (j *Journal) InsertCurveEvent(ctx context.Context, e *models.CurveEvent) error {
	if err := checkSigned(e.SolAmount, e.TokenAmount); err != nil {
		return err
	}

	query := `
		INSERT INTO curve_events (mint, kind, actor, sol_amount, token_amount, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := j.pool.QueryRow(ctx, query,
		e.Mint, e.Kind, e.Actor, int64(e.SolAmount), int64(e.TokenAmount), e.OccurredAt,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert curve event: %w", err)
	}
	return nil
}

// ListTrades returns the latest trades of mint, newest first.
func (j *Journal) ListTrades(ctx context.Context, mint solana.PublicKey, limit int) ([]*models.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, created_at, mint, user_address, side,
			sol_amount, token_amount, fee,
			virtual_sol_reserves, virtual_token_reserves, real_sol_reserves, real_token_reserves,
			unix_timestamp, occurred_at
		FROM trades
		WHERE mint = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := j.pool.Query(ctx, query, mint.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []*models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.CreatedAt, &t.Mint, &t.UserAddress, &t.Side,
			&t.SolAmount, &t.TokenAmount, &t.Fee,
			&t.VirtualSolReserves, &t.VirtualTokenReserves, &t.RealSolReserves, &t.RealTokenReserves,
			&t.UnixTimestamp, &t.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return out, nil
}

// CurveEvent returns the lifecycle event of the given kind for mint.
func (j *Journal) CurveEvent(ctx context.Context, mint solana.PublicKey, kind string) (*models.CurveEvent, error) {
	query := `
		SELECT id, created_at, mint, kind, actor, sol_amount, token_amount, occurred_at
		FROM curve_events
		WHERE mint = $1 AND kind = $2
	`
	var e models.CurveEvent
	err := j.pool.QueryRow(ctx, query, mint.String(), kind).Scan(
		&e.ID, &e.CreatedAt, &e.Mint, &e.Kind, &e.Actor, &e.SolAmount, &e.TokenAmount, &e.OccurredAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query curve event: %w", err)
	}
	return &e, nil
}

// Close closes the underlying pool.
func (j *Journal) Close() {
	j.pool.Close()
}
