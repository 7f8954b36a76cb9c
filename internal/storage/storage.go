// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

// Store holds launchpad state: the global config, every curve and the per
// (user, mint) throttle records. Reads return copies.
type Store interface {
	// Global returns ErrNotFound before the launchpad is initialized.
	Global(ctx context.Context) (*curve.GlobalConfig, error)
	SaveGlobal(ctx context.Context, g *curve.GlobalConfig) error

	Curve(ctx context.Context, mint solana.PublicKey) (*curve.BondingCurve, error)
	// CreateCurve returns ErrDuplicateKey if the mint already has a curve.
	CreateCurve(ctx context.Context, c *curve.BondingCurve) error
	Curves(ctx context.Context) ([]*curve.BondingCurve, error)

	// TransferData returns ErrNotFound when the user never traded the mint.
	TransferData(ctx context.Context, user, mint solana.PublicKey) (*curve.UserTransferData, error)
	// CommitTrade writes the curve and the user's throttle record atomically.
	CommitTrade(ctx context.Context, c *curve.BondingCurve, user solana.PublicKey, record *curve.UserTransferData) error

	Close() error
}
