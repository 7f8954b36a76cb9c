// =============================
// File: internal/curve/global.go
// =============================
package curve

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Defaults used by Initialize until the authority calls SetParams.
const (
	DefaultInitialVirtualSolReserves   uint64 = 30_000_000_000
	DefaultInitialVirtualTokenReserves uint64 = 1_073_000_000_000_000
	DefaultInitialRealTokenReserves    uint64 = 793_100_000_000_000
	DefaultInitialTokenSupply          uint64 = 1_000_000_000_000_000
	DefaultFeeBasisPoints              uint64 = 50

	SolDecimals          = 9
	DefaultTokenDecimals = 6
)

// Params are the authority controlled settings applied to curves created after
// they are set.
type Params struct {
	InitialVirtualTokenReserves uint64           `mapstructure:"initial_virtual_token_reserves"`
	InitialVirtualSolReserves   uint64           `mapstructure:"initial_virtual_sol_reserves"`
	InitialRealTokenReserves    uint64           `mapstructure:"initial_real_token_reserves"`
	InitialTokenSupply          uint64           `mapstructure:"initial_token_supply"`
	FeeBasisPoints              uint64           `mapstructure:"fee_basis_points"`
	FeeRecipient                solana.PublicKey `mapstructure:"-"`
	WithdrawAuthority           solana.PublicKey `mapstructure:"-"`
}

// DefaultParams returns the stock launch parameters with fee recipient and
// withdraw authority unset.
func DefaultParams() Params {
	return Params{
		InitialVirtualTokenReserves: DefaultInitialVirtualTokenReserves,
		InitialVirtualSolReserves:   DefaultInitialVirtualSolReserves,
		InitialRealTokenReserves:    DefaultInitialRealTokenReserves,
		InitialTokenSupply:          DefaultInitialTokenSupply,
		FeeBasisPoints:              DefaultFeeBasisPoints,
	}
}

// Validate rejects parameter sets that would produce a curve violating its
// invariants from the first trade.
func (p Params) Validate() error {
	switch {
	case p.InitialVirtualSolReserves == 0:
		return fmt.Errorf("%w: initial virtual SOL reserves must be positive", ErrInvalidParams)
	case p.InitialVirtualTokenReserves == 0:
		return fmt.Errorf("%w: initial virtual token reserves must be positive", ErrInvalidParams)
	case p.InitialRealTokenReserves > p.InitialVirtualTokenReserves:
		return fmt.Errorf("%w: real token reserves %d exceed virtual token reserves %d",
			ErrInvalidParams, p.InitialRealTokenReserves, p.InitialVirtualTokenReserves)
	case p.InitialRealTokenReserves > p.InitialTokenSupply:
		return fmt.Errorf("%w: real token reserves %d exceed token supply %d",
			ErrInvalidParams, p.InitialRealTokenReserves, p.InitialTokenSupply)
	case p.FeeBasisPoints > BasisPointsDenominator:
		return fmt.Errorf("%w: fee %d bps exceeds 100%%", ErrInvalidParams, p.FeeBasisPoints)
	}
	return nil
}

// GlobalConfig is the launchpad-wide singleton.
type GlobalConfig struct {
	Initialized       bool
	Authority         solana.PublicKey
	FeeRecipient      solana.PublicKey
	WithdrawAuthority solana.PublicKey

	InitialVirtualTokenReserves uint64
	InitialVirtualSolReserves   uint64
	InitialRealTokenReserves    uint64
	InitialTokenSupply          uint64
	FeeBasisPoints              uint64
}

// NewGlobalConfig returns an initialized config owned by authority. An unset fee
// recipient or withdraw authority falls back to authority.
func NewGlobalConfig(authority solana.PublicKey, p Params) *GlobalConfig {
	g := &GlobalConfig{Initialized: true, Authority: authority}
	g.Apply(p)
	return g
}

// Apply overwrites the settable fields with p.
func (g *GlobalConfig) Apply(p Params) {
	g.InitialVirtualTokenReserves = p.InitialVirtualTokenReserves
	g.InitialVirtualSolReserves = p.InitialVirtualSolReserves
	g.InitialRealTokenReserves = p.InitialRealTokenReserves
	g.InitialTokenSupply = p.InitialTokenSupply
	g.FeeBasisPoints = p.FeeBasisPoints

	g.FeeRecipient = p.FeeRecipient
	if g.FeeRecipient.IsZero() {
		g.FeeRecipient = g.Authority
	}
	g.WithdrawAuthority = p.WithdrawAuthority
	if g.WithdrawAuthority.IsZero() {
		g.WithdrawAuthority = g.Authority
	}
}

// Params returns the settable fields of g.
func (g *GlobalConfig) Params() Params {
	return Params{
		InitialVirtualTokenReserves: g.InitialVirtualTokenReserves,
		InitialVirtualSolReserves:   g.InitialVirtualSolReserves,
		InitialRealTokenReserves:    g.InitialRealTokenReserves,
		InitialTokenSupply:          g.InitialTokenSupply,
		FeeBasisPoints:              g.FeeBasisPoints,
		FeeRecipient:                g.FeeRecipient,
		WithdrawAuthority:           g.WithdrawAuthority,
	}
}
