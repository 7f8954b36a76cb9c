package curve

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Team is the side a creator picks when launching a token.
type Team uint8

const (
	TeamBlue Team = iota
	TeamRed
)

func (t Team) String() string {
	switch t {
	case TeamBlue:
		return "blue"
	case TeamRed:
		return "red"
	default:
		return fmt.Sprintf("team(%d)", uint8(t))
	}
}

// ParseTeam parses "blue" or "red", case-insensitively.
func ParseTeam(s string) (Team, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blue":
		return TeamBlue, nil
	case "red":
		return TeamRed, nil
	}
	return 0, fmt.Errorf("unknown team %q", s)
}

// Status is the lifecycle state of a curve.
type Status string

const (
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
)

// BondingCurve is the state of one token sale. Curves are never deleted.
type BondingCurve struct {
	Mint    solana.PublicKey
	Creator solana.PublicKey
	Team    Team

	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
	TokenTotalSupply     uint64
	Complete             bool

	// Creation snapshot, kept for progress reporting.
	InitialVirtualTokenReserves uint64
	InitialRealTokenReserves    uint64

	Name      string
	Symbol    string
	URI       string
	CreatedAt int64
}

// NewBondingCurve seeds an active curve from the current global params.
func NewBondingCurve(g *GlobalConfig, mint, creator solana.PublicKey, team Team) (*BondingCurve, error) {
	if g == nil || !g.Initialized {
		return nil, ErrNotInitialized
	}
	c := &BondingCurve{
		Mint:                        mint,
		Creator:                     creator,
		Team:                        team,
		VirtualSolReserves:          g.InitialVirtualSolReserves,
		VirtualTokenReserves:        g.InitialVirtualTokenReserves,
		RealSolReserves:             0,
		RealTokenReserves:           g.InitialRealTokenReserves,
		TokenTotalSupply:            g.InitialTokenSupply,
		InitialVirtualTokenReserves: g.InitialVirtualTokenReserves,
		InitialRealTokenReserves:    g.InitialRealTokenReserves,
	}
	if err := c.CheckInvariants(); err != nil {
		return nil, err
	}
	return c, nil
}

// Status reports whether the curve is still trading.
func (c *BondingCurve) Status() Status {
	if c.Complete {
		return StatusComplete
	}
	return StatusActive
}

// AMM snapshots the curve for a trade.
func (c *BondingCurve) AMM(custodyBalance uint64) *AMM {
	return NewAMM(c, c.InitialVirtualTokenReserves, custodyBalance)
}

// Commit writes the reserves of a into c. A buy that empties the real token
// reserves completes the curve. It returns true when this call completed it.
func (c *BondingCurve) Commit(a *AMM, isBuy bool) bool {
	c.VirtualSolReserves = a.VirtualSolReserves
	c.VirtualTokenReserves = a.VirtualTokenReserves
	c.RealSolReserves = a.RealSolReserves
	c.RealTokenReserves = a.RealTokenReserves
	if isBuy && !c.Complete && c.RealTokenReserves == 0 {
		c.Complete = true
		return true
	}
	return false
}

// CheckInvariants validates the reserve relationships every stored curve must hold.
func (c *BondingCurve) CheckInvariants() error {
	if c.RealTokenReserves > c.VirtualTokenReserves {
		return fmt.Errorf("%w: real token reserves %d > virtual token reserves %d",
			ErrInvariantViolation, c.RealTokenReserves, c.VirtualTokenReserves)
	}
	if c.RealTokenReserves > c.TokenTotalSupply {
		return fmt.Errorf("%w: real token reserves %d > total supply %d",
			ErrInvariantViolation, c.RealTokenReserves, c.TokenTotalSupply)
	}
	if c.RealSolReserves > c.VirtualSolReserves {
		return fmt.Errorf("%w: real SOL reserves %d > virtual SOL reserves %d",
			ErrInvariantViolation, c.RealSolReserves, c.VirtualSolReserves)
	}
	return nil
}

// TokensSold returns the tokens currently held outside the curve.
func (c *BondingCurve) TokensSold() uint64 {
	if c.InitialRealTokenReserves < c.RealTokenReserves {
		return 0
	}
	return c.InitialRealTokenReserves - c.RealTokenReserves
}

// ProgressBPS returns sale progress toward completion in basis points.
func (c *BondingCurve) ProgressBPS() uint64 {
	if c.InitialRealTokenReserves == 0 || c.Complete {
		return BasisPointsDenominator
	}
	// sold <= initial, so the product fits in 128 bits and the quotient in 64.
	return wideMul(c.TokensSold(), BasisPointsDenominator).Div64(c.InitialRealTokenReserves).Lo
}

// Clone returns a copy that can be mutated independently.
func (c *BondingCurve) Clone() *BondingCurve {
	cp := *c
	return &cp
}

func (c *BondingCurve) String() string {
	return fmt.Sprintf("BondingCurve{mint=%s vsol=%d vtoken=%d rsol=%d rtoken=%d supply=%d complete=%t}",
		c.Mint, c.VirtualSolReserves, c.VirtualTokenReserves, c.RealSolReserves,
		c.RealTokenReserves, c.TokenTotalSupply, c.Complete)
}
