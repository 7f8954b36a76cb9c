// =============================
// File: internal/curve/amm.go
// =============================
package curve

import (
	"fmt"

	"lukechampine.com/uint128"
)

// TradeResult is the outcome of applying one trade to an AMM snapshot.
type TradeResult struct {
	// TokenAmount is the token amount that actually moves. For buys it can be
	// lower than requested when custody holds less than the reserves claim.
	TokenAmount uint64
	// SolAmount is the SOL paid (buy) or received (sell), before fees.
	SolAmount uint64
}

// AMM is a working copy of a curve's reserves. It never touches the stored curve:
// the caller decides whether to Commit it.
type AMM struct {
	VirtualSolReserves          uint64
	VirtualTokenReserves        uint64
	RealSolReserves             uint64
	RealTokenReserves           uint64
	InitialVirtualTokenReserves uint64

	// CustodyTokenBalance is the token balance of the curve's custody account.
	// Buys are capped by it.
	CustodyTokenBalance uint64
}

// NewAMM snapshots the reserves of curve. custodyBalance is the curve's current
// custody token balance as reported by settlement.
func NewAMM(c *BondingCurve, initialVirtualTokenReserves, custodyBalance uint64) *AMM {
	return &AMM{
		VirtualSolReserves:          c.VirtualSolReserves,
		VirtualTokenReserves:        c.VirtualTokenReserves,
		RealSolReserves:             c.RealSolReserves,
		RealTokenReserves:           c.RealTokenReserves,
		InitialVirtualTokenReserves: initialVirtualTokenReserves,
		CustodyTokenBalance:         custodyBalance,
	}
}

// ApplyBuy sells up to requested tokens out of the curve.
//
// The SOL cost is derived from the constant product k = vs * vt and rounded up,
// so k never decreases.
func (a *AMM) ApplyBuy(requested uint64) (TradeResult, error) {
	tokenAmount := requested
	if a.CustodyTokenBalance < tokenAmount {
		tokenAmount = a.CustodyTokenBalance
	}
	if tokenAmount == 0 {
		return TradeResult{}, ErrDepleted
	}

	k := wideMul(a.VirtualSolReserves, a.VirtualTokenReserves)
	newVirtualToken, err := sub64(a.VirtualTokenReserves, tokenAmount)
	if err != nil {
		return TradeResult{}, fmt.Errorf("virtual token reserves: %w", err)
	}
	if newVirtualToken == 0 {
		return TradeResult{}, ErrDepleted
	}

	newVirtualSol, err := divCeil(k, newVirtualToken)
	if err != nil {
		return TradeResult{}, fmt.Errorf("virtual sol reserves: %w", err)
	}
	solAmount, err := sub64(newVirtualSol, a.VirtualSolReserves)
	if err != nil {
		return TradeResult{}, fmt.Errorf("sol amount: %w", err)
	}

	newRealToken, err := sub64(a.RealTokenReserves, tokenAmount)
	if err != nil {
		return TradeResult{}, fmt.Errorf("real token reserves: %w", err)
	}
	newRealSol, err := add64(a.RealSolReserves, solAmount)
	if err != nil {
		return TradeResult{}, fmt.Errorf("real sol reserves: %w", err)
	}

	if err := checkProduct(a.VirtualSolReserves, a.VirtualTokenReserves, newVirtualSol, newVirtualToken); err != nil {
		return TradeResult{}, err
	}

	a.VirtualSolReserves = newVirtualSol
	a.VirtualTokenReserves = newVirtualToken
	a.RealSolReserves = newRealSol
	a.RealTokenReserves = newRealToken
	a.CustodyTokenBalance -= tokenAmount

	return TradeResult{TokenAmount: tokenAmount, SolAmount: solAmount}, nil
}

// ApplySell buys amount tokens back into the curve. Proceeds round down.
func (a *AMM) ApplySell(amount uint64) (TradeResult, error) {
	k := wideMul(a.VirtualSolReserves, a.VirtualTokenReserves)
	newVirtualToken, err := add64(a.VirtualTokenReserves, amount)
	if err != nil {
		return TradeResult{}, fmt.Errorf("virtual token reserves: %w", err)
	}

	newVirtualSol, err := divFloor(k, newVirtualToken)
	if err != nil {
		return TradeResult{}, fmt.Errorf("virtual sol reserves: %w", err)
	}
	solAmount, err := sub64(a.VirtualSolReserves, newVirtualSol)
	if err != nil {
		return TradeResult{}, fmt.Errorf("sol amount: %w", err)
	}
	if solAmount > a.RealSolReserves {
		return TradeResult{}, ErrInsufficientLiquidity
	}

	newRealToken, err := add64(a.RealTokenReserves, amount)
	if err != nil {
		return TradeResult{}, fmt.Errorf("real token reserves: %w", err)
	}
	newCustody, err := add64(a.CustodyTokenBalance, amount)
	if err != nil {
		return TradeResult{}, fmt.Errorf("custody balance: %w", err)
	}

	if err := checkSellProduct(k, newVirtualSol, newVirtualToken); err != nil {
		return TradeResult{}, err
	}

	a.VirtualSolReserves = newVirtualSol
	a.VirtualTokenReserves = newVirtualToken
	a.RealSolReserves -= solAmount
	a.RealTokenReserves = newRealToken
	a.CustodyTokenBalance = newCustody

	return TradeResult{TokenAmount: amount, SolAmount: solAmount}, nil
}

// BuyQuote runs ApplyBuy on a copy of the snapshot.
func (a *AMM) BuyQuote(requested uint64) (TradeResult, error) {
	c := *a
	return c.ApplyBuy(requested)
}

// SellQuote runs ApplySell on a copy of the snapshot.
func (a *AMM) SellQuote(amount uint64) (TradeResult, error) {
	c := *a
	return c.ApplySell(amount)
}

// TokensSold returns how many tokens the curve has sold so far.
func (a *AMM) TokensSold() uint64 {
	if a.InitialVirtualTokenReserves < a.VirtualTokenReserves {
		return 0
	}
	return a.InitialVirtualTokenReserves - a.VirtualTokenReserves
}

func (a *AMM) String() string {
	return fmt.Sprintf("AMM{vsol=%d vtoken=%d rsol=%d rtoken=%d custody=%d}",
		a.VirtualSolReserves, a.VirtualTokenReserves, a.RealSolReserves, a.RealTokenReserves, a.CustodyTokenBalance)
}

// checkProduct asserts that vs*vt did not decrease.
func checkProduct(vs, vt, newVS, newVT uint64) error {
	if wideMul(newVS, newVT).Cmp(wideMul(vs, vt)) < 0 {
		return fmt.Errorf("%w: constant product decreased", ErrInvariantViolation)
	}
	return nil
}

// checkSellProduct asserts that a sell lost less than one unit of newVT to
// rounding: k - newVT < newVS*newVT <= k.
func checkSellProduct(k uint128.Uint128, newVS, newVT uint64) error {
	p := wideMul(newVS, newVT)
	if p.Cmp(k) > 0 || k.Sub(p).Cmp64(newVT) >= 0 {
		return fmt.Errorf("%w: constant product drifted past rounding", ErrInvariantViolation)
	}
	return nil
}
