package curve

import "github.com/shopspring/decimal"

var (
	lamportsPerSol = decimal.New(1, SolDecimals)
	tokenUnit      = decimal.New(1, DefaultTokenDecimals)
)

// LamportsToSol converts lamports to SOL.
func LamportsToSol(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Div(lamportsPerSol)
}

// SolToLamports converts a SOL amount to lamports, truncating sub-lamport digits.
func SolToLamports(sol decimal.Decimal) uint64 {
	return sol.Mul(lamportsPerSol).Truncate(0).BigInt().Uint64()
}

// TokensToUI converts raw token units to whole tokens.
func TokensToUI(raw uint64) decimal.Decimal {
	return decimal.NewFromUint64(raw).Div(tokenUnit)
}

// TokensFromUI converts whole tokens to raw units, truncating.
func TokensFromUI(tokens decimal.Decimal) uint64 {
	return tokens.Mul(tokenUnit).Truncate(0).BigInt().Uint64()
}

// SpotPrice returns the marginal price of one whole token in SOL.
func (c *BondingCurve) SpotPrice() decimal.Decimal {
	if c.VirtualTokenReserves == 0 {
		return decimal.Zero
	}
	return LamportsToSol(c.VirtualSolReserves).Div(TokensToUI(c.VirtualTokenReserves))
}

// MarketCap returns the spot price times the total supply, in SOL.
func (c *BondingCurve) MarketCap() decimal.Decimal {
	return c.SpotPrice().Mul(TokensToUI(c.TokenTotalSupply))
}
