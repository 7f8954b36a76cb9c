package curve

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGlobal() *GlobalConfig {
	return NewGlobalConfig(solana.NewWallet().PublicKey(), DefaultParams())
}

func TestNewBondingCurve(t *testing.T) {
	g := newTestGlobal()
	mint := solana.NewWallet().PublicKey()
	creator := solana.NewWallet().PublicKey()

	c, err := NewBondingCurve(g, mint, creator, TeamRed)
	require.NoError(t, err)

	assert.Equal(t, g.InitialVirtualSolReserves, c.VirtualSolReserves)
	assert.Equal(t, g.InitialVirtualTokenReserves, c.VirtualTokenReserves)
	assert.Equal(t, uint64(0), c.RealSolReserves)
	assert.Equal(t, g.InitialRealTokenReserves, c.RealTokenReserves)
	assert.Equal(t, g.InitialTokenSupply, c.TokenTotalSupply)
	assert.Equal(t, StatusActive, c.Status())
	assert.Equal(t, TeamRed, c.Team)
	assert.Equal(t, uint64(0), c.ProgressBPS())
}

func TestNewBondingCurveNotInitialized(t *testing.T) {
	_, err := NewBondingCurve(&GlobalConfig{}, solana.PublicKey{}, solana.PublicKey{}, TeamBlue)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = NewBondingCurve(nil, solana.PublicKey{}, solana.PublicKey{}, TeamBlue)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestCommitCompletesOnDepletingBuy(t *testing.T) {
	c, err := NewBondingCurve(newTestGlobal(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), TeamBlue)
	require.NoError(t, err)

	a := c.AMM(c.TokenTotalSupply)
	_, err = a.ApplyBuy(c.RealTokenReserves - 1)
	require.NoError(t, err)
	assert.False(t, c.Commit(a, true))
	assert.False(t, c.Complete)

	a = c.AMM(c.TokenTotalSupply)
	_, err = a.ApplyBuy(1)
	require.NoError(t, err)
	assert.True(t, c.Commit(a, true))
	assert.True(t, c.Complete)
	assert.Equal(t, StatusComplete, c.Status())
	assert.Equal(t, uint64(BasisPointsDenominator), c.ProgressBPS())
	require.NoError(t, c.CheckInvariants())
}

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name  string
		curve BondingCurve
		ok    bool
	}{
		{"fresh", BondingCurve{VirtualSolReserves: 10, VirtualTokenReserves: 100, RealTokenReserves: 80, TokenTotalSupply: 100}, true},
		{"real above virtual", BondingCurve{VirtualSolReserves: 10, VirtualTokenReserves: 100, RealTokenReserves: 101, TokenTotalSupply: 200}, false},
		{"real above supply", BondingCurve{VirtualSolReserves: 10, VirtualTokenReserves: 100, RealTokenReserves: 90, TokenTotalSupply: 80}, false},
		{"real sol above virtual sol", BondingCurve{VirtualSolReserves: 10, RealSolReserves: 11, VirtualTokenReserves: 100, TokenTotalSupply: 100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.curve.CheckInvariants()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvariantViolation)
			}
		})
	}
}

func TestParseTeam(t *testing.T) {
	team, err := ParseTeam(" Red ")
	require.NoError(t, err)
	assert.Equal(t, TeamRed, team)
	assert.Equal(t, "red", team.String())

	team, err = ParseTeam("blue")
	require.NoError(t, err)
	assert.Equal(t, TeamBlue, team)

	_, err = ParseTeam("green")
	assert.Error(t, err)
}

func TestSpotPrice(t *testing.T) {
	c, err := NewBondingCurve(newTestGlobal(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), TeamBlue)
	require.NoError(t, err)

	// 30 SOL / 1_073_000_000 tokens
	want := decimal.NewFromInt(30).Div(decimal.NewFromInt(1_073_000_000))
	assert.True(t, want.Equal(c.SpotPrice()), "got %s", c.SpotPrice())
	assert.True(t, c.MarketCap().GreaterThan(decimal.NewFromInt(27)))
	assert.True(t, c.MarketCap().LessThan(decimal.NewFromInt(28)))
}

func TestLamportConversions(t *testing.T) {
	assert.Equal(t, "1.5", LamportsToSol(1_500_000_000).String())
	assert.Equal(t, uint64(1_500_000_000), SolToLamports(decimal.RequireFromString("1.5")))
	assert.Equal(t, uint64(1), SolToLamports(decimal.RequireFromString("0.0000000019")))
	assert.Equal(t, uint64(2_500_000), TokensFromUI(decimal.RequireFromString("2.5")))
	assert.Equal(t, "2.5", TokensToUI(2_500_000).String())
}
