package curve

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultAMM() *AMM {
	return &AMM{
		VirtualSolReserves:          DefaultInitialVirtualSolReserves,
		VirtualTokenReserves:        DefaultInitialVirtualTokenReserves,
		RealSolReserves:             0,
		RealTokenReserves:           DefaultInitialRealTokenReserves,
		InitialVirtualTokenReserves: DefaultInitialVirtualTokenReserves,
		CustodyTokenBalance:         DefaultInitialTokenSupply,
	}
}

func TestApplyBuyQuote(t *testing.T) {
	a := defaultAMM()

	res, err := a.ApplyBuy(1_000_000_000)
	require.NoError(t, err)

	// ceil(30e9 * 1.073e15 / (1.073e15 - 1e9)) = 30_000_027_960
	assert.Equal(t, uint64(1_000_000_000), res.TokenAmount)
	assert.Equal(t, uint64(27_960), res.SolAmount)
	assert.Equal(t, uint64(30_000_027_960), a.VirtualSolReserves)
	assert.Equal(t, uint64(1_072_999_000_000_000), a.VirtualTokenReserves)
	assert.Equal(t, uint64(27_960), a.RealSolReserves)
	assert.Equal(t, DefaultInitialRealTokenReserves-1_000_000_000, a.RealTokenReserves)
	assert.Equal(t, DefaultInitialTokenSupply-1_000_000_000, a.CustodyTokenBalance)
	assert.Equal(t, uint64(1_000_000_000), a.TokensSold())
}

func TestBuyThenSellKeepsProduct(t *testing.T) {
	a := defaultAMM()
	before := wideMul(a.VirtualSolReserves, a.VirtualTokenReserves)

	buy, err := a.ApplyBuy(1_000_000_000)
	require.NoError(t, err)
	sell, err := a.ApplySell(buy.TokenAmount)
	require.NoError(t, err)

	assert.Equal(t, uint64(27_960), sell.SolAmount)
	assert.LessOrEqual(t, sell.SolAmount, buy.SolAmount)
	after := wideMul(a.VirtualSolReserves, a.VirtualTokenReserves)
	assert.GreaterOrEqual(t, after.Cmp(before), 0)
	assert.Equal(t, uint64(0), a.RealSolReserves)
	assert.Equal(t, DefaultInitialRealTokenReserves, a.RealTokenReserves)
}

func TestApplyBuyFullDepletion(t *testing.T) {
	a := defaultAMM()

	res, err := a.ApplyBuy(DefaultInitialRealTokenReserves)
	require.NoError(t, err)
	assert.Equal(t, uint64(85_005_359_057), res.SolAmount)
	assert.Equal(t, uint64(115_005_359_057), a.VirtualSolReserves)
	assert.Equal(t, uint64(0), a.RealTokenReserves)
	assert.Equal(t, uint64(85_005_359_057), a.RealSolReserves)
}

func TestApplyBuyClampsToCustody(t *testing.T) {
	a := defaultAMM()
	a.CustodyTokenBalance = 500_000_000

	res, err := a.ApplyBuy(1_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), res.TokenAmount)
	assert.Equal(t, uint64(0), a.CustodyTokenBalance)

	_, err = a.ApplyBuy(1)
	assert.ErrorIs(t, err, ErrDepleted)
}

func TestApplyBuyErrors(t *testing.T) {
	tests := []struct {
		name    string
		amm     AMM
		amount  uint64
		wantErr error
	}{
		{
			name:    "virtual tokens exhausted",
			amm:     AMM{VirtualSolReserves: 100, VirtualTokenReserves: 100, RealTokenReserves: 100, CustodyTokenBalance: 100},
			amount:  100,
			wantErr: ErrDepleted,
		},
		{
			name:    "more than virtual tokens",
			amm:     AMM{VirtualSolReserves: 100, VirtualTokenReserves: 100, RealTokenReserves: 100, CustodyTokenBalance: 1000},
			amount:  101,
			wantErr: ErrArithmeticOverflow,
		},
		{
			name:    "more than real tokens",
			amm:     AMM{VirtualSolReserves: 100, VirtualTokenReserves: 1000, RealTokenReserves: 10, CustodyTokenBalance: 1000},
			amount:  11,
			wantErr: ErrArithmeticOverflow,
		},
		{
			name: "sol reserves do not fit in 64 bits",
			amm: AMM{
				VirtualSolReserves:   math.MaxUint64 / 2,
				VirtualTokenReserves: 1_000,
				RealTokenReserves:    1_000,
				CustodyTokenBalance:  1_000,
			},
			amount:  999,
			wantErr: ErrArithmeticOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.amm
			snapshot := a
			_, err := a.ApplyBuy(tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, snapshot, a, "failed trade must not touch the snapshot")
		})
	}
}

func TestApplySellRoundsDown(t *testing.T) {
	a := defaultAMM()
	_, err := a.ApplyBuy(5_000_000_000)
	require.NoError(t, err)
	k := wideMul(a.VirtualSolReserves, a.VirtualTokenReserves)

	// k is not a multiple of the new virtual token reserves, so the product
	// ends just below k.
	res, err := a.ApplySell(1_234_567)
	require.NoError(t, err)
	assert.Equal(t, uint64(35), res.SolAmount)

	after := wideMul(a.VirtualSolReserves, a.VirtualTokenReserves)
	require.Equal(t, -1, after.Cmp(k))
	assert.Equal(t, -1, k.Sub(after).Cmp64(a.VirtualTokenReserves))
}

func TestCheckSellProduct(t *testing.T) {
	k := wideMul(1_000, 1_000)
	assert.NoError(t, checkSellProduct(k, 999, 1_001))
	assert.NoError(t, checkSellProduct(k, 1_000, 1_000))
	assert.ErrorIs(t, checkSellProduct(k, 1_001, 1_000), ErrInvariantViolation)
	assert.ErrorIs(t, checkSellProduct(k, 998, 1_001), ErrInvariantViolation)
}

func TestApplySellInsufficientLiquidity(t *testing.T) {
	a := defaultAMM()

	_, err := a.ApplySell(1_000_000_000)
	assert.True(t, errors.Is(err, ErrInsufficientLiquidity))
	assert.Equal(t, uint64(0), a.RealSolReserves)
}

func TestApplySellOverflow(t *testing.T) {
	a := defaultAMM()
	_, err := a.ApplySell(math.MaxUint64)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestQuotesDoNotMutate(t *testing.T) {
	a := defaultAMM()
	snapshot := *a

	q, err := a.BuyQuote(1_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(27_960), q.SolAmount)
	assert.Equal(t, snapshot, *a)

	_, err = a.ApplyBuy(2_000_000_000)
	require.NoError(t, err)
	snapshot = *a

	s, err := a.SellQuote(1_000_000_000)
	require.NoError(t, err)
	assert.Greater(t, s.SolAmount, uint64(0))
	assert.Equal(t, snapshot, *a)
}
