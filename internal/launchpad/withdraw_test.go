package launchpad

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/memory"
)

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.lp.Withdraw(ctx, solana.NewWallet().PublicKey(), f.authority)
	assert.ErrorIs(t, err, curve.ErrNotInitialized)

	g := f.initialize(t)
	c := f.createCurve(t, solana.NewWallet().PublicKey())

	_, err = f.lp.Withdraw(ctx, solana.NewWallet().PublicKey(), g.WithdrawAuthority)
	assert.ErrorIs(t, err, curve.ErrCurveNotFound)
	_, err = f.lp.Withdraw(ctx, c.Mint, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, curve.ErrInvalidWithdrawAuthority)
	_, err = f.lp.Withdraw(ctx, c.Mint, g.WithdrawAuthority)
	assert.ErrorIs(t, err, curve.ErrCurveNotComplete)

	user := f.fundedUser(t, plentySOL)
	_, err = f.lp.Buy(ctx, BuyRequest{
		Mint: c.Mint, User: user, FeeRecipient: g.FeeRecipient,
		TokenAmount: c.RealTokenReserves, MaxSolCost: plentySOL,
	})
	require.NoError(t, err)

	before, err := f.lp.Curve(ctx, c.Mint)
	require.NoError(t, err)
	authoritySOL := f.balance(t, g.WithdrawAuthority, settlement.NativeSOL)

	receipt, err := f.lp.Withdraw(ctx, c.Mint, g.WithdrawAuthority)
	require.NoError(t, err)
	assert.Equal(t, depleteCost, receipt.SolAmount)
	assert.Equal(t, c.TokenTotalSupply-c.RealTokenReserves, receipt.TokenAmount)

	custody := f.custody(t, c.Mint)
	assert.Zero(t, f.balance(t, custody, settlement.NativeSOL))
	assert.Zero(t, f.balance(t, custody, c.Mint))
	assert.Equal(t, authoritySOL+depleteCost, f.balance(t, g.WithdrawAuthority, settlement.NativeSOL))
	assert.Equal(t, uint64(206_900_000_000_000), f.balance(t, g.WithdrawAuthority, c.Mint))

	after, err := f.lp.Curve(ctx, c.Mint)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	withdrawn := f.events.ofType(events.CurveWithdrawn)
	require.Len(t, withdrawn, 1)
	assert.Equal(t, depleteCost, withdrawn[0].(events.WithdrawEvent).SolAmount)

	// A second sweep finds an empty custody.
	again, err := f.lp.Withdraw(ctx, c.Mint, g.WithdrawAuthority)
	require.NoError(t, err)
	assert.Zero(t, again.SolAmount)
	assert.Zero(t, again.TokenAmount)
}

func newMockLaunchpad(t *testing.T) (*Launchpad, *settlement.MockExecutor, *memory.Store) {
	t.Helper()
	ctrl := gomock.NewController(t)
	exec := settlement.NewMockExecutor(ctrl)
	store := memory.NewStore()

	lp, err := New(store, exec, zap.NewNop(), Options{
		ProgramID: testProgramID,
		Clock:     NewManualClock(testStart),
	})
	require.NoError(t, err)
	_, err = lp.Initialize(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	return lp, exec, store
}

func TestCreateCurve_MintFailureLeavesNoCurve(t *testing.T) {
	lp, exec, store := newMockLaunchpad(t)
	mint := solana.NewWallet().PublicKey()

	exec.EXPECT().
		Mint(gomock.Any(), gomock.Any(), mint, curve.DefaultInitialTokenSupply).
		Return(errors.New("mint authority revoked"))

	_, err := lp.CreateCurve(context.Background(), CreateRequest{
		Creator: solana.NewWallet().PublicKey(),
		Mint:    mint,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mint authority revoked")

	curves, err := store.Curves(context.Background())
	require.NoError(t, err)
	assert.Empty(t, curves)
}

func TestBuy_SettlementShortfallIsInsufficientBalance(t *testing.T) {
	lp, exec, store := newMockLaunchpad(t)
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	user := solana.NewWallet().PublicKey()

	exec.EXPECT().Mint(gomock.Any(), gomock.Any(), mint, gomock.Any()).Return(nil)
	c, err := lp.CreateCurve(ctx, CreateRequest{Creator: solana.NewWallet().PublicKey(), Mint: mint})
	require.NoError(t, err)
	g, err := lp.Global(ctx)
	require.NoError(t, err)
	custody, err := lp.CustodyAddress(mint)
	require.NoError(t, err)

	exec.EXPECT().Balance(gomock.Any(), custody, mint).Return(c.TokenTotalSupply, nil)
	exec.EXPECT().Balance(gomock.Any(), user, settlement.NativeSOL).Return(plentySOL, nil)
	exec.EXPECT().
		Execute(gomock.Any(), gomock.Len(3)).
		Return(settlement.ErrInsufficientFunds)

	_, err = lp.Buy(ctx, BuyRequest{
		Mint: mint, User: user, FeeRecipient: g.FeeRecipient,
		TokenAmount: oneToken, MaxSolCost: plentySOL,
	})
	assert.ErrorIs(t, err, curve.ErrInsufficientBalance)

	stored, err := store.Curve(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, c, stored)
}
