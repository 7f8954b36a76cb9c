// Package settlement moves value between accounts on behalf of the launchpad.
package settlement

//go:generate mockgen -package settlement -destination mock_executor.go github.com/rovshanmuradov/curve-launchpad/internal/settlement Executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// NativeSOL is the asset id used for lamport transfers.
var NativeSOL = solana.PublicKey{}

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransfer   = errors.New("invalid transfer")
)

// Transfer moves Amount of Asset from From to To.
type Transfer struct {
	From   solana.PublicKey
	To     solana.PublicKey
	Asset  solana.PublicKey
	Amount uint64
}

func (t Transfer) String() string {
	asset := "SOL"
	if !t.Asset.Equals(NativeSOL) {
		asset = t.Asset.String()
	}
	return fmt.Sprintf("%d %s %s -> %s", t.Amount, asset, t.From, t.To)
}

// Reverse returns the transfer that undoes t.
func (t Transfer) Reverse() Transfer {
	return Transfer{From: t.To, To: t.From, Asset: t.Asset, Amount: t.Amount}
}

// Executor carries out transfers. Execute is all-or-nothing: if it returns an
// error no balance has changed.
type Executor interface {
	Execute(ctx context.Context, transfers []Transfer) error
	Balance(ctx context.Context, owner, asset solana.PublicKey) (uint64, error)
	Mint(ctx context.Context, to, asset solana.PublicKey, amount uint64) error
}

// Account identifies one balance.
type Account struct {
	Owner solana.PublicKey
	Asset solana.PublicKey
}

// BalanceStore persists balances for the Ledger.
type BalanceStore interface {
	Balance(ctx context.Context, owner, asset solana.PublicKey) (uint64, error)
	// SetBalances writes all balances atomically.
	SetBalances(ctx context.Context, balances map[Account]uint64) error
}
