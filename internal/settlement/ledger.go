package settlement

import (
	"context"
	"fmt"
	"math/bits"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Ledger is an Executor backed by a BalanceStore.
//
// Token assets may carry a transfer fee in basis points. The fee is withheld from
// what the receiver gets and credited to the withheld account, the way a
// Token-2022 mint with a transfer-fee extension behaves. SOL transfers never pay it.
type Ledger struct {
	store    BalanceStore
	withheld solana.PublicKey
	logger   *zap.Logger

	mu   sync.Mutex
	fees map[solana.PublicKey]uint64
}

// NewLedger creates a ledger. Withheld transfer fees are credited to withheld.
func NewLedger(store BalanceStore, withheld solana.PublicKey, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:    store,
		withheld: withheld,
		logger:   logger.Named("ledger"),
		fees:     make(map[solana.PublicKey]uint64),
	}
}

// SetTransferFee sets the transfer fee of a token asset.
func (l *Ledger) SetTransferFee(asset solana.PublicKey, bps uint64) error {
	if asset.Equals(NativeSOL) {
		return fmt.Errorf("%w: SOL has no transfer fee", ErrInvalidTransfer)
	}
	if bps > 10_000 {
		return fmt.Errorf("%w: transfer fee %d bps", ErrInvalidTransfer, bps)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fees[asset] = bps
	return nil
}

// TransferFee returns the fee withheld when amount of asset is transferred.
func (l *Ledger) TransferFee(asset solana.PublicKey, amount uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transferFee(asset, amount)
}

func (l *Ledger) transferFee(asset solana.PublicKey, amount uint64) uint64 {
	bps := l.fees[asset]
	if bps == 0 {
		return 0
	}
	hi, lo := bits.Mul64(amount, bps)
	quo, _ := bits.Div64(hi, lo, 10_000)
	return quo
}

// Balance returns the stored balance of owner in asset.
func (l *Ledger) Balance(ctx context.Context, owner, asset solana.PublicKey) (uint64, error) {
	return l.store.Balance(ctx, owner, asset)
}

// Execute applies transfers in order against a staged copy of the touched
// balances and writes them in one call to the store.
func (l *Ledger) Execute(ctx context.Context, transfers []Transfer) error {
	if len(transfers) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	staged := make(map[Account]uint64)
	get := func(a Account) (uint64, error) {
		if v, ok := staged[a]; ok {
			return v, nil
		}
		v, err := l.store.Balance(ctx, a.Owner, a.Asset)
		if err != nil {
			return 0, fmt.Errorf("failed to load balance of %s: %w", a.Owner, err)
		}
		staged[a] = v
		return v, nil
	}
	credit := func(a Account, amount uint64) error {
		v, err := get(a)
		if err != nil {
			return err
		}
		sum, carry := bits.Add64(v, amount, 0)
		if carry != 0 {
			return fmt.Errorf("%w: balance overflow for %s", ErrInvalidTransfer, a.Owner)
		}
		staged[a] = sum
		return nil
	}

	for _, t := range transfers {
		if t.Amount == 0 {
			continue
		}
		if t.From.Equals(t.To) {
			return fmt.Errorf("%w: self transfer %s", ErrInvalidTransfer, t)
		}
		from := Account{Owner: t.From, Asset: t.Asset}
		bal, err := get(from)
		if err != nil {
			return err
		}
		if bal < t.Amount {
			return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, t.From, bal, t.Amount)
		}
		staged[from] = bal - t.Amount

		fee := l.transferFee(t.Asset, t.Amount)
		if err := credit(Account{Owner: t.To, Asset: t.Asset}, t.Amount-fee); err != nil {
			return err
		}
		if fee > 0 {
			if err := credit(Account{Owner: l.withheld, Asset: t.Asset}, fee); err != nil {
				return err
			}
		}
	}

	if err := l.store.SetBalances(ctx, staged); err != nil {
		return fmt.Errorf("failed to write balances: %w", err)
	}
	l.logger.Debug("Transfers executed", zap.Int("count", len(transfers)))
	return nil
}

// Mint credits amount of asset to an account without a source.
func (l *Ledger) Mint(ctx context.Context, to, asset solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, err := l.store.Balance(ctx, to, asset)
	if err != nil {
		return fmt.Errorf("failed to load balance of %s: %w", to, err)
	}
	sum, carry := bits.Add64(bal, amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: balance overflow for %s", ErrInvalidTransfer, to)
	}
	if err := l.store.SetBalances(ctx, map[Account]uint64{{Owner: to, Asset: asset}: sum}); err != nil {
		return fmt.Errorf("failed to write balance: %w", err)
	}
	l.logger.Debug("Minted",
		zap.String("to", to.String()),
		zap.String("asset", asset.String()),
		zap.Uint64("amount", amount))
	return nil
}

// MemoryBalances is an in-process BalanceStore.
type MemoryBalances struct {
	mu       sync.RWMutex
	balances map[Account]uint64
}

func NewMemoryBalances() *MemoryBalances {
	return &MemoryBalances{balances: make(map[Account]uint64)}
}

func (m *MemoryBalances) Balance(_ context.Context, owner, asset solana.PublicKey) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[Account{Owner: owner, Asset: asset}], nil
}

func (m *MemoryBalances) SetBalances(_ context.Context, balances map[Account]uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for a, v := range balances {
		m.balances[a] = v
	}
	return nil
}
