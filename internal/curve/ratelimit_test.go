package curve

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedCurve(creator solana.PublicKey) *BondingCurve {
	return &BondingCurve{
		Creator:          creator,
		TokenTotalSupply: 1_000_000,
	}
}

func TestRateLimiterCreatorWindow(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	c := rateLimitedCurve(creator)
	rl := NewRateLimiter()

	tests := []struct {
		name      string
		elapsed   int64
		requested uint64
		wantErr   bool
	}{
		{"full window at the cap", 3600, 5000, false},
		{"full window above the cap", 3600, 5001, true},
		{"longer than the window stays capped", 7200, 5001, true},
		{"half window", 1800, 2500, false},
		{"half window above", 1800, 2501, true},
		{"no time elapsed", 0, 1, true},
		{"no time elapsed zero amount", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := NewUserTransferData(1_000)
			now := 1_000 + tt.elapsed

			err := rl.CheckAndUpdate(record, creator, c, tt.requested, now)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrRateLimited)
				var rlErr *RateLimitError
				require.ErrorAs(t, err, &rlErr)
				assert.Equal(t, tt.requested, rlErr.Requested)
				assert.Equal(t, int64(1_000), record.LastTransferTimestamp, "rejected request must not touch the record")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, now, record.LastTransferTimestamp)
		})
	}
}

func TestRateLimiterFirstUse(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	c := rateLimitedCurve(creator)
	rl := NewRateLimiter()
	const now = int64(1_700_000_000)

	tests := []struct {
		name      string
		requested uint64
		wantErr   bool
	}{
		{"at the cap", 5000, false},
		{"above the cap", 5001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A record created on first use starts at timestamp 0: bounded, not unlimited.
			record := NewUserTransferData(0)

			err := rl.CheckAndUpdate(record, creator, c, tt.requested, now)
			if tt.wantErr {
				var rlErr *RateLimitError
				require.ErrorAs(t, err, &rlErr)
				assert.Equal(t, uint64(5000), rlErr.MaxAllowed)
				assert.Zero(t, record.LastTransferTimestamp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, now, record.LastTransferTimestamp)
		})
	}
}

func TestRateLimiterNonCreator(t *testing.T) {
	c := rateLimitedCurve(solana.NewWallet().PublicKey())
	user := solana.NewWallet().PublicKey()
	record := NewUserTransferData(500)

	err := NewRateLimiter().CheckAndUpdate(record, user, c, 999_999, 500)
	require.NoError(t, err)
	// Non-creators are not limited but their record is still stamped.
	assert.Equal(t, int64(500), record.LastTransferTimestamp)
}

func TestRateLimiterClockSkew(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	c := rateLimitedCurve(creator)
	rl := NewRateLimiter()
	record := NewUserTransferData(10_000)

	allowed, err := rl.MaxAllowed(record, c.TokenTotalSupply, 5_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), allowed)

	err = rl.CheckAndUpdate(record, creator, c, 1, 5_000)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestRateLimiterLargeSupply(t *testing.T) {
	rl := NewRateLimiter()
	record := NewUserTransferData(0)

	allowed, err := rl.MaxAllowed(record, DefaultInitialTokenSupply, 3600)
	require.NoError(t, err)
	assert.Equal(t, DefaultInitialTokenSupply/200, allowed)
}

func TestRateLimiterCustomShare(t *testing.T) {
	rl := &RateLimiter{MaxSharePPM: 10_000, Window: DefaultRateWindow / 2}
	record := NewUserTransferData(0)

	allowed, err := rl.MaxAllowed(record, 1_000_000, 1800)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), allowed)
}
