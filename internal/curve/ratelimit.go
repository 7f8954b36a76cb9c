package curve

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

const (
	// DefaultMaxSharePPM is the largest share of total supply a creator may move
	// in one window, in parts per million (0.5%).
	DefaultMaxSharePPM uint64 = 5_000
	// DefaultRateWindow is the time it takes for the allowance to refill.
	DefaultRateWindow = time.Hour

	ppmDenominator uint64 = 1_000_000
)

// UserTransferData is the per (user, mint) throttle record.
type UserTransferData struct {
	LastTransferTimestamp int64
}

// NewUserTransferData returns the record used on a user's first trade of a mint.
func NewUserTransferData(defaultTimestamp int64) *UserTransferData {
	return &UserTransferData{LastTransferTimestamp: defaultTimestamp}
}

// RateLimiter throttles how fast a curve creator can trade their own curve.
//
// The allowance grows linearly with the time since the creator's previous trade and
// is capped at MaxSharePPM of the total supply once Window has elapsed. Everyone
// else is unrestricted.
type RateLimiter struct {
	MaxSharePPM uint64
	Window      time.Duration
}

// NewRateLimiter returns a limiter with the default 0.5% per hour allowance.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{MaxSharePPM: DefaultMaxSharePPM, Window: DefaultRateWindow}
}

func (r *RateLimiter) windowSeconds() uint64 {
	secs := int64(r.Window / time.Second)
	if secs <= 0 {
		return 1
	}
	return uint64(secs)
}

// MaxAllowed returns floor(supply * min(elapsed, window) * share / (window * 1e6)).
// Clock skew that makes the elapsed time negative counts as zero.
func (r *RateLimiter) MaxAllowed(record *UserTransferData, totalSupply uint64, now int64) (uint64, error) {
	var elapsed uint64
	if now > record.LastTransferTimestamp {
		elapsed = uint64(now - record.LastTransferTimestamp)
	}
	window := r.windowSeconds()
	if elapsed > window {
		elapsed = window
	}

	num, err := mul128(wideMul(totalSupply, elapsed), r.MaxSharePPM)
	if err != nil {
		return 0, err
	}
	den := wideMul(window, ppmDenominator)
	return narrow(num.Div(den))
}

// CheckAndUpdate admits or rejects a trade of requested tokens by actor on curve.
//
// On success the record's timestamp is moved to now, whether or not the actor is
// the creator. On rejection the record is left untouched.
func (r *RateLimiter) CheckAndUpdate(record *UserTransferData, actor solana.PublicKey, c *BondingCurve, requested uint64, now int64) error {
	if actor.Equals(c.Creator) {
		maxAllowed, err := r.MaxAllowed(record, c.TokenTotalSupply, now)
		if err != nil {
			return err
		}
		if requested > maxAllowed {
			return &RateLimitError{Requested: requested, MaxAllowed: maxAllowed}
		}
	}
	record.LastTransferTimestamp = now
	return nil
}
