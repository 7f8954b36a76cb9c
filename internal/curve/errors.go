// =============================
// File: internal/curve/errors.go
// =============================
package curve

import (
	"errors"
	"fmt"
)

// Launchpad error kinds. Every check that can produce one of these runs before
// any reserve mutation or value transfer.
var (
	ErrNotInitialized           = errors.New("launchpad is not initialized")
	ErrAlreadyInitialized       = errors.New("launchpad is already initialized")
	ErrInvalidAuthority         = errors.New("invalid authority")
	ErrInvalidParams            = errors.New("invalid curve parameters")
	ErrCurveComplete            = errors.New("bonding curve is complete")
	ErrCurveNotComplete         = errors.New("bonding curve is not complete")
	ErrCurveExists              = errors.New("bonding curve already exists")
	ErrCurveNotFound            = errors.New("bonding curve not found")
	ErrInvalidFeeRecipient      = errors.New("invalid fee recipient")
	ErrInvalidWithdrawAuthority = errors.New("invalid withdraw authority")
	ErrInsufficientTokens       = errors.New("insufficient tokens")
	ErrMinBuy                   = errors.New("buy amount must be greater than zero")
	ErrMinSell                  = errors.New("sell amount must be greater than zero")
	ErrMaxCostExceeded          = errors.New("max SOL cost exceeded")
	ErrMinProceedsNotMet        = errors.New("min SOL output not met")
	ErrInsufficientBalance      = errors.New("insufficient SOL balance")
	ErrRateLimited              = errors.New("transfer rate limit exceeded")
	ErrArithmeticOverflow       = errors.New("arithmetic overflow")
	ErrDepleted                 = errors.New("bonding curve depleted")
	ErrInsufficientLiquidity    = errors.New("insufficient SOL liquidity in curve")
	ErrInvariantViolation       = errors.New("bonding curve invariant violated")
)

// SlippageError reports a trade whose cost or proceeds fell outside the bound the
// caller supplied. It unwraps to ErrMaxCostExceeded or ErrMinProceedsNotMet.
type SlippageError struct {
	IsBuy  bool
	Bound  uint64
	Actual uint64
}

func (e *SlippageError) Error() string {
	if e.IsBuy {
		return fmt.Sprintf("max SOL cost exceeded: cost %d lamports > bound %d", e.Actual, e.Bound)
	}
	return fmt.Sprintf("min SOL output not met: proceeds %d lamports < bound %d", e.Actual, e.Bound)
}

func (e *SlippageError) Unwrap() error {
	if e.IsBuy {
		return ErrMaxCostExceeded
	}
	return ErrMinProceedsNotMet
}

// RateLimitError carries the amounts of a request rejected by the RateLimiter.
type RateLimitError struct {
	Requested  uint64
	MaxAllowed uint64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("transfer rate limit exceeded: requested %d, allowed %d", e.Requested, e.MaxAllowed)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotInitialized, "NotInitialized"},
	{ErrAlreadyInitialized, "AlreadyInitialized"},
	{ErrInvalidAuthority, "InvalidAuthority"},
	{ErrInvalidParams, "InvalidParams"},
	{ErrCurveComplete, "BondingCurveComplete"},
	{ErrCurveNotComplete, "BondingCurveNotComplete"},
	{ErrCurveExists, "BondingCurveExists"},
	{ErrCurveNotFound, "BondingCurveNotFound"},
	{ErrInvalidFeeRecipient, "InvalidFeeRecipient"},
	{ErrInvalidWithdrawAuthority, "InvalidWithdrawAuthority"},
	{ErrInsufficientTokens, "InsufficientTokens"},
	{ErrMinBuy, "MinBuy"},
	{ErrMinSell, "MinSell"},
	{ErrMaxCostExceeded, "MaxSOLCostExceeded"},
	{ErrMinProceedsNotMet, "MinSOLOutputExceeded"},
	{ErrInsufficientBalance, "InsufficientSOL"},
	{ErrRateLimited, "RateLimited"},
	{ErrArithmeticOverflow, "ArithmeticOverflow"},
	{ErrDepleted, "Depleted"},
	{ErrInsufficientLiquidity, "InsufficientLiquidity"},
	{ErrInvariantViolation, "InvariantViolation"},
}

// ErrorCode returns the stable name of a launchpad error, or "Unknown".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "Unknown"
}
