package launchpad

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
)

// compact drops transfers that move nothing, including payments to oneself.
func compact(transfers []settlement.Transfer) []settlement.Transfer {
	out := transfers[:0]
	for _, t := range transfers {
		if t.Amount == 0 || t.From.Equals(t.To) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// compensate undoes executed transfers after a failed commit. Each reversal
// moves back what the receiver actually got, so withheld transfer fees stay
// withheld.
func (l *Launchpad) compensate(ctx context.Context, executed []settlement.Transfer, cause error) error {
	fees, _ := l.executor.(transferFeeConfigurer)

	reversed := make([]settlement.Transfer, 0, len(executed))
	for i := len(executed) - 1; i >= 0; i-- {
		r := executed[i].Reverse()
		if fees != nil {
			r.Amount -= fees.TransferFee(executed[i].Asset, executed[i].Amount)
		}
		reversed = append(reversed, r)
	}

	if err := l.executor.Execute(ctx, compact(reversed)); err != nil {
		l.logger.Error("Compensation failed, balances and curve state diverged",
			zap.NamedError("cause", cause),
			zap.Error(err))
		return fmt.Errorf("%w (compensation failed: %v)", cause, err)
	}
	l.logger.Warn("Settlement reverted", zap.Error(cause), zap.Int("count", len(reversed)))
	return cause
}
