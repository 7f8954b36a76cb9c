package main

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

func parseSOL(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, fmt.Errorf("invalid --fund %q", s)
	}
	return curve.SolToLamports(d), nil
}
