package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/curve-launchpad/internal/app"
	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
)

type tradeFlags struct {
	mint, user, amount, bound string
	slippageBps              uint64
}

func (f *tradeFlags) register(cmd *cobra.Command, boundName, boundHelp string) {
	flags := cmd.Flags()
	flags.StringVar(&f.mint, "mint", "", "curve mint")
	flags.StringVar(&f.user, "user", "", "trader public key")
	flags.StringVar(&f.amount, "tokens", "", "token amount in UI units")
	flags.StringVar(&f.bound, boundName, "", boundHelp)
	flags.Uint64Var(&f.slippageBps, "slippage-bps", 100, "slippage applied to the current quote when no explicit bound is given")
}

// withSlippage widens a quoted total by bps in the trader's disfavour.
func withSlippage(total, bps uint64, isBuy bool) (uint64, error) {
	delta, err := curve.CalculateFee(total, bps)
	if err != nil {
		return 0, err
	}
	if isBuy {
		return total + delta, nil
	}
	return total - delta, nil
}

func (c *cli) newBuyCmd() *cobra.Command {
	f := &tradeFlags{}
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy tokens from a curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.trade(cmd, f, true)
		},
	}
	f.register(cmd, "max-sol", "maximum total cost in SOL, fee included")
	return cmd
}

func (c *cli) newSellCmd() *cobra.Command {
	f := &tradeFlags{}
	cmd := &cobra.Command{
		Use:   "sell",
		Short: "Sell tokens back to a curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.trade(cmd, f, false)
		},
	}
	f.register(cmd, "min-sol", "minimum proceeds in SOL after the fee")
	return cmd
}

func (c *cli) trade(cmd *cobra.Command, f *tradeFlags, isBuy bool) error {
	raw, err := parseTokens("tokens", f.amount)
	if err != nil {
		return err
	}
	if f.slippageBps > curve.BasisPointsDenominator {
		return fmt.Errorf("--slippage-bps %d exceeds 10000", f.slippageBps)
	}

	return c.run(cmd, func(ctx context.Context, a *app.App) error {
		mintKey, err := c.parseKey("mint", f.mint)
		if err != nil {
			return err
		}
		userKey, err := c.parseKey("user", f.user)
		if err != nil {
			return err
		}
		g, err := a.Launchpad.Global(ctx)
		if err != nil {
			return err
		}

		var bound uint64
		if f.bound != "" {
			name := "min-sol"
			if isBuy {
				name = "max-sol"
			}
			if bound, err = parseSOL(name, f.bound); err != nil {
				return err
			}
		} else {
			var q launchpad.Quote
			if isBuy {
				q, err = a.Launchpad.QuoteBuy(ctx, mintKey, raw)
			} else {
				q, err = a.Launchpad.QuoteSell(ctx, mintKey, raw)
			}
			if err != nil {
				return err
			}
			if bound, err = withSlippage(q.Total, f.slippageBps, isBuy); err != nil {
				return err
			}
		}

		var r *launchpad.TradeReceipt
		if isBuy {
			r, err = a.Launchpad.Buy(ctx, launchpad.BuyRequest{
				Mint:         mintKey,
				User:         userKey,
				FeeRecipient: g.FeeRecipient,
				TokenAmount:  raw,
				MaxSolCost:   bound,
			})
		} else {
			r, err = a.Launchpad.Sell(ctx, launchpad.SellRequest{
				Mint:         mintKey,
				User:         userKey,
				FeeRecipient: g.FeeRecipient,
				TokenAmount:  raw,
				MinSolOutput: bound,
			})
		}
		if err != nil {
			return err
		}

		title := "Sold"
		if isBuy {
			title = "Bought"
		}
		s := newSection(title).
			add("Tokens", tokens(r.TokenAmount)).
			add("Curve price", sol(r.SolAmount)).
			add("Fee", sol(r.Fee)).
			add("Progress", percent(r.Curve.ProgressBPS()))
		if r.Completed {
			s.add("Status", warnStyle.Render("curve complete"))
		}
		s.render(cmd.OutOrStdout())
		return nil
	})
}
