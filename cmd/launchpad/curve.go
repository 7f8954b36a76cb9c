package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/curve-launchpad/internal/app"
	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
)

func (c *cli) newCreateCmd() *cobra.Command {
	var creator, mint, name, symbol, uri, team string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Launch a new bonding curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := curve.ParseTeam(team)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				creatorKey, err := c.parseKey("creator", creator)
				if err != nil {
					return err
				}
				mintKey := solana.NewWallet().PublicKey()
				if mint != "" {
					if mintKey, err = c.parseKey("mint", mint); err != nil {
						return err
					}
				}

				bc, err := a.Launchpad.CreateCurve(ctx, launchpad.CreateRequest{
					Creator: creatorKey,
					Mint:    mintKey,
					Name:    name,
					Symbol:  symbol,
					URI:     uri,
					Team:    t,
				})
				if err != nil {
					return err
				}
				curveSection(bc).render(cmd.OutOrStdout())
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&creator, "creator", "", "creator public key")
	flags.StringVar(&mint, "mint", "", "mint address (a fresh key when empty)")
	flags.StringVar(&name, "name", "", "token name")
	flags.StringVar(&symbol, "symbol", "", "token symbol")
	flags.StringVar(&uri, "uri", "", "metadata URI")
	flags.StringVar(&team, "team", "blue", "blue or red")
	return cmd
}

func (c *cli) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [mint]",
		Short: "Show a curve, or the global config without arguments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				if len(args) == 0 {
					g, err := a.Launchpad.Global(ctx)
					if err != nil {
						return err
					}
					globalSection(g).render(cmd.OutOrStdout())
					return nil
				}
				mintKey, err := c.parseKey("mint", args[0])
				if err != nil {
					return err
				}
				bc, err := a.Launchpad.Curve(ctx, mintKey)
				if err != nil {
					return err
				}
				curveSection(bc).render(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

func (c *cli) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				curves, err := a.Launchpad.Curves(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "MINT\tSYMBOL\tTEAM\tSTATUS\tPROGRESS\tREAL SOL")
				for _, bc := range curves {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						bc.Mint, bc.Symbol, bc.Team, bc.Status(), percent(bc.ProgressBPS()), sol(bc.RealSolReserves))
				}
				return w.Flush()
			})
		},
	}
}

func (c *cli) newQuoteCmd() *cobra.Command {
	var mint, side, amount string
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a trade without executing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := parseTokens("tokens", amount)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				mintKey, err := c.parseKey("mint", mint)
				if err != nil {
					return err
				}
				var q launchpad.Quote
				switch side {
				case "buy":
					q, err = a.Launchpad.QuoteBuy(ctx, mintKey, raw)
				case "sell":
					q, err = a.Launchpad.QuoteSell(ctx, mintKey, raw)
				default:
					return fmt.Errorf("invalid --side %q (buy|sell)", side)
				}
				if err != nil {
					return err
				}
				quoteSection(q).render(cmd.OutOrStdout())
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&mint, "mint", "", "curve mint")
	flags.StringVar(&side, "side", "buy", "buy or sell")
	flags.StringVar(&amount, "tokens", "", "token amount in UI units")
	return cmd
}

func quoteSection(q launchpad.Quote) *section {
	title, total := "Sell quote", "Net proceeds"
	if q.IsBuy {
		title, total = "Buy quote", "Total cost"
	}
	return newSection(title).
		add("Tokens", tokens(q.TokenAmount)).
		add("Curve price", sol(q.SolAmount)).
		add("Fee", sol(q.Fee)).
		add(total, sol(q.Total))
}
