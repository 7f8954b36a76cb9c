package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/curve-launchpad/internal/app"
)

func (c *cli) newInitCmd() *cobra.Command {
	var authority string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the global config with the configured launch params",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				key, err := c.keyOrAuthority(a, "authority", authority)
				if err != nil {
					return err
				}
				g, err := a.Launchpad.Initialize(ctx, key)
				if err != nil {
					return err
				}
				globalSection(g).render(cmd.OutOrStdout())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "authority public key (defaults to config authority)")
	return cmd
}

func (c *cli) newSetParamsCmd() *cobra.Command {
	var (
		signer, feeRecipient, withdrawAuthority string
		virtualSol, virtualTokens               uint64
		realTokens, supply, feeBps              uint64
	)
	cmd := &cobra.Command{
		Use:   "set-params",
		Short: "Replace the launch params for curves created from now on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				key, err := c.keyOrAuthority(a, "signer", signer)
				if err != nil {
					return err
				}
				g, err := a.Launchpad.Global(ctx)
				if err != nil {
					return err
				}

				p := g.Params()
				flags := cmd.Flags()
				if flags.Changed("virtual-sol") {
					p.InitialVirtualSolReserves = virtualSol
				}
				if flags.Changed("virtual-tokens") {
					p.InitialVirtualTokenReserves = virtualTokens
				}
				if flags.Changed("real-tokens") {
					p.InitialRealTokenReserves = realTokens
				}
				if flags.Changed("supply") {
					p.InitialTokenSupply = supply
				}
				if flags.Changed("fee-bps") {
					p.FeeBasisPoints = feeBps
				}
				if feeRecipient != "" {
					if p.FeeRecipient, err = c.parseKey("fee-recipient", feeRecipient); err != nil {
						return err
					}
				}
				if withdrawAuthority != "" {
					if p.WithdrawAuthority, err = c.parseKey("withdraw-authority", withdrawAuthority); err != nil {
						return err
					}
				}

				g, err = a.Launchpad.SetParams(ctx, key, p)
				if err != nil {
					return err
				}
				globalSection(g).render(cmd.OutOrStdout())
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&signer, "signer", "", "authority public key (defaults to config authority)")
	flags.StringVar(&feeRecipient, "fee-recipient", "", "new fee recipient")
	flags.StringVar(&withdrawAuthority, "withdraw-authority", "", "new withdraw authority")
	flags.Uint64Var(&virtualSol, "virtual-sol", 0, "initial virtual SOL reserves, lamports")
	flags.Uint64Var(&virtualTokens, "virtual-tokens", 0, "initial virtual token reserves, raw units")
	flags.Uint64Var(&realTokens, "real-tokens", 0, "initial real token reserves, raw units")
	flags.Uint64Var(&supply, "supply", 0, "initial token supply, raw units")
	flags.Uint64Var(&feeBps, "fee-bps", 0, "trade fee in basis points")
	return cmd
}

func (c *cli) newWithdrawCmd() *cobra.Command {
	var mint, signer string
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Sweep the custody of a complete curve to the withdraw authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				mintKey, err := c.parseKey("mint", mint)
				if err != nil {
					return err
				}
				key, err := c.keyOrAuthority(a, "signer", signer)
				if err != nil {
					return err
				}
				r, err := a.Launchpad.Withdraw(ctx, mintKey, key)
				if err != nil {
					return err
				}
				newSection("Withdrawn").
					add("Mint", mintKey).
					add("SOL", sol(r.SolAmount)).
					add("Tokens", tokens(r.TokenAmount)).
					render(cmd.OutOrStdout())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mint, "mint", "", "curve mint")
	cmd.Flags().StringVar(&signer, "signer", "", "withdraw authority (defaults to config authority)")
	return cmd
}
