package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/curve-launchpad/internal/app"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
	"github.com/rovshanmuradov/curve-launchpad/internal/wallet"
)

func (c *cli) newFundCmd() *cobra.Command {
	var owner, amount string
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Airdrop SOL to an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lamports, err := parseSOL("sol", amount)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				key, err := c.parseKey("owner", owner)
				if err != nil {
					return err
				}
				if err := a.Launchpad.Airdrop(ctx, key, lamports); err != nil {
					return err
				}
				bal, err := a.Launchpad.Balance(ctx, key, settlement.NativeSOL)
				if err != nil {
					return err
				}
				newSection("Funded").
					add("Owner", key).
					add("Airdrop", sol(lamports)).
					add("Balance", sol(bal)).
					render(cmd.OutOrStdout())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "account to fund")
	cmd.Flags().StringVar(&amount, "sol", "", "amount in SOL")
	return cmd
}

func (c *cli) newBalanceCmd() *cobra.Command {
	var owner, mint string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the SOL balance of an account, and its token balance with --mint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				key, err := c.parseKey("owner", owner)
				if err != nil {
					return err
				}
				lamports, err := a.Launchpad.Balance(ctx, key, settlement.NativeSOL)
				if err != nil {
					return err
				}
				s := newSection("Balance").add("Owner", key).add("SOL", sol(lamports))
				if mint != "" {
					mintKey, err := c.parseKey("mint", mint)
					if err != nil {
						return err
					}
					raw, err := a.Launchpad.Balance(ctx, key, mintKey)
					if err != nil {
						return err
					}
					s.add("Tokens", tokens(raw))
				}
				s.render(cmd.OutOrStdout())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "account owner")
	cmd.Flags().StringVar(&mint, "mint", "", "token mint")
	return cmd
}

func (c *cli) newKeygenCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new keypair, saved to --wallets under --name when both are set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := wallet.Generate(name)
			s := newSection("Keypair").add("Public key", w.PublicKey)
			if name == "" || c.walletsPath == "" {
				s.add("Private key", w.PrivateKey.String()).render(cmd.OutOrStdout())
				return nil
			}

			book, err := c.loadBook()
			if err != nil {
				return err
			}
			if _, exists := book[name]; exists {
				return fmt.Errorf("wallet %q already exists in %s", name, c.walletsPath)
			}
			book[name] = w
			if err := book.Save(c.walletsPath); err != nil {
				return err
			}
			s.add("Name", name).add("Saved to", c.walletsPath).render(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "wallet name")
	return cmd
}
