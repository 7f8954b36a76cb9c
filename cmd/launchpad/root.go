package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/app"
	"github.com/rovshanmuradov/curve-launchpad/internal/config"
	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/wallet"
)

type cli struct {
	configPath  string
	logLevel    string
	backend     string
	storePath   string
	walletsPath string
	verbose     bool

	book wallet.Book
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:           "launchpad",
		Short:         "Bonding-curve token launchpad",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.HiddenDefaultCmd = true

	flags := cmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "path to config file (defaults only when empty)")
	flags.StringVar(&c.logLevel, "log-level", "", "override log.level")
	flags.StringVar(&c.backend, "backend", "", "override store.backend (memory|pebble)")
	flags.StringVar(&c.storePath, "store-path", "", "override store.path")
	flags.StringVar(&c.walletsPath, "wallets", "", "CSV of named wallets; names are accepted wherever a key is")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log to the console")

	cmd.AddCommand(
		c.newInitCmd(),
		c.newSetParamsCmd(),
		c.newCreateCmd(),
		c.newFundCmd(),
		c.newBuyCmd(),
		c.newSellCmd(),
		c.newQuoteCmd(),
		c.newWithdrawCmd(),
		c.newShowCmd(),
		c.newListCmd(),
		c.newBalanceCmd(),
		c.newKeygenCmd(),
		c.newSimulateCmd(),
		c.newExportCmd(),
	)
	return cmd
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.backend != "" {
		if c.backend != config.BackendMemory && c.backend != config.BackendPebble {
			return nil, fmt.Errorf("unknown backend %q", c.backend)
		}
		cfg.Store.Backend = c.backend
	}
	if c.storePath != "" {
		cfg.Store.Path = c.storePath
	}
	return cfg, nil
}

// run opens the application, calls fn and closes it again.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error, opts ...app.Option) (err error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if !c.verbose {
		opts = append(opts, app.WithQuietConsole())
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if err := fn(ctx, a); err != nil {
		a.Logger.Debug("Command failed", zap.String("command", cmd.Name()), zap.Error(err))
		return err
	}
	return nil
}

func (c *cli) loadBook() (wallet.Book, error) {
	if c.book == nil {
		book, err := wallet.LoadBook(c.walletsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load wallets: %w", err)
		}
		c.book = book
	}
	return c.book, nil
}

// parseKey resolves a wallet name or a base58 public key.
func (c *cli) parseKey(name, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	book, err := c.loadBook()
	if err != nil {
		return solana.PublicKey{}, err
	}
	k, err := book.Resolve(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return k, nil
}

// keyOrAuthority parses value, falling back to the configured authority.
func (c *cli) keyOrAuthority(a *app.App, name, value string) (solana.PublicKey, error) {
	if value == "" {
		if k := a.Authority(); !k.IsZero() {
			return k, nil
		}
	}
	return c.parseKey(name, value)
}

func parseSOL(name, value string) (uint64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		return 0, fmt.Errorf("invalid --%s %q", name, value)
	}
	return curve.SolToLamports(d), nil
}

func parseTokens(name, value string) (uint64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		return 0, fmt.Errorf("invalid --%s %q", name, value)
	}
	return curve.TokensFromUI(d), nil
}
