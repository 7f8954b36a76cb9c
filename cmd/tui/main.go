package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/curve-launchpad/internal/app"
	"github.com/rovshanmuradov/curve-launchpad/internal/config"
	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
	"github.com/rovshanmuradov/curve-launchpad/internal/logger"
	"github.com/rovshanmuradov/curve-launchpad/internal/ui"
)

type options struct {
	configPath string
	wallet     string
	fundSOL    string
	simulate   bool
	pace       time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	o := &options{}
	cmd := &cobra.Command{
		Use:           "launchpad-tui",
		Short:         "Live dashboard for the bonding-curve launchpad",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&o.configPath, "config", "c", "", "path to config file")
	flags.StringVar(&o.wallet, "wallet", "", "trade as this public key (a fresh key when empty)")
	flags.StringVar(&o.fundSOL, "fund", "100", "SOL airdropped to the wallet on start")
	flags.BoolVar(&o.simulate, "simulate", true, "run random traders in the background")
	flags.DurationVar(&o.pace, "pace", 300*time.Millisecond, "delay between simulated orders")

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o *options) error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}

	logs := logger.NewLogBuffer(500)
	a, err := app.New(ctx, cfg, app.WithLogSinks(logs), app.WithQuietConsole())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()
	log := a.Logger.Named("tui")

	wallet, err := prepare(ctx, a, o)
	if err != nil {
		return err
	}

	sender := ui.NewUpdateSender(256, log)
	defer sender.Close()
	sub := a.Bus.Subscribe(sender, events.AllEventTypes...)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithCancel(ctx)

	// Background work must stop before the app is closed.
	var bg errgroup.Group
	defer func() {
		cancel()
		_ = bg.Wait()
	}()
	if o.simulate {
		sim := app.DefaultSimulationConfig()
		sim.Orders = 1_000_000
		sim.Workers = 2
		sim.Pace = o.pace
		bg.Go(func() error {
			if _, err := app.Simulate(ctx, a, sim); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Simulation stopped", zap.Error(err))
			}
			return nil
		})
	}
	bg.Go(func() error {
		if err := a.ServeMetrics(ctx); err != nil {
			log.Error("Metrics server failed", zap.Error(err))
		}
		return nil
	})

	log.Info("Starting dashboard", zap.String("wallet", wallet.String()))
	recovery := ui.NewRecoveryHandler(log, func() (tea.Model, []tea.ProgramOption) {
		dashboard := ui.NewDashboard(ctx, a.Launchpad, wallet, sender, logs)
		return ui.NewSafeModel(dashboard, log), []tea.ProgramOption{tea.WithAltScreen()}
	})
	if err := recovery.Run(ctx); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}

// prepare initializes the launchpad when needed, funds the demo wallet and
// makes sure at least one curve exists.
func prepare(ctx context.Context, a *app.App, o *options) (solana.PublicKey, error) {
	lp := a.Launchpad

	if _, err := lp.Global(ctx); errors.Is(err, curve.ErrNotInitialized) {
		authority := a.Authority()
		if authority.IsZero() {
			authority = solana.NewWallet().PublicKey()
		}
		if _, err := lp.Initialize(ctx, authority); err != nil {
			return solana.PublicKey{}, err
		}
	} else if err != nil {
		return solana.PublicKey{}, err
	}

	wallet := solana.NewWallet().PublicKey()
	if o.wallet != "" {
		k, err := solana.PublicKeyFromBase58(o.wallet)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid --wallet: %w", err)
		}
		wallet = k
	}
	if o.fundSOL != "" {
		lamports, err := parseSOL(o.fundSOL)
		if err != nil {
			return solana.PublicKey{}, err
		}
		if lamports > 0 {
			if err := lp.Airdrop(ctx, wallet, lamports); err != nil {
				return solana.PublicKey{}, err
			}
		}
	}

	curves, err := lp.Curves(ctx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if len(curves) == 0 {
		if _, err := lp.CreateCurve(ctx, launchpad.CreateRequest{
			Creator: solana.NewWallet().PublicKey(),
			Mint:    solana.NewWallet().PublicKey(),
			Name:    "Demo",
			Symbol:  "DEMO",
		}); err != nil {
			return solana.PublicKey{}, err
		}
	}
	return wallet, nil
}
