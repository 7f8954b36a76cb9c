package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/curve-launchpad/internal/app"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/export"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
)

func (c *cli) newSimulateCmd() *cobra.Command {
	var (
		cfg       = app.DefaultSimulationConfig()
		wallClock bool
		exportDir string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run random traders against freshly created curves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []app.Option
			if !wallClock {
				opts = append(opts, app.WithClock(launchpad.NewManualClock(time.Now())))
			}
			var exportFormat export.ExportFormat
			if exportDir != "" {
				var err error
				if exportFormat, err = export.ParseFormat(format); err != nil {
					return err
				}
			}

			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				recorder := export.NewRecorder()
				sub := a.Bus.Subscribe(recorder, events.CurveTrade)
				defer sub.Unsubscribe()

				metricsCtx, stopMetrics := context.WithCancel(ctx)
				eg, egCtx := errgroup.WithContext(metricsCtx)
				eg.Go(func() error { return a.ServeMetrics(egCtx) })

				report, err := app.Simulate(ctx, a, cfg)
				stopMetrics()
				if werr := eg.Wait(); werr != nil && err == nil {
					err = werr
				}
				if err != nil {
					return err
				}
				// Drain queued trades into the recorder before reading it.
				if err := a.Bus.Shutdown(ctx); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				s := newSection("Simulation").
					add("Curves", len(report.Curves)).
					add("Traders", len(report.Traders)).
					add("Buys", report.Buys).
					add("Sells", report.Sells).
					add("Completed curves", report.Completed).
					add("Volume", sol(report.Volume)).
					add("Fees", sol(report.Fees)).
					add("Elapsed", report.Elapsed.Round(time.Millisecond))
				for _, code := range report.RejectionCodes() {
					s.add("Rejected "+code, report.Rejected[code])
				}
				s.render(out)

				if exportDir == "" {
					return nil
				}
				path, err := export.NewTradeExporter(a.Logger.Logger).ExportTrades(recorder.Trades(), export.ExportOptions{
					Format:    exportFormat,
					OutputDir: exportDir,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported %s\n", path)
				return nil
			}, opts...)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&cfg.Curves, "curves", cfg.Curves, "number of curves to create")
	flags.IntVar(&cfg.Traders, "traders", cfg.Traders, "number of funded traders")
	flags.IntVar(&cfg.Orders, "orders", cfg.Orders, "number of random orders")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent order workers")
	flags.Uint64Var(&cfg.MaxBuyTokens, "max-buy", cfg.MaxBuyTokens, "largest buy, raw token units")
	flags.Uint64Var(&cfg.FundLamports, "fund", cfg.FundLamports, "lamports airdropped to each trader")
	flags.Float64Var(&cfg.BuyRatio, "buy-ratio", cfg.BuyRatio, "probability an order is a buy")
	flags.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flags.DurationVar(&cfg.Step, "step", cfg.Step, "simulated time between orders")
	flags.BoolVar(&wallClock, "wall-clock", false, "use the system clock instead of simulated time")
	flags.StringVar(&exportDir, "export-dir", "", "write the simulated trades to this directory")
	flags.StringVar(&format, "format", string(export.FormatCSV), "export format (csv|json)")
	return cmd
}
