package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/curve-launchpad/internal/app"
	"github.com/rovshanmuradov/curve-launchpad/internal/export"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
)

func (c *cli) newExportCmd() *cobra.Command {
	var (
		mint, format, outDir, side, daily string
		limit                             int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export journaled trades to CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			var day time.Time
			if daily != "" {
				if day, err = time.ParseInLocation(time.DateOnly, daily, time.UTC); err != nil {
					return fmt.Errorf("invalid --daily: %w", err)
				}
			}

			return c.run(cmd, func(ctx context.Context, a *app.App) error {
				if a.Journal == nil {
					return errors.New("export needs journal.postgres_url")
				}

				var mints []solana.PublicKey
				if mint != "" {
					k, err := c.parseKey("mint", mint)
					if err != nil {
						return err
					}
					mints = append(mints, k)
				} else {
					curves, err := a.Launchpad.Curves(ctx)
					if err != nil {
						return err
					}
					for _, bc := range curves {
						mints = append(mints, bc.Mint)
					}
				}

				var trades []*models.Trade
				for _, m := range mints {
					page, err := a.Journal.ListTrades(ctx, m, limit)
					if err != nil {
						return err
					}
					trades = append(trades, page...)
				}

				exporter := export.NewTradeExporter(a.Logger.Logger)
				var path string
				if daily != "" {
					path, err = exporter.ExportDailyReport(trades, day, outDir)
				} else {
					path, err = exporter.ExportTrades(trades, export.ExportOptions{
						Format:     f,
						SideFilter: side,
						OutputDir:  outDir,
					})
				}
				if err != nil {
					return err
				}
				if path == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No trades for", daily)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", path)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&mint, "mint", "", "only this curve (all curves when empty)")
	flags.StringVar(&format, "format", string(export.FormatCSV), "csv or json")
	flags.StringVar(&outDir, "out", "exports", "output directory")
	flags.StringVar(&side, "side", "", "buy or sell")
	flags.IntVar(&limit, "limit", 1000, "latest trades fetched per curve")
	flags.StringVar(&daily, "daily", "", "write a daily report for YYYY-MM-DD (UTC) instead")
	return cmd
}
