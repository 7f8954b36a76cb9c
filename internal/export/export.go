package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ParseFormat accepts "csv" or "json".
func ParseFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(s); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format     ExportFormat
	StartTime  time.Time
	EndTime    time.Time
	MintFilter string // Filter by token mint
	SideFilter string // Filter by side (buy/sell)
	OutputDir  string
}

// TradeExporter writes journaled trades to files.
type TradeExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewTradeExporter creates a new trade exporter
func NewTradeExporter(logger *zap.Logger) *TradeExporter {
	return &TradeExporter{
		logger: logger.Named("export"),
		now:    time.Now,
	}
}

// ExportTrades exports trades based on the provided options and returns the
// written file path.
func (te *TradeExporter) ExportTrades(trades []*models.Trade, options ExportOptions) (string, error) {
	if _, err := ParseFormat(string(options.Format)); err != nil {
		return "", err
	}

	filtered := filterTrades(trades, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no trades match the export criteria")
	}
	sortTrades(filtered)

	if err := os.MkdirAll(options.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, te.generateFilename(options))

	var err error
	switch options.Format {
	case FormatCSV:
		err = te.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = te.exportToJSON(filtered, outputPath)
	}
	if err != nil {
		return "", err
	}

	te.logger.Info("Trades exported",
		zap.String("path", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func filterTrades(trades []*models.Trade, options ExportOptions) []*models.Trade {
	var filtered []*models.Trade
	for _, t := range trades {
		if !options.StartTime.IsZero() && t.OccurredAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && !t.OccurredAt.Before(options.EndTime) {
			continue
		}
		if options.MintFilter != "" && t.Mint != options.MintFilter {
			continue
		}
		if options.SideFilter != "" && t.Side != options.SideFilter {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

// sortTrades orders by occurrence, then journal id.
func sortTrades(trades []*models.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		if !trades[i].OccurredAt.Equal(trades[j].OccurredAt) {
			return trades[i].OccurredAt.Before(trades[j].OccurredAt)
		}
		return trades[i].ID < trades[j].ID
	})
}

func (te *TradeExporter) generateFilename(options ExportOptions) string {
	timestamp := te.now().Format("20060102_150405")

	prefix := "trades_all"
	if options.SideFilter != "" {
		prefix = "trades_" + options.SideFilter
	}
	if m := options.MintFilter; m != "" {
		if len(m) > 8 {
			m = m[:8]
		}
		prefix += "_" + m
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

// CSVHeaders returns the column names of the CSV export.
func CSVHeaders() []string {
	return []string{
		"id", "occurred_at", "unix_timestamp", "mint", "user", "side",
		"sol_amount", "sol", "token_amount", "tokens", "fee",
		"virtual_sol_reserves", "virtual_token_reserves", "real_sol_reserves", "real_token_reserves",
	}
}

func csvRow(t *models.Trade) []string {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	return []string{
		strconv.FormatInt(t.ID, 10),
		t.OccurredAt.UTC().Format(time.RFC3339),
		strconv.FormatInt(t.UnixTimestamp, 10),
		t.Mint,
		t.UserAddress,
		t.Side,
		u(t.SolAmount),
		curve.LamportsToSol(t.SolAmount).String(),
		u(t.TokenAmount),
		curve.TokensToUI(t.TokenAmount).String(),
		u(t.Fee),
		u(t.VirtualSolReserves),
		u(t.VirtualTokenReserves),
		u(t.RealSolReserves),
		u(t.RealTokenReserves),
	}
}

func (te *TradeExporter) exportToCSV(trades []*models.Trade, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, t := range trades {
		if err := writer.Write(csvRow(t)); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (te *TradeExporter) exportToJSON(trades []*models.Trade, outputPath string) error {
	exportData := struct {
		ExportTime time.Time       `json:"export_time"`
		TradeCount int             `json:"trade_count"`
		Trades     []*models.Trade `json:"trades"`
		Summary    ExportSummary   `json:"summary"`
	}{
		ExportTime: te.now(),
		TradeCount: len(trades),
		Trades:     trades,
		Summary:    CalculateSummary(trades),
	}
	return writeJSON(outputPath, exportData)
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportSummary contains summary statistics for exported trades. Lamport
// totals are exact; the SOL fields repeat them in whole SOL.
type ExportSummary struct {
	TotalTrades    int             `json:"total_trades"`
	BuyCount       int             `json:"buy_count"`
	SellCount      int             `json:"sell_count"`
	UniqueMints    int             `json:"unique_mints"`
	UniqueUsers    int             `json:"unique_users"`
	BuyVolume      uint64          `json:"buy_volume_lamports"`
	SellVolume     uint64          `json:"sell_volume_lamports"`
	TotalFees      uint64          `json:"total_fees_lamports"`
	TotalVolumeSOL decimal.Decimal `json:"total_volume_sol"`
	TotalFeesSOL   decimal.Decimal `json:"total_fees_sol"`
	// NetFlow is lamports that entered curves minus lamports that left them.
	NetFlow   int64     `json:"net_flow_lamports"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// CalculateSummary aggregates trades, which must be in time order.
func CalculateSummary(trades []*models.Trade) ExportSummary {
	summary := ExportSummary{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return summary
	}

	summary.StartDate = trades[0].OccurredAt
	summary.EndDate = trades[len(trades)-1].OccurredAt

	mints := make(map[string]struct{})
	users := make(map[string]struct{})
	for _, t := range trades {
		mints[t.Mint] = struct{}{}
		users[t.UserAddress] = struct{}{}
		summary.TotalFees += t.Fee

		switch t.Side {
		case "buy":
			summary.BuyCount++
			summary.BuyVolume += t.SolAmount
		case "sell":
			summary.SellCount++
			summary.SellVolume += t.SolAmount
		}
	}

	summary.UniqueMints = len(mints)
	summary.UniqueUsers = len(users)
	summary.TotalVolumeSOL = curve.LamportsToSol(summary.BuyVolume).Add(curve.LamportsToSol(summary.SellVolume))
	summary.TotalFeesSOL = curve.LamportsToSol(summary.TotalFees)
	summary.NetFlow = int64(summary.BuyVolume) - int64(summary.SellVolume)
	return summary
}

// DailyReport represents a daily trading report
type DailyReport struct {
	Date            time.Time       `json:"date"`
	TradeCount      int             `json:"trade_count"`
	Summary         ExportSummary   `json:"summary"`
	HourlyBreakdown []HourlyStats   `json:"hourly_breakdown"`
	Trades          []*models.Trade `json:"trades"`
}

// HourlyStats represents trading statistics for an hour
type HourlyStats struct {
	Hour       int    `json:"hour"`
	TradeCount int    `json:"trade_count"`
	BuyCount   int    `json:"buy_count"`
	SellCount  int    `json:"sell_count"`
	Volume     uint64 `json:"volume_lamports"`
	Fees       uint64 `json:"fees_lamports"`
}

// ExportDailyReport writes the trades of date's calendar day. It returns an
// empty path when the day has no trades.
func (te *TradeExporter) ExportDailyReport(trades []*models.Trade, date time.Time, outputDir string) (string, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	filtered := filterTrades(trades, ExportOptions{
		StartTime: startOfDay,
		EndTime:   startOfDay.AddDate(0, 0, 1),
	})
	if len(filtered) == 0 {
		te.logger.Info("No trades for daily report", zap.Time("date", startOfDay))
		return "", nil
	}
	sortTrades(filtered)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, fmt.Sprintf("daily_report_%s.json", startOfDay.Format("20060102")))

	report := DailyReport{
		Date:            startOfDay,
		TradeCount:      len(filtered),
		Trades:          filtered,
		Summary:         CalculateSummary(filtered),
		HourlyBreakdown: hourlyBreakdown(filtered, date.Location()),
	}
	if err := writeJSON(outputPath, report); err != nil {
		return "", err
	}

	te.logger.Info("Daily report exported",
		zap.String("path", outputPath),
		zap.Time("date", startOfDay),
		zap.Int("count", len(filtered)))
	return outputPath, nil
}

func hourlyBreakdown(trades []*models.Trade, loc *time.Location) []HourlyStats {
	hourly := make(map[int]*HourlyStats)
	for _, t := range trades {
		hour := t.OccurredAt.In(loc).Hour()
		stats, ok := hourly[hour]
		if !ok {
			stats = &HourlyStats{Hour: hour}
			hourly[hour] = stats
		}

		stats.TradeCount++
		stats.Volume += t.SolAmount
		stats.Fees += t.Fee
		switch t.Side {
		case "buy":
			stats.BuyCount++
		case "sell":
			stats.SellCount++
		}
	}

	var breakdown []HourlyStats
	for hour := 0; hour < 24; hour++ {
		if stats, ok := hourly[hour]; ok {
			breakdown = append(breakdown, *stats)
		}
	}
	return breakdown
}
