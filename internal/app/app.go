// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/curve-launchpad/internal/config"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
	"github.com/rovshanmuradov/curve-launchpad/internal/logger"
	"github.com/rovshanmuradov/curve-launchpad/internal/metrics"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/memory"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/pebble"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/postgres"
)

// WithheldSeed derives the account that collects token transfer fees.
const WithheldSeed = "withheld"

// App holds every long-lived component of a launchpad process.
type App struct {
	Config    *config.Config
	Logger    *logger.Logger
	Launchpad *launchpad.Launchpad
	Store     storage.Store
	Ledger    *settlement.Ledger
	Bus       *events.Bus
	Metrics   *metrics.Collector
	Registry  *prometheus.Registry
	// Journal is nil unless journal.postgres_url is set.
	Journal *postgres.Journal
	Clock   launchpad.Clock

	shutdown *ShutdownHandler
}

type options struct {
	clock    launchpad.Clock
	sinks    []zapcore.WriteSyncer
	quiet    bool
	inMemory bool
}

// Option tweaks how New assembles the App.
type Option func(*options)

// WithClock replaces the wall clock, e.g. with a launchpad.ManualClock.
func WithClock(c launchpad.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogSinks tees JSON log lines into extra writers.
func WithLogSinks(sinks ...zapcore.WriteSyncer) Option {
	return func(o *options) { o.sinks = append(o.sinks, sinks...) }
}

// WithQuietConsole drops console logging.
func WithQuietConsole() Option {
	return func(o *options) { o.quiet = true }
}

// WithInMemoryPebble keeps a pebble backend off disk.
func WithInMemoryPebble() Option {
	return func(o *options) { o.inMemory = true }
}

// New builds the logger, metrics, store, ledger, event bus, optional journal and
// launchpad described by cfg, then restores launchpad state.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{clock: launchpad.SystemClock{}}
	for _, fn := range opts {
		fn(o)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		LogFile:    cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
		Pretty:     cfg.Log.Pretty,
		Quiet:      o.quiet,
	}, o.sinks...)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   log,
		Clock:    o.clock,
		Registry: prometheus.NewRegistry(),
		shutdown: NewShutdownHandler(log.Logger, 10*time.Second),
	}
	a.shutdown.AddFunc("logger", a.Logger.Sync)

	if err := a.init(ctx, o); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, o *options) error {
	cfg := a.Config
	log := a.Logger.Logger

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewCollector(cfg.Metrics.Namespace, a.Registry)
	if err != nil {
		return err
	}
	a.Metrics = m

	programID, err := cfg.ProgramKey()
	if err != nil {
		return fmt.Errorf("invalid program_id: %w", err)
	}
	withheld, _, err := solana.FindProgramAddress([][]byte{[]byte(WithheldSeed)}, programID)
	if err != nil {
		return fmt.Errorf("failed to derive withheld account: %w", err)
	}

	var balances settlement.BalanceStore
	switch cfg.Store.Backend {
	case config.BackendPebble:
		ps, err := pebble.New(pebble.Config{Path: cfg.Store.Path, InMemory: o.inMemory}, log, a.Registry)
		if err != nil {
			return err
		}
		a.Store, balances = ps, ps
	default:
		a.Store, balances = memory.NewStore(), settlement.NewMemoryBalances()
	}
	a.shutdown.Add("store", a.Store)
	a.Ledger = settlement.NewLedger(balances, withheld, log)

	a.Bus = events.NewBus(log, cfg.EventBuffer)
	if cfg.Journal.PostgresURL != "" {
		if err := a.openJournal(ctx); err != nil {
			_ = a.Bus.Shutdown(context.Background())
			return err
		}
	}
	// Closed before the journal so queued events still reach it.
	a.shutdown.AddFunc("event bus", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.Bus.Shutdown(ctx)
	})

	params, err := cfg.LaunchParams()
	if err != nil {
		return err
	}
	lp, err := launchpad.New(a.Store, a.Ledger, log, launchpad.Options{
		ProgramID:           programID,
		DefaultParams:       params,
		RateLimiter:         cfg.RateLimiter(),
		FirstTradeTimestamp: cfg.FirstTradeTimestamp,
		TokenTransferFeeBps: cfg.TokenTransferFeeBps,
		Clock:               a.Clock,
		Publisher:           a.Bus,
		Metrics:             a.Metrics,
	})
	if err != nil {
		return err
	}
	a.Launchpad = lp

	if err := lp.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore launchpad state: %w", err)
	}
	log.Debug("Application ready",
		zap.String("backend", cfg.Store.Backend),
		zap.Bool("journal", a.Journal != nil))
	return nil
}

func (a *App) openJournal(ctx context.Context) error {
	log := a.Logger.Logger
	jc := a.Config.Journal

	pool, err := postgres.ConnectWithRetry(ctx, postgres.Config{
		DSN:        jc.PostgresURL,
		MaxConns:   jc.MaxConns,
		MaxRetries: uint(max(jc.Retries, 0)),
		RetryDelay: jc.RetryDelay,
	}, log)
	if err != nil {
		return err
	}
	if err := postgres.RunMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return err
	}

	a.Journal = postgres.NewJournal(pool, log)
	sub := a.Bus.Subscribe(a.Journal, events.AllEventTypes...)
	a.shutdown.AddFunc("journal", func() error {
		sub.Unsubscribe()
		a.Journal.Close()
		return nil
	})
	return nil
}

// Authority returns the configured authority key, or the zero key.
func (a *App) Authority() solana.PublicKey {
	k, _ := a.Config.AuthorityKey()
	return k
}

// ServeMetrics exposes the registry on metrics.listen_addr until ctx is done.
// It returns immediately when no address is configured.
func (a *App) ServeMetrics(ctx context.Context) error {
	addr := a.Config.Metrics.ListenAddr
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Serving metrics", zap.String("path", addr+"/metrics"))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close stops every component in reverse start order.
func (a *App) Close(ctx context.Context) error {
	return a.shutdown.Shutdown(ctx)
}
