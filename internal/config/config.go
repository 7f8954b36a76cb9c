// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

type Config struct {
	Authority         string `mapstructure:"authority"`
	FeeRecipient      string `mapstructure:"fee_recipient"`
	WithdrawAuthority string `mapstructure:"withdraw_authority"`
	ProgramID         string `mapstructure:"program_id"`

	Params    curve.Params    `mapstructure:"params"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// FirstTradeTimestamp seeds the throttle record of a user's first trade on a
	// curve. Zero gives a creator's first trade the full hourly share.
	FirstTradeTimestamp int64  `mapstructure:"first_trade_timestamp"`
	TokenTransferFeeBps uint64 `mapstructure:"token_transfer_fee_bps"`
	EventBuffer         int    `mapstructure:"event_buffer"`

	Store   StoreConfig   `mapstructure:"store"`
	Journal JournalConfig `mapstructure:"journal"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type RateLimitConfig struct {
	MaxSharePPM uint64        `mapstructure:"max_share_ppm"`
	Window      time.Duration `mapstructure:"window"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type JournalConfig struct {
	PostgresURL string        `mapstructure:"postgres_url"`
	Retries     int           `mapstructure:"retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	MaxConns    int32         `mapstructure:"max_conns"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	Pretty     bool   `mapstructure:"pretty"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

type MetricsConfig struct {
	Namespace  string `mapstructure:"namespace"`
	ListenAddr string `mapstructure:"listen_addr"`
}

const (
	BackendMemory = "memory"
	BackendPebble = "pebble"

	DefaultProgramID           = "FYnpDiZVejAbvnme7WZrxUE2T5K4Fv4MwDsZQ2JLzMYm"
	DefaultTokenTransferFeeBps = 10
	DefaultEventBuffer         = 256
	DefaultStorePath           = "data/launchpad"
	DefaultJournalRetries      = 5
	DefaultJournalRetryDelay   = 500 * time.Millisecond
	DefaultMetricsNamespace    = "launchpad"

	envPrefix = "CURVE_LAUNCHPAD"
)

func defaults() map[string]interface{} {
	p := curve.DefaultParams()
	return map[string]interface{}{
		"authority":          "",
		"fee_recipient":      "",
		"withdraw_authority": "",
		"program_id":         DefaultProgramID,

		"params.initial_virtual_token_reserves": p.InitialVirtualTokenReserves,
		"params.initial_virtual_sol_reserves":   p.InitialVirtualSolReserves,
		"params.initial_real_token_reserves":    p.InitialRealTokenReserves,
		"params.initial_token_supply":           p.InitialTokenSupply,
		"params.fee_basis_points":               p.FeeBasisPoints,

		"rate_limit.max_share_ppm": curve.DefaultMaxSharePPM,
		"rate_limit.window":        curve.DefaultRateWindow,

		"first_trade_timestamp":  int64(0),
		"token_transfer_fee_bps": DefaultTokenTransferFeeBps,
		"event_buffer":           DefaultEventBuffer,

		"store.backend": BackendMemory,
		"store.path":    DefaultStorePath,

		"journal.postgres_url": "",
		"journal.retries":      DefaultJournalRetries,
		"journal.retry_delay":  DefaultJournalRetryDelay,
		"journal.max_conns":    4,

		"log.level":       "info",
		"log.file":        "",
		"log.pretty":      true,
		"log.max_size":    100,
		"log.max_age":     7,
		"log.max_backups": 3,
		"log.compress":    true,

		"metrics.namespace":   DefaultMetricsNamespace,
		"metrics.listen_addr": "",
	}
}

// LoadConfig reads the file at path on top of the defaults and applies
// CURVE_LAUNCHPAD_* environment overrides. An empty path loads defaults only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

// Default returns the configuration LoadConfig produces without a file.
func Default() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

func validateConfig(cfg *Config) error {
	for name, key := range map[string]string{
		"authority":          cfg.Authority,
		"fee_recipient":      cfg.FeeRecipient,
		"withdraw_authority": cfg.WithdrawAuthority,
		"program_id":         cfg.ProgramID,
	} {
		if key == "" {
			continue
		}
		if _, err := solana.PublicKeyFromBase58(key); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if cfg.ProgramID == "" {
		return errors.New("missing program_id in configuration")
	}
	if err := cfg.Params.Validate(); err != nil {
		return err
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}

	switch cfg.Store.Backend {
	case BackendMemory:
	case BackendPebble:
		if cfg.Store.Path == "" {
			return errors.New("store.path is required for the pebble backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", cfg.Store.Backend)
	}

	if cfg.Journal.PostgresURL != "" {
		if err := validateURLWithCache(cfg.Journal.PostgresURL, "postgres"); err != nil {
			return errors.New("journal.postgres_url must be a postgres:// URL")
		}
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.RateLimit.MaxSharePPM > 1_000_000 {
		return errors.New("rate_limit.max_share_ppm exceeds 1000000")
	}
	if cfg.RateLimit.Window < time.Second {
		return errors.New("rate_limit.window must be at least one second")
	}
	if cfg.TokenTransferFeeBps > curve.BasisPointsDenominator {
		return errors.New("invalid token_transfer_fee_bps")
	}
	if cfg.EventBuffer <= 0 {
		return errors.New("invalid event_buffer")
	}
	if cfg.FirstTradeTimestamp < 0 {
		return errors.New("invalid first_trade_timestamp")
	}
	if cfg.Journal.Retries < 0 {
		return errors.New("invalid journal.retries count")
	}
	if cfg.Journal.MaxConns < 0 {
		return errors.New("invalid journal.max_conns")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

// loadEnvironmentVariables handles overrides that use a shorter variable name
// than the nested key.
func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	if envURL := v.GetString("POSTGRES_URL"); envURL != "" {
		cfg.Journal.PostgresURL = envURL
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	return nil
}

func parseOptionalKey(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, nil
	}
	return solana.PublicKeyFromBase58(s)
}

// AuthorityKey returns the configured authority, or the zero key when unset.
func (c *Config) AuthorityKey() (solana.PublicKey, error) {
	return parseOptionalKey(c.Authority)
}

// ProgramKey returns the program id used to derive curve custody addresses.
func (c *Config) ProgramKey() (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(c.ProgramID)
}

// LaunchParams returns Params with the configured fee recipient and withdraw
// authority filled in.
func (c *Config) LaunchParams() (curve.Params, error) {
	p := c.Params
	var err error
	if p.FeeRecipient, err = parseOptionalKey(c.FeeRecipient); err != nil {
		return curve.Params{}, fmt.Errorf("invalid fee_recipient: %w", err)
	}
	if p.WithdrawAuthority, err = parseOptionalKey(c.WithdrawAuthority); err != nil {
		return curve.Params{}, fmt.Errorf("invalid withdraw_authority: %w", err)
	}
	return p, nil
}

// RateLimiter builds the creator throttle.
func (c *Config) RateLimiter() *curve.RateLimiter {
	return &curve.RateLimiter{MaxSharePPM: c.RateLimit.MaxSharePPM, Window: c.RateLimit.Window}
}
