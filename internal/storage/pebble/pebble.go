// Package pebble is a storage.Store and settlement.BalanceStore on top of
// cockroachdb/pebble.
package pebble

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/settlement"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage"
)

// Key layout:
//
//	g                       global config
//	c | mint                bonding curve
//	u | user | mint         user transfer data
//	b | owner | asset       ledger balance (little endian uint64)
const (
	prefixGlobal   byte = 'g'
	prefixCurve    byte = 'c'
	prefixUser     byte = 'u'
	prefixBalance  byte = 'b'
	publicKeyBytes      = 32
)

// Config configures the pebble store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
}

// Store implements storage.Store and settlement.BalanceStore.
type Store struct {
	db      *pebble.DB
	logger  *zap.Logger
	metrics *metrics
}

// Compile-time interface checks.
var (
	_ storage.Store           = (*Store)(nil)
	_ settlement.BalanceStore = (*Store)(nil)
)

// New opens the database. Metrics are registered on reg when it is not nil.
func New(cfg Config, logger *zap.Logger, reg prometheus.Registerer) (*Store, error) {
	logger = logger.Named("pebble")
	opts := &pebble.Options{Logger: logger.Sugar()}
	path := cfg.Path
	if cfg.InMemory {
		opts.FS = vfs.NewMem()
		path = ""
	} else if path == "" {
		return nil, fmt.Errorf("%w: pebble path is empty", storage.ErrInvalidInput)
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %q: %w", path, err)
	}

	m, err := newMetrics(reg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Pebble store opened", zap.String("path", path), zap.Bool("in_memory", cfg.InMemory))
	return &Store{db: db, logger: logger, metrics: m}, nil
}

func curveKey(mint solana.PublicKey) []byte {
	return append([]byte{prefixCurve}, mint[:]...)
}

func userKey(user, mint solana.PublicKey) []byte {
	k := make([]byte, 0, 1+2*publicKeyBytes)
	k = append(k, prefixUser)
	k = append(k, user[:]...)
	return append(k, mint[:]...)
}

func balanceKey(owner, asset solana.PublicKey) []byte {
	k := make([]byte, 0, 1+2*publicKeyBytes)
	k = append(k, prefixBalance)
	k = append(k, owner[:]...)
	return append(k, asset[:]...)
}

// get returns a copy of the value stored at key.
func (s *Store) get(key []byte) ([]byte, error) {
	start := time.Now()
	defer s.metrics.observeGet(start)

	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()
	return bytes.Clone(val), nil
}

func (s *Store) commit(b *pebble.Batch) error {
	defer b.Close()
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("pebble commit: %w", err)
	}
	s.metrics.commits.Inc()
	return nil
}

func (s *Store) Global(_ context.Context) (*curve.GlobalConfig, error) {
	data, err := s.get([]byte{prefixGlobal})
	if err != nil {
		return nil, err
	}
	return storage.DecodeGlobal(data)
}

func (s *Store) SaveGlobal(_ context.Context, g *curve.GlobalConfig) error {
	if g == nil {
		return storage.ErrInvalidInput
	}
	data, err := storage.EncodeGlobal(g)
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	if err := b.Set([]byte{prefixGlobal}, data, nil); err != nil {
		b.Close()
		return err
	}
	return s.commit(b)
}

func (s *Store) Curve(_ context.Context, mint solana.PublicKey) (*curve.BondingCurve, error) {
	data, err := s.get(curveKey(mint))
	if err != nil {
		return nil, err
	}
	return storage.DecodeCurve(data)
}

// CreateCurve relies on the caller serializing creates of the same mint.
func (s *Store) CreateCurve(_ context.Context, c *curve.BondingCurve) error {
	if c == nil {
		return storage.ErrInvalidInput
	}
	key := curveKey(c.Mint)
	if _, err := s.get(key); err == nil {
		return storage.ErrDuplicateKey
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	data, err := storage.EncodeCurve(c)
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	if err := b.Set(key, data, nil); err != nil {
		b.Close()
		return err
	}
	return s.commit(b)
}

func (s *Store) Curves(_ context.Context) ([]*curve.BondingCurve, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{prefixCurve},
		UpperBound: []byte{prefixCurve + 1},
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	var out []*curve.BondingCurve
	for iter.First(); iter.Valid(); iter.Next() {
		c, err := storage.DecodeCurve(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("curve %x: %w", iter.Key()[1:], err)
		}
		out = append(out, c)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out, nil
}

func (s *Store) TransferData(_ context.Context, user, mint solana.PublicKey) (*curve.UserTransferData, error) {
	data, err := s.get(userKey(user, mint))
	if err != nil {
		return nil, err
	}
	return storage.DecodeTransferData(data)
}

func (s *Store) CommitTrade(_ context.Context, c *curve.BondingCurve, user solana.PublicKey, record *curve.UserTransferData) error {
	if c == nil || record == nil {
		return storage.ErrInvalidInput
	}
	if _, err := s.get(curveKey(c.Mint)); err != nil {
		return err
	}
	curveData, err := storage.EncodeCurve(c)
	if err != nil {
		return err
	}
	recordData, err := storage.EncodeTransferData(record)
	if err != nil {
		return err
	}

	b := s.db.NewBatch()
	if err := b.Set(curveKey(c.Mint), curveData, nil); err != nil {
		b.Close()
		return err
	}
	if err := b.Set(userKey(user, c.Mint), recordData, nil); err != nil {
		b.Close()
		return err
	}
	return s.commit(b)
}

// Balance implements settlement.BalanceStore.
func (s *Store) Balance(_ context.Context, owner, asset solana.PublicKey) (uint64, error) {
	data, err := s.get(balanceKey(owner, asset))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: balance of %s is %d bytes", storage.ErrCorruptRecord, owner, len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

// SetBalances implements settlement.BalanceStore.
func (s *Store) SetBalances(_ context.Context, balances map[settlement.Account]uint64) error {
	b := s.db.NewBatch()
	for a, v := range balances {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v)
		if err := b.Set(balanceKey(a.Owner, a.Asset), buf[:], nil); err != nil {
			b.Close()
			return err
		}
	}
	return s.commit(b)
}

func (s *Store) Close() error {
	s.logger.Debug("Closing pebble store")
	return s.db.Close()
}
