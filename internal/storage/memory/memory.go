// Package memory provides an in-process storage.Store.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage"
)

type transferKey struct {
	user solana.PublicKey
	mint solana.PublicKey
}

// Store implements storage.Store with maps. All values are copied in and out.
type Store struct {
	mu        sync.RWMutex
	global    *curve.GlobalConfig
	curves    map[solana.PublicKey]*curve.BondingCurve
	transfers map[transferKey]curve.UserTransferData
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		curves:    make(map[solana.PublicKey]*curve.BondingCurve),
		transfers: make(map[transferKey]curve.UserTransferData),
	}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

func (s *Store) Global(_ context.Context) (*curve.GlobalConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.global == nil {
		return nil, storage.ErrNotFound
	}
	g := *s.global
	return &g, nil
}

func (s *Store) SaveGlobal(_ context.Context, g *curve.GlobalConfig) error {
	if g == nil {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.global = &cp
	return nil
}

func (s *Store) Curve(_ context.Context, mint solana.PublicKey) (*curve.BondingCurve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.curves[mint]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Store) CreateCurve(_ context.Context, c *curve.BondingCurve) error {
	if c == nil {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.curves[c.Mint]; exists {
		return storage.ErrDuplicateKey
	}
	s.curves[c.Mint] = c.Clone()
	return nil
}

// Curves returns all curves ordered by creation time, then mint.
func (s *Store) Curves(_ context.Context) ([]*curve.BondingCurve, error) {
	s.mu.RLock()
	out := make([]*curve.BondingCurve, 0, len(s.curves))
	for _, c := range s.curves {
		out = append(out, c.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return bytes.Compare(out[i].Mint[:], out[j].Mint[:]) < 0
	})
	return out, nil
}

func (s *Store) TransferData(_ context.Context, user, mint solana.PublicKey) (*curve.UserTransferData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.transfers[transferKey{user: user, mint: mint}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &d, nil
}

func (s *Store) CommitTrade(_ context.Context, c *curve.BondingCurve, user solana.PublicKey, record *curve.UserTransferData) error {
	if c == nil || record == nil {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.curves[c.Mint]; !ok {
		return storage.ErrNotFound
	}
	s.curves[c.Mint] = c.Clone()
	s.transfers[transferKey{user: user, mint: c.Mint}] = *record
	return nil
}

func (s *Store) Close() error {
	return nil
}
