// Package memory provides an in-memory ledger store used as the
// default backend and as a test double. All methods are safe for
// concurrent use; every read hands out a fresh copy.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

type Store struct {
	mu           sync.RWMutex
	transactions []core.Transaction
	categories   []core.Category
	settings     ledger.Settings
}

var _ ledger.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{settings: ledger.DefaultSettings()}
}

func (s *Store) Add(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, t)
	return nil
}

func (s *Store) Update(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == t.ID {
			s.transactions[i] = t
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, ledger.ErrNotFound
}

func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

func (s *Store) ListByRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterByRange(all, r), nil
}

func (s *Store) LoadSettings(_ context.Context) (ledger.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings ledger.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *Store) SaveCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == c.ID {
			s.categories[i] = c
			return nil
		}
	}
	s.categories = append(s.categories, c)
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

// ReplaceAll swaps the whole transaction collection, used by backup
// restore. Insertion order follows the given slice.
func (s *Store) ReplaceAll(_ context.Context, transactions []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = make([]core.Transaction, len(transactions))
	copy(s.transactions, transactions)
	return nil
}
