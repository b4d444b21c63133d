package memory

import (
	"context"
	"fmt"
	"sync"

	"powerbill/internal/core"
)

// Store keeps bills in creation order and issues their ids.
type Store struct {
	mu     sync.Mutex
	nextID int64
	bills  []core.Bill
}

func New() *Store {
	return &Store{nextID: 1}
}

// NextID returns the next unused bill id. Ids are never reused.
func (s *Store) NextID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id, nil
}

// Append stores the bill at the end of the collection.
func (s *Store) Append(_ context.Context, b core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.bills); n > 0 && b.ID <= s.bills[n-1].ID {
		return fmt.Errorf("append bill %d: id must exceed %d", b.ID, s.bills[n-1].ID)
	}
	if b.ID >= s.nextID {
		s.nextID = b.ID + 1
	}
	s.bills = append(s.bills, b.Clone())
	return nil
}

// FindByID returns a copy of the bill with the given id.
func (s *Store) FindByID(_ context.Context, id int64) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Bill{}, fmt.Errorf("%w: %d", core.ErrBillNotFound, id)
	}
	return s.bills[i].Clone(), nil
}

// Update replaces the stored bill. b.Ledger must be the stored ledger
// followed by newEntries.
func (s *Store) Update(_ context.Context, b core.Bill, newEntries ...core.TransactionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(b.ID)
	if i < 0 {
		return fmt.Errorf("%w: %d", core.ErrBillNotFound, b.ID)
	}
	if want := len(s.bills[i].Ledger) + len(newEntries); len(b.Ledger) != want {
		return fmt.Errorf("update bill %d: ledger has %d entries, want %d", b.ID, len(b.Ledger), want)
	}
	s.bills[i] = b.Clone()
	return nil
}

// List returns copies of all bills in creation order.
func (s *Store) List(_ context.Context) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Bill, len(s.bills))
	for i, b := range s.bills {
		out[i] = b.Clone()
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(id int64) int {
	for i := range s.bills {
		if s.bills[i].ID == id {
			return i
		}
	}
	return -1
}
