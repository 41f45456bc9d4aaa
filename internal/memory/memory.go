// Package memory is an in-process ledger repository. It backs the "memory"
// data backend and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	users  []core.User
	cats   []core.Category
	items  []core.Transaction
	events []core.LedgerEvent
}

func New() *Store {
	return &Store{}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Close() error {
	return nil
}

// CreateUser stores u and assigns its ids.
func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, fmt.Errorf("user %s: %w", u.Email, ports.ErrAlreadyExists)
		}
	}
	u.ID = s.id()
	if u.PublicID == "" {
		u.PublicID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %d: %w", id, ports.ErrNotFound)
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %s: %w", email, ports.ErrNotFound)
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.User(nil), s.users...), nil
}

func (s *Store) TouchLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].LastLogin = &at
			return nil
		}
	}
	return fmt.Errorf("user %d: %w", id, ports.ErrNotFound)
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, u := range s.users {
		if u.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("user %d: %w", id, ports.ErrNotFound)
	}
	s.users = append(s.users[:idx], s.users[idx+1:]...)
	s.cats = filter(s.cats, func(c core.Category) bool { return c.OwnerID != id })
	s.items = filter(s.items, func(t core.Transaction) bool { return t.OwnerID != id })
	return nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cats {
		if existing.OwnerID == c.OwnerID && existing.Name == c.Name {
			return core.Category{}, fmt.Errorf("category %q: %w", c.Name, ports.ErrAlreadyExists)
		}
	}
	c.ID = s.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.cats = append(s.cats, c)
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, ownerID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := filter(s.cats, func(c core.Category) bool { return c.OwnerID == ownerID })
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCategoryByName(_ context.Context, ownerID int64, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cats {
		if c.OwnerID == ownerID && c.Name == name {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %q: %w", name, ports.ErrNotFound)
}

func (s *Store) DeleteCategory(_ context.Context, ownerID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cats {
		if c.OwnerID != ownerID || c.Name != name {
			continue
		}
		for j := range s.items {
			if s.items[j].CategoryID != nil && *s.items[j].CategoryID == c.ID {
				s.items[j].CategoryID = nil
			}
		}
		s.cats = append(s.cats[:i], s.cats[i+1:]...)
		return nil
	}
	return fmt.Errorf("category %q: %w", name, ports.ErrNotFound)
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	t.Amount = core.RoundAmount(t.Amount)
	t.CategoryID = cloneID(t.CategoryID)
	s.items = append(s.items, t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == t.ID && s.items[i].OwnerID == t.OwnerID {
			t.Amount = core.RoundAmount(t.Amount)
			t.CategoryID = cloneID(t.CategoryID)
			s.items[i] = t
			return nil
		}
	}
	return fmt.Errorf("transaction %d: %w", t.ID, ports.ErrNotFound)
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.items {
		if t.ID == id && t.OwnerID == ownerID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %d: %w", id, ports.ErrNotFound)
}

func (s *Store) GetTransaction(_ context.Context, ownerID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.items {
		if t.ID == id && t.OwnerID == ownerID {
			t.CategoryID = cloneID(t.CategoryID)
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ports.ErrNotFound)
}

func (s *Store) FindTransactionByDescription(_ context.Context, ownerID int64, description string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.items {
		if t.OwnerID == ownerID && t.Description == description {
			t.CategoryID = cloneID(t.CategoryID)
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %q: %w", description, ports.ErrNotFound)
}

// ListByOwner returns copies so callers cannot reach the store's state.
func (s *Store) ListByOwner(_ context.Context, ownerID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owned(ownerID), nil
}

func (s *Store) ListByOwnerFiltered(_ context.Context, ownerID int64, f core.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	owned := s.owned(ownerID)
	s.mu.Unlock()
	return core.Search(owned, f)
}

// RecordEvent keeps an audit trail in memory.
func (s *Store) RecordEvent(_ context.Context, e core.LedgerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// ListEvents returns the owner's audit trail, oldest first.
func (s *Store) ListEvents(_ context.Context, ownerID int64) ([]core.LedgerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.events, func(e core.LedgerEvent) bool { return e.OwnerID == ownerID }), nil
}

func (s *Store) owned(ownerID int64) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, t := range s.items {
		if t.OwnerID == ownerID {
			t.CategoryID = cloneID(t.CategoryID)
			out = append(out, t)
		}
	}
	return out
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
