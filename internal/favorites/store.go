package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrExists is returned when adding a city whose ID is already stored.
	ErrExists = errors.New("favorite already exists")
	// ErrNotFound is returned when removing an ID that is not stored.
	ErrNotFound = errors.New("favorite not found")
	// ErrInvalid is returned for a city without a name.
	ErrInvalid = errors.New("favorite needs a name")
)

// City is a bookmarked location.
type City struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// ID returns the identity key "name-country".
func (c City) ID() string {
	return c.Name + "-" + c.Country
}

// Persister is a durable home for the whole favorites list.
type Persister interface {
	Load(ctx context.Context) ([]City, error)
	Save(ctx context.Context, cities []City) error
}

// Store is the in-memory favorites list, written through to a Persister on every change.
// It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	cities    []City
	persister Persister
}

// NewStore constructs an empty Store. Call Load before serving.
func NewStore(p Persister) *Store {
	return &Store{persister: p}
}

// Load replaces the in-memory list with the persisted one.
// Persisted duplicates keep their first occurrence.
func (s *Store) Load(ctx context.Context) error {
	cities, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading favorites: %w", err)
	}

	seen := make(map[string]struct{}, len(cities))
	deduped := make([]City, 0, len(cities))
	for _, c := range cities {
		if _, ok := seen[c.ID()]; ok {
			continue
		}
		seen[c.ID()] = struct{}{}
		deduped = append(deduped, c)
	}

	s.mu.Lock()
	s.cities = deduped
	s.mu.Unlock()
	return nil
}

// List returns a copy of the favorites in insertion order.
func (s *Store) List() []City {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]City, len(s.cities))
	copy(out, s.cities)
	return out
}

// Contains reports whether id is stored.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// Add appends c and persists the list.
func (s *Store) Add(ctx context.Context, c City) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Country = strings.TrimSpace(c.Country)
	if c.Name == "" {
		return ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(c.ID()) >= 0 {
		return fmt.Errorf("%w: %s", ErrExists, c.ID())
	}

	next := make([]City, 0, len(s.cities)+1)
	next = append(next, s.cities...)
	next = append(next, c)
	return s.commit(ctx, next)
}

// Remove deletes the city with the given id and persists the list.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := make([]City, 0, len(s.cities)-1)
	next = append(next, s.cities[:i]...)
	next = append(next, s.cities[i+1:]...)
	return s.commit(ctx, next)
}

// Toggle removes c if it is stored and adds it otherwise.
// It reports whether c is a favorite afterwards.
func (s *Store) Toggle(ctx context.Context, c City) (bool, error) {
	if s.Contains(c.ID()) {
		if err := s.Remove(ctx, c.ID()); err != nil && !errors.Is(err, ErrNotFound) {
			return true, err
		}
		return false, nil
	}
	if err := s.Add(ctx, c); err != nil && !errors.Is(err, ErrExists) {
		return false, err
	}
	return true, nil
}

// commit persists next and only then swaps it in. Caller holds mu.
func (s *Store) commit(ctx context.Context, next []City) error {
	if err := s.persister.Save(ctx, next); err != nil {
		return fmt.Errorf("saving favorites: %w", err)
	}
	s.cities = next
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, c := range s.cities {
		if c.ID() == id {
			return i
		}
	}
	return -1
}
