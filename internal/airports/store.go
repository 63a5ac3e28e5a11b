package airports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pmartell/flight-delay-frontend/internal/client"
	"github.com/pmartell/flight-delay-frontend/internal/models"
	"github.com/pmartell/flight-delay-frontend/internal/observability"
)

// ErrAlreadyLoaded is returned when Load is called twice; the list is
// populated exactly once per process.
var ErrAlreadyLoaded = errors.New("airport list already loaded")

// ErrNotReady is returned by lookups before a successful Load. Recovery is a
// process restart; there is no retry path.
var ErrNotReady = errors.New("airport list not loaded")

// Store holds the airport list for the lifetime of the process. Loaded once
// at startup, deduplicated by ID, sorted lexicographically by name.
type Store struct {
	mu       sync.RWMutex
	airports []models.Airport
	byID     map[int]models.Airport
	ready    bool
	loaded   bool
	loadErr  error
}

func NewStore() *Store {
	return &Store{byID: make(map[int]models.Airport)}
}

// Load fetches the airport list from the prediction API. On failure the
// store stays Not Ready and the error is retained for display; the submit
// path is unusable until a restart.
func (s *Store) Load(ctx context.Context, c client.PredictionClient) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return ErrAlreadyLoaded
	}
	s.loaded = true
	s.mu.Unlock()

	list, err := c.ListAirports(ctx)
	if err != nil {
		s.mu.Lock()
		s.loadErr = fmt.Errorf("load airports: %w", err)
		s.mu.Unlock()
		return s.loadErr
	}

	byID := make(map[int]models.Airport, len(list))
	deduped := make([]models.Airport, 0, len(list))
	for _, a := range list {
		if _, seen := byID[a.ID]; seen {
			continue
		}
		byID[a.ID] = a
		deduped = append(deduped, a)
	}
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].Name != deduped[j].Name {
			return deduped[i].Name < deduped[j].Name
		}
		return deduped[i].ID < deduped[j].ID
	})

	s.mu.Lock()
	s.airports = deduped
	s.byID = byID
	s.ready = true
	s.mu.Unlock()

	observability.AirportsLoaded.Set(float64(len(deduped)))
	return nil
}

// Ready reports whether the list loaded successfully. The submit control is
// only usable once this is true.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// LoadError returns the retained load failure, or nil.
func (s *Store) LoadError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// All returns the sorted airport list. The returned slice is a copy.
func (s *Store) All() []models.Airport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Airport, len(s.airports))
	copy(out, s.airports)
	return out
}

// Lookup returns the airport with the given ID, if loaded.
func (s *Store) Lookup(id int) (models.Airport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return models.Airport{}, false
	}
	a, ok := s.byID[id]
	return a, ok
}

// Count returns the number of loaded airports.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.airports)
}
