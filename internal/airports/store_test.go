package airports

import (
	"context"
	"errors"
	"testing"

	"github.com/pmartell/flight-delay-frontend/internal/models"
)

type mockClient struct {
	airports []models.Airport
	err      error
}

func (m *mockClient) Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error) {
	return models.PredictionResult{}, nil
}

func (m *mockClient) ListAirports(ctx context.Context) ([]models.Airport, error) {
	return m.airports, m.err
}

func (m *mockClient) Ping(ctx context.Context) error {
	return nil
}

func TestStore_Load_SortsAlphabetically(t *testing.T) {
	// Upstream order must not matter
	c := &mockClient{airports: []models.Airport{
		{ID: 13930, Name: "ORD"},
		{ID: 10397, Name: "ATL"},
		{ID: 12478, Name: "JFK"},
	}}
	s := NewStore()

	if err := s.Load(context.Background(), c); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !s.Ready() {
		t.Fatal("Ready() = false after successful Load")
	}

	got := s.All()
	want := []string{"ATL", "JFK", "ORD"}
	if len(got) != len(want) {
		t.Fatalf("All() returned %d airports, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("All()[%d].Name = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestStore_Load_Deduplicates(t *testing.T) {
	c := &mockClient{airports: []models.Airport{
		{ID: 12478, Name: "JFK"},
		{ID: 12478, Name: "JFK"},
		{ID: 13930, Name: "ORD"},
	}}
	s := NewStore()

	if err := s.Load(context.Background(), c); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := s.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2 after dedup", got)
	}
}

func TestStore_Load_Failure(t *testing.T) {
	c := &mockClient{err: errors.New("connection refused")}
	s := NewStore()

	if err := s.Load(context.Background(), c); err == nil {
		t.Fatal("Load() expected error, got nil")
	}
	if s.Ready() {
		t.Error("Ready() = true after failed Load, want false")
	}
	if s.LoadError() == nil {
		t.Error("LoadError() = nil after failed Load")
	}
	if _, ok := s.Lookup(12478); ok {
		t.Error("Lookup() succeeded on unready store")
	}
}

func TestStore_Load_OnlyOnce(t *testing.T) {
	c := &mockClient{airports: []models.Airport{{ID: 1, Name: "ATL"}}}
	s := NewStore()

	if err := s.Load(context.Background(), c); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if err := s.Load(context.Background(), c); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("second Load() error = %v, want ErrAlreadyLoaded", err)
	}
}

func TestStore_Lookup(t *testing.T) {
	c := &mockClient{airports: []models.Airport{
		{ID: 12478, Name: "JFK", City: "New York", State: "NY"},
	}}
	s := NewStore()
	if err := s.Load(context.Background(), c); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	a, ok := s.Lookup(12478)
	if !ok {
		t.Fatal("Lookup(12478) not found")
	}
	if a.Name != "JFK" {
		t.Errorf("Lookup(12478).Name = %q, want JFK", a.Name)
	}
	if _, ok := s.Lookup(99999); ok {
		t.Error("Lookup(99999) found, want missing")
	}
}
