package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/regions/pkg/domain"
	"github.com/aretw0/regions/pkg/ports"
)

// MockStore is a map-backed StateStore used to check the contract suite itself.
type MockStore struct {
	data map[string]domain.RegionState
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.RegionState),
	}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, state domain.RegionState) error {
	m.data[sessionID] = state.Snapshot()
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (domain.RegionState, error) {
	state, ok := m.data[sessionID]
	if !ok {
		return domain.RegionState{}, domain.ErrSessionNotFound
	}
	return state.Snapshot(), nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewMockStore())
}

func TestFetcherFunc(t *testing.T) {
	called := ""
	f := ports.FetcherFunc(func(ctx context.Context, region string) ([]domain.Country, error) {
		called = region
		return []domain.Country{{Name: "Japan"}}, nil
	})

	countries, err := f.FetchCountries(context.Background(), domain.RegionAsia)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != domain.RegionAsia {
		t.Errorf("expected region %q, got %q", domain.RegionAsia, called)
	}
	if len(countries) != 1 || countries[0].Name != "Japan" {
		t.Errorf("unexpected countries: %+v", countries)
	}
}
