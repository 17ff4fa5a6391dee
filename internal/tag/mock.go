package tag

import (
	"context"
	"time"
)

// MockRepository implements Repository in memory. It exists so tests in
// this and other packages can exercise a Registry without SQLite.
// Not safe for concurrent use.
type MockRepository struct {
	records map[string]Record
}

// NewMockRepository creates an empty in-memory repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{records: make(map[string]Record)}
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *MockRepository) List(_ context.Context) ([]Record, error) {
	recs := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (m *MockRepository) Create(_ context.Context, rec *Record) error {
	if _, ok := m.records[rec.ID]; ok {
		return ErrExists
	}
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = time.Now()
	}
	m.records[rec.ID] = *rec
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id string) error {
	delete(m.records, id)
	return nil
}

func (m *MockRepository) LastUpdatedTime(_ context.Context) (time.Time, error) {
	var last time.Time
	for _, rec := range m.records {
		if rec.LastUpdated.After(last) {
			last = rec.LastUpdated
		}
	}
	return last, nil
}

func (m *MockRepository) ReplaceAll(_ context.Context, recs []Record) error {
	m.records = make(map[string]Record, len(recs))
	now := time.Now()
	for _, rec := range recs {
		if rec.LastUpdated.IsZero() {
			rec.LastUpdated = now
		}
		m.records[rec.ID] = rec
	}
	return nil
}

var _ Repository = (*MockRepository)(nil)
