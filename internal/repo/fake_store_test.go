package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/richd0tcom/sensoria/internal/domain"
)

// fakeStore is an in-memory domain.SensorStore keyed by collection name.
// It mirrors the storage contract closely enough to exercise the merge and
// recombination paths: per-collection isolation, sorted finds, grouped
// aggregates. Guarded by a mutex since the repository fans out concurrently.
type fakeStore struct {
	mu   sync.Mutex
	seq  int
	data map[string][]domain.SensorRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]domain.SensorRecord{}}
}

func (f *fakeStore) Insert(_ context.Context, t domain.SensorType, rec domain.SensorRecord) (domain.SensorRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	rec.ID = fmt.Sprintf("%024d", f.seq)
	name := domain.CollectionFor(t)
	f.data[name] = append(f.data[name], rec)
	return rec, nil
}

// put stores a record with a caller-chosen id, for tests that need the same
// id to exist in more than one collection.
func (f *fakeStore) put(t domain.SensorType, rec domain.SensorRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := domain.CollectionFor(t)
	f.data[name] = append(f.data[name], rec)
}

func (f *fakeStore) FindByID(_ context.Context, t domain.SensorType, id string) (domain.SensorRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := domain.CollectionFor(t)
	for _, rec := range f.data[name] {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.SensorRecord{}, &domain.NotFoundError{Collection: name, ID: id}
}

func (f *fakeStore) Find(_ context.Context, t domain.SensorType, q domain.RecordQuery) ([]domain.SensorRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []domain.SensorRecord
	for _, rec := range f.data[domain.CollectionFor(t)] {
		if inRange(rec, q) {
			matched = append(matched, rec)
		}
	}

	field := domain.NormalizeSortField(q.SortField)
	sort.SliceStable(matched, func(i, j int) bool {
		if q.Descending {
			return fieldLess(matched[j], matched[i], field)
		}
		return fieldLess(matched[i], matched[j], field)
	})

	if q.Skip > 0 {
		if q.Skip > int64(len(matched)) {
			matched = nil
		} else {
			matched = matched[q.Skip:]
		}
	}
	if q.Limit > 0 && q.Limit < int64(len(matched)) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (f *fakeStore) Count(_ context.Context, t domain.SensorType, q domain.RecordQuery) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total int64
	for _, rec := range f.data[domain.CollectionFor(t)] {
		if inRange(rec, q) {
			total++
		}
	}
	return total, nil
}

func (f *fakeStore) UpdateByID(_ context.Context, t domain.SensorType, id string, patch domain.RecordPatch) (domain.SensorRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := domain.CollectionFor(t)
	for i, rec := range f.data[name] {
		if rec.ID == id {
			f.data[name][i] = patch.Apply(rec)
			return f.data[name][i], nil
		}
	}
	return domain.SensorRecord{}, &domain.NotFoundError{Collection: name, ID: id}
}

func (f *fakeStore) DeleteByID(_ context.Context, t domain.SensorType, id string) (domain.SensorRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := domain.CollectionFor(t)
	for i, rec := range f.data[name] {
		if rec.ID == id {
			f.data[name] = append(f.data[name][:i:i], f.data[name][i+1:]...)
			return rec, nil
		}
	}
	return domain.SensorRecord{}, &domain.NotFoundError{Collection: name, ID: id}
}

func (f *fakeStore) Aggregate(_ context.Context, t domain.SensorType) (domain.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := f.data[domain.CollectionFor(t)]
	if len(records) == 0 {
		return domain.Stats{}, nil
	}

	stats := domain.Stats{
		Total:         int64(len(records)),
		MinRawValue:   records[0].RawValue,
		MaxRawValue:   records[0].RawValue,
		MinPercentage: records[0].Percentage,
		MaxPercentage: records[0].Percentage,
	}
	var sumRaw, sumPct float64
	for _, rec := range records {
		sumRaw += rec.RawValue
		sumPct += rec.Percentage
		stats.MinRawValue = min(stats.MinRawValue, rec.RawValue)
		stats.MaxRawValue = max(stats.MaxRawValue, rec.RawValue)
		stats.MinPercentage = min(stats.MinPercentage, rec.Percentage)
		stats.MaxPercentage = max(stats.MaxPercentage, rec.Percentage)
	}
	stats.AvgRawValue = sumRaw / float64(stats.Total)
	stats.AvgPercentage = sumPct / float64(stats.Total)
	return stats, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

func inRange(rec domain.SensorRecord, q domain.RecordQuery) bool {
	if q.Start != nil && rec.Timestamp.Before(*q.Start) {
		return false
	}
	if q.End != nil && rec.Timestamp.After(*q.End) {
		return false
	}
	return true
}

func fieldLess(a, b domain.SensorRecord, field string) bool {
	switch field {
	case domain.SortByRawValue:
		return a.RawValue < b.RawValue
	case domain.SortByPercentage:
		return a.Percentage < b.Percentage
	default:
		return a.Timestamp.Before(b.Timestamp)
	}
}
