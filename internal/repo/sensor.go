package repo

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/richd0tcom/sensoria/internal/domain"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// SensorRepository is the generic access layer over the per-type
// collections: single-type operations push work down to storage, all-types
// operations fan out per collection and recombine in memory.
type SensorRepository struct {
	store domain.SensorStore
}

func New(store domain.SensorStore) *SensorRepository {
	return &SensorRepository{store: store}
}

// Create validates the input and inserts it into the collection for the
// given type. The timestamp defaults to now when omitted.
func (r *SensorRepository) Create(ctx context.Context, t domain.SensorType, in domain.NewRecord) (domain.SensorRecord, error) {
	rec, err := in.Record(time.Now().UTC())
	if err != nil {
		return domain.SensorRecord{}, err
	}
	return r.store.Insert(ctx, t, rec)
}

// FindByID looks a record up in the given type's collection, or, when the
// type is empty, probes every enumerated collection in canonical order and
// returns the first match. Ids are not unique across collections, so the
// probe order is part of the contract.
func (r *SensorRepository) FindByID(ctx context.Context, id string, t domain.SensorType) (domain.SensorRecord, error) {
	if t != "" {
		return r.store.FindByID(ctx, t, id)
	}

	for _, probe := range domain.EnumeratedTypes() {
		rec, err := r.store.FindByID(ctx, probe, id)
		if err == nil {
			return rec, nil
		}
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			continue
		}
		return domain.SensorRecord{}, err
	}
	return domain.SensorRecord{}, &domain.NotFoundError{ID: id}
}

// ListOptions selects and paginates readings.
type ListOptions struct {
	Page       int64
	Limit      int64
	SensorType domain.SensorType
	Start      *time.Time
	End        *time.Time
	SortField  string
	Ascending  bool
}

// Pagination describes one page of a result set.
type Pagination struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// RecordPage is one page of readings plus its pagination metadata.
type RecordPage struct {
	Records    []domain.SensorRecord
	Pagination Pagination
}

// FindAll returns one page of readings. With a sensor type the filter, sort
// and pagination are pushed down to storage; without one it must fetch all
// matches from every enumerated collection, sort the combined sequence and
// paginate that. Paginating per collection before merging would be wrong:
// page boundaries have to fall on the globally sorted order.
func (r *SensorRepository) FindAll(ctx context.Context, opts ListOptions) (RecordPage, error) {
	if opts.Page < 1 {
		opts.Page = defaultPage
	}
	if opts.Limit < 1 {
		opts.Limit = defaultLimit
	}
	opts.SortField = domain.NormalizeSortField(opts.SortField)

	if opts.SensorType != "" {
		return r.findAllTyped(ctx, opts)
	}
	return r.findAllMerged(ctx, opts)
}

func (r *SensorRepository) findAllTyped(ctx context.Context, opts ListOptions) (RecordPage, error) {
	q := domain.RecordQuery{
		Start:      opts.Start,
		End:        opts.End,
		SortField:  opts.SortField,
		Descending: !opts.Ascending,
		Skip:       (opts.Page - 1) * opts.Limit,
		Limit:      opts.Limit,
	}

	var (
		records []domain.SensorRecord
		total   int64
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = r.store.Find(ctx, opts.SensorType, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = r.store.Count(ctx, opts.SensorType, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return RecordPage{}, err
	}

	return RecordPage{
		Records:    records,
		Pagination: paginate(opts.Page, opts.Limit, total),
	}, nil
}

func (r *SensorRepository) findAllMerged(ctx context.Context, opts ListOptions) (RecordPage, error) {
	types := domain.EnumeratedTypes()
	perType := make([][]domain.SensorRecord, len(types))

	q := domain.RecordQuery{
		Start:      opts.Start,
		End:        opts.End,
		SortField:  opts.SortField,
		Descending: !opts.Ascending,
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, t := range types {
		i, t := i, t
		g.Go(func() error {
			records, err := r.store.Find(ctx, t, q)
			if err != nil {
				return err
			}
			perType[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RecordPage{}, err
	}

	var all []domain.SensorRecord
	for _, records := range perType {
		all = append(all, records...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if opts.Ascending {
			return recordLess(all[i], all[j], opts.SortField)
		}
		return recordLess(all[j], all[i], opts.SortField)
	})

	total := int64(len(all))
	start := (opts.Page - 1) * opts.Limit
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	return RecordPage{
		Records:    all[start:end],
		Pagination: paginate(opts.Page, opts.Limit, total),
	}, nil
}

func recordLess(a, b domain.SensorRecord, field string) bool {
	switch field {
	case domain.SortByRawValue:
		return a.RawValue < b.RawValue
	case domain.SortByPercentage:
		return a.Percentage < b.Percentage
	default:
		return a.Timestamp.Before(b.Timestamp)
	}
}

func paginate(page, limit, total int64) Pagination {
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}
}

// Update loads the record, applies the patch, revalidates the full result
// against the record invariants and persists it. The type is mandatory:
// there is no cross-collection fallback on writes.
func (r *SensorRepository) Update(ctx context.Context, t domain.SensorType, id string, patch domain.RecordPatch) (domain.SensorRecord, error) {
	current, err := r.store.FindByID(ctx, t, id)
	if err != nil {
		return domain.SensorRecord{}, err
	}
	if err := patch.Apply(current).Validate(); err != nil {
		return domain.SensorRecord{}, err
	}
	return r.store.UpdateByID(ctx, t, id, patch)
}

// Delete removes and returns the record. The type is mandatory.
func (r *SensorRepository) Delete(ctx context.Context, t domain.SensorType, id string) (domain.SensorRecord, error) {
	return r.store.DeleteByID(ctx, t, id)
}

// Stats aggregates one collection, or, when the type is empty, recombines
// the per-collection aggregates: totals sum, averages recombine as a
// count-weighted mean, mins and maxes fold. The weighted mean is exact one
// tier deep; a further aggregation tier would have to recombine from raw
// sums instead.
func (r *SensorRepository) Stats(ctx context.Context, t domain.SensorType) (domain.Stats, error) {
	if t != "" {
		return r.store.Aggregate(ctx, t)
	}

	types := domain.EnumeratedTypes()
	perType := make([]domain.Stats, len(types))

	g, ctx := errgroup.WithContext(ctx)
	for i, st := range types {
		i, st := i, st
		g.Go(func() error {
			stats, err := r.store.Aggregate(ctx, st)
			if err != nil {
				return err
			}
			perType[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Stats{}, err
	}

	combined := domain.Stats{
		MinRawValue:   math.Inf(1),
		MaxRawValue:   math.Inf(-1),
		MinPercentage: math.Inf(1),
		MaxPercentage: math.Inf(-1),
	}
	var weightedRaw, weightedPct float64

	for _, s := range perType {
		if s.Total == 0 {
			continue
		}
		combined.Total += s.Total
		weightedRaw += s.AvgRawValue * float64(s.Total)
		weightedPct += s.AvgPercentage * float64(s.Total)
		combined.MinRawValue = math.Min(combined.MinRawValue, s.MinRawValue)
		combined.MaxRawValue = math.Max(combined.MaxRawValue, s.MaxRawValue)
		combined.MinPercentage = math.Min(combined.MinPercentage, s.MinPercentage)
		combined.MaxPercentage = math.Max(combined.MaxPercentage, s.MaxPercentage)
	}

	if combined.Total == 0 {
		return domain.Stats{}, nil
	}
	combined.AvgRawValue = weightedRaw / float64(combined.Total)
	combined.AvgPercentage = weightedPct / float64(combined.Total)
	return combined, nil
}

// Ping reports storage connectivity for the health endpoint.
func (r *SensorRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
