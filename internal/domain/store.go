package domain

import "context"

// SensorStore is the per-collection storage contract. Every operation is a
// fresh round trip; no caching happens on this side of the boundary.
type SensorStore interface {
	Insert(ctx context.Context, t SensorType, rec SensorRecord) (SensorRecord, error)
	FindByID(ctx context.Context, t SensorType, id string) (SensorRecord, error)
	Find(ctx context.Context, t SensorType, q RecordQuery) ([]SensorRecord, error)
	Count(ctx context.Context, t SensorType, q RecordQuery) (int64, error)
	UpdateByID(ctx context.Context, t SensorType, id string, patch RecordPatch) (SensorRecord, error)
	DeleteByID(ctx context.Context, t SensorType, id string) (SensorRecord, error)
	Aggregate(ctx context.Context, t SensorType) (Stats, error)
	Ping(ctx context.Context) error
	Close() error
}
