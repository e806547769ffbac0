package domain

import "time"

// SensorType identifies one of the reading categories. Values outside the
// enumerated set are accepted and routed to the generic collection.
type SensorType string

const (
	TypeSound       SensorType = "sound"
	TypeLight       SensorType = "light"
	TypeTemperature SensorType = "temperature"
	TypeHumidity    SensorType = "humidity"
	TypePressure    SensorType = "pressure"
)

// DefaultCollection stores readings created under an unrecognized type.
const DefaultCollection = "sensors"

// EnumeratedTypes returns the known sensor types in their canonical order.
// Untyped lookups probe collections in exactly this order.
func EnumeratedTypes() []SensorType {
	return []SensorType{TypeSound, TypeLight, TypeTemperature, TypeHumidity, TypePressure}
}

// CollectionFor resolves a sensor type to its collection name. Total: every
// input maps somewhere, unknown types fall back to the generic collection.
func CollectionFor(t SensorType) string {
	switch t {
	case TypeSound:
		return "sounds"
	case TypeLight:
		return "lights"
	case TypeTemperature:
		return "temperatures"
	case TypeHumidity:
		return "humidities"
	case TypePressure:
		return "pressures"
	default:
		return DefaultCollection
	}
}

// SensorRecord is one stored reading. ID is assigned by storage on insert
// and immutable afterwards.
type SensorRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	RawValue   float64   `json:"raw_value"`
	Percentage float64   `json:"percentage"`
}

// Validate checks the stored-record invariants: raw_value must not be
// negative and percentage must lie in [0, 100].
func (r SensorRecord) Validate() error {
	var verr ValidationError
	if r.RawValue < 0 {
		verr.Add("raw_value", "must not be negative")
	}
	if r.Percentage < 0 || r.Percentage > 100 {
		verr.Add("percentage", "must be between 0 and 100")
	}
	if len(verr.Fields) > 0 {
		return &verr
	}
	return nil
}

// NewRecord is the write-time input shape. Pointer fields distinguish a
// missing value from a zero one.
type NewRecord struct {
	Timestamp  *time.Time `json:"timestamp"`
	RawValue   *float64   `json:"raw_value"`
	Percentage *float64   `json:"percentage"`
}

// Record materializes the input into a SensorRecord, defaulting the
// timestamp to now. It reports every missing or out-of-range field in a
// single ValidationError.
func (n NewRecord) Record(now time.Time) (SensorRecord, error) {
	var verr ValidationError
	if n.RawValue == nil {
		verr.Add("raw_value", "is required")
	}
	if n.Percentage == nil {
		verr.Add("percentage", "is required")
	}
	if len(verr.Fields) > 0 {
		return SensorRecord{}, &verr
	}

	rec := SensorRecord{
		Timestamp:  now,
		RawValue:   *n.RawValue,
		Percentage: *n.Percentage,
	}
	if n.Timestamp != nil {
		rec.Timestamp = *n.Timestamp
	}
	if err := rec.Validate(); err != nil {
		return SensorRecord{}, err
	}
	return rec, nil
}

// RecordPatch is a partial overwrite of a stored record. Nil fields are
// left untouched.
type RecordPatch struct {
	Timestamp  *time.Time `json:"timestamp"`
	RawValue   *float64   `json:"raw_value"`
	Percentage *float64   `json:"percentage"`
}

// Apply returns a copy of rec with the patch's set fields overwritten.
func (p RecordPatch) Apply(rec SensorRecord) SensorRecord {
	if p.Timestamp != nil {
		rec.Timestamp = *p.Timestamp
	}
	if p.RawValue != nil {
		rec.RawValue = *p.RawValue
	}
	if p.Percentage != nil {
		rec.Percentage = *p.Percentage
	}
	return rec
}

// Empty reports whether the patch sets no fields.
func (p RecordPatch) Empty() bool {
	return p.Timestamp == nil && p.RawValue == nil && p.Percentage == nil
}

// Stats summarizes one or more collections of readings.
type Stats struct {
	Total         int64   `json:"total"`
	AvgRawValue   float64 `json:"avgRawValue"`
	AvgPercentage float64 `json:"avgPercentage"`
	MinRawValue   float64 `json:"minRawValue"`
	MaxRawValue   float64 `json:"maxRawValue"`
	MinPercentage float64 `json:"minPercentage"`
	MaxPercentage float64 `json:"maxPercentage"`
}

// Sortable fields for record queries.
const (
	SortByTimestamp  = "timestamp"
	SortByRawValue   = "raw_value"
	SortByPercentage = "percentage"
)

// NormalizeSortField maps an arbitrary sort key to a supported field,
// defaulting to timestamp.
func NormalizeSortField(field string) string {
	switch field {
	case SortByRawValue, SortByPercentage:
		return field
	default:
		return SortByTimestamp
	}
}

// RecordQuery is the storage-level find/count shape: an optional inclusive
// timestamp range plus sort, skip and limit. Limit 0 means unlimited.
type RecordQuery struct {
	Start      *time.Time
	End        *time.Time
	SortField  string
	Descending bool
	Skip       int64
	Limit      int64
}
