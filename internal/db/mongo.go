package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/richd0tcom/sensoria/internal/domain"
)

// MongoSensorStore implements domain.SensorStore on one Mongo database with
// a collection per sensor type plus the generic fallback collection.
type MongoSensorStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoConnection(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_ = client.Ping(ctx, readpref.Primary())

	return client, nil
}

func NewMongoSensorStore(client *mongo.Client, database string) (*MongoSensorStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db := client.Database(database)

	index := mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	}
	for _, t := range domain.EnumeratedTypes() {
		db.Collection(domain.CollectionFor(t)).Indexes().CreateOne(ctx, index)
	}
	db.Collection(domain.DefaultCollection).Indexes().CreateOne(ctx, index)

	return &MongoSensorStore{
		client: client,
		db:     db,
	}, nil
}

// sensorDoc is the wire shape of a reading. The domain keeps ids as opaque
// hex strings; conversion to ObjectID happens only here.
type sensorDoc struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Timestamp  time.Time     `bson:"timestamp"`
	RawValue   float64       `bson:"raw_value"`
	Percentage float64       `bson:"percentage"`
}

func (d sensorDoc) record() domain.SensorRecord {
	return domain.SensorRecord{
		ID:         d.ID.Hex(),
		Timestamp:  d.Timestamp,
		RawValue:   d.RawValue,
		Percentage: d.Percentage,
	}
}

func (m *MongoSensorStore) collection(t domain.SensorType) *mongo.Collection {
	return m.db.Collection(domain.CollectionFor(t))
}

func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		verr := &domain.ValidationError{}
		verr.Add("id", "is not a valid object id")
		return bson.ObjectID{}, verr
	}
	return oid, nil
}

func (m *MongoSensorStore) Insert(ctx context.Context, t domain.SensorType, rec domain.SensorRecord) (domain.SensorRecord, error) {
	doc := sensorDoc{
		Timestamp:  rec.Timestamp,
		RawValue:   rec.RawValue,
		Percentage: rec.Percentage,
	}

	res, err := m.collection(t).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.SensorRecord{}, &domain.DuplicateKeyError{Err: err}
		}
		return domain.SensorRecord{}, &domain.PersistenceError{Op: "insert", Err: err}
	}

	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return domain.SensorRecord{}, &domain.PersistenceError{Op: "insert", Err: fmt.Errorf("unexpected inserted id type %T", res.InsertedID)}
	}
	rec.ID = oid.Hex()
	return rec, nil
}

func (m *MongoSensorStore) FindByID(ctx context.Context, t domain.SensorType, id string) (domain.SensorRecord, error) {
	oid, err := parseID(id)
	if err != nil {
		return domain.SensorRecord{}, err
	}

	var doc sensorDoc
	err = m.collection(t).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.SensorRecord{}, &domain.NotFoundError{Collection: domain.CollectionFor(t), ID: id}
		}
		return domain.SensorRecord{}, &domain.PersistenceError{Op: "find", Err: err}
	}
	return doc.record(), nil
}

func (m *MongoSensorStore) Find(ctx context.Context, t domain.SensorType, q domain.RecordQuery) ([]domain.SensorRecord, error) {
	direction := 1
	if q.Descending {
		direction = -1
	}

	opts := options.Find().SetSort(bson.D{{Key: domain.NormalizeSortField(q.SortField), Value: direction}})
	if q.Skip > 0 {
		opts = opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts = opts.SetLimit(q.Limit)
	}

	cursor, err := m.collection(t).Find(ctx, rangeFilter(q), opts)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "find", Err: err}
	}
	defer cursor.Close(ctx)

	var docs []sensorDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &domain.PersistenceError{Op: "find", Err: err}
	}

	records := make([]domain.SensorRecord, len(docs))
	for i, d := range docs {
		records[i] = d.record()
	}
	return records, nil
}

func (m *MongoSensorStore) Count(ctx context.Context, t domain.SensorType, q domain.RecordQuery) (int64, error) {
	total, err := m.collection(t).CountDocuments(ctx, rangeFilter(q))
	if err != nil {
		return 0, &domain.PersistenceError{Op: "count", Err: err}
	}
	return total, nil
}

func (m *MongoSensorStore) UpdateByID(ctx context.Context, t domain.SensorType, id string, patch domain.RecordPatch) (domain.SensorRecord, error) {
	if patch.Empty() {
		return m.FindByID(ctx, t, id)
	}

	oid, err := parseID(id)
	if err != nil {
		return domain.SensorRecord{}, err
	}

	set := bson.M{}
	if patch.Timestamp != nil {
		set["timestamp"] = *patch.Timestamp
	}
	if patch.RawValue != nil {
		set["raw_value"] = *patch.RawValue
	}
	if patch.Percentage != nil {
		set["percentage"] = *patch.Percentage
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc sensorDoc
	err = m.collection(t).FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.SensorRecord{}, &domain.NotFoundError{Collection: domain.CollectionFor(t), ID: id}
		}
		return domain.SensorRecord{}, &domain.PersistenceError{Op: "update", Err: err}
	}
	return doc.record(), nil
}

func (m *MongoSensorStore) DeleteByID(ctx context.Context, t domain.SensorType, id string) (domain.SensorRecord, error) {
	oid, err := parseID(id)
	if err != nil {
		return domain.SensorRecord{}, err
	}

	var doc sensorDoc
	err = m.collection(t).FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.SensorRecord{}, &domain.NotFoundError{Collection: domain.CollectionFor(t), ID: id}
		}
		return domain.SensorRecord{}, &domain.PersistenceError{Op: "delete", Err: err}
	}
	return doc.record(), nil
}

// statsDoc mirrors the $group stage output.
type statsDoc struct {
	Total         int64   `bson:"total"`
	AvgRawValue   float64 `bson:"avgRawValue"`
	AvgPercentage float64 `bson:"avgPercentage"`
	MinRawValue   float64 `bson:"minRawValue"`
	MaxRawValue   float64 `bson:"maxRawValue"`
	MinPercentage float64 `bson:"minPercentage"`
	MaxPercentage float64 `bson:"maxPercentage"`
}

func (m *MongoSensorStore) Aggregate(ctx context.Context, t domain.SensorType) (domain.Stats, error) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":           nil,
			"total":         bson.M{"$sum": 1},
			"avgRawValue":   bson.M{"$avg": "$raw_value"},
			"avgPercentage": bson.M{"$avg": "$percentage"},
			"minRawValue":   bson.M{"$min": "$raw_value"},
			"maxRawValue":   bson.M{"$max": "$raw_value"},
			"minPercentage": bson.M{"$min": "$percentage"},
			"maxPercentage": bson.M{"$max": "$percentage"},
		}},
	}

	cursor, err := m.collection(t).Aggregate(ctx, pipeline)
	if err != nil {
		return domain.Stats{}, &domain.PersistenceError{Op: "aggregate", Err: err}
	}
	defer cursor.Close(ctx)

	var results []statsDoc
	if err := cursor.All(ctx, &results); err != nil {
		return domain.Stats{}, &domain.PersistenceError{Op: "aggregate", Err: err}
	}

	// An empty collection groups to no documents at all.
	if len(results) == 0 {
		return domain.Stats{}, nil
	}

	r := results[0]
	return domain.Stats{
		Total:         r.Total,
		AvgRawValue:   r.AvgRawValue,
		AvgPercentage: r.AvgPercentage,
		MinRawValue:   r.MinRawValue,
		MaxRawValue:   r.MaxRawValue,
		MinPercentage: r.MinPercentage,
		MaxPercentage: r.MaxPercentage,
	}, nil
}

func (m *MongoSensorStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoSensorStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func rangeFilter(q domain.RecordQuery) bson.M {
	filter := bson.M{}
	bounds := bson.M{}
	if q.Start != nil {
		bounds["$gte"] = *q.Start
	}
	if q.End != nil {
		bounds["$lte"] = *q.End
	}
	if len(bounds) > 0 {
		filter["timestamp"] = bounds
	}
	return filter
}
