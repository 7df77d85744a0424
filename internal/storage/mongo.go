package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "records"

type mongoRecord struct {
	Key        string    `bson:"_id"`
	Owner      string    `bson:"owner"`
	Collection string    `bson:"collection"`
	ID         string    `bson:"id"`
	Position   int64     `bson:"position"`
	Payload    string    `bson:"payload"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

// MongoSink keeps one document per record, scoped to the signed-in owner.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
	owner  string
	now    func() time.Time
}

// OpenMongo connects to uri and returns a sink over database.records.
func OpenMongo(ctx context.Context, uri, database, owner string) (*MongoSink, error) {
	if owner == "" {
		return nil, errors.New("storage: owner is required")
	}
	if database == "" {
		database = "nexus"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoSink{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
		owner:  owner,
		now:    time.Now,
	}, nil
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoSink) docKey(collection, id string) string {
	return s.owner + "/" + collection + "/" + id
}

func (s *MongoSink) Load(ctx context.Context, collection string) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"owner": s.owner, "collection": collection}, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	out := make([]Record, 0)
	for cur.Next(ctx) {
		var doc mongoRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, collection, err)
		}
		out = append(out, Record{ID: doc.ID, Payload: []byte(doc.Payload)})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	return out, nil
}

func (s *MongoSink) Save(ctx context.Context, collection string, records []Record) error {
	filter := bson.M{"owner": s.owner, "collection": collection}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	if len(records) == 0 {
		return nil
	}
	now := s.now().UTC()
	docs := make([]any, 0, len(records))
	for i, rec := range records {
		docs = append(docs, mongoRecord{
			Key:        s.docKey(collection, rec.ID),
			Owner:      s.owner,
			Collection: collection,
			ID:         rec.ID,
			Position:   int64(i),
			Payload:    string(rec.Payload),
			UpdatedAt:  now,
		})
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	return nil
}

func (s *MongoSink) UpsertOne(ctx context.Context, collection string, rec Record) error {
	now := s.now().UTC()
	update := bson.M{
		"$set": bson.M{
			"payload":   string(rec.Payload),
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"owner":      s.owner,
			"collection": collection,
			"id":         rec.ID,
			"position":   now.UnixNano(),
		},
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": s.docKey(collection, rec.ID)}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, rec.ID, err)
	}
	return nil
}

func (s *MongoSink) DeleteOne(ctx context.Context, collection string, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.docKey(collection, id)})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
