package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dbauto/orgchart/pkg/errors"
)

const (
	mongoCollection = "snapshots"
	mongoDocID      = "current"
)

// MongoStore persists the snapshot in a MongoDB collection, for
// deployments where the server has no durable local disk. One document
// with a fixed ID holds the whole snapshot; Save replaces it.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects and pings before returning so a bad URI fails at
// startup.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
	}, nil
}

type mongoDoc struct {
	ID string `bson:"_id"`
	Snapshot `bson:",inline"`
}

// Save upserts the snapshot document.
func (s *MongoStore) Save(ctx context.Context, snap *Snapshot) error {
	doc := mongoDoc{ID: mongoDocID, Snapshot: *snap}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": mongoDocID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot document.
func (s *MongoStore) Load(ctx context.Context) (*Snapshot, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": mongoDocID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeSnapshotNotFound, "no snapshot stored")
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &doc.Snapshot, nil
}

// Stamp reads only the fetch timestamp.
func (s *MongoStore) Stamp(ctx context.Context) (time.Time, error) {
	var doc struct {
		FetchedAt time.Time `bson:"fetched_at"`
	}
	err := s.coll.FindOne(ctx, bson.M{"_id": mongoDocID},
		options.FindOne().SetProjection(bson.M{"fetched_at": 1})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, errors.New(errors.ErrCodeSnapshotNotFound, "no snapshot stored")
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load snapshot stamp: %w", err)
	}
	return doc.FetchedAt, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
