package source

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/buildinfo"
	"github.com/matzehuels/availdep/pkg/errors"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "availdep"
	DefaultMongoCollection = "course_modules"
)

// MongoOptions configures NewMongoSource.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// MongoSource reads module documents from MongoDB. Each document is one
// [Module]; a course is the set of documents with a matching course field,
// ordered by section and position.
type MongoSource struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSource connects to MongoDB and verifies the connection.
func NewMongoSource(ctx context.Context, opts MongoOptions) (*MongoSource, error) {
	if opts.Database == "" {
		opts.Database = DefaultMongoDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI).SetAppName(buildinfo.UserAgent()))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoSource{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

// Fetch implements Source.
func (s *MongoSource) Fetch(ctx context.Context, courseID int64) ([]activity.Record, error) {
	cur, err := s.coll.Find(ctx, courseFilter(courseID), courseOrder())
	if err != nil {
		return nil, fmt.Errorf("find course %d: %w", courseID, err)
	}
	defer cur.Close(ctx)

	var modules []Module
	if err := cur.All(ctx, &modules); err != nil {
		return nil, fmt.Errorf("decode course %d: %w", courseID, err)
	}
	if len(modules) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "course %d not found", courseID)
	}
	return Records(modules), nil
}

// Close disconnects from MongoDB.
func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func courseFilter(courseID int64) bson.D {
	return bson.D{{Key: "course", Value: courseID}}
}

func courseOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{
		{Key: "section", Value: 1},
		{Key: "position", Value: 1},
		{Key: "id", Value: 1},
	})
}

var _ Source = (*MongoSource)(nil)
