package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo MongoDB 文档存储实现
type Mongo struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Connect builds a Mongo provider with a bounded per-operation timeout.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Mongo, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Mongo{client: client, db: client.Database(database), timeout: timeout}, nil
}

func (m *Mongo) Collection(name string) Collection {
	return &mongoCollection{coll: m.db.Collection(name)}
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll *mongo.Collection
}

// translateMongoErr maps driver errors onto the adapter's sentinel errors.
func translateMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (c *mongoCollection) CreateIndex(ctx context.Context, keys bson.D, unique bool) error {
	model := mongo.IndexModel{Keys: keys}
	if unique {
		model.Options = options.Index().SetUnique(true)
	}
	_, err := c.coll.Indexes().CreateOne(ctx, model)
	return translateMongoErr(err)
}

func (c *mongoCollection) FindOne(ctx context.Context, filter bson.M, out any) error {
	return translateMongoErr(c.coll.FindOne(ctx, filter).Decode(out))
}

func (c *mongoCollection) Find(ctx context.Context, filter bson.M, sort bson.D, skip, limit int64, out any) error {
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return translateMongoErr(err)
	}
	return translateMongoErr(cursor.All(ctx, out))
}

func (c *mongoCollection) Count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, filter)
	return n, translateMongoErr(err)
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc any) error {
	_, err := c.coll.InsertOne(ctx, doc)
	return translateMongoErr(err)
}

func (c *mongoCollection) ReplaceOne(ctx context.Context, filter bson.M, doc any) (int64, error) {
	res, err := c.coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return 0, translateMongoErr(err)
	}
	return res.MatchedCount, nil
}

func (c *mongoCollection) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M, out any) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return translateMongoErr(c.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(out))
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, translateMongoErr(err)
	}
	return res.DeletedCount, nil
}

func (c *mongoCollection) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, translateMongoErr(err)
	}
	return res.DeletedCount, nil
}
