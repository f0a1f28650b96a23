// Package store contains the document-store adapter and the generic
// persistence primitives shared by every registry entity type.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	// ErrNotFound 文档不存在
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey 唯一索引冲突
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnavailable 存储不可用（超时/连接失败），与 not-found 严格区分
	ErrUnavailable = errors.New("document store unavailable")
)

// Collection 单集合文档存储能力
// Backed by MongoDB in production and by an in-memory implementation in
// tests. Every call is atomic at single-document granularity; nothing here
// coordinates across documents.
type Collection interface {
	// CreateIndex creates an index over the given key spec. Unique indexes
	// must cause InsertOne/ReplaceOne to fail with ErrDuplicateKey on
	// violation.
	CreateIndex(ctx context.Context, keys bson.D, unique bool) error

	// FindOne decodes the first matching document into out, or returns
	// ErrNotFound.
	FindOne(ctx context.Context, filter bson.M, out any) error

	// Find decodes all matching documents into out (a pointer to a slice),
	// applying sort, then skip/limit. A limit of 0 means unbounded.
	Find(ctx context.Context, filter bson.M, sort bson.D, skip, limit int64, out any) error

	// Count returns the number of matching documents.
	Count(ctx context.Context, filter bson.M) (int64, error)

	// InsertOne stores a new document, returning ErrDuplicateKey when a
	// unique index is violated.
	InsertOne(ctx context.Context, doc any) error

	// ReplaceOne replaces the first document matching filter and reports
	// how many documents matched (0 or 1).
	ReplaceOne(ctx context.Context, filter bson.M, doc any) (int64, error)

	// FindOneAndUpdate applies an update document (e.g. {"$inc": ...}) as a
	// single atomic operation and decodes the post-update document into out.
	FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M, out any) error

	// DeleteOne removes the first matching document, returning the count
	// removed (0 or 1) so callers can detect already-gone races.
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)

	// DeleteMany removes all matching documents and returns the count.
	DeleteMany(ctx context.Context, filter bson.M) (int64, error)
}

// Provider 按名称返回集合句柄
type Provider interface {
	Collection(name string) Collection
}
