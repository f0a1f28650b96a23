package store

import (
	"context"
	"errors"
	"fmt"

	"device-registry/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
)

// Generic persistence primitives. Centralizing duplicate-key translation and
// pagination here gives every entity type identical semantics.

// translateStoreErr surfaces transport failures under the stable
// StoreUnavailable code; everything else passes through.
func translateStoreErr(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return domain.WrapError(domain.ErrStoreUnavailable, "document store unavailable", err)
	}
	return err
}

// InsertEntity inserts a document, translating a store uniqueness violation
// into the caller-supplied semantic error code.
func InsertEntity(ctx context.Context, coll Collection, doc any, dupCode domain.ErrorCode) error {
	if err := coll.InsertOne(ctx, doc); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return domain.WrapError(dupCode, "unique key already exists", err)
		}
		return translateStoreErr(err)
	}
	return nil
}

// UpdateEntity replaces the document matching filter (expected to be keyed
// by a unique field) and fails with missingCode when nothing matched.
func UpdateEntity(ctx context.Context, coll Collection, filter bson.M, doc any, missingCode domain.ErrorCode) error {
	matched, err := coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return domain.WrapError(missingCode, "replacement violates unique key", err)
		}
		return translateStoreErr(err)
	}
	if matched == 0 {
		return domain.NewError(missingCode, "no document matched update query")
	}
	return nil
}

// DeleteEntity removes the document matching filter by its unique key and
// returns the count removed (0 or 1).
func DeleteEntity(ctx context.Context, coll Collection, filter bson.M) (int64, error) {
	n, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, translateStoreErr(err)
	}
	return n, nil
}

// FindEntity decodes the document matching filter into a fresh T. Returns
// (nil, nil) when absent so callers can implement get-or-nil reads; assert
// paths layer their not-found codes on top.
func FindEntity[T any](ctx context.Context, coll Collection, filter bson.M) (*T, error) {
	var entity T
	if err := coll.FindOne(ctx, filter, &entity); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, translateStoreErr(err)
	}
	return &entity, nil
}

// AddDateRange layers created-date range bounds from criteria onto filter.
func AddDateRange(filter bson.M, field string, criteria domain.SearchCriteria) {
	bounds := bson.M{}
	if criteria.StartDate != nil {
		bounds["$gte"] = *criteria.StartDate
	}
	if criteria.EndDate != nil {
		bounds["$lte"] = *criteria.EndDate
	}
	if len(bounds) > 0 {
		filter[field] = bounds
	}
}

// SearchEntities runs a paginated query: total match count plus the page the
// criteria asks for. Total is decoupled from page size for UI pagination.
func SearchEntities[T any](ctx context.Context, coll Collection, filter bson.M, sort bson.D, criteria domain.SearchCriteria) (*domain.SearchResults[T], error) {
	page := criteria.Page
	if page < 1 {
		page = 1
	}
	size := criteria.PageSize
	if size < 1 {
		size = 20
	}

	total, err := coll.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", translateStoreErr(err))
	}

	items := []T{}
	skip := int64(page-1) * int64(size)
	if err := coll.Find(ctx, filter, sort, skip, int64(size), &items); err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", translateStoreErr(err))
	}
	return &domain.SearchResults[T]{Total: total, Items: items}, nil
}

// ListEntities is the unpaginated variant for internal use (sibling dedup
// checks and the like). Never expose it for user-facing unbounded listings.
func ListEntities[T any](ctx context.Context, coll Collection, filter bson.M, sort bson.D) ([]T, error) {
	items := []T{}
	if err := coll.Find(ctx, filter, sort, 0, 0, &items); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", translateStoreErr(err))
	}
	return items, nil
}
