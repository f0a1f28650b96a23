package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"device-registry/internal/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type testDoc struct {
	Token       string    `bson:"token"`
	Name        string    `bson:"name"`
	CreatedDate time.Time `bson:"createdDate"`
	Counter     int64     `bson:"counter"`
}

func newTestCollection(t *testing.T) Collection {
	t.Helper()
	return NewMemory().Collection("test")
}

func TestInsertEntityTranslatesDuplicates(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()
	require.NoError(t, coll.CreateIndex(ctx, bson.D{{Key: "token", Value: 1}}, true))

	doc := testDoc{Token: "a", Name: "first"}
	require.NoError(t, InsertEntity(ctx, coll, doc, domain.ErrDuplicateSiteToken))

	err := InsertEntity(ctx, coll, testDoc{Token: "a", Name: "second"}, domain.ErrDuplicateSiteToken)
	require.True(t, domain.HasCode(err, domain.ErrDuplicateSiteToken))
}

func TestFindEntityAbsentIsNil(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	found, err := FindEntity[testDoc](ctx, coll, bson.M{"token": "missing"})
	require.NoError(t, err)
	require.Nil(t, found)

	require.NoError(t, coll.InsertOne(ctx, testDoc{Token: "a", Name: "first"}))
	found, err = FindEntity[testDoc](ctx, coll, bson.M{"token": "a"})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "first", found.Name)
}

func TestUpdateEntityMissingDocument(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	err := UpdateEntity(ctx, coll, bson.M{"token": "ghost"}, testDoc{Token: "ghost"}, domain.ErrInvalidSiteToken)
	require.True(t, domain.HasCode(err, domain.ErrInvalidSiteToken))

	require.NoError(t, coll.InsertOne(ctx, testDoc{Token: "a", Name: "v1"}))
	require.NoError(t, UpdateEntity(ctx, coll, bson.M{"token": "a"}, testDoc{Token: "a", Name: "v2"}, domain.ErrInvalidSiteToken))
	found, err := FindEntity[testDoc](ctx, coll, bson.M{"token": "a"})
	require.NoError(t, err)
	require.Equal(t, "v2", found.Name)
}

func TestSearchEntitiesPagination(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		require.NoError(t, coll.InsertOne(ctx, testDoc{
			Token:       fmt.Sprintf("doc-%02d", i),
			CreatedDate: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	sort := bson.D{{Key: "createdDate", Value: -1}}

	page1, err := SearchEntities[testDoc](ctx, coll, bson.M{}, sort, domain.NewSearchCriteria(1, 10))
	require.NoError(t, err)
	require.EqualValues(t, 25, page1.Total)
	require.Len(t, page1.Items, 10)
	require.Equal(t, "doc-24", page1.Items[0].Token)

	page3, err := SearchEntities[testDoc](ctx, coll, bson.M{}, sort, domain.NewSearchCriteria(3, 10))
	require.NoError(t, err)
	require.EqualValues(t, 25, page3.Total)
	require.Len(t, page3.Items, 5)
	require.Equal(t, "doc-00", page3.Items[4].Token)

	// Past the end: empty page, total unchanged.
	page4, err := SearchEntities[testDoc](ctx, coll, bson.M{}, sort, domain.NewSearchCriteria(4, 10))
	require.NoError(t, err)
	require.EqualValues(t, 25, page4.Total)
	require.Empty(t, page4.Items)
}

func TestAddDateRangeFiltering(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		require.NoError(t, coll.InsertOne(ctx, testDoc{
			Token:       fmt.Sprintf("doc-%d", i),
			CreatedDate: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	start := base.Add(2 * time.Hour)
	end := base.Add(5 * time.Hour)
	criteria := domain.NewSearchCriteria(1, 20)
	criteria.StartDate = &start
	criteria.EndDate = &end

	filter := bson.M{}
	AddDateRange(filter, "createdDate", criteria)
	results, err := SearchEntities[testDoc](ctx, coll, filter, bson.D{{Key: "createdDate", Value: 1}}, criteria)
	require.NoError(t, err)
	// Bounds are inclusive on both ends.
	require.EqualValues(t, 4, results.Total)
	require.Equal(t, "doc-2", results.Items[0].Token)
	require.Equal(t, "doc-5", results.Items[3].Token)
}

func TestFindOneAndUpdateInc(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()
	require.NoError(t, coll.InsertOne(ctx, testDoc{Token: "counter", Counter: 5}))

	var updated testDoc
	require.NoError(t, coll.FindOneAndUpdate(ctx,
		bson.M{"token": "counter"},
		bson.M{"$inc": bson.M{"counter": int64(1)}},
		&updated,
	))
	require.EqualValues(t, 6, updated.Counter)

	err := coll.FindOneAndUpdate(ctx, bson.M{"token": "ghost"}, bson.M{"$inc": bson.M{"counter": int64(1)}}, &updated)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCounts(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()
	require.NoError(t, coll.InsertOne(ctx, testDoc{Token: "a", Name: "keep"}))
	require.NoError(t, coll.InsertOne(ctx, testDoc{Token: "b", Name: "drop"}))
	require.NoError(t, coll.InsertOne(ctx, testDoc{Token: "c", Name: "drop"}))

	n, err := coll.DeleteOne(ctx, bson.M{"token": "ghost"})
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	n, err = coll.DeleteMany(ctx, bson.M{"name": "drop"})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	total, err := coll.Count(ctx, bson.M{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestCompoundUniqueIndex(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()
	require.NoError(t, coll.CreateIndex(ctx, bson.D{{Key: "token", Value: 1}, {Key: "name", Value: 1}}, true))

	require.NoError(t, coll.InsertOne(ctx, testDoc{Token: "a", Name: "x"}))
	require.NoError(t, coll.InsertOne(ctx, testDoc{Token: "a", Name: "y"}))
	err := coll.InsertOne(ctx, testDoc{Token: "a", Name: "x"})
	require.ErrorIs(t, err, ErrDuplicateKey)
}
