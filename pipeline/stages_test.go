package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func stageName(t *testing.T, stage bson.D) string {
	t.Helper()
	require.Len(t, stage, 1)
	return stage[0].Key
}

func stageNames(t *testing.T, p mongo.Pipeline) []string {
	t.Helper()
	names := make([]string, 0, len(p))
	for _, st := range p {
		names = append(names, stageName(t, st))
	}
	return names
}

func TestMatchNotDeleted(t *testing.T) {
	assert.Nil(t, MatchNotDeleted(true))

	p := MatchNotDeleted(false)
	require.Len(t, p, 1)
	assert.Equal(t, bson.D{{Key: "$match", Value: bson.D{{Key: "isDeleted", Value: bson.D{{Key: "$ne", Value: true}}}}}}, p[0])
}

func TestSearch_EscapesTerm(t *testing.T) {
	p := Search("  dog (large)+ ", "name", "slug")
	require.Len(t, p, 1)

	or := p[0][0].Value.(bson.D)[0].Value.(bson.A)
	require.Len(t, or, 2)
	assert.Equal(t, bson.D{{Key: "name", Value: primitive.Regex{Pattern: `dog \(large\)\+`, Options: "i"}}}, or[0])
	assert.Equal(t, "slug", or[1].(bson.D)[0].Key)
}

func TestSearch_Empty(t *testing.T) {
	assert.Nil(t, Search("   ", "name"))
	assert.Nil(t, Search("cat"))
}

func TestMatchFilters(t *testing.T) {
	assert.Nil(t, MatchFilters(nil))
	assert.Nil(t, MatchFilters(map[string]any{"status": "", "role": nil}))

	p := MatchFilters(map[string]any{"status": "pending", "isActive": true, "role": ""})
	require.Len(t, p, 1)
	assert.Equal(t, bson.D{{Key: "isActive", Value: true}, {Key: "status", Value: "pending"}}, p[0][0].Value)
}

func TestDateRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	assert.Nil(t, DateRange("createdAt", nil, nil))

	p := DateRange("createdAt", &from, nil)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: from}}}}, p[0][0].Value)

	p = DateRange("createdAt", &from, &to)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lt", Value: to}}}}, p[0][0].Value)
}

func TestSort(t *testing.T) {
	allowed := map[string]string{"price": "price", "name": "name"}

	p := Sort("price", "asc", allowed, "createdAt")
	assert.Equal(t, bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}, p[0][0].Value)

	p = Sort("password", "ASC", allowed, "createdAt")
	assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}, p[0][0].Value)

	p = Sort("", "", allowed, "_id")
	assert.Equal(t, bson.D{{Key: "_id", Value: -1}}, p[0][0].Value)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultLimit},
		{-3, 5, 1, 5},
		{4, 1000, 4, MaxLimit},
		{2, 25, 2, 25},
	}
	for _, tt := range tests {
		p, l := NormalizePage(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantLimit, l)
	}
}

func TestPaginate(t *testing.T) {
	p := Paginate(3, 20)
	require.Len(t, p, 1)
	assert.Equal(t, "$facet", stageName(t, p[0]))

	facet := p[0][0].Value.(bson.D)
	assert.Equal(t, "metadata", facet[0].Key)
	assert.Equal(t, bson.A{bson.D{{Key: "$count", Value: "total"}}}, facet[0].Value)
	assert.Equal(t, bson.A{
		bson.D{{Key: "$skip", Value: int64(40)}},
		bson.D{{Key: "$limit", Value: int64(20)}},
	}, facet[1].Value)
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"$lookup"}, stageNames(t, Lookup("categories", "categoryId", "_id", "category", false)))
	p := Lookup("categories", "categoryId", "_id", "category", true)
	assert.Equal(t, []string{"$lookup", "$unwind"}, stageNames(t, p))
	assert.Equal(t, "$category", p[1][0].Value.(bson.D)[0].Value)
}
