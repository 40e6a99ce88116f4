package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var productSpec = ListSpec{
	SearchFields: []string{"name", "description"},
	SortFields:   map[string]string{"price": "price", "name": "name", "createdAt": "createdAt"},
	DateField:    "createdAt",
	SoftDelete:   true,
	Enrich:       Lookup("categories", "categoryId", "_id", "category", true),
}

func TestList_StageOrder(t *testing.T) {
	from := time.Now().Add(-time.Hour)
	p := List(ListQuery{
		Page:    2,
		Limit:   5,
		Search:  "kibble",
		Sort:    "price",
		Order:   "asc",
		Filters: map[string]any{"isActive": true},
		From:    &from,
	}, productSpec)

	assert.Equal(t, []string{"$match", "$match", "$match", "$match", "$sort", "$facet"}, stageNames(t, p))
}

func TestList_MinimalQuery(t *testing.T) {
	p := List(ListQuery{IncludeDeleted: true}, ListSpec{})
	assert.Equal(t, []string{"$sort", "$facet"}, stageNames(t, p))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, p[0][0].Value)
}

func TestList_EnrichRunsInsideDataFacet(t *testing.T) {
	p := List(ListQuery{}, productSpec)
	facet := p[len(p)-1][0].Value.(bson.D)
	data := facet[1].Value.(bson.A)
	require.Len(t, data, 4)
	assert.Equal(t, "$lookup", data[2].(bson.D)[0].Key)
	assert.Equal(t, "$unwind", data[3].(bson.D)[0].Key)
}

func TestNewPage(t *testing.T) {
	facet := FacetResult[string]{Data: []string{"a", "b"}}
	facet.Metadata = append(facet.Metadata, struct {
		Total int64 `bson:"total"`
	}{Total: 21})

	page := NewPage(facet, 3, 10)
	assert.Equal(t, int64(21), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, []string{"a", "b"}, page.Data)
}

func TestNewPage_Empty(t *testing.T) {
	page := NewPage(FacetResult[int]{}, 0, 0)
	assert.Equal(t, int64(0), page.Total)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultLimit, page.Limit)
	assert.NotNil(t, page.Data)
}
