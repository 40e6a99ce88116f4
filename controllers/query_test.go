package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"petopia/apperror"
	"petopia/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func queryContext(rawQuery string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x?"+rawQuery, nil)
	return c
}

func TestParseListQuery_Defaults(t *testing.T) {
	q, err := parseListQuery(queryContext(""))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, pipeline.DefaultLimit, q.Limit)
	assert.Equal(t, "desc", q.Order)
	assert.False(t, q.IncludeDeleted)
	assert.Empty(t, q.Filters)
	assert.Nil(t, q.From)
	assert.Nil(t, q.To)
}

func TestParseListQuery_Values(t *testing.T) {
	cat := primitive.NewObjectID()
	filters := []filterParam{
		{param: "category", field: "categoryId", kind: idFilter},
		{param: "isActive", field: "isActive", kind: boolFilter},
		{param: "status", field: "status", values: []string{"pending", "delivered"}},
	}
	c := queryContext("page=3&limit=500&search=+bone+&sort=price&order=ASC&includeDeleted=true" +
		"&category=" + cat.Hex() + "&isActive=false&status=pending&from=2024-01-01&to=2024-01-31")

	q, err := parseListQuery(c, filters...)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, pipeline.MaxLimit, q.Limit)
	assert.Equal(t, "bone", q.Search)
	assert.Equal(t, "price", q.Sort)
	assert.Equal(t, "asc", q.Order)
	assert.True(t, q.IncludeDeleted)
	assert.Equal(t, map[string]any{"categoryId": cat, "isActive": false, "status": "pending"}, q.Filters)
	assert.True(t, q.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, q.To.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseListQuery_AllSkipsFilter(t *testing.T) {
	q, err := parseListQuery(queryContext("status=all"), filterParam{param: "status", field: "status"})
	require.NoError(t, err)
	assert.Empty(t, q.Filters)
}

func TestParseListQuery_Errors(t *testing.T) {
	filters := []filterParam{
		{param: "category", field: "categoryId", kind: idFilter},
		{param: "isActive", field: "isActive", kind: boolFilter},
		{param: "status", field: "status", values: []string{"pending"}},
	}
	tests := []struct {
		query string
		code  apperror.Code
	}{
		{"category=nope", apperror.CodeInvalidID},
		{"isActive=maybe", apperror.CodeValidationFailed},
		{"status=lost", apperror.CodeValidationFailed},
		{"from=yesterday", apperror.CodeValidationFailed},
		{"from=2024-02-01&to=2024-01-01", apperror.CodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := parseListQuery(queryContext(tt.query), filters...)
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestParseTime_RFC3339(t *testing.T) {
	got, err := parseTime("2024-03-01T10:30:00+02:00", true)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)))
}
