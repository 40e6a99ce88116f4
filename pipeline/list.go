package pipeline

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// ListQuery is the URL-driven state of an admin list screen.
type ListQuery struct {
	Page           int
	Limit          int
	Search         string
	Sort           string
	Order          string
	Filters        map[string]any
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
}

// ListSpec describes how a collection is listed.
type ListSpec struct {
	SearchFields []string
	SortFields   map[string]string
	DefaultSort  string
	DateField    string
	// SoftDelete enables the isDeleted match.
	SoftDelete bool
	// Enrich stages run on the page only, after pagination.
	Enrich mongo.Pipeline
}

// List composes the listing pipeline: soft-delete match, filters, date
// range, search, sort, then the paginating facet. Enrich stages are added
// inside the facet's data branch so joins only touch the returned page.
func List(q ListQuery, spec ListSpec) mongo.Pipeline {
	parts := []mongo.Pipeline{}
	if spec.SoftDelete {
		parts = append(parts, MatchNotDeleted(q.IncludeDeleted))
	}
	parts = append(parts, MatchFilters(q.Filters))
	if spec.DateField != "" {
		parts = append(parts, DateRange(spec.DateField, q.From, q.To))
	}
	parts = append(parts, Search(q.Search, spec.SearchFields...))
	fallback := spec.DefaultSort
	if fallback == "" {
		fallback = "createdAt"
	}
	parts = append(parts, Sort(q.Sort, q.Order, spec.SortFields, fallback))

	parts = append(parts, paginate(q.Page, q.Limit, spec.Enrich))
	return Concat(parts...)
}

// PageResult is the JSON envelope of a paginated list.
type PageResult[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// FacetResult is the decoded shape of the Paginate facet.
type FacetResult[T any] struct {
	Metadata []struct {
		Total int64 `bson:"total"`
	} `bson:"metadata"`
	Data []T `bson:"data"`
}

// NewPage builds a PageResult from a decoded facet and the requested page.
func NewPage[T any](facet FacetResult[T], page, limit int) PageResult[T] {
	page, limit = NormalizePage(page, limit)
	var total int64
	if len(facet.Metadata) > 0 {
		total = facet.Metadata[0].Total
	}
	data := facet.Data
	if data == nil {
		data = []T{}
	}
	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}
