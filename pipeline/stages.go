// Package pipeline builds the MongoDB aggregation pipelines behind the admin
// listing and analytics screens. Builders are pure: they only assemble
// stages, the repositories run them.
package pipeline

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// MatchNotDeleted hides soft-deleted documents unless includeDeleted is set,
// in which case no stage is produced.
func MatchNotDeleted(includeDeleted bool) mongo.Pipeline {
	if includeDeleted {
		return nil
	}
	return mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: "isDeleted", Value: bson.D{{Key: "$ne", Value: true}}}}}}}
}

// Search matches term case-insensitively as a literal substring of any of
// the given fields.
func Search(term string, fields ...string) mongo.Pipeline {
	term = strings.TrimSpace(term)
	if term == "" || len(fields) == 0 {
		return nil
	}
	pattern := regexp.QuoteMeta(term)
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.D{{Key: f, Value: primitive.Regex{Pattern: pattern, Options: "i"}}})
	}
	return mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: "$or", Value: or}}}}}
}

// MatchFilters builds one equality $match from filters. Nil values and empty
// strings are skipped; keys are emitted in sorted order.
func MatchFilters(filters map[string]any) mongo.Pipeline {
	keys := make([]string, 0, len(filters))
	for k, v := range filters {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	match := make(bson.D, 0, len(keys))
	for _, k := range keys {
		match = append(match, bson.E{Key: k, Value: filters[k]})
	}
	return mongo.Pipeline{{{Key: "$match", Value: match}}}
}

// DateRange restricts field to [from, to). Either bound may be nil.
func DateRange(field string, from, to *time.Time) mongo.Pipeline {
	cond := dateCond(from, to)
	if cond == nil {
		return nil
	}
	return mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: field, Value: cond}}}}}
}

func dateCond(from, to *time.Time) bson.D {
	var cond bson.D
	if from != nil {
		cond = append(cond, bson.E{Key: "$gte", Value: *from})
	}
	if to != nil {
		cond = append(cond, bson.E{Key: "$lt", Value: *to})
	}
	return cond
}

// Sort orders by the whitelisted field named by field, falling back to
// fallback for unknown names. _id is appended as a tiebreaker so pages are
// stable.
func Sort(field, order string, allowed map[string]string, fallback string) mongo.Pipeline {
	col, ok := allowed[field]
	if !ok || col == "" {
		col = fallback
	}
	dir := -1
	if strings.EqualFold(order, "asc") {
		dir = 1
	}
	keys := bson.D{{Key: col, Value: dir}}
	if col != "_id" {
		keys = append(keys, bson.E{Key: "_id", Value: dir})
	}
	return mongo.Pipeline{{{Key: "$sort", Value: keys}}}
}

// NormalizePage clamps page to >= 1 and limit to [1, MaxLimit], using
// DefaultLimit when limit is unset.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Paginate emits a single $facet stage returning the total count under
// metadata and the requested page under data.
func Paginate(page, limit int) mongo.Pipeline {
	return paginate(page, limit, nil)
}

func paginate(page, limit int, enrich mongo.Pipeline) mongo.Pipeline {
	page, limit = NormalizePage(page, limit)
	skip := int64(page-1) * int64(limit)
	data := bson.A{
		bson.D{{Key: "$skip", Value: skip}},
		bson.D{{Key: "$limit", Value: int64(limit)}},
	}
	for _, st := range enrich {
		data = append(data, st)
	}
	return mongo.Pipeline{{{Key: "$facet", Value: bson.D{
		{Key: "metadata", Value: bson.A{bson.D{{Key: "$count", Value: "total"}}}},
		{Key: "data", Value: data},
	}}}}
}

// Lookup joins from into as. With unwind the joined array is flattened,
// keeping documents that have no match.
func Lookup(from, localField, foreignField, as string, unwind bool) mongo.Pipeline {
	p := mongo.Pipeline{{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: foreignField},
		{Key: "as", Value: as},
	}}}}
	if unwind {
		p = append(p, bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}})
	}
	return p
}

// Concat flattens pipelines into one.
func Concat(parts ...mongo.Pipeline) mongo.Pipeline {
	out := mongo.Pipeline{}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
