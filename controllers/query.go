package controllers

import (
	"strings"
	"time"

	"petopia/apperror"
	"petopia/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type filterKind int

const (
	textFilter filterKind = iota
	boolFilter
	idFilter
)

// filterParam maps a query parameter onto a document field.
type filterParam struct {
	param string
	field string
	kind  filterKind
	// values, when set, whitelists text filter values.
	values []string
}

// parseListQuery reads the URL-driven list state shared by every listing
// screen: page, limit, search, sort, order, from, to, includeDeleted and
// the resource filters the caller allows.
func parseListQuery(c *gin.Context, filters ...filterParam) (pipeline.ListQuery, error) {
	page, limit := pipeline.NormalizePage(cast.ToInt(c.Query("page")), cast.ToInt(c.Query("limit")))
	q := pipeline.ListQuery{
		Page:           page,
		Limit:          limit,
		Search:         strings.TrimSpace(c.Query("search")),
		Sort:           c.Query("sort"),
		Order:          strings.ToLower(c.DefaultQuery("order", "desc")),
		IncludeDeleted: cast.ToBool(c.Query("includeDeleted")),
		Filters:        map[string]any{},
	}

	from, to, err := parseRange(c)
	if err != nil {
		return q, err
	}
	q.From, q.To = from, to

	for _, f := range filters {
		raw := strings.TrimSpace(c.Query(f.param))
		if raw == "" || raw == "all" {
			continue
		}
		switch f.kind {
		case boolFilter:
			b, err := cast.ToBoolE(raw)
			if err != nil {
				return q, apperror.Newf(apperror.CodeValidationFailed, "Invalid %s value %q", f.param, raw)
			}
			q.Filters[f.field] = b
		case idFilter:
			oid, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				return q, apperror.Newf(apperror.CodeInvalidID, "Invalid %s value %q", f.param, raw)
			}
			q.Filters[f.field] = oid
		default:
			if len(f.values) > 0 && !contains(f.values, raw) {
				return q, apperror.Newf(apperror.CodeValidationFailed, "Invalid %s value %q", f.param, raw)
			}
			q.Filters[f.field] = raw
		}
	}
	return q, nil
}

// parseRange reads from/to. A date-only "to" covers that whole day.
func parseRange(c *gin.Context) (*time.Time, *time.Time, error) {
	from, err := parseTime(c.Query("from"), false)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseTime(c.Query("to"), true)
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, apperror.Newf(apperror.CodeValidationFailed, "'to' must not be before 'from'")
	}
	return from, to, nil
}

func parseTime(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if d, err := time.Parse(time.DateOnly, raw); err == nil {
		if endOfDay {
			d = d.AddDate(0, 0, 1)
		}
		return &d, nil
	}
	t, err := cast.ToTimeE(raw)
	if err != nil {
		return nil, apperror.Newf(apperror.CodeValidationFailed, "Invalid date %q", raw)
	}
	t = t.UTC()
	return &t, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
