package controllers

import (
	"context"
	"net/http"
	"strings"

	"petopia/apperror"
	"petopia/models"
	"petopia/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

type AnalyticsService interface {
	Summary(ctx context.Context, r service.Range) (models.DashboardSummary, error)
	Sales(ctx context.Context, period string, r service.Range) ([]models.SalesPoint, error)
	Statuses(ctx context.Context, r service.Range) ([]models.StatusCount, error)
	TopProducts(ctx context.Context, limit int, r service.Range) ([]models.ProductSales, error)
	Buckets(ctx context.Context, boundaries []float64, r service.Range) ([]models.ValueBucket, error)
	Categories(ctx context.Context, r service.Range) ([]models.CategorySales, error)
}

type AnalyticsController struct {
	analytics AnalyticsService
}

func NewAnalyticsController(analytics AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analytics: analytics}
}

func rangeOf(c *gin.Context) (service.Range, bool) {
	from, to, err := parseRange(c)
	if err != nil {
		respondError(c, err)
		return service.Range{}, false
	}
	return service.Range{From: from, To: to}, true
}

func (h *AnalyticsController) Summary(c *gin.Context) {
	r, ok := rangeOf(c)
	if !ok {
		return
	}
	summary, err := h.analytics.Summary(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *AnalyticsController) Sales(c *gin.Context) {
	r, ok := rangeOf(c)
	if !ok {
		return
	}
	points, err := h.analytics.Sales(c.Request.Context(), c.Query("period"), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": nonNil(points)})
}

func (h *AnalyticsController) Status(c *gin.Context) {
	r, ok := rangeOf(c)
	if !ok {
		return
	}
	counts, err := h.analytics.Statuses(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": nonNil(counts)})
}

func (h *AnalyticsController) TopProducts(c *gin.Context) {
	r, ok := rangeOf(c)
	if !ok {
		return
	}
	top, err := h.analytics.TopProducts(c.Request.Context(), cast.ToInt(c.Query("limit")), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": nonNil(top)})
}

// Buckets reads boundaries as a comma separated list, e.g.
// ?boundaries=0,50,100.
func (h *AnalyticsController) Buckets(c *gin.Context) {
	r, ok := rangeOf(c)
	if !ok {
		return
	}
	var boundaries []float64
	if raw := strings.TrimSpace(c.Query("boundaries")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			v, err := cast.ToFloat64E(strings.TrimSpace(part))
			if err != nil {
				respondError(c, apperror.Newf(apperror.CodeValidationFailed, "Invalid boundary %q", part))
				return
			}
			boundaries = append(boundaries, v)
		}
	}
	buckets, err := h.analytics.Buckets(c.Request.Context(), boundaries, r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buckets": nonNil(buckets)})
}

func (h *AnalyticsController) Categories(c *gin.Context) {
	r, ok := rangeOf(c)
	if !ok {
		return
	}
	cats, err := h.analytics.Categories(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": nonNil(cats)})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
