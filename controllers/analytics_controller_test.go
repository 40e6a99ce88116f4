package controllers

import (
	"context"
	"net/http"
	"testing"

	"petopia/apperror"
	"petopia/models"
	"petopia/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalytics struct {
	AnalyticsService
	boundaries []float64
	rng        service.Range
	limit      int
}

func (s *stubAnalytics) Summary(_ context.Context, r service.Range) (models.DashboardSummary, error) {
	s.rng = r
	return models.DashboardSummary{RevenueSummary: models.RevenueSummary{Revenue: 99.5, Orders: 3}, Customers: 7}, nil
}

func (s *stubAnalytics) Buckets(_ context.Context, boundaries []float64, _ service.Range) ([]models.ValueBucket, error) {
	s.boundaries = boundaries
	return nil, nil
}

func (s *stubAnalytics) Sales(_ context.Context, period string, _ service.Range) ([]models.SalesPoint, error) {
	if period == "decade" {
		return nil, apperror.Newf(apperror.CodeValidationFailed, "unknown period")
	}
	return []models.SalesPoint{{Period: "2024-01", Revenue: 10}}, nil
}

func (s *stubAnalytics) TopProducts(_ context.Context, limit int, _ service.Range) ([]models.ProductSales, error) {
	s.limit = limit
	return []models.ProductSales{}, nil
}

func newAnalyticsRouter(stub *stubAnalytics) http.Handler {
	h := NewAnalyticsController(stub)
	r := newRouter("a1", models.RoleAdmin)
	r.GET("/summary", h.Summary)
	r.GET("/sales", h.Sales)
	r.GET("/top-products", h.TopProducts)
	r.GET("/buckets", h.Buckets)
	return r
}

func TestAnalyticsController_Summary(t *testing.T) {
	stub := &stubAnalytics{}
	r := newAnalyticsRouter(stub)

	w := doJSON(t, r, http.MethodGet, "/summary?from=2024-01-01&to=2024-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)["summary"].(map[string]any)
	assert.Equal(t, 99.5, summary["revenue"])
	assert.Equal(t, float64(7), summary["customers"])
	require.NotNil(t, stub.rng.From)
	require.NotNil(t, stub.rng.To)

	w = doJSON(t, r, http.MethodGet, "/summary?from=2024-02-01&to=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsController_Buckets(t *testing.T) {
	stub := &stubAnalytics{}
	r := newAnalyticsRouter(stub)

	w := doJSON(t, r, http.MethodGet, "/buckets?boundaries=0,%2050,100.5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []float64{0, 50, 100.5}, stub.boundaries)
	assert.Equal(t, []any{}, decode(t, w)["buckets"])

	w = doJSON(t, r, http.MethodGet, "/buckets?boundaries=0,ten", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, w)["code"])
}

func TestAnalyticsController_SalesAndTop(t *testing.T) {
	stub := &stubAnalytics{}
	r := newAnalyticsRouter(stub)

	w := doJSON(t, r, http.MethodGet, "/sales?period=month", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["sales"], 1)

	w = doJSON(t, r, http.MethodGet, "/sales?period=decade", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/top-products?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, stub.limit)
}
