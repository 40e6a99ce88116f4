package service

import (
	"context"
	"testing"
	"time"

	"petopia/apperror"
	"petopia/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		coupon   models.Coupon
		subtotal float64
		want     float64
		wantCode apperror.Code
	}{
		{
			name:     "percentage",
			coupon:   models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: 10, IsActive: true},
			subtotal: 80,
			want:     8,
		},
		{
			name:     "percentage capped by max discount",
			coupon:   models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: 50, MaxDiscount: 15, IsActive: true},
			subtotal: 100,
			want:     15,
		},
		{
			name:     "fixed capped by subtotal",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: 30, IsActive: true},
			subtotal: 20,
			want:     20,
		},
		{
			name:     "rounded to cents",
			coupon:   models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: 10, IsActive: true},
			subtotal: 19.99,
			want:     2,
		},
		{
			name:     "inactive",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: 5},
			subtotal: 20,
			wantCode: apperror.CodeCouponInvalid,
		},
		{
			name:     "not started",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: 5, IsActive: true, StartsAt: &future},
			subtotal: 20,
			wantCode: apperror.CodeCouponNotStarted,
		},
		{
			name:     "expired",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: 5, IsActive: true, ExpiresAt: &past},
			subtotal: 20,
			wantCode: apperror.CodeCouponExpired,
		},
		{
			name:     "usage exhausted",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: 5, IsActive: true, UsageLimit: 2, UsedCount: 2},
			subtotal: 20,
			wantCode: apperror.CodeCouponUsageLimit,
		},
		{
			name:     "below minimum order",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: 5, IsActive: true, MinOrderValue: 50},
			subtotal: 49.99,
			wantCode: apperror.CodeCouponMinOrder,
		},
		{
			name:     "within window",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: 5, IsActive: true, StartsAt: &past, ExpiresAt: &future},
			subtotal: 20,
			want:     5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(&tt.coupon, tt.subtotal, now)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, apperror.Is(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestCouponService_CreateAndQuote(t *testing.T) {
	ctx := context.Background()
	store := newFakeCoupons()
	svc := NewCouponService(store)
	svc.now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	c, err := svc.Create(ctx, CouponInput{Code: " summer10 ", DiscountType: models.DiscountPercentage, DiscountValue: 10})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", c.Code)
	assert.True(t, c.IsActive)

	_, err = svc.Create(ctx, CouponInput{Code: "SUMMER10", DiscountType: models.DiscountFixed, DiscountValue: 5})
	assert.True(t, apperror.Is(err, apperror.CodeDuplicateCode))

	q, err := svc.Quote(ctx, "summer10", 60)
	require.NoError(t, err)
	assert.Equal(t, &Quote{Code: "SUMMER10", Subtotal: 60, Discount: 6, Total: 54}, q)
	assert.Equal(t, 0, store.byCode("SUMMER10").UsedCount)

	_, err = svc.Quote(ctx, "NOPE", 60)
	assert.True(t, apperror.Is(err, apperror.CodeCouponInvalid))

	ok, err := svc.CodeAvailable(ctx, "summer10", "")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = svc.CodeAvailable(ctx, "summer10", c.ID.Hex())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCouponService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewCouponService(newFakeCoupons())
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := svc.Create(ctx, CouponInput{Code: "BIG", DiscountType: models.DiscountPercentage, DiscountValue: 150})
	assert.True(t, apperror.Is(err, apperror.CodeValidationFailed))

	_, err = svc.Create(ctx, CouponInput{Code: "WINDOW", DiscountType: models.DiscountFixed, DiscountValue: 5, StartsAt: &start, ExpiresAt: &end})
	assert.True(t, apperror.Is(err, apperror.CodeValidationFailed))
}
