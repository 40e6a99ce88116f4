package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"petopia/apperror"
	"petopia/models"
	"petopia/pipeline"
	"petopia/repository"
)

type CouponInput struct {
	Code          string     `json:"code" binding:"required,min=4,max=20,alphanum"`
	Description   string     `json:"description" binding:"max=300"`
	DiscountType  string     `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue float64    `json:"discountValue" binding:"required,gt=0"`
	MinOrderValue float64    `json:"minOrderValue" binding:"gte=0"`
	MaxDiscount   float64    `json:"maxDiscount" binding:"gte=0"`
	UsageLimit    int        `json:"usageLimit" binding:"gte=0"`
	StartsAt      *time.Time `json:"startsAt"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	IsActive      *bool      `json:"isActive"`
}

// Quote is the outcome of applying a coupon to a cart subtotal.
type Quote struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

type CouponService struct {
	coupons CouponStore
	now     func() time.Time
}

func NewCouponService(coupons CouponStore) *CouponService {
	return &CouponService{coupons: coupons, now: utcNow}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *CouponService) Create(ctx context.Context, in CouponInput) (*models.Coupon, error) {
	c := &models.Coupon{IsActive: true}
	if err := s.apply(ctx, c, in); err != nil {
		return nil, err
	}
	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.coupons.Create(ctx, c); err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateCode)
	}
	return c, nil
}

func (s *CouponService) Update(ctx context.Context, id string, in CouponInput) (*models.Coupon, error) {
	c, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, c, in); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.coupons.Update(ctx, c); err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateCode)
	}
	return c, nil
}

func (s *CouponService) apply(ctx context.Context, c *models.Coupon, in CouponInput) error {
	code := NormalizeCode(in.Code)
	if code != c.Code {
		taken, err := s.coupons.CodeTaken(ctx, code, c.ID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Newf(apperror.CodeDuplicateCode, "Coupon code %s is already in use", code)
		}
	}
	if in.DiscountType == models.DiscountPercentage && in.DiscountValue > 100 {
		return apperror.Newf(apperror.CodeValidationFailed, "Percentage discount cannot exceed 100")
	}
	if in.StartsAt != nil && in.ExpiresAt != nil && !in.ExpiresAt.After(*in.StartsAt) {
		return apperror.Newf(apperror.CodeValidationFailed, "Expiry must be after start")
	}
	if in.UsageLimit > 0 && in.UsageLimit < c.UsedCount {
		return apperror.Newf(apperror.CodeValidationFailed, "Usage limit is below the %d uses already made", c.UsedCount)
	}

	c.Code = code
	c.Description = strings.TrimSpace(in.Description)
	c.DiscountType = in.DiscountType
	c.DiscountValue = in.DiscountValue
	c.MinOrderValue = roundMoney(in.MinOrderValue)
	c.MaxDiscount = roundMoney(in.MaxDiscount)
	c.UsageLimit = in.UsageLimit
	c.StartsAt = utcPtr(in.StartsAt)
	c.ExpiresAt = utcPtr(in.ExpiresAt)
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *CouponService) Get(ctx context.Context, id string, includeDeleted bool) (*models.Coupon, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	c, err := s.coupons.FindByID(ctx, oid, includeDeleted)
	if err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateCode)
	}
	return c, nil
}

func (s *CouponService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	return storeErr(s.coupons.SoftDelete(ctx, oid, s.now()), apperror.CodeDuplicateCode)
}

func (s *CouponService) Restore(ctx context.Context, id string) (*models.Coupon, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.coupons.Restore(ctx, oid, s.now()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.Get(ctx, id, false)
}

func (s *CouponService) List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.Coupon], error) {
	return s.coupons.List(ctx, q)
}

func (s *CouponService) CodeAvailable(ctx context.Context, code, excludeID string) (bool, error) {
	exclude, err := optionalID(excludeID)
	if err != nil {
		return false, err
	}
	taken, err := s.coupons.CodeTaken(ctx, NormalizeCode(code), exclude)
	return !taken, err
}

// Quote prices subtotal with the coupon without consuming it.
func (s *CouponService) Quote(ctx context.Context, code string, subtotal float64) (*Quote, error) {
	c, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	discount, err := Evaluate(c, subtotal, s.now())
	if err != nil {
		return nil, err
	}
	return &Quote{
		Code:     c.Code,
		Subtotal: roundMoney(subtotal),
		Discount: discount,
		Total:    roundMoney(subtotal - discount),
	}, nil
}

func (s *CouponService) lookup(ctx context.Context, code string) (*models.Coupon, error) {
	c, err := s.coupons.FindByCode(ctx, NormalizeCode(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.New(apperror.CodeCouponInvalid)
	}
	return c, err
}

// Evaluate returns the discount c grants on subtotal at now. Percentage
// discounts are capped by MaxDiscount when set; no discount exceeds the
// subtotal.
func Evaluate(c *models.Coupon, subtotal float64, now time.Time) (float64, error) {
	switch {
	case !c.IsActive || c.IsDeleted:
		return 0, apperror.New(apperror.CodeCouponInvalid)
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return 0, apperror.New(apperror.CodeCouponNotStarted)
	case c.ExpiresAt != nil && !now.Before(*c.ExpiresAt):
		return 0, apperror.New(apperror.CodeCouponExpired)
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return 0, apperror.New(apperror.CodeCouponUsageLimit)
	case subtotal < c.MinOrderValue:
		return 0, apperror.Newf(apperror.CodeCouponMinOrder, "Order total must be at least %.2f", c.MinOrderValue)
	}

	var discount float64
	switch c.DiscountType {
	case models.DiscountPercentage:
		discount = subtotal * c.DiscountValue / 100
		if c.MaxDiscount > 0 {
			discount = math.Min(discount, c.MaxDiscount)
		}
	case models.DiscountFixed:
		discount = c.DiscountValue
	default:
		return 0, apperror.New(apperror.CodeCouponInvalid)
	}
	return roundMoney(math.Min(discount, subtotal)), nil
}
