package controllers

import (
	"context"
	"net/http"

	"petopia/models"
	"petopia/pipeline"
	"petopia/service"

	"github.com/gin-gonic/gin"
)

type CouponService interface {
	Create(ctx context.Context, in service.CouponInput) (*models.Coupon, error)
	Update(ctx context.Context, id string, in service.CouponInput) (*models.Coupon, error)
	Get(ctx context.Context, id string, includeDeleted bool) (*models.Coupon, error)
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) (*models.Coupon, error)
	List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.Coupon], error)
	CodeAvailable(ctx context.Context, code, excludeID string) (bool, error)
	Quote(ctx context.Context, code string, subtotal float64) (*service.Quote, error)
}

type CouponController struct {
	coupons CouponService
}

func NewCouponController(coupons CouponService) *CouponController {
	return &CouponController{coupons: coupons}
}

var couponFilters = []filterParam{
	{param: "isActive", field: "isActive", kind: boolFilter},
	{param: "discountType", field: "discountType", values: []string{models.DiscountPercentage, models.DiscountFixed}},
}

type applyCouponRequest struct {
	Code     string  `json:"code" binding:"required,max=20"`
	Subtotal float64 `json:"subtotal" binding:"gte=0"`
}

// Apply prices the customer's cart with a coupon without redeeming it.
func (h *CouponController) Apply(c *gin.Context) {
	var req applyCouponRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.coupons.Quote(c.Request.Context(), req.Code, req.Subtotal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon applied", "quote": q})
}

func (h *CouponController) List(c *gin.Context) {
	q, err := parseListQuery(c, couponFilters...)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.coupons.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *CouponController) Get(c *gin.Context) {
	coupon, err := h.coupons.Get(c.Request.Context(), c.Param("id"), c.Query("includeDeleted") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupon": coupon})
}

func (h *CouponController) Create(c *gin.Context) {
	var in service.CouponInput
	if !bindJSON(c, &in) {
		return
	}
	coupon, err := h.coupons.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Coupon created", "coupon": coupon})
}

func (h *CouponController) Update(c *gin.Context) {
	var in service.CouponInput
	if !bindJSON(c, &in) {
		return
	}
	coupon, err := h.coupons.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon updated", "coupon": coupon})
}

func (h *CouponController) Delete(c *gin.Context) {
	if err := h.coupons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted"})
}

func (h *CouponController) Restore(c *gin.Context) {
	coupon, err := h.coupons.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon restored", "coupon": coupon})
}

func (h *CouponController) CheckCode(c *gin.Context) {
	ok, err := h.coupons.CodeAvailable(c.Request.Context(), c.Query("code"), c.Query("excludeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": ok})
}
