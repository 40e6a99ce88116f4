package controllers

import (
	"context"
	"net/http"

	"petopia/middleware"
	"petopia/models"
	"petopia/orderstatus"
	"petopia/pipeline"
	"petopia/service"

	"github.com/gin-gonic/gin"
)

type OrderService interface {
	Place(ctx context.Context, userID string, in service.PlaceOrderInput) (*models.Order, error)
	ListMine(ctx context.Context, userID string, q pipeline.ListQuery) (pipeline.PageResult[models.Order], error)
	GetMine(ctx context.Context, userID, id string) (*models.Order, error)
	CancelMine(ctx context.Context, userID, id, reason string) (*models.Order, error)
	List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.OrderListItem], error)
	Get(ctx context.Context, id string) (*models.Order, error)
	Transitions(ctx context.Context, id string) ([]orderstatus.Status, error)
	UpdateStatus(ctx context.Context, actorID, id, status, note string) (*models.Order, error)
	MarkPaid(ctx context.Context, id string) (*models.Order, error)
}

type OrderController struct {
	orders OrderService
}

func NewOrderController(orders OrderService) *OrderController {
	return &OrderController{orders: orders}
}

var (
	statusValues = func() []string {
		var out []string
		for _, s := range orderstatus.All() {
			out = append(out, string(s))
		}
		return out
	}()
	customerOrderFilters = []filterParam{
		{param: "status", field: "status", values: statusValues},
	}
	adminOrderFilters = []filterParam{
		{param: "status", field: "status", values: statusValues},
		{param: "paymentMethod", field: "paymentMethod", values: []string{models.PaymentCOD, models.PaymentCard, models.PaymentWallet}},
		{param: "paymentStatus", field: "paymentStatus", values: []string{models.PaymentUnpaid, models.PaymentPaid, models.PaymentRefunded}},
	}
)

type cancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=300"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=300"`
}

func (h *OrderController) Place(c *gin.Context) {
	var in service.PlaceOrderInput
	if !bindJSON(c, &in) {
		return
	}
	order, err := h.orders.Place(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed", "order": order})
}

func (h *OrderController) ListMine(c *gin.Context) {
	q, err := parseListQuery(c, customerOrderFilters...)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.orders.ListMine(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *OrderController) GetMine(c *gin.Context) {
	order, err := h.orders.GetMine(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *OrderController) CancelMine(c *gin.Context) {
	var req cancelOrderRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.CancelMine(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
}

func (h *OrderController) List(c *gin.Context) {
	q, err := parseListQuery(c, adminOrderFilters...)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.orders.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *OrderController) Get(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *OrderController) Transitions(c *gin.Context) {
	next, err := h.orders.Transitions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transitions": next})
}

func (h *OrderController) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Status, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

func (h *OrderController) MarkPaid(c *gin.Context) {
	order, err := h.orders.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order marked as paid", "order": order})
}
