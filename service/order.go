package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petopia/apperror"
	"petopia/models"
	"petopia/orderstatus"
	"petopia/pipeline"
	"petopia/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	FreeShippingThreshold = 50.0
	StandardShippingFee   = 5.0
)

type OrderItemInput struct {
	ProductID  string `json:"productId" binding:"required,objectid"`
	VariantSKU string `json:"variantSku" binding:"max=64"`
	Quantity   int    `json:"quantity" binding:"required,min=1,max=99"`
}

type PlaceOrderInput struct {
	Items           []OrderItemInput `json:"items" binding:"required,min=1,max=50,dive"`
	ShippingAddress models.Address   `json:"shippingAddress" binding:"required"`
	PaymentMethod   string           `json:"paymentMethod" binding:"required,oneof=cod card wallet"`
	CouponCode      string           `json:"couponCode" binding:"max=20"`
}

type OrderService struct {
	orders    OrderStore
	products  ProductStore
	coupons   CouponStore
	analytics Invalidator
	now       func() time.Time
}

func NewOrderService(orders OrderStore, products ProductStore, coupons CouponStore, analytics Invalidator) *OrderService {
	if analytics == nil {
		analytics = noopInvalidator{}
	}
	return &OrderService{orders: orders, products: products, coupons: coupons, analytics: analytics, now: utcNow}
}

// ShippingFee is free from FreeShippingThreshold upwards.
func ShippingFee(subtotal float64) float64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	return StandardShippingFee
}

type stockHold struct {
	productID primitive.ObjectID
	sku       string
	quantity  int
}

// Place validates the cart, reserves stock, redeems the coupon and stores
// the order. Any failure after stock was taken puts it back.
func (s *OrderService) Place(ctx context.Context, userID string, in PlaceOrderInput) (*models.Order, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	lines, err := mergeLines(in.Items)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(lines))
	var subtotal float64
	for _, line := range lines {
		p, err := s.products.FindByID(ctx, line.productID, false)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !p.IsActive) {
			return nil, apperror.Newf(apperror.CodeValidationFailed, "Product %s is not available", line.productID.Hex())
		}
		if err != nil {
			return nil, err
		}
		if line.sku == "" && len(p.Variants) > 0 {
			return nil, apperror.Newf(apperror.CodeValidationFailed, "Choose a variant for %s", p.Name)
		}
		price, ok := p.EffectivePrice(line.sku)
		if !ok {
			return nil, apperror.Newf(apperror.CodeValidationFailed, "Unknown variant %q for %s", line.sku, p.Name)
		}
		if avail := p.AvailableStock(line.sku); line.quantity > avail {
			return nil, apperror.Newf(apperror.CodeInsufficientStock, "Not enough stock for %s, available: %d", p.Name, avail)
		}
		lineTotal := roundMoney(price * float64(line.quantity))
		items = append(items, models.OrderItem{
			ProductID:  p.ID,
			Name:       p.Name,
			VariantSKU: line.sku,
			Price:      price,
			Quantity:   line.quantity,
			Subtotal:   lineTotal,
		})
		subtotal += lineTotal
	}
	subtotal = roundMoney(subtotal)

	now := s.now()
	var discount float64
	code := NormalizeCode(in.CouponCode)
	if code != "" {
		c, err := s.coupons.FindByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.New(apperror.CodeCouponInvalid)
		}
		if err != nil {
			return nil, err
		}
		if discount, err = Evaluate(c, subtotal, now); err != nil {
			return nil, err
		}
	}

	held := make([]stockHold, 0, len(lines))
	for _, line := range lines {
		if err := s.products.AdjustStock(ctx, line.productID, line.sku, -line.quantity); err != nil {
			s.releaseStock(ctx, held)
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, apperror.New(apperror.CodeInsufficientStock)
			}
			return nil, err
		}
		held = append(held, line)
	}

	if code != "" {
		if err := s.coupons.Redeem(ctx, code); err != nil {
			s.releaseStock(ctx, held)
			if errors.Is(err, repository.ErrUsageExhausted) {
				return nil, apperror.New(apperror.CodeCouponUsageLimit)
			}
			return nil, err
		}
	}

	fee := ShippingFee(subtotal)
	order := &models.Order{
		OrderNumber:     NewOrderNumber(now),
		UserID:          uid,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   models.PaymentUnpaid,
		Status:          string(orderstatus.Pending),
		StatusHistory: []models.StatusChange{{
			Status:    string(orderstatus.Pending),
			Note:      "Order placed",
			ChangedBy: uid,
			ChangedAt: now,
		}},
		Subtotal:    subtotal,
		Discount:    discount,
		ShippingFee: fee,
		Total:       roundMoney(subtotal - discount + fee),
		CouponCode:  code,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.releaseStock(ctx, held)
		if code != "" {
			if rerr := s.coupons.Release(ctx, code); rerr != nil {
				zap.L().Error("failed to release coupon", zap.String("code", code), zap.Error(rerr))
			}
		}
		return nil, err
	}

	s.invalidate(ctx)
	zap.L().Info("order placed",
		zap.String("orderNumber", order.OrderNumber),
		zap.String("userId", userID),
		zap.Float64("total", order.Total))
	return order, nil
}

// mergeLines folds repeated product/variant lines into one.
func mergeLines(in []OrderItemInput) ([]stockHold, error) {
	var out []stockHold
	index := map[string]int{}
	for _, item := range in {
		pid, err := parseID(item.ProductID)
		if err != nil {
			return nil, err
		}
		sku := strings.TrimSpace(item.VariantSKU)
		key := pid.Hex() + "/" + sku
		if i, ok := index[key]; ok {
			out[i].quantity += item.Quantity
			continue
		}
		index[key] = len(out)
		out = append(out, stockHold{productID: pid, sku: sku, quantity: item.Quantity})
	}
	return out, nil
}

func (s *OrderService) releaseStock(ctx context.Context, held []stockHold) {
	for _, h := range held {
		if err := s.products.AdjustStock(ctx, h.productID, h.sku, h.quantity); err != nil {
			zap.L().Error("failed to restore stock",
				zap.String("productId", h.productID.Hex()),
				zap.String("sku", h.sku),
				zap.Int("quantity", h.quantity),
				zap.Error(err))
		}
	}
}

// NewOrderNumber returns a human-readable order reference such as
// PET-20240131-3F9A1C.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("PET-%s-%s", now.UTC().Format("20060102"), suffix)
}

func (s *OrderService) ListMine(ctx context.Context, userID string, q pipeline.ListQuery) (pipeline.PageResult[models.Order], error) {
	uid, err := parseID(userID)
	if err != nil {
		return pipeline.PageResult[models.Order]{}, err
	}
	return s.orders.ListForUser(ctx, uid, q)
}

func (s *OrderService) GetMine(ctx context.Context, userID, id string) (*models.Order, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.FindForUser(ctx, oid, uid)
	if err != nil {
		return nil, storeErr(err, apperror.CodeInternal)
	}
	return o, nil
}

// CancelMine lets a customer cancel their own order while it is pending.
func (s *OrderService) CancelMine(ctx context.Context, userID, id, reason string) (*models.Order, error) {
	o, err := s.GetMine(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if o.Status != string(orderstatus.Pending) {
		return nil, apperror.New(apperror.CodeOrderNotCancellable)
	}
	note := strings.TrimSpace(reason)
	if note == "" {
		note = "Cancelled by customer"
	}
	return s.transition(ctx, o, orderstatus.Cancelled, o.UserID, note)
}

func (s *OrderService) List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.OrderListItem], error) {
	return s.orders.List(ctx, q)
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		return nil, storeErr(err, apperror.CodeInternal)
	}
	return o, nil
}

// Transitions lists the statuses the order may move to next, taking the
// payment rule into account.
func (s *OrderService) Transitions(ctx context.Context, id string) ([]orderstatus.Status, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := orderstatus.Status(o.Status)
	out := []orderstatus.Status{}
	for _, to := range orderstatus.Allowed(from) {
		if orderstatus.Validate(from, to, o.PaymentMethod, o.PaymentStatus) == nil {
			out = append(out, to)
		}
	}
	return out, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, actorID, id, status, note string) (*models.Order, error) {
	actor, err := parseID(actorID)
	if err != nil {
		return nil, err
	}
	to, err := orderstatus.Parse(status)
	if err != nil {
		return nil, apperror.Newf(apperror.CodeValidationFailed, "Invalid status value %q", status)
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, o, to, actor, strings.TrimSpace(note))
}

// MarkPaid records payment for a card or wallet order, or a COD order
// settled early.
func (s *OrderService) MarkPaid(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != models.PaymentUnpaid || orderstatus.IsTerminal(orderstatus.Status(o.Status)) {
		return nil, apperror.Newf(apperror.CodeValidationFailed, "Order %s cannot be marked paid", o.OrderNumber)
	}
	updated, err := s.orders.MarkPaid(ctx, o.ID, s.now())
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperror.Newf(apperror.CodeValidationFailed, "Order %s cannot be marked paid", o.OrderNumber)
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// transition moves o to status to and applies its side effects: COD orders
// are settled on delivery, paid orders are refunded on cancellation or
// return, and stock comes back for cancelled or returned items.
func (s *OrderService) transition(ctx context.Context, o *models.Order, to orderstatus.Status, actor primitive.ObjectID, note string) (*models.Order, error) {
	from := orderstatus.Status(o.Status)
	if err := orderstatus.Validate(from, to, o.PaymentMethod, o.PaymentStatus); err != nil {
		switch {
		case errors.Is(err, orderstatus.ErrPaymentRequired):
			return nil, apperror.Wrap(apperror.CodePaymentRequired, err)
		case errors.Is(err, orderstatus.ErrInvalidTransition):
			return nil, &apperror.Error{
				Code:    apperror.CodeInvalidStatusTransition,
				Message: fmt.Sprintf("Cannot change status from %s to %s", from, to),
				Err:     err,
			}
		default:
			return nil, apperror.Wrap(apperror.CodeValidationFailed, err)
		}
	}

	now := s.now()
	upd := repository.StatusUpdate{
		From: o.Status,
		To:   string(to),
		Change: models.StatusChange{
			Status:    string(to),
			Note:      note,
			ChangedBy: actor,
			ChangedAt: now,
		},
	}
	restock := to == orderstatus.Cancelled || to == orderstatus.Returned
	switch {
	case to == orderstatus.Delivered && o.PaymentMethod == models.PaymentCOD && o.PaymentStatus == models.PaymentUnpaid:
		upd.PaymentStatus = models.PaymentPaid
		upd.PaidAt = &now
	case restock && o.PaymentStatus == models.PaymentPaid:
		upd.PaymentStatus = models.PaymentRefunded
	}

	updated, err := s.orders.ApplyStatus(ctx, o.ID, upd)
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperror.Newf(apperror.CodeInvalidStatusTransition, "Order was updated by someone else, reload and retry")
	}
	if err != nil {
		return nil, err
	}

	if restock {
		held := make([]stockHold, 0, len(o.Items))
		for _, item := range o.Items {
			held = append(held, stockHold{productID: item.ProductID, sku: item.VariantSKU, quantity: item.Quantity})
		}
		s.releaseStock(ctx, held)
	}
	if to == orderstatus.Cancelled && o.CouponCode != "" {
		if err := s.coupons.Release(ctx, o.CouponCode); err != nil {
			zap.L().Error("failed to release coupon", zap.String("code", o.CouponCode), zap.Error(err))
		}
	}
	s.invalidate(ctx)

	zap.L().Info("order status changed",
		zap.String("orderNumber", o.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("by", actor.Hex()))
	return updated, nil
}

func (s *OrderService) invalidate(ctx context.Context) {
	if err := s.analytics.Invalidate(ctx); err != nil {
		zap.L().Warn("failed to invalidate analytics cache", zap.Error(err))
	}
}
