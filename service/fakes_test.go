package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"petopia/models"
	"petopia/pipeline"
	"petopia/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeCategories struct {
	items map[primitive.ObjectID]*models.Category
}

func newFakeCategories(cs ...*models.Category) *fakeCategories {
	f := &fakeCategories{items: map[primitive.ObjectID]*models.Category{}}
	for _, c := range cs {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		f.items[c.ID] = c
	}
	return f
}

func (f *fakeCategories) Create(_ context.Context, c *models.Category) error {
	c.ID = primitive.NewObjectID()
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCategories) Update(_ context.Context, c *models.Category) error {
	if _, ok := f.items[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCategories) FindByID(_ context.Context, id primitive.ObjectID, includeDeleted bool) (*models.Category, error) {
	c, ok := f.items[id]
	if !ok || (c.IsDeleted && !includeDeleted) {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategories) NameTaken(_ context.Context, name string, excludeID primitive.ObjectID) (bool, error) {
	for id, c := range f.items {
		if id != excludeID && !c.IsDeleted && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategories) SoftDelete(_ context.Context, id primitive.ObjectID, now time.Time) error {
	c, ok := f.items[id]
	if !ok || c.IsDeleted {
		return repository.ErrNotFound
	}
	c.IsDeleted = true
	c.DeletedAt = &now
	return nil
}

func (f *fakeCategories) Restore(_ context.Context, id primitive.ObjectID, _ time.Time) error {
	c, ok := f.items[id]
	if !ok || !c.IsDeleted {
		return repository.ErrNotFound
	}
	c.IsDeleted = false
	c.DeletedAt = nil
	return nil
}

func (f *fakeCategories) List(context.Context, pipeline.ListQuery) (pipeline.PageResult[models.Category], error) {
	return pipeline.PageResult[models.Category]{}, nil
}

func (f *fakeCategories) All(context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.items {
		if !c.IsDeleted {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeProducts struct {
	mu       sync.Mutex
	items    map[primitive.ObjectID]*models.Product
	failNext map[primitive.ObjectID]error
}

func newFakeProducts(ps ...*models.Product) *fakeProducts {
	f := &fakeProducts{items: map[primitive.ObjectID]*models.Product{}, failNext: map[primitive.ObjectID]error{}}
	for _, p := range ps {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	p.ID = primitive.NewObjectID()
	cp := *p
	f.items[p.ID] = &cp
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) error {
	cp := *p
	f.items[p.ID] = &cp
	return nil
}

func (f *fakeProducts) FindByID(_ context.Context, id primitive.ObjectID, includeDeleted bool) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || (p.IsDeleted && !includeDeleted) {
		return nil, repository.ErrNotFound
	}
	cp := *p
	cp.Variants = append([]models.Variant(nil), p.Variants...)
	return &cp, nil
}

func (f *fakeProducts) NameTaken(_ context.Context, name string, excludeID primitive.ObjectID) (bool, error) {
	for id, p := range f.items {
		if id != excludeID && !p.IsDeleted && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProducts) SoftDelete(_ context.Context, id primitive.ObjectID, now time.Time) error {
	p, ok := f.items[id]
	if !ok || p.IsDeleted {
		return repository.ErrNotFound
	}
	p.IsDeleted = true
	p.DeletedAt = &now
	return nil
}

func (f *fakeProducts) Restore(_ context.Context, id primitive.ObjectID, _ time.Time) error {
	p, ok := f.items[id]
	if !ok || !p.IsDeleted {
		return repository.ErrNotFound
	}
	p.IsDeleted = false
	p.DeletedAt = nil
	return nil
}

func (f *fakeProducts) List(context.Context, pipeline.ListQuery) (pipeline.PageResult[models.ProductListItem], error) {
	return pipeline.PageResult[models.ProductListItem]{}, nil
}

func (f *fakeProducts) AdjustStock(_ context.Context, id primitive.ObjectID, sku string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failNext[id]; ok {
		delete(f.failNext, id)
		return err
	}
	p, ok := f.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if sku == "" {
		if p.Stock+delta < 0 {
			return repository.ErrInsufficientStock
		}
		p.Stock += delta
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			if p.Variants[i].Stock+delta < 0 {
				return repository.ErrInsufficientStock
			}
			p.Variants[i].Stock += delta
			p.Stock += delta
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeProducts) CountLive(context.Context) (int64, int64, error) {
	var total, low int64
	for _, p := range f.items {
		if p.IsDeleted {
			continue
		}
		total++
		if p.Stock <= repository.LowStockThreshold {
			low++
		}
	}
	return total, low, nil
}

func (f *fakeProducts) CountByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	var n int64
	for _, p := range f.items {
		if !p.IsDeleted && p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (f *fakeProducts) stock(id primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].Stock
}

type fakeCoupons struct {
	items map[primitive.ObjectID]*models.Coupon
}

func newFakeCoupons(cs ...*models.Coupon) *fakeCoupons {
	f := &fakeCoupons{items: map[primitive.ObjectID]*models.Coupon{}}
	for _, c := range cs {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		f.items[c.ID] = c
	}
	return f
}

func (f *fakeCoupons) byCode(code string) *models.Coupon {
	for _, c := range f.items {
		if c.Code == code {
			return c
		}
	}
	return nil
}

func (f *fakeCoupons) Create(_ context.Context, c *models.Coupon) error {
	c.ID = primitive.NewObjectID()
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCoupons) Update(_ context.Context, c *models.Coupon) error {
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCoupons) FindByID(_ context.Context, id primitive.ObjectID, includeDeleted bool) (*models.Coupon, error) {
	c, ok := f.items[id]
	if !ok || (c.IsDeleted && !includeDeleted) {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCoupons) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	c := f.byCode(code)
	if c == nil || c.IsDeleted {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCoupons) CodeTaken(_ context.Context, code string, excludeID primitive.ObjectID) (bool, error) {
	c := f.byCode(code)
	return c != nil && c.ID != excludeID, nil
}

func (f *fakeCoupons) SoftDelete(_ context.Context, id primitive.ObjectID, now time.Time) error {
	c, ok := f.items[id]
	if !ok || c.IsDeleted {
		return repository.ErrNotFound
	}
	c.IsDeleted = true
	c.DeletedAt = &now
	return nil
}

func (f *fakeCoupons) Restore(_ context.Context, id primitive.ObjectID, _ time.Time) error {
	c, ok := f.items[id]
	if !ok || !c.IsDeleted {
		return repository.ErrNotFound
	}
	c.IsDeleted = false
	c.DeletedAt = nil
	return nil
}

func (f *fakeCoupons) List(context.Context, pipeline.ListQuery) (pipeline.PageResult[models.Coupon], error) {
	return pipeline.PageResult[models.Coupon]{}, nil
}

func (f *fakeCoupons) Redeem(_ context.Context, code string) error {
	c := f.byCode(code)
	if c == nil {
		return repository.ErrNotFound
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return repository.ErrUsageExhausted
	}
	c.UsedCount++
	return nil
}

func (f *fakeCoupons) Release(_ context.Context, code string) error {
	c := f.byCode(code)
	if c == nil {
		return repository.ErrNotFound
	}
	if c.UsedCount > 0 {
		c.UsedCount--
	}
	return nil
}

type fakeUsers struct {
	items map[primitive.ObjectID]*models.User
}

func newFakeUsers(us ...*models.User) *fakeUsers {
	f := &fakeUsers{items: map[primitive.ObjectID]*models.User{}}
	for _, u := range us {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		f.items[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	for _, existing := range f.items {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	f.items[u.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.items {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) List(context.Context, pipeline.ListQuery) (pipeline.PageResult[models.User], error) {
	return pipeline.PageResult[models.User]{}, nil
}

func (f *fakeUsers) SetBlocked(_ context.Context, id primitive.ObjectID, blocked bool) (*models.User, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.IsBlocked = blocked
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, u := range f.items {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type fakeOrders struct {
	items     map[primitive.ObjectID]*models.Order
	createErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{items: map[primitive.ObjectID]*models.Order{}}
}

func (f *fakeOrders) Create(_ context.Context, o *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	o.ID = primitive.NewObjectID()
	cp := *o
	f.items[o.ID] = &cp
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	o, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	o, err := f.FindByID(ctx, id)
	if err != nil || o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) List(context.Context, pipeline.ListQuery) (pipeline.PageResult[models.OrderListItem], error) {
	return pipeline.PageResult[models.OrderListItem]{}, nil
}

func (f *fakeOrders) ListForUser(_ context.Context, userID primitive.ObjectID, q pipeline.ListQuery) (pipeline.PageResult[models.Order], error) {
	var data []models.Order
	for _, o := range f.items {
		if o.UserID == userID {
			data = append(data, *o)
		}
	}
	page, limit := pipeline.NormalizePage(q.Page, q.Limit)
	return pipeline.PageResult[models.Order]{Data: data, Total: int64(len(data)), Page: page, Limit: limit, TotalPages: 1}, nil
}

func (f *fakeOrders) ApplyStatus(_ context.Context, id primitive.ObjectID, u repository.StatusUpdate) (*models.Order, error) {
	o, ok := f.items[id]
	if !ok || o.Status != u.From {
		return nil, repository.ErrConflict
	}
	o.Status = u.To
	if u.PaymentStatus != "" {
		o.PaymentStatus = u.PaymentStatus
	}
	if u.PaidAt != nil {
		o.PaidAt = u.PaidAt
	}
	o.StatusHistory = append(o.StatusHistory, u.Change)
	o.UpdatedAt = u.Change.ChangedAt
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, id primitive.ObjectID, now time.Time) (*models.Order, error) {
	o, ok := f.items[id]
	if !ok || o.PaymentStatus != models.PaymentUnpaid {
		return nil, repository.ErrConflict
	}
	o.PaymentStatus = models.PaymentPaid
	o.PaidAt = &now
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, o := range f.items {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeTokens struct {
	listed map[string]time.Time
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{listed: map[string]time.Time{}}
}

func (f *fakeTokens) Blacklist(_ context.Context, token string, expiresAt time.Time) error {
	f.listed[token] = expiresAt
	return nil
}

func (f *fakeTokens) IsBlacklisted(_ context.Context, token string) (bool, error) {
	_, ok := f.listed[token]
	return ok, nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
