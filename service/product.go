package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"petopia/apperror"
	"petopia/models"
	"petopia/pipeline"
	"petopia/repository"
)

type ProductInput struct {
	Name        string           `json:"name" binding:"required,min=2,max=120"`
	Description string           `json:"description" binding:"max=5000"`
	CategoryID  string           `json:"categoryId" binding:"required,objectid"`
	Price       float64          `json:"price" binding:"required,gt=0"`
	SalePrice   *float64         `json:"salePrice" binding:"omitempty,gt=0"`
	Stock       int              `json:"stock" binding:"gte=0"`
	Variants    []models.Variant `json:"variants" binding:"max=50,dive"`
	Images      []string         `json:"images" binding:"max=10,dive,url"`
	Tags        []string         `json:"tags" binding:"max=20"`
	IsActive    *bool            `json:"isActive"`
}

type ProductService struct {
	products   ProductStore
	categories CategoryStore
	now        func() time.Time
}

func NewProductService(products ProductStore, categories CategoryStore) *ProductService {
	return &ProductService{products: products, categories: categories, now: utcNow}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	p := &models.Product{IsActive: true}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.products.Create(ctx, p); err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateName)
	}
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	p, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()
	if err := s.products.Update(ctx, p); err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateName)
	}
	return p, nil
}

// apply validates in and copies it onto p.
func (s *ProductService) apply(ctx context.Context, p *models.Product, in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if !strings.EqualFold(name, p.Name) {
		taken, err := s.products.NameTaken(ctx, name, p.ID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Newf(apperror.CodeDuplicateName, "Product %q already exists", name)
		}
	}

	categoryID, err := parseID(in.CategoryID)
	if err != nil {
		return err
	}
	if _, err := s.categories.FindByID(ctx, categoryID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Newf(apperror.CodeValidationFailed, "Category does not exist")
		}
		return err
	}

	if in.SalePrice != nil && *in.SalePrice >= in.Price {
		return apperror.Newf(apperror.CodeValidationFailed, "Sale price must be lower than price")
	}
	skus := map[string]bool{}
	for _, v := range in.Variants {
		if skus[v.SKU] {
			return apperror.Newf(apperror.CodeValidationFailed, "Duplicate variant SKU %q", v.SKU)
		}
		skus[v.SKU] = true
	}

	p.Name = name
	p.Slug = Slugify(name)
	p.Description = strings.TrimSpace(in.Description)
	p.CategoryID = categoryID
	p.Price = roundMoney(in.Price)
	p.SalePrice = nil
	if in.SalePrice != nil {
		sale := roundMoney(*in.SalePrice)
		p.SalePrice = &sale
	}
	p.Variants = in.Variants
	if p.Variants == nil {
		p.Variants = []models.Variant{}
	}
	p.Stock = in.Stock
	if len(p.Variants) > 0 {
		p.Stock = models.TotalVariantStock(p.Variants)
	}
	p.Images = cleanStrings(in.Images)
	p.Tags = cleanStrings(in.Tags)
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return nil
}

func (s *ProductService) Get(ctx context.Context, id string, includeDeleted bool) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, oid, includeDeleted)
	if err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateName)
	}
	return p, nil
}

// GetPublic returns a product only while it is on sale.
func (s *ProductService) GetPublic(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperror.New(apperror.CodeNotFound)
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	return storeErr(s.products.SoftDelete(ctx, oid, s.now()), apperror.CodeDuplicateName)
}

func (s *ProductService) Restore(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if !p.IsDeleted {
		return p, nil
	}
	taken, err := s.products.NameTaken(ctx, p.Name, p.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.Newf(apperror.CodeDuplicateName, "Product %q already exists", p.Name)
	}
	if err := s.products.Restore(ctx, p.ID, s.now()); err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateName)
	}
	return s.Get(ctx, id, false)
}

func (s *ProductService) List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.ProductListItem], error) {
	return s.products.List(ctx, q)
}

// ListPublic lists the storefront catalogue: live, active products only.
func (s *ProductService) ListPublic(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.ProductListItem], error) {
	filters := map[string]any{}
	for k, v := range q.Filters {
		filters[k] = v
	}
	filters["isActive"] = true
	q.Filters = filters
	q.IncludeDeleted = false
	return s.products.List(ctx, q)
}

func (s *ProductService) NameAvailable(ctx context.Context, name, excludeID string) (bool, error) {
	exclude, err := optionalID(excludeID)
	if err != nil {
		return false, err
	}
	taken, err := s.products.NameTaken(ctx, strings.TrimSpace(name), exclude)
	return !taken, err
}

