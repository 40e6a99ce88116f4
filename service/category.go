package service

import (
	"context"
	"strings"
	"time"

	"petopia/apperror"
	"petopia/models"
	"petopia/pipeline"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CategoryInput struct {
	Name        string `json:"name" binding:"required,min=2,max=50"`
	Description string `json:"description" binding:"max=500"`
	Image       string `json:"image" binding:"omitempty,url"`
}

type CategoryService struct {
	categories CategoryStore
	products   ProductStore
	now        func() time.Time
}

func NewCategoryService(categories CategoryStore, products ProductStore) *CategoryService {
	return &CategoryService{categories: categories, products: products, now: utcNow}
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if err := s.ensureNameFree(ctx, name, primitive.NilObjectID); err != nil {
		return nil, err
	}
	now := s.now()
	c := &models.Category{
		Name:        name,
		Slug:        Slugify(name),
		Description: strings.TrimSpace(in.Description),
		Image:       in.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateName)
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	c, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if !strings.EqualFold(name, c.Name) {
		if err := s.ensureNameFree(ctx, name, c.ID); err != nil {
			return nil, err
		}
	}
	c.Name = name
	c.Slug = Slugify(name)
	c.Description = strings.TrimSpace(in.Description)
	c.Image = in.Image
	c.UpdatedAt = s.now()
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateName)
	}
	return c, nil
}

func (s *CategoryService) Get(ctx context.Context, id string, includeDeleted bool) (*models.Category, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	c, err := s.categories.FindByID(ctx, oid, includeDeleted)
	if err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateName)
	}
	return c, nil
}

// Delete soft-deletes a category. Categories still holding live products
// cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	n, err := s.products.CountByCategory(ctx, oid)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.Newf(apperror.CodeValidationFailed, "Category still has %d products", n)
	}
	return storeErr(s.categories.SoftDelete(ctx, oid, s.now()), apperror.CodeDuplicateName)
}

// Restore undeletes a category unless a live category took its name
// meanwhile.
func (s *CategoryService) Restore(ctx context.Context, id string) (*models.Category, error) {
	c, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if !c.IsDeleted {
		return c, nil
	}
	if err := s.ensureNameFree(ctx, c.Name, c.ID); err != nil {
		return nil, err
	}
	if err := s.categories.Restore(ctx, c.ID, s.now()); err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateName)
	}
	return s.Get(ctx, id, false)
}

func (s *CategoryService) List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.Category], error) {
	return s.categories.List(ctx, q)
}

func (s *CategoryService) All(ctx context.Context) ([]models.Category, error) {
	return s.categories.All(ctx)
}

// NameAvailable backs the admin form's live uniqueness check. excludeID is
// the category being edited, if any.
func (s *CategoryService) NameAvailable(ctx context.Context, name, excludeID string) (bool, error) {
	exclude, err := optionalID(excludeID)
	if err != nil {
		return false, err
	}
	taken, err := s.categories.NameTaken(ctx, strings.TrimSpace(name), exclude)
	return !taken, err
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name string, exclude primitive.ObjectID) error {
	taken, err := s.categories.NameTaken(ctx, name, exclude)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Newf(apperror.CodeDuplicateName, "Category %q already exists", name)
	}
	return nil
}

func optionalID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, nil
	}
	return parseID(id)
}
