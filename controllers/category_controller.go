package controllers

import (
	"context"
	"net/http"

	"petopia/models"
	"petopia/pipeline"
	"petopia/service"

	"github.com/gin-gonic/gin"
)

type CategoryService interface {
	Create(ctx context.Context, in service.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id string, in service.CategoryInput) (*models.Category, error)
	Get(ctx context.Context, id string, includeDeleted bool) (*models.Category, error)
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) (*models.Category, error)
	List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.Category], error)
	All(ctx context.Context) ([]models.Category, error)
	NameAvailable(ctx context.Context, name, excludeID string) (bool, error)
}

type CategoryController struct {
	categories CategoryService
}

func NewCategoryController(categories CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

// ListPublic returns every live category for the storefront menu.
func (h *CategoryController) ListPublic(c *gin.Context) {
	cats, err := h.categories.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats, "count": len(cats)})
}

func (h *CategoryController) List(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.categories.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *CategoryController) Get(c *gin.Context) {
	cat, err := h.categories.Get(c.Request.Context(), c.Param("id"), c.Query("includeDeleted") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

func (h *CategoryController) Create(c *gin.Context) {
	var in service.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	cat, err := h.categories.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created", "category": cat})
}

func (h *CategoryController) Update(c *gin.Context) {
	var in service.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	cat, err := h.categories.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated", "category": cat})
}

func (h *CategoryController) Delete(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

func (h *CategoryController) Restore(c *gin.Context) {
	cat, err := h.categories.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category restored", "category": cat})
}

// CheckName answers the admin form's live uniqueness check.
func (h *CategoryController) CheckName(c *gin.Context) {
	ok, err := h.categories.NameAvailable(c.Request.Context(), c.Query("name"), c.Query("excludeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": ok})
}
