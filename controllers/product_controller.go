package controllers

import (
	"context"
	"net/http"

	"petopia/models"
	"petopia/pipeline"
	"petopia/service"

	"github.com/gin-gonic/gin"
)

type ProductService interface {
	Create(ctx context.Context, in service.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, in service.ProductInput) (*models.Product, error)
	Get(ctx context.Context, id string, includeDeleted bool) (*models.Product, error)
	GetPublic(ctx context.Context, id string) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.ProductListItem], error)
	ListPublic(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.ProductListItem], error)
	NameAvailable(ctx context.Context, name, excludeID string) (bool, error)
}

type ProductController struct {
	products ProductService
}

func NewProductController(products ProductService) *ProductController {
	return &ProductController{products: products}
}

var (
	publicProductFilters = []filterParam{
		{param: "category", field: "categoryId", kind: idFilter},
	}
	adminProductFilters = []filterParam{
		{param: "category", field: "categoryId", kind: idFilter},
		{param: "isActive", field: "isActive", kind: boolFilter},
	}
)

func (h *ProductController) ListPublic(c *gin.Context) {
	q, err := parseListQuery(c, publicProductFilters...)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.products.ListPublic(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProductController) GetPublic(c *gin.Context) {
	p, err := h.products.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *ProductController) List(c *gin.Context) {
	q, err := parseListQuery(c, adminProductFilters...)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.products.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProductController) Get(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"), c.Query("includeDeleted") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *ProductController) Create(c *gin.Context) {
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.products.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "product": p})
}

func (h *ProductController) Update(c *gin.Context) {
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.products.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": p})
}

func (h *ProductController) Delete(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (h *ProductController) Restore(c *gin.Context) {
	p, err := h.products.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product restored", "product": p})
}

func (h *ProductController) CheckName(c *gin.Context) {
	ok, err := h.products.NameAvailable(c.Request.Context(), c.Query("name"), c.Query("excludeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": ok})
}
