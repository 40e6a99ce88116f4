package controllers

import (
	"context"
	"net/http"

	"petopia/middleware"
	"petopia/models"
	"petopia/pipeline"

	"github.com/gin-gonic/gin"
)

type UserService interface {
	List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.User], error)
	Get(ctx context.Context, id string) (*models.User, error)
	SetBlocked(ctx context.Context, actorID, id string, blocked bool) (*models.User, error)
}

type UserController struct {
	users UserService
}

func NewUserController(users UserService) *UserController {
	return &UserController{users: users}
}

var userFilters = []filterParam{
	{param: "role", field: "role", values: []string{models.RoleCustomer, models.RoleAdmin}},
	{param: "isBlocked", field: "isBlocked", kind: boolFilter},
}

func (h *UserController) List(c *gin.Context) {
	q, err := parseListQuery(c, userFilters...)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.users.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *UserController) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserController) Block(c *gin.Context)   { h.setBlocked(c, true) }
func (h *UserController) Unblock(c *gin.Context) { h.setBlocked(c, false) }

func (h *UserController) setBlocked(c *gin.Context, blocked bool) {
	user, err := h.users.SetBlocked(c.Request.Context(), middleware.UserID(c), c.Param("id"), blocked)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "User unblocked"
	if blocked {
		msg = "User blocked"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "user": user})
}
