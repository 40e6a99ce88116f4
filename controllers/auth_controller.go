package controllers

import (
	"context"
	"net/http"

	"petopia/middleware"
	"petopia/models"
	"petopia/service"

	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in service.LoginInput) (*service.Session, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, userID string) (*models.User, error)
}

type AuthController struct {
	auth AuthService
}

func NewAuthController(auth AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (h *AuthController) Register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered", "user": user})
}

func (h *AuthController) Login(c *gin.Context) {
	var in service.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
		"user":      sess.User,
	})
}

func (h *AuthController) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.Token(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthController) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
