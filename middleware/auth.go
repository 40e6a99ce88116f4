package middleware

import (
	"context"
	"net/http"
	"strings"

	"petopia/apperror"
	"petopia/models"
	"petopia/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "userId"
	ContextRole   = "role"
	ContextToken  = "token"
)

// TokenVerifier is satisfied by service.AuthService.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*service.Claims, error)
}

func AuthMiddleware(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortWithError(c, apperror.Newf(apperror.CodeUnauthorized, "Token required"))
			return
		}

		claims, err := v.Verify(c.Request.Context(), tokenString)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextToken, tokenString)
		c.Next()
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != models.RoleAdmin {
			abortWithError(c, apperror.New(apperror.CodeForbidden))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// UserID returns the authenticated user's id set by AuthMiddleware.
func UserID(c *gin.Context) string { return c.GetString(ContextUserID) }

// Token returns the raw bearer token set by AuthMiddleware.
func Token(c *gin.Context) string { return c.GetString(ContextToken) }

func abortWithError(c *gin.Context, err error) {
	ae := apperror.From(err)
	status := ae.Status()
	if status >= http.StatusInternalServerError {
		c.Error(err)
		ae = apperror.New(apperror.CodeInternal)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": ae.Message, "code": ae.Code})
}
