package controllers

import (
	"errors"
	"net/http"

	"petopia/apperror"
	"petopia/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// respondError writes the {"error", "code"} body clients map to a toast.
// Internal failures are logged and reported without detail.
func respondError(c *gin.Context, err error) {
	ae := apperror.From(err)
	status := ae.Status()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		zap.L().Error("request failed",
			zap.String("requestId", c.GetString(middleware.ContextRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		ae = apperror.New(apperror.CodeInternal)
	}
	c.JSON(status, gin.H{"error": ae.Message, "code": ae.Code})
}

// bindJSON binds the request body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  apperror.MessageOf(apperror.CodeValidationFailed),
			"code":   apperror.CodeValidationFailed,
			"fields": fieldErrors(verrs),
		})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "Invalid request body",
		"code":  apperror.CodeValidationFailed,
	})
	return false
}
