package middleware

import (
	"net/http"
	"runtime/debug"

	"petopia/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a panic into a 500 with the standard error body.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("requestId", c.GetString(ContextRequestID)),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": apperror.MessageOf(apperror.CodeInternal),
					"code":  apperror.CodeInternal,
				})
			}
		}()
		c.Next()
	}
}
