package handler

import (
	"errors"

	"Forum_Hub/internal/middleware"
	"Forum_Hub/internal/pkg"

	"github.com/gin-gonic/gin"
)

// fail 按错误类别映射状态码，非业务错误一律500且不外泄细节
func fail(c *gin.Context, err error) {
	msg := "internal error"
	var e *pkg.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	c.JSON(pkg.HTTPStatus(err), gin.H{"msg": msg})
}

// identity 从认证中间件注入的context里取当前用户
func identity(c *gin.Context) (userID string, isAdmin bool) {
	return c.GetString(middleware.ContextUserIDKey), c.GetBool(middleware.ContextAdminKey)
}
