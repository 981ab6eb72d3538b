package middlewares

import (
	"github.com/gin-gonic/gin"
)

// abort writes the same error envelope the handlers use.
func abort(c *gin.Context, status int, code, msg string) {
	body := gin.H{
		"msg":  msg,
		"code": code,
	}
	if id := RequestIDFromContext(c); id != "" {
		body["requestId"] = id
	}
	c.AbortWithStatusJSON(status, body)
}
