package middlewares

import "github.com/gin-gonic/gin"

// Keys stored on the gin context.
const (
	CtxRequestID = "request_id"
	ctxUserIDKey = "auth.userID"
	ctxUsername  = "auth.username"
	ctxClaimsKey = "auth.claims"
	ctxListKey   = "list"
	ctxAccessKey = "list.access"
)

// abortError writes the standard error envelope and stops the chain.
func abortError(c *gin.Context, status int, code, message string) {
	reqID, _ := c.Get(CtxRequestID)
	id, _ := reqID.(string)

	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": id,
		},
	})
}
