package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// idParam reads a positive integer path parameter, responding 400 when it
// is not one.
func idParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, name+" must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
