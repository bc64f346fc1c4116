package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/gin-gonic/gin"
)

type ListAuthorizer interface {
	Require(ctx context.Context, listID, userID int64, allowed func(collab.Access) bool) (todo.List, collab.Access, error)
}

// RequireList loads :listId and checks the caller's standing on it before
// the handler runs. Callers with no access at all get 404.
func RequireList(authz ListAuthorizer, allowed func(collab.Access) bool, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		listID, err := strconv.ParseInt(c.Param("listId"), 10, 64)
		if err != nil || listID <= 0 {
			abortError(c, http.StatusBadRequest, "invalid_request", "listId must be a positive integer")
			return
		}

		l, access, err := authz.Require(c.Request.Context(), listID, userID, allowed)
		switch {
		case err == nil:
		case errors.Is(err, todo.ErrListNotFound):
			abortError(c, http.StatusNotFound, "not_found", "todo list not found")
			return
		case errors.Is(err, collab.ErrForbidden):
			abortError(c, http.StatusForbidden, "forbidden", "You do not have permission to do this on this list")
			return
		default:
			log.ErrorContext(c.Request.Context(), "list access check failed", "list_id", listID, "err", err)
			abortError(c, http.StatusInternalServerError, "internal_error", "Could not check list access")
			return
		}

		c.Set(ctxListKey, l)
		c.Set(ctxAccessKey, access)
		c.Next()
	}
}

func ListFromContext(c *gin.Context) (todo.List, bool) {
	v, ok := c.Get(ctxListKey)
	if !ok {
		return todo.List{}, false
	}
	l, ok := v.(todo.List)
	return l, ok
}

func AccessFromContext(c *gin.Context) (collab.Access, bool) {
	v, ok := c.Get(ctxAccessKey)
	if !ok {
		return collab.Access{}, false
	}
	a, ok := v.(collab.Access)
	return a, ok
}

// SetList is used by tests to skip the access check.
func SetList(c *gin.Context, l todo.List, a collab.Access) {
	c.Set(ctxListKey, l)
	c.Set(ctxAccessKey, a)
}
