package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// respondDomainError maps the shared sentinel errors to their HTTP form.
// Anything unrecognised is logged and reported as a 500 with fallback as the
// message.
func respondDomainError(ctx *gin.Context, log *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, todo.ErrListNotFound):
		RespondNotFound(ctx, "todo list not found")
	case errors.Is(err, todo.ErrItemNotFound):
		RespondNotFound(ctx, "todo item not found")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "user not found")
	case errors.Is(err, collab.ErrForbidden):
		RespondForbidden(ctx, "You do not have permission to do this")
	case errors.Is(err, collab.ErrNoSuchUser):
		RespondError(ctx, http.StatusBadRequest, "no_such_user", "No matching user exists", nil)
	case errors.Is(err, collab.ErrAlreadyShared):
		RespondError(ctx, http.StatusBadRequest, "already_shared", "The list is already shared with every given user", nil)
	case errors.Is(err, user.ErrDuplicateUser):
		RespondError(ctx, http.StatusBadRequest, "duplicate_user", err.Error(), nil)
	case errors.Is(err, accounts.ErrInvalidInput):
		RespondBadRequest(ctx, err.Error(), nil)
	default:
		log.ErrorContext(ctx.Request.Context(), fallback, "err", err, "route", ctx.FullPath())
		RespondInternal(ctx, fallback)
	}
}
