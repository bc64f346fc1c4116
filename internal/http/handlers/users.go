package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AssignItemRequest struct {
	ItemID int64 `json:"itemId" binding:"required,gt=0"`
}

type UsersHandler struct {
	accounts AccountService
	items    ItemStore
	authz    middlewares.ListAuthorizer
	log      *slog.Logger
}

func NewUsersHandler(accounts AccountService, items ItemStore, authz middlewares.ListAuthorizer, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{accounts: accounts, items: items, authz: authz, log: log}
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.accounts.Get(cctx, id)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// Update lets a user change their own full name or password.
func (h *UsersHandler) Update(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)
	if callerID != id {
		RespondForbidden(ctx, "You can only update your own account")
		return
	}

	var req user.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.accounts.Update(cctx, id, req)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// AssignItem assigns an item to the user in the path. The caller needs edit
// rights on the item's list.
func (h *UsersHandler) AssignItem(ctx *gin.Context) {
	assigneeID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req AssignItemRequest
	if !BindJSON(ctx, &req) {
		return
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	it, err := h.items.GetByID(cctx, req.ItemID)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not load item")
		return
	}

	if _, _, err := h.authz.Require(cctx, it.ListID, callerID, collab.Access.CanEdit); err != nil {
		// an item on an invisible list is reported as a missing item
		if errors.Is(err, todo.ErrListNotFound) {
			err = todo.ErrItemNotFound
		}
		respondDomainError(ctx, h.log, err, "Could not check list access")
		return
	}

	updated, err := h.items.Assign(cctx, it.ID, &assigneeID)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not assign item")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}
