package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ItemStore interface {
	Create(ctx context.Context, req todo.CreateItemRequest) (todo.Item, error)
	GetByID(ctx context.Context, id int64) (todo.Item, error)
	Update(ctx context.Context, id int64, req todo.UpdateItemRequest) (todo.Item, error)
	Delete(ctx context.Context, id int64) error
	Assign(ctx context.Context, id int64, userID *int64) (todo.Item, error)
}

type ItemsHandler struct {
	items ItemStore
	log   *slog.Logger
}

func NewItemsHandler(items ItemStore, log *slog.Logger) *ItemsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ItemsHandler{items: items, log: log}
}

func (h *ItemsHandler) Create(ctx *gin.Context) {
	l, _ := middlewares.ListFromContext(ctx)

	var req todo.CreateItemRequest
	if !BindJSON(ctx, &req) {
		return
	}
	req.ListID = l.ID

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	it, err := h.items.Create(cctx, req)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not create todo item")
		return
	}

	ctx.JSON(http.StatusCreated, it)
}

func (h *ItemsHandler) Update(ctx *gin.Context) {
	var req todo.UpdateItemRequest
	if !BindJSON(ctx, &req) {
		return
	}

	req.Normalize()
	if req.Empty() {
		RespondBadRequest(ctx, "Nothing to update; send title, description, status or assignedTo", nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	it, ok := h.itemInList(cctx, ctx)
	if !ok {
		return
	}

	updated, err := h.items.Update(cctx, it.ID, req)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not update todo item")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *ItemsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	it, ok := h.itemInList(cctx, ctx)
	if !ok {
		return
	}

	if err := h.items.Delete(cctx, it.ID); err != nil {
		respondDomainError(ctx, h.log, err, "Could not delete todo item")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Assign sets the item's assignee; an explicit null clears it.
func (h *ItemsHandler) Assign(ctx *gin.Context) {
	var req todo.AssignRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if !req.UserID.Set {
		RespondBadRequest(ctx, "Invalid request body", gin.H{
			"fields": []FieldError{{Field: "userId", Rule: "required", Message: "is required"}},
		})
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	it, ok := h.itemInList(cctx, ctx)
	if !ok {
		return
	}

	updated, err := h.items.Assign(cctx, it.ID, req.UserID.Ptr())
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not assign todo item")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// itemInList loads :itemId and insists it belongs to the list resolved by
// the access middleware.
func (h *ItemsHandler) itemInList(cctx context.Context, ctx *gin.Context) (todo.Item, bool) {
	l, _ := middlewares.ListFromContext(ctx)

	itemID, ok := idParam(ctx, "itemId")
	if !ok {
		return todo.Item{}, false
	}

	it, err := h.items.GetByID(cctx, itemID)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not load todo item")
		return todo.Item{}, false
	}

	if it.ListID != l.ID {
		RespondNotFound(ctx, "todo item not found")
		return todo.Item{}, false
	}

	return it, true
}
