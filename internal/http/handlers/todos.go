package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ListStore interface {
	Create(ctx context.Context, ownerID int64, req todo.CreateListRequest) (todo.List, error)
	GetWithItems(ctx context.Context, id int64) (todo.List, error)
	ListForUser(ctx context.Context, userID int64) ([]todo.List, error)
	Update(ctx context.Context, id int64, req todo.UpdateListRequest) (todo.List, error)
	Delete(ctx context.Context, listID, requesterID int64) error
}

type SharingService interface {
	Share(ctx context.Context, listID, requesterID int64, recipients collab.Recipients, perm collab.Permission) (collab.ShareResult, error)
	Collaborators(ctx context.Context, listID, requesterID int64) ([]collab.Grant, error)
}

type TodosHandler struct {
	lists   ListStore
	sharing SharingService
	log     *slog.Logger
}

func NewTodosHandler(lists ListStore, sharing SharingService, log *slog.Logger) *TodosHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TodosHandler{lists: lists, sharing: sharing, log: log}
}

// List returns every list the caller owns or collaborates on.
func (h *TodosHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	lists, err := h.lists.ListForUser(cctx, userID)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not list todo lists")
		return
	}

	respondListsWithETag(ctx, lists, lists...)
}

func (h *TodosHandler) Create(ctx *gin.Context) {
	var req todo.CreateListRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	l, err := h.lists.Create(cctx, userID, req)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not create todo list")
		return
	}

	ctx.JSON(http.StatusCreated, l)
}

func (h *TodosHandler) Get(ctx *gin.Context) {
	l, _ := middlewares.ListFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	full, err := h.lists.GetWithItems(cctx, l.ID)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not load todo list")
		return
	}

	respondListsWithETag(ctx, full, full)
}

func (h *TodosHandler) Update(ctx *gin.Context) {
	l, _ := middlewares.ListFromContext(ctx)

	var req todo.UpdateListRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondBadRequest(ctx, "Nothing to update; send title and/or description", nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.lists.Update(cctx, l.ID, req)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not update todo list")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// Delete removes a list the caller owns; items and grants go with it.
func (h *TodosHandler) Delete(ctx *gin.Context) {
	l, _ := middlewares.ListFromContext(ctx)
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.lists.Delete(cctx, l.ID, userID); err != nil {
		respondDomainError(ctx, h.log, err, "Could not delete todo list")
		return
	}

	h.log.InfoContext(ctx.Request.Context(), "list deleted", "list_id", l.ID, "user_id", userID)
	ctx.Status(http.StatusNoContent)
}

func (h *TodosHandler) Share(ctx *gin.Context) {
	listID, ok := idParam(ctx, "listId")
	if !ok {
		return
	}

	var req collab.ShareRequest
	if !BindJSON(ctx, &req) {
		return
	}

	recipients := req.SharedWith.Normalize()
	if len(recipients) == 0 {
		RespondBadRequest(ctx, "sharedWith must name at least one user", nil)
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := h.sharing.Share(cctx, listID, userID, recipients, req.Permission)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not share todo list")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":    "List shared successfully",
		"sharedWith": res.SharedWith,
		"skipped":    nonNil(res.Skipped),
		"unresolved": nonNil(res.Unresolved),
	})
}

func (h *TodosHandler) Collaborators(ctx *gin.Context) {
	listID, ok := idParam(ctx, "listId")
	if !ok {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	grants, err := h.sharing.Collaborators(cctx, listID, userID)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not list collaborators")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": grants,
		"count": len(grants),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
