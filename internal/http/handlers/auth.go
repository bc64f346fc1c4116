package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, req user.RegisterRequest) error
	Authenticate(ctx context.Context, username, password string) (user.PublicUser, error)
	Get(ctx context.Context, id int64) (user.PublicUser, error)
	Update(ctx context.Context, id int64, req user.UpdateRequest) (user.PublicUser, error)
}

type TokenService interface {
	Issue(userID int64, username string) (string, error)
	Revoke(ctx context.Context, claims *auth.Claims) error
}

type LoginObserver interface {
	ObserveLogin(result string)
}

type AuthHandler struct {
	accounts AccountService
	tokens   TokenService
	metrics  LoginObserver
	log      *slog.Logger
}

func NewAuthHandler(accounts AccountService, tokens TokenService, metrics LoginObserver, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{accounts: accounts, tokens: tokens, metrics: metrics, log: log}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt at cost 12 dominates this request
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.Register(cctx, req); err != nil {
		respondDomainError(ctx, h.log, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.accounts.Authenticate(cctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			h.observeLogin("invalid")
			RespondUnauthorized(ctx, "invalid_credentials", "Username or password is incorrect.")
			return
		}
		h.observeLogin("error")
		respondDomainError(ctx, h.log, err, "Could not log in")
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		h.observeLogin("error")
		h.log.ErrorContext(ctx.Request.Context(), "issue token", "err", err, "user_id", u.ID)
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.observeLogin("ok")

	ctx.JSON(http.StatusOK, gin.H{
		"user":  u,
		"token": token,
	})
}

// Logout revokes the presented token until it would have expired.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	claims, ok := middlewares.ClaimsFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.tokens.Revoke(cctx, claims); err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "revoke token", "err", err, "user_id", claims.UserID)
		RespondInternal(ctx, "Could not log out")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.accounts.Get(cctx, userID)
	if err != nil {
		respondDomainError(ctx, h.log, err, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AuthHandler) observeLogin(result string) {
	if h.metrics != nil {
		h.metrics.ObserveLogin(result)
	}
}

// compile-time check that the service satisfies the handler's needs
var _ AccountService = (*accounts.Service)(nil)
