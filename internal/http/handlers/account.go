package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/config"
	"github.com/KerenDoz/Event-Planner/internal/domain/user"
	"github.com/KerenDoz/Event-Planner/internal/http/middlewares"
	"github.com/KerenDoz/Event-Planner/internal/identity"
	"github.com/gin-gonic/gin"
)

const accountTimeout = 3 * time.Second

type AccountService interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, identity.Session, error)
	Login(ctx context.Context, req user.LoginRequest) (user.User, identity.Session, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (user.User, identity.Session, error)
	Profile(ctx context.Context, userID string) (user.User, error)
	Manage(ctx context.Context, userID string, req user.ManageRequest, persistent bool) (user.User, identity.Session, error)
	ChangeUsername(ctx context.Context, userID string, req user.ChangeUsernameRequest, persistent bool) (user.User, identity.Session, error)
	ChangeEmail(ctx context.Context, userID string, req user.ChangeEmailRequest, persistent bool) (user.User, identity.Session, error)
	ChangePassword(ctx context.Context, userID string, req user.ChangePasswordRequest, persistent bool) (user.User, identity.Session, error)
}

type AccountHandler struct {
	accounts AccountService
	cookies  CookieConfig
}

func NewAccountHandler(accounts AccountService, cookies CookieConfig) *AccountHandler {
	return &AccountHandler{accounts: accounts, cookies: cookies}
}

type passwordPolicy struct {
	MinLength int `json:"minLength"`
}

func (h *AccountHandler) RegisterForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"form":     user.RegisterRequest{},
		"password": passwordPolicy{MinLength: user.PasswordMinLength},
	})
}

func (h *AccountHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), accountTimeout)
	defer cancel()

	u, sess, err := h.accounts.Register(cctx, req)
	if err != nil {
		respondServiceError(ctx, err, "Could not create account")
		return
	}

	h.cookies.setSession(ctx, sess)

	ctx.JSON(http.StatusCreated, sessionResponse(u, sess, "/"))
}

func (h *AccountHandler) LoginForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"form":      user.LoginRequest{},
		"returnUrl": safeReturnURL(ctx.Query("returnUrl")),
	})
}

func (h *AccountHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), accountTimeout)
	defer cancel()

	u, sess, err := h.accounts.Login(cctx, req)
	if err != nil {
		respondServiceError(ctx, err, "Could not sign in")
		return
	}

	h.cookies.setSession(ctx, sess)

	ctx.JSON(http.StatusOK, sessionResponse(u, sess, safeReturnURL(ctx.Query("returnUrl"))))
}

// Logout always clears the cookies; a failed revoke is only logged.
func (h *AccountHandler) Logout(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), accountTimeout)
	defer cancel()

	if err := h.accounts.Logout(cctx, refreshTokenFrom(ctx)); err != nil {
		_ = ctx.Error(err)
	}

	h.cookies.clearSession(ctx)

	ctx.JSON(http.StatusOK, gin.H{"redirectTo": "/"})
}

func (h *AccountHandler) Refresh(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), accountTimeout)
	defer cancel()

	u, sess, err := h.accounts.Refresh(cctx, refreshTokenFrom(ctx))
	if err != nil {
		h.cookies.clearSession(ctx)
		respondServiceError(ctx, err, "Could not refresh session")
		return
	}

	h.cookies.setSession(ctx, sess)

	ctx.JSON(http.StatusOK, sessionResponse(u, sess, ""))
}

func (h *AccountHandler) ManageForm(ctx *gin.Context) {
	u, ok := h.currentUser(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"form": user.ManageRequest{Username: u.Username, Email: u.Email},
	})
}

func (h *AccountHandler) Manage(ctx *gin.Context) {
	var req user.ManageRequest

	if !BindJSON(ctx, &req) {
		return
	}

	h.update(ctx, "Account updated successfully.", func(cctx context.Context, userID string, persistent bool) (user.User, identity.Session, error) {
		return h.accounts.Manage(cctx, userID, req, persistent)
	})
}

func (h *AccountHandler) ChangeUsernameForm(ctx *gin.Context) {
	u, ok := h.currentUser(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"currentUsername": u.Username,
		"form":            user.ChangeUsernameRequest{},
	})
}

func (h *AccountHandler) ChangeUsername(ctx *gin.Context) {
	var req user.ChangeUsernameRequest

	if !BindJSON(ctx, &req) {
		return
	}

	h.update(ctx, "Username updated.", func(cctx context.Context, userID string, persistent bool) (user.User, identity.Session, error) {
		return h.accounts.ChangeUsername(cctx, userID, req, persistent)
	})
}

func (h *AccountHandler) ChangeEmailForm(ctx *gin.Context) {
	u, ok := h.currentUser(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"currentEmail": u.Email,
		"form":         user.ChangeEmailRequest{},
	})
}

func (h *AccountHandler) ChangeEmail(ctx *gin.Context) {
	var req user.ChangeEmailRequest

	if !BindJSON(ctx, &req) {
		return
	}

	h.update(ctx, "Email updated.", func(cctx context.Context, userID string, persistent bool) (user.User, identity.Session, error) {
		return h.accounts.ChangeEmail(cctx, userID, req, persistent)
	})
}

func (h *AccountHandler) ChangePasswordForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"form":     user.ChangePasswordRequest{},
		"password": passwordPolicy{MinLength: user.PasswordMinLength},
	})
}

func (h *AccountHandler) ChangePassword(ctx *gin.Context) {
	var req user.ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	h.update(ctx, "Password updated.", func(cctx context.Context, userID string, persistent bool) (user.User, identity.Session, error) {
		return h.accounts.ChangePassword(cctx, userID, req, persistent)
	})
}

type accountUpdate func(ctx context.Context, userID string, persistent bool) (user.User, identity.Session, error)

// update runs a self-service change and re-issues the session cookies so
// the claims carry the new username and email.
func (h *AccountHandler) update(ctx *gin.Context, message string, fn accountUpdate) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), accountTimeout)
	defer cancel()

	u, sess, err := fn(cctx, userID, persistentSession(ctx))
	if err != nil {
		respondServiceError(ctx, err, "Could not update account")
		return
	}

	h.cookies.setSession(ctx, sess)

	ctx.JSON(http.StatusOK, gin.H{
		"user":       u,
		"message":    message,
		"redirectTo": "/account/manage",
	})
}

func (h *AccountHandler) currentUser(ctx *gin.Context) (user.User, bool) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return user.User{}, false
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), accountTimeout)
	defer cancel()

	u, err := h.accounts.Profile(cctx, userID)
	if err != nil {
		respondServiceError(ctx, err, "Could not load account")
		return user.User{}, false
	}
	return u, true
}

// bearer clients read the token from the body; browsers use the cookie
func sessionResponse(u user.User, sess identity.Session, redirectTo string) gin.H {
	out := gin.H{
		"user":            u,
		"accessToken":     sess.AccessToken,
		"accessExpiresAt": sess.AccessExpiresAt,
		"persistent":      sess.Persistent,
	}
	if redirectTo != "" {
		out["redirectTo"] = redirectTo
	}
	return out
}
