package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/fieldops/internal/apperr"
	"github.com/geocoder89/fieldops/internal/auth"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/geocoder89/fieldops/internal/observability"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (user.User, error)
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

type AuthHandler struct {
	svc  AuthService
	prom *observability.Prom
}

func NewAuthHandler(svc AuthService, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{svc: svc, prom: prom}
}

// presence is checked by the auth service so the messages stay in one place
type RegisterRequest struct {
	Email    string    `json:"email" binding:"max=255"`
	Password string    `json:"password"`
	Role     user.Role `json:"role"`
	Name     string    `json:"name" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := dbContext(ctx)
	defer cancel()

	_, err := h.svc.Register(cctx, auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Name:     req.Name,
	})
	if err != nil {
		h.prom.ObserveAuth("register", authResult(err))
		RespondErr(ctx, err)
		return
	}

	h.prom.ObserveAuth("register", "ok")
	RespondMsg(ctx, http.StatusCreated, "User created successfully")
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := dbContext(ctx)
	defer cancel()

	res, err := h.svc.Login(cctx, req.Email, req.Password)
	if err != nil {
		h.prom.ObserveAuth("login", authResult(err))
		RespondErr(ctx, err)
		return
	}

	h.prom.ObserveAuth("login", "ok")
	ctx.JSON(http.StatusOK, res)
}

func authResult(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindAuth:
		return "denied"
	case apperr.KindValidation, apperr.KindConflict:
		return "rejected"
	default:
		return "error"
	}
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	caller, ok := subject(ctx)
	if !ok {
		return
	}

	var req ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := dbContext(ctx)
	defer cancel()

	if err := h.svc.ChangePassword(cctx, caller.UserID, req.OldPassword, req.NewPassword); err != nil {
		h.prom.ObserveAuth("change_password", authResult(err))
		RespondErr(ctx, err)
		return
	}

	h.prom.ObserveAuth("change_password", "ok")
	RespondMsg(ctx, http.StatusOK, "Password changed successfully")
}
