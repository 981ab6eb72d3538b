package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/geocoder89/fieldops/internal/authz"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type AccountStore interface {
	GetUserByID(ctx context.Context, id int64) (user.User, error)
	UpdateUserName(ctx context.Context, id int64, name *string) error
	DeleteUserCascade(ctx context.Context, id int64) (user.DeleteResult, error)
}

type AccountsHandler struct {
	repo AccountStore
}

func NewAccountsHandler(repo AccountStore) *AccountsHandler {
	return &AccountsHandler{repo: repo}
}

const maxProfileNameLen = 100

// OptionalString tells an omitted key apart from one sent as null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		o.Value = nil
		return nil
	}

	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type UpdateProfileRequest struct {
	// Name "" or null clears the profile name.
	Name OptionalString `json:"name"`
}

// profileName is the value to store: nil for a blank name.
func (r UpdateProfileRequest) profileName() *string {
	if r.Name.Value == nil {
		return nil
	}
	name := strings.TrimSpace(*r.Name.Value)
	if name == "" {
		return nil
	}
	return &name
}

func (h *AccountsHandler) GetProfile(ctx *gin.Context) {
	caller, ok := subject(ctx)
	if !ok {
		return
	}

	cctx, cancel := dbContext(ctx)
	defer cancel()

	u, err := h.repo.GetUserByID(cctx, caller.UserID)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AccountsHandler) UpdateProfile(ctx *gin.Context) {
	caller, ok := subject(ctx)
	if !ok {
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	name := req.profileName()
	if name != nil && utf8.RuneCountInString(*name) > maxProfileNameLen {
		RespondInvalidFields(ctx, newFieldError("name", "max", strconv.Itoa(maxProfileNameLen)))
		return
	}

	cctx, cancel := dbContext(ctx)
	defer cancel()

	if _, err := h.repo.GetUserByID(cctx, caller.UserID); err != nil {
		RespondErr(ctx, err)
		return
	}

	if !req.Name.Set {
		RespondBadRequest(ctx, "No data to update", nil)
		return
	}

	if err := h.repo.UpdateUserName(cctx, caller.UserID, name); err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondMsg(ctx, http.StatusOK, "Profile updated successfully")
}

// DeleteAccount removes the caller together with everything they own.
func (h *AccountsHandler) DeleteAccount(ctx *gin.Context) {
	caller, ok := subject(ctx)
	if !ok {
		return
	}

	cctx, cancel := dbContext(ctx)
	defer cancel()

	res, err := h.repo.DeleteUserCascade(cctx, caller.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		logInternal(ctx, "delete account failed", err)
		RespondInternal(ctx, "Failed to delete account")
		return
	}

	logDeleted(ctx, caller.UserID, res)
	RespondMsg(ctx, http.StatusOK, "Account deleted successfully")
}

func (h *AccountsHandler) AdminDeleteUser(ctx *gin.Context) {
	caller, ok := subject(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := dbContext(ctx)
	defer cancel()

	target, err := h.repo.GetUserByID(cctx, id)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	if err := authz.Authorize(authz.DeleteUser, caller, authz.Target{OwnerID: target.ID}); err != nil {
		RespondErr(ctx, err)
		return
	}

	res, err := h.repo.DeleteUserCascade(cctx, target.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		logInternal(ctx, "admin delete user failed", err)
		RespondInternal(ctx, "Failed to delete user")
		return
	}

	logDeleted(ctx, caller.UserID, res)
	RespondMsg(ctx, http.StatusOK, fmt.Sprintf("User '%s' deleted successfully", target.Email))
}

func logDeleted(ctx *gin.Context, actorID int64, res user.DeleteResult) {
	slog.InfoContext(ctx.Request.Context(), "user deleted",
		"actor_id", actorID,
		"user_id", res.User.ID,
		"interactions", res.Interactions,
		"service_logs", res.ServiceLogs,
	)
}
