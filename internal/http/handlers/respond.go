package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/fieldops/internal/apperr"
	"github.com/geocoder89/fieldops/internal/authz"
	"github.com/geocoder89/fieldops/internal/domain/client"
	"github.com/geocoder89/fieldops/internal/domain/interaction"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/geocoder89/fieldops/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// per-request budget for store calls
const dbTimeout = 2 * time.Second

type APIError struct {
	Message   string `json:"msg"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	ctx.JSON(status, APIError{
		Message:   message,
		Code:      code,
		RequestID: middlewares.RequestIDFromContext(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondMsg(ctx *gin.Context, status int, msg string) {
	ctx.JSON(status, gin.H{"msg": msg})
}

// RespondErr converts any error reaching the handler boundary into the
// error envelope. Unclassified errors are logged and answered with 500.
func RespondErr(ctx *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		if appErr.Kind == apperr.KindInternal {
			logInternal(ctx, appErr.Message, err)
		}
		RespondError(ctx, appErr.Kind.HTTPStatus(), appErr.Code, appErr.Message, nil)
		return
	}

	switch {
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, client.ErrNotFound):
		RespondNotFound(ctx, "Client not found")
	case errors.Is(err, interaction.ErrNotFound):
		RespondNotFound(ctx, "Interaction not found")
	case errors.Is(err, client.ErrNameTaken):
		RespondError(ctx, http.StatusBadRequest, "name_taken", "Client already exists", nil)
	case errors.Is(err, user.ErrEmailTaken):
		RespondError(ctx, http.StatusBadRequest, "email_taken", "User already exists", nil)
	case errors.Is(err, context.DeadlineExceeded):
		logInternal(ctx, "store timeout", err)
		RespondError(ctx, http.StatusServiceUnavailable, "timeout", "Request timed out", nil)
	default:
		logInternal(ctx, "unexpected error", err)
		RespondInternal(ctx, "Internal server error")
	}
}

func logInternal(ctx *gin.Context, msg string, err error) {
	slog.ErrorContext(ctx.Request.Context(), msg,
		"err", err,
		"route", ctx.FullPath(),
	)
}

// dbContext bounds a store call while keeping the request's trace.
func dbContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), dbTimeout)
}

// pathID parses a positive integer path parameter, answering 400 otherwise.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid "+name, gin.H{"param": name, "value": ctx.Param(name)})
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive integer query parameter.
func queryID(ctx *gin.Context, name string) (*int64, bool) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid "+name, gin.H{"param": name, "value": raw})
		return nil, false
	}
	return &id, true
}

// subject returns the authenticated caller. Routes using it are always
// behind RequireAuth, so a miss is answered as unauthenticated.
func subject(ctx *gin.Context) (authz.Subject, bool) {
	s, ok := middlewares.SubjectFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity context", nil)
		return authz.Subject{}, false
	}
	return s, true
}
