package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/fieldops/internal/domain/servicelog"
	"github.com/gin-gonic/gin"
)

type ServiceLogStore interface {
	CreateServiceLog(ctx context.Context, l servicelog.ServiceLog) (servicelog.ServiceLog, error)
	ListServiceLogs(ctx context.Context) ([]servicelog.View, error)
}

type ServiceLogsHandler struct {
	repo ServiceLogStore
}

func NewServiceLogsHandler(repo ServiceLogStore) *ServiceLogsHandler {
	return &ServiceLogsHandler{repo: repo}
}

// Create records a visit for the calling engineer. The role gate runs in
// middleware, so the caller here is always an engineer.
func (h *ServiceLogsHandler) Create(ctx *gin.Context) {
	caller, ok := subject(ctx)
	if !ok {
		return
	}

	var req servicelog.CreateServiceLogRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := dbContext(ctx)
	defer cancel()

	created, err := h.repo.CreateServiceLog(cctx, servicelog.NewFromCreateRequest(caller.UserID, req))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"msg": "Log created successfully", "id": created.ID})
}

func (h *ServiceLogsHandler) List(ctx *gin.Context) {
	cctx, cancel := dbContext(ctx)
	defer cancel()

	logs, err := h.repo.ListServiceLogs(cctx)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	respondList(ctx, logs)
}
