package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/geocoder89/fieldops/internal/domain/client"
	"github.com/gin-gonic/gin"
)

type ClientStore interface {
	ListClients(ctx context.Context) ([]client.Client, error)
	CreateClient(ctx context.Context, name, address string) (client.Client, error)
}

type ClientsHandler struct {
	repo ClientStore
}

func NewClientsHandler(repo ClientStore) *ClientsHandler {
	return &ClientsHandler{repo: repo}
}

func (h *ClientsHandler) List(ctx *gin.Context) {
	cctx, cancel := dbContext(ctx)
	defer cancel()

	clients, err := h.repo.ListClients(cctx)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	respondList(ctx, clients)
}

func (h *ClientsHandler) Create(ctx *gin.Context) {
	var req client.CreateClientRequest

	if !BindJSON(ctx, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	address := strings.TrimSpace(req.Address)
	if name == "" || address == "" {
		RespondBadRequest(ctx, "Name and address are required", nil)
		return
	}

	cctx, cancel := dbContext(ctx)
	defer cancel()

	created, err := h.repo.CreateClient(cctx, name, address)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}
