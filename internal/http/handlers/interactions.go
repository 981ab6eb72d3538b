package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/geocoder89/fieldops/internal/authz"
	"github.com/geocoder89/fieldops/internal/domain/interaction"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type InteractionStore interface {
	CreateInteraction(ctx context.Context, in interaction.CreateInput) (interaction.Interaction, error)
	GetInteraction(ctx context.Context, id int64) (interaction.Interaction, error)
	ListInteractions(ctx context.Context, f interaction.Filter) ([]interaction.View, error)
	UpdateInteractionStatus(ctx context.Context, id int64, status interaction.Status) error
	ReassignInteraction(ctx context.Context, id, engineerID int64) error
	GetUserByID(ctx context.Context, id int64) (user.User, error)
}

type InteractionsHandler struct {
	repo InteractionStore
}

func NewInteractionsHandler(repo InteractionStore) *InteractionsHandler {
	return &InteractionsHandler{repo: repo}
}

func (h *InteractionsHandler) Create(ctx *gin.Context) {
	caller, ok := subject(ctx)
	if !ok {
		return
	}

	var req interaction.CreateInteractionRequest

	if !BindJSON(ctx, &req) {
		return
	}

	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		RespondBadRequest(ctx, "Client name is required", nil)
		return
	}

	cctx, cancel := dbContext(ctx)
	defer cancel()

	created, err := h.repo.CreateInteraction(cctx, interaction.CreateInput{
		EngineerID: caller.UserID,
		ClientName: clientName,
		Type:       req.Type,
		Direction:  req.Direction,
		Summary:    req.Summary,
		Status:     req.Status,
	})
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"msg": "Interaction created successfully", "id": created.ID})
}

// load fetches the interaction named by the :id path parameter and checks
// the caller against its current owner.
func (h *InteractionsHandler) load(cctx context.Context, ctx *gin.Context, action authz.Action) (interaction.Interaction, bool) {
	caller, ok := subject(ctx)
	if !ok {
		return interaction.Interaction{}, false
	}

	id, ok := pathID(ctx, "id")
	if !ok {
		return interaction.Interaction{}, false
	}

	current, err := h.repo.GetInteraction(cctx, id)
	if err != nil {
		RespondErr(ctx, err)
		return interaction.Interaction{}, false
	}

	if err := authz.Authorize(action, caller, authz.Target{OwnerID: current.EngineerID}); err != nil {
		RespondErr(ctx, err)
		return interaction.Interaction{}, false
	}

	return current, true
}

func (h *InteractionsHandler) UpdateStatus(ctx *gin.Context) {
	cctx, cancel := dbContext(ctx)
	defer cancel()

	current, ok := h.load(cctx, ctx, authz.UpdateInteractionStatus)
	if !ok {
		return
	}

	var req interaction.UpdateStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !req.Status.IsValid() {
		RespondError(ctx, http.StatusBadRequest, "invalid_status", "Invalid status. Must be 'pending' or 'done'", nil)
		return
	}

	if err := h.repo.UpdateInteractionStatus(cctx, current.ID, req.Status); err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondMsg(ctx, http.StatusOK, fmt.Sprintf("Interaction status updated to '%s'", req.Status))
}

// Reassign moves an interaction to another engineer. Permission is
// evaluated against the current owner only.
func (h *InteractionsHandler) Reassign(ctx *gin.Context) {
	cctx, cancel := dbContext(ctx)
	defer cancel()

	current, ok := h.load(cctx, ctx, authz.ReassignInteraction)
	if !ok {
		return
	}

	var req interaction.ReassignRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.EngineerID <= 0 {
		RespondBadRequest(ctx, "New engineer ID is required", nil)
		return
	}

	target, err := h.repo.GetUserByID(cctx, req.EngineerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Engineer not found")
			return
		}
		RespondErr(ctx, err)
		return
	}

	if target.Role != user.RoleEngineer {
		RespondError(ctx, http.StatusBadRequest, "invalid_assignee", "Can only assign to engineers", nil)
		return
	}

	if err := h.repo.ReassignInteraction(cctx, current.ID, target.ID); err != nil {
		RespondErr(ctx, err)
		return
	}

	name := target.DisplayName()

	ctx.JSON(http.StatusOK, gin.H{
		"msg":               "Task reassigned to " + name,
		"new_engineer_id":   target.ID,
		"new_engineer_name": name,
	})
}

// ListAll is public and returns every interaction, newest first.
func (h *InteractionsHandler) ListAll(ctx *gin.Context) {
	h.list(ctx, interaction.Filter{}, true)
}

func (h *InteractionsHandler) ListByEngineer(ctx *gin.Context) {
	caller, ok := subject(ctx)
	if !ok {
		return
	}

	engineerID, ok := pathID(ctx, "engineer_id")
	if !ok {
		return
	}

	if err := authz.Authorize(authz.ViewEngineerInteractions, caller, authz.Target{OwnerID: engineerID}); err != nil {
		RespondErr(ctx, err)
		return
	}

	h.list(ctx, interaction.Filter{EngineerID: &engineerID}, false)
}

func (h *InteractionsHandler) ListMine(ctx *gin.Context) {
	caller, ok := subject(ctx)
	if !ok {
		return
	}

	h.list(ctx, interaction.Filter{EngineerID: &caller.UserID}, false)
}

// ListTeam lets engineers browse everyone's work, optionally narrowed by
// client_id and engineer_id query parameters.
func (h *InteractionsHandler) ListTeam(ctx *gin.Context) {
	clientID, ok := queryID(ctx, "client_id")
	if !ok {
		return
	}

	engineerID, ok := queryID(ctx, "engineer_id")
	if !ok {
		return
	}

	h.list(ctx, interaction.Filter{ClientID: clientID, EngineerID: engineerID}, false)
}

func (h *InteractionsHandler) list(ctx *gin.Context, f interaction.Filter, etag bool) {
	cctx, cancel := dbContext(ctx)
	defer cancel()

	items, err := h.repo.ListInteractions(cctx, f)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	if etag {
		respondList(ctx, items)
		return
	}

	ctx.JSON(http.StatusOK, items)
}
