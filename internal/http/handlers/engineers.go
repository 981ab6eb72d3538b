package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type EngineerStore interface {
	ListEngineerStats(ctx context.Context) ([]user.EngineerStats, error)
	ListUsersByRole(ctx context.Context, role user.Role) ([]user.User, error)
}

type EngineersHandler struct {
	repo EngineerStore
}

func NewEngineersHandler(repo EngineerStore) *EngineersHandler {
	return &EngineersHandler{repo: repo}
}

// Stats is the admin dashboard: every engineer with their interaction count.
func (h *EngineersHandler) Stats(ctx *gin.Context) {
	cctx, cancel := dbContext(ctx)
	defer cancel()

	stats, err := h.repo.ListEngineerStats(cctx)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func (h *EngineersHandler) Team(ctx *gin.Context) {
	cctx, cancel := dbContext(ctx)
	defer cancel()

	engineers, err := h.repo.ListUsersByRole(cctx, user.RoleEngineer)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	team := make([]user.TeamMember, 0, len(engineers))
	for _, e := range engineers {
		team = append(team, user.TeamMember{ID: e.ID, Email: e.Email, Name: e.DisplayName()})
	}

	ctx.JSON(http.StatusOK, team)
}
