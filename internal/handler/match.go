package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/sideline-rotation/internal/model"
	"github.com/maxviazov/sideline-rotation/internal/service"
	"github.com/maxviazov/sideline-rotation/internal/substitution"
	"github.com/maxviazov/sideline-rotation/pkg/response"
)

// MatchHandler exposes the sideline commands of a match.
type MatchHandler struct {
	svc service.MatchService
}

func NewMatchHandler(svc service.MatchService) *MatchHandler { return &MatchHandler{svc: svc} }

func (h *MatchHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/matches")
	{
		g.POST("", h.create)
		g.GET("/:match_id", h.get)
		g.DELETE("/:match_id", h.reset)

		g.POST("/:match_id/periods/start", h.period(service.MatchService.StartPeriod))
		g.POST("/:match_id/periods/pause", h.period(service.MatchService.PausePeriod))
		g.POST("/:match_id/periods/resume", h.period(service.MatchService.ResumePeriod))
		g.POST("/:match_id/periods/end", h.period(service.MatchService.EndPeriod))

		g.POST("/:match_id/substitutions", h.substitute)
		g.POST("/:match_id/substitutions/undo", h.undo)
		g.POST("/:match_id/role-changes", h.changeRole)
		g.POST("/:match_id/position-switches", h.switchPositions)
		g.POST("/:match_id/goalie", h.switchGoalie)
		g.POST("/:match_id/players/:player_id/inactive", h.toggleInactive)
		g.PUT("/:match_id/configuration", h.saveConfiguration)
		g.POST("/:match_id/goals", h.recordGoal)

		g.GET("/:match_id/events", h.events)
		g.GET("/:match_id/final-stats", h.finalStats)
	}
}

type roleChangeRequest struct {
	PlayerID string     `json:"playerId" binding:"required"`
	Role     model.Role `json:"role" binding:"required"`
}

type positionSwitchRequest struct {
	PlayerA string `json:"playerA" binding:"required"`
	PlayerB string `json:"playerB" binding:"required,nefield=PlayerA"`
}

type goalieRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

type configurationRequest struct {
	Formation map[model.Position]string `json:"formation" binding:"required"`
}

type goalRequest struct {
	Side     string `json:"side" binding:"required,oneof=own opponent"`
	ScorerID string `json:"scorerId"`
}

func (h *MatchHandler) create(c *gin.Context) {
	var req service.CreateMatchInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	view, err := h.svc.CreateMatch(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, view)
}

func (h *MatchHandler) get(c *gin.Context) {
	view, err := h.svc.GetLiveView(c.Request.Context(), c.Param("match_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

func (h *MatchHandler) reset(c *gin.Context) {
	if err := h.svc.ResetMatch(c.Request.Context(), c.Param("match_id")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type periodFunc func(svc service.MatchService, ctx context.Context, matchID string) (service.LiveView, error)

// period adapts the four period commands, which share a shape.
func (h *MatchHandler) period(fn periodFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := fn(h.svc, c.Request.Context(), c.Param("match_id"))
		if err != nil {
			response.WriteError(c, err)
			return
		}
		response.WriteData(c, http.StatusOK, view)
	}
}

// substitute accepts an empty body, meaning "next player off, longest
// waiting substitute on". Clients should echo expectedVersion from the live
// view so a second tap on a stale screen is ignored.
func (h *MatchHandler) substitute(c *gin.Context) {
	var req substitution.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	out, err := h.svc.PerformSubstitution(c.Request.Context(), c.Param("match_id"), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *MatchHandler) undo(c *gin.Context) {
	view, err := h.svc.UndoSubstitution(c.Request.Context(), c.Param("match_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

func (h *MatchHandler) changeRole(c *gin.Context) {
	var req roleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	view, err := h.svc.ChangeRole(c.Request.Context(), c.Param("match_id"), req.PlayerID, req.Role)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

func (h *MatchHandler) switchPositions(c *gin.Context) {
	var req positionSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	view, err := h.svc.SwitchPositions(c.Request.Context(), c.Param("match_id"), req.PlayerA, req.PlayerB)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

func (h *MatchHandler) switchGoalie(c *gin.Context) {
	var req goalieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	view, err := h.svc.SwitchGoalie(c.Request.Context(), c.Param("match_id"), req.PlayerID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

func (h *MatchHandler) toggleInactive(c *gin.Context) {
	view, err := h.svc.TogglePlayerInactive(c.Request.Context(), c.Param("match_id"), c.Param("player_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

func (h *MatchHandler) saveConfiguration(c *gin.Context) {
	var req configurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	view, err := h.svc.SavePeriodConfiguration(c.Request.Context(), c.Param("match_id"), req.Formation)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

func (h *MatchHandler) recordGoal(c *gin.Context) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	view, err := h.svc.RecordGoal(c.Request.Context(), c.Param("match_id"), req.Side == "own", req.ScorerID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

func (h *MatchHandler) events(c *gin.Context) {
	evs, err := h.svc.ListEvents(c.Request.Context(), c.Param("match_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if evs == nil {
		evs = []model.GameEvent{}
	}
	response.WriteData(c, http.StatusOK, gin.H{"items": evs})
}

func (h *MatchHandler) finalStats(c *gin.Context) {
	stats, err := h.svc.FinalStats(c.Request.Context(), c.Param("match_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, stats)
}
