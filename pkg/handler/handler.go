// Package handler exposes the progression engine over HTTP. Routes live
// under /v1; mutations that the engine rejects map to 409, malformed
// requests to 400.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/DiegoPatterson/CodeQuest/pkg/events"
	"github.com/DiegoPatterson/CodeQuest/pkg/gamify"
	"github.com/DiegoPatterson/CodeQuest/pkg/notify"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handlers wires the engine, the event dispatcher and the push hub into
// HTTP endpoints.
type Handlers struct {
	engine     *gamify.Engine
	dispatcher *events.Dispatcher
	hub        *notify.Hub
}

// NewHandlers creates the handler set.
func NewHandlers(engine *gamify.Engine, dispatcher *events.Dispatcher, hub *notify.Hub) *Handlers {
	return &Handlers{engine: engine, dispatcher: dispatcher, hub: hub}
}

// RegisterRoutes registers all progression endpoints on the router group.
func (h *Handlers) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/events", h.HandleEvent)

	rg.GET("/stats", h.HandleStats)
	rg.GET("/achievements", h.HandleAchievements)

	rg.POST("/xp", h.HandleAddXP)

	rg.POST("/combo/increment", h.HandleIncrementCombo)
	rg.POST("/combo/break", h.HandleBreakCombo)

	rg.POST("/boss", h.HandleStartBoss)
	rg.GET("/boss/can-complete", h.HandleCanCompleteBoss)
	rg.POST("/boss/complete", h.HandleCompleteBoss)
	rg.POST("/boss/cancel", h.HandleCancelBoss)
	rg.POST("/boss/subtasks/:id/toggle", h.HandleToggleSubtask)

	rg.POST("/streak/check", h.HandleCheckStreak)

	rg.GET("/assist", h.HandleAssistStats)
	rg.POST("/assist/activity", h.HandleAssistActivity)
	rg.DELETE("/assist", h.HandleKillAssist)

	rg.POST("/enabled/toggle", h.HandleToggleEnabled)
	rg.POST("/reset", h.HandleReset)

	if h.hub != nil {
		rg.GET("/ws", func(c *gin.Context) {
			h.hub.ServeHTTP(c.Writer, c.Request)
		})
	}
}

// HandleEvent handles POST /v1/events: one raw activity event routed
// through the dispatcher.
func (h *Handlers) HandleEvent(c *gin.Context) {
	var evt events.Event
	if err := c.ShouldBindJSON(&evt); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid event body", Code: "INVALID_REQUEST"})
		return
	}

	if err := h.dispatcher.Dispatch(c.Request.Context(), evt); err != nil {
		logrus.Debugf("event %s rejected: %v", evt.Kind, err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "EVENT_REJECTED"})
		return
	}
	c.Status(http.StatusAccepted)
}

// HandleStats handles GET /v1/stats.
func (h *Handlers) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":   h.engine.GetStats(),
		"enabled": h.engine.IsEnabled(),
	})
}

// HandleAchievements handles GET /v1/achievements.
func (h *Handlers) HandleAchievements(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.GetAchievementsForDisplay())
}

type addXPRequest struct {
	Amount int    `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason"`
}

// HandleAddXP handles POST /v1/xp.
func (h *Handlers) HandleAddXP(c *gin.Context) {
	var req addXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be a positive integer", Code: "INVALID_REQUEST"})
		return
	}
	h.engine.AddXP(req.Amount, req.Reason)
	c.JSON(http.StatusOK, h.engine.GetStats())
}

// HandleIncrementCombo handles POST /v1/combo/increment. A rejected
// increment (rate limited or engine disabled) is a 409.
func (h *Handlers) HandleIncrementCombo(c *gin.Context) {
	if !h.engine.IncrementCombo() {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "combo increment rejected", Code: "COMBO_THROTTLED"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"combo": h.engine.GetStats().Combo})
}

// HandleBreakCombo handles POST /v1/combo/break.
func (h *Handlers) HandleBreakCombo(c *gin.Context) {
	h.engine.BreakCombo()
	c.Status(http.StatusNoContent)
}

type startBossRequest struct {
	Name     string   `json:"name" binding:"required"`
	Subtasks []string `json:"subtasks"`
}

// HandleStartBoss handles POST /v1/boss.
func (h *Handlers) HandleStartBoss(c *gin.Context) {
	var req startBossRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name is required", Code: "INVALID_REQUEST"})
		return
	}

	if err := h.engine.StartBossBattle(req.Name, req.Subtasks); err != nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "BATTLE_ACTIVE"})
		return
	}
	c.JSON(http.StatusCreated, h.engine.GetStats().CurrentBossBattle)
}

// HandleCanCompleteBoss handles GET /v1/boss/can-complete.
func (h *Handlers) HandleCanCompleteBoss(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"canComplete": h.engine.CanCompleteBossBattle()})
}

// HandleCompleteBoss handles POST /v1/boss/complete. Outstanding
// subtasks are reported back in the 409 body.
func (h *Handlers) HandleCompleteBoss(c *gin.Context) {
	reward, err := h.engine.CompleteBossBattle()
	if err != nil {
		var ce gamify.CompletionError
		switch {
		case errors.As(err, &ce):
			c.JSON(http.StatusConflict, gin.H{
				"error":       ce.Error(),
				"code":        "SUBTASKS_OUTSTANDING",
				"outstanding": ce.Outstanding,
			})
		case errors.Is(err, gamify.ErrNoBattle):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "NO_BATTLE"})
		case errors.Is(err, gamify.ErrDisabled):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "ENGINE_DISABLED"})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "INTERNAL"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewardXp": reward, "stats": h.engine.GetStats()})
}

// HandleCancelBoss handles POST /v1/boss/cancel.
func (h *Handlers) HandleCancelBoss(c *gin.Context) {
	if !h.engine.CancelBossBattle() {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no active boss battle", Code: "NO_BATTLE"})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleToggleSubtask handles POST /v1/boss/subtasks/:id/toggle.
func (h *Handlers) HandleToggleSubtask(c *gin.Context) {
	id := c.Param("id")
	if !h.engine.ToggleSubtask(id) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "subtask not found or battle not active", Code: "SUBTASK_UNKNOWN"})
		return
	}
	c.JSON(http.StatusOK, h.engine.GetStats().CurrentBossBattle)
}

// HandleCheckStreak handles POST /v1/streak/check.
func (h *Handlers) HandleCheckStreak(c *gin.Context) {
	h.engine.CheckDailyStreak()
	c.JSON(http.StatusOK, gin.H{"dailyStreak": h.engine.GetStats().DailyStreak})
}

// HandleAssistStats handles GET /v1/assist.
func (h *Handlers) HandleAssistStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.GetAssistanceStats())
}

// HandleAssistActivity handles POST /v1/assist/activity.
func (h *Handlers) HandleAssistActivity(c *gin.Context) {
	h.engine.RecordAssistanceActivity()
	c.JSON(http.StatusOK, h.engine.GetAssistanceStats())
}

// HandleKillAssist handles DELETE /v1/assist.
func (h *Handlers) HandleKillAssist(c *gin.Context) {
	h.engine.KillAssistanceSession()
	c.Status(http.StatusNoContent)
}

// HandleToggleEnabled handles POST /v1/enabled/toggle.
func (h *Handlers) HandleToggleEnabled(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": h.engine.ToggleEnabled()})
}

// HandleReset handles POST /v1/reset.
func (h *Handlers) HandleReset(c *gin.Context) {
	h.engine.ResetStats()
	c.JSON(http.StatusOK, h.engine.GetStats())
}
