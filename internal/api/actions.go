package api

import (
	"net/http"

	"dosh_badges/internal/service"
	"dosh_badges/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type actionRoutes struct {
	as service.ActionServiceI
}

func NewActionRoutes(handler *gin.RouterGroup, as service.ActionServiceI) {
	r := &actionRoutes{as: as}

	badges := handler.Group("/badges/:badge_id")
	{
		badges.POST("/code", r.SubmitCode)
		badges.POST("/evidence", r.SubmitEvidence)
		badges.POST("/tool-usage", r.RecordToolUsage)
	}

	actions := handler.Group("/actions")
	{
		actions.GET("/:action_id", r.GetAction)
		actions.DELETE("/:action_id", r.CancelAction)
	}
}

type CodeRequest struct {
	Code string `json:"code" binding:"required"`
}

type ActionAcceptedResponse struct {
	ActionID  string             `json:"actionId"`
	BadgeID   string             `json:"badgeId"`
	Kind      service.ActionKind `json:"kind"`
	StatusURL string             `json:"statusUrl"`
}

func (r *actionRoutes) SubmitCode(c *gin.Context) {
	log := logger.Logger()
	badgeID := c.Param("badge_id")

	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	task, err := r.as.SubmitCode(c.Request.Context(), badgeID, req.Code)
	if err != nil {
		respondError(c, err, "failed to submit code", zap.String("badge_id", badgeID))
		return
	}
	r.respondTask(c, task, badgeID, service.ActionKindCode)
}

func (r *actionRoutes) SubmitEvidence(c *gin.Context) {
	log := logger.Logger()
	badgeID := c.Param("badge_id")

	var req service.Evidence
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	task, err := r.as.SubmitEvidence(c.Request.Context(), badgeID, req)
	if err != nil {
		respondError(c, err, "failed to submit evidence", zap.String("badge_id", badgeID))
		return
	}
	r.respondTask(c, task, badgeID, service.ActionKindEvidence)
}

func (r *actionRoutes) RecordToolUsage(c *gin.Context) {
	badgeID := c.Param("badge_id")

	task, err := r.as.RecordToolUsage(c.Request.Context(), badgeID)
	if err != nil {
		respondError(c, err, "failed to record tool usage", zap.String("badge_id", badgeID))
		return
	}
	r.respondTask(c, task, badgeID, service.ActionKindTool)
}

func (r *actionRoutes) GetAction(c *gin.Context) {
	task, ok := r.as.Action(c.Param("action_id"))
	if !ok {
		respondError(c, service.ErrActionNotFound, "failed to get action")
		return
	}
	c.JSON(http.StatusOK, task.Snapshot())
}

func (r *actionRoutes) CancelAction(c *gin.Context) {
	task, ok := r.as.Action(c.Param("action_id"))
	if !ok {
		respondError(c, service.ErrActionNotFound, "failed to cancel action")
		return
	}
	task.Cancel()
	c.JSON(http.StatusAccepted, task.Snapshot())
}

// respondTask answers 202 with the action id, or with the final result when
// the caller asked to wait.
func (r *actionRoutes) respondTask(c *gin.Context, task *service.Task, badgeID string, kind service.ActionKind) {
	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, ActionAcceptedResponse{
			ActionID:  task.ID(),
			BadgeID:   badgeID,
			Kind:      kind,
			StatusURL: "/api/v1/actions/" + task.ID(),
		})
		return
	}

	result, err := task.Wait(c.Request.Context())
	if err != nil && c.Request.Context().Err() != nil {
		return
	}
	c.JSON(outcomeStatus(result.Outcome), result)
}

func outcomeStatus(outcome service.Outcome) int {
	switch outcome {
	case service.OutcomeAccepted:
		return http.StatusOK
	case service.OutcomeRejected:
		return http.StatusUnprocessableEntity
	case service.OutcomeCanceled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
