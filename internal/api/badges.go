package api

import (
	"net/http"
	"strconv"

	"dosh_badges/internal/model"
	"dosh_badges/internal/service"
	"dosh_badges/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type badgeRoutes struct {
	bs service.BadgeServiceI
}

func NewBadgeRoutes(handler *gin.RouterGroup, bs service.BadgeServiceI) {
	r := &badgeRoutes{bs: bs}
	h := handler.Group("/badges")
	{
		h.GET("", r.ListBadges)
		h.POST("", r.CreateBadge)
		h.GET("/claimable", r.ClaimableBadges)
		h.GET("/:badge_id", r.GetBadge)
		h.PUT("/:badge_id", r.UpdateBadge)
		h.DELETE("/:badge_id", r.DeleteBadge)

		h.POST("/:badge_id/claim", r.ClaimBadge)
		h.POST("/:badge_id/progress", r.ReportProgress)
		h.POST("/:badge_id/deadline/extend", r.ExtendDeadline)
		h.POST("/:badge_id/milestones/:milestone_id/claim", r.ClaimMilestone)
		h.GET("/:badge_id/lessons", r.BadgeLessons)
		h.POST("/:badge_id/lessons/:lesson_id/complete", r.CompleteLesson)
	}

	handler.GET("/dashboard", r.Dashboard)
	handler.GET("/lessons", r.ListLessons)

	deadlines := handler.Group("/deadlines")
	{
		deadlines.GET("/upcoming", r.UpcomingDeadlines)
		deadlines.GET("/overdue", r.OverdueBadges)
	}
}

// BadgeRequest is the authoring payload for creating or replacing a badge.
type BadgeRequest struct {
	Badge  model.Badge        `json:"badge"`
	Config *model.BadgeConfig `json:"config,omitempty"`
}

type BadgeResponse struct {
	model.BadgeStatus
	Config *model.BadgeConfig `json:"config,omitempty"`
}

type ExtendDeadlineRequest struct {
	Days int `json:"days" binding:"required,min=1"`
}

type ProgressRequest struct {
	Progress *int `json:"progress" binding:"required,min=0"`
}

func (r *badgeRoutes) ListBadges(c *gin.Context) {
	statuses, err := r.bs.ListBadges(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list badges")
		return
	}
	c.JSON(http.StatusOK, statuses)
}

func (r *badgeRoutes) GetBadge(c *gin.Context) {
	badgeID := c.Param("badge_id")

	status, cfg, err := r.bs.GetBadge(c.Request.Context(), badgeID)
	if err != nil {
		respondError(c, err, "failed to get badge", zap.String("badge_id", badgeID))
		return
	}
	c.JSON(http.StatusOK, BadgeResponse{BadgeStatus: status, Config: cfg})
}

func (r *badgeRoutes) CreateBadge(c *gin.Context) {
	log := logger.Logger()

	var req BadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	status, err := r.bs.CreateBadge(c.Request.Context(), req.Badge, req.Config)
	if err != nil {
		respondError(c, err, "failed to create badge")
		return
	}
	c.JSON(http.StatusCreated, BadgeResponse{BadgeStatus: status, Config: req.Config})
}

func (r *badgeRoutes) UpdateBadge(c *gin.Context) {
	log := logger.Logger()
	badgeID := c.Param("badge_id")

	var req BadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Badge.ID == "" {
		req.Badge.ID = badgeID
	}
	if req.Badge.ID != badgeID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "badge id does not match path"})
		return
	}

	status, err := r.bs.UpdateBadge(c.Request.Context(), req.Badge, req.Config)
	if err != nil {
		respondError(c, err, "failed to update badge", zap.String("badge_id", badgeID))
		return
	}
	c.JSON(http.StatusOK, BadgeResponse{BadgeStatus: status, Config: req.Config})
}

func (r *badgeRoutes) DeleteBadge(c *gin.Context) {
	badgeID := c.Param("badge_id")

	if err := r.bs.DeleteBadge(c.Request.Context(), badgeID); err != nil {
		respondError(c, err, "failed to delete badge", zap.String("badge_id", badgeID))
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *badgeRoutes) ClaimBadge(c *gin.Context) {
	badgeID := c.Param("badge_id")

	status, err := r.bs.ClaimBadge(c.Request.Context(), badgeID)
	if err != nil {
		respondError(c, err, "failed to claim badge", zap.String("badge_id", badgeID))
		return
	}
	c.JSON(http.StatusOK, status)
}

func (r *badgeRoutes) ClaimMilestone(c *gin.Context) {
	badgeID := c.Param("badge_id")
	milestoneID := c.Param("milestone_id")

	status, err := r.bs.ClaimMilestone(c.Request.Context(), badgeID, milestoneID)
	if err != nil {
		respondError(c, err, "failed to claim milestone",
			zap.String("badge_id", badgeID),
			zap.String("milestone_id", milestoneID))
		return
	}
	c.JSON(http.StatusOK, status)
}

func (r *badgeRoutes) ExtendDeadline(c *gin.Context) {
	log := logger.Logger()
	badgeID := c.Param("badge_id")

	var req ExtendDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	status, err := r.bs.ExtendDeadline(c.Request.Context(), badgeID, req.Days)
	if err != nil {
		respondError(c, err, "failed to extend deadline", zap.String("badge_id", badgeID))
		return
	}
	c.JSON(http.StatusOK, status)
}

func (r *badgeRoutes) ReportProgress(c *gin.Context) {
	log := logger.Logger()
	badgeID := c.Param("badge_id")

	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	status, err := r.bs.ReportProgress(c.Request.Context(), badgeID, *req.Progress)
	if err != nil {
		respondError(c, err, "failed to report progress", zap.String("badge_id", badgeID))
		return
	}
	c.JSON(http.StatusOK, status)
}

func (r *badgeRoutes) BadgeLessons(c *gin.Context) {
	badgeID := c.Param("badge_id")

	lessons, err := r.bs.BadgeLessons(c.Request.Context(), badgeID)
	if err != nil {
		respondError(c, err, "failed to get badge lessons", zap.String("badge_id", badgeID))
		return
	}
	c.JSON(http.StatusOK, lessons)
}

func (r *badgeRoutes) CompleteLesson(c *gin.Context) {
	badgeID := c.Param("badge_id")
	lessonID := c.Param("lesson_id")

	status, err := r.bs.CompleteLesson(c.Request.Context(), badgeID, lessonID)
	if err != nil {
		respondError(c, err, "failed to complete lesson",
			zap.String("badge_id", badgeID),
			zap.String("lesson_id", lessonID))
		return
	}
	c.JSON(http.StatusOK, status)
}

func (r *badgeRoutes) ClaimableBadges(c *gin.Context) {
	badges, err := r.bs.ClaimableBadges(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list claimable badges")
		return
	}
	c.JSON(http.StatusOK, nonNil(badges))
}

func (r *badgeRoutes) Dashboard(c *gin.Context) {
	stats, err := r.bs.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to get dashboard")
		return
	}
	stats.UpcomingDeadlines = nonNil(stats.UpcomingDeadlines)
	stats.OverdueBadges = nonNil(stats.OverdueBadges)
	c.JSON(http.StatusOK, stats)
}

func (r *badgeRoutes) UpcomingDeadlines(c *gin.Context) {
	within := 0
	if raw := c.Query("within"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid within"})
			return
		}
		within = days
	}

	badges, err := r.bs.UpcomingDeadlines(c.Request.Context(), within)
	if err != nil {
		respondError(c, err, "failed to list upcoming deadlines")
		return
	}
	c.JSON(http.StatusOK, nonNil(badges))
}

func (r *badgeRoutes) OverdueBadges(c *gin.Context) {
	badges, err := r.bs.OverdueBadges(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list overdue badges")
		return
	}
	c.JSON(http.StatusOK, nonNil(badges))
}

func (r *badgeRoutes) ListLessons(c *gin.Context) {
	lessons, err := r.bs.ListLessons(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list lessons")
		return
	}
	c.JSON(http.StatusOK, lessons)
}

func nonNil(badges []model.Badge) []model.Badge {
	if badges == nil {
		return []model.Badge{}
	}
	return badges
}
