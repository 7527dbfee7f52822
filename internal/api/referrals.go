package api

import (
	"net/http"

	"dosh_badges/internal/service"
	"dosh_badges/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type referralRoutes struct {
	rs service.ReferralServiceI
}

func NewReferralRoutes(handler *gin.RouterGroup, rs service.ReferralServiceI) {
	r := &referralRoutes{rs: rs}
	h := handler.Group("/users/:user_id/referrals/:badge_id")
	{
		h.GET("", r.GetReferralProgress)
		h.POST("", r.RegisterReferral)
		h.POST("/share", r.Share)
		h.POST("/:referral_id/lessons", r.RecordFriendLessons)
	}
}

type FriendLessonsRequest struct {
	CompletedLessons *int `json:"completedLessons" binding:"required,min=0"`
}

type ShareRequest struct {
	UserName string `json:"userName"`
}

func (r *referralRoutes) GetReferralProgress(c *gin.Context) {
	userID, badgeID := c.Param("user_id"), c.Param("badge_id")

	view, err := r.rs.ReferralProgress(c.Request.Context(), userID, badgeID)
	if err != nil {
		respondError(c, err, "failed to get referral progress",
			zap.String("user_id", userID),
			zap.String("badge_id", badgeID))
		return
	}
	c.JSON(http.StatusOK, view)
}

func (r *referralRoutes) RegisterReferral(c *gin.Context) {
	log := logger.Logger()
	userID, badgeID := c.Param("user_id"), c.Param("badge_id")

	var req service.Friend
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	view, err := r.rs.RegisterReferral(c.Request.Context(), userID, badgeID, req)
	if err != nil {
		respondError(c, err, "failed to register referral",
			zap.String("user_id", userID),
			zap.String("badge_id", badgeID))
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (r *referralRoutes) RecordFriendLessons(c *gin.Context) {
	log := logger.Logger()
	userID, badgeID, referralID := c.Param("user_id"), c.Param("badge_id"), c.Param("referral_id")

	var req FriendLessonsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	view, err := r.rs.RecordFriendLessons(c.Request.Context(), userID, badgeID, referralID, *req.CompletedLessons)
	if err != nil {
		respondError(c, err, "failed to record friend lessons",
			zap.String("user_id", userID),
			zap.String("badge_id", badgeID),
			zap.String("referral_id", referralID))
		return
	}
	c.JSON(http.StatusOK, view)
}

func (r *referralRoutes) Share(c *gin.Context) {
	log := logger.Logger()
	userID, badgeID := c.Param("user_id"), c.Param("badge_id")

	var req ShareRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Error("failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	result, err := r.rs.Share(c.Request.Context(), userID, badgeID, req.UserName)
	if err != nil {
		respondError(c, err, "failed to share referral link",
			zap.String("user_id", userID),
			zap.String("badge_id", badgeID))
		return
	}
	c.JSON(http.StatusOK, result)
}
