package api

import (
	"errors"
	"net/http"

	"dosh_badges/internal/service"
	"dosh_badges/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrBadgeNotFound, http.StatusNotFound},
	{service.ErrMilestoneNotFound, http.StatusNotFound},
	{service.ErrActionNotFound, http.StatusNotFound},
	{service.ErrReferralNotFound, http.StatusNotFound},

	{service.ErrInvalidBadge, http.StatusBadRequest},
	{service.ErrInvalidExtension, http.StatusBadRequest},
	{service.ErrInvalidReferral, http.StatusBadRequest},

	{service.ErrBadgeExists, http.StatusConflict},
	{service.ErrAlreadyEarned, http.StatusConflict},
	{service.ErrMilestoneEarned, http.StatusConflict},
	{service.ErrActionInFlight, http.StatusConflict},
	{service.ErrLessonCompleted, http.StatusConflict},
	{service.ErrDuplicateReferral, http.StatusConflict},

	{service.ErrNotClaimable, http.StatusUnprocessableEntity},
	{service.ErrDeadlineExpired, http.StatusUnprocessableEntity},
	{service.ErrMilestoneLocked, http.StatusUnprocessableEntity},
	{service.ErrNoDeadline, http.StatusUnprocessableEntity},
	{service.ErrExtensionsNotAllowed, http.StatusUnprocessableEntity},
	{service.ErrWrongActionType, http.StatusUnprocessableEntity},
	{service.ErrInvalidCode, http.StatusUnprocessableEntity},
	{service.ErrInsufficientEvidence, http.StatusUnprocessableEntity},
	{service.ErrLessonNotRequired, http.StatusUnprocessableEntity},
	{service.ErrLessonOutOfOrder, http.StatusUnprocessableEntity},
	{service.ErrNoReferralLink, http.StatusUnprocessableEntity},
}

func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the status mapped from a service error. Unexpected
// errors are logged and answered with failure as the message.
func respondError(c *gin.Context, err error, failure string, fields ...zap.Field) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Logger().Error(failure, append(fields, zap.Error(err))...)
		c.JSON(status, gin.H{"error": failure})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
