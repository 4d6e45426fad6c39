package api

import (
	"errors"
	"net/http"

	"challenger/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Error codes returned in the "code" field of error bodies
const (
	CodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	CodeUserSuspended        = "USER_SUSPENDED"
	CodeChallengeUnavailable = "CHALLENGE_UNAVAILABLE"
	CodeInvalidWinner        = "INVALID_WINNER"
	CodeStakeBelowMinimum    = "STAKE_BELOW_MINIMUM"
	CodeInvalidState         = "INVALID_STATE"
	CodeForbidden            = "FORBIDDEN"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeNotFound             = "NOT_FOUND"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeInternal             = "INTERNAL"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{service.ErrInsufficientFunds, http.StatusPaymentRequired, CodeInsufficientFunds},
	{service.ErrUserSuspended, http.StatusForbidden, CodeUserSuspended},
	{service.ErrChallengeUnavailable, http.StatusConflict, CodeChallengeUnavailable},
	{service.ErrTeamFull, http.StatusConflict, CodeChallengeUnavailable},
	{service.ErrInvalidWinner, http.StatusUnprocessableEntity, CodeInvalidWinner},
	{service.ErrStakeBelowMinimum, http.StatusUnprocessableEntity, CodeStakeBelowMinimum},
	{service.ErrInvalidState, http.StatusConflict, CodeInvalidState},
	{service.ErrForbidden, http.StatusForbidden, CodeForbidden},
	{service.ErrNotParticipant, http.StatusForbidden, CodeForbidden},
	{service.ErrMatchNotFound, http.StatusNotFound, CodeNotFound},
	{service.ErrHoldNotFound, http.StatusNotFound, CodeNotFound},
	{service.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
	{service.ErrInvalidParticipant, http.StatusBadRequest, CodeValidationFailed},
	{service.ErrInvalidTeamSize, http.StatusBadRequest, CodeValidationFailed},
	{service.ErrDecisionRequired, http.StatusBadRequest, CodeValidationFailed},
	{service.ErrReasonRequired, http.StatusBadRequest, CodeValidationFailed},
	{service.ErrInvalidFeePercentage, http.StatusBadRequest, CodeValidationFailed},
	{service.ErrInvalidAmount, http.StatusBadRequest, CodeValidationFailed},
}

// classifyError maps a service error to its HTTP status and code
func classifyError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// respondError writes err as a JSON error body. Internal errors are logged, not echoed.
func respondError(c *gin.Context, err error) {
	status, code := classifyError(err)
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err,
		}).Error("Request failed")
		c.JSON(status, gin.H{"error": "internal error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeValidationFailed})
}
