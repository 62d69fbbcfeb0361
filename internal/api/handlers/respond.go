package handlers

import (
	"net/http"

	"github.com/Mesh2A/digitduel/pkg/errors"
	"github.com/Mesh2A/digitduel/pkg/logger"
	"github.com/gin-gonic/gin"
)

// statusByCode maps error codes to HTTP statuses. Conflict-class codes all
// map to 409: the client's next move is to re-fetch state, not retry.
var statusByCode = map[string]int{
	errors.ErrCodeValidation:        http.StatusBadRequest,
	errors.ErrCodeNotYourTurn:       http.StatusConflict,
	errors.ErrCodeWrongPhase:        http.StatusConflict,
	errors.ErrCodeCardAlreadyUsed:   http.StatusConflict,
	errors.ErrCodeInsufficientFunds: http.StatusPaymentRequired,
	errors.ErrCodeAlreadyExists:     http.StatusConflict,
	errors.ErrCodeAlreadyInMatch:    http.StatusConflict,
	errors.ErrCodeAlreadyInQueue:    http.StatusConflict,
	errors.ErrCodeStaleConnection:   http.StatusConflict,
	errors.ErrCodeConnectionExpired: http.StatusConflict,
	errors.ErrCodeNotFound:          http.StatusNotFound,
	errors.ErrCodeUnauthorized:      http.StatusUnauthorized,
	errors.ErrCodeForbidden:         http.StatusForbidden,
	errors.ErrCodeOnlineDisabled:    http.StatusServiceUnavailable,
	errors.ErrCodeInternalError:     http.StatusInternalServerError,
}

// respondError renders the uniform error envelope. Internal details never
// reach the client; they go to the log.
func respondError(c *gin.Context, err error) {
	code := errors.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "something went wrong"
	if appErr, isApp := err.(*errors.AppError); isApp && code != errors.ErrCodeInternalError {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}

func respondOK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}
