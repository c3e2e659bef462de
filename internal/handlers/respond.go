package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/middleware"
	"github.com/JAGANADITHYA/walk1/internal/services"
)

const (
	CodeValidation          = "validation_error"
	CodeInsufficientBalance = "insufficient_balance"
	CodeNotFound            = "not_found"
	CodeUnauthorized        = "unauthorized"
	CodeConflict            = "conflict"
	CodeInternal            = "internal_error"
)

// respondError maps service errors to status codes. Anything unexpected is
// logged and reported as a 500 without details.
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	status, code := http.StatusInternalServerError, CodeInternal

	switch {
	case errors.Is(err, services.ErrValidation):
		status, code = http.StatusBadRequest, CodeValidation
	case errors.Is(err, services.ErrInsufficientBalance):
		status, code = http.StatusBadRequest, CodeInsufficientBalance
	case services.IsNotFound(err):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, services.ErrUnauthorized):
		status, code = http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, services.ErrConflict):
		status, code = http.StatusConflict, CodeConflict
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"path":    c.FullPath(),
			"user_id": c.GetString(middleware.ContextUserID),
		}).Error("request failed")
		c.JSON(status, gin.H{"error": "Internal server error", "code": code})
		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"code":    CodeValidation,
		"details": err.Error(),
	})
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}
