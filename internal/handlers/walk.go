package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/middleware"
	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/services"
)

type WalkHandler struct {
	tracker *services.WalkTracker
	log     *logrus.Entry
}

func NewWalkHandler(tracker *services.WalkTracker, log *logrus.Entry) *WalkHandler {
	return &WalkHandler{tracker: tracker, log: log}
}

func (h *WalkHandler) StartWalk(c *gin.Context) {
	var req models.StartWalkRequest
	// The body is optional.
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondBindError(c, err)
			return
		}
	}

	session, err := h.tracker.StartSession(c.Request.Context(), c.GetString(middleware.ContextUserID), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *WalkHandler) CompleteWalk(c *gin.Context) {
	var req models.CompleteWalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.tracker.CompleteSession(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *WalkHandler) ListWalks(c *gin.Context) {
	sessions, err := h.tracker.ListSessions(c.Request.Context(), c.GetString(middleware.ContextUserID), queryLimit(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (h *WalkHandler) ClaimStreakBonus(c *gin.Context) {
	res, err := h.tracker.ClaimStreakBonus(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
