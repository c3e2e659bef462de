package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/middleware"
	"github.com/JAGANADITHYA/walk1/internal/services"
)

type DashboardHandler struct {
	dashboards *services.DashboardService
	log        *logrus.Entry
}

func NewDashboardHandler(dashboards *services.DashboardService, log *logrus.Entry) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, log: log}
}

func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	dash, err := h.dashboards.Get(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dash)
}
