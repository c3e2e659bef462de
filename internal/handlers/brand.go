package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/services"
)

type BrandStore interface {
	ActiveBrandConfig(ctx context.Context) (*models.BrandConfig, error)
	ListAdPlacements(ctx context.Context, brandConfigID string) ([]models.AdPlacement, error)
}

type BrandHandler struct {
	store BrandStore
	log   *logrus.Entry
}

func NewBrandHandler(store BrandStore, log *logrus.Entry) *BrandHandler {
	return &BrandHandler{store: store, log: log}
}

// GetBrandConfig returns the active brand, or null when none is active.
func (h *BrandHandler) GetBrandConfig(c *gin.Context) {
	bc, err := h.store.ActiveBrandConfig(c.Request.Context())
	if services.IsNotFound(err) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, bc)
}

func (h *BrandHandler) ListAdPlacements(c *gin.Context) {
	ads := []models.AdPlacement{}

	bc, err := h.store.ActiveBrandConfig(c.Request.Context())
	if services.IsNotFound(err) {
		c.JSON(http.StatusOK, ads)
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	found, err := h.store.ListAdPlacements(c.Request.Context(), bc.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if found != nil {
		ads = found
	}

	c.JSON(http.StatusOK, ads)
}
