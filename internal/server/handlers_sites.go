package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitelog/backend/internal/tracking"
)

type siteRequestPayload struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (h *httpHandler) handleListSites(c *gin.Context) {
	sites, err := h.tracker.ListSites(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	payload := make([]sitePayload, 0, len(sites))
	for index := range sites {
		payload = append(payload, renderSite(&sites[index]))
	}
	c.JSON(http.StatusOK, gin.H{"sites": payload})
}

func (h *httpHandler) handleCreateSite(c *gin.Context) {
	var request siteRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	site, err := h.tracker.CreateSite(c.Request.Context(), tracking.SiteInput{
		Name:     request.Name,
		Location: request.Location,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderSite(site))
}

func (h *httpHandler) handleGetSite(c *gin.Context) {
	siteID, ok := parsePathID(c)
	if !ok {
		return
	}

	site, err := h.tracker.GetSite(c.Request.Context(), siteID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderSite(site))
}

func (h *httpHandler) handleUpdateSite(c *gin.Context) {
	siteID, ok := parsePathID(c)
	if !ok {
		return
	}
	var request siteRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	site, err := h.tracker.UpdateSite(c.Request.Context(), siteID, tracking.SiteInput{
		Name:     request.Name,
		Location: request.Location,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderSite(site))
}

func (h *httpHandler) handleDeleteSite(c *gin.Context) {
	siteID, ok := parsePathID(c)
	if !ok {
		return
	}

	if err := h.tracker.DeleteSite(c.Request.Context(), siteID); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
