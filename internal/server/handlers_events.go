package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitelog/backend/internal/tracking"
)

type eventRequestPayload struct {
	SequenceNumber    *int64 `json:"sequence_number"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	OccurredOn        string `json:"occurred_on"`
	RecommendedAction string `json:"recommended_action"`
	Status            string `json:"status"`
}

func (p eventRequestPayload) toInput(c *gin.Context) (tracking.EventInput, bool) {
	occurredOn, err := parseDate(p.OccurredOn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_date", "detail": err.Error()})
		return tracking.EventInput{}, false
	}

	action, err := tracking.ParseRecommendedAction(p.RecommendedAction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_recommended_action"})
		return tracking.EventInput{}, false
	}

	var status tracking.Status
	if p.Status != "" {
		status, err = tracking.ParseStatus(p.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
			return tracking.EventInput{}, false
		}
	}

	return tracking.EventInput{
		SequenceNumber:    p.SequenceNumber,
		Title:             p.Title,
		Description:       p.Description,
		OccurredOn:        occurredOn,
		RecommendedAction: action,
		Status:            status,
	}, true
}

// handleListEvents assembles the event listing of a site. The sort keys
// mirror the original application's query parameters: "sort" orders the
// events, "d_sort" orders the letters inside each row.
func (h *httpHandler) handleListEvents(c *gin.Context) {
	siteID, ok := parsePathID(c)
	if !ok {
		return
	}

	eventSort := tracking.ParseEventSort(c.Query("sort"))
	letterSort := tracking.ParseLetterSort(c.Query("d_sort"))

	rows, err := h.tracker.ListEventRows(c.Request.Context(), siteID, eventSort, letterSort)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	payload := make([]eventRowPayload, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, renderEventRow(row))
	}
	c.JSON(http.StatusOK, gin.H{
		"events": payload,
		"sort":   string(eventSort),
		"d_sort": string(letterSort),
	})
}

func (h *httpHandler) handleCreateEvent(c *gin.Context) {
	siteID, ok := parsePathID(c)
	if !ok {
		return
	}
	var request eventRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	input, ok := request.toInput(c)
	if !ok {
		return
	}

	event, err := h.tracker.CreateEvent(c.Request.Context(), &siteID, input)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderEvent(event))
}

func (h *httpHandler) handleEventDetail(c *gin.Context) {
	eventID, ok := parsePathID(c)
	if !ok {
		return
	}

	detail, err := h.tracker.EventDetail(c.Request.Context(), eventID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	row := renderEventRow(tracking.EventRow{
		Event:     detail.Event,
		Letters:   detail.Letters,
		BallOnUs:  detail.BallOnUs,
		Highlight: detail.Highlight,
	})
	c.JSON(http.StatusOK, row)
}

func (h *httpHandler) handleUpdateEvent(c *gin.Context) {
	eventID, ok := parsePathID(c)
	if !ok {
		return
	}
	var request eventRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	input, ok := request.toInput(c)
	if !ok {
		return
	}

	event, err := h.tracker.UpdateEvent(c.Request.Context(), eventID, input)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderEvent(event))
}

func (h *httpHandler) handleDeleteEvent(c *gin.Context) {
	eventID, ok := parsePathID(c)
	if !ok {
		return
	}

	if err := h.tracker.DeleteEvent(c.Request.Context(), eventID); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
