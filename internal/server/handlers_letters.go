package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sitelog/backend/internal/tracking"
)

type letterRequestPayload struct {
	Direction      string `json:"direction"`
	Category       string `json:"category"`
	SequenceNumber *int64 `json:"sequence_number"`
	LegacyNumber   string `json:"legacy_number"`
	SentOn         string `json:"sent_on"`
	DueOn          string `json:"due_on"`
	Status         string `json:"status"`
	Content        string `json:"content"`
}

func (p letterRequestPayload) toInput(c *gin.Context) (tracking.LetterInput, bool) {
	input := tracking.LetterInput{
		SequenceNumber: p.SequenceNumber,
		LegacyNumber:   p.LegacyNumber,
		Content:        p.Content,
	}

	var err error
	if p.Direction != "" {
		input.Direction, err = tracking.ParseDirection(p.Direction)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_direction"})
			return tracking.LetterInput{}, false
		}
	}
	input.Category, err = tracking.ParseCategory(p.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_category"})
		return tracking.LetterInput{}, false
	}
	if p.Status != "" {
		input.Status, err = tracking.ParseStatus(p.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
			return tracking.LetterInput{}, false
		}
	}
	input.SentOn, err = parseDate(p.SentOn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_date", "detail": err.Error()})
		return tracking.LetterInput{}, false
	}
	input.DueOn, err = parseDate(p.DueOn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_date", "detail": err.Error()})
		return tracking.LetterInput{}, false
	}

	return input, true
}

func (h *httpHandler) handleCreateLetter(c *gin.Context) {
	eventID, ok := parsePathID(c)
	if !ok {
		return
	}
	var request letterRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	input, ok := request.toInput(c)
	if !ok {
		return
	}

	letter, err := h.tracker.CreateLetter(c.Request.Context(), eventID, input)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderLetter(letter))
}

func (h *httpHandler) handleGetLetter(c *gin.Context) {
	letterID, ok := parsePathID(c)
	if !ok {
		return
	}

	letter, err := h.tracker.GetLetter(c.Request.Context(), letterID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderLetter(letter))
}

func (h *httpHandler) handleUpdateLetter(c *gin.Context) {
	letterID, ok := parsePathID(c)
	if !ok {
		return
	}
	var request letterRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	input, ok := request.toInput(c)
	if !ok {
		return
	}

	letter, err := h.tracker.UpdateLetter(c.Request.Context(), letterID, input)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderLetter(letter))
}

func (h *httpHandler) handleDeleteLetter(c *gin.Context) {
	letterID, ok := parsePathID(c)
	if !ok {
		return
	}

	if err := h.tracker.DeleteLetter(c.Request.Context(), letterID); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type noteRequestPayload struct {
	Body string `json:"body"`
}

func (h *httpHandler) handleAddNote(c *gin.Context) {
	letterID, ok := parsePathID(c)
	if !ok {
		return
	}
	var request noteRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	note, err := h.tracker.AddNote(c.Request.Context(), letterID, h.currentAccountID(c), request.Body)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderNote(note))
}

func (h *httpHandler) handleUploadAttachment(c *gin.Context) {
	letterID, ok := parsePathID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_file"})
		return
	}

	// confirm the parent before writing anything to disk
	if _, err := h.tracker.GetLetter(c.Request.Context(), letterID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	content, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_file"})
		return
	}
	defer content.Close()

	storedName, err := h.files.Save(content, fileHeader.Filename)
	if err != nil {
		h.logger.Error("attachment write failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_failed"})
		return
	}

	attachment, err := h.tracker.AddAttachment(c.Request.Context(), letterID, tracking.AttachmentInput{
		StoredName:   storedName,
		OriginalName: fileHeader.Filename,
		Description:  c.PostForm("description"),
	})
	if err != nil {
		if removeErr := h.files.Remove(storedName); removeErr != nil {
			h.logger.Warn("orphaned attachment cleanup failed", zap.Error(removeErr))
		}
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderAttachment(attachment))
}

func (h *httpHandler) handleDownloadAttachment(c *gin.Context) {
	attachmentID, ok := parsePathID(c)
	if !ok {
		return
	}

	attachment, err := h.tracker.GetAttachment(c.Request.Context(), attachmentID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	path, err := h.files.Path(attachment.StoredName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.FileAttachment(path, attachment.OriginalName)
}
