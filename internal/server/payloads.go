package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitelog/backend/internal/tracking"
)

const dateLayout = "2006-01-02"

func parsePathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return id, true
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &parsed, nil
}

func formatDate(value time.Time) string {
	return value.Format(dateLayout)
}

func formatDatePtr(value *time.Time) string {
	if value == nil {
		return ""
	}
	return formatDate(*value)
}

type sitePayload struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	CreatedAt int64  `json:"created_at_s"`
}

func renderSite(site *tracking.Site) sitePayload {
	return sitePayload{
		ID:        site.ID,
		Name:      site.Name,
		Location:  site.Location,
		CreatedAt: site.CreatedAt.Unix(),
	}
}

type eventPayload struct {
	ID                int64  `json:"id"`
	SiteID            *int64 `json:"site_id"`
	SequenceNumber    *int64 `json:"sequence_number"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	OccurredOn        string `json:"occurred_on"`
	RecommendedAction string `json:"recommended_action"`
	Status            string `json:"status"`
}

func renderEvent(event *tracking.Event) eventPayload {
	return eventPayload{
		ID:                event.ID,
		SiteID:            event.SiteID,
		SequenceNumber:    event.SequenceNumber,
		Title:             event.Title,
		Description:       event.Description,
		OccurredOn:        formatDate(event.OccurredOn),
		RecommendedAction: string(event.RecommendedAction),
		Status:            string(event.Status),
	}
}

type letterPayload struct {
	ID             int64               `json:"id"`
	EventID        int64               `json:"event_id"`
	Direction      string              `json:"direction"`
	Category       string              `json:"category"`
	SequenceNumber *int64              `json:"sequence_number"`
	LegacyNumber   string              `json:"legacy_number,omitempty"`
	SentOn         string              `json:"sent_on"`
	DueOn          string              `json:"due_on,omitempty"`
	Status         string              `json:"status"`
	Content        string              `json:"content"`
	Notes          []notePayload       `json:"notes,omitempty"`
	Attachments    []attachmentPayload `json:"attachments,omitempty"`
}

func renderLetter(letter *tracking.Letter) letterPayload {
	payload := letterPayload{
		ID:             letter.ID,
		EventID:        letter.EventID,
		Direction:      string(letter.Direction),
		Category:       string(letter.Category),
		SequenceNumber: letter.SequenceNumber,
		LegacyNumber:   letter.LegacyNumber,
		SentOn:         formatDate(letter.SentOn),
		DueOn:          formatDatePtr(letter.DueOn),
		Status:         string(letter.Status),
		Content:        letter.Content,
	}
	for index := range letter.Notes {
		payload.Notes = append(payload.Notes, renderNote(&letter.Notes[index]))
	}
	for index := range letter.Attachments {
		payload.Attachments = append(payload.Attachments, renderAttachment(&letter.Attachments[index]))
	}
	return payload
}

type notePayload struct {
	ID        int64  `json:"id"`
	AuthorID  *int64 `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"created_at_s"`
}

func renderNote(note *tracking.LetterNote) notePayload {
	return notePayload{
		ID:        note.ID,
		AuthorID:  note.AuthorID,
		Body:      note.Body,
		CreatedAt: note.CreatedAt.Unix(),
	}
}

type attachmentPayload struct {
	ID           int64  `json:"id"`
	OriginalName string `json:"original_name"`
	Description  string `json:"description"`
	UploadedAt   int64  `json:"uploaded_at_s"`
}

func renderAttachment(attachment *tracking.Attachment) attachmentPayload {
	return attachmentPayload{
		ID:           attachment.ID,
		OriginalName: attachment.OriginalName,
		Description:  attachment.Description,
		UploadedAt:   attachment.UploadedAt.Unix(),
	}
}

type badgePayload struct {
	Classification string `json:"classification"`
	Label          string `json:"label"`
}

type letterRowPayload struct {
	letterPayload
	Badge badgePayload `json:"badge"`
}

type eventRowPayload struct {
	eventPayload
	BallOnUs  bool               `json:"ball_on_us"`
	Highlight string             `json:"highlight"`
	Letters   []letterRowPayload `json:"letters"`
}

func renderEventRow(row tracking.EventRow) eventRowPayload {
	payload := eventRowPayload{
		eventPayload: renderEvent(&row.Event),
		BallOnUs:     row.BallOnUs,
		Highlight:    string(row.Highlight),
		Letters:      make([]letterRowPayload, 0, len(row.Letters)),
	}
	for index := range row.Letters {
		letterRow := row.Letters[index]
		payload.Letters = append(payload.Letters, letterRowPayload{
			letterPayload: renderLetter(&letterRow.Letter),
			Badge: badgePayload{
				Classification: string(letterRow.Badge.Classification),
				Label:          letterRow.Badge.Label,
			},
		})
	}
	return payload
}
