package tracking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opListEventRows = "tracking.list_event_rows"
	opEventDetail   = "tracking.event_detail"
)

// EventSort selects the ordering of the event listing.
type EventSort string

const (
	EventSortNumberAsc  EventSort = "number_asc"
	EventSortNumberDesc EventSort = "number_desc"
	EventSortDateAsc    EventSort = "date_asc"
	EventSortDateDesc   EventSort = "date_desc"
)

// LetterSort selects the ordering of letters within an event row.
type LetterSort string

const (
	LetterSortNumberAsc  LetterSort = "number_asc"
	LetterSortNumberDesc LetterSort = "number_desc"
	LetterSortSentAsc    LetterSort = "sent_asc"
	LetterSortSentDesc   LetterSort = "sent_desc"
	LetterSortDueAsc     LetterSort = "due_asc"
	LetterSortDueDesc    LetterSort = "due_desc"
)

var eventSortColumns = map[EventSort]string{
	EventSortNumberAsc:  "sequence_number ASC, id ASC",
	EventSortNumberDesc: "sequence_number DESC, id DESC",
	EventSortDateAsc:    "occurred_on ASC, id ASC",
	EventSortDateDesc:   "occurred_on DESC, id DESC",
}

var letterSortColumns = map[LetterSort]string{
	LetterSortNumberAsc:  "sequence_number ASC, id ASC",
	LetterSortNumberDesc: "sequence_number DESC, id DESC",
	LetterSortSentAsc:    "sent_on ASC, id ASC",
	LetterSortSentDesc:   "sent_on DESC, id DESC",
	LetterSortDueAsc:     "due_on ASC, id ASC",
	LetterSortDueDesc:    "due_on DESC, id DESC",
}

// ParseEventSort maps a raw query value to an event sort key, falling back
// to number ascending for unknown input.
func ParseEventSort(rawInput string) EventSort {
	if _, known := eventSortColumns[EventSort(rawInput)]; known {
		return EventSort(rawInput)
	}
	return EventSortNumberAsc
}

// ParseLetterSort maps a raw query value to a letter sort key, falling back
// to due date ascending for unknown input.
func ParseLetterSort(rawInput string) LetterSort {
	if _, known := letterSortColumns[LetterSort(rawInput)]; known {
		return LetterSort(rawInput)
	}
	return LetterSortDueAsc
}

// LetterRow pairs a letter with its derived due badge.
type LetterRow struct {
	Letter Letter
	Badge  DueBadge
}

// EventRow is one assembled row of the event listing: the event, its
// letters with badges, the ball-on-us flag, and the row highlight.
type EventRow struct {
	Event     Event
	Letters   []LetterRow
	BallOnUs  bool
	Highlight RowHighlight
}

// ListEventRows assembles the event listing for a site: events in the
// requested order, each with its letters sorted per the letter sort key,
// a due badge per letter, and the row-level highlight derived from the
// most recently sent letter.
func (s *Service) ListEventRows(ctx context.Context, siteID int64, eventSort EventSort, letterSort LetterSort) ([]EventRow, error) {
	if _, err := s.GetSite(ctx, siteID); err != nil {
		return nil, err
	}

	letterOrder := letterSortColumns[ParseLetterSort(string(letterSort))]
	var events []Event
	err := s.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order(eventSortColumns[ParseEventSort(string(eventSort))]).
		Preload("Letters", func(db *gorm.DB) *gorm.DB { return db.Order(letterOrder) }).
		Find(&events).Error
	if err != nil {
		s.logError(opListEventRows, "query_failed", err, zap.Int64("site_id", siteID))
		return nil, newServiceError(opListEventRows, "query_failed", err)
	}

	today := s.Today()
	rows := make([]EventRow, 0, len(events))
	for _, event := range events {
		rows = append(rows, s.assembleRow(event, today))
	}
	return rows, nil
}

// EventDetailView is the assembled detail page of one event.
type EventDetailView struct {
	Event     Event
	Letters   []LetterRow
	BallOnUs  bool
	Highlight RowHighlight
}

// EventDetail assembles one event with its letters ordered by due date
// (creation descending as tie-break), notes and attachments included.
func (s *Service) EventDetail(ctx context.Context, eventID int64) (*EventDetailView, error) {
	var event Event
	err := s.db.WithContext(ctx).
		Preload("Letters", func(db *gorm.DB) *gorm.DB { return db.Order("due_on ASC, created_at DESC, id DESC") }).
		Preload("Letters.Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Letters.Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at, id") }).
		Take(&event, eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logError(opEventDetail, "query_failed", err, zap.Int64("event_id", eventID))
		return nil, newServiceError(opEventDetail, "query_failed", err)
	}

	row := s.assembleRow(event, s.Today())
	return &EventDetailView{
		Event:     row.Event,
		Letters:   row.Letters,
		BallOnUs:  row.BallOnUs,
		Highlight: row.Highlight,
	}, nil
}

// assembleRow derives the per-row presentation state. The ball-on-us flag
// and the highlight both come from the most recently sent letter, whatever
// ordering the listing itself requested.
func (s *Service) assembleRow(event Event, today time.Time) EventRow {
	ballOnUs := BallOnUs(event.Letters)
	latest := MostRecentLetter(event.Letters)

	letters := make([]LetterRow, 0, len(event.Letters))
	for _, letter := range event.Letters {
		snapshot := letter
		letters = append(letters, LetterRow{
			Letter: snapshot,
			Badge:  ClassifyDue(&snapshot, ballOnUs, event.Status, today),
		})
	}

	return EventRow{
		Event:     event,
		Letters:   letters,
		BallOnUs:  ballOnUs,
		Highlight: HighlightForEvent(event.Status, latest, today),
	}
}
