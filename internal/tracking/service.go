package tracking

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

const (
	opServiceNew    = "tracking.service.new"
	opCreateSite    = "tracking.create_site"
	opListSites     = "tracking.list_sites"
	opGetSite       = "tracking.get_site"
	opUpdateSite    = "tracking.update_site"
	opDeleteSite    = "tracking.delete_site"
	opCreateEvent   = "tracking.create_event"
	opGetEvent      = "tracking.get_event"
	opUpdateEvent   = "tracking.update_event"
	opDeleteEvent   = "tracking.delete_event"
	opCreateLetter  = "tracking.create_letter"
	opGetLetter     = "tracking.get_letter"
	opUpdateLetter  = "tracking.update_letter"
	opDeleteLetter  = "tracking.delete_letter"
	opAddNote       = "tracking.add_note"
	opAddAttachment = "tracking.add_attachment"
	opGetAttachment = "tracking.get_attachment"
)

// ServiceConfig describes the dependencies of the tracking service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service implements the record-keeping operations: site, event, and letter
// CRUD plus sequence numbering and the listing assembly.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService validates the configuration and returns a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Today returns the service clock's current calendar date.
func (s *Service) Today() time.Time {
	return civilDate(s.clock())
}

// SiteInput carries the form fields of a site.
type SiteInput struct {
	Name     string
	Location string
}

// CreateSite persists a new site. The name must be unique.
func (s *Service) CreateSite(ctx context.Context, input SiteInput) (*Site, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newValidationError("name", "name is required")
	}

	site := Site{Name: name, Location: strings.TrimSpace(input.Location)}
	if err := s.db.WithContext(ctx).Create(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newValidationError("name", "a site with this name already exists")
		}
		s.logError(opCreateSite, "insert_failed", err)
		return nil, newServiceError(opCreateSite, "insert_failed", err)
	}
	return &site, nil
}

// ListSites returns all sites ordered by name.
func (s *Service) ListSites(ctx context.Context) ([]Site, error) {
	var sites []Site
	if err := s.db.WithContext(ctx).Order("name").Find(&sites).Error; err != nil {
		s.logError(opListSites, "query_failed", err)
		return nil, newServiceError(opListSites, "query_failed", err)
	}
	return sites, nil
}

// GetSite loads one site by identity.
func (s *Service) GetSite(ctx context.Context, siteID int64) (*Site, error) {
	var site Site
	err := s.db.WithContext(ctx).Take(&site, siteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logError(opGetSite, "query_failed", err, zap.Int64("site_id", siteID))
		return nil, newServiceError(opGetSite, "query_failed", err)
	}
	return &site, nil
}

// UpdateSite replaces the editable fields of a site.
func (s *Service) UpdateSite(ctx context.Context, siteID int64, input SiteInput) (*Site, error) {
	site, err := s.GetSite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newValidationError("name", "name is required")
	}
	site.Name = name
	site.Location = strings.TrimSpace(input.Location)

	if err := s.db.WithContext(ctx).Save(site).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newValidationError("name", "a site with this name already exists")
		}
		s.logError(opUpdateSite, "save_failed", err, zap.Int64("site_id", siteID))
		return nil, newServiceError(opUpdateSite, "save_failed", err)
	}
	return site, nil
}

// DeleteSite removes a site and cascades through its events, letters,
// notes, and attachments in one transaction.
func (s *Service) DeleteSite(ctx context.Context, siteID int64) error {
	if _, err := s.GetSite(ctx, siteID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eventIDs []int64
		if err := tx.Model(&Event{}).Where("site_id = ?", siteID).Pluck("id", &eventIDs).Error; err != nil {
			return err
		}
		if len(eventIDs) > 0 {
			if err := deleteLettersOfEvents(tx, eventIDs); err != nil {
				return err
			}
			if err := tx.Where("site_id = ?", siteID).Delete(&Event{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&Site{}, siteID).Error
	})
	if err != nil {
		s.logError(opDeleteSite, "delete_failed", err, zap.Int64("site_id", siteID))
		return newServiceError(opDeleteSite, "delete_failed", err)
	}
	return nil
}

// EventInput carries the form fields of an event.
type EventInput struct {
	SequenceNumber    *int64
	Title             string
	Description       string
	OccurredOn        *time.Time
	RecommendedAction RecommendedAction
	Status            Status
}

// CreateEvent persists a new event under a site. A missing sequence number
// is auto-assigned as max+1 within the site; when the event is unattached
// the maximum is taken across all events, which matches the historical
// behaviour even though uniqueness is only enforced per site. An explicit
// number that collides fails with a conflict.
func (s *Service) CreateEvent(ctx context.Context, siteID *int64, input EventInput) (*Event, error) {
	if siteID != nil {
		if _, err := s.GetSite(ctx, *siteID); err != nil {
			return nil, err
		}
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, newValidationError("title", "title is required")
	}
	if input.RecommendedAction == "" {
		return nil, newValidationError("recommended_action", "recommended action is required")
	}

	sequenceNumber := input.SequenceNumber
	if sequenceNumber == nil {
		scope := s.db.WithContext(ctx).Model(&Event{})
		if siteID != nil {
			scope = scope.Where("site_id = ?", *siteID)
		}
		var existing []Event
		if err := scope.Find(&existing).Error; err != nil {
			s.logError(opCreateEvent, "scope_query_failed", err)
			return nil, newServiceError(opCreateEvent, "scope_query_failed", err)
		}
		next := NextEventNumber(existing)
		sequenceNumber = &next
	}

	status := input.Status
	if status == "" {
		status = StatusOpen
	}
	occurredOn := s.Today()
	if input.OccurredOn != nil {
		occurredOn = civilDate(*input.OccurredOn)
	}

	event := Event{
		SiteID:            siteID,
		SequenceNumber:    sequenceNumber,
		Title:             title,
		Description:       input.Description,
		OccurredOn:        occurredOn,
		RecommendedAction: input.RecommendedAction,
		Status:            status,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		s.logError(opCreateEvent, "insert_failed", err)
		return nil, newServiceError(opCreateEvent, "insert_failed", err)
	}
	return &event, nil
}

// GetEvent loads one event by identity.
func (s *Service) GetEvent(ctx context.Context, eventID int64) (*Event, error) {
	var event Event
	err := s.db.WithContext(ctx).Take(&event, eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logError(opGetEvent, "query_failed", err, zap.Int64("event_id", eventID))
		return nil, newServiceError(opGetEvent, "query_failed", err)
	}
	return &event, nil
}

// UpdateEvent replaces the editable fields of an event. The edit carries
// the whole record, so an absent sequence number clears the stored one.
func (s *Service) UpdateEvent(ctx context.Context, eventID int64, input EventInput) (*Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, newValidationError("title", "title is required")
	}
	if input.RecommendedAction == "" {
		return nil, newValidationError("recommended_action", "recommended action is required")
	}

	event.SequenceNumber = input.SequenceNumber
	event.Title = title
	event.Description = input.Description
	if input.OccurredOn != nil {
		event.OccurredOn = civilDate(*input.OccurredOn)
	}
	event.RecommendedAction = input.RecommendedAction
	if input.Status != "" {
		event.Status = input.Status
	}

	if err := s.db.WithContext(ctx).Save(event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		s.logError(opUpdateEvent, "save_failed", err, zap.Int64("event_id", eventID))
		return nil, newServiceError(opUpdateEvent, "save_failed", err)
	}
	return event, nil
}

// DeleteEvent removes an event and its letters, notes, and attachments.
func (s *Service) DeleteEvent(ctx context.Context, eventID int64) error {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteLettersOfEvents(tx, []int64{eventID}); err != nil {
			return err
		}
		return tx.Delete(&Event{}, eventID).Error
	})
	if err != nil {
		s.logError(opDeleteEvent, "delete_failed", err, zap.Int64("event_id", eventID))
		return newServiceError(opDeleteEvent, "delete_failed", err)
	}
	return nil
}

// LetterInput carries the form fields of a letter.
type LetterInput struct {
	Direction      Direction
	Category       Category
	SequenceNumber *int64
	LegacyNumber   string
	SentOn         *time.Time
	DueOn          *time.Time
	Status         Status
	Content        string
}

// CreateLetter persists a new letter under an event. The sent date defaults
// to today and the due date to the sent date plus the reasonable deadline
// window. A category-scoped sequence number must be unique among letters of
// the same site and category.
func (s *Service) CreateLetter(ctx context.Context, eventID int64, input LetterInput) (*Letter, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	direction := input.Direction
	if direction == "" {
		direction = DirectionIncoming
	}
	status := input.Status
	if status == "" {
		status = StatusOpen
	}

	sentOn := s.Today()
	if input.SentOn != nil {
		sentOn = civilDate(*input.SentOn)
	}
	dueOn := input.DueOn
	if dueOn == nil {
		fallback := sentOn.AddDate(0, 0, ReasonableDeadlineDays)
		dueOn = &fallback
	} else {
		normalized := civilDate(*dueOn)
		dueOn = &normalized
	}

	if err := s.checkCategoryNumber(ctx, event, input.Category, input.SequenceNumber, 0); err != nil {
		return nil, err
	}

	letter := Letter{
		EventID:        eventID,
		Direction:      direction,
		Category:       input.Category,
		SequenceNumber: input.SequenceNumber,
		LegacyNumber:   strings.TrimSpace(input.LegacyNumber),
		SentOn:         sentOn,
		DueOn:          dueOn,
		Status:         status,
		Content:        input.Content,
	}
	if err := s.db.WithContext(ctx).Create(&letter).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		s.logError(opCreateLetter, "insert_failed", err, zap.Int64("event_id", eventID))
		return nil, newServiceError(opCreateLetter, "insert_failed", err)
	}
	return &letter, nil
}

// GetLetter loads one letter with its notes and attachments.
func (s *Service) GetLetter(ctx context.Context, letterID int64) (*Letter, error) {
	var letter Letter
	err := s.db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at, id") }).
		Take(&letter, letterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logError(opGetLetter, "query_failed", err, zap.Int64("letter_id", letterID))
		return nil, newServiceError(opGetLetter, "query_failed", err)
	}
	return &letter, nil
}

// UpdateLetter replaces the editable fields of a letter. An absent due
// date clears the stored one; the due-status deriver then falls back to
// the sent date plus the reasonable deadline window.
func (s *Service) UpdateLetter(ctx context.Context, letterID int64, input LetterInput) (*Letter, error) {
	letter, err := s.GetLetter(ctx, letterID)
	if err != nil {
		return nil, err
	}
	event, err := s.GetEvent(ctx, letter.EventID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCategoryNumber(ctx, event, input.Category, input.SequenceNumber, letterID); err != nil {
		return nil, err
	}

	if input.Direction != "" {
		letter.Direction = input.Direction
	}
	letter.Category = input.Category
	letter.SequenceNumber = input.SequenceNumber
	letter.LegacyNumber = strings.TrimSpace(input.LegacyNumber)
	if input.SentOn != nil {
		letter.SentOn = civilDate(*input.SentOn)
	}
	letter.DueOn = nil
	if input.DueOn != nil {
		normalized := civilDate(*input.DueOn)
		letter.DueOn = &normalized
	}
	if input.Status != "" {
		letter.Status = input.Status
	}
	letter.Content = input.Content

	if err := s.db.WithContext(ctx).Save(letter).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		s.logError(opUpdateLetter, "save_failed", err, zap.Int64("letter_id", letterID))
		return nil, newServiceError(opUpdateLetter, "save_failed", err)
	}
	return letter, nil
}

// DeleteLetter removes a letter with its notes and attachments.
func (s *Service) DeleteLetter(ctx context.Context, letterID int64) error {
	if _, err := s.GetLetter(ctx, letterID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("letter_id = ?", letterID).Delete(&LetterNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("letter_id = ?", letterID).Delete(&Attachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Letter{}, letterID).Error
	})
	if err != nil {
		s.logError(opDeleteLetter, "delete_failed", err, zap.Int64("letter_id", letterID))
		return newServiceError(opDeleteLetter, "delete_failed", err)
	}
	return nil
}

// AddNote records a note against a letter.
func (s *Service) AddNote(ctx context.Context, letterID int64, authorID *int64, body string) (*LetterNote, error) {
	if strings.TrimSpace(body) == "" {
		return nil, newValidationError("body", "body is required")
	}
	if _, err := s.GetLetter(ctx, letterID); err != nil {
		return nil, err
	}

	note := LetterNote{LetterID: letterID, AuthorID: authorID, Body: body}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		s.logError(opAddNote, "insert_failed", err, zap.Int64("letter_id", letterID))
		return nil, newServiceError(opAddNote, "insert_failed", err)
	}
	return &note, nil
}

// AttachmentInput describes an uploaded file already written to storage.
type AttachmentInput struct {
	StoredName   string
	OriginalName string
	Description  string
}

// AddAttachment records a stored file against a letter.
func (s *Service) AddAttachment(ctx context.Context, letterID int64, input AttachmentInput) (*Attachment, error) {
	if strings.TrimSpace(input.StoredName) == "" {
		return nil, newValidationError("file", "file is required")
	}
	if _, err := s.GetLetter(ctx, letterID); err != nil {
		return nil, err
	}

	attachment := Attachment{
		LetterID:     letterID,
		StoredName:   input.StoredName,
		OriginalName: input.OriginalName,
		Description:  strings.TrimSpace(input.Description),
	}
	if err := s.db.WithContext(ctx).Create(&attachment).Error; err != nil {
		s.logError(opAddAttachment, "insert_failed", err, zap.Int64("letter_id", letterID))
		return nil, newServiceError(opAddAttachment, "insert_failed", err)
	}
	return &attachment, nil
}

// GetAttachment loads one attachment record by identity.
func (s *Service) GetAttachment(ctx context.Context, attachmentID int64) (*Attachment, error) {
	var attachment Attachment
	err := s.db.WithContext(ctx).Take(&attachment, attachmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logError(opGetAttachment, "query_failed", err, zap.Int64("attachment_id", attachmentID))
		return nil, newServiceError(opGetAttachment, "query_failed", err)
	}
	return &attachment, nil
}

// checkCategoryNumber enforces that a category-scoped sequence number is
// unique among letters of the same site and category. Letters under an
// unattached event are not checked, matching the historical behaviour.
func (s *Service) checkCategoryNumber(ctx context.Context, event *Event, category Category, sequenceNumber *int64, excludeLetterID int64) error {
	if category == CategoryNone || sequenceNumber == nil || event.SiteID == nil {
		return nil
	}

	query := s.db.WithContext(ctx).Model(&Letter{}).
		Joins("JOIN events ON events.id = letters.event_id").
		Where("events.site_id = ?", *event.SiteID).
		Where("letters.category = ?", category).
		Where("letters.sequence_number = ?", *sequenceNumber)
	if excludeLetterID != 0 {
		query = query.Where("letters.id <> ?", excludeLetterID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		s.logError(opCreateLetter, "uniqueness_query_failed", err)
		return newServiceError(opCreateLetter, "uniqueness_query_failed", err)
	}
	if count > 0 {
		return newValidationError("sequence_number", "this number already exists for this letter category on this site")
	}
	return nil
}

func deleteLettersOfEvents(tx *gorm.DB, eventIDs []int64) error {
	var letterIDs []int64
	if err := tx.Model(&Letter{}).Where("event_id IN ?", eventIDs).Pluck("id", &letterIDs).Error; err != nil {
		return err
	}
	if len(letterIDs) == 0 {
		return nil
	}
	if err := tx.Where("letter_id IN ?", letterIDs).Delete(&LetterNote{}).Error; err != nil {
		return err
	}
	if err := tx.Where("letter_id IN ?", letterIDs).Delete(&Attachment{}).Error; err != nil {
		return err
	}
	return tx.Where("event_id IN ?", eventIDs).Delete(&Letter{}).Error
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("tracking service error", attrs...)
}
