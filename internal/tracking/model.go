package tracking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Direction states who sent a letter. An incoming letter was sent to us by
// the counterparty, which puts the ball in our court to respond.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Status tracks the lifecycle of an event or a letter.
type Status string

const (
	StatusOpen     Status = "open"
	StatusAnswered Status = "answered"
	StatusClosed   Status = "closed"
)

// RecommendedAction classifies the follow-up an event calls for.
type RecommendedAction string

const (
	ActionInfoRequest RecommendedAction = "info_request"
	ActionClaim       RecommendedAction = "claim"
	ActionNotice      RecommendedAction = "notice"
	ActionImprovement RecommendedAction = "improvement"
	ActionSuggestion  RecommendedAction = "suggestion"
	ActionOther       RecommendedAction = "other"
)

// Category optionally classifies a letter; letters numbered per category get
// their sequence number scoped to it. The empty category is allowed.
type Category string

const (
	CategoryNone                Category = ""
	CategoryInfoRequest         Category = "info_request"
	CategoryClaim               Category = "claim"
	CategoryProposal            Category = "proposal"
	CategoryEngineerInstruction Category = "engineer_instruction"
	CategoryImprovement         Category = "improvement"
	CategoryNotice              Category = "notice"
	CategoryGenericLetter       Category = "generic_letter"
)

// ReasonableDeadlineDays is the default response window granted to a letter
// that carries no explicit due date.
const ReasonableDeadlineDays = 7

var (
	// ErrInvalidDirection indicates an unknown letter direction value.
	ErrInvalidDirection = errors.New("tracking: invalid direction")
	// ErrInvalidStatus indicates an unknown event or letter status value.
	ErrInvalidStatus = errors.New("tracking: invalid status")
	// ErrInvalidAction indicates an unknown recommended action value.
	ErrInvalidAction = errors.New("tracking: invalid recommended action")
	// ErrInvalidCategory indicates an unknown letter category value.
	ErrInvalidCategory = errors.New("tracking: invalid category")
)

// ParseDirection validates raw input and returns a Direction.
func ParseDirection(rawInput string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(rawInput))) {
	case DirectionIncoming:
		return DirectionIncoming, nil
	case DirectionOutgoing:
		return DirectionOutgoing, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, rawInput)
	}
}

// ParseStatus validates raw input and returns a Status.
func ParseStatus(rawInput string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(rawInput))) {
	case StatusOpen:
		return StatusOpen, nil
	case StatusAnswered:
		return StatusAnswered, nil
	case StatusClosed:
		return StatusClosed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, rawInput)
	}
}

// ParseRecommendedAction validates raw input and returns a RecommendedAction.
func ParseRecommendedAction(rawInput string) (RecommendedAction, error) {
	switch RecommendedAction(strings.ToLower(strings.TrimSpace(rawInput))) {
	case ActionInfoRequest:
		return ActionInfoRequest, nil
	case ActionClaim:
		return ActionClaim, nil
	case ActionNotice:
		return ActionNotice, nil
	case ActionImprovement:
		return ActionImprovement, nil
	case ActionSuggestion:
		return ActionSuggestion, nil
	case ActionOther:
		return ActionOther, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, rawInput)
	}
}

// ParseCategory validates raw input and returns a Category. Empty input is
// the valid "no category" value.
func ParseCategory(rawInput string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(rawInput))) {
	case CategoryNone:
		return CategoryNone, nil
	case CategoryInfoRequest:
		return CategoryInfoRequest, nil
	case CategoryClaim:
		return CategoryClaim, nil
	case CategoryProposal:
		return CategoryProposal, nil
	case CategoryEngineerInstruction:
		return CategoryEngineerInstruction, nil
	case CategoryImprovement:
		return CategoryImprovement, nil
	case CategoryNotice:
		return CategoryNotice, nil
	case CategoryGenericLetter:
		return CategoryGenericLetter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, rawInput)
	}
}

// Site is a construction site, the top-level grouping entity.
type Site struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;size:200;not null;uniqueIndex:uniq_sites_name"`
	Location  string    `gorm:"column:location;size:200;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Events []Event `gorm:"foreignKey:SiteID"`
}

// TableName provides the explicit table binding for GORM.
func (Site) TableName() string {
	return "sites"
}

// Event is a logged occurrence at a site, tracked via correspondence.
// SequenceNumber is unique within the owning site when set.
type Event struct {
	ID                int64             `gorm:"column:id;primaryKey;autoIncrement"`
	SiteID            *int64            `gorm:"column:site_id;uniqueIndex:uniq_events_site_seq,priority:1"`
	SequenceNumber    *int64            `gorm:"column:sequence_number;uniqueIndex:uniq_events_site_seq,priority:2"`
	Title             string            `gorm:"column:title;size:255;not null"`
	Description       string            `gorm:"column:description;type:text;not null;default:''"`
	OccurredOn        time.Time         `gorm:"column:occurred_on;not null"`
	RecommendedAction RecommendedAction `gorm:"column:recommended_action;size:20;not null"`
	Status            Status            `gorm:"column:status;size:20;not null;default:'open'"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`

	Letters []Letter `gorm:"foreignKey:EventID"`
}

// TableName provides the explicit table binding for GORM.
func (Event) TableName() string {
	return "events"
}

// Letter is one piece of correspondence tied to an event. SequenceNumber is
// scoped to the letter's category; LegacyNumber keeps the free-text number
// older records carried before numbering became numeric.
type Letter struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	EventID        int64      `gorm:"column:event_id;not null;index:idx_letters_event"`
	Direction      Direction  `gorm:"column:direction;size:20;not null;default:'incoming'"`
	Category       Category   `gorm:"column:category;size:30;not null;default:''"`
	SequenceNumber *int64     `gorm:"column:sequence_number"`
	LegacyNumber   string     `gorm:"column:legacy_number;size:50;not null;default:''"`
	SentOn         time.Time  `gorm:"column:sent_on;not null"`
	DueOn          *time.Time `gorm:"column:due_on"`
	Status         Status     `gorm:"column:status;size:20;not null;default:'open'"`
	Content        string     `gorm:"column:content;type:text;not null;default:''"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`

	Notes       []LetterNote `gorm:"foreignKey:LetterID"`
	Attachments []Attachment `gorm:"foreignKey:LetterID"`
}

// TableName provides the explicit table binding for GORM.
func (Letter) TableName() string {
	return "letters"
}

// LetterNote is a free-text note or response recorded against a letter.
// AuthorID references an account and survives account deletion as null.
type LetterNote struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	LetterID  int64     `gorm:"column:letter_id;not null;index:idx_letter_notes_letter"`
	AuthorID  *int64    `gorm:"column:author_id"`
	Body      string    `gorm:"column:body;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (LetterNote) TableName() string {
	return "letter_notes"
}

// Attachment is a stored file reference attached to a letter.
type Attachment struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	LetterID     int64     `gorm:"column:letter_id;not null;index:idx_attachments_letter"`
	StoredName   string    `gorm:"column:stored_name;size:128;not null"`
	OriginalName string    `gorm:"column:original_name;size:255;not null;default:''"`
	Description  string    `gorm:"column:description;size:255;not null;default:''"`
	UploadedAt   time.Time `gorm:"column:uploaded_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Attachment) TableName() string {
	return "attachments"
}
