package tracking

import (
	"fmt"
	"time"
)

// DueClassification is the display urgency of a letter.
type DueClassification string

const (
	DueOnTime        DueClassification = "on_time"
	DueSoon          DueClassification = "due_soon"
	DueOverdue       DueClassification = "overdue"
	DueNotApplicable DueClassification = "not_applicable"
)

// dueSoonWindowDays is the number of days before the deadline at which a
// letter starts showing as due-soon and its event row gets a warning.
const dueSoonWindowDays = 14

// DueBadge is the classification and human-readable label rendered next to
// a letter row.
type DueBadge struct {
	Classification DueClassification
	Label          string
}

// RowHighlight is the visual flag applied to an event row.
type RowHighlight string

const (
	HighlightNone    RowHighlight = ""
	HighlightWarning RowHighlight = "warning"
	HighlightDanger  RowHighlight = "danger"
)

const (
	labelNone         = "—"
	labelCounterparty = "ball is with counterparty"
	labelNoDeadline   = "no deadline"
)

// ClassifyDue derives the due badge for a letter. The reference date is a
// parameter so callers and tests control what "today" means. A missing due
// date is not an error: it degrades to a not-applicable badge.
func ClassifyDue(letter *Letter, ballOnUs bool, eventStatus Status, today time.Time) DueBadge {
	if eventStatus == StatusClosed {
		return DueBadge{Classification: DueNotApplicable, Label: labelNone}
	}
	if letter == nil {
		return DueBadge{Classification: DueNotApplicable, Label: labelNone}
	}
	if letter.Status != StatusOpen {
		return DueBadge{Classification: DueNotApplicable, Label: labelNone}
	}
	if letter.Direction != DirectionIncoming || !ballOnUs {
		return DueBadge{Classification: DueNotApplicable, Label: labelCounterparty}
	}

	dueDate, ok := ResolveDueDate(letter)
	if !ok {
		return DueBadge{Classification: DueNotApplicable, Label: labelNoDeadline}
	}

	daysLeft := civilDaysBetween(today, dueDate)
	switch {
	case daysLeft < 0:
		return DueBadge{Classification: DueOverdue, Label: fmt.Sprintf("late %d d", -daysLeft)}
	case daysLeft == 0:
		return DueBadge{Classification: DueSoon, Label: "due today"}
	case daysLeft <= dueSoonWindowDays:
		return DueBadge{Classification: DueSoon, Label: fmt.Sprintf("due in %d d", daysLeft)}
	default:
		return DueBadge{Classification: DueOnTime, Label: fmt.Sprintf("due in %d d", daysLeft)}
	}
}

// HighlightForEvent decides the row-level flag for an event. The flag is
// driven by the most recently sent letter: an open incoming letter with a
// resolvable due date under an open event produces danger when overdue and
// warning inside the due-soon window.
func HighlightForEvent(eventStatus Status, latest *Letter, today time.Time) RowHighlight {
	if eventStatus == StatusClosed || latest == nil {
		return HighlightNone
	}
	if latest.Direction != DirectionIncoming || latest.Status != StatusOpen {
		return HighlightNone
	}
	dueDate, ok := ResolveDueDate(latest)
	if !ok {
		return HighlightNone
	}
	daysLeft := civilDaysBetween(today, dueDate)
	switch {
	case daysLeft < 0:
		return HighlightDanger
	case daysLeft <= dueSoonWindowDays:
		return HighlightWarning
	default:
		return HighlightNone
	}
}

// ResolveDueDate returns the effective deadline of a letter: the explicit
// due date when present, otherwise the sent date plus the reasonable
// deadline window. The second return is false when neither date exists.
func ResolveDueDate(letter *Letter) (time.Time, bool) {
	if letter.DueOn != nil {
		return civilDate(*letter.DueOn), true
	}
	if !letter.SentOn.IsZero() {
		return civilDate(letter.SentOn).AddDate(0, 0, ReasonableDeadlineDays), true
	}
	return time.Time{}, false
}

// MostRecentLetter picks the most recently sent letter. The comparator is
// sent date descending with identity descending as the tie-break, and it is
// defined here once; every "latest letter" decision goes through it.
func MostRecentLetter(letters []Letter) *Letter {
	var latest *Letter
	for index := range letters {
		candidate := &letters[index]
		if latest == nil || sentMoreRecently(candidate, latest) {
			latest = candidate
		}
	}
	return latest
}

// BallOnUs reports whether the site team owes the next reply: true when the
// most recently sent letter under the event was incoming.
func BallOnUs(letters []Letter) bool {
	latest := MostRecentLetter(letters)
	return latest != nil && latest.Direction == DirectionIncoming
}

func sentMoreRecently(first, second *Letter) bool {
	firstSent := civilDate(first.SentOn)
	secondSent := civilDate(second.SentOn)
	if !firstSent.Equal(secondSent) {
		return firstSent.After(secondSent)
	}
	return first.ID > second.ID
}

// civilDate truncates a timestamp to its calendar date in UTC.
func civilDate(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// civilDaysBetween counts whole calendar days from one date to another;
// negative when the target date lies in the past.
func civilDaysBetween(from, to time.Time) int {
	return int(civilDate(to).Sub(civilDate(from)).Hours() / 24)
}
