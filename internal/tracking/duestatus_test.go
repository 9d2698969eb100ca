package tracking

import (
	"testing"
	"time"
)

var referenceToday = time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC)

func incomingOpenLetter(due time.Time) *Letter {
	return &Letter{
		ID:        1,
		Direction: DirectionIncoming,
		Status:    StatusOpen,
		SentOn:    referenceToday.AddDate(0, 0, -10),
		DueOn:     &due,
	}
}

func TestClassifyDueOverdueLetter(t *testing.T) {
	letter := incomingOpenLetter(referenceToday.AddDate(0, 0, -3))

	badge := ClassifyDue(letter, true, StatusOpen, referenceToday)

	if badge.Classification != DueOverdue {
		t.Fatalf("expected overdue, got %s", badge.Classification)
	}
	if badge.Label != "late 3 d" {
		t.Fatalf("unexpected label: %q", badge.Label)
	}
}

func TestClassifyDueSoonLetter(t *testing.T) {
	letter := incomingOpenLetter(referenceToday.AddDate(0, 0, 10))

	badge := ClassifyDue(letter, true, StatusOpen, referenceToday)

	if badge.Classification != DueSoon {
		t.Fatalf("expected due-soon, got %s", badge.Classification)
	}
	if badge.Label != "due in 10 d" {
		t.Fatalf("unexpected label: %q", badge.Label)
	}
}

func TestClassifyDueToday(t *testing.T) {
	letter := incomingOpenLetter(referenceToday)

	badge := ClassifyDue(letter, true, StatusOpen, referenceToday)

	if badge.Classification != DueSoon {
		t.Fatalf("expected due-soon, got %s", badge.Classification)
	}
	if badge.Label != "due today" {
		t.Fatalf("unexpected label: %q", badge.Label)
	}
}

func TestClassifyDueOnTimeLetter(t *testing.T) {
	letter := incomingOpenLetter(referenceToday.AddDate(0, 0, 30))

	badge := ClassifyDue(letter, true, StatusOpen, referenceToday)

	if badge.Classification != DueOnTime {
		t.Fatalf("expected on-time, got %s", badge.Classification)
	}
}

func TestClassifyDueClosedEventWinsOverDates(t *testing.T) {
	letter := incomingOpenLetter(referenceToday.AddDate(0, 0, -30))

	badge := ClassifyDue(letter, true, StatusClosed, referenceToday)

	if badge.Classification != DueNotApplicable {
		t.Fatalf("expected not-applicable for closed event, got %s", badge.Classification)
	}
	if badge.Label != "—" {
		t.Fatalf("unexpected label: %q", badge.Label)
	}
}

func TestClassifyDueOutgoingLetter(t *testing.T) {
	letter := incomingOpenLetter(referenceToday.AddDate(0, 0, -30))
	letter.Direction = DirectionOutgoing

	badge := ClassifyDue(letter, false, StatusOpen, referenceToday)

	if badge.Classification != DueNotApplicable {
		t.Fatalf("expected not-applicable for outgoing letter, got %s", badge.Classification)
	}
	if badge.Label != "ball is with counterparty" {
		t.Fatalf("unexpected label: %q", badge.Label)
	}
}

func TestClassifyDueAnsweredLetter(t *testing.T) {
	letter := incomingOpenLetter(referenceToday.AddDate(0, 0, -5))
	letter.Status = StatusAnswered

	badge := ClassifyDue(letter, true, StatusOpen, referenceToday)

	if badge.Classification != DueNotApplicable {
		t.Fatalf("expected not-applicable for answered letter, got %s", badge.Classification)
	}
}

func TestClassifyDueFallsBackToSentDatePlusWindow(t *testing.T) {
	letter := &Letter{
		ID:        1,
		Direction: DirectionIncoming,
		Status:    StatusOpen,
		SentOn:    referenceToday.AddDate(0, 0, -2),
	}

	badge := ClassifyDue(letter, true, StatusOpen, referenceToday)

	// sent 2 days ago, 7-day window: 5 days remain
	if badge.Classification != DueSoon {
		t.Fatalf("expected due-soon, got %s", badge.Classification)
	}
	if badge.Label != "due in 5 d" {
		t.Fatalf("unexpected label: %q", badge.Label)
	}
}

func TestClassifyDueNoResolvableDeadline(t *testing.T) {
	letter := &Letter{ID: 1, Direction: DirectionIncoming, Status: StatusOpen}

	badge := ClassifyDue(letter, true, StatusOpen, referenceToday)

	if badge.Classification != DueNotApplicable {
		t.Fatalf("expected not-applicable without dates, got %s", badge.Classification)
	}
	if badge.Label != "no deadline" {
		t.Fatalf("unexpected label: %q", badge.Label)
	}
}

func TestClassifyDueNilLetter(t *testing.T) {
	badge := ClassifyDue(nil, false, StatusOpen, referenceToday)

	if badge.Classification != DueNotApplicable {
		t.Fatalf("expected not-applicable for missing letter, got %s", badge.Classification)
	}
}

func TestMostRecentLetterPrefersLaterSentDate(t *testing.T) {
	letters := []Letter{
		{ID: 1, SentOn: referenceToday.AddDate(0, 0, -5)},
		{ID: 2, SentOn: referenceToday.AddDate(0, 0, -1)},
		{ID: 3, SentOn: referenceToday.AddDate(0, 0, -3)},
	}

	latest := MostRecentLetter(letters)

	if latest == nil || latest.ID != 2 {
		t.Fatalf("expected letter 2 to be most recent, got %#v", latest)
	}
}

func TestMostRecentLetterTieBreaksOnIdentity(t *testing.T) {
	sent := referenceToday.AddDate(0, 0, -1)
	letters := []Letter{
		{ID: 4, SentOn: sent},
		{ID: 9, SentOn: sent},
		{ID: 7, SentOn: sent},
	}

	latest := MostRecentLetter(letters)

	if latest == nil || latest.ID != 9 {
		t.Fatalf("expected highest identity to win the tie, got %#v", latest)
	}
}

func TestBallOnUsTracksLatestLetterDirection(t *testing.T) {
	letters := []Letter{
		{ID: 1, Direction: DirectionIncoming, SentOn: referenceToday.AddDate(0, 0, -5)},
		{ID: 2, Direction: DirectionOutgoing, SentOn: referenceToday.AddDate(0, 0, -1)},
	}
	if BallOnUs(letters) {
		t.Fatalf("expected ball with counterparty after outgoing reply")
	}

	letters = append(letters, Letter{ID: 3, Direction: DirectionIncoming, SentOn: referenceToday})
	if !BallOnUs(letters) {
		t.Fatalf("expected ball on us after new incoming letter")
	}

	if BallOnUs(nil) {
		t.Fatalf("expected no obligation without letters")
	}
}

func TestHighlightForEventDangerWhenOverdue(t *testing.T) {
	latest := incomingOpenLetter(referenceToday.AddDate(0, 0, -1))

	if highlight := HighlightForEvent(StatusOpen, latest, referenceToday); highlight != HighlightDanger {
		t.Fatalf("expected danger highlight, got %q", highlight)
	}
}

func TestHighlightForEventWarningInsideWindow(t *testing.T) {
	latest := incomingOpenLetter(referenceToday.AddDate(0, 0, 14))

	if highlight := HighlightForEvent(StatusOpen, latest, referenceToday); highlight != HighlightWarning {
		t.Fatalf("expected warning highlight, got %q", highlight)
	}
}

func TestHighlightForEventNoneBeyondWindow(t *testing.T) {
	latest := incomingOpenLetter(referenceToday.AddDate(0, 0, 15))

	if highlight := HighlightForEvent(StatusOpen, latest, referenceToday); highlight != HighlightNone {
		t.Fatalf("expected no highlight, got %q", highlight)
	}
}

func TestHighlightForEventSuppressedCases(t *testing.T) {
	overdue := incomingOpenLetter(referenceToday.AddDate(0, 0, -10))

	if highlight := HighlightForEvent(StatusClosed, overdue, referenceToday); highlight != HighlightNone {
		t.Fatalf("expected no highlight for closed event, got %q", highlight)
	}

	outgoing := incomingOpenLetter(referenceToday.AddDate(0, 0, -10))
	outgoing.Direction = DirectionOutgoing
	if highlight := HighlightForEvent(StatusOpen, outgoing, referenceToday); highlight != HighlightNone {
		t.Fatalf("expected no highlight for outgoing latest letter, got %q", highlight)
	}

	answered := incomingOpenLetter(referenceToday.AddDate(0, 0, -10))
	answered.Status = StatusAnswered
	if highlight := HighlightForEvent(StatusOpen, answered, referenceToday); highlight != HighlightNone {
		t.Fatalf("expected no highlight for answered latest letter, got %q", highlight)
	}

	if highlight := HighlightForEvent(StatusOpen, nil, referenceToday); highlight != HighlightNone {
		t.Fatalf("expected no highlight without letters, got %q", highlight)
	}
}
