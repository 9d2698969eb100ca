package tracking

import (
	"context"
	"errors"
	"testing"
)

func TestNextEventNumberStartsAtOne(t *testing.T) {
	if next := NextEventNumber(nil); next != 1 {
		t.Fatalf("expected 1 for empty scope, got %d", next)
	}
}

func TestNextEventNumberUsesMaxPlusOneNotFirstGap(t *testing.T) {
	existing := []Event{
		{SequenceNumber: int64Ptr(1)},
		{SequenceNumber: int64Ptr(3)},
		{SequenceNumber: int64Ptr(4)},
	}
	if next := NextEventNumber(existing); next != 5 {
		t.Fatalf("expected 5 (max+1), got %d", next)
	}
}

func TestNextEventNumberTreatsMissingNumbersAsZero(t *testing.T) {
	existing := []Event{
		{SequenceNumber: nil},
		{SequenceNumber: nil},
	}
	if next := NextEventNumber(existing); next != 1 {
		t.Fatalf("expected 1 when no event carries a number, got %d", next)
	}
}

func TestCreateEventAutoAssignsPerSite(t *testing.T) {
	service, _ := newTestService(t, referenceToday)
	first := mustCreateSite(t, service, "North Yard")
	second := mustCreateSite(t, service, "South Yard")

	eventA := mustCreateEvent(t, service, &first.ID, EventInput{Title: "crane delivery"})
	eventB := mustCreateEvent(t, service, &first.ID, EventInput{Title: "foundation pour"})
	eventC := mustCreateEvent(t, service, &second.ID, EventInput{Title: "survey"})

	if *eventA.SequenceNumber != 1 || *eventB.SequenceNumber != 2 {
		t.Fatalf("expected 1 and 2 within the first site, got %d and %d", *eventA.SequenceNumber, *eventB.SequenceNumber)
	}
	if *eventC.SequenceNumber != 1 {
		t.Fatalf("expected numbering to restart per site, got %d", *eventC.SequenceNumber)
	}
}

func TestCreateEventExplicitNumberUsedVerbatim(t *testing.T) {
	service, _ := newTestService(t, referenceToday)
	site := mustCreateSite(t, service, "North Yard")

	event := mustCreateEvent(t, service, &site.ID, EventInput{Title: "late entry", SequenceNumber: int64Ptr(40)})
	if *event.SequenceNumber != 40 {
		t.Fatalf("expected explicit number 40, got %d", *event.SequenceNumber)
	}

	next := mustCreateEvent(t, service, &site.ID, EventInput{Title: "following entry"})
	if *next.SequenceNumber != 41 {
		t.Fatalf("expected auto number to continue from the max, got %d", *next.SequenceNumber)
	}
}

func TestCreateEventDuplicateNumberConflicts(t *testing.T) {
	service, _ := newTestService(t, referenceToday)
	site := mustCreateSite(t, service, "North Yard")
	mustCreateEvent(t, service, &site.ID, EventInput{Title: "first", SequenceNumber: int64Ptr(7)})

	_, err := service.CreateEvent(context.Background(), &site.ID, EventInput{
		Title:             "second",
		RecommendedAction: ActionNotice,
		SequenceNumber:    int64Ptr(7),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate sequence number, got %v", err)
	}
}

func TestCreateEventWithoutSiteCountsAcrossAllEvents(t *testing.T) {
	service, _ := newTestService(t, referenceToday)
	site := mustCreateSite(t, service, "North Yard")
	mustCreateEvent(t, service, &site.ID, EventInput{Title: "sited", SequenceNumber: int64Ptr(5)})

	unattached := mustCreateEvent(t, service, nil, EventInput{Title: "unattached"})
	if *unattached.SequenceNumber != 6 {
		t.Fatalf("expected site-less numbering to scan all events, got %d", *unattached.SequenceNumber)
	}
}

func TestLetterCategoryNumberUniquePerSite(t *testing.T) {
	service, _ := newTestService(t, referenceToday)
	site := mustCreateSite(t, service, "North Yard")
	eventA := mustCreateEvent(t, service, &site.ID, EventInput{Title: "a"})
	eventB := mustCreateEvent(t, service, &site.ID, EventInput{Title: "b"})

	mustCreateLetter(t, service, eventA.ID, LetterInput{Category: CategoryClaim, SequenceNumber: int64Ptr(1)})

	// same number, same category, different event on the same site
	_, err := service.CreateLetter(context.Background(), eventB.ID, LetterInput{
		Category:       CategoryClaim,
		SequenceNumber: int64Ptr(1),
	})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validation.Field != "sequence_number" {
		t.Fatalf("expected the sequence_number field to be named, got %q", validation.Field)
	}
}

func TestLetterCategoryNumberAllowedAcrossCategoriesAndSites(t *testing.T) {
	service, _ := newTestService(t, referenceToday)
	first := mustCreateSite(t, service, "North Yard")
	second := mustCreateSite(t, service, "South Yard")
	eventA := mustCreateEvent(t, service, &first.ID, EventInput{Title: "a"})
	eventB := mustCreateEvent(t, service, &second.ID, EventInput{Title: "b"})

	mustCreateLetter(t, service, eventA.ID, LetterInput{Category: CategoryClaim, SequenceNumber: int64Ptr(1)})
	mustCreateLetter(t, service, eventA.ID, LetterInput{Category: CategoryNotice, SequenceNumber: int64Ptr(1)})
	mustCreateLetter(t, service, eventB.ID, LetterInput{Category: CategoryClaim, SequenceNumber: int64Ptr(1)})

	// empty category never participates in the uniqueness check
	mustCreateLetter(t, service, eventA.ID, LetterInput{SequenceNumber: int64Ptr(1)})
	mustCreateLetter(t, service, eventA.ID, LetterInput{SequenceNumber: int64Ptr(1)})
}

func TestUpdateLetterExcludesItselfFromUniqueness(t *testing.T) {
	service, _ := newTestService(t, referenceToday)
	site := mustCreateSite(t, service, "North Yard")
	event := mustCreateEvent(t, service, &site.ID, EventInput{Title: "a"})
	letter := mustCreateLetter(t, service, event.ID, LetterInput{Category: CategoryClaim, SequenceNumber: int64Ptr(2)})

	updated, err := service.UpdateLetter(context.Background(), letter.ID, LetterInput{
		Category:       CategoryClaim,
		SequenceNumber: int64Ptr(2),
		Content:        "revised",
	})
	if err != nil {
		t.Fatalf("expected update to keep its own number, got %v", err)
	}
	if updated.Content != "revised" {
		t.Fatalf("expected content to be replaced")
	}
}
