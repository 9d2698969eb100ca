package tracking

import (
	"context"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&Site{}, &Event{}, &Letter{}, &LetterNote{}, &Attachment{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T, today time.Time) (*Service, *gorm.DB) {
	t.Helper()
	db := openTestDatabase(t)
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    func() time.Time { return today },
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service, db
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("invalid date literal %q: %v", value, err)
	}
	return parsed
}

func mustCreateSite(t *testing.T, service *Service, name string) *Site {
	t.Helper()
	site, err := service.CreateSite(context.Background(), SiteInput{Name: name})
	if err != nil {
		t.Fatalf("failed to create site %q: %v", name, err)
	}
	return site
}

func mustCreateEvent(t *testing.T, service *Service, siteID *int64, input EventInput) *Event {
	t.Helper()
	if input.Title == "" {
		input.Title = "event"
	}
	if input.RecommendedAction == "" {
		input.RecommendedAction = ActionNotice
	}
	event, err := service.CreateEvent(context.Background(), siteID, input)
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

func mustCreateLetter(t *testing.T, service *Service, eventID int64, input LetterInput) *Letter {
	t.Helper()
	letter, err := service.CreateLetter(context.Background(), eventID, input)
	if err != nil {
		t.Fatalf("failed to create letter: %v", err)
	}
	return letter
}

func int64Ptr(value int64) *int64 {
	return &value
}

func datePtr(value time.Time) *time.Time {
	return &value
}
