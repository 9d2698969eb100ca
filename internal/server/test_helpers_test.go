package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sitelog/backend/internal/auth"
	"github.com/sitelog/backend/internal/storage"
	"github.com/sitelog/backend/internal/tracking"
	"github.com/sitelog/backend/internal/users"
)

var testToday = time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC)

type testHarness struct {
	handler http.Handler
	db      *gorm.DB
	token   string
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	err = db.AutoMigrate(
		&tracking.Site{}, &tracking.Event{}, &tracking.Letter{},
		&tracking.LetterNote{}, &tracking.Attachment{}, &users.Account{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	tracker, err := tracking.NewService(tracking.ServiceConfig{
		Database: db,
		Clock:    func() time.Time { return testToday },
	})
	if err != nil {
		t.Fatalf("failed to construct tracking service: %v", err)
	}
	accounts, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to construct accounts service: %v", err)
	}
	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("router-test-secret"),
		Issuer:        "sitelog-auth",
		Audience:      "sitelog-api",
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to construct token issuer: %v", err)
	}
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to construct file store: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		TokenManager: issuer,
		Accounts:     accounts,
		Tracker:      tracker,
		Files:        files,
	})
	if err != nil {
		t.Fatalf("failed to construct handler: %v", err)
	}

	if _, err := accounts.Register(context.Background(), "mara", "Mara K.", "s3cret"); err != nil {
		t.Fatalf("failed to register test account: %v", err)
	}
	token, _, err := issuer.IssueSessionToken(context.Background(), "1")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	return &testHarness{handler: handler, db: db, token: token}
}

func (h *testHarness) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Authorization", "Bearer "+h.token)

	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, request)
	return recorder
}

func (h *testHarness) upload(t *testing.T, path, fieldName, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("failed to build multipart body: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write multipart content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, path, &buffer)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+h.token)

	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return decoded
}

func (h *testHarness) createSite(t *testing.T, name string) int64 {
	t.Helper()
	recorder := h.request(t, http.MethodPost, "/api/sites", map[string]string{"name": name})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("failed to create site: %d %s", recorder.Code, recorder.Body.String())
	}
	return int64(decodeBody(t, recorder)["id"].(float64))
}

func (h *testHarness) createEvent(t *testing.T, siteID int64, body map[string]interface{}) int64 {
	t.Helper()
	if body == nil {
		body = map[string]interface{}{}
	}
	if _, ok := body["title"]; !ok {
		body["title"] = "event"
	}
	if _, ok := body["recommended_action"]; !ok {
		body["recommended_action"] = "notice"
	}
	recorder := h.request(t, http.MethodPost, pathf(t, "/api/sites/%d/events", siteID), body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("failed to create event: %d %s", recorder.Code, recorder.Body.String())
	}
	return int64(decodeBody(t, recorder)["id"].(float64))
}

func (h *testHarness) createLetter(t *testing.T, eventID int64, body map[string]interface{}) int64 {
	t.Helper()
	if body == nil {
		body = map[string]interface{}{}
	}
	recorder := h.request(t, http.MethodPost, pathf(t, "/api/events/%d/letters", eventID), body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("failed to create letter: %d %s", recorder.Code, recorder.Body.String())
	}
	return int64(decodeBody(t, recorder)["id"].(float64))
}

func pathf(t *testing.T, format string, args ...interface{}) string {
	t.Helper()
	return fmt.Sprintf(format, args...)
}

func jsonBody(t *testing.T, body interface{}) io.Reader {
	t.Helper()
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	return bytes.NewReader(encoded)
}
