package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sitelog/backend/internal/storage"
	"github.com/sitelog/backend/internal/tracking"
	"github.com/sitelog/backend/internal/users"
)

const accountIDContextKey = "sitelog_account_id"

var (
	errMissingTokenManager    = errors.New("token manager dependency required")
	errMissingAccountsService = errors.New("accounts service dependency required")
	errMissingTracker         = errors.New("tracking service dependency required")
	errMissingFileStore       = errors.New("file store dependency required")
	errInvalidAuthorization   = errors.New("authorization header missing or invalid")
)

// SessionTokenManager issues and validates bearer tokens for the API.
type SessionTokenManager interface {
	IssueSessionToken(ctx context.Context, subject string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies wires the router to its collaborating services.
type Dependencies struct {
	TokenManager SessionTokenManager
	Accounts     *users.Service
	Tracker      *tracking.Service
	Files        *storage.FileStore
	Logger       *zap.Logger
}

// NewHTTPHandler builds the Gin router for the API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Accounts == nil {
		return nil, errMissingAccountsService
	}
	if deps.Tracker == nil {
		return nil, errMissingTracker
	}
	if deps.Files == nil {
		return nil, errMissingFileStore
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:   deps.TokenManager,
		accounts: deps.Accounts,
		tracker:  deps.Tracker,
		files:    deps.Files,
		logger:   logger,
	}

	router.POST("/auth/login", handler.handleLogin)

	protected := router.Group("/api")
	protected.Use(handler.authorizeRequest)

	protected.GET("/sites", handler.handleListSites)
	protected.POST("/sites", handler.handleCreateSite)
	protected.GET("/sites/:id", handler.handleGetSite)
	protected.PUT("/sites/:id", handler.handleUpdateSite)
	protected.DELETE("/sites/:id", handler.handleDeleteSite)

	protected.GET("/sites/:id/events", handler.handleListEvents)
	protected.POST("/sites/:id/events", handler.handleCreateEvent)
	protected.GET("/events/:id", handler.handleEventDetail)
	protected.PUT("/events/:id", handler.handleUpdateEvent)
	protected.DELETE("/events/:id", handler.handleDeleteEvent)

	protected.POST("/events/:id/letters", handler.handleCreateLetter)
	protected.GET("/letters/:id", handler.handleGetLetter)
	protected.PUT("/letters/:id", handler.handleUpdateLetter)
	protected.DELETE("/letters/:id", handler.handleDeleteLetter)

	protected.POST("/letters/:id/notes", handler.handleAddNote)
	protected.POST("/letters/:id/attachments", handler.handleUploadAttachment)
	protected.GET("/attachments/:id/file", handler.handleDownloadAttachment)

	return router, nil
}

type httpHandler struct {
	tokens   SessionTokenManager
	accounts *users.Service
	tracker  *tracking.Service
	files    *storage.FileStore
	logger   *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(accountIDContextKey, subject)
	c.Next()
}

// respondServiceError maps tracking errors onto HTTP statuses: validation
// failures name the offending field, conflicts surface as 409, missing
// parents as 404.
func (h *httpHandler) respondServiceError(c *gin.Context, err error) {
	var validation *tracking.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation_failed",
			"field":  validation.Field,
			"detail": validation.Reason,
		})
	case errors.Is(err, tracking.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, tracking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
