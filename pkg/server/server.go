package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/denysvitali/mtpfm/internal/models"
	"github.com/denysvitali/mtpfm/pkg/config"
	"github.com/denysvitali/mtpfm/pkg/devices"
)

const requestIDHeader = "X-Request-ID"

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	logger     *logrus.Logger
	dispatcher *devices.Dispatcher
	engine     *gin.Engine
	server     *http.Server

	startTime    time.Time
	mu           sync.Mutex
	lastExecTime time.Time
}

// New creates a new server instance backed by the configured device adapters
func New(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	return NewWithDispatcher(cfg, logger, devices.New(cfg, logger)), nil
}

// NewWithDispatcher creates a server instance over an existing dispatcher
func NewWithDispatcher(cfg *config.Config, logger *logrus.Logger, dispatcher *devices.Dispatcher) *Server {
	// Set gin mode based on log level
	if logger.Level == logrus.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(ginLogger(logger))

	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware("mtpfm"))
	}

	engine.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	if cfg.Server.SessionAPIKey != "" {
		engine.Use(authMiddleware(cfg.Server.SessionAPIKey))
	}

	now := time.Now()
	server := &Server{
		config:       cfg,
		logger:       logger,
		dispatcher:   dispatcher,
		engine:       engine,
		startTime:    now,
		lastExecTime: now,
	}

	server.setupRoutes()

	return server
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port)),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Engine returns the gin engine for testing purposes
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/alive", s.handleAlive)
	s.engine.GET("/server_info", s.handleServerInfo)

	files := s.engine.Group("/files", requireJSON())
	files.POST("/list", s.handleListFiles)
	files.POST("/delete", s.handleDeleteFiles)
	files.POST("/rename", s.handleRenameFile)
	files.POST("/folder", s.handleNewFolder)
	files.POST("/exists", s.handleFileExists)

	s.engine.GET("/storages", s.handleStorageList)
}

func (s *Server) touch() {
	s.mu.Lock()
	s.lastExecTime = time.Now()
	s.mu.Unlock()
}

func (s *Server) lastExec() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastExecTime
}

// requestIDMiddleware propagates the caller's request ID or assigns a new one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// ginLogger creates a gin logger middleware using logrus
func ginLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		entry := logger.WithFields(logrus.Fields{
			"status":     statusCode,
			"method":     c.Request.Method,
			"path":       path,
			"ip":         c.ClientIP(),
			"latency":    latency,
			"user_agent": c.Request.UserAgent(),
			"request_id": c.GetString("request_id"),
		})

		if raw != "" {
			entry = entry.WithField("query", raw)
		}

		if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request completed")
		}
	}
}

// corsMiddleware adds CORS headers for the configured origins. Other origins
// get no Access-Control-Allow-Origin, so browsers keep their responses from
// the calling page.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Session-API-Key, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireJSON rejects bodies that are not declared as JSON. Plain-text posts
// skip the browser preflight, so they must never reach a file operation.
func requireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != binding.MIMEJSON {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType,
				models.NewErrorResponse("Content-Type must be "+binding.MIMEJSON, "", nil))
			return
		}
		c.Next()
	}
}

// authMiddleware validates API key
func authMiddleware(expectedAPIKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/alive" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-Session-API-Key")
		if apiKey != expectedAPIKey {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid API Key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
