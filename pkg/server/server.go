package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/chronograph"
	"github.com/soundprediction/chronograph/pkg/config"
	"github.com/soundprediction/chronograph/pkg/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	router  *gin.Engine
	history chronograph.History
	server  *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, history chronograph.History) *Server {
	return &Server{
		config:  cfg,
		history: history,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	// Set gin mode
	gin.SetMode(s.config.Server.Mode)

	// Create router
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.history)
	historyHandler := handlers.NewHistoryHandler(s.history)
	checkpointHandler := handlers.NewCheckpointHandler(s.history)
	analyticsHandler := handlers.NewAnalyticsHandler(s.history)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck) // Kubernetes liveness probe
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		// Version recording
		v1.POST("/versions", historyHandler.AppendVersion)
		v1.GET("/versions/:id", historyHandler.GetVersion)

		// Temporal edge lifecycle
		edges := v1.Group("/edges")
		{
			edges.POST("/open", historyHandler.OpenEdge)
			edges.POST("/close", historyHandler.CloseEdge)
			edges.GET("/timeline", analyticsHandler.GetRelationshipTimeline)
		}

		// Time-travel traversal
		v1.POST("/traverse", historyHandler.Traverse)

		// Checkpoint lifecycle
		checkpoints := v1.Group("/checkpoints")
		{
			checkpoints.POST("", checkpointHandler.Create)
			checkpoints.GET("", checkpointHandler.List)
			checkpoints.POST("/import", checkpointHandler.Import)
			checkpoints.GET("/:id", checkpointHandler.Get)
			checkpoints.GET("/:id/members", checkpointHandler.GetMembers)
			checkpoints.GET("/:id/summary", checkpointHandler.GetSummary)
			checkpoints.GET("/:id/export", checkpointHandler.Export)
			checkpoints.DELETE("/:id", checkpointHandler.Delete)
		}

		// Entity-scoped reads
		entities := v1.Group("/entities")
		{
			entities.GET("/:id/versions", historyHandler.GetEntityVersions)
			entities.GET("/:id/timeline", analyticsHandler.GetEntityTimeline)
			entities.GET("/:id/sessions", analyticsHandler.GetSessionsAffectingEntity)
		}

		// Session analytics
		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:id/timeline", analyticsHandler.GetSessionTimeline)
			sessions.GET("/:id/impacts", analyticsHandler.GetSessionImpacts)
			sessions.GET("/:id/changes", analyticsHandler.GetSessionChanges)
		}

		// Administration
		v1.POST("/prune", analyticsHandler.Prune)
		v1.GET("/metrics", analyticsHandler.GetMetrics)
	}
}

// Start starts the server
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
