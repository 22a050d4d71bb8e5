package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/chronograph"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests
type HealthHandler struct {
	history chronograph.History
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(h chronograph.History) *HealthHandler {
	return &HealthHandler{
		history: h,
	}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "chronograph",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := gin.H{
		"status":    "ready",
		"service":   "chronograph",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    gin.H{},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	if h.history != nil {
		// Probe store connectivity with a read that has no side effects. A
		// nil checkpoint result is the expected outcome for a random id.
		dbStartTime := time.Now()
		_, err := h.history.GetCheckpoint(ctx, "health-check-non-existent-id")
		dbDuration := time.Since(dbStartTime)

		if err != nil {
			checks["database"] = gin.H{
				"status":   "unhealthy",
				"error":    err.Error(),
				"duration": dbDuration.String(),
			}
			allHealthy = false
		} else {
			checks["database"] = gin.H{
				"status":   "healthy",
				"duration": dbDuration.String(),
			}
		}
	} else {
		checks["database"] = gin.H{
			"status": "unhealthy",
			"error":  "history client not initialized",
		}
		allHealthy = false
	}

	if !allHealthy {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// LivenessCheck handles GET /live - Kubernetes liveness probe endpoint
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "chronograph",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck handles GET /health/detailed - comprehensive health information
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	response := gin.H{
		"status":  "healthy",
		"service": "chronograph",
		"version": Version,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": gin.H{
			"go_version": GoVersion,
		},
		"checks":  gin.H{},
		"metrics": gin.H{},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	if h.history != nil {
		// Store connectivity check
		dbStartTime := time.Now()
		_, err := h.history.GetCheckpoint(ctx, "health-check-detailed")
		dbDuration := time.Since(dbStartTime)

		dbStatus := gin.H{
			"status":      "healthy",
			"duration_ms": dbDuration.Milliseconds(),
			"operation":   "GetCheckpoint",
		}
		if err != nil {
			dbStatus["status"] = "unhealthy"
			dbStatus["error"] = err.Error()
			allHealthy = false
		}
		checks["database_connectivity"] = dbStatus

		// Index maintenance check; CREATE INDEX IF NOT EXISTS is idempotent
		opsStartTime := time.Now()
		indicesErr := h.history.CreateIndices(ctx)
		opsDuration := time.Since(opsStartTime)

		opsStatus := gin.H{
			"status":      "healthy",
			"duration_ms": opsDuration.Milliseconds(),
			"operation":   "CreateIndices",
		}
		if indicesErr != nil {
			opsStatus["status"] = "unhealthy"
			opsStatus["error"] = indicesErr.Error()
			allHealthy = false
		}
		checks["database_operations"] = opsStatus

		// Aggregate counters when the store is reachable
		if allHealthy {
			if metrics, err := h.history.GetHistoryMetrics(ctx); err == nil {
				response["metrics"].(gin.H)["history"] = metrics
			}
		}
	} else {
		checks["database_connectivity"] = gin.H{
			"status": "unhealthy",
			"error":  "history client not initialized",
		}
		allHealthy = false
	}

	response["metrics"].(gin.H)["response_time_ms"] = time.Since(startTime).Milliseconds()

	if !allHealthy {
		response["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
