package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/chronograph"
	"github.com/soundprediction/chronograph/pkg/server/dto"
	"github.com/soundprediction/chronograph/pkg/types"
)

// AnalyticsHandler handles timeline, session, pruning, and metrics requests
type AnalyticsHandler struct {
	history chronograph.History
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(h chronograph.History) *AnalyticsHandler {
	return &AnalyticsHandler{
		history: h,
	}
}

// GetEntityTimeline handles GET /entities/:id/timeline
func (h *AnalyticsHandler) GetEntityTimeline(c *gin.Context) {
	entityID := c.Param("id")

	entries, err := h.history.GetEntityTimeline(c.Request.Context(), entityID, timelineOptionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entity_id": entityID,
		"entries":   entries,
	})
}

// GetRelationshipTimeline handles GET /edges/timeline
func (h *AnalyticsHandler) GetRelationshipTimeline(c *gin.Context) {
	fromID := c.Query("from_id")
	toID := c.Query("to_id")
	edgeType := c.Query("edge_type")

	edges, err := h.history.GetRelationshipTimeline(c.Request.Context(), fromID, toID, edgeType)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from_id":   fromID,
		"to_id":     toID,
		"edge_type": edgeType,
		"instances": edges,
	})
}

// GetSessionTimeline handles GET /sessions/:id/timeline
func (h *AnalyticsHandler) GetSessionTimeline(c *gin.Context) {
	changeSetID := c.Param("id")

	entries, err := h.history.GetSessionTimeline(c.Request.Context(), changeSetID, timelineOptionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"change_set_id": changeSetID,
		"entries":       entries,
	})
}

// GetSessionImpacts handles GET /sessions/:id/impacts
func (h *AnalyticsHandler) GetSessionImpacts(c *gin.Context) {
	impacts, err := h.history.GetSessionImpacts(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, impacts)
}

// GetSessionChanges handles GET /sessions/:id/changes
func (h *AnalyticsHandler) GetSessionChanges(c *gin.Context) {
	changes, err := h.history.GetChangesForSession(c.Request.Context(), c.Param("id"), timelineOptionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, changes)
}

// GetSessionsAffectingEntity handles GET /entities/:id/sessions
func (h *AnalyticsHandler) GetSessionsAffectingEntity(c *gin.Context) {
	entityID := c.Param("id")

	sessions, err := h.history.GetSessionsAffectingEntity(c.Request.Context(), entityID, timelineOptionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entity_id": entityID,
		"sessions":  sessions,
	})
}

// GetMetrics handles GET /metrics
func (h *AnalyticsHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.history.GetHistoryMetrics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// Prune handles POST /prune
func (h *AnalyticsHandler) Prune(c *gin.Context) {
	var req dto.PruneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	result, err := h.history.PruneHistory(c.Request.Context(), req.RetentionDays, &types.PruneOptions{DryRun: req.DryRun})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
