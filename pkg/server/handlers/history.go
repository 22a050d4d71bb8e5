package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/chronograph"
	"github.com/soundprediction/chronograph/pkg/server/dto"
	"github.com/soundprediction/chronograph/pkg/types"
)

// HistoryHandler handles version, edge, and traversal requests
type HistoryHandler struct {
	history chronograph.History
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(h chronograph.History) *HistoryHandler {
	return &HistoryHandler{
		history: h,
	}
}

// AppendVersion handles POST /versions
func (h *HistoryHandler) AppendVersion(c *gin.Context) {
	var req dto.AppendVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeBadRequest(c, err)
		return
	}

	versionID, err := h.history.AppendVersion(c.Request.Context(), req.Entity, req.Options())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.AppendVersionResponse{VersionID: versionID})
}

// GetVersion handles GET /versions/:id
func (h *HistoryHandler) GetVersion(c *gin.Context) {
	id := c.Param("id")

	v, err := h.history.GetVersion(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if v == nil {
		writeError(c, &types.NotFoundError{Resource: "version", ID: id})
		return
	}

	c.JSON(http.StatusOK, v)
}

// GetEntityVersions handles GET /entities/:id/versions
func (h *HistoryHandler) GetEntityVersions(c *gin.Context) {
	entityID := c.Param("id")

	versions, err := h.history.GetEntityVersions(c.Request.Context(), entityID, timelineOptionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entity_id": entityID,
		"versions":  versions,
	})
}

// OpenEdge handles POST /edges/open
func (h *HistoryHandler) OpenEdge(c *gin.Context) {
	var req dto.EdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeBadRequest(c, err)
		return
	}

	err := h.history.OpenEdge(c.Request.Context(), req.FromID, req.ToID, req.EdgeType, req.Time(), req.ChangeSetID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true})
}

// CloseEdge handles POST /edges/close
func (h *HistoryHandler) CloseEdge(c *gin.Context) {
	var req dto.EdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeBadRequest(c, err)
		return
	}

	err := h.history.CloseEdge(c.Request.Context(), req.FromID, req.ToID, req.EdgeType, req.Time())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true})
}

// Traverse handles POST /traverse
func (h *HistoryHandler) Traverse(c *gin.Context) {
	var req dto.TraversalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	subgraph, err := h.history.TimeTravelTraversal(c.Request.Context(), req.StartID, req.Options)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, subgraph)
}

// timelineOptionsFromQuery reads since/until/limit query parameters.
func timelineOptionsFromQuery(c *gin.Context) *types.TimelineOptions {
	opts := &types.TimelineOptions{}

	if since := c.Query("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			opts.Since = &t
		}
	}
	if until := c.Query("until"); until != "" {
		if t, err := time.Parse(time.RFC3339, until); err == nil {
			opts.Until = &t
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}

	return opts
}
