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

// CheckpointHandler handles checkpoint lifecycle requests
type CheckpointHandler struct {
	history chronograph.History
}

// NewCheckpointHandler creates a new checkpoint handler
func NewCheckpointHandler(h chronograph.History) *CheckpointHandler {
	return &CheckpointHandler{
		history: h,
	}
}

// Create handles POST /checkpoints
func (h *CheckpointHandler) Create(c *gin.Context) {
	var req dto.CreateCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	result, err := h.history.CreateCheckpoint(c.Request.Context(), req.SeedEntities, req.Options())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// List handles GET /checkpoints
func (h *CheckpointHandler) List(c *gin.Context) {
	opts := &types.ListCheckpointsOptions{
		Reason: c.Query("reason"),
	}
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
	if offset := c.Query("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			opts.Offset = n
		}
	}

	page, err := h.history.ListCheckpoints(c.Request.Context(), opts)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get handles GET /checkpoints/:id
func (h *CheckpointHandler) Get(c *gin.Context) {
	id := c.Param("id")

	cp, err := h.history.GetCheckpoint(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if cp == nil {
		writeError(c, &types.NotFoundError{Resource: "checkpoint", ID: id})
		return
	}

	c.JSON(http.StatusOK, cp)
}

// GetMembers handles GET /checkpoints/:id/members
func (h *CheckpointHandler) GetMembers(c *gin.Context) {
	id := c.Param("id")

	members, err := h.history.GetCheckpointMembers(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checkpoint_id": id,
		"members":       members,
	})
}

// GetSummary handles GET /checkpoints/:id/summary
func (h *CheckpointHandler) GetSummary(c *gin.Context) {
	id := c.Param("id")

	summary, err := h.history.GetCheckpointSummary(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if summary == nil {
		writeError(c, &types.NotFoundError{Resource: "checkpoint", ID: id})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Export handles GET /checkpoints/:id/export
func (h *CheckpointHandler) Export(c *gin.Context) {
	id := c.Param("id")

	export, err := h.history.ExportCheckpoint(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if export == nil {
		writeError(c, &types.NotFoundError{Resource: "checkpoint", ID: id})
		return
	}

	c.JSON(http.StatusOK, export)
}

// Import handles POST /checkpoints/import
func (h *CheckpointHandler) Import(c *gin.Context) {
	var req dto.ImportCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	opts := &types.ImportOptions{UseOriginalID: req.UseOriginalID}
	checkpointID, err := h.history.ImportCheckpoint(c.Request.Context(), req.Export, opts)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ImportCheckpointResponse{CheckpointID: checkpointID})
}

// Delete handles DELETE /checkpoints/:id
func (h *CheckpointHandler) Delete(c *gin.Context) {
	if err := h.history.DeleteCheckpoint(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true})
}
