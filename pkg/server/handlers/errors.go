package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/chronograph/pkg/server/dto"
	"github.com/soundprediction/chronograph/pkg/types"
)

// writeError maps engine errors onto HTTP status codes. Not-found maps to
// 404, validation and consistency failures to 400, store failures to 500.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case types.IsNotFound(err):
		status = http.StatusNotFound
		code = "not_found"
	case types.IsValidation(err):
		status = http.StatusBadRequest
		code = "invalid_request"
	case types.IsConsistency(err):
		status = http.StatusBadRequest
		code = "consistency_violation"
	case types.IsStore(err):
		status = http.StatusInternalServerError
		code = "store_error"
	}

	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Code:    status,
	})
}

// writeBadRequest reports a request-shape failure before the engine is ever
// consulted.
func writeBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}
