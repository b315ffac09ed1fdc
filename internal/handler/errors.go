package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/anchor-locator-go/internal/logging"
	"github.com/jengzang/anchor-locator-go/internal/service"
	"github.com/jengzang/anchor-locator-go/pkg/response"
)

// respondError maps service errors to HTTP responses. Unexpected errors are
// logged and reported as 500 without their details.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(c, "invalid credentials")
	default:
		_ = c.Error(err)
		logging.FromContext(c.Request.Context(), nil).Error(c.Request.Context(), "request failed", logging.Err(err))
		response.InternalError(c, "internal server error")
	}
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
