package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/dailymood"
)

// Error codes carried in error responses.
const (
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeIndexOutOfBounds = "INDEX_OUT_OF_BOUNDS"
	CodeNotFound         = "NOT_FOUND"
	CodeInternal         = "INTERNAL"
)

// Response is the envelope of every API reply.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func abort(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, Response{
		Error: &ErrorBody{Code: code, Message: err.Error()},
	})
}

// fail maps a dailymood error onto an HTTP status.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
	}
	abort(c, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case dailymood.IsUnauthorized(err):
		return http.StatusForbidden, CodePermissionDenied
	case dailymood.IsOutOfBounds(err):
		return http.StatusBadRequest, CodeIndexOutOfBounds
	case dailymood.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, dailymood.ErrInvalidInput),
		errors.Is(err, dailymood.ErrInvalidAddress),
		errors.Is(err, dailymood.ErrInvalidOwner):
		return http.StatusBadRequest, CodeInvalidArgument
	case dailymood.IsRetryable(err):
		return http.StatusServiceUnavailable, CodeInternal
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
