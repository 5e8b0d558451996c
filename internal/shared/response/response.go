package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/errs"
	"library-backend/internal/shared/validation"
	"library-backend/pkg/logger"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type Error struct {
	Code          string      `json:"code"`
	Message       string      `json:"message"`
	Details       interface{} `json:"details,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

type Meta struct {
	Limit  int   `json:"limit,omitempty"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// Success responses
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *Meta) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Error responses
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	ErrorWithDetails(c, statusCode, code, message, nil)
}

func ErrorWithDetails(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:          code,
			Message:       message,
			Details:       details,
			CorrelationID: logger.CorrelationID(c.Request.Context()),
		},
	})
}

// FromError maps an error kind to its status and code. Validation failures
// carry their field list, id set errors the offending ids. Storage and
// unknown errors hide their cause from the client.
func FromError(c *gin.Context, err error) {
	status := errs.ToHTTPStatus(err)
	code := errs.ToErrorCode(err)

	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error().
			Err(err).
			Str("code", code).
			Msg("request failed")
		ErrorResponse(c, status, code, http.StatusText(status))
		return
	}

	var details interface{}
	if fields := validation.FieldsOf(err); len(fields) > 0 {
		details = fields
	} else if ids := errs.IDsOf(err); len(ids) > 0 {
		details = gin.H{"ids": ids}
	}
	ErrorWithDetails(c, status, code, err.Error(), details)
}

// Common error responses
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message)
}

func InternalServerError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
