package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoiceai/internal/domain"
	"invoiceai/pkg/logger"
)

// APIResponse is the envelope for requests rejected before processing.
// Processed requests answer with domain.ResultEnvelope instead.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, "MISSING_FILE", "file field is required"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, jpeg, png"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrServiceNotConfigured):
		return http.StatusInternalServerError, "SERVICE_NOT_CONFIGURED", "extraction service not configured; check API key"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		logger.FromContext(c.Request.Context(), nil).Error("http.internal_error", "code", code, "error", err)
	}
	RespondError(c, status, code, msg)
}
