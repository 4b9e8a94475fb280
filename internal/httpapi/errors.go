package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
	"github.com/a3tai/mcp-pdf-boxes/internal/pdf"
)

// Error codes of the JSON error envelope
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInvalidRange   = "INVALID_RANGE"
	CodeFileTooLarge   = "FILE_TOO_LARGE"
	CodeUnreadablePDF  = "UNREADABLE_PDF"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details"`
	RequestID string `json:"request_id"`
}

// statusFor maps an extraction error to its HTTP status and error code
func statusFor(err error) (int, string) {
	var (
		rangeErr      *boxes.InvalidRangeError
		formatErr     *boxes.UnknownFormatError
		tooLargeErr   *pdf.FileTooLargeError
		extractionErr *pdf.ExtractionError
	)
	switch {
	case errors.As(err, &rangeErr):
		return http.StatusBadRequest, CodeInvalidRange
	case errors.As(err, &formatErr):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.As(err, &tooLargeErr):
		return http.StatusRequestEntityTooLarge, CodeFileTooLarge
	case errors.As(err, &extractionErr):
		return http.StatusUnprocessableEntity, CodeUnreadablePDF
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// sendError writes the JSON error envelope and logs the failure
func sendError(c *gin.Context, logger logrus.FieldLogger, statusCode int, code string, err error) {
	entry := logger.WithFields(logrus.Fields{
		"request_id": requestID(c),
		"status":     statusCode,
		"code":       code,
	})
	if statusCode >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Warn("request rejected")
	}

	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:     code,
		Details:   err.Error(),
		RequestID: requestID(c),
	})
}
