package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lawdesk/internal/domain"
	"lawdesk/internal/logging"
)

// APIResponse is the standard envelope for all API responses.
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

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Spreadsheet errors keep their full text so the uploader sees which columns
// or limits were at fault.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrUserInactive):
		return http.StatusForbidden, "USER_INACTIVE", "user is inactive"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: xlsx, xlsm, csv"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrMissingColumns):
		return http.StatusBadRequest, "MISSING_COLUMNS", err.Error()
	case errors.Is(err, domain.ErrTooManyRows):
		return http.StatusBadRequest, "TOO_MANY_ROWS", err.Error()
	case errors.Is(err, domain.ErrEmptyWorkbook):
		return http.StatusBadRequest, "EMPTY_WORKBOOK", "spreadsheet has no header row"
	case errors.Is(err, domain.ErrUnreadableWorkbook):
		return http.StatusBadRequest, "UNREADABLE_WORKBOOK", "spreadsheet could not be read"
	case errors.Is(err, domain.ErrPreviewHasErrors):
		return http.StatusUnprocessableEntity, "PREVIEW_HAS_ERRORS", "preview contains errors; fix them and upload again"
	case errors.Is(err, domain.ErrInvalidPreview):
		return http.StatusBadRequest, "INVALID_PREVIEW", err.Error()
	case errors.Is(err, domain.ErrTooManyImports):
		return http.StatusTooManyRequests, "TOO_MANY_IMPORTS", "too many imports in progress; try again shortly"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		logging.FromContext(c.Request.Context()).WithError(err).Error("internal error")
	}
	RespondError(c, status, code, msg)
}
