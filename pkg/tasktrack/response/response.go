// Package response renders the API envelope: {status, data} on success
// and {status, errors: [...]} on failure.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/apperr"
)

// ErrorItem is a single entry in a failure envelope
type ErrorItem struct {
	Type    string `json:"type"`
	Key     string `json:"key,omitempty"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// Envelope is the uniform response body
type Envelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Errors []ErrorItem `json:"errors,omitempty"`
}

// SendOK writes a success envelope with the given HTTP status
func SendOK(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Envelope{Status: "success", Data: data})
}

// SendCreated writes a 201 success envelope
func SendCreated(c *gin.Context, data interface{}) {
	SendOK(c, http.StatusCreated, data)
}

// SendNoContent writes an empty 204 response
func SendNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SendError writes a failure envelope for a typed application error,
// mapping its kind to an HTTP status
func SendError(c *gin.Context, err error) {
	item := ErrorItem{Type: "system", Message: err.Error()}
	statusCode := http.StatusBadRequest

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		statusCode = http.StatusUnprocessableEntity
		item.Type = "validation"
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			item.Key = appErr.Key
		}
	case apperr.KindNotFound:
		statusCode = http.StatusNotFound
	case apperr.KindConflict:
		statusCode = http.StatusConflict
	case apperr.KindForbidden:
		statusCode = http.StatusForbidden
	case apperr.KindUnauthorized:
		statusCode = http.StatusUnauthorized
	default:
		statusCode = http.StatusInternalServerError
		item.Message = "Something went wrong. Please try again later."
	}

	item.Code = statusCode
	c.JSON(statusCode, Envelope{Status: "failed", Errors: []ErrorItem{item}})
}

// SendValidationErrors writes a 422 envelope with one entry per field
func SendValidationErrors(c *gin.Context, fieldErrors map[string]string) {
	items := make([]ErrorItem, 0, len(fieldErrors))
	for key, message := range fieldErrors {
		items = append(items, ErrorItem{Type: "validation", Key: key, Message: message})
	}
	c.JSON(http.StatusUnprocessableEntity, Envelope{Status: "failed", Errors: items})
}
