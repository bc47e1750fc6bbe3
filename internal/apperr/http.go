package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPStatus maps an error kind to the HTTP status the handlers respond
// with. StateConflict and NotFound stay distinct so clients can branch.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict:
		return http.StatusConflict
	case KindExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// Render writes the error as a JSON response. Internal causes are not
// exposed to clients.
func Render(c *gin.Context, err error) {
	status := HTTPStatus(err)
	msg := "internal error"
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		msg = e.Message
	}
	c.JSON(status, gin.H{"error": msg})
}
