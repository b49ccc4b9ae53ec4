package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cleared-dev/tally/internal/model"
)

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrBoundary):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON body of every error response.
// The extra fields let clients rebuild the typed error.
type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Kind    string `json:"kind,omitempty"`
	ID      string `json:"id,omitempty"`
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	body := errorBody{Message: err.Error()}

	var (
		ve *model.ValidationError
		nf *model.NotFoundError
		pe *model.PermissionError
	)
	switch {
	case errors.As(err, &ve):
		body.Field, body.Reason = ve.Field, ve.Reason
	case errors.As(err, &nf):
		body.Kind, body.ID = nf.Kind, nf.ID
	case errors.As(err, &pe):
		body.ID = pe.ID
	}
	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(field, reason string) error {
	return &model.ValidationError{Field: field, Reason: reason}
}
