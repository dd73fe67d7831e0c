package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/emergency-dispatch/internal/domain/dispatch"
)

// errorResponse is the JSON body returned for every failed request.
type errorResponse struct {
	// Kind is the stable wire name of the error class.
	Kind string `json:"kind"`
	// Error is the human-readable failure description.
	Error string `json:"error"`
}

// statusByKind maps dispatch error sentinels to HTTP statuses.
//
//nolint:gochecknoglobals // Lookup table for transport mapping.
var statusByKind = []struct {
	sentinel error
	status   int
}{
	{dispatch.ErrInvalidInput, http.StatusBadRequest},
	{dispatch.ErrNotFound, http.StatusNotFound},
	{dispatch.ErrUnauthorized, http.StatusForbidden},
	{dispatch.ErrNotAssigned, http.StatusForbidden},
	{dispatch.ErrInvalidState, http.StatusConflict},
	{dispatch.ErrResponderUnavailable, http.StatusConflict},
	{dispatch.ErrInsufficientResource, http.StatusConflict},
	{dispatch.ErrAlreadyRegistered, http.StatusConflict},
}

// writeError renders a domain error with its mapped HTTP status.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	for _, m := range statusByKind {
		if errors.Is(err, m.sentinel) {
			status = m.status

			break
		}
	}

	c.JSON(status, errorResponse{
		Kind:  dispatch.ErrorKind(err),
		Error: err.Error(),
	})
}

// writeInvalidInput renders a request-shape failure as an INVALID_INPUT error.
func writeInvalidInput(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Kind:  "INVALID_INPUT",
		Error: message,
	})
}
