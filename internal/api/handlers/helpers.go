package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/platform/obs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCoordinate), errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError answers with the mapped status. Client errors carry the
// message; server errors are logged and answered generically.
func writeDomainError(c *gin.Context, op string, err error) {
	_ = c.Error(err)

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Str("req_id", obs.RequestID(c.Request.Context())).
			Str("op", op).
			Err(err).
			Msg("request failed")
		writeError(c, status, "internal server error")
		return
	}
	writeError(c, status, err.Error())
}

var errTrailingJSON = errors.New("body must contain only one JSON object")

// writeBodyError answers a body that could not be read or decoded. Bodies
// cut off by the size limit get 413.
func writeBodyError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(c, http.StatusBadRequest, "invalid json body: "+err.Error())
}

// decodeJSON strictly decodes one JSON object. An empty body leaves v
// untouched.
func decodeJSON(c *gin.Context, v any) error {
	dec := json.NewDecoder(c.Request.Body)
	defer c.Request.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errTrailingJSON
	}
	return nil
}
