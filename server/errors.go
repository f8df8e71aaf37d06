package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brettbedarf/fsapi"
	"github.com/brettbedarf/fsapi/requests"
)

var errMissingFile = errors.New("missing file field")

// statusOf maps an error onto a status code and a client safe message.
// Messages are fixed strings; the underlying cause may name host paths and
// is only logged.
func statusOf(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "request body too large"
	}

	switch {
	case errors.Is(err, requests.ErrMalformedBody),
		errors.Is(err, requests.ErrMissingField),
		errors.Is(err, errMissingFile):
		return http.StatusUnprocessableEntity, "invalid request: " + rootMessage(err)
	}

	switch kind := fsapi.KindOf(err); kind {
	case fsapi.ErrConfinement, fsapi.ErrNotADirectory, fsapi.ErrNotAFile,
		fsapi.ErrInvalidOperation, fsapi.ErrEncoding:
		return http.StatusBadRequest, kind.Error()
	case fsapi.ErrNotFound:
		return http.StatusNotFound, kind.Error()
	case fsapi.ErrAlreadyExists:
		return http.StatusConflict, kind.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// rootMessage returns the sentinel text of a request decoding error.
func rootMessage(err error) string {
	for _, sentinel := range []error{requests.ErrMalformedBody, requests.ErrMissingField, errMissingFile} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "bad request"
}

// resultOf is the metrics label for the outcome of an operation.
func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	switch fsapi.KindOf(err) {
	case fsapi.ErrConfinement:
		return "confinement"
	case fsapi.ErrNotFound:
		return "not_found"
	case fsapi.ErrNotADirectory:
		return "not_a_directory"
	case fsapi.ErrNotAFile:
		return "not_a_file"
	case fsapi.ErrAlreadyExists:
		return "already_exists"
	case fsapi.ErrInvalidOperation:
		return "invalid_operation"
	case fsapi.ErrEncoding:
		return "encoding"
	default:
		return "io"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusOf(err)
	logger := s.logger.With().Str("request_id", requestIDFrom(r.Context())).Logger()
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	writeJSON(w, status, requests.ErrorResponse{Detail: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) // nolint:errcheck
}
