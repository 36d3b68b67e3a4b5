package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/erazemk/nexus/internal/model"
	"github.com/erazemk/nexus/internal/tracker"
)

// maxBodyBytes limits JSON request bodies. Imports get more room.
const (
	maxBodyBytes   = 64 << 10
	maxImportBytes = 32 << 20
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("error encoding response")
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, r *http.Request, status int, message string) {
	jsonResponse(w, r, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// trackerError maps a tracker error to a response. Validation failures are
// the caller's fault; anything else is logged and hidden.
func trackerError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, tracker.ErrValidation) {
		jsonError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Msg(message)
	jsonError(w, r, http.StatusInternalServerError, message)
}

// pathKind parses the {kind} path value, answering 400 when it is unknown.
func pathKind(w http.ResponseWriter, r *http.Request) (model.Kind, bool) {
	kind, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		jsonError(w, r, http.StatusBadRequest, err.Error())
		return "", false
	}
	return kind, true
}

// writeResult answers a mutation. created is used when the operation applied
// and made something new.
func writeResult(w http.ResponseWriter, r *http.Request, res tracker.Result, created bool) {
	status := http.StatusOK
	if created && res.Changed {
		status = http.StatusCreated
	}
	jsonResponse(w, r, status, res)
}
