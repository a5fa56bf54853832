// Package respond writes JSON bodies and maps domain errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/de-tools/realty-atlas/pkg/adapters"
	"github.com/de-tools/realty-atlas/pkg/models/api"
	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

const KindBadRequest = "bad_request"

func JSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

// Error writes {kind, message} with the status matching the error kind.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	body := adapters.MapErrorToAPI(err)
	status := StatusFor(body.Kind)

	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("kind", body.Kind).Msg("request failed")
	} else {
		logger.Warn().Err(err).Str("kind", body.Kind).Msg("request rejected")
	}

	JSON(w, r, status, body)
}

// WithStatus writes an error body with an explicit kind and status.
func WithStatus(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	JSON(w, r, status, api.Error{Kind: kind, Message: message})
}

func StatusFor(kind string) int {
	switch kind {
	case domain.KindUnknownRegion:
		return http.StatusNotFound
	case domain.KindInvalidPeriod, domain.KindMissingField:
		return http.StatusBadRequest
	case domain.KindFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
