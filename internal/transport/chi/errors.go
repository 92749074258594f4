package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/docfusion/internal/domain"
)

// Error codes returned in error bodies.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeUnauthorized           = "unauthorized"
	codeDocumentNotFound       = "document_not_found"
	codeSearchUnavailable      = "search_unavailable"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeInternalError          = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrDocumentNotFound,
		domain.ErrSearchUnavailable,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
