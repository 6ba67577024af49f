package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wardenlabs/watchmarket/internal/marketplace"
	"github.com/wardenlabs/watchmarket/internal/pkg/logger"
	"github.com/wardenlabs/watchmarket/internal/pkg/validator"
	"github.com/wardenlabs/watchmarket/internal/trigger"
)

// errorBody is the JSON envelope of every error response.
type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps domain errors to HTTP statuses. Unrecognized errors are
// logged and reported as 500 without leaking internals.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	if status == http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondJSON(w, status, errorBody{Error: "internal server error"})
		return
	}

	respondJSON(w, status, errorBody{
		Error:   errorLabel(err),
		Details: fieldMessages(err),
	})
}

// errorLabel prefers the domain sentinel over the full joined chain so the
// envelope's error field stays a single line.
func errorLabel(err error) string {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return err.Error()
}

// fieldMessages extracts per-field validation messages, dropping the domain
// sentinels already surfaced by errorLabel.
func fieldMessages(err error) []string {
	var msgs []string
	for _, msg := range validator.Messages(err) {
		if sentinelMessages[msg] {
			continue
		}
		msgs = append(msgs, msg)
	}

	return msgs
}

var sentinels = []error{
	marketplace.ErrInvalidWebhook,
	marketplace.ErrInvalidConfig,
	marketplace.ErrWatcherTypeDeprecated,
	marketplace.ErrInvalidStatusTransition,
	validator.ErrValidationFailed,
	trigger.ErrCycleInProgress,
}

var sentinelMessages = func() map[string]bool {
	m := make(map[string]bool, len(sentinels))
	for _, sentinel := range sentinels {
		m[sentinel.Error()] = true
	}
	return m
}()

func statusFor(err error) int {
	switch {
	case errors.Is(err, marketplace.ErrWatcherNotFound),
		errors.Is(err, marketplace.ErrWatcherTypeNotFound),
		errors.Is(err, marketplace.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, marketplace.ErrOperatorNotFound):
		return http.StatusNotFound
	case errors.Is(err, marketplace.ErrInvalidWebhook),
		errors.Is(err, marketplace.ErrInvalidConfig),
		errors.Is(err, validator.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, marketplace.ErrWatcherTypeDeprecated),
		errors.Is(err, marketplace.ErrInvalidStatusTransition),
		errors.Is(err, trigger.ErrCycleInProgress):
		return http.StatusConflict
	case errors.Is(err, marketplace.ErrIntegrityViolation):
		// Stored records contradicting each other is a server fault, not a
		// lookup miss.
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
