package httputil

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/arena-manager/internal/authz"
	"github.com/AdamBeresnev/arena-manager/internal/service"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, authz.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrTiedScore),
		errors.Is(err, service.ErrUnsupportedBracketType):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrInvalidPaymentTransition),
		errors.Is(err, service.ErrRegistrationNotOpen),
		errors.Is(err, service.ErrTournamentFull),
		errors.Is(err, service.ErrInsufficientEntrants),
		errors.Is(err, service.ErrBracketAlreadyGenerated),
		errors.Is(err, service.ErrTournamentNotPlayable),
		errors.Is(err, service.ErrMatchNotReady),
		errors.Is(err, service.ErrMatchAlreadyDecided):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Error writes err as a JSON error body. Unexpected errors are logged and
// their details hidden from the client.
func Error(w http.ResponseWriter, msg string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err)
		WriteJSON(w, status, errorBody{Error: "Internal Server Error"})
		return
	}
	slog.Warn(msg, "status", status, "error", err)
	WriteJSON(w, status, errorBody{Error: err.Error()})
}

type errorBody struct {
	Error string `json:"error"`
}
