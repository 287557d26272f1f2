package handler

import (
	"context"
	"errors"
	"net/http"

	"scandeck/internal/browser"
	"scandeck/internal/domain"
	"scandeck/internal/httputil"
	"scandeck/internal/session"
)

// Sessions hands out the caller's engines
type Sessions interface {
	Get(ctx context.Context, userID string) (*session.Session, error)
}

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, browser.ErrConfirmationRequired):
		httputil.RespondError(w, http.StatusPreconditionRequired, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]interface{}{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		})
	default:
		switch domain.KindOf(err) {
		case domain.KindValidation:
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case domain.KindNotFound:
			httputil.RespondError(w, http.StatusNotFound, err.Error())
		case domain.KindConflict:
			httputil.RespondError(w, http.StatusConflict, err.Error())
		case domain.KindIOFailure:
			httputil.RespondError(w, http.StatusServiceUnavailable, "storage unavailable")
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

// currentSession resolves the caller's session, writing the error response on
// failure
func currentSession(w http.ResponseWriter, r *http.Request, sessions Sessions) (*session.Session, bool) {
	s, err := sessions.Get(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return s, true
}

// actionResponse reports whether an engine operation succeeded along with
// the state it left behind. Failure details are in the state's error field.
type actionResponse[T any] struct {
	OK    bool `json:"ok"`
	State T    `json:"state"`
}

// bindJSON parses the body into dest, writing a 400 or 413 on failure
func bindJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	err := httputil.ParseJSON(w, r, dest)
	switch {
	case err == nil:
		return true
	case errors.Is(err, httputil.ErrBodyTooLarge):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
	}
	return false
}
