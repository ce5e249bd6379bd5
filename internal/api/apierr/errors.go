package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ciocnim/arena/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidRole      = "INVALID_ROLE"
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodeTeamNotFound     = "TEAM_NOT_FOUND"
	CodeProfileNotFound  = "PROFILE_NOT_FOUND"
	CodeMissingTeamID    = "MISSING_TEAM_ID"
	CodeNoOpponent       = "NO_OPPONENT"
	CodeAlreadyResolved  = "ALREADY_RESOLVED"
	CodeOpponentLeft     = "OPPONENT_LEFT"
	CodeNoResult         = "NO_RESULT"
	CodeEmptyDisplayName = "EMPTY_DISPLAY_NAME"
	CodeEmptyMessage     = "EMPTY_MESSAGE"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrTeamNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeTeamNotFound, "Team not found"}}
	case errors.Is(err, model.ErrProfileNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeProfileNotFound, "Profile not found"}}
	case errors.Is(err, model.ErrInvalidRole):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRole, "Role must be initiator or challenger"}}
	case errors.Is(err, model.ErrMissingTeamID):
		return &httpError{http.StatusBadRequest, APIError{CodeMissingTeamID, "Team id is required"}}
	case errors.Is(err, model.ErrEmptyDisplayName):
		return &httpError{http.StatusBadRequest, APIError{CodeEmptyDisplayName, "Display name must not be empty"}}
	case errors.Is(err, model.ErrEmptyMessage):
		return &httpError{http.StatusBadRequest, APIError{CodeEmptyMessage, "Message text must not be empty"}}
	case errors.Is(err, model.ErrNoOpponent):
		return &httpError{http.StatusConflict, APIError{CodeNoOpponent, "No opponent present"}}
	case errors.Is(err, model.ErrAlreadyResolved):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyResolved, "Round already resolved"}}
	case errors.Is(err, model.ErrOpponentLeft):
		return &httpError{http.StatusConflict, APIError{CodeOpponentLeft, "Opponent has left the room"}}
	case errors.Is(err, model.ErrNoResult):
		return &httpError{http.StatusConflict, APIError{CodeNoResult, "No round result yet"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}
