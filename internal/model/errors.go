package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound = errors.New("room not found")
	ErrInvalidRole  = errors.New("invalid participant role")

	// Session errors
	ErrNoOpponent      = errors.New("no opponent present")
	ErrAlreadyResolved = errors.New("round already resolved")
	ErrOpponentLeft    = errors.New("opponent has left the room")
	ErrConfigNotChosen = errors.New("participant config not chosen")
	ErrNoResult        = errors.New("no round result yet")

	// Team errors
	ErrTeamNotFound  = errors.New("team not found")
	ErrMissingTeamID = errors.New("team id is required")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")

	// Validation errors; identity-bearing fields are never silently
	// defaulted
	ErrEmptyDisplayName = errors.New("display name must not be empty")
	ErrEmptyMessage     = errors.New("message text must not be empty")
)
